package gol

// DefaultPattern is an 82x28 grid holding three gliders and a blinker.
var DefaultPattern = []string{
	"                                                                                  ",
	"   #                                                                              ",
	" # #                                            ###                               ",
	"  ##                                                                              ",
	"                                                                                  ",
	"                                                      #                           ",
	"                                                    # #                           ",
	"                                                     ##                           ",
	"                                                                                  ",
	"                                                                                  ",
	"                                                                                  ",
	"                                                                                  ",
	"             #                                                                    ",
	"           # #                                                                    ",
	"            ##                                                                    ",
	"                                                                                  ",
	"                                                                                  ",
	"                                                                                  ",
	"                                                                                  ",
	"                                                                                  ",
	"                                                                                  ",
	"                                                                                  ",
	"                                                                                  ",
	"                                                                                  ",
	"                                                                                  ",
	"                                                                                  ",
	"                                                                                  ",
	"                                                                                  ",
}
