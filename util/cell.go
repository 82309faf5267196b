package util

// Cell is a grid coordinate, X the column and Y the row.
type Cell struct {
	X, Y int
}
