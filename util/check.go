package util

import "log"

// Check panics with the error message if err is non-nil.
// Only bootstrap code uses it; simulation code returns errors.
func Check(err error) {
	if err != nil {
		log.Panic(err.Error())
	}
}
