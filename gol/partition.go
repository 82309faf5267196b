package gol

import "fmt"

// Band is the half-open row range [Lower, Upper) owned by one worker.
type Band struct {
	Lower int
	Upper int
}

func (b Band) String() string {
	return fmt.Sprintf("[%d, %d)", b.Lower, b.Upper)
}

// Rows is the number of rows in the band.
func (b Band) Rows() int {
	return b.Upper - b.Lower
}

// Edges returns the owned rows that neighbours need: the first and last row.
func (b Band) Edges() (top, bottom int) {
	return b.Lower, b.Upper - 1
}

// Halos returns the rows just outside the band, wrapped at the grid edges.
// They are written by exchange and only read by the owner of the band.
func (b Band) Halos(height int) (above, below int) {
	return (b.Lower - 1 + height) % height, b.Upper % height
}

// OwnedRange gives the band of worker out of workers for a grid of height rows.
// With two workers, worker 0 owns [0, height/2) and worker 1 owns [height/2, height).
func OwnedRange(worker, workers, height int) Band {
	return Band{
		Lower: worker * height / workers,
		Upper: (worker + 1) * height / workers,
	}
}

// DivideRows returns the band of every worker, in worker order.
func DivideRows(workers, height int) []Band {
	bands := make([]Band, workers)
	for i := range bands {
		bands[i] = OwnedRange(i, workers, height)
	}
	return bands
}

// Neighbours returns the workers owning the bands above and below worker on the ring.
// With two workers both are the peer; with one worker both are itself.
func Neighbours(worker, workers int) (up, down int) {
	return (worker - 1 + workers) % workers, (worker + 1) % workers
}
