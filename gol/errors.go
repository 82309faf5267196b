package gol

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned for any setup problem found before the first generation.
	ErrConfiguration = errors.New("configuration error")
	// ErrGridTooLarge is returned when a grid would exceed MaxCells.
	ErrGridTooLarge = errors.New("grid too large")
)

// ExchangeError reports a halo row that could not be sent or received.
// It is always fatal for the run.
type ExchangeError struct {
	Worker     int
	Generation int
	Edge       Edge
	Err        error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("worker %d: generation %d: %s halo: %v", e.Worker, e.Generation, e.Edge, e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}
