package gol

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
)

// Used when no generation count is given
const DefaultGenerations = 3000

// Params provides the details of how to run the Game of Life.
type Params struct {
	Generations int
	Workers     int
	Delay       time.Duration // Pause after each generation, for visualisation
}

// Validate rejects any run that is not exactly two workers.
func (p Params) Validate() error {
	if p.Workers != 2 {
		return fmt.Errorf("%w: number of workers must be 2, got %d", ErrConfiguration, p.Workers)
	}
	return p.validate()
}

func (p Params) validate() error {
	if p.Workers < 1 {
		return fmt.Errorf("%w: %d workers", ErrConfiguration, p.Workers)
	}
	if p.Generations < 0 {
		return fmt.Errorf("%w: %d generations", ErrConfiguration, p.Generations)
	}
	return nil
}

// Run simulates initial for p.Generations generations with p.Workers workers,
// each in its own goroutine, and returns the assembled final grid.
// initial is not modified.
func Run(ctx context.Context, p Params, initial *Grid, renderer Renderer) (*Grid, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return runLocal(ctx, p, initial, renderer)
}

// runLocal is Run without the worker count restriction. Workers are joined in a
// ring by in-process links.
func runLocal(ctx context.Context, p Params, initial *Grid, renderer Renderer) (*Grid, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if initial.Height() < p.Workers {
		return nil, fmt.Errorf("%w: %d rows for %d workers", ErrConfiguration, initial.Height(), p.Workers)
	}
	log.Printf("Run: %dx%dx%d-%d", initial.Width(), initial.Height(), p.Generations, p.Workers)

	links := make([]map[int]Link, p.Workers)
	for i := range links {
		links[i] = make(map[int]Link)
	}
	if p.Workers > 1 {
		// One link per adjacent pair; two workers share a single link
		for i := 0; i != p.Workers; i++ {
			_, down := Neighbours(i, p.Workers)
			if links[i][down] != nil {
				continue
			}
			a, b := NewLinkPair()
			links[i][down], links[down][i] = a, b
		}
	}

	workers := make([]*Worker, p.Workers)
	for i := range workers {
		band := OwnedRange(i, p.Workers, initial.Height())
		exchanger, err := NewHaloExchanger(i, p.Workers, band, links[i])
		if err != nil {
			return nil, err
		}
		workers[i] = NewWorker(i, p, initial.Clone(), exchanger, renderer)
	}

	group, gctx := errgroup.WithContext(ctx)
	for i := range workers {
		w, peers := workers[i], links[i]
		group.Go(func() error {
			err := w.Run(gctx)
			if err != nil {
				// Unblock neighbours waiting on this worker
				for _, link := range peers {
					link.Close()
				}
			}
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	// Gather the owned rows of every worker
	final_grid := MustGrid(initial.Width(), initial.Height())
	for _, w := range workers {
		for y := w.Band().Lower; y != w.Band().Upper; y++ {
			copy(final_grid.Row(y), w.Current().Row(y))
		}
	}
	log.Printf("Run: %d alive cells after %d generations", len(final_grid.AliveCells()), p.Generations)
	return final_grid, nil
}
