package gol

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Owned rows of one generation, as handed to the renderer
type Frame struct {
	Worker     int
	Generation int
	FirstRow   int       // Global index of Rows[0]
	Rows       [][]State // Only valid for the duration of the Render call
}

// Renderer displays frames. Implementations are called from every worker
// goroutine and must not keep Rows after returning.
type Renderer interface {
	Render(f Frame) error
}

// NopRenderer discards every frame
type NopRenderer struct{}

func (NopRenderer) Render(Frame) error { return nil }

// Worker runs the simulation loop for one band of the grid
type Worker struct {
	id          int
	band        Band
	generations int
	delay       time.Duration
	grids       [2]*Grid // Current and next, selected by cur
	cur         int
	generation  int
	exchanger   *HaloExchanger
	renderer    Renderer
}

// NewWorker takes ownership of initial, which must hold at least the band and
// its two halo rows for generation 0.
func NewWorker(id int, p Params, initial *Grid, exchanger *HaloExchanger, renderer Renderer) *Worker {
	if renderer == nil {
		renderer = NopRenderer{}
	}
	return &Worker{
		id:          id,
		band:        OwnedRange(id, p.Workers, initial.Height()),
		generations: p.Generations,
		delay:       p.Delay,
		grids:       [2]*Grid{initial, initial.Clone()},
		exchanger:   exchanger,
		renderer:    renderer,
	}
}

// Rows owned by the worker
func (w *Worker) Band() Band { return w.band }

// Current is the grid holding the latest completed generation.
// Only the owned band and the halo rows are meaningful.
func (w *Worker) Current() *Grid { return w.grids[w.cur] }

// Number of completed update and exchange cycles
func (w *Worker) Generation() int { return w.generation }

// Run advances the band by exactly the configured number of generations.
// Any exchange failure stops the run.
func (w *Worker) Run(ctx context.Context) error {
	log.Printf("Worker %d: rows %v, %d generations", w.id, w.band, w.generations)

	if err := w.render(); err != nil {
		return err
	}
	for w.generation != w.generations {
		if err := w.render(); err != nil {
			return err
		}

		current_grid, next_grid := w.grids[w.cur], w.grids[1-w.cur]
		current_grid.Step(next_grid, w.band)

		if err := w.exchanger.Exchange(ctx, w.generation, next_grid); err != nil {
			return err
		}

		// Swap current and next grid
		w.cur = 1 - w.cur
		w.generation++

		if err := w.pace(ctx); err != nil {
			return err
		}
	}
	if err := w.render(); err != nil {
		return err
	}

	log.Printf("Worker %d: done after %d generations", w.id, w.generation)
	return nil
}

func (w *Worker) render() error {
	current_grid := w.grids[w.cur]
	owned_rows := make([][]State, 0, w.band.Rows())
	for y := w.band.Lower; y != w.band.Upper; y++ {
		owned_rows = append(owned_rows, current_grid.Row(y))
	}
	err := w.renderer.Render(Frame{
		Worker:     w.id,
		Generation: w.generation,
		FirstRow:   w.band.Lower,
		Rows:       owned_rows,
	})
	if err != nil {
		return fmt.Errorf("worker %d: render generation %d: %w", w.id, w.generation, err)
	}
	return nil
}

// Wait between generations so the visualisation can be followed
func (w *Worker) pace(ctx context.Context) error {
	if w.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(w.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
