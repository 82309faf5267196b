package gol

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// HaloExchanger ships a worker's boundary rows to its ring neighbours and
// writes theirs into the halo rows just outside its band.
type HaloExchanger struct {
	worker  int
	workers int
	band    Band
	up      int
	down    int
	links   map[int]Link
	pending map[int]map[tag]Message // Early messages per peer, keyed by tag
}

// halo is a row expected from a peer and where to put it.
type halo struct {
	tag tag
	row int
}

// NewHaloExchanger needs a link to every distinct neighbour of worker.
// With two workers that is a single link to the peer; with one worker no link is needed.
func NewHaloExchanger(worker, workers int, band Band, links map[int]Link) (*HaloExchanger, error) {
	up, down := Neighbours(worker, workers)
	h := &HaloExchanger{
		worker:  worker,
		workers: workers,
		band:    band,
		up:      up,
		down:    down,
		links:   links,
		pending: make(map[int]map[tag]Message),
	}
	if workers == 1 {
		return h, nil
	}
	for _, peer := range []int{up, down} {
		if links[peer] == nil {
			return nil, fmt.Errorf("%w: worker %d has no link to neighbour %d", ErrConfiguration, worker, peer)
		}
		h.pending[peer] = make(map[tag]Message)
	}
	return h, nil
}

// Exchange must be called once the band of next is fully computed for generation.
// It returns after both boundary rows were delivered and both halo rows of next
// were overwritten with the neighbours' rows of the same generation.
func (h *HaloExchanger) Exchange(ctx context.Context, generation int, next *Grid) error {
	if h.workers == 1 {
		// The halo rows are the worker's own rows
		return nil
	}
	top, bottom := h.band.Edges()
	above, below := h.band.Halos(next.Height())

	// Sends and receives run concurrently so that neither side waits on the other
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return h.send(gctx, h.up, Message{Generation: generation, From: h.worker, Edge: TopEdge, Row: next.Row(top)})
	})
	group.Go(func() error {
		return h.send(gctx, h.down, Message{Generation: generation, From: h.worker, Edge: BottomEdge, Row: next.Row(bottom)})
	})

	expected := map[int][]halo{}
	expected[h.up] = append(expected[h.up], halo{tag{generation, h.up, BottomEdge}, above})
	expected[h.down] = append(expected[h.down], halo{tag{generation, h.down, TopEdge}, below})
	for peer, halos := range expected {
		peer, halos := peer, halos
		group.Go(func() error {
			return h.receive(gctx, peer, generation, halos, next)
		})
	}
	return group.Wait()
}

func (h *HaloExchanger) send(ctx context.Context, peer int, m Message) error {
	if err := h.links[peer].Send(ctx, m); err != nil {
		return &ExchangeError{Worker: h.worker, Generation: m.Generation, Edge: m.Edge, Err: err}
	}
	return nil
}

// receive reads from the link to peer until every expected halo arrived.
// Messages are matched by tag, not by arrival order.
func (h *HaloExchanger) receive(ctx context.Context, peer, generation int, halos []halo, next *Grid) error {
	stash := h.pending[peer]
	remaining := make(map[tag]int, len(halos))
	for _, hl := range halos {
		remaining[hl.tag] = hl.row
	}
	fail := func(edge Edge, err error) error {
		return &ExchangeError{Worker: h.worker, Generation: generation, Edge: edge, Err: err}
	}
	accept := func(m Message) error {
		if len(m.Row) != next.Width() {
			return fail(m.Edge, fmt.Errorf("row of %d cells from worker %d, want %d", len(m.Row), m.From, next.Width()))
		}
		copy(next.Row(remaining[m.tag()]), m.Row)
		delete(remaining, m.tag())
		return nil
	}

	for t, m := range stash {
		if _, ok := remaining[t]; ok {
			delete(stash, t)
			if err := accept(m); err != nil {
				return err
			}
		}
	}

	for len(remaining) != 0 {
		m, err := h.links[peer].Receive(ctx)
		if err != nil {
			return fail(firstEdge(remaining), err)
		}
		t := m.tag()
		switch {
		case m.From != peer:
			return fail(m.Edge, fmt.Errorf("message from worker %d on link to worker %d", m.From, peer))
		case m.Generation < generation:
			return fail(m.Edge, fmt.Errorf("stale row from worker %d for generation %d", m.From, m.Generation))
		}
		if _, ok := remaining[t]; ok {
			if err := accept(m); err != nil {
				return err
			}
			continue
		}
		if _, dup := stash[t]; dup || m.Generation == generation {
			return fail(m.Edge, fmt.Errorf("unexpected %s row from worker %d for generation %d", m.Edge, m.From, m.Generation))
		}
		stash[t] = m
	}
	return nil
}

func firstEdge(remaining map[tag]int) Edge {
	edge := BottomEdge
	for t := range remaining {
		if t.edge < edge {
			edge = t.edge
		}
	}
	return edge
}
