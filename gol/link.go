package gol

import (
	"context"
	"errors"
	"sync"
)

// ErrLinkClosed is returned by a Link whose either end has been closed.
var ErrLinkClosed = errors.New("link closed")

// Link is a reliable, ordered, point-to-point channel between two workers.
// Send blocks until the message is handed over; Receive blocks until one arrives.
type Link interface {
	Send(ctx context.Context, m Message) error
	Receive(ctx context.Context) (Message, error)
	Close() error
}

// chanLink is one end of an in-process link. It is unbuffered, so a send
// completes only when the other end receives.
type chanLink struct {
	out        chan<- Message
	in         <-chan Message
	closed     chan struct{}
	peerClosed <-chan struct{}
	once       *sync.Once
}

// NewLinkPair returns the two ends of an in-process link.
func NewLinkPair() (Link, Link) {
	ab := make(chan Message)
	ba := make(chan Message)
	aClosed := make(chan struct{})
	bClosed := make(chan struct{})
	a := &chanLink{out: ab, in: ba, closed: aClosed, peerClosed: bClosed, once: new(sync.Once)}
	b := &chanLink{out: ba, in: ab, closed: bClosed, peerClosed: aClosed, once: new(sync.Once)}
	return a, b
}

func (l *chanLink) Send(ctx context.Context, m Message) error {
	// Rows are copied across the boundary, never shared
	row := make([]State, len(m.Row))
	copy(row, m.Row)
	m.Row = row
	select {
	case l.out <- m:
		return nil
	case <-l.closed:
		return ErrLinkClosed
	case <-l.peerClosed:
		return ErrLinkClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *chanLink) Receive(ctx context.Context) (Message, error) {
	select {
	case m := <-l.in:
		return m, nil
	case <-l.closed:
		return Message{}, ErrLinkClosed
	case <-l.peerClosed:
		return Message{}, ErrLinkClosed
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (l *chanLink) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}
