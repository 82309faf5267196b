package gol

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

// connectPair links worker 0 and worker 1 over loopback TCP.
func connectPair(tb testing.TB, hello Hello) (*Connection, *Connection) {
	tb.Helper()
	conn0, conn1, err := tryConnect(hello, hello)
	if err != nil {
		tb.Fatal(err)
	}
	return conn0, conn1
}

func tryConnect(hello0, hello1 Hello) (*Connection, *Connection, error) {
	hello0.Worker, hello1.Worker = 0, 1
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, nil, err
	}
	defer listener.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var conn0, conn1 *Connection
	var g errgroup.Group
	g.Go(func() error {
		var err error
		conn0, _, err = accept(ctx, listener, hello0)
		return err
	})
	g.Go(func() error {
		var err error
		conn1, _, err = Dial(ctx, listener.Addr().String(), hello1)
		return err
	})
	err = g.Wait()
	if err != nil {
		if conn0 != nil {
			conn0.Close()
		}
		if conn1 != nil {
			conn1.Close()
		}
		return nil, nil, err
	}
	return conn0, conn1, nil
}

func TestHandshakeChecksPeer(t *testing.T) {
	own := Hello{Workers: 2, Width: 16, Height: 8, Generations: 10}
	tests := []struct {
		name string
		peer Hello
	}{
		{"grid size", Hello{Workers: 2, Width: 16, Height: 9, Generations: 10}},
		{"generations", Hello{Workers: 2, Width: 16, Height: 8, Generations: 11}},
		{"workers", Hello{Workers: 3, Width: 16, Height: 8, Generations: 10}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, _, err := tryConnect(own, test.peer); !errors.Is(err, ErrConfiguration) {
				t.Fatalf("got %v, want a configuration error", err)
			}
		})
	}
}

func TestCheckHelloSameWorker(t *testing.T) {
	hello := Hello{Worker: 1, Workers: 2, Width: 4, Height: 4}
	if err := checkHello(hello, hello); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("got %v, want a configuration error", err)
	}
}

func TestConnectionCarriesMessages(t *testing.T) {
	conn0, conn1 := connectPair(t, Hello{Workers: 2, Width: 11, Height: 4, Generations: 1})
	defer conn0.Close()
	defer conn1.Close()

	sent := Message{Generation: 300, From: 0, Edge: BottomEdge, Row: randomGrid(3, 11, 1).Row(0)}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn0.Send(ctx, sent); err != nil {
		t.Fatal(err)
	}
	got, err := conn1.Receive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Generation != sent.Generation || got.From != sent.From || got.Edge != sent.Edge || !rowsEqual(got.Row, sent.Row) {
		t.Errorf("got %+v, want %+v", got, sent)
	}
}

func TestConnectionClosedByPeer(t *testing.T) {
	conn0, conn1 := connectPair(t, Hello{Workers: 2, Width: 4, Height: 4, Generations: 1})
	defer conn1.Close()
	conn0.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := conn1.Receive(ctx); !errors.Is(err, ErrLinkClosed) {
		t.Fatalf("got %v, want ErrLinkClosed", err)
	}
}

func TestDialGivesUp(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := listener.Addr().String()
	listener.Close()

	saved := dialInterval
	dialInterval = 10 * time.Millisecond
	defer func() { dialInterval = saved }()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, _, err := Dial(ctx, addr, Hello{Worker: 1, Workers: 2}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want deadline exceeded", err)
	}
}

func TestListenCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, _, err := Listen(ctx, "127.0.0.1:0", Hello{Workers: 2}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want deadline exceeded", err)
	}
}

// Two workers talking over TCP end on the same grid as the in-process run.
func TestWorkersOverTCP(t *testing.T) {
	const width, height, generations = 30, 21, 60
	initial := randomGrid(17, width, height)
	want, err := Run(context.Background(), Params{Generations: generations, Workers: 2}, initial, nil)
	if err != nil {
		t.Fatal(err)
	}

	conn0, conn1 := connectPair(t, Hello{Workers: 2, Width: width, Height: height, Generations: generations})
	defer conn0.Close()
	defer conn1.Close()

	p := Params{Generations: generations, Workers: 2}
	var workers [2]*Worker
	for id, conn := range []*Connection{conn0, conn1} {
		band := OwnedRange(id, 2, height)
		ex, err := NewHaloExchanger(id, 2, band, map[int]Link{1 - id: conn})
		if err != nil {
			t.Fatal(err)
		}
		workers[id] = NewWorker(id, p, initial.Clone(), ex, nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		w := w
		g.Go(func() error { return w.Run(ctx) })
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	for _, w := range workers {
		band := w.Band()
		for y := band.Lower; y != band.Upper; y++ {
			if !rowsEqual(w.Current().Row(y), want.Row(y)) {
				t.Fatalf("row %d differs from the in-process run", y)
			}
		}
	}
}

// A send to a peer that stops reading must give up when its context is cancelled.
func TestSendCancelledWhilePeerStalls(t *testing.T) {
	const width = 1 << 24
	conn0, conn1 := connectPair(t, Hello{Workers: 2, Width: width, Height: 2, Generations: 1})
	defer conn0.Close()
	defer conn1.Close()

	row := make([]State, width)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		for generation := 0; ; generation++ {
			if err := conn0.Send(ctx, Message{Generation: generation, Edge: TopEdge, Row: row}); err != nil {
				done <- err
				return
			}
		}
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("got %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("send still blocked after cancellation")
	}
}
