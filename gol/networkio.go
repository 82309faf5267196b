package gol

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"
)

// Message type enumerations
const (
	MSG_HELLO = iota
	MSG_HALO
)

// dialInterval is how long Dial waits before trying a peer that is not listening yet.
var dialInterval = time.Second

// Connection is a Link to a worker in another process over TCP.
type Connection struct {
	conn     net.Conn
	reader   *bufio.Reader
	mutex    *sync.Mutex // synchronise writing functions
	messages chan Message
	err      error // Why messages was closed
	done     chan struct{}
	once     sync.Once
}

// Listen accepts a single peer on addr and exchanges hellos with it.
func Listen(ctx context.Context, addr string, hello Hello) (*Connection, Hello, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, Hello{}, err
	}
	defer listener.Close()
	log.Printf("Worker %d: waiting for peer on %s", hello.Worker, listener.Addr())
	return accept(ctx, listener, hello)
}

func accept(ctx context.Context, listener net.Listener, hello Hello) (*Connection, Hello, error) {
	stop := context.AfterFunc(ctx, func() { listener.Close() })
	defer stop()
	conn, err := listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, Hello{}, ctx.Err()
		}
		return nil, Hello{}, err
	}
	return handshake(ctx, conn, hello)
}

// Dial connects to the peer on addr, waiting until it listens, and exchanges hellos with it.
func Dial(ctx context.Context, addr string, hello Hello) (*Connection, Hello, error) {
	var dialer net.Dialer
	for {
		log.Printf("Worker %d: connecting to peer %s", hello.Worker, addr)
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			return handshake(ctx, conn, hello)
		}
		select {
		case <-ctx.Done():
			return nil, Hello{}, fmt.Errorf("dial %s: %w", addr, ctx.Err())
		case <-time.After(dialInterval):
		}
	}
}

// handshake sends hello, reads the peer's and checks that both describe the same run.
func handshake(ctx context.Context, conn net.Conn, hello Hello) (*Connection, Hello, error) {
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	c := &Connection{
		conn:     conn,
		reader:   bufio.NewReader(conn),
		mutex:    new(sync.Mutex),
		messages: make(chan Message),
		done:     make(chan struct{}),
	}
	if err := c.writeHello(hello); err != nil {
		conn.Close()
		return nil, Hello{}, err
	}
	peer, err := c.readHello()
	if err != nil {
		conn.Close()
		return nil, Hello{}, err
	}
	if err := checkHello(hello, peer); err != nil {
		conn.Close()
		return nil, Hello{}, err
	}
	conn.SetDeadline(time.Time{})
	log.Printf("Worker %d: connected to worker %d at %s", hello.Worker, peer.Worker, conn.RemoteAddr())

	go c.monitor()
	return c, peer, nil
}

func checkHello(own, peer Hello) error {
	switch {
	case peer.Worker == own.Worker:
		return fmt.Errorf("%w: both workers are worker %d", ErrConfiguration, own.Worker)
	case peer.Workers != own.Workers:
		return fmt.Errorf("%w: peer runs %d workers, want %d", ErrConfiguration, peer.Workers, own.Workers)
	case peer.Width != own.Width || peer.Height != own.Height:
		return fmt.Errorf("%w: peer grid is %dx%d, want %dx%d", ErrConfiguration, peer.Width, peer.Height, own.Width, own.Height)
	case peer.Generations != own.Generations:
		return fmt.Errorf("%w: peer runs %d generations, want %d", ErrConfiguration, peer.Generations, own.Generations)
	}
	return nil
}

func (c *Connection) writeHello(hello Hello) error {
	buffer := []byte{MSG_HELLO}
	for _, v := range []int{hello.Worker, hello.Workers, hello.Width, hello.Height, hello.Generations} {
		buffer = binary.AppendVarint(buffer, int64(v))
	}
	_, err := c.conn.Write(buffer)
	return err
}

func (c *Connection) readHello() (Hello, error) {
	message, err := c.reader.ReadByte()
	if err != nil {
		return Hello{}, err
	}
	if message != MSG_HELLO {
		return Hello{}, fmt.Errorf("expected hello, got message type %d", message)
	}
	var fields [5]int
	for i := range fields {
		v, err := binary.ReadVarint(c.reader)
		if err != nil {
			return Hello{}, err
		}
		fields[i] = int(v)
	}
	return Hello{Worker: fields[0], Workers: fields[1], Width: fields[2], Height: fields[3], Generations: fields[4]}, nil
}

// Send writes one halo row to the peer.
func (c *Connection) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buffer := []byte{MSG_HALO}
	buffer = binary.AppendVarint(buffer, int64(m.Generation))
	buffer = binary.AppendVarint(buffer, int64(m.From))
	buffer = append(buffer, byte(m.Edge))
	buffer = binary.AppendVarint(buffer, int64(len(m.Row)))
	buffer = append(buffer, compressRow(m.Row)...)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Unblock a write the peer is not draining
	stop := context.AfterFunc(ctx, func() { c.conn.SetWriteDeadline(time.Now()) })
	defer stop()
	if _, err := c.conn.Write(buffer); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, net.ErrClosed) {
			return ErrLinkClosed
		}
		return err
	}
	return nil
}

// Receive returns the next halo row read from the peer.
func (c *Connection) Receive(ctx context.Context) (Message, error) {
	select {
	case m, ok := <-c.messages:
		if !ok {
			return Message{}, c.err
		}
		return m, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (c *Connection) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// Repeatedly read messages from the connection until it is closed
func (c *Connection) monitor() {
	var err error
	defer func() {
		c.err = err
		close(c.messages)
	}()

	for {
		var m Message
		m, err = c.readHalo()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				err = ErrLinkClosed
			}
			return
		}
		select {
		case c.messages <- m:
		case <-c.done:
			err = ErrLinkClosed
			return
		}
	}
}

func (c *Connection) readHalo() (Message, error) {
	message, err := c.reader.ReadByte()
	if err != nil {
		return Message{}, err
	}
	if message != MSG_HALO {
		return Message{}, fmt.Errorf("unexpected message type %d", message)
	}
	generation, err := binary.ReadVarint(c.reader)
	if err != nil {
		return Message{}, err
	}
	from, err := binary.ReadVarint(c.reader)
	if err != nil {
		return Message{}, err
	}
	edge, err := c.reader.ReadByte()
	if err != nil {
		return Message{}, err
	}
	width, err := binary.ReadVarint(c.reader)
	if err != nil {
		return Message{}, err
	}
	if width < 0 || width > MaxCells {
		return Message{}, fmt.Errorf("row width %d out of range", width)
	}
	data := make([]byte, (width+7)/8)
	if _, err := io.ReadFull(c.reader, data); err != nil {
		return Message{}, err
	}
	row, err := decompressRow(data, int(width))
	if err != nil {
		return Message{}, err
	}
	return Message{Generation: int(generation), From: int(from), Edge: Edge(edge), Row: row}, nil
}
