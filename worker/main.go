package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"uk.ac.bris.cs/halogol/gol"
	"uk.ac.bris.cs/halogol/term"
)

// main runs a single worker as its own process. Worker 0 listens for its peer,
// worker 1 connects to it; both then exchange halo rows over TCP.
func main() {
	var params gol.Params
	var id, width, height int
	var listen, peer, pattern, render string
	var timeout time.Duration

	flag.IntVar(&id, "id", 0, "Identity of this worker, 0 or 1.")
	flag.IntVar(&params.Workers, "workers", 2, "Specify the number of workers. Must be 2.")
	flag.IntVar(&params.Generations, "gens", gol.DefaultGenerations, "Specify the number of generations to process.")
	flag.DurationVar(&params.Delay, "delay", time.Second, "Pause after every generation.")
	flag.IntVar(&width, "width", 0, "Grid width. Defaults to the width of the pattern.")
	flag.IntVar(&height, "height", 0, "Grid height. Defaults to the height of the pattern.")
	flag.StringVar(&pattern, "pattern", "", "Text pattern or .pgm image to start from.")
	flag.StringVar(&listen, "listen", ":8030", "Address worker 0 listens on.")
	flag.StringVar(&peer, "peer", "127.0.0.1:8030", "Address worker 1 connects to.")
	flag.StringVar(&render, "render", "term", "Where to draw the owned rows: term or none.")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "How long to wait for the peer to connect.")
	flag.Parse()

	if err := run(id, params, width, height, pattern, listen, peer, render, timeout); err != nil {
		log.SetOutput(os.Stderr)
		log.Fatal(err)
	}
	log.SetOutput(os.Stderr)
	log.Printf("Process %d done. Exiting", id)
}

func run(id int, params gol.Params, width, height int, pattern, listen, peer, render string, timeout time.Duration) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if id < 0 || id >= params.Workers {
		return fmt.Errorf("%w: worker id %d out of range", gol.ErrConfiguration, id)
	}
	if render != "term" && render != "none" {
		return fmt.Errorf("%w: unknown renderer %q", gol.ErrConfiguration, render)
	}

	initial, err := gol.LoadPattern(pattern, width, height)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	hello := gol.Hello{
		Worker:      id,
		Workers:     params.Workers,
		Width:       initial.Width(),
		Height:      initial.Height(),
		Generations: params.Generations,
	}
	connectCtx, cancelConnect := context.WithTimeout(ctx, timeout)
	var conn *gol.Connection
	if id == 0 {
		conn, _, err = gol.Listen(connectCtx, listen, hello)
	} else {
		conn, _, err = gol.Dial(connectCtx, peer, hello)
	}
	cancelConnect()
	if err != nil {
		return err
	}
	defer conn.Close()

	up, _ := gol.Neighbours(id, params.Workers)
	band := gol.OwnedRange(id, params.Workers, initial.Height())
	exchanger, err := gol.NewHaloExchanger(id, params.Workers, band, map[int]gol.Link{up: conn})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var renderer gol.Renderer = gol.NopRenderer{}
	var screen *term.Screen
	if render == "term" {
		screen, err = term.New(initial.Height())
		if err != nil {
			return err
		}
		defer screen.Close()
		go screen.Watch(cancel)
		log.SetOutput(io.Discard)
		renderer = screen
	}

	if err := gol.NewWorker(id, params, initial, exchanger, renderer).Run(ctx); err != nil {
		return err
	}
	if screen != nil {
		screen.Hold(ctx, params.Workers)
	}
	return nil
}
