package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"time"

	"uk.ac.bris.cs/halogol/gol"
	"uk.ac.bris.cs/halogol/sdl"
	"uk.ac.bris.cs/halogol/term"
)

// main runs both workers as goroutines of one process, joined by an in-process link.
func main() {
	runtime.LockOSThread()
	var params gol.Params

	flag.IntVar(
		&params.Workers,
		"workers",
		2,
		"Specify the number of workers. Must be 2.")

	flag.IntVar(
		&params.Generations,
		"gens",
		gol.DefaultGenerations,
		"Specify the number of generations to process.")

	flag.DurationVar(
		&params.Delay,
		"delay",
		time.Second,
		"Pause after every generation so the visualisation can be followed.")

	var cfg config
	flag.IntVar(&cfg.width, "width", 0, "Grid width. Defaults to the width of the pattern.")
	flag.IntVar(&cfg.height, "height", 0, "Grid height. Defaults to the height of the pattern.")
	flag.StringVar(&cfg.pattern, "pattern", "", "Text pattern or .pgm image to start from. Defaults to the built-in pattern.")
	flag.StringVar(&cfg.render, "render", "term", "Where to draw the grid: term, sdl or none.")
	flag.IntVar(&cfg.scale, "scale", 8, "Pixels per cell in the SDL window.")
	flag.StringVar(&cfg.out, "out", "out", "Directory for the final PGM image. Empty disables it.")

	flag.Parse()

	if err := run(params, cfg); err != nil {
		log.SetOutput(os.Stderr)
		log.Fatal(err)
	}
}

type config struct {
	width   int
	height  int
	pattern string
	render  string
	scale   int
	out     string
}

func run(params gol.Params, c config) error {
	if err := params.Validate(); err != nil {
		return err
	}

	initial, err := gol.LoadPattern(c.pattern, c.width, c.height)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var renderer gol.Renderer
	var window *sdl.Window
	var screen *term.Screen
	switch c.render {
	case "term":
		screen, err = term.New(initial.Height())
		if err != nil {
			return err
		}
		defer screen.Close()
		go screen.Watch(cancel)
		// Log lines would be drawn over the grid
		log.SetOutput(io.Discard)
		renderer = screen
	case "sdl":
		window, err = sdl.NewWindow(initial.Width(), initial.Height(), c.scale)
		if err != nil {
			return err
		}
		defer window.Destroy()
		renderer = window
	case "none":
		renderer = gol.NopRenderer{}
	default:
		return fmt.Errorf("%w: unknown renderer %q", gol.ErrConfiguration, c.render)
	}

	var final *gol.Grid
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		final, runErr = gol.Run(ctx, params, initial, renderer)
	}()
	if window != nil {
		// SDL must be driven from the main thread
		window.Loop(done, cancel)
	}
	<-done
	if runErr != nil {
		return runErr
	}

	if c.out != "" {
		if _, err := gol.WritePgm(c.out, final, params.Generations); err != nil {
			return err
		}
	}

	// Leave the final generation up until the user quits
	switch {
	case window != nil:
		window.Loop(ctx.Done(), cancel)
	case screen != nil:
		screen.Hold(ctx, params.Workers)
	}
	return nil
}
