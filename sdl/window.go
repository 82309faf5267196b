package sdl

import (
	"sync"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"uk.ac.bris.cs/halogol/gol"
)

const frameInterval = time.Second / 30

// Window is a gol.Renderer that draws into an SDL window.
// Render may be called from any goroutine; Loop must run on the main thread.
type Window struct {
	width    int32
	height   int32
	scale    int32
	window   *sdl.Window
	renderer *sdl.Renderer

	mutex  sync.Mutex
	pixels []gol.State
	dirty  bool
}

// NewWindow opens a window for a width x height grid, each cell scale pixels wide.
func NewWindow(width, height, scale int) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, err
	}
	w := &Window{
		width:  int32(width),
		height: int32(height),
		scale:  int32(scale),
		pixels: make([]gol.State, width*height),
	}
	window, err := sdl.CreateWindow("Game of Life", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		w.width*w.scale, w.height*w.scale, sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, err
	}
	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, err
	}
	w.window, w.renderer = window, renderer
	return w, nil
}

func (w *Window) Render(f gol.Frame) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	for i, row := range f.Rows {
		copy(w.pixels[(f.FirstRow+i)*int(w.width):], row)
	}
	w.dirty = true
	return nil
}

// Loop presents frames and handles window events until stop is closed,
// then presents the last frame once more.
// Closing the window or pressing q calls quit.
func (w *Window) Loop(stop <-chan struct{}, quit func()) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			w.present()
			return
		case <-ticker.C:
		}
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				quit()
			case *sdl.KeyboardEvent:
				if e.Type == sdl.KEYDOWN && e.Keysym.Sym == sdl.K_q {
					quit()
				}
			}
		}
		w.present()
	}
}

func (w *Window) present() {
	w.mutex.Lock()
	if !w.dirty {
		w.mutex.Unlock()
		return
	}
	rects := make([]sdl.Rect, 0, 64)
	for i, state := range w.pixels {
		if state == gol.Alive {
			x, y := int32(i)%w.width, int32(i)/w.width
			rects = append(rects, sdl.Rect{X: x * w.scale, Y: y * w.scale, W: w.scale, H: w.scale})
		}
	}
	w.dirty = false
	w.mutex.Unlock()

	w.renderer.SetDrawColor(0, 0, 0, 255)
	w.renderer.Clear()
	if len(rects) != 0 {
		w.renderer.SetDrawColor(255, 255, 255, 255)
		w.renderer.FillRects(rects)
	}
	w.renderer.Present()
}

// Destroy closes the window.
func (w *Window) Destroy() {
	w.renderer.Destroy()
	w.window.Destroy()
	sdl.Quit()
}
