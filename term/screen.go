// Package term draws the grid in a terminal, each worker writing its own rows
// in place, with one status line per worker below the grid.
package term

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"uk.ac.bris.cs/halogol/gol"
)

// Screen is a gol.Renderer on a tcell screen. It is safe for concurrent use.
type Screen struct {
	screen tcell.Screen
	mutex  sync.Mutex
	height int // Rows of the grid; status lines start below
	alive  tcell.Style
	dead   tcell.Style
}

// New takes over the terminal.
func New(gridHeight int) (*Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("initializing screen: %w", err)
	}
	return NewWithScreen(screen, gridHeight), nil
}

// NewWithScreen renders to an already initialised screen.
func NewWithScreen(screen tcell.Screen, gridHeight int) *Screen {
	screen.Clear()
	return &Screen{
		screen: screen,
		height: gridHeight,
		alive:  tcell.StyleDefault.Foreground(tcell.ColorGreen),
		dead:   tcell.StyleDefault,
	}
}

func (s *Screen) Render(f gol.Frame) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i, row := range f.Rows {
		y := f.FirstRow + i
		for x, state := range row {
			if state == gol.Alive {
				s.screen.SetContent(x, y, '#', nil, s.alive)
			} else {
				s.screen.SetContent(x, y, ' ', nil, s.dead)
			}
		}
	}
	s.drawString(0, s.height+1+f.Worker, fmt.Sprintf("Worker %d: Generation %d", f.Worker, f.Generation))
	s.screen.Show()
	return nil
}

func (s *Screen) drawString(x, y int, str string) {
	for i, r := range []rune(str) {
		s.screen.SetContent(x+i, y, r, nil, tcell.StyleDefault)
	}
}

// Watch handles terminal events until the screen is closed.
// Escape, Ctrl-C or 'q' call quit.
func (s *Screen) Watch(quit func()) {
	for {
		switch ev := s.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventResize:
			s.screen.Sync()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				quit()
			}
		}
	}
}

// Hold keeps the last frame on screen with a prompt below the status lines
// of workers, until ctx is done
func (s *Screen) Hold(ctx context.Context, workers int) {
	s.mutex.Lock()
	s.drawString(0, s.height+2+workers, "Done. Press q to exit")
	s.screen.Show()
	s.mutex.Unlock()
	<-ctx.Done()
}

// Close gives the terminal back.
func (s *Screen) Close() {
	s.screen.Fini()
}
