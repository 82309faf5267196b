package gol

import (
	"fmt"
	"strings"

	"uk.ac.bris.cs/halogol/util"
)

// State of a single cell, same values as a PGM pixel
type State uint8

const (
	Dead  State = 0
	Alive State = 255
)

// Largest grid a worker will allocate
const MaxCells = 1 << 28

// Grid is a fixed size, row-major buffer of cell states
// Every row is always allocated
type Grid struct {
	width  int
	height int
	cells  []State
}

// NewGrid makes a grid with every cell dead
func NewGrid(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: grid %dx%d", ErrConfiguration, width, height)
	}
	if width > MaxCells/height {
		return nil, fmt.Errorf("%w: %dx%d cells", ErrGridTooLarge, width, height)
	}
	return &Grid{
		width:  width,
		height: height,
		cells:  make([]State, width*height),
	}, nil
}

// MustGrid is NewGrid for dimensions known to be valid.
func MustGrid(width, height int) *Grid {
	grid, err := NewGrid(width, height)
	util.Check(err)
	return grid
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// Row returns a view of row y, writes go through to the grid
func (g *Grid) Row(y int) []State {
	return g.cells[y*g.width : (y+1)*g.width]
}

func (g *Grid) Get(x, y int) State {
	return g.cells[y*g.width+x]
}

func (g *Grid) Set(x, y int, s State) {
	g.cells[y*g.width+x] = s
}

// Deep copy
func (g *Grid) Clone() *Grid {
	cells := make([]State, len(g.cells))
	copy(cells, g.cells)
	return &Grid{width: g.width, height: g.height, cells: cells}
}

// Equal reports whether both grids have the same size and contents.
func (g *Grid) Equal(other *Grid) bool {
	if g.width != other.width || g.height != other.height {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// AliveCells lists every live cell in row-major order.
func (g *Grid) AliveCells() []util.Cell {
	var alive []util.Cell
	for y := 0; y != g.height; y++ {
		for x, s := range g.Row(y) {
			if s == Alive {
				alive = append(alive, util.Cell{X: x, Y: y})
			}
		}
	}
	return alive
}

// String renders the grid in pattern form, one line per row.
func (g *Grid) String() string {
	var b strings.Builder
	b.Grow((g.width + 1) * g.height)
	for y := 0; y != g.height; y++ {
		for _, s := range g.Row(y) {
			if s == Alive {
				b.WriteByte(aliveRune)
			} else {
				b.WriteByte(deadRune)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// getSurrounding returns the positions of the eight cells around cell,
// wrapping at the grid edges.
func (g *Grid) getSurrounding(cell util.Cell) [8]util.Cell {
	if cell.X == 0 || cell.Y == 0 || cell.X == g.width-1 || cell.Y == g.height-1 {
		row_above := (cell.Y - 1 + g.height) % g.height
		row_below := (cell.Y + 1) % g.height
		col_left := (cell.X - 1 + g.width) % g.width
		col_right := (cell.X + 1) % g.width
		return [8]util.Cell{
			{X: col_left, Y: row_above}, {X: cell.X, Y: row_above}, {X: col_right, Y: row_above},
			{X: col_left, Y: cell.Y}, {X: col_right, Y: cell.Y},
			{X: col_left, Y: row_below}, {X: cell.X, Y: row_below}, {X: col_right, Y: row_below},
		}
	}
	return [8]util.Cell{
		{X: cell.X - 1, Y: cell.Y - 1},
		{X: cell.X, Y: cell.Y - 1},
		{X: cell.X + 1, Y: cell.Y - 1},
		{X: cell.X - 1, Y: cell.Y},
		{X: cell.X + 1, Y: cell.Y},
		{X: cell.X - 1, Y: cell.Y + 1},
		{X: cell.X, Y: cell.Y + 1},
		{X: cell.X + 1, Y: cell.Y + 1},
	}
}

// NextState computes the state of (row, col) in the next generation.
// It reads only the cell and its eight toroidal neighbours.
func NextState(g *Grid, row, col int) State {
	alive_neighbours := 0
	for _, n := range g.getSurrounding(util.Cell{X: col, Y: row}) {
		if g.cells[n.Y*g.width+n.X] == Alive {
			alive_neighbours++
		}
	}
	if g.Get(col, row) == Alive {
		switch alive_neighbours {
		case 2, 3:
			return Alive
		default:
			return Dead
		}
	}
	if alive_neighbours == 3 {
		return Alive
	}
	return Dead
}

// Step writes the next state of every cell in band into next
// Rows of next outside band are left untouched
func (g *Grid) Step(next *Grid, band Band) {
	for y := band.Lower; y != band.Upper; y++ {
		next_row := next.Row(y)
		for x := range next_row {
			next_row[x] = NextState(g, y, x)
		}
	}
}
