package gol

import (
	"math/rand"
	"testing"

	"uk.ac.bris.cs/halogol/util"
)

// referenceStep advances the whole grid one generation by direct modulo indexing.
func referenceStep(g *Grid) *Grid {
	next := MustGrid(g.Width(), g.Height())
	for y := 0; y != g.Height(); y++ {
		for x := 0; x != g.Width(); x++ {
			neighbours := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					if g.Get((x+dx+g.Width())%g.Width(), (y+dy+g.Height())%g.Height()) == Alive {
						neighbours++
					}
				}
			}
			alive := g.Get(x, y) == Alive
			if (alive && (neighbours == 2 || neighbours == 3)) || (!alive && neighbours == 3) {
				next.Set(x, y, Alive)
			}
		}
	}
	return next
}

func randomGrid(seed int64, width, height int) *Grid {
	random := rand.New(rand.NewSource(seed))
	grid := MustGrid(width, height)
	for y := 0; y != height; y++ {
		for x := 0; x != width; x++ {
			if random.Intn(3) == 0 {
				grid.Set(x, y, Alive)
			}
		}
	}
	return grid
}

func gridWith(width, height int, alive ...util.Cell) *Grid {
	grid := MustGrid(width, height)
	for _, c := range alive {
		grid.Set(c.X, c.Y, Alive)
	}
	return grid
}

func stepWhole(g *Grid) *Grid {
	next := MustGrid(g.Width(), g.Height())
	g.Step(next, Band{0, g.Height()})
	return next
}

func TestNextStateRules(t *testing.T) {
	centre := util.Cell{X: 2, Y: 2}
	around := []util.Cell{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 3, Y: 1}, {X: 1, Y: 2}, {X: 3, Y: 2}, {X: 1, Y: 3}, {X: 2, Y: 3}, {X: 3, Y: 3}}
	for neighbours := 0; neighbours <= 8; neighbours++ {
		for _, alive := range []bool{false, true} {
			cells := append([]util.Cell(nil), around[:neighbours]...)
			if alive {
				cells = append(cells, centre)
			}
			grid := gridWith(5, 5, cells...)

			want := Dead
			if neighbours == 3 || (alive && neighbours == 2) {
				want = Alive
			}
			if got := NextState(grid, centre.Y, centre.X); got != want {
				t.Errorf("alive=%v with %d neighbours: got %d, want %d", alive, neighbours, got, want)
			}
		}
	}
}

func TestNextStateWrapsAround(t *testing.T) {
	const width, height = 6, 5
	tests := []struct {
		name      string
		neighbour []util.Cell
		cell      util.Cell
	}{
		{"top sees bottom", []util.Cell{{X: 1, Y: height - 1}, {X: 2, Y: height - 1}, {X: 3, Y: height - 1}}, util.Cell{X: 2, Y: 0}},
		{"bottom sees top", []util.Cell{{X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}}, util.Cell{X: 2, Y: height - 1}},
		{"left sees right", []util.Cell{{X: width - 1, Y: 1}, {X: width - 1, Y: 2}, {X: width - 1, Y: 3}}, util.Cell{X: 0, Y: 2}},
		{"right sees left", []util.Cell{{X: 0, Y: 1}, {X: 0, Y: 2}, {X: 0, Y: 3}}, util.Cell{X: width - 1, Y: 2}},
		{"corner sees corners", []util.Cell{{X: width - 1, Y: height - 1}, {X: 0, Y: height - 1}, {X: width - 1, Y: 0}}, util.Cell{X: 0, Y: 0}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			grid := gridWith(width, height, test.neighbour...)
			if got := NextState(grid, test.cell.Y, test.cell.X); got != Alive {
				t.Errorf("cell %v with three wrapped neighbours: got %d, want alive", test.cell, got)
			}
		})
	}
}

// Flipping one cell may only change the next state of that cell and its eight neighbours.
func TestNextStateIsLocal(t *testing.T) {
	const width, height = 9, 7
	base := randomGrid(7, width, height)
	baseNext := stepWhole(base)
	for y := 0; y != height; y++ {
		for x := 0; x != width; x++ {
			flipped := base.Clone()
			if flipped.Get(x, y) == Alive {
				flipped.Set(x, y, Dead)
			} else {
				flipped.Set(x, y, Alive)
			}
			next := stepWhole(flipped)
			for ny := 0; ny != height; ny++ {
				for nx := 0; nx != width; nx++ {
					dx := (nx - x + width) % width
					dy := (ny - y + height) % height
					near := (dx <= 1 || dx == width-1) && (dy <= 1 || dy == height-1)
					if !near && next.Get(nx, ny) != baseNext.Get(nx, ny) {
						t.Fatalf("flipping (%d, %d) changed distant cell (%d, %d)", x, y, nx, ny)
					}
				}
			}
		}
	}
}

func TestStepMatchesReference(t *testing.T) {
	grid := randomGrid(42, 31, 17)
	for generation := 0; generation != 20; generation++ {
		want := referenceStep(grid)
		got := stepWhole(grid)
		if !got.Equal(want) {
			t.Fatalf("generation %d:\n%s\nwant\n%s", generation, got, want)
		}
		grid = got
	}
}

func TestBlockIsStill(t *testing.T) {
	block := gridWith(6, 6, util.Cell{X: 2, Y: 2}, util.Cell{X: 3, Y: 2}, util.Cell{X: 2, Y: 3}, util.Cell{X: 3, Y: 3})
	grid := block
	for generation := 1; generation <= 10; generation++ {
		grid = stepWhole(grid)
		if !grid.Equal(block) {
			t.Fatalf("block changed at generation %d:\n%s", generation, grid)
		}
	}
}

func TestStepLeavesOtherRows(t *testing.T) {
	grid := randomGrid(3, 8, 8)
	next := MustGrid(8, 8)
	for x := 0; x != 8; x++ {
		next.Set(x, 0, Alive)
	}
	grid.Step(next, Band{4, 8})
	for x := 0; x != 8; x++ {
		if next.Get(x, 0) != Alive {
			t.Fatalf("row 0 outside the band was written")
		}
	}
}

func TestNewGrid(t *testing.T) {
	if _, err := NewGrid(0, 4); err == nil {
		t.Error("zero width accepted")
	}
	if _, err := NewGrid(MaxCells, 2); err == nil {
		t.Error("oversized grid accepted")
	}
	grid, err := NewGrid(3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(grid.Row(1)) != 3 || len(grid.AliveCells()) != 0 {
		t.Errorf("new grid is not %d dead cells wide", 3)
	}
}
