package model

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func mustGrid(t *testing.T, width, height int, cells ...Cell) *Grid {
	t.Helper()
	g, err := NewGrid(width, height)
	require.NoError(t, err)
	require.NoError(t, g.SetCells(cells...))
	return g
}

// liveCells lists alive coordinates in row-major order
func liveCells(g *Grid) []Cell {
	var out []Cell
	for row := range g.Height() {
		for col := range g.Width() {
			if g.Alive(row, col) {
				out = append(out, Cell{Row: row, Col: col})
			}
		}
	}
	return out
}

func TestNewGrid_InvalidDimensions(t *testing.T) {
	t.Parallel()

	for _, dims := range [][2]int{{0, 5}, {5, 0}, {0, 0}, {-1, 3}, {3, -2}} {
		g, err := NewGrid(dims[0], dims[1])
		require.Nil(t, g)
		require.True(t, errors.Is(err, ErrInvalidDimensions), "dims %v: got %v", dims, err)
	}
}

func TestNewGrid_RendersAllDead(t *testing.T) {
	t.Parallel()

	for _, dims := range [][2]int{{1, 1}, {3, 2}, {7, 9}, {64, 1}, {13, 11}} {
		width, height := dims[0], dims[1]
		g := mustGrid(t, width, height)

		lines := strings.Split(strings.TrimSuffix(g.Render(), "\n"), "\n")
		require.Len(t, lines, height)
		for _, line := range lines {
			require.Equal(t, strings.Repeat(" ◻", width), line)
		}
		require.Zero(t, g.CountLivingCells())
	}
}

func TestNewGrid_WordCount(t *testing.T) {
	t.Parallel()

	cases := map[[2]int]int{
		{1, 1}:   1,
		{8, 8}:   1,
		{65, 1}:  2,
		{10, 13}: 3,
		{16, 16}: 4,
	}
	for dims, words := range cases {
		g := mustGrid(t, dims[0], dims[1])
		require.Len(t, g.cells, words, "dims %v", dims)
	}
}

func TestSetCells_ReflectsExactlyRequested(t *testing.T) {
	t.Parallel()

	want := []Cell{{0, 0}, {1, 3}, {2, 4}, {4, 0}}
	g := mustGrid(t, 5, 5, want...)

	if diff := cmp.Diff(want, liveCells(g)); diff != "" {
		t.Fatalf("live cells mismatch (-want +got):\n%s", diff)
	}

	row, err := g.Row(1)
	require.NoError(t, err)
	require.Equal(t, " ◻ ◻ ◻ ◼ ◻", row)
	require.Equal(t, " ◼ ◻ ◻ ◻ ◻\n ◻ ◻ ◻ ◼ ◻\n ◻ ◻ ◻ ◻ ◼\n ◻ ◻ ◻ ◻ ◻\n ◼ ◻ ◻ ◻ ◻\n", g.Render())
}

func TestSetCells_OutOfBoundsLeavesGridUntouched(t *testing.T) {
	t.Parallel()

	g := mustGrid(t, 4, 3)
	for _, bad := range []Cell{{3, 0}, {0, 4}, {-1, 0}, {0, -1}, {10, 10}} {
		err := g.SetCells(Cell{1, 1}, bad)
		require.True(t, errors.Is(err, ErrCellOutOfBounds), "cell %v: got %v", bad, err)
		require.Zero(t, g.CountLivingCells(), "cell %v mutated the grid", bad)
	}
}

func TestSetCells_Idempotent(t *testing.T) {
	t.Parallel()

	g := mustGrid(t, 3, 3, Cell{1, 1}, Cell{1, 1})
	require.NoError(t, g.SetCells(Cell{1, 1}))
	require.Equal(t, 1, g.CountLivingCells())
}

func TestRow_Bounds(t *testing.T) {
	t.Parallel()

	g := mustGrid(t, 4, 3, Cell{2, 3})
	lines := strings.Split(g.Render(), "\n")

	for row := range g.Height() {
		got, err := g.Row(row)
		require.NoError(t, err)
		require.Equal(t, lines[row], got)
	}

	for _, row := range []int{3, 4, 100, -1} {
		_, err := g.Row(row)
		require.True(t, errors.Is(err, ErrRowOutOfBounds), "row %d: got %v", row, err)
	}
}

func TestRow_DoesNotTick(t *testing.T) {
	t.Parallel()

	g := mustGrid(t, 5, 5, Cell{2, 1}, Cell{2, 2}, Cell{2, 3})
	before := g.Render()
	for row := range g.Height() {
		_, err := g.Row(row)
		require.NoError(t, err)
	}
	require.Equal(t, before, g.Render())
}

func TestTick_BlockIsStillLife(t *testing.T) {
	t.Parallel()

	for _, dims := range [][2]int{{2, 2}, {3, 3}, {4, 4}, {6, 5}} {
		block := []Cell{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
		g := mustGrid(t, dims[0], dims[1], block...)
		want := g.Render()

		for range 10 {
			g.Tick()
			require.Equal(t, want, g.Render(), "dims %v", dims)
		}
	}
}

func TestTick_BlinkerHasPeriodTwo(t *testing.T) {
	t.Parallel()

	horizontal := []Cell{{2, 1}, {2, 2}, {2, 3}}
	vertical := []Cell{{1, 2}, {2, 2}, {3, 2}}
	g := mustGrid(t, 5, 5, horizontal...)

	g.Tick()
	if diff := cmp.Diff(vertical, liveCells(g)); diff != "" {
		t.Fatalf("after one tick (-want +got):\n%s", diff)
	}

	g.Tick()
	if diff := cmp.Diff(horizontal, liveCells(g)); diff != "" {
		t.Fatalf("after two ticks (-want +got):\n%s", diff)
	}
}

func TestTick_ToroidalCornerAdjacency(t *testing.T) {
	t.Parallel()

	// (0,0) touches (3,3), (3,0) and (0,3) only through wraparound
	g := mustGrid(t, 4, 4, Cell{3, 3}, Cell{3, 0}, Cell{0, 3})
	require.Equal(t, 3, g.liveNeighborCount(0, 0))

	g.Tick()
	require.True(t, g.Alive(0, 0), "corner cell should be born from wrapped neighbors")

	// a lone corner pair has one neighbor each and dies
	g = mustGrid(t, 3, 3, Cell{0, 0}, Cell{2, 2})
	require.Equal(t, 1, g.liveNeighborCount(0, 0))
	require.Equal(t, 1, g.liveNeighborCount(2, 2))
}

func TestTick_GliderWrapsAround(t *testing.T) {
	t.Parallel()

	glider := []Cell{{0, 1}, {1, 2}, {2, 0}, {2, 1}, {2, 2}}
	g := mustGrid(t, 6, 6, glider...)
	start := g.Render()

	// a glider moves one cell diagonally every 4 generations; on a 6x6 torus it returns after 24
	for range 24 {
		g.Tick()
		require.Equal(t, 5, g.CountLivingCells())
	}
	require.Equal(t, start, g.Render())
}

func TestTick_PaddingBitsStayDead(t *testing.T) {
	t.Parallel()

	g, err := NewGrid(7, 9, WithWorkers(3))
	require.NoError(t, err)
	fillRandom(t, g, rand.New(rand.NewSource(7)), 0.5)

	size := g.width * g.height
	padMask := ^uint64(0) << (size % wordBits)
	for range 20 {
		g.Tick()
		require.Zero(t, g.cells[len(g.cells)-1]&padMask)
	}
}

func TestTick_MatchesNaiveReference(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	for _, dims := range [][2]int{{1, 1}, {2, 3}, {5, 5}, {17, 9}, {64, 3}, {33, 31}} {
		for _, workers := range []int{1, 4, 64} {
			g, err := NewGrid(dims[0], dims[1], WithWorkers(workers))
			require.NoError(t, err)
			fillRandom(t, g, rng, 0.35)

			for gen := range 8 {
				want := naiveTick(g)
				g.Tick()
				if diff := cmp.Diff(want, liveCells(g)); diff != "" {
					t.Fatalf("dims %v workers %d gen %d (-want +got):\n%s", dims, workers, gen, diff)
				}
			}
		}
	}
}

func TestTick_NarrowAxesCountEachNeighborOnce(t *testing.T) {
	t.Parallel()

	// on a 2x2 torus every cell has three distinct neighbors
	g := mustGrid(t, 2, 2, Cell{0, 0}, Cell{0, 1}, Cell{1, 0}, Cell{1, 1})
	require.Equal(t, 3, g.liveNeighborCount(0, 0))

	// a 1x1 grid has no neighbors, so a lone cell dies
	g = mustGrid(t, 1, 1, Cell{0, 0})
	require.Zero(t, g.liveNeighborCount(0, 0))
	g.Tick()
	require.False(t, g.Alive(0, 0))

	// a single row: (0,1) sees (0,0) and (0,2) only
	g = mustGrid(t, 4, 1, Cell{0, 0}, Cell{0, 1}, Cell{0, 2})
	require.Equal(t, 2, g.liveNeighborCount(0, 1))
	require.Equal(t, 2, g.liveNeighborCount(0, 3))
}

func TestHash_TracksState(t *testing.T) {
	t.Parallel()

	a := mustGrid(t, 5, 5, Cell{2, 1}, Cell{2, 2}, Cell{2, 3})
	b := mustGrid(t, 5, 5, Cell{2, 1}, Cell{2, 2}, Cell{2, 3})
	require.Equal(t, a.Hash(), b.Hash())

	b.Tick()
	require.NotEqual(t, a.Hash(), b.Hash())
	b.Tick()
	require.Equal(t, a.Hash(), b.Hash())
}

func fillRandom(t *testing.T, g *Grid, rng *rand.Rand, density float64) {
	t.Helper()
	var cells []Cell
	for row := range g.Height() {
		for col := range g.Width() {
			if rng.Float64() < density {
				cells = append(cells, Cell{Row: row, Col: col})
			}
		}
	}
	require.NoError(t, g.SetCells(cells...))
}

// naiveTick computes the next generation's live cells from the set of
// distinct wrapped neighbor coordinates, using signed offsets
func naiveTick(g *Grid) []Cell {
	var out []Cell
	for row := range g.Height() {
		for col := range g.Width() {
			neighbors := make(map[Cell]bool)
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					r := ((row+dr)%g.Height() + g.Height()) % g.Height()
					c := ((col+dc)%g.Width() + g.Width()) % g.Width()
					if r != row || c != col {
						neighbors[Cell{Row: r, Col: c}] = true
					}
				}
			}
			n := 0
			for cell := range neighbors {
				if g.Alive(cell.Row, cell.Col) {
					n++
				}
			}
			alive := g.Alive(row, col)
			if n == 3 || (alive && n == 2) {
				out = append(out, Cell{Row: row, Col: col})
			}
		}
	}
	return out
}
