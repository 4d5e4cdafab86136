package model

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/dagregi/game-of-life-cli/rules"
)

const wordBits = 64

var (
	// ErrInvalidDimensions is returned when a grid is created with a zero or negative axis
	ErrInvalidDimensions = errors.New("invalid grid dimensions")
	// ErrCellOutOfBounds is returned when SetCells is given a coordinate outside the grid
	ErrCellOutOfBounds = errors.New("cell out of bounds")
	// ErrRowOutOfBounds is returned when a row projection is requested past the last row
	ErrRowOutOfBounds = errors.New("row out of bounds")
)

// Cell addresses a single grid position by row and column, both 0-indexed
type Cell struct {
	Row int
	Col int
}

// Grid is a toroidal Game of Life board stored as a packed bit array.
// Cell (row, col) lives at bit (row*width+col) % 64 of word (row*width+col) / 64.
// Padding bits past width*height in the last word are always zero.
type Grid struct {
	width   int
	height  int
	cells   []uint64
	workers int
	pool    *bufferPool

	rowOffsets []int
	colOffsets []int
}

// Option configures a Grid at construction time
type Option func(*Grid)

// WithWorkers bounds the number of goroutines Tick fans out to; values below 1 mean one worker
func WithWorkers(n int) Option {
	return func(g *Grid) {
		g.workers = max(1, n)
	}
}

// NewGrid creates an all-dead grid with the specified dimensions
func NewGrid(width, height int, opts ...Option) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "[NewGrid] width=%d height=%d", width, height)
	}
	if width > math.MaxInt/height {
		return nil, errors.Wrapf(ErrInvalidDimensions, "[NewGrid] %dx%d overflows cell index", width, height)
	}

	g := &Grid{
		width:      width,
		height:     height,
		workers:    runtime.NumCPU(),
		pool:       newBufferPool(),
		rowOffsets: wrapOffsets(height),
		colOffsets: wrapOffsets(width),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.cells = make([]uint64, wordCount(width*height))
	return g, nil
}

func wordCount(size int) int {
	return (size + wordBits - 1) / wordBits
}

// Width returns the number of columns
func (g *Grid) Width() int {
	return g.width
}

// Height returns the number of rows
func (g *Grid) Height() int {
	return g.height
}

// SetCells marks every given cell alive. All coordinates are validated before
// any bit is written, so a rejected call leaves the grid untouched.
func (g *Grid) SetCells(cells ...Cell) error {
	for _, c := range cells {
		if !g.inBounds(c.Row, c.Col) {
			return errors.Wrapf(ErrCellOutOfBounds, "[SetCells] (%d, %d) on %dx%d grid", c.Row, c.Col, g.width, g.height)
		}
	}
	for _, c := range cells {
		idx := g.index(c.Row, c.Col)
		g.cells[idx/wordBits] |= 1 << (idx % wordBits)
	}
	return nil
}

// Alive reports whether a cell is alive; coordinates outside the grid are dead
func (g *Grid) Alive(row, col int) bool {
	if !g.inBounds(row, col) {
		return false
	}
	return g.isSet(g.index(row, col))
}

func (g *Grid) inBounds(row, col int) bool {
	return row >= 0 && row < g.height && col >= 0 && col < g.width
}

func (g *Grid) index(row, col int) int {
	return row*g.width + col
}

func (g *Grid) isSet(idx int) bool {
	return (g.cells[idx/wordBits]>>(idx%wordBits))&1 == 1
}

// liveNeighborCount counts the live cells among the distinct wrapped neighbors.
// Offsets of -1 are taken as +dim-1 so the modulo never sees a negative operand.
func (g *Grid) liveNeighborCount(row, col int) int {
	count := 0
	for _, dr := range g.rowOffsets {
		for _, dc := range g.colOffsets {
			if dr == 0 && dc == 0 {
				continue // the cell itself
			}
			if g.isSet(g.index((row+dr)%g.height, (col+dc)%g.width)) {
				count++
			}
		}
	}
	return count
}

// wrapOffsets lists the forward offsets reaching the previous, same and next
// position on an axis of length n. Axes shorter than 3 have fewer distinct
// positions, and each neighbor is counted once.
func wrapOffsets(n int) []int {
	switch n {
	case 1:
		return []int{0}
	case 2:
		return []int{1, 0}
	default:
		return []int{n - 1, 0, 1}
	}
}

// Tick advances the grid by one generation.
//
// Workers each own a disjoint range of words in the next buffer and read only
// from the current one; the new buffer replaces the old in a single assignment
// once every worker has finished.
func (g *Grid) Tick() {
	var (
		eg             errgroup.Group
		words          = len(g.cells)
		next           = g.pool.get(words)
		numWorkers     = min(g.workers, words)
		wordsPerWorker = (words + numWorkers - 1) / numWorkers // Ceiling division
	)

	for i := range numWorkers {
		var (
			startWord = i * wordsPerWorker
			endWord   = min(startWord+wordsPerWorker, words)
		)
		if startWord >= words {
			break
		}

		eg.Go(func() error {
			g.computeWords(next, startWord, endWord)
			return nil
		})
	}
	// workers never return an error
	_ = eg.Wait()

	prev := g.cells
	g.cells = next
	g.pool.put(prev)
}

// computeWords fills next[startWord:endWord] from the current generation
func (g *Grid) computeWords(next []uint64, startWord, endWord int) {
	size := g.width * g.height
	for w := startWord; w < endWord; w++ {
		var (
			word  uint64
			first = w * wordBits
			last  = min(first+wordBits, size)
		)
		for idx := first; idx < last; idx++ {
			row, col := idx/g.width, idx%g.width
			if rules.ApplyConwayRules(g.liveNeighborCount(row, col), g.isSet(idx)) {
				word |= 1 << (idx - first)
			}
		}
		next[w] = word
	}
}

// CountLivingCells returns the total number of living cells
func (g *Grid) CountLivingCells() (count int) {
	for _, word := range g.cells {
		count += bits.OnesCount64(word)
	}
	return
}

// Hash returns an MD5 digest of the current generation
func (g *Grid) Hash() string {
	h := md5.New()
	buf := make([]byte, 0, 8*len(g.cells))
	for _, word := range g.cells {
		buf = binary.LittleEndian.AppendUint64(buf, word)
	}
	h.Write(buf)
	return fmt.Sprintf("%x", h.Sum(nil))
}
