/*
Package seed reads and writes the plain-text starting-state format.

The first line holds the dimensions as "<rows>x<cols>". It is followed by one
line per row, each exactly cols characters of '0' (dead) or '1' (alive):

	3x4
	0100
	0010
	1110
*/
package seed

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/dagregi/game-of-life-cli/model"
)

var (
	ErrEmpty               = errors.New("seed file is empty")
	ErrMalformedDimensions = errors.New("malformed dimension line")
	ErrInvalidDigit        = errors.New("invalid cell digit")
	ErrRowCount            = errors.New("row count does not match dimensions")
	ErrRowLength           = errors.New("row length does not match dimensions")
)

const (
	digitDead  = '0'
	digitAlive = '1'

	maxLineLength = 1 << 24
)

// Load opens a seed file and parses it into a grid
func Load(path string, opts ...model.Option) (*model.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "[Load] failed to open seed file: %+v", path)
	}
	defer f.Close()

	g, err := Parse(f, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "[Load] %s", path)
	}
	return g, nil
}

// Parse reads a seed from r and builds the grid it describes
func Parse(r io.Reader, opts ...model.Option) (*model.Grid, error) {
	var (
		scanner = bufio.NewScanner(r)
		lines   []string
	)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineLength)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "[Parse] failed to read seed")
	}

	// trailing blank lines carry no rows
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil, errors.WithStack(ErrEmpty)
	}

	rows, cols, err := parseDimensions(lines[0])
	if err != nil {
		return nil, err
	}

	body := lines[1:]
	if len(body) != rows {
		return nil, errors.Wrapf(ErrRowCount, "[Parse] header declares %d rows, found %d", rows, len(body))
	}

	var cells []model.Cell
	for row, line := range body {
		if len(line) != cols {
			return nil, errors.Wrapf(ErrRowLength, "[Parse] line %d: want %d cells, found %d", row+2, cols, len(line))
		}
		for col := range len(line) {
			switch line[col] {
			case digitAlive:
				cells = append(cells, model.Cell{Row: row, Col: col})
			case digitDead:
			default:
				return nil, errors.Wrapf(ErrInvalidDigit, "[Parse] line %d column %d: %q", row+2, col+1, line[col])
			}
		}
	}

	g, err := model.NewGrid(cols, rows, opts...)
	if err != nil {
		return nil, err
	}
	if err = g.SetCells(cells...); err != nil {
		return nil, err
	}
	return g, nil
}

func parseDimensions(line string) (rows, cols int, err error) {
	rowsStr, colsStr, ok := strings.Cut(strings.TrimSpace(line), "x")
	if !ok {
		return 0, 0, errors.Wrapf(ErrMalformedDimensions, "[parseDimensions] %q has no 'x' separator", line)
	}
	if rows, err = strconv.Atoi(rowsStr); err != nil || rows <= 0 {
		return 0, 0, errors.Wrapf(ErrMalformedDimensions, "[parseDimensions] bad row count %q", rowsStr)
	}
	if cols, err = strconv.Atoi(colsStr); err != nil || cols <= 0 {
		return 0, 0, errors.Wrapf(ErrMalformedDimensions, "[parseDimensions] bad column count %q", colsStr)
	}
	return rows, cols, nil
}

// Encode writes g in the seed format so that Parse reproduces its live cells
func Encode(w io.Writer, g *model.Grid) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%dx%d\n", g.Height(), g.Width())
	for row := range g.Height() {
		for col := range g.Width() {
			if g.Alive(row, col) {
				bw.WriteByte(digitAlive)
			} else {
				bw.WriteByte(digitDead)
			}
		}
		bw.WriteByte('\n')
	}
	return errors.Wrap(bw.Flush(), "[Encode] failed to write seed")
}
