package model

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	gridPosAlive = "◼"
	gridPosDead  = "◻"

	glyphSeparator = " "
)

// Render returns the whole grid as text: one line per row, each cell written
// as a separator followed by its glyph, every line newline-terminated
func (g *Grid) Render() string {
	var sb strings.Builder
	sb.Grow(g.height * (g.width*(len(glyphSeparator)+len(gridPosAlive)) + 1))
	for row := range g.height {
		g.writeRow(&sb, row)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Row returns line row of Render without its trailing newline
func (g *Grid) Row(row int) (string, error) {
	if row < 0 || row >= g.height {
		return "", errors.Wrapf(ErrRowOutOfBounds, "[Row] row %d of %d", row, g.height)
	}
	var sb strings.Builder
	g.writeRow(&sb, row)
	return sb.String(), nil
}

func (g *Grid) writeRow(sb *strings.Builder, row int) {
	for col := range g.width {
		sb.WriteString(glyphSeparator)
		if g.isSet(g.index(row, col)) {
			sb.WriteString(gridPosAlive)
		} else {
			sb.WriteString(gridPosDead)
		}
	}
}
