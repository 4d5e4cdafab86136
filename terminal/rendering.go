package terminal

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/dagregi/game-of-life-cli/model"
)

const (
	ansiClearScreen = "\x1b[2J"
	ansiMoveTo      = "\x1b[%d;%dH" // 1-based row;column
	ansiEnterAlt    = "\x1b[?1049h"
	ansiLeaveAlt    = "\x1b[?1049l"
	ansiHideCursor  = "\x1b[?25l"
	ansiShowCursor  = "\x1b[?25h"
	ansiForeWhite   = "\x1b[37m"
	ansiReset       = "\x1b[0m"

	// HelpLine is drawn one blank line below the grid on every frame
	HelpLine = "Press Esc to exit..."
)

// Renderer draws grids onto an ANSI terminal. Output is buffered and flushed
// once per call so a frame is never half-written.
type Renderer struct {
	w *bufio.Writer
}

func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: bufio.NewWriter(w)}
}

// Enter switches to the alternate screen and hides the cursor
func (r *Renderer) Enter() error {
	r.w.WriteString(ansiEnterAlt + ansiForeWhite + ansiHideCursor)
	return errors.Wrap(r.w.Flush(), "[Enter] failed to set up screen")
}

// Leave restores the cursor and the primary screen
func (r *Renderer) Leave() error {
	r.w.WriteString(ansiReset + ansiShowCursor + ansiLeaveAlt)
	return errors.Wrap(r.w.Flush(), "[Leave] failed to restore screen")
}

// Display clears the screen, draws every row of g and the help line below it
func (r *Renderer) Display(g *model.Grid) error {
	r.w.WriteString(ansiClearScreen)

	row := 0
	for ; ; row++ {
		line, err := g.Row(row)
		if errors.Is(err, model.ErrRowOutOfBounds) {
			break
		}
		fmt.Fprintf(r.w, ansiMoveTo+"%s", row+1, 1, line)
	}

	fmt.Fprintf(r.w, ansiMoveTo+"%s", row+2, 1, HelpLine)
	return errors.Wrap(r.w.Flush(), "[Display] failed to draw frame")
}
