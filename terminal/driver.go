// Package terminal runs a grid interactively: it redraws the board every
// frame, advances it one generation, and stops when the user presses Esc.
package terminal

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/dagregi/game-of-life-cli/model"
	"github.com/dagregi/game-of-life-cli/utils"
)

const (
	keyEsc   = 0x1b
	keyCtrlC = 0x03
	keyQuit  = 'q'
)

type keyEvent struct {
	quit bool
	err  error
}

// Driver owns a grid for the lifetime of an interactive session
type Driver struct {
	in       io.Reader
	renderer *Renderer
	grid     *model.Grid
	logger   *slog.Logger
	delay    atomic.Int64

	history        model.History
	stats          *utils.Stats
	generation     int
	maxGenerations int
}

// NewDriver prepares a session drawing to out and reading keys from in
func NewDriver(in io.Reader, out io.Writer, grid *model.Grid, delay time.Duration, logger *slog.Logger) *Driver {
	d := &Driver{
		in:       in,
		renderer: NewRenderer(out),
		grid:     grid,
		logger:   logger,
		stats:    utils.NewStats(),
	}
	d.SetDelay(delay)
	return d
}

// SetDelay changes the wait between frames; it is safe to call while Run is active
func (d *Driver) SetDelay(delay time.Duration) {
	d.delay.Store(int64(delay))
}

// SetMaxGenerations makes Run return after n ticks; 0 removes the limit.
// It must be called before Run.
func (d *Driver) SetMaxGenerations(n int) {
	d.maxGenerations = max(0, n)
}

// Delay returns the current wait between frames
func (d *Driver) Delay() time.Duration {
	return time.Duration(d.delay.Load())
}

// Stats returns a snapshot of the session statistics
func (d *Driver) Stats() utils.Stats {
	return *d.stats
}

// Run draws and ticks the grid once per delay until the user quits, ctx is
// cancelled or the generation limit is reached, all of which return nil.
// Output and input failures are returned.
func (d *Driver) Run(ctx context.Context) (err error) {
	restore, err := makeRaw(d.in)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := restore(); err == nil {
			err = rerr
		}
	}()

	if err = d.renderer.Enter(); err != nil {
		return err
	}
	defer func() {
		if lerr := d.renderer.Leave(); err == nil {
			err = lerr
		}
		d.logger.Info("Session finished.",
			"generations", d.stats.TotalGenerations,
			"avg_population", d.stats.AveragePopulation,
			"runtime", d.stats.Runtime())
	}()

	done := make(chan struct{})
	defer close(done)
	events := make(chan keyEvent)
	go readKeys(d.in, events, done)

	var (
		timer     = time.NewTimer(d.Delay())
		lastFrame = time.Now()
	)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Debug("Session cancelled.", "reason", context.Cause(ctx))
			return nil

		case ev := <-events:
			if ev.err != nil {
				if errors.Is(ev.err, io.EOF) {
					d.logger.Debug("Input closed, key polling stopped.")
					events = nil
					continue
				}
				return errors.Wrap(ev.err, "[Run] failed to read input")
			}
			if ev.quit {
				return nil
			}

		case <-timer.C:
			if err = d.frame(lastFrame); err != nil {
				return err
			}
			if d.maxGenerations > 0 && d.generation >= d.maxGenerations {
				d.logger.Debug("Generation limit reached.", "generations", d.generation)
				return nil
			}
			lastFrame = time.Now()
			timer.Reset(d.Delay())
		}
	}
}

// frame draws the current generation and then advances it
func (d *Driver) frame(lastFrame time.Time) error {
	stagnant := d.history.IsStagnant(d.grid)
	d.history.Record(d.grid)

	if err := d.renderer.Display(d.grid); err != nil {
		return err
	}

	d.grid.Tick()
	d.generation++

	d.stats.Update(d.generation, d.grid.CountLivingCells(), time.Since(lastFrame))
	if stagnant != d.stats.Stagnant {
		d.logger.Info("Stagnation changed.", "generation", d.generation, "stagnant", stagnant)
	}
	d.stats.Stagnant = stagnant

	d.logger.Debug("Generation advanced.",
		"generation", d.generation,
		"population", d.stats.Population,
		"gen_per_sec", d.stats.GenerationsPerSecond)
	return nil
}

// readKeys forwards key presses until the reader fails or done is closed
func readKeys(r io.Reader, events chan<- keyEvent, done <-chan struct{}) {
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			select {
			case events <- keyEvent{quit: isQuitKey(buf[:n])}:
			case <-done:
				return
			}
		}
		if err != nil {
			select {
			case events <- keyEvent{err: err}:
			case <-done:
			}
			return
		}
	}
}

// isQuitKey reports whether any key in a single read is a quit key. Several
// keys can arrive in one read. An Esc followed by '[' or 'O' in the same read
// introduces an escape sequence such as an arrow key, which is skipped whole.
func isQuitKey(b []byte) bool {
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case keyCtrlC, keyQuit:
			return true
		case keyEsc:
			if i+1 == len(b) || (b[i+1] != '[' && b[i+1] != 'O') {
				return true
			}
			i = sequenceEnd(b, i+1)
		}
	}
	return false
}

// sequenceEnd returns the index of the final byte of the CSI ('[') or SS3
// ('O') sequence whose introducer is at b[i]. A truncated sequence runs to
// the end of the read.
func sequenceEnd(b []byte, i int) int {
	if b[i] == 'O' {
		return min(i+1, len(b)-1)
	}
	for j := i + 1; j < len(b); j++ {
		if b[j] >= 0x40 && b[j] <= 0x7e {
			return j
		}
	}
	return len(b) - 1
}

// makeRaw puts a terminal input into raw mode so keys arrive unbuffered.
// Non-terminal inputs are left alone.
func makeRaw(in io.Reader) (func() error, error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return func() error { return nil }, nil
	}

	fd := int(f.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, errors.Wrap(err, "[makeRaw] failed to enable raw mode")
	}
	return func() error {
		return errors.Wrap(term.Restore(fd, state), "[makeRaw] failed to restore terminal")
	}, nil
}
