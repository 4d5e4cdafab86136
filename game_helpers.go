package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/dagregi/game-of-life-cli/model"
	"github.com/dagregi/game-of-life-cli/seed"
	"github.com/dagregi/game-of-life-cli/utils"
)

// ExitError carries the process exit code for a failure. An empty Message
// means the failure was already reported, as flag parse errors are.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Message
}

// options are the parsed command line; zero values mean "not given"
type options struct {
	configPath string
	input      string
	delayMs    uint64
	logLevel   string
	logFormat  string
	workers    int
	maxGens    int
	set        map[string]bool
}

// parseArgs processes command-line arguments. It reports whether the program
// should exit cleanly, as it does after printing help.
func parseArgs(args []string, output io.Writer) (options, bool, error) {
	var opts options
	flagSet := flag.NewFlagSet("game-of-life", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
Conway's Game of Life on a toroidal grid.

Usage:
  game-of-life [options]

Without -input a 5x5 grid with a blinker is used. Press Esc to exit.

Options:
`)
		flagSet.PrintDefaults()
	}

	for _, name := range []string{"delay", "d"} {
		flagSet.Uint64Var(&opts.delayMs, name, 500, "The delay between ticks (in milliseconds).")
	}
	for _, name := range []string{"input", "i"} {
		flagSet.StringVar(&opts.input, name, "", "The file path to read the initial state of the game.")
	}
	for _, name := range []string{"config", "c"} {
		flagSet.StringVar(&opts.configPath, name, "", "Path to a JSON or YAML config file; it is reloaded on change.")
	}
	flagSet.StringVar(&opts.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flagSet.StringVar(&opts.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flagSet.IntVar(&opts.workers, "workers", 0, "Goroutines used per generation. 0 uses every CPU.")
	flagSet.IntVar(&opts.maxGens, "max-generations", 0, "Stop after this many generations. 0 runs until Esc.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, true, nil
		}
		// the flag set has already printed the error and usage
		return opts, false, &ExitError{Code: 2}
	}
	if flagSet.NArg() > 0 {
		return opts, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected argument: %s", flagSet.Arg(0))}
	}

	opts.set = make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) {
		opts.set[f.Name] = true
	})
	return opts, false, nil
}

// resolveConfig layers defaults, the config file and explicit flags, in that order
func resolveConfig(opts options) (utils.Config, error) {
	config := utils.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if config, err = utils.LoadConfig(opts.configPath); err != nil {
			return config, err
		}
	}

	config = applyFlags(opts, config)
	if err := config.Validate(); err != nil {
		return config, &ExitError{Code: 2, Message: err.Error()}
	}
	return config, nil
}

// applyFlags overrides config with every flag given explicitly on the command
// line. Reloaded config files go through it too, so flags keep precedence.
func applyFlags(opts options, config utils.Config) utils.Config {
	if opts.set["delay"] || opts.set["d"] {
		config.Delay = utils.Duration(time.Duration(opts.delayMs) * time.Millisecond)
	}
	if opts.set["input"] || opts.set["i"] {
		config.Input = opts.input
	}
	if opts.set["log-level"] {
		config.LogLevel = opts.logLevel
	}
	if opts.set["log-format"] {
		config.LogFormat = opts.logFormat
	}
	if opts.set["workers"] {
		config.Workers = opts.workers
	}
	if opts.set["max-generations"] {
		config.MaxGenerations = opts.maxGens
	}
	return config
}

// initializeGame builds the starting grid from the seed file, or the default blinker
func initializeGame(config utils.Config) (*model.Grid, error) {
	var opts []model.Option
	if config.Workers > 0 {
		opts = append(opts, model.WithWorkers(config.Workers))
	}

	if config.Input != "" {
		return seed.Load(config.Input, opts...)
	}

	grid, err := model.NewGrid(5, 5, opts...)
	if err != nil {
		return nil, err
	}
	if err = grid.SetCells(model.Cell{Row: 2, Col: 1}, model.Cell{Row: 2, Col: 2}, model.Cell{Row: 2, Col: 3}); err != nil {
		return nil, err
	}
	return grid, nil
}
