package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/dagregi/game-of-life-cli/terminal"
	"github.com/dagregi/game-of-life-cli/utils"
)

func main() {
	// Use a minimal logger until the configured one is built.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// Handle Ctrl+C gracefully
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:])
	stop()

	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Message != "" {
				fmt.Fprintln(os.Stderr, exitErr.Message)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run wires configuration, the starting grid and the terminal session
func run(ctx context.Context, in io.Reader, out, errOut io.Writer, args []string) error {
	opts, shouldExit, err := parseArgs(args, errOut)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	config, err := resolveConfig(opts)
	if err != nil {
		return err
	}

	logger, err := utils.NewLogger(errOut, config)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}

	grid, err := initializeGame(config)
	if err != nil {
		return err
	}
	logger.Debug("Game initialized.",
		"width", grid.Width(),
		"height", grid.Height(),
		"living", grid.CountLivingCells(),
		"delay", config.Delay.Std())

	driver := terminal.NewDriver(in, out, grid, config.Delay.Std(), logger)
	driver.SetMaxGenerations(config.MaxGenerations)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		// the session ending stops the config watcher too
		defer cancel()
		return driver.Run(egCtx)
	})

	if opts.configPath != "" {
		eg.Go(func() error {
			err := utils.WatchConfig(egCtx, opts.configPath, func(c utils.Config) {
				driver.SetDelay(applyFlags(opts, c).Delay.Std())
			}, logger)
			if err != nil {
				logger.Warn("Config hot reload disabled.", "error", err)
			}
			return nil
		})
	}

	return eg.Wait()
}
