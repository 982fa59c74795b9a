// Package main provides the monsters command line tool.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/monster-tracker/internal/app"
	"github.com/monster-tracker/internal/config"
	apperrors "github.com/monster-tracker/internal/errors"
	"github.com/monster-tracker/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "monsters: %v\n", err)
		return 1
	}

	logger := app.NewLogger(cfg.Logging)
	a := app.New(cfg, logger)
	defer a.Close()

	root := rootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(logging.WithLogger(ctx, logger)); err != nil {
		fmt.Fprintf(stderr, "monsters: %s\n", diagnostic(err))
		return 1
	}
	return 0
}

// diagnostic renders err as one line, without the cause chain of
// categorized errors
func diagnostic(err error) string {
	if catErr := apperrors.Categorize(err); catErr != nil && catErr.Category != apperrors.CategorySystem {
		return catErr.Message
	}
	return err.Error()
}
