package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Zuo-Peng/s1f/internal/config"
	"github.com/Zuo-Peng/s1f/internal/extract"
)

var version = "dev"

const (
	exitOK        = 0
	exitError     = 1
	exitInput     = 2
	exitCancelled = 130
)

// usageError marks bad command lines; they exit like input problems.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	var ce *config.ConfigError
	var ue usageError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, extract.ErrCancelled), errors.Is(err, context.Canceled):
		return exitCancelled
	case extract.IsInputError(err),
		errors.As(err, &ce),
		errors.As(err, &ue),
		errors.Is(err, extract.ErrInvalidOptions):
		return exitInput
	default:
		return exitError
	}
}
