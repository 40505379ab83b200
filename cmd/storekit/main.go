package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/storekit/internal/cli"
	skerrors "github.com/matzehuels/storekit/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := run(ctx)
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		os.Exit(130)
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(exitCode(err))
}

// exitCode maps configuration and input mistakes to 2, everything else to 1.
func exitCode(err error) int {
	switch {
	case skerrors.Is(err, skerrors.ErrCodeInvalidConfig), skerrors.Is(err, skerrors.ErrCodeInvalidInput):
		return 2
	default:
		return 1
	}
}

func run(ctx context.Context) error {
	var verbose bool

	base := cli.LevelFromEnv(cli.LogInfo)
	c := cli.New(os.Stderr, base)
	root := c.RootCommand()
	root.SilenceErrors = true
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging (overrides STOREKIT_LOG_LEVEL)")

	// --verbose is only known once flags are parsed.
	inner := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := base
		if verbose {
			level = cli.LogDebug
		}
		c.SetLogLevel(level)
		if inner != nil {
			return inner(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}
