// Command fft plays Food for Thought in a terminal.
//
//	fft play --server https://foodforthought.game
//	fft streak
//	fft decode --salt fft-2025-03-01 <ciphertext>
//
// Progress is kept in a JSON state file (default ~/.fft/state.json) with the
// same keys the web client keeps in local storage.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	verbose   bool
	statePath string
	timeout   time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "fft",
		Short:         "Food for Thought: guess the dish, its country and its protein",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := zerolog.WarnLevel
			if opts.verbose {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen})
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging to stderr")
	cmd.PersistentFlags().StringVar(&opts.statePath, "state", defaultStatePath(), "state file")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "HTTP timeout")

	cmd.AddCommand(newPlayCmd(opts), newStreakCmd(opts), newDecodeCmd())
	return cmd
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fft-state.json"
	}
	return filepath.Join(home, ".fft", "state.json")
}
