package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/robalobadob/foodforthought/internal/store"
	"github.com/robalobadob/foodforthought/internal/streak"
)

func newStreakCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "streak",
		Short: "Show the current daily streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kv, err := store.OpenFile(opts.statePath)
			if err != nil {
				return err
			}
			n, err := streak.New(kv).Get(cmd.Context(), time.Now())
			if err != nil {
				return fmt.Errorf("read streak: %w", err)
			}
			days := "days"
			if n == 1 {
				days = "day"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🔥 %d %s\n", n, days)
			return nil
		},
	}
}
