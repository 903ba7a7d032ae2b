package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/foodforthought/internal/client"
	"github.com/robalobadob/foodforthought/internal/game"
	"github.com/robalobadob/foodforthought/internal/geo"
	"github.com/robalobadob/foodforthought/internal/store"
	"github.com/robalobadob/foodforthought/internal/streak"
)

func newPlayCmd(opts *rootOptions) *cobra.Command {
	var server, tilesDir string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play today's dish",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, opts, server, tilesDir)
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://localhost:5175", "Food for Thought server URL")
	cmd.Flags().StringVar(&tilesDir, "tiles-dir", "", "save revealed photo tiles into this directory")
	return cmd
}

func runPlay(cmd *cobra.Command, opts *rootOptions, server, tilesDir string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	api, err := client.New(server, &http.Client{Timeout: opts.timeout})
	if err != nil {
		return err
	}
	d, err := api.Daily(ctx)
	switch {
	case errors.Is(err, client.ErrNoDishToday):
		fmt.Fprintln(out, "No dish is scheduled for today. Check back tomorrow!")
		return nil
	case err != nil:
		return fmt.Errorf("fetch today's dish: %w", err)
	}
	log.Debug().Str("dishId", d.ID).Str("releaseDate", d.ReleaseDate).Msg("dish loaded")

	kv, err := store.OpenFile(opts.statePath)
	if err != nil {
		return err
	}
	m, err := game.New(d,
		game.WithStore(kv),
		game.WithStreak(streak.New(kv)),
		game.WithCountries(geo.Default()),
	)
	if err != nil {
		return err
	}
	restored, err := m.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restore today's game from %s: %w", kv.Path(), err)
	}
	if restored {
		log.Debug().Str("file", kv.Path()).Msg("resumed today's game")
	}

	p := newPrompt(m, cmd.InOrStdin(), out)
	p.countries = api.Countries
	if tilesDir != "" {
		p.onReveal = tileSaver(api, d.ID, tilesDir)
	}
	return p.run(ctx)
}

// tileSaver writes each newly revealed tile to dir as tile-N.jpg.
func tileSaver(api *client.Client, dishID, dir string) func(context.Context, []bool) {
	saved := map[int]bool{}
	return func(ctx context.Context, revealed []bool) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("tiles dir")
			return
		}
		for i, ok := range revealed {
			if !ok || saved[i] {
				continue
			}
			b, err := api.Tile(ctx, dishID, i, false)
			if err != nil {
				log.Warn().Err(err).Int("tile", i).Msg("download tile")
				continue
			}
			path := filepath.Join(dir, fmt.Sprintf("tile-%d.jpg", i))
			if err := os.WriteFile(path, b, 0o644); err != nil {
				log.Warn().Err(err).Str("path", path).Msg("save tile")
				continue
			}
			saved[i] = true
		}
	}
}
