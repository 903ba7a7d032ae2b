package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/foodforthought/internal/daily"
	"github.com/robalobadob/foodforthought/internal/store"
)

// KeyState is the storage key of the saved session.
const KeyState = "fft-game-state"

// Save writes st tagged with now's date. The dish is never part of it.
func Save(ctx context.Context, kv store.KV, st *State, now time.Time) error {
	st.SavedDate = daily.DateKey(now)
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := kv.Set(ctx, KeyState, string(b)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Restore loads today's session. It returns nil (and deletes the blob) when
// the saved date is not today or the blob cannot be decoded. Fields missing
// from an older blob fall back to their fresh-session defaults one by one.
func Restore(ctx context.Context, kv store.KV, now time.Time, tiles int) (*State, error) {
	raw, ok, err := kv.Get(ctx, KeyState)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return nil, nil
	}

	discard := func(reason string) (*State, error) {
		log.Debug().Str("reason", reason).Msg("discarding saved session")
		if err := kv.Delete(ctx, KeyState); err != nil {
			return nil, fmt.Errorf("delete session: %w", err)
		}
		return nil, nil
	}

	st := NewState(tiles)
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return discard("undecodable")
	}
	if st.SavedDate != daily.DateKey(now) {
		return discard("stale")
	}
	st.fillDefaults(tiles)
	return &st, nil
}

// fillDefaults repairs fields that were present but empty or out of range.
func (s *State) fillDefaults(tiles int) {
	if !s.Phase.Valid() {
		s.Phase = PhaseDish
	}
	if !s.ActivePhase.Valid() || s.Phase.Before(s.ActivePhase) {
		s.ActivePhase = s.Phase
	}
	if s.RevealedIngredients < 1 {
		s.RevealedIngredients = 1
	}
	switch {
	case len(s.RevealedTiles) < tiles:
		s.RevealedTiles = append(s.RevealedTiles, make([]bool, tiles-len(s.RevealedTiles))...)
	case len(s.RevealedTiles) > tiles:
		s.RevealedTiles = s.RevealedTiles[:tiles]
	}
	if s.DishGuesses == nil {
		s.DishGuesses = []DishGuess{}
	}
	if s.CountryGuesses == nil {
		s.CountryGuesses = []CountryGuess{}
	}
	if s.ProteinGuesses == nil {
		s.ProteinGuesses = []ProteinGuess{}
	}
}
