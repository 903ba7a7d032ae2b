// Package streak counts consecutive UTC days with a completed game.
//
// The counter lives under two keys of a store.KV ("streak" and
// "lastPlayedDate"), the same layout the browser client keeps locally, so a
// CLI state file and a server-side session namespace are interchangeable.
package streak

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/robalobadob/foodforthought/internal/daily"
	"github.com/robalobadob/foodforthought/internal/store"
)

// Storage keys.
const (
	KeyStreak     = "streak"
	KeyLastPlayed = "lastPlayedDate"
)

// Keeper reads and advances the streak held in kv.
type Keeper struct {
	kv store.KV
}

func New(kv store.KV) *Keeper { return &Keeper{kv: kv} }

// Update records a completed game on now's date and returns the new streak:
// unchanged when already played today, +1 when last played yesterday,
// otherwise 1.
func (k *Keeper) Update(ctx context.Context, now time.Time) (int, error) {
	today := daily.DateKey(now)
	cur, last, err := k.load(ctx)
	if err != nil {
		return 0, err
	}

	var next int
	switch {
	case last == today:
		return cur, nil
	case last == yesterday(now):
		next = cur + 1
	default:
		next = 1
	}

	if err := k.kv.Set(ctx, KeyStreak, strconv.Itoa(next)); err != nil {
		return 0, fmt.Errorf("streak: save count: %w", err)
	}
	if err := k.kv.Set(ctx, KeyLastPlayed, today); err != nil {
		return 0, fmt.Errorf("streak: save date: %w", err)
	}
	return next, nil
}

// Get returns the current streak without writing anything. A streak whose
// last game is older than yesterday is reported as 0.
func (k *Keeper) Get(ctx context.Context, now time.Time) (int, error) {
	cur, last, err := k.load(ctx)
	if err != nil {
		return 0, err
	}
	if last == daily.DateKey(now) || last == yesterday(now) {
		return cur, nil
	}
	return 0, nil
}

// load tolerates garbage: an unparsable count reads as 0.
func (k *Keeper) load(ctx context.Context) (count int, last string, err error) {
	raw, ok, err := k.kv.Get(ctx, KeyStreak)
	if err != nil {
		return 0, "", fmt.Errorf("streak: load count: %w", err)
	}
	if ok {
		if n, perr := strconv.Atoi(raw); perr == nil && n > 0 {
			count = n
		}
	}
	last, _, err = k.kv.Get(ctx, KeyLastPlayed)
	if err != nil {
		return 0, "", fmt.Errorf("streak: load date: %w", err)
	}
	return count, last, nil
}

func yesterday(now time.Time) string {
	return daily.DateKey(now.UTC().AddDate(0, 0, -1))
}
