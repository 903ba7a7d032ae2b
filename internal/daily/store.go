// internal/daily/store.go
//
// Daily results: one row per (player, date), written when a finished session
// is tracked, and the per-day leaderboard built from them.
package daily

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// Result is one player's finished session for one date.
type Result struct {
	PlayerID       string `db:"player_id" json:"playerId"`
	Date           string `db:"date" json:"date"`
	DishID         string `db:"dish_id" json:"dishId"`
	Won            bool   `db:"won" json:"won"`
	PhasesWon      int    `db:"phases_won" json:"phasesWon"`
	DishGuesses    int    `db:"dish_guesses" json:"dishGuesses"`
	CountryGuesses int    `db:"country_guesses" json:"countryGuesses"`
	ProteinGuesses int    `db:"protein_guesses" json:"proteinGuesses"`
	CreatedAt      string `db:"created_at" json:"-"`
}

// TotalGuesses sums the attempts across phases.
func (r Result) TotalGuesses() int {
	return r.DishGuesses + r.CountryGuesses + r.ProteinGuesses
}

type Store struct{ db *sqlx.DB }

func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

// AlreadyRecorded reports whether playerID has a result for date.
func (s *Store) AlreadyRecorded(ctx context.Context, playerID, date string) (bool, error) {
	var cnt int
	err := s.db.GetContext(ctx, &cnt,
		s.db.Rebind(`SELECT COUNT(1) FROM daily_results WHERE player_id=? AND date=?`),
		playerID, date,
	)
	return cnt > 0, err
}

// InsertResult records r unless the player already has a row for that date.
// It reports whether a row was written.
func (s *Store) InsertResult(ctx context.Context, r Result) (bool, error) {
	if r.CreatedAt == "" {
		r.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	res, err := s.db.NamedExecContext(ctx, `
        INSERT INTO daily_results
            (player_id, date, dish_id, won, phases_won, dish_guesses, country_guesses, protein_guesses, created_at)
        VALUES
            (:player_id, :date, :dish_id, :won, :phases_won, :dish_guesses, :country_guesses, :protein_guesses, :created_at)
        ON CONFLICT DO NOTHING`, r)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// LBRow is one leaderboard entry.
type LBRow struct {
	PlayerID     string `db:"player_id" json:"playerId"`
	Username     string `db:"username" json:"username,omitempty"`
	Won          bool   `db:"won" json:"won"`
	PhasesWon    int    `db:"phases_won" json:"phasesWon"`
	TotalGuesses int    `db:"total_guesses" json:"totalGuesses"`
}

// Leaderboard ranks date's results: most phases won, then fewest guesses,
// then earliest finish.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	out := []LBRow{}
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(`
        SELECT r.player_id,
               COALESCE(p.username, '') AS username,
               r.won,
               r.phases_won,
               r.dish_guesses + r.country_guesses + r.protein_guesses AS total_guesses
          FROM daily_results r
          LEFT JOIN players p ON p.id = r.player_id
         WHERE r.date=?
         ORDER BY r.phases_won DESC, total_guesses ASC, r.created_at ASC
         LIMIT ?`), date, limit)
	if err != nil {
		return nil, err
	}
	return out, nil
}
