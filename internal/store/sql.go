package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQL stores keys in the kv table, one row per (namespace, key).
type SQL struct {
	db *sqlx.DB
	ns string
}

// NewSQL wraps a migrated database.
func NewSQL(db *sqlx.DB) *SQL { return &SQL{db: db} }

func (s *SQL) For(namespace string) KV { return &SQL{db: s.db, ns: namespace} }

func (s *SQL) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.GetContext(ctx, &v,
		s.db.Rebind(`SELECT value FROM kv WHERE namespace=? AND key=?`), s.ns, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
        INSERT INTO kv(namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
        ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`),
		s.ns, key, value, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM kv WHERE namespace=? AND key=?`), s.ns, key)
	return err
}

// Prune removes rows last written before cutoff and reports how many.
func (s *SQL) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM kv WHERE updated_at < ?`), cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
