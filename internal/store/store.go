// internal/store/store.go
//
// Small string key-value stores used for game sessions and streaks.
//
// Implementations:
//   - Memory: map guarded by RWMutex, lost on restart (tests, dev).
//   - File:   one JSON object on disk; the CLI's stand-in for browser storage.
//   - SQL:    the kv table (SQLite or Postgres), durable server sessions.
//   - Redis:  server sessions with a TTL.
//
// Memory, SQL and Redis hand out namespaced views with For, so one backing
// store holds the state of many players without key collisions.
package store

import "context"

// KV is the minimal storage contract. A missing key is (""/false/nil), not an
// error.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Namespaced is a KV that can scope itself to a namespace.
type Namespaced interface {
	KV
	For(namespace string) KV
}
