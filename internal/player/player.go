// internal/player/player.go
//
// Player accounts: signup/login with bcrypt password hashes in the players
// table, and HS256 JWTs carried in a cookie or bearer header.
//
// Rules:
//   - Usernames are 3–24 chars of letters, digits and underscore, unique
//     case-insensitively.
//   - Passwords are 8–100 chars.
package player

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotFound           = errors.New("player not found")
)

// ValidationError is a signup input problem the client can show as-is.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

type Player struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type row struct {
	ID           string `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    string `db:"created_at"`
}

func (r row) player() *Player {
	t, _ := time.Parse(time.RFC3339, r.CreatedAt)
	return &Player{ID: r.ID, Username: r.Username, PasswordHash: r.PasswordHash, CreatedAt: t}
}

type Store struct{ db *sqlx.DB }

func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

// Create validates input, checks uniqueness, hashes the password and
// inserts a new player.
func (s *Store) Create(ctx context.Context, username, password string) (*Player, error) {
	username = normalizeUsername(username)
	if err := validateSignup(username, password); err != nil {
		return nil, err
	}
	if _, err := s.ByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	r := row{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(h),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := s.db.NamedExecContext(ctx,
		`INSERT INTO players (id, username, password_hash, created_at)
		 VALUES (:id, :username, :password_hash, :created_at)`, r); err != nil {
		// lost a race on the unique index
		if _, lookupErr := s.ByUsername(ctx, username); lookupErr == nil {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return r.player(), nil
}

// Authenticate checks a username/password pair.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*Player, error) {
	p, err := s.ByUsername(ctx, normalizeUsername(username))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return p, nil
}

func (s *Store) ByUsername(ctx context.Context, username string) (*Player, error) {
	return s.one(ctx, `SELECT id, username, password_hash, created_at FROM players WHERE lower(username)=lower(?)`, username)
}

func (s *Store) ByID(ctx context.Context, id string) (*Player, error) {
	return s.one(ctx, `SELECT id, username, password_hash, created_at FROM players WHERE id=?`, id)
}

func (s *Store) one(ctx context.Context, q string, arg any) (*Player, error) {
	var r row
	if err := s.db.GetContext(ctx, &r, s.db.Rebind(q), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r.player(), nil
}

func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return &ValidationError{"username must be 3–24 chars"}
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return &ValidationError{"username: letters, numbers, underscore only"}
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return &ValidationError{"password must be 8–100 chars"}
	}
	return nil
}
