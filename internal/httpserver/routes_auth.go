package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/foodforthought/internal/daily"
	"github.com/robalobadob/foodforthought/internal/game"
	"github.com/robalobadob/foodforthought/internal/player"
	"github.com/robalobadob/foodforthought/internal/store"
	"github.com/robalobadob/foodforthought/internal/streak"
)

const anonCookieName = "fft_anon"

// authUser is placed into request context by the auth middleware.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type ctxUserKey struct{}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// mountAuthRoutes registers /auth/*.
func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)

	s.r.With(s.requireAuth()).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, currentUser(r))
	})
}

// handleSignup creates a player, sets the auth cookie and claims the guest session.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	p, err := s.deps.Players.Create(r.Context(), body.Username, body.Password)
	var verr *player.ValidationError
	switch {
	case errors.Is(err, player.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "Username taken")
		return
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Msg)
		return
	case err != nil:
		log.Error().Err(err).Msg("signup")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !s.signIn(w, r, p) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": p.ID, "username": p.Username, "createdAt": p.CreatedAt})
}

// handleLogin authenticates a player, sets the cookie and claims the guest session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	p, err := s.deps.Players.Authenticate(r.Context(), body.Username, body.Password)
	if err != nil {
		if !errors.Is(err, player.ErrInvalidCredentials) {
			log.Error().Err(err).Msg("login")
		}
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if !s.signIn(w, r, p) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": p.ID, "username": p.Username})
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.setCookie(w, s.cfg.Auth.CookieName, "", time.Time{}, -1)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request, p *player.Player) bool {
	tok, exp, err := s.deps.Tokens.Sign(p)
	if err != nil {
		log.Error().Err(err).Msg("sign token")
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return false
	}
	s.setCookie(w, s.cfg.Auth.CookieName, tok, exp, 0)
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		s.claimAnonSession(r.Context(), c.Value, p.ID)
	}
	return true
}

// --------------------------- auth middleware -------------------------------

// requireAuth rejects requests without a valid token for an existing player.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := s.authenticate(r)
			if u == nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u)))
		})
	}
}

// withOptionalAuth decorates requests with user context if a valid JWT is present.
// It never 401s; used for routes where guests are allowed.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u := s.authenticate(r); u != nil {
				r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) authenticate(r *http.Request) *authUser {
	tok := s.bearerOrCookie(r)
	if tok == "" {
		return nil
	}
	c, err := s.deps.Tokens.Parse(tok)
	if err != nil {
		return nil
	}
	p, err := s.deps.Players.ByID(r.Context(), c.ID)
	if err != nil {
		return nil
	}
	return &authUser{ID: p.ID, Username: p.Username}
}

func currentUser(r *http.Request) *authUser { return userFrom(r.Context()) }

func userFrom(ctx context.Context) *authUser {
	u, _ := ctx.Value(ctxUserKey{}).(*authUser)
	return u
}

func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.Auth.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// ------------------------------ identity -----------------------------------

// playerKey identifies whose session a request touches: the signed-in
// player, or a guest with a stable anonymous cookie.
func (s *Server) playerKey(w http.ResponseWriter, r *http.Request) string {
	if u := currentUser(r); u != nil {
		return "player:" + u.ID
	}
	return "anon:" + s.ensureAnonID(w, r)
}

// ensureAnonID returns an existing anon cookie or sets a new one.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	s.setCookie(w, anonCookieName, id, time.Now().Add(180*24*time.Hour), 0)
	return id
}

// claimAnonSession copies a guest's game and streak into a player's
// namespaces when the player has none of their own yet.
func (s *Server) claimAnonSession(ctx context.Context, anonID, playerID string) {
	from, to := "anon:"+anonID, "player:"+playerID
	date := daily.DateKey(s.deps.Resolver.Now())

	unlock := s.locks.Lock(to)
	defer unlock()

	copyKeys(ctx, s.gameKV(from, date), s.gameKV(to, date), game.KeyState)
	copyKeys(ctx, s.streakKV(from), s.streakKV(to), streak.KeyStreak, streak.KeyLastPlayed)
}

func copyKeys(ctx context.Context, from, to store.KV, keys ...string) {
	for _, key := range keys {
		if _, ok, err := to.Get(ctx, key); err != nil || ok {
			continue
		}
		v, ok, err := from.Get(ctx, key)
		if err != nil || !ok {
			continue
		}
		if err := to.Set(ctx, key, v); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("claim anon session")
		}
	}
}

func (s *Server) setCookie(w http.ResponseWriter, name, value string, exp time.Time, maxAge int) {
	secure := s.cfg.Production()
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
		MaxAge:   maxAge,
	})
}
