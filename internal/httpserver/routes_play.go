package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/foodforthought/internal/daily"
	"github.com/robalobadob/foodforthought/internal/dish"
	"github.com/robalobadob/foodforthought/internal/game"
	"github.com/robalobadob/foodforthought/internal/store"
	"github.com/robalobadob/foodforthought/internal/streak"
)

// playView is what every /play route answers with. Answer is only filled
// in once the game is complete.
type playView struct {
	Date        string      `json:"date"`
	Status      game.Status `json:"status"`
	State       game.State  `json:"state"`
	Ingredients []string    `json:"ingredients"`
	Tags        []string    `json:"tags"`
	Region      string      `json:"region,omitempty"`
	Streak      int         `json:"streak"`
	Last        any         `json:"last,omitempty"`
	Share       string      `json:"share,omitempty"`
	Answer      *dish.Dish  `json:"answer,omitempty"`
	Error       string      `json:"error,omitempty"`
}

type textGuess struct {
	Guess string `json:"guess"`
}

type gramsGuess struct {
	Grams *int `json:"grams"`
}

type phaseReq struct {
	Phase game.Phase `json:"phase"`
}

// mountPlay registers server-held sessions. Guests play under an
// anonymous cookie; signed-in players under their account.
func (s *Server) mountPlay() {
	s.r.Route("/play", func(r chi.Router) {
		r.Use(s.withOptionalAuth())

		r.Get("/state", s.play(func(ctx context.Context, m *game.Machine, _ *http.Request) (any, error) {
			return nil, nil
		}))

		r.Post("/dish", s.play(func(ctx context.Context, m *game.Machine, r *http.Request) (any, error) {
			var body textGuess
			if err := decodeJSON(r, &body); err != nil {
				return nil, errBadBody
			}
			return m.GuessDish(ctx, body.Guess)
		}))

		r.Post("/country", s.play(func(ctx context.Context, m *game.Machine, r *http.Request) (any, error) {
			var body textGuess
			if err := decodeJSON(r, &body); err != nil {
				return nil, errBadBody
			}
			return m.GuessCountry(ctx, body.Guess)
		}))

		r.Post("/protein", s.play(func(ctx context.Context, m *game.Machine, r *http.Request) (any, error) {
			var body gramsGuess
			if err := decodeJSON(r, &body); err != nil || body.Grams == nil {
				return nil, errBadBody
			}
			g, err := m.GuessProtein(ctx, *body.Grams)
			if err != nil {
				return nil, err
			}
			return map[string]any{"guess": g, "proximity": g.Proximity()}, nil
		}))

		r.Post("/give-up", s.play(func(ctx context.Context, m *game.Machine, _ *http.Request) (any, error) {
			return nil, m.GiveUp(ctx)
		}))

		r.Post("/active-phase", s.play(func(ctx context.Context, m *game.Machine, r *http.Request) (any, error) {
			var body phaseReq
			if err := decodeJSON(r, &body); err != nil {
				return nil, errBadBody
			}
			return nil, m.SetActivePhase(ctx, body.Phase)
		}))
	})
}

var errBadBody = errors.New("invalid_json")

type playAction func(ctx context.Context, m *game.Machine, r *http.Request) (any, error)

// play loads the caller's session for today under their lock, runs action,
// records a finished game once and answers with the resulting view.
func (s *Server) play(action playAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		d, err := s.deps.Resolver.Today(ctx)
		if errors.Is(err, dish.ErrNoDishToday) {
			writeError(w, http.StatusNotFound, "No dish available for today")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("load today's dish")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		key := s.playerKey(w, r)
		date := daily.DateKey(s.deps.Resolver.Now())

		unlock := s.locks.Lock(key)
		defer unlock()

		m, err := game.New(d,
			game.WithStore(s.gameKV(key, date)),
			game.WithStreak(streak.New(s.streakKV(key))),
			game.WithClock(s.deps.Resolver.Now),
			game.WithCountries(s.deps.Countries),
		)
		if err != nil {
			log.Error().Err(err).Str("dishId", d.ID).Msg("new game")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		// Only an absent or stale session may start fresh; a failed read must
		// never reach Save.
		if _, err := m.Restore(ctx); err != nil {
			log.Error().Err(err).Str("player", key).Str("date", date).Msg("restore session")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		last, err := action(ctx, m, r)
		status := http.StatusOK
		switch {
		case err == nil:
		case errors.Is(err, errBadBody):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, game.ErrEmptyGuess), errors.Is(err, game.ErrInvalidGuess), errors.Is(err, game.ErrUnknownPhase):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, game.ErrPhaseClosed), errors.Is(err, game.ErrPhaseLocked), errors.Is(err, game.ErrPhaseOpen):
			// Answer with the current state so the client can resync.
			status = http.StatusConflict
		default:
			log.Error().Err(err).Str("player", key).Str("date", date).Msg("play action")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		s.track(ctx, m, d, date)

		v, verr := s.view(ctx, m, d, date)
		if verr != nil {
			log.Error().Err(verr).Str("player", key).Msg("streak")
		}
		if err != nil {
			v.Error = err.Error()
		} else {
			v.Last = last
		}
		writeJSON(w, status, v)
	}
}

// track records a finished game for signed-in players, once.
func (s *Server) track(ctx context.Context, m *game.Machine, d *dish.Dish, date string) {
	u := userFrom(ctx)
	if u == nil || m.State().Phase != game.PhaseComplete {
		return
	}
	flipped, err := m.MarkTracked(ctx)
	if err != nil {
		log.Warn().Err(err).Str("player", u.ID).Msg("mark tracked")
	}
	if !flipped {
		return
	}
	st := m.State()
	res := daily.Result{
		PlayerID:       u.ID,
		Date:           date,
		DishID:         d.ID,
		Won:            st.Status() == game.StatusWon,
		PhasesWon:      st.PhasesWon(),
		DishGuesses:    st.Attempts(game.PhaseDish),
		CountryGuesses: st.Attempts(game.PhaseCountry),
		ProteinGuesses: st.Attempts(game.PhaseProtein),
	}
	inserted, err := s.deps.Results.InsertResult(ctx, res)
	if err != nil {
		log.Error().Err(err).Str("player", u.ID).Str("date", date).Msg("record daily result")
		return
	}
	log.Info().
		Str("player", u.ID).
		Str("date", date).
		Int("phasesWon", res.PhasesWon).
		Bool("inserted", inserted).
		Msg("daily result")
}

func (s *Server) view(ctx context.Context, m *game.Machine, d *dish.Dish, date string) (playView, error) {
	st := m.State()
	n, err := m.Streak(ctx)
	v := playView{
		Date:        date,
		Status:      st.Status(),
		State:       st,
		Ingredients: m.Ingredients(),
		Tags:        d.Tags,
		Region:      d.Region,
		Streak:      n,
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	if st.Phase == game.PhaseComplete {
		v.Answer = d
		v.Share = game.ShareText(st, n)
	}
	return v, err
}

// gameKV is where one player's session for one date lives.
func (s *Server) gameKV(key, date string) store.KV {
	return s.deps.Sessions.For(key + "/" + date)
}

// streakKV is where one player's streak lives across days.
func (s *Server) streakKV(key string) store.KV {
	return s.deps.Sessions.For(key)
}
