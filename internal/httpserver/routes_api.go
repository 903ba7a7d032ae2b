package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/foodforthought/internal/daily"
	"github.com/robalobadob/foodforthought/internal/dish"
	"github.com/robalobadob/foodforthought/internal/tiles"
)

// mountAPI registers the public dish endpoints under /api.
func (s *Server) mountAPI() {
	s.r.Route("/api", func(r chi.Router) {
		r.Get("/dishes", s.handleDishes)
		r.Get("/dish-tiles", s.handleTile(tiles.Regular))
		r.Get("/dish-tiles-blurred", s.handleTile(tiles.Blurred))
		r.Get("/schedule", s.handleSchedule)
		r.Get("/countries", s.handleCountries)
	})
}

// handleDishes returns today's dish as a one-element list of obfuscated
// payloads. Nothing answer-bearing is ever sent in plaintext.
func (s *Server) handleDishes(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
	h.Set("X-Robots-Tag", "noindex, nofollow")

	d, err := s.deps.Resolver.Today(r.Context())
	if errors.Is(err, dish.ErrNoDishToday) {
		writeError(w, http.StatusNotFound, "No dish available for today")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("load today's dish")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	pub, err := dish.BuildPublic(d, s.deps.Resolver.Now())
	if err != nil {
		log.Error().Err(err).Str("dishId", d.ID).Msg("obfuscate dish")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, []dish.Public{pub})
}

// handleTile serves one JPEG tile of a dish image.
func (s *Server) handleTile(v tiles.Variant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		dishID, rawIndex := q.Get("dishId"), q.Get("tileIndex")
		if dishID == "" || rawIndex == "" {
			writeError(w, http.StatusBadRequest, "Missing dishId or tileIndex")
			return
		}
		index, err := strconv.Atoi(rawIndex)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid tile index")
			return
		}

		b, err := s.deps.Tiles.Tile(r.Context(), dishID, index, v)
		switch {
		case errors.Is(err, tiles.ErrInvalidIndex), errors.Is(err, tiles.ErrInvalidDishID):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, tiles.ErrImageNotFound):
			writeError(w, http.StatusNotFound, "Image not found")
			return
		case err != nil && r.Context().Err() != nil:
			// Client went away; the shared render carries on for others.
			log.Debug().Err(err).Str("dishId", dishID).Msg("tile request cancelled")
			return
		case err != nil:
			log.Error().Err(err).Str("dishId", dishID).Int("tile", index).Str("variant", v.String()).Msg("render tile")
			writeError(w, http.StatusInternalServerError, "Failed to process image")
			return
		}

		h := w.Header()
		h.Set("Content-Type", "image/jpeg")
		h.Set("X-Content-Type-Options", "nosniff")
		if v == tiles.Blurred {
			h.Set("Cache-Control", "no-cache")
		} else {
			h.Set("Cache-Control", "public, max-age=86400")
		}
		h.Set("Content-Length", strconv.Itoa(len(b)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}

type scheduleRes struct {
	Today             string `json:"today"`
	LatestReleaseDate string `json:"latestReleaseDate,omitempty"`
	NextReleaseDate   string `json:"nextReleaseDate"`
	BufferDays        int    `json:"bufferDays"`
}

// handleSchedule reports how far ahead dishes are scheduled.
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	ctx, now := r.Context(), s.deps.Resolver.Now()
	latest, err := s.deps.Dishes.LatestReleaseDate(ctx)
	if err != nil {
		log.Error().Err(err).Msg("latest release date")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	next, err := dish.NextReleaseDate(ctx, s.deps.Dishes, now)
	if err != nil {
		log.Error().Err(err).Msg("next release date")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	buffer, err := dish.BufferDays(ctx, s.deps.Dishes, now)
	if err != nil {
		log.Error().Err(err).Msg("buffer days")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, scheduleRes{
		Today:             daily.DateKey(now),
		LatestReleaseDate: latest,
		NextReleaseDate:   next,
		BufferDays:        buffer,
	})
}

// handleCountries lists known country names for autocomplete.
func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=86400")
	writeJSON(w, http.StatusOK, s.deps.Countries.Names())
}
