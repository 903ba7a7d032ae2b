package dish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/robalobadob/foodforthought/internal/daily"
	"github.com/robalobadob/foodforthought/internal/geo"
)

// Validation errors for scheduled dishes.
var (
	ErrMissingName      = errors.New("dish name is required")
	ErrMissingCountry   = errors.New("dish country is required")
	ErrNoIngredients    = errors.New("dish needs at least one ingredient")
	ErrBadReleaseDate   = errors.New("release date must be YYYY-MM-DD")
	ErrNegativeProtein  = errors.New("protein per serving cannot be negative")
	ErrDuplicateDish    = errors.New("dish duplicates an existing name or alias")
	ErrDuplicateRelease = errors.New("release date already scheduled")
)

// LoadSchedule reads a list of dishes from a .json, .yaml or .yml file.
func LoadSchedule(path string) ([]*Dish, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseSchedule(data, "yaml")
	default:
		return ParseSchedule(data, "json")
	}
}

// ParseSchedule decodes a dish list in the given format ("json" or "yaml").
func ParseSchedule(data []byte, format string) ([]*Dish, error) {
	var out []*Dish
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("parse yaml schedule: %w", err)
		}
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&out); err != nil {
			return nil, fmt.Errorf("parse json schedule: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown schedule format %q", format)
	}
	return out, nil
}

// Validate checks the fields every playable dish needs. An empty release
// date is allowed; Import assigns one.
func Validate(d *Dish) error {
	switch {
	case strings.TrimSpace(d.Name) == "":
		return ErrMissingName
	case strings.TrimSpace(d.Country) == "":
		return ErrMissingCountry
	case len(d.Ingredients) == 0:
		return ErrNoIngredients
	case d.ProteinPerServing != nil && *d.ProteinPerServing < 0:
		return ErrNegativeProtein
	}
	if d.ReleaseDate != "" {
		if _, err := daily.ParseKey(d.ReleaseDate); err != nil {
			return ErrBadReleaseDate
		}
	}
	return nil
}

// ImportReport summarizes an Import run.
type ImportReport struct {
	Inserted []string         // ids written
	Skipped  map[string]error // name → reason
}

// Import validates and inserts scheduled dishes.
//
//   - Dishes whose normalized name or alias collides with a stored dish (or an
//     earlier entry of the same batch) are skipped.
//   - Missing ids get a UUID; missing release dates continue the schedule from
//     the latest stored date (or today for an empty store).
//   - Unknown countries are logged but still imported.
func Import(ctx context.Context, store Store, countries *geo.Table, dishes []*Dish, now time.Time) (ImportReport, error) {
	rep := ImportReport{Skipped: map[string]error{}}

	existing, err := store.List(ctx)
	if err != nil {
		return rep, fmt.Errorf("import: list dishes: %w", err)
	}
	seen := map[string]bool{}
	dates := map[string]bool{}
	for _, d := range existing {
		markNames(seen, d)
		dates[d.ReleaseDate] = true
	}

	next, err := NextReleaseDate(ctx, store, now)
	if err != nil {
		return rep, err
	}

	for _, d := range dishes {
		if err := Validate(d); err != nil {
			rep.Skipped[d.Name] = err
			continue
		}
		if isDuplicate(seen, d) {
			rep.Skipped[d.Name] = ErrDuplicateDish
			continue
		}
		if d.ReleaseDate == "" {
			for dates[next] {
				next = addDays(next, 1)
			}
			d.ReleaseDate = next
			next = addDays(next, 1)
		}
		if dates[d.ReleaseDate] {
			rep.Skipped[d.Name] = ErrDuplicateRelease
			continue
		}
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		if _, ok := countries.Lookup(d.Country); !ok {
			log.Warn().Str("dish", d.Name).Str("country", d.Country).Msg("country not in table")
		}
		if d.Coordinates == nil {
			if c, ok := countries.Resolve(d.Country); ok {
				d.Coordinates = &c
			}
		}

		ok, err := store.Insert(ctx, d)
		if err != nil {
			return rep, err
		}
		if !ok {
			rep.Skipped[d.Name] = ErrDuplicateRelease
			continue
		}
		markNames(seen, d)
		dates[d.ReleaseDate] = true
		rep.Inserted = append(rep.Inserted, d.ID)
	}
	return rep, nil
}

// NextReleaseDate is the day after the latest scheduled dish, or today when
// nothing is scheduled (or everything is in the past).
func NextReleaseDate(ctx context.Context, store Store, now time.Time) (string, error) {
	today := daily.DateKey(now)
	latest, err := store.LatestReleaseDate(ctx)
	if err != nil {
		return "", fmt.Errorf("latest release date: %w", err)
	}
	if latest == "" || latest < today {
		return today, nil
	}
	return addDays(latest, 1), nil
}

// BufferDays counts how many days past today are already scheduled.
func BufferDays(ctx context.Context, store Store, now time.Time) (int, error) {
	latest, err := store.LatestReleaseDate(ctx)
	if err != nil {
		return 0, err
	}
	if latest == "" {
		return 0, nil
	}
	n, ok := daily.DaysBetween(daily.DateKey(now), latest)
	if !ok || n < 0 {
		return 0, nil
	}
	return n, nil
}

func addDays(key string, n int) string {
	t, err := daily.ParseKey(key)
	if err != nil {
		return key
	}
	return daily.DateKey(t.AddDate(0, 0, n))
}

func markNames(seen map[string]bool, d *Dish) {
	seen[geo.Fold(d.Name)] = true
	for _, g := range d.AcceptableGuesses {
		seen[geo.Fold(g)] = true
	}
}

func isDuplicate(seen map[string]bool, d *Dish) bool {
	if seen[geo.Fold(d.Name)] {
		return true
	}
	for _, g := range d.AcceptableGuesses {
		if seen[geo.Fold(g)] {
			return true
		}
	}
	return false
}
