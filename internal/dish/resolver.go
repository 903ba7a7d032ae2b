package dish

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robalobadob/foodforthought/internal/daily"
	"github.com/robalobadob/foodforthought/internal/geo"
)

// ErrNoDishToday means nothing is scheduled for the current date. It is an
// expected condition, distinct from the store being unreachable.
var ErrNoDishToday = errors.New("no dish available for today")

// Resolver picks the active dish for the current UTC date and fills in its
// coordinates from the country table. Resolved dishes are cached per date.
type Resolver struct {
	store     Store
	countries *geo.Table
	now       func() time.Time

	mu     sync.Mutex
	date   string
	cached *Dish
}

// NewResolver builds a resolver; now defaults to time.Now.
func NewResolver(store Store, countries *geo.Table, now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	if countries == nil {
		countries = geo.Default()
	}
	return &Resolver{store: store, countries: countries, now: now}
}

// Now exposes the resolver's clock so callers agree on "today".
func (r *Resolver) Now() time.Time { return r.now() }

// Today returns the dish released on the current UTC date. Each caller gets
// its own Dish value; the slices inside are shared and read-only.
func (r *Resolver) Today(ctx context.Context) (*Dish, error) {
	date := daily.DateKey(r.now())

	r.mu.Lock()
	if r.date == date && r.cached != nil {
		d := *r.cached
		r.mu.Unlock()
		return &d, nil
	}
	r.mu.Unlock()

	d, err := r.store.ByReleaseDate(ctx, date)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoDishToday
	}
	if err != nil {
		return nil, fmt.Errorf("dish: load %s: %w", date, err)
	}
	r.enrich(d)

	r.mu.Lock()
	r.date, r.cached = date, d
	r.mu.Unlock()

	cp := *d
	return &cp, nil
}

// enrich resolves coordinates from the country name when the stored dish
// has none: exact match first, then substring in either direction.
func (r *Resolver) enrich(d *Dish) {
	if d.Coordinates != nil {
		return
	}
	if c, ok := r.countries.Resolve(d.Country); ok {
		d.Coordinates = &c
	}
}
