// internal/game/machine.go
//
// Machine runs one player's session against the day's dish.
//
// Every mutation goes through a named action (GuessDish, GuessCountry,
// GuessProtein, AdvancePhase, SetActivePhase, GiveUp, MarkTracked, Restore)
// and is persisted afterwards when a store is attached.
//
// Transition rules:
//   - Phases move forward only: dish → country → protein → complete. Dishes
//     without a protein value go country → complete.
//   - A phase is complete when it succeeded, its attempt cap is used up, or
//     the answer was revealed (give-up). Completing a phase advances
//     automatically unless WithManualAdvance is set.
//   - Guesses for any phase other than the current, still-open one return
//     ErrPhaseClosed and change nothing.
//   - ActivePhase is a review pointer; it can move to any reached phase but
//     never reopens one.
//
// A Machine is not safe for concurrent use; the server holds a per-player
// lock around it.
package game

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/robalobadob/foodforthought/internal/dish"
	"github.com/robalobadob/foodforthought/internal/geo"
	"github.com/robalobadob/foodforthought/internal/store"
	"github.com/robalobadob/foodforthought/internal/streak"
)

type Machine struct {
	dish      *dish.Dish
	rules     Rules
	countries *geo.Table
	kv        store.KV
	streak    *streak.Keeper
	now       func() time.Time
	intn      func(int) int
	manual    bool

	state       State
	streakValue int
}

// Option configures a Machine.
type Option func(*Machine)

func WithRules(r Rules) Option { return func(m *Machine) { m.rules = r } }

// WithStore persists the session under KeyState after every action.
func WithStore(kv store.KV) Option { return func(m *Machine) { m.kv = kv } }

// WithStreak records the streak once when the game completes.
func WithStreak(k *streak.Keeper) Option { return func(m *Machine) { m.streak = k } }

func WithClock(now func() time.Time) Option { return func(m *Machine) { m.now = now } }

// WithRand replaces the uniform tile picker; intn(n) must return [0,n).
func WithRand(intn func(int) int) Option { return func(m *Machine) { m.intn = intn } }

func WithCountries(t *geo.Table) Option { return func(m *Machine) { m.countries = t } }

// WithManualAdvance leaves a finished phase in place until AdvancePhase is
// called, so a UI can show the result first.
func WithManualAdvance() Option { return func(m *Machine) { m.manual = true } }

// New starts a fresh session for d.
func New(d *dish.Dish, opts ...Option) (*Machine, error) {
	if d == nil {
		return nil, ErrNoDish
	}
	m := &Machine{
		dish:  d,
		rules: DefaultRules,
		now:   time.Now,
		intn:  rand.IntN,
	}
	for _, o := range opts {
		o(m)
	}
	if m.countries == nil {
		m.countries = geo.Default()
	}
	if m.rules.Tiles <= 0 {
		m.rules.Tiles = DefaultRules.Tiles
	}
	m.state = NewState(m.rules.Tiles)
	return m, nil
}

// Dish returns the dish being played.
func (m *Machine) Dish() *dish.Dish { return m.dish }

// Rules returns the attempt caps in effect.
func (m *Machine) Rules() Rules { return m.rules }

// State returns a copy of the current session state.
func (m *Machine) State() State { return m.state.Clone() }

// Status reports playing, won or lost.
func (m *Machine) Status() Status { return m.state.Status() }

// Streak returns the streak recorded on completion, or the stored value when
// this session has not completed yet. It never writes.
func (m *Machine) Streak(ctx context.Context) (int, error) {
	if m.state.StreakRecorded && m.streakValue > 0 {
		return m.streakValue, nil
	}
	if m.streak == nil {
		return 0, nil
	}
	return m.streak.Get(ctx, m.now())
}

// IsPhaseComplete reports whether p accepts no more guesses.
func (m *Machine) IsPhaseComplete(p Phase) bool {
	s := &m.state
	if p == PhaseComplete || p.Before(s.Phase) {
		return true
	}
	switch p {
	case PhaseDish:
		return s.DishSuccess || s.Attempts(p) >= m.rules.DishAttempts || s.revealed(p)
	case PhaseCountry:
		return s.CountrySuccess || s.Attempts(p) >= m.rules.CountryAttempts || s.revealed(p)
	case PhaseProtein:
		if !m.dish.HasProtein() {
			return true
		}
		return s.ProteinSuccess || s.Attempts(p) >= m.rules.ProteinAttempts || s.revealed(p)
	}
	return false
}

// Ingredients returns the ingredients revealed so far.
func (m *Machine) Ingredients() []string {
	n := min(m.state.RevealedIngredients, len(m.dish.Ingredients))
	return append([]string{}, m.dish.Ingredients[:max(n, 0)]...)
}

func (m *Machine) open(p Phase) error {
	if m.state.Phase != p || m.IsPhaseComplete(p) {
		return ErrPhaseClosed
	}
	return nil
}

// GuessDish evaluates a dish name. A wrong guess uncovers one random hidden
// tile and one more ingredient; a right one uncovers every tile.
func (m *Machine) GuessDish(ctx context.Context, guess string) (DishGuess, error) {
	if err := m.open(PhaseDish); err != nil {
		return DishGuess{}, err
	}
	g := dish.Normalize(guess)
	if g == "" {
		return DishGuess{}, ErrEmptyGuess
	}

	rec := DishGuess{Guess: g, Correct: m.dish.Matches(g)}
	m.state.DishGuesses = append(m.state.DishGuesses, rec)
	if rec.Correct {
		m.state.DishSuccess = true
		m.revealAllTiles()
	} else {
		m.revealRandomTile()
		m.revealIngredients(1)
	}
	return rec, m.settle(ctx, PhaseDish)
}

// GuessCountry evaluates a country name. Wrong guesses carry the distance
// and compass direction from the guessed country to the dish, or Invalid
// when the guess is not a known country.
func (m *Machine) GuessCountry(ctx context.Context, guess string) (CountryGuess, error) {
	if err := m.open(PhaseCountry); err != nil {
		return CountryGuess{}, err
	}
	g := strings.TrimSpace(guess)
	if g == "" {
		return CountryGuess{}, ErrEmptyGuess
	}

	rec := CountryGuess{Country: g}
	switch {
	case m.dish.IsCountry(g), m.sameCountry(g):
		rec.Correct = true
		rec.Direction = geo.NoDirection
		m.state.CountrySuccess = true
	default:
		from, ok := m.countries.Lookup(g)
		to, known := m.target()
		if !ok || !known {
			rec.Invalid = true
			break
		}
		rec.Distance = geo.Distance(from, to)
		rec.Direction = geo.Direction(from, to)
	}
	m.state.CountryGuesses = append(m.state.CountryGuesses, rec)
	return rec, m.settle(ctx, PhaseCountry)
}

// sameCountry reports whether guess is a table alias of the dish's country,
// e.g. "USA" for "United States".
func (m *Machine) sameCountry(guess string) bool {
	g, ok := m.countries.Canonical(guess)
	if !ok {
		return false
	}
	want, ok := m.countries.Canonical(m.dish.Country)
	return ok && g == want
}

// GuessProtein evaluates a grams-per-serving guess.
func (m *Machine) GuessProtein(ctx context.Context, grams int) (ProteinGuess, error) {
	if err := m.open(PhaseProtein); err != nil {
		return ProteinGuess{}, err
	}
	if grams < 0 {
		return ProteinGuess{}, ErrInvalidGuess
	}

	answer := *m.dish.ProteinPerServing
	diff := grams - answer
	if diff < 0 {
		diff = -diff
	}
	rec := ProteinGuess{Guess: grams, Correct: diff == 0, Difference: diff}
	m.state.ProteinGuesses = append(m.state.ProteinGuesses, rec)
	if rec.Correct {
		m.state.ProteinSuccess = true
	}
	return rec, m.settle(ctx, PhaseProtein)
}

// GiveUp ends the current phase without a win. It does not count as an
// attempt: the answer is appended as a revealed record and the game moves on
// exactly as if the cap had been hit.
func (m *Machine) GiveUp(ctx context.Context) error {
	p := m.state.Phase
	if err := m.open(p); err != nil {
		return err
	}
	m.reveal(p)
	return m.settle(ctx, p)
}

// AdvancePhase moves a finished phase on. Only needed with
// WithManualAdvance.
func (m *Machine) AdvancePhase(ctx context.Context) error {
	p := m.state.Phase
	if p == PhaseComplete {
		return ErrPhaseClosed
	}
	if !m.IsPhaseComplete(p) {
		return ErrPhaseOpen
	}
	return m.advance(ctx)
}

// SetActivePhase points the review cursor at p. Any reached phase may be
// shown; doing so never reopens it for guesses.
func (m *Machine) SetActivePhase(ctx context.Context, p Phase) error {
	if !p.Valid() {
		return ErrUnknownPhase
	}
	if m.state.Phase.Before(p) {
		return ErrPhaseLocked
	}
	if m.state.ActivePhase == p {
		return nil
	}
	m.state.ActivePhase = p
	return m.persist(ctx)
}

// MarkTracked flips the one-way tracked flag for a completed game. It
// reports whether this call did the flip, so a result is reported once.
func (m *Machine) MarkTracked(ctx context.Context) (bool, error) {
	if m.state.Phase != PhaseComplete {
		return false, ErrNotComplete
	}
	if m.state.Tracked {
		return false, nil
	}
	m.state.Tracked = true
	return true, m.persist(ctx)
}

// Restore replaces the state with today's persisted session, if any.
func (m *Machine) Restore(ctx context.Context) (bool, error) {
	if m.kv == nil {
		return false, nil
	}
	st, err := Restore(ctx, m.kv, m.now(), m.rules.Tiles)
	if err != nil || st == nil {
		return false, err
	}
	st.RevealedIngredients = min(st.RevealedIngredients, max(len(m.dish.Ingredients), 1))
	m.state = *st
	return true, nil
}

// settle closes phase p when it is complete, then persists.
func (m *Machine) settle(ctx context.Context, p Phase) error {
	if m.IsPhaseComplete(p) {
		if !m.succeeded(p) && !m.state.revealed(p) {
			m.reveal(p)
		}
		if !m.manual {
			return m.advance(ctx)
		}
	}
	return m.persist(ctx)
}

func (m *Machine) succeeded(p Phase) bool {
	switch p {
	case PhaseDish:
		return m.state.DishSuccess
	case PhaseCountry:
		return m.state.CountrySuccess
	case PhaseProtein:
		return m.state.ProteinSuccess
	}
	return false
}

// reveal appends the answer for p as a synthetic correct record.
func (m *Machine) reveal(p Phase) {
	switch p {
	case PhaseDish:
		m.state.DishGuesses = append(m.state.DishGuesses, DishGuess{
			Guess: dish.Normalize(m.dish.Name), Correct: true, Revealed: true,
		})
		m.revealAllTiles()
		m.revealIngredients(len(m.dish.Ingredients))
	case PhaseCountry:
		m.state.CountryGuesses = append(m.state.CountryGuesses, CountryGuess{
			Country: m.dish.Country, Correct: true, Direction: geo.NoDirection, Revealed: true,
		})
	case PhaseProtein:
		if m.dish.HasProtein() {
			m.state.ProteinGuesses = append(m.state.ProteinGuesses, ProteinGuess{
				Guess: *m.dish.ProteinPerServing, Correct: true, Revealed: true,
			})
		}
	}
}

func (m *Machine) advance(ctx context.Context) error {
	next := PhaseComplete
	switch m.state.Phase {
	case PhaseDish:
		next = PhaseCountry
	case PhaseCountry:
		if m.dish.HasProtein() {
			next = PhaseProtein
		}
	}
	if !m.state.Phase.CanTransitionTo(next) {
		return ErrPhaseClosed
	}
	m.state.Phase = next
	m.state.ActivePhase = next
	if next == PhaseComplete {
		return m.complete(ctx)
	}
	return m.persist(ctx)
}

// complete records the streak once and persists the final state.
func (m *Machine) complete(ctx context.Context) error {
	if !m.state.StreakRecorded {
		if m.streak != nil {
			n, err := m.streak.Update(ctx, m.now())
			if err != nil {
				_ = m.persist(ctx)
				return err
			}
			m.streakValue = n
		}
		m.state.StreakRecorded = true
	}
	return m.persist(ctx)
}

func (m *Machine) persist(ctx context.Context) error {
	if m.kv == nil {
		return nil
	}
	return Save(ctx, m.kv, &m.state, m.now())
}

func (m *Machine) target() (geo.Coordinates, bool) {
	if m.dish.Coordinates != nil {
		return *m.dish.Coordinates, true
	}
	return m.countries.Resolve(m.dish.Country)
}

func (m *Machine) revealRandomTile() {
	var hidden []int
	for i, t := range m.state.RevealedTiles {
		if !t {
			hidden = append(hidden, i)
		}
	}
	if len(hidden) == 0 {
		return
	}
	m.state.RevealedTiles[hidden[m.intn(len(hidden))]] = true
}

func (m *Machine) revealAllTiles() {
	for i := range m.state.RevealedTiles {
		m.state.RevealedTiles[i] = true
	}
}

func (m *Machine) revealIngredients(n int) {
	limit := max(len(m.dish.Ingredients), 1)
	m.state.RevealedIngredients = min(m.state.RevealedIngredients+n, limit)
}
