// internal/game/types.go
//
// Session state for one player's day. Everything here is what gets persisted
// (the dish itself never is) and what the server returns from /play.
package game

// Rules are the per-phase attempt caps and the tile grid size.
type Rules struct {
	DishAttempts    int
	CountryAttempts int
	ProteinAttempts int
	Tiles           int
}

// DefaultRules: 6 dish guesses, 3 country guesses, 4 protein guesses, 3×2 tiles.
var DefaultRules = Rules{DishAttempts: 6, CountryAttempts: 3, ProteinAttempts: 4, Tiles: 6}

// DishGuess is one dish-phase attempt. Revealed marks the synthetic record
// appended when the answer is shown after a loss or give-up.
type DishGuess struct {
	Guess    string `json:"guess"`
	Correct  bool   `json:"isCorrect"`
	Revealed bool   `json:"revealed,omitempty"`
}

// CountryGuess is one country-phase attempt. Distance is in km from the
// guessed country to the dish; Invalid means the guess was not a country we
// know, so neither distance nor direction exist.
type CountryGuess struct {
	Country   string  `json:"country"`
	Correct   bool    `json:"isCorrect"`
	Distance  float64 `json:"distance"`
	Direction string  `json:"direction"`
	Invalid   bool    `json:"invalid,omitempty"`
	Revealed  bool    `json:"revealed,omitempty"`
}

// ProteinGuess is one protein-phase attempt in grams.
type ProteinGuess struct {
	Guess      int  `json:"guess"`
	Correct    bool `json:"isCorrect"`
	Difference int  `json:"difference"`
	Revealed   bool `json:"revealed,omitempty"`
}

// Proximity is the hot/cold hint shown for a protein guess.
func (g ProteinGuess) Proximity() Proximity { return ProteinProximity(g.Difference) }

// Proximity buckets the distance of a protein guess from the answer.
type Proximity string

const (
	ProximityHot    Proximity = "hot"
	ProximityWarm   Proximity = "warm"
	ProximityCold   Proximity = "cold"
	ProximityFrozen Proximity = "frozen"
)

// ProteinProximity maps an absolute difference in grams to a hint:
// ≤2 hot, ≤5 warm, ≤10 cold, otherwise frozen.
func ProteinProximity(diff int) Proximity {
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= 2:
		return ProximityHot
	case diff <= 5:
		return ProximityWarm
	case diff <= 10:
		return ProximityCold
	default:
		return ProximityFrozen
	}
}

// Status is the overall result of a session.
type Status string

const (
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

// State is a player's progress for one date.
type State struct {
	Phase               Phase          `json:"gamePhase"`
	ActivePhase         Phase          `json:"activePhase"`
	RevealedIngredients int            `json:"revealedIngredients"`
	RevealedTiles       []bool         `json:"revealedTiles"`
	DishGuesses         []DishGuess    `json:"dishGuesses"`
	CountryGuesses      []CountryGuess `json:"countryGuesses"`
	ProteinGuesses      []ProteinGuess `json:"proteinGuesses"`
	DishSuccess         bool           `json:"dishGuessSuccess"`
	CountrySuccess      bool           `json:"countryGuessSuccess"`
	ProteinSuccess      bool           `json:"proteinGuessSuccess"`
	Tracked             bool           `json:"tracked"`
	StreakRecorded      bool           `json:"streakRecorded"`
	SavedDate           string         `json:"savedDate"`
}

// NewState is a fresh session: dish phase, first ingredient shown, all
// tiles hidden.
func NewState(tiles int) State {
	return State{
		Phase:               PhaseDish,
		ActivePhase:         PhaseDish,
		RevealedIngredients: 1,
		RevealedTiles:       make([]bool, tiles),
		DishGuesses:         []DishGuess{},
		CountryGuesses:      []CountryGuess{},
		ProteinGuesses:      []ProteinGuess{},
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	c := s
	c.RevealedTiles = append([]bool{}, s.RevealedTiles...)
	c.DishGuesses = append([]DishGuess{}, s.DishGuesses...)
	c.CountryGuesses = append([]CountryGuess{}, s.CountryGuesses...)
	c.ProteinGuesses = append([]ProteinGuess{}, s.ProteinGuesses...)
	return c
}

// Status is won iff the game is complete and at least one phase succeeded.
func (s State) Status() Status {
	if s.Phase != PhaseComplete {
		return StatusPlaying
	}
	if s.DishSuccess || s.CountrySuccess || s.ProteinSuccess {
		return StatusWon
	}
	return StatusLost
}

// PhasesWon counts successful phases.
func (s State) PhasesWon() int {
	n := 0
	for _, ok := range []bool{s.DishSuccess, s.CountrySuccess, s.ProteinSuccess} {
		if ok {
			n++
		}
	}
	return n
}

// Attempts counts the player's own guesses in phase p, excluding reveal
// records.
func (s State) Attempts(p Phase) int {
	n := 0
	switch p {
	case PhaseDish:
		for _, g := range s.DishGuesses {
			if !g.Revealed {
				n++
			}
		}
	case PhaseCountry:
		for _, g := range s.CountryGuesses {
			if !g.Revealed {
				n++
			}
		}
	case PhaseProtein:
		for _, g := range s.ProteinGuesses {
			if !g.Revealed {
				n++
			}
		}
	}
	return n
}

func (s State) revealed(p Phase) bool {
	switch p {
	case PhaseDish:
		for _, g := range s.DishGuesses {
			if g.Revealed {
				return true
			}
		}
	case PhaseCountry:
		for _, g := range s.CountryGuesses {
			if g.Revealed {
				return true
			}
		}
	case PhaseProtein:
		for _, g := range s.ProteinGuesses {
			if g.Revealed {
				return true
			}
		}
	}
	return false
}

// TilesRevealed counts revealed tiles.
func (s State) TilesRevealed() int {
	n := 0
	for _, t := range s.RevealedTiles {
		if t {
			n++
		}
	}
	return n
}
