package game

// Phase is one stage of a day's game.
type Phase string

const (
	PhaseDish     Phase = "dish"     // identify the dish from tiles and ingredients
	PhaseCountry  Phase = "country"  // name its country of origin
	PhaseProtein  Phase = "protein"  // guess grams of protein per serving
	PhaseComplete Phase = "complete" // results screen
)

var phaseOrder = []Phase{PhaseDish, PhaseCountry, PhaseProtein, PhaseComplete}

func (p Phase) String() string { return string(p) }

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool { return p.index() >= 0 }

func (p Phase) index() int {
	for i, q := range phaseOrder {
		if q == p {
			return i
		}
	}
	return -1
}

// Before reports whether p comes strictly earlier than q.
func (p Phase) Before(q Phase) bool {
	return p.Valid() && q.Valid() && p.index() < q.index()
}

// CanTransitionTo checks if moving the game's phase from p to target is
// allowed. Phases only move forward; country may skip straight to complete
// for dishes without a protein value.
func (p Phase) CanTransitionTo(target Phase) bool {
	validTransitions := map[Phase][]Phase{
		PhaseDish:    {PhaseCountry},
		PhaseCountry: {PhaseProtein, PhaseComplete},
		PhaseProtein: {PhaseComplete},
	}

	for _, phase := range validTransitions[p] {
		if phase == target {
			return true
		}
	}
	return false
}
