package game

import (
	"fmt"
	"strings"
)

// ShareText is the spoiler-free summary players paste elsewhere. Revealed
// answers are left out; only the player's own attempts show.
func ShareText(s State, streak int) string {
	var dishMarks, countryMarks, proteinMarks []string
	for _, g := range s.DishGuesses {
		if !g.Revealed {
			dishMarks = append(dishMarks, mark(g.Correct, "✅"))
		}
	}
	for _, g := range s.CountryGuesses {
		if !g.Revealed {
			countryMarks = append(countryMarks, mark(g.Correct, "🌍"))
		}
	}
	for _, g := range s.ProteinGuesses {
		if !g.Revealed {
			proteinMarks = append(proteinMarks, mark(g.Correct, "🎯"))
		}
	}

	var b strings.Builder
	b.WriteString("Food for Thought 🧠🍽️\n")
	fmt.Fprintf(&b, "Dish: %s\n", strings.Join(dishMarks, " "))
	fmt.Fprintf(&b, "Country: %s\n", strings.Join(countryMarks, " "))
	if len(proteinMarks) > 0 {
		fmt.Fprintf(&b, "Protein: %s\n", strings.Join(proteinMarks, " "))
	}
	fmt.Fprintf(&b, "🔥 %d-day streak\n", streak)
	b.WriteString("Play: foodforthought.game")
	return b.String()
}

func mark(ok bool, hit string) string {
	if ok {
		return hit
	}
	return "❌"
}
