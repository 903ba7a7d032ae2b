package dish

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	d := &Dish{Name: "Carbonara", AcceptableGuesses: []string{"spaghetti carbonara"}}

	assert.True(t, d.Matches("  Carbonara "))
	assert.True(t, d.Matches("SPAGHETTI CARBONARA"))
	assert.False(t, d.Matches("carbonar"))
	assert.False(t, d.Matches("   "))
}

func TestIsCountry(t *testing.T) {
	d := &Dish{Country: "Japan"}
	assert.True(t, d.IsCountry(" japan"))
	assert.False(t, d.IsCountry("China"))
	assert.False(t, d.IsCountry(""))
}

func TestHasProtein(t *testing.T) {
	assert.False(t, (&Dish{}).HasProtein())
	assert.True(t, (&Dish{ProteinPerServing: intPtr(0)}).HasProtein())
}
