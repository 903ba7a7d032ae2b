// Package dish models the day's puzzle answer and everything that loads,
// schedules and publishes it.
package dish

import (
	"strings"

	"github.com/robalobadob/foodforthought/internal/geo"
)

// Recipe is the full recipe shown on the results screen.
type Recipe struct {
	Ingredients  []string `json:"ingredients" yaml:"ingredients"`
	Instructions []string `json:"instructions" yaml:"instructions"`
}

// Dish is one day's puzzle. Exactly one dish exists per release date.
type Dish struct {
	ID                string           `json:"id" yaml:"id"`
	Name              string           `json:"name" yaml:"name"`
	Ingredients       []string         `json:"ingredients" yaml:"ingredients"`
	AcceptableGuesses []string         `json:"acceptableGuesses" yaml:"acceptableGuesses"`
	Country           string           `json:"country" yaml:"country"`
	Blurb             string           `json:"blurb" yaml:"blurb"`
	ImageURL          string           `json:"imageUrl" yaml:"imageUrl"`
	ProteinPerServing *int             `json:"proteinPerServing,omitempty" yaml:"proteinPerServing,omitempty"`
	Recipe            Recipe           `json:"recipe" yaml:"recipe"`
	Tags              []string         `json:"tags,omitempty" yaml:"tags,omitempty"`
	Region            string           `json:"region,omitempty" yaml:"region,omitempty"`
	Coordinates       *geo.Coordinates `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`
	ReleaseDate       string           `json:"releaseDate" yaml:"releaseDate"`
}

// Normalize is the comparison form of a guess: trimmed and lowercased.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Matches reports whether guess names this dish (name or any alias).
func (d *Dish) Matches(guess string) bool {
	g := Normalize(guess)
	if g == "" {
		return false
	}
	if g == Normalize(d.Name) {
		return true
	}
	for _, alias := range d.AcceptableGuesses {
		if g == Normalize(alias) {
			return true
		}
	}
	return false
}

// IsCountry reports whether guess names this dish's country.
func (d *Dish) IsCountry(guess string) bool {
	g := Normalize(guess)
	return g != "" && g == Normalize(d.Country)
}

// HasProtein reports whether the protein phase can be played.
func (d *Dish) HasProtein() bool {
	return d.ProteinPerServing != nil
}
