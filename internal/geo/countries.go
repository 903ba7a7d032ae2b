// internal/geo/countries.go
//
// Static country → reference coordinate table.
//
// Loading behavior (Load):
//   1. If a path is given (COUNTRIES_FILE), read that JSON object
//      {"Country Name": {"lat": .., "lng": ..}, ...}.
//   2. Otherwise fall back to the embedded countries.json.
//
// Lookup keys:
//   • the lowercased display name ("côte d'ivoire")
//   • the folded key: diacritics stripped, only a–z0–9 kept ("cotedivoire")
//   • a handful of common aliases ("usa", "uk", "ivory coast", ...)
package geo

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

//go:embed countries.json
var embeddedCountries []byte

// Coordinates is a WGS84 point in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// aliases map folded alternative names to a display name in the table.
var aliases = map[string]string{
	"usa":          "United States",
	"us":           "United States",
	"america":      "United States",
	"uk":           "United Kingdom",
	"england":      "United Kingdom",
	"scotland":     "United Kingdom",
	"wales":        "United Kingdom",
	"britain":      "United Kingdom",
	"greatbritain": "United Kingdom",
	"korea":        "South Korea",
	"czechia":      "Czech Republic",
	"ivorycoast":   "Côte d'Ivoire",
	"turkiye":      "Turkey",
	"holland":      "Netherlands",
	"burma":        "Myanmar",
	"persia":       "Iran",
	"uae":          "United Arab Emirates",
}

// minSubstringLen keeps very short inputs ("a", "in") from matching
// everything during substring resolution.
const minSubstringLen = 4

// Table resolves country names to coordinates. It is read-only after Load
// and safe for concurrent use.
type Table struct {
	coords map[string]Coordinates // keyed by lowercased name and folded key
	names  []string               // display names, sorted
	folded map[string]string      // folded key → display name
}

// ErrEmptyTable is returned when a country file holds no entries.
var ErrEmptyTable = errors.New("geo: country table is empty")

// NewTable parses a JSON country object.
func NewTable(r io.Reader) (*Table, error) {
	var raw map[string]Coordinates
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("geo: decode countries: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrEmptyTable
	}
	t := &Table{
		coords: make(map[string]Coordinates, len(raw)*2),
		folded: make(map[string]string, len(raw)),
	}
	for name, c := range raw {
		t.names = append(t.names, name)
		t.coords[strings.ToLower(name)] = c
		k := Fold(name)
		t.coords[k] = c
		t.folded[k] = name
	}
	sort.Strings(t.names)
	for alias, name := range aliases {
		if c, ok := t.coords[Fold(name)]; ok {
			t.coords[alias] = c
			t.folded[alias] = name
		}
	}
	return t, nil
}

// Load reads the table from path, or the embedded default when path is "".
func Load(path string) (*Table, error) {
	if path == "" {
		return NewTable(strings.NewReader(string(embeddedCountries)))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geo: open %s: %w", path, err)
	}
	defer f.Close()
	return NewTable(f)
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the embedded table, parsed once.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Load("")
		if err != nil {
			panic(err) // embedded asset is part of the build
		}
		defaultTable = t
	})
	return defaultTable
}

// Lookup finds a country by exact (case-insensitive) name, folded name or
// alias. It never guesses.
func (t *Table) Lookup(name string) (Coordinates, bool) {
	n := strings.TrimSpace(name)
	if n == "" {
		return Coordinates{}, false
	}
	if c, ok := t.coords[strings.ToLower(n)]; ok {
		return c, true
	}
	c, ok := t.coords[Fold(n)]
	return c, ok
}

// Canonical returns the display name Lookup would resolve name to.
func (t *Table) Canonical(name string) (string, bool) {
	k := Fold(name)
	display, ok := t.folded[k]
	return display, ok
}

// Resolve is Lookup followed by a substring match in either direction on
// folded keys, scanning names in sorted order so the result is stable.
// "Southern Italy" has no entry of its own but contains "italy".
func (t *Table) Resolve(name string) (Coordinates, bool) {
	if c, ok := t.Lookup(name); ok {
		return c, true
	}
	k := Fold(name)
	if len(k) < minSubstringLen {
		return Coordinates{}, false
	}
	for _, display := range t.names {
		dk := Fold(display)
		if strings.Contains(k, dk) || strings.Contains(dk, k) {
			return t.coords[dk], true
		}
	}
	return Coordinates{}, false
}

// Names returns the sorted display names (for autocomplete).
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Fold lowercases s, strips diacritics and drops everything outside a–z0–9.
func Fold(s string) string {
	tr := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(tr, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
