package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/foodforthought/internal/daily"
	"github.com/robalobadob/foodforthought/internal/dish"
	"github.com/robalobadob/foodforthought/internal/obfuscate"
)

func ramen() *dish.Dish {
	protein := 14
	return &dish.Dish{
		ID:                "ramen",
		Name:              "Ramen",
		Ingredients:       []string{"Ramen Noodles", "Eggs", "Onion", "Garlic", "Pork", "Miso"},
		AcceptableGuesses: []string{"ramen"},
		Country:           "Japan",
		Blurb:             "Noodles in broth.",
		ProteinPerServing: &protein,
		Recipe:            dish.Recipe{Ingredients: []string{"200g noodles"}, Instructions: []string{"Cook.", "Serve."}},
		Tags:              []string{"noodles"},
		ReleaseDate:       daily.DateKey(time.Now()),
	}
}

// fakeServer serves d as today's dish, or 404 when d is nil.
func fakeServer(t *testing.T, d *dish.Dish) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dishes", func(w http.ResponseWriter, r *http.Request) {
		if d == nil {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"No dish available for today"}`)
			return
		}
		pub, err := dish.BuildPublic(d, time.Now())
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode([]dish.Public{pub})
	})
	mux.HandleFunc("/api/countries", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]string{"China", "Jamaica", "Japan"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPlayWholeDay(t *testing.T) {
	srv := fakeServer(t, ramen())
	state := filepath.Join(t.TempDir(), "state.json")

	input := strings.Join([]string{"", "Pizza", "Ramen", ":countries ja", "China", "Japan", "30", "14"}, "\n") + "\n"
	out, err := run(t, input, "play", "--server", srv.URL, "--state", state)
	require.NoError(t, err)

	assert.Contains(t, out, "Ingredients: Ramen Noodles\n")
	assert.Contains(t, out, "❌ Not pizza.")
	assert.Contains(t, out, "Ingredients: Ramen Noodles, Eggs\n")
	assert.Contains(t, out, "✅ Yes! It's Ramen.")
	assert.Contains(t, out, "Jamaica, Japan")
	assert.Contains(t, out, "❌ China is")
	assert.Contains(t, out, "km away, head")
	assert.Contains(t, out, "✅ Right, Japan!")
	assert.Contains(t, out, "❌ 30g is frozen.")
	assert.Contains(t, out, "✅ Exactly 14g!")
	assert.Contains(t, out, "🎉 Well played!")
	assert.Contains(t, out, "  2. Serve.")
	assert.Contains(t, out, "🔥 1-day streak")

	out, err = run(t, "", "streak", "--state", state)
	require.NoError(t, err)
	assert.Equal(t, "🔥 1 day\n", out)

	// Coming back the same day resumes the finished game for review only.
	out, err = run(t, ":back\nRamen\n:next\n", "play", "--server", srv.URL, "--state", state)
	require.NoError(t, err)
	assert.Contains(t, out, "🎉 Well played!")
	assert.Contains(t, out, "(review: the answer was 14g")
	assert.Contains(t, out, "Today's game is over.")
	assert.Equal(t, 2, strings.Count(out, "🎉 Well played!"))
}

func TestPlayGiveUpAndInputErrors(t *testing.T) {
	srv := fakeServer(t, ramen())
	state := filepath.Join(t.TempDir(), "state.json")

	input := strings.Join([]string{":give-up", "   ", ":next", ":back", ":dance", "lots", ":quit", "Japan"}, "\n") + "\n"
	out, err := run(t, input, "play", "--server", srv.URL, "--state", state)
	require.NoError(t, err)

	assert.Contains(t, out, "🏳️  The answer was Ramen.")
	assert.Contains(t, out, "Where is Ramen from?")
	assert.Contains(t, out, "You haven't reached the protein phase yet.")
	assert.Contains(t, out, "(review: the answer was Ramen")
	assert.Contains(t, out, "Unknown command :dance")
	assert.Contains(t, out, "You are reviewing the dish phase")
	assert.NotContains(t, out, "Right, Japan")
}

func TestPlayWithoutDishToday(t *testing.T) {
	srv := fakeServer(t, nil)
	out, err := run(t, "", "play", "--server", srv.URL, "--state", filepath.Join(t.TempDir(), "s.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "No dish is scheduled for today")
}

func TestPlayServerDown(t *testing.T) {
	srv := fakeServer(t, ramen())
	url := srv.URL
	srv.Close()

	_, err := run(t, "", "play", "--server", url, "--state", filepath.Join(t.TempDir(), "s.json"), "--timeout", "2s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch today's dish")
}

func TestStreakWithoutState(t *testing.T) {
	out, err := run(t, "", "streak", "--state", filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, "🔥 0 days\n", out)
}

func TestDecode(t *testing.T) {
	day, err := daily.ParseKey("2025-03-01")
	require.NoError(t, err)
	ct, err := obfuscate.Obfuscate(map[string]any{"name": "Ramen"}, daily.Salt(day))
	require.NoError(t, err)

	out, err := run(t, "", "decode", "--salt", daily.Salt(day), ct)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ramen"}`, out)

	out, err = run(t, "", "decode", "--date", "2025-03-01", ct)
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Ramen"`)

	_, err = run(t, "", "decode", "--salt", "wrong-salt", ct)
	assert.ErrorIs(t, err, errUndecodable)

	_, err = run(t, "", "decode", ct)
	assert.Error(t, err)
}
