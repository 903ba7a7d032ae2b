package dish

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robalobadob/foodforthought/internal/db"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	conn, err := db.OpenTest(context.Background(), t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewSQLStore(conn)
}

func intPtr(v int) *int { return &v }

func ramen(date string) *Dish {
	return &Dish{
		ID:                "ramen",
		Name:              "Ramen",
		Ingredients:       []string{"Ramen Noodles", "Eggs", "Onion", "Garlic", "Pork", "Miso"},
		AcceptableGuesses: []string{"ramen", "ramen noodles", "ramen soup"},
		Country:           "Japan",
		Blurb:             "Noodles in broth.",
		ImageURL:          "/images/dishes/ramen.jpg",
		ProteinPerServing: intPtr(14),
		Recipe: Recipe{
			Ingredients:  []string{"200g ramen noodles"},
			Instructions: []string{"Cook."},
		},
		Tags:        []string{"noodles", "soup"},
		Region:      "Eastern Asia",
		ReleaseDate: date,
	}
}
