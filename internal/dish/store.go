package dish

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/robalobadob/foodforthought/internal/geo"
)

// ErrNotFound is returned when no dish matches the lookup.
var ErrNotFound = errors.New("dish not found")

// Store is the dish backing store.
type Store interface {
	ByReleaseDate(ctx context.Context, date string) (*Dish, error)
	ByID(ctx context.Context, id string) (*Dish, error)
	// Insert stores d unless its id or release date is taken; it reports
	// whether a row was written.
	Insert(ctx context.Context, d *Dish) (bool, error)
	List(ctx context.Context) ([]*Dish, error)
	// LatestReleaseDate returns "" for an empty store.
	LatestReleaseDate(ctx context.Context) (string, error)
}

// SQLStore implements Store on SQLite or Postgres.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open, migrated database.
func NewSQLStore(db *sqlx.DB) *SQLStore { return &SQLStore{db: db} }

// row mirrors the dishes table; list fields are JSON text.
type row struct {
	ID                string          `db:"id"`
	Name              string          `db:"name"`
	Ingredients       string          `db:"ingredients"`
	AcceptableGuesses string          `db:"acceptable_guesses"`
	Country           string          `db:"country"`
	Blurb             string          `db:"blurb"`
	ImageURL          string          `db:"image_url"`
	Protein           sql.NullInt64   `db:"protein_per_serving"`
	Recipe            string          `db:"recipe"`
	Tags              string          `db:"tags"`
	Region            string          `db:"region"`
	Lat               sql.NullFloat64 `db:"lat"`
	Lng               sql.NullFloat64 `db:"lng"`
	ReleaseDate       string          `db:"release_date"`
	CreatedAt         string          `db:"created_at"`
}

const selectDish = `SELECT id, name, ingredients, acceptable_guesses, country, blurb, image_url,
       protein_per_serving, recipe, tags, region, lat, lng, release_date, created_at
  FROM dishes`

func (s *SQLStore) ByReleaseDate(ctx context.Context, date string) (*Dish, error) {
	return s.one(ctx, selectDish+` WHERE release_date=?`, date)
}

func (s *SQLStore) ByID(ctx context.Context, id string) (*Dish, error) {
	return s.one(ctx, selectDish+` WHERE id=?`, id)
}

func (s *SQLStore) one(ctx context.Context, q string, arg any) (*Dish, error) {
	var r row
	if err := s.db.GetContext(ctx, &r, s.db.Rebind(q), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r.toDish()
}

func (s *SQLStore) List(ctx context.Context) ([]*Dish, error) {
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, selectDish+` ORDER BY release_date DESC`); err != nil {
		return nil, err
	}
	out := make([]*Dish, 0, len(rows))
	for _, r := range rows {
		d, err := r.toDish()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *SQLStore) LatestReleaseDate(ctx context.Context) (string, error) {
	var latest sql.NullString
	if err := s.db.GetContext(ctx, &latest, `SELECT MAX(release_date) FROM dishes`); err != nil {
		return "", err
	}
	return latest.String, nil
}

func (s *SQLStore) Insert(ctx context.Context, d *Dish) (bool, error) {
	r, err := fromDish(d)
	if err != nil {
		return false, err
	}
	r.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.NamedExecContext(ctx, `
        INSERT INTO dishes
            (id, name, ingredients, acceptable_guesses, country, blurb, image_url,
             protein_per_serving, recipe, tags, region, lat, lng, release_date, created_at)
        VALUES
            (:id, :name, :ingredients, :acceptable_guesses, :country, :blurb, :image_url,
             :protein_per_serving, :recipe, :tags, :region, :lat, :lng, :release_date, :created_at)
        ON CONFLICT DO NOTHING`, r)
	if err != nil {
		return false, fmt.Errorf("insert dish %s: %w", d.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r row) toDish() (*Dish, error) {
	d := &Dish{
		ID:          r.ID,
		Name:        r.Name,
		Country:     r.Country,
		Blurb:       r.Blurb,
		ImageURL:    r.ImageURL,
		Region:      r.Region,
		ReleaseDate: r.ReleaseDate,
	}
	for _, f := range []struct {
		src string
		dst any
	}{
		{r.Ingredients, &d.Ingredients},
		{r.AcceptableGuesses, &d.AcceptableGuesses},
		{r.Recipe, &d.Recipe},
		{r.Tags, &d.Tags},
	} {
		if f.src == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return nil, fmt.Errorf("dish %s: decode column: %w", r.ID, err)
		}
	}
	if r.Protein.Valid {
		p := int(r.Protein.Int64)
		d.ProteinPerServing = &p
	}
	if r.Lat.Valid && r.Lng.Valid {
		d.Coordinates = &geo.Coordinates{Lat: r.Lat.Float64, Lng: r.Lng.Float64}
	}
	return d, nil
}

func fromDish(d *Dish) (row, error) {
	r := row{
		ID:          d.ID,
		Name:        d.Name,
		Country:     d.Country,
		Blurb:       d.Blurb,
		ImageURL:    d.ImageURL,
		Region:      d.Region,
		ReleaseDate: d.ReleaseDate,
	}
	var err error
	if r.Ingredients, err = jsonText(d.Ingredients); err != nil {
		return r, err
	}
	if r.AcceptableGuesses, err = jsonText(d.AcceptableGuesses); err != nil {
		return r, err
	}
	if r.Recipe, err = jsonText(d.Recipe); err != nil {
		return r, err
	}
	if r.Tags, err = jsonText(d.Tags); err != nil {
		return r, err
	}
	if d.ProteinPerServing != nil {
		r.Protein = sql.NullInt64{Int64: int64(*d.ProteinPerServing), Valid: true}
	}
	if d.Coordinates != nil {
		r.Lat = sql.NullFloat64{Float64: d.Coordinates.Lat, Valid: true}
		r.Lng = sql.NullFloat64{Float64: d.Coordinates.Lng, Valid: true}
	}
	return r, nil
}

func jsonText(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return "[]", nil
	}
	return string(b), nil
}
