// Package client fetches the daily dish from a Food for Thought server and
// recovers the answer from its obfuscated payload.
//
// The daily fetch is not retried: a failure is terminal for the caller, and
// "nothing scheduled" (ErrNoDishToday) is kept apart from "server
// unreachable" (ErrUnavailable).
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/robalobadob/foodforthought/internal/daily"
	"github.com/robalobadob/foodforthought/internal/dish"
)

var (
	ErrNoDishToday = errors.New("no dish available for today")
	ErrUnavailable = errors.New("dish service unavailable")
	ErrUndecodable = errors.New("dish payload could not be decoded")
)

// Client talks to one server.
type Client struct {
	base *url.URL
	http *http.Client
	now  func() time.Time
}

// New parses baseURL; httpClient nil means a client with a 15s timeout.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url must be http(s), got %q", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{base: u, http: httpClient, now: time.Now}, nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = q.Encode()
	return u.String()
}

// Daily fetches today's dish and deobfuscates it. Cancelling ctx aborts the
// request.
func (c *Client) Daily(ctx context.Context) (*dish.Dish, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/dishes", nil), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, ErrNoDishToday
	case res.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, res.Status)
	}

	var payload []dish.Public
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&payload); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if len(payload) == 0 {
		return nil, ErrNoDishToday
	}

	p := payload[0]
	if p.Salt == "" {
		p.Salt = daily.Salt(c.now())
	}
	d, ok := dish.Reveal(p)
	if !ok {
		return nil, ErrUndecodable
	}
	return d, nil
}

// Tile downloads one tile image (JPEG bytes).
func (c *Client) Tile(ctx context.Context, dishID string, index int, blurred bool) ([]byte, error) {
	path := "/api/dish-tiles"
	if blurred {
		path = "/api/dish-tiles-blurred"
	}
	q := url.Values{"dishId": {dishID}, "tileIndex": {strconv.Itoa(index)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, q), nil)
	if err != nil {
		return nil, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tile %d: %s", index, res.Status)
	}
	return io.ReadAll(io.LimitReader(res.Body, 8<<20))
}

// Countries fetches the sorted country names for autocomplete.
func (c *Client) Countries(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/countries", nil), nil)
	if err != nil {
		return nil, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, res.Status)
	}
	var names []string
	if err := json.NewDecoder(res.Body).Decode(&names); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return names, nil
}
