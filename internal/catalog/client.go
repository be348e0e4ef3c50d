// Package catalog talks to the third-party movie metadata API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/screenlog/screenlog-be/internal/apperr"
)

// Movie is the subset of a catalog detail response needed to import a title
// into a collection.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"` // 0..10
}

// Client queries the external movie catalog. Requests carry the v4 bearer
// credential and run against a dedicated http.Client with its own timeout so
// a slow catalog cannot tie up request handling forever.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a catalog client for the given base URL and API key.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Search proxies a title search and returns the catalog's raw JSON body.
func (c *Client) Search(ctx context.Context, query string, page int) (json.RawMessage, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	return c.get(ctx, "/search/movie?"+params.Encode())
}

// GetMovieRaw returns the catalog's raw JSON detail body for a movie id.
func (c *Client) GetMovieRaw(ctx context.Context, movieID int64) (json.RawMessage, error) {
	return c.get(ctx, fmt.Sprintf("/movie/%d", movieID))
}

// GetMovie fetches and decodes the detail record for a movie id.
func (c *Client) GetMovie(ctx context.Context, movieID int64) (Movie, error) {
	raw, err := c.GetMovieRaw(ctx, movieID)
	if err != nil {
		return Movie{}, err
	}
	var movie Movie
	if err := json.Unmarshal(raw, &movie); err != nil {
		return Movie{}, apperr.Wrap(apperr.KindInternal, "failed to decode catalog response", err)
	}
	return movie, nil
}

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to build catalog request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to fetch from catalog", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperr.New(apperr.KindNotFound, "movie not found in catalog")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.KindInternal,
			fmt.Sprintf("catalog returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to read catalog response", err)
	}
	return json.RawMessage(body), nil
}
