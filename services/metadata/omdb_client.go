package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"cinetrack/models"
)

const (
	omdbBaseURL = "https://www.omdbapi.com/"

	// PlaceholderPosterURL replaces OMDb's "N/A" poster sentinel.
	PlaceholderPosterURL = "/static/img/poster-placeholder.svg"

	// maxSearchSuggestions caps the candidate titles returned by search.
	maxSearchSuggestions = 5
)

// omdbClient is a minimal OMDb client: exact title lookup and fuzzy search.
type omdbClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
	cache   *fileCache
	limiter *rate.Limiter
}

func newOMDBClient(apiKey string, httpc *http.Client, cache *fileCache) *omdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 5 * time.Second}
	}
	return &omdbClient{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: omdbBaseURL,
		httpc:   httpc,
		cache:   cache,
		// OMDb free tier etiquette: 1 req/s with a small burst.
		limiter: rate.NewLimiter(rate.Limit(1), 3),
	}
}

func (c *omdbClient) isConfigured() bool {
	return c.apiKey != ""
}

// omdbResponse covers both lookup and search payloads.
type omdbResponse struct {
	Response   string `json:"Response"`
	Error      string `json:"Error"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Director   string `json:"Director"`
	Poster     string `json:"Poster"`
	IMDBRating string `json:"imdbRating"`
	Search     []struct {
		Title string `json:"Title"`
	} `json:"Search"`
}

func (c *omdbClient) doGET(ctx context.Context, q url.Values) (*omdbResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("omdb rate limit wait: %w", err)
	}
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create omdb request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("omdb request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("omdb returned status %d", resp.StatusCode)
	}

	var body omdbResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode omdb response: %w", err)
	}
	return &body, nil
}

// lookupExact fetches full metadata for a title. The provider fuzzily matches
// `t` queries, so the result counts only when its title equals the query
// case-insensitively; anything else is treated as not found. Year 0 omits the
// year filter. Returns (nil, nil) when not found.
func (c *omdbClient) lookupExact(ctx context.Context, title string, year int) (*models.MovieMetadata, error) {
	title = strings.TrimSpace(title)
	if title == "" || !c.isConfigured() {
		return nil, nil
	}

	key := cacheKey("omdb", "t", strings.ToLower(title), strconv.Itoa(year))
	var cached models.MovieMetadata
	if c.cache.get(key, &cached) {
		return &cached, nil
	}

	q := url.Values{}
	q.Set("t", title)
	if year > 0 {
		q.Set("y", strconv.Itoa(year))
	}

	body, err := c.doGET(ctx, q)
	if err != nil {
		return nil, err
	}
	if body.Response != "True" {
		return nil, nil
	}
	if !strings.EqualFold(strings.TrimSpace(body.Title), title) {
		// A well-formed response for a different title is still a miss.
		return nil, nil
	}

	meta := normalizeOMDBMovie(body)
	if err := c.cache.set(key, meta); err != nil {
		log.Printf("[omdb] cache write failed: %v", err)
	}
	return meta, nil
}

// lookupByID fetches full metadata for an IMDb ID via the `i` endpoint. IDs
// are exact by construction, so no title comparison is needed. Returns
// (nil, nil) when the provider does not know the ID.
func (c *omdbClient) lookupByID(ctx context.Context, imdbID string) (*models.MovieMetadata, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" || !c.isConfigured() {
		return nil, nil
	}

	key := cacheKey("omdb", "i", strings.ToLower(imdbID))
	var cached models.MovieMetadata
	if c.cache.get(key, &cached) {
		return &cached, nil
	}

	q := url.Values{}
	q.Set("i", imdbID)

	body, err := c.doGET(ctx, q)
	if err != nil {
		return nil, err
	}
	if body.Response != "True" {
		return nil, nil
	}

	meta := normalizeOMDBMovie(body)
	if err := c.cache.set(key, meta); err != nil {
		log.Printf("[omdb] cache write failed: %v", err)
	}
	return meta, nil
}

// search returns up to maxSearchSuggestions candidate titles in provider
// order. Queries shorter than 3 characters are right-padded with two spaces;
// OMDb rejects very short search strings.
func (c *omdbClient) search(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" || !c.isConfigured() {
		return nil, nil
	}
	if utf8.RuneCountInString(query) <= 2 {
		query += "  "
	}

	q := url.Values{}
	q.Set("s", query)

	body, err := c.doGET(ctx, q)
	if err != nil {
		return nil, err
	}
	if body.Response != "True" {
		return nil, nil
	}

	titles := make([]string, 0, maxSearchSuggestions)
	for _, hit := range body.Search {
		if hit.Title == "" {
			continue
		}
		titles = append(titles, hit.Title)
		if len(titles) == maxSearchSuggestions {
			break
		}
	}
	return titles, nil
}

// normalizeOMDBMovie maps the raw payload to a MovieMetadata, parsing fields
// defensively: unparseable rating or year becomes 0, the "N/A" poster
// sentinel becomes the placeholder. The "N/A" director is passed through for
// the caller to substitute.
func normalizeOMDBMovie(body *omdbResponse) *models.MovieMetadata {
	rating, err := strconv.ParseFloat(strings.TrimSpace(body.IMDBRating), 64)
	if err != nil {
		rating = 0
	}
	year, err := strconv.Atoi(strings.TrimSpace(body.Year))
	if err != nil {
		year = 0
	}
	poster := strings.TrimSpace(body.Poster)
	if poster == "" || poster == "N/A" {
		poster = PlaceholderPosterURL
	}
	return &models.MovieMetadata{
		Title:     strings.TrimSpace(body.Title),
		Director:  strings.TrimSpace(body.Director),
		Year:      year,
		PosterURL: poster,
		Rating:    rating,
	}
}
