package metadata

import (
	"context"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"cinetrack/models"
)

// Config holds provider credentials and cache settings.
type Config struct {
	OMDBAPIKey   string
	GeminiAPIKey string
	GeminiModel  string
	CacheDir     string
	CacheTTL     time.Duration
}

// Service fronts both external providers. Provider failures never escape it:
// every method degrades to a nil/empty result and logs the cause, so callers
// only ever see "found" or "not found".
type Service struct {
	omdb   *omdbClient
	gemini *geminiClient
}

// NewService builds the provider clients. The cache directory gets a
// dedicated subdirectory so unrelated data in CacheDir is left alone.
func NewService(cfg Config) *Service {
	var cache *fileCache
	if cfg.CacheDir != "" {
		ttl := cfg.CacheTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		cache = newFileCache(filepath.Join(cfg.CacheDir, "metadata"), ttl)
	}
	return &Service{
		omdb:   newOMDBClient(cfg.OMDBAPIKey, &http.Client{Timeout: 5 * time.Second}, cache),
		gemini: newGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, nil),
	}
}

// Lookup fetches exact-match metadata for a title. Year 0 means no year
// filter. Returns nil when the provider has no exact match or fails.
func (s *Service) Lookup(ctx context.Context, title string, year int) *models.MovieMetadata {
	meta, err := s.omdb.lookupExact(ctx, title, year)
	if err != nil {
		log.Printf("[omdb] lookup %q failed: %v", title, err)
		return nil
	}
	return meta
}

// LookupByID fetches metadata for an IMDb ID. Returns nil when the provider
// does not know the ID or fails.
func (s *Service) LookupByID(ctx context.Context, imdbID string) *models.MovieMetadata {
	meta, err := s.omdb.lookupByID(ctx, imdbID)
	if err != nil {
		log.Printf("[omdb] lookup id %q failed: %v", imdbID, err)
		return nil
	}
	return meta
}

// SearchTitles returns up to 5 candidate titles for a fuzzy query, in
// provider order. Empty on any failure.
func (s *Service) SearchTitles(ctx context.Context, query string) []string {
	titles, err := s.omdb.search(ctx, query)
	if err != nil {
		log.Printf("[omdb] search %q failed: %v", query, err)
		return nil
	}
	return titles
}

// Suggest returns up to count suggestions for a free-text query. Empty on any
// failure; a single request per call.
func (s *Service) Suggest(ctx context.Context, query string, count int) []models.MovieSuggestion {
	suggestions, err := s.gemini.suggest(ctx, query, count)
	if err != nil {
		log.Printf("[gemini] suggest %q failed: %v", query, err)
		return nil
	}
	return suggestions
}
