// Package resolver reconciles free-text movie requests against the metadata
// provider, the suggestion provider, and the local store, deciding per
// request whether to persist a movie or hand back alternatives.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"cinetrack/internal/database"
	"cinetrack/models"
)

// ErrInvalidInput wraps validation failures so handlers can map them to 400s.
var ErrInvalidInput = errors.New("invalid input")

// Status describes how a resolution attempt concluded.
type Status string

const (
	// StatusAdded: the movie was persisted from caller-supplied fields.
	StatusAdded Status = "added"
	// StatusAddedFromMetadata: the movie was persisted from an exact
	// metadata-provider match.
	StatusAddedFromMetadata Status = "added-from-metadata"
	// StatusExists: the user already has a movie with this title.
	StatusExists Status = "already-exists"
	// StatusNotFound: no exact match; Suggestions may hold alternatives.
	StatusNotFound Status = "not-found"
)

// Outcome is the typed result of a resolution. Business conditions like
// duplicates and misses are statuses, not errors.
type Outcome struct {
	Status      Status        `json:"status"`
	Movie       *models.Movie `json:"movie,omitempty"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// AddInput is a movie-add request. A non-nil Director, Year, or Rating marks
// the request as manual entry and skips the external providers entirely.
type AddInput struct {
	Title     string
	Director  *string
	Year      *int
	Rating    *float64
	PosterURL *string
}

func (in AddInput) isManual() bool {
	return in.Director != nil || in.Year != nil || in.Rating != nil
}

// metadataService is the slice of the metadata facade the resolver needs.
type metadataService interface {
	Lookup(ctx context.Context, title string, year int) *models.MovieMetadata
	SearchTitles(ctx context.Context, query string) []string
	Suggest(ctx context.Context, query string, count int) []models.MovieSuggestion
}

// movieStore is the slice of the movie repository the resolver needs.
type movieStore interface {
	CreateMovie(*models.Movie) error
	FindByUserAndTitle(userID int64, title string) (*models.Movie, error)
}

var _ movieStore = (*database.MovieRepository)(nil)

// Service orchestrates the resolution pipeline. The provider facade is an
// injected capability constructed once at startup, not a package singleton.
type Service struct {
	metadata metadataService
	movies   movieStore
}

// NewService wires the resolver to its collaborators.
func NewService(metadata metadataService, movies movieStore) *Service {
	return &Service{metadata: metadata, movies: movies}
}

// Resolve decides how to handle an add request:
//
//  1. Manual entry (explicit director, year, or rating): validate and persist
//     without touching the providers.
//  2. Duplicate title for this user: report the existing movie.
//  3. Exact metadata match: persist the enriched record.
//  4. Otherwise: return provider search results as "did you mean".
//
// Provider failures degrade to step 4 with whatever the search yields; each
// external call runs exactly once.
func (s *Service) Resolve(ctx context.Context, userID int64, input AddInput) (Outcome, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Outcome{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	if input.isManual() {
		return s.addManual(userID, title, input)
	}

	existing, err := s.movies.FindByUserAndTitle(userID, title)
	if err != nil {
		return Outcome{}, err
	}
	if existing != nil {
		return Outcome{Status: StatusExists, Movie: existing}, nil
	}

	if meta := s.metadata.Lookup(ctx, title, 0); meta != nil {
		movie := movieFromMetadata(userID, meta)
		outcome, err := s.insertMovie(movie, StatusAddedFromMetadata)
		if err == nil && outcome.Status == StatusAddedFromMetadata {
			log.Printf("[resolver] added %q for user %d from metadata", movie.Title, userID)
		}
		return outcome, err
	}

	suggestions := s.metadata.SearchTitles(ctx, title)
	return Outcome{Status: StatusNotFound, Suggestions: suggestions}, nil
}

func (s *Service) addManual(userID int64, title string, input AddInput) (Outcome, error) {
	movie := &models.Movie{UserID: userID, Title: title, Director: models.UnknownDirector}
	if input.Director != nil && strings.TrimSpace(*input.Director) != "" {
		movie.Director = strings.TrimSpace(*input.Director)
	}
	if input.Year != nil {
		if err := models.ValidateYear(*input.Year); err != nil {
			return Outcome{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		movie.Year = *input.Year
	}
	if input.Rating != nil {
		if err := models.ValidateRating(*input.Rating); err != nil {
			return Outcome{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		rating := *input.Rating
		movie.Rating = &rating
	}
	if input.PosterURL != nil {
		if err := models.ValidatePosterURL(*input.PosterURL); err != nil {
			return Outcome{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		movie.PosterURL = *input.PosterURL
	}

	return s.insertMovie(movie, StatusAdded)
}

// Discover asks the suggestion provider for count candidates matching a
// topic or genre query, then enriches each with an exact metadata lookup on
// (title, year). Nothing is persisted; the caller reviews the list and
// accepts entries individually.
func (s *Service) Discover(ctx context.Context, query string, count int) []models.MovieSuggestion {
	suggestions := s.metadata.Suggest(ctx, query, count)

	enriched := make([]models.MovieSuggestion, 0, len(suggestions))
	for _, sug := range suggestions {
		enriched = append(enriched, s.enrich(ctx, sug))
	}
	return enriched
}

// enrich merges metadata-provider fields over a suggestion. Provider fields
// win except the director: a provider "N/A"/"Unknown" keeps the suggestion's
// director. Lookup failure passes the suggestion through untouched.
func (s *Service) enrich(ctx context.Context, sug models.MovieSuggestion) models.MovieSuggestion {
	meta := s.metadata.Lookup(ctx, sug.Title, sug.Year)
	if meta == nil {
		return sug
	}

	merged := models.MovieSuggestion{
		Title:     meta.Title,
		Year:      meta.Year,
		Director:  meta.Director,
		PosterURL: meta.PosterURL,
		Rating:    meta.Rating,
		Enriched:  true,
	}
	if isUnknownDirector(meta.Director) && !isUnknownDirector(sug.Director) {
		merged.Director = sug.Director
	} else if isUnknownDirector(merged.Director) {
		merged.Director = models.UnknownDirector
	}
	return merged
}

// Accept persists a single reviewed suggestion, re-checking the per-user
// duplicate-title invariant first.
func (s *Service) Accept(ctx context.Context, userID int64, sug models.MovieSuggestion) (Outcome, error) {
	title := strings.TrimSpace(sug.Title)
	if title == "" {
		return Outcome{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	existing, err := s.movies.FindByUserAndTitle(userID, title)
	if err != nil {
		return Outcome{}, err
	}
	if existing != nil {
		return Outcome{Status: StatusExists, Movie: existing}, nil
	}

	movie := &models.Movie{
		UserID:    userID,
		Title:     title,
		Director:  strings.TrimSpace(sug.Director),
		Year:      sug.Year,
		PosterURL: sug.PosterURL,
	}
	if isUnknownDirector(movie.Director) {
		movie.Director = models.UnknownDirector
	}
	// Suggestion fields come from external services; sanitize rather than
	// reject.
	if models.ValidateYear(movie.Year) != nil {
		movie.Year = 0
	}
	if models.ValidatePosterURL(movie.PosterURL) != nil {
		movie.PosterURL = ""
	}
	if sug.Rating > 0 && models.ValidateRating(sug.Rating) == nil {
		rating := sug.Rating
		movie.Rating = &rating
	}

	outcome, err := s.insertMovie(movie, StatusAdded)
	if err == nil && outcome.Status == StatusAdded {
		log.Printf("[resolver] accepted suggestion %q for user %d", movie.Title, userID)
	}
	return outcome, err
}

// insertMovie persists the movie, returning success when the insert wins and
// StatusExists with the conflicting row when another writer holds the title.
// The unique index catches races the pre-check cannot; when the conflicting
// row is gone again by the time it is re-read, the insert is tried once more
// rather than reporting a duplicate that no longer exists.
func (s *Service) insertMovie(movie *models.Movie, success Status) (Outcome, error) {
	for attempt := 0; attempt < 2; attempt++ {
		err := s.movies.CreateMovie(movie)
		if err == nil {
			return Outcome{Status: success, Movie: movie}, nil
		}
		if !errors.Is(err, database.ErrDuplicateTitle) {
			return Outcome{}, err
		}
		existing, findErr := s.movies.FindByUserAndTitle(movie.UserID, movie.Title)
		if findErr != nil {
			return Outcome{}, findErr
		}
		if existing != nil {
			return Outcome{Status: StatusExists, Movie: existing}, nil
		}
	}
	return Outcome{}, fmt.Errorf("persisting %q: conflicting title kept vanishing", movie.Title)
}

func movieFromMetadata(userID int64, meta *models.MovieMetadata) *models.Movie {
	director := meta.Director
	if isUnknownDirector(director) {
		director = models.UnknownDirector
	}
	movie := &models.Movie{
		UserID:    userID,
		Title:     meta.Title,
		Director:  director,
		Year:      meta.Year,
		PosterURL: meta.PosterURL,
	}
	if models.ValidateYear(movie.Year) != nil {
		movie.Year = 0
	}
	if meta.Rating > 0 && models.ValidateRating(meta.Rating) == nil {
		rating := meta.Rating
		movie.Rating = &rating
	}
	return movie
}

// isUnknownDirector recognizes the provider sentinels for a missing director.
func isUnknownDirector(director string) bool {
	switch strings.TrimSpace(director) {
	case "", "N/A", models.UnknownDirector:
		return true
	}
	return false
}
