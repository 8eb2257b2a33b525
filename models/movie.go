package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// UnknownDirector is stored when no director is known.
	UnknownDirector = "Unknown"
	// MinMovieYear is the year of the first film ever made.
	MinMovieYear = 1888
)

// Movie is a single entry in a user's list.
type Movie struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Title     string    `json:"title"`
	Director  string    `json:"director"`
	Year      int       `json:"year"` // 0 means unknown
	PosterURL string    `json:"posterUrl,omitempty"`
	Rating    *float64  `json:"rating,omitempty"` // 0-10, nil when unrated
	CreatedAt time.Time `json:"createdAt"`
}

// MoviePatch is an explicit partial update. Only non-nil fields are applied.
type MoviePatch struct {
	Title     *string  `json:"title,omitempty"`
	Director  *string  `json:"director,omitempty"`
	Year      *int     `json:"year,omitempty"`
	PosterURL *string  `json:"posterUrl,omitempty"`
	Rating    *float64 `json:"rating,omitempty"`
}

// IsEmpty reports whether the patch carries no changes.
func (p MoviePatch) IsEmpty() bool {
	return p.Title == nil && p.Director == nil && p.Year == nil && p.PosterURL == nil && p.Rating == nil
}

// MovieMetadata is a normalized record from the metadata provider.
type MovieMetadata struct {
	Title     string  `json:"title"`
	Director  string  `json:"director"`
	Year      int     `json:"year"`
	PosterURL string  `json:"posterUrl"`
	Rating    float64 `json:"rating"`
}

// MovieSuggestion is one candidate produced by the suggestion provider,
// optionally enriched with metadata-provider fields.
type MovieSuggestion struct {
	Title     string  `json:"title"`
	Year      int     `json:"year"`
	Director  string  `json:"director"`
	PosterURL string  `json:"posterUrl,omitempty"`
	Rating    float64 `json:"rating,omitempty"`
	Enriched  bool    `json:"enriched"`
}

// ValidateYear accepts 0 (unknown) or a year between MinMovieYear and next year.
func ValidateYear(year int) error {
	if year == 0 {
		return nil
	}
	maxYear := time.Now().Year() + 1
	if year < MinMovieYear || year > maxYear {
		return fmt.Errorf("year must be between %d and %d", MinMovieYear, maxYear)
	}
	return nil
}

// ValidateRating accepts ratings on the 0-10 scale.
func ValidateRating(rating float64) error {
	if rating < 0 || rating > 10 {
		return fmt.Errorf("rating must be between 0 and 10")
	}
	return nil
}

// ValidatePosterURL accepts an empty string, an app-local path (used for the
// placeholder image), or an absolute http(s) URL.
func ValidatePosterURL(raw string) error {
	if raw == "" || strings.HasPrefix(raw, "/") {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("poster url must be an absolute http(s) URL")
	}
	return nil
}
