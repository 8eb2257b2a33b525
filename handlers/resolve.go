package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"cinetrack/models"
	"cinetrack/services/resolver"
)

// resolverService is the slice of the resolver the handlers need.
type resolverService interface {
	Resolve(ctx context.Context, userID int64, input resolver.AddInput) (resolver.Outcome, error)
	Discover(ctx context.Context, query string, count int) []models.MovieSuggestion
	Accept(ctx context.Context, userID int64, sug models.MovieSuggestion) (resolver.Outcome, error)
}

var _ resolverService = (*resolver.Service)(nil)

// ResolveHandler exposes the resolution pipeline: add-by-title, topic-driven
// suggestions, and accepting a reviewed suggestion.
type ResolveHandler struct {
	Resolver resolverService
	Users    userStore
}

func NewResolveHandler(res resolverService, users userStore) *ResolveHandler {
	return &ResolveHandler{Resolver: res, Users: users}
}

// AddMovie handles POST /api/users/{userID}/movies. A body with any of
// director/year/rating is a manual entry; a bare title goes through the
// metadata provider.
func (h *ResolveHandler) AddMovie(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	var body struct {
		Title     string   `json:"title"`
		Director  *string  `json:"director,omitempty"`
		Year      *int     `json:"year,omitempty"`
		Rating    *float64 `json:"rating,omitempty"`
		PosterURL *string  `json:"posterUrl,omitempty"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.Resolver.Resolve(r.Context(), userID, resolver.AddInput{
		Title:     body.Title,
		Director:  body.Director,
		Year:      body.Year,
		Rating:    body.Rating,
		PosterURL: body.PosterURL,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, resolver.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeOutcome(w, outcome)
}

// Suggest handles POST /api/users/{userID}/suggestions with a topic or genre
// query; it returns enriched candidates without persisting anything.
func (h *ResolveHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	_, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	var body struct {
		Query string `json:"query"`
		Count int    `json:"count,omitempty"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	suggestions := h.Resolver.Discover(r.Context(), body.Query, body.Count)
	if suggestions == nil {
		suggestions = []models.MovieSuggestion{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

// Accept handles POST /api/users/{userID}/suggestions/accept: persist one
// reviewed suggestion.
func (h *ResolveHandler) Accept(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	var sug models.MovieSuggestion
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sug); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.Resolver.Accept(r.Context(), userID, sug)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, resolver.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeOutcome(w, outcome)
}

// writeOutcome maps resolution statuses onto HTTP statuses: new movies are
// 201, everything else is a 200 with the typed outcome body.
func writeOutcome(w http.ResponseWriter, outcome resolver.Outcome) {
	status := http.StatusOK
	switch outcome.Status {
	case resolver.StatusAdded, resolver.StatusAddedFromMetadata:
		status = http.StatusCreated
	}
	writeJSON(w, status, outcome)
}
