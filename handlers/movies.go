package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"cinetrack/internal/database"
	"cinetrack/models"
)

// movieStore is the slice of the movie repository the handlers need.
type movieStore interface {
	ListMoviesByUser(userID int64) ([]models.Movie, error)
	GetMovieByID(id int64) (*models.Movie, error)
	UpdateMovie(id int64, patch models.MoviePatch) (*models.Movie, error)
	DeleteMovie(id int64) (bool, error)
}

var _ movieStore = (*database.MovieRepository)(nil)

// MoviesHandler serves listing, partial update, and deletion of movies.
type MoviesHandler struct {
	Movies movieStore
	Users  userStore
}

func NewMoviesHandler(movies movieStore, users userStore) *MoviesHandler {
	return &MoviesHandler{Movies: movies, Users: users}
}

func (h *MoviesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	movies, err := h.Movies.ListMoviesByUser(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

func (h *MoviesHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	movieID, ok := pathID(w, r, "movieID")
	if !ok {
		return
	}

	var patch models.MoviePatch
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validatePatch(patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if ok := h.ownsMovie(w, userID, movieID); !ok {
		return
	}

	updated, err := h.Movies.UpdateMovie(movieID, patch)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateTitle) {
			writeError(w, http.StatusConflict, "a movie with that title already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "movie not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *MoviesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	movieID, ok := pathID(w, r, "movieID")
	if !ok {
		return
	}
	if ok := h.ownsMovie(w, userID, movieID); !ok {
		return
	}

	deleted, err := h.Movies.DeleteMovie(movieID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "movie not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownsMovie confirms the movie exists and belongs to the path's user.
func (h *MoviesHandler) ownsMovie(w http.ResponseWriter, userID, movieID int64) bool {
	movie, err := h.Movies.GetMovieByID(movieID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return false
	}
	if movie == nil || movie.UserID != userID {
		writeError(w, http.StatusNotFound, "movie not found")
		return false
	}
	return true
}

func validatePatch(patch models.MoviePatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return errors.New("title cannot be empty")
	}
	if patch.Year != nil {
		if err := models.ValidateYear(*patch.Year); err != nil {
			return err
		}
	}
	if patch.Rating != nil {
		if err := models.ValidateRating(*patch.Rating); err != nil {
			return err
		}
	}
	if patch.PosterURL != nil {
		if err := models.ValidatePosterURL(*patch.PosterURL); err != nil {
			return err
		}
	}
	return nil
}
