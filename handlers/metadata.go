package handlers

import (
	"context"
	"net/http"
	"regexp"

	"github.com/gorilla/mux"

	"cinetrack/models"
	"cinetrack/services/metadata"
)

// metadataLookup is the slice of the metadata facade the handler needs.
type metadataLookup interface {
	LookupByID(ctx context.Context, imdbID string) *models.MovieMetadata
}

var _ metadataLookup = (*metadata.Service)(nil)

var imdbIDPattern = regexp.MustCompile(`^tt\d{7,8}$`)

// MetadataHandler serves provider metadata lookups for the frontend's
// detail views.
type MetadataHandler struct {
	Metadata metadataLookup
}

func NewMetadataHandler(meta metadataLookup) *MetadataHandler {
	return &MetadataHandler{Metadata: meta}
}

func (h *MetadataHandler) LookupByID(w http.ResponseWriter, r *http.Request) {
	imdbID := mux.Vars(r)["imdbID"]
	if !imdbIDPattern.MatchString(imdbID) {
		writeError(w, http.StatusBadRequest, "invalid IMDb ID")
		return
	}

	meta := h.Metadata.LookupByID(r.Context(), imdbID)
	if meta == nil {
		writeError(w, http.StatusNotFound, "no metadata for that ID")
		return
	}
	writeJSON(w, http.StatusOK, meta)
}
