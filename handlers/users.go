package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"cinetrack/internal/database"
	"cinetrack/models"
)

// userStore is the slice of the user repository the handlers need.
type userStore interface {
	CreateUser(*models.User) error
	GetUserByID(id int64) (*models.User, error)
	ListUsers() ([]models.User, error)
	DeleteUser(id int64) (bool, error)
}

var _ userStore = (*database.UserRepository)(nil)

// UsersHandler serves the user CRUD endpoints.
type UsersHandler struct {
	Store userStore
}

func NewUsersHandler(store userStore) *UsersHandler {
	return &UsersHandler{Store: store}
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	body.Name = strings.TrimSpace(body.Name)
	if err := models.ValidateUserName(body.Name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := &models.User{Name: body.Name}
	if err := h.Store.CreateUser(user); err != nil {
		if errors.Is(err, database.ErrDuplicateName) {
			writeError(w, http.StatusConflict, "a user with that name already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	deleted, err := h.Store.DeleteUser(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireUser parses the userID path variable and verifies the user exists.
func requireUser(w http.ResponseWriter, r *http.Request, store userStore) (int64, bool) {
	id, ok := pathID(w, r, "userID")
	if !ok {
		return 0, false
	}
	user, err := store.GetUserByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return 0, false
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return 0, false
	}
	return id, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
