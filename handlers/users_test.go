package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"cinetrack/internal/database"
	"cinetrack/models"
)

// fakeUserStore is an in-memory userStore.
type fakeUserStore struct {
	users  map[int64]*models.User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[int64]*models.User{}}
}

func (f *fakeUserStore) CreateUser(u *models.User) error {
	for _, existing := range f.users {
		if strings.EqualFold(existing.Name, u.Name) {
			return database.ErrDuplicateName
		}
	}
	f.nextID++
	u.ID = f.nextID
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserStore) GetUserByID(id int64) (*models.User, error) {
	return f.users[id], nil
}

func (f *fakeUserStore) ListUsers() ([]models.User, error) {
	out := []models.User{}
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserStore) DeleteUser(id int64) (bool, error) {
	if _, ok := f.users[id]; !ok {
		return false, nil
	}
	delete(f.users, id)
	return true, nil
}

func newUsersRouter(store userStore) *mux.Router {
	h := NewUsersHandler(store)
	r := mux.NewRouter()
	r.HandleFunc("/api/users", h.List).Methods(http.MethodGet)
	r.HandleFunc("/api/users", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/api/users/{userID}", h.Delete).Methods(http.MethodDelete)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUsersCreate(t *testing.T) {
	router := newUsersRouter(newFakeUserStore())

	rec := doJSON(t, router, http.MethodPost, "/api/users", map[string]string{"name": "Ada Lovelace"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}

	var user models.User
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if user.ID == 0 || user.Name != "Ada Lovelace" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestUsersCreate_InvalidName(t *testing.T) {
	router := newUsersRouter(newFakeUserStore())

	for _, name := range []string{"", "user42", "a;b"} {
		rec := doJSON(t, router, http.MethodPost, "/api/users", map[string]string{"name": name})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("name %q: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestUsersCreate_Duplicate(t *testing.T) {
	router := newUsersRouter(newFakeUserStore())

	if rec := doJSON(t, router, http.MethodPost, "/api/users", map[string]string{"name": "Ada"}); rec.Code != http.StatusCreated {
		t.Fatalf("seed create failed: %d", rec.Code)
	}
	rec := doJSON(t, router, http.MethodPost, "/api/users", map[string]string{"name": "ada"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestUsersDelete(t *testing.T) {
	store := newFakeUserStore()
	store.CreateUser(&models.User{Name: "Ada"})
	router := newUsersRouter(store)

	rec := doJSON(t, router, http.MethodDelete, "/api/users/1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, "/api/users/1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/users/%s", "abc"), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", rec.Code)
	}
}
