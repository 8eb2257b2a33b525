package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"cinetrack/models"
)

// ErrDuplicateName is returned when a user with the same name (case-insensitive)
// already exists.
var ErrDuplicateName = errors.New("user name already exists")

// UserRepository provides CRUD operations for users.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a user repository backed by the given connection.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a user and fills in its ID and CreatedAt.
func (r *UserRepository) CreateUser(user *models.User) error {
	user.Name = strings.TrimSpace(user.Name)
	now := time.Now().UTC()
	res, err := r.db.Exec(
		`INSERT INTO users (name, created_at) VALUES (?, ?)`,
		user.Name, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user insert id: %w", err)
	}
	user.ID = id
	user.CreatedAt = now
	return nil
}

// GetUserByID returns the user, or nil when not found.
func (r *UserRepository) GetUserByID(id int64) (*models.User, error) {
	row := r.db.QueryRow(`SELECT id, name, created_at FROM users WHERE id = ?`, id)
	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// ListUsers returns all users ordered by name.
func (r *UserRepository) ListUsers() ([]models.User, error) {
	rows, err := r.db.Query(`SELECT id, name, created_at FROM users ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUser removes a user; owned movies go with it via the cascade.
// Returns false when no user with that ID existed.
func (r *UserRepository) DeleteUser(id int64) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete user rows: %w", err)
	}
	return n > 0, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
