package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cinetrack/models"
)

// ErrDuplicateTitle is returned when the (user, lower(title)) pair already exists.
var ErrDuplicateTitle = errors.New("movie title already exists for user")

// MovieRepository provides CRUD operations for movies.
type MovieRepository struct {
	db *sql.DB
}

// NewMovieRepository creates a movie repository backed by the given connection.
func NewMovieRepository(db *sql.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

const movieColumns = `id, user_id, title, director, year, poster_url, rating, created_at`

func scanMovie(scan func(...any) error) (*models.Movie, error) {
	var m models.Movie
	var rating sql.NullFloat64
	if err := scan(&m.ID, &m.UserID, &m.Title, &m.Director, &m.Year, &m.PosterURL, &rating, &m.CreatedAt); err != nil {
		return nil, err
	}
	if rating.Valid {
		m.Rating = &rating.Float64
	}
	return &m, nil
}

// CreateMovie inserts a movie and fills in its ID and CreatedAt.
// The per-user case-insensitive title constraint is enforced by the schema;
// violations surface as ErrDuplicateTitle.
func (r *MovieRepository) CreateMovie(movie *models.Movie) error {
	movie.Title = strings.TrimSpace(movie.Title)
	if movie.Title == "" {
		return fmt.Errorf("movie title is required")
	}
	if movie.Director == "" {
		movie.Director = models.UnknownDirector
	}
	now := time.Now().UTC()

	var rating sql.NullFloat64
	if movie.Rating != nil {
		rating = sql.NullFloat64{Float64: *movie.Rating, Valid: true}
	}

	res, err := r.db.Exec(
		`INSERT INTO movies (user_id, title, director, year, poster_url, rating, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		movie.UserID, movie.Title, movie.Director, movie.Year, movie.PosterURL, rating, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTitle
		}
		return fmt.Errorf("insert movie: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("movie insert id: %w", err)
	}
	movie.ID = id
	movie.CreatedAt = now
	return nil
}

// GetMovieByID returns the movie, or nil when not found.
func (r *MovieRepository) GetMovieByID(id int64) (*models.Movie, error) {
	row := r.db.QueryRow(`SELECT `+movieColumns+` FROM movies WHERE id = ?`, id)
	m, err := scanMovie(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movie: %w", err)
	}
	return m, nil
}

// ListMoviesByUser returns the user's movies, newest first.
func (r *MovieRepository) ListMoviesByUser(userID int64) ([]models.Movie, error) {
	rows, err := r.db.Query(
		`SELECT `+movieColumns+` FROM movies WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	movies := []models.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, *m)
	}
	return movies, rows.Err()
}

// FindByUserAndTitle returns the user's movie with the given title,
// compared case-insensitively, or nil when absent.
func (r *MovieRepository) FindByUserAndTitle(userID int64, title string) (*models.Movie, error) {
	row := r.db.QueryRow(
		`SELECT `+movieColumns+` FROM movies WHERE user_id = ? AND lower(title) = lower(?)`,
		userID, strings.TrimSpace(title),
	)
	m, err := scanMovie(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find movie by title: %w", err)
	}
	return m, nil
}

// UpdateMovie applies the non-nil patch fields to the movie and returns the
// updated row, or nil when the movie does not exist.
func (r *MovieRepository) UpdateMovie(id int64, patch models.MoviePatch) (*models.Movie, error) {
	existing, err := r.GetMovieByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	sets := []string{}
	args := []any{}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, fmt.Errorf("movie title is required")
		}
		sets = append(sets, "title = ?")
		args = append(args, title)
	}
	if patch.Director != nil {
		director := strings.TrimSpace(*patch.Director)
		if director == "" {
			director = models.UnknownDirector
		}
		sets = append(sets, "director = ?")
		args = append(args, director)
	}
	if patch.Year != nil {
		sets = append(sets, "year = ?")
		args = append(args, *patch.Year)
	}
	if patch.PosterURL != nil {
		sets = append(sets, "poster_url = ?")
		args = append(args, *patch.PosterURL)
	}
	if patch.Rating != nil {
		sets = append(sets, "rating = ?")
		args = append(args, *patch.Rating)
	}
	if len(sets) == 0 {
		return existing, nil
	}

	args = append(args, id)
	_, err = r.db.Exec(`UPDATE movies SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateTitle
		}
		return nil, fmt.Errorf("update movie: %w", err)
	}
	return r.GetMovieByID(id)
}

// DeleteMovie removes a movie. Returns false when it did not exist.
func (r *MovieRepository) DeleteMovie(id int64) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete movie: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete movie rows: %w", err)
	}
	return n > 0, nil
}
