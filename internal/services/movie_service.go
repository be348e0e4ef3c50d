package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/screenlog/screenlog-be/internal/apperr"
	"github.com/screenlog/screenlog-be/internal/catalog"
	"github.com/screenlog/screenlog-be/internal/database"
	"github.com/screenlog/screenlog-be/internal/models"
)

// Rating bounds for movies in a collection.
const (
	MinRating = 1
	MaxRating = 100
)

// CatalogProvider defines the catalog operations the movie service needs.
// Satisfied by catalog.Client.
type CatalogProvider interface {
	Search(ctx context.Context, query string, page int) (json.RawMessage, error)
	GetMovieRaw(ctx context.Context, movieID int64) (json.RawMessage, error)
	GetMovie(ctx context.Context, movieID int64) (catalog.Movie, error)
}

// MovieServiceProvider defines the interface for movie services.
type MovieServiceProvider interface {
	AddMovie(ctx context.Context, ownerID string, input models.MovieInput) (models.Movie, error)
	ListMoviesForOwner(ctx context.Context, ownerID string) ([]models.Movie, error)
	ImportFromCatalog(ctx context.Context, ownerID string, catalogID int64) (models.Movie, error)
	SearchCatalog(ctx context.Context, query string, page int) (json.RawMessage, error)
	GetCatalogMovie(ctx context.Context, movieID int64) (json.RawMessage, error)
}

// MovieService provides business logic for personal movie collections.
type MovieService struct {
	db      *sql.DB
	catalog CatalogProvider
}

// NewMovieService creates a new MovieService.
func NewMovieService(db *sql.DB, catalog CatalogProvider) *MovieService {
	return &MovieService{db: db, catalog: catalog}
}

// AddMovie validates and persists a movie owned by ownerID. The id and
// creation timestamp are assigned here, never by the client, and the owner
// is fixed at creation.
func (s *MovieService) AddMovie(ctx context.Context, ownerID string, input models.MovieInput) (models.Movie, error) {
	if input.Title == "" {
		return models.Movie{}, apperr.New(apperr.KindBadRequest, "title must not be empty")
	}
	if input.Rating < MinRating || input.Rating > MaxRating {
		return models.Movie{}, apperr.New(apperr.KindBadRequest, "rating must be between 1 and 100")
	}
	if input.ReleaseDate.IsZero() {
		return models.Movie{}, apperr.New(apperr.KindBadRequest, "releaseDate must not be empty")
	}

	movie := models.Movie{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Description: input.Description,
		Rating:      input.Rating,
		ReleaseDate: input.ReleaseDate,
		CatalogID:   input.CatalogID,
		UserID:      ownerID,
		CreatedAt:   time.Now().UTC(),
	}

	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx database.DBTX) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO movies (id, title, description, rating, release_date, catalog_id, user_id, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			movie.ID, movie.Title, movie.Description, movie.Rating,
			movie.ReleaseDate, movie.CatalogID, movie.UserID, movie.CreatedAt)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to add movie", err)
		}
		return nil
	})
	if err != nil {
		return models.Movie{}, err
	}
	return movie, nil
}

// ListMoviesForOwner returns every movie owned by ownerID, or an empty slice
// if there are none.
func (s *MovieService) ListMoviesForOwner(ctx context.Context, ownerID string) ([]models.Movie, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, rating, release_date, catalog_id, user_id, created_at
		 FROM movies WHERE user_id = $1`, ownerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list movies", err)
	}
	defer rows.Close()

	movies := []models.Movie{}
	for rows.Next() {
		var movie models.Movie
		if err := rows.Scan(&movie.ID, &movie.Title, &movie.Description, &movie.Rating,
			&movie.ReleaseDate, &movie.CatalogID, &movie.UserID, &movie.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to scan movie", err)
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list movies", err)
	}
	return movies, nil
}

// ImportFromCatalog looks a movie up in the external catalog and adds it to
// the owner's collection. A catalog failure here cannot corrupt the store:
// nothing is written until the lookup has succeeded.
func (s *MovieService) ImportFromCatalog(ctx context.Context, ownerID string, catalogID int64) (models.Movie, error) {
	entry, err := s.catalog.GetMovie(ctx, catalogID)
	if err != nil {
		return models.Movie{}, err
	}
	if entry.ReleaseDate == "" {
		return models.Movie{}, apperr.New(apperr.KindInternal, "catalog movie has no release date")
	}
	releaseDate, err := models.ParseDate(entry.ReleaseDate)
	if err != nil {
		return models.Movie{}, apperr.Wrap(apperr.KindInternal, "catalog movie has a malformed release date", err)
	}

	input := models.MovieInput{
		Title:       entry.Title,
		Rating:      catalogRating(entry.VoteAverage),
		ReleaseDate: releaseDate,
		CatalogID:   &entry.ID,
	}
	if entry.Overview != "" {
		input.Description = &entry.Overview
	}
	return s.AddMovie(ctx, ownerID, input)
}

// SearchCatalog proxies a catalog title search.
func (s *MovieService) SearchCatalog(ctx context.Context, query string, page int) (json.RawMessage, error) {
	if query == "" {
		return nil, apperr.New(apperr.KindBadRequest, "query must not be empty")
	}
	return s.catalog.Search(ctx, query, page)
}

// GetCatalogMovie proxies a catalog detail lookup.
func (s *MovieService) GetCatalogMovie(ctx context.Context, movieID int64) (json.RawMessage, error) {
	return s.catalog.GetMovieRaw(ctx, movieID)
}

// catalogRating scales a catalog 0..10 vote average onto the 1..100 rating
// range.
func catalogRating(voteAverage float64) int {
	rating := int(math.Round(voteAverage * 10))
	if rating < MinRating {
		return MinRating
	}
	if rating > MaxRating {
		return MaxRating
	}
	return rating
}
