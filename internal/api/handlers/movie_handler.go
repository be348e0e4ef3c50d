package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/screenlog/screenlog-be/internal/apperr"
	"github.com/screenlog/screenlog-be/internal/auth"
	"github.com/screenlog/screenlog-be/internal/models"
	"github.com/screenlog/screenlog-be/internal/services"
)

// MovieHandler handles HTTP requests for movie collections and the external
// catalog.
type MovieHandler struct {
	service services.MovieServiceProvider
}

// NewMovieHandler creates a new MovieHandler.
func NewMovieHandler(service services.MovieServiceProvider) *MovieHandler {
	return &MovieHandler{service: service}
}

// Create adds a movie to the authenticated user's collection. The owner is
// always the authenticated caller, never the raw path parameter, so a
// routing slip can never attach a movie to someone else.
func (h *MovieHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFrom(r.Context())
	if !ok {
		RespondError(w, r, apperr.New(apperr.KindUnauthorized, "authentication required"))
		return
	}

	var input models.MovieInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		RespondError(w, r, apperr.Wrap(apperr.KindBadRequest, "invalid request body: "+err.Error(), err))
		return
	}

	movie, err := h.service.AddMovie(r.Context(), caller.ID, input)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, movie)
}

// List returns the authenticated user's movie collection.
func (h *MovieHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFrom(r.Context())
	if !ok {
		RespondError(w, r, apperr.New(apperr.KindUnauthorized, "authentication required"))
		return
	}

	movies, err := h.service.ListMoviesForOwner(r.Context(), caller.ID)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, movies)
}

// SearchCatalog proxies a title search against the external catalog.
func (h *MovieHandler) SearchCatalog(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	page := 1
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil || parsed < 1 {
			RespondError(w, r, apperr.New(apperr.KindBadRequest, "page must be a positive integer"))
			return
		}
		page = parsed
	}

	result, err := h.service.SearchCatalog(r.Context(), query, page)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondRawJSON(w, http.StatusOK, result)
}

// CatalogDetail proxies a catalog detail lookup.
func (h *MovieHandler) CatalogDetail(w http.ResponseWriter, r *http.Request) {
	movieID, err := catalogMovieID(r)
	if err != nil {
		RespondError(w, r, err)
		return
	}

	result, err := h.service.GetCatalogMovie(r.Context(), movieID)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondRawJSON(w, http.StatusOK, result)
}

// Import copies a catalog movie into the authenticated user's collection.
func (h *MovieHandler) Import(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFrom(r.Context())
	if !ok {
		RespondError(w, r, apperr.New(apperr.KindUnauthorized, "authentication required"))
		return
	}

	movieID, err := catalogMovieID(r)
	if err != nil {
		RespondError(w, r, err)
		return
	}

	movie, err := h.service.ImportFromCatalog(r.Context(), caller.ID, movieID)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, movie)
}

func catalogMovieID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "catalogMovieID"), 10, 64)
	if err != nil {
		return 0, apperr.New(apperr.KindBadRequest, "catalog movie id must be an integer")
	}
	return id, nil
}
