package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenlog/screenlog-be/internal/apperr"
)

func TestSearchSendsQueryAndCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/movie", r.URL.Path)
		assert.Equal(t, "matrix", r.URL.Query().Get("query"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "Bearer v4-credential", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("accept"))
		w.Write([]byte(`{"page":2,"results":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "v4-credential")
	raw, err := client.Search(context.Background(), "matrix", 2)
	require.NoError(t, err)
	assert.JSONEq(t, `{"page":2,"results":[]}`, string(raw))
}

func TestSearchDefaultsPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key")
	_, err := client.Search(context.Background(), "matrix", 0)
	require.NoError(t, err)
}

func TestGetMovieDecodesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/603", r.URL.Path)
		w.Write([]byte(`{"id":603,"title":"The Matrix","overview":"Simulated reality.","release_date":"1999-03-31","vote_average":8.7}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key")
	movie, err := client.GetMovie(context.Background(), 603)
	require.NoError(t, err)

	assert.Equal(t, int64(603), movie.ID)
	assert.Equal(t, "The Matrix", movie.Title)
	assert.Equal(t, "1999-03-31", movie.ReleaseDate)
	assert.InDelta(t, 8.7, movie.VoteAverage, 0.001)
}

func TestGetMovieNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key")
	_, err := client.GetMovie(context.Background(), 999999)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCatalogFailureIsInternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key")
	_, err := client.Search(context.Background(), "matrix", 1)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestUnreachableCatalogIsInternal(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "key")
	_, err := client.Search(context.Background(), "matrix", 1)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}
