package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/screenlog/screenlog-be/internal/api/handlers"
	"github.com/screenlog/screenlog-be/internal/auth"
	"github.com/screenlog/screenlog-be/internal/ratelimit"
	"github.com/screenlog/screenlog-be/internal/services"
)

// route declares one endpoint: its per-minute limit and whether it requires
// authentication and resource ownership. The table below is the single place
// where throttling and access rules live.
type route struct {
	method  string
	pattern string
	limit   int // requests per minute per client, 0 = unthrottled
	auth    bool
	owner   bool
	handler http.HandlerFunc
}

// NewRouter creates and configures a new Chi router.
func NewRouter(tokens *auth.TokenService, userService services.UserServiceProvider, movieService services.MovieServiceProvider, limiter *ratelimit.Limiter) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // Adjust for your frontend URL
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, tokens)
	userHandler := handlers.NewUserHandler(userService)
	movieHandler := handlers.NewMovieHandler(movieService)

	mw := NewMiddleware(tokens, userService, limiter)

	routes := []route{
		{http.MethodPost, "/token", 0, false, false, authHandler.Token},
		{http.MethodGet, "/verify-email", 0, false, false, authHandler.VerifyEmail},

		{http.MethodPost, "/users/", 3, false, false, userHandler.Create},
		{http.MethodGet, "/users/", 10, true, false, userHandler.List},
		{http.MethodGet, "/users/{userID}", 2, true, true, userHandler.Get},
		{http.MethodDelete, "/users/{userID}", 2, true, true, userHandler.Delete},

		{http.MethodPost, "/users/{userID}/movies/", 3, true, true, movieHandler.Create},
		{http.MethodGet, "/users/{userID}/movies/", 5, true, true, movieHandler.List},
		{http.MethodPost, "/users/{userID}/movies/{catalogMovieID}", 5, true, true, movieHandler.Import},

		{http.MethodGet, "/movies/search", 10, true, false, movieHandler.SearchCatalog},
		{http.MethodGet, "/movies/{catalogMovieID}", 10, true, false, movieHandler.CatalogDetail},
	}

	for _, rt := range routes {
		var h http.Handler = rt.handler
		// Innermost first: the request passes rate-limit, then auth, then
		// the ownership check, then the handler.
		if rt.owner {
			h = mw.RequireOwner(h)
		}
		if rt.auth {
			h = mw.Authenticate(h)
		}
		if rt.limit > 0 {
			// Method + pattern so GET and POST on the same path count
			// against separate windows.
			h = mw.RateLimit(rt.method+" "+rt.pattern, rt.limit)(h)
		}
		r.Method(rt.method, rt.pattern, h)
	}

	return r
}
