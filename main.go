package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/screenlog/screenlog-be/internal/api"
	"github.com/screenlog/screenlog-be/internal/auth"
	"github.com/screenlog/screenlog-be/internal/catalog"
	"github.com/screenlog/screenlog-be/internal/config"
	"github.com/screenlog/screenlog-be/internal/database"
	"github.com/screenlog/screenlog-be/internal/email"
	"github.com/screenlog/screenlog-be/internal/logger"
	"github.com/screenlog/screenlog-be/internal/monitoring"
	"github.com/screenlog/screenlog-be/internal/ratelimit"
	"github.com/screenlog/screenlog-be/internal/services"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set up database
	db, err := database.New(cfg.DatabaseDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up outbound collaborators
	mailer, err := email.NewMailer(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
		BaseURL:  cfg.BaseURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize mailer")
	}
	catalogClient := catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogAPIKey)

	// Set up services
	tokens := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.AccessTokenTTL)
	userService := services.NewUserService(db, mailer, cfg.VerificationTTL, cfg.EmailFailureRollback)
	movieService := services.NewMovieService(db, catalogClient)

	// Set up and run the background verification-token sweeper
	sweeper, err := monitoring.NewSweeper(userService, cfg.SweepSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize sweeper")
	}
	go sweeper.Run()

	// Set up router
	limiter := ratelimit.New()
	router := api.NewRouter(tokens, userService, movieService, limiter)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
