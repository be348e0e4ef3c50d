// Package monitoring runs the service's background maintenance loops.
package monitoring

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/screenlog/screenlog-be/internal/services"
)

// Sweeper periodically clears expired email-verification tokens so stale
// tokens cannot linger in the directory.
type Sweeper struct {
	userSvc  services.UserServiceProvider
	schedule cron.Schedule
	done     chan bool
}

// NewSweeper creates a sweeper from a standard cron expression (descriptors
// like "@hourly" work too).
func NewSweeper(userSvc services.UserServiceProvider, cronExpr string) (*Sweeper, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, err
	}
	return &Sweeper{
		userSvc:  userSvc,
		schedule: schedule,
		done:     make(chan bool),
	}, nil
}

// Run executes sweeps on the configured schedule until Stop is called.
func (s *Sweeper) Run() {
	log.Info().Msg("Starting verification-token sweeper")

	// Run once immediately on start
	s.sweep()

	for {
		timer := time.NewTimer(time.Until(s.schedule.Next(time.Now())))
		select {
		case <-s.done:
			timer.Stop()
			log.Info().Msg("Stopping verification-token sweeper")
			return
		case <-timer.C:
			s.sweep()
		}
	}
}

// Stop halts the sweeper.
func (s *Sweeper) Stop() {
	s.done <- true
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cleared, err := s.userSvc.ClearExpiredVerificationTokens(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Sweeper: failed to clear expired verification tokens")
		return
	}
	if cleared > 0 {
		log.Info().Int64("cleared", cleared).Msg("Sweeper: cleared expired verification tokens")
	}
}
