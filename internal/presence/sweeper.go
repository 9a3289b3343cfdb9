package presence

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/pulsechat-server/internal/store"
)

// Announcer appends the departure notice for an evicted participant.
// Implemented by chat.Service.
type Announcer interface {
	AppendDeparture(ctx context.Context, name string) error
}

// Sweeper evicts participants whose activity clock is older than the
// idle threshold and announces each eviction exactly once. It holds no
// state of its own; every pass works from a fresh registry snapshot.
type Sweeper struct {
	store    store.ParticipantStore
	announce Announcer
	log      *zerolog.Logger
	interval time.Duration
	idle     time.Duration
	now      func() time.Time
}

// New creates a sweeper. interval is the pause between passes, idle is
// the threshold past which a participant is considered gone.
func New(st store.ParticipantStore, announce Announcer, logger *zerolog.Logger, interval, idle time.Duration) *Sweeper {
	return &Sweeper{
		store:    st,
		announce: announce,
		log:      logger,
		interval: interval,
		idle:     idle,
		now:      time.Now,
	}
}

// Run sweeps on a fixed ticker until ctx is cancelled. Errors never
// stop the loop; a missed eviction is corrected on the next pass.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().
		Dur("interval", s.interval).
		Dur("idle_threshold", s.idle).
		Msg("presence sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("presence sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs one pass: snapshot the registry, then for every stale
// entry attempt a conditional removal keyed on the observed clock.
// Only the caller whose delete actually lands appends the departure
// notice, so a heartbeat racing the sweep wins and no participant is
// ever announced twice.
func (s *Sweeper) sweep(ctx context.Context) int {
	participants, err := s.store.ListParticipants(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("sweep: failed to snapshot registry")
		return 0
	}

	now := s.now()
	evicted := 0
	for _, p := range participants {
		if now.Sub(p.LastActivity) <= s.idle {
			continue
		}

		removed, err := s.store.RemoveParticipantIf(ctx, p.Name, p.LastActivity)
		if err != nil {
			s.log.Error().Err(err).Str("participant", p.Name).Msg("sweep: eviction failed")
			continue
		}
		if !removed {
			// A heartbeat landed after the snapshot.
			continue
		}

		if err := s.announce.AppendDeparture(ctx, p.Name); err != nil {
			s.log.Error().Err(err).Str("participant", p.Name).Msg("sweep: failed to append departure notice")
		}
		evicted++
		s.log.Info().Str("participant", p.Name).Msg("evicted idle participant")
	}
	return evicted
}
