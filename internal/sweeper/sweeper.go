// Package sweeper retires teams whose age exceeds the configured TTL.
package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fivestack-gg/fivestack/internal/roster"
)

// Sweeper periodically scans the registry and force-disbands expired teams.
// It is owned by main: Start after wiring, Stop on shutdown.
type Sweeper struct {
	engine   *roster.Engine
	clock    roster.Clock
	ttl      time.Duration
	interval time.Duration
	log      *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a sweeper. interval is the scan period, ttl the maximum team age.
func New(engine *roster.Engine, clock roster.Clock, ttl, interval time.Duration, logger *slog.Logger) *Sweeper {
	if clock == nil {
		clock = roster.SystemClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		engine:   engine,
		clock:    clock,
		ttl:      ttl,
		interval: interval,
		log:      logger,
	}
}

// Start launches the periodic scan. It returns immediately.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx)
}

// Stop cancels the scan loop and waits for it to finish.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep disbands every team older than the TTL. Disbands run concurrently so
// one slow teardown cannot delay the rest; a failed disband is logged and
// skipped.
func (s *Sweeper) Sweep() int {
	now := s.clock.Now()
	expired := 0
	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, snap := range s.engine.Registry().AllActive() {
		if now.Sub(snap.CreatedAt) <= s.ttl {
			continue
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := s.engine.Disband(id, 0, true); err != nil {
				s.log.Warn("expiry disband failed", "team_id", id, "error", err)
				return
			}
			mu.Lock()
			expired++
			mu.Unlock()
		}(snap.ID)
	}
	wg.Wait()
	if expired > 0 {
		s.log.Info("expired teams disbanded", "count", expired)
	}
	return expired
}
