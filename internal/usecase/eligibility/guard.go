package eligibility

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/entsearch/internal/domain"
	"github.com/kailas-cloud/entsearch/internal/metrics"
)

// Guard decides whether the search index may serve a call.
// Allowed never performs I/O: it reads configuration and the last flag snapshot.
type Guard struct {
	enabled bool
	defs    Definitions
	snap    atomic.Pointer[Snapshot]
}

// NewGuard creates a guard. enabled=false routes every call to the fallback.
func NewGuard(enabled bool, defs Definitions) *Guard {
	g := &Guard{enabled: enabled, defs: defs}
	g.snap.Store(&Snapshot{})
	return g
}

// Allowed reports whether entity may be searched through the index for scope.
func (g *Guard) Allowed(entity string, scope domain.Scope) bool {
	if !g.enabled || scope.BypassIndex {
		return false
	}
	def, err := g.defs.Get(entity)
	if err != nil || !def.Searchable() {
		return false
	}
	return !g.snap.Load().Disabled(entity)
}

// Swap replaces the flag snapshot.
func (g *Guard) Swap(s *Snapshot) {
	if s == nil {
		s = &Snapshot{}
	}
	g.snap.Store(s)
}


// Refresher polls a FlagSource and swaps the guard snapshot.
type Refresher struct {
	guard    *Guard
	source   FlagSource
	interval time.Duration
	logger   *zap.Logger
}

// NewRefresher creates a refresher. A nil logger disables logging.
func NewRefresher(g *Guard, src FlagSource, interval time.Duration, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{guard: g, source: src, interval: interval, logger: logger}
}

// Refresh loads the flags once. On failure the previous snapshot stays in place.
func (r *Refresher) Refresh(ctx context.Context) error {
	flags, err := r.source.Flags(ctx)
	if err != nil {
		metrics.FlagRefreshTotal.WithLabelValues("error").Inc()
		r.logger.Warn("eligibility flags refresh failed, keeping previous snapshot", zap.Error(err))
		return err
	}
	snap, skipped := NewSnapshot(flags)
	if len(skipped) > 0 {
		r.logger.Warn("ignoring unparsable eligibility flags", zap.Strings("entities", skipped))
	}
	r.guard.Swap(snap)
	metrics.FlagRefreshTotal.WithLabelValues("ok").Inc()
	return nil
}

// Run refreshes on every tick until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.Refresh(ctx)
		}
	}
}
