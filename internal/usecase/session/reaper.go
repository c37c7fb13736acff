package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reaper periodically reclaims idle scopes.
type Reaper struct {
	svc      *Service
	ttl      time.Duration
	interval time.Duration
	logger   *zap.Logger
}

// NewReaper creates a reaper. A non-positive ttl or interval disables it.
func NewReaper(svc *Service, ttl, interval time.Duration, logger *zap.Logger) *Reaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reaper{svc: svc, ttl: ttl, interval: interval, logger: logger}
}

// Run ticks until ctx is canceled.
func (r *Reaper) Run(ctx context.Context) {
	if r.ttl <= 0 || r.interval <= 0 {
		r.logger.Info("Scope reaper disabled")
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Reaper) tick(ctx context.Context) {
	reclaimed, err := r.svc.Reclaim(ctx, r.ttl)
	if err != nil && ctx.Err() == nil {
		r.logger.Error("Scope reclamation failed", zap.Error(err))
	}
	if len(reclaimed) > 0 {
		r.logger.Info("Idle scopes reclaimed",
			zap.Strings("scopes", reclaimed),
			zap.Duration("ttl", r.ttl),
		)
	}
}
