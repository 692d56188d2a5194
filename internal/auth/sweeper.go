// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NativeTranslate Contributors

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// DefaultSweepInterval is how often expired reset tokens are purged.
const DefaultSweepInterval = time.Hour

// ExpiredSweeper deletes expired reset tokens.
type ExpiredSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Sweeper periodically purges expired reset tokens. It runs independently
// of request handling; a sweep racing a concurrent reset request is
// harmless since both converge on no stale token surviving.
type Sweeper struct {
	sweeper  ExpiredSweeper
	interval time.Duration
	logger   *slog.Logger
	onSweep  func(deleted int64)
}

// NewSweeper creates a Sweeper. onSweep, if non-nil, is invoked after each
// successful pass with the number of deleted rows (used for metrics).
func NewSweeper(sweeper ExpiredSweeper, interval time.Duration, logger *slog.Logger, onSweep func(int64)) (*Sweeper, error) {
	if sweeper == nil {
		return nil, oops.Code("SWEEPER_INVALID").Errorf("sweeper is required")
	}
	if logger == nil {
		return nil, oops.Code("SWEEPER_INVALID").Errorf("logger is required")
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
		onSweep:  onSweep,
	}, nil
}

// Run sweeps once immediately and then on every tick until the context is
// cancelled. Sweep failures are logged and the loop keeps going.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reset token sweeper stopping")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	deleted, err := s.sweeper.SweepExpired(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("expired reset token sweep failed", "error", err.Error())
		return
	}
	if deleted > 0 {
		s.logger.Info("swept expired reset tokens", "deleted", deleted)
	}
	if s.onSweep != nil {
		s.onSweep(deleted)
	}
}
