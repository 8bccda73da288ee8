package worker

import (
	"context"
	"time"
	"todolist/internal/logger"

	"go.uber.org/zap"
)

const DefaultSweepInterval = 10 * time.Minute

type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// SessionSweeper periodically drops expired sessions from a store that does not expire them itself.
type SessionSweeper struct {
	store    Sweeper
	interval time.Duration
}

func NewSessionSweeper(store Sweeper, interval time.Duration) *SessionSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &SessionSweeper{
		store:    store,
		interval: interval,
	}
}

// Start blocks until ctx is cancelled.
func (w *SessionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: session sweeper started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ticker.C:
			w.Sweep(ctx)
		case <-ctx.Done():
			logger.Info("Worker: session sweeper stopping")
			return
		}
	}
}

func (w *SessionSweeper) Sweep(ctx context.Context) int {
	start := time.Now()

	removed, err := w.store.Sweep(ctx)
	if err != nil {
		logger.Warn("Worker: session sweep failed", zap.Error(err))
		return 0
	}

	logger.Debug("Worker: session sweep finished",
		zap.Duration("ms", time.Since(start)),
		zap.Int("removed", removed))
	return removed
}
