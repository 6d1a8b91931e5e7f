// Package producer holds the sources a como server publishes on its own:
// a demo set that counts and ticks, and host metrics read with gopsutil.
package producer

import (
	"context"
	"log/slog"
	"time"

	"github.com/como-monitor/como/internal/logger"
	"github.com/como-monitor/como/internal/source"
)

// Producer owns a group of sources and keeps them current until its
// context is done. Run withdraws every source it created before returning.
type Producer interface {
	Name() string
	Run(ctx context.Context) error
}

// tick calls step every interval until ctx is done, then closes sources.
func tick(ctx context.Context, log *slog.Logger, interval time.Duration, sources []*source.Source, step func(context.Context) error) error {
	defer func() {
		for _, s := range sources {
			s.Close()
		}
	}()

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("producer stopped")
			return nil
		case <-t.C:
			if err := step(ctx); err != nil {
				log.Warn("producer step failed", logger.Error(err))
			}
		}
	}
}
