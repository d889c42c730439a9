package rates

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kasirhub/backend-pos/internal/billing"
	"github.com/kasirhub/backend-pos/internal/obs"
)

// Source supplies the persisted rate configuration.
type Source interface {
	FetchRates(ctx context.Context) (billing.Rates, error)
}

// Loader keeps the last known rate configuration in memory. Consumers read
// Current at computation time; refreshes happen independently of any cart.
// Before the first successful refresh Current returns the all-zero default,
// so a missing or broken settings source never blocks billing.
type Loader struct {
	Source Source
	Logger *zerolog.Logger

	mu      sync.RWMutex
	current billing.Rates
	loaded  bool
}

// Current returns the latest known rates, or the zero-rate default.
func (l *Loader) Current() billing.Rates {
	if l == nil {
		return billing.Rates{}
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.loaded {
		return billing.Rates{}
	}
	return l.current
}

// Refresh pulls the configuration from the source. On failure, or when the
// source yields a negative percentage, the last known value is kept.
func (l *Loader) Refresh(ctx context.Context) error {
	if l == nil || l.Source == nil {
		return errors.New("rates loader not configured")
	}
	fetched, err := l.Source.FetchRates(ctx)
	if err != nil {
		countRefresh("error")
		return err
	}
	if !fetched.Valid() {
		countRefresh("invalid")
		return billing.ErrInvalidRate
	}
	l.mu.Lock()
	l.current = fetched
	l.loaded = true
	l.mu.Unlock()
	countRefresh("ok")
	return nil
}

func countRefresh(result string) {
	if obs.RatesRefreshTotal == nil {
		return
	}
	obs.RatesRefreshTotal.WithLabelValues(result).Inc()
}

// Run refreshes the configuration on the given interval until ctx is done.
func (l *Loader) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.Refresh(ctx); err != nil && l.Logger != nil {
				l.Logger.Error().Err(err).Msg("refresh rate config")
			}
		}
	}
}
