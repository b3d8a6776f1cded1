// Package velocity derives per-user transaction velocity hints from cache
// counters. Counters live in the cache with a daily window, so velocity
// survives restarts when Redis backs the cache and degrades to neutral
// hints when the cache is unavailable.
package velocity

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/features"
)

const dailyWindow = 24 * time.Hour

// Tracker counts transactions and dollar volume per user per day.
type Tracker struct {
	cache  domain.Cache
	logger *slog.Logger
}

// NewTracker creates a velocity tracker over the given cache.
func NewTracker(cache domain.Cache, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{cache: cache, logger: logger}
}

// Observe increments the user's daily counters for this transaction and
// returns the updated hints. Counter failures are logged and produce
// neutral hints so a cache outage never blocks scoring.
func (t *Tracker) Observe(ctx context.Context, rec *domain.TransactionRecord) features.VelocityHints {
	day := rec.Timestamp.UTC().Format("2006-01-02")

	countKey := fmt.Sprintf("velocity:count:%s:%s", rec.UserID, day)
	count, err := t.cache.IncrementCounter(ctx, countKey, dailyWindow)
	if err != nil {
		t.logger.Warn("velocity count increment failed, using neutral hints",
			"user_id", rec.UserID, "error", err)
		return features.VelocityHints{DailyCount: 1, DailyVolume: rec.Amount}
	}

	volumeKey := fmt.Sprintf("velocity:volume:%s:%s", rec.UserID, day)
	volume, err := t.addVolume(ctx, volumeKey, rec.Amount)
	if err != nil {
		t.logger.Warn("velocity volume update failed, using amount as volume",
			"user_id", rec.UserID, "error", err)
		volume = rec.Amount
	}

	return features.VelocityHints{DailyCount: count, DailyVolume: volume}
}

// addVolume keeps the running dollar volume in integer cents. This is a
// read-modify-write, not atomic across instances; volume is a scoring hint
// and a small undercount under contention is acceptable.
func (t *Tracker) addVolume(ctx context.Context, key string, amount float64) (float64, error) {
	raw, err := t.cache.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	var cents int64
	if raw != nil {
		cents, _ = strconv.ParseInt(string(raw), 10, 64)
	}
	cents += int64(amount * 100)
	if err := t.cache.Set(ctx, key, []byte(strconv.FormatInt(cents, 10)), dailyWindow); err != nil {
		return 0, err
	}
	return float64(cents) / 100, nil
}
