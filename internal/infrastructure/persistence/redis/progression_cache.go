package redis

import (
	"context"

	"github.com/linguahub/progression-hub/internal/domain/week"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION CACHE
// Implements query.CurrentWeekCache. Callers treat every error as a miss, so
// a Redis outage degrades to direct storage reads.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressionCache caches current-week lookups in Redis.
type ProgressionCache struct {
	cache *Cache
}

// NewProgressionCache creates a new ProgressionCache.
func NewProgressionCache(cache *Cache) *ProgressionCache {
	return &ProgressionCache{cache: cache}
}

// GetCurrentWeek returns the cached current week for a student.
func (p *ProgressionCache) GetCurrentWeek(ctx context.Context, studentID string) (*week.Week, error) {
	var w week.Week
	if err := p.cache.Get(ctx, CurrentWeekKey(studentID), &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// SetCurrentWeek stores the current week for a student.
func (p *ProgressionCache) SetCurrentWeek(ctx context.Context, studentID string, w *week.Week) error {
	return p.cache.Set(ctx, CurrentWeekKey(studentID), w, TTLCurrentWeek)
}

// InvalidateCurrentWeek drops the cached entry for a student.
func (p *ProgressionCache) InvalidateCurrentWeek(ctx context.Context, studentID string) error {
	return p.cache.Delete(ctx, CurrentWeekKey(studentID))
}
