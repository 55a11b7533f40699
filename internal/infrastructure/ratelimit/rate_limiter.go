package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	ActionSendMessage = "send_message"
	ActionOpenChat    = "open_chat"
	ActionUploadImage = "upload_image"
	ActionCreateItem  = "create_product"
	ActionAuth        = "auth"
)

// Limit is a token bucket of Burst tokens refilled with one token every Every.
type Limit struct {
	Burst int
	Every time.Duration
}

var defaultLimits = map[string]Limit{
	ActionSendMessage: {Burst: 10, Every: 6 * time.Second},
	ActionOpenChat:    {Burst: 30, Every: 2 * time.Second},
	ActionUploadImage: {Burst: 10, Every: 30 * time.Second},
	ActionCreateItem:  {Burst: 10, Every: time.Minute},
	ActionAuth:        {Burst: 5, Every: 12 * time.Second},
}

var fallbackLimit = Limit{Burst: 20, Every: 3 * time.Second}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key and action.
type RateLimiter struct {
	limits  map[string]Limit
	entries map[string]*entry
	mutex   sync.Mutex
	now     func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithLimits(nil)
}

// NewRateLimiterWithLimits overrides the defaults for the given actions.
func NewRateLimiterWithLimits(overrides map[string]Limit) *RateLimiter {
	limits := make(map[string]Limit, len(defaultLimits)+len(overrides))
	for action, limit := range defaultLimits {
		limits[action] = limit
	}
	for action, limit := range overrides {
		limits[action] = limit
	}

	return &RateLimiter{
		limits:  limits,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Allow consumes a token for key+action. When none is available it reports how long until one is.
func (rl *RateLimiter) Allow(key, action string) (bool, time.Duration) {
	now := rl.now()
	limiter := rl.limiterFor(key, action, now)

	reservation := limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, 0
	}

	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}

	return true, 0
}

func (rl *RateLimiter) limiterFor(key, action string, now time.Time) *rate.Limiter {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	id := key + ":" + action
	e, exists := rl.entries[id]
	if !exists {
		limit, ok := rl.limits[action]
		if !ok {
			limit = fallbackLimit
		}
		e = &entry{limiter: rate.NewLimiter(rate.Every(limit.Every), limit.Burst)}
		rl.entries[id] = e
	}
	e.lastSeen = now

	return e.limiter
}

// Cleanup drops buckets idle for longer than maxIdle.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	removed := 0
	for id, e := range rl.entries {
		if now.Sub(e.lastSeen) > maxIdle {
			delete(rl.entries, id)
			removed++
		}
	}
	return removed
}

func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup(time.Hour)
			}
		}
	}()
}
