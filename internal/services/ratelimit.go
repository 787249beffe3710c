package services

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// UserLimiter hands out one token bucket per user.
type UserLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewUserLimiter allows perMinute events per user, all of which may arrive
// at once. perMinute <= 0 disables limiting.
func NewUserLimiter(perMinute int) *UserLimiter {
	l := &UserLimiter{limiters: map[string]*rate.Limiter{}, limit: rate.Inf, burst: 1}
	if perMinute > 0 {
		l.limit = rate.Every(time.Minute / time.Duration(perMinute))
		l.burst = perMinute
	}
	return l
}

func (l *UserLimiter) Allow(userID string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	lim, ok := l.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[userID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
