package dispatch

import (
	"sync"

	"golang.org/x/time/rate"
)

// limiterSet hands out one token bucket per admin account so a burst of
// calls for one account cannot exhaust the shared Admin SDK quota.
type limiterSet struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newLimiterSet(limit rate.Limit, burst int) *limiterSet {
	if burst < 1 {
		burst = 1
	}
	return &limiterSet{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (s *limiterSet) get(account string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limiters[account]
	if !ok {
		l = rate.NewLimiter(s.limit, s.burst)
		s.limiters[account] = l
	}
	return l
}
