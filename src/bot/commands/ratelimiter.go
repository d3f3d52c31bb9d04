package commands

import (
	"sync"
	"time"
)

// RateLimiter throttles submissions per guild member.
type RateLimiter struct {
	users    map[string]time.Time
	mu       sync.Mutex
	limit    time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter(limit time.Duration) *RateLimiter {
	return &RateLimiter{
		users: make(map[string]time.Time),
		limit: limit,
		stop:  make(chan struct{}),
	}
}

func (rl *RateLimiter) CanUse(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	lastUse, exists := rl.users[key]
	if !exists || time.Since(lastUse) >= rl.limit {
		rl.users[key] = time.Now()
		return true
	}
	return false
}

func (rl *RateLimiter) TimeUntilNext(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	lastUse, exists := rl.users[key]
	if !exists {
		return 0
	}
	elapsed := time.Since(lastUse)
	if elapsed >= rl.limit {
		return 0
	}
	return rl.limit - elapsed
}

func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, lastUse := range rl.users {
		if now.Sub(lastUse) > rl.limit*2 {
			delete(rl.users, key)
		}
	}
}

func (rl *RateLimiter) StartCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-rl.stop:
				return
			}
		}
	}()
}

// Stop ends the background cleanup. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}
