// Package ratelimit throttles suggestion requests per caller with a token
// bucket refilled at a fixed requests-per-minute rate.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

type bucket struct {
	tokens       float64
	capacity     float64
	refillPerSec float64
	lastRefill   time.Time
}

type Limiter struct {
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*bucket
}

func New() *Limiter {
	return &Limiter{
		now:     func() time.Time { return time.Now().UTC() },
		buckets: make(map[string]*bucket),
	}
}

// Allow takes one token from key's bucket. When none is left it returns
// false and the number of seconds until one is. rpm <= 0 disables limiting.
func (l *Limiter) Allow(key string, rpm int) (bool, int) {
	if rpm <= 0 {
		return true, 0
	}

	now := l.now()
	capacity := float64(rpm)
	refillPerSec := capacity / 60.0

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{
			tokens:       capacity - 1,
			capacity:     capacity,
			refillPerSec: refillPerSec,
			lastRefill:   now,
		}
		return true, 0
	}

	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(b.capacity, b.tokens+(elapsed*b.refillPerSec))
		b.lastRefill = now
	}
	if b.capacity != capacity || b.refillPerSec != refillPerSec {
		b.capacity = capacity
		b.refillPerSec = refillPerSec
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
	}

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}

	deficit := 1 - b.tokens
	retrySeconds := int(math.Ceil(deficit / b.refillPerSec))
	if retrySeconds < 1 {
		retrySeconds = 1
	}
	return false, retrySeconds
}
