// Copyright 2021 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ratelimit limits requests per key with one token bucket per key.
// Each bucket holds burst tokens and refills one token per interval.
// Buckets left untouched long enough to refill completely are dropped.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    rate.Limit
	burst   int
	idle    time.Duration
	swept   time.Time
	now     func() time.Time
}

// New returns a Limiter that refills one token every r up to b tokens.
func New(r time.Duration, b int) *Limiter {
	idle := r * time.Duration(b)
	if idle < r {
		idle = r
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate.Every(r),
		burst:   b,
		idle:    idle,
		now:     time.Now,
	}
}

// Allow reports whether count tokens of key are available and takes them.
func (l *Limiter) Allow(key string, count int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.swept) >= l.idle {
		l.sweep(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now

	return b.limiter.AllowN(now, count)
}

// sweep drops buckets that have been full for at least one idle period.
// A full bucket behaves like a new one.
func (l *Limiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.seen) >= l.idle {
			delete(l.buckets, key)
		}
	}
	l.swept = now
}
