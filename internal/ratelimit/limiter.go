package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Observer is notified after every acquire attempt.
type Observer func(key string, wait time.Duration, timedOut bool)

// Limiter hands out request slots per key (typically provider:tier).
//
// Each key owns a token bucket plus a ledger of its most recent grants. A slot
// is never scheduled earlier than the grant Requests positions back plus
// Window, so no key ever exceeds Requests grants in any sliding Window. Slots
// are assigned under the bucket lock in arrival order, which serves waiters
// FIFO per key.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	fallback Quota
	observer Observer
	now      func() time.Time
	onGrant  func(key string, slot time.Time)
}

type bucket struct {
	mu     sync.Mutex
	quota  Quota
	tokens *rate.Limiter
	ledger []time.Time
	last   time.Time
	grants int64
	waited time.Duration
}

// Stats summarizes a key's activity.
type Stats struct {
	Quota     Quota
	Grants    int64
	TotalWait time.Duration
}

// New builds a limiter; keys without an explicit Register use fallback.
func New(fallback Quota, observer Observer) (*Limiter, error) {
	if err := fallback.Validate(); err != nil {
		return nil, err
	}
	return &Limiter{
		buckets:  make(map[string]*bucket),
		fallback: fallback,
		observer: observer,
		now:      time.Now,
	}, nil
}

// Register installs (or replaces) the quota for key.
func (l *Limiter) Register(key string, quota Quota) error {
	if err := quota.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets[key] = newBucket(quota)
	return nil
}

// Acquire blocks until key has capacity. If ctx carries a deadline that the
// next slot would miss, it returns a *TimeoutError immediately.
func (l *Limiter) Acquire(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b := l.bucket(key)

	b.mu.Lock()
	now := l.now()
	at := now
	if b.last.After(at) {
		at = b.last
	}
	if len(b.ledger) >= b.quota.Requests {
		if floor := b.ledger[0].Add(b.quota.Window); floor.After(at) {
			at = floor
		}
	}
	res := b.tokens.ReserveN(at, 1)
	slot := at.Add(res.DelayFrom(at))
	wait := slot.Sub(now)

	if deadline, ok := ctx.Deadline(); ok && slot.After(deadline) {
		res.CancelAt(at)
		b.mu.Unlock()
		l.observe(key, wait, true)
		return &TimeoutError{Key: key, Wait: wait, Deadline: deadline}
	}

	b.ledger = append(b.ledger, slot)
	if len(b.ledger) > b.quota.Requests {
		b.ledger = b.ledger[1:]
	}
	b.last = slot
	b.grants++
	if wait > 0 {
		b.waited += wait
	}
	if l.onGrant != nil {
		l.onGrant(key, slot)
	}
	b.mu.Unlock()

	l.observe(key, wait, false)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		// The slot stays spent.
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Stats reports grants and cumulative wait for key.
func (l *Limiter) Stats(key string) Stats {
	b := l.bucket(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{Quota: b.quota, Grants: b.grants, TotalWait: b.waited}
}

func (l *Limiter) bucket(key string) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = newBucket(l.fallback)
		l.buckets[key] = b
	}
	return b
}

func (l *Limiter) observe(key string, wait time.Duration, timedOut bool) {
	if l.observer != nil {
		l.observer(key, wait, timedOut)
	}
}

func newBucket(q Quota) *bucket {
	return &bucket{
		quota:  q,
		tokens: rate.NewLimiter(q.refill(), q.burst()),
		ledger: make([]time.Time, 0, q.Requests),
	}
}
