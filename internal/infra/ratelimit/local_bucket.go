package ratelimit

import (
	"context"
	"sync"
	"time"
)

// maxLocalBuckets 超過時清掉已經補滿的桶子
const maxLocalBuckets = 10000

type bucket struct {
	tokens float64
	last   time.Time
}

// LocalTokenBucket 單機版, 沒有 redis 時使用; 補充在 Allow 時惰性計算
type LocalTokenBucket struct {
	cfg     Config
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*bucket
}

var _ Limiter = (*LocalTokenBucket)(nil)

func NewLocalTokenBucket(cfg Config) (*LocalTokenBucket, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &LocalTokenBucket{cfg: cfg, now: time.Now, buckets: make(map[string]*bucket)}, nil
}

func (l *LocalTokenBucket) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= maxLocalBuckets {
			l.evictFull(now)
		}
		b = &bucket{tokens: float64(l.cfg.Capacity), last: now}
		l.buckets[key] = b
	}
	l.refill(b, now)

	if b.tokens < 1 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

func (l *LocalTokenBucket) refill(b *bucket, now time.Time) {
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens = min(float64(l.cfg.Capacity), b.tokens+elapsed*l.cfg.RefillPerSecond)
		b.last = now
	}
}

func (l *LocalTokenBucket) evictFull(now time.Time) {
	for key, b := range l.buckets {
		l.refill(b, now)
		if b.tokens >= float64(l.cfg.Capacity) {
			delete(l.buckets, key)
		}
	}
}
