package ratelimit

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidConfig = errors.New("invalid rate limiter config")

// Limiter 依 key (使用者或 IP) 做 token bucket 限流
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type Config struct {
	Capacity        int
	RefillPerSecond float64
	KeyPrefix       string
}

func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("capacity must be positive"))
	}
	if c.RefillPerSecond <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("refill rate must be positive"))
	}
	return nil
}

// ttl 桶子從空到滿所需時間, 之後的狀態與新建無異
func (c Config) ttl() time.Duration {
	seconds := float64(c.Capacity)/c.RefillPerSecond + 1
	return time.Duration(seconds * float64(time.Second))
}
