package contracts

import (
	"context"
	"time"
)

type RedisRepository interface {
	Get(ctx context.Context, key string) (string, error)
	TrySetNX(ctx context.Context, key string, value interface{}, exp time.Duration) (bool, error)
	// DeleteIfValue removes key only while it still holds value.
	DeleteIfValue(ctx context.Context, key string, value interface{}) (bool, error)
	// ExpireIfValue resets the TTL of key only while it still holds value.
	ExpireIfValue(ctx context.Context, key string, value interface{}, exp time.Duration) (bool, error)
}
