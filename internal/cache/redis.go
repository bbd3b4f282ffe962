package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/markpostal/kiln-watch/internal/errors"
	"github.com/markpostal/kiln-watch/internal/record"
)

// RedisSink stores snapshot JSON under a key with an expiry.
type RedisSink struct {
	client *redis.Client
}

// NewRedisSink connects to addr and verifies the connection with a ping.
func NewRedisSink(ctx context.Context, addr string) (*RedisSink, error) {
	errFactory := errors.New()

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		PoolSize:     4,
		MinIdleConns: 1,
		MaxRetries:   3,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errFactory.Wrap(errors.ErrUnavailable, err)
	}

	return &RedisSink{client: rdb}, nil
}

// SaveRecords writes series as a JSON array under key.
func (rs *RedisSink) SaveRecords(ctx context.Context, key string, series []record.Series, ttl time.Duration) error {
	data, err := json.Marshal(series)
	if err != nil {
		return err
	}

	return rs.client.Set(ctx, key, data, ttl).Err()
}

// LoadRecords reads back what SaveRecords stored. A missing key yields nil.
func (rs *RedisSink) LoadRecords(ctx context.Context, key string) ([]record.Series, error) {
	val, err := rs.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var series []record.Series
	if err := json.Unmarshal(val, &series); err != nil {
		return nil, err
	}

	return series, nil
}

func (rs *RedisSink) Close() error {
	return rs.client.Close()
}
