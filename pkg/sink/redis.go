package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"diynow/pkg/domain"
)

const (
	// KeyPrefixResults is the prefix for per-scope crawl results
	KeyPrefixResults = "diynow:results:"
	// KeyFeatured holds the scheduler's latest broad crawl
	KeyFeatured = "diynow:featured"
)

// ResultsKey returns the Redis key holding the last run for a scope, such as a session id.
func ResultsKey(scope string) string {
	return KeyPrefixResults + scope
}

// RedisSink stores the document as a JSON string under one key.
type RedisSink struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisSink creates a sink on key. ttl 0 keeps the document until overwritten.
func NewRedisSink(client *redis.Client, key string, ttl time.Duration) *RedisSink {
	return &RedisSink{client: client, key: key, ttl: ttl}
}

func (s *RedisSink) Reset(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to reset results: %w", err)
	}
	return nil
}

func (s *RedisSink) Write(ctx context.Context, records []domain.ProjectRecord) error {
	data, err := encode(records)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	return nil
}

func (s *RedisSink) Read(ctx context.Context) ([]domain.ProjectRecord, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoResults
		}
		return nil, fmt.Errorf("failed to get results: %w", err)
	}
	return decode(data)
}
