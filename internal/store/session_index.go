package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/adrianmcphee/crossbase"
)

// ErrIndexUnavailable is returned by queries on a disabled index.
var ErrIndexUnavailable = errors.New("redis index not available")

// IndexEntry names one indexed attribute value of a document.
type IndexEntry struct {
	Name  string
	Value string
}

// SessionIndex keeps Redis sets of document keys per attribute value, such
// as every message key of one session. A nil client disables it; callers
// fall back to listing.
type SessionIndex struct {
	redis      *redis.Client
	namespace  string
	ownsClient bool
	metrics    crossbase.Metrics
	breaker    *CircuitBreaker
}

// NewSessionIndex indexes documents of namespace (e.g. "messages") in client.
func NewSessionIndex(client *redis.Client, namespace string) *SessionIndex {
	return &SessionIndex{redis: client, namespace: namespace, metrics: &crossbase.NoOpMetrics{}}
}

// NewOwnedSessionIndex is NewSessionIndex where Close also closes client.
func NewOwnedSessionIndex(client *redis.Client, namespace string) *SessionIndex {
	idx := NewSessionIndex(client, namespace)
	idx.ownsClient = true
	return idx
}

// WithMetrics sets the metrics sink for hits and misses.
func (i *SessionIndex) WithMetrics(m crossbase.Metrics) *SessionIndex {
	i.metrics = m
	return i
}

// WithBreaker routes every Redis call through cb.
func (i *SessionIndex) WithBreaker(cb *CircuitBreaker) *SessionIndex {
	i.breaker = cb
	return i
}

// Breaker returns the index's circuit breaker, or nil.
func (i *SessionIndex) Breaker() *CircuitBreaker { return i.breaker }

func (i *SessionIndex) guard(ctx context.Context, fn func() error) error {
	if i.breaker == nil {
		return fn()
	}
	return i.breaker.Execute(ctx, fn)
}

// Enabled reports whether a Redis client is configured.
func (i *SessionIndex) Enabled() bool {
	return i != nil && i.redis != nil
}

func (i *SessionIndex) setKey(name, value string) string {
	return fmt.Sprintf("crossbase:idx:%s:%s:%s", i.namespace, name, value)
}

// Add records docKey under every non-empty entry.
func (i *SessionIndex) Add(ctx context.Context, docKey string, entries ...IndexEntry) error {
	if !i.Enabled() {
		return nil
	}
	pipe := i.redis.TxPipeline()
	for _, e := range entries {
		if e.Value == "" {
			continue
		}
		pipe.SAdd(ctx, i.setKey(e.Name, e.Value), docKey)
	}
	if err := i.guard(ctx, func() error { _, err := pipe.Exec(ctx); return err }); err != nil {
		return fmt.Errorf("failed to update redis index: %w", err)
	}
	return nil
}

// Remove drops docKey from every entry's set.
func (i *SessionIndex) Remove(ctx context.Context, docKey string, entries ...IndexEntry) error {
	if !i.Enabled() {
		return nil
	}
	pipe := i.redis.TxPipeline()
	for _, e := range entries {
		if e.Value == "" {
			continue
		}
		pipe.SRem(ctx, i.setKey(e.Name, e.Value), docKey)
	}
	if err := i.guard(ctx, func() error { _, err := pipe.Exec(ctx); return err }); err != nil {
		return fmt.Errorf("failed to update redis index: %w", err)
	}
	return nil
}

// Query returns the document keys indexed under name=value.
func (i *SessionIndex) Query(ctx context.Context, name, value string) ([]string, error) {
	if !i.Enabled() {
		return nil, ErrIndexUnavailable
	}
	var members []string
	err := i.guard(ctx, func() error {
		var err error
		members, err = i.redis.SMembers(ctx, i.setKey(name, value)).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query redis index: %w", err)
	}
	if len(members) == 0 {
		i.metrics.Increment(crossbase.MetricIndexMisses, "index", name)
		return []string{}, nil
	}
	i.metrics.Increment(crossbase.MetricIndexHits, "index", name)
	return members, nil
}

// Drop deletes the whole set for name=value.
func (i *SessionIndex) Drop(ctx context.Context, name, value string) error {
	if !i.Enabled() {
		return nil
	}
	return i.guard(ctx, func() error { return i.redis.Del(ctx, i.setKey(name, value)).Err() })
}

// Values lists every indexed value of name, e.g. every session id with a set.
func (i *SessionIndex) Values(ctx context.Context, name string) ([]string, error) {
	if !i.Enabled() {
		return nil, ErrIndexUnavailable
	}
	prefix := i.setKey(name, "")
	var values []string
	err := i.guard(ctx, func() error {
		iter := i.redis.Scan(ctx, 0, prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			values = append(values, strings.TrimPrefix(iter.Val(), prefix))
		}
		return iter.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan redis index: %w", err)
	}
	return values, nil
}

// Ping checks the Redis connection.
func (i *SessionIndex) Ping(ctx context.Context) error {
	if !i.Enabled() {
		return ErrIndexUnavailable
	}
	return i.redis.Ping(ctx).Err()
}

// Close closes the client if the index owns it.
func (i *SessionIndex) Close() error {
	if i.Enabled() && i.ownsClient {
		return i.redis.Close()
	}
	return nil
}
