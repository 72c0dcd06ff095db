package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/adrianmcphee/crossbase"
)

// ErrUpdateRetries is returned when Update loses every optimistic race.
var ErrUpdateRetries = errors.New("update failed after retries")

// Store reads and writes JSON documents over a Backend.
type Store struct {
	backend Backend
	logger  crossbase.Logger
	metrics crossbase.Metrics
}

// New creates a store with no-op logging and metrics.
func New(backend Backend) *Store {
	return &Store{
		backend: backend,
		logger:  &crossbase.NoOpLogger{},
		metrics: &crossbase.NoOpMetrics{},
	}
}

// NewWithObservability creates a store with logging and metrics.
func NewWithObservability(backend Backend, logger crossbase.Logger, metrics crossbase.Metrics) *Store {
	s := New(backend)
	if logger != nil {
		s.logger = logger
	}
	if metrics != nil {
		s.metrics = metrics
	}
	return s
}

// GetJSON fetches key and unmarshals it into dest.
func (s *Store) GetJSON(ctx context.Context, key string, dest interface{}) error {
	start := time.Now()
	data, err := s.backend.Get(ctx, key)
	s.metrics.Timing(crossbase.MetricGetDuration, time.Since(start))
	if err != nil {
		s.metrics.Increment(crossbase.MetricGetError)
		return err
	}
	s.metrics.Increment(crossbase.MetricGetSuccess)

	if err := json.Unmarshal(data, dest); err != nil {
		return crossbase.WithContext(crossbase.ErrInvalidData, map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
	return nil
}

// PutJSON marshals value and stores it at key.
func (s *Store) PutJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	start := time.Now()
	err = s.backend.Put(ctx, key, data)
	s.metrics.Timing(crossbase.MetricPutDuration, time.Since(start))
	if err != nil {
		s.metrics.Increment(crossbase.MetricPutError)
		return err
	}
	s.metrics.Increment(crossbase.MetricPutSuccess)
	return nil
}

// GetJSONWithETag fetches key into dest and returns its ETag.
func (s *Store) GetJSONWithETag(ctx context.Context, key string, dest interface{}) (string, error) {
	data, etag, err := s.backend.GetWithETag(ctx, key)
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return "", crossbase.WithContext(crossbase.ErrInvalidData, map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
	return etag, nil
}

// PutJSONWithETag stores value only if key still has expectedETag.
func (s *Store) PutJSONWithETag(ctx context.Context, key string, value interface{}, expectedETag string) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to marshal: %w", err)
	}
	return s.backend.PutIfMatch(ctx, key, data, expectedETag)
}

// RetryConfig controls Update's optimistic retry loop.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
}

// DefaultRetryConfig returns the retry policy used by Update.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 5, InitialBackoff: 10 * time.Millisecond}
}

// Update reads key into a fresh T, applies fn and writes the result back
// under the read ETag, retrying with exponential backoff on conflicts.
func Update[T any](ctx context.Context, s *Store, key string, fn func(*T) error) (T, error) {
	cfg := DefaultRetryConfig()
	var last T
	for i := 0; i < cfg.MaxRetries; i++ {
		var doc T
		etag, err := s.GetJSONWithETag(ctx, key, &doc)
		if err != nil {
			return last, err
		}
		if err := fn(&doc); err != nil {
			return last, err
		}
		_, err = s.PutJSONWithETag(ctx, key, doc, etag)
		if err == nil {
			return doc, nil
		}
		if !crossbase.IsConflict(err) {
			return last, err
		}

		backoff := cfg.InitialBackoff * time.Duration(1<<uint(i))
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-time.After(backoff):
		}
	}

	err := crossbase.WithContext(ErrUpdateRetries, map[string]interface{}{
		"key":     key,
		"retries": cfg.MaxRetries,
	})
	s.logger.Error("document update failed after retries", "key", key, "retries", cfg.MaxRetries)
	return last, err
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.backend.Delete(ctx, key)
	s.metrics.Timing(crossbase.MetricDeleteDuration, time.Since(start))
	if err != nil {
		s.metrics.Increment(crossbase.MetricDeleteError)
		return err
	}
	s.metrics.Increment(crossbase.MetricDeleteSuccess)
	return nil
}

// Exists reports whether key is stored.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	return s.backend.Exists(ctx, key)
}

// List returns every key below prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	return s.backend.List(ctx, prefix)
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend { return s.backend }

// Logger returns the store's logger.
func (s *Store) Logger() crossbase.Logger { return s.logger }

// Metrics returns the store's metrics sink.
func (s *Store) Metrics() crossbase.Metrics { return s.metrics }

// Ping checks backend health.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
