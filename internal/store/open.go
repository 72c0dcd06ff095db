package store

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/adrianmcphee/crossbase"
)

// OpenBackend selects the backend cfg describes: S3 when a bucket is set, GCS
// when a GCS bucket is set, the filesystem otherwise. A secret key wraps it
// with encryption at rest.
func OpenBackend(ctx context.Context, cfg crossbase.Config) (Backend, error) {
	var (
		backend Backend
		err     error
	)
	switch {
	case cfg.S3Bucket != "":
		backend, err = NewS3BackendFromConfig(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	case cfg.GCSBucket != "":
		backend, err = NewGCSBackend(ctx, GCSConfig{
			Bucket:          cfg.GCSBucket,
			CredentialsFile: cfg.GCSCredentials,
		})
	default:
		backend = NewFilesystemBackend(cfg.DataPath)
	}
	if err != nil {
		return nil, err
	}

	if len(cfg.SecretKey) > 0 {
		enc, err := NewEncryptionBackend(backend, cfg.SecretKey)
		if err != nil {
			_ = backend.Close()
			return nil, err
		}
		backend = enc
	}
	return backend, nil
}

// OpenSessionIndex returns an index over cfg's Redis behind a circuit
// breaker, or a disabled index when Redis is not configured.
func OpenSessionIndex(cfg crossbase.Config, namespace string) *SessionIndex {
	opts := cfg.RedisOptions()
	if opts == nil {
		return NewSessionIndex(nil, namespace)
	}
	logger := crossbase.Log()
	breaker := NewCircuitBreaker(DefaultBreakerFailures, DefaultBreakerReset).
		WithStateChangeCallback(func(from, to BreakerState) {
			logger.Warn("session index circuit breaker changed state",
				"namespace", namespace,
				"from", string(from),
				"to", string(to),
			)
		})
	return NewOwnedSessionIndex(redis.NewClient(opts), namespace).WithBreaker(breaker)
}
