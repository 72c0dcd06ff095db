package store

import (
	"context"
	"crypto/md5"
	"encoding/hex"
)

// Backend is the object storage the full backend persists to. Keys are
// slash-separated paths such as "messages/<id>.json".
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// GetWithETag and PutIfMatch support optimistic concurrency. An empty
	// expectedETag writes unconditionally.
	GetWithETag(ctx context.Context, key string) (data []byte, etag string, err error)
	PutIfMatch(ctx context.Context, key string, data []byte, expectedETag string) (string, error)

	List(ctx context.Context, prefix string) ([]string, error)

	Ping(ctx context.Context) error
	Close() error
}

func contentETag(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
