package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/adrianmcphee/crossbase"
)

// GCSBackend stores keys as objects in a Google Cloud Storage bucket. Object
// generations serve as ETags, so PutIfMatch is a true conditional write.
type GCSBackend struct {
	client *storage.Client
	bucket string
}

// GCSConfig selects the bucket. An empty CredentialsFile uses Application
// Default Credentials.
type GCSConfig struct {
	Bucket          string
	CredentialsFile string
}

// NewGCSBackend creates a client for cfg.
func NewGCSBackend(ctx context.Context, cfg GCSConfig) (*GCSBackend, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSBackend{client: client, bucket: cfg.Bucket}, nil
}

func (b *GCSBackend) object(key string) *storage.ObjectHandle {
	return b.client.Bucket(b.bucket).Object(key)
}

func mapGCSError(err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return crossbase.ErrNotFound
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusForbidden, http.StatusUnauthorized:
			return crossbase.ErrUnauthorized
		case http.StatusPreconditionFailed:
			return crossbase.ErrConflict
		}
	}
	return err
}

func (b *GCSBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, _, err := b.GetWithETag(ctx, key)
	return data, err
}

func (b *GCSBackend) Put(ctx context.Context, key string, data []byte) error {
	w := b.object(key).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return mapGCSError(w.Close())
}

func (b *GCSBackend) Delete(ctx context.Context, key string) error {
	return mapGCSError(b.object(key).Delete(ctx))
}

func (b *GCSBackend) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := b.object(key).Attrs(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *GCSBackend) GetWithETag(ctx context.Context, key string) ([]byte, string, error) {
	r, err := b.object(key).NewReader(ctx)
	if err != nil {
		return nil, "", mapGCSError(err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", err
	}
	return data, strconv.FormatInt(r.Attrs.Generation, 10), nil
}

func (b *GCSBackend) PutIfMatch(ctx context.Context, key string, data []byte, expectedETag string) (string, error) {
	obj := b.object(key)
	if expectedETag != "" {
		gen, err := strconv.ParseInt(expectedETag, 10, 64)
		if err != nil {
			return "", crossbase.WithContext(crossbase.ErrInvalidData, map[string]interface{}{
				"key":    key,
				"etag":   expectedETag,
				"reason": "GCS ETags are object generations",
			})
		}
		obj = obj.If(storage.Conditions{GenerationMatch: gen})
	}

	w := obj.NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		if mapped := mapGCSError(err); errors.Is(mapped, crossbase.ErrConflict) {
			return "", crossbase.WithContext(crossbase.ErrConflict, map[string]interface{}{
				"key":      key,
				"expected": expectedETag,
			})
		}
		return "", err
	}
	return strconv.FormatInt(w.Attrs().Generation, 10), nil
}

func (b *GCSBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	it := b.client.Bucket(b.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

func (b *GCSBackend) Ping(ctx context.Context) error {
	_, err := b.client.Bucket(b.bucket).Attrs(ctx)
	return err
}

func (b *GCSBackend) Close() error {
	return b.client.Close()
}
