package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const gcsContentType = "application/octet-stream"

// GCSConfig configures a GCSBackend.
type GCSConfig struct {
	Bucket          string
	Prefix          string
	CredentialsFile string
}

// GCSBackend stores one object per key in a Cloud Storage bucket.
// Put-if-absent relies on a DoesNotExist precondition, so concurrent
// writers from different machines still agree on the first value.
type GCSBackend struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
}

// NewGCSBackend creates a Cloud Storage client for cfg.
func NewGCSBackend(ctx context.Context, cfg GCSConfig) (*GCSBackend, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs: bucket is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS storage client: %w", err)
	}

	return &GCSBackend{
		client: client,
		bucket: client.Bucket(cfg.Bucket),
		prefix: cfg.Prefix,
	}, nil
}

// ObjectName maps a store key to its object name under prefix.
func ObjectName(prefix, key string) string {
	if prefix == "" {
		return key
	}

	return path.Join(prefix, key)
}

func (b *GCSBackend) object(key string) (*storage.ObjectHandle, error) {
	_, _, err := splitKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, key)
	}

	return b.bucket.Object(ObjectName(b.prefix, key)), nil
}

// Has implements Backend.
func (b *GCSBackend) Has(ctx context.Context, key string) (bool, error) {
	obj, err := b.object(key)
	if err != nil {
		return false, err
	}

	_, err = obj.Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("gcs attrs %s: %w", key, err)
	}

	return true, nil
}

// Get implements Backend.
func (b *GCSBackend) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := b.object(key)
	if err != nil {
		return nil, err
	}

	reader, err := obj.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	if err != nil {
		return nil, fmt.Errorf("gcs read %s: %w", key, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("gcs read %s: %w", key, err)
	}

	return data, nil
}

// PutIfAbsent implements Backend.
func (b *GCSBackend) PutIfAbsent(ctx context.Context, key string, data []byte) error {
	obj, err := b.object(key)
	if err != nil {
		return err
	}

	err = b.write(ctx, obj.If(storage.Conditions{DoesNotExist: true}), data)
	if isPreconditionFailed(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("gcs write %s: %w", key, err)
	}

	return nil
}

// Put implements Backend.
func (b *GCSBackend) Put(ctx context.Context, key string, data []byte) error {
	obj, err := b.object(key)
	if err != nil {
		return err
	}

	err = b.write(ctx, obj, data)
	if err != nil {
		return fmt.Errorf("gcs write %s: %w", key, err)
	}

	return nil
}

func (b *GCSBackend) write(ctx context.Context, obj *storage.ObjectHandle, data []byte) error {
	writer := obj.NewWriter(ctx)
	writer.ContentType = gcsContentType

	_, err := writer.Write(data)
	if err != nil {
		writer.Close()

		return err
	}

	return writer.Close()
}

func isPreconditionFailed(err error) bool {
	var apiErr *googleapi.Error

	return errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed
}

// Close implements Backend.
func (b *GCSBackend) Close() error {
	return b.client.Close()
}
