// Package storage reads workbook sources and writes report artifacts on the
// local filesystem or any S3-compatible object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	infraconfig "github.com/erp/migrator/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrObjectNotFound is returned when a location holds no object
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage is a flat key/value object store
type ObjectStorage interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
}

const s3Scheme = "s3://"

// Location is a parsed source or artifact address
type Location struct {
	Bucket string // empty for local paths
	Key    string
}

// IsRemote reports whether the location lives in object storage
func (l Location) IsRemote() bool { return l.Bucket != "" }

func (l Location) String() string {
	if l.IsRemote() {
		return s3Scheme + l.Bucket + "/" + l.Key
	}
	return l.Key
}

// ParseLocation accepts s3://bucket/key or a local path
func ParseLocation(uri string) (Location, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return Location{}, errors.New("storage location is required")
	}
	if !strings.HasPrefix(uri, s3Scheme) {
		return Location{Key: uri}, nil
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(uri, s3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return Location{}, fmt.Errorf("invalid object location %q: want s3://bucket/key", uri)
	}
	return Location{Bucket: bucket, Key: key}, nil
}

// Router dispatches locations to local disk or to a per-bucket S3 client
type Router struct {
	cfg    *infraconfig.StorageConfig
	local  ObjectStorage
	logger *zap.Logger

	mu      sync.Mutex
	buckets map[string]ObjectStorage
	// newBucket is replaced in tests
	newBucket func(bucket string) (ObjectStorage, error)
}

// NewRouter creates a Router. Local paths resolve relative to the working
// directory.
func NewRouter(cfg *infraconfig.StorageConfig, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{
		cfg:     cfg,
		local:   NewLocalStorage(""),
		logger:  logger,
		buckets: make(map[string]ObjectStorage),
	}
	r.newBucket = func(bucket string) (ObjectStorage, error) {
		return NewS3ObjectStorage(r.cfg, bucket, WithLogger(r.logger))
	}
	return r
}

func (r *Router) storageFor(loc Location) (ObjectStorage, error) {
	if !loc.IsRemote() {
		return r.local, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.buckets[loc.Bucket]; ok {
		return s, nil
	}
	s, err := r.newBucket(loc.Bucket)
	if err != nil {
		return nil, err
	}
	r.buckets[loc.Bucket] = s
	return s, nil
}

// Open returns the content at uri
func (r *Router) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	loc, err := ParseLocation(uri)
	if err != nil {
		return nil, err
	}
	s, err := r.storageFor(loc)
	if err != nil {
		return nil, err
	}
	rc, err := s.Get(ctx, loc.Key)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", loc, err)
	}
	return rc, nil
}

// Write stores data at uri, replacing what was there
func (r *Router) Write(ctx context.Context, uri string, data []byte, contentType string) error {
	loc, err := ParseLocation(uri)
	if err != nil {
		return err
	}
	s, err := r.storageFor(loc)
	if err != nil {
		return err
	}
	if err := s.Put(ctx, loc.Key, data, contentType); err != nil {
		return fmt.Errorf("write %s: %w", loc, err)
	}
	r.logger.Info("Artifact written", zap.String("location", loc.String()), zap.Int("bytes", len(data)))
	return nil
}
