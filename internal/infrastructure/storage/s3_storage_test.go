package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/erp/migrator/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(nil, "b")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{}, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("half a key pair returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{AccessKey: "k"}, "b")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be set together")
	})

	t.Run("valid config creates storage", func(t *testing.T) {
		s, err := NewS3ObjectStorage(&config.StorageConfig{
			AccessKey:    "test-key",
			SecretKey:    "test-secret",
			Endpoint:     "localhost:9000",
			UsePathStyle: true,
		}, "legacy-workbooks", WithLogger(zap.NewNop()))
		require.NoError(t, err)
		assert.Equal(t, "legacy-workbooks", s.Bucket())
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in     string
		ssl    bool
		expect string
	}{
		{"", false, ""},
		{"localhost:9000", false, "http://localhost:9000"},
		{"minio.internal:9000", true, "https://minio.internal:9000"},
		{"https://s3.example.com", false, "https://s3.example.com"},
	}
	for _, tt := range tests {
		got, err := normalizeEndpoint(tt.in, tt.ssl)
		require.NoError(t, err)
		assert.Equal(t, tt.expect, got)
	}
}

func TestS3ObjectStorage_EmptyKey(t *testing.T) {
	s, err := NewS3ObjectStorage(&config.StorageConfig{AccessKey: "k", SecretKey: "s", Endpoint: "localhost:9000"}, "b")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Get(ctx, "")
	assert.Error(t, err)
	assert.Error(t, s.Put(ctx, "", nil, "text/plain"))
	_, err = s.Exists(ctx, "")
	assert.Error(t, err)
}

// fakeS3 serves GET and HEAD for a single object in path-style addressing
func fakeS3(t *testing.T, bucket, key, body string) *S3ObjectStorage {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/"+bucket+"/"+key {
			w.WriteHeader(http.StatusNotFound)
			if r.Method == http.MethodGet {
				_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			}
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, body)
		}
	}))
	t.Cleanup(srv.Close)

	s, err := NewS3ObjectStorage(&config.StorageConfig{
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		Endpoint:     srv.URL,
		UsePathStyle: true,
	}, bucket)
	require.NoError(t, err)
	return s
}

func TestS3ObjectStorage_GetAndExists(t *testing.T) {
	s := fakeS3(t, "legacy", "2024/ventas.xlsx", "xlsx-bytes")
	ctx := context.Background()

	rc, err := s.Get(ctx, "2024/ventas.xlsx")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "xlsx-bytes", string(data))

	ok, err := s.Exists(ctx, "2024/ventas.xlsx")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, "2024/compras.xlsx")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Get(ctx, "2024/compras.xlsx")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
