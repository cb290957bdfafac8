package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/erp/migrator/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in      string
		want    Location
		wantErr bool
	}{
		{in: "data/ventas.xlsx", want: Location{Key: "data/ventas.xlsx"}},
		{in: " /tmp/report.json ", want: Location{Key: "/tmp/report.json"}},
		{in: "s3://legacy/2024/compras.xlsx", want: Location{Bucket: "legacy", Key: "2024/compras.xlsx"}},
		{in: "s3://legacy", wantErr: true},
		{in: "s3:///key", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLocation(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	loc := Location{Bucket: "b", Key: "k/x.json"}
	assert.Equal(t, "s3://b/k/x.json", loc.String())
	assert.True(t, loc.IsRemote())
}

func TestLocalStorage(t *testing.T) {
	s := NewLocalStorage(t.TempDir())
	ctx := context.Background()

	ok, err := s.Exists(ctx, "reports/diag.json")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Get(ctx, "reports/diag.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	require.NoError(t, s.Put(ctx, "reports/diag.json", []byte(`{"a":1}`), "application/json"))
	require.NoError(t, s.Put(ctx, "reports/diag.json", []byte(`{"a":2}`), "application/json"))

	rc, err := s.Get(ctx, "reports/diag.json")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(data))

	entries, err := os.ReadDir(filepath.Join(s.Root, "reports"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not remain")
}

type memoryObjects map[string][]byte

func (m memoryObjects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	b, ok := m[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m memoryObjects) Put(_ context.Context, key string, data []byte, _ string) error {
	m[key] = append([]byte(nil), data...)
	return nil
}

func (m memoryObjects) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m[key]
	return ok, nil
}

func TestRouter(t *testing.T) {
	ctx := context.Background()
	r := NewRouter(&config.StorageConfig{}, nil)

	created := map[string]int{}
	buckets := map[string]memoryObjects{}
	r.newBucket = func(bucket string) (ObjectStorage, error) {
		created[bucket]++
		if buckets[bucket] == nil {
			buckets[bucket] = memoryObjects{}
		}
		return buckets[bucket], nil
	}

	t.Run("remote", func(t *testing.T) {
		require.NoError(t, r.Write(ctx, "s3://reports/run-1.json", []byte("{}"), "application/json"))
		rc, err := r.Open(ctx, "s3://reports/run-1.json")
		require.NoError(t, err)
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		assert.Equal(t, "{}", string(b))
		assert.Equal(t, 1, created["reports"], "bucket clients are reused")
	})

	t.Run("local", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out", "report.json")
		require.NoError(t, r.Write(ctx, path, []byte("[]"), "application/json"))
		rc, err := r.Open(ctx, path)
		require.NoError(t, err)
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		assert.Equal(t, "[]", string(b))
	})

	t.Run("missing", func(t *testing.T) {
		_, err := r.Open(ctx, "s3://reports/none.json")
		assert.ErrorIs(t, err, ErrObjectNotFound)
	})
}
