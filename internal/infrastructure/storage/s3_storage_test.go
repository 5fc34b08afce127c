package storage

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/flowershop/storefront/internal/infrastructure/config"
)

func validStorageConfig() config.StorageConfig {
	return config.StorageConfig{
		Endpoint:     "localhost:9000",
		Bucket:       "flowers",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		UsePathStyle: true,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("missing bucket", func(t *testing.T) {
		cfg := validStorageConfig()
		cfg.Bucket = ""
		_, err := NewS3ObjectStorage(ctx, cfg, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing credentials", func(t *testing.T) {
		cfg := validStorageConfig()
		cfg.SecretKey = ""
		_, err := NewS3ObjectStorage(ctx, cfg, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key are required")
	})

	t.Run("defaults", func(t *testing.T) {
		s, err := NewS3ObjectStorage(ctx, validStorageConfig(), nil)
		require.NoError(t, err)
		assert.Equal(t, "flowers", s.Bucket())
		assert.Equal(t, 15*time.Minute, s.presignExpiration)
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		useSSL   bool
		want     string
	}{
		{"", false, ""},
		{"minio:9000", false, "http://minio:9000"},
		{"s3.example.com", true, "https://s3.example.com"},
		{"https://already.example.com", false, "https://already.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeEndpoint(tt.endpoint, tt.useSSL))
		})
	}
}

func TestS3ObjectStorage_PresignedURLs(t *testing.T) {
	ctx := context.Background()
	s, err := NewS3ObjectStorage(ctx, validStorageConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	uploadURL, expiresAt, err := s.GenerateUploadURL(ctx, "products/rose.jpg", "image/jpeg", 5*time.Minute)
	require.NoError(t, err)
	u, err := url.Parse(uploadURL)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/flowers/products/rose.jpg", u.Path)
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, 5*time.Second)

	downloadURL, _, err := s.GenerateDownloadURL(ctx, "products/rose.jpg", 0)
	require.NoError(t, err)
	u, err = url.Parse(downloadURL)
	require.NoError(t, err)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
}

func TestS3ObjectStorage_EmptyKey(t *testing.T) {
	ctx := context.Background()
	s, err := NewS3ObjectStorage(ctx, validStorageConfig(), zap.NewNop())
	require.NoError(t, err)

	_, _, err = s.GenerateUploadURL(ctx, "", "image/png", 0)
	assert.ErrorIs(t, err, errEmptyKey)
	_, _, err = s.GenerateDownloadURL(ctx, "", 0)
	assert.ErrorIs(t, err, errEmptyKey)
	assert.ErrorIs(t, s.DeleteObject(ctx, ""), errEmptyKey)
	_, err = s.ObjectExists(ctx, "")
	assert.ErrorIs(t, err, errEmptyKey)
	assert.ErrorIs(t, s.Put(ctx, "", "text/plain", nil), errEmptyKey)
	_, err = s.Get(ctx, "")
	assert.ErrorIs(t, err, errEmptyKey)
}

func startMinIO(t *testing.T) config.StorageConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MinIO container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "minio/minio:latest",
			ExposedPorts: []string{"9000/tcp"},
			Cmd:          []string{"server", "/data"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     "minioadmin",
				"MINIO_ROOT_PASSWORD": "minioadmin",
			},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.PortEndpoint(ctx, "9000/tcp", "http")
	require.NoError(t, err)

	cfg := validStorageConfig()
	cfg.Endpoint = endpoint
	cfg.Bucket = "storefront-test"
	return cfg
}

func TestS3ObjectStorage_MinIO(t *testing.T) {
	cfg := startMinIO(t)
	ctx := context.Background()

	s, err := NewS3ObjectStorage(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, s.EnsureBucket(ctx))
	require.NoError(t, s.EnsureBucket(ctx))

	key := "receipts/ORD-000001.pdf"
	exists, err := s.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Put(ctx, key, "application/pdf", []byte("%PDF-1.4 test")))

	exists, err = s.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test", string(data))

	require.NoError(t, s.DeleteObject(ctx, key))
	require.NoError(t, s.DeleteObject(ctx, key))
	exists, err = s.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}
