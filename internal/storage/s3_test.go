package storage

import (
	"alcyxob/fitness-schedule/internal/config"
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3PresignedDownloadURL(t *testing.T) {
	ctx := context.Background()
	store, err := NewS3Storage(ctx, config.S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
		BucketName:      "media",
	})
	require.NoError(t, err)

	raw, err := store.GeneratePresignedDownloadURL(ctx, "meals/pho.jpg", 5*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.True(t, strings.HasPrefix(u.Path, "/media/meals/pho.jpg"), u.Path)
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
}

func TestDisabledStorage(t *testing.T) {
	raw, err := NewDisabledStorage().GeneratePresignedDownloadURL(context.Background(), "x", 0)
	require.NoError(t, err)
	assert.Empty(t, raw)
}
