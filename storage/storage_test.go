package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryUploader struct {
	key         string
	contentType string
	body        []byte
}

func (m *memoryUploader) Upload(_ context.Context, key, contentType string, r io.Reader) (*UploadResult, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.key, m.contentType, m.body = key, contentType, b
	return &UploadResult{Key: key, Location: m.GetPublicURL(key)}, nil
}

func (m *memoryUploader) GetPublicURL(key string) string { return "https://cdn.test/" + key }

func TestSnapshotArchive(t *testing.T) {
	up := &memoryUploader{}
	a := NewSnapshotArchive(up)
	a.now = func() time.Time { return time.Date(2026, 5, 1, 18, 30, 0, 0, time.UTC) }

	res, err := a.Archive(context.Background(), 7, map[string]string{"view": "complete"})
	require.NoError(t, err)

	assert.Equal(t, "tournaments/7/final-20260501T183000Z.json", res.Key)
	assert.Equal(t, "https://cdn.test/tournaments/7/final-20260501T183000Z.json", res.Location)
	assert.Equal(t, "application/json", up.contentType)

	var got map[string]string
	require.NoError(t, json.Unmarshal(up.body, &got))
	assert.Equal(t, "complete", got["view"])
}

func TestPublicURL(t *testing.T) {
	tests := []struct {
		base string
		key  string
		want string
	}{
		{"https://cdn.test", "a/b.json", "https://cdn.test/a/b.json"},
		{"https://cdn.test/", "/a/b.json", "https://cdn.test/a/b.json"},
		{"https://cdn.test/archive", "a.json", "https://cdn.test/archive/a.json"},
	}
	for _, tt := range tests {
		base, err := url.Parse(tt.base)
		require.NoError(t, err)
		assert.Equal(t, tt.want, publicURL(base, tt.key))
	}
	assert.Empty(t, publicURL(nil, "a.json"))
}

func TestNewCloudflareR2Uploader_RequiresAllFields(t *testing.T) {
	_, err := NewCloudflareR2Uploader(context.Background(), CloudflareR2UploaderConfig{BucketName: "b"})
	assert.Error(t, err)
}
