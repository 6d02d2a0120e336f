package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	GetPublicURL(key string) string
}

// SnapshotArchive stores final tournament snapshots as JSON objects.
type SnapshotArchive struct {
	uploader FileUploader
	now      func() time.Time
}

func NewSnapshotArchive(uploader FileUploader) *SnapshotArchive {
	return &SnapshotArchive{uploader: uploader, now: time.Now}
}

// ArchiveKey is the object key for a snapshot taken at the given time.
func ArchiveKey(tournamentID int, at time.Time) string {
	return fmt.Sprintf("tournaments/%d/final-%s.json", tournamentID, at.UTC().Format("20060102T150405Z"))
}

// Archive uploads snapshot under a key derived from the tournament id.
func (a *SnapshotArchive) Archive(ctx context.Context, tournamentID int, snapshot any) (*UploadResult, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot of tournament %d: %w", tournamentID, err)
	}
	return a.uploader.Upload(ctx, ArchiveKey(tournamentID, a.now()), "application/json", bytes.NewReader(data))
}
