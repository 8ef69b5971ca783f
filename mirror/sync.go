// Package mirror keeps a remote copy of local dataset files.
package mirror

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"

	"homesweep/dataset"
	"homesweep/models"
)

const contentType = "text/csv"

type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Publisher receives the merged dataset after a successful upload.
type Publisher interface {
	UpsertListings(ctx context.Context, listings []models.Listing) (int, error)
}

type Syncer struct {
	store     ObjectStore
	publisher Publisher
	logger    *slog.Logger
}

func NewSyncer(store ObjectStore, logger *slog.Logger) *Syncer {
	return &Syncer{store: store, logger: logger}
}

func (s *Syncer) SetPublisher(p Publisher) {
	s.publisher = p
}

// Push merges the remote copy of localPath into the local file, rewrites the
// local file with the result, and uploads it under the file's base name.
// An unreadable remote copy is treated as empty. Every failure is logged and
// reported as false.
func (s *Syncer) Push(ctx context.Context, localPath string) bool {
	key := filepath.Base(localPath)
	logger := s.logger.With("file", localPath, "key", key)

	remote := s.fetchRemote(ctx, key, logger)

	file := dataset.NewFile(localPath, logger)
	local, found, err := file.Load()
	if err != nil {
		logger.Error("read local dataset", "error", err)
		return false
	}
	if !found {
		logger.Error("local dataset not found")
		return false
	}

	merged := dataset.Merge(remote, local)
	if err := file.Save(merged); err != nil {
		logger.Error("rewrite local dataset", "error", err)
		return false
	}

	var buf bytes.Buffer
	if err := dataset.Write(&buf, merged); err != nil {
		logger.Error("encode dataset", "error", err)
		return false
	}
	if err := s.store.Put(ctx, key, buf.Bytes(), contentType); err != nil {
		logger.Error("upload failed", "error", err)
		return false
	}

	logger.Info("uploaded dataset",
		"remote", len(remote),
		"local", len(local),
		"total", len(merged))

	if s.publisher != nil {
		n, err := s.publisher.UpsertListings(ctx, merged)
		if err != nil {
			logger.Warn("publish to database failed", "error", err)
		} else {
			logger.Info("published to database", "rows", n)
		}
	}
	return true
}

// PushAll pushes each file in order and reports success per path.
func (s *Syncer) PushAll(ctx context.Context, paths []string) map[string]bool {
	results := make(map[string]bool, len(paths))
	for _, p := range paths {
		results[p] = s.Push(ctx, p)
	}
	return results
}

func (s *Syncer) fetchRemote(ctx context.Context, key string, logger *slog.Logger) []models.Listing {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		logger.Info("no usable remote copy, starting from local data", "reason", err)
		return nil
	}

	listings, err := dataset.Read(bytes.NewReader(data))
	if err != nil {
		logger.Warn("remote copy unreadable, starting from local data", "error", err)
		return nil
	}
	return listings
}
