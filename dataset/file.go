package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"homesweep/models"
)

// File is a dataset persisted as a single CSV file that is always rewritten
// in full.
type File struct {
	Path   string
	Logger *slog.Logger
}

func NewFile(path string, logger *slog.Logger) *File {
	return &File{Path: path, Logger: logger}
}

// Load returns found=false when the file does not exist yet.
func (f *File) Load() ([]models.Listing, bool, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read dataset: %w", err)
	}

	listings, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	return listings, true, nil
}

// Save replaces the file atomically.
func (f *File) Save(listings []models.Listing) error {
	var buf bytes.Buffer
	if err := Write(&buf, listings); err != nil {
		return err
	}
	return writeAtomic(f.Path, buf.Bytes())
}

// Merge folds incoming into the stored dataset and writes the result back to
// the same path.
func (f *File) Merge(incoming []models.Listing) (MergeStats, error) {
	existing, found, err := f.Load()
	if err != nil {
		return MergeStats{}, err
	}
	if !found && f.Logger != nil {
		f.Logger.Info("no existing dataset, starting a new one", "path", f.Path)
	}

	merged := Merge(existing, incoming)
	stats := MergeStats{
		Existing: len(existing),
		Incoming: len(incoming),
		Total:    len(merged),
	}

	if err := f.Save(merged); err != nil {
		return stats, err
	}

	if f.Logger != nil {
		f.Logger.Info("dataset merged",
			"path", f.Path,
			"existing", stats.Existing,
			"incoming", stats.Incoming,
			"replaced", stats.Replaced(),
			"total", stats.Total)
	}
	return stats, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create dataset dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
