package logstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pageguard/pageguard/internal/transform"
	"go.uber.org/zap"
)

// FileStore persists each log batch as one JSON file named by its
// reference. Suited for single-node deployments and tests; batches are
// written once and never mutated.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

// NewFileStore creates the backing directory if needed.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	logger.Info("File log store initialized", zap.String("directory", dir))
	return &FileStore{dir: dir, logger: logger}, nil
}

// Append writes the batch to <dir>/<reference>.json via a temp-file rename.
func (s *FileStore) Append(ctx context.Context, entries []transform.LogEntry) (string, error) {
	reference, err := newReference()
	if err != nil {
		return "", err
	}

	records := toArchive(reference, entries, time.Now())
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal log batch: %w", err)
	}

	path := s.path(reference)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write log batch: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize log batch: %w", err)
	}

	s.logger.Debug("Log batch stored",
		zap.String("reference", reference),
		zap.Int("entries", len(entries)))

	return reference, nil
}

// Read loads a log batch by reference.
func (s *FileStore) Read(ctx context.Context, reference string) ([]transform.LogEntry, error) {
	if !validReference(reference) {
		return nil, fmt.Errorf("invalid log reference: %q", reference)
	}

	data, err := os.ReadFile(s.path(reference))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("no log batch with reference %q", reference)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read log batch: %w", err)
	}

	var records []ArchiveRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("corrupt log batch %q: %w", reference, err)
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })
	return fromArchive(records), nil
}

// Scan pages through all stored rows for export, ordered by file name.
func (s *FileStore) Scan(ctx context.Context, offset, limit int) ([]ArchiveRecord, error) {
	names, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list log batches: %w", err)
	}
	sort.Strings(names)

	var all []ArchiveRecord
	for _, name := range names {
		data, err := os.ReadFile(name)
		if err != nil {
			s.logger.Warn("Skipping unreadable log batch", zap.String("file", name), zap.Error(err))
			continue
		}
		var records []ArchiveRecord
		if err := json.Unmarshal(data, &records); err != nil {
			s.logger.Warn("Skipping corrupt log batch", zap.String("file", name), zap.Error(err))
			continue
		}
		all = append(all, records...)
	}

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) path(reference string) string {
	return filepath.Join(s.dir, reference+".json")
}
