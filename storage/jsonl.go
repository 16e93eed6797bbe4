package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// JSONLStore appends one JSON object per line to a log file.
type JSONLStore struct {
	path string
}

func NewJSONLStore(path string) *JSONLStore {
	return &JSONLStore{path: path}
}

func (s *JSONLStore) Path() string {
	return s.path
}

func (s *JSONLStore) AppendRecord(_ context.Context, record *RunRecord) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
	}

	// keep non-ASCII and <>& as-is; Encode adds the trailing newline
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(record); err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	if _, err = f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing log file: %w", err)
	}
	return f.Close()
}

func (s *JSONLStore) Close() error {
	return nil
}
