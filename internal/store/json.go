package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/moverscan/internal/model"
)

// JSONStore persists the record set as a single JSON array at a fixed path.
// Saves are atomic: the new document is written to a temp file in the same
// directory and renamed over the old one.
type JSONStore struct {
	path string
}

// NewJSON creates a JSONStore backed by the file at path. The parent
// directory is created if missing.
func NewJSON(path string) (*JSONStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, eris.Wrapf(err, "json store: mkdir %s", filepath.Dir(path))
	}
	return &JSONStore{path: path}, nil
}

func (s *JSONStore) LoadAll(_ context.Context) ([]model.CompanyRecord, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []model.CompanyRecord{}, nil
	}
	if err != nil {
		return nil, &CorruptStoreError{Path: s.path, Err: err}
	}

	var records []model.CompanyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &CorruptStoreError{Path: s.path, Err: err}
	}
	return records, nil
}

func (s *JSONStore) SaveAll(_ context.Context, records []model.CompanyRecord) error {
	if records == nil {
		records = []model.CompanyRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return eris.Wrap(err, "json store: marshal records")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".companies-*.json")
	if err != nil {
		return eris.Wrap(err, "json store: create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "json store: write temp file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "json store: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "json store: close temp file")
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrapf(err, "json store: rename to %s", s.path)
	}
	return nil
}

func (s *JSONStore) Close() error { return nil }
