// SPDX-License-Identifier: AGPL-3.0-or-later

// Package version persists version records and computes the next one.
package version

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/bartekus/ota-publish/internal/model"
)

// Store reads and writes the version file.
type Store struct {
	fs   afero.Fs
	path string
}

// NewStore creates a store for the version file at path.
func NewStore(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Path returns the version file path.
func (s *Store) Path() string { return s.path }

// Read loads the record. A missing file is a clean state and returns nil.
func (s *Store) Read() (*model.VersionRecord, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading version file: %w", err)
	}
	var rec model.VersionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding version file %s: %w", s.path, err)
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid version file %s: %w", s.path, err)
	}
	return &rec, nil
}

// Write replaces the version file with rec.
func (s *Store) Write(rec model.VersionRecord) error {
	content, err := Encode(rec)
	if err != nil {
		return err
	}
	return atomicWrite(s.fs, s.path, content)
}

// Encode renders rec the way Write stores it.
func Encode(rec model.VersionRecord) ([]byte, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("encoding version record: %w", err)
	}
	return buf.Bytes(), nil
}

// atomicWrite writes content to a temp file beside path and renames it into place.
func atomicWrite(fs afero.Fs, path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(fs, dir, ".ota-version-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = fs.Remove(tmp.Name()) }()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := fs.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", tmp.Name(), err)
	}
	if err := fs.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("moving temp file to %s: %w", path, err)
	}
	return nil
}
