// go-em410x
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-em410x.
//
// go-em410x is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-em410x is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-em410x; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package store persists captured identifiers as an append-only sequence of
// 5-byte big-endian records without delimiters.
package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"

	em410x "github.com/ZaparooProject/go-em410x"
)

// DefaultName is the store name used by the standalone mode.
const DefaultName = "emdump"

// ErrTruncatedRecord is returned when a store ends with a partial record.
var ErrTruncatedRecord = errors.New("store ends with a truncated record")

// Store receives captured identifiers.
type Store interface {
	Append(id em410x.ID) error
}

// FileStore keeps one named store as a file in a directory.
type FileStore struct {
	dir  string
	name string
	mu   sync.Mutex
}

// NewFileStore returns a store for dir/name. Nothing is created until the
// first Append.
func NewFileStore(dir, name string) *FileStore {
	if name == "" {
		name = DefaultName
	}
	return &FileStore{dir: dir, name: name}
}

// Path returns the file backing the store.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, s.name)
}

// Append writes the record for id. The store is created on first use and
// appended to afterwards.
func (s *FileStore) Append(id em410x.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, created, err := s.open()
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := lockFile(f); err != nil {
		return fmt.Errorf("failed to lock %s: %w", s.Path(), err)
	}
	defer func() { _ = unlockFile(f) }()

	rec := id.Bytes()
	if _, err := f.Write(rec[:]); err != nil {
		return fmt.Errorf("failed to write record to %s: %w", s.Path(), err)
	}

	log.WithFields(log.Fields{
		"store":   s.Path(),
		"id":      id,
		"created": created,
	}).Debug("identifier persisted")
	return nil
}

func (s *FileStore) open() (*os.File, bool, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, false, fmt.Errorf("failed to create store directory: %w", err)
	}

	f, err := os.OpenFile(s.Path(), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err == nil {
		return f, true, nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return nil, false, fmt.Errorf("failed to create %s: %w", s.Path(), err)
	}

	f, err = os.OpenFile(s.Path(), os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open %s: %w", s.Path(), err)
	}
	return f, false, nil
}

// ReadAll returns every record in the store. A missing store is empty.
func (s *FileStore) ReadAll() ([]em410x.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Path(), err)
	}
	return ParseRecords(data)
}

// ParseRecords splits data into identifiers. With a trailing partial record
// the complete records are returned together with ErrTruncatedRecord.
func ParseRecords(data []byte) ([]em410x.ID, error) {
	ids := make([]em410x.ID, 0, len(data)/em410x.IDBytes)
	for len(data) >= em410x.IDBytes {
		id, err := em410x.IDFromBytes(data[:em410x.IDBytes])
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
		data = data[em410x.IDBytes:]
	}
	if len(data) != 0 {
		return ids, ErrTruncatedRecord
	}
	return ids, nil
}

// Dump writes one line of ten hex digits per identifier.
func Dump(w io.Writer, ids []em410x.ID) error {
	for _, id := range ids {
		if _, err := fmt.Fprintln(w, id); err != nil {
			return err
		}
	}
	return nil
}
