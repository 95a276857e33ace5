// Package store is the flat-file record store: one JSON document holding
// every user and shared-folder record. Each mutation loads the document,
// applies the change, and writes the whole thing back, with the previous
// generation kept in a .backup sibling.
package store

import (
	"encoding/json"
	"errors"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"cloudstash/internal/models"
)

var (
	// ErrDuplicateUser rejects registration under a taken username.
	ErrDuplicateUser = errors.New("username already exists")
	// ErrUserCapacity rejects registration once the account cap is reached.
	ErrUserCapacity = errors.New("maximum number of users reached")
)

// Store serializes all document access behind a process-wide mutex. A second
// process writing the same file is still last-writer-wins at the file level,
// which is the accepted limit at this scale.
type Store struct {
	path     string
	maxUsers int
	mu       sync.Mutex
	log      zerolog.Logger
}

// Open returns a store over path, creating the backing file with an empty
// document when it does not exist yet.
func Open(path string, maxUsers int, log zerolog.Logger) (*Store, error) {
	s := &Store{path: path, maxUsers: maxUsers, log: log}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.save(models.EmptyDocument()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// load parses the document. A missing or corrupt file is reinitialized to an
// empty document rather than failing the caller; the previous bytes, if any,
// are still in the .backup sibling.
func (s *Store) load() models.Document {
	b, err := os.ReadFile(s.path)
	if err == nil {
		var doc models.Document
		if jsonErr := json.Unmarshal(b, &doc); jsonErr == nil {
			if doc.Users == nil {
				doc.Users = map[string]models.User{}
			}
			if doc.SharedFolders == nil {
				doc.SharedFolders = map[string]models.SharedFolder{}
			}
			return doc
		}
		s.log.Warn().Str("path", s.path).Msg("record store unreadable, reinitializing")
	}
	doc := models.EmptyDocument()
	if err := s.save(doc); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("reinitialize record store")
	}
	return doc
}

// save copies the current file to its .backup sibling, then rewrites the
// document pretty-printed through a temp file and rename. A failed backup is
// logged and never blocks the write.
func (s *Store) save(doc models.Document) error {
	if prev, err := os.ReadFile(s.path); err == nil {
		if err := os.WriteFile(s.path+".backup", prev, 0o644); err != nil {
			s.log.Warn().Err(err).Str("path", s.path).Msg("record store backup failed")
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
