// Package shares owns the shared-folder lifecycle: metadata records in the
// store plus the backing directory tree, kept consistent with each other.
package shares

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cloudstash/internal/models"
	"cloudstash/internal/storage"
	"cloudstash/internal/store"
)

// Role is the access level an operation demands.
type Role int

const (
	// RoleMember admits the owner and anyone in the shared-with set.
	RoleMember Role = iota
	// RoleOwner admits the owner only.
	RoleOwner
)

var (
	// ErrAccessDenied covers both a missing folder and a caller outside the
	// member set, so responses never reveal whether a folder id exists.
	ErrAccessDenied = errors.New("no access to this folder")
	// ErrNotOwner rejects owner-only operations from plain members.
	ErrNotOwner = errors.New("only the folder owner may do this")
	// ErrEmptyName rejects creation without a folder name.
	ErrEmptyName = errors.New("folder name required")
	// ErrNoMembers rejects creation without anyone to share with.
	ErrNoMembers = errors.New("no users selected to share with")
)

// Service ties folder records to their directories.
type Service struct {
	records *store.Store
	blobs   *storage.Paths
}

func NewService(records *store.Store, blobs *storage.Paths) *Service {
	return &Service{records: records, blobs: blobs}
}

// newFolderID returns a 128-bit random token in hex. Unguessable ids are
// part of the access control: they appear in URLs shared between members.
func newFolderID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Create registers a folder owned by owner, shared with sharedWith, and
// creates its backing directory. The owner is a member implicitly and gets
// dropped from the shared-with set, as do blanks and duplicates.
func (s *Service) Create(owner, name string, sharedWith []string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	seen := map[string]bool{}
	members := make([]string, 0, len(sharedWith))
	for _, m := range sharedWith {
		m = strings.TrimSpace(m)
		if m == "" || m == owner || seen[m] {
			continue
		}
		seen[m] = true
		members = append(members, m)
	}
	if len(members) == 0 {
		return "", ErrNoMembers
	}

	id, err := newFolderID()
	if err != nil {
		return "", fmt.Errorf("folder id: %w", err)
	}
	if err := s.records.CreateSharedFolder(id, name, owner, members); err != nil {
		return "", err
	}
	if _, err := s.blobs.SharedDir(id); err != nil {
		return "", fmt.Errorf("folder directory: %w", err)
	}
	return id, nil
}

// Authorize resolves folderID for username at the given role. A missing
// folder and a non-member are indistinguishable; only a member attempting an
// owner-only operation learns the folder exists.
func (s *Service) Authorize(username, folderID string, role Role) (models.SharedFolder, error) {
	f, ok := s.records.GetSharedFolder(folderID)
	if !ok || !f.Accessible(username) {
		return models.SharedFolder{}, ErrAccessDenied
	}
	if role == RoleOwner && f.Owner != username {
		return models.SharedFolder{}, ErrNotOwner
	}
	return f, nil
}

// Delete tears a folder down for its owner: the backing directory goes
// first, then the metadata record, so a failed removal never leaves a record
// pointing at surviving files.
func (s *Service) Delete(username, folderID string) error {
	if _, err := s.Authorize(username, folderID, RoleOwner); err != nil {
		return err
	}
	dir := filepath.Join(s.blobs.SharedRoot, folderID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove folder directory: %w", err)
	}
	removed, err := s.records.DeleteSharedFolder(folderID)
	if err != nil {
		return fmt.Errorf("remove folder record: %w", err)
	}
	if !removed {
		return ErrAccessDenied
	}
	return nil
}

// ListForUser returns the folders username may see, annotated with
// ownership.
func (s *Service) ListForUser(username string) []models.FolderView {
	return s.records.GetUserSharedFolders(username)
}
