package models

import (
	"slices"
	"time"
)

// User is a registered account as persisted in the record store. The JSON
// field names are the on-disk format; existing stores must keep loading, so
// they never change.
type User struct {
	Email        string    `json:"email"`
	Salt         string    `json:"salt"`
	PasswordHash string    `json:"password"`
	CreatedAt    time.Time `json:"created_at"`
	LastActive   time.Time `json:"last_active"`
	StorageUsed  int64     `json:"storage_used"`
	StorageLimit int64     `json:"storage_limit"`
}

// SharedFolder is the metadata record for one shared folder. The backing
// directory lives under the shared storage root, named by the folder id.
type SharedFolder struct {
	Name       string    `json:"name"`
	Owner      string    `json:"owner"`
	SharedWith []string  `json:"shared_with"`
	CreatedAt  time.Time `json:"created_at"`
}

// Accessible reports whether username is the owner or in the shared-with set.
func (f SharedFolder) Accessible(username string) bool {
	return f.Owner == username || slices.Contains(f.SharedWith, username)
}

// FolderView is a shared folder annotated for a particular viewer.
type FolderView struct {
	ID         string
	Name       string
	Owner      string
	SharedWith []string
	IsOwner    bool
}

// Document is the whole record store: every user and shared folder, keyed by
// username and folder id.
type Document struct {
	Users         map[string]User         `json:"users"`
	SharedFolders map[string]SharedFolder `json:"shared_folders"`
}

// EmptyDocument returns a document with both maps allocated.
func EmptyDocument() Document {
	return Document{
		Users:         map[string]User{},
		SharedFolders: map[string]SharedFolder{},
	}
}
