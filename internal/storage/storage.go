// Package storage manages the on-disk blob areas: a per-user directory tree
// under the upload root and a per-folder tree under the shared root. File
// contents live here; the record store only ever holds metadata.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cloudstash/internal/fsutil"
)

var (
	// ErrQuotaExceeded denies an upload that would push usage past the limit.
	ErrQuotaExceeded = errors.New("not enough storage space")
	// ErrNotFound reports a missing file.
	ErrNotFound = errors.New("file not found")
)

// Paths locates the two blob store roots.
type Paths struct {
	UserRoot   string
	SharedRoot string
}

// New makes sure both roots exist and returns their handle.
func New(userRoot, sharedRoot string) (*Paths, error) {
	if _, err := fsutil.EnsureDir(userRoot); err != nil {
		return nil, fmt.Errorf("user storage root: %w", err)
	}
	if _, err := fsutil.EnsureDir(sharedRoot); err != nil {
		return nil, fmt.Errorf("shared storage root: %w", err)
	}
	return &Paths{UserRoot: userRoot, SharedRoot: sharedRoot}, nil
}

// UserDir returns username's storage directory, creating it on first use.
// Usernames are restricted to a safe character set at registration, so the
// join cannot escape the root.
func (p *Paths) UserDir(username string) (string, error) {
	return fsutil.EnsureDir(filepath.Join(p.UserRoot, username))
}

// SharedDir returns the backing directory for a folder id, creating it on
// first use. Folder ids are server-generated hex and never user input.
func (p *Paths) SharedDir(folderID string) (string, error) {
	return fsutil.EnsureDir(filepath.Join(p.SharedRoot, folderID))
}

// CheckQuota denies an incoming file when used+incoming would exceed limit.
// Landing exactly on the limit is allowed.
func CheckQuota(used, incoming, limit int64) error {
	if used+incoming > limit {
		return ErrQuotaExceeded
	}
	return nil
}

// SaveUpload streams src into dir under a collision-free sanitized name and
// reports the final name and byte count. A failed write removes the partial
// file.
func (p *Paths) SaveUpload(dir, originalName string, src io.Reader) (string, int64, error) {
	name := fsutil.UniqueName(dir, originalName)
	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create upload: %w", err)
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("write upload: %w", err)
	}
	return name, n, nil
}

// Resolve returns the on-disk path of name inside dir, reducing name to its
// last path component first so request input cannot climb out of dir.
// ErrNotFound covers both a missing entry and anything that is not a regular
// file.
func (p *Paths) Resolve(dir, name string) (string, error) {
	path := filepath.Join(dir, filepath.Base(name))
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", ErrNotFound
	}
	return path, nil
}

// RemoveFile deletes name (basename only) from dir.
func (p *Paths) RemoveFile(dir, name string) error {
	path, err := p.Resolve(dir, name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}
