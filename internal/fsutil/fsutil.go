// Package fsutil holds the filesystem helpers shared by the personal and
// shared storage areas: directory sizing, listings, and filename sanitizing.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// FileInfo describes one regular file in a directory listing.
type FileInfo struct {
	Name     string
	Size     int64
	Modified time.Time
}

// EnsureDir creates dir and any missing parents, then returns dir.
func EnsureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure directory %s: %w", dir, err)
	}
	return dir, nil
}

// DirSize returns the total size in bytes of the regular files under dir,
// recursively. A missing directory counts as zero, and symbolic links are
// never followed or counted, so a link cannot inflate the total or pull in
// files outside the tree.
func DirSize(dir string) int64 {
	var total int64
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	return total
}

// ListFiles returns the regular files directly inside dir, sorted by name.
// A missing or unreadable directory yields an empty listing.
func ListFiles(dir string) []FileInfo {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []FileInfo
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:     e.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	return files
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Filesystems cap an entry name at 255 bytes. 240 leaves room for a
// disambiguator suffix, and sanitized names are plain ASCII, so truncating
// at a byte count cannot split a character.
const maxNameLen = 240

// SafeFilename reduces name to a single path component that cannot escape
// its parent directory. Everything up to the last separator of either
// convention is dropped, NUL bytes are removed, characters outside
// [A-Za-z0-9._-] become underscores, and leading dots are stripped so the
// result is never "." or "..". An empty result becomes "file", and an
// overlong base is truncated so the name stays creatable. When n > 0 a
// numeric disambiguator is appended before the extension.
func SafeFilename(name string, n int) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ReplaceAll(name, "\x00", "")
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		name = "file"
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if len(ext) > maxNameLen/2 {
		base, ext = name, ""
	}
	if len(base) > maxNameLen-len(ext) {
		base = base[:maxNameLen-len(ext)]
	}
	if n > 0 {
		return fmt.Sprintf("%s_%d%s", base, n, ext)
	}
	return base + ext
}

// UniqueName sanitizes originalName and, if that name is already taken in
// dir, tries successive disambiguators until a free one is found. The loop
// runs only while candidates keep existing, so it ends after at most one
// stat per directory entry; a name whose stat fails for any other reason
// comes back as-is and the create call reports the real error.
func UniqueName(dir, originalName string) string {
	name := SafeFilename(originalName, 0)
	for n := 1; ; n++ {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return name
		}
		name = SafeFilename(originalName, n)
	}
}
