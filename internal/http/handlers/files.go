package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"

	"cloudstash/internal/config"
	"cloudstash/internal/fsutil"
	"cloudstash/internal/http/middleware"
	"cloudstash/internal/storage"
	"cloudstash/internal/store"
)

type FileHandler struct {
	cfg     *config.Config
	records *store.Store
	blobs   *storage.Paths
	rd      *Renderer
}

func NewFileHandler(cfg *config.Config, records *store.Store, blobs *storage.Paths, rd *Renderer) *FileHandler {
	return &FileHandler{cfg: cfg, records: records, blobs: blobs, rd: rd}
}

// fileView is one listing row with humanized fields for the templates.
type fileView struct {
	Name     string
	Size     string
	Modified string
}

func fileViews(files []fsutil.FileInfo) []fileView {
	views := make([]fileView, 0, len(files))
	for _, f := range files {
		views = append(views, fileView{
			Name:     f.Name,
			Size:     humanize.IBytes(uint64(f.Size)),
			Modified: f.Modified.Format("2006-01-02 15:04"),
		})
	}
	return views
}

type storagePage struct {
	Files          []fileView
	FileCount      int
	StorageUsed    string
	StorageLimit   string
	StoragePercent float64
}

// Storage renders the personal file listing. Usage comes from a fresh
// directory scan; the scan result also refreshes the cached snapshot in the
// record store, which is display-only.
func (h *FileHandler) Storage(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.Username(r.Context())
	dir, err := h.blobs.UserDir(username)
	if err != nil {
		h.rd.log.Error().Err(err).Str("user", username).Msg("open storage directory")
		h.rd.render(w, r, "storage.html", username, storagePage{})
		return
	}

	files := fsutil.ListFiles(dir)
	used := fsutil.DirSize(dir)
	limit := h.userLimit(username)
	percent := float64(0)
	if limit > 0 {
		percent = float64(used) / float64(limit) * 100
	}
	h.records.UpdateUserStorage(username, used)

	h.rd.render(w, r, "storage.html", username, storagePage{
		Files:          fileViews(files),
		FileCount:      len(files),
		StorageUsed:    humanize.IBytes(uint64(used)),
		StorageLimit:   humanize.IBytes(uint64(limit)),
		StoragePercent: percent,
	})
}

func (h *FileHandler) userLimit(username string) int64 {
	if u, ok := h.records.GetUser(username); ok && u.StorageLimit > 0 {
		return u.StorageLimit
	}
	return h.cfg.StorageLimitBytes()
}

// Upload accepts one multipart file into the personal area. The quota check
// runs against a fresh directory scan, never the cached usage value.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.Username(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			h.rd.redirect(w, r, "error", "No file selected.", "/storage")
			return
		}
		h.rd.log.Warn().Err(err).Str("user", username).Msg("parse upload")
		h.rd.redirect(w, r, "error",
			fmt.Sprintf("Upload failed. Files may not exceed %s.", humanize.IBytes(uint64(h.cfg.MaxUploadBytes))),
			"/storage")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		h.rd.redirect(w, r, "error", "No file selected.", "/storage")
		return
	}
	if !h.cfg.ExtensionAllowed(header.Filename) {
		h.rd.redirect(w, r, "error", "File type not allowed.", "/storage")
		return
	}

	dir, err := h.blobs.UserDir(username)
	if err != nil {
		h.rd.failure(w, r, err, "/storage")
		return
	}
	used := fsutil.DirSize(dir)
	if err := storage.CheckQuota(used, header.Size, h.userLimit(username)); err != nil {
		h.rd.redirect(w, r, "error", "Not enough storage space.", "/storage")
		return
	}

	name, size, err := h.blobs.SaveUpload(dir, header.Filename, file)
	if err != nil {
		h.rd.failure(w, r, err, "/storage")
		return
	}
	h.records.UpdateUserActivity(username)
	h.rd.redirect(w, r, "success",
		fmt.Sprintf("File %q uploaded successfully (%s).", name, humanize.IBytes(uint64(size))),
		"/storage")
}

// Download streams one of the user's own files as an attachment.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.Username(r.Context())
	dir, err := h.blobs.UserDir(username)
	if err != nil {
		h.rd.failure(w, r, err, "/storage")
		return
	}
	path, err := h.blobs.Resolve(dir, mux.Vars(r)["filename"])
	if err != nil {
		h.rd.redirect(w, r, "error", "File not found.", "/storage")
		return
	}
	serveAttachment(w, r, path)
}

// Delete removes one of the user's own files.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.Username(r.Context())
	dir, err := h.blobs.UserDir(username)
	if err != nil {
		h.rd.failure(w, r, err, "/storage")
		return
	}
	name := filepath.Base(mux.Vars(r)["filename"])
	if err := h.blobs.RemoveFile(dir, name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.rd.redirect(w, r, "error", "File not found.", "/storage")
		} else {
			h.rd.failure(w, r, err, "/storage")
		}
		return
	}
	h.rd.redirect(w, r, "success", fmt.Sprintf("File %q deleted.", name), "/storage")
}

type accountPage struct {
	Email        string
	MemberSince  string
	LastActive   string
	StorageUsed  string
	StorageLimit string
	FileCount    int
}

// Account shows profile and usage details.
func (h *FileHandler) Account(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.Username(r.Context())
	user, ok := h.records.GetUser(username)
	if !ok {
		h.rd.redirect(w, r, "error", "Account not found.", "/login")
		return
	}
	dir, err := h.blobs.UserDir(username)
	if err != nil {
		h.rd.failure(w, r, err, "/storage")
		return
	}
	used := fsutil.DirSize(dir)
	h.records.UpdateUserStorage(username, used)

	h.rd.render(w, r, "account.html", username, accountPage{
		Email:        user.Email,
		MemberSince:  user.CreatedAt.Format("2006-01-02"),
		LastActive:   user.LastActive.Format("2006-01-02 15:04"),
		StorageUsed:  humanize.IBytes(uint64(used)),
		StorageLimit: humanize.IBytes(uint64(h.userLimit(username))),
		FileCount:    len(fsutil.ListFiles(dir)),
	})
}

// serveAttachment forces a download rather than inline rendering, which
// also keeps uploaded HTML from executing in the app's origin.
func serveAttachment(w http.ResponseWriter, r *http.Request, path string) {
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeFile(w, r, path)
}
