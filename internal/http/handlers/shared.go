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
	"cloudstash/internal/shares"
	"cloudstash/internal/storage"
	"cloudstash/internal/store"
)

type SharedHandler struct {
	cfg     *config.Config
	records *store.Store
	blobs   *storage.Paths
	folders *shares.Service
	rd      *Renderer
}

func NewSharedHandler(cfg *config.Config, records *store.Store, blobs *storage.Paths, folders *shares.Service, rd *Renderer) *SharedHandler {
	return &SharedHandler{cfg: cfg, records: records, blobs: blobs, folders: folders, rd: rd}
}

type folderRow struct {
	ID        string
	Name      string
	Owner     string
	IsOwner   bool
	FileCount int
}

type sharedListPage struct {
	Folders []folderRow
	Others  []string
}

// List shows the folders the user belongs to and the candidates to share
// new ones with.
func (h *SharedHandler) List(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.Username(r.Context())

	views := h.folders.ListForUser(username)
	rows := make([]folderRow, 0, len(views))
	for _, v := range views {
		dir := filepath.Join(h.blobs.SharedRoot, v.ID)
		rows = append(rows, folderRow{
			ID:        v.ID,
			Name:      v.Name,
			Owner:     v.Owner,
			IsOwner:   v.IsOwner,
			FileCount: len(fsutil.ListFiles(dir)),
		})
	}

	var others []string
	for _, name := range h.records.AllUsernames() {
		if name != username {
			others = append(others, name)
		}
	}

	h.rd.render(w, r, "shared.html", username, sharedListPage{Folders: rows, Others: others})
}

// Create registers a new shared folder from the form on the listing page.
func (h *SharedHandler) Create(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.Username(r.Context())
	name := r.FormValue("folder_name")
	members := r.Form["shared_with"]

	id, err := h.folders.Create(username, name, members)
	switch {
	case errors.Is(err, shares.ErrEmptyName):
		h.rd.redirect(w, r, "error", "Please enter a folder name.", "/shared")
		return
	case errors.Is(err, shares.ErrNoMembers):
		h.rd.redirect(w, r, "error", "Please select at least one user to share with.", "/shared")
		return
	case err != nil:
		h.rd.failure(w, r, err, "/shared")
		return
	}
	h.rd.redirect(w, r, "success", "Shared folder created successfully!", "/shared/"+id)
}

type sharedFolderPage struct {
	ID         string
	Name       string
	Owner      string
	SharedWith []string
	IsOwner    bool
	Files      []fileView
	FileCount  int
}

// View renders one folder's listing for its members.
func (h *SharedHandler) View(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.Username(r.Context())
	id := mux.Vars(r)["folderID"]

	folder, err := h.folders.Authorize(username, id, shares.RoleMember)
	if err != nil {
		h.denied(w, r, err)
		return
	}
	dir, err := h.blobs.SharedDir(id)
	if err != nil {
		h.rd.failure(w, r, err, "/shared")
		return
	}
	files := fsutil.ListFiles(dir)

	h.rd.render(w, r, "shared_folder.html", username, sharedFolderPage{
		ID:         id,
		Name:       folder.Name,
		Owner:      folder.Owner,
		SharedWith: folder.SharedWith,
		IsOwner:    folder.Owner == username,
		Files:      fileViews(files),
		FileCount:  len(files),
	})
}

// Upload accepts one multipart file into a folder the user belongs to.
// Shared folders draw on no personal quota, only the per-file size cap.
func (h *SharedHandler) Upload(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.Username(r.Context())
	id := mux.Vars(r)["folderID"]
	back := "/shared/" + id

	if _, err := h.folders.Authorize(username, id, shares.RoleMember); err != nil {
		h.denied(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			h.rd.redirect(w, r, "error", "No file selected.", back)
			return
		}
		h.rd.log.Warn().Err(err).Str("user", username).Msg("parse shared upload")
		h.rd.redirect(w, r, "error",
			fmt.Sprintf("Upload failed. Files may not exceed %s.", humanize.IBytes(uint64(h.cfg.MaxUploadBytes))),
			back)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		h.rd.redirect(w, r, "error", "No file selected.", back)
		return
	}
	if !h.cfg.ExtensionAllowed(header.Filename) {
		h.rd.redirect(w, r, "error", "File type not allowed.", back)
		return
	}

	dir, err := h.blobs.SharedDir(id)
	if err != nil {
		h.rd.failure(w, r, err, back)
		return
	}
	name, size, err := h.blobs.SaveUpload(dir, header.Filename, file)
	if err != nil {
		h.rd.failure(w, r, err, back)
		return
	}
	h.records.UpdateUserActivity(username)
	h.rd.redirect(w, r, "success",
		fmt.Sprintf("File %q uploaded (%s).", name, humanize.IBytes(uint64(size))),
		back)
}

// Download streams a file from a folder the user belongs to.
func (h *SharedHandler) Download(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.Username(r.Context())
	vars := mux.Vars(r)
	id := vars["folderID"]

	if _, err := h.folders.Authorize(username, id, shares.RoleMember); err != nil {
		h.denied(w, r, err)
		return
	}
	dir := filepath.Join(h.blobs.SharedRoot, id)
	path, err := h.blobs.Resolve(dir, vars["filename"])
	if err != nil {
		h.rd.redirect(w, r, "error", "File not found.", "/shared/"+id)
		return
	}
	serveAttachment(w, r, path)
}

// DeleteFile removes a file from a folder. Any member may delete; the trust
// boundary is folder membership, not file authorship.
func (h *SharedHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.Username(r.Context())
	vars := mux.Vars(r)
	id := vars["folderID"]
	back := "/shared/" + id

	if _, err := h.folders.Authorize(username, id, shares.RoleMember); err != nil {
		h.denied(w, r, err)
		return
	}
	dir := filepath.Join(h.blobs.SharedRoot, id)
	name := filepath.Base(vars["filename"])
	if err := h.blobs.RemoveFile(dir, name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.rd.redirect(w, r, "error", "File not found.", back)
		} else {
			h.rd.failure(w, r, err, back)
		}
		return
	}
	h.rd.redirect(w, r, "success", fmt.Sprintf("File %q deleted.", name), back)
}

// DeleteFolder tears down a whole folder, owner only.
func (h *SharedHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.Username(r.Context())
	id := mux.Vars(r)["folderID"]

	folder, err := h.folders.Authorize(username, id, shares.RoleOwner)
	if err != nil {
		h.denied(w, r, err)
		return
	}
	if err := h.folders.Delete(username, id); err != nil {
		if errors.Is(err, shares.ErrAccessDenied) || errors.Is(err, shares.ErrNotOwner) {
			h.denied(w, r, err)
		} else {
			h.rd.failure(w, r, err, "/shared")
		}
		return
	}
	h.rd.redirect(w, r, "success", fmt.Sprintf("Shared folder %q deleted.", folder.Name), "/shared")
}

// denied maps authorization failures to flashes without leaking whether the
// folder exists.
func (h *SharedHandler) denied(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, shares.ErrNotOwner) {
		h.rd.redirect(w, r, "error", "Only the folder owner can delete this folder.", "/shared")
		return
	}
	h.rd.redirect(w, r, "error", "You do not have access to this folder.", "/shared")
}
