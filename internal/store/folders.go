package store

import (
	"sort"
	"time"

	"cloudstash/internal/models"
)

// CreateSharedFolder persists folder metadata under id.
func (s *Store) CreateSharedFolder(id, name, owner string, sharedWith []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.load()
	doc.SharedFolders[id] = models.SharedFolder{
		Name:       name,
		Owner:      owner,
		SharedWith: sharedWith,
		CreatedAt:  time.Now(),
	}
	return s.save(doc)
}

// GetSharedFolder looks up one folder record.
func (s *Store) GetSharedFolder(id string) (models.SharedFolder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.load()
	f, ok := doc.SharedFolders[id]
	return f, ok
}

// GetUserSharedFolders returns every folder username owns or is shared into,
// annotated with ownership and sorted by name for stable listings.
func (s *Store) GetUserSharedFolders(username string) []models.FolderView {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.load()
	var views []models.FolderView
	for id, f := range doc.SharedFolders {
		if !f.Accessible(username) {
			continue
		}
		views = append(views, models.FolderView{
			ID:         id,
			Name:       f.Name,
			Owner:      f.Owner,
			SharedWith: f.SharedWith,
			IsOwner:    f.Owner == username,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return views
}

// DeleteSharedFolder removes the metadata record and reports whether it was
// there.
func (s *Store) DeleteSharedFolder(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.load()
	if _, ok := doc.SharedFolders[id]; !ok {
		return false, nil
	}
	delete(doc.SharedFolders, id)
	return true, s.save(doc)
}

// CanAccessFolder reports whether username may read folder id. A folder that
// does not exist is simply not accessible.
func (s *Store) CanAccessFolder(username, id string) bool {
	f, ok := s.GetSharedFolder(id)
	return ok && f.Accessible(username)
}
