package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
)

// Ensure ProjectStore implements the interface.
var _ driven.ProjectStore = (*ProjectStore)(nil)

// ProjectStore is an in-memory implementation of driven.ProjectStore.
type ProjectStore struct {
	mu       sync.RWMutex
	nextID   int64
	projects map[int64]domain.Project
	folders  map[int64]domain.Folder
	files    map[int64]domain.File
}

// NewProjectStore creates a new in-memory project store.
func NewProjectStore() *ProjectStore {
	return &ProjectStore{
		projects: make(map[int64]domain.Project),
		folders:  make(map[int64]domain.Folder),
		files:    make(map[int64]domain.File),
	}
}

// CreateProject creates a project.
func (s *ProjectStore) CreateProject(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" {
		return 0, domain.ErrInvalidInput
	}
	for _, p := range s.projects {
		if p.Name == name {
			return 0, fmt.Errorf("project %q: %w", name, domain.ErrDuplicateName)
		}
	}
	s.nextID++
	s.projects[s.nextID] = domain.Project{ID: s.nextID, Name: name, CreatedAt: time.Now()}
	return s.nextID, nil
}

// ListProjects returns all projects.
func (s *ProjectStore) ListProjects(_ context.Context) ([]domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateFolder creates a folder.
func (s *ProjectStore) CreateFolder(_ context.Context, projectID, parentID int64, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" {
		return 0, domain.ErrInvalidInput
	}
	if _, ok := s.projects[projectID]; !ok {
		return 0, fmt.Errorf("project %d: %w", projectID, domain.ErrNotFound)
	}
	if parentID != 0 {
		parent, ok := s.folders[parentID]
		if !ok {
			return 0, fmt.Errorf("parent folder %d: %w", parentID, domain.ErrNotFound)
		}
		if parent.ProjectID != projectID {
			return 0, domain.ErrInvalidInput
		}
	}
	s.nextID++
	s.folders[s.nextID] = domain.Folder{
		ID: s.nextID, ProjectID: projectID, ParentID: parentID, Name: name, CreatedAt: time.Now(),
	}
	return s.nextID, nil
}

// GetFolder retrieves a folder.
func (s *ProjectStore) GetFolder(_ context.Context, id int64) (*domain.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.folders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &f, nil
}

// ListFolders returns a project's folders.
func (s *ProjectStore) ListFolders(_ context.Context, projectID int64) ([]domain.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Folder
	for _, f := range s.folders {
		if f.ProjectID == projectID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateFile records a file reference.
func (s *ProjectStore) CreateFile(_ context.Context, name string, folderID int64, url, description string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.folders[folderID]; !ok {
		return 0, fmt.Errorf("folder %d: %w", folderID, domain.ErrNotFound)
	}
	s.nextID++
	now := time.Now()
	s.files[s.nextID] = domain.File{
		ID: s.nextID, FolderID: folderID, Name: name, URL: url, Description: description,
		CreatedAt: now, UpdatedAt: now,
	}
	return s.nextID, nil
}

// GetFile retrieves a file.
func (s *ProjectStore) GetFile(_ context.Context, id int64) (*domain.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &f, nil
}

// UpdateFileSummary sets a file's description.
func (s *ProjectStore) UpdateFileSummary(_ context.Context, id int64, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return domain.ErrNotFound
	}
	f.Description = summary
	f.UpdatedAt = time.Now()
	s.files[id] = f
	return nil
}

// ListFiles returns files in a folder.
func (s *ProjectStore) ListFiles(_ context.Context, folderID int64) ([]domain.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.File
	for _, f := range s.files {
		if f.FolderID == folderID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteFile removes a file reference.
func (s *ProjectStore) DeleteFile(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.files, id)
	return nil
}

// FileCount returns the number of stored files. Test helper.
func (s *ProjectStore) FileCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
