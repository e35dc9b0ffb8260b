package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
)

// ==================== Project Store ====================

// projectStore implements driven.ProjectStore.
type projectStore struct {
	store *Store
}

var _ driven.ProjectStore = (*projectStore)(nil)

// CreateProject creates a project.
func (s *projectStore) CreateProject(ctx context.Context, name string) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("project name: %w", domain.ErrInvalidInput)
	}

	res, err := s.store.writer.ExecContext(ctx,
		`INSERT INTO projects (name, created_at) VALUES (?, ?)`, name, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err, "projects.name") {
			return 0, fmt.Errorf("project %q: %w", name, domain.ErrDuplicateName)
		}
		return 0, fmt.Errorf("inserting project: %w", err)
	}
	return res.LastInsertId()
}

// ListProjects returns all projects.
func (s *projectStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := s.store.reader.QueryContext(ctx, `SELECT id, name, created_at FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var out []domain.Project
	for rows.Next() {
		var p domain.Project
		var createdAt sql.NullTime
		if err := rows.Scan(&p.ID, &p.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		p.CreatedAt = timeOrZero(createdAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateFolder creates a folder under a project, optionally nested in parentID.
func (s *projectStore) CreateFolder(ctx context.Context, projectID, parentID int64, name string) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("folder name: %w", domain.ErrInvalidInput)
	}

	if parentID != 0 {
		parent, err := s.GetFolder(ctx, parentID)
		if err != nil {
			return 0, fmt.Errorf("parent folder %d: %w", parentID, err)
		}
		if parent.ProjectID != projectID {
			return 0, fmt.Errorf("parent folder %d belongs to another project: %w", parentID, domain.ErrInvalidInput)
		}
	}

	res, err := s.store.writer.ExecContext(ctx, `
		INSERT INTO folders (project_id, parent_id, name, created_at) VALUES (?, ?, ?, ?)
	`, projectID, nullInt64(parentID), name, time.Now().UTC())
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return 0, fmt.Errorf("project %d: %w", projectID, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("inserting folder: %w", err)
	}
	return res.LastInsertId()
}

// GetFolder retrieves a folder by ID.
func (s *projectStore) GetFolder(ctx context.Context, id int64) (*domain.Folder, error) {
	row := s.store.reader.QueryRowContext(ctx,
		`SELECT id, project_id, parent_id, name, created_at FROM folders WHERE id = ?`, id)
	return scanFolder(row)
}

// ListFolders returns the folders of a project.
func (s *projectStore) ListFolders(ctx context.Context, projectID int64) ([]domain.Folder, error) {
	rows, err := s.store.reader.QueryContext(ctx, `
		SELECT id, project_id, parent_id, name, created_at FROM folders WHERE project_id = ? ORDER BY id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying folders: %w", err)
	}
	defer rows.Close()

	var out []domain.Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// CreateFile records a remote file reference.
func (s *projectStore) CreateFile(ctx context.Context, name string, folderID int64, url, description string) (int64, error) {
	now := time.Now().UTC()
	res, err := s.store.writer.ExecContext(ctx, `
		INSERT INTO files (folder_id, name, url, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, folderID, name, url, description, now, now)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return 0, fmt.Errorf("folder %d: %w", folderID, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("inserting file: %w", err)
	}
	return res.LastInsertId()
}

// GetFile retrieves a file by ID.
func (s *projectStore) GetFile(ctx context.Context, id int64) (*domain.File, error) {
	row := s.store.reader.QueryRowContext(ctx, `
		SELECT id, folder_id, name, url, description, created_at, updated_at FROM files WHERE id = ?
	`, id)
	return scanFile(row)
}

// UpdateFileSummary sets a file's description.
func (s *projectStore) UpdateFileSummary(ctx context.Context, id int64, summary string) error {
	res, err := s.store.writer.ExecContext(ctx,
		`UPDATE files SET description = ?, updated_at = ? WHERE id = ?`, summary, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating file: %w", err)
	}
	return expectOneRow(res)
}

// ListFiles returns the files in a folder.
func (s *projectStore) ListFiles(ctx context.Context, folderID int64) ([]domain.File, error) {
	rows, err := s.store.reader.QueryContext(ctx, `
		SELECT id, folder_id, name, url, description, created_at, updated_at
		FROM files WHERE folder_id = ? ORDER BY id
	`, folderID)
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	defer rows.Close()

	var out []domain.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// DeleteFile removes a file reference.
func (s *projectStore) DeleteFile(ctx context.Context, id int64) error {
	res, err := s.store.writer.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return expectOneRow(res)
}

func scanFolder(row rowScanner) (*domain.Folder, error) {
	var f domain.Folder
	var parentID sql.NullInt64
	var createdAt sql.NullTime
	if err := row.Scan(&f.ID, &f.ProjectID, &parentID, &f.Name, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning folder: %w", err)
	}
	f.ParentID = parentID.Int64
	f.CreatedAt = timeOrZero(createdAt)
	return &f, nil
}

func scanFile(row rowScanner) (*domain.File, error) {
	var f domain.File
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&f.ID, &f.FolderID, &f.Name, &f.URL, &f.Description, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning file: %w", err)
	}
	f.CreatedAt = timeOrZero(createdAt)
	f.UpdatedAt = timeOrZero(updatedAt)
	return &f, nil
}
