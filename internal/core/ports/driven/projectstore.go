package driven

import (
	"context"

	"github.com/custodia-labs/tether/internal/core/domain"
)

// ProjectStore persists the project, folder and file hierarchy.
// The orchestrator only needs CreateFile, GetFile and UpdateFileSummary;
// the remaining methods back the CLI.
type ProjectStore interface {
	// CreateFile records a remote file in a folder and returns its ID.
	CreateFile(ctx context.Context, name string, folderID int64, url, description string) (int64, error)

	// GetFile retrieves a file by ID. Returns domain.ErrNotFound if absent.
	GetFile(ctx context.Context, id int64) (*domain.File, error)

	// UpdateFileSummary sets a file's description.
	UpdateFileSummary(ctx context.Context, id int64, summary string) error

	// ListFiles returns files in a folder ordered by ID.
	ListFiles(ctx context.Context, folderID int64) ([]domain.File, error)

	// DeleteFile removes a file record.
	DeleteFile(ctx context.Context, id int64) error

	// CreateProject creates a project and returns its ID.
	CreateProject(ctx context.Context, name string) (int64, error)

	// ListProjects returns all projects ordered by ID.
	ListProjects(ctx context.Context) ([]domain.Project, error)

	// CreateFolder creates a folder. parentID is zero for a top-level folder.
	CreateFolder(ctx context.Context, projectID, parentID int64, name string) (int64, error)

	// GetFolder retrieves a folder by ID. Returns domain.ErrNotFound if absent.
	GetFolder(ctx context.Context, id int64) (*domain.Folder, error)

	// ListFolders returns the folders of a project ordered by ID.
	ListFolders(ctx context.Context, projectID int64) ([]domain.Folder, error)
}
