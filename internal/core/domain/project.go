package domain

import "time"

// Project is the root of a folder hierarchy.
type Project struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Folder groups files within a project. ParentID is zero for top-level folders.
type Folder struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	ParentID  int64     `json:"parent_id,omitempty"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// File is a reference to remote content. The bytes stay with the provider.
type File struct {
	ID          int64     `json:"id"`
	FolderID    int64     `json:"folder_id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasDescription returns true if the file already carries a caption.
func (f *File) HasDescription() bool {
	return f.Description != ""
}
