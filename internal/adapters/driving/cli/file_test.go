package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tether/internal/core/domain"
)

const driveURL = "https://drive.google.com/file/d/abc/view"

// withFolder creates project 1 and folder 2.
func withFolder(t *testing.T, f *cliFixture) int64 {
	t.Helper()
	ctx := context.Background()
	projectID, err := f.projects.CreateProject(ctx, "launch")
	require.NoError(t, err)
	folderID, err := f.projects.CreateFolder(ctx, projectID, 0, "specs")
	require.NoError(t, err)
	return folderID
}

func TestFileAdd_RecordsAndCaptions(t *testing.T) {
	f := newCLIFixture(t)
	folderID := withFolder(t, f)

	out, err := execute(t, "", "file", "add", "--folder", "2", driveURL)

	require.NoError(t, err)
	assert.Contains(t, out, "Added   "+driveURL+" as file 3")
	assert.Contains(t, out, "Caption file 3: Caption of contents.")

	files, err := f.projects.ListFiles(context.Background(), folderID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "notes.txt", files[0].Name)
	assert.Equal(t, "Caption of contents.", files[0].Description)
	assert.Zero(t, f.ingestion.Pending())
}

func TestFileAdd_DescriptionSkipsCaption(t *testing.T) {
	f := newCLIFixture(t)
	withFolder(t, f)

	out, err := execute(t, "", "file", "add", "-f", "2", "-d", "Launch plan", "--name", "plan", driveURL)

	require.NoError(t, err)
	assert.NotContains(t, out, "Caption file")
	file, err := f.projects.GetFile(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "plan", file.Name)
	assert.Equal(t, "Launch plan", file.Description)
}

func TestFileAdd_AccessDenied(t *testing.T) {
	f := newCLIFixture(t)
	withFolder(t, f)

	out, err := execute(t, "", "file", "add", "--folder", "2",
		"https://drive.google.com/file/d/private/view", driveURL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 job(s) failed")
	assert.Contains(t, out, "FAILED  https://drive.google.com/file/d/private/view")
	assert.Contains(t, out, "tether account add")
	assert.Equal(t, 1, f.projects.FileCount())
}

func TestFileAdd_UnsupportedHost(t *testing.T) {
	f := newCLIFixture(t)
	withFolder(t, f)

	out, err := execute(t, "", "file", "add", "--folder", "2", "https://example.com/doc")

	require.Error(t, err)
	assert.Contains(t, out, domain.ErrUnsupportedService.Error())
	assert.Zero(t, f.projects.FileCount())
}

func TestFileAdd_MissingFolder(t *testing.T) {
	newCLIFixture(t)

	_, err := execute(t, "", "file", "add", "--folder", "9", driveURL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "folder 9 does not exist")
}

func TestFileAdd_NameNeedsSingleURL(t *testing.T) {
	f := newCLIFixture(t)
	withFolder(t, f)

	_, err := execute(t, "", "file", "add", "--folder", "2", "--name", "x", driveURL, driveURL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "single URL")
}

func TestFileSummarize_Regenerates(t *testing.T) {
	f := newCLIFixture(t)
	folderID := withFolder(t, f)
	id, err := f.projects.CreateFile(context.Background(), "doc", folderID, driveURL, "old")
	require.NoError(t, err)

	out, err := execute(t, "", "file", "summarize", "3")

	require.NoError(t, err)
	assert.Contains(t, out, "Caption file 3: Caption of contents.")
	file, err := f.projects.GetFile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Caption of contents.", file.Description)
}

func TestFileSummarize_UnknownFile(t *testing.T) {
	newCLIFixture(t)

	out, err := execute(t, "", "file", "summarize", "99")
	require.Error(t, err)
	assert.Contains(t, out, "FAILED  file 99")
}

func TestFileListAndRemove(t *testing.T) {
	f := newCLIFixture(t)
	folderID := withFolder(t, f)

	out, err := execute(t, "", "file", "list", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "No files in this folder.")

	_, err = f.projects.CreateFile(context.Background(), "doc", folderID, driveURL, "A caption.")
	require.NoError(t, err)

	out, err = execute(t, "", "file", "list", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "[3] doc")
	assert.Contains(t, out, driveURL)
	assert.Contains(t, out, "A caption.")

	out, err = execute(t, "", "file", "remove", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed file 3")

	_, err = execute(t, "", "file", "rm", "3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestResultLog_Drain(t *testing.T) {
	l := &resultLog{}
	l.record(domain.JobResult{FileID: 1})
	l.record(domain.JobResult{FileID: 2})

	got := l.drain()
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].FileID)
	assert.Empty(t, l.drain())
}
