package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tether/internal/core/domain"
)

func TestAccountAdd_LinksAccount(t *testing.T) {
	f := newCLIFixture(t)

	out, err := execute(t, "", "account", "add", "drive", "work")

	require.NoError(t, err)
	assert.Contains(t, out, `Linked account "work" (ID: 1)`)
	creds, _ := f.vault.List(context.Background())
	require.Len(t, creds, 1)
	assert.Equal(t, domain.ServiceGoogleDrive, creds[0].Service)
}

func TestAccountAdd_AcceptsCanonicalServiceName(t *testing.T) {
	newCLIFixture(t)

	_, err := execute(t, "", "account", "add", "Google Drive", "work")
	require.NoError(t, err)
}

func TestAccountAdd_UnknownService(t *testing.T) {
	newCLIFixture(t)

	_, err := execute(t, "", "account", "add", "dropbox", "work")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown service")
}

func TestAccountAdd_UnregisteredService(t *testing.T) {
	newCLIFixture(t)

	_, err := execute(t, "", "account", "add", "onedrive", "work")
	require.ErrorIs(t, err, domain.ErrUnsupportedService)
}

func TestAccountAdd_DuplicateName(t *testing.T) {
	f := newCLIFixture(t)
	f.conn.authErr = domain.ErrDuplicateName

	_, err := execute(t, "", "account", "add", "drive", "work")
	require.ErrorIs(t, err, domain.ErrDuplicateName)
	assert.Contains(t, err.Error(), "already exists")
}

func TestAccountAdd_Timeout(t *testing.T) {
	f := newCLIFixture(t)
	f.conn.authErr = domain.ErrAuthorizationTimeout

	_, err := execute(t, "", "account", "add", "drive", "work")
	require.ErrorIs(t, err, domain.ErrAuthorizationTimeout)
}

func TestAccountList(t *testing.T) {
	f := newCLIFixture(t)

	out, err := execute(t, "", "account", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No accounts linked.")

	_, _ = f.vault.Store(context.Background(), "work", "1234567890123456789012345678", domain.ServiceGoogleDrive, nil)
	out, err = execute(t, "", "account", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "work")
	assert.Contains(t, out, "Google Drive")
	assert.Contains(t, out, "123456789012345678901...")
}

func TestAccountRename(t *testing.T) {
	f := newCLIFixture(t)
	ctx := context.Background()
	_, _ = f.vault.Store(ctx, "work", "a", domain.ServiceGoogleDrive, nil)
	_, _ = f.vault.Store(ctx, "home", "b", domain.ServiceOneDrive, nil)

	out, err := execute(t, "", "account", "rename", "work", "office")
	require.NoError(t, err)
	assert.Contains(t, out, `Renamed "work" to "office"`)

	_, err = execute(t, "", "account", "rename", "office", "home")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "", "account", "rename", "missing", "x")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccountRemove(t *testing.T) {
	f := newCLIFixture(t)
	_, _ = f.vault.Store(context.Background(), "work", "a", domain.ServiceGoogleDrive, nil)

	out, err := execute(t, "", "account", "remove", "work")
	require.NoError(t, err)
	assert.Contains(t, out, `Removed account "work"`)

	creds, _ := f.vault.List(context.Background())
	assert.Empty(t, creds)

	_, err = execute(t, "", "account", "rm", "work")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccountServices(t *testing.T) {
	newCLIFixture(t)

	out, err := execute(t, "", "account", "services")
	require.NoError(t, err)
	assert.Contains(t, out, "Google Drive")
	assert.Contains(t, out, "drive.google.com, docs.google.com")
	assert.Contains(t, out, "ready")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
