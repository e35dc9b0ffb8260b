package microsoft

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tether/internal/core/domain"
)

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestCheckResponse(t *testing.T) {
	assert.NoError(t, CheckResponse(response(http.StatusOK, "")))

	err := CheckResponse(response(http.StatusNotFound, `{"error":{"code":"itemNotFound","message":"gone"}}`))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "itemNotFound", apiErr.Code)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsForbidden(err))

	err = CheckResponse(response(http.StatusForbidden, "not json"))
	assert.True(t, IsForbidden(err))
	assert.Equal(t, "graph: HTTP 403", err.Error())
}

func TestDownloadError(t *testing.T) {
	assert.ErrorIs(t, DownloadError(&APIError{Status: http.StatusTooManyRequests}), domain.ErrRateLimited)
	assert.ErrorIs(t, DownloadError(&APIError{Status: http.StatusNotAcceptable}), domain.ErrUnsupportedFileType)
	assert.ErrorIs(t, DownloadError(&APIError{Status: http.StatusBadGateway}), domain.ErrDownloadFailed)
	assert.NoError(t, DownloadError(nil))
}

func TestProbeError(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound} {
		err := ProbeError(&APIError{Status: status})
		assert.ErrorIs(t, err, domain.ErrAccessDenied, status)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, status, apiErr.Status)
	}

	assert.ErrorIs(t, ProbeError(&APIError{Status: http.StatusTooManyRequests}), domain.ErrRateLimited)

	other := &APIError{Status: http.StatusBadGateway}
	assert.Equal(t, error(other), ProbeError(other))
	assert.NoError(t, ProbeError(nil))
}

func TestOneDriveDescriptor(t *testing.T) {
	d := OneDriveDescriptor("id", "", "")
	assert.Equal(t, "https://login.microsoftonline.com/common/oauth2/v2.0/authorize", d.AuthURL)
	assert.Equal(t, "https://login.microsoftonline.com/common/oauth2/v2.0/token", d.TokenURL)
	assert.Contains(t, d.Scopes, "offline_access")
	assert.Contains(t, d.Scopes, FilesReadAllScope)

	d = OneDriveDescriptor("id", "", "contoso.onmicrosoft.com")
	assert.Contains(t, d.TokenURL, "/contoso.onmicrosoft.com/")
}
