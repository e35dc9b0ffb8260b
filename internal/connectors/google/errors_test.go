package google

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/tether/internal/core/domain"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unauthorised", &googleapi.Error{Code: http.StatusUnauthorized}, ErrUnauthorized},
		{"forbidden", &googleapi.Error{Code: http.StatusForbidden}, ErrForbidden},
		{"not found", &googleapi.Error{Code: http.StatusNotFound}, ErrNotFound},
		{"429", &googleapi.Error{Code: http.StatusTooManyRequests}, ErrRateLimited},
		{
			"403 rate limit reason",
			&googleapi.Error{Code: http.StatusForbidden, Errors: []googleapi.ErrorItem{{Reason: "userRateLimitExceeded"}}},
			ErrRateLimited,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, WrapError(tt.err), tt.want)
		})
	}

	plain := errors.New("boom")
	assert.Equal(t, plain, WrapError(plain))
	assert.NoError(t, WrapError(nil))
}

func TestDownloadError(t *testing.T) {
	tooLarge := &googleapi.Error{
		Code:   http.StatusForbidden,
		Errors: []googleapi.ErrorItem{{Reason: "exportSizeLimitExceeded"}},
	}
	assert.ErrorIs(t, DownloadError(tooLarge), domain.ErrFileTooLarge)
	assert.ErrorIs(t, DownloadError(&googleapi.Error{Code: http.StatusTooManyRequests}), domain.ErrRateLimited)

	failed := DownloadError(&googleapi.Error{Code: http.StatusInternalServerError})
	assert.ErrorIs(t, failed, domain.ErrDownloadFailed)
	assert.NotErrorIs(t, failed, domain.ErrAccessDenied)
	assert.NoError(t, DownloadError(nil))
}

func TestProbeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"revoked token", &googleapi.Error{Code: http.StatusUnauthorized}, ErrUnauthorized},
		{"forbidden", WrapError(&googleapi.Error{Code: http.StatusForbidden}), ErrForbidden},
		{"not shared", WrapError(&googleapi.Error{Code: http.StatusNotFound}), ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ProbeError(tt.err)
			assert.ErrorIs(t, err, domain.ErrAccessDenied)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	limited := ProbeError(WrapError(&googleapi.Error{Code: http.StatusTooManyRequests}))
	assert.ErrorIs(t, limited, domain.ErrRateLimited)
	assert.NotErrorIs(t, limited, domain.ErrAccessDenied)

	plain := errors.New("boom")
	assert.Equal(t, plain, ProbeError(plain))
	assert.NoError(t, ProbeError(nil))
}

func TestDriveDescriptor(t *testing.T) {
	d := DriveDescriptor("id", "secret")
	assert.Equal(t, domain.ServiceGoogleDrive, d.Service)
	assert.Contains(t, d.Scopes, DriveReadonlyScope)
	assert.Contains(t, d.Scopes, "openid")
	assert.Equal(t, []string{"drive.google.com", "docs.google.com"}, d.Hosts)
}
