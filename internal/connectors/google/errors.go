package google

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/tether/internal/core/domain"
)

// Common Google API errors.
var (
	// ErrUnauthorized indicates invalid or expired credentials.
	ErrUnauthorized = errors.New("google: unauthorised (invalid credentials)")

	// ErrForbidden indicates insufficient permissions.
	ErrForbidden = errors.New("google: forbidden (insufficient permissions)")

	// ErrNotFound indicates the requested resource was not found or is not
	// shared with the account.
	ErrNotFound = errors.New("google: resource not found")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("google: rate limit exceeded")
)

// reasonExportTooLarge is returned when a native file exceeds the export cap.
const reasonExportTooLarge = "exportSizeLimitExceeded"

// IsUnauthorized returns true if the error indicates invalid credentials.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || statusIs(err, http.StatusUnauthorized)
}

// IsForbidden returns true if the error indicates insufficient permissions.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden) || statusIs(err, http.StatusForbidden)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || statusIs(err, http.StatusNotFound)
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) || statusIs(err, http.StatusTooManyRequests) {
		return true
	}
	return hasReason(err, "rateLimitExceeded", "userRateLimitExceeded")
}

// WrapError converts a Google API error to a more specific error type.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	switch {
	case IsRateLimited(err):
		return ErrRateLimited
	case gerr.Code == http.StatusUnauthorized:
		return ErrUnauthorized
	case gerr.Code == http.StatusForbidden:
		return ErrForbidden
	case gerr.Code == http.StatusNotFound:
		return ErrNotFound
	default:
		return err
	}
}

// DownloadError maps a failed media request to a domain error.
func DownloadError(err error) error {
	switch {
	case err == nil:
		return nil
	case hasReason(err, reasonExportTooLarge):
		return fmt.Errorf("%w: export exceeds Google's size limit", domain.ErrFileTooLarge)
	case IsRateLimited(err):
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrDownloadFailed, WrapError(err))
	}
}

// ProbeError maps a failed metadata request to a domain error so callers
// can tell a revoked token from a file that is not shared with the account.
func ProbeError(err error) error {
	switch {
	case err == nil:
		return nil
	case IsRateLimited(err):
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	case IsUnauthorized(err):
		return fmt.Errorf("%w: token rejected: %w", domain.ErrAccessDenied, WrapError(err))
	case IsForbidden(err), IsNotFound(err):
		return fmt.Errorf("%w: file not shared with this account: %w", domain.ErrAccessDenied, WrapError(err))
	default:
		return err
	}
}

func statusIs(err error, code int) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == code
}

func hasReason(err error, reasons ...string) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	for _, item := range gerr.Errors {
		for _, r := range reasons {
			if item.Reason == r {
				return true
			}
		}
	}
	return false
}
