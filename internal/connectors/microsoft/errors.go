package microsoft

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/custodia-labs/tether/internal/core/domain"
)

// APIError is a non-2xx response from Microsoft Graph.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("graph: HTTP %d", e.Status)
	}
	return fmt.Sprintf("graph: HTTP %d %s: %s", e.Status, e.Code, e.Message)
}

// CheckResponse returns an *APIError for non-2xx responses.
// The body is consumed on error.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode}

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &body) == nil {
		apiErr.Code = body.Error.Code
		apiErr.Message = body.Error.Message
	}
	return apiErr
}

// IsNotFound returns true for 404 responses.
func IsNotFound(err error) bool { return statusIs(err, http.StatusNotFound) }

// IsForbidden returns true for 401 and 403 responses.
func IsForbidden(err error) bool {
	return statusIs(err, http.StatusUnauthorized) || statusIs(err, http.StatusForbidden)
}

// IsRateLimited returns true for throttled responses.
func IsRateLimited(err error) bool {
	return statusIs(err, http.StatusTooManyRequests) || statusIs(err, http.StatusServiceUnavailable)
}

// DownloadError maps a failed content request to a domain error.
func DownloadError(err error) error {
	var apiErr *APIError
	switch {
	case err == nil:
		return nil
	case IsRateLimited(err):
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotAcceptable:
		return fmt.Errorf("%w: %w", domain.ErrUnsupportedFileType, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrDownloadFailed, err)
	}
}

// ProbeError maps a failed driveItem lookup to a domain error.
func ProbeError(err error) error {
	switch {
	case err == nil:
		return nil
	case IsRateLimited(err):
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	case IsForbidden(err), IsNotFound(err):
		return fmt.Errorf("%w: link not shared with this account: %w", domain.ErrAccessDenied, err)
	default:
		return err
	}
}

func statusIs(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == code
}
