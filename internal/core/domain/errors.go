package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// Vault Errors.

	// ErrDuplicateName indicates a credential name is already taken.
	ErrDuplicateName = errors.New("credential name already in use")

	// ErrCredentialExists indicates the provider already holds a credential with this name.
	ErrCredentialExists = errors.New("credential already exists for this service")

	// ErrAuthenticationFailure indicates a ciphertext failed AEAD verification.
	// Either the record was tampered with or the master secret changed.
	ErrAuthenticationFailure = errors.New("credential authentication failed")

	// ErrMasterSecretUnavailable indicates the master secret could not be unwrapped.
	ErrMasterSecretUnavailable = errors.New("master secret unavailable")

	// Authorization Errors.

	// ErrAuthorizationTimeout indicates no redirect arrived before the deadline.
	ErrAuthorizationTimeout = errors.New("timed out waiting for authorization")

	// ErrAuthorizationFailed indicates the provider refused or the exchange failed.
	ErrAuthorizationFailed = errors.New("authorization failed")

	// Connector Errors.

	// ErrUnsupportedService indicates no connector handles the URL.
	ErrUnsupportedService = errors.New("unsupported service")

	// ErrAccessDenied indicates no stored credential can read the remote file.
	ErrAccessDenied = errors.New("access denied")

	// ErrFileTooLarge indicates the remote file exceeds MaxDownloadSize.
	ErrFileTooLarge = errors.New("file too large")

	// ErrDownloadFailed indicates the content request did not succeed.
	// Kept apart from ErrAccessDenied: metadata was readable but the bytes were not.
	ErrDownloadFailed = errors.New("download failed")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Summarizer Errors.

	// ErrUnsupportedFileType indicates the summarizer cannot read the file format.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrNoText indicates the file holds no extractable text, e.g. a scanned PDF.
	ErrNoText = errors.New("no extractable text")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// Orchestrator Errors.

	// ErrQueueStopped indicates the orchestrator no longer accepts jobs.
	ErrQueueStopped = errors.New("ingestion queue stopped")
)
