// Package google holds what the Google Drive connector shares with any other
// Google API client: OAuth endpoints and scopes, service construction and
// googleapi error classification.
//
// # OAuth2 Scopes
//
//   - openid, email (identity for account de-duplication)
//   - https://www.googleapis.com/auth/drive.readonly (restricted)
//
// For user-created internal apps, restricted scopes don't require verification.
package google
