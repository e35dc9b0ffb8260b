// Package connectors holds the cloud storage connectors and the plumbing
// they share: the interactive OAuth flow, credential probing, rate limiting
// and streamed downloads.
//
// Provider packages (google/drive, microsoft/onedrive) only describe their
// endpoints and URL shapes; everything that touches the vault lives here.
package connectors
