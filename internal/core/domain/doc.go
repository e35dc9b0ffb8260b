// Package domain defines the core business entities for Tether.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - CredentialRecord: an encrypted OAuth token bound to one remote account
//   - ConnectorDescriptor: static OAuth configuration for a storage provider
//   - Job: a unit of background ingestion work
//   - Project, Folder, File: the local hierarchy remote files are attached to
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
