// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// over a single database file:
//
//   - CredentialStore: Encrypted OAuth credentials
//   - MasterSecretStore: The wrapped vault master secret
//   - ProjectStore: Projects, folders and file references
//
// # Schema
//
// The schema is managed by golang-migrate from versioned migrations embedded
// from the migrations/ directory. Each migration is a pair of .up.sql and
// .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.tether/data/tether.db
//
// # Thread Safety
//
// All operations are thread-safe. Writes go through a single connection and
// reads use a small pool, both in WAL mode.
package sqlite
