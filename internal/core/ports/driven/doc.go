// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - CredentialStore: Encrypted credential persistence
//   - MasterSecretStore: Wrapped master secret persistence
//   - KeyWrapper: Protects the master secret at rest (OS keyring or passphrase)
//   - RecordCipher: Per-record AEAD
//   - Connector: Authenticates against and reads from a storage provider
//   - ProjectStore: Project, folder and file persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - Summarizer: Captions downloaded files. Without it, files keep their description.
//   - LLMService: Language model backing the summarizer.
//   - Normaliser: Extracts plain text from a downloaded file for the summarizer.
//   - PromptStore: User-editable caption prompts.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
