// Package services implements the driving port interfaces.
//
// The vault seals OAuth tokens, the connector registry routes URLs to
// providers, and the ingestion orchestrator runs AddFile and Summarize jobs
// on a single background worker. Services only talk to infrastructure
// through driven ports.
package services
