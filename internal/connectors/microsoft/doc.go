// Package microsoft holds the Microsoft identity platform endpoints and
// Graph error handling used by the OneDrive connector.
package microsoft
