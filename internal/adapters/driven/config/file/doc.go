// Package file provides file-backed implementations of driven ports.
//
//   - ConfigStore: TOML settings in ~/.tether/config.toml
//   - PromptStore: editable caption prompts in ~/.tether/prompts
package file
