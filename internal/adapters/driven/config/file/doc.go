// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem under ~/.auditkit.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable classifier prompts with embedded defaults
package file
