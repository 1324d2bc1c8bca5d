// Package memory provides in-memory implementations of the driven storage
// ports. They back tests and the ephemeral --store=memory CLI mode.
package memory
