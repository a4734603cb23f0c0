// Package cli implements the sigsim command tree: scenario configuration
// generation and validation, field imports, the interactive init wizard,
// and the built-in selftest suite.
package cli
