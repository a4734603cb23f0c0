// Package simerr defines the shared error taxonomy for the simulation engine.
//
// Every failure produced by the mocks, the pattern registry, the realistic
// error generator, and the coordinators is a DomainError carrying a stable
// ErrorType, an optional generated code, a severity, and a free-form
// diagnostic context. Error types map onto the numeric categories used by the
// production signing pipeline (input validation 1000s, cryptographic 2000s,
// PDF processing 3000s, and so on), which drive default severities and the
// domain token embedded in generated error codes.
//
// Messages are carried verbatim: DomainError.Error returns exactly the
// message the error was built with, because configured error scenarios must
// surface byte-for-byte to callers.
package simerr
