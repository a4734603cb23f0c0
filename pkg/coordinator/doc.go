// Package coordinator aggregates the document, field, and crypto mocks
// behind one lifecycle surface: unified reset, status aggregation,
// configuration fan-out, and an append-only reset audit trail.
//
// The coordinator is the sole mutator of mock lifecycle and configuration.
// Callers that need the mocks themselves go through the accessors; callers
// that need a fresh baseline go through ResetAll or RestoreToInitialState
// and can prove the result with VerifyCleanState.
package coordinator
