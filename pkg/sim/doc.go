// Package sim provides the deterministic simulation mocks for the document,
// field, and crypto subsystems of a signing pipeline.
//
// All three mocks share one engine: every operation opens an operation
// record, consults a result cache keyed by the canonicalized input, checks
// configured error scenarios, and only then falls through to configured
// outcome lists or built-in heuristics. The same input therefore always
// produces the same result for the lifetime of a mock instance, and every
// call leaves an audit record.
//
// The mocks differ in how they surface simulated failures. The document mock
// returns Go errors; the crypto mock returns ValidationResult values with
// IsValid false and reserves errors for misuse; the field mock returns
// errors for unknown fields and result values for validation verdicts.
package sim
