// Package pattern owns error message templates for the simulation engine.
//
// Two layers live here. The Registry keeps keyed Error Patterns: a message
// template with `{field}` placeholders plus a required-field and
// validation-rule contract that a caller's context must satisfy before the
// template formats. The Generator keeps a richer per-domain catalog of
// Production Error Patterns that synthesize production-like failures:
// time-derived error codes in the form TST_<DOMAIN>_<unix>_<seq>, severities
// from the closed low/medium/high/critical set, and deterministic defaults
// for any context field the caller omitted.
//
// Alternate selection in the Generator is a pure function of the caller's
// context (explicit severity match, else a content hash over the canonical
// serialization), so identical context always picks the same alternate
// within a process run. Only the generated code varies between calls.
//
// ErrorScenario also lives here: a configured rule that forces a matching
// mock operation to fail with prescribed content. Scenario messages are
// surfaced byte-for-byte, never routed back through the Generator.
package pattern
