// Package config defines the configuration surface of the simulation engine:
// per-mock settings, combined multi-mock documents, and the factory that
// generates scenario-appropriate configurations on demand.
//
// A MockConfiguration carries everything one mock reads at operation time:
// field definitions, document state, validation behavior, a deterministic
// outcome rotation, error scenarios, and extra error patterns. Sections merge
// shallowly: a patch replaces whole top-level keys and leaves absent keys
// untouched.
//
// The Factory turns a named scenario (unit-testing, integration-testing,
// property-testing, error-testing, performance-testing) into a
// GeneratedConfig whose field counts, scenario counts, and pattern richness
// rise with complexity. Generation is deterministic for a given scenario and
// option set, and results are cached under a canonical key.
//
// Configurations also load from YAML files resolved via glob patterns. Loaded
// documents are checked against an embedded JSON Schema first, then linted
// structurally with per-path issues. XFA-style XML form templates import into
// field definitions with ImportFieldsXML.
package config
