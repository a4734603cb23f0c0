// Package id generates the identifiers used across the simulation engine.
//
// Operation records use ULIDs (Universally Unique Lexicographically Sortable
// Identifiers): 26-character identifiers encoding a millisecond timestamp and
// random entropy, so ids created in sequence sort in creation order even
// within one millisecond. Short hex ids serve user-facing contexts where
// brevity matters. All randomness comes from crypto/rand.
package id
