// Package matching evaluates error-scenario triggers against operation
// inputs.
//
// A scenario trigger can name an operation, the literal "all", or a specific
// input value; matching supports all three plus two refinements: a JSONPath
// expression selecting which part of the input the trigger value is compared
// against, and an expr predicate gating the match on arbitrary input
// conditions. Comparison coerces numeric types the way JSON decoding
// produces them, so a trigger of "3" matches an input page count of 3
// whether it arrived as int or float64.
//
// Predicates are compiled once and cached; a predicate that fails to compile
// or evaluate never aborts the operation, it just does not match.
package matching
