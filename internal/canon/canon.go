// Package canon produces canonical serializations and content hashes for
// deterministic outcome selection and result caching.
//
// Values are serialized to RFC 8785 canonical JSON (key-sorted, normalized
// numbers), then hashed with 32-bit FNV-1a. The load-bearing property is that
// equal inputs always serialize to equal bytes, so hash-modulo selection picks
// the same list entry for the same input within a process run.
package canon

import (
	"encoding/json"
	"fmt"
	"hash/fnv"

	jcs "github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
)

// Marshal serializes v to canonical JSON.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical marshal: %w", err)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonical transform: %w", err)
	}
	return out, nil
}

// String returns the canonical serialization of v. Values that cannot be
// marshaled fall back to their fmt %#v form, which is stable for the map and
// struct shapes used in operation inputs.
func String(v any) string {
	out, err := Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(out)
}

// Hash32 computes the FNV-1a hash of the canonical serialization of v.
func Hash32(v any) uint32 {
	h := fnv.New32a()
	h.Write([]byte(String(v)))
	return h.Sum32()
}

// HashString computes the FNV-1a hash of a raw string.
func HashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// Pick selects an index in [0, n) from the content hash of v. Returns 0 when
// n is not positive so callers can index unconditionally on non-empty lists.
func Pick(v any, n int) int {
	if n <= 0 {
		return 0
	}
	return int(Hash32(v) % uint32(n))
}

// Key builds a cache key from an operation name and its canonicalized input.
func Key(operation string, input any) string {
	return operation + ":" + String(input)
}
