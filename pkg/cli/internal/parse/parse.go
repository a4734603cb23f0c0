// Package parse provides string parsing utilities for CLI commands.
package parse

import (
	"fmt"
	"strconv"
	"strings"
)

// Range parses a count range given as "N" or "MIN:MAX".
// A bare number yields an exact range (min == max).
func Range(s string) (min, max int, err error) {
	lo, hi, found := strings.Cut(s, ":")
	if !found {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, 0, fmt.Errorf("invalid count %q, expected N or MIN:MAX", s)
		}
		return n, n, nil
	}
	min, err = strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range minimum %q", lo)
	}
	max, err = strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range maximum %q", hi)
	}
	if max < min {
		return 0, 0, fmt.Errorf("range maximum %d is below minimum %d", max, min)
	}
	return min, max, nil
}
