package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Short generates a 16-character random hex id.
func Short() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Crockford Base32 alphabet (no I, L, O, U).
const ulidAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var (
	ulidMu      sync.Mutex
	ulidLastMs  int64
	ulidCounter uint16
)

// ULID generates a 26-character time-sortable identifier: 10 characters of
// millisecond timestamp followed by 16 characters of entropy. Ids generated
// within the same millisecond stay unique through a monotonic counter mixed
// into the entropy.
func ULID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	now := time.Now().UnixMilli()
	if now == ulidLastMs {
		ulidCounter++
		if ulidCounter == 0 {
			for now == ulidLastMs {
				time.Sleep(time.Millisecond)
				now = time.Now().UnixMilli()
			}
			ulidLastMs = now
		}
	} else {
		ulidLastMs = now
		ulidCounter = 0
	}

	return encodeULID(now, ulidCounter)
}

func encodeULID(ms int64, counter uint16) string {
	out := make([]byte, 26)

	// 48-bit timestamp, 5 bits per character.
	for i := 9; i >= 0; i-- {
		out[i] = ulidAlphabet[ms&0x1F]
		ms >>= 5
	}

	entropy := make([]byte, 10)
	_, _ = rand.Read(entropy)
	entropy[0] ^= byte(counter >> 8)
	entropy[1] ^= byte(counter)

	// 80 bits of entropy packed 5 bits at a time.
	var acc uint32
	var bits uint
	pos := 10
	for _, b := range entropy {
		acc = acc<<8 | uint32(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			out[pos] = ulidAlphabet[(acc>>bits)&0x1F]
			pos++
		}
	}

	return string(out)
}

// IsValidULID reports whether s is a well-formed ULID.
func IsValidULID(s string) bool {
	if len(s) != 26 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if decodeULIDChar(s[i]) < 0 {
			return false
		}
	}
	return true
}

// ULIDTime extracts the embedded timestamp from a ULID.
func ULIDTime(s string) (time.Time, error) {
	if !IsValidULID(s) {
		return time.Time{}, fmt.Errorf("invalid ULID: %s", s)
	}

	var ms int64
	for i := 0; i < 10; i++ {
		ms = ms<<5 | int64(decodeULIDChar(s[i]))
	}
	return time.UnixMilli(ms), nil
}

func decodeULIDChar(c byte) int {
	for i := 0; i < len(ulidAlphabet); i++ {
		if ulidAlphabet[i] == c {
			return i
		}
	}
	return -1
}
