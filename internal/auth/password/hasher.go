// Package password turns plaintext passwords into self-describing,
// salted hashes and checks candidates against them.
package password

import "errors"

// ErrUnknownFormat is returned when an encoded hash was not produced by any
// supported algorithm.
var ErrUnknownFormat = errors.New("password: unknown hash format")

// ErrTooLong is returned by Hash when the plaintext exceeds what the
// algorithm can take into account.
var ErrTooLong = errors.New("password: too long")

// Hasher is safe for concurrent use. Encoded hashes embed the algorithm,
// parameters and salt so Verify needs nothing else.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, encoded string) (bool, error)
	// NeedsRehash reports whether encoded was produced with other
	// parameters (or another algorithm) than the ones currently configured.
	NeedsRehash(encoded string) bool
}

// MaxLength returns the longest plaintext in bytes that h can hash, or 0 when
// there is no limit.
func MaxLength(h Hasher) int {
	if l, ok := h.(interface{ MaxLength() int }); ok {
		return l.MaxLength()
	}
	return 0
}
