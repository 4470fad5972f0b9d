package password

import "strings"

// Multi hashes with the preferred algorithm and still verifies hashes from
// the fallbacks, so stored hashes can be migrated on the next login.
type Multi struct {
	preferred Hasher
	bcrypt    *Bcrypt
	argon2    *Argon2id
}

func NewMulti(preferred Hasher, fallbacks ...Hasher) *Multi {
	m := &Multi{preferred: preferred}
	for _, h := range append([]Hasher{preferred}, fallbacks...) {
		switch h := h.(type) {
		case *Bcrypt:
			if m.bcrypt == nil {
				m.bcrypt = h
			}
		case *Argon2id:
			if m.argon2 == nil {
				m.argon2 = h
			}
		}
	}
	return m
}

func (m *Multi) Hash(plaintext string) (string, error) {
	return m.preferred.Hash(plaintext)
}

// MaxLength is the limit of the preferred hasher; fallbacks never hash.
func (m *Multi) MaxLength() int {
	return MaxLength(m.preferred)
}

func (m *Multi) Verify(plaintext, encoded string) (bool, error) {
	h := m.lookup(encoded)
	if h == nil {
		return false, ErrUnknownFormat
	}
	return h.Verify(plaintext, encoded)
}

func (m *Multi) NeedsRehash(encoded string) bool {
	if h := m.lookup(encoded); h == nil || h != m.preferred {
		return true
	}
	return m.preferred.NeedsRehash(encoded)
}

func (m *Multi) lookup(encoded string) Hasher {
	switch {
	case strings.HasPrefix(encoded, argon2Prefix) && m.argon2 != nil:
		return m.argon2
	case isBcrypt(encoded) && m.bcrypt != nil:
		return m.bcrypt
	default:
		return nil
	}
}
