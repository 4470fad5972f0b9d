package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Prefix   = "$argon2id$"
	minMemoryKB    = 8 * 1024
	minSaltLength  = 16
	minKeyLength   = 16
	algorithmID    = "argon2id"
	encodingFormat = "$%s$v=%d$m=%d,t=%d,p=%d$%s$%s"
)

var b64 = base64.RawStdEncoding

type Argon2Config struct {
	MemoryKB    uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func DefaultArgon2Config() Argon2Config {
	return Argon2Config{
		MemoryKB:    64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

type Argon2id struct {
	config Argon2Config
	rand   io.Reader
}

func NewArgon2id(cfg Argon2Config) (*Argon2id, error) {
	if cfg.SaltLength == 0 {
		cfg.SaltLength = minSaltLength
	}
	if cfg.KeyLength == 0 {
		cfg.KeyLength = 32
	}

	switch {
	case cfg.MemoryKB < minMemoryKB:
		return nil, fmt.Errorf("argon2id: memory must be at least %d KiB", minMemoryKB)
	case cfg.Iterations < 1:
		return nil, errors.New("argon2id: iterations must be at least 1")
	case cfg.Parallelism < 1:
		return nil, errors.New("argon2id: parallelism must be at least 1")
	case cfg.SaltLength < minSaltLength:
		return nil, fmt.Errorf("argon2id: salt must be at least %d bytes", minSaltLength)
	case cfg.KeyLength < minKeyLength:
		return nil, fmt.Errorf("argon2id: key must be at least %d bytes", minKeyLength)
	}

	return &Argon2id{config: cfg, rand: rand.Reader}, nil
}

func (a *Argon2id) Hash(plaintext string) (string, error) {
	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(a.rand, salt); err != nil {
		return "", fmt.Errorf("argon2id: read salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, a.config.Iterations, a.config.MemoryKB, a.config.Parallelism, a.config.KeyLength)

	return fmt.Sprintf(encodingFormat,
		algorithmID,
		argon2.Version,
		a.config.MemoryKB,
		a.config.Iterations,
		a.config.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	), nil
}

func (a *Argon2id) Verify(plaintext, encoded string) (bool, error) {
	p, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}

	key := argon2.IDKey([]byte(plaintext), p.salt, p.iterations, p.memoryKB, p.parallelism, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(key, p.key) == 1, nil
}

func (a *Argon2id) NeedsRehash(encoded string) bool {
	p, err := parsePHC(encoded)
	if err != nil {
		return true
	}

	return p.memoryKB != a.config.MemoryKB ||
		p.iterations != a.config.Iterations ||
		p.parallelism != a.config.Parallelism ||
		uint32(len(p.key)) != a.config.KeyLength
}

type phc struct {
	memoryKB    uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

// parsePHC decodes $argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>.
func parsePHC(encoded string) (*phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return nil, ErrUnknownFormat
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || !strings.HasPrefix(parts[2], "v=") {
		return nil, errors.New("argon2id: invalid version")
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("argon2id: unsupported version %d", version)
	}

	p := &phc{}
	for _, kv := range strings.Split(parts[3], ",") {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, errors.New("argon2id: invalid parameters")
		}

		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("argon2id: invalid parameter %s", name)
		}

		switch name {
		case "m":
			p.memoryKB = uint32(n)
		case "t":
			p.iterations = uint32(n)
		case "p":
			if n > 255 {
				return nil, errors.New("argon2id: parallelism out of range")
			}
			p.parallelism = uint8(n)
		default:
			return nil, fmt.Errorf("argon2id: unknown parameter %s", name)
		}
	}
	if p.memoryKB == 0 || p.iterations == 0 || p.parallelism == 0 {
		return nil, errors.New("argon2id: missing parameters")
	}

	if p.salt, err = b64.DecodeString(parts[4]); err != nil || len(p.salt) < minSaltLength {
		return nil, errors.New("argon2id: invalid salt")
	}
	if p.key, err = b64.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return nil, errors.New("argon2id: invalid key")
	}

	return p, nil
}
