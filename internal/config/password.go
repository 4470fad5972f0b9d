package config

import "github.com/taekwondodev/go-account-service/internal/auth/password"

// NewHasher returns the configured hasher, still able to verify hashes made
// by the other supported algorithm.
func NewHasher(c PasswordConfig) (password.Hasher, error) {
	argon, err := password.NewArgon2id(password.Argon2Config{
		MemoryKB:    c.Argon2MemoryKB,
		Iterations:  c.Argon2Iterations,
		Parallelism: c.Argon2Parallelism,
	})
	if err != nil {
		return nil, err
	}

	bcrypt, err := password.NewBcrypt(c.BcryptCost)
	if err != nil {
		return nil, err
	}

	if c.Hasher == "bcrypt" {
		return password.NewMulti(bcrypt, argon), nil
	}
	return password.NewMulti(argon, bcrypt), nil
}
