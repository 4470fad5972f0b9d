package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

const minHMACSecretLength = 32

// SigningKey is built once at startup and shared read-only by the Issuer and
// the Verifier.
type SigningKey struct {
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
}

func NewHMACKey(secret []byte) (*SigningKey, error) {
	if len(secret) < minHMACSecretLength {
		return nil, fmt.Errorf("token: HMAC secret must be at least %d bytes", minHMACSecretLength)
	}
	key := append([]byte(nil), secret...)
	return &SigningKey{method: jwt.SigningMethodHS256, signKey: key, verifyKey: key}, nil
}

func NewEd25519Key(private ed25519.PrivateKey) (*SigningKey, error) {
	if len(private) != ed25519.PrivateKeySize {
		return nil, errors.New("token: invalid ed25519 private key")
	}
	return &SigningKey{
		method:    jwt.SigningMethodEdDSA,
		signKey:   private,
		verifyKey: private.Public(),
	}, nil
}

// LoadEd25519KeyFile reads a PKCS#8 PEM encoded ed25519 private key.
func LoadEd25519KeyFile(path string) (*SigningKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("token: read key file: %w", err)
	}

	key, err := jwt.ParseEdPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("token: parse key file: %w", err)
	}

	private, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("token: key file does not hold an ed25519 key")
	}
	return NewEd25519Key(private)
}

func (k *SigningKey) Algorithm() string {
	return k.method.Alg()
}

func (k *SigningKey) sign(claims *Claims) (string, error) {
	return jwt.NewWithClaims(k.method, claims).SignedString(k.signKey)
}

func (k *SigningKey) keyFunc(*jwt.Token) (any, error) {
	return k.verifyKey, nil
}
