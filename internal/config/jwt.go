package config

import (
	"strings"

	"github.com/taekwondodev/go-account-service/internal/auth/token"
)

func (c JWTConfig) SigningKey() (*token.SigningKey, error) {
	if strings.EqualFold(c.SigningMethod, "EdDSA") {
		return token.LoadEd25519KeyFile(c.PrivateKeyFile)
	}
	return token.NewHMACKey([]byte(c.Secret))
}

func (c JWTConfig) TokenConfig() token.Config {
	return token.Config{
		AccessTTL:  c.AccessTTL,
		RefreshTTL: c.RefreshTTL,
		Leeway:     c.Leeway,
		Issuer:     c.Issuer,
	}
}

// NewTokens builds the verifier and the issuer sharing one signing key.
func NewTokens(c JWTConfig) (*token.Issuer, *token.Verifier, error) {
	key, err := c.SigningKey()
	if err != nil {
		return nil, nil, err
	}

	verifier, err := token.NewVerifier(key, c.TokenConfig())
	if err != nil {
		return nil, nil, err
	}
	issuer, err := token.NewIssuer(key, verifier, c.TokenConfig())
	if err != nil {
		return nil, nil, err
	}
	return issuer, verifier, nil
}
