package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Leeway tolerates clock skew when checking exp.
	Leeway time.Duration
	Issuer string
	Now    func() time.Time
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

type Verifier struct {
	parser *jwt.Parser
	key    *SigningKey
}

func NewVerifier(key *SigningKey, cfg Config) (*Verifier, error) {
	if key == nil {
		return nil, errors.New("token: signing key is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{key.Algorithm()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithTimeFunc(cfg.now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &Verifier{parser: jwt.NewParser(opts...), key: key}, nil
}

// Verify checks structure, then signature, then expiry, then that the token
// is of the expected type. The first failing check decides the Kind.
func (v *Verifier) Verify(tokenString string, expected Type) (*Claims, error) {
	claims := &Claims{}
	if _, err := v.parser.ParseWithClaims(tokenString, claims, v.key.keyFunc); err != nil {
		return nil, classify(err)
	}

	if claims.Subject == "" || claims.Type == "" {
		return nil, &Error{Kind: KindMalformed, Err: errors.New("missing sub or token_type")}
	}
	if claims.Type != expected {
		return nil, &Error{Kind: KindWrongType, Err: errors.New("got " + string(claims.Type) + ", want " + string(expected))}
	}

	return claims, nil
}

func classify(err error) *Error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return &Error{Kind: KindMalformed, Err: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return &Error{Kind: KindBadSignature, Err: err}
	case errors.Is(err, jwt.ErrTokenExpired):
		return &Error{Kind: KindExpired, Err: err}
	default:
		return &Error{Kind: KindMalformed, Err: err}
	}
}
