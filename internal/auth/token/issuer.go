package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/taekwondodev/go-account-service/internal/models"
)

type Issuer struct {
	key        *SigningKey
	verifier   *Verifier
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
}

func NewIssuer(key *SigningKey, verifier *Verifier, cfg Config) (*Issuer, error) {
	switch {
	case key == nil:
		return nil, errors.New("token: signing key is required")
	case verifier == nil:
		return nil, errors.New("token: verifier is required")
	case cfg.AccessTTL <= 0:
		return nil, errors.New("token: access lifetime must be positive")
	case cfg.AccessTTL >= cfg.RefreshTTL:
		return nil, errors.New("token: access lifetime must be shorter than refresh lifetime")
	}

	return &Issuer{
		key:        key,
		verifier:   verifier,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		issuer:     cfg.Issuer,
		now:        cfg.now,
	}, nil
}

func (i *Issuer) IssuePair(user *models.User) (*Pair, error) {
	if user == nil || user.ID == uuid.Nil {
		return nil, errors.New("token: user id is required")
	}

	access, err := i.issue(user.ID.String(), user.Email, TypeAccess, i.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := i.issue(user.ID.String(), user.Email, TypeRefresh, i.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &Pair{Access: access, Refresh: refresh}, nil
}

// IssueAccess exchanges a refresh token for a new access token. It never
// returns a refresh token; a rejected refresh token is final and the caller
// has to log in again.
func (i *Issuer) IssueAccess(refreshToken string) (string, error) {
	claims, err := i.verifier.Verify(refreshToken, TypeRefresh)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRefreshToken, err)
	}

	return i.issue(claims.Subject, claims.Email, TypeAccess, i.accessTTL)
}

func (i *Issuer) issue(subject, email string, typ Type, ttl time.Duration) (string, error) {
	now := i.now()
	claims := &Claims{
		Email: email,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := i.key.sign(claims)
	if err != nil {
		return "", fmt.Errorf("token: sign %s: %w", typ, err)
	}
	return signed, nil
}
