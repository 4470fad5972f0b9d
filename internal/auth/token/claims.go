// Package token mints and checks the signed access and refresh tokens handed
// out at login.
package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

type Claims struct {
	Email string `json:"email,omitempty"`
	Type  Type   `json:"token_type"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: subject is not a user id", ErrMalformed)
	}
	return id, nil
}

type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
