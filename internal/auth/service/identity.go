package service

import (
	"context"
	"strings"

	"github.com/taekwondodev/go-account-service/internal/auth/token"
	customerrors "github.com/taekwondodev/go-account-service/internal/customErrors"
	"github.com/taekwondodev/go-account-service/internal/models"
)

type Identity struct {
	User   *models.User
	Claims *token.Claims
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}

// BearerToken extracts the token from an Authorization header value.
// A missing header or another scheme means no credentials were sent.
func BearerToken(header string) (string, error) {
	scheme, rest, _ := strings.Cut(strings.TrimSpace(header), " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", customerrors.ErrNotAuthenticated
	}

	tok := strings.TrimSpace(rest)
	if tok == "" || strings.Contains(tok, " ") {
		return "", customerrors.ErrUnauthorized
	}
	return tok, nil
}
