package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/taekwondodev/go-account-service/internal/auth/credentials"
	"github.com/taekwondodev/go-account-service/internal/auth/throttle"
	"github.com/taekwondodev/go-account-service/internal/auth/token"
	customerrors "github.com/taekwondodev/go-account-service/internal/customErrors"
	"github.com/taekwondodev/go-account-service/internal/logging"
	"github.com/taekwondodev/go-account-service/internal/models"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

type AuthService interface {
	Register(ctx context.Context, in credentials.NewUser) (*models.User, error)
	Login(ctx context.Context, email, password string) (*token.Pair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Authorize(ctx context.Context, accessToken string) (*Identity, error)
	ListUsers(ctx context.Context, limit, offset int) ([]models.User, error)
	HealthCheck(ctx context.Context) error
}

type AuthServiceImpl struct {
	store    credentials.CredentialStore
	issuer   *token.Issuer
	verifier *token.Verifier
	limiter  throttle.Limiter
	log      logging.Logger
}

func NewAuthService(
	store credentials.CredentialStore,
	issuer *token.Issuer,
	verifier *token.Verifier,
	limiter throttle.Limiter,
	log logging.Logger,
) AuthService {
	if limiter == nil {
		limiter = throttle.Nop{}
	}
	return &AuthServiceImpl{
		store:    store,
		issuer:   issuer,
		verifier: verifier,
		limiter:  limiter,
		log:      log.With("component", "auth"),
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, in credentials.NewUser) (*models.User, error) {
	user, err := s.store.Create(ctx, in)
	if err != nil {
		if customerrors.GetFields(err) != nil {
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}
	return user, nil
}

// Login collapses every credential failure into ErrInvalidCredentials so
// callers cannot tell unknown accounts from wrong passwords.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*token.Pair, error) {
	if verr := requireFields(map[string]string{"email": email, "password": password}); verr != nil {
		return nil, verr
	}

	key := credentials.NormalizeEmail(email)
	allowed, err := s.limiter.Attempt(ctx, key)
	if err != nil {
		s.log.Warn(ctx, "login throttle unavailable", "error", err)
	}
	if !allowed {
		s.log.Warn(ctx, "login rejected", "reason", "throttled")
		return nil, customerrors.ErrInvalidCredentials
	}

	user, err := s.store.Verify(ctx, email, password)
	if err != nil {
		reason := credentialFailure(err)
		if reason == "" {
			return nil, fmt.Errorf("login: %w", err)
		}

		s.log.Info(ctx, "login rejected", "reason", reason)
		return nil, customerrors.ErrInvalidCredentials
	}

	if err := s.limiter.Reset(ctx, key); err != nil {
		s.log.Warn(ctx, "resetting login attempts", "error", err)
	}

	pair, err := s.issuer.IssuePair(user)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.log.Info(ctx, "login succeeded", "user_id", user.ID.String())
	return pair, nil
}

func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if verr := requireFields(map[string]string{"refresh": refreshToken}); verr != nil {
		return "", verr
	}

	access, err := s.issuer.IssueAccess(refreshToken)
	if err != nil {
		if !errors.Is(err, token.ErrInvalidRefreshToken) {
			return "", fmt.Errorf("refresh: %w", err)
		}
		s.log.Info(ctx, "refresh rejected", "reason", token.KindOf(err).String())
		return "", customerrors.ErrUnauthorized
	}

	return access, nil
}

func (s *AuthServiceImpl) Authorize(ctx context.Context, accessToken string) (*Identity, error) {
	claims, err := s.verifier.Verify(accessToken, token.TypeAccess)
	if err != nil {
		s.log.Info(ctx, "bearer token rejected", "reason", token.KindOf(err).String())
		return nil, customerrors.ErrUnauthorized
	}

	id, err := claims.UserID()
	if err != nil {
		s.log.Info(ctx, "bearer token rejected", "reason", "bad_subject")
		return nil, customerrors.ErrUnauthorized
	}

	user, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, credentials.ErrNotFound) {
			s.log.Info(ctx, "bearer token rejected", "reason", "unknown_user")
			return nil, customerrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("authorize: %w", err)
	}
	if !user.IsActive {
		s.log.Info(ctx, "bearer token rejected", "reason", "inactive_user")
		return nil, customerrors.ErrUnauthorized
	}

	return &Identity{User: user, Claims: claims}, nil
}

func (s *AuthServiceImpl) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)
	offset = max(offset, 0)

	users, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *AuthServiceImpl) HealthCheck(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func credentialFailure(err error) string {
	switch {
	case errors.Is(err, credentials.ErrNotFound):
		return "unknown_email"
	case errors.Is(err, credentials.ErrBadPassword):
		return "bad_password"
	case errors.Is(err, credentials.ErrInactive):
		return "inactive"
	default:
		return ""
	}
}

func requireFields(fields map[string]string) error {
	var verr *customerrors.ValidationError
	for name, value := range fields {
		if value == "" {
			if verr == nil {
				verr = &customerrors.ValidationError{}
			}
			verr.Add(name, "This field is required.")
		}
	}
	if verr == nil {
		return nil
	}
	return verr
}
