// Package credentials owns user records and the passwords attached to them.
package credentials

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/taekwondodev/go-account-service/internal/auth/password"
	"github.com/taekwondodev/go-account-service/internal/auth/repository"
	customerrors "github.com/taekwondodev/go-account-service/internal/customErrors"
	"github.com/taekwondodev/go-account-service/internal/logging"
	"github.com/taekwondodev/go-account-service/internal/models"
)

var (
	ErrNotFound       = errors.New("credentials: no account for email")
	ErrBadPassword    = errors.New("credentials: password mismatch")
	ErrInactive       = errors.New("credentials: account inactive")
	ErrDuplicateEmail = errors.New("credentials: email already registered")
)

const duplicateEmailMessage = "user with this email already exists."

type NewUser struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Password  string `json:"password" validate:"required,max=128"`
}

type CredentialStore interface {
	Create(ctx context.Context, in NewUser) (*models.User, error)
	CreateSuperuser(ctx context.Context, in NewUser) (*models.User, error)
	// Verify returns the user when password matches. Unknown email,
	// wrong password and inactive account fail with distinct errors that
	// callers must not expose.
	Verify(ctx context.Context, email, password string) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Ping(ctx context.Context) error
}

type CredentialStoreImpl struct {
	repo              repository.UserRepository
	hasher            password.Hasher
	validate          *validator.Validate
	log               logging.Logger
	dummyHash         string
	minPasswordLength int
	activeOnCreate    bool
}

type Option func(*CredentialStoreImpl)

func WithLogger(log logging.Logger) Option {
	return func(s *CredentialStoreImpl) { s.log = log }
}

func WithMinPasswordLength(n int) Option {
	return func(s *CredentialStoreImpl) { s.minPasswordLength = n }
}

// WithActiveOnCreate controls is_active for self-registered users.
func WithActiveOnCreate(active bool) Option {
	return func(s *CredentialStoreImpl) { s.activeOnCreate = active }
}

func NewCredentialStore(repo repository.UserRepository, hasher password.Hasher, opts ...Option) (CredentialStore, error) {
	s := &CredentialStoreImpl{
		repo:              repo,
		hasher:            hasher,
		validate:          newValidator(),
		log:               logging.Nop(),
		minPasswordLength: 1,
		activeOnCreate:    true,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Unknown emails are checked against this hash so both login failure
	// paths cost one hash verification.
	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("credentials: dummy seed: %w", err)
	}
	dummy, err := hasher.Hash(hex.EncodeToString(seed))
	if err != nil {
		return nil, fmt.Errorf("credentials: dummy hash: %w", err)
	}
	s.dummyHash = dummy

	return s, nil
}

func (s *CredentialStoreImpl) Create(ctx context.Context, in NewUser) (*models.User, error) {
	return s.create(ctx, in, &models.User{IsActive: s.activeOnCreate})
}

func (s *CredentialStoreImpl) CreateSuperuser(ctx context.Context, in NewUser) (*models.User, error) {
	return s.create(ctx, in, &models.User{
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
		IsVerified:  true,
	})
}

func (s *CredentialStoreImpl) create(ctx context.Context, in NewUser, user *models.User) (*models.User, error) {
	in = normalize(in)
	if err := s.validateNewUser(in); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, duplicateEmail()
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return nil, &customerrors.ValidationError{
				Fields: map[string][]string{"password": {s.tooLongMessage()}},
				Err:    err,
			}
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user.Email = in.Email
	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.PasswordHash = hash

	// The exists check above is only a shortcut; the unique constraint
	// decides races.
	if err := s.repo.InsertIfAbsent(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, duplicateEmail()
		}
		return nil, err
	}

	s.log.Info(ctx, "user created", "user_id", user.ID.String(), "superuser", user.IsSuperuser)
	return user, nil
}

func (s *CredentialStoreImpl) Verify(ctx context.Context, email, plaintext string) (*models.User, error) {
	user, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_, _ = s.hasher.Verify(plaintext, s.dummyHash)
			return nil, ErrNotFound
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(plaintext, user.PasswordHash)
	if err != nil {
		s.log.Error(ctx, "stored password hash is unreadable", "user_id", user.ID.String(), "error", err)
		return nil, ErrBadPassword
	}
	if !ok {
		return nil, ErrBadPassword
	}
	if !user.IsActive {
		return nil, ErrInactive
	}

	s.upgradeHash(ctx, user, plaintext)
	return user, nil
}

func (s *CredentialStoreImpl) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

func (s *CredentialStoreImpl) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *CredentialStoreImpl) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// upgradeHash re-hashes with the current parameters. Failures only cost the
// upgrade, never the login.
func (s *CredentialStoreImpl) upgradeHash(ctx context.Context, user *models.User, plaintext string) {
	if !s.hasher.NeedsRehash(user.PasswordHash) {
		return
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		s.log.Warn(ctx, "password rehash failed", "user_id", user.ID.String(), "error", err)
		return
	}
	if err := s.repo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		s.log.Warn(ctx, "storing rehashed password failed", "user_id", user.ID.String(), "error", err)
		return
	}

	user.PasswordHash = hash
	s.log.Info(ctx, "password hash upgraded", "user_id", user.ID.String())
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalize(in NewUser) NewUser {
	in.Email = NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	return in
}

func duplicateEmail() error {
	return &customerrors.ValidationError{
		Fields: map[string][]string{"email": {duplicateEmailMessage}},
		Err:    ErrDuplicateEmail,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *CredentialStoreImpl) validateNewUser(in NewUser) error {
	verr := &customerrors.ValidationError{}

	if err := s.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate user: %w", err)
		}
		for _, fe := range fieldErrs {
			verr.Add(fe.Field(), fieldMessage(fe))
		}
	}

	if in.Password != "" && utf8.RuneCountInString(in.Password) < s.minPasswordLength {
		verr.Add("password", fmt.Sprintf("Ensure this field has at least %d characters.", s.minPasswordLength))
	}

	if limit := password.MaxLength(s.hasher); limit > 0 && len(in.Password) > limit {
		verr.Add("password", s.tooLongMessage())
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func (s *CredentialStoreImpl) tooLongMessage() string {
	limit := password.MaxLength(s.hasher)
	if limit == 0 {
		return "This password is too long."
	}
	return fmt.Sprintf("Ensure this field has no more than %d bytes.", limit)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	default:
		return "Invalid value."
	}
}
