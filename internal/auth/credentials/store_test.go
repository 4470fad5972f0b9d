package credentials_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/taekwondodev/go-account-service/internal/auth/credentials"
	"github.com/taekwondodev/go-account-service/internal/auth/password"
	"github.com/taekwondodev/go-account-service/internal/auth/repository"
	customerrors "github.com/taekwondodev/go-account-service/internal/customErrors"
	"github.com/taekwondodev/go-account-service/internal/migrations"
	"github.com/taekwondodev/go-account-service/internal/models"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) InsertIfAbsent(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	args := m.Called(ctx, limit, offset)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *MockUserRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *MockUserRepository) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

const (
	testEmail    = "test@example.com"
	testPassword = "testpassword123"
)

func fastHasher(t *testing.T) password.Hasher {
	t.Helper()
	h, err := password.NewArgon2id(password.Argon2Config{MemoryKB: 8 * 1024, Iterations: 1, Parallelism: 1})
	require.NoError(t, err)
	return h
}

type storeTestDeps struct {
	store credentials.CredentialStore
	repo  repository.UserRepository
}

func setupStoreTest(t *testing.T, opts ...credentials.Option) *storeTestDeps {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = migrations.Up(context.Background(), db, "sqlite3")
	require.NoError(t, err)

	repo := repository.NewUserRepository(db, repository.SQLite)
	store, err := credentials.NewCredentialStore(repo, fastHasher(t), opts...)
	require.NoError(t, err)

	return &storeTestDeps{store: store, repo: repo}
}

func validNewUser() credentials.NewUser {
	return credentials.NewUser{
		Email:     testEmail,
		FirstName: "Test",
		LastName:  "User",
		Password:  testPassword,
	}
}

func TestCreate(t *testing.T) {
	t.Parallel()
	d := setupStoreTest(t)
	ctx := context.Background()

	in := validNewUser()
	in.Email = "  Test@Example.COM "
	user, err := d.store.Create(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, testEmail, user.Email)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsStaff)
	assert.False(t, user.IsSuperuser)
	assert.NotEqual(t, testPassword, user.PasswordHash)

	stored, err := d.repo.FindByEmail(ctx, testEmail)
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)

	ok, err := fastHasher(t).Verify(testPassword, stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreate_Inactive(t *testing.T) {
	t.Parallel()
	d := setupStoreTest(t, credentials.WithActiveOnCreate(false))

	user, err := d.store.Create(context.Background(), validNewUser())
	require.NoError(t, err)
	assert.False(t, user.IsActive)

	_, err = d.store.Verify(context.Background(), testEmail, testPassword)
	assert.ErrorIs(t, err, credentials.ErrInactive)
}

func TestCreate_Validation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		mutate         func(*credentials.NewUser)
		expectedFields map[string][]string
	}{
		{
			name:           "Missing email",
			mutate:         func(u *credentials.NewUser) { u.Email = "" },
			expectedFields: map[string][]string{"email": {"This field is required."}},
		},
		{
			name:           "Malformed email",
			mutate:         func(u *credentials.NewUser) { u.Email = "not-an-email" },
			expectedFields: map[string][]string{"email": {"Enter a valid email address."}},
		},
		{
			name:           "Missing password",
			mutate:         func(u *credentials.NewUser) { u.Password = "" },
			expectedFields: map[string][]string{"password": {"This field is required."}},
		},
		{
			name: "Names too long and blank",
			mutate: func(u *credentials.NewUser) {
				u.FirstName = strings.Repeat("a", 51)
				u.LastName = "   "
			},
			expectedFields: map[string][]string{
				"first_name": {"Ensure this field has no more than 50 characters."},
				"last_name":  {"This field is required."},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			d := setupStoreTest(t)

			in := validNewUser()
			tc.mutate(&in)

			user, err := d.store.Create(context.Background(), in)
			assert.Nil(t, user)

			var verr *customerrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.expectedFields, verr.Fields)

			users, err := d.store.List(context.Background(), 10, 0)
			require.NoError(t, err)
			assert.Empty(t, users)
		})
	}
}

func TestCreate_MinPasswordLength(t *testing.T) {
	t.Parallel()
	d := setupStoreTest(t, credentials.WithMinPasswordLength(8))

	in := validNewUser()
	in.Password = "p1"

	_, err := d.store.Create(context.Background(), in)
	assert.Equal(t, map[string][]string{"password": {"Ensure this field has at least 8 characters."}}, customerrors.GetFields(err))
}

// hidesLimit drops the MaxLength method of the wrapped hasher.
type hidesLimit struct {
	password.Hasher
}

func TestCreate_PasswordTooLongForBcrypt(t *testing.T) {
	t.Parallel()

	bc, err := password.NewBcrypt(bcrypt.MinCost)
	require.NoError(t, err)

	testCases := []struct {
		name            string
		hasher          password.Hasher
		password        string
		expectedMessage string
	}{
		{"Rejected before hashing", password.NewMulti(bc, fastHasher(t)), strings.Repeat("x", 100), "Ensure this field has no more than 72 bytes."},
		{"Multi-byte characters count as bytes", bc, strings.Repeat("é", 40), "Ensure this field has no more than 72 bytes."},
		{"Hasher error becomes a field error", hidesLimit{bc}, strings.Repeat("x", 100), "This password is too long."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			repo := &MockUserRepository{}
			repo.On("ExistsByEmail", mock.Anything, testEmail).Return(false, nil).Maybe()

			store, err := credentials.NewCredentialStore(repo, tc.hasher)
			require.NoError(t, err)

			in := validNewUser()
			in.Password = tc.password
			user, err := store.Create(context.Background(), in)

			assert.Nil(t, user)
			assert.Equal(t, 400, customerrors.GetStatus(err))
			assert.Equal(t, map[string][]string{"password": {tc.expectedMessage}}, customerrors.GetFields(err))
			repo.AssertNotCalled(t, "InsertIfAbsent", mock.Anything, mock.Anything)
		})
	}

	t.Run("Limit is inclusive", func(t *testing.T) {
		t.Parallel()
		repo := &MockUserRepository{}
		repo.On("ExistsByEmail", mock.Anything, testEmail).Return(false, nil)
		repo.On("InsertIfAbsent", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

		store, err := credentials.NewCredentialStore(repo, bc)
		require.NoError(t, err)

		in := validNewUser()
		in.Password = strings.Repeat("x", 72)
		_, err = store.Create(context.Background(), in)
		assert.NoError(t, err)
	})
}

func TestCreate_Duplicate(t *testing.T) {
	t.Parallel()
	d := setupStoreTest(t)
	ctx := context.Background()

	_, err := d.store.Create(ctx, validNewUser())
	require.NoError(t, err)

	again := validNewUser()
	again.Email = "TEST@example.com"
	_, err = d.store.Create(ctx, again)

	assert.ErrorIs(t, err, credentials.ErrDuplicateEmail)
	assert.Equal(t, map[string][]string{"email": {"user with this email already exists."}}, customerrors.GetFields(err))

	users, err := d.store.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestCreate_ConcurrentDuplicates(t *testing.T) {
	t.Parallel()
	d := setupStoreTest(t)

	const workers = 6
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.store.Create(context.Background(), validNewUser())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var created int
	for err := range results {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, credentials.ErrDuplicateEmail)
	}
	assert.Equal(t, 1, created)
}

func TestCreateSuperuser(t *testing.T) {
	t.Parallel()
	d := setupStoreTest(t, credentials.WithActiveOnCreate(false))

	user, err := d.store.CreateSuperuser(context.Background(), validNewUser())
	require.NoError(t, err)

	assert.True(t, user.IsActive)
	assert.True(t, user.IsStaff)
	assert.True(t, user.IsSuperuser)
	assert.True(t, user.IsVerified)

	stored, err := d.store.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSuperuser)
}

func TestVerify(t *testing.T) {
	t.Parallel()
	d := setupStoreTest(t)
	ctx := context.Background()

	created, err := d.store.Create(ctx, validNewUser())
	require.NoError(t, err)

	testCases := []struct {
		name          string
		email         string
		password      string
		expectedError error
	}{
		{"Correct password", testEmail, testPassword, nil},
		{"Email is normalized", " TEST@example.com", testPassword, nil},
		{"Wrong password", testEmail, "wrongpassword", credentials.ErrBadPassword},
		{"Unknown email", "nobody@example.com", testPassword, credentials.ErrNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			user, err := d.store.Verify(ctx, tc.email, tc.password)
			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, created.ID, user.ID)
		})
	}
}

func TestVerify_UpgradesLegacyHash(t *testing.T) {
	t.Parallel()

	repo := &MockUserRepository{}
	legacyHasher, err := password.NewBcrypt(bcrypt.MinCost)
	require.NoError(t, err)
	preferred := fastHasher(t)

	legacy, err := legacyHasher.Hash(testPassword)
	require.NoError(t, err)
	user := &models.User{ID: uuid.New(), Email: testEmail, PasswordHash: legacy, IsActive: true}

	repo.On("FindByEmail", mock.Anything, testEmail).Return(user, nil)
	repo.On("UpdatePasswordHash", mock.Anything, user.ID, mock.MatchedBy(func(h string) bool {
		return strings.HasPrefix(h, "$argon2id$")
	})).Return(nil).Once()

	store, err := credentials.NewCredentialStore(repo, password.NewMulti(preferred, legacyHasher))
	require.NoError(t, err)

	got, err := store.Verify(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got.PasswordHash, "$argon2id$"))
	repo.AssertExpectations(t)
}

func TestVerify_UpgradeFailureDoesNotFailLogin(t *testing.T) {
	t.Parallel()

	repo := &MockUserRepository{}
	legacyHasher, err := password.NewBcrypt(bcrypt.MinCost)
	require.NoError(t, err)
	legacy, err := legacyHasher.Hash(testPassword)
	require.NoError(t, err)
	user := &models.User{ID: uuid.New(), Email: testEmail, PasswordHash: legacy, IsActive: true}

	repo.On("FindByEmail", mock.Anything, testEmail).Return(user, nil)
	repo.On("UpdatePasswordHash", mock.Anything, user.ID, mock.Anything).Return(errors.New("read-only replica"))

	store, err := credentials.NewCredentialStore(repo, password.NewMulti(fastHasher(t), legacyHasher))
	require.NoError(t, err)

	got, err := store.Verify(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	assert.Equal(t, legacy, got.PasswordHash)
}

func TestVerify_RepositoryErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		mockSetup     func(*MockUserRepository)
		expectedError string
		notErrors     []error
	}{
		{
			name: "Lookup failure is not a credential error",
			mockSetup: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, testEmail).Return(nil, errors.New("connection reset"))
			},
			expectedError: "connection reset",
			notErrors:     []error{credentials.ErrNotFound, credentials.ErrBadPassword},
		},
		{
			name: "Unreadable stored hash counts as mismatch",
			mockSetup: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, testEmail).
					Return(&models.User{ID: uuid.New(), Email: testEmail, PasswordHash: "plain", IsActive: true}, nil)
			},
			expectedError: credentials.ErrBadPassword.Error(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := &MockUserRepository{}
			tc.mockSetup(repo)
			store, err := credentials.NewCredentialStore(repo, fastHasher(t))
			require.NoError(t, err)

			user, err := store.Verify(context.Background(), testEmail, testPassword)
			assert.Nil(t, user)
			assert.ErrorContains(t, err, tc.expectedError)
			for _, e := range tc.notErrors {
				assert.NotErrorIs(t, err, e)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestCreate_RepositoryErrors(t *testing.T) {
	t.Parallel()

	t.Run("Exists check fails", func(t *testing.T) {
		t.Parallel()
		repo := &MockUserRepository{}
		repo.On("ExistsByEmail", mock.Anything, testEmail).Return(false, errors.New("timeout"))

		store, err := credentials.NewCredentialStore(repo, fastHasher(t))
		require.NoError(t, err)

		_, err = store.Create(context.Background(), validNewUser())
		assert.ErrorContains(t, err, "timeout")
		repo.AssertNotCalled(t, "InsertIfAbsent", mock.Anything, mock.Anything)
	})

	t.Run("Lost insert race", func(t *testing.T) {
		t.Parallel()
		repo := &MockUserRepository{}
		repo.On("ExistsByEmail", mock.Anything, testEmail).Return(false, nil)
		repo.On("InsertIfAbsent", mock.Anything, mock.AnythingOfType("*models.User")).Return(repository.ErrDuplicate)

		store, err := credentials.NewCredentialStore(repo, fastHasher(t))
		require.NoError(t, err)

		_, err = store.Create(context.Background(), validNewUser())
		assert.ErrorIs(t, err, credentials.ErrDuplicateEmail)
		assert.Equal(t, 400, customerrors.GetStatus(err))
	})
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()
	d := setupStoreTest(t)

	_, err := d.store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, credentials.ErrNotFound)
	assert.NoError(t, d.store.Ping(context.Background()))
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "john.doe@example.com", credentials.NormalizeEmail("  John.Doe@Example.COM\t"))
}
