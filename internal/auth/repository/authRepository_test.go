package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taekwondodev/go-account-service/internal/auth/repository"
	customerrors "github.com/taekwondodev/go-account-service/internal/customErrors"
	"github.com/taekwondodev/go-account-service/internal/models"
)

type testDependencies struct {
	repo    *repository.UserRepositoryImpl
	mock    sqlmock.Sqlmock
	cleanup func()
}

const (
	testEmail     = "test@example.com"
	columns       = "id, email, password_hash, first_name, last_name, is_active, is_staff, is_superuser, is_verified, date_joined"
	insertQuery   = "INSERT INTO users (" + columns + ") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)"
	byEmailQuery  = "SELECT " + columns + " FROM users WHERE email = $1"
	byIDQuery     = "SELECT " + columns + " FROM users WHERE id = $1"
	existsQuery   = "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)"
	listQuery     = "SELECT " + columns + " FROM users ORDER BY date_joined, id LIMIT $1 OFFSET $2"
	updateQuery   = "UPDATE users SET password_hash = $1 WHERE id = $2"
	databaseError = "database error"
)

func setupTest(t *testing.T) *testDependencies {
	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual),
		sqlmock.MonitorPingsOption(true),
	)
	require.NoError(t, err, "Error mocking DB")

	repo := repository.NewUserRepository(db, repository.Postgres).(*repository.UserRepositoryImpl)

	return &testDependencies{
		repo: repo,
		mock: mock,
		cleanup: func() {
			assert.NoError(t, mock.ExpectationsWereMet(), "Expectations were not met")
			db.Close()
		},
	}
}

func mockUser() models.User {
	return models.User{
		ID:           uuid.New(),
		Email:        testEmail,
		PasswordHash: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		FirstName:    "Test",
		LastName:     "User",
		IsActive:     true,
		DateJoined:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func mockUserRows(mock sqlmock.Sqlmock, users ...models.User) *sqlmock.Rows {
	rows := mock.NewRows([]string{
		"id", "email", "password_hash", "first_name", "last_name",
		"is_active", "is_staff", "is_superuser", "is_verified", "date_joined",
	})
	for _, u := range users {
		rows.AddRow(
			u.ID.String(), u.Email, u.PasswordHash, u.FirstName, u.LastName,
			u.IsActive, u.IsStaff, u.IsSuperuser, u.IsVerified, u.DateJoined,
		)
	}
	return rows
}

func TestInsertIfAbsent(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		mockSetup     func(sqlmock.Sqlmock, models.User)
		expectedError error
	}{
		{
			name: "Inserted",
			mockSetup: func(mock sqlmock.Sqlmock, u models.User) {
				mock.ExpectExec(insertQuery).
					WithArgs(u.ID.String(), u.Email, u.PasswordHash, u.FirstName, u.LastName,
						u.IsActive, u.IsStaff, u.IsSuperuser, u.IsVerified, u.DateJoined).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "Duplicate via lib/pq",
			mockSetup: func(mock sqlmock.Sqlmock, u models.User) {
				mock.ExpectExec(insertQuery).
					WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})
			},
			expectedError: repository.ErrDuplicate,
		},
		{
			name: "Duplicate via pgx",
			mockSetup: func(mock sqlmock.Sqlmock, u models.User) {
				mock.ExpectExec(insertQuery).
					WillReturnError(&pgconn.PgError{Code: "23505"})
			},
			expectedError: repository.ErrDuplicate,
		},
		{
			name: "Other constraint is not a duplicate",
			mockSetup: func(mock sqlmock.Sqlmock, u models.User) {
				mock.ExpectExec(insertQuery).
					WillReturnError(&pq.Error{Code: "23502"})
			},
		},
		{
			name: "Database error",
			mockSetup: func(mock sqlmock.Sqlmock, u models.User) {
				mock.ExpectExec(insertQuery).WillReturnError(errors.New(databaseError))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			deps := setupTest(t)
			defer deps.cleanup()

			user := mockUser()
			tc.mockSetup(deps.mock, user)

			err := deps.repo.InsertIfAbsent(context.Background(), &user)

			switch {
			case tc.name == "Inserted":
				assert.NoError(t, err)
			case tc.expectedError != nil:
				assert.ErrorIs(t, err, tc.expectedError)
			default:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, repository.ErrDuplicate)
			}
		})
	}
}

func TestInsertIfAbsent_FillsDefaults(t *testing.T) {
	t.Parallel()
	deps := setupTest(t)
	defer deps.cleanup()

	deps.mock.ExpectExec(insertQuery).WillReturnResult(sqlmock.NewResult(0, 1))

	user := models.User{Email: testEmail}
	require.NoError(t, deps.repo.InsertIfAbsent(context.Background(), &user))

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.False(t, user.DateJoined.IsZero())
	assert.Equal(t, time.UTC, user.DateJoined.Location())
}

func TestFindByEmail(t *testing.T) {
	t.Parallel()

	user := mockUser()

	testCases := []struct {
		name          string
		mockSetup     func(sqlmock.Sqlmock)
		expectedUser  *models.User
		expectedError error
	}{
		{
			name: "Found",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(byEmailQuery).WithArgs(testEmail).WillReturnRows(mockUserRows(mock, user))
			},
			expectedUser: &user,
		},
		{
			name: "Not found",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(byEmailQuery).WithArgs(testEmail).WillReturnError(sql.ErrNoRows)
			},
			expectedError: repository.ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			deps := setupTest(t)
			defer deps.cleanup()

			tc.mockSetup(deps.mock)

			got, err := deps.repo.FindByEmail(context.Background(), testEmail)
			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedUser, got)
		})
	}
}

func TestFindByID(t *testing.T) {
	t.Parallel()
	deps := setupTest(t)
	defer deps.cleanup()

	user := mockUser()
	deps.mock.ExpectQuery(byIDQuery).WithArgs(user.ID.String()).WillReturnRows(mockUserRows(deps.mock, user))
	deps.mock.ExpectQuery(byIDQuery).WillReturnError(errors.New(databaseError))

	got, err := deps.repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = deps.repo.FindByID(context.Background(), uuid.New())
	assert.ErrorContains(t, err, databaseError)
	assert.NotErrorIs(t, err, repository.ErrNotFound)
}

func TestExistsByEmail(t *testing.T) {
	t.Parallel()
	deps := setupTest(t)
	defer deps.cleanup()

	deps.mock.ExpectQuery(existsQuery).WithArgs(testEmail).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	deps.mock.ExpectQuery(existsQuery).WithArgs("other@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	deps.mock.ExpectQuery(existsQuery).WillReturnError(errors.New(databaseError))

	exists, err := deps.repo.ExistsByEmail(context.Background(), testEmail)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = deps.repo.ExistsByEmail(context.Background(), "other@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = deps.repo.ExistsByEmail(context.Background(), "x@example.com")
	assert.ErrorContains(t, err, databaseError)
}

func TestList(t *testing.T) {
	t.Parallel()
	deps := setupTest(t)
	defer deps.cleanup()

	first, second := mockUser(), mockUser()
	second.Email = "second@example.com"

	deps.mock.ExpectQuery(listQuery).WithArgs(10, 0).WillReturnRows(mockUserRows(deps.mock, first, second))
	deps.mock.ExpectQuery(listQuery).WithArgs(10, 20).WillReturnRows(mockUserRows(deps.mock))

	users, err := deps.repo.List(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "second@example.com", users[1].Email)

	users, err = deps.repo.List(context.Background(), 10, 20)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestUpdatePasswordHash(t *testing.T) {
	t.Parallel()
	deps := setupTest(t)
	defer deps.cleanup()

	id := uuid.New()
	deps.mock.ExpectExec(updateQuery).WithArgs("new-hash", id.String()).WillReturnResult(sqlmock.NewResult(0, 1))
	deps.mock.ExpectExec(updateQuery).WithArgs("new-hash", id.String()).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, deps.repo.UpdatePasswordHash(context.Background(), id, "new-hash"))
	assert.ErrorIs(t, deps.repo.UpdatePasswordHash(context.Background(), id, "new-hash"), repository.ErrNotFound)
}

func TestPing(t *testing.T) {
	t.Parallel()
	deps := setupTest(t)
	defer deps.cleanup()

	deps.mock.ExpectPing()
	deps.mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	assert.NoError(t, deps.repo.Ping(context.Background()))
	assert.ErrorIs(t, deps.repo.Ping(context.Background()), customerrors.ErrDbUnreachable)
}

func TestDialectFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, repository.SQLite, repository.DialectFor("sqlite"))
	assert.Equal(t, repository.Postgres, repository.DialectFor("postgres"))
	assert.Equal(t, repository.Postgres, repository.DialectFor("pgx"))
}
