package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenlog/screenlog-be/internal/apperr"
	"github.com/screenlog/screenlog-be/internal/auth"
)

// mailerStub records sent verification mail and optionally fails.
type mailerStub struct {
	sent []string
	err  error
}

func (m *mailerStub) SendVerification(_ context.Context, to, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

func newUserService(t *testing.T, mailer *mailerStub, rollback bool) (*UserService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserService(db, mailer, 24*time.Hour, rollback), mock
}

const insertUserPattern = `INSERT INTO users`

func TestCreateUser(t *testing.T) {
	mailer := &mailerStub{}
	svc, mock := newUserService(t, mailer, false)

	mock.ExpectBegin()
	mock.ExpectExec(insertUserPattern).
		WithArgs(sqlmock.AnyArg(), "Alice", "alice@example.com", sqlmock.AnyArg(),
			false, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := svc.CreateUser(context.Background(), "Alice", "alice@example.com", "long-enough-password")
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "Alice", user.Name)
	assert.False(t, user.IsVerified)
	assert.Empty(t, user.PasswordHash, "hash must not be returned")
	assert.Equal(t, []string{"alice@example.com"}, mailer.sent)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserShortPassword(t *testing.T) {
	svc, mock := newUserService(t, &mailerStub{}, false)

	_, err := svc.CreateUser(context.Background(), "Alice", "alice@example.com", "short")
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
	// Nothing must reach the database
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc, mock := newUserService(t, &mailerStub{}, false)

	mock.ExpectBegin()
	mock.ExpectExec(insertUserPattern).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	mock.ExpectRollback()

	_, err := svc.CreateUser(context.Background(), "Bob", "alice@example.com", "long-enough-password")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserEmailFailureCommitsByDefault(t *testing.T) {
	mailer := &mailerStub{err: errors.New("smtp relay down")}
	svc, mock := newUserService(t, mailer, false)

	mock.ExpectBegin()
	mock.ExpectExec(insertUserPattern).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := svc.CreateUser(context.Background(), "Alice", "alice@example.com", "long-enough-password")
	require.NoError(t, err, "creation must survive a failed verification email")
	assert.NotEmpty(t, user.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserEmailFailureRollsBackWhenConfigured(t *testing.T) {
	mailer := &mailerStub{err: errors.New("smtp relay down")}
	svc, mock := newUserService(t, mailer, true)

	mock.ExpectBegin()
	mock.ExpectExec(insertUserPattern).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	_, err := svc.CreateUser(context.Background(), "Alice", "alice@example.com", "long-enough-password")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByIDNotFound(t *testing.T) {
	svc, mock := newUserService(t, &mailerStub{}, false)

	mock.ExpectQuery(`SELECT id, name, email, is_verified, created_at FROM users`).
		WithArgs("missing-id").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.GetUserByID(context.Background(), "missing-id")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteUserTwice(t *testing.T) {
	svc, mock := newUserService(t, &mailerStub{}, false)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM users`).WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.DeleteUser(context.Background(), "user-1"))

	// Second delete of the same id reports NotFound, not success
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM users`).WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := svc.DeleteUser(context.Background(), "user-1")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyEmailSingleUse(t *testing.T) {
	svc, mock := newUserService(t, &mailerStub{}, false)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users`).WithArgs("the-token").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	verified, err := svc.VerifyEmail(context.Background(), "the-token")
	require.NoError(t, err)
	assert.True(t, verified)

	// The conditional update matches nothing the second time around
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users`).WithArgs("the-token").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	verified, err = svc.VerifyEmail(context.Background(), "the-token")
	require.NoError(t, err)
	assert.False(t, verified)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticateUser(t *testing.T) {
	hash, err := auth.HashPassword("long-enough-password")
	require.NoError(t, err)

	userColumns := []string{"id", "name", "email", "password_hash", "is_verified", "created_at"}
	selectByEmail := `SELECT id, name, email, password_hash, is_verified, created_at FROM users`

	t.Run("success", func(t *testing.T) {
		svc, mock := newUserService(t, &mailerStub{}, false)
		mock.ExpectQuery(selectByEmail).WithArgs("alice@example.com").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow("user-1", "Alice", "alice@example.com", hash, true, time.Now()))

		user, err := svc.AuthenticateUser(context.Background(), "alice@example.com", "long-enough-password")
		require.NoError(t, err)
		assert.Equal(t, "user-1", user.ID)
		assert.Empty(t, user.PasswordHash)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, mock := newUserService(t, &mailerStub{}, false)
		mock.ExpectQuery(selectByEmail).WithArgs("alice@example.com").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow("user-1", "Alice", "alice@example.com", hash, true, time.Now()))

		_, err := svc.AuthenticateUser(context.Background(), "alice@example.com", "wrong")
		require.Error(t, err)
		assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, mock := newUserService(t, &mailerStub{}, false)
		mock.ExpectQuery(selectByEmail).WithArgs("nobody@example.com").
			WillReturnError(sql.ErrNoRows)

		_, err := svc.AuthenticateUser(context.Background(), "nobody@example.com", "long-enough-password")
		require.Error(t, err)
		assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	})

	t.Run("unverified account", func(t *testing.T) {
		svc, mock := newUserService(t, &mailerStub{}, false)
		mock.ExpectQuery(selectByEmail).WithArgs("alice@example.com").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow("user-1", "Alice", "alice@example.com", hash, false, time.Now()))

		_, err := svc.AuthenticateUser(context.Background(), "alice@example.com", "long-enough-password")
		require.Error(t, err)
		assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	})
}

func TestClearExpiredVerificationTokens(t *testing.T) {
	svc, mock := newUserService(t, &mailerStub{}, false)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	cleared, err := svc.ClearExpiredVerificationTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), cleared)
}
