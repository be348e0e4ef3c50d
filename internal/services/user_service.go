package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/screenlog/screenlog-be/internal/apperr"
	"github.com/screenlog/screenlog-be/internal/auth"
	"github.com/screenlog/screenlog-be/internal/database"
	"github.com/screenlog/screenlog-be/internal/models"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// uniqueViolation is the Postgres error code for unique-constraint failures.
const uniqueViolation = "23505"

// Mailer sends account mail. Satisfied by email.Mailer.
type Mailer interface {
	SendVerification(ctx context.Context, to, token string) error
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	CreateUser(ctx context.Context, name, email, password string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id string) error
	VerifyEmail(ctx context.Context, token string) (bool, error)
	AuthenticateUser(ctx context.Context, email, password string) (models.User, error)
	ClearExpiredVerificationTokens(ctx context.Context) (int64, error)
}

// UserService provides business logic for user management.
type UserService struct {
	db              *sql.DB
	mailer          Mailer
	verificationTTL time.Duration

	// When true, user creation rolls back if the verification email cannot
	// be sent. The default is to commit and log a warning, since the account
	// is still usable once verified by other means.
	rollbackOnEmailFailure bool
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, mailer Mailer, verificationTTL time.Duration, rollbackOnEmailFailure bool) *UserService {
	return &UserService{
		db:                     db,
		mailer:                 mailer,
		verificationTTL:        verificationTTL,
		rollbackOnEmailFailure: rollbackOnEmailFailure,
	}
}

// CreateUser registers a new unverified user, hashing their password and
// issuing a fresh verification token. Email uniqueness is enforced by the
// database constraint, not a read-then-write check, so concurrent creations
// cannot race past each other.
func (s *UserService) CreateUser(ctx context.Context, name, email, password string) (models.User, error) {
	if name == "" {
		return models.User{}, apperr.New(apperr.KindBadRequest, "name must not be empty")
	}
	if email == "" {
		return models.User{}, apperr.New(apperr.KindBadRequest, "email must not be empty")
	}
	if len(password) < MinPasswordLength {
		return models.User{}, apperr.New(apperr.KindBadRequest, "password must be at least 8 characters long")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}

	token, err := newVerificationToken()
	if err != nil {
		return models.User{}, apperr.Wrap(apperr.KindInternal, "failed to generate verification token", err)
	}

	now := time.Now().UTC()
	expires := now.Add(s.verificationTTL)
	user := models.User{
		ID:                  uuid.New().String(),
		Name:                name,
		Email:               email,
		PasswordHash:        hash,
		IsVerified:          false,
		VerificationToken:   &token,
		VerificationExpires: &expires,
		CreatedAt:           now,
	}

	err = database.WithTx(ctx, s.db, func(ctx context.Context, tx database.DBTX) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, name, email, password_hash, is_verified, verification_token, verification_expires_at, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			user.ID, user.Name, user.Email, user.PasswordHash, user.IsVerified,
			user.VerificationToken, user.VerificationExpires, user.CreatedAt)
		if err != nil {
			return translateInsertError(err)
		}

		if s.rollbackOnEmailFailure {
			if err := s.mailer.SendVerification(ctx, user.Email, token); err != nil {
				return apperr.Wrap(apperr.KindInternal, "failed to send verification email", err)
			}
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}

	if !s.rollbackOnEmailFailure {
		if err := s.mailer.SendVerification(ctx, user.Email, token); err != nil {
			log.Warn().Err(err).Str("email", user.Email).Msg("User created but verification email failed to send")
		}
	}

	user.PasswordHash = ""
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, is_verified, created_at FROM users WHERE id = $1`, id)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.IsVerified, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperr.New(apperr.KindNotFound, "user not found")
		}
		return models.User{}, apperr.Wrap(apperr.KindInternal, "failed to load user", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a single user by their email, including the
// password hash. For internal callers only; the hash never leaves the
// service boundary.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, is_verified, created_at FROM users WHERE email = $1`, email)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.IsVerified, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperr.New(apperr.KindNotFound, "user not found")
		}
		return models.User{}, apperr.Wrap(apperr.KindInternal, "failed to load user", err)
	}
	return user, nil
}

// ListUsers retrieves all users as an unordered snapshot.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, is_verified, created_at FROM users`)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list users", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.IsVerified, &user.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to scan user", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list users", err)
	}
	return users, nil
}

// DeleteUser removes a user permanently. Deleting an id twice fails with
// NotFound on the second call. The user's movies go with them via the
// ON DELETE CASCADE constraint.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	return database.WithTx(ctx, s.db, func(ctx context.Context, tx database.DBTX) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to delete user", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to delete user", err)
		}
		if affected == 0 {
			return apperr.New(apperr.KindNotFound, "user not found")
		}
		return nil
	})
}

// VerifyEmail consumes a verification token. The find-and-update is a single
// conditional UPDATE, so a token succeeds at most once even under concurrent
// requests. Returns false for tokens that are unknown, already used or
// expired.
func (s *UserService) VerifyEmail(ctx context.Context, token string) (bool, error) {
	var verified bool
	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx database.DBTX) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE users
			 SET is_verified = TRUE, verification_token = NULL, verification_expires_at = NULL
			 WHERE verification_token = $1 AND is_verified = FALSE
			   AND (verification_expires_at IS NULL OR verification_expires_at > NOW())`,
			token)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to verify email", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to verify email", err)
		}
		verified = affected > 0
		return nil
	})
	return verified, err
}

// AuthenticateUser verifies a user's credentials. Unknown email, wrong
// password and unverified accounts all fail with the same Unauthorized kind
// so callers cannot probe which of the three it was.
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return models.User{}, apperr.New(apperr.KindUnauthorized, "incorrect email or password")
		}
		return models.User{}, err
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return models.User{}, apperr.Wrap(apperr.KindInternal, "failed to verify password", err)
	}
	if !ok {
		return models.User{}, apperr.New(apperr.KindUnauthorized, "incorrect email or password")
	}
	if !user.IsVerified {
		return models.User{}, apperr.New(apperr.KindUnauthorized, "email address is not verified")
	}

	// Don't hand the password hash back to the caller
	user.PasswordHash = ""
	return user, nil
}

// ClearExpiredVerificationTokens drops verification tokens past their expiry
// and reports how many were cleared. Used by the background sweeper.
func (s *UserService) ClearExpiredVerificationTokens(ctx context.Context) (int64, error) {
	var cleared int64
	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx database.DBTX) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE users
			 SET verification_token = NULL, verification_expires_at = NULL
			 WHERE verification_token IS NOT NULL AND verification_expires_at <= NOW()`)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to clear expired verification tokens", err)
		}
		cleared, err = res.RowsAffected()
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to clear expired verification tokens", err)
		}
		return nil
	})
	return cleared, err
}

// translateInsertError maps database failures on user insertion to the error
// taxonomy. Only the email unique constraint means Conflict.
func translateInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == "users_email_key" {
			return apperr.New(apperr.KindConflict, "user with this email already exists")
		}
	}
	return apperr.Wrap(apperr.KindInternal, "failed to create user", err)
}

// newVerificationToken generates an opaque single-use token.
func newVerificationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
