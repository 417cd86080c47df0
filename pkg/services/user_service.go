package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/castlight-live/castlight/pkg/models"
)

// UserService manages user accounts. Registration and login are the only
// writers to the users table; the rest of the system reads the datastore
// read-only.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// Register creates a user account with a bcrypt-hashed password and returns
// the stored row. Returns ErrUsernameTaken when the username already exists.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, NewValidationError("username", "required")
	}
	if len(username) > 80 {
		return nil, NewValidationError("username", "must be 80 characters or fewer")
	}
	if password == "" {
		return nil, NewValidationError("password", "required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Use background context with timeout for the write
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// The email column is UNIQUE and nullable; store NULL when absent.
	var emailArg any
	if email != "" {
		emailArg = email
	}

	user := &models.User{Username: username, Email: email, IsActive: true}
	err = s.db.QueryRowContext(writeCtx,
		`INSERT INTO users (username, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		username, emailArg, string(hash),
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies a username/password pair and returns the user.
// Unknown usernames, wrong passwords and deactivated accounts all map to
// ErrInvalidCredentials so login failures are indistinguishable.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" {
		return nil, NewValidationError("username", "required")
	}
	if password == "" {
		return nil, NewValidationError("password", "required")
	}

	user, err := s.getByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUserByID retrieves a user by id
func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, COALESCE(email, ''), password_hash, is_active, created_at
		 FROM users WHERE id = $1`, id))
}

// getByUsername retrieves a user by exact username.
func (s *UserService) getByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, COALESCE(email, ''), password_hash, is_active, created_at
		 FROM users WHERE username = $1`, username))
}

func (s *UserService) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.IsActive, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
