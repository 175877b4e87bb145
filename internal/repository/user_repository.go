package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const userColumns = `id, name, email, password_hash, is_admin, created_at, updated_at`

type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Name, strings.ToLower(user.Email), user.PasswordHash, user.IsAdmin, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrEmailExists
		}
		r.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to create user")
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query user")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET name = $2, email = $3, updated_at = $4 WHERE id = $1`,
		user.ID, user.Name, strings.ToLower(user.Email), user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrEmailExists
		}
		r.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to update profile")
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		userID, passwordHash,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to update password")
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// CreatePasswordReset keeps at most one outstanding reset per user.
func (r *userRepository) CreatePasswordReset(ctx context.Context, reset *model.PasswordReset) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM password_resets WHERE user_id = $1`, reset.UserID); err != nil {
		r.logger.Error().Err(err).Str("user_id", reset.UserID.String()).Msg("failed to drop old password resets")
		return fmt.Errorf("failed to drop old password resets: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO password_resets (token_hash, user_id, expires_at) VALUES ($1, $2, $3)`,
		reset.TokenHash, reset.UserID, reset.ExpiresAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", reset.UserID.String()).Msg("failed to store password reset")
		return fmt.Errorf("failed to store password reset: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit password reset: %w", err)
	}
	return nil
}

// RedeemPasswordReset deletes the token and sets the new password in one
// transaction so a failed update leaves the token usable.
func (r *userRepository) RedeemPasswordReset(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*model.PasswordReset, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var reset model.PasswordReset
	err = tx.QueryRow(ctx,
		`DELETE FROM password_resets WHERE token_hash = $1 RETURNING token_hash, user_id, expires_at`,
		tokenHash,
	).Scan(&reset.TokenHash, &reset.UserID, &reset.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to consume password reset")
		return nil, fmt.Errorf("failed to consume password reset: %w", err)
	}

	if !reset.ExpiresAt.After(now) {
		r.logger.Debug().Str("user_id", reset.UserID.String()).Msg("password reset expired")
		// Expired tokens are dropped either way.
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil, nil
	}

	tag, err := tx.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		reset.UserID, passwordHash,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", reset.UserID.String()).Msg("failed to update password")
		return nil, fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, model.ErrUserNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &reset, nil
}
