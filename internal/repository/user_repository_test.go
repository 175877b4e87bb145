package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool, zerolog.Nop())
	ctx := context.Background()

	alice := seedUser(t, pool, "Alice@Example.com", false)
	bob := seedUser(t, pool, "bob@example.com", false)

	t.Run("emails are stored lower-cased", func(t *testing.T) {
		u, err := repo.GetByEmail(ctx, "ALICE@example.com")
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, alice.ID, u.ID)
		assert.Equal(t, "alice@example.com", u.Email)
	})

	t.Run("duplicate email on create", func(t *testing.T) {
		dup := *alice
		dup.ID = uuid.New()
		assert.ErrorIs(t, repo.Create(ctx, &dup), model.ErrEmailExists)
	})

	t.Run("duplicate email on profile update", func(t *testing.T) {
		b := *bob
		b.Email = "alice@example.com"
		assert.ErrorIs(t, repo.UpdateProfile(ctx, &b), model.ErrEmailExists)
	})

	t.Run("GetByID unknown", func(t *testing.T) {
		u, err := repo.GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("UpdatePassword", func(t *testing.T) {
		require.NoError(t, repo.UpdatePassword(ctx, bob.ID, "new-hash"))

		u, err := repo.GetByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", u.PasswordHash)

		assert.ErrorIs(t, repo.UpdatePassword(ctx, uuid.New(), "x"), model.ErrUserNotFound)
	})

	t.Run("password reset sets the password once", func(t *testing.T) {
		now := time.Now().UTC()
		reset := &model.PasswordReset{TokenHash: hashOf("a"), UserID: alice.ID, ExpiresAt: now.Add(15 * time.Minute)}
		require.NoError(t, repo.CreatePasswordReset(ctx, reset))

		got, err := repo.RedeemPasswordReset(ctx, reset.TokenHash, "reset-hash", now)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, alice.ID, got.UserID)

		u, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "reset-hash", u.PasswordHash)

		again, err := repo.RedeemPasswordReset(ctx, reset.TokenHash, "second-hash", now)
		require.NoError(t, err)
		assert.Nil(t, again)

		u, err = repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "reset-hash", u.PasswordHash)
	})

	t.Run("new reset replaces the previous one", func(t *testing.T) {
		now := time.Now().UTC()
		first := &model.PasswordReset{TokenHash: hashOf("b"), UserID: alice.ID, ExpiresAt: now.Add(time.Hour)}
		second := &model.PasswordReset{TokenHash: hashOf("c"), UserID: alice.ID, ExpiresAt: now.Add(time.Hour)}
		require.NoError(t, repo.CreatePasswordReset(ctx, first))
		require.NoError(t, repo.CreatePasswordReset(ctx, second))

		got, err := repo.RedeemPasswordReset(ctx, first.TokenHash, "stale-hash", now)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("expired reset is rejected", func(t *testing.T) {
		now := time.Now().UTC()
		reset := &model.PasswordReset{TokenHash: hashOf("d"), UserID: bob.ID, ExpiresAt: now.Add(-time.Minute)}
		require.NoError(t, repo.CreatePasswordReset(ctx, reset))

		got, err := repo.RedeemPasswordReset(ctx, reset.TokenHash, "expired-hash", now)
		require.NoError(t, err)
		assert.Nil(t, got)

		u, err := repo.GetByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", u.PasswordHash)

		var left int
		require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM password_resets WHERE token_hash = $1`, reset.TokenHash).Scan(&left))
		assert.Zero(t, left)
	})
}

// hashOf pads a marker to the 64 characters of a hex SHA-256 digest.
func hashOf(marker string) string {
	out := make([]byte, 64)
	for i := range out {
		out[i] = marker[0]
	}
	return string(out)
}
