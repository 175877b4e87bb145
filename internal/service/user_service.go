package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/auth"
	"storefront/internal/mailer"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const resetTokenTTL = 15 * time.Minute

// userService implements UserService.
type userService struct {
	userRepo       repository.UserRepository
	tokens         *auth.TokenManager
	mailer         mailer.Mailer
	resetURLPrefix string
	now            func() time.Time
	logger         zerolog.Logger
}

// NewUserService creates a new account service. Reset links are
// resetURLPrefix followed by the raw token.
func NewUserService(
	userRepo repository.UserRepository,
	tokens *auth.TokenManager,
	m mailer.Mailer,
	resetURLPrefix string,
	logger zerolog.Logger,
) UserService {
	return &userService{
		userRepo:       userRepo,
		tokens:         tokens,
		mailer:         m,
		resetURLPrefix: resetURLPrefix,
		now:            time.Now,
		logger:         logger.With().Str("service", "user").Logger(),
	}
}

func (s *userService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	return s.create(ctx, req, false)
}

func (s *userService) create(ctx context.Context, req *model.RegisterRequest, admin bool) (*model.User, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           uuid.New(),
		Name:         normaliseName(req.Name),
		Email:        normaliseEmail(req.Email),
		PasswordHash: hash,
		IsAdmin:      admin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrEmailExists) {
			return nil, err
		}
		s.logger.Error().Err(err).Msg("failed to register user")
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Bool("admin", admin).Msg("user registered")
	return user, nil
}

func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*Session, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, normaliseEmail(req.Email))
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load user for login")
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	if user == nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		s.logger.Debug().Msg("login rejected")
		return nil, model.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to issue token")
		return nil, fmt.Errorf("failed to log in: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user logged in")
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to get profile")
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Name = normaliseName(req.Name)
	user.Email = normaliseEmail(req.Email)
	user.UpdatedAt = s.now().UTC()

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		if model.KindOf(err) != 0 {
			return nil, err
		}
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to update profile")
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID uuid.UUID, req *model.ChangePasswordRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		return model.ErrWrongPassword
	}

	return s.setPassword(ctx, userID, req.NewPassword)
}

func (s *userService) ForgotPassword(ctx context.Context, req *model.ForgotPasswordRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, normaliseEmail(req.Email))
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load user for password reset")
		return fmt.Errorf("failed to request password reset: %w", err)
	}
	if user == nil {
		s.logger.Debug().Msg("password reset requested for unknown email")
		return nil
	}

	token, err := newResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	reset := &model.PasswordReset{
		TokenHash: hashToken(token),
		UserID:    user.ID,
		ExpiresAt: s.now().UTC().Add(resetTokenTTL),
	}
	if err := s.userRepo.CreatePasswordReset(ctx, reset); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to store password reset")
		return fmt.Errorf("failed to request password reset: %w", err)
	}

	body := fmt.Sprintf(
		"Hello %s,\n\nUse the link below to choose a new password. It expires in %d minutes.\n\n%s%s\n",
		user.Name, int(resetTokenTTL.Minutes()), s.resetURLPrefix, token,
	)
	// Delivery failures are logged only; known and unknown addresses answer alike.
	if err := s.mailer.Send(ctx, user.Email, "Reset your password", body); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to send reset email")
		return nil
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("password reset requested")
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, token string, req *model.ResetPasswordRequest) error {
	if strings.TrimSpace(token) == "" {
		return model.ErrInvalidResetToken
	}
	if err := validation.Struct(req); err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	reset, err := s.userRepo.RedeemPasswordReset(ctx, hashToken(token), hash, s.now().UTC())
	if err != nil {
		if model.KindOf(err) != 0 {
			return err
		}
		s.logger.Error().Err(err).Msg("failed to redeem password reset")
		return fmt.Errorf("failed to reset password: %w", err)
	}
	if reset == nil {
		return model.ErrInvalidResetToken
	}

	s.logger.Info().Str("user_id", reset.UserID.String()).Msg("password reset completed")
	return nil
}

func (s *userService) EnsureAdmin(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	existing, err := s.userRepo.GetByEmail(ctx, normaliseEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}
	if existing != nil {
		if !existing.IsAdmin {
			return nil, fmt.Errorf("user %s exists but is not an administrator", existing.Email)
		}
		return existing, nil
	}
	return s.create(ctx, req, true)
}

func (s *userService) setPassword(ctx context.Context, userID uuid.UUID, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		if model.KindOf(err) != 0 {
			return err
		}
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to update password")
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// Names are stored lower-cased, matching how they were first registered.
func normaliseName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
