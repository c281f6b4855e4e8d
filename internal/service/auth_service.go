package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"tesatiki/internal/metrics"
	"tesatiki/internal/models"
	"tesatiki/internal/repository"
	"tesatiki/internal/security"
	"tesatiki/internal/validation"
)

type AuthService interface {
	Register(ctx context.Context, phone, password, fullName string) error
	Login(ctx context.Context, phone, password string) (string, *models.User, error)
	Me(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, in validation.ProfileInput) (*models.User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *security.TokenIssuer
	logger   *zap.Logger
	now      func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, tokens *security.TokenIssuer, logger *zap.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *authService) Register(ctx context.Context, phone, password, fullName string) error {
	cleanPhone, ok := validation.SanitizePhone(phone)
	if !ok {
		return newError(ErrInvalidInput, "Invalid phone format. Must be +2567XXXXXXXX")
	}

	if err := validation.ValidatePassword(password); err != nil {
		return newError(ErrInvalidInput, err.Error())
	}

	_, err := s.userRepo.GetByPhone(ctx, cleanPhone)
	if err == nil {
		return newError(ErrConflict, "User already exists")
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fail("Failed to create user", err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return fail("Failed to create user", err)
	}

	user := &models.User{
		Phone:        cleanPhone,
		PasswordHash: hash,
		Role:         models.RoleUser,
		CreatedAt:    s.now().UTC(),
	}
	// an unusable name is dropped rather than rejected
	if name, ok := validation.SanitizeName(fullName); ok {
		user.FullName = &name
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return fail("Failed to create user", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return nil
}

func (s *authService) Login(ctx context.Context, phone, password string) (string, *models.User, error) {
	if strings.TrimSpace(phone) == "" || password == "" {
		return "", nil, newError(ErrInvalidInput, "Phone and password required")
	}

	lookup := strings.TrimSpace(phone)
	if clean, ok := validation.SanitizePhone(phone); ok {
		lookup = clean
	}

	user, err := s.userRepo.GetByPhone(ctx, lookup)
	if errors.Is(err, repository.ErrNotFound) {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		return "", nil, newError(ErrUnauthorized, "Invalid credentials")
	}
	if err != nil {
		return "", nil, fail("Login failed", err)
	}

	stored := user.StoredCredential()
	if stored == "" {
		s.logger.Error("user has no stored credential", zap.String("user_id", user.ID))
		return "", nil, newError(ErrInternal, "Password migration required")
	}

	if !security.VerifyPassword(password, stored) {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		return "", nil, newError(ErrUnauthorized, "Invalid credentials")
	}

	token, err := s.tokens.Sign(user.ID, user.EffectiveRole())
	if err != nil {
		return "", nil, fail("Login failed", err)
	}

	metrics.LoginAttempts.WithLabelValues("accepted").Inc()
	public := user.Public()
	return token, &public, nil
}

func (s *authService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "User not found", "Failed to fetch user")
	}
	public := user.Public()
	return &public, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID string, in validation.ProfileInput) (*models.User, error) {
	fields, err := validation.ProfileFields(in)
	if err != nil {
		return nil, newError(ErrInvalidInput, err.Error())
	}

	if phone, ok := fields["phone"].(string); ok {
		existing, err := s.userRepo.GetByPhone(ctx, phone)
		switch {
		case err == nil && existing.ID != userID:
			return nil, newError(ErrConflict, "Phone already in use")
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, fail("Failed to update profile", err)
		}
	}

	fields["updated_at"] = s.now().UTC()

	user, err := s.userRepo.Update(ctx, userID, fields)
	if err != nil {
		return nil, notFoundOr(err, "User not found", "Failed to update profile")
	}
	public := user.Public()
	return &public, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return newError(ErrInvalidInput, "Current and new passwords required")
	}
	if currentPassword == newPassword {
		return newError(ErrInvalidInput, "New password must be different from current")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return newError(ErrInvalidInput, err.Error())
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return notFoundOr(err, "User not found", "Failed to update password")
	}

	stored := user.StoredCredential()
	if stored == "" {
		return newError(ErrInternal, "Password migration required")
	}
	if !security.VerifyPassword(currentPassword, stored) {
		return newError(ErrUnauthorized, "Current password is incorrect")
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fail("Failed to update password", err)
	}

	_, err = s.userRepo.Update(ctx, userID, models.Fields{
		"password_hash": hash,
		"updated_at":    s.now().UTC(),
	})
	if err != nil {
		return fail("Failed to update password", err)
	}

	s.logger.Info("password changed", zap.String("user_id", userID))
	return nil
}
