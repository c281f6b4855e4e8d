package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tesatiki/internal/models"
	"tesatiki/internal/repository"
	"tesatiki/internal/security"
	"tesatiki/internal/validation"
)

// UserService holds the admin account operations.
type UserService interface {
	ResetPassword(ctx context.Context, userID, newPassword string) error
	SetVerified(ctx context.Context, userID string, verified bool) error
	DeleteUser(ctx context.Context, userID string) error
}

type userService struct {
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	products    ProductService
	logger      *zap.Logger
	now         func() time.Time
}

func NewUserService(userRepo repository.UserRepository, productRepo repository.ProductRepository, products ProductService, logger *zap.Logger) UserService {
	return &userService{
		userRepo:    userRepo,
		productRepo: productRepo,
		products:    products,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *userService) ResetPassword(ctx context.Context, userID, newPassword string) error {
	if userID == "" || newPassword == "" {
		return newError(ErrInvalidInput, "userId and newPassword required")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return newError(ErrInvalidInput, err.Error())
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fail("Failed to reset password", err)
	}

	_, err = s.userRepo.Update(ctx, userID, models.Fields{
		"password_hash": hash,
		"updated_at":    s.now().UTC(),
	})
	if err != nil {
		return notFoundOr(err, "User not found", "Failed to reset password")
	}

	s.logger.Info("password reset by admin", zap.String("user_id", userID))
	return nil
}

func (s *userService) SetVerified(ctx context.Context, userID string, verified bool) error {
	if userID == "" {
		return newError(ErrInvalidInput, "userId required")
	}

	failMessage := "Failed to verify user"
	if !verified {
		failMessage = "Failed to unverify user"
	}

	_, err := s.userRepo.Update(ctx, userID, models.Fields{"is_verified": verified})
	if err != nil {
		return notFoundOr(err, "User not found", failMessage)
	}
	return nil
}

// DeleteUser removes every listing of the user with its images, then the
// account itself.
func (s *userService) DeleteUser(ctx context.Context, userID string) error {
	if userID == "" {
		return newError(ErrInvalidInput, "userId required")
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return notFoundOr(err, "User not found", "Failed to delete user")
	}

	products, err := s.productRepo.ListByOwner(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to list user products", zap.String("user_id", userID), zap.Error(err))
	}
	for _, product := range products {
		report := s.products.DeleteWithImages(ctx, product.ID)
		if !report.Success {
			s.logger.Warn("failed to delete user product",
				zap.String("user_id", userID),
				zap.String("product_id", product.ID),
				zap.String("error", report.Error),
			)
		}
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return notFoundOr(err, "User not found", "Failed to delete user")
	}

	s.logger.Info("user deleted", zap.String("user_id", userID), zap.Int("products", len(products)))
	return nil
}
