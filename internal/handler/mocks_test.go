package handlers_test

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"tesatiki/internal/models"
	"tesatiki/internal/security"
	"tesatiki/internal/service"
	"tesatiki/internal/storage"
	"tesatiki/internal/validation"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, phone, password, fullName string) error {
	args := m.Called(ctx, phone, password, fullName)
	return args.Error(0)
}

func (m *MockAuthService) Login(ctx context.Context, phone, password string) (string, *models.User, error) {
	args := m.Called(ctx, phone, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.User), args.Error(2)
}

func (m *MockAuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, userID string, in validation.ProfileInput) (*models.User, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	args := m.Called(ctx, userID, currentPassword, newPassword)
	return args.Error(0)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) ResetPassword(ctx context.Context, userID, newPassword string) error {
	return m.Called(ctx, userID, newPassword).Error(0)
}

func (m *MockUserService) SetVerified(ctx context.Context, userID string, verified bool) error {
	return m.Called(ctx, userID, verified).Error(0)
}

func (m *MockUserService) DeleteUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) product(args mock.Arguments) (*models.Product, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductService) report(args mock.Arguments) (*service.DeleteReport, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DeleteReport), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, claims *security.Claims, listing map[string]any) (*models.Product, error) {
	return m.product(m.Called(ctx, claims, listing))
}

func (m *MockProductService) Update(ctx context.Context, claims *security.Claims, productID string, updates map[string]any) (*models.Product, error) {
	return m.product(m.Called(ctx, claims, productID, updates))
}

func (m *MockProductService) Delete(ctx context.Context, claims *security.Claims, productID string) (*service.DeleteReport, error) {
	return m.report(m.Called(ctx, claims, productID))
}

func (m *MockProductService) DeleteWithImages(ctx context.Context, productID string) *service.DeleteReport {
	return m.Called(ctx, productID).Get(0).(*service.DeleteReport)
}

func (m *MockProductService) DeleteImages(ctx context.Context, claims *security.Claims, productID string, images []string) (*storage.DeleteResult, error) {
	args := m.Called(ctx, claims, productID, images)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.DeleteResult), args.Error(1)
}

func (m *MockProductService) Approve(ctx context.Context, productID string) (*models.Product, error) {
	return m.product(m.Called(ctx, productID))
}

func (m *MockProductService) Reject(ctx context.Context, productID string) (*service.DeleteReport, error) {
	return m.report(m.Called(ctx, productID))
}

func (m *MockProductService) ApproveEdit(ctx context.Context, productID string) (*models.Product, error) {
	return m.product(m.Called(ctx, productID))
}

func (m *MockProductService) RejectEdit(ctx context.Context, productID string) (*models.Product, error) {
	return m.product(m.Called(ctx, productID))
}

type MockImageService struct {
	mock.Mock
}

func (m *MockImageService) Upload(ctx context.Context, contentType string, body io.Reader) (string, error) {
	args := m.Called(ctx, contentType, body)
	return args.String(0), args.Error(1)
}

func (m *MockImageService) Open(ctx context.Context, path string) (*service.Image, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Image), args.Error(1)
}

type MockFeedService struct {
	mock.Mock
}

func (m *MockFeedService) Products(ctx context.Context) ([]byte, bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}

type MockMaintenanceService struct {
	mock.Mock
}

func (m *MockMaintenanceService) Sweep(ctx context.Context) *service.SweepReport {
	return m.Called(ctx).Get(0).(*service.SweepReport)
}
