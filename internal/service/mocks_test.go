package service

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"tesatiki/internal/models"
	"tesatiki/internal/storage"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, userID string, fields models.Fields) (*models.User, error) {
	args := m.Called(ctx, userID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, fields models.Fields) (*models.Product, error) {
	args := m.Called(ctx, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, productID string) (*models.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, productID string, fields models.Fields) (*models.Product, error) {
	args := m.Called(ctx, productID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, productID string) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

func (m *MockProductRepository) ListApproved(ctx context.Context) ([]models.ProductWithSeller, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProductWithSeller), args.Error(1)
}

func (m *MockProductRepository) ListByOwner(ctx context.Context, userID string) ([]models.Product, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) ListExpired(ctx context.Context, paid bool, now time.Time) ([]models.Product, error) {
	args := m.Called(ctx, paid, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) CountActiveFree(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type MockImagePurger struct {
	mock.Mock
}

func (m *MockImagePurger) DeleteAllVersions(ctx context.Context, refs []string) storage.DeleteResult {
	args := m.Called(ctx, refs)
	return args.Get(0).(storage.DeleteResult)
}

type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Upload(ctx context.Context, declaredType string, body io.Reader) (string, error) {
	args := m.Called(ctx, declaredType, body)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) Open(ctx context.Context, path string) (*storage.Object, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Object), args.Error(1)
}

type MockProductService struct {
	mock.Mock
	ProductService
}

func (m *MockProductService) DeleteWithImages(ctx context.Context, productID string) *DeleteReport {
	args := m.Called(ctx, productID)
	return args.Get(0).(*DeleteReport)
}
