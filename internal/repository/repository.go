package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"tesatiki/internal/models"
)

// ErrNotFound is returned by single-record lookups when nothing matches.
var ErrNotFound = errors.New("record not found")

// GatewayError carries a non-2xx answer of the records service.
type GatewayError struct {
	Status int
	Body   string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("records gateway returned %d: %s", e.Status, e.Body)
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, userID string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	Update(ctx context.Context, userID string, fields models.Fields) (*models.User, error)
	Delete(ctx context.Context, userID string) error
}

type ProductRepository interface {
	Create(ctx context.Context, fields models.Fields) (*models.Product, error)
	GetByID(ctx context.Context, productID string) (*models.Product, error)
	Update(ctx context.Context, productID string, fields models.Fields) (*models.Product, error)
	Delete(ctx context.Context, productID string) error
	ListApproved(ctx context.Context) ([]models.ProductWithSeller, error)
	ListByOwner(ctx context.Context, userID string) ([]models.Product, error)
	// ListExpired returns approved listings whose expires_at is before now,
	// either on a paid tier or on the free tier.
	ListExpired(ctx context.Context, paid bool, now time.Time) ([]models.Product, error)
	CountActiveFree(ctx context.Context, userID string) (int, error)
}

type Repository struct {
	User    UserRepository
	Product ProductRepository
}

// NewRepository wires the direct postgres implementations.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		User:    NewUserRepository(db),
		Product: NewProductRepository(db),
	}
}

// NewRestRepository wires the records-service implementations.
func NewRestRepository(client *RestClient) *Repository {
	return &Repository{
		User:    NewUserRestRepository(client),
		Product: NewProductRestRepository(client),
	}
}

// activeFreeStatuses are the listing states that count against the free quota.
var activeFreeStatuses = []string{models.StatusApproved, models.StatusPending, models.StatusEdited}
