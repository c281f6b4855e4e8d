package repository

import (
	"context"
	"fmt"
	"time"

	"tesatiki/internal/models"
)

const (
	productsTable = "products"

	// sellerEmbed is the public projection of the owning user.
	sellerEmbed = "users(id,full_name,avatar_url,is_verified,last_active,created_at)"
)

type productRestRepository struct {
	client *RestClient
}

func NewProductRestRepository(client *RestClient) ProductRepository {
	return &productRestRepository{client: client}
}

func (r *productRestRepository) Create(ctx context.Context, fields models.Fields) (*models.Product, error) {
	var created []models.Product
	if err := r.client.Insert(ctx, productsTable, []models.Fields{fields}, &created); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("failed to create product: empty representation")
	}
	return &created[0], nil
}

func (r *productRestRepository) GetByID(ctx context.Context, productID string) (*models.Product, error) {
	var products []models.Product
	q := From(productsTable).Eq("id", productID).Select("*")
	if err := r.client.Select(ctx, q, &products); err != nil {
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}
	if len(products) == 0 {
		return nil, ErrNotFound
	}
	return &products[0], nil
}

func (r *productRestRepository) Update(ctx context.Context, productID string, fields models.Fields) (*models.Product, error) {
	var updated []models.Product
	if err := r.client.Patch(ctx, From(productsTable).Eq("id", productID), fields, &updated); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if len(updated) == 0 {
		return nil, ErrNotFound
	}
	return &updated[0], nil
}

func (r *productRestRepository) Delete(ctx context.Context, productID string) error {
	var deleted []models.Product
	if err := r.client.Delete(ctx, From(productsTable).Eq("id", productID), &deleted); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if len(deleted) == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRestRepository) ListApproved(ctx context.Context) ([]models.ProductWithSeller, error) {
	q := From(productsTable).
		Eq("status", models.StatusApproved).
		Select("*," + sellerEmbed).
		Order("created_at", true)

	products := []models.ProductWithSeller{}
	if err := r.client.Select(ctx, q, &products); err != nil {
		return nil, fmt.Errorf("failed to fetch approved products: %w", err)
	}
	return products, nil
}

func (r *productRestRepository) ListByOwner(ctx context.Context, userID string) ([]models.Product, error) {
	q := From(productsTable).Eq("user_id", userID).Select("*")

	products := []models.Product{}
	if err := r.client.Select(ctx, q, &products); err != nil {
		return nil, fmt.Errorf("failed to fetch products of user %s: %w", userID, err)
	}
	return products, nil
}

func (r *productRestRepository) ListExpired(ctx context.Context, paid bool, now time.Time) ([]models.Product, error) {
	q := From(productsTable).
		Eq("status", models.StatusApproved).
		Lt("expires_at", now.UTC().Format(time.RFC3339)).
		Select("*")
	if paid {
		q.Neq("ad_type", models.AdTypeFree)
	} else {
		q.Eq("ad_type", models.AdTypeFree)
	}

	products := []models.Product{}
	if err := r.client.Select(ctx, q, &products); err != nil {
		return nil, fmt.Errorf("failed to fetch expired products: %w", err)
	}
	return products, nil
}

func (r *productRestRepository) CountActiveFree(ctx context.Context, userID string) (int, error) {
	q := From(productsTable).
		Eq("user_id", userID).
		Eq("ad_type", models.AdTypeFree).
		In("status", activeFreeStatuses...).
		Select("id")

	count, err := r.client.Count(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("failed to count free products: %w", err)
	}
	return count, nil
}
