package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tesatiki/internal/models"
)

type productRepository struct {
	db *sqlx.DB
}

// NewProductRepository returns the direct postgres implementation.
func NewProductRepository(db *sqlx.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, fields models.Fields) (*models.Product, error) {
	row := models.Fields{}
	for k, v := range fields {
		row[k] = v
	}
	if _, ok := row["id"]; !ok {
		row["id"] = uuid.New().String()
	}
	if _, ok := row["created_at"]; !ok {
		row["created_at"] = time.Now().UTC()
	}

	query, args, err := buildInsert("products", row, productColumns)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	var product models.Product
	if err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return &product, nil
}

func (r *productRepository) GetByID(ctx context.Context, productID string) (*models.Product, error) {
	query := `SELECT * FROM products WHERE id = $1`

	var product models.Product
	err := r.db.GetContext(ctx, &product, query, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}

	return &product, nil
}

func (r *productRepository) Update(ctx context.Context, productID string, fields models.Fields) (*models.Product, error) {
	query, args, err := buildUpdate("products", productID, fields, productColumns)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	var product models.Product
	err = r.db.QueryRowxContext(ctx, query, args...).StructScan(&product)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return &product, nil
}

func (r *productRepository) Delete(ctx context.Context, productID string) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, productID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *productRepository) ListApproved(ctx context.Context) ([]models.ProductWithSeller, error) {
	query := `
		SELECT p.*,
			u.id AS "users.id",
			u.full_name AS "users.full_name",
			u.avatar_url AS "users.avatar_url",
			u.is_verified AS "users.is_verified",
			u.last_active AS "users.last_active",
			u.created_at AS "users.created_at"
		FROM products p
		JOIN users u ON u.id = p.user_id
		WHERE p.status = $1
		ORDER BY p.created_at DESC
	`

	products := []models.ProductWithSeller{}
	err := r.db.SelectContext(ctx, &products, query, models.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch approved products: %w", err)
	}

	return products, nil
}

func (r *productRepository) ListByOwner(ctx context.Context, userID string) ([]models.Product, error) {
	query := `SELECT * FROM products WHERE user_id = $1 ORDER BY created_at`

	products := []models.Product{}
	err := r.db.SelectContext(ctx, &products, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products of user %s: %w", userID, err)
	}

	return products, nil
}

func (r *productRepository) ListExpired(ctx context.Context, paid bool, now time.Time) ([]models.Product, error) {
	query := `SELECT * FROM products WHERE status = $1 AND expires_at < $2 AND ad_type = $3`
	if paid {
		query = `SELECT * FROM products WHERE status = $1 AND expires_at < $2 AND ad_type <> $3`
	}

	products := []models.Product{}
	err := r.db.SelectContext(ctx, &products, query, models.StatusApproved, now, models.AdTypeFree)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch expired products: %w", err)
	}

	return products, nil
}

func (r *productRepository) CountActiveFree(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM products
		WHERE user_id = $1 AND ad_type = $2 AND status = ANY($3)
	`

	var count int
	err := r.db.GetContext(ctx, &count, query, userID, models.AdTypeFree, pq.Array(activeFreeStatuses))
	if err != nil {
		return 0, fmt.Errorf("failed to count free products: %w", err)
	}

	return count, nil
}
