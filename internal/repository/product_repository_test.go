package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tesatiki/internal/models"
)

func TestProductRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	created := time.Now().UTC()
	fields := models.Fields{
		"name":           "Tecno Spark",
		"category":       "phones",
		"price":          350000.0,
		"images":         []any{"/images/products/1_a.jpg"},
		"user_id":        "u1",
		"status":         models.StatusPending,
		"admin_approved": false,
		"created_at":     created,
	}

	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "category", "price", "images", "status", "created_at"}).
		AddRow("p1", "u1", "Tecno Spark", "phones", 350000.0, "{/images/products/1_a.jpg}", models.StatusPending, created)

	mock.ExpectQuery(`INSERT INTO products (admin_approved, category, created_at, id, images, name, price, status, user_id) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING *`).
		WithArgs(false, "phones", created, sqlmock.AnyArg(), sqlmock.AnyArg(), "Tecno Spark", 350000.0, models.StatusPending, "u1").
		WillReturnRows(rows)

	product, err := repo.Create(context.Background(), fields)

	require.NoError(t, err)
	assert.Equal(t, "p1", product.ID)
	assert.Equal(t, pq.StringArray{"/images/products/1_a.jpg"}, product.Images)
	assert.NotContains(t, fields, "id", "caller fields must not be mutated")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "user_id", "status", "images"}).
			AddRow("p1", "u1", models.StatusApproved, "{a,b}")

		mock.ExpectQuery(`SELECT * FROM products WHERE id = $1`).
			WithArgs("p1").
			WillReturnRows(rows)

		product, err := repo.GetByID(ctx, "p1")

		require.NoError(t, err)
		assert.Equal(t, "u1", product.UserID)
		assert.Len(t, product.Images, 2)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT * FROM products WHERE id = $1`).
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, "nope")

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestProductRepository_Update(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "status"}).AddRow("p1", models.StatusEdited)

	mock.ExpectQuery(`UPDATE products SET name = $1, status = $2, updated_at = $3 WHERE id = $4 RETURNING *`).
		WithArgs("New name", models.StatusEdited, now, "p1").
		WillReturnRows(rows)

	product, err := repo.Update(context.Background(), "p1", models.Fields{
		"status":     models.StatusEdited,
		"name":       "New name",
		"updated_at": now,
	})

	require.NoError(t, err)
	assert.Equal(t, models.StatusEdited, product.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectExec(`DELETE FROM products WHERE id = $1`).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "p1"), ErrNotFound)
}

func TestProductRepository_ListApproved(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	created := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "name", "status", "created_at",
		"users.id", "users.full_name", "users.avatar_url", "users.is_verified", "users.last_active", "users.created_at",
	}).
		AddRow("p2", "u1", "Newer", models.StatusApproved, created, "u1", "Ann", nil, true, nil, created).
		AddRow("p1", "u1", "Older", models.StatusApproved, created.Add(-time.Hour), "u1", "Ann", nil, true, nil, created)

	mock.ExpectQuery(`
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
	`).
		WithArgs(models.StatusApproved).
		WillReturnRows(rows)

	products, err := repo.ListApproved(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "p2", products[0].ID)
	require.NotNil(t, products[0].Seller)
	assert.Equal(t, "u1", products[0].Seller.ID)
	assert.True(t, products[0].Seller.IsVerified)
}

func TestProductRepository_ListExpired(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT * FROM products WHERE status = $1 AND expires_at < $2 AND ad_type <> $3`).
		WithArgs(models.StatusApproved, now, models.AdTypeFree).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ad_type"}).AddRow("p1", models.AdTypeFeatured))

	mock.ExpectQuery(`SELECT * FROM products WHERE status = $1 AND expires_at < $2 AND ad_type = $3`).
		WithArgs(models.StatusApproved, now, models.AdTypeFree).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ad_type"}))

	paid, err := repo.ListExpired(context.Background(), true, now)
	require.NoError(t, err)
	assert.Len(t, paid, 1)

	free, err := repo.ListExpired(context.Background(), false, now)
	require.NoError(t, err)
	assert.NotNil(t, free)
	assert.Empty(t, free)
}

func TestProductRepository_CountActiveFree(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(`
		SELECT COUNT(*) FROM products
		WHERE user_id = $1 AND ad_type = $2 AND status = ANY($3)
	`).
		WithArgs("u1", models.AdTypeFree, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountActiveFree(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestToStringArray(t *testing.T) {
	assert.Equal(t, pq.StringArray{"a", "b"}, toStringArray([]any{"a", 1, "b"}))
	assert.Equal(t, pq.StringArray{"a"}, toStringArray([]string{"a"}))
	assert.Equal(t, pq.StringArray{}, toStringArray(nil))
}
