package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tesatiki/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { sqlxDB.Close() })

	return sqlxDB, mock
}

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	name := "Ann Nakato"
	insert := `
		INSERT INTO users (id, phone, password_hash, full_name, role, is_verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	t.Run("creates user with generated id", func(t *testing.T) {
		user := &models.User{
			Phone:        "+256701234567",
			PasswordHash: "pbkdf2$100000$aa$bb",
			FullName:     &name,
		}

		mock.ExpectExec(insert).
			WithArgs(
				sqlmock.AnyArg(),
				"+256701234567",
				"pbkdf2$100000$aa$bb",
				name,
				models.RoleUser,
				false,
				sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.Create(ctx, user)

		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)
		assert.Equal(t, models.RoleUser, user.Role)
		assert.False(t, user.CreatedAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate phone", func(t *testing.T) {
		user := &models.User{Phone: "+256701234567", PasswordHash: "x", FullName: &name}

		mock.ExpectExec(insert).
			WillReturnError(errors.New("duplicate key value violates unique constraint"))

		err := repo.Create(ctx, user)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create user")
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	userID := uuid.New().String()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "phone", "password_hash", "role", "is_verified", "created_at"}).
			AddRow(userID, "+256701234567", "hash", models.RoleAdmin, true, time.Now())

		mock.ExpectQuery(`SELECT * FROM users WHERE id = $1`).
			WithArgs(userID).
			WillReturnRows(rows)

		user, err := repo.GetByID(ctx, userID)

		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, models.RoleAdmin, user.Role)
		assert.True(t, user.IsVerified)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT * FROM users WHERE id = $1`).
			WithArgs(userID).
			WillReturnError(sql.ErrNoRows)

		user, err := repo.GetByID(ctx, userID)

		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("driver failure is not swallowed", func(t *testing.T) {
		mock.ExpectQuery(`SELECT * FROM users WHERE id = $1`).
			WithArgs(userID).
			WillReturnError(errors.New("connection reset"))

		user, err := repo.GetByID(ctx, userID)

		assert.Nil(t, user)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

func TestUserRepository_GetByPhone(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "phone", "password", "role", "created_at"}).
		AddRow("u1", "+256701234567", "legacy", "", time.Now())

	mock.ExpectQuery(`SELECT * FROM users WHERE phone = $1`).
		WithArgs("+256701234567").
		WillReturnRows(rows)

	user, err := repo.GetByPhone(context.Background(), "+256701234567")

	require.NoError(t, err)
	assert.Equal(t, "legacy", user.StoredCredential())
	assert.Equal(t, models.RoleUser, user.EffectiveRole())
}

func TestUserRepository_Update(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("patches sorted columns", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "phone", "is_verified", "created_at"}).
			AddRow("u1", "+256701234567", true, time.Now())

		mock.ExpectQuery(`UPDATE users SET is_verified = $1, phone = $2 WHERE id = $3 RETURNING *`).
			WithArgs(true, "+256701234567", "u1").
			WillReturnRows(rows)

		user, err := repo.Update(ctx, "u1", models.Fields{"phone": "+256701234567", "is_verified": true})

		require.NoError(t, err)
		assert.True(t, user.IsVerified)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE users SET is_verified = $1 WHERE id = $2 RETURNING *`).
			WithArgs(false, "missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Update(ctx, "missing", models.Fields{"is_verified": false})

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown column rejected before query", func(t *testing.T) {
		_, err := repo.Update(ctx, "u1", models.Fields{"id": "other"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown column")
	})
}

func TestUserRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM users WHERE id = $1`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Delete(ctx, "u1"))

	mock.ExpectExec(`DELETE FROM users WHERE id = $1`).
		WithArgs("u2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(ctx, "u2"), ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
