package repository

import (
	"context"
	"fmt"
	"time"

	"tesatiki/internal/models"
)

const usersTable = "users"

type userRestRepository struct {
	client *RestClient
}

func NewUserRestRepository(client *RestClient) UserRepository {
	return &userRestRepository{client: client}
}

func (r *userRestRepository) Create(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	row := models.Fields{
		"phone":         user.Phone,
		"password_hash": user.PasswordHash,
		"full_name":     user.FullName,
		"role":          user.EffectiveRole(),
		"created_at":    user.CreatedAt,
	}

	var created []models.User
	if err := r.client.Insert(ctx, usersTable, []models.Fields{row}, &created); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	if len(created) > 0 {
		*user = created[0]
	}
	return nil
}

func (r *userRestRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	return r.getOne(ctx, From(usersTable).Eq("id", userID).Select("*"))
}

func (r *userRestRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.getOne(ctx, From(usersTable).Eq("phone", phone).Select("*"))
}

func (r *userRestRepository) getOne(ctx context.Context, q *Query) (*models.User, error) {
	var users []models.User
	if err := r.client.Select(ctx, q, &users); err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	return &users[0], nil
}

func (r *userRestRepository) Update(ctx context.Context, userID string, fields models.Fields) (*models.User, error) {
	var updated []models.User
	if err := r.client.Patch(ctx, From(usersTable).Eq("id", userID), fields, &updated); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if len(updated) == 0 {
		return nil, ErrNotFound
	}
	return &updated[0], nil
}

func (r *userRestRepository) Delete(ctx context.Context, userID string) error {
	var deleted []models.User
	if err := r.client.Delete(ctx, From(usersTable).Eq("id", userID), &deleted); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if len(deleted) == 0 {
		return ErrNotFound
	}
	return nil
}
