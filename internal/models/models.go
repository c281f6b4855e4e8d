package models

import (
	"time"

	"github.com/lib/pq"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusEdited   = "edited"
)

type User struct {
	ID           string     `json:"id" db:"id"`
	Phone        string     `json:"phone" db:"phone"`
	PasswordHash string     `json:"password_hash,omitempty" db:"password_hash"`
	Password     string     `json:"password,omitempty" db:"password"`
	FullName     *string    `json:"full_name" db:"full_name"`
	Role         string     `json:"role" db:"role"`
	IsVerified   bool       `json:"is_verified" db:"is_verified"`
	AvatarURL    *string    `json:"avatar_url" db:"avatar_url"`
	LastActive   *time.Time `json:"last_active" db:"last_active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at" db:"updated_at"`
}

// StoredCredential returns the persisted password credential. Rows created
// before the hash column existed still carry it in the legacy column.
func (u *User) StoredCredential() string {
	if u.PasswordHash != "" {
		return u.PasswordHash
	}
	return u.Password
}

// Public strips credential material before the user leaves the service.
func (u User) Public() User {
	u.PasswordHash = ""
	u.Password = ""
	return u
}

// EffectiveRole defaults missing roles to a plain user.
func (u *User) EffectiveRole() string {
	if u.Role == "" {
		return RoleUser
	}
	return u.Role
}

type Product struct {
	ID            string         `json:"id" db:"id"`
	UserID        string         `json:"user_id" db:"user_id"`
	Name          string         `json:"name" db:"name"`
	Category      string         `json:"category" db:"category"`
	Price         float64        `json:"price" db:"price"`
	Description   *string        `json:"description" db:"description"`
	Condition     *string        `json:"condition" db:"condition"`
	Negotiable    bool           `json:"negotiable" db:"negotiable"`
	Installment   bool           `json:"installment" db:"installment"`
	Location      *string        `json:"location" db:"location"`
	Phone         *string        `json:"phone" db:"phone"`
	Images        pq.StringArray `json:"images" db:"images"`
	AdType        string         `json:"ad_type" db:"ad_type"`
	AdPrice       int            `json:"ad_price" db:"ad_price"`
	AdDuration    int            `json:"ad_duration" db:"ad_duration"`
	IsFeatured    bool           `json:"is_featured" db:"is_featured"`
	Status        string         `json:"status" db:"status"`
	AdminApproved bool           `json:"admin_approved" db:"admin_approved"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     *time.Time     `json:"updated_at" db:"updated_at"`
	ApprovedAt    *time.Time     `json:"approved_at" db:"approved_at"`
	ExpiresAt     *time.Time     `json:"expires_at" db:"expires_at"`
	FeaturedUntil *time.Time     `json:"featured_until" db:"featured_until"`
	BoostedAt     *time.Time     `json:"boosted_at" db:"boosted_at"`
	BoostedUntil  *time.Time     `json:"boosted_until" db:"boosted_until"`
}

// Seller is the public projection of a listing owner embedded in the feed.
type Seller struct {
	ID         string     `json:"id" db:"id"`
	FullName   *string    `json:"full_name" db:"full_name"`
	AvatarURL  *string    `json:"avatar_url" db:"avatar_url"`
	IsVerified bool       `json:"is_verified" db:"is_verified"`
	LastActive *time.Time `json:"last_active" db:"last_active"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

type ProductWithSeller struct {
	Product
	Seller *Seller `json:"users" db:"users"`
}

// Fields is a partial row used for inserts and patches. Keys are column names.
type Fields map[string]any
