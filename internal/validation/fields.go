package validation

import (
	"tesatiki/internal/models"
)

// ownerListingFields are the listing columns a listing owner may write.
var ownerListingFields = map[string]struct{}{
	"name":        {},
	"category":    {},
	"price":       {},
	"description": {},
	"condition":   {},
	"negotiable":  {},
	"installment": {},
	"location":    {},
	"phone":       {},
	"images":      {},
	"ad_type":     {},
}

// adminListingFields extend the owner set with moderation and tier columns.
var adminListingFields = map[string]struct{}{
	"status":         {},
	"admin_approved": {},
	"approved_at":    {},
	"expires_at":     {},
	"is_featured":    {},
	"featured_until": {},
	"boosted_at":     {},
	"boosted_until":  {},
	"ad_price":       {},
	"ad_duration":    {},
}

// FilterListingFields keeps only the keys the caller is allowed to write.
// Anything else, including ids, ownership, timestamps and credentials, is
// dropped silently.
func FilterListingFields(raw map[string]any, isAdmin bool) models.Fields {
	clean := models.Fields{}
	for key, value := range raw {
		if _, ok := ownerListingFields[key]; ok {
			clean[key] = value
			continue
		}
		if _, ok := adminListingFields[key]; ok && isAdmin {
			clean[key] = value
		}
	}
	return clean
}

// ProfileInput is the body accepted by the profile update route.
type ProfileInput struct {
	FullName     *string `json:"full_name"`
	Phone        *string `json:"phone"`
	AvatarURL    *string `json:"avatar_url"`
	Password     *string `json:"password"`
	PasswordHash *string `json:"password_hash"`
}

// ProfileFields validates a profile update and returns the columns to patch.
// Phone uniqueness is checked by the caller against the records store.
func ProfileFields(in ProfileInput) (models.Fields, error) {
	if nonEmpty(in.Password) || nonEmpty(in.PasswordHash) {
		return nil, Error("Use /api/change-password endpoint for password changes")
	}

	fields := models.Fields{}

	if nonEmpty(in.FullName) {
		name, ok := SanitizeName(*in.FullName)
		if !ok {
			return nil, Error("Invalid name format")
		}
		fields["full_name"] = name
	}

	if nonEmpty(in.Phone) {
		phone, ok := SanitizePhone(*in.Phone)
		if !ok {
			return nil, Error("Invalid phone format")
		}
		fields["phone"] = phone
	}

	if nonEmpty(in.AvatarURL) {
		fields["avatar_url"] = *in.AvatarURL
	}

	if len(fields) == 0 {
		return nil, Error("No valid fields to update")
	}
	return fields, nil
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}
