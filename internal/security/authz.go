package security

// CanMutate reports whether the token holder may change a resource owned by
// ownerID. Admins may change anything.
func CanMutate(claims *Claims, ownerID string) bool {
	if claims == nil {
		return false
	}
	if claims.IsAdmin() {
		return true
	}
	return ownerID != "" && claims.UserID == ownerID
}
