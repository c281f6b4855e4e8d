package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	hashAlgorithm    = "pbkdf2"
	hashIterations   = 100000
	saltLength       = 16
	derivedKeyLength = 32

	// upper bound on stored iteration counts, keeps a tampered row from
	// stalling the login path
	maxIterations = 10_000_000
)

// HashPassword derives a PBKDF2-SHA256 key with a fresh salt and returns it
// in the persisted form pbkdf2$<iterations>$<saltHex>$<keyBase64URL>.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, hashIterations, derivedKeyLength, sha256.New)

	return fmt.Sprintf("%s$%d$%s$%s",
		hashAlgorithm,
		hashIterations,
		hex.EncodeToString(salt),
		base64.RawURLEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword re-derives the key with the stored parameters. Any stored
// value that does not have the expected shape is rejected.
func VerifyPassword(password, stored string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 4 || parts[0] != hashAlgorithm {
		return false
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 || iterations > maxIterations {
		return false
	}

	salt, err := hex.DecodeString(parts[2])
	if err != nil || len(salt) == 0 {
		return false
	}

	expected := parts[3]
	if expected == "" {
		return false
	}

	key := pbkdf2.Key([]byte(password), salt, iterations, derivedKeyLength, sha256.New)
	derived := base64.RawURLEncoding.EncodeToString(key)

	// ConstantTimeCompare returns 0 immediately on length mismatch
	return subtle.ConstantTimeCompare([]byte(derived), []byte(expected)) == 1
}
