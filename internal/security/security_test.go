package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tesatiki/internal/models"
)

func TestHashPassword_Format(t *testing.T) {
	hash, err := HashPassword("Passw0rd1")
	require.NoError(t, err)

	parts := strings.Split(hash, "$")
	require.Len(t, parts, 4)
	assert.Equal(t, "pbkdf2", parts[0])
	assert.Equal(t, "100000", parts[1])
	assert.Len(t, parts[2], saltLength*2)
	assert.NotContains(t, parts[3], "=")

	other, err := HashPassword("Passw0rd1")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salt must be fresh per hash")
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Passw0rd1")
	require.NoError(t, err)

	assert.True(t, VerifyPassword("Passw0rd1", hash))
	assert.False(t, VerifyPassword("Passw0rd2", hash))
	assert.False(t, VerifyPassword("", hash))
}

func TestVerifyPassword_RejectsMalformed(t *testing.T) {
	hash, err := HashPassword("Passw0rd1")
	require.NoError(t, err)
	parts := strings.Split(hash, "$")

	tests := []struct {
		name   string
		stored string
	}{
		{"empty", ""},
		{"three fields", strings.Join(parts[:3], "$")},
		{"five fields", hash + "$extra"},
		{"wrong tag", "bcrypt$" + strings.Join(parts[1:], "$")},
		{"non numeric iterations", "pbkdf2$abc$" + parts[2] + "$" + parts[3]},
		{"zero iterations", "pbkdf2$0$" + parts[2] + "$" + parts[3]},
		{"bad salt hex", "pbkdf2$100000$zz$" + parts[3]},
		{"empty key", "pbkdf2$100000$" + parts[2] + "$"},
		{"truncated key", "pbkdf2$100000$" + parts[2] + "$" + parts[3][:10]},
		{"legacy plaintext", "Passw0rd1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, VerifyPassword("Passw0rd1", tt.stored))
		})
	}
}

func newTestIssuer(t *testing.T, now time.Time) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer("test-secret", DefaultTokenTTL)
	require.NoError(t, err)
	issuer.now = func() time.Time { return now }
	return issuer
}

func TestNewTokenIssuer_EmptySecret(t *testing.T) {
	issuer, err := NewTokenIssuer("", time.Hour)
	assert.Nil(t, issuer)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestTokenIssuer_SignVerify(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	issuer := newTestIssuer(t, now)

	token, err := issuer.Sign("user-1", models.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, ok := issuer.Verify(token)
	require.True(t, ok)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, now.Add(8*time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.True(t, claims.IsAdmin())
}

func TestTokenIssuer_Expiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	issuer := newTestIssuer(t, now)

	token, err := issuer.Sign("user-1", models.RoleUser)
	require.NoError(t, err)

	issuer.now = func() time.Time { return now.Add(7*time.Hour + 59*time.Minute) }
	_, ok := issuer.Verify(token)
	assert.True(t, ok)

	issuer.now = func() time.Time { return now.Add(8*time.Hour + time.Second) }
	claims, ok := issuer.Verify(token)
	assert.False(t, ok)
	assert.Nil(t, claims)
}

func TestTokenIssuer_TamperedPayload(t *testing.T) {
	issuer := newTestIssuer(t, time.Now())

	token, err := issuer.Sign("user-1", models.RoleUser)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	payload := []byte(parts[1])
	i := len(payload) / 2
	if payload[i] == 'A' {
		payload[i] = 'B'
	} else {
		payload[i] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, ok := issuer.Verify(tampered)
	assert.False(t, ok)
}

func TestTokenIssuer_RejectsForeignTokens(t *testing.T) {
	now := time.Now()
	issuer := newTestIssuer(t, now)

	claims := Claims{
		UserID: "user-1",
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	otherAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	otherSecret, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("another-secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "user-1", Role: models.RoleAdmin}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"two segments", "a.b"},
		{"four segments", "a.b.c.d"},
		{"alg none", unsigned},
		{"hs512", otherAlg},
		{"wrong secret", otherSecret},
		{"no exp", noExpiry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, ok := issuer.Verify(tt.token)
				assert.False(t, ok)
			})
		})
	}
}

func TestCanMutate(t *testing.T) {
	owner := &Claims{UserID: "owner", Role: models.RoleUser}
	stranger := &Claims{UserID: "stranger", Role: models.RoleUser}
	admin := &Claims{UserID: "admin", Role: models.RoleAdmin}

	assert.True(t, CanMutate(owner, "owner"))
	assert.False(t, CanMutate(stranger, "owner"))
	assert.True(t, CanMutate(admin, "owner"))
	assert.False(t, CanMutate(nil, "owner"))
	assert.False(t, CanMutate(&Claims{Role: models.RoleUser}, ""))
}
