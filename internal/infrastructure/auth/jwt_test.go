package auth

import (
	"testing"
	"time"

	"github.com/erp/stockcount/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars"

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:     testSecret,
		Issuer:     "stockcount-test",
		Expiration: 15 * time.Minute,
	})
}

func newTestInput() TokenInput {
	return TokenInput{
		TenantID:    uuid.New(),
		UserID:      uuid.New(),
		Username:    "counter",
		Permissions: []string{PermCountSessionRead, PermCountLineRecord},
	}
}

func signRaw(t *testing.T, claims jwt.Claims, method jwt.SigningMethod, key any) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()

	token, expiresAt, err := svc.GenerateAccessToken(input)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, input.TenantID, claims.TenantUUID())
	assert.Equal(t, input.UserID, claims.UserUUID())
	assert.Equal(t, "counter", claims.Username)
	assert.Equal(t, "stockcount-test", claims.Issuer)
	assert.True(t, claims.HasPermission(PermCountLineRecord))
	assert.False(t, claims.HasPermission(PermCountSessionApprove))
	assert.True(t, claims.HasAnyPermission(PermCountSessionApprove, PermCountSessionRead))
	assert.False(t, claims.HasAnyPermission())
}

func TestJWTService_Rejects(t *testing.T) {
	svc := newTestJWTService()
	now := time.Now()
	valid := func() *Claims {
		return &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "stockcount-test",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(now),
			},
			TenantID: uuid.NewString(),
			UserID:   uuid.NewString(),
		}
	}

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "garbage",
			token:   func(*testing.T) string { return "not-a-jwt" },
			wantErr: ErrInvalidToken,
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				return signRaw(t, valid(), jwt.SigningMethodHS256, []byte("another-secret-another-secret-123"))
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "wrong algorithm",
			token: func(t *testing.T) string {
				return signRaw(t, valid(), jwt.SigningMethodHS512, []byte(testSecret))
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "expired beyond leeway",
			token: func(t *testing.T) string {
				c := valid()
				c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))
				return signRaw(t, c, jwt.SigningMethodHS256, []byte(testSecret))
			},
			wantErr: ErrExpiredToken,
		},
		{
			name: "not yet valid",
			token: func(t *testing.T) string {
				c := valid()
				c.NotBefore = jwt.NewNumericDate(now.Add(time.Hour))
				return signRaw(t, c, jwt.SigningMethodHS256, []byte(testSecret))
			},
			wantErr: ErrTokenNotYetValid,
		},
		{
			name: "no expiry",
			token: func(t *testing.T) string {
				c := valid()
				c.ExpiresAt = nil
				return signRaw(t, c, jwt.SigningMethodHS256, []byte(testSecret))
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "other issuer",
			token: func(t *testing.T) string {
				c := valid()
				c.Issuer = "someone-else"
				return signRaw(t, c, jwt.SigningMethodHS256, []byte(testSecret))
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "missing tenant",
			token: func(t *testing.T) string {
				c := valid()
				c.TenantID = ""
				return signRaw(t, c, jwt.SigningMethodHS256, []byte(testSecret))
			},
			wantErr: ErrMissingTenantID,
		},
		{
			name: "missing user",
			token: func(t *testing.T) string {
				c := valid()
				c.UserID = ""
				return signRaw(t, c, jwt.SigningMethodHS256, []byte(testSecret))
			},
			wantErr: ErrMissingUserID,
		},
		{
			name: "tenant is not a uuid",
			token: func(t *testing.T) string {
				c := valid()
				c.TenantID = "acme"
				return signRaw(t, c, jwt.SigningMethodHS256, []byte(testSecret))
			},
			wantErr: ErrInvalidClaims,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token(t))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAllPermissions(t *testing.T) {
	perms := AllPermissions()
	assert.Len(t, perms, 9)
	assert.Contains(t, perms, PermCountSessionApprove)
}
