package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-key-for-jwt-signing-32-chars"

// createTestTokenService creates a token service for testing with symmetric key
func createTestTokenService() (TokenService, error) {
	return NewTokenService(
		15*time.Minute,
		"test-issuer",
		"test-audience",
		false, // useRSAKeys
		"",    // privateKeyPEM
		"",    // publicKeyPEM
		testJWTSecret,
	)
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name        string
		useRSAKeys  bool
		privateKey  string
		publicKey   string
		secretKey   string
		expectError bool
	}{
		{
			name:      "valid symmetric key configuration",
			secretKey: testJWTSecret,
		},
		{
			name:        "missing secret key",
			secretKey:   "",
			expectError: true,
		},
		{
			name:        "rsa without keys",
			useRSAKeys:  true,
			expectError: true,
		},
		{
			name:        "rsa with garbage keys",
			useRSAKeys:  true,
			privateKey:  "not a pem",
			publicKey:   "not a pem",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, err := NewTokenService(time.Hour, "iss", "aud", tt.useRSAKeys, tt.privateKey, tt.publicKey, tt.secretKey)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, service)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, service)
			}
		})
	}
}

func TestGenerateAndValidateAdminToken(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	token, expiresAt, err := service.GenerateAdminToken("root")
	require.NoError(t, err)
	assert.Contains(t, token, "eyJ")
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := service.ValidateAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, "root", claims.Username)
	assert.Equal(t, "access", claims.TokenType)
	assert.NotEmpty(t, claims.TokenID)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))

	_, _, err = service.GenerateAdminToken("")
	assert.Error(t, err)
}

func TestValidateAdminToken_Rejects(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	other, err := NewTokenService(time.Hour, "test-issuer", "other-audience", false, "", "", testJWTSecret)
	require.NoError(t, err)
	wrongAudience, _, err := other.GenerateAdminToken("root")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "invalid token format", token: "invalid.token.format"},
		{name: "malformed token", token: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature"},
		{name: "wrong audience", token: wrongAudience},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateAdminToken(tt.token)
			assert.ErrorIs(t, err, ErrTokenInvalid)
			assert.Nil(t, claims)
		})
	}
}

func TestValidateAdminToken_Expired(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        "root",
		"token_type": "access",
		"jti":        "abc",
		"iat":        past.Add(-time.Minute).Unix(),
		"exp":        past.Unix(),
		"iss":        "test-issuer",
		"aud":        "test-audience",
	})
	signed, err := expired.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	_, err = service.ValidateAdminToken(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRevokeToken(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	token, _, err := service.GenerateAdminToken("root")
	require.NoError(t, err)

	require.NoError(t, service.RevokeToken(token))

	_, err = service.ValidateAdminToken(token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	assert.Error(t, service.RevokeToken("invalid.token"))
}
