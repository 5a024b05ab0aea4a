package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"kidsbook_backend/internal/config"
	"kidsbook_backend/internal/models"
)

func setTestConfig(secret string, ttlMinutes int) {
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	cfg.JWT.TTL = ttlMinutes
	config.AppConfig = cfg
}

func TestTokenRoundTrip(t *testing.T) {
	setTestConfig("unit-test-secret", 60)

	token, err := GenerateToken("user-123", models.UserRoleParent)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := ParseToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, models.UserRoleParent, claims.Role)
}

func TestParseToken_WrongSecret(t *testing.T) {
	setTestConfig("secret-one", 60)
	token, err := GenerateToken("user-123", models.UserRoleParent)
	assert.NoError(t, err)

	setTestConfig("secret-two", 60)
	_, err = ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Garbage(t *testing.T) {
	setTestConfig("unit-test-secret", 60)

	_, err := ParseToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// Токены с чужим алгоритмом подписи отклоняются
func TestParseToken_WrongSigningMethod(t *testing.T) {
	setTestConfig("unit-test-secret", 60)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: "user-123",
		Role:   models.UserRoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tokenStr, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	assert.NoError(t, err)

	_, err = ParseToken(tokenStr)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password123")
	assert.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.True(t, CheckPasswordHash("password123", hash))
	assert.False(t, CheckPasswordHash("wrong-password", hash))
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("short"))
	assert.NoError(t, ValidatePassword("long-enough-password"))
}
