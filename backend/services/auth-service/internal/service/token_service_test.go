package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelflow/backend/services/auth-service/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	token, err := svc.GenerateToken(7, models.RoleOwner)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, models.RoleOwner, claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	token, err := svc.GenerateToken(7, models.RoleEmployee)
	require.NoError(t, err)

	_, err = NewTokenService("other", time.Hour).ValidateToken(token)
	assert.Error(t, err)

	later := NewTokenService("secret", time.Hour)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{UserID: 7, Role: models.RoleSuperadmin, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenService("secret", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestGenerateTokenRequiresUser(t *testing.T) {
	_, err := NewTokenService("secret", time.Hour).GenerateToken(0, models.RoleOwner)
	assert.Error(t, err)
}
