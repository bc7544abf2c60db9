package services

import (
	"testing"
	"time"

	"rtckit/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RoundTrip(t *testing.T) {
	svc := NewAuthService("secret", time.Minute)

	token, err := svc.GenerateToken(alice)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, alice, claims.Identity())
	assert.Equal(t, alice.URI, claims.Subject)
}

func TestAuthService_GenerateToken_RequiresURI(t *testing.T) {
	svc := NewAuthService("secret", time.Minute)

	_, err := svc.GenerateToken(domain.Identity{DisplayName: "Nobody"})
	assert.ErrorIs(t, err, domain.ErrEmptyIdentityURI)
}

func TestAuthService_ValidateToken_Failures(t *testing.T) {
	svc := NewAuthService("secret", time.Minute)

	other, err := NewAuthService("other-secret", time.Minute).GenerateToken(alice)
	require.NoError(t, err)
	_, err = svc.ValidateToken(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewAuthService("secret", -time.Minute).GenerateToken(alice)
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = svc.ValidateToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// a correctly signed token without a uri claim carries no identity
	bare := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Minute).Unix()})
	signed, err := bare.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
