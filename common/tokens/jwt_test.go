package tokens

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-long-enough"

func TestNewTokenGenerator_EmptySecret(t *testing.T) {
	tg, err := NewTokenGenerator("")
	assert.ErrorIs(t, err, ErrEmptySecret)
	assert.Nil(t, tg)
}

func TestGenerateAndValidate(t *testing.T) {
	tg, err := NewTokenGenerator(testSecret)
	require.NoError(t, err)

	token, err := tg.Generate("event-bus", []string{"webhook"}, 10*time.Minute)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := tg.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "event-bus", claims.Subject)
	assert.Equal(t, Issuer, claims.Issuer)
	assert.True(t, claims.HasScope("webhook"))
	assert.False(t, claims.HasScope("admin"))
}

func TestValidate_Failures(t *testing.T) {
	tg, err := NewTokenGenerator(testSecret)
	require.NoError(t, err)

	other, err := NewTokenGenerator("a-completely-different-secret")
	require.NoError(t, err)
	foreign, err := other.Generate("svc", nil, time.Minute)
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong secret", token: foreign},
		{name: "wrong issuer", token: wrongIssuer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := tg.Validate(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestValidate_Expired(t *testing.T) {
	tg, err := NewTokenGenerator(testSecret)
	require.NoError(t, err)

	tg.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := tg.Generate("svc", nil, time.Minute)
	require.NoError(t, err)

	tg.now = time.Now
	_, err = tg.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestHasScope_EmptyMeansAll(t *testing.T) {
	c := &Claims{}
	assert.True(t, c.HasScope("admin"))
	assert.True(t, c.HasScope("webhook"))
}
