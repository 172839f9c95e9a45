package handlers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParseToken_AcceptsValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "events-test-secret")
	userID := uuid.New().String()

	claims, err := parseToken(signToken(t, "events-test-secret", jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}))

	require.NoError(t, err)
	assert.Equal(t, userID, claims["user_id"])
}

func TestParseToken_RejectsBadTokens(t *testing.T) {
	t.Setenv("JWT_SECRET", "events-test-secret")

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", signToken(t, "some-other-secret", jwt.MapClaims{
			"user_id": uuid.New().String(),
		})},
		{"expired", signToken(t, "events-test-secret", jwt.MapClaims{
			"user_id": uuid.New().String(),
			"exp":     time.Now().Add(-time.Hour).Unix(),
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseToken(tt.token)
			require.Error(t, err)
			// a bare validity failure must still render a real message
			assert.NotContains(t, err.Error(), "%!w")
		})
	}
}
