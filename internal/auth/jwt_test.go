package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/bizledger/internal/domain"
)

const testSecret = "test-jwt-secret"

func testClaims() Claims {
	return Claims{
		UserID:      uuid.New(),
		Email:       "user@test.com",
		Role:        "ACCOUNTANT",
		Permissions: []string{"maintenance:run"},
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	want := testClaims()

	token, err := GenerateToken(want, testSecret, 24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, want.UserID, claims.UserID)
	assert.Equal(t, want.Email, claims.Email)
	assert.Equal(t, want.Role, claims.Role)
	assert.Equal(t, want.Permissions, claims.Permissions)
}

func TestValidateToken(t *testing.T) {
	validToken, err := GenerateToken(testClaims(), testSecret, 24*time.Hour)
	require.NoError(t, err)

	expiredToken, err := GenerateToken(testClaims(), testSecret, -1*time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		secret    string
		wantErrIs error
	}{
		{
			name:      "expired token",
			token:     expiredToken,
			secret:    testSecret,
			wantErrIs: jwt.ErrTokenExpired,
		},
		{
			name:      "wrong secret",
			token:     validToken,
			secret:    "wrong-secret",
			wantErrIs: jwt.ErrTokenSignatureInvalid,
		},
		{
			name:      "malformed token",
			token:     "not.a.valid.jwt",
			secret:    testSecret,
			wantErrIs: jwt.ErrTokenMalformed,
		},
		{
			name:      "empty token",
			token:     "",
			secret:    testSecret,
			wantErrIs: jwt.ErrTokenMalformed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateToken(tc.token, tc.secret)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErrIs)
		})
	}
}

func TestValidateToken_RejectsForeignIssuer(t *testing.T) {
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ValidateToken(signed, testSecret)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}

func TestValidateToken_RejectsNonHMAC(t *testing.T) {
	// Algorithm confusion: a token signed with "none" should be rejected
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email: "user@test.com",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ValidateToken(signed, testSecret)
	require.Error(t, err)
}

func TestActorFromContext(t *testing.T) {
	assert.Equal(t, domain.SystemUserID, ActorFromContext(context.Background()))

	id := uuid.New()
	ctx := ContextWithPrincipal(context.Background(), Principal{UserID: id, Role: "OWNER"})
	assert.Equal(t, id, ActorFromContext(ctx))

	p, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "OWNER", p.Role)
}
