package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockround/mockround/internal/auth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueAndVerify(t *testing.T) {
	issuer := auth.NewTokenIssuer(testSecret)
	token, claims, err := issuer.Issue("user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, auth.TokenLifetime, claims.ExpiresAt.Sub(claims.IssuedAt.Time))

	got, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, claims.ID, got.ID)
}

func TestVerifyRejectsTokensOlderThanLifetime(t *testing.T) {
	issuedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := auth.NewTokenIssuer(testSecret).WithClock(fixedClock(issuedAt))
	token, _, err := issuer.Issue("user-1")
	require.NoError(t, err)

	issuer.WithClock(fixedClock(issuedAt.Add(29 * 24 * time.Hour)))
	_, err = issuer.Verify(token)
	require.NoError(t, err)

	issuer.WithClock(fixedClock(issuedAt.Add(auth.TokenLifetime + time.Second)))
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyRejectsForeignSignatures(t *testing.T) {
	token, _, err := auth.NewTokenIssuer("ffffffffffffffffffffffffffffffff").Issue("user-1")
	require.NoError(t, err)

	_, err = auth.NewTokenIssuer(testSecret).Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	now := time.Now()
	claims := auth.Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	issuer := auth.NewTokenIssuer(testSecret)
	for _, token := range []string{hs512, none, "not-a-token"} {
		_, err := issuer.Verify(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	}
}

func TestVerifyRequiresExpiry(t *testing.T) {
	claims := auth.Claims{UserID: "user-1", RegisteredClaims: jwt.RegisteredClaims{ID: "jti"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = auth.NewTokenIssuer(testSecret).Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
