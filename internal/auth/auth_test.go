package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/minsu-lab/mstrack/config"
)

func testAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	// MinCost keeps the hash cheap; production hashes come from
	// HashPassword.
	hash, err := bcrypt.GenerateFromPassword([]byte("swordfish"), bcrypt.MinCost)
	require.NoError(t, err)
	return New(&config.Config{
		JWTSecret:         strings.Repeat("k", 32),
		APIKey:            "local-test-key",
		AdminUser:         "admin",
		AdminPasswordHash: string(hash),
	})
}

func TestLoginIssuesToken(t *testing.T) {
	a := testAuthenticator(t)

	token, err := a.Login("admin", "swordfish")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := a.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", subject)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	a := testAuthenticator(t)

	_, err := a.Login("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Login("root", "swordfish")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginDisabledWithoutHash(t *testing.T) {
	a := New(&config.Config{JWTSecret: strings.Repeat("k", 32)})

	_, err := a.Login("admin", "anything")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestTokenClaims(t *testing.T) {
	a := testAuthenticator(t)

	signed, err := a.IssueToken("admin")
	require.NoError(t, err)

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	require.NoError(t, err)

	assert.Equal(t, "access_token", claims.TokenType)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, "mstrack", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	a := testAuthenticator(t)
	a.tokenTTL = -time.Minute

	signed, err := a.IssueToken("admin")
	require.NoError(t, err)

	_, err = a.VerifyToken(signed)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsForeignSignature(t *testing.T) {
	a := testAuthenticator(t)
	b := New(&config.Config{JWTSecret: strings.Repeat("z", 32)})

	signed, err := a.IssueToken("admin")
	require.NoError(t, err)

	_, err = b.VerifyToken(signed)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsWrongType(t *testing.T) {
	a := testAuthenticator(t)

	claims := Claims{
		TokenType: "refresh_token",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	require.NoError(t, err)

	_, err = a.VerifyToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAPIKey(t *testing.T) {
	a := testAuthenticator(t)

	assert.True(t, a.VerifyAPIKey("local-test-key"))
	assert.False(t, a.VerifyAPIKey("other-key"))
	assert.False(t, a.VerifyAPIKey(""))

	unconfigured := New(&config.Config{JWTSecret: strings.Repeat("k", 32)})
	assert.False(t, unconfigured.VerifyAPIKey("local-test-key"))
}

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("swordfish")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("swordfish")))
}
