// Package auth issues and checks the operator credentials accepted by
// the HTTP API and the MCP HTTP server.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/minsu-lab/mstrack/config"
)

const (
	defaultTokenTTL = 30 * time.Minute
	bcryptCost      = 12
	accessTokenType = "access_token"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Claims carries the token type alongside the registered set so any
// other signed payload cannot pass as an access token.
type Claims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret       []byte
	apiKey       string
	adminUser    string
	passwordHash string
	tokenTTL     time.Duration
}

func New(cfg *config.Config) *Authenticator {
	secret := cfg.JWTSecret
	if len(secret) < 32 {
		secret = randomSecret()
		logrus.Warn("JWT_SECRET_KEY unset or shorter than 32 bytes, using a generated key; issued tokens will not survive a restart")
	}
	return &Authenticator{
		secret:       []byte(secret),
		apiKey:       cfg.APIKey,
		adminUser:    cfg.AdminUser,
		passwordHash: cfg.AdminPasswordHash,
		tokenTTL:     defaultTokenTTL,
	}
}

// Enabled reports whether any credential is configured. With nothing
// set the mutating routes run open.
func (a *Authenticator) Enabled() bool {
	return a.apiKey != "" || a.passwordHash != ""
}

// Login checks the operator credentials and returns a signed access
// token. The bcrypt comparison runs before the username check so both
// paths cost the same.
func (a *Authenticator) Login(username, password string) (string, error) {
	if a.passwordHash == "" {
		return "", ErrInvalidCredentials
	}
	passOK := bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(password)) == nil
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.adminUser)) == 1
	if !passOK || !userOK {
		return "", ErrInvalidCredentials
	}
	return a.IssueToken(username)
}

func (a *Authenticator) IssueToken(subject string) (string, error) {
	now := time.Now()
	claims := Claims{
		TokenType: accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    "mstrack",
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken returns the subject of a valid access token.
func (a *Authenticator) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != accessTokenType || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// VerifyAPIKey compares in constant time. An unconfigured key never
// matches.
func (a *Authenticator) VerifyAPIKey(key string) bool {
	if a.apiKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(a.apiKey)) == 1
}

// HashPassword produces the bcrypt hash expected in
// MSTRACK_ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func randomSecret() string {
	buf := make([]byte, 32)
	rand.Read(buf)
	return base64.RawURLEncoding.EncodeToString(buf)
}
