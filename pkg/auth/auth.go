// Package auth issues and verifies the bearer tokens of the backend.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/toM7x7/LLM-mindmap/pkg/log"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

// Claims carried by access tokens. The subject is the account email.
type Claims struct {
	jwt.RegisteredClaims
	UserID int    `json:"uid,omitempty"`
	Email  string `json:"email,omitempty"`
}

// Account returns the email identifying the token holder.
func (c *Claims) Account() string {
	if c.Email != "" {
		return c.Email
	}
	return c.Subject
}

// Verifier validates a bearer token and returns its claims.
type Verifier interface {
	VerifyToken(tokenString string) (*Claims, error)
}

// Issuer mints access tokens for authenticated users.
type Issuer interface {
	IssueToken(user *model.User) (string, error)
}

// HMACAuthority signs and verifies HS256 tokens with a shared secret.
type HMACAuthority struct {
	secret []byte
	ttl    time.Duration
	logger *log.Logger
	now    func() time.Time
}

// NewHMACAuthority creates an authority for secret. Tokens expire after ttl.
func NewHMACAuthority(secret string, ttl time.Duration, logger *log.Logger) (*HMACAuthority, error) {
	if secret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &HMACAuthority{secret: []byte(secret), ttl: ttl, logger: logger, now: time.Now}, nil
}

// IssueToken signs a token for user.
func (a *HMACAuthority) IssueToken(user *model.User) (string, error) {
	now := a.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			ID:        strconv.Itoa(user.ID) + "-" + strconv.FormatInt(now.UnixNano(), 36),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
		UserID: user.ID,
		Email:  user.Email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates signature, algorithm and expiry.
func (a *HMACAuthority) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		a.logger.Debug(context.Background(), "Token rejected", log.Fields{"error": fmt.Sprint(err)})
		return nil, model.NewError(model.ErrUnauthorized, "verify token", "Could not validate credentials")
	}
	return checkClaims(token)
}

func checkClaims(token *jwt.Token) (*Claims, error) {
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Account() == "" {
		return nil, model.NewError(model.ErrUnauthorized, "verify token", "Could not validate credentials")
	}
	return claims, nil
}
