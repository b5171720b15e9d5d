package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/toM7x7/LLM-mindmap/pkg/log"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

// JWKSVerifier validates tokens signed by an external identity provider.
type JWKSVerifier struct {
	jwks   keyfunc.Keyfunc
	logger *log.Logger
}

// NewJWKSVerifier fetches and caches the public keys published at jwksURL.
// Keys are refreshed in the background until ctx is cancelled.
func NewJWKSVerifier(ctx context.Context, jwksURL string, logger *log.Logger) (*JWKSVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}
	return newJWKSVerifier(jwks, logger), nil
}

// NewJWKSVerifierFromJSON builds a verifier over a static JWK set.
func NewJWKSVerifierFromJSON(raw json.RawMessage, logger *log.Logger) (*JWKSVerifier, error) {
	jwks, err := keyfunc.NewJWKSetJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWK set: %w", err)
	}
	return newJWKSVerifier(jwks, logger), nil
}

func newJWKSVerifier(jwks keyfunc.Keyfunc, logger *log.Logger) *JWKSVerifier {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &JWKSVerifier{jwks: jwks, logger: logger}
}

// VerifyToken accepts RS256 and ES256 tokens signed by a key of the set.
func (v *JWKSVerifier) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, v.jwks.Keyfunc,
		jwt.WithValidMethods([]string{"RS256", "ES256"}))
	if err != nil || !token.Valid {
		v.logger.Debug(context.Background(), "External token rejected", log.Fields{"error": fmt.Sprint(err)})
		return nil, model.NewError(model.ErrUnauthorized, "verify token", "Could not validate credentials")
	}
	return checkClaims(token)
}
