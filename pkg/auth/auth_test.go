package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

func TestHMACAuthority_IssueAndVerify(t *testing.T) {
	a, err := NewHMACAuthority("s3cret", time.Minute, nil)
	require.NoError(t, err)

	token, err := a.IssueToken(&model.User{ID: 7, Email: "ann@example.com"})
	require.NoError(t, err)

	claims, err := a.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", claims.Account())
	assert.Equal(t, 7, claims.UserID)
}

func TestHMACAuthority_Rejects(t *testing.T) {
	a, err := NewHMACAuthority("s3cret", time.Minute, nil)
	require.NoError(t, err)
	user := &model.User{ID: 1, Email: "x@example.com"}

	other, err := NewHMACAuthority("different", time.Minute, nil)
	require.NoError(t, err)
	foreign, err := other.IssueToken(user)
	require.NoError(t, err)
	_, err = a.VerifyToken(foreign)
	assert.True(t, errors.Is(err, model.ErrUnauthorized))

	a.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := a.IssueToken(user)
	require.NoError(t, err)
	a.now = time.Now
	_, err = a.VerifyToken(expired)
	assert.True(t, errors.Is(err, model.ErrUnauthorized))

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Email: "x@example.com"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = a.VerifyToken(unsigned)
	assert.True(t, errors.Is(err, model.ErrUnauthorized))

	_, err = a.VerifyToken("garbage")
	assert.True(t, errors.Is(err, model.ErrUnauthorized))

	_, err = NewHMACAuthority("", time.Minute, nil)
	assert.Error(t, err)
}

func TestJWKSVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	set := map[string]interface{}{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": "test-key",
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}},
	}
	raw, err := json.Marshal(set)
	require.NoError(t, err)

	v, err := NewJWKSVerifierFromJSON(raw, nil)
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "idp|123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		Email: "ext@example.com",
	})
	token.Header["kid"] = "test-key"
	signed, err := token.SignedString(key)
	require.NoError(t, err)

	claims, err := v.VerifyToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "ext@example.com", claims.Account())

	hs, err := NewHMACAuthority("s3cret", time.Minute, nil)
	require.NoError(t, err)
	hsToken, err := hs.IssueToken(&model.User{ID: 1, Email: "x@example.com"})
	require.NoError(t, err)
	_, err = v.VerifyToken(hsToken)
	assert.True(t, errors.Is(err, model.ErrUnauthorized))
}
