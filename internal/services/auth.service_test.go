package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"palcontent/config"
	"palcontent/internal/types"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "super-secret-jwt-token-with-at-least-32-characters"

func signHS256(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func baseClaims(issuer string) jwt.MapClaims {
	claims := jwt.MapClaims{
		"sub":   "a5f1b7b2-0c3e-4c63-9a59-6a2f1f0e7d11",
		"aud":   "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
		"email": "tech@example.com",
		"phone": "+15555550100",
		"role":  "authenticated",
		"user_metadata": map[string]any{
			"full_name": "Dana Tech",
		},
		"app_metadata": map[string]any{
			"role": "technician",
		},
	}
	if issuer != "" {
		claims["iss"] = issuer
	}
	return claims
}

func TestAuthService_ValidateToken_SharedSecret(t *testing.T) {
	service, err := NewAuthService(config.Config{SupabaseJWTSecret: testJWTSecret}, nil)
	require.NoError(t, err)

	info, err := service.ValidateToken(context.Background(), signHS256(t, baseClaims("")))
	require.NoError(t, err)

	assert.True(t, info.Valid)
	assert.Equal(t, "a5f1b7b2-0c3e-4c63-9a59-6a2f1f0e7d11", info.UserID)
	assert.Equal(t, "tech@example.com", info.Email)
	assert.Equal(t, "Dana Tech", info.Name)
	assert.Equal(t, "technician", info.Role)
	assert.Equal(t, "authenticated", info.AuthRole)
}

func TestAuthService_ValidateToken_Rejections(t *testing.T) {
	service, err := NewAuthService(config.Config{SupabaseJWTSecret: testJWTSecret}, nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(jwt.MapClaims)
		token  func(jwt.MapClaims) string
	}{
		{
			name:   "expired",
			mutate: func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Hour).Unix() },
		},
		{
			name:   "missing expiration",
			mutate: func(c jwt.MapClaims) { delete(c, "exp") },
		},
		{
			name:   "wrong audience",
			mutate: func(c jwt.MapClaims) { c["aud"] = "anon" },
		},
		{
			name: "wrong secret",
			token: func(c jwt.MapClaims) string {
				signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("other-secret"))
				return signed
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := baseClaims("")
			if tt.mutate != nil {
				tt.mutate(claims)
			}
			token := ""
			if tt.token != nil {
				token = tt.token(claims)
			} else {
				token = signHS256(t, claims)
			}

			info, err := service.ValidateToken(context.Background(), token)
			assert.Error(t, err)
			require.NotNil(t, info)
			assert.False(t, info.Valid)
		})
	}
}

func TestAuthService_ValidateToken_JWKS(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwkSet := JWKSet{Keys: []JWK{{
		Kid: "test-key",
		Kty: "RSA",
		Alg: "RS256",
		Use: "sig",
		N:   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
	}}}

	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/.well-known/jwks.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fetches++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jwkSet)
	}))
	defer server.Close()

	service, err := NewAuthService(config.Config{SupabaseURL: server.URL}, nil)
	require.NoError(t, err)

	sign := func(kid string, issuer string) string {
		token := jwt.NewWithClaims(jwt.SigningMethodRS256, baseClaims(issuer))
		token.Header["kid"] = kid
		signed, err := token.SignedString(key)
		require.NoError(t, err)
		return signed
	}

	info, err := service.ValidateToken(context.Background(), sign("test-key", server.URL+"/auth/v1"))
	require.NoError(t, err)
	assert.True(t, info.Valid)

	_, err = service.ValidateToken(context.Background(), sign("test-key", "https://evil.example.com/auth/v1"))
	assert.Error(t, err, "issuer mismatch")

	_, err = service.ValidateToken(context.Background(), sign("unknown", server.URL+"/auth/v1"))
	assert.Error(t, err, "unknown kid")

	assert.Equal(t, 1, fetches, "JWKS is cached between validations")

	_, err = service.ValidateToken(context.Background(), signHS256(t, baseClaims(server.URL+"/auth/v1")))
	assert.Error(t, err, "HMAC token without a configured secret")
}

func TestAuthService_InviteUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/invite", r.URL.Path)
		assert.Equal(t, "https://app.example.com/onboard", r.URL.Query().Get("redirect_to"))
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "new@example.com", body["email"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"9f1c7e0a-1111-2222-3333-444455556666","email":"new@example.com"}`))
	}))
	defer server.Close()

	service, err := NewAuthService(config.Config{
		SupabaseURL:            server.URL,
		SupabaseServiceRoleKey: "service-key",
	}, nil)
	require.NoError(t, err)

	id, err := service.InviteUser(
		context.Background(),
		"new@example.com",
		"https://app.example.com/onboard",
		map[string]any{"role": "technician"},
	)
	require.NoError(t, err)
	assert.Equal(t, "9f1c7e0a-1111-2222-3333-444455556666", id)
}

func TestAuthService_InviteUser_Failures(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		service, err := NewAuthService(config.Config{SupabaseJWTSecret: testJWTSecret}, nil)
		require.NoError(t, err)

		_, err = service.InviteUser(context.Background(), "new@example.com", "", nil)
		assert.True(t, errors.Is(err, types.ErrNotConfigured))
	})

	t.Run("upstream rejection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"msg":"A user with this email address has already been registered"}`))
		}))
		defer server.Close()

		service, err := NewAuthService(config.Config{
			SupabaseURL:            server.URL,
			SupabaseServiceRoleKey: "service-key",
		}, nil)
		require.NoError(t, err)

		_, err = service.InviteUser(context.Background(), "new@example.com", "", nil)
		assert.True(t, errors.Is(err, types.ErrUpstream))
	})
}

func TestNewAuthService_RequiresConfiguration(t *testing.T) {
	_, err := NewAuthService(config.Config{}, nil)
	assert.Error(t, err)
}
