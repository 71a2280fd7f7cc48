package services

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"palcontent/config"
	"palcontent/internal/constants"
	"palcontent/internal/database"
	"palcontent/internal/types"
	"palcontent/internal/utils"
	"strings"
	"sync"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/golang-jwt/jwt/v5"
)

const supabaseAudience = "authenticated"

// JWK represents a JSON Web Key
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// JWKSet represents a set of JSON Web Keys
type JWKSet struct {
	Keys []JWK `json:"keys"`
}

type supabaseClaims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	Role         string         `json:"role"`
	UserMetadata map[string]any `json:"user_metadata"`
	AppMetadata  map[string]any `json:"app_metadata"`
}

// AuthService validates Supabase access tokens and drives the Supabase admin
// API for magic-link invites.
type AuthService struct {
	log            logger.Logger
	httpClient     *http.Client
	baseURL        string
	issuer         string
	jwtSecret      []byte
	serviceRoleKey string
	sessionCache   database.CacheClient

	jwks     *JWKSet
	jwksMux  sync.RWMutex
	jwksTime time.Time
	cacheTTL time.Duration
}

func NewAuthService(cfg config.Config, sessionCache database.CacheClient) (*AuthService, error) {
	log := logger.New("AuthService")

	if cfg.SupabaseURL == "" && cfg.SupabaseJWTSecret == "" {
		return nil, log.ErrMsg("Supabase configuration required: missing SUPABASE_URL and SUPABASE_JWT_SECRET")
	}

	baseURL := strings.TrimSuffix(cfg.SupabaseURL, "/")
	issuer := ""
	if baseURL != "" {
		issuer = baseURL + "/auth/v1"
	}

	service := &AuthService{
		log:            log,
		httpClient:     &http.Client{Timeout: 15 * time.Second},
		baseURL:        baseURL,
		issuer:         issuer,
		jwtSecret:      []byte(cfg.SupabaseJWTSecret),
		serviceRoleKey: cfg.SupabaseServiceRoleKey,
		sessionCache:   sessionCache,
		cacheTTL:       15 * time.Minute,
	}

	log.Info("Auth service initialized",
		"issuer", issuer,
		"sharedSecret", len(service.jwtSecret) > 0,
		"adminAPI", service.serviceRoleKey != "")
	return service, nil
}

// ValidateToken verifies a Supabase access token. HS256 tokens are checked
// against the project JWT secret; asymmetric tokens against the project JWKS.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*types.TokenInfo, error) {
	log := s.log.TraceFromContext(ctx).Function("ValidateToken")

	cacheKey := utils.HashToken(tokenString)
	var cached types.TokenInfo
	found, err := database.NewCacheBuilder(s.sessionCache, cacheKey).
		WithContext(ctx).
		WithHash(constants.SessionCachePrefix).
		Get(&cached)
	if err != nil {
		log.Warn("failed to read session cache", "error", err)
	}
	if found && cached.Valid {
		return &cached, nil
	}

	options := []jwt.ParserOption{
		jwt.WithAudience(supabaseAudience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if s.issuer != "" {
		options = append(options, jwt.WithIssuer(s.issuer))
	}

	var claims supabaseClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return s.keyForToken(ctx, token)
	}, options...)
	if err != nil {
		return &types.TokenInfo{Valid: false}, log.Err("token verification failed", err)
	}
	if !token.Valid {
		return &types.TokenInfo{Valid: false}, log.ErrMsg("token is invalid")
	}

	info := &types.TokenInfo{
		UserID:   claims.Subject,
		Email:    claims.Email,
		Phone:    claims.Phone,
		Name:     metadataString(claims.UserMetadata, "full_name", "name"),
		Role:     metadataString(claims.AppMetadata, "role"),
		AuthRole: claims.Role,
		Valid:    true,
	}

	ttl := constants.SessionCacheExpiry
	if claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl > time.Second {
		if err := database.NewCacheBuilder(s.sessionCache, cacheKey).
			WithContext(ctx).
			WithHash(constants.SessionCachePrefix).
			WithStruct(info).
			WithTTL(ttl).
			Set(); err != nil {
			log.Warn("failed to cache session", "error", err)
		}
	}

	return info, nil
}

func (s *AuthService) keyForToken(ctx context.Context, token *jwt.Token) (any, error) {
	log := s.log.TraceFromContext(ctx).Function("keyForToken")

	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if len(s.jwtSecret) == 0 {
			return nil, log.ErrMsg("HMAC token received but no JWT secret configured")
		}
		return s.jwtSecret, nil
	case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, log.ErrMsg("missing 'kid' in token header")
		}
		return s.getPublicKeyForToken(ctx, kid)
	default:
		return nil, log.ErrMsg("unexpected signing method: " + fmt.Sprintf("%v", token.Header["alg"]))
	}
}

// getJWKS fetches and caches the project's JSON Web Key Set
func (s *AuthService) getJWKS(ctx context.Context) (*JWKSet, error) {
	log := s.log.TraceFromContext(ctx).Function("getJWKS")

	s.jwksMux.RLock()
	if s.jwks != nil && time.Since(s.jwksTime) < s.cacheTTL {
		jwks := s.jwks
		s.jwksMux.RUnlock()
		return jwks, nil
	}
	s.jwksMux.RUnlock()

	if s.baseURL == "" {
		return nil, log.ErrMsg("SUPABASE_URL is required for asymmetric tokens")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.issuer+"/.well-known/jwks.json", nil)
	if err != nil {
		return nil, log.Err("failed to create JWKS request", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, log.Err("failed to fetch JWKS", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Info("failed to close JWKS response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, log.Error("JWKS request failed", "statusCode", resp.StatusCode)
	}

	var jwks JWKSet
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, log.Err("failed to decode JWKS", err)
	}

	if len(jwks.Keys) == 0 {
		return nil, log.ErrMsg("JWKS contains no keys")
	}

	s.jwksMux.Lock()
	s.jwks = &jwks
	s.jwksTime = time.Now()
	s.jwksMux.Unlock()

	log.Info("JWKS fetched successfully", "keys_count", len(jwks.Keys))
	return &jwks, nil
}

func (s *AuthService) getPublicKeyForToken(ctx context.Context, kid string) (any, error) {
	log := s.log.TraceFromContext(ctx).Function("getPublicKeyForToken")

	jwks, err := s.getJWKS(ctx)
	if err != nil {
		return nil, err
	}

	var target *JWK
	for i := range jwks.Keys {
		if jwks.Keys[i].Kid == kid {
			target = &jwks.Keys[i]
			break
		}
	}
	if target == nil {
		return nil, log.ErrMsg("no matching key found: kid " + kid + " not found in JWKS")
	}

	switch target.Kty {
	case "RSA":
		return rsaPublicKey(*target)
	case "EC":
		return ecdsaPublicKey(*target)
	default:
		return nil, log.ErrMsg("unsupported key type: " + target.Kty)
	}
}

func rsaPublicKey(jwk JWK) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode RSA modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode RSA exponent: %w", err)
	}

	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() > int64(^uint32(0)>>1) {
		return nil, fmt.Errorf("RSA exponent too large: %s", e.String())
	}

	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: int(e.Int64())}, nil
}

func ecdsaPublicKey(jwk JWK) (*ecdsa.PublicKey, error) {
	if jwk.Crv != "P-256" {
		return nil, fmt.Errorf("unsupported curve: %s", jwk.Crv)
	}
	xBytes, err := base64.RawURLEncoding.DecodeString(jwk.X)
	if err != nil {
		return nil, fmt.Errorf("failed to decode EC x: %w", err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(jwk.Y)
	if err != nil {
		return nil, fmt.Errorf("failed to decode EC y: %w", err)
	}

	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}

func metadataString(metadata map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := metadata[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

type inviteResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// InviteUser sends a Supabase magic-link invite and returns the new auth user id.
func (s *AuthService) InviteUser(
	ctx context.Context,
	email string,
	redirectTo string,
	metadata map[string]any,
) (string, error) {
	log := s.log.TraceFromContext(ctx).Function("InviteUser")

	if s.baseURL == "" || s.serviceRoleKey == "" {
		return "", log.Err("invite requires the Supabase admin API", types.ErrNotConfigured)
	}

	payload, err := json.Marshal(map[string]any{"email": email, "data": metadata})
	if err != nil {
		return "", log.Err("failed to marshal invite payload", err)
	}

	endpoint := s.issuer + "/invite"
	if redirectTo != "" {
		endpoint += "?redirect_to=" + url.QueryEscape(redirectTo)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", log.Err("failed to create invite request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.serviceRoleKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceRoleKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", log.Err("invite request failed", fmt.Errorf("%w: %w", types.ErrUpstream, err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", log.Err(
			"invite rejected by Supabase",
			fmt.Errorf("%w: status %d", types.ErrUpstream, resp.StatusCode),
			"responseBody", string(body),
		)
	}

	var invited inviteResponse
	if err := json.Unmarshal(body, &invited); err != nil {
		return "", log.Err("failed to decode invite response", err)
	}

	log.Info("invite sent", "authUserID", invited.ID)
	return invited.ID, nil
}
