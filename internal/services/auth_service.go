package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"localmart/internal/caching"
	"localmart/internal/common"
	"localmart/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClaims is the access token payload. Kind distinguishes shopper and
// store principals; sub carries the principal id.
type TokenClaims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// AuthService issues and validates principal tokens. Access tokens are
// short-lived HS256 JWTs; refresh tokens are opaque, stored hashed in the
// cache with a TTL so revocation and expiry need no database table.
type AuthService interface {
	GenerateTokens(ctx context.Context, principal common.Principal) (*models.TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenResponse, error)
	RevokeRefreshToken(ctx context.Context, refreshToken string) error
}

type authService struct {
	cacheSvc   caching.CacheService
	jwtSecret  []byte
	tokenTTL   time.Duration
	refreshTTL time.Duration
}

func NewAuthService(cacheSvc caching.CacheService, jwtSecret string, tokenTTL, refreshTTL time.Duration) AuthService {
	return &authService{
		cacheSvc:   cacheSvc,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *authService) GenerateTokens(ctx context.Context, principal common.Principal) (*models.TokenResponse, error) {
	const op = "auth.generate_tokens"

	now := time.Now()
	claims := &TokenClaims{
		Kind: principal.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.ID.String(),
			Audience:  jwt.ClaimStrings{"localmart-api"},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, common.WrapErr(common.KindPersistence, op, "could not sign token", err)
	}

	refreshToken, err := generateSecureToken()
	if err != nil {
		return nil, common.WrapErr(common.KindPersistence, op, "could not create refresh token", err)
	}
	value := principal.Kind + ":" + principal.ID.String()
	if err := s.cacheSvc.SetString(ctx, refreshKey(refreshToken), value, s.refreshTTL); err != nil {
		return nil, common.WrapErr(common.KindPersistence, op, "could not store refresh token", err)
	}

	return &models.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokenTTL.Seconds()),
	}, nil
}

func (s *authService) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	const op = "auth.validate_token"

	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, common.E(common.KindAuthentication, op, "invalid token")
	}
	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok {
		return nil, common.E(common.KindAuthentication, op, "invalid claims")
	}
	if claims.Kind != common.PrincipalUser && claims.Kind != common.PrincipalStore {
		return nil, common.E(common.KindAuthentication, op, "unknown principal kind")
	}
	return claims, nil
}

func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	const op = "auth.refresh"

	value, err := s.cacheSvc.GetString(ctx, refreshKey(refreshToken))
	if err != nil {
		if err == caching.ErrCacheMiss {
			return nil, common.E(common.KindAuthentication, op, "refresh token expired or revoked")
		}
		return nil, common.WrapErr(common.KindPersistence, op, "could not look up refresh token", err)
	}

	kind, idStr, ok := strings.Cut(value, ":")
	if !ok {
		return nil, common.E(common.KindAuthentication, op, "malformed refresh token record")
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, common.E(common.KindAuthentication, op, "malformed refresh token record")
	}

	// Single use: the old token is revoked before new ones are issued.
	if err := s.cacheSvc.Delete(ctx, refreshKey(refreshToken)); err != nil {
		return nil, common.WrapErr(common.KindPersistence, op, "could not rotate refresh token", err)
	}

	return s.GenerateTokens(ctx, common.Principal{Kind: kind, ID: id})
}

func (s *authService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	const op = "auth.revoke"
	if err := s.cacheSvc.Delete(ctx, refreshKey(refreshToken)); err != nil {
		return common.WrapErr(common.KindPersistence, op, "could not revoke refresh token", err)
	}
	return nil
}

func generateSecureToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func refreshKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "localmart:refresh:" + hex.EncodeToString(sum[:])
}
