// Package auth provides HMAC JWT bearer authentication for the
// ingestion and alert APIs.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrShortSecret  = errors.New("secret must be at least 32 characters")
)

// Valid roles
const (
	RoleIngest = "ingest" // scanning collaborators pushing data
	RoleAdmin  = "admin"  // operators managing alerts
	RoleViewer = "viewer" // read-only reporting collaborators
)

var validRoles = map[string]bool{
	RoleIngest: true,
	RoleAdmin:  true,
	RoleViewer: true,
}

// Claims carries the validated identity of an API caller
type Claims struct {
	Subject string
	Role    string
}

// JWTManager issues and validates HMAC-SHA256 bearer tokens
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
}

// NewJWTManager creates a JWT manager. The secret must be at least 32
// characters.
func NewJWTManager(secret string, tokenDuration time.Duration) (*JWTManager, error) {
	if len(secret) < 32 {
		return nil, ErrShortSecret
	}
	return &JWTManager{
		secretKey:     []byte(secret),
		tokenDuration: tokenDuration,
	}, nil
}

// GenerateToken issues a signed token for a subject with a role
func (m *JWTManager) GenerateToken(subject, role string) (string, error) {
	if subject == "" {
		return "", errors.New("subject cannot be empty")
	}
	if !validRoles[role] {
		return "", fmt.Errorf("invalid role: %s", role)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  now.Add(m.tokenDuration).Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken validates a bearer token string and returns its claims
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	subject, _ := mapClaims["sub"].(string)
	role, _ := mapClaims["role"].(string)
	if subject == "" || !validRoles[role] {
		return nil, ErrInvalidToken
	}

	return &Claims{Subject: subject, Role: role}, nil
}

// Middleware enforces a valid bearer token on the wrapped handler
func (m *JWTManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
			return
		}
		claims, err := m.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
			return
		}
		r.Header.Set("X-Auth-Subject", claims.Subject)
		r.Header.Set("X-Auth-Role", claims.Role)
		next.ServeHTTP(w, r)
	})
}
