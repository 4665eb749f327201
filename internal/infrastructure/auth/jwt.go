package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/retrobus-essonne/finance/internal/domain"
)

// Claims represents the JWT claims
type Claims struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// User returns the caller described by the claims.
func (c *Claims) User() *domain.User {
	return &domain.User{ID: c.UserID, Email: c.Email, Role: c.Role}
}

// clockSkew tolerates small clock differences between the treasurer's
// workstation minting CLI tokens and the server.
const clockSkew = 30 * time.Second

// JWTManager signs and verifies the HS256 bearer tokens of the finance API.
type JWTManager struct {
	secretKey     []byte
	issuer        string
	tokenDuration time.Duration
	parser        *jwt.Parser
}

var errEmptySecret = errors.New("jwt signing secret is empty")

// NewJWTManager creates a new JWT manager. An empty issuer is neither set
// nor checked. A manager built with an empty secret refuses every token.
func NewJWTManager(secretKey, issuer string, tokenDuration time.Duration) *JWTManager {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	return &JWTManager{
		secretKey:     []byte(secretKey),
		issuer:        issuer,
		tokenDuration: tokenDuration,
		parser:        jwt.NewParser(opts...),
	}
}

// Generate signs a token for user valid for the manager's token duration.
func (m *JWTManager) Generate(user *domain.User) (string, error) {
	if len(m.secretKey) == 0 {
		return "", errEmptySecret
	}
	if user == nil || user.ID == "" {
		return "", fmt.Errorf("%w: token subject is required", domain.ErrValidation)
	}
	if !user.Role.IsValid() {
		return "", fmt.Errorf("%w: unknown role %q", domain.ErrValidation, user.Role)
	}

	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
}

// Verify parses a bearer token. It returns domain.ErrExpiredToken for a token
// past its expiry and domain.ErrInvalidToken for anything else it rejects,
// including tokens carrying a role the service does not know.
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := m.parser.ParseWithClaims(tokenString, claims, m.key)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, domain.ErrExpiredToken
	case err != nil, !token.Valid:
		return nil, domain.ErrInvalidToken
	}

	if claims.UserID == "" || !claims.Role.IsValid() {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}

func (m *JWTManager) key(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	if len(m.secretKey) == 0 {
		return nil, errEmptySecret
	}

	return m.secretKey, nil
}
