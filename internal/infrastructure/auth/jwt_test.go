package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/infrastructure/auth"
)

func TestJWTManagerGenerateAndVerify(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("super-secret", "retrobus-essonne", time.Minute)

	user := &domain.User{
		ID:    "tresorier-1",
		Email: "tresorier@retrobus-essonne.fr",
		Role:  domain.RoleTreasurer,
	}

	token, err := manager.Generate(user)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("expected token to verify, got %v", err)
	}

	if *claims.User() != *user {
		t.Fatalf("expected claims to match user, got %+v", claims)
	}
}

func TestJWTManagerGenerateRejectsUnknownRole(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("secret", "", time.Minute)

	_, err := manager.Generate(&domain.User{ID: "x", Role: "superuser"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestJWTManagerVerifyErrors(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("secret", "", time.Minute)

	expiredClaims := auth.Claims{
		UserID: "expired",
		Email:  "expired@example.com",
		Role:   domain.RoleViewer,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
			NotBefore: jwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
		},
	}

	expiredToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign expired token: %v", err)
	}

	if _, err := manager.Verify(expiredToken); err != domain.ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}

	otherManager := auth.NewJWTManager("other-secret", "", time.Minute)
	if _, err := otherManager.Verify(expiredToken); err == nil || err == domain.ErrExpiredToken {
		t.Fatalf("expected invalid token error, got %v", err)
	}

	if _, err := manager.Verify("not-a-token"); err == nil {
		t.Fatalf("expected failure for malformed token")
	}
}

func TestJWTManagerVerifyIssuerAndRole(t *testing.T) {
	t.Parallel()

	issuing := auth.NewJWTManager("secret", "someone-else", time.Minute)
	token, err := issuing.Generate(&domain.User{ID: "u1", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	manager := auth.NewJWTManager("secret", "retrobus-essonne", time.Minute)
	if _, err := manager.Verify(token); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for foreign issuer, got %v", err)
	}

	forged := auth.Claims{
		UserID: "u2",
		Role:   "superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	forgedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, forged).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	if _, err := auth.NewJWTManager("secret", "", time.Minute).Verify(forgedToken); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for unknown role, got %v", err)
	}
}

func TestJWTManagerVerifyExpiry(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("secret", "", time.Minute)

	sign := func(exp *jwt.NumericDate) string {
		t.Helper()
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
			UserID:           "benevole-3",
			Role:             domain.RoleViewer,
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp},
		}).SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}
		return token
	}

	if _, err := manager.Verify(sign(nil)); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for a token without expiry, got %v", err)
	}

	if _, err := manager.Verify(sign(jwt.NewNumericDate(time.Now().Add(-5 * time.Second)))); err != nil {
		t.Fatalf("expected small clock skew to be tolerated, got %v", err)
	}
}

func TestJWTManagerGenerateRequiresSubject(t *testing.T) {
	t.Parallel()

	_, err := auth.NewJWTManager("secret", "", time.Minute).Generate(&domain.User{Role: domain.RoleAdmin})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestJWTManagerEmptySecretRejectsEverything(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("", "", time.Minute)

	if _, err := manager.Generate(&domain.User{ID: "x", Role: domain.RoleAdmin}); err == nil {
		t.Fatalf("expected generate to fail without a secret")
	}

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID: "intruder",
		Role:   domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token, err := forged.SignedString([]byte(""))
	if err != nil {
		t.Fatalf("failed to sign forged token: %v", err)
	}

	if _, err := manager.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}
