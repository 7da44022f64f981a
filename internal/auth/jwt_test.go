package auth

import (
	"testing"
	"time"

	"blackjack-table-go/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret: "test-secret",
		JWTIssuer: "blackjack-table",
		JWTTTL:    time.Hour,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := testConfig()
	tok, err := GenerateToken(42, "ada", cfg)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseAndValidateToken(tok, cfg)
	if err != nil {
		t.Fatalf("ParseAndValidateToken: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "ada" {
		t.Fatalf("claims = %d/%q, want 42/ada", claims.UserID, claims.Username)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	cfg := testConfig()
	tok, err := GenerateToken(42, "ada", cfg)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	bad := cfg
	bad.JWTSecret = "other-secret"
	if _, err := ParseAndValidateToken(tok, bad); err == nil {
		t.Fatal("token verified against the wrong secret")
	}
}

func TestTokenRejectsWrongIssuer(t *testing.T) {
	cfg := testConfig()
	tok, err := GenerateToken(42, "ada", cfg)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	other := cfg
	other.JWTIssuer = "someone-else"
	if _, err := ParseAndValidateToken(tok, other); err == nil {
		t.Fatal("token verified against the wrong issuer")
	}
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = ""
	if _, err := GenerateToken(1, "ada", cfg); err == nil {
		t.Fatal("expected error without JWT secret")
	}
}
