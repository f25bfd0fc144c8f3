package utils

import (
	"testing"
)

func init() {
	SetJWTSecret("test-secret-key-for-testing")
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(1, "owner@example.com", 24)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if token == "" {
		t.Error("GenerateToken() returned empty token")
	}

	if len(token) < 50 {
		t.Errorf("token seems too short: %d chars", len(token))
	}
}

func TestGenerateToken_DifferentTokens(t *testing.T) {
	token1, _ := GenerateToken(1, "a@example.com", 24)
	token2, _ := GenerateToken(2, "b@example.com", 24)

	if token1 == token2 {
		t.Error("different accounts should produce different tokens")
	}
}

func TestParseToken(t *testing.T) {
	accountID := uint(42)
	email := "reviewer@example.com"

	token, _ := GenerateToken(accountID, email, 24)

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}

	if claims.AccountID != accountID {
		t.Errorf("AccountID = %d, expected %d", claims.AccountID, accountID)
	}
	if claims.Email != email {
		t.Errorf("Email = %q, expected %q", claims.Email, email)
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	invalidTokens := []string{
		"",
		"not-a-token",
		"aaa.bbb.ccc",
	}

	for _, tok := range invalidTokens {
		if _, err := ParseToken(tok); err == nil {
			t.Errorf("ParseToken(%q) should fail", tok)
		}
	}
}

func TestParseToken_Expired(t *testing.T) {
	token, err := GenerateToken(1, "a@example.com", -1)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := ParseToken(token); err == nil {
		t.Error("expired token should not parse")
	}
}
