package services

import (
	"testing"

	"github.com/canopyhq/canopy/internal/config"
	"github.com/canopyhq/canopy/internal/models"
	"github.com/canopyhq/canopy/internal/utils"
)

func newAuthTestService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(setupTestDB(t), &config.JWTConfig{Secret: "test-secret", ExpireHour: 1})
}

func seedAccount(t *testing.T, s *AuthService, email, password string) *models.Account {
	t.Helper()
	hashed, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	account := &models.Account{Email: email, Password: hashed, IsActive: true}
	if err := s.db.Create(account).Error; err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	return account
}

func TestGenerateRefreshToken_Unique(t *testing.T) {
	token1, hash1, err := generateRefreshToken()
	if err != nil {
		t.Fatalf("generateRefreshToken failed: %v", err)
	}
	token2, hash2, err := generateRefreshToken()
	if err != nil {
		t.Fatalf("generateRefreshToken failed: %v", err)
	}

	if token1 == token2 {
		t.Error("tokens should be unique")
	}
	if hash1 == hash2 {
		t.Error("hashes should be unique")
	}
	if hashRefreshToken(token1) != hash1 {
		t.Error("hash should be deterministic for a token")
	}
	if len(hash1) != 64 {
		t.Errorf("hash length = %d, expected 64 hex chars", len(hash1))
	}
}

func TestLogin_Success(t *testing.T) {
	svc := newAuthTestService(t)
	seedAccount(t, svc, "user@example.com", "hunter22")

	result, err := svc.Login(&LoginRequest{Email: "user@example.com", Password: "hunter22"}, "1.2.3.4", "test-agent")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("login should issue both tokens")
	}
	if result.Account.LastLogin == nil {
		t.Error("login should record last login time")
	}

	var stored models.RefreshToken
	if err := svc.db.First(&stored).Error; err != nil {
		t.Fatalf("refresh token not persisted: %v", err)
	}
	if stored.TokenHash != hashRefreshToken(result.RefreshToken) {
		t.Error("stored hash should match the issued token")
	}
	if stored.CreatedByIP != "1.2.3.4" {
		t.Errorf("CreatedByIP = %q", stored.CreatedByIP)
	}
}

func TestLogin_Failures(t *testing.T) {
	svc := newAuthTestService(t)
	account := seedAccount(t, svc, "user@example.com", "hunter22")

	if _, err := svc.Login(&LoginRequest{Email: "user@example.com", Password: "wrong"}, "", ""); err == nil {
		t.Error("wrong password should fail")
	}
	if _, err := svc.Login(&LoginRequest{Email: "nobody@example.com", Password: "hunter22"}, "", ""); err == nil {
		t.Error("unknown email should fail")
	}

	svc.db.Model(account).Update("is_active", false)
	if _, err := svc.Login(&LoginRequest{Email: "user@example.com", Password: "hunter22"}, "", ""); err == nil {
		t.Error("disabled account should fail")
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc := newAuthTestService(t)
	seedAccount(t, svc, "user@example.com", "hunter22")

	login, err := svc.Login(&LoginRequest{Email: "user@example.com", Password: "hunter22"}, "", "")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	refreshed, err := svc.Refresh(login.RefreshToken, "", "")
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Error("refresh should rotate the token")
	}

	// The rotated token is revoked and unusable.
	if _, err := svc.Refresh(login.RefreshToken, "", ""); err == nil {
		t.Error("reusing a rotated refresh token should fail")
	}

	// The replacement works.
	if _, err := svc.Refresh(refreshed.RefreshToken, "", ""); err != nil {
		t.Errorf("replacement token should work: %v", err)
	}
}

func TestRevokeRefreshToken(t *testing.T) {
	svc := newAuthTestService(t)
	seedAccount(t, svc, "user@example.com", "hunter22")

	login, err := svc.Login(&LoginRequest{Email: "user@example.com", Password: "hunter22"}, "", "")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := svc.RevokeRefreshToken(login.RefreshToken); err != nil {
		t.Fatalf("RevokeRefreshToken failed: %v", err)
	}
	if _, err := svc.Refresh(login.RefreshToken, "", ""); err == nil {
		t.Error("revoked token should not refresh")
	}

	// Revoking nothing is fine.
	if err := svc.RevokeRefreshToken(""); err != nil {
		t.Errorf("empty revoke: err = %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc := newAuthTestService(t)
	account := seedAccount(t, svc, "user@example.com", "hunter22")

	err := svc.ChangePassword(account.ID, &ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpass123"})
	if err == nil {
		t.Error("wrong old password should fail")
	}

	err = svc.ChangePassword(account.ID, &ChangePasswordRequest{OldPassword: "hunter22", NewPassword: "newpass123"})
	if err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	if _, err := svc.Login(&LoginRequest{Email: "user@example.com", Password: "newpass123"}, "", ""); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
}

func TestEnsureDefaultOwner(t *testing.T) {
	svc := newAuthTestService(t)

	if err := svc.EnsureDefaultOwner(); err != nil {
		t.Fatalf("EnsureDefaultOwner failed: %v", err)
	}

	var owners int64
	svc.db.Model(&models.OrganizationMember{}).Where("role = ?", models.RoleOwner).Count(&owners)
	if owners != 1 {
		t.Fatalf("owners = %d, expected 1", owners)
	}

	// Idempotent.
	if err := svc.EnsureDefaultOwner(); err != nil {
		t.Fatalf("second EnsureDefaultOwner failed: %v", err)
	}
	svc.db.Model(&models.OrganizationMember{}).Where("role = ?", models.RoleOwner).Count(&owners)
	if owners != 1 {
		t.Errorf("owners = %d after rerun, expected still 1", owners)
	}
}
