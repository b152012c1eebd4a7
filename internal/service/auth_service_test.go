package service

import (
	"errors"
	"testing"

	"github.com/stylefit-next/internal/config"
	"github.com/stylefit-next/internal/constants"
	"github.com/stylefit-next/internal/models"
	"github.com/stylefit-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newAuthServiceTest(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Admin{}); err != nil {
		t.Fatalf("migrate admins failed: %v", err)
	}
	cfg := &config.Config{}
	cfg.JWT.SecretKey = "test-admin-jwt-secret"
	cfg.JWT.ExpireHours = 24
	cfg.Security.PasswordPolicy = config.PasswordPolicyConfig{MinLength: 8}
	return NewAuthService(cfg, repository.NewAdminRepository(db)), db
}

func seedAdmin(t *testing.T, svc *AuthService, db *gorm.DB, username, password string) *models.Admin {
	t.Helper()
	hash, err := svc.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	admin := &models.Admin{
		Username:     username,
		PasswordHash: hash,
		Status:       constants.AdminStatusActive,
	}
	if err := db.Create(admin).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	return admin
}

func TestAdminLogin(t *testing.T) {
	svc, db := newAuthServiceTest(t)
	seedAdmin(t, svc, db, "ops", "op5-password")

	admin, token, expiresAt, err := svc.Login("ops", "op5-password")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" || expiresAt.IsZero() || admin.LastLoginAt == nil {
		t.Fatalf("login should issue token and stamp last login")
	}

	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.AdminID != admin.ID || claims.Username != "ops" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, _, _, err := svc.Login("ops", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password want ErrInvalidCredentials got %v", err)
	}
	if _, _, _, err := svc.Login("ghost", "op5-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown admin want ErrInvalidCredentials got %v", err)
	}

	if err := db.Model(&models.Admin{}).Where("username = ?", "ops").Update("status", constants.AdminStatusDisabled).Error; err != nil {
		t.Fatalf("disable admin failed: %v", err)
	}
	if _, _, _, err := svc.Login("ops", "op5-password"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("disabled admin want ErrUserDisabled got %v", err)
	}
}

func TestAdminChangePassword(t *testing.T) {
	svc, db := newAuthServiceTest(t)
	admin := seedAdmin(t, svc, db, "ops", "op5-password")

	if err := svc.ChangePassword(admin.ID, "wrong", "fresh-pass-1"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("wrong old password want ErrInvalidPassword got %v", err)
	}
	if err := svc.ChangePassword(admin.ID, "op5-password", "short"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("weak new password want ErrInvalidPassword got %v", err)
	}
	if err := svc.ChangePassword(admin.ID, "op5-password", "fresh-pass-1"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	var got models.Admin
	if err := db.First(&got, admin.ID).Error; err != nil {
		t.Fatalf("reload admin failed: %v", err)
	}
	if got.TokenVersion != admin.TokenVersion+1 || got.TokenInvalidBefore == nil {
		t.Fatalf("password change should revoke old tokens: %+v", got)
	}
	if err := svc.VerifyPassword(got.PasswordHash, "fresh-pass-1"); err != nil {
		t.Fatalf("new password should verify: %v", err)
	}

	if err := svc.ChangePassword(admin.ID+100, "x", "y"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing admin want ErrNotFound got %v", err)
	}
}

func TestAdminParseJWTRejectsForgedToken(t *testing.T) {
	svc, db := newAuthServiceTest(t)
	admin := seedAdmin(t, svc, db, "ops", "op5-password")

	token, _, err := svc.GenerateJWT(admin)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}

	otherCfg := &config.Config{}
	otherCfg.JWT.SecretKey = "a-different-secret"
	otherCfg.JWT.ExpireHours = 24
	other := NewAuthService(otherCfg, nil)
	if _, err := other.ParseJWT(token); err == nil {
		t.Fatalf("token signed with another secret should be rejected")
	}
}
