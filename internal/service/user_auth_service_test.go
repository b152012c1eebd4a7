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

func newUserAuthServiceTest(t *testing.T) (*UserAuthService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate users failed: %v", err)
	}
	cfg := &config.Config{}
	cfg.UserJWT.SecretKey = "test-user-jwt-secret"
	cfg.UserJWT.ExpireHours = 24
	cfg.UserJWT.RememberMeExpireHours = 720
	cfg.Security.PasswordPolicy = config.PasswordPolicyConfig{
		MinLength:     8,
		RequireNumber: true,
	}
	return NewUserAuthService(cfg, repository.NewUserRepository(db)), db
}

func TestUserRegister(t *testing.T) {
	svc, _ := newUserAuthServiceTest(t)

	user, token, expiresAt, err := svc.Register("  Shopper@Example.COM ", "passw0rd123", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "shopper@example.com" {
		t.Fatalf("email should be normalized, got %s", user.Email)
	}
	if user.DisplayName != "shopper" {
		t.Fatalf("display name should default from email, got %s", user.DisplayName)
	}
	if user.Status != constants.UserStatusActive {
		t.Fatalf("new user should be active, got %s", user.Status)
	}
	if token == "" || expiresAt.IsZero() {
		t.Fatalf("register should issue a token")
	}

	claims, err := svc.ParseUserJWT(token)
	if err != nil {
		t.Fatalf("parse issued token failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, _, _, err := svc.Register("shopper@example.com", "passw0rd123", ""); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("duplicate email want ErrEmailExists got %v", err)
	}
	if _, _, _, err := svc.Register("not-an-email", "passw0rd123", ""); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("bad email want ErrInvalidEmail got %v", err)
	}
	if _, _, _, err := svc.Register("other@example.com", "short", ""); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("weak password want ErrInvalidPassword got %v", err)
	}
	if _, _, _, err := svc.Register("other@example.com", "longbutnodigits", ""); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("no digit want ErrInvalidPassword got %v", err)
	}
}

func TestUserLogin(t *testing.T) {
	svc, db := newUserAuthServiceTest(t)

	if _, _, _, err := svc.Register("shopper@example.com", "passw0rd123", "Shopper"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	user, token, _, err := svc.Login("SHOPPER@example.com", "passw0rd123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" || user.LastLoginAt == nil {
		t.Fatalf("login should issue token and stamp last login")
	}

	if _, _, _, err := svc.Login("shopper@example.com", "wrong-pass1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password want ErrInvalidCredentials got %v", err)
	}
	if _, _, _, err := svc.Login("ghost@example.com", "passw0rd123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email want ErrInvalidCredentials got %v", err)
	}

	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("status", "disabled").Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}
	if _, _, _, err := svc.Login("shopper@example.com", "passw0rd123"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("disabled user want ErrUserDisabled got %v", err)
	}
}

func TestUserLoginRememberMeExtendsExpiry(t *testing.T) {
	svc, _ := newUserAuthServiceTest(t)
	if _, _, _, err := svc.Register("shopper@example.com", "passw0rd123", ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, _, shortExpiry, err := svc.LoginWithRememberMe("shopper@example.com", "passw0rd123", false)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	_, _, longExpiry, err := svc.LoginWithRememberMe("shopper@example.com", "passw0rd123", true)
	if err != nil {
		t.Fatalf("remember-me login failed: %v", err)
	}
	if !longExpiry.After(shortExpiry) {
		t.Fatalf("remember-me expiry %v should exceed standard %v", longExpiry, shortExpiry)
	}
}

func TestUserChangePasswordBumpsTokenVersion(t *testing.T) {
	svc, db := newUserAuthServiceTest(t)
	user, _, _, err := svc.Register("shopper@example.com", "passw0rd123", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := svc.ChangePassword(user.ID, "wrong-pass1", "newpassw0rd1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong old password want ErrInvalidCredentials got %v", err)
	}
	if err := svc.ChangePassword(user.ID, "passw0rd123", "short"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("weak new password want ErrInvalidPassword got %v", err)
	}
	if err := svc.ChangePassword(user.ID, "passw0rd123", "newpassw0rd1"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	var got models.User
	if err := db.First(&got, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if got.TokenVersion != user.TokenVersion+1 || got.TokenInvalidBefore == nil {
		t.Fatalf("password change should revoke old tokens: %+v", got)
	}

	if _, _, _, err := svc.Login("shopper@example.com", "newpassw0rd1"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, _, _, err := svc.Login("shopper@example.com", "passw0rd123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password should stop working, got %v", err)
	}
}

func TestUserUpdateProfile(t *testing.T) {
	svc, _ := newUserAuthServiceTest(t)
	user, _, _, err := svc.Register("shopper@example.com", "passw0rd123", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	name := "Casey"
	avatar := "https://cdn.example.com/people/u1.jpg"
	updated, err := svc.UpdateProfile(user.ID, &name, &avatar)
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	if updated.DisplayName != "Casey" || updated.AvatarURL != avatar {
		t.Fatalf("unexpected profile: %+v", updated)
	}

	blank := "  "
	if _, err := svc.UpdateProfile(user.ID, &blank, nil); !errors.Is(err, ErrProfileEmpty) {
		t.Fatalf("blank-only update want ErrProfileEmpty got %v", err)
	}
	if _, err := svc.UpdateProfile(user.ID, nil, nil); !errors.Is(err, ErrProfileEmpty) {
		t.Fatalf("empty update want ErrProfileEmpty got %v", err)
	}
	if _, err := svc.UpdateProfile(9999, &name, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user want ErrNotFound got %v", err)
	}
}

func TestParseUserJWTRejectsForgedToken(t *testing.T) {
	svc, _ := newUserAuthServiceTest(t)
	user, token, _, err := svc.Register("shopper@example.com", "passw0rd123", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_ = user

	other := &config.Config{}
	other.UserJWT.SecretKey = "a-different-secret"
	forged := NewUserAuthService(other, nil)
	if _, err := forged.ParseUserJWT(token); err == nil {
		t.Fatalf("token signed with another secret should be rejected")
	}
	if _, err := svc.ParseUserJWT("not.a.token"); err == nil {
		t.Fatalf("malformed token should be rejected")
	}
}
