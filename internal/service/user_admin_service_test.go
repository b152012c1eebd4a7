package service

import (
	"errors"
	"testing"

	"github.com/stylefit-next/internal/constants"
	"github.com/stylefit-next/internal/models"
	"github.com/stylefit-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newUserAdminServiceTest(t *testing.T) (*UserAdminService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate users failed: %v", err)
	}
	return NewUserAdminService(repository.NewUserRepository(db)), db
}

func seedAdminManagedUser(t *testing.T, db *gorm.DB, email string, mutate func(*models.User)) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "x",
		DisplayName:  email,
		Status:       constants.UserStatusActive,
	}
	if mutate != nil {
		mutate(user)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func TestUserAdminListFilters(t *testing.T) {
	svc, db := newUserAdminServiceTest(t)
	seedAdminManagedUser(t, db, "alice@example.com", func(u *models.User) { u.IsPremium = true })
	seedAdminManagedUser(t, db, "bob@example.com", func(u *models.User) { u.Status = constants.UserStatusDisabled })
	seedAdminManagedUser(t, db, "carol@shop.example", nil)

	users, total, err := svc.List(repository.UserListFilter{Keyword: "example.com"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(users) != 2 {
		t.Fatalf("keyword filter want 2 users got total=%d len=%d", total, len(users))
	}

	users, total, err = svc.List(repository.UserListFilter{OnlyPremium: true})
	if err != nil {
		t.Fatalf("list premium failed: %v", err)
	}
	if total != 1 || users[0].Email != "alice@example.com" {
		t.Fatalf("premium filter want alice got total=%d", total)
	}

	_, total, err = svc.List(repository.UserListFilter{Status: constants.UserStatusDisabled})
	if err != nil {
		t.Fatalf("list disabled failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("status filter want 1 got %d", total)
	}
}

func TestUserAdminSetPremium(t *testing.T) {
	svc, db := newUserAdminServiceTest(t)
	user := seedAdminManagedUser(t, db, "alice@example.com", nil)

	if err := svc.SetPremium(user.ID, true); err != nil {
		t.Fatalf("set premium failed: %v", err)
	}
	var got models.User
	if err := db.First(&got, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if !got.IsPremium {
		t.Fatalf("user should be premium")
	}

	if err := svc.SetPremium(user.ID, false); err != nil {
		t.Fatalf("revoke premium failed: %v", err)
	}
	if err := db.First(&got, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if got.IsPremium {
		t.Fatalf("premium should be revoked")
	}

	if err := svc.SetPremium(0, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("zero id want ErrNotFound got %v", err)
	}
	if err := svc.SetPremium(user.ID+100, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user want ErrNotFound got %v", err)
	}
}

func TestUserAdminSetPremiumByEmail(t *testing.T) {
	svc, db := newUserAdminServiceTest(t)
	seedAdminManagedUser(t, db, "alice@example.com", nil)

	got, err := svc.SetPremiumByEmail("  Alice@Example.COM ", true)
	if err != nil {
		t.Fatalf("set premium by email failed: %v", err)
	}
	if !got.IsPremium {
		t.Fatalf("returned user should carry premium flag")
	}
	var stored models.User
	if err := db.First(&stored, got.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if !stored.IsPremium {
		t.Fatalf("premium flag should persist")
	}

	if _, err := svc.SetPremiumByEmail("ghost@example.com", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown email want ErrNotFound got %v", err)
	}
	if _, err := svc.SetPremiumByEmail("not-an-email", true); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("bad email want ErrInvalidEmail got %v", err)
	}
}

func TestUserAdminBatchUpdateStatus(t *testing.T) {
	svc, db := newUserAdminServiceTest(t)
	a := seedAdminManagedUser(t, db, "alice@example.com", nil)
	b := seedAdminManagedUser(t, db, "bob@example.com", nil)

	if err := svc.BatchUpdateStatus([]uint{a.ID, b.ID}, " Disabled "); err != nil {
		t.Fatalf("batch disable failed: %v", err)
	}
	var disabled []models.User
	if err := db.Where("status = ?", constants.UserStatusDisabled).Find(&disabled).Error; err != nil {
		t.Fatalf("query disabled failed: %v", err)
	}
	if len(disabled) != 2 {
		t.Fatalf("want 2 disabled users got %d", len(disabled))
	}
	for _, u := range disabled {
		if u.TokenInvalidBefore == nil {
			t.Fatalf("disabling should invalidate issued tokens for user %d", u.ID)
		}
	}

	if err := svc.BatchUpdateStatus([]uint{a.ID}, constants.UserStatusActive); err != nil {
		t.Fatalf("batch enable failed: %v", err)
	}
	var got models.User
	if err := db.First(&got, a.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if got.Status != constants.UserStatusActive {
		t.Fatalf("user should be active again, got %s", got.Status)
	}

	if err := svc.BatchUpdateStatus(nil, constants.UserStatusActive); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty ids want ErrInvalidInput got %v", err)
	}
	if err := svc.BatchUpdateStatus([]uint{a.ID}, "banned"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown status want ErrInvalidInput got %v", err)
	}
}
