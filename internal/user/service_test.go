package user

import (
	"context"
	"errors"
	"testing"

	"github.com/CabPortal/CabPortal/internal/common/db"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	gdb, err := db.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&User{}); err != nil {
		t.Fatalf("migrate users table: %v", err)
	}
	return NewService(NewRepo(gdb)), gdb
}

func TestHashPasswordDeterministic(t *testing.T) {
	h1 := HashPassword("secret1")
	h2 := HashPassword("secret1")
	if h1 != h2 {
		t.Fatalf("same password produced different digests: %s vs %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Fatalf("expected 64 hex chars, got %d: %s", len(h1), h1)
	}
	if HashPassword("secret2") == h1 {
		t.Fatalf("different passwords produced the same digest")
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, "alice", "secret1"); err != nil {
		t.Fatalf("register alice: %v", err)
	}

	// 明文口令绝不落库
	var u User
	if err := gdb.Where("username = ?", "alice").First(&u).Error; err != nil {
		t.Fatalf("load alice: %v", err)
	}
	if u.PasswordHash == "secret1" {
		t.Fatalf("plaintext password stored")
	}
	if u.PasswordHash != HashPassword("secret1") {
		t.Fatalf("stored digest mismatch: %s", u.PasswordHash)
	}

	got, err := svc.Authenticate(ctx, "alice", "secret1")
	if err != nil {
		t.Fatalf("authenticate alice: %v", err)
	}
	if got.Username != "alice" {
		t.Fatalf("authenticated wrong user: %s", got.Username)
	}

	if _, err := svc.Authenticate(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "bob", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, "alice", "secret1"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := svc.Register(ctx, "alice", "other"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate register: expected ErrUsernameTaken, got %v", err)
	}

	// 重复注册不得覆盖原凭证
	if _, err := svc.Authenticate(ctx, "alice", "secret1"); err != nil {
		t.Fatalf("original credentials broken after duplicate register: %v", err)
	}

	var count int64
	if err := gdb.Model(&User{}).Where("username = ?", "alice").Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 row for alice, got %d", count)
	}
}

func TestRegisterEmptyCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct{ username, password string }{
		{"", "secret1"},
		{"alice", ""},
		{"   ", "secret1"},
	}
	for _, c := range cases {
		if err := svc.Register(ctx, c.username, c.password); !errors.Is(err, ErrEmptyCredentials) {
			t.Fatalf("register(%q, %q): expected ErrEmptyCredentials, got %v", c.username, c.password, err)
		}
	}

	if _, err := svc.Authenticate(ctx, "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("empty authenticate: expected ErrInvalidCredentials, got %v", err)
	}
}
