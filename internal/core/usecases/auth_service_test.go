package usecases_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/citydiscover/internal/core/domain"
	"github.com/samirrijal/citydiscover/internal/core/usecases"
)

const testSecret = "test-secret"

func TestAuthService_RegisterAndLogin(t *testing.T) {
	repo := newMockUserRepo()
	svc := usecases.NewAuthService(repo, testSecret, time.Hour)
	ctx := context.Background()

	sess, err := svc.Register(ctx, "deniz", "  Deniz@Example.com ", "hunter22")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.User.Email != "deniz@example.com" {
		t.Errorf("expected normalized email, got %s", sess.User.Email)
	}
	if sess.Token == "" {
		t.Error("expected token")
	}

	rec, _ := repo.GetByEmail(ctx, "deniz@example.com")
	if rec == nil || bytes.Contains(rec.PasswordHash, []byte("hunter22")) {
		t.Fatal("password must be stored hashed")
	}

	login, err := svc.Login(ctx, "DENIZ@example.com", "hunter22")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := svc.ParseToken(login.Token)
	if err != nil {
		t.Fatalf("token rejected: %v", err)
	}
	if claims.Subject != sess.User.ID || claims.Username != "deniz" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	svc := usecases.NewAuthService(newMockUserRepo(), testSecret, 0)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a", "a@example.com", "secret1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.Register(ctx, "b", "A@example.com", "secret2")
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc := usecases.NewAuthService(newMockUserRepo(), testSecret, 0)
	ctx := context.Background()

	tests := []struct {
		name, user, email, password string
	}{
		{"no username", " ", "x@example.com", "secret1"},
		{"bad email", "x", "not-an-email", "secret1"},
		{"short password", "x", "x@example.com", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.user, tt.email, tt.password); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestAuthService_LoginFailures(t *testing.T) {
	svc := usecases.NewAuthService(newMockUserRepo(), testSecret, 0)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "a", "a@example.com", "secret1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Login(ctx, "a@example.com", "wrong!!"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "secret1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Guest(t *testing.T) {
	svc := usecases.NewAuthService(newMockUserRepo(), testSecret, 0)

	sess, err := svc.Guest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sess.User.IsGuest {
		t.Error("expected guest user")
	}
	claims, err := svc.ParseToken(sess.Token)
	if err != nil || !claims.Guest {
		t.Errorf("expected guest claims, got %+v, %v", claims, err)
	}
}

func TestAuthService_ParseTokenRejectsForeignSecret(t *testing.T) {
	other := usecases.NewAuthService(newMockUserRepo(), "other-secret", 0)
	sess, err := other.Guest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc := usecases.NewAuthService(newMockUserRepo(), testSecret, 0)
	if _, err := svc.ParseToken(sess.Token); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_RequestReset(t *testing.T) {
	svc := usecases.NewAuthService(newMockUserRepo(), testSecret, 0)

	if err := svc.RequestReset(context.Background(), "nobody@example.com"); err != nil {
		t.Errorf("unknown account should not be revealed: %v", err)
	}
	if err := svc.RequestReset(context.Background(), "nope"); err == nil {
		t.Error("expected error for invalid email")
	}
}
