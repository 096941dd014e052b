package authpw

import (
	"context"
	"errors"
	"testing"

	"civicport/api/internal/store"
)

func TestAuthenticateRejectsMalformedEmails(t *testing.T) {
	svc := NewService(store.NewMemStore())
	bad := []string{
		"",
		"plainaddress",
		"missing-domain@",
		"@missing-local.org",
		"no-tld@example",
		"two@@example.com",
		"spaces in@example.com",
		"trailing-dot@example.",
	}
	for _, email := range bad {
		_, err := svc.Authenticate(context.Background(), email, "hunter22", "citizen")
		if !errors.Is(err, ErrInvalidEmail) {
			t.Errorf("email %q: expected ErrInvalidEmail, got %v", email, err)
		}
	}
}

func TestAuthenticateAcceptsValidEmails(t *testing.T) {
	svc := NewService(store.NewMemStore())
	good := []string{
		"ada@example.com",
		"first.last@city.gov",
		"citizen+tag@sub.example.co.uk",
	}
	for _, email := range good {
		user, err := svc.Authenticate(context.Background(), email, "hunter22", "citizen")
		if err != nil {
			t.Errorf("email %q: unexpected error %v", email, err)
			continue
		}
		if user.Email != email || user.Role != "citizen" {
			t.Errorf("email %q: got user %+v", email, user)
		}
	}
}

func TestAuthenticateRejectsUnknownRole(t *testing.T) {
	svc := NewService(store.NewMemStore())
	for _, role := range []string{"", "mayor", "Citizen"} {
		_, err := svc.Authenticate(context.Background(), "ada@example.com", "hunter22", role)
		if !errors.Is(err, ErrMissingRole) {
			t.Errorf("role %q: expected ErrMissingRole, got %v", role, err)
		}
	}
}

func TestAuthenticateRejectsEmptyPassword(t *testing.T) {
	svc := NewService(store.NewMemStore())
	_, err := svc.Authenticate(context.Background(), "ada@example.com", "", "citizen")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateRegistersThenVerifies(t *testing.T) {
	mem := store.NewMemStore()
	svc := NewService(mem)
	ctx := context.Background()

	first, err := svc.Authenticate(ctx, "ada@example.com", "hunter22", "citizen")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected registered user to get an id")
	}

	// Same password succeeds.
	second, err := svc.Authenticate(ctx, "ada@example.com", "hunter22", "citizen")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same account, got %s and %s", first.ID, second.ID)
	}

	// Wrong password fails.
	if _, err := svc.Authenticate(ctx, "ada@example.com", "wrong", "citizen"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateCarriesChosenRole(t *testing.T) {
	mem := store.NewMemStore()
	svc := NewService(mem)
	ctx := context.Background()

	if _, err := svc.Authenticate(ctx, "ada@example.com", "hunter22", "citizen"); err != nil {
		t.Fatalf("first login: %v", err)
	}

	user, err := svc.Authenticate(ctx, "ada@example.com", "hunter22", "admin")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if user.Role != "admin" {
		t.Fatalf("expected role admin for this login, got %s", user.Role)
	}
}
