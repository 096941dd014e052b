// Package authpw validates portal logins: email shape, role, and password.
package authpw

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"civicport/api/internal/rbac"
	"civicport/api/internal/store"
	"civicport/api/internal/util"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrMissingRole        = errors.New("missing or unknown role")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Same shape the portal's login form enforces: no whitespace, exactly one @,
// at least one dot-segment in the domain.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UserStore defines the storage interface for login validation.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	CreateUser(ctx context.Context, user store.User) error
	UpdateUserRole(ctx context.Context, userID, role string) error
}

type Service struct {
	store UserStore
}

func NewService(store UserStore) *Service {
	return &Service{store: store}
}

// Authenticate checks the login triple and returns the account it resolves
// to. A fresh email registers a new account with a bcrypt hash of the given
// password; a known email must present the matching password. The returned
// user carries the role chosen for this login. Authenticate has no session
// side effects; the caller persists the session.
func (s *Service) Authenticate(ctx context.Context, email, password, role string) (store.User, error) {
	if !emailPattern.MatchString(email) {
		return store.User{}, ErrInvalidEmail
	}
	if !rbac.Valid(role) {
		return store.User{}, ErrMissingRole
	}
	if password == "" {
		return store.User{}, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return s.register(ctx, email, password, role)
	}
	if err != nil {
		return store.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return store.User{}, ErrInvalidCredentials
	}

	if user.Role != role {
		if err := s.store.UpdateUserRole(ctx, user.ID, role); err != nil {
			return store.User{}, fmt.Errorf("update role: %w", err)
		}
	}
	user.Role = role
	return user, nil
}

func (s *Service) register(ctx context.Context, email, password, role string) (store.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := store.User{
		ID:           util.NewID("usr"),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return store.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
