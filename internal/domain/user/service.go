// Package user handles registration and credential checks.
package user

import (
	"context"
	"errors"
	"log"

	"github.com/example/veststore/internal/auth"
	"github.com/example/veststore/internal/store"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

var (
	ErrInvalidEmail       = errors.New("email is required")
	ErrInvalidName        = errors.New("name is required")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserDeactivated    = errors.New("user account is deactivated")
)

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Register creates a customer account.
func (s *Service) Register(ctx context.Context, email, password, name string) (*store.User, error) {
	return s.RegisterWithRole(ctx, email, password, name, RoleCustomer)
}

// RegisterAdmin creates an admin account.
func (s *Service) RegisterAdmin(ctx context.Context, email, password, name string) (*store.User, error) {
	return s.RegisterWithRole(ctx, email, password, name, RoleAdmin)
}

// RegisterWithRole creates an account with an explicit role.
func (s *Service) RegisterWithRole(ctx context.Context, email, password, name, role string) (*store.User, error) {
	if email == "" {
		return nil, ErrInvalidEmail
	}
	if name == "" {
		return nil, ErrInvalidName
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &store.User{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		IsActive:     true,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	log.Printf("[UserService] Registered user %s (%s)", u.ID, role)
	return u, nil
}

// Authenticate checks credentials and returns the account. A missing email
// and a wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*store.User, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrUserDeactivated
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (*store.User, error) {
	return s.store.GetUser(ctx, id)
}
