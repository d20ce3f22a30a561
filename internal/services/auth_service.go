package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"easybuy/internal/domain"
	"easybuy/internal/token"
)

var ErrBadCreds = errors.New("invalid email or password")

type AuthService struct {
	Users  UserStore
	Tokens *token.Issuer
}

func NewAuthService(users UserStore, tokens *token.Issuer) *AuthService {
	return &AuthService{Users: users, Tokens: tokens}
}

// Login checks the password and issues an access token. Every mismatch,
// including an unknown email or an account without a password, is reported
// as ErrBadCreds wrapped in ErrUnauthenticated.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("%w: %w", domain.ErrUnauthenticated, ErrBadCreds)
		}
		return "", err
	}
	if u.Hash == "" || bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUnauthenticated, ErrBadCreds)
	}
	return s.Tokens.Issue(u.Email)
}

// Authenticate verifies raw and resolves the caller's current role. A valid
// token for an email with no account yields a caller without a role.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (domain.Caller, error) {
	email, err := s.Tokens.Verify(raw)
	if err != nil {
		return domain.Caller{}, err
	}
	u, err := s.Users.ByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Caller{Email: email}, nil
	}
	if err != nil {
		return domain.Caller{}, err
	}
	return domain.Caller{Email: u.Email, Role: u.Role}, nil
}

func HashPassword(raw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
