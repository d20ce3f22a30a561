package services

import (
	"context"
	"errors"

	"easybuy/internal/domain"
	"easybuy/internal/validate"
)

type UserService struct {
	Users UserStore
}

func NewUserService(users UserStore) *UserService { return &UserService{Users: users} }

type Registration struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// Register is idempotent by email: an existing account is returned as
// stored with inserted=false.
func (s *UserService) Register(ctx context.Context, in Registration) (bool, domain.User, error) {
	email, ok := validate.Email(in.Email)
	if !ok {
		return false, domain.User{}, domain.Invalidf("invalid email")
	}
	name, ok := validate.Name(in.Name, 80)
	if !ok {
		return false, domain.User{}, domain.Invalidf("name is required (max 80 chars)")
	}
	role := domain.RoleBuyer
	if in.Role != "" {
		r, ok := validate.Role(in.Role)
		if !ok || r == domain.RoleAdmin {
			return false, domain.User{}, domain.Invalidf("role must be buyer or seller")
		}
		role = r
	}
	u := domain.User{Email: email, Name: name, Role: role}
	if in.Password != "" {
		if !validate.Password(in.Password) {
			return false, domain.User{}, domain.Invalidf("password must be 8-64 chars with upper, lower and digit")
		}
		h, err := HashPassword(in.Password)
		if err != nil {
			return false, domain.User{}, err
		}
		u.Hash = h
	}
	return s.Users.Insert(ctx, u)
}

// HasRole reports whether email belongs to an account with role. Unknown
// emails report false.
func (s *UserService) HasRole(ctx context.Context, email string, role domain.Role) (bool, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.Role == role, nil
}

func (s *UserService) ListByRole(ctx context.Context, caller domain.Caller, role domain.Role) ([]domain.User, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.Users.ListByRole(ctx, role)
}

func (s *UserService) Verify(ctx context.Context, caller domain.Caller, email string) (domain.WriteResult, error) {
	if !caller.IsAdmin() {
		return domain.WriteResult{}, domain.ErrForbidden
	}
	n, err := s.Users.Verify(ctx, email)
	if err != nil {
		return domain.WriteResult{}, err
	}
	return domain.Modified(n), nil
}

func (s *UserService) Delete(ctx context.Context, caller domain.Caller, email string) (domain.WriteResult, error) {
	if !caller.IsAdmin() {
		return domain.WriteResult{}, domain.ErrForbidden
	}
	n, err := s.Users.Delete(ctx, email)
	if err != nil {
		return domain.WriteResult{}, err
	}
	return domain.Deleted(n), nil
}
