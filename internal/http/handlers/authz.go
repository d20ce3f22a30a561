package handlers

import (
	"errors"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"

	"easybuy/internal/domain"
	applog "easybuy/internal/log"
	"easybuy/internal/services"
)

const (
	localCaller = "caller"
	localUser   = "user"
)

// RequireAuth verifies the bearer token and resolves the caller. A missing
// header is 401; a token that does not verify is 403.
func RequireAuth(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get(fiber.HeaderAuthorization)
		raw, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			applog.Security(c, "auth.missing", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized access"})
		}
		caller, err := auth.Authenticate(c.UserContext(), strings.TrimSpace(raw))
		if errors.Is(err, domain.ErrUnauthenticated) {
			applog.Security(c, "auth.token.invalid", nil)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "forbidden access"})
		}
		if err != nil {
			return err
		}
		c.Locals(applog.CallerKey, caller.Email)
		c.Locals(localCaller, caller)
		return c.Next()
	}
}

// RequireRole loads the authenticated user and admits it only with one of
// roles. Must run after RequireAuth.
func RequireRole(users services.UserStore, roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email, _ := c.Locals(applog.CallerKey).(string)
		u, err := users.ByEmail(c.UserContext(), email)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if err != nil || !slices.Contains(roles, u.Role) {
			applog.Security(c, "access.denied.role", map[string]any{"want": roles, "role": u.Role})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "forbidden access"})
		}
		c.Locals(localUser, &u)
		c.Locals(localCaller, domain.Caller{Email: u.Email, Role: u.Role})
		return c.Next()
	}
}

func callerOf(c *fiber.Ctx) domain.Caller {
	caller, _ := c.Locals(localCaller).(domain.Caller)
	return caller
}
