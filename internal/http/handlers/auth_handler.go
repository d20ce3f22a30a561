package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"easybuy/internal/domain"
	"easybuy/internal/log"
	"easybuy/internal/services"
	"easybuy/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /jwt
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var in credentials
	if err := decode(c, &in); err != nil {
		return err
	}
	email, ok := validate.Email(in.Email)
	if !ok || in.Password == "" || len(in.Password) > 64 {
		log.Security(c, "auth.login.fail", map[string]any{"reason": "bad_format"})
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "forbidden access"})
	}

	tok, err := h.Auth.Login(c.UserContext(), email, in.Password)
	if errors.Is(err, domain.ErrUnauthenticated) {
		log.Security(c, "auth.login.fail", map[string]any{"email": email})
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "forbidden access"})
	}
	if err != nil {
		return err
	}

	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.JSON(fiber.Map{"accessToken": tok})
}
