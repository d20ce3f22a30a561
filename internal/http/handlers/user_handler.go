package handlers

import (
	"github.com/gofiber/fiber/v2"

	"easybuy/internal/domain"
	applog "easybuy/internal/log"
	"easybuy/internal/services"
	"easybuy/internal/validate"
)

type UserHandler struct {
	Users *services.UserService
}

// POST /users
func (h *UserHandler) Register(c *fiber.Ctx) error {
	var in services.Registration
	if err := decode(c, &in); err != nil {
		return err
	}
	inserted, u, err := h.Users.Register(c.UserContext(), in)
	if err != nil {
		return err
	}
	status := fiber.StatusOK
	if inserted {
		status = fiber.StatusCreated
		applog.Audit(c, "user.register", map[string]any{"user": u.Email, "role": u.Role})
	}
	return c.Status(status).JSON(fiber.Map{"inserted": inserted, "user": u})
}

// HasRole answers GET /users/{admin|seller|buyer}/:email with {"isAdmin": bool}
// and friends.
func (h *UserHandler) HasRole(role domain.Role, key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email, ok := validate.Email(c.Params("email"))
		if !ok {
			return domain.Invalidf("invalid email")
		}
		yes, err := h.Users.HasRole(c.UserContext(), email, role)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{key: yes})
	}
}

// ListByRole serves GET /sellers and GET /buyers.
func (h *UserHandler) ListByRole(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := h.Users.ListByRole(c.UserContext(), callerOf(c), role)
		if err != nil {
			return err
		}
		return c.JSON(users)
	}
}

// PUT /users/verify/:email
func (h *UserHandler) Verify(c *fiber.Ctx) error {
	email, ok := validate.Email(c.Params("email"))
	if !ok {
		return domain.Invalidf("invalid email")
	}
	res, err := h.Users.Verify(c.UserContext(), callerOf(c), email)
	if err != nil {
		return err
	}
	applog.Audit(c, "user.verify", map[string]any{"user": email})
	return c.JSON(res)
}

// DELETE /users/:email
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	email, ok := validate.Email(c.Params("email"))
	if !ok {
		return domain.Invalidf("invalid email")
	}
	res, err := h.Users.Delete(c.UserContext(), callerOf(c), email)
	if err != nil {
		return err
	}
	applog.Audit(c, "user.delete", map[string]any{"user": email})
	return c.JSON(res)
}
