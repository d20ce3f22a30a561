package handlers

import (
	"github.com/gofiber/fiber/v2"

	"easybuy/internal/domain"
	applog "easybuy/internal/log"
	"easybuy/internal/services"
	"easybuy/internal/validate"
)

type PaymentHandler struct {
	Payments *services.PaymentService
}

// POST /create-payment-intent
func (h *PaymentHandler) CreateIntent(c *fiber.Ctx) error {
	var in struct {
		ProductPrice domain.Price `json:"productPrice"`
	}
	if err := decode(c, &in); err != nil {
		return err
	}
	secret, err := h.Payments.CreateIntent(c.UserContext(), callerOf(c), in.ProductPrice)
	if err != nil {
		return err
	}
	applog.Info(c, "payment.intent", map[string]any{"amount": in.ProductPrice.MinorUnits()})
	return c.JSON(fiber.Map{"clientSecret": secret})
}

// POST /payments
func (h *PaymentHandler) Record(c *fiber.Ctx) error {
	var in services.PaymentInput
	if err := decode(c, &in); err != nil {
		return err
	}
	p, err := h.Payments.Record(c.UserContext(), callerOf(c), in)
	if err != nil {
		return err
	}
	applog.Audit(c, "payment.record", map[string]any{
		"payment": p.ID, "booking": p.BookingProductID, "product": p.ProductID,
		"transaction": p.TransactionID, "amount": p.Amount, "currency": p.Currency,
	})
	return c.Status(fiber.StatusCreated).JSON(domain.Inserted(p.ID))
}

// GET /payments/:email
func (h *PaymentHandler) ListByBuyer(c *fiber.Ctx) error {
	email, ok := validate.Email(c.Params("email"))
	if !ok {
		return domain.Invalidf("invalid email")
	}
	list, err := h.Payments.ListByBuyer(c.UserContext(), callerOf(c), email)
	if err != nil {
		return err
	}
	return c.JSON(list)
}
