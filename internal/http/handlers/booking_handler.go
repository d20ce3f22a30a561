package handlers

import (
	"github.com/gofiber/fiber/v2"

	"easybuy/internal/domain"
	applog "easybuy/internal/log"
	"easybuy/internal/services"
	"easybuy/internal/validate"
)

type BookingHandler struct {
	Bookings *services.BookingService
}

// POST /bookingProduct
func (h *BookingHandler) Create(c *fiber.Ctx) error {
	var in domain.Booking
	if err := decode(c, &in); err != nil {
		return err
	}
	b, err := h.Bookings.Create(c.UserContext(), callerOf(c), in)
	if err != nil {
		return err
	}
	applog.Audit(c, "booking.create", map[string]any{
		"booking":       b.ID,
		"product":       b.ProductID,
		"product_price": b.ProductPrice,
		"client_price":  in.ProductPrice,
	})
	return c.Status(fiber.StatusCreated).JSON(domain.Inserted(b.ID))
}

// DELETE /bookingProduct/:id/:productId
func (h *BookingHandler) Cancel(c *fiber.Ctx) error {
	id, pid := c.Params("id"), c.Params("productId")
	res, err := h.Bookings.Cancel(c.UserContext(), callerOf(c), id, pid)
	if err != nil {
		return err
	}
	applog.Audit(c, "booking.cancel", map[string]any{"booking": id, "product": pid})
	return c.JSON(res)
}

// GET /bookingProduct/:email
func (h *BookingHandler) ListByBuyer(c *fiber.Ctx) error {
	email, ok := validate.Email(c.Params("email"))
	if !ok {
		return domain.Invalidf("invalid email")
	}
	list, err := h.Bookings.ListByBuyer(c.UserContext(), callerOf(c), email)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// GET /singleBookingProduct/:id
func (h *BookingHandler) Get(c *fiber.Ctx) error {
	b, err := h.Bookings.Get(c.UserContext(), callerOf(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(b)
}
