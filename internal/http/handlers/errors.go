package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"easybuy/internal/domain"
	applog "easybuy/internal/log"
)

// statusOf maps an error to its HTTP status and the message shown to the
// client. Unknown errors never leak their text.
func statusOf(err error) (int, string) {
	var fe *fiber.Error
	var up *domain.UpstreamError
	switch {
	case errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError:
		return fe.Code, fe.Message
	case errors.Is(err, domain.ErrUnauthenticated):
		return fiber.StatusForbidden, "forbidden access"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrInvalid):
		return fiber.StatusBadRequest, clientMessage(err, domain.ErrInvalid)
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrPaymentUnverified):
		return fiber.StatusPaymentRequired, err.Error()
	case errors.As(err, &up):
		return fiber.StatusBadGateway, "payment processor unavailable"
	}
	return fiber.StatusInternalServerError, "internal server error"
}

// clientMessage drops the sentinel prefix Invalidf adds.
func clientMessage(err, sentinel error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return rest
	}
	return msg
}

// ErrorHandler is the app-wide fiber error handler. Denials are logged as
// security events, server faults as errors.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code, msg := statusOf(err)
	switch {
	case code >= fiber.StatusInternalServerError:
		applog.Error(c, "server.error", err, map[string]any{"status": code})
	case code == fiber.StatusUnauthorized || code == fiber.StatusForbidden:
		applog.Security(c, "access.denied", map[string]any{"reason": err.Error()})
	case code == fiber.StatusBadRequest:
		applog.Security(c, "validation.fail", map[string]any{"reason": msg})
	}
	return c.Status(code).JSON(fiber.Map{"message": msg})
}

// decode reads a JSON body regardless of the declared content type.
func decode(c *fiber.Ctx, v any) error {
	if err := c.App().Config().JSONDecoder(c.Body(), v); err != nil {
		return domain.Invalidf("malformed JSON body: %v", err)
	}
	return nil
}
