package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	applog "easybuy/internal/log"
	"easybuy/internal/services"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminHandler struct {
	Reports *services.ReportService
}

// GET /admin/payments/export
func (h *AdminHandler) ExportPayments(c *fiber.Ctx) error {
	data, err := h.Reports.ExportLedger(c.UserContext(), callerOf(c))
	if err != nil {
		return err
	}
	name := fmt.Sprintf("payments-%s.xlsx", time.Now().UTC().Format("20060102"))
	applog.Audit(c, "admin.payments.export", map[string]any{"bytes": len(data)})
	c.Attachment(name)
	c.Set(fiber.HeaderContentType, xlsxMIME)
	return c.Send(data)
}
