package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"easybuy/internal/domain"
)

// Limits are the throttles put in front of the credential and charge
// endpoints.
type Limits struct {
	Token  fiber.Handler
	Intent fiber.Handler
}

func passthrough(c *fiber.Ctx) error { return c.Next() }

// Mount registers every route on app.
func Mount(app *fiber.App, d *Deps, lim Limits, status StatusInfo) {
	if lim.Token == nil {
		lim.Token = passthrough
	}
	if lim.Intent == nil {
		lim.Intent = passthrough
	}

	authed := RequireAuth(d.Auth)
	admin := RequireRole(d.Users, domain.RoleAdmin)
	seller := RequireRole(d.Users, domain.RoleSeller)
	buyer := RequireRole(d.Users, domain.RoleBuyer)
	sellerOrAdmin := RequireRole(d.Users, domain.RoleSeller, domain.RoleAdmin)

	app.Get("/", Status(status))
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Post("/jwt", lim.Token, d.AuthHandler.Token)

	// Users
	uh := d.UserHandler
	app.Post("/users", uh.Register)
	app.Get("/users/admin/:email", uh.HasRole(domain.RoleAdmin, "isAdmin"))
	app.Get("/users/seller/:email", uh.HasRole(domain.RoleSeller, "isSeller"))
	app.Get("/users/buyer/:email", uh.HasRole(domain.RoleBuyer, "isBuyer"))
	app.Get("/sellers", authed, admin, uh.ListByRole(domain.RoleSeller))
	app.Get("/buyers", authed, admin, uh.ListByRole(domain.RoleBuyer))
	app.Put("/users/verify/:email", authed, admin, uh.Verify)
	app.Delete("/users/:email", authed, admin, uh.Delete)

	// Catalog
	app.Get("/categories", d.CategoryHandler.List)
	app.Post("/categories", authed, admin, d.CategoryHandler.Create)
	app.Get("/categories/:id", d.CategoryHandler.Products)
	app.Get("/advertisedProducts", d.ProductHandler.Advertised)
	app.Get("/products/search", d.ProductHandler.Search)
	app.Post("/products", authed, seller, d.ProductHandler.Create)
	app.Get("/myproducts", authed, seller, d.ProductHandler.Mine)
	app.Put("/products/advertise/:id", authed, seller, d.ProductHandler.Advertise)
	app.Delete("/products/:id", authed, sellerOrAdmin, d.ProductHandler.Delete)

	// Bookings
	bh := d.BookingHandler
	app.Post("/bookingProduct", authed, buyer, bh.Create)
	app.Delete("/bookingProduct/:id/:productId", authed, bh.Cancel)
	app.Get("/bookingProduct/:email", authed, bh.ListByBuyer)
	app.Get("/singleBookingProduct/:id", authed, bh.Get)

	// Payments
	ph := d.PaymentHandler
	app.Post("/create-payment-intent", authed, buyer, lim.Intent, ph.CreateIntent)
	app.Post("/payments", authed, buyer, ph.Record)
	app.Get("/payments/:email", authed, ph.ListByBuyer)

	app.Get("/admin/payments/export", authed, admin, d.AdminHandler.ExportPayments)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "not found"})
	})
}
