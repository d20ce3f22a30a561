package handlers

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	html "github.com/gofiber/template/html/v2"
)

//go:embed views/*.html
var views embed.FS

// Views returns the template engine for fiber.Config.Views.
func Views() *html.Engine {
	sub, err := fs.Sub(views, "views")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}

type StatusInfo struct {
	Store    string
	Payments bool
	Started  time.Time
}

// Status serves GET /.
func Status(info StatusInfo) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Render("status", fiber.Map{
			"Name":     "EasyBuy",
			"Store":    info.Store,
			"Payments": info.Payments,
			"Started":  info.Started.UTC().Format(time.RFC3339),
		})
	}
}
