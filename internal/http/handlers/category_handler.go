package handlers

import (
	"github.com/gofiber/fiber/v2"

	"easybuy/internal/domain"
	applog "easybuy/internal/log"
	"easybuy/internal/services"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(cats)
}

// POST /categories
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var in struct {
		Name string `json:"name"`
	}
	if err := decode(c, &in); err != nil {
		return err
	}
	cat, err := h.Catalog.CreateCategory(c.UserContext(), callerOf(c), in.Name)
	if err != nil {
		return err
	}
	applog.Audit(c, "category.create", map[string]any{"category": cat.ID})
	return c.Status(fiber.StatusCreated).JSON(domain.Inserted(cat.ID))
}

// Products lists the category's available products.
func (h *CategoryHandler) Products(c *fiber.Ctx) error {
	products, err := h.Catalog.ListAvailableByCategory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(products)
}
