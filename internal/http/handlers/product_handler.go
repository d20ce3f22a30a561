package handlers

import (
	"github.com/gofiber/fiber/v2"

	"easybuy/internal/domain"
	"easybuy/internal/log"
	"easybuy/internal/services"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func (h *ProductHandler) Advertised(c *fiber.Ctx) error {
	products, err := h.Catalog.ListAdvertised(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// GET /products/search?q=&category=
func (h *ProductHandler) Search(c *fiber.Ctx) error {
	products, err := h.Catalog.Search(c.UserContext(), c.Query("q"), c.Query("category"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"count": len(products), "products": products})
}

// POST /products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in services.NewProduct
	if err := decode(c, &in); err != nil {
		return err
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), callerOf(c), in)
	if err != nil {
		return err
	}
	log.Audit(c, "product.create", map[string]any{"product": p.ID, "category": p.CategoryID})
	return c.Status(fiber.StatusCreated).JSON(domain.Inserted(p.ID))
}

// GET /myproducts?email=
func (h *ProductHandler) Mine(c *fiber.Ctx) error {
	products, err := h.Catalog.ListBySeller(c.UserContext(), callerOf(c), c.Query("email"))
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// PUT /products/advertise/:id
func (h *ProductHandler) Advertise(c *fiber.Ctx) error {
	id := c.Params("id")
	res, err := h.Catalog.Advertise(c.UserContext(), callerOf(c), id)
	if err != nil {
		return err
	}
	log.Audit(c, "product.advertise", map[string]any{"product": id})
	return c.JSON(res)
}

// DELETE /products/:id
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	res, err := h.Catalog.DeleteProduct(c.UserContext(), callerOf(c), id)
	if err != nil {
		return err
	}
	log.Audit(c, "product.delete", map[string]any{"product": id})
	return c.JSON(res)
}
