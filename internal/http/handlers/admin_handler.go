package handlers

import (
	"showroom/internal/domain"
	applog "showroom/internal/log"
	"showroom/internal/services"
	"showroom/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Catalog *services.CatalogService
}

type productInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Price       *int64  `json:"price" validate:"omitempty,gt=0"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,max=500"`
	CategoryID  *string `json:"categoryId" validate:"omitempty,min=1,max=64"`
	IsPopular   *bool   `json:"isPopular"`
	Active      *bool   `json:"active"`
}

func (in productInput) fields() domain.ProductFields {
	return domain.ProductFields{
		Name: in.Name, Description: in.Description, Price: in.Price, ImageURL: in.ImageURL,
		CategoryID: in.CategoryID, IsPopular: in.IsPopular, Active: in.Active,
	}
}

func bindProduct(c *fiber.Ctx) (productInput, string) {
	var in productInput
	if err := c.BodyParser(&in); err != nil {
		return in, "Malformed JSON body"
	}
	if err := validate.Struct(in); err != nil {
		return in, "Invalid product fields"
	}
	return in, ""
}

// GET /api/v1/admin/products
func (h *AdminHandler) Products(c *fiber.Ctx) error {
	ps, err := h.Catalog.ListAllProducts(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.products.list.fail", err, nil)
		return err
	}
	return c.JSON(fiber.Map{"products": toProductViews(ps)})
}

// POST /api/v1/admin/products
func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	in, msg := bindProduct(c)
	if msg != "" {
		return badRequest(c, msg)
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), in.fields())
	if err != nil {
		return fail(c, "admin.products.create", err)
	}
	applog.Audit(c, "admin.products.create", map[string]any{"product_id": p.ID})
	return c.Status(fiber.StatusCreated).JSON(toProductView(p))
}

// PATCH /api/v1/admin/products/:id
func (h *AdminHandler) UpdateProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "Invalid product id")
	}
	in, msg := bindProduct(c)
	if msg != "" {
		return badRequest(c, msg)
	}
	p, err := h.Catalog.UpdateProduct(c.UserContext(), id, in.fields())
	if err != nil {
		return fail(c, "admin.products.update", err)
	}
	applog.Audit(c, "admin.products.update", map[string]any{"product_id": id})
	return c.JSON(toProductView(p))
}

// DELETE /api/v1/admin/products/:id
func (h *AdminHandler) DeleteProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "Invalid product id")
	}
	if err := h.Catalog.DeleteProduct(c.UserContext(), id); err != nil {
		return fail(c, "admin.products.delete", err)
	}
	applog.Audit(c, "admin.products.delete", map[string]any{"product_id": id})
	return c.JSON(fiber.Map{"deleted": true})
}

type categoryInput struct {
	Name     string `json:"name" validate:"required,min=1,max=60"`
	ParentID string `json:"parentId" validate:"omitempty,min=1,max=64"`
}

// POST /api/v1/admin/categories
func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	var in categoryInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Malformed JSON body")
	}
	if err := validate.Struct(in); err != nil {
		return badRequest(c, "Invalid category fields")
	}
	cat, err := h.Catalog.CreateCategory(c.UserContext(), in.Name, in.ParentID)
	if err != nil {
		return fail(c, "admin.categories.create", err)
	}
	applog.Audit(c, "admin.categories.create", map[string]any{"category_id": cat.Info().ID})
	return c.Status(fiber.StatusCreated).JSON(toCategoryView(cat))
}
