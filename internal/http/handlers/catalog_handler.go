package handlers

import (
	"errors"

	"showroom/internal/domain"
	applog "showroom/internal/log"
	"showroom/internal/metrics"
	"showroom/internal/services"
	"showroom/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CatalogHandler struct {
	Catalog   *services.CatalogService
	Ownership *services.OwnershipService
}

// Products: GET /api/v1/products?categoryId=&q=
func (h *CatalogHandler) Products(c *fiber.Ctx) error {
	q, ok := validate.Q(c.Query("q"))
	if !ok {
		applog.Security(c, "products.search.invalid", map[string]any{"q": c.Query("q")})
		return badRequest(c, "Invalid search term")
	}
	catID := ""
	if raw := c.Query("categoryId"); raw != "" {
		if catID, ok = validate.ID(raw); !ok {
			return badRequest(c, "Invalid categoryId")
		}
	}
	ps, err := h.Catalog.ListProducts(c.UserContext(), catID, q)
	if err != nil {
		return fail(c, "products.list", err)
	}
	return c.JSON(fiber.Map{"products": toProductViews(ps)})
}

func (h *CatalogHandler) Product(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "Invalid product id")
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return fail(c, "products.get", err)
	}
	return c.JSON(toProductView(p))
}

func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"categories": toCategoryViews(cats)})
}

func (h *CatalogHandler) ParentCategories(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListParentCategories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"categories": toCategoryViews(cats)})
}

func toCategoryViews(cats []domain.Category) []categoryView {
	out := make([]categoryView, 0, len(cats))
	for _, cat := range cats {
		out = append(out, toCategoryView(cat))
	}
	return out
}

// Purchase: POST /api/v1/products/:id/purchase
func (h *CatalogHandler) Purchase(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "Invalid product id")
	}
	uid := callerID(c)
	res, err := h.Ownership.Purchase(c.UserContext(), uid, id)
	if err != nil {
		metrics.RecordPurchase(purchaseOutcome(err))
		return fail(c, "purchase", err)
	}
	metrics.RecordPurchase("success")
	applog.Audit(c, "purchase.success", map[string]any{"product_id": id, "balance": res.NewBalance})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    res.Success,
		"message":    res.Message,
		"newBalance": res.NewBalance,
	})
}

func purchaseOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadyOwned):
		return "already_owned"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrDependency):
		return "dependency"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	}
	return "error"
}

// MyProducts: GET /api/v1/me/products
func (h *CatalogHandler) MyProducts(c *fiber.Ctx) error {
	owned, err := h.Ownership.ListUserProducts(c.UserContext(), callerID(c))
	if err != nil {
		return err
	}
	out := make([]ownershipView, 0, len(owned))
	for _, o := range owned {
		v := ownershipView{ID: o.ID, ProductID: o.ProductID, PurchaseDate: o.PurchaseDate, IsUsed: o.IsUsed}
		if o.Product != nil {
			p := toProductView(*o.Product)
			v.Product = &p
		}
		out = append(out, v)
	}
	return c.JSON(fiber.Map{"products": out})
}
