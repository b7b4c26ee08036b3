package handlers

import (
	"showroom/internal/domain"
	applog "showroom/internal/log"
	"showroom/internal/metrics"
	"showroom/internal/services"
	"showroom/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ItemHandler struct {
	Items        *services.ItemService
	Interactions *services.InteractionService
}

type itemInput struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=120"`
	ImageURL    *string  `json:"imageUrl" validate:"omitempty,min=1,max=500"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Tags        []string `json:"tags" validate:"omitempty,max=20,dive,min=1,max=30"`
}

func (in itemInput) fields() domain.ItemFields {
	return domain.ItemFields{Name: in.Name, ImageURL: in.ImageURL, Description: in.Description, Tags: in.Tags}
}

// bindItem decodes and checks the body; a non-empty message means reject.
func bindItem(c *fiber.Ctx) (itemInput, string) {
	var in itemInput
	if err := c.BodyParser(&in); err != nil {
		return in, "Malformed JSON body"
	}
	if err := validate.Struct(in); err != nil {
		return in, "Invalid item fields"
	}
	return in, ""
}

func itemID(c *fiber.Ctx) (string, bool) {
	return validate.ID(c.Params("id"))
}

// List: GET /api/v1/items?page=&limit=&q=&sort=&order=&userId=&ownerId=
func (h *ItemHandler) List(c *fiber.Ctx) error {
	page, okP := validate.Int(c.Query("page"), 1)
	limit, okL := validate.Int(c.Query("limit"), 10)
	q, okQ := validate.Q(c.Query("q"))
	sort, okS := validate.SortKey(c.Query("sort"))
	order, okO := validate.SortOrder(c.Query("order"))
	if !okP || !okL || !okQ || !okS || !okO {
		applog.Security(c, "items.list.invalid", map[string]any{"query": string(c.Request().URI().QueryString())})
		return badRequest(c, "Invalid list parameters")
	}

	query := domain.ItemQuery{
		Page: page, Limit: limit, Search: q, SortKey: sort, SortOrder: domain.SortOrder(order),
		UserID: callerID(c),
	}
	if raw := c.Query("userId"); raw != "" {
		id, ok := validate.ID(raw)
		if !ok {
			return badRequest(c, "Invalid userId")
		}
		query.UserID = id
	}
	if raw := c.Query("ownerId"); raw != "" {
		id, ok := validate.ID(raw)
		if !ok {
			return badRequest(c, "Invalid ownerId")
		}
		query.OwnerID = id
	}

	res, err := h.Items.List(c.UserContext(), query)
	if err != nil {
		return fail(c, "items.list", err)
	}
	out := make([]itemView, 0, len(res.Items))
	for _, it := range res.Items {
		out = append(out, toItemView(it))
	}
	return c.JSON(fiber.Map{
		"items":      out,
		"pagination": pageView{Page: res.Page, Limit: res.Limit, Total: res.Total},
	})
}

func (h *ItemHandler) Get(c *fiber.Ctx) error {
	id, ok := itemID(c)
	if !ok {
		return badRequest(c, "Invalid item id")
	}
	it, err := h.Items.Get(c.UserContext(), id, callerID(c))
	if err != nil {
		return fail(c, "items.get", err)
	}
	return c.JSON(toItemView(it))
}

func (h *ItemHandler) Create(c *fiber.Ctx) error {
	in, msg := bindItem(c)
	if msg != "" {
		return badRequest(c, msg)
	}
	u := currentUser(c)
	it, err := h.Items.Create(c.UserContext(), u.ID, in.fields())
	if err != nil {
		return fail(c, "items.create", err)
	}
	applog.Audit(c, "items.create", map[string]any{"item_id": it.ID})
	return c.Status(fiber.StatusCreated).JSON(toItemView(it))
}

func (h *ItemHandler) Update(c *fiber.Ctx) error {
	id, ok := itemID(c)
	if !ok {
		return badRequest(c, "Invalid item id")
	}
	in, msg := bindItem(c)
	if msg != "" {
		return badRequest(c, msg)
	}
	it, err := h.Items.Update(c.UserContext(), id, callerID(c), in.fields())
	if err != nil {
		return fail(c, "items.update", err)
	}
	applog.Audit(c, "items.update", map[string]any{"item_id": id})
	return c.JSON(toItemView(it))
}

func (h *ItemHandler) Delete(c *fiber.Ctx) error {
	id, ok := itemID(c)
	if !ok {
		return badRequest(c, "Invalid item id")
	}
	if err := h.Items.Delete(c.UserContext(), id, callerID(c)); err != nil {
		return fail(c, "items.delete", err)
	}
	applog.Audit(c, "items.delete", map[string]any{"item_id": id})
	return c.JSON(fiber.Map{"deleted": true})
}

// View: POST /api/v1/items/:id/view
func (h *ItemHandler) View(c *fiber.Ctx) error {
	id, ok := itemID(c)
	if !ok {
		return badRequest(c, "Invalid item id")
	}
	it, err := h.Interactions.RecordView(c.UserContext(), id, callerID(c))
	if err != nil {
		metrics.RecordInteraction("view", "error")
		return fail(c, "item.view", err)
	}
	metrics.RecordInteraction("view", "applied")
	it.IsViewed = true
	return c.JSON(toItemView(it))
}

// Like: POST /api/v1/items/:id/like toggles the caller's like.
func (h *ItemHandler) Like(c *fiber.Ctx) error {
	id, ok := itemID(c)
	if !ok {
		return badRequest(c, "Invalid item id")
	}
	uid := callerID(c)
	it, err := h.Interactions.ToggleLike(c.UserContext(), id, uid)
	if err != nil {
		metrics.RecordInteraction("like", "error")
		return fail(c, "item.like", err)
	}
	metrics.RecordInteraction("like", "applied")
	annotated, err := h.Items.Get(c.UserContext(), id, uid)
	if err == nil {
		it.IsLiked, it.IsViewed = annotated.IsLiked, annotated.IsViewed
	}
	return c.JSON(toItemView(it))
}

// Interaction: GET /api/v1/items/:id/interaction
func (h *ItemHandler) Interaction(c *fiber.Ctx) error {
	id, ok := itemID(c)
	if !ok {
		return badRequest(c, "Invalid item id")
	}
	rec, err := h.Interactions.GetUserInteraction(c.UserContext(), id, callerID(c))
	if err != nil {
		return fail(c, "item.interaction", err)
	}
	return c.JSON(interactionView{
		UserID: rec.UserID, ItemID: rec.ItemID, Viewed: rec.Viewed, Liked: rec.Liked,
		CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt,
	})
}
