package handlers

import (
	"showroom/internal/domain"
	"showroom/internal/services"
	"showroom/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	Users *services.UserService
}

// List: GET /api/v1/users?page=&limit=&q=&sort=&order=
func (h *UserHandler) List(c *fiber.Ctx) error {
	page, okP := validate.Int(c.Query("page"), 1)
	limit, okL := validate.Int(c.Query("limit"), 10)
	q, okQ := validate.Q(c.Query("q"))
	sort, okS := validate.SortKey(c.Query("sort"))
	order, okO := validate.SortOrder(c.Query("order"))
	if !okP || !okL || !okQ || !okS || !okO {
		return badRequest(c, "Invalid list parameters")
	}
	res, err := h.Users.List(c.UserContext(), domain.UserQuery{
		Page: page, Limit: limit, Search: q, SortKey: sort, SortOrder: domain.SortOrder(order),
	})
	if err != nil {
		return fail(c, "users.list", err)
	}
	out := make([]userStatsView, 0, len(res.Users))
	for _, u := range res.Users {
		out = append(out, userStatsView{
			ID: u.ID, Name: u.Name, Role: u.Role, CreatedAt: u.CreatedAt,
			TotalViews: u.TotalViews, TotalLikes: u.TotalLikes, TotalItems: u.TotalItems,
		})
	}
	return c.JSON(fiber.Map{
		"users":      out,
		"pagination": pageView{Page: res.Page, Limit: res.Limit, Total: res.Total},
	})
}
