package handlers

import (
	"strings"

	"showroom/internal/domain"
	applog "showroom/internal/log"
	"showroom/internal/security"
	"showroom/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Identify attaches the caller to the request: a Bearer token when one is
// sent, otherwise the sid session cookie. A bad token is rejected outright.
func Identify(auth *services.AuthService, tokens *security.HS256) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); h != "" {
			parts := strings.SplitN(h, " ", 2)
			if tokens == nil || len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				applog.Security(c, "auth.token.reject", map[string]any{"reason": "malformed"})
				return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials")
			}
			claims, err := tokens.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				applog.Security(c, "auth.token.reject", map[string]any{"reason": err.Error()})
				return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials")
			}
			u, err := auth.UserByID(c.UserContext(), claims.UserID)
			if err != nil {
				applog.Security(c, "auth.token.reject", map[string]any{"reason": "unknown_user"})
				return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials")
			}
			setUser(c, u)
			return c.Next()
		}

		if sid := c.Cookies("sid"); sid != "" {
			if u, err := auth.CurrentUser(c.UserContext(), sid); err == nil && u != nil {
				setUser(c, u)
			}
		}
		return c.Next()
	}
}

func setUser(c *fiber.Ctx, u *domain.User) {
	c.Locals("user", u)
	c.Locals("uid", u.ID)
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

func callerID(c *fiber.Ctx) string {
	if u := currentUser(c); u != nil {
		return u.ID
	}
	return ""
}

// RequireUser enforces that a caller was identified.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Sign in first")
		}
		return c.Next()
	}
}

func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Sign in first")
		}
		if u.Role != domain.RoleAdmin {
			applog.Security(c, "access.denied.admin", nil)
			return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "Access denied")
		}
		return c.Next()
	}
}
