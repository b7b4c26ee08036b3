package handlers

import (
	"errors"
	"time"

	"showroom/internal/domain"
	"showroom/internal/log"
	"showroom/internal/security"
	"showroom/internal/services"
	"showroom/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const tokenTTL = 24 * time.Hour

type AuthHandler struct {
	Auth   *services.AuthService
	Tokens *security.HS256 // nil: sessions only
}

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false,
		})
	}
	return sid
}

type credentials struct {
	Email    string `json:"email" validate:"required,email,max=50"`
	Password string `json:"password" validate:"required,min=8,max=64"`
	Name     string `json:"name"`
}

func (h *AuthHandler) session(c *fiber.Ctx, u *domain.User, status int) error {
	body := fiber.Map{"user": toUserView(*u)}
	if h.Tokens != nil {
		tok, err := h.Tokens.Issue(u.ID, u.Role, tokenTTL)
		if err != nil {
			return err
		}
		body["token"] = tok
	}
	return c.Status(status).JSON(body)
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in credentials
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Malformed JSON body")
	}
	email, okE := validate.Email(in.Email)
	name, okN := validate.Name(in.Name)
	if !okE || !okN || !validate.Password(in.Password) {
		log.Security(c, "auth.register.fail", map[string]any{"reason": "bad_format"})
		return badRequest(c, "Invalid email, name or password")
	}

	sid := ensureSID(c)
	u, err := h.Auth.Register(c.UserContext(), sid, email, name, in.Password)
	if errors.Is(err, domain.ErrEmailTaken) {
		log.Security(c, "auth.register.fail", map[string]any{"reason": "email_taken"})
		return writeError(c, fiber.StatusConflict, "EMAIL_TAKEN", "Email already registered")
	}
	if err != nil {
		return err
	}
	log.Audit(c, "auth.register.success", map[string]any{"user_id": u.ID})
	return h.session(c, u, fiber.StatusCreated)
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in credentials
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Malformed JSON body")
	}
	if err := validate.Struct(in); err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"email": in.Email, "reason": "bad_format"})
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Invalid email or password")
	}

	sid := ensureSID(c)
	u, err := h.Auth.Login(c.UserContext(), sid, in.Email, in.Password)
	if errors.Is(err, services.ErrBadCreds) {
		log.Security(c, "auth.login.fail", map[string]any{"email": in.Email})
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Invalid email or password")
	}
	if err != nil {
		return err
	}
	log.Audit(c, "auth.login.success", map[string]any{"email": in.Email})
	return h.session(c, u, fiber.StatusOK)
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := c.Cookies("sid")
	if sid != "" {
		_ = h.Auth.Logout(c.UserContext(), sid)
	}
	// Expire cookie
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	log.Audit(c, "auth.logout", nil)
	return c.JSON(fiber.Map{"ok": true})
}

// GET /api/v1/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(toUserView(*currentUser(c)))
}
