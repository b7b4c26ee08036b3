package handlers

import (
	"errors"
	"net/http"
	"strings"

	"showroom/internal/domain"
	applog "showroom/internal/log"

	"github.com/gofiber/fiber/v2"
)

const friendlyMessage = "Something went wrong. Please try again."

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	if tok, _ := c.Locals("csrf").(string); tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}

func requestID(c *fiber.Ctx) string {
	rid, _ := c.Locals("requestid").(string)
	return rid
}

func writeError(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": fiber.Map{
		"code":       code,
		"message":    msg,
		"request_id": requestID(c),
	}})
}

// fail maps domain errors to HTTP responses. Anything unrecognised goes to
// ErrorHandler, which logs it and hides the details.
func fail(c *fiber.Ctx, action string, err error) error {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		applog.Info(c, action+".rejected", map[string]any{"reason": "insufficient_funds"})
		return writeError(c, fiber.StatusPaymentRequired, "INSUFFICIENT_FUNDS", "Not enough credits")
	case errors.Is(err, domain.ErrDependency):
		applog.Error(c, action+".fail", err, nil)
		return writeError(c, fiber.StatusBadGateway, "DEPENDENCY_FAILURE", "Balance service unavailable, nothing was charged")
	case errors.Is(err, domain.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, domain.ErrForbidden):
		applog.Security(c, action+".forbidden", nil)
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "Only the owner can do that")
	case errors.Is(err, domain.ErrAlreadyOwned):
		return writeError(c, fiber.StatusConflict, "ALREADY_OWNED", "You already own this product")
	case errors.Is(err, domain.ErrEmailTaken):
		return writeError(c, fiber.StatusConflict, "EMAIL_TAKEN", "Email already registered")
	case errors.Is(err, domain.ErrInvalidArgument):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
	case errors.Is(err, domain.ErrConflict):
		applog.Error(c, action+".conflict", err, nil)
		c.Set(fiber.HeaderRetryAfter, "1")
		return writeError(c, fiber.StatusServiceUnavailable, "CONFLICT", "Busy, please retry")
	}
	return err
}

func badRequest(c *fiber.Ctx, msg string) error {
	return writeError(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", msg)
}

// ErrorHandler logs unexpected errors and answers with a friendly message:
// JSON under /api, the notfound page elsewhere.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := friendlyMessage
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		status, msg = fe.Code, fe.Message
	} else {
		applog.Error(c, "server.error", err, nil)
	}

	if strings.HasPrefix(c.Path(), "/api/") || strings.HasPrefix(c.Path(), "/healthz") {
		return writeError(c, status, strings.ToUpper(strings.ReplaceAll(statusText(status), " ", "_")), msg)
	}
	if rerr := c.Status(status).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(status).SendString(msg)
	}
	return nil
}

func statusText(code int) string {
	if s := http.StatusText(code); s != "" {
		return s
	}
	return "Error"
}
