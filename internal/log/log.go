package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// L is the process logger. Init replaces it; until then events go to stderr as JSON.
var L = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init configures level and format ("json" or "console") and the sink.
func Init(level, format string, w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	L = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func event(e *zerolog.Event, kind string, c *fiber.Ctx, action string, fields map[string]any) *zerolog.Event {
	e = e.Str("kind", kind).Str("action", action)
	if c != nil {
		e = e.Str("ip", c.IP()).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode())
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			e = e.Str("req_id", rid)
		}
		if uid, ok := c.Locals("uid").(string); ok && uid != "" {
			e = e.Str("user_id", uid)
		}
	}
	if len(fields) > 0 {
		e = e.Fields(fields)
	}
	return e
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	event(L.Info(), "info", c, action, fields).Send()
}

func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	event(L.Info(), "audit", c, action, fields).Send()
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	event(L.Warn(), "security", c, action, fields).Send()
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	event(L.Error(), "error", c, action, fields).Err(err).Send()
}
