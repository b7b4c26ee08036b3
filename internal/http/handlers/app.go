package handlers

import (
	"strings"
	"time"

	applog "showroom/internal/log"
	"showroom/internal/metrics"
	"showroom/internal/ratelimit"
	"showroom/web"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
)

type Options struct {
	// RateMax caps requests per IP per RateWindow in this process; 0 disables.
	RateMax    int
	RateWindow time.Duration
	BodyLimit  int
	AccessLog  bool
}

// NewApp builds the fiber app with middleware and every route mounted.
func NewApp(d *Deps, opt Options) *fiber.App {
	if opt.BodyLimit <= 0 {
		opt.BodyLimit = 1 << 20 // 1 MiB
	}
	engine := html.NewFileSystem(web.Templates(), ".html")

	app := fiber.New(fiber.Config{
		Views:        engine,
		BodyLimit:    opt.BodyLimit,
		ErrorHandler: ErrorHandler,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	if opt.AccessLog {
		app.Use(logger.New())
	}
	app.Use(helmet.New())
	app.Use(observe)
	if opt.RateMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opt.RateMax,
			Expiration: opt.RateWindow,
			Next: func(c *fiber.Ctx) bool {
				p := c.Path()
				return p == "/healthz" || p == "/metrics"
			},
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.global.hit", nil)
				return writeError(c, fiber.StatusTooManyRequests, "RATE_LIMITED", "Rate limit exceeded, retry soon")
			},
		}))
	}
	app.Use(Identify(d.Auth, d.Tokens))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "header:X-Csrf-Token",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		// Only cookie sessions ride along on cross-site requests.
		Next: func(c *fiber.Ctx) bool {
			return c.Get(fiber.HeaderAuthorization) != "" || c.Cookies("sid") == ""
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return writeError(c, fiber.StatusForbidden, "CSRF", "Security check failed. Refresh and try again.")
		},
	}))

	// ---------- Routes ----------
	app.Get("/", func(c *fiber.Ctx) error { return render(c, "index", nil) })
	app.Get("/healthz", d.Health)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/api/v1")
	user := RequireUser()
	write := writeLimit(d.Limiter)

	api.Post("/auth/register", write, d.AuthHandler.Register)
	api.Post("/auth/login", write, d.AuthHandler.Login)
	api.Post("/auth/logout", d.AuthHandler.Logout)
	api.Get("/me", user, d.AuthHandler.Me)
	api.Get("/me/products", user, d.CatalogHandler.MyProducts)

	api.Get("/items", d.ItemHandler.List)
	api.Post("/items", user, write, d.ItemHandler.Create)
	api.Get("/items/:id", d.ItemHandler.Get)
	api.Patch("/items/:id", user, write, d.ItemHandler.Update)
	api.Delete("/items/:id", user, write, d.ItemHandler.Delete)
	api.Post("/items/:id/view", user, write, d.ItemHandler.View)
	api.Post("/items/:id/like", user, write, d.ItemHandler.Like)
	api.Get("/items/:id/interaction", user, d.ItemHandler.Interaction)

	api.Get("/products", d.CatalogHandler.Products)
	api.Get("/products/:id", d.CatalogHandler.Product)
	api.Post("/products/:id/purchase", user, write, d.CatalogHandler.Purchase)
	api.Get("/categories", d.CatalogHandler.Categories)
	api.Get("/categories/parents", d.CatalogHandler.ParentCategories)

	api.Get("/users", d.UserHandler.List)

	admin := api.Group("/admin", RequireAdmin())
	admin.Get("/products", d.AdminHandler.Products)
	admin.Post("/products", d.AdminHandler.CreateProduct)
	admin.Patch("/products/:id", d.AdminHandler.UpdateProduct)
	admin.Delete("/products/:id", d.AdminHandler.DeleteProduct)
	admin.Post("/categories", d.AdminHandler.CreateCategory)

	// 404
	app.Use(func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/") {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "No such route")
		}
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})
	return app
}

// observe records request metrics against the matched route pattern.
func observe(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		status = fiber.StatusInternalServerError
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
	}
	metrics.RecordHTTPRequest(c.Method(), c.Route().Path, status, time.Since(start))
	return err
}

// writeLimit applies the shared Redis window to mutating routes, keyed by
// caller when known and by IP otherwise.
func writeLimit(l *ratelimit.Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if l == nil {
			return c.Next()
		}
		key := "ip:" + c.IP()
		if uid := callerID(c); uid != "" {
			key = "u:" + uid
		}
		if !l.Allow(c.UserContext(), key) {
			metrics.RecordRateLimited(c.Route().Path)
			applog.Security(c, "rate.write.hit", map[string]any{"key": key})
			return writeError(c, fiber.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, retry soon")
		}
		return c.Next()
	}
}

// Health: GET /healthz
func (d *Deps) Health(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if err := d.DB.PingContext(ctx); err != nil {
		applog.Error(c, "health.db.fail", err, nil)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false, "db": "down"})
	}
	out := fiber.Map{"ok": true, "db": "up"}
	if d.Limiter != nil {
		out["redis"] = "up"
		if err := d.Limiter.Ping(ctx); err != nil {
			out["redis"] = "down"
		}
	}
	return c.JSON(out)
}
