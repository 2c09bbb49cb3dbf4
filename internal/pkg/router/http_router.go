package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuelReschke/TierFox/app/controllers"
	"github.com/ManuelReschke/TierFox/internal/pkg/env"
	"github.com/ManuelReschke/TierFox/internal/pkg/metrics"
	"github.com/ManuelReschke/TierFox/internal/pkg/middleware"
	"github.com/ManuelReschke/TierFox/internal/pkg/session"
)

// HttpRouter installs the global middleware plus the operational endpoints.
type HttpRouter struct {
	deps *Deps
}

func NewHttpRouter(deps *Deps) *HttpRouter {
	return &HttpRouter{deps: deps}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	if session.GetSessionStore() == nil {
		session.NewSessionStore()
	}

	app.Use(metrics.HTTPMiddleware())
	app.Use(session.HeaderToCookie())
	// Apply UserContext middleware globally, handlers read the wallet from it
	app.Use(middleware.UserContextMiddleware(h.deps.Admins))

	app.Get("/health", controllers.HandleHealth(h.deps.DB, h.deps.Cache))

	metricsHandler := adaptor.HTTPHandler(promhttp.Handler())
	if user := env.GetEnv("METRICS_USER", ""); user != "" {
		app.Get("/metrics", basicauth.New(basicauth.Config{
			Users: map[string]string{user: env.GetEnv("METRICS_PASSWORD", "")},
		}), metricsHandler)
		return
	}
	app.Get("/metrics", metricsHandler)
}
