package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/TierFox/app/controllers"
	"github.com/ManuelReschke/TierFox/internal/pkg/env"
)

type ApiRouter struct {
	deps *Deps
}

func NewApiRouter(deps *Deps) *ApiRouter {
	return &ApiRouter{deps: deps}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        env.GetEnvInt("RATE_LIMIT_MAX", 120),
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "too many requests",
			})
		},
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")
	c := h.controllers()
	registerPublicRoutes(v1, c)
	registerWalletRoutes(v1, c)
	registerAdminRoutes(v1, c)
}

type apiControllers struct {
	auth          *controllers.AuthController
	creators      *controllers.CreatorController
	posts         *controllers.PostController
	tiers         *controllers.TierController
	subscriptions *controllers.SubscriptionController
	taxonomy      *controllers.TaxonomyController
	audience      *controllers.AudienceController
	tx            *controllers.TxController
	media         *controllers.MediaController
}

func (h ApiRouter) controllers() *apiControllers {
	d := h.deps
	r := d.Repos

	var uploader controllers.Uploader
	if d.Media != nil {
		uploader = d.Media
	}

	return &apiControllers{
		auth:          controllers.NewAuthController(d.WalletAuth),
		creators:      controllers.NewCreatorController(r.Creator, r.Category, r.Hashtag, d.Reader, d.Composer),
		posts:         controllers.NewPostController(r.Post, r.Creator, r.Tier, d.Composer, d.Likes),
		tiers:         controllers.NewTierController(r.Tier, d.Reader, d.Builder),
		subscriptions: controllers.NewSubscriptionController(r.Subscription, d.Members),
		taxonomy:      controllers.NewTaxonomyController(r.Category, r.Hashtag),
		audience:      controllers.NewAudienceController(r.Subscription, r.Tier, d.Stats),
		tx:            controllers.NewTxController(r.Tier, d.Reader, d.Builder, d.Tracker),
		media:         controllers.NewMediaController(uploader),
	}
}
