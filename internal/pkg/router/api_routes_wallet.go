package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/TierFox/internal/pkg/middleware"
)

// registerWalletRoutes installs everything that needs a signed-in wallet.
func registerWalletRoutes(v1 fiber.Router, c *apiControllers) {
	w := middleware.RequireWallet

	v1.Post("/creators", w, c.creators.HandleUpsert)

	v1.Post("/posts", w, c.posts.HandleCreate)
	v1.Put("/posts/:id", w, c.posts.HandleUpdate)
	v1.Delete("/posts/:id", w, c.posts.HandleDelete)
	v1.Post("/posts/:id/like", w, c.posts.HandleLike)

	v1.Post("/tiers", w, c.tiers.HandleReplace)

	v1.Post("/subscriptions", w, c.subscriptions.HandleSync)
	v1.Get("/memberships", w, c.subscriptions.HandleMemberships)

	v1.Get("/audience", w, c.audience.HandleAudience)
	v1.Get("/stats", w, c.audience.HandleStats)

	v1.Get("/tx/createTier", w, c.tx.HandleCreateTier)
	v1.Get("/tx/withdraw", w, c.tx.HandleWithdraw)
	v1.Post("/transactions", w, c.tx.HandleRegister)

	v1.Post("/media", w, c.media.HandleUpload)
}
