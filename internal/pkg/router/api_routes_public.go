package router

import (
	"github.com/gofiber/fiber/v2"
)

func registerPublicRoutes(v1 fiber.Router, c *apiControllers) {
	auth := v1.Group("/auth")
	auth.Post("/nonce", c.auth.HandleNonce)
	auth.Post("/verify", c.auth.HandleVerify)
	auth.Post("/logout", c.auth.HandleLogout)
	auth.Get("/me", c.auth.HandleMe)

	// Reads are gated per viewer, a wallet session is optional
	v1.Get("/creators", c.creators.HandleList)
	v1.Get("/creators/:address", c.creators.HandleGet)
	v1.Get("/creators/:address/page", c.creators.HandlePage)

	v1.Get("/posts", c.posts.HandleList)
	v1.Get("/posts/:id", c.posts.HandleGet)

	v1.Get("/tiers", c.tiers.HandleList)
	v1.Get("/subscriptions", c.subscriptions.HandleList)

	v1.Get("/taxonomy/categories", c.taxonomy.HandleListCategories)
	v1.Get("/taxonomy/hashtags", c.taxonomy.HandleListHashtags)

	v1.Get("/tx/subscribe", c.tx.HandleSubscribe)
	v1.Get("/transactions/:hash", c.tx.HandleStatus)
}
