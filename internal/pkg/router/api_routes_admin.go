package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/TierFox/internal/pkg/middleware"
)

func registerAdminRoutes(v1 fiber.Router, c *apiControllers) {
	taxonomy := v1.Group("/taxonomy")

	taxonomy.Post("/categories", middleware.RequireAdmin, c.taxonomy.HandleCreateCategory)
	taxonomy.Patch("/categories/:id", middleware.RequireAdmin, c.taxonomy.HandleUpdateCategory)
	taxonomy.Delete("/categories/:id", middleware.RequireAdmin, c.taxonomy.HandleDeleteCategory)

	taxonomy.Post("/hashtags", middleware.RequireAdmin, c.taxonomy.HandleCreateHashtag)
	taxonomy.Patch("/hashtags/:id", middleware.RequireAdmin, c.taxonomy.HandleUpdateHashtag)
	taxonomy.Delete("/hashtags/:id", middleware.RequireAdmin, c.taxonomy.HandleDeleteHashtag)
}
