package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/TierFox/internal/pkg/session"
	"github.com/ManuelReschke/TierFox/internal/pkg/usercontext"
	"github.com/ManuelReschke/TierFox/internal/pkg/wallet"
)

// UserContextMiddleware resolves the wallet session for every request.
// Admins are the addresses listed in admins.
func UserContextMiddleware(admins []string) fiber.Handler {
	adminSet := make(map[string]struct{}, len(admins))
	for _, a := range admins {
		if n := wallet.Normalize(a); n != "" {
			adminSet[n] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		addr := wallet.Normalize(session.Address(c))
		if addr == "" {
			usercontext.Set(c, usercontext.UserContext{})
			return c.Next()
		}
		_, isAdmin := adminSet[addr]
		usercontext.Set(c, usercontext.UserContext{
			Address:    addr,
			IsLoggedIn: true,
			IsAdmin:    isAdmin,
		})
		return c.Next()
	}
}

// RequireWallet rejects requests without a verified wallet session.
func RequireWallet(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "wallet sign-in required",
		})
	}
	return c.Next()
}

// RequireAdmin ensures a logged-in admin wallet.
func RequireAdmin(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "wallet sign-in required",
		})
	}
	if !usercontext.IsAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "admin only",
		})
	}
	return c.Next()
}
