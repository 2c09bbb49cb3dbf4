package session

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/TierFox/internal/pkg/cache"
	"github.com/ManuelReschke/TierFox/internal/pkg/env"
)

const (
	CookieName = "session_id"
	HeaderName = "X-Session-ID"
	// KeyAddress holds the verified wallet address.
	KeyAddress = "wallet_address"
)

var sessionStore *session.Store

// NewSessionStore creates the redis backed session store.
func NewSessionStore() *session.Store {
	cacheClient := cache.GetClient()
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	// Sessions live in database 1, the cache uses DB 0
	storage := redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})

	sessionStore = NewStore(storage)
	return sessionStore
}

// NewStore builds a store over any fiber storage; nil uses in-memory storage.
func NewStore(storage fiber.Storage) *session.Store {
	return session.New(session.Config{
		Storage:        storage,
		CookieHTTPOnly: true,
		CookieSecure:   env.GetEnvBool("SESSION_COOKIE_SECURE", !env.IsDev()),
		CookieSameSite: "Lax",
		Expiration:     env.GetEnvDuration("SESSION_TTL", 24*time.Hour),
		KeyLookup:      "cookie:" + CookieName,
	})
}

func GetSessionStore() *session.Store {
	return sessionStore
}

// SetSessionStore replaces the global store, used by tests.
func SetSessionStore(s *session.Store) {
	sessionStore = s
}

// HeaderToCookie lets API clients send the session id as X-Session-ID.
func HeaderToCookie() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id := c.Get(HeaderName); id != "" && c.Cookies(CookieName) == "" {
			c.Request().Header.SetCookie(CookieName, id)
		}
		return c.Next()
	}
}

// Login stores the verified address in a fresh session and returns its id.
func Login(c *fiber.Ctx, address string) (string, error) {
	if sessionStore == nil {
		return "", fmt.Errorf("session store not initialized")
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return "", fmt.Errorf("failed to get session: %w", err)
	}
	// New id on login so a pre-auth id cannot be fixated.
	if err := sess.Regenerate(); err != nil {
		return "", fmt.Errorf("failed to regenerate session: %w", err)
	}
	sess.Set(KeyAddress, address)
	id := sess.ID()
	if err := sess.Save(); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return id, nil
}

// Logout destroys the current session.
func Logout(c *fiber.Ctx) error {
	if sessionStore == nil {
		return nil
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	return sess.Destroy()
}

// Address returns the wallet address bound to the session, or "".
func Address(c *fiber.Ctx) string {
	if sessionStore == nil {
		return ""
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return ""
	}
	if v, ok := sess.Get(KeyAddress).(string); ok {
		return v
	}
	return ""
}
