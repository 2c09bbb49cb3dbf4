package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/ManuelReschke/TierFox/app/repository"
	"github.com/ManuelReschke/TierFox/internal/pkg/cache"
	"github.com/ManuelReschke/TierFox/internal/pkg/chain"
	"github.com/ManuelReschke/TierFox/internal/pkg/creatorpage"
	"github.com/ManuelReschke/TierFox/internal/pkg/database"
	"github.com/ManuelReschke/TierFox/internal/pkg/env"
	"github.com/ManuelReschke/TierFox/internal/pkg/logging"
	"github.com/ManuelReschke/TierFox/internal/pkg/media"
	"github.com/ManuelReschke/TierFox/internal/pkg/membership"
	"github.com/ManuelReschke/TierFox/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/TierFox/internal/pkg/router"
	"github.com/ManuelReschke/TierFox/internal/pkg/session"
	"github.com/ManuelReschke/TierFox/internal/pkg/statistics"
	"github.com/ManuelReschke/TierFox/internal/pkg/txtrack"
	"github.com/ManuelReschke/TierFox/internal/pkg/walletauth"
)

func main() {
	env.SetupEnvFile()
	log := logging.SetupLogger()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, likes, closeChain := NewApplication(ctx, log)
	defer closeChain()

	go flushLikes(ctx, likes, env.GetEnvDuration("LIKES_FLUSH_INTERVAL", 30*time.Second), log)

	addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))
	go func() {
		if err := app.Listen(addr); err != nil {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()
	log.Info("tierfox started", zap.String("addr", addr))

	<-ctx.Done()
	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Warn("graceful shutdown failed", zap.Error(err))
	}

	// one last flush so buffered likes survive a deploy
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if n, err := likes.Flush(flushCtx); err != nil {
		log.Warn("final likes flush failed", zap.Error(err))
	} else if n > 0 {
		log.Info("final likes flush", zap.Int64("posts", n))
	}
}

// NewApplication wires configuration, storage, the chain gateway and the
// routers into a fiber app.
func NewApplication(ctx context.Context, log *zap.Logger) (*fiber.App, *counter.Likes, func()) {
	database.SetupDatabase()
	cache.SetupCache()
	db := database.GetDB()
	rdb := cache.GetClient()
	session.NewSessionStore()

	chainCfg, err := chain.LoadConfig()
	if err != nil {
		log.Fatal("invalid chain configuration", zap.Error(err))
	}
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	ethReader, ethClient, err := chain.Dial(dialCtx, chainCfg)
	cancel()
	if err != nil {
		log.Fatal("could not connect to chain rpc", zap.Error(err))
	}
	reader := chain.NewCachedReader(ethReader, rdb, chainCfg, log.Named("chain"))

	repos := repository.NewRepositories(db)
	members := membership.NewService(repos.Subscription, reader, membership.WithLogger(log.Named("membership")))
	likes := counter.NewLikes(rdb, db)

	var mediaSvc *media.Service
	mediaCfg, err := media.LoadConfig()
	if err != nil {
		log.Fatal("invalid media configuration", zap.Error(err))
	}
	if mediaCfg.Enabled {
		s3Client, err := media.NewS3Client(ctx, mediaCfg)
		if err != nil {
			log.Fatal("could not configure s3", zap.Error(err))
		}
		mediaSvc = media.NewService(mediaCfg, s3Client, log.Named("media"))
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    int(mediaCfg.MaxBytes) + 1<<20,
		ErrorHandler: jsonErrorHandler,
	})
	// recovery and logging
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	if specPath := findFile("docs/openapi.yml"); specPath != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: specPath,
			Path:     "v1",
		}))
	} else {
		log.Warn("openapi document not found, /docs/api disabled")
	}

	router.InstallRouter(app, &router.Deps{
		DB:         db,
		Cache:      rdb,
		Repos:      repos,
		Reader:     reader,
		Builder:    chain.NewTxBuilder(chainCfg),
		Members:    members,
		Composer:   creatorpage.NewComposer(repos.Creator, repos.Tier, repos.Post, members, log.Named("creatorpage")),
		Tracker:    txtrack.NewTracker(rdb, reader, members, env.GetEnvDuration("TX_CONFIRM_TIMEOUT", 90*time.Second), log.Named("txtrack")),
		WalletAuth: walletauth.NewService(rdb),
		Stats:      statistics.NewService(repos.Subscription, repos.Tier, rdb, log.Named("statistics")),
		Likes:      likes,
		Media:      mediaSvc,
		Admins:     env.GetEnvList("ADMIN_ADDRESSES"),
	})

	return app, likes, ethClient.Close
}

func flushLikes(ctx context.Context, likes *counter.Likes, every time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := likes.Flush(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("likes flush failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Debug("likes flushed", zap.Int64("posts", n))
			}
		}
	}
}

// jsonErrorHandler renders errors that escape the handlers, e.g. unknown
// routes, in the same envelope the controllers use.
func jsonErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		logging.L().Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   errorCode(code),
		"message": err.Error(),
	})
}

func errorCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	case fiber.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case fiber.StatusTooManyRequests:
		return "rate_limited"
	default:
		return "internal_server_error"
	}
}

// findFile looks for a repo relative path from the usual working directories.
func findFile(rel string) string {
	for _, base := range []string{"./", "../../", "../../../"} {
		if _, err := os.Stat(base + rel); err == nil {
			return base + rel
		}
	}
	return ""
}
