package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ManuelReschke/TierFox/app/repository"
	"github.com/ManuelReschke/TierFox/internal/pkg/chain"
	"github.com/ManuelReschke/TierFox/internal/pkg/creatorpage"
	"github.com/ManuelReschke/TierFox/internal/pkg/media"
	"github.com/ManuelReschke/TierFox/internal/pkg/membership"
	"github.com/ManuelReschke/TierFox/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/TierFox/internal/pkg/statistics"
	"github.com/ManuelReschke/TierFox/internal/pkg/txtrack"
	"github.com/ManuelReschke/TierFox/internal/pkg/walletauth"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Deps is everything the routers need to build their controllers.
// Media is nil when uploads are disabled.
type Deps struct {
	DB         *gorm.DB
	Cache      redis.Cmdable
	Repos      *repository.Repositories
	Reader     chain.Reader
	Builder    *chain.TxBuilder
	Members    *membership.Service
	Composer   *creatorpage.Composer
	Tracker    *txtrack.Tracker
	WalletAuth *walletauth.Service
	Stats      *statistics.Service
	Likes      *counter.Likes
	Media      *media.Service
	Admins     []string
}

func InstallRouter(app *fiber.App, deps *Deps) {
	// The http router installs the session and user context middleware the
	// api routes depend on, so it goes first.
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
