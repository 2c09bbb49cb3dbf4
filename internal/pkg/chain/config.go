package chain

import (
	"errors"
	"time"

	"github.com/ManuelReschke/TierFox/internal/pkg/env"
	"github.com/ManuelReschke/TierFox/internal/pkg/wallet"
)

// Config holds chain gateway configuration
type Config struct {
	RPCURL         string
	FactoryAddress string
	ChainID        int64
	// Freshness is how long a membership read may be served from cache.
	Freshness time.Duration
	// ProfileTTL caches factory lookups; contracts never move.
	ProfileTTL   time.Duration
	TierDuration time.Duration
}

// LoadConfig loads chain configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		RPCURL:         env.GetEnv("CHAIN_RPC_URL", ""),
		FactoryAddress: wallet.Normalize(env.GetEnv("CHAIN_FACTORY_ADDRESS", "")),
		ChainID:        int64(env.GetEnvInt("CHAIN_ID", 11155111)),
		Freshness:      env.GetEnvDuration("MEMBERSHIP_FRESHNESS", 15*time.Second),
		ProfileTTL:     env.GetEnvDuration("CHAIN_PROFILE_TTL", time.Hour),
		TierDuration:   env.GetEnvDuration("TIER_DURATION_SECONDS", 30*24*time.Hour),
	}

	if cfg.RPCURL == "" {
		return nil, errors.New("CHAIN_RPC_URL is required")
	}
	if cfg.FactoryAddress == "" {
		return nil, errors.New("CHAIN_FACTORY_ADDRESS must be a valid address")
	}
	return cfg, nil
}
