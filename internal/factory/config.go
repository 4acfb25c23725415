package factory

import (
	"github.com/mcoot/mpcoord/internal/config"
	"github.com/mcoot/mpcoord/internal/coordinator"
	"github.com/mcoot/mpcoord/internal/services/auth"
	"github.com/mcoot/mpcoord/internal/services/session"
	redisstorage "github.com/mcoot/mpcoord/internal/storage/redis"
)

func authConfig(cfg config.Config, bcryptCost int) auth.Config {
	return auth.Config{
		TokenTTL:          cfg.Auth.TokenTTL,
		AllowGuests:       cfg.Auth.AllowGuests,
		MinPasswordLength: cfg.Auth.MinPasswordLength,
		BcryptCost:        bcryptCost,
	}
}

func sessionConfig(cfg config.Config) session.Config {
	return session.Config{
		Timeout:    cfg.Session.HeartbeatTimeout,
		MaxPlayers: cfg.Session.MaxPlayers,
	}
}

func coordinatorConfig(cfg config.Config) coordinator.Config {
	return coordinator.Config{
		ServerName:        cfg.Server.Name,
		MaxFailedAttempts: cfg.Auth.MaxFailedAttempts,
		LockoutDuration:   cfg.Auth.LockoutDuration,
		SweepInterval:     cfg.Session.SweepInterval,
		Features: coordinator.Features{
			Chat:           cfg.Features.EnableChat,
			EconomySync:    cfg.Features.EnableEconomySync,
			PlayerTracking: cfg.Features.EnablePlayerTracking,
		},
	}
}

func redisConfig(cfg config.Config) redisstorage.Config {
	rc := redisstorage.DefaultConfig()
	rc.URL = cfg.Redis.URL
	if cfg.Redis.PoolSize > 0 {
		rc.PoolSize = cfg.Redis.PoolSize
	}
	if cfg.Redis.KeyPrefix != "" {
		rc.KeyPrefix = cfg.Redis.KeyPrefix
	}
	return rc
}
