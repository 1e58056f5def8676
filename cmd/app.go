package cmd

import (
	"context"

	"github.com/aiomayo/portwatch/internal/collector"
	"github.com/aiomayo/portwatch/internal/config"
	"github.com/aiomayo/portwatch/internal/inventory"
	"github.com/aiomayo/portwatch/internal/killer"
	"github.com/aiomayo/portwatch/internal/mirror"
	"github.com/aiomayo/portwatch/internal/process"
	"github.com/aiomayo/portwatch/internal/query"
	"github.com/charmbracelet/log"
)

// app is the wired inventory shared by every front end.
type app struct {
	cfg     *config.Config
	cache   *inventory.Cache
	killer  *killer.Killer
	service *query.Service
	mirror  *mirror.Redis
}

func newApp(ctx context.Context, cfg *config.Config) *app {
	provider := process.New()

	opts := []inventory.Option{inventory.WithRetryDelay(cfg.RetryDelay)}
	m := openMirror(ctx, cfg)
	if m != nil {
		opts = append(opts, inventory.WithMirror(m))
	}
	cache := inventory.NewCache(collector.New(provider), opts...)

	k := killer.New(provider, killer.Options{
		GracefulTimeout: cfg.GracefulTimeout,
		KillGrace:       cfg.KillGrace,
		PollInterval:    cfg.PollInterval,
		Protected:       cfg.Protected,
	}, cache)

	return &app{
		cfg:     cfg,
		cache:   cache,
		killer:  k,
		service: query.New(cache, k, cfg.RefreshInterval),
		mirror:  m,
	}
}

// openMirror connects to redis when enabled. A mirror that cannot be reached
// is skipped.
func openMirror(ctx context.Context, cfg *config.Config) *mirror.Redis {
	if !cfg.RedisEnabled {
		return nil
	}
	mode, err := mirror.ParseMode(cfg.RedisMode)
	if err != nil {
		log.Warn("redis mirror disabled", "err", err)
		return nil
	}
	m, err := mirror.New(ctx, mirror.Options{
		Addrs:      cfg.RedisAddrs,
		MasterName: cfg.RedisMaster,
		Password:   cfg.RedisPassword,
		Mode:       mode,
		TTL:        cfg.RedisTTL,
	})
	if err != nil {
		log.Warn("redis mirror disabled", "err", err)
		return nil
	}
	log.Debug("redis mirror enabled", "mode", cfg.RedisMode, "addrs", cfg.RedisAddrs)
	return m
}

func (a *app) Close() {
	if a.mirror != nil {
		_ = a.mirror.Close()
	}
}
