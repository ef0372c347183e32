package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/EgorLis/my-files/internal/catalog"
	"github.com/EgorLis/my-files/internal/cli"
	"github.com/EgorLis/my-files/internal/config"
	"github.com/EgorLis/my-files/internal/domain"
	authapi "github.com/EgorLis/my-files/internal/infra/auth/api"
	"github.com/EgorLis/my-files/internal/infra/cache/memory"
	redisx "github.com/EgorLis/my-files/internal/infra/cache/redis"
	"github.com/EgorLis/my-files/internal/infra/database/sqlite"
	s3storage "github.com/EgorLis/my-files/internal/infra/storage/s3"
)

type App struct {
	config *config.Config
	log    *log.Logger
	repl   *cli.REPL
	gate   *catalog.Gate
	auth   domain.AuthSession
	cache  domain.Cache
	local  domain.LocalStore
}

func Build(ctx context.Context) (*App, error) {
	base := log.New(os.Stderr, "[app] ", log.LstdFlags)

	authLog := log.New(base.Writer(), base.Prefix()+"[auth] ", base.Flags())
	sqliteLog := log.New(base.Writer(), base.Prefix()+"[sqlite] ", base.Flags())
	s3Log := log.New(base.Writer(), base.Prefix()+"[s3] ", base.Flags())
	cacheLog := log.New(base.Writer(), base.Prefix()+"[cache] ", base.Flags())
	catalogLog := log.New(base.Writer(), base.Prefix()+"[catalog] ", base.Flags())
	cliLog := log.New(base.Writer(), base.Prefix()+"[cli] ", base.Flags())

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed load config: %w", err)
	}
	base.Printf("\n  configuration: %s-------------------", cfg)

	base.Println("init local SQLite")
	local, err := sqlite.New(ctx, sqliteLog, cfg.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed init sqlite: %w", err)
	}
	base.Println("SQLite is initialized")

	base.Println("init S3 storage")
	s3, err := s3storage.New(s3storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		UseSSL:    cfg.S3UseSSL,
		PathStyle: cfg.S3PathStyle,
	}, s3Log)
	if err != nil {
		return nil, fmt.Errorf("failed init s3: %w", err)
	}

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		base.Println("init Redis")
		rc := redisx.New(redisx.Config{
			Addr:     cfg.RedisAddr,
			DB:       cfg.RedisDB,
			Password: cfg.RedisPassword,
		}, cacheLog)
		if err := rc.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed init redis: %w", err)
		}
		base.Println("Redis is initialized")
		cache = rc
	} else {
		base.Println("Redis is not configured, using in-memory cache")
		cache = memory.New()
	}

	base.Println("init auth client")
	auth := authapi.New(authapi.Config{
		BaseURL: cfg.AuthBaseURL,
		Timeout: time.Duration(cfg.AuthTimeoutSec) * time.Second,
	}, authLog, local)

	engine := catalog.New(catalogLog, s3, cache, local, cfg.LocatorTTLSec)
	gate := catalog.NewGate(catalogLog, engine, auth)
	repl := cli.New(cliLog, auth, engine)

	base.Println("build ended")
	return &App{
		config: cfg,
		log:    base,
		repl:   repl,
		gate:   gate,
		auth:   auth,
		cache:  cache,
		local:  local,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Println("start application...")
	a.gate.Start()

	err := a.repl.Run(ctx)

	a.log.Println("stop application...")
	a.gate.Stop()
	a.auth.Close()
	a.cache.Close()
	a.local.Close()
	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}
