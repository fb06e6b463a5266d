// Package app wires the web application: database, Redis, sessions, the
// discovery service, the featured refresher and the HTTP server.
package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"diynow/pkg/config"
	"diynow/pkg/db"
	"diynow/pkg/httpserver"
	"diynow/pkg/httpserver/deps"
	"diynow/pkg/logger"
	"diynow/pkg/redis"
	"diynow/pkg/scheduler"
	"diynow/pkg/session"
	"diynow/pkg/sink"
)

type App struct {
	cfg          *config.Config
	logger       logger.Logger
	server       *httpserver.Server
	database     *db.DB
	redisClient  *goredis.Client
	refresher    *scheduler.FeaturedRefresher
	closeArchive func(context.Context)
}

// New connects every dependency and builds the server. Failures close
// whatever was already opened.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger, version string) (_ *App, err error) {
	a := &App{cfg: cfg, logger: loggerClient, closeArchive: func(context.Context) {}}
	defer func() {
		if err != nil {
			a.close(context.Background())
		}
	}()

	a.database, err = db.Open(ctx, dbConfig(cfg.Database), loggerClient)
	if err != nil {
		return nil, err
	}
	if err = a.database.Migrate(ctx); err != nil {
		return nil, err
	}

	loggerClient.Infof("Connecting to Redis at %s", cfg.Redis.Addr)
	a.redisClient, err = redis.Connect(ctx, redis.ConnectOptions{
		Addr:           cfg.Redis.Addr,
		User:           cfg.Redis.User,
		Password:       cfg.Redis.Password,
		DB:             cfg.Redis.DB,
		PoolSize:       cfg.Redis.PoolSize,
		DialTimeout:    cfg.Redis.DialTimeout,
		ReadTimeout:    cfg.Redis.ReadTimeout,
		WriteTimeout:   cfg.Redis.WriteTimeout,
		ConnectTimeout: cfg.Redis.ConnectTimeout,
		RetryInterval:  cfg.Redis.RetryInterval,
		MaxWait:        cfg.Redis.MaxWait,
		PingTimeout:    cfg.Redis.PingTimeout,
		WarnThreshold:  cfg.Redis.WarnThreshold,
	}, loggerClient)
	if err != nil {
		return nil, err
	}

	svc, closeArchive, err := NewDiscovery(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}
	a.closeArchive = closeArchive

	rdb := a.redisClient
	d := deps.Deps{
		Logger:    loggerClient,
		StartTime: time.Now(),
		Version:   version,
		Users:     db.NewUserStore(a.database),
		Favorites: db.NewFavoriteStore(a.database),
		Sessions:  session.NewStore(rdb, cfg.Session.TTL),
		Cookie: deps.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.Secure,
			MaxAge: cfg.Session.TTL,
		},
		Discovery: svc,
		Results: func(scope string) deps.ResultSink {
			return sink.NewRedisSink(rdb, sink.ResultsKey(scope), cfg.Session.ResultsTTL)
		},
		Health: func(ctx context.Context) error {
			if err := a.database.Health(ctx); err != nil {
				return err
			}
			return rdb.Ping(ctx).Err()
		},
	}

	if cfg.Featured.Schedule != "" {
		featured := sink.NewRedisSink(rdb, sink.KeyFeatured, cfg.Featured.TTL)
		a.refresher, err = scheduler.NewFeaturedRefresher(cfg.Featured.Schedule, svc, featured, cfg.Server.RequestTimeout, loggerClient)
		if err != nil {
			return nil, err
		}
		d.Featured = featured
	} else {
		loggerClient.Info("featured refresher disabled")
	}

	a.server = httpserver.New(cfg.Server, loggerClient, d)
	return a, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	defer a.close(context.Background())

	if a.refresher != nil {
		if err := a.refresher.Start(ctx); err != nil {
			return fmt.Errorf("failed to start featured refresher: %w", err)
		}
		// runs before close, so the refresh never outlives the redis client
		defer a.refresher.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down gracefully")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	a.logger.Info("Server stopped")
	return nil
}

func (a *App) close(ctx context.Context) {
	a.closeArchive(ctx)
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis client", logger.Error(err))
		}
	}
	if a.database != nil {
		if err := a.database.Close(); err != nil {
			a.logger.Warn("failed to close database", logger.Error(err))
		}
	}
}
