package app

import (
	"context"
	"fmt"

	"diynow/pkg/config"
	"diynow/pkg/crawler"
	"diynow/pkg/db"
	"diynow/pkg/discoveryservice"
	"diynow/pkg/httpclient"
	"diynow/pkg/logger"
	"diynow/pkg/sampler"
	"diynow/pkg/sites"
)

// SiteOptions converts the per-site config overrides.
func SiteOptions(cfg config.CrawlerConfig) map[sites.Site]sites.Options {
	opts := make(map[sites.Site]sites.Options, len(cfg.Sites))
	for name, sc := range cfg.Sites {
		opts[sites.Site(name)] = sites.Options{
			Quota:     sc.Quota,
			StartURL:  sc.StartURL,
			SearchURL: sc.SearchURL,
			DenyList:  sc.DenyList,
		}
	}
	return opts
}

// NewCrawler builds a crawler over every known site.
func NewCrawler(cfg config.CrawlerConfig, loggerClient logger.Logger) *crawler.Crawler {
	return crawler.New(
		crawler.Config{
			Workers:        cfg.Workers,
			RequestTimeout: cfg.RequestTimeout,
			Client:         httpclient.ParseClientType(cfg.Client),
			UserAgent:      cfg.UserAgent,
		},
		sites.All(SiteOptions(cfg)),
		sampler.New(cfg.Seed, cfg.MaxResample),
		loggerClient,
	)
}

// NewDiscovery builds the discovery service. When a Mongo URI is configured
// the archive is attached; the returned func closes it.
func NewDiscovery(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*discoveryservice.Service, func(context.Context), error) {
	svcCfg := discoveryservice.Config{
		Crawler: NewCrawler(cfg.Crawler, loggerClient),
		Logger:  loggerClient,
	}
	closer := func(context.Context) {}

	if cfg.Mongo.URI != "" {
		archive, err := db.NewMongoArchive(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open project archive: %w", err)
		}
		loggerClient.Info("project archive enabled",
			logger.String("database", cfg.Mongo.Database),
			logger.String("collection", cfg.Mongo.Collection))
		svcCfg.Archive = archive
		closer = func(ctx context.Context) {
			if err := archive.Close(ctx); err != nil {
				loggerClient.Warn("failed to close project archive", logger.Error(err))
			}
		}
	}

	return discoveryservice.NewService(svcCfg), closer, nil
}

func dbConfig(cfg config.DatabaseConfig) db.Config {
	return db.Config{
		Driver:           cfg.Driver,
		DSN:              cfg.DSN,
		MaxOpenConns:     cfg.MaxOpenConns,
		MaxIdleConns:     cfg.MaxIdleConns,
		ConnMaxIdle:      cfg.ConnMaxIdle,
		ConnMaxLife:      cfg.ConnMaxLife,
		SupabaseURL:      cfg.SupabaseURL,
		SupabaseKey:      cfg.SupabaseKey,
		SupabasePassword: cfg.SupabasePassword,
	}
}
