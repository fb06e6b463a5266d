package deps

import (
	"context"
	"time"

	"diynow/pkg/domain"
	"diynow/pkg/logger"
	"diynow/pkg/session"
	"diynow/pkg/sink"
)

type UserStore interface {
	Create(ctx context.Context, username, hash string) (int64, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type FavoriteStore interface {
	Add(ctx context.Context, f domain.Favorite) error
	List(ctx context.Context, userID int64) ([]domain.Favorite, error)
	Delete(ctx context.Context, userID int64, projectURL string) error
}

type Discoverer interface {
	Discover(ctx context.Context, keyword string, out sink.Sink) ([]domain.ProjectRecord, error)
}

// ResultSink holds a session's last crawl results.
type ResultSink interface {
	sink.Sink
	sink.Reader
}

type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string

	Users     UserStore
	Favorites FavoriteStore
	Sessions  *session.Store
	Cookie    CookieConfig

	Discovery Discoverer
	Results   func(scope string) ResultSink // per-session results, scoped by session id
	Featured  sink.Reader                   // nil when the featured refresher is disabled

	Health     func(ctx context.Context) error // nil skips the dependency check
	BcryptCost int                             // 0 => bcrypt.DefaultCost
}
