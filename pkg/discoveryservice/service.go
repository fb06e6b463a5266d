package discoveryservice

import (
	"context"
	"fmt"

	"diynow/pkg/domain"
	"diynow/pkg/filter"
	"diynow/pkg/logger"
	"diynow/pkg/sink"
)

// Crawler produces the records of one crawl run.
type Crawler interface {
	Crawl(ctx context.Context) ([]domain.ProjectRecord, error)
	Search(ctx context.Context, keyword string) ([]domain.ProjectRecord, error)
}

// Archive keeps every project ever discovered.
type Archive interface {
	SaveProjects(ctx context.Context, records []domain.ProjectRecord) error
	URLs(ctx context.Context) (map[string]bool, error)
}

// Service runs crawl sessions and hands their output document to a sink
type Service struct {
	crawler Crawler
	archive Archive
	log     logger.Logger
}

// Config holds configuration for the service
type Config struct {
	Crawler Crawler
	// Archive is optional.
	Archive Archive
	Logger  logger.Logger
}

// NewService creates a new discovery service
func NewService(config Config) *Service {
	log := config.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		crawler: config.Crawler,
		archive: config.Archive,
		log:     log,
	}
}

// Discover runs a broad crawl, or a keyword crawl when keyword is non-empty,
// and writes the result to out. The previous document is reset before the
// crawl starts, so a failed run never leaves stale results behind.
func (s *Service) Discover(ctx context.Context, keyword string, out sink.Sink) ([]domain.ProjectRecord, error) {
	if err := out.Reset(ctx); err != nil {
		return nil, fmt.Errorf("failed to reset results: %w", err)
	}

	var (
		records []domain.ProjectRecord
		err     error
	)
	if keyword == "" {
		records, err = s.crawler.Crawl(ctx)
	} else {
		records, err = s.crawler.Search(ctx, keyword)
	}
	if err != nil {
		return nil, fmt.Errorf("crawl failed: %w", err)
	}

	records, err = filter.Apply(ctx, records, filter.NewSiteRootFilter())
	if err != nil {
		return nil, err
	}

	if err := out.Write(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to write results: %w", err)
	}

	s.archiveRecords(ctx, records)
	return records, nil
}

// archiveRecords is best effort: archive failures are logged, never returned.
// Only projects the archive has not seen are saved, so crawled_at records
// when a project was first discovered.
func (s *Service) archiveRecords(ctx context.Context, records []domain.ProjectRecord) {
	if s.archive == nil || len(records) == 0 {
		return
	}

	known, err := s.archive.URLs(ctx)
	if err != nil {
		s.log.Warn("failed to read archive", logger.Error(err))
		known = nil
	}
	fresh, err := filter.Apply(ctx, records, filter.NewArchivedFilter(known))
	if err != nil {
		s.log.Warn("failed to filter archived projects", logger.Error(err))
		return
	}
	if len(fresh) == 0 {
		s.log.Debug("no new projects to archive", logger.Int("records", len(records)))
		return
	}

	if err := s.archive.SaveProjects(ctx, fresh); err != nil {
		s.log.Warn("failed to archive projects", logger.Error(err))
		return
	}
	s.log.Info("projects archived",
		logger.Int("records", len(records)),
		logger.Int("new", len(fresh)))
}
