// Package crawler samples DIY projects from the configured sites. Each site
// is traversed independently, listing page to project page, and the sites
// run in parallel.
package crawler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"diynow/pkg/content"
	"diynow/pkg/domain"
	"diynow/pkg/httpclient"
	"diynow/pkg/logger"
	"diynow/pkg/sampler"
	"diynow/pkg/sites"
	"diynow/pkg/urls"
	"diynow/pkg/worker"
)

// ErrEmptyKeyword is returned by Search for a blank keyword.
var ErrEmptyKeyword = errors.New("crawler: empty search keyword")

const defaultRequestTimeout = 15 * time.Second

// Config tunes the fetch engine.
type Config struct {
	Workers        int
	RequestTimeout time.Duration
	Client         httpclient.ClientType
	// UserAgent replaces the client type's user agent when set.
	UserAgent string
}

// Crawler runs crawl sessions. It holds no per-run state and may be shared.
type Crawler struct {
	adapters  []sites.Adapter
	sampler   *sampler.Sampler
	extractor content.Extractor
	workers   *worker.Manager
	transport http.RoundTripper
	cfg       Config
	log       logger.Logger
}

// New creates a crawler over the given adapters. Records come out in
// adapter order.
func New(cfg Config, adapters []sites.Adapter, s *sampler.Sampler, log logger.Logger) *Crawler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Client == "" {
		cfg.Client = httpclient.BrowserClient
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = len(adapters)
	}
	return &Crawler{
		adapters:  adapters,
		sampler:   s,
		extractor: content.NewOpenGraphExtractor(),
		workers:   worker.NewManager(workers, log),
		transport: httpclient.NewTransport(cfg.RequestTimeout),
		cfg:       cfg,
		log:       log,
	}
}

// Crawl runs the broad crawl: random categories, one project per category.
func (c *Crawler) Crawl(ctx context.Context) ([]domain.ProjectRecord, error) {
	return c.run(ctx, "")
}

// Search runs the keyword crawl against every site's search page.
func (c *Crawler) Search(ctx context.Context, keyword string) ([]domain.ProjectRecord, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}
	return c.run(ctx, keyword)
}

func (c *Crawler) run(ctx context.Context, keyword string) ([]domain.ProjectRecord, error) {
	start := time.Now()

	jobs := make([]worker.Job, 0, len(c.adapters))
	for _, a := range c.adapters {
		a := a
		jobs = append(jobs, worker.Job{
			Name: string(a.Site()),
			Do: func(ctx context.Context) ([]domain.ProjectRecord, error) {
				return c.crawlSite(ctx, a, keyword), nil
			},
		})
	}

	records := worker.Merge(c.workers.Process(ctx, jobs))
	if err := ctx.Err(); err != nil {
		return records, err
	}

	c.log.Info("crawl finished",
		logger.String("keyword", keyword),
		logger.Int("records", len(records)),
		logger.Duration("elapsed", time.Since(start)))
	return records, nil
}

// crawlSite runs one site's traversal to completion. Failures only shrink
// the site's contribution.
func (c *Crawler) crawlSite(ctx context.Context, a sites.Adapter, keyword string) []domain.ProjectRecord {
	f := c.newFetcher(ctx, a.Site())

	if keyword != "" {
		listing, err := f.fetch(a.SearchURL(keyword), stageStart, "")
		if err != nil {
			return nil
		}
		return c.sampleProjects(f, a, listing, sites.Search, a.Quota())
	}

	start, err := f.fetch(a.BroadURL(c.sampler.Intn), stageStart, "")
	if err != nil {
		return nil
	}
	if !a.Categorized() {
		return c.sampleProjects(f, a, start, sites.Browse, a.Quota())
	}
	return c.sampleCategories(f, a, start)
}

// sampleCategories draws Quota categories (with replacement) and takes one
// project from each.
func (c *Crawler) sampleCategories(f *fetcher, a sites.Adapter, start *page) []domain.ProjectRecord {
	cats := a.Categories(start.doc)
	if len(cats) == 0 {
		f.log.Debug("no categories found", logger.String("url", start.url.String()))
		return nil
	}

	var out []domain.ProjectRecord
	for slot := 0; slot < a.Quota(); slot++ {
		var target string
		i, err := c.sampler.Pick(len(cats), a.CategoryDenyList(), func(i int) bool {
			abs, err := urls.Resolve(start.url, cats[i].Href)
			if err != nil {
				return false
			}
			target = abs
			return true
		})
		if err != nil {
			f.log.Warn("category sampling failed",
				logger.Int("slot", slot),
				logger.Int("max_resample", c.sampler.MaxResample()),
				logger.Error(err))
			if errors.Is(err, sampler.ErrResampleExhausted) {
				continue
			}
			break
		}

		listing, err := f.fetch(target, stageCategory, strconv.Itoa(slot))
		if err != nil {
			continue
		}
		f.log.Debug("category sampled",
			logger.Int("slot", slot),
			logger.Int("index", i),
			logger.String("category", cats[i].Label))

		out = append(out, c.sampleProjects(f, a, listing, sites.Browse, 1)...)
	}
	return out
}

// sampleProjects draws k projects from a listing page and fetches each one
// for its image.
func (c *Crawler) sampleProjects(f *fetcher, a sites.Adapter, listing *page, kind sites.Listing, k int) []domain.ProjectRecord {
	cands := a.Projects(listing.doc, kind)
	if len(cands) == 0 {
		f.log.Debug("no projects found",
			logger.String("url", listing.url.String()),
			logger.String("listing", kind.String()))
		return nil
	}

	var out []domain.ProjectRecord
	for slot := 0; slot < k; slot++ {
		var link sites.Link
		_, err := c.sampler.Pick(len(cands), nil, func(i int) bool {
			l, err := a.Extract(listing.url, cands[i])
			if err != nil {
				return false
			}
			link = l
			return true
		})
		if err != nil {
			f.log.Warn("project sampling failed",
				logger.String("url", listing.url.String()),
				logger.Int("max_resample", c.sampler.MaxResample()),
				logger.Error(err))
			if errors.Is(err, sampler.ErrResampleExhausted) {
				continue
			}
			break
		}

		project, err := f.fetch(link.URL, stageProject, strconv.Itoa(slot))
		if err != nil {
			continue
		}

		rec := domain.ProjectRecord{
			Title:    link.Title,
			URL:      link.URL,
			ImageURL: c.extractor.ExtractImage(project.doc, project.url),
		}
		if !rec.Complete() {
			continue
		}
		out = append(out, rec)
	}
	return out
}
