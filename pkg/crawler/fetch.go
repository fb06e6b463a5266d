package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	colly "github.com/gocolly/colly/v2"

	"diynow/pkg/logger"
	"diynow/pkg/sites"
)

// Request context keys.
const (
	pageCtxKey  = "page"
	stageCtxKey = "stage"
	slotCtxKey  = "slot"
)

type stage string

const (
	stageStart    stage = "start"
	stageCategory stage = "category"
	stageProject  stage = "project"
)

// errNotHTML is returned when a response carried no HTML document.
var errNotHTML = errors.New("response is not an html page")

// page is a fetched and parsed document together with its final URL, which
// relative links resolve against.
type page struct {
	doc *goquery.Selection
	url *url.URL
}

// fetcher issues the sequential requests of one site's traversal through a
// single synchronous collector.
type fetcher struct {
	collector *colly.Collector
	site      sites.Site
	log       logger.Logger
}

func (c *Crawler) newFetcher(ctx context.Context, site sites.Site) *fetcher {
	opts := []colly.CollectorOption{
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	}
	if c.cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(c.cfg.UserAgent))
	}

	collector := colly.NewCollector(opts...)
	collector.WithTransport(c.transport)
	collector.SetRequestTimeout(c.cfg.RequestTimeout)

	f := &fetcher{
		collector: collector,
		site:      site,
		log:       c.log.With(logger.String("site", string(site))),
	}

	client := c.cfg.Client
	userAgent := c.cfg.UserAgent
	collector.OnRequest(func(r *colly.Request) {
		client.SetHeaders(*r.Headers)
		if userAgent != "" {
			r.Headers.Set("User-Agent", userAgent)
		}
		f.log.Debug("fetching",
			logger.String("url", r.URL.String()),
			logger.String("stage", r.Ctx.Get(stageCtxKey)))
	})

	collector.OnHTML("html", func(e *colly.HTMLElement) {
		e.Request.Ctx.Put(pageCtxKey, &page{doc: e.DOM, url: e.Request.URL})
	})

	collector.OnError(func(r *colly.Response, err error) {
		f.log.Warn("fetch failed",
			logger.String("url", r.Request.URL.String()),
			logger.String("stage", r.Ctx.Get(stageCtxKey)),
			logger.String("slot", r.Ctx.Get(slotCtxKey)),
			logger.Int("status", r.StatusCode),
			logger.Error(err))
	})

	return f
}

// fetch retrieves target and returns its parsed page. Any failure, including
// a non-2xx status or a non-HTML body, is returned as an error and callers
// treat it like an empty page.
func (f *fetcher) fetch(target string, st stage, slot string) (*page, error) {
	rctx := colly.NewContext()
	rctx.Put(stageCtxKey, string(st))
	rctx.Put(slotCtxKey, slot)

	if err := f.collector.Request(http.MethodGet, target, nil, rctx, nil); err != nil {
		return nil, err
	}

	p, ok := rctx.GetAny(pageCtxKey).(*page)
	if !ok || p == nil {
		f.log.Warn("fetch returned no document",
			logger.String("url", target),
			logger.String("stage", string(st)))
		return nil, errNotHTML
	}
	return p, nil
}
