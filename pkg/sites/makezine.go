package sites

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"diynow/pkg/urls"
)

const (
	makezineSitemapURL = "http://makezine.com/sitemap/"
	makezineSearchURL  = "http://www.makezine.com/page/1/?s=%s"

	makezineCategorySelector = "li[class*='title'] > a"
	makezineBrowseSelector   = "ul[class*='sitemap_links'] > li > a"
	makezineSearchSelector   = "div[class*='media-body'] > h2 > a"
)

// makezineDenyList holds sitemap positions of education, maker news,
// uncategorized and pagination. They are offsets into the live navigation
// and silently drift if the site reorders it.
var makezineDenyList = []int{3, 5, 8, 10}

// MakezineAdapter crawls makezine.com: sitemap categories, then each
// category's link list.
type MakezineAdapter struct {
	quota     int
	sitemap   string
	searchFmt string
	deny      []int
}

// NewMakezine creates the Makezine adapter.
func NewMakezine(opts Options) *MakezineAdapter {
	deny := makezineDenyList
	if opts.DenyList != nil {
		deny = opts.DenyList
	}
	return &MakezineAdapter{
		quota:     quotaOr(opts.Quota),
		sitemap:   stringOr(opts.StartURL, makezineSitemapURL),
		searchFmt: stringOr(opts.SearchURL, makezineSearchURL),
		deny:      deny,
	}
}

func (m *MakezineAdapter) Site() Site              { return Makezine }
func (m *MakezineAdapter) Quota() int              { return m.quota }
func (m *MakezineAdapter) Categorized() bool       { return true }
func (m *MakezineAdapter) CategoryDenyList() []int { return m.deny }

func (m *MakezineAdapter) BroadURL(func(int) int) string { return m.sitemap }

func (m *MakezineAdapter) SearchURL(keyword string) string {
	return fmt.Sprintf(m.searchFmt, url.QueryEscape(keyword))
}

func (m *MakezineAdapter) Categories(page *goquery.Selection) []Candidate {
	return collect(page.Find(makezineCategorySelector), linkText)
}

func (m *MakezineAdapter) Projects(page *goquery.Selection, listing Listing) []Candidate {
	if listing == Search {
		return collect(page.Find(makezineSearchSelector), linkText)
	}
	return collect(page.Find(makezineBrowseSelector), linkText)
}

// Extract takes the anchor text as the title.
func (m *MakezineAdapter) Extract(base *url.URL, c Candidate) (Link, error) {
	title := strings.TrimSpace(c.Label)
	if title == "" || c.Href == "" {
		return Link{}, ErrMalformedCandidate
	}
	abs, err := urls.Resolve(base, c.Href)
	if err != nil {
		return Link{}, fmt.Errorf("%w: %v", ErrMalformedCandidate, err)
	}
	return Link{Title: title, URL: abs}, nil
}
