package sites

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"diynow/pkg/urls"
)

const (
	instructablesSitemapURL = "http://www.instructables.com/sitemap/instructables/"
	instructablesSearchURL  = "http://www.instructables.com/howto/%s"

	instructablesListingSelector = "ul[class*='main-listing'] > li > a"
	instructablesSearchSelector  = "div[class*='cover-item'] > a"
)

// InstructablesAdapter crawls instructables.com. The sitemap and the
// category pages share one markup; search results are cover tiles whose
// anchors carry the title in an attribute instead of text.
type InstructablesAdapter struct {
	quota     int
	sitemap   string
	searchFmt string
}

// NewInstructables creates the Instructables adapter. It has no deny-list.
func NewInstructables(opts Options) *InstructablesAdapter {
	return &InstructablesAdapter{
		quota:     quotaOr(opts.Quota),
		sitemap:   stringOr(opts.StartURL, instructablesSitemapURL),
		searchFmt: stringOr(opts.SearchURL, instructablesSearchURL),
	}
}

func (a *InstructablesAdapter) Site() Site              { return Instructables }
func (a *InstructablesAdapter) Quota() int              { return a.quota }
func (a *InstructablesAdapter) Categorized() bool       { return true }
func (a *InstructablesAdapter) CategoryDenyList() []int { return nil }

func (a *InstructablesAdapter) BroadURL(func(int) int) string { return a.sitemap }

// SearchURL puts the keyword in the path, so it is path-escaped.
func (a *InstructablesAdapter) SearchURL(keyword string) string {
	return fmt.Sprintf(a.searchFmt, url.PathEscape(keyword))
}

func (a *InstructablesAdapter) Categories(page *goquery.Selection) []Candidate {
	return collect(page.Find(instructablesListingSelector), linkText)
}

func (a *InstructablesAdapter) Projects(page *goquery.Selection, listing Listing) []Candidate {
	if listing == Search {
		return collect(page.Find(instructablesSearchSelector), func(s *goquery.Selection) string {
			title, _ := s.Attr("title")
			return title
		})
	}
	return collect(page.Find(instructablesListingSelector), linkText)
}

func (a *InstructablesAdapter) Extract(base *url.URL, c Candidate) (Link, error) {
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
