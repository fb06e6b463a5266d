package sites

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"diynow/pkg/urls"
)

const (
	// lifehackerTagURL pages through the DIY tag; the broad crawl lands on a
	// random offset among the most recent lifehackerRange posts.
	lifehackerTagURL    = "http://lifehacker.com/tag/diy?startIndex=%d"
	lifehackerSearchURL = "https://lifehacker.com/search?q=%s"
	lifehackerRange     = 5000

	lifehackerHeadlineSelector = "h1[class*='headline entry-title js_entry-title'] > a"
)

// LifehackerAdapter crawls lifehacker.com. There is no category step: the
// tag page and the search page are both headline lists.
type LifehackerAdapter struct {
	quota     int
	tagFmt    string
	searchFmt string
}

// NewLifehacker creates the Lifehacker adapter. A StartURL override must
// contain one %d verb for the start index.
func NewLifehacker(opts Options) *LifehackerAdapter {
	return &LifehackerAdapter{
		quota:     quotaOr(opts.Quota),
		tagFmt:    stringOr(opts.StartURL, lifehackerTagURL),
		searchFmt: stringOr(opts.SearchURL, lifehackerSearchURL),
	}
}

func (l *LifehackerAdapter) Site() Site              { return Lifehacker }
func (l *LifehackerAdapter) Quota() int              { return l.quota }
func (l *LifehackerAdapter) Categorized() bool       { return false }
func (l *LifehackerAdapter) CategoryDenyList() []int { return nil }

func (l *LifehackerAdapter) BroadURL(intn func(int) int) string {
	if !strings.Contains(l.tagFmt, "%d") {
		return l.tagFmt
	}
	return fmt.Sprintf(l.tagFmt, intn(lifehackerRange))
}

func (l *LifehackerAdapter) SearchURL(keyword string) string {
	return fmt.Sprintf(l.searchFmt, url.QueryEscape(keyword))
}

func (l *LifehackerAdapter) Categories(*goquery.Selection) []Candidate { return nil }

func (l *LifehackerAdapter) Projects(page *goquery.Selection, _ Listing) []Candidate {
	return collect(page.Find(lifehackerHeadlineSelector), linkText)
}

// Extract takes the headline text as the title.
func (l *LifehackerAdapter) Extract(base *url.URL, c Candidate) (Link, error) {
	if c.Href == "" {
		return Link{}, ErrMalformedCandidate
	}
	title := strings.TrimSpace(c.Label)
	if title == "" {
		return Link{}, ErrMalformedCandidate
	}
	abs, err := urls.Resolve(base, c.Href)
	if err != nil {
		return Link{}, fmt.Errorf("%w: %v", ErrMalformedCandidate, err)
	}
	return Link{Title: title, URL: abs}, nil
}
