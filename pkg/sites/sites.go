package sites

import (
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Site identifies one of the supported DIY sources.
type Site string

const (
	Makezine      Site = "makezine"
	Instructables Site = "instructables"
	Lifehacker    Site = "lifehacker"
)

// Listing distinguishes the markup variants of a project listing.
type Listing int

const (
	// Browse is a category, sitemap or tag page.
	Browse Listing = iota
	// Search is a keyword search results page.
	Search
)

func (l Listing) String() string {
	if l == Search {
		return "search"
	}
	return "browse"
}

// ErrMalformedCandidate means the candidate lacks a label or a link.
var ErrMalformedCandidate = errors.New("malformed candidate")

// Candidate is an unresolved (label, href) pair found on a listing page.
// Either field may be empty when the markup is malformed; candidates keep
// their position so index-based deny-lists stay meaningful.
type Candidate struct {
	Label string
	Href  string
}

// Link is the title and absolute URL extracted from a well-formed candidate.
type Link struct {
	Title string
	URL   string
}

// Adapter knows one site's page structure.
type Adapter interface {
	Site() Site
	// Quota is how many projects a crawl run takes from this site.
	Quota() int
	// Categorized reports whether the broad crawl starts from a category listing.
	Categorized() bool
	// CategoryDenyList holds category positions that never lead to projects.
	CategoryDenyList() []int
	// BroadURL is the start page of the broad crawl. intn supplies randomness
	// for sites whose start page is itself sampled.
	BroadURL(intn func(n int) int) string
	// SearchURL is the keyword search page.
	SearchURL(keyword string) string
	Categories(page *goquery.Selection) []Candidate
	Projects(page *goquery.Selection, listing Listing) []Candidate
	Extract(base *url.URL, c Candidate) (Link, error)
}

// Options overrides an adapter's defaults. Zero values keep the default.
type Options struct {
	Quota     int
	StartURL  string
	SearchURL string
	DenyList  []int
}

// All returns the adapters for every supported site, in crawl order.
func All(opts map[Site]Options) []Adapter {
	return []Adapter{
		NewMakezine(opts[Makezine]),
		NewInstructables(opts[Instructables]),
		NewLifehacker(opts[Lifehacker]),
	}
}

// Known reports whether s names a supported site.
func Known(s Site) bool {
	switch s {
	case Makezine, Instructables, Lifehacker:
		return true
	}
	return false
}

const defaultQuota = 3

func quotaOr(q int) int {
	if q > 0 {
		return q
	}
	return defaultQuota
}

func stringOr(s, def string) string {
	if s != "" {
		return s
	}
	return def
}

// collect gathers candidates in document order. label reads the title from
// one anchor; a missing href leaves Href empty rather than dropping the entry.
func collect(sel *goquery.Selection, label func(a *goquery.Selection) string) []Candidate {
	var out []Candidate
	sel.Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		out = append(out, Candidate{
			Label: label(a),
			Href:  strings.TrimSpace(href),
		})
	})
	return out
}

func linkText(a *goquery.Selection) string {
	return strings.Join(strings.Fields(a.Text()), " ")
}
