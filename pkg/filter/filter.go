// Package filter narrows crawl output before it is archived or reported.
package filter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"diynow/pkg/domain"
)

// Filter decides whether a record is kept.
type Filter interface {
	Keep(ctx context.Context, r domain.ProjectRecord) (bool, error)
}

// Apply returns the records every filter keeps, in their original order.
func Apply(ctx context.Context, records []domain.ProjectRecord, filters ...Filter) ([]domain.ProjectRecord, error) {
	kept := make([]domain.ProjectRecord, 0, len(records))

	for _, r := range records {
		keep := true
		for _, f := range filters {
			ok, err := f.Keep(ctx, r)
			if err != nil {
				return nil, fmt.Errorf("filter error for %s: %w", r.URL, err)
			}
			if !ok {
				keep = false
				break
			}
		}
		if keep {
			kept = append(kept, r)
		}
	}

	return kept, nil
}

// SiteRootFilter drops records that link to a site's front page rather than a project.
type SiteRootFilter struct{}

func NewSiteRootFilter() *SiteRootFilter {
	return &SiteRootFilter{}
}

func (f *SiteRootFilter) Keep(ctx context.Context, r domain.ProjectRecord) (bool, error) {
	parsed, err := url.Parse(r.URL)
	if err != nil {
		return true, nil
	}
	return strings.Trim(parsed.Path, "/") != "", nil
}

// ArchivedFilter drops records whose URL is already in the archive.
type ArchivedFilter struct {
	known map[string]bool
}

func NewArchivedFilter(known map[string]bool) *ArchivedFilter {
	return &ArchivedFilter{known: known}
}

func (f *ArchivedFilter) Keep(ctx context.Context, r domain.ProjectRecord) (bool, error) {
	return !f.known[r.URL], nil
}
