package content

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"diynow/pkg/urls"
)

const ogImageSelector = "meta[property='og:image']"

// Extractor pulls the representative image out of a fetched project page.
type Extractor interface {
	ExtractImage(page *goquery.Selection, base *url.URL) *string
}

// OpenGraphExtractor reads the og:image meta tag.
type OpenGraphExtractor struct{}

// NewOpenGraphExtractor creates the default extractor.
func NewOpenGraphExtractor() *OpenGraphExtractor {
	return &OpenGraphExtractor{}
}

// ExtractImage implements Extractor.
func (e *OpenGraphExtractor) ExtractImage(page *goquery.Selection, base *url.URL) *string {
	return ExtractImage(page, base)
}

// ExtractImage returns the first non-empty og:image value, resolved against
// base when it is relative. Nil means the page asserts no image.
func ExtractImage(page *goquery.Selection, base *url.URL) *string {
	var image string
	page.Find(ogImageSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr("content"); ok {
			image = strings.TrimSpace(v)
		}
		return image == ""
	})
	if image == "" {
		return nil
	}

	if base != nil {
		if abs, err := urls.Resolve(base, image); err == nil {
			image = abs
		}
	}
	return &image
}
