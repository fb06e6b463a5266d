package domain

// ProjectRecord is one discovered DIY project, as written to the crawl output document.
type ProjectRecord struct {
	Title string `json:"title" bson:"title"`
	URL   string `json:"url" bson:"url"`
	// ImageURL is the page's og:image value. Nil when the page publishes none.
	ImageURL *string `json:"image_url" bson:"image_url"`
}

// Complete reports whether the record may be emitted.
func (p ProjectRecord) Complete() bool {
	return p.Title != "" && p.URL != ""
}

// Image returns the image URL or "" when absent.
func (p ProjectRecord) Image() string {
	if p.ImageURL == nil {
		return ""
	}
	return *p.ImageURL
}

// FindByURL returns the record with the given URL.
func FindByURL(records []ProjectRecord, url string) (ProjectRecord, bool) {
	for _, r := range records {
		if r.URL == url {
			return r, true
		}
	}
	return ProjectRecord{}, false
}
