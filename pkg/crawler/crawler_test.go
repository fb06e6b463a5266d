package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diynow/pkg/domain"
	"diynow/pkg/logger"
	"diynow/pkg/sampler"
	"diynow/pkg/sites"
)

// fixture serves a miniature copy of all three sites.
type fixture struct {
	srv          *httptest.Server
	deniedVisits atomic.Int32
}

func serveHTML(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}
}

func projectPage(title, image string) string {
	meta := ""
	if image != "" {
		meta = fmt.Sprintf(`<meta property="og:image" content="%s">`, image)
	}
	return fmt.Sprintf(`<html><head><title>%s</title>%s</head><body><h1>%s</h1></body></html>`, title, meta, title)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}
	mux := http.NewServeMux()

	// Makezine: five categories, index 3 is denied.
	var cats strings.Builder
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&cats, `<li class="title"><a href="/mz/cat/%d/">Category %d</a></li>`, i, i)
	}
	mux.Handle("/mz/sitemap/", serveHTML(`<html><body><ul>`+cats.String()+`</ul></body></html>`))
	for i := 0; i < 5; i++ {
		i := i
		mux.HandleFunc(fmt.Sprintf("/mz/cat/%d/", i), func(w http.ResponseWriter, r *http.Request) {
			if i == 3 {
				f.deniedVisits.Add(1)
			}
			serveHTML(fmt.Sprintf(`<html><body><ul class="sitemap_links">
				<li><a href="/mz/p/%d-a/">Project %d A</a></li>
				<li><a href="/mz/p/%d-b/">Project %d B</a></li>
			</ul></body></html>`, i, i, i, i))(w, r)
		})
	}
	mux.HandleFunc("/mz/p/", func(w http.ResponseWriter, r *http.Request) {
		serveHTML(projectPage("Makezine project", "http://x/img.png"))(w, r)
	})
	mux.Handle("/mz/search/", serveHTML(`<html><body>
		<div class="media-body"><h2><a href="/mz/p/solar/">Solar Oven</a></h2></div>
		<div class="media-body"><h2><a href="/mz/p/kite/">Kite</a></h2></div>
	</body></html>`))

	// Instructables: projects publish no image.
	mux.Handle("/in/sitemap/", serveHTML(`<html><body><ul class="main-listing">
		<li><a href="/in/cat/circuits/">Circuits</a></li>
		<li><a href="/in/cat/workshop/">Workshop</a></li>
	</ul></body></html>`))
	mux.Handle("/in/cat/", serveHTML(`<html><body><ul class="main-listing">
		<li><a href="/in/id/Lamp/">Lamp</a></li>
		<li><a href="/in/id/Shelf/">Shelf</a></li>
	</ul></body></html>`))
	mux.Handle("/in/id/", serveHTML(projectPage("Instructable", "")))
	mux.Handle("/in/howto/", serveHTML(`<html><body>
		<div class="cover-item"><a href="/in/id/Bird-House/" title="Bird House"></a></div>
	</body></html>`))
	mux.Handle("/in/empty/", serveHTML(`<html><body><p>nothing here</p></body></html>`))

	// Lifehacker: a headline list, relative og:image.
	headlines := `<html><body>
		<h1 class="headline entry-title js_entry-title"><a href="/lh/p/lamp">Make a Lamp</a></h1>
		<h1 class="headline entry-title js_entry-title"><a href="/lh/p/chair">Fix a Chair</a></h1>
	</body></html>`
	mux.Handle("/lh/tag", serveHTML(headlines))
	mux.Handle("/lh/search", serveHTML(headlines))
	mux.Handle("/lh/p/", serveHTML(projectPage("Lifehacker", "/img/lh.png")))

	mux.HandleFunc("/broken/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) options() map[sites.Site]sites.Options {
	return map[sites.Site]sites.Options{
		sites.Makezine: {
			StartURL:  f.srv.URL + "/mz/sitemap/",
			SearchURL: f.srv.URL + "/mz/search/?s=%s",
			DenyList:  []int{3},
		},
		sites.Instructables: {
			StartURL:  f.srv.URL + "/in/sitemap/",
			SearchURL: f.srv.URL + "/in/howto/%s",
		},
		sites.Lifehacker: {
			StartURL:  f.srv.URL + "/lh/tag?startIndex=%d",
			SearchURL: f.srv.URL + "/lh/search?q=%s",
		},
	}
}

func newCrawler(opts map[sites.Site]sites.Options, seed uint64) *Crawler {
	return New(Config{Workers: 3, RequestTimeout: 5 * time.Second}, sites.All(opts), sampler.New(seed, 8), logger.NewNop())
}

func bySite(records []domain.ProjectRecord, prefix string) []domain.ProjectRecord {
	var out []domain.ProjectRecord
	for _, r := range records {
		if strings.Contains(r.URL, prefix) {
			out = append(out, r)
		}
	}
	return out
}

func TestCrawl_AllSites(t *testing.T) {
	f := newFixture(t)
	c := newCrawler(f.options(), 42)

	records, err := c.Crawl(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 9)

	// site order is preserved
	for i, prefix := range []string{"/mz/", "/in/", "/lh/"} {
		for _, r := range records[i*3 : i*3+3] {
			assert.Contains(t, r.URL, prefix)
		}
	}

	for _, r := range records {
		assert.True(t, r.Complete())
		assert.True(t, strings.HasPrefix(r.URL, f.srv.URL), r.URL)
	}

	for _, r := range bySite(records, "/mz/") {
		require.NotNil(t, r.ImageURL)
		assert.Equal(t, "http://x/img.png", *r.ImageURL)
	}
	for _, r := range bySite(records, "/in/") {
		assert.Nil(t, r.ImageURL)
	}
	for _, r := range bySite(records, "/lh/") {
		require.NotNil(t, r.ImageURL)
		assert.Equal(t, f.srv.URL+"/img/lh.png", *r.ImageURL)
	}
}

func TestCrawl_DeniedCategoryNeverVisited(t *testing.T) {
	f := newFixture(t)
	c := newCrawler(f.options(), 0)

	for run := 0; run < 10; run++ {
		records, err := c.Crawl(context.Background())
		require.NoError(t, err)
		for _, r := range bySite(records, "/mz/") {
			assert.NotContains(t, r.URL, "/mz/p/3-")
		}
	}
	assert.Zero(t, f.deniedVisits.Load())
}

func TestCrawl_EmptySiteContributesNothing(t *testing.T) {
	f := newFixture(t)
	opts := f.options()
	in := opts[sites.Instructables]
	in.StartURL = f.srv.URL + "/in/empty/"
	opts[sites.Instructables] = in

	records, err := newCrawler(opts, 1).Crawl(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 6)
	assert.Empty(t, bySite(records, "/in/"))
	assert.Len(t, bySite(records, "/mz/"), 3)
	assert.Len(t, bySite(records, "/lh/"), 3)
}

func TestCrawl_FetchFailureIsEmptyPage(t *testing.T) {
	f := newFixture(t)
	opts := f.options()
	lh := opts[sites.Lifehacker]
	lh.StartURL = f.srv.URL + "/broken/tag"
	opts[sites.Lifehacker] = lh

	records, err := newCrawler(opts, 1).Crawl(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 6)
	assert.Empty(t, bySite(records, "/lh/"))
}

func TestCrawl_MalformedListingIsSkipped(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/tag", serveHTML(`<html><body>
		<h1 class="headline entry-title js_entry-title"><a>No link</a></h1>
		<h1 class="headline entry-title js_entry-title"><a href="/p/1"> </a></h1>
	</body></html>`))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := sites.NewLifehacker(sites.Options{StartURL: srv.URL + "/tag"})
	c := New(Config{}, []sites.Adapter{a}, sampler.New(3, 4), logger.NewNop())

	records, err := c.Crawl(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSearch_Idempotent(t *testing.T) {
	f := newFixture(t)
	c := newCrawler(f.options(), 99)

	first, err := c.Search(context.Background(), "bird house")
	require.NoError(t, err)
	second, err := c.Search(context.Background(), "bird house")
	require.NoError(t, err)

	require.Len(t, first, 9)
	require.Len(t, second, 9)
	for i := range first {
		assert.True(t, first[i].Complete())
		assert.True(t, second[i].Complete())
		assert.Equal(t, first[i].ImageURL == nil, second[i].ImageURL == nil)
	}

	in := bySite(first, "/in/")
	require.Len(t, in, 3)
	for _, r := range in {
		assert.Equal(t, "Bird House", r.Title)
		assert.Equal(t, f.srv.URL+"/in/id/Bird-House/", r.URL)
	}
}

func TestSearch_EmptyKeyword(t *testing.T) {
	c := newCrawler(nil, 1)
	_, err := c.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyKeyword)
}

func TestCrawl_Cancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, err := newCrawler(f.options(), 1).Crawl(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, records)
}
