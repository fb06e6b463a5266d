package sites

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diynow/pkg/urls"
)

func parse(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc.Selection
}

const makezineSitemap = `<html><body>
<ul>
  <li class="title"><a href="/category/electronics/">Electronics</a></li>
  <li class="title first"><a href="/category/craft/">Craft</a></li>
  <li class="menu"><a href="/about/">About</a></li>
  <li class="title"><a>No link</a></li>
</ul>
</body></html>`

const makezineCategory = `<html><body>
<ul class="sitemap_links">
  <li><a href="/projects/led-cube/">  LED   Cube </a></li>
  <li><a href="https://makezine.com/projects/robot/">Robot</a></li>
</ul>
</body></html>`

const makezineSearch = `<html><body>
<div class="media-body"><h2><a href="/projects/solar-oven/">Solar Oven</a></h2></div>
<div class="media-body"><h3><a href="/ignored/">Ignored</a></h3></div>
</body></html>`

func TestMakezine_Categories(t *testing.T) {
	m := NewMakezine(Options{})
	got := m.Categories(parse(t, makezineSitemap))
	require.Len(t, got, 3)
	assert.Equal(t, Candidate{Label: "Electronics", Href: "/category/electronics/"}, got[0])
	assert.Equal(t, "/category/craft/", got[1].Href)
	// position is kept even though the anchor has no href
	assert.Equal(t, Candidate{Label: "No link"}, got[2])
}

func TestMakezine_Projects(t *testing.T) {
	m := NewMakezine(Options{})

	browse := m.Projects(parse(t, makezineCategory), Browse)
	require.Len(t, browse, 2)
	assert.Equal(t, "LED Cube", browse[0].Label)

	search := m.Projects(parse(t, makezineSearch), Search)
	require.Len(t, search, 1)
	assert.Equal(t, Candidate{Label: "Solar Oven", Href: "/projects/solar-oven/"}, search[0])
}

func TestMakezine_Extract(t *testing.T) {
	m := NewMakezine(Options{})
	base := urls.MustParse("https://makezine.com/category/electronics/")

	link, err := m.Extract(base, Candidate{Label: " LED Cube ", Href: "/projects/led-cube/"})
	require.NoError(t, err)
	assert.Equal(t, Link{Title: "LED Cube", URL: "https://makezine.com/projects/led-cube/"}, link)

	_, err = m.Extract(base, Candidate{Label: "", Href: "/projects/x/"})
	assert.ErrorIs(t, err, ErrMalformedCandidate)

	_, err = m.Extract(base, Candidate{Label: "X"})
	assert.ErrorIs(t, err, ErrMalformedCandidate)
}

func TestMakezine_Defaults(t *testing.T) {
	m := NewMakezine(Options{})
	assert.Equal(t, 3, m.Quota())
	assert.Equal(t, []int{3, 5, 8, 10}, m.CategoryDenyList())
	assert.True(t, m.Categorized())
	assert.Equal(t, "http://makezine.com/sitemap/", m.BroadURL(nil))
	assert.Equal(t, "http://www.makezine.com/page/1/?s=bird+house", m.SearchURL("bird house"))
}

func TestMakezine_EmptyDenyListOverride(t *testing.T) {
	m := NewMakezine(Options{DenyList: []int{}})
	assert.Empty(t, m.CategoryDenyList())
}

const instructablesListing = `<html><body>
<ul class="main-listing">
  <li><a href="/circuits/">Circuits</a></li>
  <li><a href="/workshop/">Workshop</a></li>
</ul>
</body></html>`

const instructablesSearch = `<html><body>
<div class="cover-item"><a href="/id/Bird-House/" title="Bird House"><img src="x.jpg"></a></div>
<div class="cover-item"><a href="/id/Feeder/"><img src="y.jpg"></a></div>
</body></html>`

func TestInstructables_Listings(t *testing.T) {
	a := NewInstructables(Options{})
	page := parse(t, instructablesListing)

	cats := a.Categories(page)
	require.Len(t, cats, 2)
	assert.Equal(t, cats, a.Projects(page, Browse))

	search := a.Projects(parse(t, instructablesSearch), Search)
	require.Len(t, search, 2)
	assert.Equal(t, Candidate{Label: "Bird House", Href: "/id/Bird-House/"}, search[0])
	assert.Equal(t, "", search[1].Label)
}

func TestInstructables_ExtractSearchTile(t *testing.T) {
	a := NewInstructables(Options{})
	base := urls.MustParse("http://www.instructables.com/howto/bird%20house")

	link, err := a.Extract(base, Candidate{Label: "Bird House", Href: "/id/Bird-House/"})
	require.NoError(t, err)
	assert.Equal(t, "http://www.instructables.com/id/Bird-House/", link.URL)

	_, err = a.Extract(base, Candidate{Href: "/id/Feeder/"})
	assert.ErrorIs(t, err, ErrMalformedCandidate)
}

func TestInstructables_SearchURL(t *testing.T) {
	a := NewInstructables(Options{})
	assert.Equal(t, "http://www.instructables.com/howto/bird%20house", a.SearchURL("bird house"))
	assert.Empty(t, a.CategoryDenyList())
}

const lifehackerTag = `<html><body>
<h1 class="headline entry-title js_entry-title"><a href="https://lifehacker.com/make-a-lamp-123">Make a <em>Lamp</em></a></h1>
<h1 class="headline"><a href="/not-matched">Nope</a></h1>
<h1 class="headline entry-title js_entry-title"><a href="/fix-a-chair-456">Fix a Chair</a></h1>
</body></html>`

func TestLifehacker_Projects(t *testing.T) {
	l := NewLifehacker(Options{})
	got := l.Projects(parse(t, lifehackerTag), Browse)
	require.Len(t, got, 2)
	assert.Equal(t, "Make a Lamp", got[0].Label)
	assert.Nil(t, l.Categories(parse(t, lifehackerTag)))
	assert.False(t, l.Categorized())
}

func TestLifehacker_BroadURL(t *testing.T) {
	l := NewLifehacker(Options{})
	got := l.BroadURL(func(n int) int {
		assert.Equal(t, 5000, n)
		return 42
	})
	assert.Equal(t, "http://lifehacker.com/tag/diy?startIndex=42", got)

	fixed := NewLifehacker(Options{StartURL: "http://127.0.0.1/tag"})
	assert.Equal(t, "http://127.0.0.1/tag", fixed.BroadURL(nil))
}

func TestLifehacker_Extract(t *testing.T) {
	l := NewLifehacker(Options{})
	base := urls.MustParse("http://lifehacker.com/tag/diy?startIndex=42")

	link, err := l.Extract(base, Candidate{Label: "Fix a Chair", Href: "/fix-a-chair-456"})
	require.NoError(t, err)
	assert.Equal(t, "http://lifehacker.com/fix-a-chair-456", link.URL)
	assert.Equal(t, "Fix a Chair", link.Title)
}

func TestAll(t *testing.T) {
	adapters := All(map[Site]Options{Instructables: {Quota: 5}})
	require.Len(t, adapters, 3)
	assert.Equal(t, Makezine, adapters[0].Site())
	assert.Equal(t, Instructables, adapters[1].Site())
	assert.Equal(t, 5, adapters[1].Quota())
	assert.Equal(t, Lifehacker, adapters[2].Site())

	for _, a := range adapters {
		assert.True(t, Known(a.Site()))
	}
	assert.False(t, Known("ikea"))
}
