package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diynow/pkg/domain"
)

var records = []domain.ProjectRecord{
	{Title: "Lamp", URL: "https://makezine.com/projects/lamp/"},
	{Title: "Front page", URL: "https://makezine.com/"},
	{Title: "Shelf", URL: "https://www.instructables.com/Shelf/"},
}

func TestApply_NoFilters(t *testing.T) {
	got, err := Apply(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestSiteRootFilter(t *testing.T) {
	got, err := Apply(context.Background(), records, NewSiteRootFilter())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Lamp", got[0].Title)
	assert.Equal(t, "Shelf", got[1].Title)
}

func TestArchivedFilter(t *testing.T) {
	known := map[string]bool{"https://makezine.com/projects/lamp/": true}

	got, err := Apply(context.Background(), records, NewSiteRootFilter(), NewArchivedFilter(known))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Shelf", got[0].Title)

	got, err = Apply(context.Background(), records, NewArchivedFilter(nil))
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

type failing struct{}

func (failing) Keep(context.Context, domain.ProjectRecord) (bool, error) {
	return false, errors.New("boom")
}

func TestApply_Error(t *testing.T) {
	_, err := Apply(context.Background(), records, failing{})
	assert.ErrorContains(t, err, "boom")
}

func TestApply_EmptyIsNonNil(t *testing.T) {
	got, err := Apply(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
