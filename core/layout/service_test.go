package layout_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somahq/soma/core/layout"
	mediasvc "github.com/somahq/soma/services/media"
	inmemdb "github.com/somahq/soma/storage/database/inmem"
)

func newLayoutService(layouts ...layout.Layout) (*layout.Service, *inmemdb.LayoutRepository) {
	repo := inmemdb.NewLayoutRepository(layouts...)
	return layout.NewService(repo, mediasvc.NewDummyService()), repo
}

func Test_Service_Create(t *testing.T) {
	svc, _ := newLayoutService()
	ctx := context.Background()

	// banner requires title, subtitle and an image
	_, err := svc.Create(ctx, layout.NewLayout{Type: layout.TypeBanner, Title: "Welcome"})
	assert.Equal(t, layout.ErrMissingFields, err)

	lay, err := svc.Create(ctx, layout.NewLayout{
		Type:     layout.TypeBanner,
		Title:    "Welcome",
		SubTitle: "Learn Go",
		Image:    "data:image/png;base64,aGVsbG8=",
	})
	require.NoError(t, err)
	require.NotNil(t, lay.Banner)
	assert.Equal(t, "Welcome", lay.Banner.Title)
	assert.NotEmpty(t, lay.Banner.Image.URL)

	// each type may only exist once
	_, err = svc.Create(ctx, layout.NewLayout{
		Type:     layout.TypeBanner,
		Title:    "Another",
		SubTitle: "Banner",
		Image:    "data:image/png;base64,aGVsbG8=",
	})
	assert.Equal(t, layout.ErrTypeExists, err)

	_, err = svc.Create(ctx, layout.NewLayout{Type: "nope"})
	assert.Equal(t, layout.ErrInvalidType, err)
}

func Test_Service_Edit(t *testing.T) {
	svc, _ := newLayoutService()
	ctx := context.Background()

	_, err := svc.Create(ctx, layout.NewLayout{
		Type: layout.TypeFAQ,
		FAQ:  []layout.FAQItem{{Question: "Is it free?", Answer: "No"}},
	})
	require.NoError(t, err)

	lay, err := svc.Edit(ctx, layout.NewLayout{
		Type: layout.TypeFAQ,
		FAQ: []layout.FAQItem{
			{Question: "Is it free?", Answer: "No"},
			{Question: "Refunds?", Answer: "Within 14 days"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, lay.FAQ, 2)

	// editing a type that was never created fails
	_, err = svc.Edit(ctx, layout.NewLayout{
		Type:       layout.TypeCategories,
		Categories: []layout.Category{{Title: "Go"}},
	})
	assert.Equal(t, layout.ErrNotFound, errors.Cause(err))
}

func Test_Service_GetByType(t *testing.T) {
	svc, _ := newLayoutService()
	ctx := context.Background()

	_, err := svc.Create(ctx, layout.NewLayout{
		Type:       layout.TypeCategories,
		Categories: []layout.Category{{Title: "Go"}, {Title: "Rust"}},
	})
	require.NoError(t, err)

	lay, err := svc.GetByType(ctx, layout.TypeCategories)
	require.NoError(t, err)
	assert.Len(t, lay.Categories, 2)

	_, err = svc.GetByType(ctx, "nope")
	assert.Equal(t, layout.ErrInvalidType, err)
	_, err = svc.GetByType(ctx, layout.TypeBanner)
	assert.Equal(t, layout.ErrNotFound, errors.Cause(err))
}
