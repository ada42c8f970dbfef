package inmemdb

import (
	"context"
	"sync"

	"github.com/somahq/soma/core/layout"
)

type LayoutRepository struct {
	mu      sync.RWMutex
	layouts []layout.Layout
}

var _ layout.Repository = (*LayoutRepository)(nil)

func NewLayoutRepository(layouts ...layout.Layout) *LayoutRepository {
	return &LayoutRepository{layouts: layouts}
}

func (repo *LayoutRepository) CreateLayout(_ context.Context, lay layout.Layout) (layout.Layout, error) {
	repo.mu.Lock()
	repo.layouts = append(repo.layouts, lay)
	repo.mu.Unlock()
	return lay, nil
}

func (repo *LayoutRepository) GetLayoutByType(_ context.Context, typ layout.Type) (layout.Layout, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	for _, lay := range repo.layouts {
		if lay.Type == typ {
			return lay, nil
		}
	}
	return layout.Layout{}, layout.ErrNotFound
}

func (repo *LayoutRepository) UpdateLayout(_ context.Context, lay layout.Layout) (layout.Layout, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for i := range repo.layouts {
		if repo.layouts[i].ID == lay.ID {
			repo.layouts[i] = lay
			return lay, nil
		}
	}
	return layout.Layout{}, layout.ErrNotFound
}
