package layout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/somahq/soma/core"
)

var (
	ErrNotFound      = errors.New("layout not found")
	ErrTypeExists    = errors.New("layout type already exists")
	ErrInvalidType   = errors.New("invalid layout type")
	ErrMissingFields = errors.New("missing required fields for layout type")
)

type (
	Repository interface {
		CreateLayout(ctx context.Context, l Layout) (Layout, error)
		GetLayoutByType(ctx context.Context, t Type) (Layout, error)
		UpdateLayout(ctx context.Context, l Layout) (Layout, error)
	}

	Service struct {
		repo     Repository
		mediaSvc core.MediaService
	}
)

func NewService(repo Repository, mediaSvc core.MediaService) *Service {
	return &Service{repo: repo, mediaSvc: mediaSvc}
}

func (svc *Service) GetByType(ctx context.Context, t Type) (Layout, error) {
	if !t.IsValid() {
		return Layout{}, ErrInvalidType
	}
	return svc.repo.GetLayoutByType(ctx, t)
}

// Create adds a layout document; each type may only exist once.
func (svc *Service) Create(ctx context.Context, nl NewLayout) (Layout, error) {
	if !nl.Type.IsValid() {
		return Layout{}, ErrInvalidType
	}
	if _, err := svc.repo.GetLayoutByType(ctx, nl.Type); err == nil {
		return Layout{}, ErrTypeExists
	} else if errors.Cause(err) != ErrNotFound {
		return Layout{}, errors.Wrap(err, "finding layout by type")
	}

	now := time.Now().UTC()
	l := Layout{
		ID:        uuid.NewString(),
		Type:      nl.Type,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := svc.applyPayload(ctx, &l, nl, core.Asset{}); err != nil {
		return Layout{}, err
	}

	l, err := svc.repo.CreateLayout(ctx, l)
	return l, errors.Wrap(err, "creating layout")
}

// Edit replaces the payload of an existing layout document.
func (svc *Service) Edit(ctx context.Context, nl NewLayout) (Layout, error) {
	if !nl.Type.IsValid() {
		return Layout{}, ErrInvalidType
	}
	l, err := svc.repo.GetLayoutByType(ctx, nl.Type)
	if err != nil {
		return Layout{}, errors.Wrap(err, "finding layout by type")
	}

	var oldImage core.Asset
	if l.Banner != nil {
		oldImage = l.Banner.Image
	}
	if err := svc.applyPayload(ctx, &l, nl, oldImage); err != nil {
		return Layout{}, err
	}
	l.UpdatedAt = time.Now().UTC()

	l, err = svc.repo.UpdateLayout(ctx, l)
	return l, errors.Wrap(err, "updating layout")
}

func (svc *Service) applyPayload(ctx context.Context, l *Layout, nl NewLayout, oldImage core.Asset) error {
	switch nl.Type {
	case TypeBanner:
		if nl.Title == "" || nl.SubTitle == "" || (nl.Image == "" && oldImage.IsZero()) {
			return ErrMissingFields
		}
		image := oldImage
		if nl.Image != "" {
			if oldImage.PublicID != "" {
				if err := svc.mediaSvc.Destroy(ctx, oldImage.PublicID); err != nil {
					return errors.Wrap(err, "destroying old banner image")
				}
			}
			asset, err := svc.mediaSvc.Upload(ctx, "layout", nl.Image)
			if err != nil {
				return errors.Wrap(err, "uploading banner image")
			}
			image = asset
		}
		l.Banner = &Banner{Image: image, Title: nl.Title, SubTitle: nl.SubTitle}
		l.FAQ, l.Categories = nil, nil
	case TypeFAQ:
		if len(nl.FAQ) == 0 {
			return ErrMissingFields
		}
		l.FAQ = nl.FAQ
		l.Banner, l.Categories = nil, nil
	case TypeCategories:
		if len(nl.Categories) == 0 {
			return ErrMissingFields
		}
		l.Categories = nl.Categories
		l.Banner, l.FAQ = nil, nil
	}
	return nil
}
