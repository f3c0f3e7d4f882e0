package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-pagekit/entity"
	entitystore "github.com/goliatone/go-pagekit/internal/entity"
	"github.com/goliatone/go-pagekit/internal/identity"
	"github.com/goliatone/go-slug"
	"github.com/google/uuid"
)

func (s *service) CreateLayout(ctx context.Context, input CreateLayoutInput) (*entity.Layout, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrLayoutNameRequired
	}
	code := strings.TrimSpace(input.Code)
	if code == "" {
		code = name
	}
	normalized, err := slug.Normalize(code)
	if err != nil || normalized == "" {
		return nil, fmt.Errorf("%w: %q", ErrLayoutCodeRequired, input.Code)
	}

	if _, err := s.layouts.GetByCode(ctx, normalized); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrLayoutCodeExists, normalized)
	} else {
		var notFound *entitystore.NotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	now := s.now()
	layout := &entity.Layout{
		ID:          s.id(),
		Name:        name,
		Code:        normalized,
		Description: strings.TrimSpace(input.Description),
		Zones:       input.Zones,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return s.layouts.Create(ctx, layout)
}

func (s *service) GetLayout(ctx context.Context, id uuid.UUID) (*entity.Layout, error) {
	return s.layouts.GetByID(ctx, id)
}

func (s *service) ListLayouts(ctx context.Context) ([]*entity.Layout, error) {
	return s.layouts.List(ctx)
}

func (s *service) UpdateLayout(ctx context.Context, input UpdateLayoutInput) (*entity.Layout, error) {
	layout, err := s.layouts.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrLayoutNameRequired
		}
		layout.Name = name
	}
	if input.Description != nil {
		layout.Description = strings.TrimSpace(*input.Description)
	}
	if input.Zones != nil {
		layout.Zones = input.Zones
	}
	layout.UpdatedAt = s.now()
	return s.layouts.Update(ctx, layout)
}

func (s *service) DeleteLayout(ctx context.Context, id uuid.UUID) error {
	return s.layouts.Delete(ctx, id)
}

// EnsureBuiltinLayouts seeds the static catalog. Ids are derived from the
// layout code so repeated seeding is idempotent across stores.
func (s *service) EnsureBuiltinLayouts(ctx context.Context) error {
	now := s.now()
	for _, builtin := range builtinLayouts() {
		if _, err := s.layouts.GetByCode(ctx, builtin.Code); err == nil {
			continue
		} else {
			var notFound *entitystore.NotFoundError
			if !errors.As(err, &notFound) {
				return err
			}
		}
		layout := builtin
		layout.ID = identity.LayoutUUID(builtin.Code)
		layout.CreatedAt = now
		layout.UpdatedAt = now
		if _, err := s.layouts.Create(ctx, &layout); err != nil {
			return fmt.Errorf("seed layout %s: %w", builtin.Code, err)
		}
	}
	return nil
}

func builtinLayouts() []entity.Layout {
	full := 100
	half := 50
	third := 33
	grid := "1fr 1fr / 1fr 1fr"
	return []entity.Layout{
		{
			Name:        "Single column",
			Code:        "single-column",
			Description: "One full-width content zone.",
			Zones: []entity.LayoutZone{
				{ID: "main", Name: "main", Title: "Main", Type: "column", Width: &full},
			},
		},
		{
			Name:        "Two columns",
			Code:        "two-column",
			Description: "Two equal columns side by side.",
			Zones: []entity.LayoutZone{
				{ID: "left", Name: "left", Title: "Left", Type: "column", Width: &half},
				{ID: "right", Name: "right", Title: "Right", Type: "column", Width: &half},
			},
		},
		{
			Name:        "Three columns",
			Code:        "three-column",
			Description: "Three equal columns side by side.",
			Zones: []entity.LayoutZone{
				{ID: "left", Name: "left", Title: "Left", Type: "column", Width: &third},
				{ID: "center", Name: "center", Title: "Center", Type: "column", Width: &third},
				{ID: "right", Name: "right", Title: "Right", Type: "column", Width: &third},
			},
		},
		{
			Name:        "Grid 2x2",
			Code:        "grid-2x2",
			Description: "Four zones in a two-by-two grid.",
			Zones: []entity.LayoutZone{
				{ID: "top-left", Name: "top_left", Title: "Top left", Type: "cell", GridTemplate: &grid},
				{ID: "top-right", Name: "top_right", Title: "Top right", Type: "cell", GridTemplate: &grid},
				{ID: "bottom-left", Name: "bottom_left", Title: "Bottom left", Type: "cell", GridTemplate: &grid},
				{ID: "bottom-right", Name: "bottom_right", Title: "Bottom right", Type: "cell", GridTemplate: &grid},
			},
		},
	}
}
