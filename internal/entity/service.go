package entity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-pagekit/internal/logging"
	"github.com/goliatone/go-pagekit/pkg/interfaces"
	"github.com/goliatone/go-slug"
	"github.com/google/uuid"
)

var (
	ErrTitleRequired   = errors.New("entity: title is required")
	ErrTypeTagRequired = errors.New("entity: type tag is required")
	ErrKindMismatch    = errors.New("entity: variant kind does not match entity family")
)

// Service manages the polymorphic page and component records. Writes made
// here apply immediately and bypass draft staging.
type Service interface {
	CreatePage(ctx context.Context, input CreatePageInput) (*Page, error)
	GetPage(ctx context.Context, id uuid.UUID) (*Page, error)
	ListPages(ctx context.Context, opts ListPagesOptions) ([]*Page, error)
	UpdatePage(ctx context.Context, input UpdatePageInput) (*Page, error)
	DeletePage(ctx context.Context, id uuid.UUID) error

	CreateComponent(ctx context.Context, input CreateComponentInput) (*Component, error)
	GetComponent(ctx context.Context, id uuid.UUID) (*Component, error)
	ListComponents(ctx context.Context) ([]*Component, error)
	UpdateComponent(ctx context.Context, input UpdateComponentInput) (*Component, error)
	DeleteComponent(ctx context.Context, id uuid.UUID) error

	Registry() *Registry
}

// CreatePageInput captures the data required to create a page.
type CreatePageInput struct {
	TypeTag  string
	Title    string
	Slug     string
	ParentID *uuid.UUID
	LayoutID *uuid.UUID
	IsActive *bool
	Data     map[string]any
}

// UpdatePageInput captures mutable page fields. Nil pointers leave the
// current value unchanged; Data keys are merged over the live payload.
type UpdatePageInput struct {
	ID       uuid.UUID
	Title    *string
	Slug     *string
	ParentID *uuid.UUID
	LayoutID *uuid.UUID
	IsActive *bool
	Data     map[string]any
	// ReplaceData swaps the whole payload instead of merging keys.
	ReplaceData bool
}

// CreateComponentInput captures the data required to create a component.
type CreateComponentInput struct {
	TypeTag  string
	Title    string
	HTMLID   string
	IsActive *bool
	Data     map[string]any
}

// UpdateComponentInput captures mutable component fields.
type UpdateComponentInput struct {
	ID          uuid.UUID
	Title       *string
	HTMLID      *string
	IsActive    *bool
	Data        map[string]any
	ReplaceData bool
}

// DataFilter restricts which payload keys a write may touch. The di layer
// wires the schema introspector's allowed-key set here.
type DataFilter func(typeTag string, data map[string]any) map[string]any

// ServiceOption configures entity service behaviour.
type ServiceOption func(*service)

// WithClock overrides the internal time source.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithIDGenerator overrides the ID generator.
func WithIDGenerator(generator func() uuid.UUID) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithLogger wires the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDataFilter wires a payload whitelist applied on create and update.
func WithDataFilter(filter DataFilter) ServiceOption {
	return func(s *service) {
		if filter != nil {
			s.filter = filter
		}
	}
}

type service struct {
	pages      PageRepository
	components ComponentRepository
	registry   *Registry
	filter     DataFilter
	logger     interfaces.Logger
	now        func() time.Time
	id         func() uuid.UUID
}

// NewService builds the entity service over the given repositories.
func NewService(pages PageRepository, components ComponentRepository, registry *Registry, opts ...ServiceOption) Service {
	s := &service{
		pages:      pages,
		components: components,
		registry:   registry,
		logger:     logging.NoOp(),
		now:        time.Now,
		id:         uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Registry() *Registry { return s.registry }

func (s *service) CreatePage(ctx context.Context, input CreatePageInput) (*Page, error) {
	variant, err := s.resolveVariant(input.TypeTag, KindPage)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	data, err := s.registry.NewData(variant.TypeTag)
	if err != nil {
		return nil, err
	}
	mergeData(data, s.filterData(variant.TypeTag, input.Data))

	now := s.now()
	page := &Page{
		ID:        s.id(),
		TypeTag:   variant.TypeTag,
		Title:     title,
		Slug:      s.pageSlug(input.Slug, title),
		ParentID:  input.ParentID,
		LayoutID:  input.LayoutID,
		IsActive:  boolOrDefault(input.IsActive, true),
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.pages.Create(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	s.logger.Debug("page created", "page_id", created.ID, "type_tag", created.TypeTag)
	return created, nil
}

func (s *service) GetPage(ctx context.Context, id uuid.UUID) (*Page, error) {
	return s.pages.GetByID(ctx, id)
}

func (s *service) ListPages(ctx context.Context, opts ListPagesOptions) ([]*Page, error) {
	return s.pages.List(ctx, opts)
}

func (s *service) UpdatePage(ctx context.Context, input UpdatePageInput) (*Page, error) {
	page, err := s.pages.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		page.Title = title
	}
	if input.Slug != nil {
		page.Slug = s.pageSlug(*input.Slug, page.Title)
	}
	if input.ParentID != nil {
		page.ParentID = input.ParentID
	}
	if input.LayoutID != nil {
		page.LayoutID = input.LayoutID
	}
	if input.IsActive != nil {
		page.IsActive = *input.IsActive
	}
	if input.Data != nil {
		filtered := s.filterData(page.TypeTag, input.Data)
		if input.ReplaceData {
			page.Data = filtered
		} else {
			if page.Data == nil {
				page.Data = make(map[string]any, len(filtered))
			}
			mergeData(page.Data, filtered)
		}
	}
	page.UpdatedAt = s.now()

	updated, err := s.pages.Update(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("update page: %w", err)
	}
	return updated, nil
}

func (s *service) DeletePage(ctx context.Context, id uuid.UUID) error {
	if err := s.pages.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Debug("page deleted", "page_id", id)
	return nil
}

func (s *service) CreateComponent(ctx context.Context, input CreateComponentInput) (*Component, error) {
	variant, err := s.resolveVariant(input.TypeTag, KindComponent)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	data, err := s.registry.NewData(variant.TypeTag)
	if err != nil {
		return nil, err
	}
	mergeData(data, s.filterData(variant.TypeTag, input.Data))

	now := s.now()
	component := &Component{
		ID:        s.id(),
		TypeTag:   variant.TypeTag,
		Title:     title,
		HTMLID:    strings.TrimSpace(input.HTMLID),
		IsActive:  boolOrDefault(input.IsActive, true),
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.components.Create(ctx, component)
	if err != nil {
		return nil, fmt.Errorf("create component: %w", err)
	}
	s.logger.Debug("component created", "component_id", created.ID, "type_tag", created.TypeTag)
	return created, nil
}

func (s *service) GetComponent(ctx context.Context, id uuid.UUID) (*Component, error) {
	return s.components.GetByID(ctx, id)
}

func (s *service) ListComponents(ctx context.Context) ([]*Component, error) {
	return s.components.List(ctx)
}

func (s *service) UpdateComponent(ctx context.Context, input UpdateComponentInput) (*Component, error) {
	component, err := s.components.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		component.Title = title
	}
	if input.HTMLID != nil {
		component.HTMLID = strings.TrimSpace(*input.HTMLID)
	}
	if input.IsActive != nil {
		component.IsActive = *input.IsActive
	}
	if input.Data != nil {
		filtered := s.filterData(component.TypeTag, input.Data)
		if input.ReplaceData {
			component.Data = filtered
		} else {
			if component.Data == nil {
				component.Data = make(map[string]any, len(filtered))
			}
			mergeData(component.Data, filtered)
		}
	}
	component.UpdatedAt = s.now()

	updated, err := s.components.Update(ctx, component)
	if err != nil {
		return nil, fmt.Errorf("update component: %w", err)
	}
	return updated, nil
}

func (s *service) DeleteComponent(ctx context.Context, id uuid.UUID) error {
	if err := s.components.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Debug("component deleted", "component_id", id)
	return nil
}

func (s *service) resolveVariant(tag string, kind Kind) (Variant, error) {
	if strings.TrimSpace(tag) == "" {
		return Variant{}, ErrTypeTagRequired
	}
	variant, err := s.registry.Resolve(tag)
	if err != nil {
		return Variant{}, err
	}
	if variant.Kind != kind {
		return Variant{}, fmt.Errorf("%w: %s is %s", ErrKindMismatch, variant.TypeTag, variant.Kind)
	}
	return variant, nil
}

func (s *service) filterData(tag string, data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	if s.filter == nil {
		return cloneData(data)
	}
	return s.filter(tag, data)
}

func (s *service) pageSlug(explicit, title string) string {
	source := strings.TrimSpace(explicit)
	if source == "" {
		source = title
	}
	normalized, err := slug.Normalize(source)
	if err != nil {
		s.logger.Warn("slug normalization failed", "value", source, "error", err)
		return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(source), " ", "-"))
	}
	return normalized
}

func mergeData(dst, src map[string]any) {
	for key, value := range src {
		dst[key] = value
	}
}

func boolOrDefault(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}
