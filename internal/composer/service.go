package composer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/goliatone/go-pagekit/entity"
	entitystore "github.com/goliatone/go-pagekit/internal/entity"
	"github.com/goliatone/go-pagekit/internal/logging"
	"github.com/goliatone/go-pagekit/pkg/interfaces"
	"github.com/google/uuid"
)

var (
	ErrViewOrderInvalid   = errors.New("composer: view order must be positive")
	ErrLayoutNameRequired = errors.New("composer: layout name is required")
	ErrLayoutCodeRequired = errors.New("composer: layout code is required")
	ErrLayoutCodeExists   = errors.New("composer: layout code already exists")
)

// PlacedComponent is one entry of a page's rendered sequence: the link row
// joined with its live component.
type PlacedComponent struct {
	Link      *entity.PageComponent `json:"link"`
	Component *entity.Component     `json:"component"`
}

// LayoutView is the page's component list served as a layout resource.
type LayoutView struct {
	PageID     uuid.UUID         `json:"page_id"`
	Layout     *entity.Layout    `json:"layout,omitempty"`
	Components []PlacedComponent `json:"components"`
}

// AttachInput links a component onto a page at a position.
type AttachInput struct {
	PageID      uuid.UUID
	ComponentID uuid.UUID
	ViewOrder   int
}

// PlacementInput names one component and position in a full list override.
type PlacementInput struct {
	ComponentID uuid.UUID
	ViewOrder   int
}

// Service owns page-component membership, ordering, cloning, and the static
// layout catalog.
type Service interface {
	Attach(ctx context.Context, input AttachInput) (*entity.PageComponent, error)
	Detach(ctx context.Context, pageID, componentID uuid.UUID) error
	ListComponents(ctx context.Context, pageID uuid.UUID) ([]PlacedComponent, error)
	Reorder(ctx context.Context, pageID uuid.UUID, orderedComponentIDs []uuid.UUID) ([]PlacedComponent, error)
	Clone(ctx context.Context, componentID uuid.UUID, titleOverride string) (*entity.Component, error)

	PageLayout(ctx context.Context, pageID uuid.UUID) (*LayoutView, error)
	SetPageComponents(ctx context.Context, pageID uuid.UUID, placements []PlacementInput) ([]PlacedComponent, error)
	ClearLayout(ctx context.Context, pageID uuid.UUID) error

	CreateLayout(ctx context.Context, input CreateLayoutInput) (*entity.Layout, error)
	GetLayout(ctx context.Context, id uuid.UUID) (*entity.Layout, error)
	ListLayouts(ctx context.Context) ([]*entity.Layout, error)
	UpdateLayout(ctx context.Context, input UpdateLayoutInput) (*entity.Layout, error)
	DeleteLayout(ctx context.Context, id uuid.UUID) error
	EnsureBuiltinLayouts(ctx context.Context) error
}

// CreateLayoutInput captures the data required to register a layout.
type CreateLayoutInput struct {
	Name        string
	Code        string
	Description string
	Zones       []entity.LayoutZone
}

// UpdateLayoutInput captures mutable layout fields.
type UpdateLayoutInput struct {
	ID          uuid.UUID
	Name        *string
	Description *string
	Zones       []entity.LayoutZone
}

// ServiceOption configures composer behaviour.
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

type service struct {
	pages      entitystore.PageRepository
	components entitystore.ComponentRepository
	links      entitystore.LinkRepository
	layouts    entitystore.LayoutRepository
	logger     interfaces.Logger
	now        func() time.Time
	id         func() uuid.UUID
}

// NewService builds the composition engine over the entity repositories.
func NewService(
	pages entitystore.PageRepository,
	components entitystore.ComponentRepository,
	links entitystore.LinkRepository,
	layouts entitystore.LayoutRepository,
	opts ...ServiceOption,
) Service {
	s := &service{
		pages:      pages,
		components: components,
		links:      links,
		layouts:    layouts,
		logger:     logging.NoOp(),
		now:        time.Now,
		id:         uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Attach(ctx context.Context, input AttachInput) (*entity.PageComponent, error) {
	if input.ViewOrder < 1 {
		return nil, ErrViewOrderInvalid
	}
	if _, err := s.pages.GetByID(ctx, input.PageID); err != nil {
		return nil, err
	}
	if _, err := s.components.GetByID(ctx, input.ComponentID); err != nil {
		return nil, err
	}

	existing, err := s.links.GetByPair(ctx, input.PageID, input.ComponentID)
	if err == nil {
		existing.ViewOrder = input.ViewOrder
		if err := s.links.Renumber(ctx, input.PageID, map[uuid.UUID]int{input.ComponentID: input.ViewOrder}); err != nil {
			return nil, fmt.Errorf("reposition link: %w", err)
		}
		return existing, nil
	}
	var notFound *entitystore.NotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}

	link := &entity.PageComponent{
		ID:          s.id(),
		PageID:      input.PageID,
		ComponentID: input.ComponentID,
		ViewOrder:   input.ViewOrder,
		CreatedAt:   s.now(),
	}
	created, err := s.links.Create(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("attach component: %w", err)
	}
	s.logger.Debug("component attached", "page_id", input.PageID, "component_id", input.ComponentID, "view_order", input.ViewOrder)
	return created, nil
}

func (s *service) Detach(ctx context.Context, pageID, componentID uuid.UUID) error {
	if _, err := s.pages.GetByID(ctx, pageID); err != nil {
		return err
	}
	return s.links.DeleteByPair(ctx, pageID, componentID)
}

func (s *service) ListComponents(ctx context.Context, pageID uuid.UUID) ([]PlacedComponent, error) {
	if _, err := s.pages.GetByID(ctx, pageID); err != nil {
		return nil, err
	}
	links, err := s.links.ListByPage(ctx, pageID)
	if err != nil {
		return nil, err
	}

	out := make([]PlacedComponent, 0, len(links))
	for _, link := range links {
		component, err := s.components.GetByID(ctx, link.ComponentID)
		if err != nil {
			var notFound *entitystore.NotFoundError
			if errors.As(err, &notFound) {
				// links may outlive a soft-deleted target
				s.logger.Debug("skipping dangling link", "page_id", pageID, "component_id", link.ComponentID)
				continue
			}
			return nil, err
		}
		out = append(out, PlacedComponent{Link: link, Component: component})
	}
	return out, nil
}

// Reorder renumbers view_order densely: listed members take 1..N in the
// given sequence, members the caller omitted follow at N+1.. preserving
// their prior relative order, and ids not linked to the page are ignored.
func (s *service) Reorder(ctx context.Context, pageID uuid.UUID, orderedComponentIDs []uuid.UUID) ([]PlacedComponent, error) {
	if _, err := s.pages.GetByID(ctx, pageID); err != nil {
		return nil, err
	}
	links, err := s.links.ListByPage(ctx, pageID)
	if err != nil {
		return nil, err
	}

	linked := make(map[uuid.UUID]struct{}, len(links))
	for _, link := range links {
		linked[link.ComponentID] = struct{}{}
	}

	orders := make(map[uuid.UUID]int, len(links))
	next := 1
	for _, componentID := range orderedComponentIDs {
		if _, ok := linked[componentID]; !ok {
			continue
		}
		if _, assigned := orders[componentID]; assigned {
			continue
		}
		orders[componentID] = next
		next++
	}
	for _, link := range links {
		if _, assigned := orders[link.ComponentID]; assigned {
			continue
		}
		orders[link.ComponentID] = next
		next++
	}

	if err := s.links.Renumber(ctx, pageID, orders); err != nil {
		return nil, fmt.Errorf("reorder components: %w", err)
	}
	return s.ListComponents(ctx, pageID)
}

func (s *service) Clone(ctx context.Context, componentID uuid.UUID, titleOverride string) (*entity.Component, error) {
	source, err := s.components.GetByID(ctx, componentID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(titleOverride)
	if title == "" {
		title, err = s.nextCloneTitle(ctx, source.Title)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	clone := &entity.Component{
		ID:        s.id(),
		TypeTag:   source.TypeTag,
		Title:     title,
		HTMLID:    source.HTMLID,
		IsActive:  source.IsActive,
		Data:      deepCopyData(source.Data),
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.components.Create(ctx, clone)
	if err != nil {
		return nil, fmt.Errorf("clone component: %w", err)
	}
	s.logger.Debug("component cloned", "source_id", componentID, "clone_id", created.ID)
	return created, nil
}

func (s *service) PageLayout(ctx context.Context, pageID uuid.UUID) (*LayoutView, error) {
	page, err := s.pages.GetByID(ctx, pageID)
	if err != nil {
		return nil, err
	}
	components, err := s.ListComponents(ctx, pageID)
	if err != nil {
		return nil, err
	}
	view := &LayoutView{PageID: pageID, Components: components}
	if page.LayoutID != nil {
		layout, err := s.layouts.GetByID(ctx, *page.LayoutID)
		if err == nil {
			view.Layout = layout
		}
	}
	return view, nil
}

func (s *service) SetPageComponents(ctx context.Context, pageID uuid.UUID, placements []PlacementInput) ([]PlacedComponent, error) {
	if _, err := s.pages.GetByID(ctx, pageID); err != nil {
		return nil, err
	}

	now := s.now()
	links := make([]*entity.PageComponent, 0, len(placements))
	seen := make(map[uuid.UUID]struct{}, len(placements))
	for i, placement := range placements {
		if _, dup := seen[placement.ComponentID]; dup {
			continue
		}
		if _, err := s.components.GetByID(ctx, placement.ComponentID); err != nil {
			return nil, err
		}
		seen[placement.ComponentID] = struct{}{}
		order := placement.ViewOrder
		if order < 1 {
			order = i + 1
		}
		links = append(links, &entity.PageComponent{
			ID:          s.id(),
			PageID:      pageID,
			ComponentID: placement.ComponentID,
			ViewOrder:   order,
			CreatedAt:   now,
		})
	}

	if err := s.links.Replace(ctx, pageID, links); err != nil {
		return nil, fmt.Errorf("replace page components: %w", err)
	}
	return s.ListComponents(ctx, pageID)
}

func (s *service) ClearLayout(ctx context.Context, pageID uuid.UUID) error {
	if _, err := s.pages.GetByID(ctx, pageID); err != nil {
		return err
	}
	return s.links.DeleteByPage(ctx, pageID)
}

var cloneSuffix = regexp.MustCompile(`^\((\d+)\)$`)

// nextCloneTitle produces "Title (n)" with the smallest n above any
// existing clone of the same base title.
func (s *service) nextCloneTitle(ctx context.Context, base string) (string, error) {
	components, err := s.components.List(ctx)
	if err != nil {
		return "", err
	}
	highest := 0
	prefix := base + " "
	for _, component := range components {
		if !strings.HasPrefix(component.Title, prefix) {
			continue
		}
		match := cloneSuffix.FindStringSubmatch(strings.TrimPrefix(component.Title, prefix))
		if match == nil {
			continue
		}
		var n int
		fmt.Sscanf(match[1], "%d", &n)
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s (%d)", base, highest+1), nil
}

func deepCopyData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for key, value := range data {
		out[key] = deepCopyValue(value)
	}
	return out
}

func deepCopyValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return deepCopyData(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return typed
	}
}
