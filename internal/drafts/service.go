package drafts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-pagekit/entity"
	entitystore "github.com/goliatone/go-pagekit/internal/entity"
	"github.com/goliatone/go-pagekit/internal/logging"
	"github.com/goliatone/go-pagekit/internal/schema"
	"github.com/goliatone/go-pagekit/pkg/interfaces"
	"github.com/google/uuid"
)

var (
	// ErrDraftNotFound is returned by read, publish, and discard when no
	// draft is staged on the entity.
	ErrDraftNotFound = errors.New("drafts: draft not found")
	// ErrComponentsOnPage rejects a component-list override staged on a
	// component entity.
	ErrComponentsOnPage = errors.New("drafts: component list can only be staged on a page")
)

// StageInput captures one wholesale draft overwrite. Components is nil when
// the draft leaves the page's component list alone and non-nil (possibly
// empty) when it replaces it.
type StageInput struct {
	Kind       entity.Kind
	EntityID   uuid.UUID
	Fields     map[string]any
	Components []entity.DraftComponent
}

// ComponentOutcome reports the fate of one drafted component reference
// during publish. Publish continues past individual failures.
type ComponentOutcome struct {
	Index       int        `json:"index"`
	ComponentID *uuid.UUID `json:"component_id,omitempty"`
	TypeTag     string     `json:"type_tag,omitempty"`
	Status      string     `json:"status"`
	Message     string     `json:"message,omitempty"`
}

const (
	OutcomeUpdated = "updated"
	OutcomeCreated = "created"
	OutcomeError   = "error"
)

// PublishResult reports a completed publish.
type PublishResult struct {
	EntityID   uuid.UUID          `json:"entity_id"`
	Kind       entity.Kind        `json:"kind"`
	Components []ComponentOutcome `json:"components,omitempty"`
}

// Overlay is a draft-aware read: the projected record with staged keys
// overriding live values, and for pages the effective component list.
type Overlay struct {
	Record     map[string]any   `json:"record"`
	Components []map[string]any `json:"components,omitempty"`
}

// Service stages, previews, publishes, and discards entity drafts. Staging
// is last-write-wins per entity; publish is the only path that moves draft
// state onto live content. Read requires a staged draft and reports
// ErrDraftNotFound otherwise.
type Service interface {
	Stage(ctx context.Context, input StageInput) (*entity.DraftState, error)
	Read(ctx context.Context, kind entity.Kind, id uuid.UUID) (*Overlay, error)
	Publish(ctx context.Context, kind entity.Kind, id uuid.UUID) (*PublishResult, error)
	Discard(ctx context.Context, kind entity.Kind, id uuid.UUID) error
}

// ServiceOption configures draft service behaviour.
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
	registry   *entitystore.Registry
	schema     schema.Service
	logger     interfaces.Logger
	now        func() time.Time
	id         func() uuid.UUID
}

// NewService builds the draft controller.
func NewService(
	pages entitystore.PageRepository,
	components entitystore.ComponentRepository,
	links entitystore.LinkRepository,
	registry *entitystore.Registry,
	schemaService schema.Service,
	opts ...ServiceOption,
) Service {
	s := &service{
		pages:      pages,
		components: components,
		links:      links,
		registry:   registry,
		schema:     schemaService,
		logger:     logging.NoOp(),
		now:        time.Now,
		id:         uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Stage(ctx context.Context, input StageInput) (*entity.DraftState, error) {
	if input.Kind == entity.KindComponent && input.Components != nil {
		return nil, ErrComponentsOnPage
	}

	now := s.now()
	draft := &entity.DraftState{
		EntityData: input.Fields,
		Components: input.Components,
		StagedAt:   now,
		UpdatedAt:  now,
	}

	switch input.Kind {
	case entity.KindComponent:
		component, err := s.components.GetByID(ctx, input.EntityID)
		if err != nil {
			return nil, err
		}
		component.Draft = draft
		component.UpdatedAt = now
		if _, err := s.components.Update(ctx, component); err != nil {
			return nil, fmt.Errorf("stage component draft: %w", err)
		}
	default:
		page, err := s.pages.GetByID(ctx, input.EntityID)
		if err != nil {
			return nil, err
		}
		page.Draft = draft
		page.UpdatedAt = now
		if _, err := s.pages.Update(ctx, page); err != nil {
			return nil, fmt.Errorf("stage page draft: %w", err)
		}
	}

	s.logger.Debug("draft staged", "entity_id", input.EntityID, "kind", input.Kind)
	return draft, nil
}

func (s *service) Read(ctx context.Context, kind entity.Kind, id uuid.UUID) (*Overlay, error) {
	if kind == entity.KindComponent {
		return s.readComponent(ctx, id)
	}
	return s.readPage(ctx, id)
}

func (s *service) readComponent(ctx context.Context, id uuid.UUID) (*Overlay, error) {
	component, err := s.components.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if component.Draft == nil {
		return nil, ErrDraftNotFound
	}
	s.applyComponentData(component, component.Draft.EntityData)
	record, err := schema.ProjectComponent(s.schema, component, schema.ProjectFlags{IsDraft: true, HasDraft: true})
	if err != nil {
		return nil, err
	}
	return &Overlay{Record: record}, nil
}

func (s *service) readPage(ctx context.Context, id uuid.UUID) (*Overlay, error) {
	page, err := s.pages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	draft := page.Draft
	if draft == nil {
		return nil, ErrDraftNotFound
	}
	s.applyPageData(page, draft.EntityData)
	record, err := schema.ProjectPage(s.schema, page, schema.ProjectFlags{IsDraft: true, HasDraft: true})
	if err != nil {
		return nil, err
	}

	overlay := &Overlay{Record: record}
	if draft.HasComponents() {
		overlay.Components = s.projectDraftComponents(ctx, draft.Components)
	} else {
		components, err := s.projectLiveComponents(ctx, id)
		if err != nil {
			return nil, err
		}
		overlay.Components = components
	}
	return overlay, nil
}

func (s *service) projectLiveComponents(ctx context.Context, pageID uuid.UUID) ([]map[string]any, error) {
	links, err := s.links.ListByPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(links))
	for _, link := range links {
		component, err := s.components.GetByID(ctx, link.ComponentID)
		if err != nil {
			var notFound *entitystore.NotFoundError
			if errors.As(err, &notFound) {
				continue
			}
			return nil, err
		}
		record, err := schema.ProjectComponent(s.schema, component, schema.ProjectFlags{})
		if err != nil {
			continue
		}
		record["view_order"] = link.ViewOrder
		out = append(out, record)
	}
	return out, nil
}

func (s *service) projectDraftComponents(ctx context.Context, drafted []entity.DraftComponent) []map[string]any {
	out := make([]map[string]any, 0, len(drafted))
	for _, dc := range drafted {
		record := map[string]any{
			"view_order": dc.ViewOrder,
			"is_draft":   true,
		}
		if dc.ID != nil {
			record["id"] = *dc.ID
			if component, err := s.components.GetByID(ctx, *dc.ID); err == nil {
				s.applyComponentData(component, dc.Data)
				if dc.Title != "" {
					component.Title = dc.Title
				}
				if projected, err := schema.ProjectComponent(s.schema, component, schema.ProjectFlags{IsDraft: true}); err == nil {
					projected["view_order"] = dc.ViewOrder
					out = append(out, projected)
					continue
				}
			}
		}
		record["type_tag"] = dc.TypeTag
		record["title"] = dc.Title
		for key, value := range s.schema.FilterData(dc.TypeTag, dc.Data) {
			if _, taken := record[key]; !taken {
				record[key] = value
			}
		}
		out = append(out, record)
	}
	return out
}

func (s *service) Publish(ctx context.Context, kind entity.Kind, id uuid.UUID) (*PublishResult, error) {
	if kind == entity.KindComponent {
		return s.publishComponent(ctx, id)
	}
	return s.publishPage(ctx, id)
}

func (s *service) publishComponent(ctx context.Context, id uuid.UUID) (*PublishResult, error) {
	component, err := s.components.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if component.Draft == nil {
		return nil, ErrDraftNotFound
	}

	s.applyComponentData(component, component.Draft.EntityData)
	component.Draft = nil
	component.UpdatedAt = s.now()
	if _, err := s.components.Update(ctx, component); err != nil {
		return nil, fmt.Errorf("publish component: %w", err)
	}
	s.logger.Info("component published", "component_id", id)
	return &PublishResult{EntityID: id, Kind: entity.KindComponent}, nil
}

func (s *service) publishPage(ctx context.Context, id uuid.UUID) (*PublishResult, error) {
	page, err := s.pages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	draft := page.Draft
	if draft == nil {
		return nil, ErrDraftNotFound
	}

	s.applyPageData(page, draft.EntityData)

	var (
		outcomes []ComponentOutcome
		links    []*entity.PageComponent
	)
	replaceLinks := draft.HasComponents()
	if replaceLinks {
		links, outcomes = s.materializeComponents(ctx, id, draft.Components)
	}

	page.Draft = nil
	page.UpdatedAt = s.now()
	if _, err := s.pages.ApplyPublish(ctx, page, links, replaceLinks); err != nil {
		return nil, fmt.Errorf("publish page: %w", err)
	}

	s.logger.Info("page published", "page_id", id, "links_replaced", replaceLinks)
	return &PublishResult{EntityID: id, Kind: entity.KindPage, Components: outcomes}, nil
}

// materializeComponents turns the drafted component list into link rows.
// One failing reference never aborts the others; its outcome is recorded
// and the loop continues.
func (s *service) materializeComponents(ctx context.Context, pageID uuid.UUID, drafted []entity.DraftComponent) ([]*entity.PageComponent, []ComponentOutcome) {
	now := s.now()
	links := make([]*entity.PageComponent, 0, len(drafted))
	outcomes := make([]ComponentOutcome, 0, len(drafted))

	for i, dc := range drafted {
		outcome := ComponentOutcome{Index: i, ComponentID: dc.ID, TypeTag: dc.TypeTag}

		var componentID uuid.UUID
		if dc.ID != nil {
			component, err := s.components.GetByID(ctx, *dc.ID)
			if err != nil {
				outcome.Status = OutcomeError
				outcome.Message = err.Error()
				outcomes = append(outcomes, outcome)
				s.logger.Warn("publish: drafted component unresolved", "page_id", pageID, "component_id", *dc.ID, "error", err)
				continue
			}
			if dc.Title != "" {
				component.Title = dc.Title
			}
			s.applyComponentData(component, dc.Data)
			component.UpdatedAt = now
			if _, err := s.components.Update(ctx, component); err != nil {
				outcome.Status = OutcomeError
				outcome.Message = err.Error()
				outcomes = append(outcomes, outcome)
				s.logger.Warn("publish: drafted component update failed", "page_id", pageID, "component_id", *dc.ID, "error", err)
				continue
			}
			componentID = component.ID
			outcome.Status = OutcomeUpdated
		} else {
			component, err := s.instantiateComponent(ctx, dc, now)
			if err != nil {
				outcome.Status = OutcomeError
				outcome.Message = err.Error()
				outcomes = append(outcomes, outcome)
				s.logger.Warn("publish: drafted component instantiation failed", "page_id", pageID, "type_tag", dc.TypeTag, "error", err)
				continue
			}
			componentID = component.ID
			created := component.ID
			outcome.ComponentID = &created
			outcome.Status = OutcomeCreated
		}

		order := dc.ViewOrder
		if order < 1 {
			order = len(links) + 1
		}
		links = append(links, &entity.PageComponent{
			ID:          s.id(),
			PageID:      pageID,
			ComponentID: componentID,
			ViewOrder:   order,
			CreatedAt:   now,
		})
		outcomes = append(outcomes, outcome)
	}
	return links, outcomes
}

func (s *service) instantiateComponent(ctx context.Context, dc entity.DraftComponent, now time.Time) (*entity.Component, error) {
	variant, err := s.registry.Resolve(dc.TypeTag)
	if err != nil {
		return nil, err
	}
	if variant.Kind != entity.KindComponent {
		return nil, fmt.Errorf("drafts: %s is not a component variant", variant.TypeTag)
	}
	data, err := s.registry.NewData(variant.TypeTag)
	if err != nil {
		return nil, err
	}
	for key, value := range s.schema.FilterData(variant.TypeTag, dc.Data) {
		data[key] = value
	}
	title := dc.Title
	if title == "" {
		title = variant.Label
	}
	component := &entity.Component{
		ID:        s.id(),
		TypeTag:   variant.TypeTag,
		Title:     title,
		IsActive:  true,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.components.Create(ctx, component)
}

func (s *service) Discard(ctx context.Context, kind entity.Kind, id uuid.UUID) error {
	if kind == entity.KindComponent {
		component, err := s.components.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if component.Draft == nil {
			return ErrDraftNotFound
		}
		component.Draft = nil
		component.UpdatedAt = s.now()
		if _, err := s.components.Update(ctx, component); err != nil {
			return fmt.Errorf("discard component draft: %w", err)
		}
		return nil
	}

	page, err := s.pages.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if page.Draft == nil {
		return ErrDraftNotFound
	}
	page.Draft = nil
	page.UpdatedAt = s.now()
	if _, err := s.pages.Update(ctx, page); err != nil {
		return fmt.Errorf("discard page draft: %w", err)
	}
	return nil
}

// applyPageData copies staged keys onto the live page. Base columns are
// handled by name; everything else passes through the variant whitelist.
// Bookkeeping keys (id, timestamps, type_tag, the draft payload) never
// apply.
func (s *service) applyPageData(page *entity.Page, data map[string]any) {
	if len(data) == 0 {
		return
	}
	rest := make(map[string]any)
	for key, value := range data {
		switch key {
		case "title":
			if v, ok := value.(string); ok && v != "" {
				page.Title = v
			}
		case "slug":
			if v, ok := value.(string); ok {
				page.Slug = v
			}
		case "is_active":
			if v, ok := value.(bool); ok {
				page.IsActive = v
			}
		case "parent_id":
			if v, ok := parseOptionalUUID(value); ok {
				page.ParentID = v
			}
		case "layout_id":
			if v, ok := parseOptionalUUID(value); ok {
				page.LayoutID = v
			}
		case "id", "type_tag", "created_at", "updated_at", "draft", "is_deleted":
			// immutable bookkeeping
		default:
			rest[key] = value
		}
	}
	if page.Data == nil {
		page.Data = make(map[string]any, len(rest))
	}
	for key, value := range s.schema.FilterData(page.TypeTag, rest) {
		page.Data[key] = value
	}
}

func (s *service) applyComponentData(component *entity.Component, data map[string]any) {
	if len(data) == 0 {
		return
	}
	rest := make(map[string]any)
	for key, value := range data {
		switch key {
		case "title":
			if v, ok := value.(string); ok && v != "" {
				component.Title = v
			}
		case "html_id":
			if v, ok := value.(string); ok {
				component.HTMLID = v
			}
		case "is_active":
			if v, ok := value.(bool); ok {
				component.IsActive = v
			}
		case "id", "type_tag", "created_at", "updated_at", "draft", "is_deleted":
		default:
			rest[key] = value
		}
	}
	if component.Data == nil {
		component.Data = make(map[string]any, len(rest))
	}
	for key, value := range s.schema.FilterData(component.TypeTag, rest) {
		component.Data[key] = value
	}
}

func parseOptionalUUID(value any) (*uuid.UUID, bool) {
	switch typed := value.(type) {
	case nil:
		return nil, true
	case string:
		if typed == "" {
			return nil, true
		}
		parsed, err := uuid.Parse(typed)
		if err != nil {
			return nil, false
		}
		return &parsed, true
	case uuid.UUID:
		return &typed, true
	default:
		return nil, false
	}
}
