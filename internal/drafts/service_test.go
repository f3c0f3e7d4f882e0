package drafts_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-pagekit/entity"
	"github.com/goliatone/go-pagekit/internal/composer"
	"github.com/goliatone/go-pagekit/internal/drafts"
	entitystore "github.com/goliatone/go-pagekit/internal/entity"
	"github.com/goliatone/go-pagekit/internal/schema"
	"github.com/goliatone/go-pagekit/pkg/interfaces"
	"github.com/google/uuid"
)

type draftFixture struct {
	svc      drafts.Service
	entities entitystore.Service
	composer composer.Service
	store    *entitystore.MemoryStore
}

func newDraftFixture() *draftFixture {
	store := entitystore.NewMemoryStore()
	registry := entitystore.NewRegistry()
	schemaSvc := schema.NewService(registry, schema.WithTranslator(interfaces.StaticTranslator("en")))
	return &draftFixture{
		svc:      drafts.NewService(store.Pages(), store.Components(), store.Links(), registry, schemaSvc),
		entities: entitystore.NewService(store.Pages(), store.Components(), registry, entitystore.WithDataFilter(schemaSvc.FilterData)),
		composer: composer.NewService(store.Pages(), store.Components(), store.Links(), store.Layouts()),
		store:    store,
	}
}

func (f *draftFixture) page(t *testing.T, title string) *entity.Page {
	t.Helper()
	page, err := f.entities.CreatePage(context.Background(), entitystore.CreatePageInput{TypeTag: "page", Title: title})
	if err != nil {
		t.Fatalf("create page: %v", err)
	}
	return page
}

func (f *draftFixture) component(t *testing.T, title string) *entity.Component {
	t.Helper()
	component, err := f.entities.CreateComponent(context.Background(), entitystore.CreateComponentInput{
		TypeTag: "text",
		Title:   title,
		Data:    map[string]any{"text_en": title},
	})
	if err != nil {
		t.Fatalf("create component: %v", err)
	}
	return component
}

func TestStageAndReadRoundTrip(t *testing.T) {
	f := newDraftFixture()
	ctx := context.Background()
	page := f.page(t, "Live title")

	if _, err := f.svc.Stage(ctx, drafts.StageInput{
		Kind:     entity.KindPage,
		EntityID: page.ID,
		Fields:   map[string]any{"title": "Draft title", "content_en": "draft body"},
	}); err != nil {
		t.Fatalf("stage: %v", err)
	}

	overlay, err := f.svc.Read(ctx, entity.KindPage, page.ID)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if overlay.Record["title"] != "Draft title" {
		t.Fatalf("staged title not overlaid: %v", overlay.Record["title"])
	}
	if overlay.Record["content_en"] != "draft body" {
		t.Fatalf("staged field not overlaid: %v", overlay.Record["content_en"])
	}
	if overlay.Record["is_draft"] != true || overlay.Record["has_draft"] != true {
		t.Fatal("draft flags not set on overlay read")
	}

	// the live record is untouched until publish
	live, err := f.entities.GetPage(ctx, page.ID)
	if err != nil {
		t.Fatalf("get live: %v", err)
	}
	if live.Title != "Live title" {
		t.Fatalf("staging leaked into live record: %q", live.Title)
	}
}

func TestStageOverwritesDraftWholesale(t *testing.T) {
	store := entitystore.NewMemoryStore()
	registry := entitystore.NewRegistry()
	schemaSvc := schema.NewService(registry, schema.WithTranslator(interfaces.StaticTranslator("en")))
	entities := entitystore.NewService(store.Pages(), store.Components(), registry, entitystore.WithDataFilter(schemaSvc.FilterData))

	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := drafts.NewService(store.Pages(), store.Components(), store.Links(), registry, schemaSvc,
		drafts.WithClock(func() time.Time { return current }))

	ctx := context.Background()
	page, err := entities.CreatePage(ctx, entitystore.CreatePageInput{TypeTag: "page", Title: "Home"})
	if err != nil {
		t.Fatalf("create page: %v", err)
	}

	first, err := svc.Stage(ctx, drafts.StageInput{
		Kind:     entity.KindPage,
		EntityID: page.ID,
		Fields:   map[string]any{"title": "v1", "content_en": "first body"},
	})
	if err != nil {
		t.Fatalf("first stage: %v", err)
	}

	current = current.Add(time.Hour)
	second, err := svc.Stage(ctx, drafts.StageInput{
		Kind:     entity.KindPage,
		EntityID: page.ID,
		Fields:   map[string]any{"title": "v2"},
	})
	if err != nil {
		t.Fatalf("second stage: %v", err)
	}
	if !second.StagedAt.After(first.StagedAt) {
		t.Fatalf("restaging must restamp staged_at, got %v then %v", first.StagedAt, second.StagedAt)
	}
	if second.EntityData["title"] != "v2" {
		t.Fatal("restaging must overwrite the payload wholesale")
	}
	if _, kept := second.EntityData["content_en"]; kept {
		t.Fatal("restaging must drop keys from the prior draft")
	}
}

func TestPublishAppliesFieldsAndComponentsAndClearsDraft(t *testing.T) {
	f := newDraftFixture()
	ctx := context.Background()
	page := f.page(t, "Old title")
	existing := f.component(t, "Existing")

	if _, err := f.svc.Stage(ctx, drafts.StageInput{
		Kind:     entity.KindPage,
		EntityID: page.ID,
		Fields:   map[string]any{"title": "New title", "content_en": "published body"},
		Components: []entity.DraftComponent{
			{ID: &existing.ID, Title: "Existing renamed", ViewOrder: 1},
			{TypeTag: "text", Title: "Fresh", Data: map[string]any{"text_en": "fresh body"}, ViewOrder: 2},
		},
	}); err != nil {
		t.Fatalf("stage: %v", err)
	}

	result, err := f.svc.Publish(ctx, entity.KindPage, page.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(result.Components) != 2 {
		t.Fatalf("expected 2 component outcomes got %d", len(result.Components))
	}
	if result.Components[0].Status != drafts.OutcomeUpdated {
		t.Fatalf("expected first outcome updated got %s", result.Components[0].Status)
	}
	if result.Components[1].Status != drafts.OutcomeCreated {
		t.Fatalf("expected second outcome created got %s", result.Components[1].Status)
	}
	if result.Components[1].ComponentID == nil {
		t.Fatal("created outcome must carry the new component id")
	}

	live, err := f.entities.GetPage(ctx, page.ID)
	if err != nil {
		t.Fatalf("get live: %v", err)
	}
	if live.Title != "New title" {
		t.Fatalf("published title not applied: %q", live.Title)
	}
	if live.Data["content_en"] != "published body" {
		t.Fatalf("published field not applied: %v", live.Data["content_en"])
	}
	if live.Draft != nil {
		t.Fatal("draft must be cleared after publish")
	}

	placed, err := f.composer.ListComponents(ctx, page.ID)
	if err != nil {
		t.Fatalf("list components: %v", err)
	}
	if len(placed) != 2 {
		t.Fatalf("expected 2 linked components got %d", len(placed))
	}
	if placed[0].Component.Title != "Existing renamed" {
		t.Fatalf("drafted rename not applied: %q", placed[0].Component.Title)
	}
	if placed[1].Component.Data["text_en"] != "fresh body" {
		t.Fatalf("instantiated component data missing: %v", placed[1].Component.Data)
	}

	// publish consumes the draft, so the preview endpoint has nothing left
	if _, err := f.svc.Read(ctx, entity.KindPage, page.ID); !errors.Is(err, drafts.ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound after publish got %v", err)
	}
}

func TestReadWithoutDraftFails(t *testing.T) {
	f := newDraftFixture()
	ctx := context.Background()
	page := f.page(t, "Home")
	component := f.component(t, "Block")

	if _, err := f.svc.Read(ctx, entity.KindPage, page.ID); !errors.Is(err, drafts.ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound for page got %v", err)
	}
	if _, err := f.svc.Read(ctx, entity.KindComponent, component.ID); !errors.Is(err, drafts.ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound for component got %v", err)
	}
}

func TestPublishContinuesPastBrokenComponentReference(t *testing.T) {
	f := newDraftFixture()
	ctx := context.Background()
	page := f.page(t, "Home")
	missing := uuid.MustParse("51f4dc19-ccc0-4f63-9d2e-bb6a1e0a0001")

	if _, err := f.svc.Stage(ctx, drafts.StageInput{
		Kind:     entity.KindPage,
		EntityID: page.ID,
		Components: []entity.DraftComponent{
			{ID: &missing, ViewOrder: 1},
			{TypeTag: "text", Title: "Survivor", Data: map[string]any{"text_en": "kept"}, ViewOrder: 2},
		},
	}); err != nil {
		t.Fatalf("stage: %v", err)
	}

	result, err := f.svc.Publish(ctx, entity.KindPage, page.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if result.Components[0].Status != drafts.OutcomeError {
		t.Fatalf("expected error outcome got %s", result.Components[0].Status)
	}
	if result.Components[1].Status != drafts.OutcomeCreated {
		t.Fatalf("expected created outcome got %s", result.Components[1].Status)
	}

	placed, err := f.composer.ListComponents(ctx, page.ID)
	if err != nil {
		t.Fatalf("list components: %v", err)
	}
	if len(placed) != 1 || placed[0].Component.Title != "Survivor" {
		t.Fatal("surviving component not linked")
	}
}

func TestPublishWithoutDraftFails(t *testing.T) {
	f := newDraftFixture()
	ctx := context.Background()
	page := f.page(t, "Home")

	if _, err := f.svc.Publish(ctx, entity.KindPage, page.ID); !errors.Is(err, drafts.ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound got %v", err)
	}

	live, err := f.entities.GetPage(ctx, page.ID)
	if err != nil {
		t.Fatalf("get live: %v", err)
	}
	if live.Title != "Home" {
		t.Fatal("failed publish must leave the entity unchanged")
	}
}

func TestDiscardClearsDraftOnly(t *testing.T) {
	f := newDraftFixture()
	ctx := context.Background()
	page := f.page(t, "Home")

	if _, err := f.svc.Stage(ctx, drafts.StageInput{
		Kind:     entity.KindPage,
		EntityID: page.ID,
		Fields:   map[string]any{"title": "Never published"},
	}); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if err := f.svc.Discard(ctx, entity.KindPage, page.ID); err != nil {
		t.Fatalf("discard: %v", err)
	}

	live, err := f.entities.GetPage(ctx, page.ID)
	if err != nil {
		t.Fatalf("get live: %v", err)
	}
	if live.Draft != nil {
		t.Fatal("discard must clear the draft")
	}
	if live.Title != "Home" {
		t.Fatal("discard must not touch live fields")
	}

	if err := f.svc.Discard(ctx, entity.KindPage, page.ID); !errors.Is(err, drafts.ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound on second discard got %v", err)
	}
}

func TestComponentDraftLifecycle(t *testing.T) {
	f := newDraftFixture()
	ctx := context.Background()
	component := f.component(t, "Block")

	if _, err := f.svc.Stage(ctx, drafts.StageInput{
		Kind:       entity.KindComponent,
		EntityID:   component.ID,
		Fields:     map[string]any{"text_en": "staged"},
		Components: []entity.DraftComponent{},
	}); !errors.Is(err, drafts.ErrComponentsOnPage) {
		t.Fatalf("expected ErrComponentsOnPage got %v", err)
	}

	if _, err := f.svc.Stage(ctx, drafts.StageInput{
		Kind:     entity.KindComponent,
		EntityID: component.ID,
		Fields:   map[string]any{"text_en": "staged"},
	}); err != nil {
		t.Fatalf("stage component: %v", err)
	}

	if _, err := f.svc.Publish(ctx, entity.KindComponent, component.ID); err != nil {
		t.Fatalf("publish component: %v", err)
	}

	live, err := f.entities.GetComponent(ctx, component.ID)
	if err != nil {
		t.Fatalf("get component: %v", err)
	}
	if live.Data["text_en"] != "staged" {
		t.Fatalf("component publish not applied: %v", live.Data)
	}
	if live.Draft != nil {
		t.Fatal("component draft must clear after publish")
	}
}
