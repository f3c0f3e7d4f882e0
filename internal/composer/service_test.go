package composer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-pagekit/entity"
	"github.com/goliatone/go-pagekit/internal/composer"
	entitystore "github.com/goliatone/go-pagekit/internal/entity"
	"github.com/google/uuid"
)

type composerFixture struct {
	svc      composer.Service
	entities entitystore.Service
	store    *entitystore.MemoryStore
}

func newComposerFixture() *composerFixture {
	store := entitystore.NewMemoryStore()
	registry := entitystore.NewRegistry()
	return &composerFixture{
		svc:      composer.NewService(store.Pages(), store.Components(), store.Links(), store.Layouts()),
		entities: entitystore.NewService(store.Pages(), store.Components(), registry),
		store:    store,
	}
}

func (f *composerFixture) page(t *testing.T, title string) *entity.Page {
	t.Helper()
	page, err := f.entities.CreatePage(context.Background(), entitystore.CreatePageInput{TypeTag: "page", Title: title})
	if err != nil {
		t.Fatalf("create page: %v", err)
	}
	return page
}

func (f *composerFixture) component(t *testing.T, title string) *entity.Component {
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

func TestAttachAndListOrdered(t *testing.T) {
	f := newComposerFixture()
	ctx := context.Background()
	page := f.page(t, "Home")
	first := f.component(t, "First")
	second := f.component(t, "Second")

	if _, err := f.svc.Attach(ctx, composer.AttachInput{PageID: page.ID, ComponentID: second.ID, ViewOrder: 2}); err != nil {
		t.Fatalf("attach second: %v", err)
	}
	if _, err := f.svc.Attach(ctx, composer.AttachInput{PageID: page.ID, ComponentID: first.ID, ViewOrder: 1}); err != nil {
		t.Fatalf("attach first: %v", err)
	}

	placed, err := f.svc.ListComponents(ctx, page.ID)
	if err != nil {
		t.Fatalf("list components: %v", err)
	}
	if len(placed) != 2 {
		t.Fatalf("expected 2 components got %d", len(placed))
	}
	if placed[0].Component.ID != first.ID || placed[1].Component.ID != second.ID {
		t.Fatal("components not ordered by view_order")
	}
}

func TestAttachRejectsInvalidOrder(t *testing.T) {
	f := newComposerFixture()
	page := f.page(t, "Home")
	component := f.component(t, "Block")

	if _, err := f.svc.Attach(context.Background(), composer.AttachInput{
		PageID:      page.ID,
		ComponentID: component.ID,
		ViewOrder:   0,
	}); !errors.Is(err, composer.ErrViewOrderInvalid) {
		t.Fatalf("expected ErrViewOrderInvalid got %v", err)
	}
}

func TestAttachSoftDeletedComponentFails(t *testing.T) {
	f := newComposerFixture()
	ctx := context.Background()
	page := f.page(t, "Home")
	component := f.component(t, "Doomed")

	if err := f.entities.DeleteComponent(ctx, component.ID); err != nil {
		t.Fatalf("delete component: %v", err)
	}

	var notFound *entitystore.NotFoundError
	if _, err := f.svc.Attach(ctx, composer.AttachInput{
		PageID:      page.ID,
		ComponentID: component.ID,
		ViewOrder:   1,
	}); !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError got %v", err)
	}
}

func TestListSkipsSoftDeletedComponents(t *testing.T) {
	f := newComposerFixture()
	ctx := context.Background()
	page := f.page(t, "Home")
	kept := f.component(t, "Kept")
	doomed := f.component(t, "Doomed")

	if _, err := f.svc.Attach(ctx, composer.AttachInput{PageID: page.ID, ComponentID: kept.ID, ViewOrder: 1}); err != nil {
		t.Fatalf("attach kept: %v", err)
	}
	if _, err := f.svc.Attach(ctx, composer.AttachInput{PageID: page.ID, ComponentID: doomed.ID, ViewOrder: 2}); err != nil {
		t.Fatalf("attach doomed: %v", err)
	}
	if err := f.entities.DeleteComponent(ctx, doomed.ID); err != nil {
		t.Fatalf("delete component: %v", err)
	}

	placed, err := f.svc.ListComponents(ctx, page.ID)
	if err != nil {
		t.Fatalf("list components: %v", err)
	}
	if len(placed) != 1 || placed[0].Component.ID != kept.ID {
		t.Fatalf("expected only surviving component, got %d rows", len(placed))
	}
}

func TestReorderSwapsPositions(t *testing.T) {
	f := newComposerFixture()
	ctx := context.Background()
	page := f.page(t, "Home")
	c1 := f.component(t, "One")
	c2 := f.component(t, "Two")

	for i, component := range []*entity.Component{c1, c2} {
		if _, err := f.svc.Attach(ctx, composer.AttachInput{PageID: page.ID, ComponentID: component.ID, ViewOrder: i + 1}); err != nil {
			t.Fatalf("attach: %v", err)
		}
	}

	placed, err := f.svc.Reorder(ctx, page.ID, []uuid.UUID{c2.ID, c1.ID})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if placed[0].Component.ID != c2.ID || placed[0].Link.ViewOrder != 1 {
		t.Fatalf("expected c2 first with order 1, got %v", placed[0].Link.ViewOrder)
	}
	if placed[1].Component.ID != c1.ID || placed[1].Link.ViewOrder != 2 {
		t.Fatalf("expected c1 second with order 2, got %v", placed[1].Link.ViewOrder)
	}
}

func TestReorderIsIdempotentAndIgnoresUnknownIDs(t *testing.T) {
	f := newComposerFixture()
	ctx := context.Background()
	page := f.page(t, "Home")
	c1 := f.component(t, "One")
	c2 := f.component(t, "Two")

	for i, component := range []*entity.Component{c1, c2} {
		if _, err := f.svc.Attach(ctx, composer.AttachInput{PageID: page.ID, ComponentID: component.ID, ViewOrder: i + 1}); err != nil {
			t.Fatalf("attach: %v", err)
		}
	}

	stranger := uuid.MustParse("0b6a81de-93b7-4e2a-a0ea-71b9c1f90001")
	placed, err := f.svc.Reorder(ctx, page.ID, []uuid.UUID{c1.ID, stranger, c2.ID})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if placed[0].Component.ID != c1.ID || placed[1].Component.ID != c2.ID {
		t.Fatal("current-order reorder changed the sequence")
	}
	if placed[0].Link.ViewOrder != 1 || placed[1].Link.ViewOrder != 2 {
		t.Fatal("reorder should keep positions dense")
	}
}

func TestReorderSubsetKeepsUnlistedAfterListed(t *testing.T) {
	f := newComposerFixture()
	ctx := context.Background()
	page := f.page(t, "Home")
	c1 := f.component(t, "One")
	c2 := f.component(t, "Two")
	c3 := f.component(t, "Three")

	for i, component := range []*entity.Component{c1, c2, c3} {
		if _, err := f.svc.Attach(ctx, composer.AttachInput{PageID: page.ID, ComponentID: component.ID, ViewOrder: i + 1}); err != nil {
			t.Fatalf("attach: %v", err)
		}
	}

	placed, err := f.svc.Reorder(ctx, page.ID, []uuid.UUID{c3.ID})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	got := []uuid.UUID{placed[0].Component.ID, placed[1].Component.ID, placed[2].Component.ID}
	want := []uuid.UUID{c3.ID, c1.ID, c2.ID}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: expected %s got %s", i+1, want[i], got[i])
		}
	}
}

func TestCloneIsIndependentOfSource(t *testing.T) {
	f := newComposerFixture()
	ctx := context.Background()
	source := f.component(t, "Banner")

	clone, err := f.svc.Clone(ctx, source.ID, "")
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if clone.ID == source.ID {
		t.Fatal("clone must get a fresh id")
	}
	if clone.Title != "Banner (1)" {
		t.Fatalf("expected default clone title Banner (1) got %q", clone.Title)
	}
	if clone.Data["text_en"] != "Banner" {
		t.Fatalf("clone lost variant data: %v", clone.Data)
	}

	second, err := f.svc.Clone(ctx, source.ID, "")
	if err != nil {
		t.Fatalf("second clone: %v", err)
	}
	if second.Title != "Banner (2)" {
		t.Fatalf("expected Banner (2) got %q", second.Title)
	}

	if _, err := f.entities.UpdateComponent(ctx, entitystore.UpdateComponentInput{
		ID:   clone.ID,
		Data: map[string]any{"text_en": "changed"},
	}); err != nil {
		t.Fatalf("update clone: %v", err)
	}
	reloaded, err := f.entities.GetComponent(ctx, source.ID)
	if err != nil {
		t.Fatalf("reload source: %v", err)
	}
	if reloaded.Data["text_en"] != "Banner" {
		t.Fatal("editing the clone changed the source")
	}
}

func TestSetPageComponentsReplacesList(t *testing.T) {
	f := newComposerFixture()
	ctx := context.Background()
	page := f.page(t, "Home")
	old := f.component(t, "Old")
	next := f.component(t, "Next")

	if _, err := f.svc.Attach(ctx, composer.AttachInput{PageID: page.ID, ComponentID: old.ID, ViewOrder: 1}); err != nil {
		t.Fatalf("attach: %v", err)
	}

	placed, err := f.svc.SetPageComponents(ctx, page.ID, []composer.PlacementInput{{ComponentID: next.ID, ViewOrder: 1}})
	if err != nil {
		t.Fatalf("set page components: %v", err)
	}
	if len(placed) != 1 || placed[0].Component.ID != next.ID {
		t.Fatal("replacement list not applied")
	}
}

func TestLayoutCatalog(t *testing.T) {
	f := newComposerFixture()
	ctx := context.Background()

	if err := f.svc.EnsureBuiltinLayouts(ctx); err != nil {
		t.Fatalf("ensure builtin layouts: %v", err)
	}
	// seeding twice must not duplicate
	if err := f.svc.EnsureBuiltinLayouts(ctx); err != nil {
		t.Fatalf("ensure builtin layouts again: %v", err)
	}

	layouts, err := f.svc.ListLayouts(ctx)
	if err != nil {
		t.Fatalf("list layouts: %v", err)
	}
	if len(layouts) != 4 {
		t.Fatalf("expected 4 builtin layouts got %d", len(layouts))
	}

	if _, err := f.svc.CreateLayout(ctx, composer.CreateLayoutInput{
		Name: "Two Column",
		Code: "two-column",
	}); !errors.Is(err, composer.ErrLayoutCodeExists) {
		t.Fatalf("expected ErrLayoutCodeExists got %v", err)
	}

	custom, err := f.svc.CreateLayout(ctx, composer.CreateLayoutInput{
		Name:  "Sidebar Right",
		Zones: []entity.LayoutZone{{ID: "main", Name: "main", Title: "Main", Type: "flex"}},
	})
	if err != nil {
		t.Fatalf("create layout: %v", err)
	}
	if custom.Code != "sidebar-right" {
		t.Fatalf("expected code from name got %q", custom.Code)
	}
}
