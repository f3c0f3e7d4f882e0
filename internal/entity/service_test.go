package entity_test

import (
	"context"
	"errors"
	"testing"

	entitystore "github.com/goliatone/go-pagekit/internal/entity"
	"github.com/google/uuid"
)

func newEntityService() (entitystore.Service, *entitystore.MemoryStore) {
	store := entitystore.NewMemoryStore()
	svc := entitystore.NewService(store.Pages(), store.Components(), entitystore.NewRegistry())
	return svc, store
}

func TestCreatePageAppliesVariantDefaults(t *testing.T) {
	svc, _ := newEntityService()

	page, err := svc.CreatePage(context.Background(), entitystore.CreatePageInput{
		TypeTag: "product_page",
		Title:   "Road Bike",
		Data:    map[string]any{"price": 499.0},
	})
	if err != nil {
		t.Fatalf("create page: %v", err)
	}
	if page.TypeTag != "product_page" {
		t.Fatalf("expected type_tag product_page got %s", page.TypeTag)
	}
	if page.Slug != "road-bike" {
		t.Fatalf("expected generated slug road-bike got %q", page.Slug)
	}
	if page.Data["currency"] != "USD" {
		t.Fatalf("expected default currency USD got %v", page.Data["currency"])
	}
	if page.Data["price"] != 499.0 {
		t.Fatalf("expected price 499 got %v", page.Data["price"])
	}
	if !page.IsActive {
		t.Fatal("expected page active by default")
	}
}

func TestCreatePageRejectsUnknownVariant(t *testing.T) {
	svc, _ := newEntityService()

	if _, err := svc.CreatePage(context.Background(), entitystore.CreatePageInput{
		TypeTag: "mystery",
		Title:   "Nope",
	}); !errors.Is(err, entitystore.ErrVariantUnknown) {
		t.Fatalf("expected ErrVariantUnknown got %v", err)
	}
}

func TestCreatePageRejectsComponentVariant(t *testing.T) {
	svc, _ := newEntityService()

	if _, err := svc.CreatePage(context.Background(), entitystore.CreatePageInput{
		TypeTag: "hero_banner",
		Title:   "Wrong family",
	}); !errors.Is(err, entitystore.ErrKindMismatch) {
		t.Fatalf("expected ErrKindMismatch got %v", err)
	}
}

func TestCreatePageRequiresTitle(t *testing.T) {
	svc, _ := newEntityService()

	if _, err := svc.CreatePage(context.Background(), entitystore.CreatePageInput{
		TypeTag: "page",
		Title:   "   ",
	}); !errors.Is(err, entitystore.ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired got %v", err)
	}
}

func TestUpdatePageMergesAndReplacesData(t *testing.T) {
	svc, _ := newEntityService()
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, entitystore.CreatePageInput{
		TypeTag: "page",
		Title:   "Home",
		Data:    map[string]any{"content": "original", "seo_keywords": "bikes"},
	})
	if err != nil {
		t.Fatalf("create page: %v", err)
	}

	merged, err := svc.UpdatePage(ctx, entitystore.UpdatePageInput{
		ID:   page.ID,
		Data: map[string]any{"content": "updated"},
	})
	if err != nil {
		t.Fatalf("update page: %v", err)
	}
	if merged.Data["content"] != "updated" {
		t.Fatalf("expected merged content updated got %v", merged.Data["content"])
	}
	if merged.Data["seo_keywords"] != "bikes" {
		t.Fatalf("merge dropped untouched key: %v", merged.Data["seo_keywords"])
	}

	replaced, err := svc.UpdatePage(ctx, entitystore.UpdatePageInput{
		ID:          page.ID,
		Data:        map[string]any{"content": "only"},
		ReplaceData: true,
	})
	if err != nil {
		t.Fatalf("replace page data: %v", err)
	}
	if _, kept := replaced.Data["seo_keywords"]; kept {
		t.Fatal("replace should drop keys outside the new payload")
	}
}

func TestDeletePageHidesRecord(t *testing.T) {
	svc, _ := newEntityService()
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, entitystore.CreatePageInput{TypeTag: "page", Title: "Gone"})
	if err != nil {
		t.Fatalf("create page: %v", err)
	}
	if err := svc.DeletePage(ctx, page.ID); err != nil {
		t.Fatalf("delete page: %v", err)
	}

	var notFound *entitystore.NotFoundError
	if _, err := svc.GetPage(ctx, page.ID); !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError got %v", err)
	}

	pages, err := svc.ListPages(ctx, entitystore.ListPagesOptions{})
	if err != nil {
		t.Fatalf("list pages: %v", err)
	}
	for _, listed := range pages {
		if listed.ID == page.ID {
			t.Fatal("soft-deleted page still listed")
		}
	}
}

func TestListPagesSearchAndExclude(t *testing.T) {
	svc, _ := newEntityService()
	ctx := context.Background()

	first, err := svc.CreatePage(ctx, entitystore.CreatePageInput{TypeTag: "page", Title: "Landing page"})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if _, err := svc.CreatePage(ctx, entitystore.CreatePageInput{TypeTag: "page", Title: "Landing variant"}); err != nil {
		t.Fatalf("create second: %v", err)
	}
	if _, err := svc.CreatePage(ctx, entitystore.CreatePageInput{TypeTag: "page", Title: "Contact"}); err != nil {
		t.Fatalf("create third: %v", err)
	}

	matched, err := svc.ListPages(ctx, entitystore.ListPagesOptions{Search: "landing", ExcludeID: &first.ID})
	if err != nil {
		t.Fatalf("list pages: %v", err)
	}
	if len(matched) != 1 {
		t.Fatalf("expected 1 match got %d", len(matched))
	}
	if matched[0].ID == first.ID {
		t.Fatal("excluded page returned")
	}
}

func TestRegistryRejectsDuplicateRegistration(t *testing.T) {
	registry := entitystore.NewRegistry()
	err := registry.Register(entitystore.Variant{TypeTag: "page", Kind: "page", Label: "Duplicate"})
	if !errors.Is(err, entitystore.ErrVariantExists) {
		t.Fatalf("expected ErrVariantExists got %v", err)
	}
}

func TestRegistryNewDataClonesDefaults(t *testing.T) {
	registry := entitystore.NewRegistry()
	first, err := registry.NewData("hero_banner")
	if err != nil {
		t.Fatalf("new data: %v", err)
	}
	first["align"] = "center"

	second, err := registry.NewData("hero_banner")
	if err != nil {
		t.Fatalf("new data again: %v", err)
	}
	if second["align"] != "left" {
		t.Fatalf("defaults leaked between instances: %v", second["align"])
	}
	if second["height"] != 36 {
		t.Fatalf("expected default height 36 got %v", second["height"])
	}
}

func TestMemoryLinkReplaceIsWholesale(t *testing.T) {
	store := entitystore.NewMemoryStore()
	ctx := context.Background()
	pageID := uuid.MustParse("6f1f64ad-4f6a-4f26-9a59-0c07c1e19a01")

	links := store.Links()
	for i, id := range []string{
		"13a3c44a-61a1-4a79-bd2c-1e3a3fd8a101",
		"13a3c44a-61a1-4a79-bd2c-1e3a3fd8a102",
	} {
		if _, err := links.Create(ctx, &entitystore.PageComponent{
			ID:          uuid.MustParse(id),
			PageID:      pageID,
			ComponentID: uuid.MustParse(id),
			ViewOrder:   i + 1,
		}); err != nil {
			t.Fatalf("create link: %v", err)
		}
	}

	replacement := &entitystore.PageComponent{
		ID:          uuid.MustParse("13a3c44a-61a1-4a79-bd2c-1e3a3fd8a103"),
		PageID:      pageID,
		ComponentID: uuid.MustParse("13a3c44a-61a1-4a79-bd2c-1e3a3fd8a103"),
		ViewOrder:   1,
	}
	if err := links.Replace(ctx, pageID, []*entitystore.PageComponent{replacement}); err != nil {
		t.Fatalf("replace links: %v", err)
	}

	remaining, err := links.ListByPage(ctx, pageID)
	if err != nil {
		t.Fatalf("list links: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ComponentID != replacement.ComponentID {
		t.Fatalf("expected only replacement link, got %d rows", len(remaining))
	}
}
