package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"

	pagekit "github.com/goliatone/go-pagekit"
	"github.com/goliatone/go-pagekit/entity"
	"github.com/goliatone/go-pagekit/internal/composer"
	"github.com/goliatone/go-pagekit/internal/drafts"
	entitystore "github.com/goliatone/go-pagekit/internal/entity"
	"github.com/goliatone/go-pagekit/internal/forms"
)

func main() {
	ctx := context.Background()

	cfg := pagekit.DefaultConfig()
	cfg.I18N.Locales = []string{"en", "es"}

	module, err := pagekit.New(cfg)
	if err != nil {
		log.Fatalf("initialise pagekit: %v", err)
	}
	defer module.Close()

	if err := module.Init(ctx); err != nil {
		log.Fatalf("seed builtin layouts: %v", err)
	}

	if len(os.Args) > 1 && os.Args[1] == "serve" {
		if err := seed(ctx, module); err != nil {
			log.Fatalf("seed demo content: %v", err)
		}
		mux := http.NewServeMux()
		if err := module.AdminAPI().Register(mux); err != nil {
			log.Fatalf("register admin api: %v", err)
		}
		log.Println("admin api listening on :8080 under /admin/api")
		log.Fatal(http.ListenAndServe(":8080", mux))
	}

	payload, err := runDemo(ctx, module)
	if err != nil {
		log.Fatalf("run demo: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		log.Fatalf("encode output: %v", err)
	}
}

func seed(ctx context.Context, module *pagekit.Module) error {
	_, err := runDemo(ctx, module)
	return err
}

func runDemo(ctx context.Context, module *pagekit.Module) (map[string]any, error) {
	entities := module.Entities()
	comp := module.Composer()
	draftSvc := module.Drafts()
	formSvc := module.Forms()

	hero, err := entities.CreateComponent(ctx, entitystore.CreateComponentInput{
		TypeTag: "hero_banner",
		Title:   "Launch hero",
		Data: map[string]any{
			"subtitle_en": "Composable pages, typed components",
			"subtitle_es": "Paginas componibles, componentes tipados",
			"cta_text_en": "Get started",
		},
	})
	if err != nil {
		return nil, err
	}
	intro, err := entities.CreateComponent(ctx, entitystore.CreateComponentInput{
		TypeTag: "text",
		Title:   "Intro copy",
		Data:    map[string]any{"text_en": "pagekit composes pages out of reusable, typed components."},
	})
	if err != nil {
		return nil, err
	}

	page, err := entities.CreatePage(ctx, entitystore.CreatePageInput{
		TypeTag: "page",
		Title:   "Company Overview",
		Data:    map[string]any{"content_en": "Who we are and what we build."},
	})
	if err != nil {
		return nil, err
	}

	for i, component := range []*entity.Component{hero, intro} {
		if _, err := comp.Attach(ctx, composer.AttachInput{
			PageID:      page.ID,
			ComponentID: component.ID,
			ViewOrder:   i + 1,
		}); err != nil {
			return nil, err
		}
	}

	// stage a revision: retitle the page and append a fresh component,
	// then publish the whole draft in one step
	if _, err := draftSvc.Stage(ctx, drafts.StageInput{
		Kind:     entity.KindPage,
		EntityID: page.ID,
		Fields:   map[string]any{"title": "Company Overview 2.0"},
		Components: []entity.DraftComponent{
			{ID: &hero.ID, ViewOrder: 1},
			{ID: &intro.ID, ViewOrder: 2},
			{TypeTag: "text", Title: "Closing note", Data: map[string]any{"text_en": "Drafted and published together."}, ViewOrder: 3},
		},
	}); err != nil {
		return nil, err
	}
	publish, err := draftSvc.Publish(ctx, entity.KindPage, page.ID)
	if err != nil {
		return nil, err
	}

	form, err := entities.CreateComponent(ctx, entitystore.CreateComponentInput{
		TypeTag: "form",
		Title:   "Contact form",
		Data: map[string]any{
			"form_title": "Contact us",
			"form_config": map[string]any{
				"fields": []any{
					map[string]any{"name": "name", "type": "text", "required": true},
					map[string]any{"name": "email", "type": "email", "required": true},
					map[string]any{"name": "age", "type": "number"},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	if _, err := formSvc.CreateTrigger(ctx, forms.CreateTriggerInput{
		FormID: form.ID,
		Name:   "adults newsletter",
		Kind:   "notification",
		Order:  1,
		Config: map[string]any{"message": "eligible for newsletter"},
		Conditions: []forms.ConditionInput{
			{Field: "age", Operator: "greater_than", Value: "18"},
		},
	}); err != nil {
		return nil, err
	}
	if _, err := formSvc.CreateTrigger(ctx, forms.CreateTriggerInput{
		FormID: form.ID,
		Name:   "thank you",
		Kind:   "redirect",
		Order:  2,
		Config: map[string]any{"redirect_url": "/thank-you"},
	}); err != nil {
		return nil, err
	}

	submission, err := formSvc.Submit(ctx, form.ID, map[string]any{
		"name":  "Ada",
		"email": "ada@example.com",
		"age":   34,
	}, forms.RequestContext{IPAddress: "127.0.0.1", UserAgent: "pagekit-example"})
	if err != nil {
		return nil, err
	}

	placed, err := comp.ListComponents(ctx, page.ID)
	if err != nil {
		return nil, err
	}
	components := make([]map[string]any, 0, len(placed))
	for _, item := range placed {
		components = append(components, map[string]any{
			"id":         item.Component.ID,
			"type_tag":   item.Component.TypeTag,
			"title":      item.Component.Title,
			"view_order": item.Link.ViewOrder,
		})
	}

	layouts, err := comp.ListLayouts(ctx)
	if err != nil {
		return nil, err
	}
	layoutCodes := make([]string, 0, len(layouts))
	for _, layout := range layouts {
		layoutCodes = append(layoutCodes, layout.Code)
	}

	published, err := entities.GetPage(ctx, page.ID)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"page": map[string]any{
			"id":         published.ID,
			"title":      published.Title,
			"slug":       published.Slug,
			"components": components,
		},
		"publish": publish,
		"layouts": layoutCodes,
		"form": map[string]any{
			"id":         form.ID,
			"submission": submission,
		},
	}, nil
}
