package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-pagekit/internal/di"
	entitystore "github.com/goliatone/go-pagekit/internal/entity"
	"github.com/goliatone/go-pagekit/internal/runtimeconfig"
)

func newAdminMux(t *testing.T) (*http.ServeMux, *di.Container) {
	t.Helper()
	container, err := di.NewContainer(runtimeconfig.DefaultConfig())
	if err != nil {
		t.Fatalf("build container: %v", err)
	}
	t.Cleanup(func() { container.Close() })

	mux := http.NewServeMux()
	if err := container.AdminAPI().Register(mux); err != nil {
		t.Fatalf("register admin api: %v", err)
	}
	return mux, container
}

func do(t *testing.T, mux *http.ServeMux, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode request: %v", err)
		}
		body = bytes.NewBuffer(encoded)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestAdminPageLifecycle(t *testing.T) {
	mux, _ := newAdminMux(t)

	rec := do(t, mux, http.MethodPost, "/admin/api/pages", map[string]any{
		"type_tag": "page",
		"title":    "Home",
		"data":     map[string]any{"content": "welcome"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeBody(t, rec)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("created page missing id: %v", created)
	}
	if created["slug"] != "home" {
		t.Fatalf("expected generated slug, got %v", created["slug"])
	}

	rec = do(t, mux, http.MethodGet, "/admin/api/pages/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	fetched := decodeBody(t, rec)
	if fetched["title"] != "Home" {
		t.Fatalf("unexpected title %v", fetched["title"])
	}
	if fetched["has_draft"] != false {
		t.Fatal("fresh page must not report a draft")
	}

	rec = do(t, mux, http.MethodPatch, "/admin/api/pages/"+id, map[string]any{
		"data": map[string]any{"seo_title": "Homepage"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	patched := decodeBody(t, rec)
	if patched["seo_title"] != "Homepage" {
		t.Fatalf("patched data missing: %v", patched)
	}
	if patched["content"] != "welcome" {
		t.Fatal("patch must merge, not replace")
	}

	rec = do(t, mux, http.MethodDelete, "/admin/api/pages/"+id, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}

	rec = do(t, mux, http.MethodGet, "/admin/api/pages/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "not_found" {
		t.Fatalf("unexpected error code %v", body["error"])
	}
}

func TestAdminDraftFlow(t *testing.T) {
	mux, _ := newAdminMux(t)

	rec := do(t, mux, http.MethodPost, "/admin/api/pages", map[string]any{
		"type_tag": "page",
		"title":    "Launch",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	id := decodeBody(t, rec)["id"].(string)

	rec = do(t, mux, http.MethodGet, "/admin/api/pages/"+id+"/draft", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("draft read before staging: expected 404 got %d", rec.Code)
	}

	rec = do(t, mux, http.MethodPost, "/admin/api/pages/"+id+"/draft", map[string]any{
		"fields": map[string]any{"title": "Launch v2"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("stage draft: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, mux, http.MethodGet, "/admin/api/pages/"+id+"/draft", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("read draft: expected 200 got %d", rec.Code)
	}
	overlay := decodeBody(t, rec)
	record, _ := overlay["record"].(map[string]any)
	if record["title"] != "Launch v2" {
		t.Fatalf("draft overlay missing staged title: %v", record)
	}

	// live read is unaffected until publish
	rec = do(t, mux, http.MethodGet, "/admin/api/pages/"+id, nil)
	live := decodeBody(t, rec)
	if live["title"] != "Launch" {
		t.Fatalf("staging leaked into live read: %v", live["title"])
	}

	rec = do(t, mux, http.MethodPost, "/admin/api/pages/"+id+"/publish", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, mux, http.MethodGet, "/admin/api/pages/"+id, nil)
	live = decodeBody(t, rec)
	if live["title"] != "Launch v2" {
		t.Fatalf("publish not applied: %v", live["title"])
	}

	rec = do(t, mux, http.MethodPost, "/admin/api/pages/"+id+"/publish", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("publish without draft: expected 404 got %d", rec.Code)
	}
}

func TestAdminFormSubmitValidation(t *testing.T) {
	mux, container := newAdminMux(t)
	ctx := context.Background()

	form, err := container.Entities().CreateComponent(ctx, entitystore.CreateComponentInput{
		TypeTag: "form",
		Title:   "Contact form",
		Data: map[string]any{
			"form_title": "Contact",
			"form_config": map[string]any{
				"fields": []any{
					map[string]any{"name": "name", "type": "text", "required": true},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("create form: %v", err)
	}

	rec := do(t, mux, http.MethodPost, "/admin/api/forms/"+form.ID.String()+"/submit", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["error"] != "validation_failed" {
		t.Fatalf("unexpected error code %v", body["error"])
	}
	issues, _ := body["issues"].(map[string]any)
	if issues["name"] == nil {
		t.Fatalf("expected issue for name field, got %v", body)
	}

	rec = do(t, mux, http.MethodPost, "/admin/api/forms/"+form.ID.String()+"/submit", map[string]any{"name": "Kim"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	result := decodeBody(t, rec)
	if result["persisted"] != true {
		t.Fatalf("expected persisted submission, got %v", result)
	}
}

func TestAdminLayoutCatalog(t *testing.T) {
	mux, container := newAdminMux(t)

	if err := container.Composer().EnsureBuiltinLayouts(context.Background()); err != nil {
		t.Fatalf("seed layouts: %v", err)
	}

	rec := do(t, mux, http.MethodGet, "/admin/api/layouts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var layouts []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &layouts); err != nil {
		t.Fatalf("decode layouts: %v", err)
	}
	if len(layouts) != 4 {
		t.Fatalf("expected 4 builtin layouts got %d", len(layouts))
	}

	rec = do(t, mux, http.MethodPost, "/admin/api/layouts", map[string]any{
		"name": "Two Column",
		"code": "two-column",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminMetadataEndpoints(t *testing.T) {
	mux, _ := newAdminMux(t)

	rec := do(t, mux, http.MethodGet, "/admin/api/pages/metadata", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var pageTypes []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &pageTypes); err != nil {
		t.Fatalf("decode page types: %v", err)
	}
	if len(pageTypes) == 0 {
		t.Fatal("expected builtin page variants")
	}
	for _, meta := range pageTypes {
		if meta["kind"] != "page" {
			t.Fatalf("component variant leaked into page metadata: %v", meta)
		}
	}

	rec = do(t, mux, http.MethodGet, "/admin/api/components/types", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var componentTypes []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &componentTypes); err != nil {
		t.Fatalf("decode component types: %v", err)
	}
	if len(componentTypes) == 0 {
		t.Fatal("expected builtin component variants")
	}
}
