package forms_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-pagekit/entity"
	entitystore "github.com/goliatone/go-pagekit/internal/entity"
	"github.com/goliatone/go-pagekit/internal/forms"
)

type formFixture struct {
	svc      forms.Service
	entities entitystore.Service
	store    *entitystore.MemoryStore
}

func newFormFixture(opts ...forms.ServiceOption) *formFixture {
	store := entitystore.NewMemoryStore()
	registry := entitystore.NewRegistry()
	handlers := forms.DefaultHandlerRegistry(nil, store.Components(), registry, nil, time.Second)
	return &formFixture{
		svc:      forms.NewService(store.Components(), store.Triggers(), store.Submissions(), store.EventLogs(), handlers, opts...),
		entities: entitystore.NewService(store.Pages(), store.Components(), registry),
		store:    store,
	}
}

func (f *formFixture) form(t *testing.T, data map[string]any) *entity.Component {
	t.Helper()
	payload := map[string]any{
		"form_title": "Contact",
		"form_config": map[string]any{
			"fields": []any{
				map[string]any{"name": "name", "type": "text", "required": true},
				map[string]any{"name": "email", "type": "email"},
				map[string]any{"name": "age", "type": "number"},
			},
		},
	}
	for key, value := range data {
		payload[key] = value
	}
	form, err := f.entities.CreateComponent(context.Background(), entitystore.CreateComponentInput{
		TypeTag: "form",
		Title:   "Contact form",
		Data:    payload,
	})
	if err != nil {
		t.Fatalf("create form: %v", err)
	}
	return form
}

func TestSubmitRejectsInvalidPayload(t *testing.T) {
	f := newFormFixture()
	ctx := context.Background()
	form := f.form(t, nil)

	_, err := f.svc.Submit(ctx, form.ID, map[string]any{"email": "not-an-address"}, forms.RequestContext{})
	var verr *forms.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError got %v", err)
	}
	if verr.Fields["name"] == "" {
		t.Fatalf("expected issue on required name field, got %v", verr.Fields)
	}
	if verr.Fields["email"] == "" {
		t.Fatalf("expected issue on malformed email, got %v", verr.Fields)
	}

	submissions, err := f.svc.ListSubmissions(ctx, form.ID)
	if err != nil {
		t.Fatalf("list submissions: %v", err)
	}
	if len(submissions) != 0 {
		t.Fatal("rejected submission must not be persisted")
	}
}

func TestSubmitRunsTriggersInOrderWithConditions(t *testing.T) {
	f := newFormFixture()
	ctx := context.Background()
	form := f.form(t, nil)

	gated, err := f.svc.CreateTrigger(ctx, forms.CreateTriggerInput{
		FormID: form.ID,
		Name:   "adults only",
		Kind:   "notification",
		Order:  1,
		Config: map[string]any{"message": "adult submission"},
		Conditions: []forms.ConditionInput{
			{Field: "age", Operator: "greater_than", Value: "18"},
		},
	})
	if err != nil {
		t.Fatalf("create gated trigger: %v", err)
	}
	always, err := f.svc.CreateTrigger(ctx, forms.CreateTriggerInput{
		FormID: form.ID,
		Name:   "always",
		Kind:   "notification",
		Order:  2,
		Config: map[string]any{"message": "received"},
	})
	if err != nil {
		t.Fatalf("create second trigger: %v", err)
	}

	result, err := f.svc.Submit(ctx, form.ID, map[string]any{"name": "Kim", "age": 10}, forms.RequestContext{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(result.Events) != 2 {
		t.Fatalf("expected 2 events got %d", len(result.Events))
	}
	if result.Events[0].TriggerID != gated.ID || result.Events[0].Status != "skipped" {
		t.Fatalf("expected gated trigger skipped first, got %+v", result.Events[0])
	}
	if result.Events[0].Message != "conditions not met" {
		t.Fatalf("unexpected skip message %q", result.Events[0].Message)
	}
	if result.Events[1].TriggerID != always.ID || result.Events[1].Status != "success" {
		t.Fatalf("expected unconditional trigger success second, got %+v", result.Events[1])
	}
	if result.Message != "Form submitted successfully!" {
		t.Fatalf("unexpected success message %q", result.Message)
	}

	result, err = f.svc.Submit(ctx, form.ID, map[string]any{"name": "Kim", "age": 30}, forms.RequestContext{})
	if err != nil {
		t.Fatalf("submit adult: %v", err)
	}
	if result.Events[0].Status != "success" || result.Events[1].Status != "success" {
		t.Fatalf("expected both triggers to fire, got %+v", result.Events)
	}

	logs, err := f.svc.ListTriggerLogs(ctx, gated.ID)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 audit rows got %d", len(logs))
	}
}

func TestSubmitSkipsTriggersOnMissingConditionField(t *testing.T) {
	f := newFormFixture()
	ctx := context.Background()
	form := f.form(t, nil)

	if _, err := f.svc.CreateTrigger(ctx, forms.CreateTriggerInput{
		FormID: form.ID,
		Name:   "minors excluded",
		Kind:   "notification",
		Order:  1,
		Config: map[string]any{"message": "not eighteen"},
		Conditions: []forms.ConditionInput{
			{Field: "age", Operator: "not_equals", Value: "18"},
		},
	}); err != nil {
		t.Fatalf("create not_equals trigger: %v", err)
	}
	if _, err := f.svc.CreateTrigger(ctx, forms.CreateTriggerInput{
		FormID: form.ID,
		Name:   "adults only",
		Kind:   "notification",
		Order:  2,
		Config: map[string]any{"message": "adult submission"},
		Conditions: []forms.ConditionInput{
			{Field: "age", Operator: "greater_than", Value: "18"},
		},
	}); err != nil {
		t.Fatalf("create greater_than trigger: %v", err)
	}

	result, err := f.svc.Submit(ctx, form.ID, map[string]any{"name": "Kim"}, forms.RequestContext{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(result.Events) != 2 {
		t.Fatalf("expected 2 events got %d", len(result.Events))
	}
	for _, event := range result.Events {
		if event.Status != "skipped" {
			t.Fatalf("absent condition field must skip, got %+v", event)
		}
		if event.Message != "conditions not met" {
			t.Fatalf("unexpected skip message %q", event.Message)
		}
	}
}

func TestSubmitSurfacesRedirect(t *testing.T) {
	f := newFormFixture()
	ctx := context.Background()
	form := f.form(t, nil)

	if _, err := f.svc.CreateTrigger(ctx, forms.CreateTriggerInput{
		FormID: form.ID,
		Name:   "thanks",
		Kind:   "redirect",
		Config: map[string]any{"redirect_url": "/thanks"},
	}); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	result, err := f.svc.Submit(ctx, form.ID, map[string]any{"name": "Kim"}, forms.RequestContext{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.RedirectURL != "/thanks" {
		t.Fatalf("expected redirect /thanks got %q", result.RedirectURL)
	}
}

func TestSubmitWithoutPersistenceStillRunsTriggers(t *testing.T) {
	f := newFormFixture()
	ctx := context.Background()
	form := f.form(t, map[string]any{"save_submissions": false})

	trigger, err := f.svc.CreateTrigger(ctx, forms.CreateTriggerInput{
		FormID: form.ID,
		Name:   "audit",
		Kind:   "notification",
		Config: map[string]any{"message": "noted"},
	})
	if err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	result, err := f.svc.Submit(ctx, form.ID, map[string]any{"name": "Kim"}, forms.RequestContext{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Persisted {
		t.Fatal("submission must not persist when save_submissions is off")
	}

	submissions, err := f.svc.ListSubmissions(ctx, form.ID)
	if err != nil {
		t.Fatalf("list submissions: %v", err)
	}
	if len(submissions) != 0 {
		t.Fatal("unexpected stored submission")
	}

	logs, err := f.svc.ListTriggerLogs(ctx, trigger.ID)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected audit row even without persistence, got %d", len(logs))
	}
}

func TestWebhookTriggerReportsUpstreamFailure(t *testing.T) {
	f := newFormFixture()
	ctx := context.Background()
	form := f.form(t, nil)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	if _, err := f.svc.CreateTrigger(ctx, forms.CreateTriggerInput{
		FormID: form.ID,
		Name:   "notify upstream",
		Kind:   "webhook",
		Order:  1,
		Config: map[string]any{"url": upstream.URL},
	}); err != nil {
		t.Fatalf("create webhook trigger: %v", err)
	}
	if _, err := f.svc.CreateTrigger(ctx, forms.CreateTriggerInput{
		FormID: form.ID,
		Name:   "fallback",
		Kind:   "notification",
		Order:  2,
		Config: map[string]any{"message": "still here"},
	}); err != nil {
		t.Fatalf("create fallback trigger: %v", err)
	}

	result, err := f.svc.Submit(ctx, form.ID, map[string]any{"name": "Kim"}, forms.RequestContext{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Events[0].Status != "error" {
		t.Fatalf("expected webhook error got %+v", result.Events[0])
	}
	if !strings.Contains(result.Events[0].Message, "502") {
		t.Fatalf("expected upstream status in message, got %q", result.Events[0].Message)
	}
	if result.Events[1].Status != "success" {
		t.Fatal("a failing trigger must not abort the rest of the chain")
	}
}

func TestWebhookTriggerPostsEnvelope(t *testing.T) {
	f := newFormFixture()
	ctx := context.Background()
	form := f.form(t, nil)

	var gotMethod, gotContentType string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	if _, err := f.svc.CreateTrigger(ctx, forms.CreateTriggerInput{
		FormID: form.ID,
		Name:   "notify upstream",
		Kind:   "webhook",
		Config: map[string]any{"url": upstream.URL},
	}); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	result, err := f.svc.Submit(ctx, form.ID, map[string]any{"name": "Kim"}, forms.RequestContext{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Events[0].Status != "success" {
		t.Fatalf("expected success got %+v", result.Events[0])
	}
	if gotMethod != http.MethodPost {
		t.Fatalf("expected POST got %s", gotMethod)
	}
	if gotContentType != "application/json" {
		t.Fatalf("expected json content type got %q", gotContentType)
	}
}

func TestDatabaseTriggerCreatesRecord(t *testing.T) {
	f := newFormFixture()
	ctx := context.Background()
	form := f.form(t, nil)

	if _, err := f.svc.CreateTrigger(ctx, forms.CreateTriggerInput{
		FormID: form.ID,
		Name:   "archive",
		Kind:   "database",
		Config: map[string]any{
			"target_type":   "text",
			"field_mapping": map[string]any{"name": "text"},
			"title":         "Archived submission",
		},
	}); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	result, err := f.svc.Submit(ctx, form.ID, map[string]any{"name": "Kim"}, forms.RequestContext{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Events[0].Status != "success" {
		t.Fatalf("expected success got %+v", result.Events[0])
	}

	components, err := f.entities.ListComponents(ctx)
	if err != nil {
		t.Fatalf("list components: %v", err)
	}
	var created *entity.Component
	for _, component := range components {
		if component.TypeTag == "text" && component.Title == "Archived submission" {
			created = component
		}
	}
	if created == nil {
		t.Fatal("database trigger did not create the mapped record")
	}
	if created.Data["text"] != "Kim" {
		t.Fatalf("mapped field not copied: %v", created.Data)
	}
}

func TestExpressionTriggerEvaluatesAgainstPayload(t *testing.T) {
	f := newFormFixture()
	ctx := context.Background()
	form := f.form(t, nil)

	if _, err := f.svc.CreateTrigger(ctx, forms.CreateTriggerInput{
		FormID: form.ID,
		Name:   "score",
		Kind:   "expression",
		Config: map[string]any{"expressions": map[string]any{"double_age": "age * 2"}},
	}); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	result, err := f.svc.Submit(ctx, form.ID, map[string]any{"name": "Kim", "age": 21}, forms.RequestContext{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Events[0].Status != "success" {
		t.Fatalf("expected success got %+v", result.Events[0])
	}
	if !strings.Contains(result.Events[0].Message, "42") {
		t.Fatalf("expected evaluated result in message, got %q", result.Events[0].Message)
	}
}

func TestCreateTriggerValidation(t *testing.T) {
	f := newFormFixture(forms.WithMaxTriggersPerForm(1))
	ctx := context.Background()
	form := f.form(t, nil)

	if _, err := f.svc.CreateTrigger(ctx, forms.CreateTriggerInput{
		FormID: form.ID,
		Name:   "   ",
		Kind:   "notification",
	}); !errors.Is(err, forms.ErrTriggerNameRequired) {
		t.Fatalf("expected ErrTriggerNameRequired got %v", err)
	}

	if _, err := f.svc.CreateTrigger(ctx, forms.CreateTriggerInput{
		FormID: form.ID,
		Name:   "mystery",
		Kind:   "carrier-pigeon",
	}); !errors.Is(err, forms.ErrTriggerKindUnknown) {
		t.Fatalf("expected ErrTriggerKindUnknown got %v", err)
	}

	var verr *forms.ValidationError
	if _, err := f.svc.CreateTrigger(ctx, forms.CreateTriggerInput{
		FormID: form.ID,
		Name:   "broken webhook",
		Kind:   "webhook",
		Config: map[string]any{"method": "POST"},
	}); !errors.As(err, &verr) {
		t.Fatalf("expected config ValidationError got %v", err)
	}

	if _, err := f.svc.CreateTrigger(ctx, forms.CreateTriggerInput{
		FormID: form.ID,
		Name:   "bad gate",
		Kind:   "notification",
		Conditions: []forms.ConditionInput{
			{Field: "age", Operator: "roughly", Value: 1},
		},
	}); !errors.Is(err, forms.ErrOperatorUnknown) {
		t.Fatalf("expected ErrOperatorUnknown got %v", err)
	}

	if _, err := f.svc.CreateTrigger(ctx, forms.CreateTriggerInput{
		FormID: form.ID,
		Name:   "first",
		Kind:   "notification",
	}); err != nil {
		t.Fatalf("create first trigger: %v", err)
	}
	if _, err := f.svc.CreateTrigger(ctx, forms.CreateTriggerInput{
		FormID: form.ID,
		Name:   "second",
		Kind:   "notification",
	}); !errors.Is(err, forms.ErrTooManyTriggers) {
		t.Fatalf("expected ErrTooManyTriggers got %v", err)
	}
}

func TestFormGuardRejectsNonFormComponents(t *testing.T) {
	f := newFormFixture()
	ctx := context.Background()

	plain, err := f.entities.CreateComponent(ctx, entitystore.CreateComponentInput{
		TypeTag: "text",
		Title:   "Not a form",
	})
	if err != nil {
		t.Fatalf("create component: %v", err)
	}

	if _, err := f.svc.GetConfig(ctx, plain.ID); !errors.Is(err, forms.ErrNotAForm) {
		t.Fatalf("expected ErrNotAForm got %v", err)
	}
	if _, err := f.svc.Submit(ctx, plain.ID, map[string]any{}, forms.RequestContext{}); !errors.Is(err, forms.ErrNotAForm) {
		t.Fatalf("expected ErrNotAForm on submit got %v", err)
	}
}

func TestUpdateTriggerConditionsTriState(t *testing.T) {
	f := newFormFixture()
	ctx := context.Background()
	form := f.form(t, nil)

	trigger, err := f.svc.CreateTrigger(ctx, forms.CreateTriggerInput{
		FormID: form.ID,
		Name:   "gated",
		Kind:   "notification",
		Conditions: []forms.ConditionInput{
			{Field: "age", Operator: "greater_than", Value: "18"},
		},
	})
	if err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	name := "renamed"
	updated, err := f.svc.UpdateTrigger(ctx, forms.UpdateTriggerInput{ID: trigger.ID, Name: &name})
	if err != nil {
		t.Fatalf("update trigger: %v", err)
	}
	if len(updated.Conditions) != 1 {
		t.Fatal("omitted conditions must leave the list unchanged")
	}

	updated, err = f.svc.UpdateTrigger(ctx, forms.UpdateTriggerInput{ID: trigger.ID, HasConditions: true})
	if err != nil {
		t.Fatalf("clear conditions: %v", err)
	}
	if len(updated.Conditions) != 0 {
		t.Fatal("explicit empty conditions must clear the list")
	}
}

func TestUpdateConfigRoundTrip(t *testing.T) {
	f := newFormFixture()
	ctx := context.Background()
	form := f.form(t, nil)

	config, err := f.svc.GetConfig(ctx, form.ID)
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if config.SubmitText != "Submit" {
		t.Fatalf("expected default submit text got %q", config.SubmitText)
	}
	if !config.SaveSubmissions {
		t.Fatal("expected save_submissions default on")
	}
	if len(config.Fields) != 3 {
		t.Fatalf("expected 3 fields got %d", len(config.Fields))
	}

	config.Title = "Support"
	config.SuccessMessage = "We will be in touch."
	config.Fields = append(config.Fields, forms.FieldSpec{Name: "topic", Type: "select", Options: []string{"sales", "support"}})
	stored, err := f.svc.UpdateConfig(ctx, form.ID, *config)
	if err != nil {
		t.Fatalf("update config: %v", err)
	}
	if stored.Title != "Support" || stored.SuccessMessage != "We will be in touch." {
		t.Fatalf("settings not stored: %+v", stored)
	}
	if len(stored.Fields) != 4 {
		t.Fatalf("expected 4 fields after update got %d", len(stored.Fields))
	}

	config.Title = " "
	var verr *forms.ValidationError
	if _, err := f.svc.UpdateConfig(ctx, form.ID, *config); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError on blank title got %v", err)
	}
}
