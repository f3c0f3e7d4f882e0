package forms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-pagekit/entity"
	entitystore "github.com/goliatone/go-pagekit/internal/entity"
	"github.com/goliatone/go-pagekit/internal/logging"
	"github.com/goliatone/go-pagekit/pkg/interfaces"
	"github.com/google/uuid"
)

// HandlerContext is everything a trigger handler may act on.
type HandlerContext struct {
	Trigger    *entity.FormTrigger
	Form       *entity.Component
	FormConfig FormConfig
	Submission *entity.FormSubmission
	Payload    map[string]any
}

// Outcome is a handler's report. An error return at the Execute level is
// converted by the engine into an error outcome; it never aborts the
// remaining triggers.
type Outcome struct {
	Message     string
	RedirectURL string
}

// Handler performs one trigger kind's side effect.
type Handler interface {
	Kind() entity.TriggerKind
	Execute(ctx context.Context, hc HandlerContext) (Outcome, error)
}

// HandlerRegistry maps trigger kinds to handlers. The set is closed:
// handlers are selected by lookup, never loaded dynamically.
type HandlerRegistry struct {
	handlers map[entity.TriggerKind]Handler
}

// NewHandlerRegistry returns an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[entity.TriggerKind]Handler)}
}

// Register adds or replaces the handler for a kind.
func (r *HandlerRegistry) Register(handler Handler) {
	if handler == nil {
		return
	}
	r.handlers[handler.Kind()] = handler
}

// Resolve returns the handler for a kind.
func (r *HandlerRegistry) Resolve(kind entity.TriggerKind) (Handler, error) {
	handler, ok := r.handlers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotRegistered, kind)
	}
	return handler, nil
}

// Kinds lists the registered kinds, sorted.
func (r *HandlerRegistry) Kinds() []entity.TriggerKind {
	out := make([]entity.TriggerKind, 0, len(r.handlers))
	for kind := range r.handlers {
		out = append(out, kind)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DefaultHandlerRegistry wires the builtin handler set.
func DefaultHandlerRegistry(
	mailer interfaces.Mailer,
	components entitystore.ComponentRepository,
	registry *entitystore.Registry,
	logger interfaces.Logger,
	webhookTimeout time.Duration,
) *HandlerRegistry {
	if logger == nil {
		logger = logging.NoOp()
	}
	r := NewHandlerRegistry()
	r.Register(&emailHandler{mailer: mailer, logger: logger})
	r.Register(&webhookHandler{client: &http.Client{}, defaultTimeout: webhookTimeout})
	r.Register(&databaseHandler{components: components, registry: registry})
	r.Register(&notificationHandler{logger: logger})
	r.Register(&redirectHandler{})
	r.Register(&expressionHandler{})
	return r
}

type emailHandler struct {
	mailer interfaces.Mailer
	logger interfaces.Logger
}

func (*emailHandler) Kind() entity.TriggerKind { return entity.TriggerEmail }

var defaultEmailTemplate = template.Must(template.New("email").Parse(
	`<h2>{{.FormTitle}}</h2><p>New submission received at {{.SubmittedAt}}.</p><ul>{{range .Fields}}<li><strong>{{.Name}}</strong>: {{.Value}}</li>{{end}}</ul>`,
))

func (h *emailHandler) Execute(ctx context.Context, hc HandlerContext) (Outcome, error) {
	recipients := configStrings(hc.Trigger.Config, "recipients")
	if len(recipients) == 0 {
		recipients = hc.FormConfig.NotificationEmails
	}
	if len(recipients) == 0 {
		return Outcome{}, fmt.Errorf("email: no recipients configured")
	}

	subject := configString(hc.Trigger.Config, "subject")
	if subject == "" {
		subject = "New submission: " + hc.FormConfig.Title
	}

	body := h.renderBody(hc)
	if h.mailer == nil {
		h.logger.Info("email trigger without mailer, logging only",
			"trigger_id", hc.Trigger.ID, "recipients", strings.Join(recipients, ","))
		return Outcome{Message: fmt.Sprintf("logged email to %d recipient(s)", len(recipients))}, nil
	}
	if err := h.mailer.Send(ctx, interfaces.MailMessage{To: recipients, Subject: subject, HTML: body}); err != nil {
		return Outcome{}, fmt.Errorf("email: %w", err)
	}
	return Outcome{Message: fmt.Sprintf("sent to %d recipient(s)", len(recipients))}, nil
}

// renderBody renders the configured template, falling back to a generated
// summary when rendering fails.
func (h *emailHandler) renderBody(hc HandlerContext) string {
	type fieldRow struct {
		Name  string
		Value any
	}
	data := struct {
		FormTitle   string
		SubmittedAt time.Time
		Fields      []fieldRow
	}{
		FormTitle:   hc.FormConfig.Title,
		SubmittedAt: hc.Submission.SubmittedAt,
	}
	names := make([]string, 0, len(hc.Payload))
	for name := range hc.Payload {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		data.Fields = append(data.Fields, fieldRow{Name: name, Value: hc.Payload[name]})
	}

	tmpl := defaultEmailTemplate
	if custom := configString(hc.Trigger.Config, "template"); custom != "" {
		parsed, err := template.New("email").Parse(custom)
		if err == nil {
			tmpl = parsed
		} else {
			h.logger.Warn("email template parse failed, using fallback", "trigger_id", hc.Trigger.ID, "error", err)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		h.logger.Warn("email template render failed, using fallback", "trigger_id", hc.Trigger.ID, "error", err)
		var plain strings.Builder
		fmt.Fprintf(&plain, "New submission for %s\n", hc.FormConfig.Title)
		for _, row := range data.Fields {
			fmt.Fprintf(&plain, "%s: %v\n", row.Name, row.Value)
		}
		return plain.String()
	}
	return buf.String()
}

type webhookHandler struct {
	client         *http.Client
	defaultTimeout time.Duration
}

func (*webhookHandler) Kind() entity.TriggerKind { return entity.TriggerWebhook }

func (h *webhookHandler) Execute(ctx context.Context, hc HandlerContext) (Outcome, error) {
	url := configString(hc.Trigger.Config, "url")
	if url == "" {
		return Outcome{}, fmt.Errorf("webhook: url is required")
	}
	method := strings.ToUpper(configString(hc.Trigger.Config, "method"))
	if method == "" {
		method = http.MethodPost
	}

	envelope := map[string]any{
		"form_id":         hc.Submission.FormID,
		"form_title":      hc.FormConfig.Title,
		"submission_data": hc.Payload,
		"timestamp":       hc.Submission.SubmittedAt.UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return Outcome{}, fmt.Errorf("webhook: encode payload: %w", err)
	}

	timeout := h.defaultTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if seconds, ok := configNumber(hc.Trigger.Config, "timeout"); ok && seconds > 0 {
		timeout = time.Duration(seconds * float64(time.Second))
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, url, bytes.NewReader(body))
	if err != nil {
		return Outcome{}, fmt.Errorf("webhook: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if headers, ok := hc.Trigger.Config["headers"].(map[string]any); ok {
		for name, value := range headers {
			req.Header.Set(name, stringify(value))
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Outcome{}, fmt.Errorf("webhook: %s responded %d", url, resp.StatusCode)
	}
	return Outcome{Message: fmt.Sprintf("%s %s -> %d", method, url, resp.StatusCode)}, nil
}

type databaseHandler struct {
	components entitystore.ComponentRepository
	registry   *entitystore.Registry
}

func (*databaseHandler) Kind() entity.TriggerKind { return entity.TriggerDatabase }

// Execute maps named submission fields onto a registered component variant
// and creates the record. Unknown target types are an error.
func (h *databaseHandler) Execute(ctx context.Context, hc HandlerContext) (Outcome, error) {
	targetType := configString(hc.Trigger.Config, "target_type")
	if targetType == "" {
		return Outcome{}, fmt.Errorf("database: target_type is required")
	}
	variant, err := h.registry.Resolve(targetType)
	if err != nil {
		return Outcome{}, fmt.Errorf("database: %w", err)
	}
	if variant.Kind != entity.KindComponent {
		return Outcome{}, fmt.Errorf("database: %s is not a component variant", targetType)
	}

	data, err := h.registry.NewData(variant.TypeTag)
	if err != nil {
		return Outcome{}, fmt.Errorf("database: %w", err)
	}
	declared := make(map[string]struct{}, len(variant.Fields))
	for _, field := range variant.Fields {
		declared[field.Name] = struct{}{}
	}

	mapping, _ := hc.Trigger.Config["field_mapping"].(map[string]any)
	for sourceField, rawTarget := range mapping {
		targetField := stringify(rawTarget)
		if _, ok := declared[targetField]; !ok {
			return Outcome{}, fmt.Errorf("database: %s has no field %q", targetType, targetField)
		}
		if value, ok := hc.Payload[sourceField]; ok {
			data[targetField] = value
		}
	}

	title := configString(hc.Trigger.Config, "title")
	if title == "" {
		title = fmt.Sprintf("%s submission %s", hc.FormConfig.Title, hc.Submission.ID)
	}
	now := hc.Submission.SubmittedAt
	record := &entity.Component{
		ID:        uuid.New(),
		TypeTag:   variant.TypeTag,
		Title:     title,
		IsActive:  true,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := h.components.Create(ctx, record)
	if err != nil {
		return Outcome{}, fmt.Errorf("database: %w", err)
	}
	return Outcome{Message: fmt.Sprintf("created %s %s", targetType, created.ID)}, nil
}

type notificationHandler struct {
	logger interfaces.Logger
}

func (*notificationHandler) Kind() entity.TriggerKind { return entity.TriggerNotification }

func (h *notificationHandler) Execute(_ context.Context, hc HandlerContext) (Outcome, error) {
	message := configString(hc.Trigger.Config, "message")
	if message == "" {
		message = "submission received"
	}
	h.logger.Info("form notification",
		"form_id", hc.Submission.FormID,
		"trigger_id", hc.Trigger.ID,
		"message", message,
	)
	return Outcome{Message: message}, nil
}

type redirectHandler struct{}

func (*redirectHandler) Kind() entity.TriggerKind { return entity.TriggerRedirect }

func (*redirectHandler) Execute(_ context.Context, hc HandlerContext) (Outcome, error) {
	target := configString(hc.Trigger.Config, "redirect_url")
	if target == "" {
		return Outcome{}, fmt.Errorf("redirect: redirect_url is required")
	}
	return Outcome{Message: "redirect to " + target, RedirectURL: target}, nil
}

type expressionHandler struct{}

func (*expressionHandler) Kind() entity.TriggerKind { return entity.TriggerExpression }

// Execute evaluates the configured expressions against submission fields.
// The language has no function calls and no I/O; results are reported in
// the outcome message.
func (*expressionHandler) Execute(_ context.Context, hc HandlerContext) (Outcome, error) {
	expressions, _ := hc.Trigger.Config["expressions"].(map[string]any)
	if len(expressions) == 0 {
		return Outcome{}, fmt.Errorf("expression: expressions map is required")
	}

	names := make([]string, 0, len(expressions))
	for name := range expressions {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]any, len(names))
	for _, name := range names {
		source := stringify(expressions[name])
		value, err := EvalExpression(source, hc.Payload)
		if err != nil {
			return Outcome{}, fmt.Errorf("expression %q: %w", name, err)
		}
		results[name] = value
	}

	encoded, err := json.Marshal(results)
	if err != nil {
		return Outcome{}, fmt.Errorf("expression: encode results: %w", err)
	}
	return Outcome{Message: string(encoded)}, nil
}

func configString(config map[string]any, key string) string {
	if config == nil {
		return ""
	}
	value, ok := config[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func configStrings(config map[string]any, key string) []string {
	if config == nil {
		return nil
	}
	switch typed := config[key].(type) {
	case []string:
		return typed
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if s := strings.TrimSpace(stringify(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		parts := strings.Split(typed, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func configNumber(config map[string]any, key string) (float64, bool) {
	if config == nil {
		return 0, false
	}
	value, ok := config[key]
	if !ok {
		return 0, false
	}
	n, err := toNumber(value)
	if err != nil {
		return 0, false
	}
	return n, true
}
