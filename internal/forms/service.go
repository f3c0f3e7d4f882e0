package forms

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-pagekit/entity"
	entitystore "github.com/goliatone/go-pagekit/internal/entity"
	"github.com/goliatone/go-pagekit/internal/logging"
	"github.com/goliatone/go-pagekit/pkg/interfaces"
	"github.com/google/uuid"
)

const formTypeTag = "form"

// Service is the form rule engine: config management, submission
// validation, trigger CRUD, and the submit pipeline.
type Service interface {
	GetConfig(ctx context.Context, formID uuid.UUID) (*FormConfig, error)
	UpdateConfig(ctx context.Context, formID uuid.UUID, config FormConfig) (*FormConfig, error)
	Validate(config FormConfig, payload map[string]any) map[string]string
	Submit(ctx context.Context, formID uuid.UUID, payload map[string]any, reqCtx RequestContext) (*SubmitResult, error)

	CreateTrigger(ctx context.Context, input CreateTriggerInput) (*entity.FormTrigger, error)
	GetTrigger(ctx context.Context, id uuid.UUID) (*entity.FormTrigger, error)
	ListTriggers(ctx context.Context, formID uuid.UUID) ([]*entity.FormTrigger, error)
	UpdateTrigger(ctx context.Context, input UpdateTriggerInput) (*entity.FormTrigger, error)
	DeleteTrigger(ctx context.Context, id uuid.UUID) error

	ListSubmissions(ctx context.Context, formID uuid.UUID) ([]*entity.FormSubmission, error)
	ListTriggerLogs(ctx context.Context, triggerID uuid.UUID) ([]*entity.FormEventLog, error)
}

// ServiceOption configures the form engine.
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

// WithMaxTriggersPerForm caps how many triggers one form may carry.
// Zero means unlimited.
func WithMaxTriggersPerForm(limit int) ServiceOption {
	return func(s *service) {
		s.maxTriggers = limit
	}
}

type service struct {
	components  entitystore.ComponentRepository
	triggers    entitystore.TriggerRepository
	submissions entitystore.SubmissionRepository
	events      entitystore.EventLogRepository
	handlers    *HandlerRegistry
	logger      interfaces.Logger
	now         func() time.Time
	id          func() uuid.UUID
	maxTriggers int
}

// NewService builds the form engine.
func NewService(
	components entitystore.ComponentRepository,
	triggers entitystore.TriggerRepository,
	submissions entitystore.SubmissionRepository,
	events entitystore.EventLogRepository,
	handlers *HandlerRegistry,
	opts ...ServiceOption,
) Service {
	s := &service{
		components:  components,
		triggers:    triggers,
		submissions: submissions,
		events:      events,
		handlers:    handlers,
		logger:      logging.NoOp(),
		now:         time.Now,
		id:          uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) getForm(ctx context.Context, formID uuid.UUID) (*entity.Component, error) {
	component, err := s.components.GetByID(ctx, formID)
	if err != nil {
		return nil, err
	}
	if component.TypeTag != formTypeTag {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotAForm, formID, component.TypeTag)
	}
	return component, nil
}

func (s *service) GetConfig(ctx context.Context, formID uuid.UUID) (*FormConfig, error) {
	form, err := s.getForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	config := parseFormConfig(form.Data)
	return &config, nil
}

func (s *service) UpdateConfig(ctx context.Context, formID uuid.UUID, config FormConfig) (*FormConfig, error) {
	form, err := s.getForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	if issues := validateFormConfig(config); len(issues) > 0 {
		return nil, &ValidationError{Fields: issues}
	}

	if form.Data == nil {
		form.Data = make(map[string]any)
	}
	storeFormConfig(form.Data, config)
	form.UpdatedAt = s.now()
	if _, err := s.components.Update(ctx, form); err != nil {
		return nil, fmt.Errorf("update form config: %w", err)
	}
	stored := parseFormConfig(form.Data)
	return &stored, nil
}

// Validate applies the form's field schema to a payload: required fields
// must be present and non-empty, email fields must parse as addresses.
func (s *service) Validate(config FormConfig, payload map[string]any) map[string]string {
	issues := make(map[string]string)
	for _, field := range config.Fields {
		value, present := payload[field.Name]
		text := strings.TrimSpace(stringify(value))

		if field.Required {
			if !present || text == "" {
				issues[field.Name] = "This field is required"
				continue
			}
		}
		if text == "" {
			continue
		}
		if strings.EqualFold(field.Type, "email") {
			if err := validation.Validate(text, is.Email); err != nil {
				issues[field.Name] = "Invalid email address"
			}
		}
	}
	return issues
}

func (s *service) Submit(ctx context.Context, formID uuid.UUID, payload map[string]any, reqCtx RequestContext) (*SubmitResult, error) {
	form, err := s.getForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	config := parseFormConfig(form.Data)

	if issues := s.Validate(config, payload); len(issues) > 0 {
		return nil, &ValidationError{Fields: issues}
	}

	submission := &entity.FormSubmission{
		ID:          s.id(),
		FormID:      formID,
		Data:        payload,
		SubmittedAt: s.now(),
		IPAddress:   reqCtx.IPAddress,
		UserAgent:   reqCtx.UserAgent,
		UserID:      reqCtx.UserID,
	}
	persisted := false
	if config.SaveSubmissions {
		if _, err := s.submissions.Create(ctx, submission); err != nil {
			return nil, fmt.Errorf("persist submission: %w", err)
		}
		persisted = true
	}

	triggers, err := s.triggers.ListByForm(ctx, formID, true)
	if err != nil {
		return nil, fmt.Errorf("load triggers: %w", err)
	}

	result := &SubmitResult{
		SubmissionID: submission.ID,
		Persisted:    persisted,
		Message:      config.SuccessMessage,
		Events:       make([]EventResult, 0, len(triggers)),
	}
	for _, trigger := range triggers {
		event := s.runTrigger(ctx, trigger, HandlerContext{
			Trigger:    trigger,
			Form:       form,
			FormConfig: config,
			Submission: submission,
			Payload:    payload,
		})
		if trigger.Kind == entity.TriggerRedirect && event.Status == string(entity.EventSuccess) && result.RedirectURL == "" {
			result.RedirectURL = event.Message
		}
		result.Events = append(result.Events, event)
	}
	return result, nil
}

// runTrigger evaluates one trigger and appends its audit row. A failing
// handler yields an error outcome; it never aborts later triggers.
func (s *service) runTrigger(ctx context.Context, trigger *entity.FormTrigger, hc HandlerContext) EventResult {
	event := EventResult{
		TriggerID: trigger.ID,
		Name:      trigger.Name,
		Kind:      string(trigger.Kind),
	}

	matched, err := evaluateConditions(trigger.Conditions, hc.Payload)
	switch {
	case err != nil:
		event.Status = string(entity.EventError)
		event.Message = err.Error()
	case !matched:
		event.Status = string(entity.EventSkipped)
		event.Message = "conditions not met"
	default:
		outcome, duration, err := s.executeHandler(ctx, trigger, hc)
		event.Duration = duration
		if err != nil {
			event.Status = string(entity.EventError)
			event.Message = err.Error()
		} else {
			event.Status = string(entity.EventSuccess)
			if trigger.Kind == entity.TriggerRedirect && outcome.RedirectURL != "" {
				event.Message = outcome.RedirectURL
			} else {
				event.Message = outcome.Message
			}
		}
	}

	s.appendLog(ctx, trigger, hc.Submission, event)
	return event
}

func (s *service) executeHandler(ctx context.Context, trigger *entity.FormTrigger, hc HandlerContext) (outcome Outcome, duration time.Duration, err error) {
	handler, err := s.handlers.Resolve(trigger.Kind)
	if err != nil {
		return Outcome{}, 0, err
	}

	started := s.now()
	defer func() {
		duration = s.now().Sub(started)
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("handler panic: %v", recovered)
			s.logger.Error("trigger handler panicked", "trigger_id", trigger.ID, "panic", recovered)
		}
	}()
	outcome, err = handler.Execute(ctx, hc)
	return outcome, duration, err
}

func (s *service) appendLog(ctx context.Context, trigger *entity.FormTrigger, submission *entity.FormSubmission, event EventResult) {
	log := &entity.FormEventLog{
		ID:            s.id(),
		TriggerID:     trigger.ID,
		SubmissionID:  submission.ID,
		Status:        entity.EventStatus(event.Status),
		Message:       event.Message,
		ExecutionTime: event.Duration,
		CreatedAt:     s.now(),
	}
	if _, err := s.events.Create(ctx, log); err != nil {
		s.logger.Error("append form event log failed", "trigger_id", trigger.ID, "error", err)
	}
}

func (s *service) CreateTrigger(ctx context.Context, input CreateTriggerInput) (*entity.FormTrigger, error) {
	if _, err := s.getForm(ctx, input.FormID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTriggerNameRequired
	}
	kind := entity.TriggerKind(strings.TrimSpace(input.Kind))
	conditions, err := normalizeConditions(input.Conditions)
	if err != nil {
		return nil, err
	}
	if err := validateTriggerConfig(kind, input.Config); err != nil {
		return nil, err
	}

	if s.maxTriggers > 0 {
		existing, err := s.triggers.ListByForm(ctx, input.FormID, false)
		if err != nil {
			return nil, err
		}
		if len(existing) >= s.maxTriggers {
			return nil, fmt.Errorf("%w: limit %d", ErrTooManyTriggers, s.maxTriggers)
		}
	}

	now := s.now()
	trigger := &entity.FormTrigger{
		ID:         s.id(),
		FormID:     input.FormID,
		Name:       name,
		Kind:       kind,
		IsActive:   input.IsActive == nil || *input.IsActive,
		Order:      input.Order,
		Config:     input.Config,
		Conditions: conditions,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	created, err := s.triggers.Create(ctx, trigger)
	if err != nil {
		return nil, fmt.Errorf("create trigger: %w", err)
	}
	s.logger.Debug("trigger created", "form_id", input.FormID, "trigger_id", created.ID, "kind", kind)
	return created, nil
}

func (s *service) GetTrigger(ctx context.Context, id uuid.UUID) (*entity.FormTrigger, error) {
	return s.triggers.GetByID(ctx, id)
}

func (s *service) ListTriggers(ctx context.Context, formID uuid.UUID) ([]*entity.FormTrigger, error) {
	if _, err := s.getForm(ctx, formID); err != nil {
		return nil, err
	}
	return s.triggers.ListByForm(ctx, formID, false)
}

func (s *service) UpdateTrigger(ctx context.Context, input UpdateTriggerInput) (*entity.FormTrigger, error) {
	trigger, err := s.triggers.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrTriggerNameRequired
		}
		trigger.Name = name
	}
	if input.Kind != nil {
		trigger.Kind = entity.TriggerKind(strings.TrimSpace(*input.Kind))
	}
	if input.IsActive != nil {
		trigger.IsActive = *input.IsActive
	}
	if input.Order != nil {
		trigger.Order = *input.Order
	}
	if input.Config != nil {
		trigger.Config = input.Config
	}
	if input.HasConditions {
		conditions, err := normalizeConditions(input.Conditions)
		if err != nil {
			return nil, err
		}
		trigger.Conditions = conditions
	}
	if err := validateTriggerConfig(trigger.Kind, trigger.Config); err != nil {
		return nil, err
	}
	trigger.UpdatedAt = s.now()

	updated, err := s.triggers.Update(ctx, trigger)
	if err != nil {
		return nil, fmt.Errorf("update trigger: %w", err)
	}
	return updated, nil
}

func (s *service) DeleteTrigger(ctx context.Context, id uuid.UUID) error {
	return s.triggers.Delete(ctx, id)
}

func (s *service) ListSubmissions(ctx context.Context, formID uuid.UUID) ([]*entity.FormSubmission, error) {
	if _, err := s.getForm(ctx, formID); err != nil {
		return nil, err
	}
	return s.submissions.ListByForm(ctx, formID)
}

func (s *service) ListTriggerLogs(ctx context.Context, triggerID uuid.UUID) ([]*entity.FormEventLog, error) {
	if _, err := s.triggers.GetByID(ctx, triggerID); err != nil {
		return nil, err
	}
	return s.events.ListByTrigger(ctx, triggerID)
}

func normalizeConditions(inputs []ConditionInput) ([]entity.TriggerCondition, error) {
	if inputs == nil {
		return nil, nil
	}
	out := make([]entity.TriggerCondition, 0, len(inputs))
	for _, input := range inputs {
		field := strings.TrimSpace(input.Field)
		operator := strings.TrimSpace(input.Operator)
		if field == "" {
			return nil, &ValidationError{Fields: map[string]string{"conditions": "condition field is required"}}
		}
		if !validOperator(operator) {
			return nil, fmt.Errorf("%w: %q", ErrOperatorUnknown, operator)
		}
		out = append(out, entity.TriggerCondition{Field: field, Operator: operator, Value: input.Value})
	}
	return out, nil
}
