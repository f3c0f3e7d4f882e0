package forms

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotAForm             = errors.New("forms: component is not a form")
	ErrTriggerNameRequired  = errors.New("forms: trigger name is required")
	ErrTriggerKindUnknown   = errors.New("forms: trigger kind is unknown")
	ErrOperatorUnknown      = errors.New("forms: condition operator is unknown")
	ErrTooManyTriggers      = errors.New("forms: trigger limit reached for form")
	ErrHandlerNotRegistered = errors.New("forms: no handler registered for kind")
)

// FieldSpec is one entry of a form's field schema.
type FieldSpec struct {
	Name        string   `json:"name"`
	Label       string   `json:"label,omitempty"`
	Type        string   `json:"type"`
	Required    bool     `json:"required,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []string `json:"options,omitempty"`
}

// FormConfig is the editable schema + settings of a form component,
// stored inside the component's variant payload.
type FormConfig struct {
	Title              string      `json:"form_title"`
	Description        string      `json:"form_description,omitempty"`
	SubmitText         string      `json:"submit_text,omitempty"`
	SuccessMessage     string      `json:"success_message,omitempty"`
	Fields             []FieldSpec `json:"fields"`
	EmailNotifications bool        `json:"email_notifications"`
	NotificationEmails []string    `json:"notification_emails,omitempty"`
	SaveSubmissions    bool        `json:"save_submissions"`
}

// RequestContext carries submitter metadata captured at the HTTP boundary.
type RequestContext struct {
	IPAddress string
	UserAgent string
	UserID    *uuid.UUID
}

// EventResult reports one trigger evaluation inside a submit response.
type EventResult struct {
	TriggerID uuid.UUID     `json:"trigger_id"`
	Name      string        `json:"name"`
	Kind      string        `json:"kind"`
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// SubmitResult is the response payload of a successful submission.
type SubmitResult struct {
	SubmissionID uuid.UUID     `json:"submission_id"`
	Persisted    bool          `json:"persisted"`
	Message      string        `json:"message,omitempty"`
	RedirectURL  string        `json:"redirect_url,omitempty"`
	Events       []EventResult `json:"events"`
}

// ValidationError carries per-field submission failures. The submission is
// rejected without persistence and without trigger evaluation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "forms: validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "forms: validation failed (" + strings.Join(parts, "; ") + ")"
}

// CreateTriggerInput captures the data required to register a trigger.
type CreateTriggerInput struct {
	FormID     uuid.UUID
	Name       string
	Kind       string
	IsActive   *bool
	Order      int
	Config     map[string]any
	Conditions []ConditionInput
}

// UpdateTriggerInput captures mutable trigger fields.
type UpdateTriggerInput struct {
	ID         uuid.UUID
	Name       *string
	Kind       *string
	IsActive   *bool
	Order      *int
	Config     map[string]any
	Conditions []ConditionInput
	// HasConditions distinguishes "clear the list" from "leave unchanged".
	HasConditions bool
}

// ConditionInput is one {field, operator, value} gate on a trigger.
type ConditionInput struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}
