package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Kind discriminates the two polymorphic entity families.
type Kind string

const (
	KindPage      Kind = "page"
	KindComponent Kind = "component"
)

// Page is a polymorphic page record. Variant-specific fields live in Data,
// keyed by the field names the variant registry declares for TypeTag.
type Page struct {
	bun.BaseModel `bun:"table:pages,alias:p"`

	ID        uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	TypeTag   string         `bun:"type_tag,notnull" json:"type_tag"`
	Title     string         `bun:"title,notnull" json:"title"`
	Slug      string         `bun:"slug" json:"slug,omitempty"`
	ParentID  *uuid.UUID     `bun:"parent_id,type:uuid" json:"parent_id,omitempty"`
	LayoutID  *uuid.UUID     `bun:"layout_id,type:uuid" json:"layout_id,omitempty"`
	IsActive  bool           `bun:"is_active,notnull,default:true" json:"is_active"`
	IsDeleted bool           `bun:"is_deleted,notnull,default:false" json:"is_deleted"`
	Data      map[string]any `bun:"data,type:jsonb" json:"data,omitempty"`
	Draft     *DraftState    `bun:"draft,type:jsonb" json:"draft,omitempty"`
	CreatedAt time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	Links []*PageComponent `bun:"rel:has-many,join:id=page_id" json:"links,omitempty"`
}

// Component is a polymorphic component record, usable standalone or linked
// to pages through PageComponent rows. Deletion is always soft.
type Component struct {
	bun.BaseModel `bun:"table:components,alias:c"`

	ID        uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	TypeTag   string         `bun:"type_tag,notnull" json:"type_tag"`
	Title     string         `bun:"title,notnull" json:"title"`
	HTMLID    string         `bun:"html_id" json:"html_id,omitempty"`
	IsActive  bool           `bun:"is_active,notnull,default:true" json:"is_active"`
	IsDeleted bool           `bun:"is_deleted,notnull,default:false" json:"is_deleted"`
	Data      map[string]any `bun:"data,type:jsonb" json:"data,omitempty"`
	Draft     *DraftState    `bun:"draft,type:jsonb" json:"draft,omitempty"`
	CreatedAt time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// PageComponent links a component onto a page at a position. ViewOrder is a
// strict total order per page; the composer keeps it dense.
type PageComponent struct {
	bun.BaseModel `bun:"table:page_components,alias:pc"`

	ID          uuid.UUID `bun:",pk,type:uuid" json:"id"`
	PageID      uuid.UUID `bun:"page_id,notnull,type:uuid" json:"page_id"`
	ComponentID uuid.UUID `bun:"component_id,notnull,type:uuid" json:"component_id"`
	ViewOrder   int       `bun:"view_order,notnull,default:1" json:"view_order"`
	CreatedAt   time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`

	Component *Component `bun:"rel:belongs-to,join:component_id=id" json:"component,omitempty"`
}

// LayoutZone describes one slot in a layout template.
type LayoutZone struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Title        string  `json:"title"`
	Type         string  `json:"type"`
	Width        *int    `json:"width,omitempty"`
	GridTemplate *string `json:"grid_template,omitempty"`
}

// Layout is a predefined zone template identified by a unique code slug.
// Layouts are a static catalog, not user-authored geometry.
type Layout struct {
	bun.BaseModel `bun:"table:layouts,alias:l"`

	ID          uuid.UUID    `bun:",pk,type:uuid" json:"id"`
	Name        string       `bun:"name,notnull" json:"name"`
	Code        string       `bun:"code,notnull,unique" json:"code"`
	Description string       `bun:"description" json:"description,omitempty"`
	Zones       []LayoutZone `bun:"zones,type:jsonb" json:"zones,omitempty"`
	CreatedAt   time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// DraftState is the staged-change payload embedded in a page or component.
// A stage request overwrites it wholesale; publish consumes and clears it.
// Components is nil when the draft does not touch the page's component
// list, and non-nil (possibly empty, meaning "remove all") when it does.
type DraftState struct {
	EntityData map[string]any   `json:"entity_data,omitempty"`
	Components []DraftComponent `json:"components"`
	StagedAt   time.Time        `json:"staged_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// HasComponents reports whether the draft stages a component list override.
func (d *DraftState) HasComponents() bool {
	return d != nil && d.Components != nil
}

// DraftComponent references one component inside a staged component list.
// A nil ID instructs publish to instantiate a new component of TypeTag.
type DraftComponent struct {
	ID        *uuid.UUID     `json:"id,omitempty"`
	TypeTag   string         `json:"type_tag,omitempty"`
	Title     string         `json:"title,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	ViewOrder int            `json:"view_order"`
}

// TriggerKind enumerates the fixed set of side effects a form trigger can
// perform. The set is closed; handlers are selected by lookup, never loaded.
type TriggerKind string

const (
	TriggerEmail        TriggerKind = "email"
	TriggerWebhook      TriggerKind = "webhook"
	TriggerDatabase     TriggerKind = "database"
	TriggerNotification TriggerKind = "notification"
	TriggerRedirect     TriggerKind = "redirect"
	TriggerExpression   TriggerKind = "expression"
)

// TriggerCondition gates a trigger on one submitted field.
type TriggerCondition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// FormTrigger is a configured, conditionally evaluated action run after a
// form submission. Triggers run ordered by (Order, CreatedAt).
type FormTrigger struct {
	bun.BaseModel `bun:"table:form_triggers,alias:ft"`

	ID         uuid.UUID          `bun:",pk,type:uuid" json:"id"`
	FormID     uuid.UUID          `bun:"form_id,notnull,type:uuid" json:"form_id"`
	Name       string             `bun:"name,notnull" json:"name"`
	Kind       TriggerKind        `bun:"kind,notnull" json:"kind"`
	IsActive   bool               `bun:"is_active,notnull,default:true" json:"is_active"`
	Order      int                `bun:"trigger_order,notnull,default:0" json:"order"`
	Config     map[string]any     `bun:"config,type:jsonb" json:"config,omitempty"`
	Conditions []TriggerCondition `bun:"conditions,type:jsonb" json:"conditions,omitempty"`
	CreatedAt  time.Time          `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time          `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// FormSubmission stores one inbound submission. Data is schema-less at
// storage time; the form's field schema only gates validation.
type FormSubmission struct {
	bun.BaseModel `bun:"table:form_submissions,alias:fs"`

	ID          uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	FormID      uuid.UUID      `bun:"form_id,notnull,type:uuid" json:"form_id"`
	Data        map[string]any `bun:"submitted_data,type:jsonb,notnull" json:"submitted_data"`
	SubmittedAt time.Time      `bun:"submitted_at,nullzero,default:current_timestamp" json:"submitted_at"`
	IPAddress   string         `bun:"ip_address" json:"ip_address,omitempty"`
	UserAgent   string         `bun:"user_agent" json:"user_agent,omitempty"`
	UserID      *uuid.UUID     `bun:"user_id,type:uuid" json:"user_id,omitempty"`
}

// EventStatus is the recorded outcome of one trigger evaluation.
type EventStatus string

const (
	EventSuccess EventStatus = "success"
	EventError   EventStatus = "error"
	EventSkipped EventStatus = "skipped"
)

// FormEventLog is the append-only audit trail: one row per trigger
// evaluation per submission, success or not.
type FormEventLog struct {
	bun.BaseModel `bun:"table:form_event_logs,alias:fel"`

	ID            uuid.UUID     `bun:",pk,type:uuid" json:"id"`
	TriggerID     uuid.UUID     `bun:"trigger_id,notnull,type:uuid" json:"trigger_id"`
	SubmissionID  uuid.UUID     `bun:"submission_id,notnull,type:uuid" json:"submission_id"`
	Status        EventStatus   `bun:"status,notnull" json:"status"`
	Message       string        `bun:"message" json:"message,omitempty"`
	ExecutionTime time.Duration `bun:"execution_time" json:"execution_time"`
	CreatedAt     time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}
