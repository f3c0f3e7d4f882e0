package entity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError reports a missing or soft-deleted record.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return "entity: not found"
	}
	return fmt.Sprintf("entity: %s %s not found", e.Resource, e.Key)
}

// ListPagesOptions filters page listings.
type ListPagesOptions struct {
	// Search matches page titles case-insensitively (substring).
	Search string
	// ExcludeID drops one page from the result, e.g. so an editor cannot
	// pick a page as its own parent.
	ExcludeID *uuid.UUID
	// IncludeDeleted keeps soft-deleted rows in the result.
	IncludeDeleted bool
}

// PageRepository persists polymorphic pages. Get and List hide
// soft-deleted rows unless asked otherwise.
type PageRepository interface {
	Create(ctx context.Context, page *Page) (*Page, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Page, error)
	Update(ctx context.Context, page *Page) (*Page, error)
	// ApplyPublish commits a published page and, when replaceLinks is set,
	// swaps its PageComponent rows for links in the same transaction.
	ApplyPublish(ctx context.Context, page *Page, links []*PageComponent, replaceLinks bool) (*Page, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, opts ListPagesOptions) ([]*Page, error)
}

// ComponentRepository persists polymorphic components. Deletion is always
// soft; rows other entities reference are never removed.
type ComponentRepository interface {
	Create(ctx context.Context, component *Component) (*Component, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Component, error)
	Update(ctx context.Context, component *Component) (*Component, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Component, error)
}

// LinkRepository owns PageComponent rows. Replace and Renumber are atomic:
// a failure leaves the prior committed link set unchanged.
type LinkRepository interface {
	Create(ctx context.Context, link *PageComponent) (*PageComponent, error)
	GetByPair(ctx context.Context, pageID, componentID uuid.UUID) (*PageComponent, error)
	ListByPage(ctx context.Context, pageID uuid.UUID) ([]*PageComponent, error)
	ListAll(ctx context.Context) ([]*PageComponent, error)
	Replace(ctx context.Context, pageID uuid.UUID, links []*PageComponent) error
	Renumber(ctx context.Context, pageID uuid.UUID, orders map[uuid.UUID]int) error
	DeleteByPage(ctx context.Context, pageID uuid.UUID) error
	DeleteByPair(ctx context.Context, pageID, componentID uuid.UUID) error
}

// LayoutRepository persists the static layout catalog.
type LayoutRepository interface {
	Create(ctx context.Context, layout *Layout) (*Layout, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Layout, error)
	GetByCode(ctx context.Context, code string) (*Layout, error)
	List(ctx context.Context) ([]*Layout, error)
	Update(ctx context.Context, layout *Layout) (*Layout, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TriggerRepository persists form triggers. ListByForm returns rows
// ordered by (Order, CreatedAt) ascending.
type TriggerRepository interface {
	Create(ctx context.Context, trigger *FormTrigger) (*FormTrigger, error)
	GetByID(ctx context.Context, id uuid.UUID) (*FormTrigger, error)
	ListByForm(ctx context.Context, formID uuid.UUID, activeOnly bool) ([]*FormTrigger, error)
	Update(ctx context.Context, trigger *FormTrigger) (*FormTrigger, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SubmissionRepository persists form submissions, newest first on list.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *FormSubmission) (*FormSubmission, error)
	ListByForm(ctx context.Context, formID uuid.UUID) ([]*FormSubmission, error)
}

// EventLogRepository appends and reads the trigger audit trail, newest
// first on list.
type EventLogRepository interface {
	Create(ctx context.Context, log *FormEventLog) (*FormEventLog, error)
	ListByTrigger(ctx context.Context, triggerID uuid.UUID) ([]*FormEventLog, error)
	ListByTriggers(ctx context.Context, triggerIDs []uuid.UUID) ([]*FormEventLog, error)
}
