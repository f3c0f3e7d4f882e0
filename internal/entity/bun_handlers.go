package entity

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func newPageRepository(db *bun.DB) repository.Repository[*Page] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Page]{
		NewRecord: func() *Page { return &Page{} },
		GetID: func(p *Page) uuid.UUID {
			return p.ID
		},
		SetID: func(p *Page, id uuid.UUID) {
			p.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(p *Page) string {
			return p.Slug
		},
	})
}

func newComponentRepository(db *bun.DB) repository.Repository[*Component] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Component]{
		NewRecord: func() *Component { return &Component{} },
		GetID: func(c *Component) uuid.UUID {
			return c.ID
		},
		SetID: func(c *Component, id uuid.UUID) {
			c.ID = id
		},
		GetIdentifier: func() string {
			return "html_id"
		},
		GetIdentifierValue: func(c *Component) string {
			return c.HTMLID
		},
	})
}

func newLinkRepository(db *bun.DB) repository.Repository[*PageComponent] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*PageComponent]{
		NewRecord: func() *PageComponent { return &PageComponent{} },
		GetID: func(pc *PageComponent) uuid.UUID {
			return pc.ID
		},
		SetID: func(pc *PageComponent, id uuid.UUID) {
			pc.ID = id
		},
		GetIdentifier: func() string {
			return ""
		},
		GetIdentifierValue: func(*PageComponent) string {
			return ""
		},
	})
}

func newLayoutRepository(db *bun.DB) repository.Repository[*Layout] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Layout]{
		NewRecord: func() *Layout { return &Layout{} },
		GetID: func(l *Layout) uuid.UUID {
			return l.ID
		},
		SetID: func(l *Layout, id uuid.UUID) {
			l.ID = id
		},
		GetIdentifier: func() string {
			return "code"
		},
		GetIdentifierValue: func(l *Layout) string {
			return l.Code
		},
	})
}

func newTriggerRepository(db *bun.DB) repository.Repository[*FormTrigger] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*FormTrigger]{
		NewRecord: func() *FormTrigger { return &FormTrigger{} },
		GetID: func(t *FormTrigger) uuid.UUID {
			return t.ID
		},
		SetID: func(t *FormTrigger, id uuid.UUID) {
			t.ID = id
		},
		GetIdentifier: func() string {
			return ""
		},
		GetIdentifierValue: func(*FormTrigger) string {
			return ""
		},
	})
}

func newSubmissionRepository(db *bun.DB) repository.Repository[*FormSubmission] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*FormSubmission]{
		NewRecord: func() *FormSubmission { return &FormSubmission{} },
		GetID: func(s *FormSubmission) uuid.UUID {
			return s.ID
		},
		SetID: func(s *FormSubmission, id uuid.UUID) {
			s.ID = id
		},
		GetIdentifier: func() string {
			return ""
		},
		GetIdentifierValue: func(*FormSubmission) string {
			return ""
		},
	})
}

func newEventLogRepository(db *bun.DB) repository.Repository[*FormEventLog] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*FormEventLog]{
		NewRecord: func() *FormEventLog { return &FormEventLog{} },
		GetID: func(l *FormEventLog) uuid.UUID {
			return l.ID
		},
		SetID: func(l *FormEventLog, id uuid.UUID) {
			l.ID = id
		},
		GetIdentifier: func() string {
			return ""
		},
		GetIdentifierValue: func(*FormEventLog) string {
			return ""
		},
	})
}
