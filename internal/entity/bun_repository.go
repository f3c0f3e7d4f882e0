package entity

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunStore backs every repository with bun. Replace and Renumber run inside
// db.RunInTx so link rewrites commit or roll back as one unit.
type BunStore struct {
	db          *bun.DB
	pages       repository.Repository[*Page]
	components  repository.Repository[*Component]
	links       repository.Repository[*PageComponent]
	layouts     repository.Repository[*Layout]
	triggers    repository.Repository[*FormTrigger]
	submissions repository.Repository[*FormSubmission]
	events      repository.Repository[*FormEventLog]
}

// NewBunStore builds a store without read caching.
func NewBunStore(db *bun.DB) *BunStore {
	return NewBunStoreWithCache(db, nil, nil)
}

// NewBunStoreWithCache builds a store whose repositories are wrapped with
// go-repository-cache when both the cache service and key serializer are set.
func NewBunStoreWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunStore {
	return &BunStore{
		db:          db,
		pages:       wrapWithCache(newPageRepository(db), cacheService, keySerializer),
		components:  wrapWithCache(newComponentRepository(db), cacheService, keySerializer),
		links:       wrapWithCache(newLinkRepository(db), cacheService, keySerializer),
		layouts:     wrapWithCache(newLayoutRepository(db), cacheService, keySerializer),
		triggers:    wrapWithCache(newTriggerRepository(db), cacheService, keySerializer),
		submissions: wrapWithCache(newSubmissionRepository(db), cacheService, keySerializer),
		events:      wrapWithCache(newEventLogRepository(db), cacheService, keySerializer),
	}
}

func (s *BunStore) Pages() PageRepository             { return &bunPages{store: s} }
func (s *BunStore) Components() ComponentRepository   { return &bunComponents{store: s} }
func (s *BunStore) Links() LinkRepository             { return &bunLinks{store: s} }
func (s *BunStore) Layouts() LayoutRepository         { return &bunLayouts{store: s} }
func (s *BunStore) Triggers() TriggerRepository       { return &bunTriggers{store: s} }
func (s *BunStore) Submissions() SubmissionRepository { return &bunSubmissions{store: s} }
func (s *BunStore) EventLogs() EventLogRepository     { return &bunEventLogs{store: s} }

type bunPages struct{ store *BunStore }

func (r *bunPages) Create(ctx context.Context, page *Page) (*Page, error) {
	created, err := r.store.pages.Create(ctx, page)
	if err != nil {
		return nil, mapRepositoryError(err, "page", page.ID.String())
	}
	return created, nil
}

func (r *bunPages) GetByID(ctx context.Context, id uuid.UUID) (*Page, error) {
	records, _, err := r.store.pages.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.id = ?", id).Where("?TableAlias.is_deleted = ?", false)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "page", id.String())
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "page", Key: id.String()}
	}
	return records[0], nil
}

func (r *bunPages) Update(ctx context.Context, page *Page) (*Page, error) {
	updated, err := r.store.pages.Update(ctx, page,
		repository.UpdateByID(page.ID.String()),
		repository.UpdateColumns(
			"type_tag",
			"title",
			"slug",
			"parent_id",
			"layout_id",
			"is_active",
			"is_deleted",
			"data",
			"draft",
			"updated_at",
		),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "page", page.ID.String())
	}
	return updated, nil
}

func (r *bunPages) ApplyPublish(ctx context.Context, page *Page, links []*PageComponent, replaceLinks bool) (*Page, error) {
	if r.store.db == nil {
		return nil, fmt.Errorf("page repository: database not configured")
	}
	err := r.store.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewUpdate().
			Model(page).
			Column("title", "slug", "parent_id", "layout_id", "is_active", "data", "draft", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("publish page: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("publish rows affected: %w", err)
		}
		if affected == 0 {
			return &NotFoundError{Resource: "page", Key: page.ID.String()}
		}

		if !replaceLinks {
			return nil
		}

		if _, err := tx.NewDelete().
			Model((*PageComponent)(nil)).
			Where("?TableAlias.page_id = ?", page.ID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete page links: %w", err)
		}
		if len(links) == 0 {
			return nil
		}
		toInsert := make([]*PageComponent, 0, len(links))
		for _, link := range links {
			if link == nil {
				continue
			}
			cloned := *link
			cloned.PageID = page.ID
			cloned.Component = nil
			if cloned.ID == uuid.Nil {
				cloned.ID = uuid.New()
			}
			if cloned.CreatedAt.IsZero() {
				cloned.CreatedAt = time.Now().UTC()
			}
			toInsert = append(toInsert, &cloned)
		}
		if len(toInsert) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&toInsert).Exec(ctx); err != nil {
			return fmt.Errorf("insert page links: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (r *bunPages) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if r.store.db == nil {
		return fmt.Errorf("page repository: database not configured")
	}
	result, err := r.store.db.NewUpdate().
		Model((*Page)(nil)).
		Set("is_deleted = ?", true).
		Set("updated_at = ?", time.Now().UTC()).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.is_deleted = ?", false).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("soft delete page: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("page delete rows affected: %w", err)
	}
	if affected == 0 {
		return &NotFoundError{Resource: "page", Key: id.String()}
	}
	return nil
}

func (r *bunPages) Delete(ctx context.Context, id uuid.UUID) error {
	if r.store.db == nil {
		return fmt.Errorf("page repository: database not configured")
	}
	return r.store.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*PageComponent)(nil)).
			Where("?TableAlias.page_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete page links: %w", err)
		}

		result, err := tx.NewDelete().
			Model((*Page)(nil)).
			Where("?TableAlias.id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete page: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("page delete rows affected: %w", err)
		}
		if affected == 0 {
			return &NotFoundError{Resource: "page", Key: id.String()}
		}
		return nil
	})
}

func (r *bunPages) List(ctx context.Context, opts ListPagesOptions) ([]*Page, error) {
	records, _, err := r.store.pages.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			if !opts.IncludeDeleted {
				q = q.Where("?TableAlias.is_deleted = ?", false)
			}
			if opts.ExcludeID != nil {
				q = q.Where("?TableAlias.id != ?", *opts.ExcludeID)
			}
			if search := strings.TrimSpace(opts.Search); search != "" {
				q = q.Where("LOWER(?TableAlias.title) LIKE ?", "%"+strings.ToLower(search)+"%")
			}
			return q.OrderExpr("?TableAlias.created_at ASC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "page", "")
	}
	return records, nil
}

type bunComponents struct{ store *BunStore }

func (r *bunComponents) Create(ctx context.Context, component *Component) (*Component, error) {
	created, err := r.store.components.Create(ctx, component)
	if err != nil {
		return nil, mapRepositoryError(err, "component", component.ID.String())
	}
	return created, nil
}

func (r *bunComponents) GetByID(ctx context.Context, id uuid.UUID) (*Component, error) {
	records, _, err := r.store.components.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.id = ?", id).Where("?TableAlias.is_deleted = ?", false)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "component", id.String())
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "component", Key: id.String()}
	}
	return records[0], nil
}

func (r *bunComponents) Update(ctx context.Context, component *Component) (*Component, error) {
	updated, err := r.store.components.Update(ctx, component,
		repository.UpdateByID(component.ID.String()),
		repository.UpdateColumns(
			"type_tag",
			"title",
			"html_id",
			"is_active",
			"is_deleted",
			"data",
			"draft",
			"updated_at",
		),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "component", component.ID.String())
	}
	return updated, nil
}

func (r *bunComponents) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if r.store.db == nil {
		return fmt.Errorf("component repository: database not configured")
	}
	result, err := r.store.db.NewUpdate().
		Model((*Component)(nil)).
		Set("is_deleted = ?", true).
		Set("updated_at = ?", time.Now().UTC()).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.is_deleted = ?", false).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("soft delete component: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("component delete rows affected: %w", err)
	}
	if affected == 0 {
		return &NotFoundError{Resource: "component", Key: id.String()}
	}
	return nil
}

func (r *bunComponents) List(ctx context.Context) ([]*Component, error) {
	records, _, err := r.store.components.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.is_deleted = ?", false).OrderExpr("?TableAlias.created_at ASC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "component", "")
	}
	return records, nil
}

type bunLinks struct{ store *BunStore }

func (r *bunLinks) Create(ctx context.Context, link *PageComponent) (*PageComponent, error) {
	created, err := r.store.links.Create(ctx, link)
	if err != nil {
		return nil, mapRepositoryError(err, "page component", link.ID.String())
	}
	return created, nil
}

func (r *bunLinks) GetByPair(ctx context.Context, pageID, componentID uuid.UUID) (*PageComponent, error) {
	records, _, err := r.store.links.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.page_id = ?", pageID).Where("?TableAlias.component_id = ?", componentID)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "page component", pageID.String())
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "page component", Key: pageID.String() + "/" + componentID.String()}
	}
	return records[0], nil
}

func (r *bunLinks) ListByPage(ctx context.Context, pageID uuid.UUID) ([]*PageComponent, error) {
	records, _, err := r.store.links.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.page_id = ?", pageID).
				OrderExpr("?TableAlias.view_order ASC, ?TableAlias.created_at ASC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "page component", pageID.String())
	}
	return records, nil
}

func (r *bunLinks) ListAll(ctx context.Context) ([]*PageComponent, error) {
	records, _, err := r.store.links.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.view_order ASC, ?TableAlias.created_at ASC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "page component", "")
	}
	return records, nil
}

func (r *bunLinks) Replace(ctx context.Context, pageID uuid.UUID, links []*PageComponent) error {
	if r.store.db == nil {
		return fmt.Errorf("link repository: database not configured")
	}
	return r.store.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*PageComponent)(nil)).
			Where("?TableAlias.page_id = ?", pageID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete page links: %w", err)
		}

		if len(links) == 0 {
			return nil
		}

		now := time.Now().UTC()
		toInsert := make([]*PageComponent, 0, len(links))
		for _, link := range links {
			if link == nil {
				continue
			}
			cloned := *link
			cloned.PageID = pageID
			cloned.Component = nil
			if cloned.ID == uuid.Nil {
				cloned.ID = uuid.New()
			}
			if cloned.CreatedAt.IsZero() {
				cloned.CreatedAt = now
			}
			toInsert = append(toInsert, &cloned)
		}

		if len(toInsert) == 0 {
			return nil
		}

		if _, err := tx.NewInsert().Model(&toInsert).Exec(ctx); err != nil {
			return fmt.Errorf("insert page links: %w", err)
		}
		return nil
	})
}

func (r *bunLinks) Renumber(ctx context.Context, pageID uuid.UUID, orders map[uuid.UUID]int) error {
	if r.store.db == nil {
		return fmt.Errorf("link repository: database not configured")
	}
	if len(orders) == 0 {
		return nil
	}
	return r.store.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for componentID, order := range orders {
			if _, err := tx.NewUpdate().
				Model((*PageComponent)(nil)).
				Set("view_order = ?", order).
				Where("?TableAlias.page_id = ?", pageID).
				Where("?TableAlias.component_id = ?", componentID).
				Exec(ctx); err != nil {
				return fmt.Errorf("renumber page link: %w", err)
			}
		}
		return nil
	})
}

func (r *bunLinks) DeleteByPage(ctx context.Context, pageID uuid.UUID) error {
	if r.store.db == nil {
		return fmt.Errorf("link repository: database not configured")
	}
	if _, err := r.store.db.NewDelete().
		Model((*PageComponent)(nil)).
		Where("?TableAlias.page_id = ?", pageID).
		Exec(ctx); err != nil {
		return fmt.Errorf("delete page links: %w", err)
	}
	return nil
}

func (r *bunLinks) DeleteByPair(ctx context.Context, pageID, componentID uuid.UUID) error {
	if r.store.db == nil {
		return fmt.Errorf("link repository: database not configured")
	}
	result, err := r.store.db.NewDelete().
		Model((*PageComponent)(nil)).
		Where("?TableAlias.page_id = ?", pageID).
		Where("?TableAlias.component_id = ?", componentID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete page link: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("page link rows affected: %w", err)
	}
	if affected == 0 {
		return &NotFoundError{Resource: "page component", Key: pageID.String() + "/" + componentID.String()}
	}
	return nil
}

type bunLayouts struct{ store *BunStore }

func (r *bunLayouts) Create(ctx context.Context, layout *Layout) (*Layout, error) {
	created, err := r.store.layouts.Create(ctx, layout)
	if err != nil {
		return nil, mapRepositoryError(err, "layout", layout.Code)
	}
	return created, nil
}

func (r *bunLayouts) GetByID(ctx context.Context, id uuid.UUID) (*Layout, error) {
	result, err := r.store.layouts.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "layout", id.String())
	}
	return result, nil
}

func (r *bunLayouts) GetByCode(ctx context.Context, code string) (*Layout, error) {
	records, _, err := r.store.layouts.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.code = ?", code)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "layout", code)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "layout", Key: code}
	}
	return records[0], nil
}

func (r *bunLayouts) List(ctx context.Context) ([]*Layout, error) {
	records, _, err := r.store.layouts.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.code ASC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "layout", "")
	}
	return records, nil
}

func (r *bunLayouts) Update(ctx context.Context, layout *Layout) (*Layout, error) {
	updated, err := r.store.layouts.Update(ctx, layout,
		repository.UpdateByID(layout.ID.String()),
		repository.UpdateColumns(
			"name",
			"code",
			"description",
			"zones",
			"updated_at",
		),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "layout", layout.ID.String())
	}
	return updated, nil
}

func (r *bunLayouts) Delete(ctx context.Context, id uuid.UUID) error {
	if r.store.db == nil {
		return fmt.Errorf("layout repository: database not configured")
	}
	result, err := r.store.db.NewDelete().
		Model((*Layout)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("layout delete rows affected: %w", err)
	}
	if affected == 0 {
		return &NotFoundError{Resource: "layout", Key: id.String()}
	}
	return nil
}

type bunTriggers struct{ store *BunStore }

func (r *bunTriggers) Create(ctx context.Context, trigger *FormTrigger) (*FormTrigger, error) {
	created, err := r.store.triggers.Create(ctx, trigger)
	if err != nil {
		return nil, mapRepositoryError(err, "form trigger", trigger.ID.String())
	}
	return created, nil
}

func (r *bunTriggers) GetByID(ctx context.Context, id uuid.UUID) (*FormTrigger, error) {
	result, err := r.store.triggers.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "form trigger", id.String())
	}
	return result, nil
}

func (r *bunTriggers) ListByForm(ctx context.Context, formID uuid.UUID, activeOnly bool) ([]*FormTrigger, error) {
	records, _, err := r.store.triggers.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("?TableAlias.form_id = ?", formID)
			if activeOnly {
				q = q.Where("?TableAlias.is_active = ?", true)
			}
			return q.OrderExpr("?TableAlias.trigger_order ASC, ?TableAlias.created_at ASC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "form trigger", formID.String())
	}
	return records, nil
}

func (r *bunTriggers) Update(ctx context.Context, trigger *FormTrigger) (*FormTrigger, error) {
	updated, err := r.store.triggers.Update(ctx, trigger,
		repository.UpdateByID(trigger.ID.String()),
		repository.UpdateColumns(
			"name",
			"kind",
			"is_active",
			"trigger_order",
			"config",
			"conditions",
			"updated_at",
		),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "form trigger", trigger.ID.String())
	}
	return updated, nil
}

func (r *bunTriggers) Delete(ctx context.Context, id uuid.UUID) error {
	if r.store.db == nil {
		return fmt.Errorf("trigger repository: database not configured")
	}
	result, err := r.store.db.NewDelete().
		Model((*FormTrigger)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete form trigger: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("form trigger rows affected: %w", err)
	}
	if affected == 0 {
		return &NotFoundError{Resource: "form trigger", Key: id.String()}
	}
	return nil
}

type bunSubmissions struct{ store *BunStore }

func (r *bunSubmissions) Create(ctx context.Context, submission *FormSubmission) (*FormSubmission, error) {
	created, err := r.store.submissions.Create(ctx, submission)
	if err != nil {
		return nil, mapRepositoryError(err, "form submission", submission.ID.String())
	}
	return created, nil
}

func (r *bunSubmissions) ListByForm(ctx context.Context, formID uuid.UUID) ([]*FormSubmission, error) {
	records, _, err := r.store.submissions.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.form_id = ?", formID).
				OrderExpr("?TableAlias.submitted_at DESC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "form submission", formID.String())
	}
	return records, nil
}

type bunEventLogs struct{ store *BunStore }

func (r *bunEventLogs) Create(ctx context.Context, log *FormEventLog) (*FormEventLog, error) {
	created, err := r.store.events.Create(ctx, log)
	if err != nil {
		return nil, mapRepositoryError(err, "form event log", log.ID.String())
	}
	return created, nil
}

func (r *bunEventLogs) ListByTrigger(ctx context.Context, triggerID uuid.UUID) ([]*FormEventLog, error) {
	return r.ListByTriggers(ctx, []uuid.UUID{triggerID})
}

func (r *bunEventLogs) ListByTriggers(ctx context.Context, triggerIDs []uuid.UUID) ([]*FormEventLog, error) {
	if len(triggerIDs) == 0 {
		return []*FormEventLog{}, nil
	}
	records, _, err := r.store.events.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.trigger_id IN (?)", bun.In(triggerIDs)).
				OrderExpr("?TableAlias.created_at DESC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "form event log", "")
	}
	return records, nil
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}

	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}

	return fmt.Errorf("%s repository error: %w", resource, err)
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
