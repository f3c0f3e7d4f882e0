package entity

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore backs every repository with in-process maps. One mutex covers
// all tables so multi-row operations (Replace, Renumber) stay atomic.
type MemoryStore struct {
	mu          sync.RWMutex
	pages       map[uuid.UUID]*Page
	components  map[uuid.UUID]*Component
	links       map[uuid.UUID]*PageComponent
	layouts     map[uuid.UUID]*Layout
	triggers    map[uuid.UUID]*FormTrigger
	submissions map[uuid.UUID]*FormSubmission
	events      map[uuid.UUID]*FormEventLog
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pages:       make(map[uuid.UUID]*Page),
		components:  make(map[uuid.UUID]*Component),
		links:       make(map[uuid.UUID]*PageComponent),
		layouts:     make(map[uuid.UUID]*Layout),
		triggers:    make(map[uuid.UUID]*FormTrigger),
		submissions: make(map[uuid.UUID]*FormSubmission),
		events:      make(map[uuid.UUID]*FormEventLog),
	}
}

func (s *MemoryStore) Pages() PageRepository             { return &memoryPages{store: s} }
func (s *MemoryStore) Components() ComponentRepository   { return &memoryComponents{store: s} }
func (s *MemoryStore) Links() LinkRepository             { return &memoryLinks{store: s} }
func (s *MemoryStore) Layouts() LayoutRepository         { return &memoryLayouts{store: s} }
func (s *MemoryStore) Triggers() TriggerRepository       { return &memoryTriggers{store: s} }
func (s *MemoryStore) Submissions() SubmissionRepository { return &memorySubmissions{store: s} }
func (s *MemoryStore) EventLogs() EventLogRepository     { return &memoryEventLogs{store: s} }

type memoryPages struct{ store *MemoryStore }

func (r *memoryPages) Create(_ context.Context, page *Page) (*Page, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored := clonePage(page)
	r.store.pages[stored.ID] = stored
	return clonePage(stored), nil
}

func (r *memoryPages) GetByID(_ context.Context, id uuid.UUID) (*Page, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	page, ok := r.store.pages[id]
	if !ok || page.IsDeleted {
		return nil, &NotFoundError{Resource: "page", Key: id.String()}
	}
	return clonePage(page), nil
}

func (r *memoryPages) Update(_ context.Context, page *Page) (*Page, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.pages[page.ID]; !ok {
		return nil, &NotFoundError{Resource: "page", Key: page.ID.String()}
	}
	stored := clonePage(page)
	r.store.pages[stored.ID] = stored
	return clonePage(stored), nil
}

func (r *memoryPages) ApplyPublish(_ context.Context, page *Page, links []*PageComponent, replaceLinks bool) (*Page, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.pages[page.ID]; !ok {
		return nil, &NotFoundError{Resource: "page", Key: page.ID.String()}
	}
	stored := clonePage(page)
	r.store.pages[stored.ID] = stored
	if replaceLinks {
		for id, link := range r.store.links {
			if link.PageID == page.ID {
				delete(r.store.links, id)
			}
		}
		for _, link := range links {
			cloned := cloneLink(link)
			cloned.PageID = page.ID
			r.store.links[cloned.ID] = cloned
		}
	}
	return clonePage(stored), nil
}

func (r *memoryPages) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	page, ok := r.store.pages[id]
	if !ok || page.IsDeleted {
		return &NotFoundError{Resource: "page", Key: id.String()}
	}
	page.IsDeleted = true
	page.UpdatedAt = time.Now()
	return nil
}

func (r *memoryPages) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.pages[id]; !ok {
		return &NotFoundError{Resource: "page", Key: id.String()}
	}
	delete(r.store.pages, id)
	for linkID, link := range r.store.links {
		if link.PageID == id {
			delete(r.store.links, linkID)
		}
	}
	return nil
}

func (r *memoryPages) List(_ context.Context, opts ListPagesOptions) ([]*Page, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(opts.Search))
	out := make([]*Page, 0, len(r.store.pages))
	for _, page := range r.store.pages {
		if page.IsDeleted && !opts.IncludeDeleted {
			continue
		}
		if opts.ExcludeID != nil && page.ID == *opts.ExcludeID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(page.Title), search) {
			continue
		}
		out = append(out, clonePage(page))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

type memoryComponents struct{ store *MemoryStore }

func (r *memoryComponents) Create(_ context.Context, component *Component) (*Component, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored := cloneComponent(component)
	r.store.components[stored.ID] = stored
	return cloneComponent(stored), nil
}

func (r *memoryComponents) GetByID(_ context.Context, id uuid.UUID) (*Component, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	component, ok := r.store.components[id]
	if !ok || component.IsDeleted {
		return nil, &NotFoundError{Resource: "component", Key: id.String()}
	}
	return cloneComponent(component), nil
}

func (r *memoryComponents) Update(_ context.Context, component *Component) (*Component, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.components[component.ID]; !ok {
		return nil, &NotFoundError{Resource: "component", Key: component.ID.String()}
	}
	stored := cloneComponent(component)
	r.store.components[stored.ID] = stored
	return cloneComponent(stored), nil
}

func (r *memoryComponents) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	component, ok := r.store.components[id]
	if !ok || component.IsDeleted {
		return &NotFoundError{Resource: "component", Key: id.String()}
	}
	component.IsDeleted = true
	component.UpdatedAt = time.Now()
	return nil
}

func (r *memoryComponents) List(_ context.Context) ([]*Component, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*Component, 0, len(r.store.components))
	for _, component := range r.store.components {
		if component.IsDeleted {
			continue
		}
		out = append(out, cloneComponent(component))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

type memoryLinks struct{ store *MemoryStore }

func (r *memoryLinks) Create(_ context.Context, link *PageComponent) (*PageComponent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored := cloneLink(link)
	r.store.links[stored.ID] = stored
	return cloneLink(stored), nil
}

func (r *memoryLinks) GetByPair(_ context.Context, pageID, componentID uuid.UUID) (*PageComponent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, link := range r.store.links {
		if link.PageID == pageID && link.ComponentID == componentID {
			return cloneLink(link), nil
		}
	}
	return nil, &NotFoundError{Resource: "page component", Key: pageID.String() + "/" + componentID.String()}
}

func (r *memoryLinks) ListByPage(_ context.Context, pageID uuid.UUID) ([]*PageComponent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.listByPageLocked(pageID), nil
}

func (r *memoryLinks) listByPageLocked(pageID uuid.UUID) []*PageComponent {
	out := make([]*PageComponent, 0)
	for _, link := range r.store.links {
		if link.PageID == pageID {
			out = append(out, cloneLink(link))
		}
	}
	sortLinks(out)
	return out
}

func (r *memoryLinks) ListAll(_ context.Context) ([]*PageComponent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*PageComponent, 0, len(r.store.links))
	for _, link := range r.store.links {
		out = append(out, cloneLink(link))
	}
	sortLinks(out)
	return out, nil
}

func (r *memoryLinks) Replace(_ context.Context, pageID uuid.UUID, links []*PageComponent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, link := range r.store.links {
		if link.PageID == pageID {
			delete(r.store.links, id)
		}
	}
	for _, link := range links {
		stored := cloneLink(link)
		stored.PageID = pageID
		r.store.links[stored.ID] = stored
	}
	return nil
}

func (r *memoryLinks) Renumber(_ context.Context, pageID uuid.UUID, orders map[uuid.UUID]int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, link := range r.store.links {
		if link.PageID != pageID {
			continue
		}
		if order, ok := orders[link.ComponentID]; ok {
			link.ViewOrder = order
		}
	}
	return nil
}

func (r *memoryLinks) DeleteByPage(_ context.Context, pageID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, link := range r.store.links {
		if link.PageID == pageID {
			delete(r.store.links, id)
		}
	}
	return nil
}

func (r *memoryLinks) DeleteByPair(_ context.Context, pageID, componentID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, link := range r.store.links {
		if link.PageID == pageID && link.ComponentID == componentID {
			delete(r.store.links, id)
			return nil
		}
	}
	return &NotFoundError{Resource: "page component", Key: pageID.String() + "/" + componentID.String()}
}

type memoryLayouts struct{ store *MemoryStore }

func (r *memoryLayouts) Create(_ context.Context, layout *Layout) (*Layout, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored := cloneLayout(layout)
	r.store.layouts[stored.ID] = stored
	return cloneLayout(stored), nil
}

func (r *memoryLayouts) GetByID(_ context.Context, id uuid.UUID) (*Layout, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	layout, ok := r.store.layouts[id]
	if !ok {
		return nil, &NotFoundError{Resource: "layout", Key: id.String()}
	}
	return cloneLayout(layout), nil
}

func (r *memoryLayouts) GetByCode(_ context.Context, code string) (*Layout, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, layout := range r.store.layouts {
		if layout.Code == code {
			return cloneLayout(layout), nil
		}
	}
	return nil, &NotFoundError{Resource: "layout", Key: code}
}

func (r *memoryLayouts) List(_ context.Context) ([]*Layout, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*Layout, 0, len(r.store.layouts))
	for _, layout := range r.store.layouts {
		out = append(out, cloneLayout(layout))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *memoryLayouts) Update(_ context.Context, layout *Layout) (*Layout, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.layouts[layout.ID]; !ok {
		return nil, &NotFoundError{Resource: "layout", Key: layout.ID.String()}
	}
	stored := cloneLayout(layout)
	r.store.layouts[stored.ID] = stored
	return cloneLayout(stored), nil
}

func (r *memoryLayouts) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.layouts[id]; !ok {
		return &NotFoundError{Resource: "layout", Key: id.String()}
	}
	delete(r.store.layouts, id)
	return nil
}

type memoryTriggers struct{ store *MemoryStore }

func (r *memoryTriggers) Create(_ context.Context, trigger *FormTrigger) (*FormTrigger, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored := cloneTrigger(trigger)
	r.store.triggers[stored.ID] = stored
	return cloneTrigger(stored), nil
}

func (r *memoryTriggers) GetByID(_ context.Context, id uuid.UUID) (*FormTrigger, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	trigger, ok := r.store.triggers[id]
	if !ok {
		return nil, &NotFoundError{Resource: "form trigger", Key: id.String()}
	}
	return cloneTrigger(trigger), nil
}

func (r *memoryTriggers) ListByForm(_ context.Context, formID uuid.UUID, activeOnly bool) ([]*FormTrigger, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*FormTrigger, 0)
	for _, trigger := range r.store.triggers {
		if trigger.FormID != formID {
			continue
		}
		if activeOnly && !trigger.IsActive {
			continue
		}
		out = append(out, cloneTrigger(trigger))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryTriggers) Update(_ context.Context, trigger *FormTrigger) (*FormTrigger, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.triggers[trigger.ID]; !ok {
		return nil, &NotFoundError{Resource: "form trigger", Key: trigger.ID.String()}
	}
	stored := cloneTrigger(trigger)
	r.store.triggers[stored.ID] = stored
	return cloneTrigger(stored), nil
}

func (r *memoryTriggers) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.triggers[id]; !ok {
		return &NotFoundError{Resource: "form trigger", Key: id.String()}
	}
	delete(r.store.triggers, id)
	return nil
}

type memorySubmissions struct{ store *MemoryStore }

func (r *memorySubmissions) Create(_ context.Context, submission *FormSubmission) (*FormSubmission, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored := cloneSubmission(submission)
	r.store.submissions[stored.ID] = stored
	return cloneSubmission(stored), nil
}

func (r *memorySubmissions) ListByForm(_ context.Context, formID uuid.UUID) ([]*FormSubmission, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*FormSubmission, 0)
	for _, submission := range r.store.submissions {
		if submission.FormID == formID {
			out = append(out, cloneSubmission(submission))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

type memoryEventLogs struct{ store *MemoryStore }

func (r *memoryEventLogs) Create(_ context.Context, log *FormEventLog) (*FormEventLog, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored := cloneEventLog(log)
	r.store.events[stored.ID] = stored
	return cloneEventLog(stored), nil
}

func (r *memoryEventLogs) ListByTrigger(ctx context.Context, triggerID uuid.UUID) ([]*FormEventLog, error) {
	return r.ListByTriggers(ctx, []uuid.UUID{triggerID})
}

func (r *memoryEventLogs) ListByTriggers(_ context.Context, triggerIDs []uuid.UUID) ([]*FormEventLog, error) {
	wanted := make(map[uuid.UUID]struct{}, len(triggerIDs))
	for _, id := range triggerIDs {
		wanted[id] = struct{}{}
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*FormEventLog, 0)
	for _, log := range r.store.events {
		if _, ok := wanted[log.TriggerID]; ok {
			out = append(out, cloneEventLog(log))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func sortLinks(links []*PageComponent) {
	sort.Slice(links, func(i, j int) bool {
		if links[i].ViewOrder != links[j].ViewOrder {
			return links[i].ViewOrder < links[j].ViewOrder
		}
		return links[i].CreatedAt.Before(links[j].CreatedAt)
	})
}
