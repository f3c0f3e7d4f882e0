package http

import (
	"net/http"

	"github.com/goliatone/go-pagekit/entity"
	"github.com/goliatone/go-pagekit/internal/composer"
	entitystore "github.com/goliatone/go-pagekit/internal/entity"
	"github.com/goliatone/go-pagekit/internal/schema"
	"github.com/google/uuid"
)

type componentCreatePayload struct {
	TypeTag  string         `json:"type_tag"`
	Title    string         `json:"title"`
	HTMLID   string         `json:"html_id,omitempty"`
	IsActive *bool          `json:"is_active,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

type componentUpdatePayload struct {
	Title    *string        `json:"title,omitempty"`
	HTMLID   *string        `json:"html_id,omitempty"`
	IsActive *bool          `json:"is_active,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// instanceCreatePayload attaches a component to a page, optionally cloning
// the source component first so the page gets its own copy.
type instanceCreatePayload struct {
	PageID        uuid.UUID `json:"page_id"`
	ComponentID   uuid.UUID `json:"component_id"`
	ViewOrder     int       `json:"view_order,omitempty"`
	Clone         bool      `json:"clone,omitempty"`
	TitleOverride string    `json:"title_override,omitempty"`
}

type instanceUpdatePayload struct {
	ViewOrder *int                   `json:"view_order,omitempty"`
	Component componentUpdatePayload `json:"component"`
}

func (api *AdminAPI) registerComponentRoutes(mux *http.ServeMux, base string) {
	root := joinPath(base, "components")
	mux.HandleFunc("GET "+root, api.handleComponentList)
	mux.HandleFunc("POST "+root, api.handleComponentCreate)
	mux.HandleFunc("GET "+root+"/types", api.handleComponentTypeList)
	mux.HandleFunc("GET "+root+"/{id}", api.handleComponentGet)
	mux.HandleFunc("GET "+root+"/{id}/metadata", api.handleComponentMetadata)
	mux.HandleFunc("GET "+root+"/{id}/draft", api.handleComponentDraftRead)
	mux.HandleFunc("POST "+root+"/{id}/draft", api.handleComponentDraftStage)
	mux.HandleFunc("POST "+root+"/{id}/publish", api.handleComponentPublish)

	instances := joinPath(base, "component-instances")
	mux.HandleFunc("GET "+instances, api.handleInstanceList)
	mux.HandleFunc("POST "+instances, api.handleInstanceCreate)
	mux.HandleFunc("GET "+instances+"/{id}", api.handleInstanceGet)
	mux.HandleFunc("PATCH "+instances+"/{id}", api.handleInstanceUpdate)
	mux.HandleFunc("DELETE "+instances+"/{id}", api.handleInstanceDelete)
}

func (api *AdminAPI) handleComponentList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.entities == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	components, err := api.entities.ListComponents(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.projectComponents(components))
}

func (api *AdminAPI) handleComponentCreate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.entities == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	var payload componentCreatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	created, err := api.entities.CreateComponent(r.Context(), entitystore.CreateComponentInput{
		TypeTag:  payload.TypeTag,
		Title:    payload.Title,
		HTMLID:   payload.HTMLID,
		IsActive: payload.IsActive,
		Data:     payload.Data,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.projectComponent(created))
}

func (api *AdminAPI) handleComponentGet(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.entities == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	component, err := api.entities.GetComponent(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.projectComponent(component))
}

func (api *AdminAPI) handleComponentTypeList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.schema == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, api.schema.ListTypes(entity.KindComponent))
}

func (api *AdminAPI) handleComponentMetadata(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.entities == nil || api.schema == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	component, err := api.entities.GetComponent(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	meta, err := api.schema.TypeMetadata(component.TypeTag)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (api *AdminAPI) handleComponentDraftRead(w http.ResponseWriter, r *http.Request) {
	api.readDraft(w, r, entity.KindComponent)
}

func (api *AdminAPI) handleComponentDraftStage(w http.ResponseWriter, r *http.Request) {
	api.stageDraft(w, r, entity.KindComponent)
}

func (api *AdminAPI) handleComponentPublish(w http.ResponseWriter, r *http.Request) {
	api.publishDraft(w, r, entity.KindComponent)
}

// Component instances are the page-attachment view: the {id} segment names
// the component and page_id scopes the link.

func (api *AdminAPI) handleInstanceList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.composer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	pageID, err := parseUUID(r.URL.Query().Get("page_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "page_id query parameter required"})
		return
	}
	components, err := api.composer.ListComponents(r.Context(), pageID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, components)
}

func (api *AdminAPI) handleInstanceCreate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.composer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	var payload instanceCreatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}

	componentID := payload.ComponentID
	if payload.Clone {
		clone, err := api.composer.Clone(r.Context(), payload.ComponentID, payload.TitleOverride)
		if err != nil {
			writeError(w, err)
			return
		}
		componentID = clone.ID
	}

	order := payload.ViewOrder
	if order < 1 {
		order = 1
	}
	link, err := api.composer.Attach(r.Context(), composer.AttachInput{
		PageID:      payload.PageID,
		ComponentID: componentID,
		ViewOrder:   order,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

func (api *AdminAPI) handleInstanceGet(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.composer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	componentID, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	pageID, err := parseUUID(r.URL.Query().Get("page_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "page_id query parameter required"})
		return
	}
	placements, err := api.composer.ListComponents(r.Context(), pageID)
	if err != nil {
		writeError(w, err)
		return
	}
	for _, placement := range placements {
		if placement.Component != nil && placement.Component.ID == componentID {
			writeJSON(w, http.StatusOK, placement)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "component is not attached to page"})
}

func (api *AdminAPI) handleInstanceUpdate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.composer == nil || api.entities == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	componentID, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	var payload instanceUpdatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}

	updated, err := api.entities.UpdateComponent(r.Context(), entitystore.UpdateComponentInput{
		ID:       componentID,
		Title:    payload.Component.Title,
		HTMLID:   payload.Component.HTMLID,
		IsActive: payload.Component.IsActive,
		Data:     payload.Component.Data,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if payload.ViewOrder != nil {
		pageID, err := parseUUID(r.URL.Query().Get("page_id"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "page_id query parameter required to move instance"})
			return
		}
		if _, err := api.composer.Attach(r.Context(), composer.AttachInput{
			PageID:      pageID,
			ComponentID: componentID,
			ViewOrder:   *payload.ViewOrder,
		}); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, api.projectComponent(updated))
}

func (api *AdminAPI) handleInstanceDelete(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.composer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	componentID, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	pageID, err := parseUUID(r.URL.Query().Get("page_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "page_id query parameter required"})
		return
	}
	if err := api.composer.Detach(r.Context(), pageID, componentID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (api *AdminAPI) projectComponents(components []*entity.Component) []map[string]any {
	out := make([]map[string]any, 0, len(components))
	for _, component := range components {
		out = append(out, api.projectComponent(component))
	}
	return out
}

func (api *AdminAPI) projectComponent(component *entity.Component) map[string]any {
	record, err := schema.ProjectComponent(api.schema, component, schema.ProjectFlags{HasDraft: component.Draft != nil})
	if err != nil {
		api.logger.Warn("component projection failed", "component_id", component.ID, "error", err)
		return map[string]any{"id": component.ID, "type_tag": component.TypeTag, "title": component.Title}
	}
	return record
}
