package http

import (
	"net/http"

	"github.com/goliatone/go-pagekit/entity"
	"github.com/goliatone/go-pagekit/internal/composer"
	"github.com/goliatone/go-pagekit/internal/drafts"
	entitystore "github.com/goliatone/go-pagekit/internal/entity"
	"github.com/goliatone/go-pagekit/internal/schema"
	"github.com/google/uuid"
)

type pageCreatePayload struct {
	TypeTag  string         `json:"type_tag"`
	Title    string         `json:"title"`
	Slug     string         `json:"slug,omitempty"`
	ParentID *uuid.UUID     `json:"parent_id,omitempty"`
	LayoutID *uuid.UUID     `json:"layout_id,omitempty"`
	IsActive *bool          `json:"is_active,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

type pageUpdatePayload struct {
	Title    *string        `json:"title,omitempty"`
	Slug     *string        `json:"slug,omitempty"`
	ParentID *uuid.UUID     `json:"parent_id,omitempty"`
	LayoutID *uuid.UUID     `json:"layout_id,omitempty"`
	IsActive *bool          `json:"is_active,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

type draftStagePayload struct {
	Fields     map[string]any          `json:"fields,omitempty"`
	Components []entity.DraftComponent `json:"components,omitempty"`
}

type reorderPayload struct {
	ComponentIDs []uuid.UUID `json:"component_ids"`
}

type placementPayload struct {
	ComponentID uuid.UUID `json:"component_id"`
	ViewOrder   int       `json:"view_order,omitempty"`
}

type layoutViewUpdatePayload struct {
	Components []placementPayload `json:"components"`
}

func (api *AdminAPI) registerPageRoutes(mux *http.ServeMux, base string) {
	root := joinPath(base, "pages")
	mux.HandleFunc("GET "+root, api.handlePageList)
	mux.HandleFunc("POST "+root, api.handlePageCreate)
	mux.HandleFunc("GET "+root+"/metadata", api.handlePageTypeList)
	mux.HandleFunc("GET "+root+"/{id}", api.handlePageGet)
	mux.HandleFunc("PUT "+root+"/{id}", api.handlePageReplace)
	mux.HandleFunc("PATCH "+root+"/{id}", api.handlePagePatch)
	mux.HandleFunc("DELETE "+root+"/{id}", api.handlePageDelete)
	mux.HandleFunc("GET "+root+"/{id}/metadata", api.handlePageMetadata)
	mux.HandleFunc("GET "+root+"/{id}/draft", api.handlePageDraftRead)
	mux.HandleFunc("POST "+root+"/{id}/draft", api.handlePageDraftStage)
	mux.HandleFunc("POST "+root+"/{id}/publish", api.handlePagePublish)
	mux.HandleFunc("GET "+root+"/{id}/layout", api.handlePageLayoutGet)
	mux.HandleFunc("POST "+root+"/{id}/layout", api.handlePageLayoutAttach)
	mux.HandleFunc("PUT "+root+"/{id}/layout", api.handlePageLayoutReplace)
	mux.HandleFunc("DELETE "+root+"/{id}/layout", api.handlePageLayoutClear)
	mux.HandleFunc("PATCH "+root+"/{id}/components/reorder", api.handlePageReorder)
}

func (api *AdminAPI) handlePageList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.entities == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	opts := entitystore.ListPagesOptions{
		Search:         r.URL.Query().Get("search"),
		IncludeDeleted: parseBoolQuery(r.URL.Query().Get("include_deleted"), false),
	}
	if raw := r.URL.Query().Get("exclude"); raw != "" {
		excluded, err := parseUUID(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid exclude id"})
			return
		}
		opts.ExcludeID = &excluded
	}
	pages, err := api.entities.ListPages(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.projectPages(pages))
}

func (api *AdminAPI) handlePageCreate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.entities == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	var payload pageCreatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	created, err := api.entities.CreatePage(r.Context(), entitystore.CreatePageInput{
		TypeTag:  payload.TypeTag,
		Title:    payload.Title,
		Slug:     payload.Slug,
		ParentID: payload.ParentID,
		LayoutID: payload.LayoutID,
		IsActive: payload.IsActive,
		Data:     payload.Data,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.projectPage(created))
}

func (api *AdminAPI) handlePageGet(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.entities == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	page, err := api.entities.GetPage(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.projectPage(page))
}

func (api *AdminAPI) handlePageReplace(w http.ResponseWriter, r *http.Request) {
	api.updatePage(w, r, true)
}

func (api *AdminAPI) handlePagePatch(w http.ResponseWriter, r *http.Request) {
	api.updatePage(w, r, false)
}

func (api *AdminAPI) updatePage(w http.ResponseWriter, r *http.Request, replaceData bool) {
	if api == nil || api.entities == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	var payload pageUpdatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	updated, err := api.entities.UpdatePage(r.Context(), entitystore.UpdatePageInput{
		ID:          id,
		Title:       payload.Title,
		Slug:        payload.Slug,
		ParentID:    payload.ParentID,
		LayoutID:    payload.LayoutID,
		IsActive:    payload.IsActive,
		Data:        payload.Data,
		ReplaceData: replaceData,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.projectPage(updated))
}

func (api *AdminAPI) handlePageDelete(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.entities == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	if err := api.entities.DeletePage(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (api *AdminAPI) handlePageTypeList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.schema == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, api.schema.ListTypes(entity.KindPage))
}

func (api *AdminAPI) handlePageMetadata(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.entities == nil || api.schema == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	page, err := api.entities.GetPage(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	meta, err := api.schema.TypeMetadata(page.TypeTag)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (api *AdminAPI) handlePageDraftRead(w http.ResponseWriter, r *http.Request) {
	api.readDraft(w, r, entity.KindPage)
}

func (api *AdminAPI) handlePageDraftStage(w http.ResponseWriter, r *http.Request) {
	api.stageDraft(w, r, entity.KindPage)
}

func (api *AdminAPI) handlePagePublish(w http.ResponseWriter, r *http.Request) {
	api.publishDraft(w, r, entity.KindPage)
}

func (api *AdminAPI) readDraft(w http.ResponseWriter, r *http.Request, kind entity.Kind) {
	if api == nil || api.drafts == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	overlay, err := api.drafts.Read(r.Context(), kind, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overlay)
}

func (api *AdminAPI) stageDraft(w http.ResponseWriter, r *http.Request, kind entity.Kind) {
	if api == nil || api.drafts == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	var payload draftStagePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	staged, err := api.drafts.Stage(r.Context(), drafts.StageInput{
		Kind:       kind,
		EntityID:   id,
		Fields:     payload.Fields,
		Components: payload.Components,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, staged)
}

func (api *AdminAPI) publishDraft(w http.ResponseWriter, r *http.Request, kind entity.Kind) {
	if api == nil || api.drafts == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	result, err := api.drafts.Publish(r.Context(), kind, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (api *AdminAPI) handlePageLayoutGet(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.composer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	view, err := api.composer.PageLayout(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (api *AdminAPI) handlePageLayoutAttach(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.composer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	var payload placementPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	order := payload.ViewOrder
	if order < 1 {
		order = 1
	}
	link, err := api.composer.Attach(r.Context(), composer.AttachInput{
		PageID:      id,
		ComponentID: payload.ComponentID,
		ViewOrder:   order,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

func (api *AdminAPI) handlePageLayoutReplace(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.composer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	var payload layoutViewUpdatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	placements := make([]composer.PlacementInput, 0, len(payload.Components))
	for _, placement := range payload.Components {
		placements = append(placements, composer.PlacementInput{
			ComponentID: placement.ComponentID,
			ViewOrder:   placement.ViewOrder,
		})
	}
	components, err := api.composer.SetPageComponents(r.Context(), id, placements)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, components)
}

func (api *AdminAPI) handlePageLayoutClear(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.composer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	if err := api.composer.ClearLayout(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (api *AdminAPI) handlePageReorder(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.composer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	var payload reorderPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	components, err := api.composer.Reorder(r.Context(), id, payload.ComponentIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, components)
}

func (api *AdminAPI) projectPages(pages []*entity.Page) []map[string]any {
	out := make([]map[string]any, 0, len(pages))
	for _, page := range pages {
		out = append(out, api.projectPage(page))
	}
	return out
}

func (api *AdminAPI) projectPage(page *entity.Page) map[string]any {
	record, err := schema.ProjectPage(api.schema, page, schema.ProjectFlags{HasDraft: page.Draft != nil})
	if err != nil {
		api.logger.Warn("page projection failed", "page_id", page.ID, "error", err)
		return map[string]any{"id": page.ID, "type_tag": page.TypeTag, "title": page.Title}
	}
	return record
}
