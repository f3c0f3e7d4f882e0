package http

import (
	"net/http"

	"github.com/goliatone/go-pagekit/entity"
	"github.com/goliatone/go-pagekit/internal/composer"
)

type layoutCreatePayload struct {
	Name        string              `json:"name"`
	Code        string              `json:"code,omitempty"`
	Description string              `json:"description,omitempty"`
	Zones       []entity.LayoutZone `json:"zones,omitempty"`
}

type layoutUpdatePayload struct {
	Name        *string             `json:"name,omitempty"`
	Description *string             `json:"description,omitempty"`
	Zones       []entity.LayoutZone `json:"zones,omitempty"`
}

func (api *AdminAPI) registerLayoutRoutes(mux *http.ServeMux, base string) {
	root := joinPath(base, "layouts")
	mux.HandleFunc("GET "+root, api.handleLayoutList)
	mux.HandleFunc("POST "+root, api.handleLayoutCreate)
	mux.HandleFunc("GET "+root+"/{id}", api.handleLayoutGet)
	mux.HandleFunc("PUT "+root+"/{id}", api.handleLayoutUpdate)
	mux.HandleFunc("DELETE "+root+"/{id}", api.handleLayoutDelete)
}

func (api *AdminAPI) handleLayoutList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.composer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	layouts, err := api.composer.ListLayouts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, layouts)
}

func (api *AdminAPI) handleLayoutCreate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.composer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	var payload layoutCreatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	created, err := api.composer.CreateLayout(r.Context(), composer.CreateLayoutInput{
		Name:        payload.Name,
		Code:        payload.Code,
		Description: payload.Description,
		Zones:       payload.Zones,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (api *AdminAPI) handleLayoutGet(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.composer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	layout, err := api.composer.GetLayout(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

func (api *AdminAPI) handleLayoutUpdate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.composer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	var payload layoutUpdatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	updated, err := api.composer.UpdateLayout(r.Context(), composer.UpdateLayoutInput{
		ID:          id,
		Name:        payload.Name,
		Description: payload.Description,
		Zones:       payload.Zones,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (api *AdminAPI) handleLayoutDelete(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.composer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	if err := api.composer.DeleteLayout(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
