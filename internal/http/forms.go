package http

import (
	"encoding/json"
	"net/http"

	"github.com/goliatone/go-pagekit/internal/forms"
)

type triggerCreatePayload struct {
	Name       string                 `json:"name"`
	Kind       string                 `json:"kind"`
	IsActive   *bool                  `json:"is_active,omitempty"`
	Order      int                    `json:"order,omitempty"`
	Config     map[string]any         `json:"config,omitempty"`
	Conditions []forms.ConditionInput `json:"conditions,omitempty"`
}

type triggerUpdatePayload struct {
	Name       *string                `json:"name,omitempty"`
	Kind       *string                `json:"kind,omitempty"`
	IsActive   *bool                  `json:"is_active,omitempty"`
	Order      *int                   `json:"order,omitempty"`
	Config     map[string]any         `json:"config,omitempty"`
	Conditions []forms.ConditionInput `json:"conditions"`
	// HasConditions distinguishes clearing the list from leaving it alone.
	HasConditions bool `json:"-"`
}

func (api *AdminAPI) registerFormRoutes(mux *http.ServeMux, base string) {
	root := joinPath(base, "forms")
	mux.HandleFunc("GET "+root+"/{id}/config", api.handleFormConfigGet)
	mux.HandleFunc("POST "+root+"/{id}/config", api.handleFormConfigUpdate)
	mux.HandleFunc("POST "+root+"/{id}/submit", api.handleFormSubmit)
	mux.HandleFunc("GET "+root+"/{id}/events", api.handleTriggerList)
	mux.HandleFunc("POST "+root+"/{id}/events", api.handleTriggerCreate)
	mux.HandleFunc("GET "+root+"/{id}/events/{event_id}", api.handleTriggerGet)
	mux.HandleFunc("PUT "+root+"/{id}/events/{event_id}", api.handleTriggerUpdate)
	mux.HandleFunc("DELETE "+root+"/{id}/events/{event_id}", api.handleTriggerDelete)
	mux.HandleFunc("GET "+root+"/{id}/events/{event_id}/logs", api.handleTriggerLogs)
	mux.HandleFunc("GET "+root+"/{id}/submissions", api.handleSubmissionList)
}

// decodeTriggerUpdate re-decodes the raw document so an explicit
// "conditions": [] (or null) clears the list while an absent key leaves it
// unchanged.
func decodeTriggerUpdate(raw map[string]any) (triggerUpdatePayload, error) {
	var payload triggerUpdatePayload
	encoded, err := json.Marshal(raw)
	if err != nil {
		return payload, err
	}
	if err := json.Unmarshal(encoded, &payload); err != nil {
		return payload, err
	}
	_, payload.HasConditions = raw["conditions"]
	return payload, nil
}

func (api *AdminAPI) handleFormConfigGet(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.forms == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	config, err := api.forms.GetConfig(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, config)
}

func (api *AdminAPI) handleFormConfigUpdate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.forms == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	var config forms.FormConfig
	if err := decodeJSON(r, &config); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	updated, err := api.forms.UpdateConfig(r.Context(), id, config)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (api *AdminAPI) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.forms == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	var payload map[string]any
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	result, err := api.forms.Submit(r.Context(), id, payload, forms.RequestContext{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (api *AdminAPI) handleTriggerList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.forms == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	triggers, err := api.forms.ListTriggers(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, triggers)
}

func (api *AdminAPI) handleTriggerCreate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.forms == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	var payload triggerCreatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	created, err := api.forms.CreateTrigger(r.Context(), forms.CreateTriggerInput{
		FormID:     id,
		Name:       payload.Name,
		Kind:       payload.Kind,
		IsActive:   payload.IsActive,
		Order:      payload.Order,
		Config:     payload.Config,
		Conditions: payload.Conditions,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (api *AdminAPI) handleTriggerGet(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.forms == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	triggerID, err := parseUUID(r.PathValue("event_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid event id"})
		return
	}
	trigger, err := api.forms.GetTrigger(r.Context(), triggerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trigger)
}

func (api *AdminAPI) handleTriggerUpdate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.forms == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	triggerID, err := parseUUID(r.PathValue("event_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid event id"})
		return
	}
	var raw map[string]any
	if err := decodeJSON(r, &raw); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	payload, err := decodeTriggerUpdate(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	updated, err := api.forms.UpdateTrigger(r.Context(), forms.UpdateTriggerInput{
		ID:            triggerID,
		Name:          payload.Name,
		Kind:          payload.Kind,
		IsActive:      payload.IsActive,
		Order:         payload.Order,
		Config:        payload.Config,
		Conditions:    payload.Conditions,
		HasConditions: payload.HasConditions,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (api *AdminAPI) handleTriggerDelete(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.forms == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	triggerID, err := parseUUID(r.PathValue("event_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid event id"})
		return
	}
	if err := api.forms.DeleteTrigger(r.Context(), triggerID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (api *AdminAPI) handleTriggerLogs(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.forms == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	triggerID, err := parseUUID(r.PathValue("event_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid event id"})
		return
	}
	logs, err := api.forms.ListTriggerLogs(r.Context(), triggerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (api *AdminAPI) handleSubmissionList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.forms == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	submissions, err := api.forms.ListSubmissions(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submissions)
}
