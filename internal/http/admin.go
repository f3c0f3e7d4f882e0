package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-pagekit/internal/composer"
	"github.com/goliatone/go-pagekit/internal/drafts"
	entitystore "github.com/goliatone/go-pagekit/internal/entity"
	"github.com/goliatone/go-pagekit/internal/forms"
	"github.com/goliatone/go-pagekit/internal/logging"
	"github.com/goliatone/go-pagekit/internal/schema"
	"github.com/goliatone/go-pagekit/pkg/interfaces"
)

// AdminAPI registers the editor-facing endpoints for pages, components,
// layouts, drafts, and forms.
type AdminAPI struct {
	basePath string
	entities entitystore.Service
	composer composer.Service
	drafts   drafts.Service
	forms    forms.Service
	schema   schema.Service
	logger   interfaces.Logger
}

// AdminOption mutates the AdminAPI configuration.
type AdminOption func(*AdminAPI)

// NewAdminAPI constructs an AdminAPI instance.
func NewAdminAPI(opts ...AdminOption) *AdminAPI {
	api := &AdminAPI{
		basePath: "/admin/api",
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	return api
}

// WithBasePath overrides the base API path (defaults to "/admin/api").
func WithBasePath(path string) AdminOption {
	return func(api *AdminAPI) {
		if api == nil {
			return
		}
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.basePath = trimmed
		}
	}
}

// WithEntityService wires the page/component store service.
func WithEntityService(service entitystore.Service) AdminOption {
	return func(api *AdminAPI) {
		if api != nil {
			api.entities = service
		}
	}
}

// WithComposerService wires the composition engine.
func WithComposerService(service composer.Service) AdminOption {
	return func(api *AdminAPI) {
		if api != nil {
			api.composer = service
		}
	}
}

// WithDraftService wires the draft/publish controller.
func WithDraftService(service drafts.Service) AdminOption {
	return func(api *AdminAPI) {
		if api != nil {
			api.drafts = service
		}
	}
}

// WithFormService wires the form rule engine.
func WithFormService(service forms.Service) AdminOption {
	return func(api *AdminAPI) {
		if api != nil {
			api.forms = service
		}
	}
}

// WithSchemaService wires the type introspector.
func WithSchemaService(service schema.Service) AdminOption {
	return func(api *AdminAPI) {
		if api != nil {
			api.schema = service
		}
	}
}

// WithLogger wires the API logger.
func WithLogger(logger interfaces.Logger) AdminOption {
	return func(api *AdminAPI) {
		if api != nil && logger != nil {
			api.logger = logger
		}
	}
}

// Register attaches the admin endpoints to the provided mux.
func (api *AdminAPI) Register(mux *http.ServeMux) error {
	if mux == nil {
		return fmt.Errorf("http: mux is required")
	}
	if api == nil {
		return fmt.Errorf("http: admin api is nil")
	}

	base := joinPath(api.basePath, "")

	api.registerPageRoutes(mux, base)
	api.registerComponentRoutes(mux, base)
	api.registerLayoutRoutes(mux, base)
	api.registerFormRoutes(mux, base)

	return nil
}
