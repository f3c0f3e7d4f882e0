package pagekit

import (
	"context"

	"github.com/goliatone/go-pagekit/internal/composer"
	"github.com/goliatone/go-pagekit/internal/di"
	"github.com/goliatone/go-pagekit/internal/drafts"
	entitystore "github.com/goliatone/go-pagekit/internal/entity"
	"github.com/goliatone/go-pagekit/internal/forms"
	pagekithttp "github.com/goliatone/go-pagekit/internal/http"
	"github.com/goliatone/go-pagekit/internal/schema"
)

// EntityService exports the page/component store contract.
type EntityService = entitystore.Service

// SchemaService exports the type introspector contract.
type SchemaService = schema.Service

// ComposerService exports the composition engine contract.
type ComposerService = composer.Service

// DraftService exports the draft/publish controller contract.
type DraftService = drafts.Service

// FormService exports the form rule engine contract.
type FormService = forms.Service

// Registry exports the variant registry for host-side registration.
type Registry = entitystore.Registry

// Variant exports the variant descriptor.
type Variant = entitystore.Variant

// AdminAPI exports the admin HTTP surface.
type AdminAPI = pagekithttp.AdminAPI

// Module is the top level page-composition runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a pagekit module using the provided configuration and
// optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Init performs startup work that needs a live store, currently seeding the
// builtin layout catalog when the feature is enabled.
func (m *Module) Init(ctx context.Context) error {
	if m == nil || m.container == nil {
		return nil
	}
	if m.container.Config.Features.Layouts {
		if err := m.container.Composer().EnsureBuiltinLayouts(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Entities returns the configured entity store service.
func (m *Module) Entities() EntityService {
	return m.container.Entities()
}

// Schema returns the type introspector.
func (m *Module) Schema() SchemaService {
	return m.container.Schema()
}

// Composer returns the composition engine.
func (m *Module) Composer() ComposerService {
	return m.container.Composer()
}

// Drafts returns the draft/publish controller.
func (m *Module) Drafts() DraftService {
	return m.container.Drafts()
}

// Forms returns the form rule engine, nil when the feature is disabled.
func (m *Module) Forms() FormService {
	return m.container.Forms()
}

// VariantRegistry returns the registry new page and component variants are
// registered against.
func (m *Module) VariantRegistry() *Registry {
	return m.container.Registry()
}

// AdminAPI returns the admin HTTP surface over the wired services.
func (m *Module) AdminAPI() *AdminAPI {
	return m.container.AdminAPI()
}

// Close releases resources owned by the module.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}
