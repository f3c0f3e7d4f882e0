package di

import (
	"database/sql"
	"fmt"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/mattn/go-sqlite3"

	"github.com/goliatone/go-pagekit/internal/composer"
	"github.com/goliatone/go-pagekit/internal/drafts"
	entitystore "github.com/goliatone/go-pagekit/internal/entity"
	"github.com/goliatone/go-pagekit/internal/forms"
	pagekithttp "github.com/goliatone/go-pagekit/internal/http"
	"github.com/goliatone/go-pagekit/internal/logging"
	"github.com/goliatone/go-pagekit/internal/logging/gologger"
	"github.com/goliatone/go-pagekit/internal/runtimeconfig"
	"github.com/goliatone/go-pagekit/internal/schema"
	"github.com/goliatone/go-pagekit/pkg/interfaces"
)

// Container wires the module's repositories and services according to the
// runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	bunDB         *bun.DB
	sqlDB         *sql.DB
	ownsDB        bool
	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	mailer     interfaces.Mailer
	translator interfaces.Translator
	provider   interfaces.LoggerProvider
	clock      func() time.Time

	registry *entitystore.Registry

	pageRepo       entitystore.PageRepository
	componentRepo  entitystore.ComponentRepository
	linkRepo       entitystore.LinkRepository
	layoutRepo     entitystore.LayoutRepository
	triggerRepo    entitystore.TriggerRepository
	submissionRepo entitystore.SubmissionRepository
	eventLogRepo   entitystore.EventLogRepository

	entitySvc   entitystore.Service
	schemaSvc   schema.Service
	composerSvc composer.Service
	draftSvc    drafts.Service
	formSvc     forms.Service

	adminAPI *pagekithttp.AdminAPI
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB supplies an externally managed database handle. Takes
// precedence over WithSQLDB.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithSQLDB supplies a raw database handle opened by the host. The
// container wraps it with the dialect matching the configured driver,
// so postgres hosts can use whichever wire driver they already depend on.
func WithSQLDB(db *sql.DB) Option {
	return func(c *Container) {
		c.sqlDB = db
	}
}

// WithCache overrides the default repository cache service.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithMailer wires the outbound mail port used by email triggers.
func WithMailer(mailer interfaces.Mailer) Option {
	return func(c *Container) {
		c.mailer = mailer
	}
}

// WithTranslator overrides the locale source for translation expansion.
func WithTranslator(translator interfaces.Translator) Option {
	return func(c *Container) {
		c.translator = translator
	}
}

// WithLoggerProvider overrides the configured logger provider.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.provider = provider
	}
}

// WithClock overrides the time source threaded into every service.
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithRegistry overrides the default variant registry.
func WithRegistry(registry *entitystore.Registry) Option {
	return func(c *Container) {
		if registry != nil {
			c.registry = registry
		}
	}
}

// WithEntityService overrides the default entity service binding.
func WithEntityService(svc entitystore.Service) Option {
	return func(c *Container) {
		c.entitySvc = svc
	}
}

// WithComposerService overrides the default composer binding.
func WithComposerService(svc composer.Service) Option {
	return func(c *Container) {
		c.composerSvc = svc
	}
}

// WithDraftService overrides the default draft service binding.
func WithDraftService(svc drafts.Service) Option {
	return func(c *Container) {
		c.draftSvc = svc
	}
}

// WithFormService overrides the default form service binding.
func WithFormService(svc forms.Service) Option {
	return func(c *Container) {
		c.formSvc = svc
	}
}

// NewContainer creates a container with the provided configuration.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cacheTTL := cfg.Cache.DefaultTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	c := &Container{
		Config:   cfg,
		cacheTTL: cacheTTL,
		registry: entitystore.NewRegistry(),
		clock:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogging(); err != nil {
		return nil, err
	}
	if err := c.configureStorage(); err != nil {
		return nil, err
	}
	c.configureCacheDefaults()
	c.configureRepositories()
	c.configureTranslator()
	c.configureServices()

	return c, nil
}

func (c *Container) configureLogging() error {
	if c.provider != nil || !c.Config.Logging.Enabled {
		return nil
	}
	if c.Config.Logging.Provider != "gologger" {
		return nil
	}
	provider, err := gologger.NewProvider(gologger.Config{
		Level:     c.Config.Logging.Level,
		Format:    c.Config.Logging.Format,
		AddSource: c.Config.Logging.AddSource,
		Focus:     c.Config.Logging.Focus,
	})
	if err != nil {
		return fmt.Errorf("di: configure logging: %w", err)
	}
	c.provider = provider
	return nil
}

func (c *Container) configureStorage() error {
	switch c.Config.Storage.Driver {
	case runtimeconfig.DriverSQLite:
		if c.bunDB != nil {
			return nil
		}
		if c.sqlDB != nil {
			c.bunDB = bun.NewDB(c.sqlDB, sqlitedialect.New())
			return nil
		}
		sqldb, err := sql.Open("sqlite3", c.Config.Storage.DSN)
		if err != nil {
			return fmt.Errorf("di: open sqlite database: %w", err)
		}
		c.bunDB = bun.NewDB(sqldb, sqlitedialect.New())
		c.ownsDB = true
	case runtimeconfig.DriverPostgres:
		if c.bunDB != nil {
			return nil
		}
		if c.sqlDB == nil {
			return fmt.Errorf("di: postgres driver requires WithBunDB or WithSQLDB")
		}
		c.bunDB = bun.NewDB(c.sqlDB, pgdialect.New())
	}
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Features.Cache {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.cacheTTL > 0 {
			cfg.TTL = c.cacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureRepositories() {
	if c.bunDB != nil {
		store := entitystore.NewBunStoreWithCache(c.bunDB, c.cacheService, c.keySerializer)
		c.pageRepo = store.Pages()
		c.componentRepo = store.Components()
		c.linkRepo = store.Links()
		c.layoutRepo = store.Layouts()
		c.triggerRepo = store.Triggers()
		c.submissionRepo = store.Submissions()
		c.eventLogRepo = store.EventLogs()
		return
	}

	store := entitystore.NewMemoryStore()
	c.pageRepo = store.Pages()
	c.componentRepo = store.Components()
	c.linkRepo = store.Links()
	c.layoutRepo = store.Layouts()
	c.triggerRepo = store.Triggers()
	c.submissionRepo = store.Submissions()
	c.eventLogRepo = store.EventLogs()
}

func (c *Container) configureTranslator() {
	if c.translator != nil {
		return
	}
	locales := c.Config.Locales()
	if len(locales) == 0 {
		locales = []string{"en"}
	}
	c.translator = interfaces.StaticTranslator(locales[0], locales[1:]...)
}

func (c *Container) configureServices() {
	if c.schemaSvc == nil {
		c.schemaSvc = schema.NewService(c.registry, schema.WithTranslator(c.translator))
	}

	if c.entitySvc == nil {
		c.entitySvc = entitystore.NewService(
			c.pageRepo,
			c.componentRepo,
			c.registry,
			entitystore.WithLogger(logging.EntityLogger(c.provider)),
			entitystore.WithClock(c.clock),
			entitystore.WithDataFilter(c.schemaSvc.FilterData),
		)
	}

	if c.composerSvc == nil {
		c.composerSvc = composer.NewService(
			c.pageRepo,
			c.componentRepo,
			c.linkRepo,
			c.layoutRepo,
			composer.WithLogger(logging.ComposerLogger(c.provider)),
			composer.WithClock(c.clock),
		)
	}

	if c.draftSvc == nil {
		c.draftSvc = drafts.NewService(
			c.pageRepo,
			c.componentRepo,
			c.linkRepo,
			c.registry,
			c.schemaSvc,
			drafts.WithLogger(logging.DraftsLogger(c.provider)),
			drafts.WithClock(c.clock),
		)
	}

	if c.formSvc == nil && c.Config.Features.Forms {
		handlers := forms.DefaultHandlerRegistry(
			c.mailer,
			c.componentRepo,
			c.registry,
			logging.FormsLogger(c.provider),
			c.Config.Forms.WebhookTimeout,
		)
		c.formSvc = forms.NewService(
			c.componentRepo,
			c.triggerRepo,
			c.submissionRepo,
			c.eventLogRepo,
			handlers,
			forms.WithLogger(logging.FormsLogger(c.provider)),
			forms.WithClock(c.clock),
			forms.WithMaxTriggersPerForm(c.Config.Forms.MaxTriggersPerForm),
		)
	}
}

// Registry exposes the variant registry for host-side registration.
func (c *Container) Registry() *entitystore.Registry { return c.registry }

// DB returns the database handle, nil when running on the memory store.
func (c *Container) DB() *bun.DB { return c.bunDB }

// Entities returns the entity store service.
func (c *Container) Entities() entitystore.Service { return c.entitySvc }

// Schema returns the type introspector.
func (c *Container) Schema() schema.Service { return c.schemaSvc }

// Composer returns the composition engine.
func (c *Container) Composer() composer.Service { return c.composerSvc }

// Drafts returns the draft/publish controller.
func (c *Container) Drafts() drafts.Service { return c.draftSvc }

// Forms returns the form rule engine, nil when the feature is disabled.
func (c *Container) Forms() forms.Service { return c.formSvc }

// Translator returns the locale source.
func (c *Container) Translator() interfaces.Translator { return c.translator }

// LoggerProvider returns the configured logger provider, possibly nil.
func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.provider }

// AdminAPI lazily builds the admin HTTP surface over the wired services.
func (c *Container) AdminAPI() *pagekithttp.AdminAPI {
	if c.adminAPI == nil {
		c.adminAPI = pagekithttp.NewAdminAPI(
			pagekithttp.WithEntityService(c.entitySvc),
			pagekithttp.WithComposerService(c.composerSvc),
			pagekithttp.WithDraftService(c.draftSvc),
			pagekithttp.WithFormService(c.formSvc),
			pagekithttp.WithSchemaService(c.schemaSvc),
			pagekithttp.WithLogger(logging.HTTPLogger(c.provider)),
		)
	}
	return c.adminAPI
}

// Close releases resources the container opened itself.
func (c *Container) Close() error {
	if c.ownsDB && c.bunDB != nil {
		return c.bunDB.Close()
	}
	return nil
}
