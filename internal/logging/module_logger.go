package logging

import (
	"context"

	"github.com/goliatone/go-pagekit/pkg/interfaces"
)

const (
	rootModule     = "pagekit"
	composerModule = "pagekit.composer"
	draftsModule   = "pagekit.drafts"
	formsModule    = "pagekit.forms"
	httpModule     = "pagekit.http"
	entityModule   = "pagekit.entity"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field so entries can be filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{"module": module})
}

// ComposerLogger returns the logger namespace for the composition engine.
func ComposerLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, composerModule)
}

// DraftsLogger returns the logger namespace for the draft/publish controller.
func DraftsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, draftsModule)
}

// FormsLogger returns the logger namespace for the form rule engine.
func FormsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, formsModule)
}

// HTTPLogger returns the logger namespace for the admin API.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// EntityLogger returns the logger namespace for the entity store layer.
func EntityLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, entityModule)
}

// NoOp returns a logger that drops everything.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

func (noopLogger) Trace(string, ...any)                           {}
func (noopLogger) Debug(string, ...any)                           {}
func (noopLogger) Info(string, ...any)                            {}
func (noopLogger) Warn(string, ...any)                            {}
func (noopLogger) Error(string, ...any)                           {}
func (noopLogger) Fatal(string, ...any)                           {}
func (noopLogger) WithContext(context.Context) interfaces.Logger  { return noopLogger{} }
func (noopLogger) WithFields(map[string]any) interfaces.Logger    { return noopLogger{} }
