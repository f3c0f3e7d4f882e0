package interfaces

// Translator is the localization lookup the engine consumes. Routing,
// string storage, and fallback policy belong to the host application.
type Translator interface {
	// Locales returns the configured locale codes, default first.
	Locales() []string
	// DefaultLocale returns the locale used when no suffix matches.
	DefaultLocale() string
	// Lookup resolves a translation key for a locale. The second return
	// reports whether a translation exists.
	Lookup(locale, key string) (string, bool)
}

// StaticTranslator returns a Translator backed by a fixed locale list with
// no stored strings. It is the default when the host wires nothing.
func StaticTranslator(defaultLocale string, locales ...string) Translator {
	if defaultLocale == "" {
		defaultLocale = "en"
	}
	all := make([]string, 0, len(locales)+1)
	all = append(all, defaultLocale)
	for _, code := range locales {
		if code != "" && code != defaultLocale {
			all = append(all, code)
		}
	}
	return &staticTranslator{defaultLocale: defaultLocale, locales: all}
}

type staticTranslator struct {
	defaultLocale string
	locales       []string
}

func (t *staticTranslator) Locales() []string {
	out := make([]string, len(t.locales))
	copy(out, t.locales)
	return out
}

func (t *staticTranslator) DefaultLocale() string { return t.defaultLocale }

func (t *staticTranslator) Lookup(string, string) (string, bool) { return "", false }
