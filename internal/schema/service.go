package schema

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-pagekit/entity"
	entitystore "github.com/goliatone/go-pagekit/internal/entity"
	"github.com/goliatone/go-pagekit/pkg/interfaces"
)

// TypeMetadata is the editor-facing description of one registered variant.
type TypeMetadata struct {
	TypeTag  string         `json:"type_tag"`
	Kind     entity.Kind    `json:"kind"`
	Label    string         `json:"label"`
	Template string         `json:"template"`
	Fields   []entity.Field `json:"fields"`
}

// Service generates field metadata for registered variants. It is a pure
// read over the variant registry; nothing here inspects live records.
type Service interface {
	// DescribeType emits the editor field descriptors for a variant:
	// bookkeeping and file/reference fields excluded, translatable fields
	// expanded to one {field}_{locale} descriptor per configured locale.
	DescribeType(typeTag string) ([]entity.Field, error)
	// AllowedKeys returns the set of payload keys a write may touch for
	// the variant, including locale-suffixed names.
	AllowedKeys(typeTag string) (map[string]struct{}, error)
	// TypeMetadata bundles the variant identity, template, and descriptors.
	TypeMetadata(typeTag string) (TypeMetadata, error)
	// ListTypes returns metadata for every registered variant of a kind.
	ListTypes(kind entity.Kind) []TypeMetadata
	// FilterData drops payload keys outside the variant's allowed set.
	// Unknown tags pass the payload through untouched; the caller's own
	// variant resolution reports those.
	FilterData(typeTag string, data map[string]any) map[string]any
}

// ServiceOption configures the introspector.
type ServiceOption func(*service)

// WithTranslator wires the locale source used for translation expansion.
func WithTranslator(translator interfaces.Translator) ServiceOption {
	return func(s *service) {
		if translator != nil {
			s.translator = translator
		}
	}
}

type service struct {
	registry   *entitystore.Registry
	translator interfaces.Translator
}

// NewService builds the introspector over the variant registry.
func NewService(registry *entitystore.Registry, opts ...ServiceOption) Service {
	s := &service{
		registry:   registry,
		translator: interfaces.StaticTranslator("en"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) DescribeType(typeTag string) ([]entity.Field, error) {
	variant, err := s.registry.Resolve(typeTag)
	if err != nil {
		return nil, err
	}
	return s.describeFields(variant.Fields), nil
}

func (s *service) describeFields(fields []entity.Field) []entity.Field {
	locales := s.locales()
	out := make([]entity.Field, 0, len(fields))
	for _, field := range fields {
		if !flattenable(field.Kind) {
			continue
		}
		if field.Translatable && len(locales) > 0 {
			// the base descriptor is suppressed in favour of its
			// per-locale variants
			for _, locale := range locales {
				localized := field
				localized.Name = field.Name + "_" + locale
				localized.Label = fmt.Sprintf("%s (%s)", field.Label, locale)
				localized.Translatable = false
				out = append(out, localized)
			}
			continue
		}
		out = append(out, field)
	}
	return out
}

func (s *service) AllowedKeys(typeTag string) (map[string]struct{}, error) {
	variant, err := s.registry.Resolve(typeTag)
	if err != nil {
		return nil, err
	}
	locales := s.locales()
	keys := make(map[string]struct{}, len(variant.Fields))
	for _, field := range variant.Fields {
		if !flattenable(field.Kind) {
			continue
		}
		keys[field.Name] = struct{}{}
		if field.Translatable {
			for _, locale := range locales {
				keys[field.Name+"_"+locale] = struct{}{}
			}
		}
	}
	return keys, nil
}

func (s *service) TypeMetadata(typeTag string) (TypeMetadata, error) {
	variant, err := s.registry.Resolve(typeTag)
	if err != nil {
		return TypeMetadata{}, err
	}
	return s.metadataFor(variant), nil
}

func (s *service) ListTypes(kind entity.Kind) []TypeMetadata {
	variants := s.registry.List(kind)
	out := make([]TypeMetadata, 0, len(variants))
	for _, variant := range variants {
		out = append(out, s.metadataFor(variant))
	}
	return out
}

func (s *service) FilterData(typeTag string, data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	allowed, err := s.AllowedKeys(typeTag)
	if err != nil {
		out := make(map[string]any, len(data))
		for key, value := range data {
			out[key] = value
		}
		return out
	}
	out := make(map[string]any, len(data))
	for key, value := range data {
		if _, ok := allowed[key]; ok {
			out[key] = value
		}
	}
	return out
}

func (s *service) metadataFor(variant entitystore.Variant) TypeMetadata {
	return TypeMetadata{
		TypeTag:  variant.TypeTag,
		Kind:     variant.Kind,
		Label:    variant.Label,
		Template: variant.Template,
		Fields:   s.describeFields(variant.Fields),
	}
}

func (s *service) locales() []string {
	if s.translator == nil {
		return nil
	}
	locales := s.translator.Locales()
	out := make([]string, 0, len(locales))
	for _, locale := range locales {
		if trimmed := strings.TrimSpace(locale); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// flattenable reports whether a field kind projects to a JSON-safe scalar.
// File and reference fields carry storage-side values that do not.
func flattenable(kind entity.FieldKind) bool {
	switch kind {
	case entity.FieldFile, entity.FieldReference:
		return false
	default:
		return true
	}
}
