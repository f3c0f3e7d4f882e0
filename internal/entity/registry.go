package entity

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/goliatone/go-pagekit/entity"
)

var (
	ErrVariantUnknown      = errors.New("entity: variant not registered")
	ErrVariantTagRequired  = errors.New("entity: variant type tag required")
	ErrVariantKindInvalid  = errors.New("entity: variant kind must be page or component")
	ErrVariantExists       = errors.New("entity: variant already registered")
	ErrVariantFieldInvalid = errors.New("entity: variant field descriptor invalid")
)

// Variant declares one concrete entity type: its discriminator tag, which
// family it belongs to, the template the presentation layer renders it
// with, and the fields it adds over the shared base record.
type Variant struct {
	TypeTag  string
	Kind     entity.Kind
	Label    string
	Template string
	Fields   []entity.Field
}

// Registry is the explicit, enumerable table of registered variants. All
// type resolution (introspection, publish-time instantiation, database
// trigger targets) goes through it; nothing inspects live values.
type Registry struct {
	mu       sync.RWMutex
	variants map[string]Variant
}

// NewRegistry returns a registry seeded with the builtin variants.
func NewRegistry() *Registry {
	r := &Registry{variants: make(map[string]Variant)}
	for _, v := range builtinVariants() {
		// builtins are authored in this package; a failure here is a bug
		if err := r.Register(v); err != nil {
			panic(fmt.Sprintf("entity: builtin variant %q: %v", v.TypeTag, err))
		}
	}
	return r
}

// NewEmptyRegistry returns a registry without builtins, for hosts that
// declare their own variant table.
func NewEmptyRegistry() *Registry {
	return &Registry{variants: make(map[string]Variant)}
}

// Register adds a variant to the table. Tags are unique across both kinds.
func (r *Registry) Register(v Variant) error {
	if v.TypeTag == "" {
		return ErrVariantTagRequired
	}
	if v.Kind != entity.KindPage && v.Kind != entity.KindComponent {
		return ErrVariantKindInvalid
	}
	seen := make(map[string]struct{}, len(v.Fields))
	for _, f := range v.Fields {
		if f.Name == "" || f.Kind == "" {
			return fmt.Errorf("%w: %q", ErrVariantFieldInvalid, f.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: duplicate field %q", ErrVariantFieldInvalid, f.Name)
		}
		seen[f.Name] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.variants[v.TypeTag]; ok {
		return fmt.Errorf("%w: %s", ErrVariantExists, v.TypeTag)
	}
	r.variants[v.TypeTag] = cloneVariant(v)
	return nil
}

// Resolve returns the variant registered under tag.
func (r *Registry) Resolve(tag string) (Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variants[tag]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %s", ErrVariantUnknown, tag)
	}
	return cloneVariant(v), nil
}

// List returns all variants of the given kind, sorted by tag.
func (r *Registry) List(kind entity.Kind) []Variant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Variant, 0, len(r.variants))
	for _, v := range r.variants {
		if v.Kind == kind {
			out = append(out, cloneVariant(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TypeTag < out[j].TypeTag })
	return out
}

// NewData builds a fresh variant data map populated with declared defaults.
func (r *Registry) NewData(tag string) (map[string]any, error) {
	v, err := r.Resolve(tag)
	if err != nil {
		return nil, err
	}
	data := make(map[string]any, len(v.Fields))
	for _, f := range v.Fields {
		if f.Default != nil {
			data[f.Name] = f.Default
		}
	}
	return data, nil
}

func cloneVariant(v Variant) Variant {
	out := v
	out.Fields = make([]entity.Field, len(v.Fields))
	copy(out.Fields, v.Fields)
	for i := range out.Fields {
		if len(v.Fields[i].Choices) > 0 {
			out.Fields[i].Choices = append([]entity.Choice(nil), v.Fields[i].Choices...)
		}
	}
	return out
}

func cloneData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	maps.Copy(out, data)
	return out
}
