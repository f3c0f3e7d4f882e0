package schema_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-pagekit/entity"
	entitystore "github.com/goliatone/go-pagekit/internal/entity"
	"github.com/goliatone/go-pagekit/internal/schema"
	"github.com/goliatone/go-pagekit/pkg/interfaces"
)

func newIntrospector(locales ...string) schema.Service {
	if len(locales) == 0 {
		locales = []string{"en"}
	}
	return schema.NewService(
		entitystore.NewRegistry(),
		schema.WithTranslator(interfaces.StaticTranslator(locales[0], locales[1:]...)),
	)
}

func fieldNames(fields []entity.Field) []string {
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		out = append(out, field.Name)
	}
	return out
}

func TestDescribeTypeExcludesFileAndReferenceFields(t *testing.T) {
	svc := newIntrospector()

	fields, err := svc.DescribeType("news_post")
	if err != nil {
		t.Fatalf("describe type: %v", err)
	}
	for _, name := range fieldNames(fields) {
		if name == "cover" {
			t.Fatal("file field should be excluded from descriptors")
		}
	}

	fields, err = svc.DescribeType("product_page")
	if err != nil {
		t.Fatalf("describe type: %v", err)
	}
	for _, name := range fieldNames(fields) {
		if name == "category" {
			t.Fatal("reference field should be excluded from descriptors")
		}
	}
}

func TestDescribeTypeExpandsTranslatableFields(t *testing.T) {
	svc := newIntrospector("en", "es")

	fields, err := svc.DescribeType("text")
	if err != nil {
		t.Fatalf("describe type: %v", err)
	}

	names := fieldNames(fields)
	want := map[string]bool{"text_en": false, "text_es": false}
	for _, name := range names {
		if name == "text" {
			t.Fatal("base descriptor should be suppressed for translatable fields")
		}
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("missing locale descriptor %s in %v", name, names)
		}
	}

	for _, field := range fields {
		if field.Name == "text_es" && field.Label != "Text (es)" {
			t.Fatalf("expected locale-suffixed label got %q", field.Label)
		}
	}
}

func TestDescribeTypeUnknownVariant(t *testing.T) {
	svc := newIntrospector()
	if _, err := svc.DescribeType("mystery"); !errors.Is(err, entitystore.ErrVariantUnknown) {
		t.Fatalf("expected ErrVariantUnknown got %v", err)
	}
}

func TestAllowedKeysIncludeLocaleSuffixes(t *testing.T) {
	svc := newIntrospector("en", "es")

	keys, err := svc.AllowedKeys("hero_banner")
	if err != nil {
		t.Fatalf("allowed keys: %v", err)
	}
	for _, want := range []string{"subtitle", "subtitle_en", "subtitle_es", "cta_url", "align", "height"} {
		if _, ok := keys[want]; !ok {
			t.Fatalf("expected key %s in allowed set", want)
		}
	}
	if _, ok := keys["image"]; ok {
		t.Fatal("file field should not be writable")
	}
}

func TestFilterDataDropsUnknownKeys(t *testing.T) {
	svc := newIntrospector()

	filtered := svc.FilterData("text", map[string]any{
		"text_en":  "hello",
		"evil_key": "payload",
	})
	if filtered["text_en"] != "hello" {
		t.Fatalf("allowed key dropped: %v", filtered)
	}
	if _, ok := filtered["evil_key"]; ok {
		t.Fatal("unknown key survived filter")
	}
}

func TestFilterDataPassesThroughUnknownVariant(t *testing.T) {
	svc := newIntrospector()

	payload := map[string]any{"anything": 1}
	filtered := svc.FilterData("mystery", payload)
	if filtered["anything"] != 1 {
		t.Fatal("unknown variant payload should pass through for the caller to reject")
	}
}

func TestTypeMetadataCarriesTemplate(t *testing.T) {
	svc := newIntrospector()

	meta, err := svc.TypeMetadata("hero_banner")
	if err != nil {
		t.Fatalf("type metadata: %v", err)
	}
	if meta.Template != "components/hero_banner.html" {
		t.Fatalf("unexpected template %q", meta.Template)
	}
	if meta.Kind != entity.KindComponent {
		t.Fatalf("unexpected kind %q", meta.Kind)
	}
}

func TestListTypesFiltersByKind(t *testing.T) {
	svc := newIntrospector()

	for _, meta := range svc.ListTypes(entity.KindPage) {
		if meta.Kind != entity.KindPage {
			t.Fatalf("component variant %s leaked into page list", meta.TypeTag)
		}
	}
	if len(svc.ListTypes(entity.KindComponent)) == 0 {
		t.Fatal("expected builtin component variants")
	}
}
