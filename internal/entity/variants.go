package entity

import "github.com/goliatone/go-pagekit/entity"

// builtinVariants declares the stock page and component types. Hosts extend
// the table through Registry.Register before serving traffic.
func builtinVariants() []Variant {
	return []Variant{
		{
			TypeTag:  "page",
			Kind:     entity.KindPage,
			Label:    "Page",
			Template: "pages/default.html",
			Fields: []entity.Field{
				{Name: "content", Label: "Content", Kind: entity.FieldText, Translatable: true},
				{Name: "seo_title", Label: "SEO title", Kind: entity.FieldString, MaxLength: 250, Translatable: true},
				{Name: "seo_description", Label: "SEO description", Kind: entity.FieldText, Translatable: true},
				{Name: "seo_keywords", Label: "SEO keywords", Kind: entity.FieldString, MaxLength: 250},
			},
		},
		{
			TypeTag:  "product_page",
			Kind:     entity.KindPage,
			Label:    "Product",
			Template: "pages/product.html",
			Fields: []entity.Field{
				{Name: "price", Label: "Price", Kind: entity.FieldNumber, Required: true},
				{Name: "currency", Label: "Currency", Kind: entity.FieldString, MaxLength: 8, Default: "USD"},
				{Name: "short_description", Label: "Short description", Kind: entity.FieldString, MaxLength: 255, Translatable: true},
				{Name: "description", Label: "Description", Kind: entity.FieldText, Translatable: true},
				{Name: "category", Label: "Category", Kind: entity.FieldReference},
			},
		},
		{
			TypeTag:  "news_post",
			Kind:     entity.KindPage,
			Label:    "News post",
			Template: "pages/news_post.html",
			Fields: []entity.Field{
				{Name: "content", Label: "Body", Kind: entity.FieldText, Translatable: true},
				{Name: "cover", Label: "Cover", Kind: entity.FieldFile},
				{Name: "published_on", Label: "Published on", Kind: entity.FieldDate},
			},
		},
		{
			TypeTag:  "text",
			Kind:     entity.KindComponent,
			Label:    "Text block",
			Template: "components/text.html",
			Fields: []entity.Field{
				{Name: "text", Label: "Text", Kind: entity.FieldText, Required: true, Translatable: true},
			},
		},
		{
			TypeTag:  "hero_banner",
			Kind:     entity.KindComponent,
			Label:    "Hero banner",
			Template: "components/hero_banner.html",
			Fields: []entity.Field{
				{Name: "subtitle", Label: "Subtitle", Kind: entity.FieldText, Translatable: true},
				{Name: "cta_text", Label: "CTA text", Kind: entity.FieldString, MaxLength: 64, Translatable: true},
				{Name: "cta_url", Label: "CTA link", Kind: entity.FieldString, MaxLength: 255, Default: "/"},
				{Name: "image", Label: "Image (desktop)", Kind: entity.FieldFile},
				{Name: "image_mobile", Label: "Image (mobile)", Kind: entity.FieldFile},
				{
					Name: "align", Label: "Alignment", Kind: entity.FieldChoice, Default: "left",
					Choices: []entity.Choice{
						{Value: "left", Label: "Text left"},
						{Value: "right", Label: "Text right"},
						{Value: "center", Label: "Text centered"},
					},
				},
				{Name: "dark_text", Label: "Dark text", Kind: entity.FieldBoolean, Default: false},
				{Name: "height", Label: "Height (vh)", Kind: entity.FieldNumber, Default: 36},
			},
		},
		{
			TypeTag:  "form",
			Kind:     entity.KindComponent,
			Label:    "Form",
			Template: "components/form.html",
			Fields: []entity.Field{
				{Name: "form_title", Label: "Form title", Kind: entity.FieldString, Required: true, MaxLength: 255, Translatable: true},
				{Name: "form_description", Label: "Form description", Kind: entity.FieldText, Translatable: true},
				{Name: "submit_text", Label: "Submit button text", Kind: entity.FieldString, MaxLength: 100, Default: "Submit"},
				{Name: "success_message", Label: "Success message", Kind: entity.FieldText, Default: "Form submitted successfully!", Translatable: true},
				{Name: "form_config", Label: "Field configuration", Kind: entity.FieldJSON},
				{Name: "email_notifications", Label: "Email notifications", Kind: entity.FieldBoolean, Default: false},
				{Name: "notification_emails", Label: "Notification recipients", Kind: entity.FieldText},
				{Name: "save_submissions", Label: "Store submissions", Kind: entity.FieldBoolean, Default: true},
			},
		},
	}
}
