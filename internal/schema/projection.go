package schema

import (
	"github.com/goliatone/go-pagekit/entity"
)

// ProjectFlags annotate a projection with draft state.
type ProjectFlags struct {
	IsDraft  bool
	HasDraft bool
}

// ProjectPage flattens a page into the wire shape the admin API serves:
// base columns, the variant's template, and whitelisted payload keys lifted
// to the top level alongside the draft flags.
func ProjectPage(svc Service, page *entity.Page, flags ProjectFlags) (map[string]any, error) {
	if page == nil {
		return nil, nil
	}
	meta, err := svc.TypeMetadata(page.TypeTag)
	if err != nil {
		return nil, err
	}
	out := map[string]any{
		"id":         page.ID,
		"type_tag":   page.TypeTag,
		"template":   meta.Template,
		"title":      page.Title,
		"slug":       page.Slug,
		"is_active":  page.IsActive,
		"created_at": page.CreatedAt,
		"updated_at": page.UpdatedAt,
		"is_draft":   flags.IsDraft,
		"has_draft":  flags.HasDraft,
	}
	if page.ParentID != nil {
		out["parent_id"] = *page.ParentID
	}
	if page.LayoutID != nil {
		out["layout_id"] = *page.LayoutID
	}
	for key, value := range svc.FilterData(page.TypeTag, page.Data) {
		if _, taken := out[key]; taken {
			continue
		}
		out[key] = value
	}
	return out, nil
}

// ProjectComponent flattens a component the same way ProjectPage does.
func ProjectComponent(svc Service, component *entity.Component, flags ProjectFlags) (map[string]any, error) {
	if component == nil {
		return nil, nil
	}
	meta, err := svc.TypeMetadata(component.TypeTag)
	if err != nil {
		return nil, err
	}
	out := map[string]any{
		"id":         component.ID,
		"type_tag":   component.TypeTag,
		"template":   meta.Template,
		"title":      component.Title,
		"is_active":  component.IsActive,
		"created_at": component.CreatedAt,
		"updated_at": component.UpdatedAt,
		"is_draft":   flags.IsDraft,
		"has_draft":  flags.HasDraft,
	}
	if component.HTMLID != "" {
		out["html_id"] = component.HTMLID
	}
	for key, value := range svc.FilterData(component.TypeTag, component.Data) {
		if _, taken := out[key]; taken {
			continue
		}
		out[key] = value
	}
	return out, nil
}
