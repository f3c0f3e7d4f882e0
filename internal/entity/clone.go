package entity

import "github.com/goliatone/go-pagekit/entity"

func clonePage(page *Page) *Page {
	if page == nil {
		return nil
	}
	out := *page
	out.Data = cloneData(page.Data)
	out.Draft = cloneDraft(page.Draft)
	if page.ParentID != nil {
		parent := *page.ParentID
		out.ParentID = &parent
	}
	if page.LayoutID != nil {
		layout := *page.LayoutID
		out.LayoutID = &layout
	}
	out.Links = nil
	return &out
}

func cloneComponent(component *Component) *Component {
	if component == nil {
		return nil
	}
	out := *component
	out.Data = cloneData(component.Data)
	out.Draft = cloneDraft(component.Draft)
	return &out
}

func cloneDraft(draft *DraftState) *DraftState {
	if draft == nil {
		return nil
	}
	out := *draft
	out.EntityData = cloneData(draft.EntityData)
	if draft.Components != nil {
		out.Components = make([]entity.DraftComponent, len(draft.Components))
		for i, dc := range draft.Components {
			copied := dc
			copied.Data = cloneData(dc.Data)
			if dc.ID != nil {
				id := *dc.ID
				copied.ID = &id
			}
			out.Components[i] = copied
		}
	}
	return &out
}

func cloneLink(link *PageComponent) *PageComponent {
	if link == nil {
		return nil
	}
	out := *link
	out.Component = nil
	return &out
}

func cloneLayout(layout *Layout) *Layout {
	if layout == nil {
		return nil
	}
	out := *layout
	if layout.Zones != nil {
		out.Zones = make([]entity.LayoutZone, len(layout.Zones))
		for i, zone := range layout.Zones {
			copied := zone
			if zone.Width != nil {
				width := *zone.Width
				copied.Width = &width
			}
			if zone.GridTemplate != nil {
				tpl := *zone.GridTemplate
				copied.GridTemplate = &tpl
			}
			out.Zones[i] = copied
		}
	}
	return &out
}

func cloneTrigger(trigger *FormTrigger) *FormTrigger {
	if trigger == nil {
		return nil
	}
	out := *trigger
	out.Config = cloneData(trigger.Config)
	if trigger.Conditions != nil {
		out.Conditions = append([]entity.TriggerCondition(nil), trigger.Conditions...)
	}
	return &out
}

func cloneSubmission(submission *FormSubmission) *FormSubmission {
	if submission == nil {
		return nil
	}
	out := *submission
	out.Data = cloneData(submission.Data)
	if submission.UserID != nil {
		id := *submission.UserID
		out.UserID = &id
	}
	return &out
}

func cloneEventLog(log *FormEventLog) *FormEventLog {
	if log == nil {
		return nil
	}
	out := *log
	return &out
}
