package entity

import "github.com/goliatone/go-pagekit/entity"

type Kind = entity.Kind

const (
	KindPage      = entity.KindPage
	KindComponent = entity.KindComponent
)

type (
	Page             = entity.Page
	Component        = entity.Component
	PageComponent    = entity.PageComponent
	Layout           = entity.Layout
	LayoutZone       = entity.LayoutZone
	DraftState       = entity.DraftState
	DraftComponent   = entity.DraftComponent
	FormTrigger      = entity.FormTrigger
	TriggerCondition = entity.TriggerCondition
	FormSubmission   = entity.FormSubmission
	FormEventLog     = entity.FormEventLog
)
