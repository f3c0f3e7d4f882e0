package forms

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseFormConfig reads the form schema and settings out of a form
// component's variant payload. Missing settings take the variant defaults.
func parseFormConfig(data map[string]any) FormConfig {
	config := FormConfig{
		Title:              configString(data, "form_title"),
		Description:        configString(data, "form_description"),
		SubmitText:         configString(data, "submit_text"),
		SuccessMessage:     configString(data, "success_message"),
		EmailNotifications: configBool(data, "email_notifications", false),
		NotificationEmails: configStrings(data, "notification_emails"),
		SaveSubmissions:    configBool(data, "save_submissions", true),
		Fields:             parseFieldSpecs(data["form_config"]),
	}
	if config.SubmitText == "" {
		config.SubmitText = "Submit"
	}
	if config.SuccessMessage == "" {
		config.SuccessMessage = "Form submitted successfully!"
	}
	return config
}

// storeFormConfig writes the schema and settings back onto the payload.
func storeFormConfig(data map[string]any, config FormConfig) {
	data["form_title"] = config.Title
	data["form_description"] = config.Description
	data["submit_text"] = config.SubmitText
	data["success_message"] = config.SuccessMessage
	data["email_notifications"] = config.EmailNotifications
	data["notification_emails"] = strings.Join(config.NotificationEmails, ",")
	data["save_submissions"] = config.SaveSubmissions

	fields := make([]any, 0, len(config.Fields))
	for _, field := range config.Fields {
		encoded, err := json.Marshal(field)
		if err != nil {
			continue
		}
		var generic map[string]any
		if err := json.Unmarshal(encoded, &generic); err != nil {
			continue
		}
		fields = append(fields, generic)
	}
	data["form_config"] = map[string]any{"fields": fields}
}

func validateFormConfig(config FormConfig) map[string]string {
	issues := make(map[string]string)
	if strings.TrimSpace(config.Title) == "" {
		issues["form_title"] = "This field is required"
	}
	seen := make(map[string]struct{}, len(config.Fields))
	for i, field := range config.Fields {
		if strings.TrimSpace(field.Name) == "" {
			issues[fmt.Sprintf("fields[%d].name", i)] = "This field is required"
			continue
		}
		if _, dup := seen[field.Name]; dup {
			issues[fmt.Sprintf("fields[%d].name", i)] = "Duplicate field name"
		}
		seen[field.Name] = struct{}{}
	}
	return issues
}

// parseFieldSpecs accepts either a bare descriptor list or an object with
// a "fields" key, matching what editors have historically stored.
func parseFieldSpecs(raw any) []FieldSpec {
	var list []any
	switch typed := raw.(type) {
	case []any:
		list = typed
	case map[string]any:
		if nested, ok := typed["fields"].([]any); ok {
			list = nested
		}
	default:
		return nil
	}

	out := make([]FieldSpec, 0, len(list))
	for _, item := range list {
		encoded, err := json.Marshal(item)
		if err != nil {
			continue
		}
		var field FieldSpec
		if err := json.Unmarshal(encoded, &field); err != nil {
			continue
		}
		if strings.TrimSpace(field.Name) == "" {
			continue
		}
		out = append(out, field)
	}
	return out
}

func configBool(config map[string]any, key string, fallback bool) bool {
	if config == nil {
		return fallback
	}
	value, ok := config[key]
	if !ok {
		return fallback
	}
	switch typed := value.(type) {
	case bool:
		return typed
	case string:
		return strings.EqualFold(typed, "true")
	default:
		return fallback
	}
}
