package notification

import (
	"time"

	"github.com/gleeworld/gleeworld/internal"
)

// SendDTO is the transport shape for creating a notification.
type SendDTO struct {
	UserID      string                 `json:"user_id"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	Type        string                 `json:"type"`
	Category    string                 `json:"category"`
	ActionURL   string                 `json:"action_url"`
	ActionLabel string                 `json:"action_label"`
	Metadata    map[string]interface{} `json:"metadata"`
	Priority    int                    `json:"priority"`
	ExpiresAt   *time.Time             `json:"expires_at"`
	SendEmail   bool                   `json:"send_email"`
	SendSMS     bool                   `json:"send_sms"`
	SendPush    bool                   `json:"send_push"`
}

func (d SendDTO) Validate() error {
	if d.UserID == "" {
		return internal.NewValidationFieldError("user_id", "user_id is required", internal.ErrCodeValidationFailed)
	}
	if d.Title == "" {
		return internal.NewValidationFieldError("title", "title is required", internal.ErrCodeValidationFailed)
	}
	if d.Message == "" {
		return internal.NewValidationFieldError("message", "message is required", internal.ErrCodeValidationFailed)
	}
	if d.Type != "" {
		if _, err := ParseType(d.Type); err != nil {
			return internal.NewValidationFieldError("type", err.Error(), internal.ErrCodeValidationFailed)
		}
	}
	return nil
}

// Options converts the DTO into dispatcher options, defaulting type to info.
func (d SendDTO) Options() Options {
	typ := TypeInfo
	if d.Type != "" {
		typ = Type(d.Type)
	}
	return Options{
		Type:        typ,
		Category:    d.Category,
		ActionURL:   d.ActionURL,
		ActionLabel: d.ActionLabel,
		Metadata:    d.Metadata,
		Priority:    d.Priority,
		ExpiresAt:   d.ExpiresAt,
		SendEmail:   d.SendEmail,
		SendSMS:     d.SendSMS,
		SendPush:    d.SendPush,
	}
}
