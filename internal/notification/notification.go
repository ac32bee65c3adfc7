package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	notificationDatamodel "github.com/gleeworld/gleeworld/internal/core/datamodel/notification"
	"gorm.io/datatypes"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Type classifies a notification for the UI.
type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError:
		return Type(s), nil
	}
	return "", fmt.Errorf("invalid notification type %q", s)
}

// Notification is one event delivered to one member's in-app feed.
type Notification struct {
	ID          int64                  `json:"id"`
	UserID      string                 `json:"user_id"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	Type        Type                   `json:"type"`
	Category    string                 `json:"category,omitempty"`
	IsRead      bool                   `json:"is_read"`
	ReadAt      *time.Time             `json:"read_at,omitempty"`
	ActionURL   *string                `json:"action_url,omitempty"`
	ActionLabel *string                `json:"action_label,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Priority    int                    `json:"priority"`
	ExpiresAt   *time.Time             `json:"expires_at,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// IsExpired reports whether the notification should be hidden from feeds.
func (n *Notification) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && n.ExpiresAt.Before(now)
}

// Options carries everything Send accepts beyond the required fields.
// SendEmail and SendSMS opt into the best-effort side channels.
type Options struct {
	Type        Type
	Category    string
	ActionURL   string
	ActionLabel string
	Metadata    map[string]interface{}
	Priority    int
	ExpiresAt   *time.Time
	SendEmail   bool
	SendSMS     bool
	SendPush    bool
}

func ToDataModel(n *Notification) *notificationDatamodel.Notification {
	var metadata datatypes.JSON
	if len(n.Metadata) > 0 {
		if raw, err := json.Marshal(n.Metadata); err == nil {
			metadata = datatypes.JSON(raw)
		}
	}
	return &notificationDatamodel.Notification{
		ID:          n.ID,
		UserID:      n.UserID,
		Title:       n.Title,
		Message:     n.Message,
		Type:        string(n.Type),
		Category:    n.Category,
		IsRead:      n.IsRead,
		ReadAt:      n.ReadAt,
		ActionURL:   n.ActionURL,
		ActionLabel: n.ActionLabel,
		Metadata:    metadata,
		Priority:    n.Priority,
		ExpiresAt:   n.ExpiresAt,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

func FromDataModel(row *notificationDatamodel.Notification) *Notification {
	var metadata map[string]interface{}
	if len(row.Metadata) > 0 {
		_ = json.Unmarshal(row.Metadata, &metadata)
	}
	return &Notification{
		ID:          row.ID,
		UserID:      row.UserID,
		Title:       row.Title,
		Message:     row.Message,
		Type:        Type(row.Type),
		Category:    row.Category,
		IsRead:      row.IsRead,
		ReadAt:      row.ReadAt,
		ActionURL:   row.ActionURL,
		ActionLabel: row.ActionLabel,
		Metadata:    metadata,
		Priority:    row.Priority,
		ExpiresAt:   row.ExpiresAt,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*notificationDatamodel.Notification) []*Notification {
	result := make([]*Notification, len(rows))
	for i, r := range rows {
		result[i] = FromDataModel(r)
	}
	return result
}
