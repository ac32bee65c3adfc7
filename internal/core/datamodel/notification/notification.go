package notification

import (
	"time"

	"gorm.io/datatypes"
)

type Notification struct {
	ID          int64          `gorm:"primaryKey"`
	UserID      string         `gorm:"column:user_id;index;not null"`
	Title       string         `gorm:"column:title;not null"`
	Message     string         `gorm:"column:message;not null"`
	Type        string         `gorm:"column:type;default:info"`
	Category    string         `gorm:"column:category"`
	IsRead      bool           `gorm:"column:is_read;default:false;index"`
	ReadAt      *time.Time     `gorm:"column:read_at"`
	ActionURL   *string        `gorm:"column:action_url"`
	ActionLabel *string        `gorm:"column:action_label"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb"`
	Priority    int            `gorm:"column:priority;default:0"`
	ExpiresAt   *time.Time     `gorm:"column:expires_at"`
	CreatedAt   time.Time      `gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;default:now()"`
}

func (Notification) TableName() string {
	return "gw_notifications"
}
