package task

import (
	"time"

	"gorm.io/datatypes"
)

type Task struct {
	ID          int64          `gorm:"primaryKey"`
	Title       string         `gorm:"column:title;not null"`
	Description string         `gorm:"column:description"`
	AssignedTo  string         `gorm:"column:assigned_to;index;not null"`
	AssignedBy  string         `gorm:"column:assigned_by;not null"`
	Status      string         `gorm:"column:status;default:pending;index"`
	Priority    string         `gorm:"column:priority;default:medium"`
	DueDate     *time.Time     `gorm:"column:due_date"`
	CompletedAt *time.Time     `gorm:"column:completed_at"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb"`
	CreatedAt   time.Time      `gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;default:now()"`
}

func (Task) TableName() string {
	return "gw_tasks"
}
