package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeTaskAssigned      = "task.assigned"
	EventTypeTaskStatusChanged = "task.status_changed"
)

type TaskAssignedEvent struct {
	BaseEvent
	TaskID     int64  `json:"task_id"`
	Title      string `json:"title"`
	AssignedTo string `json:"assigned_to"`
	AssignedBy string `json:"assigned_by"`
	Priority   string `json:"priority"`
	DueDate    *time.Time
}

func NewTaskAssignedEvent(taskID int64, title, assignedTo, assignedBy, priority string, dueDate *time.Time) *TaskAssignedEvent {
	return &TaskAssignedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeTaskAssigned,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"task_id":     taskID,
				"title":       title,
				"assigned_to": assignedTo,
				"assigned_by": assignedBy,
				"priority":    priority,
			},
		},
		TaskID:     taskID,
		Title:      title,
		AssignedTo: assignedTo,
		AssignedBy: assignedBy,
		Priority:   priority,
		DueDate:    dueDate,
	}
}

type TaskStatusChangedEvent struct {
	BaseEvent
	TaskID     int64  `json:"task_id"`
	Title      string `json:"title"`
	AssignedTo string `json:"assigned_to"`
	AssignedBy string `json:"assigned_by"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	ChangedBy  string `json:"changed_by"`
}

func NewTaskStatusChangedEvent(taskID int64, title, assignedTo, assignedBy, fromStatus, toStatus, changedBy string) *TaskStatusChangedEvent {
	return &TaskStatusChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeTaskStatusChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"task_id":     taskID,
				"title":       title,
				"assigned_to": assignedTo,
				"assigned_by": assignedBy,
				"from_status": fromStatus,
				"to_status":   toStatus,
				"changed_by":  changedBy,
			},
		},
		TaskID:     taskID,
		Title:      title,
		AssignedTo: assignedTo,
		AssignedBy: assignedBy,
		FromStatus: fromStatus,
		ToStatus:   toStatus,
		ChangedBy:  changedBy,
	}
}
