package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	taskDatamodel "github.com/gleeworld/gleeworld/internal/core/datamodel/task"
	"gorm.io/datatypes"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidTransition = errors.New("invalid task status transition")
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("invalid task status %q", s)
}

// CanTransitionTo encodes the state machine: pending moves forward or
// cancels, in_progress finishes or cancels, terminal states stay put.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusInProgress || target == StatusCancelled
	case StatusInProgress:
		return target == StatusCompleted || target == StatusCancelled
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	}
	return "", fmt.Errorf("invalid task priority %q", s)
}

// Task is work assigned from one member to another.
type Task struct {
	ID          int64                  `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	AssignedTo  string                 `json:"assigned_to"`
	AssignedBy  string                 `json:"assigned_by"`
	Status      Status                 `json:"status"`
	Priority    Priority               `json:"priority"`
	DueDate     *time.Time             `json:"due_date,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// IsOverdue is computed at read time; overdue is never a stored state.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status.IsTerminal() {
		return false
	}
	return t.DueDate.Before(now)
}

// TaskView is the API shape, a task plus its derived overdue flag.
type TaskView struct {
	*Task
	IsOverdue bool `json:"is_overdue"`
}

func NewView(t *Task, now time.Time) TaskView {
	return TaskView{Task: t, IsOverdue: t.IsOverdue(now)}
}

func NewViewSlice(tasks []*Task, now time.Time) []TaskView {
	views := make([]TaskView, len(tasks))
	for i, t := range tasks {
		views[i] = NewView(t, now)
	}
	return views
}

func ToDataModel(t *Task) *taskDatamodel.Task {
	var metadata datatypes.JSON
	if len(t.Metadata) > 0 {
		if raw, err := json.Marshal(t.Metadata); err == nil {
			metadata = datatypes.JSON(raw)
		}
	}
	return &taskDatamodel.Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		AssignedTo:  t.AssignedTo,
		AssignedBy:  t.AssignedBy,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		CompletedAt: t.CompletedAt,
		Metadata:    metadata,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func FromDataModel(row *taskDatamodel.Task) *Task {
	var metadata map[string]interface{}
	if len(row.Metadata) > 0 {
		_ = json.Unmarshal(row.Metadata, &metadata)
	}
	return &Task{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		AssignedTo:  row.AssignedTo,
		AssignedBy:  row.AssignedBy,
		Status:      Status(row.Status),
		Priority:    Priority(row.Priority),
		DueDate:     row.DueDate,
		CompletedAt: row.CompletedAt,
		Metadata:    metadata,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*taskDatamodel.Task) []*Task {
	result := make([]*Task, len(rows))
	for i, r := range rows {
		result[i] = FromDataModel(r)
	}
	return result
}
