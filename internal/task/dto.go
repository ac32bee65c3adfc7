package task

import (
	"time"

	"github.com/gleeworld/gleeworld/internal"
)

// CreateTaskDTO is the transport shape for assigning a task.
type CreateTaskDTO struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	AssignedTo  string                 `json:"assigned_to"`
	Priority    string                 `json:"priority"`
	DueDate     *time.Time             `json:"due_date"`
	Metadata    map[string]interface{} `json:"metadata"`
}

func (d CreateTaskDTO) Validate() error {
	if d.Title == "" {
		return internal.NewValidationFieldError("title", "title is required", internal.ErrCodeValidationFailed)
	}
	if d.AssignedTo == "" {
		return internal.NewValidationFieldError("assigned_to", "assigned_to is required", internal.ErrCodeValidationFailed)
	}
	if d.Priority != "" {
		if _, err := ParsePriority(d.Priority); err != nil {
			return internal.NewValidationFieldError("priority", err.Error(), internal.ErrCodeValidationFailed)
		}
	}
	return nil
}

// UpdateStatusDTO moves a task through its state machine.
type UpdateStatusDTO struct {
	Status string `json:"status"`
}

func (d UpdateStatusDTO) Validate() error {
	if d.Status == "" {
		return internal.NewValidationFieldError("status", "status is required", internal.ErrCodeValidationFailed)
	}
	if _, err := ParseStatus(d.Status); err != nil {
		return internal.NewValidationFieldError("status", err.Error(), internal.ErrCodeValidationFailed)
	}
	return nil
}
