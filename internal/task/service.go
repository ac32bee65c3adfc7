package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gleeworld/gleeworld/internal"
	"github.com/gleeworld/gleeworld/internal/core/events"
	"github.com/gleeworld/gleeworld/internal/realtime"
	"github.com/gleeworld/gleeworld/pkg/logger"
)

// Repository is the persistence contract for tasks.
type Repository interface {
	Create(t *Task) (*Task, error)
	GetByID(id int64) (*Task, error)
	ListAssignedTo(userID string, statusFilter Status) ([]*Task, error)
	ListAssignedBy(userID string) ([]*Task, error)
	ListDueBetween(from, to time.Time) ([]*Task, error)
	UpdateStatus(id int64, status Status, completedAt *time.Time) error
}

type Service struct {
	repo      Repository
	eventBus  *events.EventBus
	publisher realtime.Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, eventBus *events.EventBus, publisher realtime.Publisher) *Service {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		eventBus:  eventBus,
		publisher: publisher,
		logger:    lg,
	}
}

// Create assigns a task and announces it on the event bus.
func (s *Service) Create(ctx context.Context, dto CreateTaskDTO, assignedBy string) (*Task, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	priority := PriorityMedium
	if dto.Priority != "" {
		priority = Priority(dto.Priority)
	}

	t := &Task{
		Title:       dto.Title,
		Description: dto.Description,
		AssignedTo:  dto.AssignedTo,
		AssignedBy:  assignedBy,
		Status:      StatusPending,
		Priority:    priority,
		DueDate:     dto.DueDate,
		Metadata:    dto.Metadata,
	}

	created, err := s.repo.Create(t)
	if err != nil {
		s.logger.Error("failed to create task", "title", dto.Title, "error", err)
		return nil, err
	}

	s.logger.Info("task created",
		"task_id", created.ID,
		"assigned_to", created.AssignedTo,
		"assigned_by", assignedBy,
		"priority", string(created.Priority))

	if s.eventBus != nil {
		event := events.NewTaskAssignedEvent(created.ID, created.Title,
			created.AssignedTo, created.AssignedBy, string(created.Priority), created.DueDate)
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish task assigned event", "task_id", created.ID, "error", err)
		}
	}

	s.publishChange(ctx, created, realtime.ActionInsert)

	return created, nil
}

func (s *Service) Get(id int64) (*Task, error) {
	return s.repo.GetByID(id)
}

func (s *Service) ListAssignedTo(userID string, statusFilter string) ([]*Task, error) {
	var status Status
	if statusFilter != "" {
		parsed, err := ParseStatus(statusFilter)
		if err != nil {
			return nil, internal.NewValidationFieldError("status", err.Error(), internal.ErrCodeValidationFailed)
		}
		status = parsed
	}
	return s.repo.ListAssignedTo(userID, status)
}

func (s *Service) ListAssignedBy(userID string) ([]*Task, error) {
	return s.repo.ListAssignedBy(userID)
}

// UpdateStatus validates the transition against the state machine before
// writing. Only the assignee or the assigner may move a task.
func (s *Service) UpdateStatus(ctx context.Context, id int64, dto UpdateStatusDTO, changedBy string) (*Task, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	target := Status(dto.Status)

	current, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if changedBy != current.AssignedTo && changedBy != current.AssignedBy {
		return nil, internal.NewForbiddenError("only the assignee or assigner can update this task", internal.ErrCodeUnauthorizedAccess)
	}

	if !current.Status.CanTransitionTo(target) {
		return nil, internal.NewConflictError(
			fmt.Sprintf("cannot move task from %s to %s", current.Status, target),
			internal.ErrCodeInvalidTransition)
	}

	var completedAt *time.Time
	if target == StatusCompleted {
		now := time.Now()
		completedAt = &now
	}

	if err := s.repo.UpdateStatus(id, target, completedAt); err != nil {
		s.logger.Error("failed to update task status",
			"task_id", id, "from", string(current.Status), "to", string(target), "error", err)
		return nil, err
	}

	s.logger.Info("task status updated",
		"task_id", id,
		"from", string(current.Status),
		"to", string(target),
		"changed_by", changedBy)

	updated := *current
	updated.Status = target
	updated.CompletedAt = completedAt

	if s.eventBus != nil {
		event := events.NewTaskStatusChangedEvent(id, current.Title,
			current.AssignedTo, current.AssignedBy, string(current.Status), string(target), changedBy)
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish task status event", "task_id", id, "error", err)
		}
	}

	s.publishChange(ctx, &updated, realtime.ActionUpdate)

	return &updated, nil
}

// ListDueSoon returns non-terminal tasks due within the window. The
// background worker uses it for reminder sweeps.
func (s *Service) ListDueSoon(now time.Time, window time.Duration) ([]*Task, error) {
	return s.repo.ListDueBetween(now, now.Add(window))
}

// ListOverdue returns non-terminal tasks whose due date has passed.
func (s *Service) ListOverdue(now time.Time) ([]*Task, error) {
	return s.repo.ListDueBetween(time.Time{}, now)
}

func (s *Service) publishChange(ctx context.Context, t *Task, action realtime.Action) {
	ev := realtime.ChangeEvent{
		Table:  "gw_tasks",
		Action: action,
		RowID:  fmt.Sprintf("%d", t.ID),
		UserID: t.AssignedTo,
		At:     time.Now(),
	}
	if err := s.publisher.PublishChange(ctx, ev); err != nil {
		s.logger.Warn("failed to publish task change", "task_id", t.ID, "error", err)
	}
}
