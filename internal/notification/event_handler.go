package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gleeworld/gleeworld/internal/core/events"
)

// EventHandler turns task lifecycle events into notifications.
type EventHandler struct {
	service *Service
	logger  *slog.Logger
}

func NewEventHandler(service *Service, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		logger:  logger,
	}
}

func (h *EventHandler) HandleTaskAssigned(ctx context.Context, event events.Event) error {
	taskEvent, ok := event.(*events.TaskAssignedEvent)
	if !ok {
		h.logger.Error("invalid event type for task assigned handler", "event_type", event.EventType())
		return fmt.Errorf("expected TaskAssignedEvent, got %T", event)
	}

	h.logger.Info("handling task assigned event",
		"task_id", taskEvent.TaskID,
		"assigned_to", taskEvent.AssignedTo,
		"event_id", taskEvent.EventID())

	_, err := h.service.NotifyTaskAssigned(ctx, taskEvent.AssignedTo, taskEvent.TaskID,
		taskEvent.Title, taskEvent.Priority, taskEvent.DueDate)
	if err != nil {
		h.logger.Error("failed to notify assignee",
			"error", err,
			"task_id", taskEvent.TaskID,
			"event_id", taskEvent.EventID())
		return fmt.Errorf("notification failed for task %d: %w", taskEvent.TaskID, err)
	}

	return nil
}

func (h *EventHandler) HandleTaskStatusChanged(ctx context.Context, event events.Event) error {
	taskEvent, ok := event.(*events.TaskStatusChangedEvent)
	if !ok {
		h.logger.Error("invalid event type for task status handler", "event_type", event.EventType())
		return fmt.Errorf("expected TaskStatusChangedEvent, got %T", event)
	}

	// the assigner gets told about moves they didn't make themselves
	if taskEvent.AssignedBy == "" || taskEvent.AssignedBy == taskEvent.ChangedBy {
		return nil
	}

	_, err := h.service.NotifyTaskStatusChanged(ctx, taskEvent.AssignedBy, taskEvent.TaskID,
		taskEvent.Title, taskEvent.ToStatus)
	if err != nil {
		h.logger.Error("failed to notify assigner of status change",
			"error", err,
			"task_id", taskEvent.TaskID,
			"event_id", taskEvent.EventID())
		return fmt.Errorf("notification failed for task %d: %w", taskEvent.TaskID, err)
	}

	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeTaskAssigned, h.HandleTaskAssigned)
	eventBus.Subscribe(events.EventTypeTaskStatusChanged, h.HandleTaskStatusChanged)

	h.logger.Info("notification event handlers registered",
		"handlers", []string{events.EventTypeTaskAssigned, events.EventTypeTaskStatusChanged})
}
