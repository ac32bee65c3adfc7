package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/gleeworld/gleeworld/internal/permission"
)

// Domain senders. Each one is a thin wrapper that picks recipients and
// phrasing, then goes through the generic dispatcher.

const (
	CategoryContract   = "contract"
	CategoryAttendance = "attendance"
	CategoryExcuse     = "excuse"
	CategoryEvent      = "event"
	CategoryPayment    = "payment"
	CategoryTask       = "task"
)

// NotifyContractSent tells a member a contract is waiting for signature.
func (s *Service) NotifyContractSent(ctx context.Context, userID, contractTitle, signURL string) (*Notification, error) {
	return s.Send(ctx, userID,
		"Contract ready to sign",
		fmt.Sprintf("The contract %q has been sent to you for signature.", contractTitle),
		Options{
			Type:        TypeInfo,
			Category:    CategoryContract,
			ActionURL:   signURL,
			ActionLabel: "Review and sign",
			Priority:    1,
			SendEmail:   true,
		})
}

// NotifyContractSigned tells the exec board a member signed.
func (s *Service) NotifyContractSigned(ctx context.Context, memberName, contractTitle string) (FanOutResult, error) {
	return s.SendToExecBoard(ctx,
		"Contract signed",
		fmt.Sprintf("%s signed %q.", memberName, contractTitle),
		Options{
			Type:     TypeSuccess,
			Category: CategoryContract,
		})
}

// NotifyExcuseRequested alerts section leaders that a member requested an
// absence excuse.
func (s *Service) NotifyExcuseRequested(ctx context.Context, memberName, eventTitle, reason string) (FanOutResult, error) {
	return s.SendToRole(ctx, permission.RoleSectionLeader,
		"Excuse requested",
		fmt.Sprintf("%s requested an excuse for %q: %s", memberName, eventTitle, reason),
		Options{
			Type:     TypeWarning,
			Category: CategoryExcuse,
			Priority: 1,
		})
}

// NotifyAttendanceMarked confirms attendance was recorded for a member.
func (s *Service) NotifyAttendanceMarked(ctx context.Context, userID, eventTitle, status string) (*Notification, error) {
	return s.Send(ctx, userID,
		"Attendance recorded",
		fmt.Sprintf("Your attendance for %q was marked %s.", eventTitle, status),
		Options{
			Type:     TypeInfo,
			Category: CategoryAttendance,
		})
}

// NotifyEventCreated announces a new calendar event to all active members.
func (s *Service) NotifyEventCreated(ctx context.Context, eventTitle string, startsAt time.Time, eventURL string) (FanOutResult, error) {
	return s.SendToAll(ctx,
		"New event scheduled",
		fmt.Sprintf("%q is on the calendar for %s.", eventTitle, startsAt.Format("Mon Jan 2, 3:04 PM")),
		Options{
			Type:        TypeInfo,
			Category:    CategoryEvent,
			ActionURL:   eventURL,
			ActionLabel: "View event",
		})
}

// NotifyEventReminder nudges a member ahead of an event, by email and SMS
// since reminders are time-sensitive.
func (s *Service) NotifyEventReminder(ctx context.Context, userID, eventTitle string, startsAt time.Time) (*Notification, error) {
	expires := startsAt.Add(2 * time.Hour)
	return s.Send(ctx, userID,
		"Event reminder",
		fmt.Sprintf("%q starts at %s.", eventTitle, startsAt.Format("3:04 PM")),
		Options{
			Type:      TypeInfo,
			Category:  CategoryEvent,
			Priority:  2,
			ExpiresAt: &expires,
			SendEmail: true,
			SendSMS:   true,
		})
}

// NotifyPaymentReceived confirms a dues or stipend payment landed.
func (s *Service) NotifyPaymentReceived(ctx context.Context, userID string, amountCents int64, description string) (*Notification, error) {
	return s.Send(ctx, userID,
		"Payment received",
		fmt.Sprintf("We received your payment of $%.2f for %s.", float64(amountCents)/100, description),
		Options{
			Type:      TypeSuccess,
			Category:  CategoryPayment,
			SendEmail: true,
		})
}

// NotifyPaymentDue warns a member about an upcoming dues deadline.
func (s *Service) NotifyPaymentDue(ctx context.Context, userID string, amountCents int64, description string, dueDate time.Time) (*Notification, error) {
	return s.Send(ctx, userID,
		"Payment due",
		fmt.Sprintf("$%.2f for %s is due by %s.", float64(amountCents)/100, description, dueDate.Format("Jan 2")),
		Options{
			Type:      TypeWarning,
			Category:  CategoryPayment,
			Priority:  2,
			SendEmail: true,
		})
}

// NotifyTaskAssigned tells a member they picked up a task.
func (s *Service) NotifyTaskAssigned(ctx context.Context, userID string, taskID int64, taskTitle, priority string, dueDate *time.Time) (*Notification, error) {
	message := fmt.Sprintf("You have been assigned %q.", taskTitle)
	if dueDate != nil {
		message = fmt.Sprintf("You have been assigned %q, due %s.", taskTitle, dueDate.Format("Jan 2"))
	}

	prio := 1
	if priority == "high" {
		prio = 2
	}

	return s.Send(ctx, userID,
		"Task assigned",
		message,
		Options{
			Type:     TypeInfo,
			Category: CategoryTask,
			Metadata: map[string]interface{}{"task_id": taskID},
			Priority: prio,
			SendPush: true,
		})
}

// NotifyTaskDueSoon reminds the assignee ahead of the deadline. The row
// expires at the deadline itself.
func (s *Service) NotifyTaskDueSoon(ctx context.Context, userID string, taskID int64, taskTitle string, dueDate time.Time) (*Notification, error) {
	expires := dueDate
	return s.Send(ctx, userID,
		"Task due soon",
		fmt.Sprintf("%q is due %s.", taskTitle, dueDate.Format("Mon Jan 2, 3:04 PM")),
		Options{
			Type:      TypeWarning,
			Category:  CategoryTask,
			Metadata:  map[string]interface{}{"task_id": taskID},
			Priority:  1,
			ExpiresAt: &expires,
		})
}

// NotifyTaskOverdue nags the assignee about a missed deadline. The notice
// expires after validFor so the expiry sweep removes it before the next
// one lands, keeping at most one live notice per task.
func (s *Service) NotifyTaskOverdue(ctx context.Context, userID string, taskID int64, taskTitle string, dueDate time.Time, validFor time.Duration) (*Notification, error) {
	expires := time.Now().Add(validFor)
	return s.Send(ctx, userID,
		"Task overdue",
		fmt.Sprintf("%q was due %s.", taskTitle, dueDate.Format("Mon Jan 2")),
		Options{
			Type:      TypeError,
			Category:  CategoryTask,
			Metadata:  map[string]interface{}{"task_id": taskID},
			Priority:  2,
			ExpiresAt: &expires,
		})
}

// NotifyTaskStatusChanged tells the assigner the task moved.
func (s *Service) NotifyTaskStatusChanged(ctx context.Context, userID string, taskID int64, taskTitle, toStatus string) (*Notification, error) {
	typ := TypeInfo
	if toStatus == "completed" {
		typ = TypeSuccess
	}

	return s.Send(ctx, userID,
		"Task updated",
		fmt.Sprintf("%q is now %s.", taskTitle, toStatus),
		Options{
			Type:     typ,
			Category: CategoryTask,
			Metadata: map[string]interface{}{"task_id": taskID},
		})
}
