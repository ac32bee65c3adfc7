package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gleeworld/gleeworld/internal/delivery"
	"github.com/gleeworld/gleeworld/internal/realtime"
	"github.com/gleeworld/gleeworld/internal/user"
	"github.com/gleeworld/gleeworld/pkg/logger"
)

// Repository is the persistence contract for notification rows.
type Repository interface {
	Create(n *Notification) (*Notification, error)
	GetByID(id int64) (*Notification, error)
	ListForUser(userID string, unreadOnly bool, limit int) ([]*Notification, error)
	UnreadCount(userID string) (int64, error)
	MarkRead(id int64, userID string) error
	MarkAllRead(userID string) error
	Delete(id int64, userID string) error
	DeleteExpired(now time.Time) (int64, error)
}

// FanOutResult reports how a multi-recipient send went. Partial failure is
// expected; callers get counts, not an abort.
type FanOutResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Service is the notification dispatcher. Send always persists exactly one
// row; email, SMS and push are best-effort side channels layered on top.
type Service struct {
	repo      Repository
	users     user.Repository
	channels  delivery.SideChannels
	publisher realtime.Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, users user.Repository, channels delivery.SideChannels, publisher realtime.Publisher) *Service {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		users:     users,
		channels:  channels,
		publisher: publisher,
		logger:    lg,
	}
}

// Send creates the notification row and then fires the requested side
// channels. Side-channel failures are logged and never surfaced as a
// failure of the primary write.
func (s *Service) Send(ctx context.Context, userID, title, message string, opts Options) (*Notification, error) {
	if opts.Type == "" {
		opts.Type = TypeInfo
	}

	n := &Notification{
		UserID:   userID,
		Title:    title,
		Message:  message,
		Type:     opts.Type,
		Category: opts.Category,
		Metadata: opts.Metadata,
		Priority: opts.Priority,
	}
	if opts.ActionURL != "" {
		n.ActionURL = &opts.ActionURL
	}
	if opts.ActionLabel != "" {
		n.ActionLabel = &opts.ActionLabel
	}
	if opts.ExpiresAt != nil {
		n.ExpiresAt = opts.ExpiresAt
	}

	created, err := s.repo.Create(n)
	if err != nil {
		s.logger.Error("failed to create notification",
			"user_id", userID,
			"title", title,
			"error", err)
		return nil, err
	}

	s.logger.Info("notification created",
		"notification_id", created.ID,
		"user_id", userID,
		"category", opts.Category,
		"type", string(opts.Type))

	s.fireSideChannels(userID, title, message, opts)
	s.publishChange(ctx, created, realtime.ActionInsert)

	return created, nil
}

func (s *Service) fireSideChannels(userID, title, message string, opts Options) {
	if s.channels == nil || (!opts.SendEmail && !opts.SendSMS && !opts.SendPush) {
		return
	}

	profile, err := s.users.GetByUserID(userID)
	if err != nil {
		s.logger.Warn("side channels skipped, profile lookup failed",
			"user_id", userID, "error", err)
		return
	}

	if opts.SendEmail {
		if err := s.channels.EnqueueEmail(profile.Email, title, message); err != nil {
			s.logger.Warn("email side channel failed",
				"user_id", userID, "error", err)
		}
	}

	if opts.SendSMS {
		if profile.Phone == nil || *profile.Phone == "" {
			s.logger.Warn("sms side channel skipped, no phone on profile", "user_id", userID)
		} else if err := s.channels.EnqueueSMS(*profile.Phone, message); err != nil {
			s.logger.Warn("sms side channel failed",
				"user_id", userID, "error", err)
		}
	}

	if opts.SendPush {
		if err := s.channels.Push(userID, title, message); err != nil {
			s.logger.Warn("push side channel failed",
				"user_id", userID, "error", err)
		}
	}
}

// SendToRole fans one notification out to every active member holding the
// role. Delivery is sequential and a failed recipient never aborts the rest.
func (s *Service) SendToRole(ctx context.Context, role, title, message string, opts Options) (FanOutResult, error) {
	recipients, err := s.users.ListByRole(role)
	if err != nil {
		return FanOutResult{}, fmt.Errorf("failed to resolve recipients for role %s: %w", role, err)
	}
	return s.fanOut(ctx, recipients, title, message, opts), nil
}

// SendToExecBoard fans out to the executive board.
func (s *Service) SendToExecBoard(ctx context.Context, title, message string, opts Options) (FanOutResult, error) {
	recipients, err := s.users.ListExecBoard()
	if err != nil {
		return FanOutResult{}, fmt.Errorf("failed to resolve exec board recipients: %w", err)
	}
	return s.fanOut(ctx, recipients, title, message, opts), nil
}

// SendToAll fans out to every active member.
func (s *Service) SendToAll(ctx context.Context, title, message string, opts Options) (FanOutResult, error) {
	recipients, err := s.users.ListActive()
	if err != nil {
		return FanOutResult{}, fmt.Errorf("failed to resolve recipients: %w", err)
	}
	return s.fanOut(ctx, recipients, title, message, opts), nil
}

func (s *Service) fanOut(ctx context.Context, recipients []*user.Profile, title, message string, opts Options) FanOutResult {
	var result FanOutResult
	for _, recipient := range recipients {
		if _, err := s.Send(ctx, recipient.UserID, title, message, opts); err != nil {
			result.Failed++
			s.logger.Warn("fan-out delivery failed for recipient",
				"user_id", recipient.UserID,
				"title", title,
				"error", err)
			continue
		}
		result.Sent++
	}

	s.logger.Info("fan-out complete",
		"title", title,
		"sent", result.Sent,
		"failed", result.Failed)

	return result
}

func (s *Service) List(userID string, unreadOnly bool, limit int) ([]*Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListForUser(userID, unreadOnly, limit)
}

func (s *Service) UnreadCount(userID string) (int64, error) {
	return s.repo.UnreadCount(userID)
}

func (s *Service) MarkRead(ctx context.Context, id int64, userID string) error {
	if err := s.repo.MarkRead(id, userID); err != nil {
		return err
	}
	s.publishChange(ctx, &Notification{ID: id, UserID: userID}, realtime.ActionUpdate)
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllRead(userID); err != nil {
		return err
	}
	s.publishChange(ctx, &Notification{UserID: userID}, realtime.ActionUpdate)
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64, userID string) error {
	if err := s.repo.Delete(id, userID); err != nil {
		return err
	}
	s.publishChange(ctx, &Notification{ID: id, UserID: userID}, realtime.ActionDelete)
	return nil
}

// SweepExpired removes notifications past their expiry. The background
// worker runs this on a ticker.
func (s *Service) SweepExpired(now time.Time) (int64, error) {
	removed, err := s.repo.DeleteExpired(now)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("expired notifications swept", "removed", removed)
	}
	return removed, nil
}

func (s *Service) publishChange(ctx context.Context, n *Notification, action realtime.Action) {
	ev := realtime.ChangeEvent{
		Table:  "gw_notifications",
		Action: action,
		RowID:  fmt.Sprintf("%d", n.ID),
		UserID: n.UserID,
		At:     time.Now(),
	}
	if err := s.publisher.PublishChange(ctx, ev); err != nil {
		s.logger.Warn("failed to publish notification change",
			"notification_id", n.ID, "error", err)
	}
}
