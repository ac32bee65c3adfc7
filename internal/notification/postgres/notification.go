package postgres

import (
	"errors"
	"time"

	notificationDatamodel "github.com/gleeworld/gleeworld/internal/core/datamodel/notification"
	"github.com/gleeworld/gleeworld/internal/notification"
	"gorm.io/gorm"
)

// NotificationRepository implements notification.Repository using GORM
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) notification.Repository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(n *notification.Notification) (*notification.Notification, error) {
	row := notification.ToDataModel(n)
	now := time.Now()
	row.CreatedAt = now
	row.UpdatedAt = now

	if err := r.db.Create(row).Error; err != nil {
		return nil, err
	}
	return notification.FromDataModel(row), nil
}

func (r *NotificationRepository) GetByID(id int64) (*notification.Notification, error) {
	var row notificationDatamodel.Notification
	if err := r.db.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notification.ErrNotificationNotFound
		}
		return nil, err
	}
	return notification.FromDataModel(&row), nil
}

func (r *NotificationRepository) ListForUser(userID string, unreadOnly bool, limit int) ([]*notification.Notification, error) {
	query := r.db.
		Where("user_id = ?", userID).
		Where("expires_at IS NULL OR expires_at > ?", time.Now())
	if unreadOnly {
		query = query.Where("is_read = false")
	}

	var rows []*notificationDatamodel.Notification
	if err := query.Order("priority DESC, created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return notification.FromDataModelSlice(rows), nil
}

func (r *NotificationRepository) UnreadCount(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&notificationDatamodel.Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepository) MarkRead(id int64, userID string) error {
	now := time.Now()
	result := r.db.Model(&notificationDatamodel.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"is_read":    true,
			"read_at":    now,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(userID string) error {
	now := time.Now()
	return r.db.Model(&notificationDatamodel.Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		Updates(map[string]interface{}{
			"is_read":    true,
			"read_at":    now,
			"updated_at": now,
		}).Error
}

func (r *NotificationRepository) Delete(id int64, userID string) error {
	result := r.db.
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&notificationDatamodel.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Delete(&notificationDatamodel.Notification{})
	return result.RowsAffected, result.Error
}
