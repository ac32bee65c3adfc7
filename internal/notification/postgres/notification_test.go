package postgres_test

import (
	"testing"
	"time"

	"github.com/gleeworld/gleeworld/internal/notification"
	notificationPostgres "github.com/gleeworld/gleeworld/internal/notification/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestNotificationPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Notification Postgres Suite")
}

// SQLiteNotification is a SQLite-compatible model for testing
type SQLiteNotification struct {
	ID          int64      `gorm:"primaryKey"`
	UserID      string     `gorm:"column:user_id;index;not null"`
	Title       string     `gorm:"column:title;not null"`
	Message     string     `gorm:"column:message;not null"`
	Type        string     `gorm:"column:type;default:info"`
	Category    string     `gorm:"column:category"`
	IsRead      bool       `gorm:"column:is_read;default:false"`
	ReadAt      *time.Time `gorm:"column:read_at"`
	ActionURL   *string    `gorm:"column:action_url"`
	ActionLabel *string    `gorm:"column:action_label"`
	Metadata    string     `gorm:"column:metadata"`
	Priority    int        `gorm:"column:priority;default:0"`
	ExpiresAt   *time.Time `gorm:"column:expires_at"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (SQLiteNotification) TableName() string {
	return "gw_notifications"
}

var _ = Describe("Notification Repository", func() {
	var (
		db   *gorm.DB
		repo notification.Repository
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteNotification{})
		Expect(err).NotTo(HaveOccurred())

		repo = notificationPostgres.NewNotificationRepository(db)
	})

	send := func(userID, title string, priority int, expiresAt *time.Time) *notification.Notification {
		created, err := repo.Create(&notification.Notification{
			UserID:    userID,
			Title:     title,
			Message:   "body",
			Type:      notification.TypeInfo,
			Priority:  priority,
			ExpiresAt: expiresAt,
		})
		Expect(err).NotTo(HaveOccurred())
		return created
	}

	Describe("Create", func() {
		It("should assign an id and timestamps", func() {
			created := send("u-1", "Hello", 0, nil)
			Expect(created.ID).To(BeNumerically(">", 0))
			Expect(created.CreatedAt).NotTo(BeZero())
		})
	})

	Describe("ListForUser", func() {
		BeforeEach(func() {
			send("u-1", "low", 0, nil)
			send("u-1", "urgent", 2, nil)
			send("u-2", "other member", 0, nil)

			past := time.Now().Add(-time.Hour)
			send("u-1", "expired", 2, &past)
		})

		It("should return only the member's unexpired rows", func() {
			rows, err := repo.ListForUser("u-1", false, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))
			for _, n := range rows {
				Expect(n.UserID).To(Equal("u-1"))
				Expect(n.Title).NotTo(Equal("expired"))
			}
		})

		It("should order by priority before recency", func() {
			rows, err := repo.ListForUser("u-1", false, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows[0].Title).To(Equal("urgent"))
		})

		It("should narrow to unread rows when asked", func() {
			first, err := repo.ListForUser("u-1", false, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.MarkRead(first[0].ID, "u-1")).To(Succeed())

			unread, err := repo.ListForUser("u-1", true, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(unread).To(HaveLen(1))
		})

		It("should honor the limit", func() {
			rows, err := repo.ListForUser("u-1", false, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
		})
	})

	Describe("UnreadCount", func() {
		It("should ignore read and expired rows", func() {
			first := send("u-1", "one", 0, nil)
			send("u-1", "two", 0, nil)
			past := time.Now().Add(-time.Minute)
			send("u-1", "expired", 0, &past)

			Expect(repo.MarkRead(first.ID, "u-1")).To(Succeed())

			count, err := repo.UnreadCount("u-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(1)))
		})
	})

	Describe("MarkRead", func() {
		It("should stamp read_at", func() {
			created := send("u-1", "Hello", 0, nil)
			Expect(repo.MarkRead(created.ID, "u-1")).To(Succeed())

			row, err := repo.GetByID(created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(row.IsRead).To(BeTrue())
			Expect(row.ReadAt).NotTo(BeNil())
		})

		It("should report not found for another member's row", func() {
			created := send("u-1", "Hello", 0, nil)
			err := repo.MarkRead(created.ID, "u-2")
			Expect(err).To(MatchError(notification.ErrNotificationNotFound))
		})
	})

	Describe("Delete", func() {
		It("should remove the row for its owner only", func() {
			created := send("u-1", "Hello", 0, nil)

			Expect(repo.Delete(created.ID, "u-2")).To(MatchError(notification.ErrNotificationNotFound))
			Expect(repo.Delete(created.ID, "u-1")).To(Succeed())

			_, err := repo.GetByID(created.ID)
			Expect(err).To(MatchError(notification.ErrNotificationNotFound))
		})
	})

	Describe("DeleteExpired", func() {
		It("should sweep only rows past expiry", func() {
			past := time.Now().Add(-time.Hour)
			future := time.Now().Add(time.Hour)
			send("u-1", "stale", 0, &past)
			send("u-1", "fresh", 0, &future)
			send("u-1", "forever", 0, nil)

			removed, err := repo.DeleteExpired(time.Now())
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(Equal(int64(1)))

			rows, err := repo.ListForUser("u-1", false, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))
		})
	})
})
