package notification_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gleeworld/gleeworld/internal/notification"
	"github.com/gleeworld/gleeworld/internal/realtime"
	"github.com/gleeworld/gleeworld/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestNotificationService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Notification Service Suite")
}

// MockRepository implements notification.Repository for testing
type MockRepository struct {
	notifications map[int64]*notification.Notification
	nextID        int64
	lastLimit     int
	failForUser   string
	shouldFail    bool
	failError     error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		notifications: make(map[int64]*notification.Notification),
		nextID:        1,
	}
}

func (m *MockRepository) Create(n *notification.Notification) (*notification.Notification, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	if m.failForUser != "" && n.UserID == m.failForUser {
		return nil, errors.New("insert failed")
	}
	created := *n
	created.ID = m.nextID
	created.CreatedAt = time.Now()
	m.nextID++
	m.notifications[created.ID] = &created
	return &created, nil
}

func (m *MockRepository) GetByID(id int64) (*notification.Notification, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	n, ok := m.notifications[id]
	if !ok {
		return nil, notification.ErrNotificationNotFound
	}
	return n, nil
}

func (m *MockRepository) ListForUser(userID string, unreadOnly bool, limit int) ([]*notification.Notification, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	m.lastLimit = limit

	var result []*notification.Notification
	for _, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		result = append(result, n)
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockRepository) UnreadCount(userID string) (int64, error) {
	if m.shouldFail {
		return 0, m.failError
	}
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *MockRepository) MarkRead(id int64, userID string) error {
	if m.shouldFail {
		return m.failError
	}
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return notification.ErrNotificationNotFound
	}
	n.IsRead = true
	return nil
}

func (m *MockRepository) MarkAllRead(userID string) error {
	if m.shouldFail {
		return m.failError
	}
	for _, n := range m.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (m *MockRepository) Delete(id int64, userID string) error {
	if m.shouldFail {
		return m.failError
	}
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return notification.ErrNotificationNotFound
	}
	delete(m.notifications, id)
	return nil
}

func (m *MockRepository) DeleteExpired(now time.Time) (int64, error) {
	if m.shouldFail {
		return 0, m.failError
	}
	var removed int64
	for id, n := range m.notifications {
		if n.IsExpired(now) {
			delete(m.notifications, id)
			removed++
		}
	}
	return removed, nil
}

func (m *MockRepository) SetShouldFail(shouldFail bool, err error) {
	m.shouldFail = shouldFail
	m.failError = err
}

func (m *MockRepository) CountForUser(userID string) int {
	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID {
			count++
		}
	}
	return count
}

// MockUserRepository implements user.Repository for testing
type MockUserRepository struct {
	profiles   map[string]*user.Profile
	shouldFail bool
	failError  error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{profiles: make(map[string]*user.Profile)}
}

func (m *MockUserRepository) GetByUserID(userID string) (*user.Profile, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return p, nil
}

func (m *MockUserRepository) GetByEmail(email string) (*user.Profile, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	for _, p := range m.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (m *MockUserRepository) ListByRole(role string) ([]*user.Profile, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var result []*user.Profile
	for _, p := range m.profiles {
		if p.Role == role {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *MockUserRepository) ListActive() ([]*user.Profile, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var result []*user.Profile
	for _, p := range m.profiles {
		result = append(result, p)
	}
	return result, nil
}

func (m *MockUserRepository) ListExecBoard() ([]*user.Profile, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var result []*user.Profile
	for _, p := range m.profiles {
		if p.IsExecBoard {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *MockUserRepository) AddProfile(p *user.Profile) {
	m.profiles[p.UserID] = p
}

// MockChannels implements delivery.SideChannels for testing
type MockChannels struct {
	emails    []string
	sms       []string
	pushes    []string
	failEmail bool
	failSMS   bool
	failPush  bool
}

func (m *MockChannels) EnqueueEmail(to, subject, body string) error {
	if m.failEmail {
		return errors.New("smtp relay down")
	}
	m.emails = append(m.emails, to)
	return nil
}

func (m *MockChannels) EnqueueSMS(to, message string) error {
	if m.failSMS {
		return errors.New("sms gateway down")
	}
	m.sms = append(m.sms, to)
	return nil
}

func (m *MockChannels) Push(userID, title, body string) error {
	if m.failPush {
		return errors.New("push provider down")
	}
	m.pushes = append(m.pushes, userID)
	return nil
}

// recordingPublisher captures change events for assertions
type recordingPublisher struct {
	events []realtime.ChangeEvent
}

func (r *recordingPublisher) PublishChange(ctx context.Context, ev realtime.ChangeEvent) error {
	r.events = append(r.events, ev)
	return nil
}

var _ = Describe("Notification Service", func() {
	var (
		mockRepo  *MockRepository
		mockUsers *MockUserRepository
		channels  *MockChannels
		publisher *recordingPublisher
		service   *notification.Service
		ctx       context.Context
	)

	phone := "+15551234567"

	BeforeEach(func() {
		mockRepo = NewMockRepository()
		mockUsers = NewMockUserRepository()
		channels = &MockChannels{}
		publisher = &recordingPublisher{}
		service = notification.NewService(mockRepo, mockUsers, channels, publisher)
		ctx = context.Background()

		mockUsers.AddProfile(&user.Profile{
			UserID:   "u-1",
			Email:    "alto@gleeworld.org",
			FullName: "Alice Alto",
			Phone:    &phone,
			Role:     "member",
			IsActive: true,
		})
	})

	Describe("Send", func() {
		It("should persist exactly one row", func() {
			created, err := service.Send(ctx, "u-1", "Rehearsal moved", "Now at 7pm", notification.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.ID).To(Equal(int64(1)))
			Expect(mockRepo.CountForUser("u-1")).To(Equal(1))
		})

		It("should default the type to info", func() {
			created, err := service.Send(ctx, "u-1", "Hello", "World", notification.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Type).To(Equal(notification.TypeInfo))
		})

		It("should publish an insert change event", func() {
			_, err := service.Send(ctx, "u-1", "Hello", "World", notification.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].Table).To(Equal("gw_notifications"))
			Expect(publisher.events[0].Action).To(Equal(realtime.ActionInsert))
			Expect(publisher.events[0].UserID).To(Equal("u-1"))
		})

		Context("with email and sms requested", func() {
			opts := notification.Options{SendEmail: true, SendSMS: true}

			It("should enqueue both side channels and still write one row", func() {
				_, err := service.Send(ctx, "u-1", "Dues reminder", "Pay up", opts)
				Expect(err).NotTo(HaveOccurred())
				Expect(channels.emails).To(ConsistOf("alto@gleeworld.org"))
				Expect(channels.sms).To(ConsistOf(phone))
				Expect(mockRepo.CountForUser("u-1")).To(Equal(1))
			})

			It("should not fail when the email channel is down", func() {
				channels.failEmail = true
				created, err := service.Send(ctx, "u-1", "Dues reminder", "Pay up", opts)
				Expect(err).NotTo(HaveOccurred())
				Expect(created).NotTo(BeNil())
				Expect(mockRepo.CountForUser("u-1")).To(Equal(1))
				Expect(channels.sms).To(ConsistOf(phone))
			})

			It("should skip sms when the profile has no phone", func() {
				mockUsers.AddProfile(&user.Profile{
					UserID: "u-2",
					Email:  "bass@gleeworld.org",
					Role:   "member",
				})
				_, err := service.Send(ctx, "u-2", "Dues reminder", "Pay up", opts)
				Expect(err).NotTo(HaveOccurred())
				Expect(channels.sms).To(BeEmpty())
				Expect(channels.emails).To(ConsistOf("bass@gleeworld.org"))
			})
		})

		Context("when the profile lookup fails", func() {
			It("should still write the row and skip the side channels", func() {
				created, err := service.Send(ctx, "u-ghost", "Hello", "World",
					notification.Options{SendEmail: true})
				Expect(err).NotTo(HaveOccurred())
				Expect(created).NotTo(BeNil())
				Expect(channels.emails).To(BeEmpty())
			})
		})

		Context("when the push channel is down", func() {
			It("should not surface the failure", func() {
				channels.failPush = true
				_, err := service.Send(ctx, "u-1", "Task assigned", "Fold robes",
					notification.Options{SendPush: true})
				Expect(err).NotTo(HaveOccurred())
				Expect(mockRepo.CountForUser("u-1")).To(Equal(1))
			})
		})

		Context("when the primary write fails", func() {
			It("should return the error and fire nothing", func() {
				mockRepo.SetShouldFail(true, errors.New("database error"))
				created, err := service.Send(ctx, "u-1", "Hello", "World",
					notification.Options{SendEmail: true})
				Expect(err).To(HaveOccurred())
				Expect(created).To(BeNil())
				Expect(channels.emails).To(BeEmpty())
				Expect(publisher.events).To(BeEmpty())
			})
		})
	})

	Describe("fan-out", func() {
		BeforeEach(func() {
			mockUsers.AddProfile(&user.Profile{UserID: "u-2", Email: "b@gleeworld.org", Role: "section-leader"})
			mockUsers.AddProfile(&user.Profile{UserID: "u-3", Email: "c@gleeworld.org", Role: "section-leader"})
			mockUsers.AddProfile(&user.Profile{UserID: "u-4", Email: "d@gleeworld.org", Role: "section-leader", IsExecBoard: true})
		})

		It("should deliver to every member of the role", func() {
			result, err := service.SendToRole(ctx, "section-leader", "Sectionals", "Tomorrow", notification.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Sent).To(Equal(3))
			Expect(result.Failed).To(Equal(0))
		})

		It("should keep going past a failed recipient and report counts", func() {
			mockRepo.failForUser = "u-3"
			result, err := service.SendToRole(ctx, "section-leader", "Sectionals", "Tomorrow", notification.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Sent).To(Equal(2))
			Expect(result.Failed).To(Equal(1))
			Expect(mockRepo.CountForUser("u-2")).To(Equal(1))
			Expect(mockRepo.CountForUser("u-4")).To(Equal(1))
			Expect(mockRepo.CountForUser("u-3")).To(Equal(0))
		})

		It("should target only the exec board for SendToExecBoard", func() {
			result, err := service.SendToExecBoard(ctx, "Budget vote", "Thursday", notification.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Sent).To(Equal(1))
			Expect(mockRepo.CountForUser("u-4")).To(Equal(1))
		})

		It("should reach every active member for SendToAll", func() {
			result, err := service.SendToAll(ctx, "Concert", "Saturday", notification.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Sent).To(Equal(4))
		})

		It("should fail outright when recipients cannot be resolved", func() {
			mockUsers.shouldFail = true
			mockUsers.failError = errors.New("database error")
			_, err := service.SendToRole(ctx, "section-leader", "Sectionals", "Tomorrow", notification.Options{})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("List", func() {
		It("should clamp a missing limit to the default", func() {
			_, err := service.List("u-1", false, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(mockRepo.lastLimit).To(Equal(50))
		})

		It("should clamp an oversized limit", func() {
			_, err := service.List("u-1", false, 5000)
			Expect(err).NotTo(HaveOccurred())
			Expect(mockRepo.lastLimit).To(Equal(50))
		})

		It("should pass a sane limit through", func() {
			_, err := service.List("u-1", false, 20)
			Expect(err).NotTo(HaveOccurred())
			Expect(mockRepo.lastLimit).To(Equal(20))
		})
	})

	Describe("read state", func() {
		BeforeEach(func() {
			_, err := service.Send(ctx, "u-1", "One", "First", notification.Options{})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Send(ctx, "u-1", "Two", "Second", notification.Options{})
			Expect(err).NotTo(HaveOccurred())
			publisher.events = nil
		})

		It("should count unread notifications", func() {
			count, err := service.UnreadCount("u-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(2)))
		})

		It("should mark one read and publish the update", func() {
			Expect(service.MarkRead(ctx, 1, "u-1")).To(Succeed())
			count, _ := service.UnreadCount("u-1")
			Expect(count).To(Equal(int64(1)))
			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].Action).To(Equal(realtime.ActionUpdate))
		})

		It("should refuse to mark another user's notification", func() {
			err := service.MarkRead(ctx, 1, "u-other")
			Expect(err).To(MatchError(notification.ErrNotificationNotFound))
		})

		It("should mark everything read at once", func() {
			Expect(service.MarkAllRead(ctx, "u-1")).To(Succeed())
			count, _ := service.UnreadCount("u-1")
			Expect(count).To(Equal(int64(0)))
		})

		It("should delete and publish the removal", func() {
			Expect(service.Delete(ctx, 1, "u-1")).To(Succeed())
			Expect(mockRepo.CountForUser("u-1")).To(Equal(1))
			Expect(publisher.events[0].Action).To(Equal(realtime.ActionDelete))
		})
	})

	Describe("task reminders", func() {
		It("should expire a due-soon reminder at the deadline", func() {
			due := time.Now().Add(4 * time.Hour)
			created, err := service.NotifyTaskDueSoon(ctx, "u-1", 7, "Fold robes", due)
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Type).To(Equal(notification.TypeWarning))
			Expect(created.ExpiresAt).NotTo(BeNil())
			Expect(*created.ExpiresAt).To(BeTemporally("==", due))
		})

		It("should give an overdue notice a bounded lifetime", func() {
			due := time.Now().Add(-48 * time.Hour)
			created, err := service.NotifyTaskOverdue(ctx, "u-1", 7, "Fold robes", due, 15*time.Minute)
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Type).To(Equal(notification.TypeError))
			Expect(created.ExpiresAt).NotTo(BeNil())
			Expect(*created.ExpiresAt).To(BeTemporally("~", time.Now().Add(15*time.Minute), time.Second))
		})

		It("should leave at most one live overdue notice per sweep cycle", func() {
			due := time.Now().Add(-48 * time.Hour)
			interval := 15 * time.Minute

			_, err := service.NotifyTaskOverdue(ctx, "u-1", 7, "Fold robes", due, interval)
			Expect(err).NotTo(HaveOccurred())

			nextSweep := time.Now().Add(interval + time.Second)
			_, err = service.SweepExpired(nextSweep)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.NotifyTaskOverdue(ctx, "u-1", 7, "Fold robes", due, interval)
			Expect(err).NotTo(HaveOccurred())

			Expect(mockRepo.CountForUser("u-1")).To(Equal(1))
		})
	})

	Describe("SweepExpired", func() {
		It("should remove only notifications past their expiry", func() {
			past := time.Now().Add(-time.Hour)
			future := time.Now().Add(time.Hour)
			_, err := service.Send(ctx, "u-1", "Old reminder", "Gone", notification.Options{ExpiresAt: &past})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Send(ctx, "u-1", "Fresh reminder", "Stays", notification.Options{ExpiresAt: &future})
			Expect(err).NotTo(HaveOccurred())

			removed, err := service.SweepExpired(time.Now())
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(Equal(int64(1)))
			Expect(mockRepo.CountForUser("u-1")).To(Equal(1))
		})
	})
})
