package notification_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/gleeworld/gleeworld/internal/core/events"
	"github.com/gleeworld/gleeworld/internal/notification"
	"github.com/gleeworld/gleeworld/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Notification Event Handler", func() {
	var (
		mockRepo  *MockRepository
		mockUsers *MockUserRepository
		channels  *MockChannels
		eventBus  *events.EventBus
		ctx       context.Context
	)

	BeforeEach(func() {
		mockRepo = NewMockRepository()
		mockUsers = NewMockUserRepository()
		channels = &MockChannels{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service := notification.NewService(mockRepo, mockUsers, channels, nil)
		eventBus = events.NewEventBus(logger)
		notification.NewEventHandler(service, logger).RegisterEventHandlers(eventBus)
		ctx = context.Background()

		mockUsers.AddProfile(&user.Profile{UserID: "u-member", Email: "m@gleeworld.org", Role: "member"})
		mockUsers.AddProfile(&user.Profile{UserID: "u-leader", Email: "l@gleeworld.org", Role: "section-leader"})
	})

	Describe("task assigned", func() {
		It("should notify the assignee", func() {
			event := events.NewTaskAssignedEvent(7, "Fold the robes", "u-member", "u-leader", "high", nil)
			Expect(eventBus.PublishSync(ctx, event)).To(Succeed())

			feed, err := mockRepo.ListForUser("u-member", false, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(feed).To(HaveLen(1))
			Expect(feed[0].Category).To(Equal(notification.CategoryTask))
			Expect(feed[0].Metadata).To(HaveKeyWithValue("task_id", int64(7)))
		})

		It("should reach the assignee's push channel", func() {
			event := events.NewTaskAssignedEvent(7, "Fold the robes", "u-member", "u-leader", "medium", nil)
			Expect(eventBus.PublishSync(ctx, event)).To(Succeed())
			Expect(channels.pushes).To(ConsistOf("u-member"))
		})
	})

	Describe("task status changed", func() {
		It("should notify the assigner when the assignee moves the task", func() {
			event := events.NewTaskStatusChangedEvent(7, "Fold the robes",
				"u-member", "u-leader", "pending", "in_progress", "u-member")
			Expect(eventBus.PublishSync(ctx, event)).To(Succeed())

			feed, err := mockRepo.ListForUser("u-leader", false, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(feed).To(HaveLen(1))
		})

		It("should stay quiet when the assigner moved it themselves", func() {
			event := events.NewTaskStatusChangedEvent(7, "Fold the robes",
				"u-member", "u-leader", "pending", "cancelled", "u-leader")
			Expect(eventBus.PublishSync(ctx, event)).To(Succeed())

			feed, err := mockRepo.ListForUser("u-leader", false, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(feed).To(BeEmpty())
		})

		It("should mark a completion as a success notification", func() {
			event := events.NewTaskStatusChangedEvent(7, "Fold the robes",
				"u-member", "u-leader", "in_progress", "completed", "u-member")
			Expect(eventBus.PublishSync(ctx, event)).To(Succeed())

			feed, err := mockRepo.ListForUser("u-leader", false, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(feed).To(HaveLen(1))
			Expect(feed[0].Type).To(Equal(notification.TypeSuccess))
		})
	})
})
