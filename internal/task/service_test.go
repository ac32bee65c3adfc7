package task_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gleeworld/gleeworld/internal"
	"github.com/gleeworld/gleeworld/internal/realtime"
	"github.com/gleeworld/gleeworld/internal/task"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTaskService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Task Service Suite")
}

// MockRepository implements task.Repository for testing
type MockRepository struct {
	tasks      map[int64]*task.Task
	nextID     int64
	lastFrom   time.Time
	lastTo     time.Time
	shouldFail bool
	failError  error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		tasks:  make(map[int64]*task.Task),
		nextID: 1,
	}
}

func (m *MockRepository) Create(t *task.Task) (*task.Task, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	created := *t
	created.ID = m.nextID
	created.CreatedAt = time.Now()
	m.nextID++
	m.tasks[created.ID] = &created
	return &created, nil
}

func (m *MockRepository) GetByID(id int64) (*task.Task, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	t, ok := m.tasks[id]
	if !ok {
		return nil, task.ErrTaskNotFound
	}
	return t, nil
}

func (m *MockRepository) ListAssignedTo(userID string, statusFilter task.Status) ([]*task.Task, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var result []*task.Task
	for _, t := range m.tasks {
		if t.AssignedTo != userID {
			continue
		}
		if statusFilter != "" && t.Status != statusFilter {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

func (m *MockRepository) ListAssignedBy(userID string) ([]*task.Task, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var result []*task.Task
	for _, t := range m.tasks {
		if t.AssignedBy == userID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *MockRepository) ListDueBetween(from, to time.Time) ([]*task.Task, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	m.lastFrom = from
	m.lastTo = to

	var result []*task.Task
	for _, t := range m.tasks {
		if t.DueDate == nil || t.Status.IsTerminal() {
			continue
		}
		if !from.IsZero() && !t.DueDate.After(from) {
			continue
		}
		if t.DueDate.After(to) {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

func (m *MockRepository) UpdateStatus(id int64, status task.Status, completedAt *time.Time) error {
	if m.shouldFail {
		return m.failError
	}
	t, ok := m.tasks[id]
	if !ok {
		return task.ErrTaskNotFound
	}
	t.Status = status
	t.CompletedAt = completedAt
	return nil
}

func (m *MockRepository) SetShouldFail(shouldFail bool, err error) {
	m.shouldFail = shouldFail
	m.failError = err
}

func (m *MockRepository) AddTask(t *task.Task) {
	m.tasks[t.ID] = t
	if t.ID >= m.nextID {
		m.nextID = t.ID + 1
	}
}

// recordingPublisher captures change events for assertions
type recordingPublisher struct {
	events []realtime.ChangeEvent
}

func (r *recordingPublisher) PublishChange(ctx context.Context, ev realtime.ChangeEvent) error {
	r.events = append(r.events, ev)
	return nil
}

var _ = Describe("Task Service", func() {
	var (
		mockRepo  *MockRepository
		publisher *recordingPublisher
		service   *task.Service
		ctx       context.Context
	)

	BeforeEach(func() {
		mockRepo = NewMockRepository()
		publisher = &recordingPublisher{}
		service = task.NewService(mockRepo, nil, publisher)
		ctx = context.Background()
	})

	Describe("Create", func() {
		It("should start pending with medium priority by default", func() {
			created, err := service.Create(ctx, task.CreateTaskDTO{
				Title:      "Fold the robes",
				AssignedTo: "u-member",
			}, "u-leader")
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Status).To(Equal(task.StatusPending))
			Expect(created.Priority).To(Equal(task.PriorityMedium))
			Expect(created.AssignedBy).To(Equal("u-leader"))
		})

		It("should honor an explicit priority", func() {
			created, err := service.Create(ctx, task.CreateTaskDTO{
				Title:      "Book the hall",
				AssignedTo: "u-member",
				Priority:   "high",
			}, "u-leader")
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Priority).To(Equal(task.PriorityHigh))
		})

		It("should publish an insert change event for the assignee", func() {
			_, err := service.Create(ctx, task.CreateTaskDTO{
				Title:      "Fold the robes",
				AssignedTo: "u-member",
			}, "u-leader")
			Expect(err).NotTo(HaveOccurred())
			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].Table).To(Equal("gw_tasks"))
			Expect(publisher.events[0].Action).To(Equal(realtime.ActionInsert))
			Expect(publisher.events[0].UserID).To(Equal("u-member"))
		})

		It("should reject a missing title", func() {
			_, err := service.Create(ctx, task.CreateTaskDTO{AssignedTo: "u-member"}, "u-leader")
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("should reject a missing assignee", func() {
			_, err := service.Create(ctx, task.CreateTaskDTO{Title: "Fold the robes"}, "u-leader")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("UpdateStatus", func() {
		var seeded *task.Task

		BeforeEach(func() {
			seeded = &task.Task{
				ID:         1,
				Title:      "Fold the robes",
				AssignedTo: "u-member",
				AssignedBy: "u-leader",
				Status:     task.StatusPending,
				Priority:   task.PriorityMedium,
			}
			mockRepo.AddTask(seeded)
		})

		update := func(target string, changedBy string) (*task.Task, error) {
			return service.UpdateStatus(ctx, 1, task.UpdateStatusDTO{Status: target}, changedBy)
		}

		Context("legal transitions", func() {
			It("should move pending to in_progress", func() {
				updated, err := update("in_progress", "u-member")
				Expect(err).NotTo(HaveOccurred())
				Expect(updated.Status).To(Equal(task.StatusInProgress))
			})

			It("should move pending to cancelled", func() {
				updated, err := update("cancelled", "u-leader")
				Expect(err).NotTo(HaveOccurred())
				Expect(updated.Status).To(Equal(task.StatusCancelled))
			})

			It("should complete an in_progress task and stamp completed_at", func() {
				seeded.Status = task.StatusInProgress
				updated, err := update("completed", "u-member")
				Expect(err).NotTo(HaveOccurred())
				Expect(updated.Status).To(Equal(task.StatusCompleted))
				Expect(updated.CompletedAt).NotTo(BeNil())
			})

			It("should cancel an in_progress task", func() {
				seeded.Status = task.StatusInProgress
				updated, err := update("cancelled", "u-member")
				Expect(err).NotTo(HaveOccurred())
				Expect(updated.Status).To(Equal(task.StatusCancelled))
				Expect(updated.CompletedAt).To(BeNil())
			})
		})

		Context("illegal transitions", func() {
			It("should refuse pending straight to completed", func() {
				_, err := update("completed", "u-member")
				Expect(err).To(HaveOccurred())
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidTransition))
			})

			It("should refuse to resurrect a completed task", func() {
				seeded.Status = task.StatusCompleted
				_, err := update("in_progress", "u-member")
				Expect(err).To(HaveOccurred())
			})

			It("should refuse to move a cancelled task", func() {
				seeded.Status = task.StatusCancelled
				_, err := update("in_progress", "u-member")
				Expect(err).To(HaveOccurred())
			})

			It("should leave the stored task untouched", func() {
				_, err := update("completed", "u-member")
				Expect(err).To(HaveOccurred())
				stored, _ := mockRepo.GetByID(1)
				Expect(stored.Status).To(Equal(task.StatusPending))
			})
		})

		Context("authorization", func() {
			It("should allow the assignee", func() {
				_, err := update("in_progress", "u-member")
				Expect(err).NotTo(HaveOccurred())
			})

			It("should allow the assigner", func() {
				_, err := update("in_progress", "u-leader")
				Expect(err).NotTo(HaveOccurred())
			})

			It("should forbid anyone else", func() {
				_, err := update("in_progress", "u-stranger")
				Expect(err).To(HaveOccurred())
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodeUnauthorizedAccess))
			})
		})

		Context("with an unknown task", func() {
			It("should return not found", func() {
				_, err := service.UpdateStatus(ctx, 99, task.UpdateStatusDTO{Status: "in_progress"}, "u-member")
				Expect(err).To(MatchError(task.ErrTaskNotFound))
			})
		})

		Context("when the write fails", func() {
			It("should surface the error", func() {
				mockRepo.SetShouldFail(true, errors.New("database error"))
				_, err := update("in_progress", "u-member")
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("ListAssignedTo", func() {
		It("should reject an unknown status filter", func() {
			_, err := service.ListAssignedTo("u-member", "someday")
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("should filter by status", func() {
			mockRepo.AddTask(&task.Task{ID: 1, Title: "A", AssignedTo: "u-member", Status: task.StatusPending})
			mockRepo.AddTask(&task.Task{ID: 2, Title: "B", AssignedTo: "u-member", Status: task.StatusCompleted})

			tasks, err := service.ListAssignedTo("u-member", "pending")
			Expect(err).NotTo(HaveOccurred())
			Expect(tasks).To(HaveLen(1))
			Expect(tasks[0].Title).To(Equal("A"))
		})
	})

	Describe("due date sweeps", func() {
		now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

		It("should query the reminder window for ListDueSoon", func() {
			_, err := service.ListDueSoon(now, 24*time.Hour)
			Expect(err).NotTo(HaveOccurred())
			Expect(mockRepo.lastFrom).To(Equal(now))
			Expect(mockRepo.lastTo).To(Equal(now.Add(24 * time.Hour)))
		})

		It("should query everything before now for ListOverdue", func() {
			_, err := service.ListOverdue(now)
			Expect(err).NotTo(HaveOccurred())
			Expect(mockRepo.lastFrom.IsZero()).To(BeTrue())
			Expect(mockRepo.lastTo).To(Equal(now))
		})
	})
})

var _ = Describe("Task", func() {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	Describe("IsOverdue", func() {
		It("should be true for a past due date on an open task", func() {
			t := &task.Task{Status: task.StatusPending, DueDate: &yesterday}
			Expect(t.IsOverdue(now)).To(BeTrue())
		})

		It("should be false before the due date", func() {
			t := &task.Task{Status: task.StatusInProgress, DueDate: &tomorrow}
			Expect(t.IsOverdue(now)).To(BeFalse())
		})

		It("should be false without a due date", func() {
			t := &task.Task{Status: task.StatusPending}
			Expect(t.IsOverdue(now)).To(BeFalse())
		})

		It("should be false once the task is terminal", func() {
			t := &task.Task{Status: task.StatusCompleted, DueDate: &yesterday}
			Expect(t.IsOverdue(now)).To(BeFalse())
			t.Status = task.StatusCancelled
			Expect(t.IsOverdue(now)).To(BeFalse())
		})
	})

	Describe("NewView", func() {
		It("should carry the derived flag", func() {
			t := &task.Task{Status: task.StatusPending, DueDate: &yesterday}
			view := task.NewView(t, now)
			Expect(view.IsOverdue).To(BeTrue())
		})
	})
})
