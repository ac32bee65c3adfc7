package postgres

import (
	"errors"
	"time"

	taskDatamodel "github.com/gleeworld/gleeworld/internal/core/datamodel/task"
	"github.com/gleeworld/gleeworld/internal/task"
	"gorm.io/gorm"
)

// TaskRepository implements task.Repository using GORM
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) task.Repository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(t *task.Task) (*task.Task, error) {
	row := task.ToDataModel(t)
	now := time.Now()
	row.CreatedAt = now
	row.UpdatedAt = now

	if err := r.db.Create(row).Error; err != nil {
		return nil, err
	}
	return task.FromDataModel(row), nil
}

func (r *TaskRepository) GetByID(id int64) (*task.Task, error) {
	var row taskDatamodel.Task
	if err := r.db.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, task.ErrTaskNotFound
		}
		return nil, err
	}
	return task.FromDataModel(&row), nil
}

func (r *TaskRepository) ListAssignedTo(userID string, statusFilter task.Status) ([]*task.Task, error) {
	query := r.db.Where("assigned_to = ?", userID)
	if statusFilter != "" {
		query = query.Where("status = ?", string(statusFilter))
	}

	var rows []*taskDatamodel.Task
	if err := query.Order("due_date ASC NULLS LAST, created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return task.FromDataModelSlice(rows), nil
}

func (r *TaskRepository) ListAssignedBy(userID string) ([]*task.Task, error) {
	var rows []*taskDatamodel.Task
	if err := r.db.Where("assigned_by = ?", userID).
		Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return task.FromDataModelSlice(rows), nil
}

// ListDueBetween returns non-terminal tasks with a due date in (from, to].
// A zero from means "any time in the past".
func (r *TaskRepository) ListDueBetween(from, to time.Time) ([]*task.Task, error) {
	query := r.db.
		Where("status IN ?", []string{string(task.StatusPending), string(task.StatusInProgress)}).
		Where("due_date IS NOT NULL AND due_date <= ?", to)
	if !from.IsZero() {
		query = query.Where("due_date > ?", from)
	}

	var rows []*taskDatamodel.Task
	if err := query.Order("due_date ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return task.FromDataModelSlice(rows), nil
}

func (r *TaskRepository) UpdateStatus(id int64, status task.Status, completedAt *time.Time) error {
	updates := map[string]interface{}{
		"status":     string(status),
		"updated_at": time.Now(),
	}
	if completedAt != nil {
		updates["completed_at"] = *completedAt
	}

	result := r.db.Model(&taskDatamodel.Task{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return task.ErrTaskNotFound
	}
	return nil
}
