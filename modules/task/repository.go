package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/example/task-tracker/domain/task"
	"gorm.io/gorm"
)

var (
	// ErrTaskNotFound is returned when no task with the given ID exists.
	ErrTaskNotFound = errors.New("task not found")
	// ErrSchemaMismatch classifies query failures caused by a tasks table
	// that predates the category/priority columns. Callers may repair the
	// schema and retry once.
	ErrSchemaMismatch = errors.New("task schema mismatch")
)

// Repository provides access to task storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create saves a new task to the database.
func (r *Repository) Create(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindByID retrieves a task by its ID regardless of owner. Ownership
// checks are the service's job so a wrong owner yields 403, not 404.
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// List retrieves the tasks owned by userID with the given completion state,
// newest first. Active filters compose with AND.
func (r *Repository) List(ctx context.Context, userID string, completed bool, filter domain.Filter) ([]*domain.Task, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("completed = ?", completed)

	if filter.Query != "" {
		like := "%" + strings.ToLower(filter.Query) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}

	var tasks []*domain.Task
	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, classify(err, "failed to list tasks")
	}
	return tasks, nil
}

// Save persists all fields of an existing task.
func (r *Repository) Save(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return classify(err, "failed to update task")
	}
	return nil
}

// Delete permanently removes a task by ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&domain.Task{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// CountByUser returns the total and completed task counts for a user.
func (r *Repository) CountByUser(ctx context.Context, userID string) (total, completed int64, err error) {
	if err = r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	if err = r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Count(&completed).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count completed tasks: %w", err)
	}

	return total, completed, nil
}

// classify wraps a storage error, tagging missing-column failures as
// ErrSchemaMismatch so the service can self-heal and retry.
func classify(err error, msg string) error {
	if strings.Contains(err.Error(), "no such column") {
		return fmt.Errorf("%s: %w: %v", msg, ErrSchemaMismatch, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
