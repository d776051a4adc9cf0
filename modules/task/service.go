package task

import (
	"context"
	"errors"
	"log"
	"time"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/modules/cache"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrTitleRequired is returned when a task is created or patched with
	// an empty title.
	ErrTitleRequired = errors.New("title is required")
	// ErrInvalidDueDate is returned when a due date cannot be parsed.
	ErrInvalidDueDate = errors.New("invalid due date format")
	// ErrNotOwner is returned when a task exists but belongs to another
	// user. Deliberately distinct from ErrTaskNotFound: cross-owner access
	// is rejected, not hidden.
	ErrNotOwner = errors.New("task not owned by user")
)

// dueDateLayouts are accepted due date formats, most specific first.
var dueDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// TaskService implements task listing, mutation and statistics for
// authenticated principals.
type TaskService struct {
	repo    *Repository
	guard   *SchemaGuard
	cache   *cache.Cache // nil when caching is disabled
	sfGroup singleflight.Group
}

// NewTaskService creates a new TaskService.
func NewTaskService(repo *Repository, guard *SchemaGuard) *TaskService {
	return &TaskService{
		repo:  repo,
		guard: guard,
	}
}

// SetCache enables the stats cache.
func (s *TaskService) SetCache(c *cache.Cache) {
	s.cache = c
}

// List returns the user's tasks with the given completion state, filtered
// and ordered newest first. A schema-mismatch failure triggers the guard
// and exactly one retry of the identical query; a second failure
// propagates.
func (s *TaskService) List(ctx context.Context, userID string, completed bool, filter domain.Filter) ([]*domain.Task, error) {
	tasks, err := s.repo.List(ctx, userID, completed, filter)
	if err != nil && errors.Is(err, ErrSchemaMismatch) {
		log.Printf("[task] Schema mismatch on list, repairing and retrying: %v", err)
		s.guard.Ensure(ctx)
		tasks, err = s.repo.List(ctx, userID, completed, filter)
	}
	return tasks, err
}

// Create adds a new task owned by userID. Category and priority fall back
// to their defaults when absent or empty.
func (s *TaskService) Create(ctx context.Context, req CreateTaskRequest) (*domain.Task, error) {
	if req.Title == "" {
		return nil, ErrTitleRequired
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	category := req.Category
	if category == "" {
		category = domain.DefaultCategory
	}
	priority := req.Priority
	if priority == "" {
		priority = domain.DefaultPriority
	}

	task := &domain.Task{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		Category:    category,
		Priority:    priority,
		Completed:   false,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}

	s.invalidateStats(ctx, req.UserID)
	return task, nil
}

// Update applies a sparse patch to a task after ownership checks. Absent
// fields are untouched. A present-but-empty category or priority keeps the
// stored value, while a present-but-null (or empty) due date clears it.
func (s *TaskService) Update(ctx context.Context, req UpdateTaskRequest) (*domain.Task, error) {
	task, err := s.repo.FindByID(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != req.UserID {
		return nil, ErrNotOwner
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, ErrTitleRequired
		}
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
	}
	if req.DueDate.Set {
		if !req.DueDate.Valid || req.DueDate.Value == "" {
			task.DueDate = nil
		} else {
			dueDate, err := parseDueDate(req.DueDate.Value)
			if err != nil {
				return nil, err
			}
			task.DueDate = dueDate
		}
	}
	if req.Category != nil && *req.Category != "" {
		task.Category = *req.Category
	}
	if req.Priority != nil && *req.Priority != "" {
		task.Priority = *req.Priority
	}

	if err := s.repo.Save(ctx, task); err != nil {
		return nil, err
	}

	s.invalidateStats(ctx, req.UserID)
	return task, nil
}

// Delete permanently removes a task after ownership checks.
func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task.UserID != userID {
		return ErrNotOwner
	}

	if err := s.repo.Delete(ctx, taskID); err != nil {
		return err
	}

	s.invalidateStats(ctx, userID)
	return nil
}

// Stats computes completion statistics for the user's tasks, reading
// through the cache when one is configured. Concurrent misses for the same
// user collapse into a single database round trip.
func (s *TaskService) Stats(ctx context.Context, userID string) (domain.Stats, error) {
	if s.cache != nil {
		var cached domain.Stats
		found, err := s.cache.GetStats(ctx, userID, &cached)
		if err != nil {
			log.Printf("[task] Stats cache error for user %s: %v", userID, err)
			// Fall through to the database on cache errors
		}
		if found {
			return cached, nil
		}
	}

	val, err, _ := s.sfGroup.Do(userID, func() (any, error) {
		return s.computeStats(ctx, userID)
	})
	if err != nil {
		return domain.Stats{}, err
	}
	stats := val.(domain.Stats)

	if s.cache != nil {
		if err := s.cache.SetStats(ctx, userID, stats); err != nil {
			log.Printf("[task] Failed to cache stats for user %s: %v", userID, err)
		}
	}

	return stats, nil
}

// computeStats derives the stats record from the repository counts.
func (s *TaskService) computeStats(ctx context.Context, userID string) (domain.Stats, error) {
	total, completed, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return domain.Stats{}, err
	}

	var percent float64
	if total > 0 {
		percent = float64(completed) / float64(total) * 100
	}

	return domain.Stats{
		Total:     total,
		Completed: completed,
		Pending:   total - completed,
		Percent:   percent,
	}, nil
}

// invalidateStats drops the cached stats after a mutation. Cache failures
// are logged and ignored.
func (s *TaskService) invalidateStats(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUser(ctx, userID); err != nil {
		log.Printf("[task] Failed to invalidate stats cache for user %s: %v", userID, err)
	}
}

// parseDueDate parses an optional due date string. Empty means no due
// date; an unparseable value is a validation error.
func parseDueDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, ErrInvalidDueDate
}
