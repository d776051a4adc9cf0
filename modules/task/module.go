package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/modules/cache"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/gorm"
)

// TaskModule provides task management services over a shared database
// handle.
type TaskModule struct {
	db      *gorm.DB
	service *TaskService
	cache   *cache.Cache
}

// Compile-time interface checks.
var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule. The database handle is injected by
// the caller; the module never opens its own connection.
func NewModule(db *gorm.DB) *TaskModule {
	return &TaskModule{
		db: db,
	}
}

// Name returns the module name.
func (m *TaskModule) Name() string {
	return "task"
}

// SetCache wires the optional stats cache into the service.
func (m *TaskModule) SetCache(c *cache.Cache) {
	m.cache = c
	if m.service != nil {
		m.service.SetCache(c)
	}
}

// Start migrates the task schema, runs the schema guard eagerly once, and
// wires up the service.
func (m *TaskModule) Start(ctx context.Context) error {
	if m.db == nil {
		return fmt.Errorf("database handle not set")
	}

	if err := m.db.AutoMigrate(&domain.Task{}); err != nil {
		return fmt.Errorf("failed to migrate tasks table: %w", err)
	}

	repo := NewRepository(m.db)
	guard := NewSchemaGuard(m.db)
	// Eager pass heals databases written by older builds before the first
	// query has to.
	guard.Ensure(ctx)

	m.service = NewTaskService(repo, guard)
	if m.cache != nil {
		m.service.SetCache(m.cache)
	}

	log.Println("[task] Module started")
	return nil
}

// Stop shuts down the module. The shared database handle is closed by
// main, not here.
func (m *TaskModule) Stop(_ context.Context) error {
	log.Println("[task] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"cache": m.cache != nil,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create", json.Unmarshal, json.Marshal, m.handleCreate,
	); err != nil {
		return fmt.Errorf("failed to register create service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list", json.Unmarshal, json.Marshal, m.handleList,
	); err != nil {
		return fmt.Errorf("failed to register list service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update", json.Unmarshal, json.Marshal, m.handleUpdate,
	); err != nil {
		return fmt.Errorf("failed to register update service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete", json.Unmarshal, json.Marshal, m.handleDelete,
	); err != nil {
		return fmt.Errorf("failed to register delete service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "stats", json.Unmarshal, json.Marshal, m.handleStats,
	); err != nil {
		return fmt.Errorf("failed to register stats service: %w", err)
	}

	log.Printf("[task] Registered services: create, list, update, delete, stats")
	return nil
}

// handleCreate handles task creation.
func (m *TaskModule) handleCreate(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, err := m.service.Create(ctx, req)
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(task), nil
}

// handleList handles task listing.
func (m *TaskModule) handleList(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	filter := domain.Filter{
		Query:    req.Query,
		Category: req.Category,
		Priority: req.Priority,
	}

	tasks, err := m.service.List(ctx, req.UserID, req.Completed, filter)
	if err != nil {
		return ListTasksResponse{}, err
	}

	resp := ListTasksResponse{
		Tasks: make([]TaskResponse, 0, len(tasks)),
		Total: len(tasks),
	}
	for _, task := range tasks {
		resp.Tasks = append(resp.Tasks, toTaskResponse(task))
	}
	return resp, nil
}

// handleUpdate handles sparse task patches.
func (m *TaskModule) handleUpdate(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, err := m.service.Update(ctx, req)
	if err != nil {
		return TaskResponse{}, err
	}
	return toTaskResponse(task), nil
}

// handleDelete handles task deletion.
func (m *TaskModule) handleDelete(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.Delete(ctx, req.UserID, req.TaskID); err != nil {
		return DeleteTaskResponse{Deleted: false, ID: req.TaskID}, err
	}
	return DeleteTaskResponse{Deleted: true, ID: req.TaskID}, nil
}

// handleStats handles stats computation.
func (m *TaskModule) handleStats(ctx context.Context, req StatsRequest, _ *mono.Msg) (domain.Stats, error) {
	return m.service.Stats(ctx, req.UserID)
}
