package task

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// TaskPort defines the interface other modules use to access task
// functionality.
type TaskPort interface {
	Create(ctx context.Context, req CreateTaskRequest) (TaskResponse, error)
	List(ctx context.Context, req ListTasksRequest) (ListTasksResponse, error)
	Update(ctx context.Context, req UpdateTaskRequest) (TaskResponse, error)
	Delete(ctx context.Context, req DeleteTaskRequest) (DeleteTaskResponse, error)
	Stats(ctx context.Context, userID string) (domain.Stats, error)
}

// TaskAdapter implements TaskPort using the service container.
type TaskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new TaskAdapter.
func NewTaskAdapter(container mono.ServiceContainer) *TaskAdapter {
	return &TaskAdapter{
		container: container,
	}
}

// Create creates a task.
func (a *TaskAdapter) Create(ctx context.Context, req CreateTaskRequest) (TaskResponse, error) {
	var resp TaskResponse
	if err := call(ctx, a, "create", &req, &resp); err != nil {
		return TaskResponse{}, err
	}
	return resp, nil
}

// List lists tasks.
func (a *TaskAdapter) List(ctx context.Context, req ListTasksRequest) (ListTasksResponse, error) {
	var resp ListTasksResponse
	if err := call(ctx, a, "list", &req, &resp); err != nil {
		return ListTasksResponse{}, err
	}
	return resp, nil
}

// Update applies a sparse patch to a task.
func (a *TaskAdapter) Update(ctx context.Context, req UpdateTaskRequest) (TaskResponse, error) {
	var resp TaskResponse
	if err := call(ctx, a, "update", &req, &resp); err != nil {
		return TaskResponse{}, err
	}
	return resp, nil
}

// Delete removes a task.
func (a *TaskAdapter) Delete(ctx context.Context, req DeleteTaskRequest) (DeleteTaskResponse, error) {
	var resp DeleteTaskResponse
	if err := call(ctx, a, "delete", &req, &resp); err != nil {
		return DeleteTaskResponse{}, err
	}
	return resp, nil
}

// Stats returns a user's task statistics.
func (a *TaskAdapter) Stats(ctx context.Context, userID string) (domain.Stats, error) {
	req := StatsRequest{UserID: userID}
	var resp domain.Stats
	if err := call(ctx, a, "stats", &req, &resp); err != nil {
		return domain.Stats{}, err
	}
	return resp, nil
}

// call invokes a task service over the container.
func call[Req any, Resp any](ctx context.Context, a *TaskAdapter, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}
