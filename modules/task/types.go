package task

import (
	"encoding/json"
	"time"

	domain "github.com/example/task-tracker/domain/task"
)

// NullableString distinguishes "field absent" from "field explicitly null"
// in patch payloads. The zero value means the field was absent; the omitzero
// tag keeps it that way across a marshal round trip.
type NullableString struct {
	Set   bool
	Valid bool // false when the field was explicitly null
	Value string
}

// IsZero reports whether the field was absent from the payload.
func (n NullableString) IsZero() bool {
	return !n.Set
}

// UnmarshalJSON records presence and handles explicit null.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Valid = false
		return nil
	}
	n.Valid = true
	return json.Unmarshal(data, &n.Value)
}

// MarshalJSON emits null for an explicit null and the string otherwise.
func (n NullableString) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date,omitempty"` // ISO-8601, optional
	Category    string `json:"category,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

// ListTasksRequest is the request for listing tasks of one user.
type ListTasksRequest struct {
	UserID    string `json:"user_id"`
	Completed bool   `json:"completed"`
	Query     string `json:"q,omitempty"`
	Category  string `json:"category,omitempty"`
	Priority  string `json:"priority,omitempty"`
}

// ListTasksResponse is the response containing a task listing.
type ListTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
}

// UpdateTaskRequest is a sparse patch: nil/absent fields are untouched.
// Present-but-empty category and priority also mean "no change", while a
// present-but-null (or empty) due_date clears the stored value.
type UpdateTaskRequest struct {
	UserID      string         `json:"user_id"`
	TaskID      string         `json:"task_id"`
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Completed   *bool          `json:"completed,omitempty"`
	DueDate     NullableString `json:"due_date,omitzero"`
	Category    *string        `json:"category,omitempty"`
	Priority    *string        `json:"priority,omitempty"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	UserID string `json:"user_id"`
	TaskID string `json:"task_id"`
}

// DeleteTaskResponse is the response after deleting a task.
type DeleteTaskResponse struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// StatsRequest is the request for a user's task statistics.
type StatsRequest struct {
	UserID string `json:"user_id"`
}

// TaskResponse represents a task in responses.
type TaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Category    string     `json:"category"`
	Priority    string     `json:"priority"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
}

// toTaskResponse converts a Task entity to a TaskResponse.
func toTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		Category:    task.Category,
		Priority:    task.Priority,
		Completed:   task.Completed,
		CreatedAt:   task.CreatedAt,
	}
}
