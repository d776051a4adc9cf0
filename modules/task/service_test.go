package task

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *TaskService {
	t.Helper()

	db := setupTestDB(t)
	repo := NewRepository(db)
	guard := NewSchemaGuard(db)
	return NewTaskService(repo, guard)
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestService_CreateAppliesDefaults(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, CreateTaskRequest{
		UserID: "alice",
		Title:  "Buy milk",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "alice", task.UserID)
	assert.Equal(t, domain.DefaultCategory, task.Category)
	assert.Equal(t, domain.DefaultPriority, task.Priority)
	assert.False(t, task.Completed)
	assert.Nil(t, task.DueDate)
	assert.False(t, task.CreatedAt.IsZero())
}

func TestService_CreateValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateTaskRequest{UserID: "alice"})
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = svc.Create(ctx, CreateTaskRequest{
		UserID:  "alice",
		Title:   "Bad date",
		DueDate: "next tuesday",
	})
	assert.ErrorIs(t, err, ErrInvalidDueDate)
}

func TestService_CreateParsesDueDateFormats(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		value string
	}{
		{"date only", "2026-03-15"},
		{"date and minutes", "2026-03-15T09:30"},
		{"date and seconds", "2026-03-15T09:30:00"},
		{"rfc3339", "2026-03-15T09:30:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := svc.Create(ctx, CreateTaskRequest{
				UserID:  "alice",
				Title:   "Dated " + tt.name,
				DueDate: tt.value,
			})
			require.NoError(t, err)
			require.NotNil(t, task.DueDate)
			assert.Equal(t, 2026, task.DueDate.Year())
			assert.Equal(t, time.March, task.DueDate.Month())
		})
	}
}

func TestService_UpdateSparsePatch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTaskRequest{
		UserID:   "alice",
		Title:    "Original",
		Category: "Work",
		Priority: "High",
		DueDate:  "2026-03-15",
	})
	require.NoError(t, err)

	// Only the title is patched; everything else must survive.
	updated, err := svc.Update(ctx, UpdateTaskRequest{
		UserID: "alice",
		TaskID: created.ID,
		Title:  strPtr("Renamed"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "Work", updated.Category)
	assert.Equal(t, "High", updated.Priority)
	assert.NotNil(t, updated.DueDate)

	updated, err = svc.Update(ctx, UpdateTaskRequest{
		UserID:    "alice",
		TaskID:    created.ID,
		Completed: boolPtr(true),
	})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "Renamed", updated.Title)
}

func TestService_UpdateEmptyCategoryKeepsStoredValue(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTaskRequest{
		UserID:   "alice",
		Title:    "Keep my category",
		Category: "Work",
		Priority: "High",
	})
	require.NoError(t, err)

	// Empty strings on category and priority are "keep", not "clear".
	updated, err := svc.Update(ctx, UpdateTaskRequest{
		UserID:   "alice",
		TaskID:   created.ID,
		Category: strPtr(""),
		Priority: strPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "Work", updated.Category)
	assert.Equal(t, "High", updated.Priority)
}

func TestService_UpdateNullDueDateClears(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTaskRequest{
		UserID:  "alice",
		Title:   "Deadline task",
		DueDate: "2026-03-15",
	})
	require.NoError(t, err)
	require.NotNil(t, created.DueDate)

	// Unlike category and priority, an explicit null due date clears the
	// stored value. The patch arrives as JSON, so decode it the way a
	// handler would to prove null and absent stay distinguishable.
	var req UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"due_date": null}`), &req))
	req.UserID = "alice"
	req.TaskID = created.ID

	updated, err := svc.Update(ctx, req)
	require.NoError(t, err)
	assert.Nil(t, updated.DueDate)

	// An absent due date leaves the field alone.
	_, err = svc.Update(ctx, UpdateTaskRequest{
		UserID:  "alice",
		TaskID:  created.ID,
		DueDate: NullableString{Set: true, Valid: true, Value: "2026-04-01"},
	})
	require.NoError(t, err)

	var untouched UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"completed": true}`), &untouched))
	untouched.UserID = "alice"
	untouched.TaskID = created.ID

	updated, err = svc.Update(ctx, untouched)
	require.NoError(t, err)
	require.NotNil(t, updated.DueDate)
	assert.Equal(t, time.April, updated.DueDate.Month())
}

func TestService_UpdateRejectsEmptyTitle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTaskRequest{UserID: "alice", Title: "Named"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, UpdateTaskRequest{
		UserID: "alice",
		TaskID: created.ID,
		Title:  strPtr(""),
	})
	assert.ErrorIs(t, err, ErrTitleRequired)
}

func TestService_UpdateOwnership(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTaskRequest{UserID: "alice", Title: "Private"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, UpdateTaskRequest{
		UserID: "bob",
		TaskID: created.ID,
		Title:  strPtr("Stolen"),
	})
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = svc.Update(ctx, UpdateTaskRequest{
		UserID: "alice",
		TaskID: "no-such-id",
		Title:  strPtr("Ghost"),
	})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestService_DeleteOwnership(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTaskRequest{UserID: "alice", Title: "Mine"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "bob", created.ID), ErrNotOwner)
	assert.NoError(t, svc.Delete(ctx, "alice", created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "alice", created.ID), ErrTaskNotFound)
}

func TestService_TaskLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTaskRequest{UserID: "alice", Title: "Buy milk"})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCategory, created.Category)
	assert.Equal(t, domain.DefaultPriority, created.Priority)
	assert.False(t, created.Completed)

	active, err := svc.List(ctx, "alice", false, domain.Filter{})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Buy milk", active[0].Title)

	_, err = svc.Update(ctx, UpdateTaskRequest{
		UserID:    "alice",
		TaskID:    created.ID,
		Completed: boolPtr(true),
	})
	require.NoError(t, err)

	active, err = svc.List(ctx, "alice", false, domain.Filter{})
	require.NoError(t, err)
	assert.Empty(t, active)

	completed, err := svc.List(ctx, "alice", true, domain.Filter{})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, created.ID, completed[0].ID)

	stats, err := svc.Stats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{Total: 1, Completed: 1, Pending: 0, Percent: 100}, stats)
}

func TestService_Stats(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// A brand new user has zero tasks and a zero (not NaN) percentage.
	stats, err := svc.Stats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{}, stats)

	for i, title := range []string{"a", "b", "c", "d"} {
		created, err := svc.Create(ctx, CreateTaskRequest{UserID: "alice", Title: title})
		require.NoError(t, err)
		if i < 3 {
			_, err = svc.Update(ctx, UpdateTaskRequest{
				UserID:    "alice",
				TaskID:    created.ID,
				Completed: boolPtr(true),
			})
			require.NoError(t, err)
		}
	}

	stats, err = svc.Stats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(3), stats.Completed)
	assert.Equal(t, int64(1), stats.Pending)
	assert.InDelta(t, 75.0, stats.Percent, 0.001)

	// Another user's tasks never leak into the counts.
	stats, err = svc.Stats(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}
