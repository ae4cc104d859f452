package services

import (
	"context"
	"testing"
	"time"

	"github.com/isdelr/kanban-be/internal/models"
	"gotest.tools/v3/assert"
)

func strPtr(s string) *string { return &s }
func idPtr(id int64) *int64 { return &id }

func TestCreateTask_Defaults(t *testing.T) {
	ctx := context.Background()
	users, tasks, _ := newTestServices(t)
	ann := mustRegister(t, users, "ann")

	task, err := tasks.CreateTask(ctx, ann.ID, models.TaskPatch{Title: models.Some("Write docs")})
	assert.NilError(t, err)
	assert.Equal(t, task.Title, "Write docs")
	assert.Equal(t, task.Description, "")
	assert.Equal(t, task.Status, models.StatusBacklog)
	assert.Equal(t, task.Priority, models.PriorityMedium)
	assert.Assert(t, task.DueDate == nil)
	assert.Assert(t, task.AssignedTo == nil)
	assert.Equal(t, task.CreatedBy.ID, ann.ID)
	assert.Equal(t, task.CreatedBy.Username, "ann")
	assert.Assert(t, task.CreatedAt.Equal(task.UpdatedAt))
}

func TestCreateTask_AllFields(t *testing.T) {
	ctx := context.Background()
	users, tasks, _ := newTestServices(t)
	ann := mustRegister(t, users, "ann")
	bob := mustRegister(t, users, "bob")

	task, err := tasks.CreateTask(ctx, ann.ID, models.TaskPatch{
		Title:       models.Some("Fix login"),
		Description: models.Some(strPtr("Users get logged out")),
		Status:      models.Some(models.StatusInProgress),
		Priority:    models.Some(models.PriorityHigh),
		DueDate:     models.Some(strPtr("2024-03-15")),
		AssignedTo:  models.Some(idPtr(bob.ID)),
	})
	assert.NilError(t, err)

	got, err := tasks.GetTask(ctx, task.ID)
	assert.NilError(t, err)
	assert.Equal(t, got.Description, "Users get logged out")
	assert.Equal(t, got.Status, models.StatusInProgress)
	assert.Equal(t, got.Priority, models.PriorityHigh)
	assert.Equal(t, got.DueDate.String(), "2024-03-15")
	assert.Equal(t, got.AssignedTo.ID, bob.ID)
	assert.Equal(t, got.AssignedTo.FullName, "User bob")
	assert.Equal(t, got.CreatedBy.ID, ann.ID)
}

func TestCreateTask_Validation(t *testing.T) {
	ctx := context.Background()
	users, tasks, _ := newTestServices(t)
	ann := mustRegister(t, users, "ann")

	tests := []struct {
		name  string
		patch models.TaskPatch
		msg   string
	}{
		{"missing title", models.TaskPatch{}, "Title is required"},
		{"blank title", models.TaskPatch{Title: models.Some("   ")}, "Title is required"},
		{"bad due date", models.TaskPatch{Title: models.Some("x"), DueDate: models.Some(strPtr("not-a-date"))}, "Invalid due_date format"},
		{"bad status", models.TaskPatch{Title: models.Some("x"), Status: models.Some(models.Status("archived"))}, `Invalid status "archived"`},
		{"bad priority", models.TaskPatch{Title: models.Some("x"), Priority: models.Some(models.Priority("urgent"))}, `Invalid priority "urgent"`},
		{"unknown assignee", models.TaskPatch{Title: models.Some("x"), AssignedTo: models.Some(idPtr(999))}, "assigned_to refers to unknown user 999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tasks.CreateTask(ctx, ann.ID, tt.patch)
			assertValidation(t, err, tt.msg)
		})
	}

	all, err := tasks.ListTasks(ctx)
	assert.NilError(t, err)
	assert.Equal(t, len(all), 0, "rejected creates must persist nothing")
}

func TestCreateTask_DueDateFromTimestamp(t *testing.T) {
	ctx := context.Background()
	users, tasks, _ := newTestServices(t)
	ann := mustRegister(t, users, "ann")

	task, err := tasks.CreateTask(ctx, ann.ID, models.TaskPatch{
		Title:   models.Some("x"),
		DueDate: models.Some(strPtr("2024-03-15T00:00:00.000Z")),
	})
	assert.NilError(t, err)
	assert.Equal(t, task.DueDate.String(), "2024-03-15")
}

func TestListTasks_NewestFirst(t *testing.T) {
	ctx := context.Background()
	users, tasks, _ := newTestServices(t)
	ann := mustRegister(t, users, "ann")

	var ids []int64
	for _, title := range []string{"first", "second", "third"} {
		task, err := tasks.CreateTask(ctx, ann.ID, models.TaskPatch{Title: models.Some(title)})
		assert.NilError(t, err)
		ids = append(ids, task.ID)
	}

	all, err := tasks.ListTasks(ctx)
	assert.NilError(t, err)
	assert.Equal(t, len(all), 3)
	assert.DeepEqual(t, []int64{all[0].ID, all[1].ID, all[2].ID}, []int64{ids[2], ids[1], ids[0]})
}

func TestListTasks_SameInstantOrderedByID(t *testing.T) {
	ctx := context.Background()
	users, tasks, clock := newTestServices(t)
	ann := mustRegister(t, users, "ann")
	fixed := clock.t
	tasks.now = func() time.Time { return fixed }

	a, err := tasks.CreateTask(ctx, ann.ID, models.TaskPatch{Title: models.Some("a")})
	assert.NilError(t, err)
	b, err := tasks.CreateTask(ctx, ann.ID, models.TaskPatch{Title: models.Some("b")})
	assert.NilError(t, err)

	all, err := tasks.ListTasks(ctx)
	assert.NilError(t, err)
	assert.DeepEqual(t, []int64{all[0].ID, all[1].ID}, []int64{b.ID, a.ID})
}

func TestUpdateTask_PartialFields(t *testing.T) {
	ctx := context.Background()
	users, tasks, _ := newTestServices(t)
	ann := mustRegister(t, users, "ann")
	bob := mustRegister(t, users, "bob")

	task, err := tasks.CreateTask(ctx, ann.ID, models.TaskPatch{
		Title:       models.Some("Draft"),
		Description: models.Some(strPtr("keep me")),
		DueDate:     models.Some(strPtr("2024-03-15")),
	})
	assert.NilError(t, err)

	updated, err := tasks.UpdateTask(ctx, task.ID, models.TaskPatch{
		Title:      models.Some("Final"),
		Priority:   models.Some(models.PriorityLow),
		AssignedTo: models.Some(idPtr(bob.ID)),
	})
	assert.NilError(t, err)
	assert.Equal(t, updated.Title, "Final")
	assert.Equal(t, updated.Priority, models.PriorityLow)
	assert.Equal(t, updated.AssignedTo.ID, bob.ID)
	assert.Equal(t, updated.Description, "keep me")
	assert.Equal(t, updated.Status, models.StatusBacklog)
	assert.Equal(t, updated.DueDate.String(), "2024-03-15")
	assert.Equal(t, updated.CreatedBy.ID, ann.ID)
	assert.Assert(t, updated.UpdatedAt.After(task.UpdatedAt))
	assert.Assert(t, updated.CreatedAt.Equal(task.CreatedAt))
}

func TestUpdateTask_ClearsNullableFields(t *testing.T) {
	ctx := context.Background()
	users, tasks, _ := newTestServices(t)
	ann := mustRegister(t, users, "ann")

	task, err := tasks.CreateTask(ctx, ann.ID, models.TaskPatch{
		Title:      models.Some("x"),
		DueDate:    models.Some(strPtr("2024-03-15")),
		AssignedTo: models.Some(idPtr(ann.ID)),
	})
	assert.NilError(t, err)

	updated, err := tasks.UpdateTask(ctx, task.ID, models.TaskPatch{
		DueDate:    models.Some(strPtr("")),
		AssignedTo: models.Some[*int64](nil),
	})
	assert.NilError(t, err)
	assert.Assert(t, updated.DueDate == nil)
	assert.Assert(t, updated.AssignedTo == nil)

	updated, err = tasks.UpdateTask(ctx, task.ID, models.TaskPatch{
		DueDate:     models.Some(strPtr("2024-04-01")),
		Description: models.Some[*string](nil),
	})
	assert.NilError(t, err)
	assert.Equal(t, updated.DueDate.String(), "2024-04-01")
	assert.Equal(t, updated.Description, "")
}

func TestUpdateTask_RejectedPatchWritesNothing(t *testing.T) {
	ctx := context.Background()
	users, tasks, _ := newTestServices(t)
	ann := mustRegister(t, users, "ann")

	task, err := tasks.CreateTask(ctx, ann.ID, models.TaskPatch{Title: models.Some("Original")})
	assert.NilError(t, err)

	_, err = tasks.UpdateTask(ctx, task.ID, models.TaskPatch{
		Title:   models.Some("Changed"),
		Status:  models.Some(models.StatusDone),
		DueDate: models.Some(strPtr("not-a-date")),
	})
	assertValidation(t, err, "Invalid due_date format")

	_, err = tasks.UpdateTask(ctx, task.ID, models.TaskPatch{
		Title:      models.Some("Changed"),
		AssignedTo: models.Some(idPtr(999)),
	})
	assertValidation(t, err, "")

	got, err := tasks.GetTask(ctx, task.ID)
	assert.NilError(t, err)
	assert.Equal(t, got.Title, "Original")
	assert.Equal(t, got.Status, models.StatusBacklog)
	assert.Assert(t, got.UpdatedAt.Equal(task.UpdatedAt), "failed update must not touch updated_at")
}

func TestUpdateTask_NotFound(t *testing.T) {
	_, tasks, _ := newTestServices(t)
	_, err := tasks.UpdateTask(context.Background(), 404, models.TaskPatch{Title: models.Some("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	users, tasks, _ := newTestServices(t)
	ann := mustRegister(t, users, "ann")

	task, err := tasks.CreateTask(ctx, ann.ID, models.TaskPatch{Title: models.Some("Move me")})
	assert.NilError(t, err)

	// Any column can be reached from any other.
	prev := task
	for _, status := range []models.Status{models.StatusDone, models.StatusBacklog, models.StatusInProgress, models.StatusTodo} {
		moved, err := tasks.UpdateStatus(ctx, task.ID, status)
		assert.NilError(t, err)
		assert.Equal(t, moved.Status, status)
		assert.Equal(t, moved.Title, "Move me")
		assert.Assert(t, !moved.UpdatedAt.Before(prev.UpdatedAt))
		prev = moved
	}

	_, err = tasks.UpdateStatus(ctx, task.ID, "")
	assertValidation(t, err, "Status is required")

	_, err = tasks.UpdateStatus(ctx, task.ID, "archived")
	assertValidation(t, err, `Invalid status "archived"`)

	got, err := tasks.GetTask(ctx, task.ID)
	assert.NilError(t, err)
	assert.Equal(t, got.Status, models.StatusTodo)
	assert.Assert(t, got.UpdatedAt.Equal(prev.UpdatedAt))

	_, err = tasks.UpdateStatus(ctx, 404, models.StatusDone)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	users, tasks, _ := newTestServices(t)
	ann := mustRegister(t, users, "ann")

	task, err := tasks.CreateTask(ctx, ann.ID, models.TaskPatch{Title: models.Some("Temporary")})
	assert.NilError(t, err)

	assert.NilError(t, tasks.DeleteTask(ctx, task.ID))

	_, err = tasks.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, tasks.DeleteTask(ctx, task.ID), ErrNotFound)
	assert.ErrorIs(t, tasks.DeleteTask(ctx, 12345), ErrNotFound)
}

func TestListTasksAssignedTo(t *testing.T) {
	ctx := context.Background()
	users, tasks, _ := newTestServices(t)
	ann := mustRegister(t, users, "ann")
	bob := mustRegister(t, users, "bob")

	mine, err := tasks.CreateTask(ctx, ann.ID, models.TaskPatch{Title: models.Some("bob 1"), AssignedTo: models.Some(idPtr(bob.ID))})
	assert.NilError(t, err)
	_, err = tasks.CreateTask(ctx, ann.ID, models.TaskPatch{Title: models.Some("unassigned")})
	assert.NilError(t, err)
	later, err := tasks.CreateTask(ctx, bob.ID, models.TaskPatch{Title: models.Some("bob 2"), AssignedTo: models.Some(idPtr(bob.ID))})
	assert.NilError(t, err)

	assigned, err := tasks.ListTasksAssignedTo(ctx, bob.ID)
	assert.NilError(t, err)
	assert.DeepEqual(t, []int64{assigned[0].ID, assigned[1].ID}, []int64{later.ID, mine.ID})

	none, err := tasks.ListTasksAssignedTo(ctx, ann.ID)
	assert.NilError(t, err)
	assert.Equal(t, len(none), 0)
}
