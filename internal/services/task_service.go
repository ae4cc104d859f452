package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/isdelr/kanban-be/internal/database"
	"github.com/isdelr/kanban-be/internal/models"
)

// TaskServiceProvider defines the interface for task services.
type TaskServiceProvider interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	ListTasksAssignedTo(ctx context.Context, userID int64) ([]models.Task, error)
	GetTask(ctx context.Context, id int64) (models.Task, error)
	CreateTask(ctx context.Context, callerID int64, patch models.TaskPatch) (models.Task, error)
	UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (models.Task, error)
	UpdateStatus(ctx context.Context, id int64, status models.Status) (models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// TaskService provides business logic for the kanban board.
type TaskService struct {
	db  *database.DB
	now func() time.Time
}

// NewTaskService creates a new TaskService.
func NewTaskService(db *database.DB) *TaskService {
	return &TaskService{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// taskFields are the client-editable columns of a task.
type taskFields struct {
	title       string
	description string
	status      models.Status
	priority    models.Priority
	dueDate     *models.Date
	assignedTo  *int64
}

func defaultTaskFields() taskFields {
	return taskFields{status: models.StatusBacklog, priority: models.PriorityMedium}
}

// apply returns f with every field present in p changed. On error the
// receiver is untouched, so nothing from a rejected patch is ever written.
func (f taskFields) apply(p models.TaskPatch) (taskFields, error) {
	if p.Title.Set {
		title := strings.TrimSpace(p.Title.Value)
		if title == "" {
			return f, invalid("Title is required")
		}
		f.title = title
	}
	if p.Description.Set {
		f.description = ""
		if p.Description.Value != nil {
			f.description = *p.Description.Value
		}
	}
	if p.Status.Set {
		if !p.Status.Value.Valid() {
			return f, invalid(fmt.Sprintf("Invalid status %q", p.Status.Value))
		}
		f.status = p.Status.Value
	}
	if p.Priority.Set {
		if !p.Priority.Value.Valid() {
			return f, invalid(fmt.Sprintf("Invalid priority %q", p.Priority.Value))
		}
		f.priority = p.Priority.Value
	}
	if p.DueDate.Set {
		f.dueDate = nil
		if p.DueDate.Value != nil && strings.TrimSpace(*p.DueDate.Value) != "" {
			d, err := models.ParseDate(*p.DueDate.Value)
			if err != nil {
				return f, invalid("Invalid due_date format")
			}
			f.dueDate = &d
		}
	}
	if p.AssignedTo.Set {
		f.assignedTo = p.AssignedTo.Value
	}
	return f, nil
}

func (s *TaskService) selectTasks() squirrel.SelectBuilder {
	return s.db.Builder().
		Select(
			"t.id", "t.title", "t.description", "t.status", "t.priority", "t.due_date", "t.created_at", "t.updated_at",
			"a.id", "a.username", "a.email", "a.full_name", "a.created_at",
			"c.id", "c.username", "c.email", "c.full_name", "c.created_at",
		).
		From("tasks t").
		LeftJoin("users a ON a.id = t.assigned_to").
		LeftJoin("users c ON c.id = t.created_by")
}

// ListTasks returns every task, newest first.
func (s *TaskService) ListTasks(ctx context.Context) ([]models.Task, error) {
	return s.queryTasks(ctx, s.selectTasks())
}

// ListTasksAssignedTo returns the tasks assigned to a user, newest first.
func (s *TaskService) ListTasksAssignedTo(ctx context.Context, userID int64) ([]models.Task, error) {
	return s.queryTasks(ctx, s.selectTasks().Where(squirrel.Eq{"t.assigned_to": userID}))
}

func (s *TaskService) queryTasks(ctx context.Context, q squirrel.SelectBuilder) ([]models.Task, error) {
	query, args, err := q.OrderBy("t.created_at DESC", "t.id DESC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// GetTask retrieves a single task by its ID.
func (s *TaskService) GetTask(ctx context.Context, id int64) (models.Task, error) {
	query, args, err := s.selectTasks().Where(squirrel.Eq{"t.id": id}).ToSql()
	if err != nil {
		return models.Task{}, err
	}

	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
		}
		return models.Task{}, err
	}
	return task, nil
}

// CreateTask adds a task created by callerID. Fields absent from patch take
// their defaults; a title is required.
func (s *TaskService) CreateTask(ctx context.Context, callerID int64, patch models.TaskPatch) (models.Task, error) {
	if !patch.Title.Set {
		return models.Task{}, invalid("Title is required")
	}
	fields, err := defaultTaskFields().apply(patch)
	if err != nil {
		return models.Task{}, err
	}

	now := s.now()
	var id int64
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkAssignee(ctx, tx, fields.assignedTo); err != nil {
			return err
		}

		query, args, err := s.db.Builder().
			Insert("tasks").
			Columns("title", "description", "status", "priority", "due_date", "assigned_to", "created_by", "created_at", "updated_at").
			Values(fields.title, fields.description, string(fields.status), string(fields.priority), dueValue(fields.dueDate), fields.assignedTo, callerID, now, now).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return err
		}
		return tx.QueryRowContext(ctx, query, args...).Scan(&id)
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, id)
}

// UpdateTask changes only the fields present in patch.
func (s *TaskService) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (models.Task, error) {
	return s.mutate(ctx, id, func(f taskFields) (taskFields, error) {
		return f.apply(patch)
	})
}

// UpdateStatus moves a task to another column.
func (s *TaskService) UpdateStatus(ctx context.Context, id int64, status models.Status) (models.Task, error) {
	return s.mutate(ctx, id, func(f taskFields) (taskFields, error) {
		if status == "" {
			return f, invalid("Status is required")
		}
		return f.apply(models.TaskPatch{Status: models.Some(status)})
	})
}

// mutate loads a task, applies change and writes the result in one
// transaction, refreshing updated_at.
func (s *TaskService) mutate(ctx context.Context, id int64, change func(taskFields) (taskFields, error)) (models.Task, error) {
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		current, err := s.loadFields(ctx, tx, id)
		if err != nil {
			return err
		}
		next, err := change(current)
		if err != nil {
			return err
		}
		if next.assignedTo != nil && (current.assignedTo == nil || *current.assignedTo != *next.assignedTo) {
			if err := s.checkAssignee(ctx, tx, next.assignedTo); err != nil {
				return err
			}
		}

		query, args, err := s.db.Builder().
			Update("tasks").
			Set("title", next.title).
			Set("description", next.description).
			Set("status", string(next.status)).
			Set("priority", string(next.priority)).
			Set("due_date", dueValue(next.dueDate)).
			Set("assigned_to", next.assignedTo).
			Set("updated_at", s.now()).
			Where(squirrel.Eq{"id": id}).
			ToSql()
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, id)
}

// DeleteTask permanently removes a task.
func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		query, args, err := s.db.Builder().Delete("tasks").Where(squirrel.Eq{"id": id}).ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("task %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

func (s *TaskService) loadFields(ctx context.Context, tx *sql.Tx, id int64) (taskFields, error) {
	query, args, err := s.db.Builder().
		Select("title", "description", "status", "priority", "due_date", "assigned_to").
		From("tasks").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return taskFields{}, err
	}

	var (
		f        taskFields
		due      sql.NullString
		assignee sql.NullInt64
	)
	err = tx.QueryRowContext(ctx, query, args...).Scan(&f.title, &f.description, &f.status, &f.priority, &due, &assignee)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return taskFields{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
		}
		return taskFields{}, err
	}
	if f.dueDate, err = parseDue(due); err != nil {
		return taskFields{}, err
	}
	if assignee.Valid {
		f.assignedTo = &assignee.Int64
	}
	return f, nil
}

func (s *TaskService) checkAssignee(ctx context.Context, tx *sql.Tx, userID *int64) error {
	if userID == nil {
		return nil
	}
	query, args, err := s.db.Builder().Select("COUNT(*)").From("users").Where(squirrel.Eq{"id": *userID}).ToSql()
	if err != nil {
		return err
	}
	var n int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return invalid(fmt.Sprintf("assigned_to refers to unknown user %d", *userID))
	}
	return nil
}

func dueValue(d *models.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func parseDue(due sql.NullString) (*models.Date, error) {
	if !due.Valid || due.String == "" {
		return nil, nil
	}
	d, err := models.ParseDate(due.String)
	if err != nil {
		return nil, fmt.Errorf("stored due_date: %w", err)
	}
	return &d, nil
}

type nullUser struct {
	id        sql.NullInt64
	username  sql.NullString
	email     sql.NullString
	fullName  sql.NullString
	createdAt sql.NullTime
}

func (u nullUser) user() *models.User {
	if !u.id.Valid {
		return nil
	}
	return &models.User{
		ID:        u.id.Int64,
		Username:  u.username.String,
		Email:     u.email.String,
		FullName:  u.fullName.String,
		CreatedAt: u.createdAt.Time,
	}
}

// scanTask is a helper function to scan a single joined row into a Task struct.
func scanTask(scanner interface{ Scan(...any) error }) (models.Task, error) {
	var (
		task              models.Task
		due               sql.NullString
		assignee, creator nullUser
	)
	err := scanner.Scan(
		&task.ID, &task.Title, &task.Description, &task.Status, &task.Priority, &due, &task.CreatedAt, &task.UpdatedAt,
		&assignee.id, &assignee.username, &assignee.email, &assignee.fullName, &assignee.createdAt,
		&creator.id, &creator.username, &creator.email, &creator.fullName, &creator.createdAt,
	)
	if err != nil {
		return models.Task{}, err
	}
	if task.DueDate, err = parseDue(due); err != nil {
		return models.Task{}, err
	}
	task.AssignedTo = assignee.user()
	task.CreatedBy = creator.user()
	return task, nil
}
