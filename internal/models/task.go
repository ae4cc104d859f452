package models

import "time"

// Status is the kanban column a task sits in. Any status may move to any other.
type Status string

const (
	StatusBacklog    Status = "backlog"
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Valid reports whether s is one of the board's columns.
func (s Status) Valid() bool {
	switch s {
	case StatusBacklog, StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a card on the board. AssignedTo and CreatedBy carry the full user
// rather than a bare id.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	DueDate     *Date     `json:"due_date"`
	AssignedTo  *User     `json:"assigned_to"`
	CreatedBy   *User     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskPatch is the request body for creating or updating a task. Each field
// records whether the client sent it, so an update touches only those fields.
// created_by is never read from the body; the caller is always the creator.
type TaskPatch struct {
	Title       Optional[string]   `json:"title"`
	Description Optional[*string]  `json:"description"`
	Status      Optional[Status]   `json:"status"`
	Priority    Optional[Priority] `json:"priority"`
	DueDate     Optional[*string]  `json:"due_date"`
	AssignedTo  Optional[*int64]   `json:"assigned_to"`
}
