package project

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

type Project struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	TaskCount     int `json:"taskCount"`
	DoneTaskCount int `json:"doneTaskCount"`
}

type Task struct {
	ID         uuid.UUID  `json:"id"`
	ProjectID  uuid.UUID  `json:"projectId"`
	Title      string     `json:"title"`
	Status     TaskStatus `json:"status"`
	AssigneeID *uuid.UUID `json:"assigneeId,omitempty"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type CreateProjectRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

type CreateTaskRequest struct {
	Title      string     `json:"title" validate:"required"`
	AssigneeID *uuid.UUID `json:"assigneeId,omitempty"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
}

type UpdateTaskRequest struct {
	Title      string     `json:"title,omitempty"`
	Status     TaskStatus `json:"status,omitempty"`
	AssigneeID *uuid.UUID `json:"assigneeId,omitempty"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
}
