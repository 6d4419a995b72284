package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"collabHubAPI/internal/types/notification"
	"collabHubAPI/internal/types/project"
)

type ProjectService struct {
	db            *pgxpool.Pool
	profiles      *ProfileService
	notifications *NotificationService
}

func NewProjectService(db *pgxpool.Pool, profiles *ProfileService, notifications *NotificationService) *ProjectService {
	return &ProjectService{
		db:            db,
		profiles:      profiles,
		notifications: notifications,
	}
}

// ListProjects returns the viewer's projects with task counts.
func (s *ProjectService) ListProjects(ctx context.Context, clerkID string) ([]*project.Project, error) {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT p.id, p.owner_id, p.title, p.description, p.status, p.created_at, p.updated_at,
			   COUNT(t.id),
			   COUNT(t.id) FILTER (WHERE t.status = 'done')
		FROM projects p
		LEFT JOIN project_tasks t ON t.project_id = p.id
		WHERE p.owner_id = $1
		GROUP BY p.id
		ORDER BY p.created_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}
	defer rows.Close()

	var projects []*project.Project
	for rows.Next() {
		p := &project.Project{}
		err := rows.Scan(
			&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.Status,
			&p.CreatedAt, &p.UpdatedAt, &p.TaskCount, &p.DoneTaskCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	if projects == nil {
		projects = []*project.Project{}
	}
	return projects, nil
}

func (s *ProjectService) CreateProject(ctx context.Context, clerkID string, req *project.CreateProjectRequest) (*project.Project, error) {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO projects (owner_id, title, description, status)
		VALUES ($1, $2, $3, 'active')
		RETURNING id, owner_id, title, description, status, created_at, updated_at
	`

	p := &project.Project{}
	err = s.db.QueryRow(ctx, query, userID, req.Title, req.Description).Scan(
		&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

// UpdateProjectStatus moves a project between active, completed and archived.
func (s *ProjectService) UpdateProjectStatus(ctx context.Context, clerkID string, projectID uuid.UUID, status project.Status) error {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	switch status {
	case project.StatusActive, project.StatusCompleted, project.StatusArchived:
	default:
		return fmt.Errorf("invalid status %q", status)
	}

	result, err := s.db.Exec(ctx,
		"UPDATE projects SET status = $3, updated_at = NOW() WHERE id = $1 AND owner_id = $2",
		projectID, userID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("project not found")
	}
	return nil
}

func (s *ProjectService) DeleteProject(ctx context.Context, clerkID string, projectID uuid.UUID) error {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	// Tasks go first; no FK cascade is assumed.
	if _, err := s.db.Exec(ctx, "DELETE FROM project_tasks WHERE project_id = $1", projectID); err != nil {
		return fmt.Errorf("failed to delete project tasks: %w", err)
	}

	result, err := s.db.Exec(ctx,
		"DELETE FROM projects WHERE id = $1 AND owner_id = $2",
		projectID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("project not found")
	}
	return nil
}

// ListTasks returns a project's tasks oldest first, so boards keep a stable
// order as statuses change.
func (s *ProjectService) ListTasks(ctx context.Context, projectID uuid.UUID) ([]*project.Task, error) {
	query := `
		SELECT id, project_id, title, status, assignee_id, due_date, created_at, updated_at
		FROM project_tasks
		WHERE project_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*project.Task
	for rows.Next() {
		t := &project.Task{}
		err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Status, &t.AssigneeID, &t.DueDate, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if tasks == nil {
		tasks = []*project.Task{}
	}
	return tasks, rows.Err()
}

// CreateTask adds a task to a project owned by the viewer and notifies the
// assignee if one is set.
func (s *ProjectService) CreateTask(ctx context.Context, clerkID string, projectID uuid.UUID, req *project.CreateTaskRequest) (*project.Task, error) {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	var ownerID uuid.UUID
	var projectTitle string
	err = s.db.QueryRow(ctx, "SELECT owner_id, title FROM projects WHERE id = $1", projectID).Scan(&ownerID, &projectTitle)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("project not found")
		}
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}
	if ownerID != userID {
		return nil, fmt.Errorf("only the project owner can add tasks")
	}

	query := `
		INSERT INTO project_tasks (project_id, title, status, assignee_id, due_date)
		VALUES ($1, $2, 'todo', $3, $4)
		RETURNING id, project_id, title, status, assignee_id, due_date, created_at, updated_at
	`

	t := &project.Task{}
	err = s.db.QueryRow(ctx, query, projectID, req.Title, req.AssigneeID, req.DueDate).Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Status, &t.AssigneeID, &t.DueDate, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if t.AssigneeID != nil && *t.AssigneeID != userID {
		s.notifyAssignee(ctx, *t.AssigneeID, projectID, projectTitle, t.Title)
	}

	return t, nil
}

func (s *ProjectService) notifyAssignee(ctx context.Context, assigneeID, projectID uuid.UUID, projectTitle, taskTitle string) {
	_, err := s.notifications.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID:  assigneeID,
		Type:    notification.TypeTaskAssigned,
		Message: fmt.Sprintf("You were assigned %q in %s", taskTitle, projectTitle),
		Link:    fmt.Sprintf("/projects/%s", projectID),
	})
	if err != nil {
		log.Printf("notifyAssignee: failed to create notification: %v", err)
	}
}

// UpdateTask applies a partial update. A newly set assignee is notified.
func (s *ProjectService) UpdateTask(ctx context.Context, clerkID string, taskID uuid.UUID, req *project.UpdateTaskRequest) (*project.Task, error) {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	if req.Status != "" {
		switch req.Status {
		case project.TaskTodo, project.TaskInProgress, project.TaskDone:
		default:
			return nil, fmt.Errorf("invalid task status %q", req.Status)
		}
	}

	var prevAssignee *uuid.UUID
	err = s.db.QueryRow(ctx, "SELECT assignee_id FROM project_tasks WHERE id = $1", taskID).Scan(&prevAssignee)
	if err != nil {
		return nil, fmt.Errorf("task not found: %w", err)
	}

	query := `
		UPDATE project_tasks
		SET title = COALESCE(NULLIF($2, ''), title),
			status = COALESCE(NULLIF($3, '')::text, status),
			assignee_id = COALESCE($4, assignee_id),
			due_date = COALESCE($5, due_date),
			updated_at = NOW()
		WHERE id = $1
		RETURNING id, project_id, title, status, assignee_id, due_date, created_at, updated_at
	`

	t := &project.Task{}
	err = s.db.QueryRow(ctx, query, taskID, req.Title, string(req.Status), req.AssigneeID, req.DueDate).Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Status, &t.AssigneeID, &t.DueDate, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if req.AssigneeID != nil && *req.AssigneeID != userID &&
		(prevAssignee == nil || *prevAssignee != *req.AssigneeID) {
		var projectTitle string
		if err := s.db.QueryRow(ctx, "SELECT title FROM projects WHERE id = $1", t.ProjectID).Scan(&projectTitle); err == nil {
			s.notifyAssignee(ctx, *req.AssigneeID, t.ProjectID, projectTitle, t.Title)
		}
	}

	return t, nil
}

func (s *ProjectService) DeleteTask(ctx context.Context, clerkID string, taskID uuid.UUID) error {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	query := `
		DELETE FROM project_tasks t
		USING projects p
		WHERE t.id = $1 AND p.id = t.project_id AND p.owner_id = $2
	`
	result, err := s.db.Exec(ctx, query, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("task not found")
	}
	return nil
}
