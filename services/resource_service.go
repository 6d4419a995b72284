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
	"collabHubAPI/internal/types/resource"
)

type ResourceService struct {
	db            *pgxpool.Pool
	profiles      *ProfileService
	notifications *NotificationService
}

func NewResourceService(db *pgxpool.Pool, profiles *ProfileService, notifications *NotificationService) *ResourceService {
	return &ResourceService{
		db:            db,
		profiles:      profiles,
		notifications: notifications,
	}
}

// ListResources returns published resources newest first, excluding the
// viewer's own, optionally filtered by a search term and a tag.
func (s *ResourceService) ListResources(ctx context.Context, clerkID, searchTerm, tag string) ([]*resource.Resource, error) {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT r.id, r.title, r.description, r.content, r.author_id, u.name,
			   r.tags, r.views, r.likes, r.comments_count, r.read_time,
			   r.created_at, r.updated_at,
			   EXISTS(SELECT 1 FROM bookmarks b WHERE b.resource_id = r.id AND b.user_id = $1),
			   EXISTS(SELECT 1 FROM likes l WHERE l.resource_id = r.id AND l.user_id = $1)
		FROM resources r
		JOIN users u ON u.id = r.author_id
		WHERE r.author_id != $1
		  AND ($2 = '' OR r.title ILIKE '%' || $2 || '%' OR r.description ILIKE '%' || $2 || '%')
		  AND ($3 = '' OR $3 = ANY(r.tags))
		ORDER BY r.created_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID, searchTerm, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch resources: %w", err)
	}
	defer rows.Close()

	return scanResources(rows)
}

// ListOwnResources returns the viewer's resources for the manage page.
func (s *ResourceService) ListOwnResources(ctx context.Context, clerkID string) ([]*resource.Resource, error) {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT r.id, r.title, r.description, r.content, r.author_id, u.name,
			   r.tags, r.views, r.likes, r.comments_count, r.read_time,
			   r.created_at, r.updated_at, false, false
		FROM resources r
		JOIN users u ON u.id = r.author_id
		WHERE r.author_id = $1
		ORDER BY r.created_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch own resources: %w", err)
	}
	defer rows.Close()

	return scanResources(rows)
}

// ListBookmarkedResources returns the viewer's bookmarked resources.
func (s *ResourceService) ListBookmarkedResources(ctx context.Context, clerkID string) ([]*resource.Resource, error) {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT r.id, r.title, r.description, r.content, r.author_id, u.name,
			   r.tags, r.views, r.likes, r.comments_count, r.read_time,
			   r.created_at, r.updated_at, true,
			   EXISTS(SELECT 1 FROM likes l WHERE l.resource_id = r.id AND l.user_id = $1)
		FROM resources r
		JOIN users u ON u.id = r.author_id
		JOIN bookmarks b ON b.resource_id = r.id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bookmarks: %w", err)
	}
	defer rows.Close()

	return scanResources(rows)
}

func scanResources(rows pgx.Rows) ([]*resource.Resource, error) {
	var resources []*resource.Resource
	for rows.Next() {
		r := &resource.Resource{}
		err := rows.Scan(
			&r.ID, &r.Title, &r.Description, &r.Content, &r.AuthorID, &r.AuthorName,
			&r.Tags, &r.Views, &r.Likes, &r.CommentsCount, &r.ReadTime,
			&r.CreatedAt, &r.UpdatedAt, &r.IsBookmarked, &r.IsLiked,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		if r.Tags == nil {
			r.Tags = []string{}
		}
		resources = append(resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	if resources == nil {
		resources = []*resource.Resource{}
	}
	return resources, nil
}

func (s *ResourceService) CreateResource(ctx context.Context, clerkID string, req *resource.CreateResourceRequest) (*resource.Resource, error) {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO resources (title, description, content, author_id, tags, read_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, title, description, content, author_id, tags, views, likes,
				  comments_count, read_time, created_at, updated_at
	`

	r := &resource.Resource{}
	err = s.db.QueryRow(ctx, query, req.Title, req.Description, req.Content, userID, req.Tags, req.ReadTime).Scan(
		&r.ID, &r.Title, &r.Description, &r.Content, &r.AuthorID, &r.Tags,
		&r.Views, &r.Likes, &r.CommentsCount, &r.ReadTime, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return r, nil
}

// GetResource returns one resource and records a view for the viewer.
func (s *ResourceService) GetResource(ctx context.Context, clerkID string, resourceID uuid.UUID) (*resource.Resource, error) {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT r.id, r.title, r.description, r.content, r.author_id, u.name,
			   r.tags, r.views, r.likes, r.comments_count, r.read_time,
			   r.created_at, r.updated_at,
			   EXISTS(SELECT 1 FROM bookmarks b WHERE b.resource_id = r.id AND b.user_id = $2),
			   EXISTS(SELECT 1 FROM likes l WHERE l.resource_id = r.id AND l.user_id = $2)
		FROM resources r
		JOIN users u ON u.id = r.author_id
		WHERE r.id = $1
	`

	r := &resource.Resource{}
	err = s.db.QueryRow(ctx, query, resourceID, userID).Scan(
		&r.ID, &r.Title, &r.Description, &r.Content, &r.AuthorID, &r.AuthorName,
		&r.Tags, &r.Views, &r.Likes, &r.CommentsCount, &r.ReadTime,
		&r.CreatedAt, &r.UpdatedAt, &r.IsBookmarked, &r.IsLiked,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch resource: %w", err)
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}

	s.recordView(ctx, resourceID, userID)

	return r, nil
}

func (s *ResourceService) recordView(ctx context.Context, resourceID, userID uuid.UUID) {
	if _, err := s.db.Exec(ctx,
		"INSERT INTO resource_views (resource_id, user_id) VALUES ($1, $2)",
		resourceID, userID,
	); err != nil {
		log.Printf("recordView: failed for resource %s: %v", resourceID, err)
		return
	}
	if _, err := s.db.Exec(ctx,
		"UPDATE resources SET views = views + 1 WHERE id = $1",
		resourceID,
	); err != nil {
		log.Printf("recordView: failed to bump view count for %s: %v", resourceID, err)
	}
}

func (s *ResourceService) DeleteResource(ctx context.Context, clerkID string, resourceID uuid.UUID) error {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx,
		"DELETE FROM resources WHERE id = $1 AND author_id = $2",
		resourceID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("resource not found")
	}
	return nil
}

// ToggleBookmark adds or removes the viewer's bookmark and reports the
// resulting state.
func (s *ResourceService) ToggleBookmark(ctx context.Context, clerkID string, resourceID uuid.UUID) (bool, error) {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return false, err
	}

	var exists bool
	err = s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM bookmarks WHERE user_id = $1 AND resource_id = $2)",
		userID, resourceID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check bookmark: %w", err)
	}

	if exists {
		_, err = s.db.Exec(ctx,
			"DELETE FROM bookmarks WHERE user_id = $1 AND resource_id = $2",
			userID, resourceID,
		)
		if err != nil {
			return false, fmt.Errorf("failed to remove bookmark: %w", err)
		}
		return false, nil
	}

	_, err = s.db.Exec(ctx,
		"INSERT INTO bookmarks (user_id, resource_id) VALUES ($1, $2)",
		userID, resourceID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to add bookmark: %w", err)
	}
	return true, nil
}

// ToggleLike adds or removes the viewer's like and keeps the denormalized
// counter in step.
func (s *ResourceService) ToggleLike(ctx context.Context, clerkID string, resourceID uuid.UUID) (bool, error) {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return false, err
	}

	var exists bool
	err = s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM likes WHERE user_id = $1 AND resource_id = $2)",
		userID, resourceID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}

	if exists {
		_, err = s.db.Exec(ctx,
			"DELETE FROM likes WHERE user_id = $1 AND resource_id = $2",
			userID, resourceID,
		)
		if err != nil {
			return false, fmt.Errorf("failed to remove like: %w", err)
		}
		s.db.Exec(ctx, "UPDATE resources SET likes = GREATEST(likes - 1, 0) WHERE id = $1", resourceID)
		return false, nil
	}

	_, err = s.db.Exec(ctx,
		"INSERT INTO likes (user_id, resource_id) VALUES ($1, $2)",
		userID, resourceID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to add like: %w", err)
	}
	s.db.Exec(ctx, "UPDATE resources SET likes = likes + 1 WHERE id = $1", resourceID)
	return true, nil
}

// ListComments returns a resource's comments in posting order.
func (s *ResourceService) ListComments(ctx context.Context, resourceID uuid.UUID) ([]*resource.Comment, error) {
	query := `
		SELECT c.id, c.resource_id, c.author_id, u.name, c.content, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.resource_id = $1
		ORDER BY c.created_at ASC
	`

	rows, err := s.db.Query(ctx, query, resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comments: %w", err)
	}
	defer rows.Close()

	var comments []*resource.Comment
	for rows.Next() {
		c := &resource.Comment{}
		err := rows.Scan(&c.ID, &c.ResourceID, &c.AuthorID, &c.AuthorName, &c.Content, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if comments == nil {
		comments = []*resource.Comment{}
	}
	return comments, rows.Err()
}

// AddComment posts a comment and notifies the resource author.
func (s *ResourceService) AddComment(ctx context.Context, clerkID string, resourceID uuid.UUID, content string) (*resource.Comment, error) {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO comments (resource_id, author_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, resource_id, author_id, content, created_at
	`

	c := &resource.Comment{}
	err = s.db.QueryRow(ctx, query, resourceID, userID, content).Scan(
		&c.ID, &c.ResourceID, &c.AuthorID, &c.Content, &c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	s.db.Exec(ctx, "UPDATE resources SET comments_count = comments_count + 1 WHERE id = $1", resourceID)

	var authorID uuid.UUID
	var title string
	err = s.db.QueryRow(ctx, "SELECT author_id, title FROM resources WHERE id = $1", resourceID).Scan(&authorID, &title)
	if err == nil && authorID != userID {
		commenterName := clerkID
		if snap := s.profiles.Snapshot(ctx, userID); snap != nil {
			commenterName = snap.Name
		}
		_, err = s.notifications.CreateNotification(ctx, &notification.CreateNotificationRequest{
			UserID:  authorID,
			Type:    notification.TypeResourceComment,
			Message: fmt.Sprintf("%s commented on %q", commenterName, title),
			Link:    fmt.Sprintf("/resources/%s", resourceID),
		})
		if err != nil {
			log.Printf("AddComment: failed to create notification: %v", err)
		}
	}

	return c, nil
}

// TrendingTopics tallies tag usage across all resources and returns the five
// most used tags.
func (s *ResourceService) TrendingTopics(ctx context.Context) ([]resource.TrendingTopic, error) {
	rows, err := s.db.Query(ctx, "SELECT tags FROM resources WHERE tags IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tags: %w", err)
	}
	defer rows.Close()

	var tagLists [][]string
	for rows.Next() {
		var tags []string
		if err := rows.Scan(&tags); err != nil {
			return nil, fmt.Errorf("failed to scan tags: %w", err)
		}
		tagLists = append(tagLists, tags)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return resource.CountTrendingTopics(tagLists, 5), nil
}
