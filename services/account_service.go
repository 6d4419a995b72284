package services

import (
	"context"
	"fmt"
	"log"

	clerkuser "github.com/clerk/clerk-sdk-go/v2/user"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountService removes every trace of a user across the schema.
type AccountService struct {
	db       *pgxpool.Pool
	profiles *ProfileService
}

func NewAccountService(db *pgxpool.Pool, profiles *ProfileService) *AccountService {
	return &AccountService{db: db, profiles: profiles}
}

// DeleteAccount wipes the user's data and then removes the Clerk identity.
func (s *AccountService) DeleteAccount(ctx context.Context, clerkID string) error {
	if err := s.DeleteAccountData(ctx, clerkID); err != nil {
		return err
	}

	if _, err := clerkuser.Delete(ctx, clerkID); err != nil {
		log.Printf("DeleteAccount: failed to delete Clerk user %s: %v", clerkID, err)
		return fmt.Errorf("account data removed but identity deletion failed")
	}

	return nil
}

// DeleteAccountData removes the user's rows table by table. Each delete is
// independent; a failure is logged and the remaining tables are still
// cleaned, so a partial wipe can be retried. Used directly by the Clerk
// user.deleted webhook, where the identity is already gone.
func (s *AccountService) DeleteAccountData(ctx context.Context, clerkID string) error {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	steps := []struct {
		name  string
		query string
	}{
		{"likes", "DELETE FROM likes WHERE user_id = $1"},
		{"bookmarks", "DELETE FROM bookmarks WHERE user_id = $1"},
		{"resource_views", "DELETE FROM resource_views WHERE user_id = $1"},
		{"comments", "DELETE FROM comments WHERE author_id = $1"},
		{"notifications", "DELETE FROM notifications WHERE user_id = $1"},
		{"task_assignments", "UPDATE project_tasks SET assignee_id = NULL WHERE assignee_id = $1"},
		{"project_tasks", "DELETE FROM project_tasks WHERE project_id IN (SELECT id FROM projects WHERE owner_id = $1)"},
		{"resources", "DELETE FROM resources WHERE author_id = $1"},
		{"projects", "DELETE FROM projects WHERE owner_id = $1"},
		{"ratings_given", "DELETE FROM collaboration_ratings WHERE rater_id = $1"},
		{"ratings_received", "DELETE FROM collaboration_ratings WHERE rated_user_id = $1"},
		{"messages", "DELETE FROM messages WHERE sender_id = $1"},
		{"conversations", "DELETE FROM conversations WHERE participant_1 = $1 OR participant_2 = $1"},
		{"connections", "DELETE FROM connections WHERE requester_id = $1 OR addressee_id = $1"},
		{"device_tokens", "DELETE FROM device_tokens WHERE user_id = $1"},
	}

	for _, step := range steps {
		if _, err := s.db.Exec(ctx, step.query, userID); err != nil {
			log.Printf("DeleteAccount: %s cleanup failed for user %s: %v", step.name, userID, err)
		}
	}

	return s.deleteUserRow(ctx, userID)
}

func (s *AccountService) deleteUserRow(ctx context.Context, userID uuid.UUID) error {
	result, err := s.db.Exec(ctx, "DELETE FROM users WHERE id = $1", userID)
	if err != nil {
		return fmt.Errorf("failed to delete user row: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}
