package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"collabHubAPI/internal/types/profile"
)

type ProfileService struct {
	db *pgxpool.Pool
}

func NewProfileService(db *pgxpool.Pool) *ProfileService {
	return &ProfileService{db: db}
}

func (s *ProfileService) getUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, "SELECT id FROM users WHERE clerk_id = $1", clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user not found for clerk_id %s: %w", clerkID, err)
	}
	return userID, nil
}

// GetUserIDFromClerkID resolves the Clerk subject to the internal user UUID.
func (s *ProfileService) GetUserIDFromClerkID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	return s.getUserID(ctx, clerkID)
}

func (s *ProfileService) GetMe(ctx context.Context, clerkID string) (*profile.User, error) {
	query := `
		SELECT id, clerk_id, email, name, avatar_url, bio, skills, reputation,
			   email_verified, created_at, updated_at
		FROM users
		WHERE clerk_id = $1
	`

	u := &profile.User{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&u.ID, &u.ClerkID, &u.Email, &u.Name, &u.AvatarURL, &u.Bio, &u.Skills,
		&u.Reputation, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if u.Skills == nil {
		u.Skills = []string{}
	}
	return u, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, clerkID string, req *profile.UpdateProfileRequest) (*profile.User, error) {
	query := `
		UPDATE users
		SET name = COALESCE(NULLIF($2, ''), name),
			avatar_url = COALESCE(NULLIF($3, ''), avatar_url),
			bio = COALESCE(NULLIF($4, ''), bio),
			skills = COALESCE($5, skills),
			updated_at = NOW()
		WHERE clerk_id = $1
	`

	result, err := s.db.Exec(ctx, query, clerkID, req.Name, req.AvatarURL, req.Bio, req.Skills)
	if err != nil {
		log.Printf("UpdateProfile: failed to update user %s: %v", clerkID, err)
		return nil, fmt.Errorf("failed to update profile")
	}
	if result.RowsAffected() == 0 {
		return nil, fmt.Errorf("user not found")
	}

	return s.GetMe(ctx, clerkID)
}

// GetPublicProfile returns the reduced projection served by the
// get_public_profile_data database function. A missing user is a normal
// empty result, not an error.
func (s *ProfileService) GetPublicProfile(ctx context.Context, profileID uuid.UUID) (*profile.PublicProfile, error) {
	query := `
		SELECT id, name, avatar_url, bio, skills, reputation
		FROM get_public_profile_data($1)
	`

	p := &profile.PublicProfile{}
	err := s.db.QueryRow(ctx, query, profileID).Scan(
		&p.ID, &p.Name, &p.AvatarURL, &p.Bio, &p.Skills, &p.Reputation,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve public profile: %w", err)
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	return p, nil
}

// Snapshot resolves the minimal name/avatar view used in list annotations.
// Resolution failures degrade to a nil snapshot so one missing profile never
// fails a whole listing.
func (s *ProfileService) Snapshot(ctx context.Context, profileID uuid.UUID) *profile.Snapshot {
	p, err := s.GetPublicProfile(ctx, profileID)
	if err != nil {
		log.Printf("Snapshot: failed to resolve profile %s: %v", profileID, err)
		return nil
	}
	if p == nil {
		return nil
	}
	return &profile.Snapshot{Name: p.Name, AvatarURL: p.AvatarURL}
}

// SearchUsers finds collaborator candidates by name or skill, excluding the
// viewer.
func (s *ProfileService) SearchUsers(ctx context.Context, clerkID, term string) ([]*profile.PublicProfile, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, avatar_url, bio, skills, reputation
		FROM users
		WHERE id != $1
		  AND (name ILIKE '%' || $2 || '%' OR $2 = ANY(skills))
		ORDER BY reputation DESC, name
		LIMIT 50
	`

	rows, err := s.db.Query(ctx, query, userID, term)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	return scanPublicProfiles(rows)
}

// GetDiscovery lists users the viewer is not yet connected to, for the Find
// Collaborators page.
func (s *ProfileService) GetDiscovery(ctx context.Context, clerkID string) ([]*profile.PublicProfile, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT u.id, u.name, u.avatar_url, u.bio, u.skills, u.reputation
		FROM users u
		WHERE u.id != $1
		  AND u.id NOT IN (
			SELECT c.addressee_id FROM connections c
			WHERE c.requester_id = $1 AND c.status = 'accepted'
			UNION
			SELECT c.requester_id FROM connections c
			WHERE c.addressee_id = $1 AND c.status = 'accepted'
		  )
		ORDER BY RANDOM()
		LIMIT 30
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discovery users: %w", err)
	}
	defer rows.Close()

	return scanPublicProfiles(rows)
}

func scanPublicProfiles(rows pgx.Rows) ([]*profile.PublicProfile, error) {
	var profiles []*profile.PublicProfile
	for rows.Next() {
		p := &profile.PublicProfile{}
		err := rows.Scan(&p.ID, &p.Name, &p.AvatarURL, &p.Bio, &p.Skills, &p.Reputation)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		if p.Skills == nil {
			p.Skills = []string{}
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	if profiles == nil {
		profiles = []*profile.PublicProfile{}
	}
	return profiles, nil
}

// --- user sync (Clerk webhook) ---

func (s *ProfileService) CreateUser(ctx context.Context, req *profile.CreateUserRequest) error {
	query := `
		INSERT INTO users (clerk_id, email, name, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (clerk_id) DO NOTHING
	`

	_, err := s.db.Exec(ctx, query, req.ClerkID, req.Email, req.Name, req.AvatarURL)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *ProfileService) UpdateUserFromClerk(ctx context.Context, clerkID, email, name, avatarURL string) error {
	query := `
		UPDATE users
		SET email = COALESCE(NULLIF($2, ''), email),
			name = COALESCE(NULLIF($3, ''), name),
			avatar_url = COALESCE(NULLIF($4, ''), avatar_url),
			updated_at = NOW()
		WHERE clerk_id = $1
	`

	_, err := s.db.Exec(ctx, query, clerkID, email, name, avatarURL)
	return err
}

func (s *ProfileService) UpdateEmailVerification(ctx context.Context, clerkID string, verified bool) error {
	query := `
		UPDATE users
		SET email_verified = $2, updated_at = NOW()
		WHERE clerk_id = $1
	`

	_, err := s.db.Exec(ctx, query, clerkID, verified)
	return err
}
