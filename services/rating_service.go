package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"collabHubAPI/internal/types/rating"
)

type RatingService struct {
	db       *pgxpool.Pool
	profiles *ProfileService
}

func NewRatingService(db *pgxpool.Pool, profiles *ProfileService) *RatingService {
	return &RatingService{db: db, profiles: profiles}
}

// RateUser records the viewer's rating of another user. Re-rating replaces
// the earlier score.
func (s *RatingService) RateUser(ctx context.Context, clerkID string, ratedUserID uuid.UUID, req *rating.RateRequest) (*rating.CollaborationRating, error) {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	if userID == ratedUserID {
		return nil, fmt.Errorf("cannot rate yourself")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5")
	}

	query := `
		INSERT INTO collaboration_ratings (rater_id, rated_user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (rater_id, rated_user_id)
		DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, updated_at = NOW()
		RETURNING id, rater_id, rated_user_id, rating, comment, created_at, updated_at
	`

	r := &rating.CollaborationRating{}
	err = s.db.QueryRow(ctx, query, userID, ratedUserID, req.Rating, req.Comment).Scan(
		&r.ID, &r.RaterID, &r.RatedUserID, &r.Rating, &r.Comment, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save rating: %w", err)
	}
	return r, nil
}

// GetUserRating returns the viewer's existing rating of another user, or nil
// when they have not rated them yet.
func (s *RatingService) GetUserRating(ctx context.Context, clerkID string, ratedUserID uuid.UUID) (*rating.CollaborationRating, error) {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, rater_id, rated_user_id, rating, comment, created_at, updated_at
		FROM collaboration_ratings
		WHERE rater_id = $1 AND rated_user_id = $2
	`

	r := &rating.CollaborationRating{}
	err = s.db.QueryRow(ctx, query, userID, ratedUserID).Scan(
		&r.ID, &r.RaterID, &r.RatedUserID, &r.Rating, &r.Comment, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch rating: %w", err)
	}
	return r, nil
}

// GetCollaborationScore returns a user's aggregate score via the
// get_collaboration_score database function.
func (s *RatingService) GetCollaborationScore(ctx context.Context, userID uuid.UUID) (float64, int, error) {
	var score float64
	var count int
	err := s.db.QueryRow(ctx,
		"SELECT average_rating, rating_count FROM get_collaboration_score($1)",
		userID,
	).Scan(&score, &count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("failed to fetch collaboration score: %w", err)
	}
	return score, count, nil
}
