package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"collabHubAPI/internal/types/help"
)

type HelpService struct {
	db *pgxpool.Pool
}

func NewHelpService(db *pgxpool.Pool) *HelpService {
	return &HelpService{db: db}
}

// ListArticles returns help center articles, optionally filtered by category.
func (s *HelpService) ListArticles(ctx context.Context, category string) ([]*help.Article, error) {
	query := `
		SELECT id, slug, category, title, content, created_at, updated_at
		FROM help_articles
		WHERE $1 = '' OR category = $1
		ORDER BY category, title
	`

	rows, err := s.db.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch articles: %w", err)
	}
	defer rows.Close()

	var articles []*help.Article
	for rows.Next() {
		a := &help.Article{}
		err := rows.Scan(&a.ID, &a.Slug, &a.Category, &a.Title, &a.Content, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, a)
	}
	if articles == nil {
		articles = []*help.Article{}
	}
	return articles, rows.Err()
}

// GetArticle looks up one article by slug, returning nil when absent.
func (s *HelpService) GetArticle(ctx context.Context, slug string) (*help.Article, error) {
	query := `
		SELECT id, slug, category, title, content, created_at, updated_at
		FROM help_articles
		WHERE slug = $1
	`

	a := &help.Article{}
	err := s.db.QueryRow(ctx, query, slug).Scan(&a.ID, &a.Slug, &a.Category, &a.Title, &a.Content, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch article: %w", err)
	}
	return a, nil
}

// SubmitSupportRequest stores a support ticket for the ops inbox.
func (s *HelpService) SubmitSupportRequest(ctx context.Context, clerkID string, req *help.SupportRequest) error {
	query := `
		INSERT INTO support_requests (clerk_id, subject, message, email)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.db.Exec(ctx, query, clerkID, req.Subject, req.Message, req.Email); err != nil {
		return fmt.Errorf("failed to submit support request: %w", err)
	}
	return nil
}
