package resource

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Resource struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Content       string    `json:"content"`
	AuthorID      uuid.UUID `json:"authorId"`
	AuthorName    string    `json:"authorName,omitempty"`
	Tags          []string  `json:"tags"`
	Views         int       `json:"views"`
	Likes         int       `json:"likes"`
	CommentsCount int       `json:"commentsCount"`
	ReadTime      string    `json:"readTime"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	IsBookmarked bool `json:"isBookmarked,omitempty"`
	IsLiked      bool `json:"isLiked,omitempty"`
}

type CreateResourceRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Content     string   `json:"content" validate:"required"`
	Tags        []string `json:"tags"`
	ReadTime    string   `json:"readTime"`
}

type Comment struct {
	ID         uuid.UUID `json:"id"`
	ResourceID uuid.UUID `json:"resourceId"`
	AuthorID   uuid.UUID `json:"authorId"`
	AuthorName string    `json:"authorName,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

type TrendingTopic struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CountTrendingTopics tallies tag frequency across resources and returns the
// top n tags by count. Tag names are trimmed; empty tags are ignored. Ties
// break alphabetically so the result is stable.
func CountTrendingTopics(tagLists [][]string, n int) []TrendingTopic {
	counts := make(map[string]int)
	for _, tags := range tagLists {
		for _, tag := range tags {
			name := strings.TrimSpace(tag)
			if name == "" {
				continue
			}
			counts[name]++
		}
	}

	topics := make([]TrendingTopic, 0, len(counts))
	for name, count := range counts {
		topics = append(topics, TrendingTopic{Name: name, Count: count})
	}

	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Count != topics[j].Count {
			return topics[i].Count > topics[j].Count
		}
		return topics[i].Name < topics[j].Name
	})

	if len(topics) > n {
		topics = topics[:n]
	}
	return topics
}
