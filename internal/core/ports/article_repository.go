package ports

import (
	"context"
	"time"

	"github.com/quillpress/blog-api/internal/core/domain"
)

// ListArticlesFilter carries all query parameters for listing articles.
// Visibility rules are resolved by the service before the filter reaches
// the repository.
type ListArticlesFilter struct {
	Tag      string // optional: exact tag match
	AuthorID string // optional: restrict to one author
	Status   string // optional: "draft" or "published"
	Search   string // optional: case-insensitive match on title or description
	Page     int    // 1-based
	Limit    int    // capped at 100 by the service
}

// ArticlePatch lists the fields an Update may change; nil means untouched.
type ArticlePatch struct {
	Title       *string
	Description *string
	Body        *string
	Tags        *[]string
	Status      *domain.ArticleStatus
	PublishedAt **time.Time
	UpdatedAt   time.Time
}

// ArticleRepository defines persistence operations for articles.
type ArticleRepository interface {
	Create(ctx context.Context, a *domain.Article) (*domain.Article, error)
	// FindBySlug returns domain.ErrArticleNotFound when nothing matches.
	FindBySlug(ctx context.Context, slug string) (*domain.Article, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Update(ctx context.Context, id string, patch ArticlePatch) (*domain.Article, error)
	Delete(ctx context.Context, id string) error
	// List returns a page of articles matching filter, newest first, and the total count.
	List(ctx context.Context, filter ListArticlesFilter) ([]*domain.Article, int64, error)
	// Tags aggregates tag usage over published articles, most used first.
	Tags(ctx context.Context, limit int) ([]domain.TagCount, error)
	IncrementViews(ctx context.Context, id string, n int64) error
}
