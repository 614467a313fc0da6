package ports

import (
	"context"

	"github.com/quillpress/blog-api/internal/core/domain"
)

// CreateArticleInput is the schema for CreateArticle.
type CreateArticleInput struct {
	Title       string   `json:"title" validate:"required,min=1,max=200"`
	Description string   `json:"description" validate:"max=500"`
	Body        string   `json:"body" validate:"required"`
	Tags        []string `json:"tags" validate:"max=10,dive,min=1,max=30,tag"`
}

// UpdateArticleInput carries the optional article fields; nil means "leave as is".
type UpdateArticleInput struct {
	Title       *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=500"`
	Body        *string   `json:"body" validate:"omitempty,min=1"`
	Tags        *[]string `json:"tags" validate:"omitempty,max=10,dive,min=1,max=30,tag"`
}

// ListArticlesInput carries all parameters for the list endpoint. Viewer is
// nil for anonymous callers.
type ListArticlesInput struct {
	Viewer *domain.Identity `validate:"-"`
	Tag    string           `validate:"omitempty,max=30"`
	Author string           `validate:"omitempty,max=30"`
	Status string           `validate:"omitempty,oneof=draft published"`
	Search string           `validate:"omitempty,max=100"`
	Page   int              `validate:"gte=0,max=1000000"`
	Limit  int              `validate:"gte=0"`
}

// ListArticlesResult is returned by ListArticles.
type ListArticlesResult struct {
	Items      []*domain.Article
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ArticleService defines use-case operations for articles.
type ArticleService interface {
	CreateArticle(ctx context.Context, author domain.Identity, in CreateArticleInput) (*domain.Article, error)
	GetArticle(ctx context.Context, slug string, viewer *domain.Identity) (*domain.Article, error)
	ListArticles(ctx context.Context, in ListArticlesInput) (*ListArticlesResult, error)
	UpdateArticle(ctx context.Context, editor domain.Identity, slug string, in UpdateArticleInput) (*domain.Article, error)
	DeleteArticle(ctx context.Context, actor domain.Identity, slug string) error
	PublishArticle(ctx context.Context, actor domain.Identity, slug string) (*domain.Article, error)
	UnpublishArticle(ctx context.Context, actor domain.Identity, slug string) (*domain.Article, error)
	ListTags(ctx context.Context) ([]domain.TagCount, error)
}
