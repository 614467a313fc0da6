package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quillpress/blog-api/internal/core/domain"
	"github.com/quillpress/blog-api/internal/core/ports"
	"github.com/quillpress/blog-api/internal/pkg/validation"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	maxSlugLength    = 80
	maxSlugAttempts  = 20
	tagListLimit     = 50
)

type ArticleService struct {
	articles ports.ArticleRepository
	accounts ports.AccountRepository
	validate *validation.Validator
	now      func() time.Time
	logger   zerolog.Logger
}

func NewArticleService(
	articles ports.ArticleRepository,
	accounts ports.AccountRepository,
	validate *validation.Validator,
	logger zerolog.Logger,
) *ArticleService {
	return &ArticleService{
		articles: articles,
		accounts: accounts,
		validate: validate,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// CreateArticle stores a new draft owned by author.
func (s *ArticleService) CreateArticle(ctx context.Context, author domain.Identity, in ports.CreateArticleInput) (*domain.Article, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	owner, err := s.accounts.FindByID(ctx, author.AccountID)
	if err != nil {
		return nil, passDomain("create article: load author", err)
	}

	now := s.now()
	article := &domain.Article{
		Title:          in.Title,
		Description:    in.Description,
		Body:           in.Body,
		Tags:           normalizeTags(in.Tags),
		Status:         domain.ArticleDraft,
		AuthorID:       owner.ID,
		AuthorUsername: owner.Username,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	base := slugify(in.Title)
	for attempt := 0; attempt < 3; attempt++ {
		article.Slug, err = s.uniqueSlug(ctx, base)
		if err != nil {
			return nil, fmt.Errorf("create article: %w", err)
		}
		created, err := s.articles.Create(ctx, article)
		if errors.Is(err, domain.ErrSlugTaken) {
			continue
		}
		if err != nil {
			s.logger.Error().Err(err).Str("slug", article.Slug).Msg("failed to create article")
			return nil, fmt.Errorf("create article: %w", err)
		}
		s.logger.Info().Str("slug", created.Slug).Str("author_id", created.AuthorID).Msg("article created")
		return created, nil
	}
	return nil, fmt.Errorf("create article: %w", domain.ErrSlugTaken)
}

// uniqueSlug returns base, or base-2, base-3, ... for the first slug not yet
// in the store. After maxSlugAttempts a random suffix is used instead.
func (s *ArticleService) uniqueSlug(ctx context.Context, base string) (string, error) {
	candidate := base
	for n := 2; n <= maxSlugAttempts+1; n++ {
		exists, err := s.articles.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return base + "-" + uuid.NewString()[:8], nil
}

// GetArticle returns the article behind slug. Drafts the viewer may not see
// are reported as missing.
func (s *ArticleService) GetArticle(ctx context.Context, slug string, viewer *domain.Identity) (*domain.Article, error) {
	article, err := s.articles.FindBySlug(ctx, slug)
	if err != nil {
		return nil, passDomain("get article", err)
	}
	if !article.VisibleTo(viewer) {
		return nil, domain.ErrArticleNotFound
	}
	return article, nil
}

// ListArticles returns one page of articles the viewer is allowed to see.
//
// Anonymous and standard viewers only see published articles, except that a
// signed-in viewer asking for drafts gets their own.
func (s *ArticleService) ListArticles(ctx context.Context, in ports.ListArticlesInput) (*ports.ListArticlesResult, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	empty := &ports.ListArticlesResult{Items: []*domain.Article{}, Page: page, Limit: limit}

	filter := ports.ListArticlesFilter{
		Tag:    strings.ToLower(strings.TrimSpace(in.Tag)),
		Search: strings.TrimSpace(in.Search),
		Page:   page,
		Limit:  limit,
	}

	if in.Author != "" {
		author, err := s.accounts.FindByUsername(ctx, in.Author)
		if errors.Is(err, domain.ErrUserNotFound) {
			return empty, nil
		}
		if err != nil {
			return nil, fmt.Errorf("list articles: resolve author: %w", err)
		}
		filter.AuthorID = author.ID
	}

	switch {
	case in.Viewer != nil && in.Viewer.CanModerate():
		filter.Status = in.Status
	case in.Status == string(domain.ArticleDraft):
		if in.Viewer == nil {
			return empty, nil
		}
		if filter.AuthorID != "" && filter.AuthorID != in.Viewer.AccountID {
			return empty, nil
		}
		filter.AuthorID = in.Viewer.AccountID
		filter.Status = string(domain.ArticleDraft)
	default:
		filter.Status = string(domain.ArticlePublished)
	}

	items, total, err := s.articles.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list articles")
		return nil, fmt.Errorf("list articles: %w", err)
	}
	if items == nil {
		items = []*domain.Article{}
	}

	return &ports.ListArticlesResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// UpdateArticle applies the supplied fields. The slug never changes.
func (s *ArticleService) UpdateArticle(ctx context.Context, editor domain.Identity, slug string, in ports.UpdateArticleInput) (*domain.Article, error) {
	if in.Title != nil {
		trimmed := strings.TrimSpace(*in.Title)
		in.Title = &trimmed
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	article, err := s.GetArticle(ctx, slug, &editor)
	if err != nil {
		return nil, err
	}
	if !article.EditableBy(editor) {
		return nil, domain.ErrInsufficientPermissions
	}
	if in.Title == nil && in.Description == nil && in.Body == nil && in.Tags == nil {
		return article, nil
	}

	patch := ports.ArticlePatch{
		Title:       in.Title,
		Description: in.Description,
		Body:        in.Body,
		UpdatedAt:   s.now(),
	}
	if in.Tags != nil {
		tags := normalizeTags(*in.Tags)
		patch.Tags = &tags
	}

	updated, err := s.articles.Update(ctx, article.ID, patch)
	if err != nil {
		return nil, passDomain("update article", err)
	}
	s.logger.Info().Str("slug", slug).Str("editor_id", editor.AccountID).Msg("article updated")
	return updated, nil
}

// DeleteArticle removes an article. Only its author or an admin may do so.
func (s *ArticleService) DeleteArticle(ctx context.Context, actor domain.Identity, slug string) error {
	article, err := s.GetArticle(ctx, slug, &actor)
	if err != nil {
		return err
	}
	if !article.DeletableBy(actor) {
		return domain.ErrInsufficientPermissions
	}
	if err := s.articles.Delete(ctx, article.ID); err != nil {
		return passDomain("delete article", err)
	}
	s.logger.Info().Str("slug", slug).Str("actor_id", actor.AccountID).Msg("article deleted")
	return nil
}

// PublishArticle makes a draft public. Publishing a published article is a
// no-op that keeps the original PublishedAt.
func (s *ArticleService) PublishArticle(ctx context.Context, actor domain.Identity, slug string) (*domain.Article, error) {
	article, err := s.moderate(ctx, actor, slug)
	if err != nil {
		return nil, err
	}
	if article.Status == domain.ArticlePublished {
		return article, nil
	}

	now := s.now()
	status := domain.ArticlePublished
	published := &now
	updated, err := s.articles.Update(ctx, article.ID, ports.ArticlePatch{Status: &status, PublishedAt: &published, UpdatedAt: now})
	if err != nil {
		return nil, passDomain("publish article", err)
	}
	s.logger.Info().Str("slug", slug).Str("actor_id", actor.AccountID).Msg("article published")
	return updated, nil
}

// UnpublishArticle returns a published article to draft.
func (s *ArticleService) UnpublishArticle(ctx context.Context, actor domain.Identity, slug string) (*domain.Article, error) {
	article, err := s.moderate(ctx, actor, slug)
	if err != nil {
		return nil, err
	}
	if article.Status == domain.ArticleDraft {
		return article, nil
	}

	status := domain.ArticleDraft
	var cleared *time.Time
	updated, err := s.articles.Update(ctx, article.ID, ports.ArticlePatch{Status: &status, PublishedAt: &cleared, UpdatedAt: s.now()})
	if err != nil {
		return nil, passDomain("unpublish article", err)
	}
	s.logger.Info().Str("slug", slug).Str("actor_id", actor.AccountID).Msg("article unpublished")
	return updated, nil
}

func (s *ArticleService) moderate(ctx context.Context, actor domain.Identity, slug string) (*domain.Article, error) {
	if !actor.CanModerate() {
		return nil, domain.ErrInsufficientPermissions
	}
	return s.GetArticle(ctx, slug, &actor)
}

// ListTags reports tag usage across published articles, most used first.
func (s *ArticleService) ListTags(ctx context.Context) ([]domain.TagCount, error) {
	tags, err := s.articles.Tags(ctx, tagListLimit)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	if tags == nil {
		tags = []domain.TagCount{}
	}
	return tags, nil
}

// slugify lowercases title and joins its letter and digit runs with hyphens.
func slugify(title string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(title) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingDash = false
			continue
		}
		pendingDash = true
	}

	slug := b.String()
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		return "article"
	}
	return slug
}

// normalizeTags trims, lowercases, de-duplicates and sorts tags.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
