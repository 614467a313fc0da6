package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quillpress/blog-api/internal/core/domain"
	"github.com/quillpress/blog-api/internal/core/ports"
)

const (
	constraintArticleSlug = "articles_slug_key"

	articleColumns = `a.id, a.slug, a.title, a.description, a.body, a.status, a.author_id,
		a.author_username, a.view_count, a.published_at, a.created_at, a.updated_at,
		COALESCE((SELECT string_agg(t.tag, ',' ORDER BY t.tag) FROM article_tags t WHERE t.article_id = a.id), '')`
)

type ArticleRepository struct {
	db *sql.DB
}

func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// Create inserts the article and its tags in one transaction. A slug
// collision is reported as domain.ErrSlugTaken.
func (r *ArticleRepository) Create(ctx context.Context, a *domain.Article) (*domain.Article, error) {
	created := *a
	created.ID = uuid.NewString()
	if created.Tags == nil {
		created.Tags = []string{}
	}

	err := WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO articles (id, slug, title, description, body, status, author_id,
				author_username, view_count, published_at, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			created.ID, created.Slug, created.Title, created.Description, created.Body,
			string(created.Status), created.AuthorID, created.AuthorUsername, created.ViewCount,
			nullTime(created.PublishedAt), created.CreatedAt, created.UpdatedAt)
		if err != nil {
			if uniqueConstraint(err) == constraintArticleSlug {
				return domain.ErrSlugTaken
			}
			return fmt.Errorf("insert article: %w", err)
		}
		return insertTags(ctx, tx, created.ID, created.Tags)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *ArticleRepository) FindBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	return scanArticle(r.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles a WHERE a.slug = $1`, slug))
}

func (r *ArticleRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM articles WHERE slug = $1)`, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// Update applies patch and, when tags are supplied, replaces the tag set.
func (r *ArticleRepository) Update(ctx context.Context, id string, p ports.ArticlePatch) (*domain.Article, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrArticleNotFound
	}

	var set setList
	set.add("updated_at", p.UpdatedAt)
	if p.Title != nil {
		set.add("title", *p.Title)
	}
	if p.Description != nil {
		set.add("description", *p.Description)
	}
	if p.Body != nil {
		set.add("body", *p.Body)
	}
	if p.Status != nil {
		set.add("status", string(*p.Status))
	}
	if p.PublishedAt != nil {
		set.add("published_at", nullTime(*p.PublishedAt))
	}
	query := `UPDATE articles SET ` + strings.Join(set.cols, ", ") + ` WHERE id = ` + set.arg(id)

	var updated *domain.Article
	err := WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		res, err := tx.ExecContext(ctx, query, set.args...)
		if err != nil {
			return fmt.Errorf("update article: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("update article: %w", err)
		} else if n == 0 {
			return domain.ErrArticleNotFound
		}

		if p.Tags != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM article_tags WHERE article_id = $1`, id); err != nil {
				return fmt.Errorf("clear tags: %w", err)
			}
			if err := insertTags(ctx, tx, id, *p.Tags); err != nil {
				return err
			}
		}

		updated, err = scanArticle(tx.QueryRowContext(ctx,
			`SELECT `+articleColumns+` FROM articles a WHERE a.id = $1`, id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *ArticleRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrArticleNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if n == 0 {
		return domain.ErrArticleNotFound
	}
	return nil
}

// List returns one page of matching articles, newest first, and the total
// number of matches.
func (r *ArticleRepository) List(ctx context.Context, f ports.ListArticlesFilter) ([]*domain.Article, int64, error) {
	where, args := articleWhere(f)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles a`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	pageArgs := append(append([]any{}, args...), f.Limit, (f.Page-1)*f.Limit)
	query := fmt.Sprintf(`SELECT %s FROM articles a%s ORDER BY a.created_at DESC, a.id DESC LIMIT $%d OFFSET $%d`,
		articleColumns, where, len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	articles := make([]*domain.Article, 0, f.Limit)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, err
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	return articles, total, nil
}

// Tags counts tag usage over published articles, most used first.
func (r *ArticleRepository) Tags(ctx context.Context, limit int) ([]domain.TagCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.tag, COUNT(*) AS n
		   FROM article_tags t
		   JOIN articles a ON a.id = t.article_id
		  WHERE a.status = $1
		  GROUP BY t.tag
		  ORDER BY n DESC, t.tag ASC
		  LIMIT $2`, string(domain.ArticlePublished), limit)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := []domain.TagCount{}
	for rows.Next() {
		var tc domain.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (r *ArticleRepository) IncrementViews(ctx context.Context, id string, n int64) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrArticleNotFound
	}
	res, err := r.db.ExecContext(ctx, `UPDATE articles SET view_count = view_count + $2 WHERE id = $1`, id, n)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return domain.ErrArticleNotFound
	}
	return nil
}

func insertTags(ctx context.Context, tx DBTX, articleID string, tags []string) error {
	for _, tag := range tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO article_tags (article_id, tag) VALUES ($1, $2)`, articleID, tag); err != nil {
			return fmt.Errorf("insert tag: %w", err)
		}
	}
	return nil
}

func articleWhere(f ports.ListArticlesFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Status != "" {
		conds = append(conds, "a.status = "+next(f.Status))
	}
	if f.AuthorID != "" {
		conds = append(conds, "a.author_id = "+next(f.AuthorID))
	}
	if f.Tag != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM article_tags t WHERE t.article_id = a.id AND t.tag = "+next(f.Tag)+")")
	}
	if f.Search != "" {
		p := next("%" + escapeLike(f.Search) + "%")
		conds = append(conds, "(a.title ILIKE "+p+" OR a.description ILIKE "+p+")")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*domain.Article, error) {
	var (
		a         domain.Article
		status    string
		published sql.NullTime
		tags      string
	)
	err := row.Scan(&a.ID, &a.Slug, &a.Title, &a.Description, &a.Body, &status, &a.AuthorID,
		&a.AuthorUsername, &a.ViewCount, &published, &a.CreatedAt, &a.UpdatedAt, &tags)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrArticleNotFound
		}
		return nil, fmt.Errorf("scan article: %w", err)
	}

	a.Status = domain.ArticleStatus(status)
	if published.Valid {
		t := published.Time
		a.PublishedAt = &t
	}
	a.Tags = []string{}
	if tags != "" {
		a.Tags = strings.Split(tags, ",")
	}
	return &a, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
