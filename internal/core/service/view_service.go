package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quillpress/blog-api/internal/core/ports"
)

// ViewDeduper remembers which reader has already been counted for an
// article (Redis).
type ViewDeduper interface {
	// FirstView records the view and reports whether it is the first one
	// from viewerKey inside the de-duplication window.
	FirstView(ctx context.Context, articleID, viewerKey string) (bool, error)
}

type viewService struct {
	articles ports.ArticleRepository
	dedup    ViewDeduper
	log      zerolog.Logger
}

// NewViewService returns a ViewService implementation.
func NewViewService(articles ports.ArticleRepository, dedup ViewDeduper, log zerolog.Logger) ports.ViewService {
	return &viewService{articles: articles, dedup: dedup, log: log}
}

// Record counts a single article view unless the same reader was already
// counted recently.
func (s *viewService) Record(ctx context.Context, view ports.ArticleView) error {
	if view.ArticleID == "" {
		return nil
	}

	if view.ViewerKey != "" {
		first, err := s.dedup.FirstView(ctx, view.ArticleID, view.ViewerKey)
		if err != nil {
			s.log.Warn().Err(err).Str("article_id", view.ArticleID).Msg("view dedup failed, counting anyway")
		} else if !first {
			s.log.Debug().Str("article_id", view.ArticleID).Msg("repeat view skipped")
			return nil
		}
	}

	if err := s.articles.IncrementViews(ctx, view.ArticleID, 1); err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	return nil
}
