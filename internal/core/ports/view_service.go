package ports

import "context"

// ArticleView is a single read of a published article.
type ArticleView struct {
	ArticleID string
	// ViewerKey identifies the reader: the account id when known, otherwise
	// the client IP.
	ViewerKey string
}

// ViewService counts article reads.
type ViewService interface {
	Record(ctx context.Context, view ArticleView) error
}

// ViewRecorder accepts views for asynchronous processing.
type ViewRecorder interface {
	Enqueue(view ArticleView) bool
}
