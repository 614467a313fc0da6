package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDedupTTL = time.Hour

// ViewDedup remembers which readers were already counted for an article.
// Key format: views:<article_id>:<viewer_key>
type ViewDedup struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewViewDedup creates a ViewDedup whose marks expire after ttl.
func NewViewDedup(client redis.UniversalClient, ttl time.Duration) *ViewDedup {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &ViewDedup{client: client, ttl: ttl}
}

// FirstView marks the view and reports whether no mark existed yet.
func (d *ViewDedup) FirstView(ctx context.Context, articleID, viewerKey string) (bool, error) {
	set, err := d.client.SetNX(ctx, d.key(articleID, viewerKey), "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("view dedup: %w", err)
	}
	return set, nil
}

func (d *ViewDedup) key(articleID, viewerKey string) string {
	return fmt.Sprintf("views:%s:%s", articleID, viewerKey)
}
