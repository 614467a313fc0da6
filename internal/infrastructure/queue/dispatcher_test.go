package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillpress/blog-api/internal/core/ports"
)

type recordingService struct {
	mu      sync.Mutex
	views   []ports.ArticleView
	block   chan struct{}
	err     error
}

func (s *recordingService) Record(_ context.Context, view ports.ArticleView) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = append(s.views, view)
	return s.err
}

func (s *recordingService) recorded() []ports.ArticleView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.ArticleView(nil), s.views...)
}

func TestDispatcher_ProcessesAndDrainsOnStop(t *testing.T) {
	svc := &recordingService{}
	d := NewDispatcher(3, svc, zerolog.Nop())
	d.Start(context.Background())

	for _, id := range []string{"a1", "a2", "a3", "a1", "a4"} {
		if !d.Enqueue(ports.ArticleView{ArticleID: id, ViewerKey: "u1"}) {
			t.Fatalf("enqueue %s rejected", id)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if got := len(svc.recorded()); got != 5 {
		t.Fatalf("expected 5 recorded views, got %d", got)
	}
}

func TestDispatcher_PreservesPerArticleOrder(t *testing.T) {
	svc := &recordingService{}
	d := NewDispatcher(4, svc, zerolog.Nop())
	d.Start(context.Background())

	viewers := []string{"v1", "v2", "v3", "v4", "v5"}
	for _, v := range viewers {
		d.Enqueue(ports.ArticleView{ArticleID: "same", ViewerKey: v})
	}
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	got := svc.recorded()
	if len(got) != len(viewers) {
		t.Fatalf("expected %d views, got %d", len(viewers), len(got))
	}
	for i, v := range got {
		if v.ViewerKey != viewers[i] {
			t.Fatalf("position %d: expected %s, got %s", i, viewers[i], v.ViewerKey)
		}
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, &recordingService{}, zerolog.Nop())
	for _, id := range []string{"", "a", "article-123", "ffffffff"} {
		first := d.shardIndex(id)
		if first < 0 || first >= 8 {
			t.Fatalf("index %d out of range", first)
		}
		if again := d.shardIndex(id); again != first {
			t.Fatalf("shard for %q moved from %d to %d", id, first, again)
		}
	}
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	svc := &recordingService{block: make(chan struct{})}
	d := NewDispatcher(1, svc, zerolog.Nop())
	// workers not started: the single queue fills up
	for i := 0; i < channelBuffer; i++ {
		if !d.Enqueue(ports.ArticleView{ArticleID: "a1"}) {
			t.Fatalf("enqueue %d rejected before the queue was full", i)
		}
	}
	if d.Enqueue(ports.ArticleView{ArticleID: "a1"}) {
		t.Fatal("expected the view to be dropped")
	}
}

func TestDispatcher_RejectsAfterStop(t *testing.T) {
	d := NewDispatcher(2, &recordingService{}, zerolog.Nop())
	d.Start(context.Background())
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if d.Enqueue(ports.ArticleView{ArticleID: "a1"}) {
		t.Fatal("expected enqueue to fail after stop")
	}
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestDispatcher_StopHonoursDeadline(t *testing.T) {
	svc := &recordingService{block: make(chan struct{})}
	defer close(svc.block)

	d := NewDispatcher(1, svc, zerolog.Nop())
	d.Start(context.Background())
	d.Enqueue(ports.ArticleView{ArticleID: "a1"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := d.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestDispatcher_ServiceErrorDoesNotStopWorker(t *testing.T) {
	svc := &recordingService{err: errors.New("db down")}
	d := NewDispatcher(1, svc, zerolog.Nop())
	d.Start(context.Background())

	d.Enqueue(ports.ArticleView{ArticleID: "a1"})
	d.Enqueue(ports.ArticleView{ArticleID: "a2"})
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := len(svc.recorded()); got != 2 {
		t.Fatalf("expected both views attempted, got %d", got)
	}
}
