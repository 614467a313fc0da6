package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillpress/blog-api/internal/api/metrics"
	"github.com/quillpress/blog-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes article views to a fixed set of workers using consistent
// hashing on the article id, so each article's counter is touched by a single
// worker.
type Dispatcher struct {
	workers []chan ports.ArticleView
	service ports.ViewService
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.ViewService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.ArticleView, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.ArticleView, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers exit once Stop has closed
// their queue and it is drained, or when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a view to the worker responsible for its article. It never
// blocks: a full queue or a stopped dispatcher drops the view.
func (d *Dispatcher) Enqueue(view ports.ArticleView) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		metrics.ViewsDroppedTotal.Inc()
		return false
	}

	idx := d.shardIndex(view.ArticleID)
	select {
	case d.workers[idx] <- view:
		metrics.ViewsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return true
	default:
		metrics.ViewsDroppedTotal.Inc()
		d.log.Warn().Str("article_id", view.ArticleID).Int("worker_id", idx).Msg("view queue full, dropping view")
		return false
	}
}

// Stop closes every queue and waits for the workers to drain them, or for
// ctx to expire.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps an article id deterministically to a worker index.
func (d *Dispatcher) shardIndex(articleID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(articleID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.ArticleView) {
	defer d.wg.Done()
	depth := metrics.ViewsQueueDepth.WithLabelValues(strconv.Itoa(id))

	for {
		select {
		case <-ctx.Done():
			return
		case view, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			d.process(ctx, id, view)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, id int, view ports.ArticleView) {
	start := time.Now()
	err := d.service.Record(ctx, view)
	metrics.ViewProcessingDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ViewsProcessedTotal.WithLabelValues("error").Inc()
		d.log.Error().Err(err).
			Str("article_id", view.ArticleID).
			Int("worker_id", id).
			Msg("view processing failed")
		return
	}
	metrics.ViewsProcessedTotal.WithLabelValues("ok").Inc()
}
