package middleware

import (
	"context"
	"sync"
	"time"

	"SignalDeck/internal/domain/models"
	domrepo "SignalDeck/internal/domain/repository"
)

// Snapshot cache keys used for warm-start.
const (
	SnapshotKeyUniverse = "snapshot:universe"
	SnapshotKeyRanking  = "snapshot:ranking"
)

// SinkPipeline sits between the router and the optional side channels
// (history storage, event re-publish, snapshot cache). It buffers when a
// downstream is unavailable so sink failures never block or fail ingestion.
type SinkPipeline struct {
	history domrepo.SignalHistory
	pub     domrepo.EventPublisher
	cache   domrepo.SnapshotCache
	metrics domrepo.Metrics

	snapshotTTL time.Duration
	maxBackoff  time.Duration
	bufSize     int
	bufCh       chan sinkJob
	stopCh      chan struct{}
	started     bool
	mu          sync.Mutex
}

type sinkJob struct {
	entry       *models.AgentLogEntry
	event       models.Event
	snapshotKey string
	snapshot    interface{}
}

type PipelineOption func(*SinkPipeline)

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *SinkPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithFlushRetry caps the backoff between flush attempts after a sink error.
func WithFlushRetry(d time.Duration) PipelineOption {
	return func(p *SinkPipeline) {
		if d > 0 {
			p.maxBackoff = d
		}
	}
}

// WithSnapshotTTL sets the cache TTL for warm-start snapshots.
func WithSnapshotTTL(d time.Duration) PipelineOption {
	return func(p *SinkPipeline) {
		if d > 0 {
			p.snapshotTTL = d
		}
	}
}

// NewSinkPipeline creates a pipeline. Any of history, pub, and cache may be
// nil; jobs for absent sinks are skipped.
func NewSinkPipeline(history domrepo.SignalHistory, pub domrepo.EventPublisher, cache domrepo.SnapshotCache, metrics domrepo.Metrics, opts ...PipelineOption) *SinkPipeline {
	p := &SinkPipeline{
		history:     history,
		pub:         pub,
		cache:       cache,
		metrics:     metrics,
		snapshotTTL: 24 * time.Hour,
		maxBackoff:  2 * time.Second,
		bufSize:     1024,
		stopCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan sinkJob, p.bufSize)
	return p
}

// Start launches background flushing of buffered jobs.
func (p *SinkPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case j := <-p.bufCh:
				if err := p.flush(ctx, j); err != nil {
					if backoff < p.maxBackoff {
						backoff *= 2
					}
					p.metrics.RecordError("sink_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- j:
					default:
						p.metrics.RecordError("sink_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop terminates the flush loop. Buffered jobs are abandoned.
func (p *SinkPipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.started = false
	close(p.stopCh)
}

func (p *SinkPipeline) flush(ctx context.Context, j sinkJob) error {
	switch {
	case j.entry != nil:
		if p.history == nil {
			return nil
		}
		return p.history.Store(ctx, *j.entry)
	case j.snapshotKey != "":
		if p.cache == nil {
			return nil
		}
		return p.cache.Set(ctx, j.snapshotKey, j.snapshot, p.snapshotTTL)
	case j.event != nil:
		if p.pub == nil {
			return nil
		}
		return p.pub.Publish(ctx, j.event)
	}
	return nil
}

// OfferEntry enqueues a log entry for history storage. Drops when full.
func (p *SinkPipeline) OfferEntry(e models.AgentLogEntry) {
	if p.history == nil {
		return
	}
	p.offer(sinkJob{entry: &e})
}

// OfferEvent enqueues a validated event for re-publish. Drops when full.
func (p *SinkPipeline) OfferEvent(ev models.Event) {
	if p.pub == nil {
		return
	}
	p.offer(sinkJob{event: ev})
}

// OfferSnapshot enqueues a snapshot write-through. Drops when full.
func (p *SinkPipeline) OfferSnapshot(key string, v interface{}) {
	if p.cache == nil {
		return
	}
	p.offer(sinkJob{snapshotKey: key, snapshot: v})
}

func (p *SinkPipeline) offer(j sinkJob) {
	select {
	case p.bufCh <- j:
	default:
		p.metrics.RecordError("sink_buffer_drop")
	}
}
