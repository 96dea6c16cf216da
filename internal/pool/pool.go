// Package pool implements the Worker Pool: a bounded set of goroutines
// draining a shared queue of artifacts, resolving each through an
// artifact resolver, and tracking aggregate byte-level progress that a
// caller (or internal/statusserver) can poll.
package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"

	"github.com/brackenforge/mcengine/internal/artifact"
)

// statsInterval mirrors file_resolver.py's STATS_INTERVAL: how often the
// stats loop logs aggregate progress while Run is active.
const statsInterval = time.Second

// Resolver is the subset of resolver.Resolver the pool depends on, kept
// as an interface so tests can substitute a fake.
type Resolver interface {
	Resolve(ctx context.Context, a artifact.Artifact) (string, error)
}

// Pool runs workerCount goroutines against a shared artifact queue.
type Pool struct {
	resolver    Resolver
	log         logr.Logger
	workerCount int

	queue chan artifact.Artifact

	bytesTotal     int64
	bytesProcessed int64

	mu        sync.Mutex
	errFlag   bool
	firstErr  error

	wg sync.WaitGroup
}

// New builds a Pool with the given worker count and resolver. queueSize
// bounds how many artifacts may be buffered before AddArtifact blocks;
// callers that know the full artifact list up front may size it to that
// count so enqueueing never blocks.
func New(resolver Resolver, workerCount, queueSize int, log logr.Logger) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{
		resolver:    resolver,
		log:         log,
		workerCount: workerCount,
		queue:       make(chan artifact.Artifact, queueSize),
	}
}

// AddArtifact enqueues an artifact and accounts its declared size
// against BytesTotal, matching file_resolver.py's add_artifact.
func (p *Pool) AddArtifact(a artifact.Artifact) {
	atomic.AddInt64(&p.bytesTotal, a.Size)
	p.queue <- a
}

// Close signals that no more artifacts will be added. It must be
// called before Run can observe completion, since Run drains the queue
// until it is both empty and closed.
func (p *Pool) Close() {
	close(p.queue)
}

// Run starts workerCount workers draining the queue until it is closed
// and empty, or until ctx is cancelled. It blocks until all workers
// have exited, then returns the first error encountered, if any,
// matching the "error flag" semantics of file_resolver.py: a fatal
// error stops future item dispatch is surfaced to the caller, but
// items already in flight are allowed to finish.
func (p *Pool) Run(ctx context.Context) error {
	statsCtx, cancelStats := context.WithCancel(ctx)
	defer cancelStats()
	go p.statsLoop(statsCtx)

	p.wg.Add(p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		go p.worker(ctx, i+1)
	}
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.firstErr
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			p.setError(fmt.Errorf("worker %d: %w", id, ctx.Err()))
			return
		case a, ok := <-p.queue:
			if !ok {
				return
			}
			if p.hasError() {
				continue
			}
			if _, err := p.resolver.Resolve(ctx, a); err != nil {
				p.log.Error(err, "artifact resolution failed", "worker", id, "path", a.Path)
				p.setError(err)
				continue
			}
			atomic.AddInt64(&p.bytesProcessed, a.Size)
		}
	}
}

func (p *Pool) setError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.errFlag {
		p.errFlag = true
		p.firstErr = err
	}
}

func (p *Pool) hasError() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errFlag
}

// Error reports whether a fatal error has occurred.
func (p *Pool) Error() bool {
	return p.hasError()
}

// ClearError resets the error flag, matching clear_error().
func (p *Pool) ClearError() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errFlag = false
	p.firstErr = nil
}

// BytesTotal returns the total declared bytes queued so far.
func (p *Pool) BytesTotal() int64 {
	return atomic.LoadInt64(&p.bytesTotal)
}

// BytesProcessed returns bytes successfully resolved so far.
func (p *Pool) BytesProcessed() int64 {
	return atomic.LoadInt64(&p.bytesProcessed)
}

// Progress returns [0,1] processed fraction, 0 if nothing was ever
// queued, matching get_progress()'s zero-total branch.
func (p *Pool) Progress() float64 {
	total := p.BytesTotal()
	if total == 0 {
		return 0.0
	}
	processed := p.BytesProcessed()
	if processed > total {
		return 1.0
	}
	return float64(processed) / float64(total)
}

func (p *Pool) statsLoop(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			total := p.BytesTotal()
			if total == 0 {
				continue
			}
			processed := p.BytesProcessed()
			p.log.Info("resolving progress",
				"processed", humanize.Bytes(uint64(processed)),
				"total", humanize.Bytes(uint64(total)),
				"percent", fmt.Sprintf("%.2f", p.Progress()*100.0),
			)
		}
	}
}
