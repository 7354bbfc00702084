// Package worker provides an asynchronous worker pool that forwards ingest
// events to an eventstream.Publisher.
//
// The pool decouples event delivery from the ingest path so a slow or
// unreachable broker never delays an ingest that has already committed.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/semsearch/pkg/eventstream"
)

var (
	defaultNumWorkers     uint = 1
	defaultJobQueueSize   uint = 64
	defaultPublishTimeout      = 10 * time.Second
)

// ErrQueueFull is returned when an event is dropped because the queue has no
// capacity left.
var ErrQueueFull = errors.New("event queue full")

// ErrClosed is returned for events published after Close.
var ErrClosed = errors.New("event pool closed")

// Config is the configuration options for the worker pool.
type Config struct {
	// Publisher delivers the queued events. Required.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool. One worker
	// keeps events in commit order.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 64).
	QueueSize uint

	// PublishTimeout bounds a single delivery (defaults to 10s).
	PublishTimeout time.Duration

	Logger *slog.Logger
}

// Pool publishes events asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan *eventstream.IngestCompletedEvent
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Publisher == nil {
		return nil, errors.New("publisher is required")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.PublishTimeout == 0 {
		c.PublishTimeout = defaultPublishTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	log := c.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan *eventstream.IngestCompletedEvent, c.QueueSize),
		logger: log,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// PublishIngest queues event for delivery. It never blocks: when the queue is
// full the event is dropped and ErrQueueFull returned.
func (p *Pool) PublishIngest(_ context.Context, event *eventstream.IngestCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	select {
	case p.queue <- event:
		p.logger.Debug("event queued",
			"event_id", event.EventID,
			"run_id", event.Run.RunID,
		)
		return nil
	default:
		p.logger.Error("event not queued, queue full, event dropped",
			"event_id", event.EventID,
			"run_id", event.Run.RunID,
		)
		return ErrQueueFull
	}
}

// Close stops accepting events, waits for queued events to drain and then
// closes the underlying publisher.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	return p.config.Publisher.Close()
}

// worker is the inner worker thread that continuously pulls events off the queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("event worker started", "worker_id", id)

	for event := range p.queue {
		p.deliver(event)
	}

	p.logger.Debug("event worker stopped", "worker_id", id)
}

// deliver publishes one event. Failures are logged, not retried.
func (p *Pool) deliver(event *eventstream.IngestCompletedEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.PublishTimeout)
	defer cancel()

	if err := p.config.Publisher.PublishIngest(ctx, event); err != nil {
		p.logger.Warn("failed to publish ingest event",
			"event_id", event.EventID,
			"run_id", event.Run.RunID,
			"error", err,
		)
		return
	}

	p.logger.Debug("ingest event published",
		"event_id", event.EventID,
		"run_id", event.Run.RunID,
	)
}

var _ eventstream.Publisher = (*Pool)(nil)
