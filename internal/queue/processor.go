// -----------------------------------------------------------------------
// Job Processor - Dispatches source jobs to the pipeline worker pool
// -----------------------------------------------------------------------

package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/common"
	"github.com/ternarybob/remix/internal/interfaces"
	"github.com/ternarybob/remix/internal/models"
)

// Pipeline runs one source job end to end
type Pipeline interface {
	Process(ctx context.Context, sourceID string)
	Regenerate(ctx context.Context, sourceID string)
}

// Task is one unit of pipeline work
type Task struct {
	SourceID string
	Regen    bool
}

// Processor fans source jobs out to a fixed pool of pipeline workers.
// Jobs still queued from a previous run are re-enqueued on Start.
type Processor struct {
	pipeline Pipeline
	sources  interfaces.SourceStorage
	tasks    chan Task
	logger   arbor.ILogger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
	workers  int
}

// NewProcessor creates a processor with the configured worker count and
// queue depth.
func NewProcessor(pipeline Pipeline, sources interfaces.SourceStorage, cfg *common.WorkersConfig, logger arbor.ILogger) *Processor {
	ctx, cancel := context.WithCancel(context.Background())

	workers := cfg.Count
	if workers < 1 {
		workers = 1
	}
	queueSize := cfg.QueueSize
	if queueSize < 1 {
		queueSize = 1
	}

	return &Processor{
		pipeline: pipeline,
		sources:  sources,
		tasks:    make(chan Task, queueSize),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		workers:  workers,
	}
}

// Start launches the worker pool and requeues jobs left in the queued
// state by a previous run.
func (p *Processor) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		p.logger.Warn().Msg("Job processor already running")
		return
	}
	p.running = true

	p.logger.Info().Int("workers", p.workers).Msg("Starting job processor")

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work(i)
	}

	p.requeuePending()
}

// Stop drains the pool gracefully
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	p.logger.Info().Msg("Stopping job processor...")
	p.cancel()
	p.wg.Wait()
	p.logger.Info().Msg("Job processor stopped")
}

// Enqueue submits a task to the pool. Returns an error when the queue
// is full rather than blocking the HTTP handler.
func (p *Processor) Enqueue(task Task) error {
	select {
	case p.tasks <- task:
		return nil
	default:
		return fmt.Errorf("job queue is full")
	}
}

func (p *Processor) work(workerID int) {
	defer p.wg.Done()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Int("worker", workerID).
				Msg("Recovered from panic in pipeline worker")
		}
	}()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.tasks:
			p.logger.Debug().
				Int("worker", workerID).
				Str("source_id", task.SourceID).
				Bool("regen", task.Regen).
				Msg("Worker picked up job")

			if task.Regen {
				p.pipeline.Regenerate(p.ctx, task.SourceID)
			} else {
				p.pipeline.Process(p.ctx, task.SourceID)
			}
		}
	}
}

// requeuePending re-enqueues jobs stranded in the queued state, so a
// restart does not orphan accepted work.
func (p *Processor) requeuePending() {
	pending, err := p.sources.ListByStatus(p.ctx, models.StatusQueued)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to list queued jobs for requeue")
		return
	}

	for _, source := range pending {
		if err := p.Enqueue(Task{SourceID: source.ID}); err != nil {
			p.logger.Warn().Str("source_id", source.ID).Msg("Queue full during startup requeue")
			return
		}
	}

	if len(pending) > 0 {
		p.logger.Info().Int("count", len(pending)).Msg("Requeued pending jobs from previous run")
	}
}
