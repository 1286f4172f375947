package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/remix/internal/common"
	"github.com/ternarybob/remix/internal/interfaces"
	"github.com/ternarybob/remix/internal/models"
)

type fakePipeline struct {
	mu        sync.Mutex
	processed []string
	regens    []string
	done      chan struct{}
}

func (f *fakePipeline) Process(ctx context.Context, sourceID string) {
	f.mu.Lock()
	f.processed = append(f.processed, sourceID)
	f.mu.Unlock()
	f.done <- struct{}{}
}

func (f *fakePipeline) Regenerate(ctx context.Context, sourceID string) {
	f.mu.Lock()
	f.regens = append(f.regens, sourceID)
	f.mu.Unlock()
	f.done <- struct{}{}
}

type stubSources struct {
	interfaces.SourceStorage
	queued []*models.Source
}

func (s *stubSources) ListByStatus(ctx context.Context, status models.SourceStatus) ([]*models.Source, error) {
	if status == models.StatusQueued {
		return s.queued, nil
	}
	return nil, nil
}

func waitForJobs(t *testing.T, done chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for job %d of %d", i+1, n)
		}
	}
}

func TestProcessorDispatchesTasks(t *testing.T) {
	pipeline := &fakePipeline{done: make(chan struct{}, 8)}
	p := NewProcessor(pipeline, &stubSources{}, &common.WorkersConfig{Count: 2, QueueSize: 8}, arbor.NewLogger())

	p.Start()
	defer p.Stop()

	require.NoError(t, p.Enqueue(Task{SourceID: "src-1"}))
	require.NoError(t, p.Enqueue(Task{SourceID: "src-2", Regen: true}))

	waitForJobs(t, pipeline.done, 2)

	pipeline.mu.Lock()
	defer pipeline.mu.Unlock()
	assert.Equal(t, []string{"src-1"}, pipeline.processed)
	assert.Equal(t, []string{"src-2"}, pipeline.regens)
}

func TestProcessorRequeuesPendingOnStart(t *testing.T) {
	pipeline := &fakePipeline{done: make(chan struct{}, 8)}
	sources := &stubSources{queued: []*models.Source{
		{ID: "src-a", Status: models.StatusQueued},
		{ID: "src-b", Status: models.StatusQueued},
	}}

	p := NewProcessor(pipeline, sources, &common.WorkersConfig{Count: 1, QueueSize: 8}, arbor.NewLogger())
	p.Start()
	defer p.Stop()

	waitForJobs(t, pipeline.done, 2)

	pipeline.mu.Lock()
	defer pipeline.mu.Unlock()
	assert.ElementsMatch(t, []string{"src-a", "src-b"}, pipeline.processed)
}

func TestProcessorRejectsWhenFull(t *testing.T) {
	pipeline := &fakePipeline{done: make(chan struct{}, 8)}
	p := NewProcessor(pipeline, &stubSources{}, &common.WorkersConfig{Count: 1, QueueSize: 1}, arbor.NewLogger())

	// Not started: nothing drains the queue
	require.NoError(t, p.Enqueue(Task{SourceID: "src-1"}))
	assert.Error(t, p.Enqueue(Task{SourceID: "src-2"}))
}

func TestProcessorStartIsIdempotent(t *testing.T) {
	pipeline := &fakePipeline{done: make(chan struct{}, 8)}
	p := NewProcessor(pipeline, &stubSources{}, &common.WorkersConfig{Count: 1, QueueSize: 4}, arbor.NewLogger())

	p.Start()
	p.Start()
	p.Stop()
	p.Stop()
}
