package execution

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepagg/internal/domain"
)

type fakeRunner struct {
	mu      sync.Mutex
	ran     []string
	failing map[string]bool
}

func (f *fakeRunner) Run(_ context.Context, path string, _ int) domain.ReplayResult {
	f.mu.Lock()
	f.ran = append(f.ran, path)
	f.mu.Unlock()

	outcome := domain.OutcomePassed
	if f.failing[path] {
		outcome = domain.OutcomeFailed
	}
	return domain.ReplayResult{
		LogPath: path,
		Reports: []domain.TestReport{{Result: &domain.AutotestResult{Outcome: outcome}}},
	}
}

type recordingProgress struct {
	mu       sync.Mutex
	last     [3]int
	finished bool
}

func (p *recordingProgress) Update(completed, passed, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = [3]int{completed, passed, failed}
}

func (p *recordingProgress) Finish() { p.finished = true }

func TestWorkerPool_Execute(t *testing.T) {
	logs := []string{"a", "b", "c", "d", "e"}
	runner := &fakeRunner{failing: map[string]bool{"c": true}}
	cfg := testConfig()
	cfg.Processors = 2

	pool := NewWorkerPool(cfg, runner, NewRoundRobinScheduler())
	progress := &recordingProgress{}
	pool.SetProgress(progress)

	results, _, err := pool.Execute(context.Background(), logs)
	require.NoError(t, err)
	require.Len(t, results, 5)

	var paths []string
	for _, r := range results {
		paths = append(paths, r.LogPath)
	}
	sort.Strings(paths)
	assert.Equal(t, logs, paths)
	assert.Equal(t, [3]int{5, 4, 1}, progress.last)
	assert.True(t, progress.finished)
}

func TestWorkerPool_ExecuteFailFast(t *testing.T) {
	logs := []string{"a", "b", "c", "d", "e", "f"}
	runner := &fakeRunner{failing: map[string]bool{"b": true}}
	cfg := testConfig()
	cfg.Processors = 1
	cfg.Flags.FailFast = true

	results, _, err := NewWorkerPool(cfg, runner, NewRoundRobinScheduler()).Execute(context.Background(), logs)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "b", results[1].LogPath)
	assert.False(t, results[1].Success())
	assert.LessOrEqual(t, len(runner.ran), 3)
}

func TestWorkerPool_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &fakeRunner{}
	results, _, err := NewWorkerPool(testConfig(), runner, NewRoundRobinScheduler()).Execute(ctx, []string{"a", "b"})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, results)
	assert.Empty(t, runner.ran)
}

func TestWorkerPool_NoLogs(t *testing.T) {
	results, duration, err := NewWorkerPool(testConfig(), &fakeRunner{}, NewRoundRobinScheduler()).Execute(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, results)
	assert.Zero(t, duration)
}
