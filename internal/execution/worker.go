package execution

import (
	"context"
	"sync"
	"time"

	"stepagg/internal/config"
	"stepagg/internal/domain"
)

// Progress receives replay progress. ui.ProgressBar implements it.
type Progress interface {
	Update(completed, passed, failed int)
	Finish()
}

// LogRunner replays one log. *Runner implements it.
type LogRunner interface {
	Run(ctx context.Context, path string, workerID int) domain.ReplayResult
}

// WorkerPool replays event logs in parallel
type WorkerPool struct {
	config    *config.Config
	runner    LogRunner
	scheduler Scheduler
	progress  Progress
}

// NewWorkerPool creates a new WorkerPool
func NewWorkerPool(cfg *config.Config, runner LogRunner, scheduler Scheduler) *WorkerPool {
	return &WorkerPool{
		config:    cfg,
		runner:    runner,
		scheduler: scheduler,
	}
}

// SetProgress sets the progress reporter for the worker pool
func (wp *WorkerPool) SetProgress(progress Progress) {
	wp.progress = progress
}

// Execute replays all logs, stopping after the first unsuccessful log when
// fail-fast is set.
func (wp *WorkerPool) Execute(ctx context.Context, logs []string) ([]domain.ReplayResult, time.Duration, error) {
	if len(logs) == 0 {
		return nil, 0, nil
	}
	if wp.config.Flags.FailFast {
		return wp.executeFailFast(ctx, logs)
	}
	return wp.executeAll(ctx, logs)
}

func (wp *WorkerPool) workerCount() int {
	if wp.config.Processors <= 0 {
		return 1
	}
	return wp.config.Processors
}

// tally tracks progress across workers
type tally struct {
	mu        sync.Mutex
	completed int
	passed    int
	failed    int
}

func (t *tally) add(result domain.ReplayResult, progress Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.completed++
	for _, report := range result.Reports {
		if report.Result == nil {
			continue
		}
		switch report.Result.Outcome {
		case domain.OutcomePassed:
			t.passed++
		case domain.OutcomeFailed:
			t.failed++
		}
	}
	if progress != nil {
		progress.Update(t.completed, t.passed, t.failed)
	}
}

// executeAll gives every worker its scheduled share of logs.
func (wp *WorkerPool) executeAll(ctx context.Context, logs []string) ([]domain.ReplayResult, time.Duration, error) {
	startTime := time.Now()
	shares := wp.scheduler.Schedule(logs, wp.workerCount())
	results := make(chan domain.ReplayResult, len(logs))
	counts := &tally{}

	var wg sync.WaitGroup
	for i, share := range shares {
		wg.Add(1)
		go func(workerID int, share []string) {
			defer wg.Done()
			for _, path := range share {
				if ctx.Err() != nil {
					return
				}
				result := wp.runner.Run(ctx, path, workerID)
				results <- result
				counts.add(result, wp.progress)
			}
		}(i+1, share)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	allResults := collect(results)
	if wp.progress != nil {
		wp.progress.Finish()
	}
	return allResults, time.Since(startTime), ctx.Err()
}

// executeFailFast feeds a shared queue and stops handing out logs after the
// first unsuccessful one. Logs already running finish but are discarded.
func (wp *WorkerPool) executeFailFast(ctx context.Context, logs []string) ([]domain.ReplayResult, time.Duration, error) {
	queueCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan string)
	results := make(chan domain.ReplayResult, len(logs))
	go func() {
		defer close(queue)
		for _, path := range logs {
			if queueCtx.Err() != nil {
				return
			}
			select {
			case <-queueCtx.Done():
				return
			case queue <- path:
			}
		}
	}()

	var mu sync.Mutex
	var seenFailure bool
	startTime := time.Now()
	counts := &tally{}

	var wg sync.WaitGroup
	for i := 1; i <= wp.workerCount(); i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for path := range queue {
				result := wp.runner.Run(ctx, path, workerID)

				mu.Lock()
				if seenFailure {
					mu.Unlock()
					continue
				}
				if !result.Success() {
					seenFailure = true
					cancel()
				}
				mu.Unlock()

				results <- result
				counts.add(result, wp.progress)
			}
		}(i)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	allResults := collect(results)
	if wp.progress != nil {
		wp.progress.Finish()
	}
	return allResults, time.Since(startTime), ctx.Err()
}

func collect(results <-chan domain.ReplayResult) []domain.ReplayResult {
	var all []domain.ReplayResult
	for result := range results {
		all = append(all, result)
	}
	return all
}
