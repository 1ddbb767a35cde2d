package execution

import (
	"context"
	"time"

	"stepagg/internal/domain"
)

// Executor replays event logs and returns their results
type Executor interface {
	Execute(ctx context.Context, logs []string) ([]domain.ReplayResult, time.Duration, error)
}

var _ Executor = (*WorkerPool)(nil)
