package execution

// Scheduler distributes event logs across workers
type Scheduler interface {
	Schedule(logs []string, workerCount int) [][]string
}

// RoundRobinScheduler distributes logs evenly across workers
type RoundRobinScheduler struct{}

// NewRoundRobinScheduler creates a new RoundRobinScheduler
func NewRoundRobinScheduler() *RoundRobinScheduler {
	return &RoundRobinScheduler{}
}

// Schedule deals logs to workers in turn. Every worker gets a non-nil slice.
func (s *RoundRobinScheduler) Schedule(logs []string, workerCount int) [][]string {
	if workerCount <= 0 {
		workerCount = 1
	}

	distribution := make([][]string, workerCount)
	for i := range distribution {
		distribution[i] = make([]string, 0, len(logs)/workerCount+1)
	}
	for i, log := range logs {
		distribution[i%workerCount] = append(distribution[i%workerCount], log)
	}
	return distribution
}
