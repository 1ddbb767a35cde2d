package execution

import (
	"reflect"
	"testing"
)

func TestRoundRobinScheduler_Schedule(t *testing.T) {
	scheduler := NewRoundRobinScheduler()

	tests := []struct {
		name     string
		logs     []string
		workers  int
		expected [][]string
	}{
		{
			name:     "even split",
			logs:     []string{"a", "b", "c", "d"},
			workers:  2,
			expected: [][]string{{"a", "c"}, {"b", "d"}},
		},
		{
			name:     "more workers than logs",
			logs:     []string{"a"},
			workers:  3,
			expected: [][]string{{"a"}, {}, {}},
		},
		{
			name:     "non-positive worker count falls back to one",
			logs:     []string{"a", "b"},
			workers:  0,
			expected: [][]string{{"a", "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scheduler.Schedule(tt.logs, tt.workers)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}
