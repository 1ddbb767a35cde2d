package steps

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepagg/internal/domain"
)

// fakeStep builds a step whose id and title are equal. Ids starting with "m"
// are meta-steps.
func fakeStep(id string, parent *domain.StepEvent) *domain.StepEvent {
	return &domain.StepEvent{
		ID:        id,
		Title:     id,
		Parent:    parent,
		StartTime: time.UnixMilli(1),
		EndTime:   time.UnixMilli(2),
		Status:    domain.StepStatusSuccess,
		Grouping:  strings.HasPrefix(id, "m"),
	}
}

// referenceStream returns steps and comments in execution order. Meta-steps are
// rebuilt for every step so that only identifiers tie them together.
func referenceStream() []any {
	return []any{
		fakeStep("01", fakeStep("m01", fakeStep("m00", nil))),
		"middle comment",
		fakeStep("02", fakeStep("m01", fakeStep("m00", nil))),
		fakeStep("03", fakeStep("m00", nil)),
		"root comment",
		fakeStep("04", nil),
		fakeStep("05", fakeStep("m02", nil)),
		"edge comment",
		fakeStep("06", fakeStep("m03", nil)),
	}
}

func feed(p *Processor, stream []any) {
	for _, item := range stream {
		switch v := item.(type) {
		case string:
			p.ProcessComment(v)
		case *domain.StepEvent:
			p.ProcessStep(v)
		}
	}
}

func preparedProcessor(t *testing.T) *Processor {
	t.Helper()
	p := NewProcessor()
	feed(p, referenceStream())
	return p
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestProcessor_DefinitionTree(t *testing.T) {
	p := preparedProcessor(t)

	expected := []domain.AutotestStep{
		{
			Title: "m00",
			Steps: []domain.AutotestStep{
				{
					Title: "m01",
					Steps: []domain.AutotestStep{
						{Title: "01"},
						{Title: "middle comment"},
						{Title: "02"},
					},
				},
				{Title: "03"},
			},
		},
		{Title: "root comment"},
		{Title: "04"},
		{Title: "m02", Steps: []domain.AutotestStep{{Title: "05"}}},
		{Title: "m03", Steps: []domain.AutotestStep{{Title: "edge comment"}, {Title: "06"}}},
	}

	assert.Equal(t, expected, p.DefinitionTree())
}

func TestProcessor_ResultTree(t *testing.T) {
	p := preparedProcessor(t)

	expected := `[
		{"title": "m00", "outcome": "Passed", "duration": 1, "stepResults": [
			{"title": "m01", "outcome": "Passed", "duration": 1, "stepResults": [
				{"title": "01", "outcome": "Passed", "duration": 1},
				{"title": "middle comment"},
				{"title": "02", "outcome": "Passed", "duration": 1}
			]},
			{"title": "03", "outcome": "Passed", "duration": 1}
		]},
		{"title": "root comment"},
		{"title": "04", "outcome": "Passed", "duration": 1},
		{"title": "m02", "outcome": "Passed", "duration": 1, "stepResults": [
			{"title": "05", "outcome": "Passed", "duration": 1}
		]},
		{"title": "m03", "outcome": "Passed", "duration": 1, "stepResults": [
			{"title": "edge comment"},
			{"title": "06", "outcome": "Passed", "duration": 1}
		]}
	]`

	assert.JSONEq(t, expected, mustJSON(t, p.ResultTree()))
}

func TestProcessor_Reset(t *testing.T) {
	p := preparedProcessor(t)
	require.NotEmpty(t, p.DefinitionTree())
	require.NotEmpty(t, p.ResultTree())

	p.ProcessComment("pending")
	p.Reset()

	assert.Empty(t, p.DefinitionTree())
	assert.Empty(t, p.ResultTree())

	// the pending comment went away with the reset
	p.ProcessStep(fakeStep("01", nil))
	assert.Equal(t, []domain.AutotestStep{{Title: "01"}}, p.DefinitionTree())
}

func TestProcessor_SharedAncestorInsertedOnce(t *testing.T) {
	root := fakeStep("m00", nil)
	group := fakeStep("m01", root)

	p := NewProcessor()
	for _, id := range []string{"a", "b", "c"} {
		p.ProcessStep(fakeStep(id, group))
	}
	p.ProcessStep(fakeStep("d", root))

	expected := []domain.AutotestStep{
		{
			Title: "m00",
			Steps: []domain.AutotestStep{
				{Title: "m01", Steps: []domain.AutotestStep{{Title: "a"}, {Title: "b"}, {Title: "c"}}},
				{Title: "d"},
			},
		},
	}
	assert.Equal(t, expected, p.DefinitionTree())
	require.Len(t, p.ResultTree(), 1)
}

func TestProcessor_IgnoresStepWithoutID(t *testing.T) {
	p := NewProcessor()
	p.ProcessComment("kept")
	p.ProcessStep(&domain.StepEvent{Title: "no id"})
	p.ProcessStep(nil)

	assert.Empty(t, p.ResultTree())

	// the comment is still buffered for the next valid step
	p.ProcessStep(fakeStep("01", nil))
	assert.Equal(t, []domain.AutotestStep{{Title: "kept"}, {Title: "01"}}, p.DefinitionTree())
}

func TestProcessor_Comments(t *testing.T) {
	tests := []struct {
		name     string
		stream   []any
		expected []domain.AutotestStep
	}{
		{
			name:     "orphaned comment is dropped",
			stream:   []any{fakeStep("01", nil), "trailing"},
			expected: []domain.AutotestStep{{Title: "01"}},
		},
		{
			name:     "second pending comment replaces the first",
			stream:   []any{"first", "second", fakeStep("01", nil)},
			expected: []domain.AutotestStep{{Title: "second"}, {Title: "01"}},
		},
		{
			name:     "empty comment does not replace a pending one",
			stream:   []any{"first", "", fakeStep("01", nil)},
			expected: []domain.AutotestStep{{Title: "first"}, {Title: "01"}},
		},
		{
			name: "comment before a nested step lands at the step level",
			stream: []any{
				"deep",
				fakeStep("01", fakeStep("m01", fakeStep("m00", nil))),
			},
			expected: []domain.AutotestStep{
				{Title: "m00", Steps: []domain.AutotestStep{
					{Title: "m01", Steps: []domain.AutotestStep{{Title: "deep"}, {Title: "01"}}},
				}},
			},
		},
		{
			name:   "grouping step does not flush",
			stream: []any{"later", fakeStep("m00", nil), fakeStep("01", nil)},
			expected: []domain.AutotestStep{
				{Title: "m00", Steps: []domain.AutotestStep{}},
				{Title: "later"},
				{Title: "01"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProcessor()
			feed(p, tt.stream)
			assert.Equal(t, tt.expected, p.DefinitionTree())
		})
	}
}

func TestProcessor_NodeFields(t *testing.T) {
	t.Run("unmapped status and missing timestamps are omitted", func(t *testing.T) {
		p := NewProcessor()
		p.ProcessStep(&domain.StepEvent{ID: "1", Title: "I wait", Status: "queued", StartTime: time.UnixMilli(10)})

		tree := p.ResultTree()
		require.Len(t, tree, 1)
		assert.Empty(t, tree[0].Outcome)
		assert.Nil(t, tree[0].Duration)
		assert.Nil(t, tree[0].Children)
	})

	t.Run("failed step with args", func(t *testing.T) {
		p := NewProcessor()
		p.ProcessStep(&domain.StepEvent{
			ID:        "1",
			Title:     "I click",
			Args:      []string{"Login"},
			Status:    domain.StepStatusFailed,
			StartTime: time.UnixMilli(100),
			EndTime:   time.UnixMilli(350),
		})

		tree := p.ResultTree()
		require.Len(t, tree, 1)
		assert.Equal(t, `I click "Login"`, tree[0].Title)
		assert.Equal(t, domain.OutcomeFailed, tree[0].Outcome)
		require.NotNil(t, tree[0].Duration)
		assert.Equal(t, int64(250), *tree[0].Duration)
	})
}

func TestProcessor_ProjectionsAreConsistent(t *testing.T) {
	p := preparedProcessor(t)

	var strip func(nodes []*domain.StepNode) []domain.AutotestStep
	strip = func(nodes []*domain.StepNode) []domain.AutotestStep {
		out := make([]domain.AutotestStep, len(nodes))
		for i, n := range nodes {
			out[i].Title = n.Title
			if n.IsGroup() {
				out[i].Steps = strip(n.Children)
			}
		}
		return out
	}

	assert.Equal(t, p.DefinitionTree(), strip(p.ResultTree()))
	// projections do not consume state
	assert.Equal(t, p.DefinitionTree(), p.DefinitionTree())
}

func TestProcessor_ResultTreeIsSnapshot(t *testing.T) {
	p := NewProcessor()
	p.ProcessStep(fakeStep("01", nil))

	snapshot := p.ResultTree()
	p.ProcessStep(fakeStep("02", nil))

	assert.Len(t, snapshot, 1)
	assert.Len(t, p.ResultTree(), 2)
}

func TestProcessor_UnattachableParent(t *testing.T) {
	t.Run("parent without id consumes the comment", func(t *testing.T) {
		p := NewProcessor()
		p.ProcessComment("c")
		p.ProcessStep(fakeStep("a", &domain.StepEvent{Title: "anonymous", Grouping: true}))
		assert.Empty(t, p.ResultTree())

		p.ProcessStep(fakeStep("b", nil))
		assert.Equal(t, []domain.AutotestStep{{Title: "b"}}, p.DefinitionTree())
	})

	t.Run("grouping step keeps the comment", func(t *testing.T) {
		p := NewProcessor()
		leaf := fakeStep("01", nil)
		p.ProcessStep(leaf)
		p.ProcessComment("c")
		p.ProcessStep(fakeStep("m1", leaf))

		p.ProcessStep(fakeStep("02", nil))
		assert.Equal(t, []domain.AutotestStep{{Title: "01"}, {Title: "c"}, {Title: "02"}}, p.DefinitionTree())
	})

	t.Run("parent is a leaf", func(t *testing.T) {
		p := NewProcessor()
		leaf := fakeStep("01", nil)
		p.ProcessStep(leaf)
		p.ProcessStep(fakeStep("02", leaf))
		assert.Equal(t, []domain.AutotestStep{{Title: "01"}}, p.DefinitionTree())
	})

	t.Run("dropped group is still indexed", func(t *testing.T) {
		p := NewProcessor()
		leaf := fakeStep("01", nil)
		p.ProcessStep(leaf)
		group := fakeStep("m1", leaf)
		p.ProcessStep(fakeStep("02", group))
		p.ProcessStep(fakeStep("03", group))

		// both children land in the detached group, never at the root
		assert.Equal(t, []domain.AutotestStep{{Title: "01"}}, p.DefinitionTree())
	})
}

func TestProcessor_DeepChain(t *testing.T) {
	const depth = 10000

	var parent *domain.StepEvent
	for i := 0; i < depth; i++ {
		parent = &domain.StepEvent{ID: "m" + strconv.Itoa(i), Title: "group", Grouping: true, Parent: parent}
	}

	p := NewProcessor()
	p.ProcessStep(&domain.StepEvent{ID: "leaf", Title: "leaf", Parent: parent})

	tree := p.DefinitionTree()
	levels := 0
	for len(tree) == 1 && tree[0].Steps != nil {
		tree = tree[0].Steps
		levels++
	}
	assert.Equal(t, depth, levels)
	require.Len(t, tree, 1)
	assert.Equal(t, "leaf", tree[0].Title)
}

func TestProcessor_CyclicChain(t *testing.T) {
	a := &domain.StepEvent{ID: "ma", Title: "a", Grouping: true}
	b := &domain.StepEvent{ID: "mb", Title: "b", Grouping: true, Parent: a}
	a.Parent = b

	p := NewProcessor()
	p.ProcessStep(&domain.StepEvent{ID: "leaf", Title: "leaf", Parent: b})

	// the cycle cannot be attached anywhere, so nothing is inserted
	assert.Empty(t, p.ResultTree())
}

