package eventlog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepagg/internal/domain"
)

func TestJSONLDecoder_SharesStepsByRef(t *testing.T) {
	log, err := ReadFile("testdata/checkout.events.jsonl", true)
	require.NoError(t, err)
	require.Len(t, log.Events, 27)
	assert.Empty(t, log.Warnings)

	before, finished := log.Events[3], log.Events[4]
	require.Equal(t, StepBefore, before.Kind)
	require.Equal(t, StepFinished, finished.Kind)

	assert.Same(t, before.Step, finished.Step)
	assert.Same(t, before.Step.Parent, finished.Step.Parent)
	assert.Equal(t, domain.StepStatusSuccess, finished.Step.Status)
	assert.True(t, finished.Step.Parent.Grouping)
	assert.Equal(t, time.UnixMilli(1), finished.Step.StartTime)

	// "02" sits under the same m01 object as "01"
	second := log.Events[7]
	require.Equal(t, "02", second.Step.Title)
	assert.Same(t, before.Step.Parent, second.Step.Parent)
	assert.Same(t, before.Step.Parent.Parent, second.Step.Parent.Parent)
}

func TestYAMLDecoder(t *testing.T) {
	log, err := ReadFile("testdata/short.events.yml", true)
	require.NoError(t, err)
	require.Len(t, log.Events, 8)

	first := log.Events[2].Step
	assert.Equal(t, `I fill field "email", "a@b.c"`, first.String())
	assert.Same(t, first, log.Events[3].Step)
	assert.Equal(t, "I log in", first.Parent.Title)

	clicked := log.Events[5].Step
	assert.Equal(t, "external-2", clicked.ID)
	assert.Same(t, first.Parent, clicked.Parent)
	assert.Equal(t, "submit", log.Events[4].Comment)
	assert.Equal(t, 1, log.Events[0].Line)
}

func TestJSONLDecoder_Malformed(t *testing.T) {
	input := strings.Join([]string{
		`{"event":"test.before","test":{"title":"a"}}`,
		`not json`,
		``,
		`{"event":"step.exploded","step":{"title":"x"}}`,
		`{"event":"step.finished"}`,
		`{"event":"step.comment","comment":""}`,
		`{"event":"test.after","test":{"title":"a","state":"passed"}}`,
	}, "\n")

	t.Run("lenient mode collects warnings", func(t *testing.T) {
		log, err := NewJSONLDecoder(false).Decode(strings.NewReader(input))
		require.NoError(t, err)
		assert.Len(t, log.Events, 2)
		require.Len(t, log.Warnings, 4)
		assert.True(t, strings.HasPrefix(log.Warnings[0], "line 2:"))
		assert.Contains(t, log.Warnings[1], "unknown event")
		assert.Contains(t, log.Warnings[2], "needs a step")
		assert.Contains(t, log.Warnings[3], "needs a comment")
	})

	t.Run("strict mode fails on the first bad line", func(t *testing.T) {
		_, err := NewJSONLDecoder(true).Decode(strings.NewReader(input))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("unknown event is a sentinel", func(t *testing.T) {
		_, err := NewJSONLDecoder(true).Decode(strings.NewReader(`{"event":"nope"}`))
		assert.True(t, errors.Is(err, ErrUnknownEvent))
	})
}

func TestDecoderFor(t *testing.T) {
	if _, ok := DecoderFor("a.events.yaml", false).(*YAMLDecoder); !ok {
		t.Error("expected yaml decoder for .yaml")
	}
	if _, ok := DecoderFor("a.events.jsonl", false).(*JSONLDecoder); !ok {
		t.Error("expected jsonl decoder for .jsonl")
	}
}

type recordingHandler struct {
	calls []string
}

func (h *recordingHandler) ResetTestState()                { h.calls = append(h.calls, "reset") }
func (h *recordingHandler) InitTest(test domain.TestInfo)  { h.calls = append(h.calls, "init:"+test.Title) }
func (h *recordingHandler) InitStep(s *domain.StepEvent)   { h.calls = append(h.calls, "before:"+s.Title) }
func (h *recordingHandler) CompleteStep(s *domain.StepEvent) {
	h.calls = append(h.calls, "finished:"+s.Title)
}
func (h *recordingHandler) HandleStepComment(text string)     { h.calls = append(h.calls, "comment:"+text) }
func (h *recordingHandler) InitAutotest(test domain.TestInfo) { h.calls = append(h.calls, "passed:"+test.Title) }
func (h *recordingHandler) CompleteTest(test domain.TestInfo) { h.calls = append(h.calls, "after:"+test.Title) }

func TestDispatch(t *testing.T) {
	log, err := ReadFile("testdata/short.events.yml", true)
	require.NoError(t, err)

	h := &recordingHandler{}
	require.NoError(t, Dispatch(context.Background(), log.Events, h))

	assert.Equal(t, []string{
		"reset",
		"init:login",
		"before:I fill field",
		"finished:I fill field",
		"comment:submit",
		"finished:I click",
		"passed:login",
		"after:login",
	}, h.calls)
}

func TestDispatch_Canceled(t *testing.T) {
	log, err := ReadFile("testdata/short.events.yml", true)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := &recordingHandler{}
	err = Dispatch(ctx, log.Events, h)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.calls)
}
