package eventlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"stepagg/internal/domain"
)

// Decoder turns a recorded host event stream into events
type Decoder interface {
	Decode(r io.Reader) (*Log, error)
}

// Log is a decoded event log. Warnings list records skipped in lenient mode.
type Log struct {
	Events   []Event
	Warnings []string
}

type record struct {
	Event   string           `json:"event" yaml:"event"`
	Test    *domain.TestInfo `json:"test,omitempty" yaml:"test,omitempty"`
	Step    *stepRecord      `json:"step,omitempty" yaml:"step,omitempty"`
	Comment string           `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// stepRecord is a step as serialized in a log. Ref ties together records that
// describe the same step object in the host process.
type stepRecord struct {
	Ref    string      `json:"ref,omitempty" yaml:"ref,omitempty"`
	ID     string      `json:"id,omitempty" yaml:"id,omitempty"`
	Title  string      `json:"title" yaml:"title"`
	Args   []string    `json:"args,omitempty" yaml:"args,omitempty"`
	Status string      `json:"status,omitempty" yaml:"status,omitempty"`
	Start  int64       `json:"start,omitempty" yaml:"start,omitempty"`
	End    int64       `json:"end,omitempty" yaml:"end,omitempty"`
	Group  bool        `json:"group,omitempty" yaml:"group,omitempty"`
	Parent *stepRecord `json:"parent,omitempty" yaml:"parent,omitempty"`
}

// JSONLDecoder decodes one JSON object per line. Blank lines are skipped.
type JSONLDecoder struct {
	Strict bool
}

// NewJSONLDecoder creates a JSONLDecoder
func NewJSONLDecoder(strict bool) *JSONLDecoder {
	return &JSONLDecoder{Strict: strict}
}

// Decode reads the whole stream
func (d *JSONLDecoder) Decode(r io.Reader) (*Log, error) {
	log := &Log{}
	in := newInterner()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var rec record
		err := json.Unmarshal(raw, &rec)
		if err == nil {
			var ev Event
			ev, err = in.event(rec, line)
			if err == nil {
				log.Events = append(log.Events, ev)
				continue
			}
		}
		if d.Strict {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		log.Warnings = append(log.Warnings, fmt.Sprintf("line %d: %v", line, err))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan event log: %w", err)
	}
	return log, nil
}

// YAMLDecoder decodes a YAML sequence of records
type YAMLDecoder struct {
	Strict bool
}

// NewYAMLDecoder creates a YAMLDecoder
func NewYAMLDecoder(strict bool) *YAMLDecoder {
	return &YAMLDecoder{Strict: strict}
}

// Decode reads the whole document
func (d *YAMLDecoder) Decode(r io.Reader) (*Log, error) {
	var doc []yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return &Log{}, nil
		}
		return nil, fmt.Errorf("parse yaml event log: %w", err)
	}

	log := &Log{}
	in := newInterner()
	for i := range doc {
		node := &doc[i]
		var rec record
		err := node.Decode(&rec)
		if err == nil {
			var ev Event
			ev, err = in.event(rec, node.Line)
			if err == nil {
				log.Events = append(log.Events, ev)
				continue
			}
		}
		if d.Strict {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		log.Warnings = append(log.Warnings, fmt.Sprintf("line %d: %v", node.Line, err))
	}
	return log, nil
}

// DecoderFor picks a decoder from the file extension
func DecoderFor(path string, strict bool) Decoder {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return NewYAMLDecoder(strict)
	default:
		return NewJSONLDecoder(strict)
	}
}

// ReadFile decodes the event log at path
func ReadFile(path string, strict bool) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	log, err := DecoderFor(path, strict).Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return log, nil
}

// interner resolves step records to shared step objects by ref, so every
// record of the same host step yields the same *domain.StepEvent.
type interner struct {
	byRef map[string]*domain.StepEvent
}

func newInterner() *interner {
	return &interner{byRef: make(map[string]*domain.StepEvent)}
}

func (in *interner) event(rec record, line int) (Event, error) {
	kind := Kind(rec.Event)
	if !kind.known() {
		return Event{}, fmt.Errorf("%w %q", ErrUnknownEvent, rec.Event)
	}

	ev := Event{Kind: kind, Line: line, Test: rec.Test, Comment: rec.Comment}
	switch {
	case kind.needsTest() && rec.Test == nil:
		return Event{}, fmt.Errorf("%w: %s needs a test", ErrMissingPayload, kind)
	case kind.needsStep() && rec.Step == nil:
		return Event{}, fmt.Errorf("%w: %s needs a step", ErrMissingPayload, kind)
	case kind == StepComment && rec.Comment == "":
		return Event{}, fmt.Errorf("%w: %s needs a comment", ErrMissingPayload, kind)
	}
	if rec.Step != nil {
		ev.Step = in.step(rec.Step)
	}
	return ev, nil
}

// step resolves a record and its parent chain, outermost last.
func (in *interner) step(rec *stepRecord) *domain.StepEvent {
	var chain []*domain.StepEvent
	for r := rec; r != nil; r = r.Parent {
		chain = append(chain, in.resolve(r))
	}
	for i := 0; i < len(chain)-1; i++ {
		if chain[i] != chain[i+1] {
			chain[i].Parent = chain[i+1]
		}
	}
	return chain[0]
}

func (in *interner) resolve(r *stepRecord) *domain.StepEvent {
	ev, ok := in.byRef[r.Ref]
	if !ok || r.Ref == "" {
		ev = &domain.StepEvent{}
		if r.Ref != "" {
			in.byRef[r.Ref] = ev
		}
	}

	if r.ID != "" {
		ev.ID = r.ID
	}
	if r.Title != "" {
		ev.Title = r.Title
	}
	if len(r.Args) > 0 {
		ev.Args = append([]string{}, r.Args...)
	}
	if r.Status != "" {
		ev.Status = r.Status
	}
	if r.Start != 0 {
		ev.StartTime = time.UnixMilli(r.Start)
	}
	if r.End != 0 {
		ev.EndTime = time.UnixMilli(r.End)
	}
	if r.Group {
		ev.Grouping = true
	}
	return ev
}
