// Package adapter connects recorded host lifecycle events to the step engine
// and turns each test into registration and result payloads.
package adapter

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"stepagg/internal/config"
	"stepagg/internal/domain"
	"stepagg/internal/eventlog"
	"stepagg/internal/steps"
)

var _ eventlog.Handler = (*Adapter)(nil)

// Adapter handles the events of one replayed log
type Adapter struct {
	notifier steps.Notifier
	engine   *steps.Processor
	reporter config.ReporterConfig
	logPath  string

	testStarts map[string]time.Time
	autotests  map[string]*domain.Autotest
	known      map[string]bool
	results    []pendingResult

	now    func() time.Time
	logger *slog.Logger
}

type pendingResult struct {
	test   domain.TestInfo
	result *domain.AutotestResult
}

// Option configures an Adapter
type Option func(*Adapter)

// WithLogger sets the logger for skipped results
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRegistered sets the external ids of autotests registered by earlier
// replays. The set is only read.
func WithRegistered(ids map[string]bool) Option {
	return func(a *Adapter) {
		a.known = ids
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

// New creates an Adapter for the log at logPath
func New(reporter config.ReporterConfig, logPath string, opts ...Option) *Adapter {
	a := &Adapter{
		reporter:   reporter,
		logPath:    logPath,
		testStarts: make(map[string]time.Time),
		autotests:  make(map[string]*domain.Autotest),
		now:        time.Now,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.engine = steps.NewProcessor(steps.WithLogger(a.logger))
	a.notifier = a.engine
	return a
}

// ExternalID returns the stable id of a test. Tests without an id get a
// name-based UUID over namespace, suite and title.
func ExternalID(namespace string, test domain.TestInfo) string {
	if test.ID != "" {
		return test.ID
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(namespace+"/"+test.Suite+"/"+test.Title)).String()
}

func (a *Adapter) externalID(test domain.TestInfo) string {
	return ExternalID(a.reporter.Namespace, test)
}

// ResetTestState clears the step tree before a test
func (a *Adapter) ResetTestState() {
	a.notifier.ResetForNewTest()
}

// InitTest records the start time of a test
func (a *Adapter) InitTest(test domain.TestInfo) {
	a.testStarts[a.externalID(test)] = a.now()
}

// InitStep assigns identifiers to a step and its meta-step chain
func (a *Adapter) InitStep(step *domain.StepEvent) {
	steps.AssignIDs(step)
}

// CompleteStep hands a finished step to the engine
func (a *Adapter) CompleteStep(step *domain.StepEvent) {
	// steps recorded without a step.before still need identifiers
	steps.AssignIDs(step)
	a.notifier.NotifyStep(step)
}

// HandleStepComment buffers a comment for the next step
func (a *Adapter) HandleStepComment(text string) {
	a.notifier.NotifyComment(text)
}

// InitAutotest registers the test with its definition tree. Only passed tests
// are registered.
func (a *Adapter) InitAutotest(test domain.TestInfo) {
	labels := make([]domain.Label, 0, len(test.Tags))
	for _, tag := range test.Tags {
		labels = append(labels, domain.Label{Name: tag})
	}

	id := a.externalID(test)
	a.autotests[id] = &domain.Autotest{
		ProjectID:  a.reporter.ProjectID,
		ExternalID: id,
		Namespace:  a.reporter.Namespace,
		Classname:  test.Suite,
		Name:       test.Title,
		Title:      test.Title,
		Steps:      a.engine.DefinitionTree(),
		Labels:     labels,
	}
}

// CompleteTest builds the result payload of a finished test
func (a *Adapter) CompleteTest(test domain.TestInfo) {
	outcome, ok := domain.TestOutcome(test.State)
	if !ok {
		a.logger.Warn("cannot map test status, test result ignored",
			"test", test.Title, "state", test.State)
		return
	}

	id := a.externalID(test)
	result := &domain.AutotestResult{
		ConfigurationID: a.reporter.ConfigurationID,
		ExternalID:      id,
		Outcome:         outcome,
		Traces:          traces(test.Error),
		StepResults:     a.engine.ResultTree(),
	}
	if started, ok := a.testStarts[id]; ok {
		result.Duration = a.now().Sub(started).Milliseconds()
		result.StartedOn = started.UTC().Format(time.RFC3339Nano)
	}
	if test.Screenshot != "" {
		result.Attachments = []domain.Attachment{{ID: test.Screenshot}}
	}

	a.results = append(a.results, pendingResult{test: test, result: result})
}

// Complete returns one report per result whose autotest is registered, either
// by a passed test in this log or by an earlier replay. Results of a
// previously registered test carry no Autotest payload. Results of tests that
// were never registered are dropped.
func (a *Adapter) Complete() []domain.TestReport {
	reports := make([]domain.TestReport, 0, len(a.results))
	for _, r := range a.results {
		autotest, ok := a.autotests[r.result.ExternalID]
		if !ok && !a.known[r.result.ExternalID] {
			a.logger.Info("autotest not registered, test result ignored",
				"test", r.test.Title, "external_id", r.result.ExternalID)
			continue
		}
		reports = append(reports, domain.TestReport{
			Log:      a.logPath,
			Test:     r.test,
			Autotest: autotest,
			Result:   r.result,
		})
	}
	return reports
}

func traces(err *domain.TestError) string {
	if err == nil {
		return ""
	}
	parts := make([]string, 0, 2)
	if err.Message != "" {
		parts = append(parts, err.Message)
	}
	if err.Stack != "" {
		parts = append(parts, err.Stack)
	}
	return strings.Join(parts, "\n")
}
