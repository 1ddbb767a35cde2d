package domain

import "time"

// Label is a tag attached to a registered autotest
type Label struct {
	Name string `json:"name"`
}

// Attachment references an uploaded artifact by name
type Attachment struct {
	ID string `json:"id"`
}

// Autotest is the registration payload for a test template
type Autotest struct {
	ProjectID  string         `json:"projectId"`
	ExternalID string         `json:"externalId"`
	Namespace  string         `json:"namespace"`
	Classname  string         `json:"classname,omitempty"`
	Name       string         `json:"name"`
	Title      string         `json:"title"`
	Steps      []AutotestStep `json:"steps"`
	Labels     []Label        `json:"labels,omitempty"`
}

// AutotestResult reports one execution of a registered autotest
type AutotestResult struct {
	ConfigurationID string       `json:"configurationId"`
	ExternalID      string       `json:"autotestExternalId"`
	Outcome         Outcome      `json:"outcome"`
	Duration        int64        `json:"duration"`
	StartedOn       string       `json:"startedOn,omitempty"`
	Traces          string       `json:"traces,omitempty"`
	StepResults     []*StepNode  `json:"stepResults"`
	Attachments     []Attachment `json:"attachments,omitempty"`
}

// TestReport pairs the registration and result payloads of one test
type TestReport struct {
	Log      string          `json:"log"`
	Test     TestInfo        `json:"test"`
	Autotest *Autotest       `json:"autotest,omitempty"`
	Result   *AutotestResult `json:"result,omitempty"`
}

// ReplayResult is the outcome of replaying a single event log
type ReplayResult struct {
	LogPath  string        // Path to the replayed event log
	Reports  []TestReport  // Reports completed by the adapter
	Warnings []string      // Non-fatal problems found while decoding
	Error    error         // Error if the replay failed
	Duration time.Duration // Time taken to replay
}

// Success reports whether the log replayed and every test in it passed.
func (r ReplayResult) Success() bool {
	if r.Error != nil {
		return false
	}
	for _, report := range r.Reports {
		if report.Result != nil && report.Result.Outcome == OutcomeFailed {
			return false
		}
	}
	return true
}

// ReplayMeta contains metadata about a replay run
type ReplayMeta struct {
	TotalLogs       int     `json:"total_logs"`
	FailedLogs      int     `json:"failed_logs"`
	TotalTests      int     `json:"total_tests"`
	PassedTests     int     `json:"passed_tests"`
	FailedTests     int     `json:"failed_tests"`
	SkippedTests    int     `json:"skipped_tests"`
	Registered      int     `json:"registered_autotests"`
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	Workers         int     `json:"workers"`
	Timestamp       string  `json:"timestamp"`
}

// ReplayOutput is the complete output structure for a replay run
type ReplayOutput struct {
	Meta     ReplayMeta   `json:"meta"`
	Reports  []TestReport `json:"reports"`
	Warnings []string     `json:"warnings,omitempty"`
}

// NewReplayOutput aggregates replay results into an output document.
func NewReplayOutput(results []ReplayResult, duration time.Duration, workers int, now time.Time) *ReplayOutput {
	out := &ReplayOutput{
		Meta: ReplayMeta{
			TotalLogs:       len(results),
			Duration:        duration.String(),
			DurationSeconds: duration.Seconds(),
			Workers:         workers,
			Timestamp:       now.Format(time.RFC3339),
		},
		Reports: []TestReport{},
	}
	for _, r := range results {
		if r.Error != nil {
			out.Meta.FailedLogs++
			out.Warnings = append(out.Warnings, r.LogPath+": "+r.Error.Error())
		}
		out.Warnings = append(out.Warnings, r.Warnings...)
		for _, report := range r.Reports {
			out.Meta.TotalTests++
			if report.Autotest != nil {
				out.Meta.Registered++
			}
			if report.Result != nil {
				switch report.Result.Outcome {
				case OutcomePassed:
					out.Meta.PassedTests++
				case OutcomeFailed:
					out.Meta.FailedTests++
				case OutcomeSkipped:
					out.Meta.SkippedTests++
				}
			}
			out.Reports = append(out.Reports, report)
		}
	}
	return out
}
