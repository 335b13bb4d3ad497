package models

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// RunStatus represents valid suite run states
type RunStatus string

// Run statuses
const (
	RunStatusPending RunStatus = "pending"
	RunStatusRunning RunStatus = "running"
	RunStatusPassed  RunStatus = "passed"
	RunStatusFailed  RunStatus = "failed"
	RunStatusAborted RunStatus = "aborted"
)

// Run triggers
const (
	TriggerCLI   = "cli"
	TriggerWatch = "watch"
)

// Scenario outcomes as stored with a run
const (
	OutcomePassed  = "passed"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Run is one execution of the suite against a storefront
type Run struct {
	ID         string           `json:"id"`
	Trigger    string           `json:"trigger"`
	BaseURL    string           `json:"baseUrl"`
	Browser    string           `json:"browser"`
	Status     RunStatus        `json:"status"`
	Passed     int              `json:"passed"`
	Failed     int              `json:"failed"`
	Skipped    int              `json:"skipped"`
	Message    string           `json:"message,omitempty"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
	Scenarios  []ScenarioRecord `json:"scenarios,omitempty"`
}

// ScenarioRecord is the stored outcome of one scenario or step
type ScenarioRecord struct {
	Name     string        `json:"name"`
	Outcome  string        `json:"outcome"`
	Kind     string        `json:"kind,omitempty"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"durationNs"`
}

// Domain errors
var (
	ErrInvalidBaseURL          = errors.New("base URL must be an absolute http(s) URL")
	ErrInvalidTrigger          = errors.New("trigger must be cli or watch")
	ErrInvalidOutcome          = errors.New("invalid scenario outcome")
	ErrInvalidStatusTransition = errors.New("invalid run status transition")
	ErrRunFinished             = errors.New("run is already finished")
)

// NewRun creates a pending run with validation
func NewRun(baseURL, browser, trigger string) (*Run, error) {
	if err := validateRunInput(baseURL, trigger); err != nil {
		return nil, err
	}
	if browser == "" {
		browser = "chromium"
	}
	return &Run{
		ID:        uuid.New().String(),
		Trigger:   trigger,
		BaseURL:   baseURL,
		Browser:   browser,
		Status:    RunStatusPending,
		StartedAt: time.Now(),
	}, nil
}

func validateRunInput(baseURL, trigger string) error {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}
	if trigger != TriggerCLI && trigger != TriggerWatch {
		return ErrInvalidTrigger
	}
	return nil
}

// Start marks a pending run as running
func (r *Run) Start() error {
	if r.Status != RunStatusPending {
		return fmt.Errorf("%w: cannot start run with status %s", ErrInvalidStatusTransition, r.Status)
	}
	r.Status = RunStatusRunning
	r.StartedAt = time.Now()
	return nil
}

// Finish stores the scenario records and settles the run as passed or failed
func (r *Run) Finish(records []ScenarioRecord) error {
	if r.IsFinished() {
		return ErrRunFinished
	}
	if r.Status != RunStatusRunning {
		return fmt.Errorf("%w: cannot finish run with status %s", ErrInvalidStatusTransition, r.Status)
	}
	passed, failed, skipped := 0, 0, 0
	for _, rec := range records {
		switch rec.Outcome {
		case OutcomePassed:
			passed++
		case OutcomeFailed:
			failed++
		case OutcomeSkipped:
			skipped++
		default:
			return fmt.Errorf("%w: %q for %s", ErrInvalidOutcome, rec.Outcome, rec.Name)
		}
	}
	r.Scenarios = records
	r.Passed, r.Failed, r.Skipped = passed, failed, skipped
	r.Status = RunStatusPassed
	if failed > 0 {
		r.Status = RunStatusFailed
	}
	r.finish()
	return nil
}

// Abort settles a run that could not complete
func (r *Run) Abort(reason string) error {
	if r.IsFinished() {
		return ErrRunFinished
	}
	r.Status = RunStatusAborted
	r.Message = reason
	r.finish()
	return nil
}

func (r *Run) finish() {
	now := time.Now()
	r.FinishedAt = &now
}

// IsFinished returns true once the run reached a terminal status
func (r *Run) IsFinished() bool {
	switch r.Status {
	case RunStatusPassed, RunStatusFailed, RunStatusAborted:
		return true
	}
	return false
}

// Duration is the wall time of a finished run, or zero
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Total is the number of recorded scenarios and steps
func (r *Run) Total() int {
	return r.Passed + r.Failed + r.Skipped
}
