package executor

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Status is the public result vocabulary returned to callers.
type Status string

const (
	StatusCompletedSuccessfully Status = "completed_successfully"
	StatusCompletedWithFailures Status = "completed_with_failures"
	StatusErrorRunning          Status = "error_running"
	StatusErrorSavingFile       Status = "error_saving_file"
	StatusCanceled              Status = "canceled"
)

func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "completed_successfully", "success":
		return StatusCompletedSuccessfully, nil
	case "completed_with_failures", "failures":
		return StatusCompletedWithFailures, nil
	case "error_running":
		return StatusErrorRunning, nil
	case "error_saving_file":
		return StatusErrorSavingFile, nil
	case "canceled", "cancelled":
		return StatusCanceled, nil
	default:
		return "", fmt.Errorf("invalid execution status: %q", s)
	}
}

func (s Status) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

// OutcomeKind classifies a single runner attempt.
type OutcomeKind string

const (
	OutcomeSuccess           OutcomeKind = "success"
	OutcomeEnvironmentDefect OutcomeKind = "environment_defect"
	OutcomeRunFailure        OutcomeKind = "run_failure"
	OutcomeStartupFailure    OutcomeKind = "startup_failure"
	OutcomeCanceled          OutcomeKind = "canceled"
)

// DefectKind names the host-environment dependency whose absence caused an
// environment-defect attempt outcome.
type DefectKind string

const (
	DefectDisplayMissing       DefectKind = "display_missing"
	DefectSharedLibraryMissing DefectKind = "shared_library_missing"
)

// AttemptOutcome is the classified verdict for one attempt. Defect is set
// only when Kind is OutcomeEnvironmentDefect; TestsFailed refines
// OutcomeRunFailure into "tests ran and failed" vs. "run never completed".
type AttemptOutcome struct {
	Kind        OutcomeKind
	Defect      DefectKind
	TestsFailed bool
	Reason      string
}

// AttemptRecord captures everything observed during one runner invocation.
// It is finalized exactly once, when the process exits or fails to spawn,
// and never mutated afterwards.
type AttemptRecord struct {
	Engine   string
	Started  time.Time
	Duration time.Duration

	// ExitCode is nil when the process never started.
	ExitCode *int

	Stdout string
	Stderr string

	Outcome  AttemptOutcome
	Fragment string
}

// ExecutionRequest is the immutable input to Execute.
type ExecutionRequest struct {
	// Source is the opaque generated test text. Never parsed, only stored.
	Source      string
	ProjectRoot string
	FileName    string
}

func (r ExecutionRequest) Validate() error {
	if strings.TrimSpace(r.ProjectRoot) == "" {
		return fmt.Errorf("project root is required")
	}
	info, err := os.Stat(r.ProjectRoot)
	if err != nil {
		return fmt.Errorf("project root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("project root is not a directory: %s", r.ProjectRoot)
	}
	if strings.TrimSpace(r.FileName) == "" {
		return fmt.Errorf("file name is required")
	}
	return nil
}

// ExecutionResult is the single, bounded result produced per request.
type ExecutionResult struct {
	Status  Status `json:"status"`
	Message string `json:"message"`

	// SpecPath is the saved artifact path; set whenever the write succeeded,
	// regardless of how the run went.
	SpecPath   string `json:"spec_path,omitempty"`
	SourceHash string `json:"source_hash,omitempty"`

	// RunSummary is a short excerpt of the runner's pass/fail count lines.
	RunSummary string `json:"run_summary,omitempty"`

	// Transcript is the cumulative per-attempt diagnostic log, truncated to
	// the configured cap.
	Transcript string `json:"transcript,omitempty"`

	Attempts int `json:"attempts"`
}
