package executor

import (
	"fmt"
	"strings"
)

// buildResult folds the attempt records into the public ExecutionResult.
// The terminal record (the one that ended the sequence) determines status:
//
//	Success                         -> completed_successfully
//	RunFailure with failing tests   -> completed_with_failures
//	RunFailure without completion   -> error_running
//	EnvironmentDefect (last engine) -> error_running
//	StartupFailure                  -> error_running
//	Canceled                        -> canceled
//
// The artifact path and source hash are attached regardless of run outcome;
// the file was written even when the run failed.
func buildResult(cfg Config, art materialized, records []AttemptRecord) ExecutionResult {
	res := ExecutionResult{
		SpecPath:   art.AbsPath,
		SourceHash: art.Hash,
		Attempts:   len(records),
	}
	if len(records) == 0 {
		res.Status = StatusErrorRunning
		res.Message = "no browser engines configured; nothing was attempted"
		return res
	}

	terminal := records[len(records)-1]
	switch terminal.Outcome.Kind {
	case OutcomeSuccess:
		res.Status = StatusCompletedSuccessfully
		res.Message = "All tests completed successfully."
	case OutcomeRunFailure:
		if terminal.Outcome.TestsFailed {
			res.Status = StatusCompletedWithFailures
			res.Message = "Test run completed with failures."
		} else {
			res.Status = StatusErrorRunning
			res.Message = "Test run ended without a recognized completion signal."
		}
	case OutcomeEnvironmentDefect:
		res.Status = StatusErrorRunning
		res.Message = fmt.Sprintf("Could not run tests: %s.", terminal.Outcome.Reason)
	case OutcomeStartupFailure:
		res.Status = StatusErrorRunning
		res.Message = fmt.Sprintf("Could not run tests: %s.", terminal.Outcome.Reason)
	case OutcomeCanceled:
		res.Status = StatusCanceled
		res.Message = "Test run canceled."
	default:
		res.Status = StatusErrorRunning
		res.Message = fmt.Sprintf("Unexpected attempt outcome: %s.", terminal.Outcome.Kind)
	}

	if len(records) > 1 {
		engines := make([]string, 0, len(records))
		for _, rec := range records {
			engines = append(engines, rec.Engine)
		}
		res.Message += fmt.Sprintf(" (engines tried: %s)", strings.Join(engines, ", "))
	}

	res.RunSummary = cfg.Signatures.summaryExcerpt(terminal.Stdout)
	res.Transcript = truncateTranscript(mergeTranscript(records), cfg.TranscriptCap)
	return res
}

// truncateTranscript applies the hard transcript budget, keeping the head.
func truncateTranscript(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit]
}

// savingFailureResult is the specialized result for a materialization
// failure: the request terminates before any process is spawned.
func savingFailureResult(err error) ExecutionResult {
	return ExecutionResult{
		Status:  StatusErrorSavingFile,
		Message: fmt.Sprintf("Could not save the generated test file: %v", err),
	}
}
