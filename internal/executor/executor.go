// Package executor materializes generated browser-test source into a target
// project and drives an external test runner across an ordered list of
// browser engines, classifying the runner's text output into a bounded,
// structured result.
package executor

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/zeebo/blake3"
)

type Executor struct {
	cfg Config
}

// New returns an Executor with the config normalized against defaults.
func New(cfg Config) (*Executor, error) {
	normalized, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}
	return &Executor{cfg: normalized}, nil
}

// Execute runs the full materialize-run-report pipeline for one request.
// It always returns exactly one ExecutionResult and never panics or returns
// an error once input validation passes: process-layer failures are folded
// into the result's status instead.
//
// Concurrent executions against the same project root and file name are
// serialized through an advisory file lock; everything else is request-local.
func (e *Executor) Execute(ctx context.Context, req ExecutionRequest) ExecutionResult {
	if err := req.Validate(); err != nil {
		return savingFailureResult(err)
	}

	specRel, err := suiteRelPath(e.cfg.SuiteDir, req.FileName)
	if err != nil {
		return savingFailureResult(err)
	}

	lock := flock.New(lockPath(req.ProjectRoot, specRel))
	locked, err := lock.TryLockContext(ctx, 250*time.Millisecond)
	if err != nil {
		if ctx.Err() != nil {
			return ExecutionResult{
				Status:  StatusCanceled,
				Message: "Canceled while waiting for the spec path lock.",
			}
		}
		return ExecutionResult{
			Status:  StatusErrorRunning,
			Message: fmt.Sprintf("Could not acquire the spec path lock: %v", err),
		}
	}
	if !locked {
		return ExecutionResult{
			Status:  StatusErrorRunning,
			Message: "Another execution holds the spec path lock.",
		}
	}
	defer func() { _ = lock.Unlock() }()

	art, err := materialize(req.ProjectRoot, e.cfg.SuiteDir, req.FileName, req.Source)
	if err != nil {
		return savingFailureResult(err)
	}

	records := runSequence(ctx, e.cfg, req.ProjectRoot, art.SpecRel)
	return buildResult(e.cfg, art, records)
}

// lockPath derives a stable lock file location outside the target project so
// the lock never shows up in the repository under test.
func lockPath(projectRoot, specRel string) string {
	abs, err := filepath.Abs(filepath.Join(projectRoot, specRel))
	if err != nil {
		abs = filepath.Join(projectRoot, specRel)
	}
	sum := blake3.Sum256([]byte(abs))
	return filepath.Join(os.TempDir(), "cypilot-"+hex.EncodeToString(sum[:8])+".lock")
}
