package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

const (
	killReasonTimeout  = "timeout"
	killReasonCanceled = "canceled"
)

type killVerdict struct {
	mu     sync.Mutex
	reason string
}

func (v *killVerdict) set(reason string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.reason == "" {
		v.reason = reason
	}
}

func (v *killVerdict) get() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reason
}

func buildAttemptArgs(cfg Config, engine, specRel string) []string {
	args := append([]string{}, cfg.Command[1:]...)
	args = append(args, cfg.BaseArgs...)
	args = append(args,
		"--browser", engine,
		"--headless",
		"--config", "video=false",
		"--spec", specRel,
	)
	return args
}

// runAttempt spawns exactly one runner process for one engine, drains both
// output streams concurrently until the process closes, and returns the
// finalized AttemptRecord. Retry and fallback belong to the sequencer; this
// function never retries.
func runAttempt(ctx context.Context, cfg Config, projectRoot, specRel, engine string) AttemptRecord {
	rec := AttemptRecord{Engine: engine, Started: time.Now()}

	exe := cfg.Command[0]
	args := buildAttemptArgs(cfg, engine, specRel)

	cmd := exec.Command(exe, args...)
	cmd.Dir = projectRoot
	// The runner gets no interactive input; an empty reader avoids hangs on
	// accidental confirmation prompts.
	cmd.Stdin = strings.NewReader("")
	cmd.Env = mergeEnvWithOverrides(os.Environ(), cfg.EnvOverrides)
	// Own the process group so timeout/cancel can kill runner children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return finalizeSpawnFailure(rec, exe, args, err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return finalizeSpawnFailure(rec, exe, args, err)
	}
	if err := cmd.Start(); err != nil {
		return finalizeSpawnFailure(rec, exe, args, err)
	}

	var stdout, stderr bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = io.Copy(&stdout, stdoutPipe)
	}()
	go func() {
		defer wg.Done()
		_, _ = io.Copy(&stderr, stderrPipe)
	}()

	verdict := &killVerdict{}
	done := make(chan struct{})
	go watchAttempt(ctx, cmd, cfg, verdict, done)

	// Both streams must reach EOF before Wait; classification only happens
	// once everything the process wrote has been captured.
	wg.Wait()
	waitErr := cmd.Wait()
	close(done)

	rec.Duration = time.Since(rec.Started)
	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	rec.ExitCode = &exitCode
	rec.Stdout = stdout.String()
	rec.Stderr = stderr.String()
	rec.Outcome = classifyAttempt(cfg, verdict.get(), waitErr, exitCode, rec.Stdout, rec.Stderr)
	rec.Fragment = buildFragment(rec, exe, args)
	return rec
}

func finalizeSpawnFailure(rec AttemptRecord, exe string, args []string, err error) AttemptRecord {
	rec.Duration = time.Since(rec.Started)
	rec.Outcome = AttemptOutcome{
		Kind:   OutcomeStartupFailure,
		Reason: fmt.Sprintf("failed to start %s: %v", exe, err),
	}
	rec.Fragment = buildFragment(rec, exe, args)
	return rec
}

// watchAttempt waits for caller cancellation or the per-attempt timeout and
// terminates the runner's process group when either fires. It returns as
// soon as the attempt finishes on its own.
func watchAttempt(ctx context.Context, cmd *exec.Cmd, cfg Config, verdict *killVerdict, done <-chan struct{}) {
	var timeoutCh <-chan time.Time
	if cfg.AttemptTimeout > 0 {
		timer := time.NewTimer(cfg.AttemptTimeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}
	select {
	case <-done:
		return
	case <-ctx.Done():
		verdict.set(killReasonCanceled)
	case <-timeoutCh:
		verdict.set(killReasonTimeout)
	}
	terminateGroup(cmd, cfg.KillGrace, done)
}

func terminateGroup(cmd *exec.Cmd, grace time.Duration, done <-chan struct{}) {
	_ = killProcessGroup(cmd, syscall.SIGTERM)
	if grace > 0 {
		select {
		case <-done:
			return
		case <-time.After(grace):
		}
	}
	_ = killProcessGroup(cmd, syscall.SIGKILL)
	if cmd.Process != nil {
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) && pidAlive(cmd.Process.Pid) {
			time.Sleep(50 * time.Millisecond)
		}
	}
}

func killProcessGroup(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return nil
		}
		return err
	}
	if err := syscall.Kill(-pgid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return nil
}

// classifyAttempt turns a finished (or killed) attempt into a tagged outcome.
// Order matters: forced termination first, then environment-defect
// signatures regardless of exit code, then the pass/fail heuristics.
func classifyAttempt(cfg Config, killReason string, waitErr error, exitCode int, stdout, stderr string) AttemptOutcome {
	switch killReason {
	case killReasonTimeout:
		return AttemptOutcome{
			Kind:   OutcomeStartupFailure,
			Reason: fmt.Sprintf("attempt exceeded %s; runner terminated", cfg.AttemptTimeout),
		}
	case killReasonCanceled:
		return AttemptOutcome{
			Kind:   OutcomeCanceled,
			Reason: "attempt canceled; runner terminated",
		}
	}
	if sig, ok := cfg.Signatures.MatchDefect(stderr); ok {
		return AttemptOutcome{
			Kind:   OutcomeEnvironmentDefect,
			Defect: sig.Kind,
			Reason: fmt.Sprintf("host environment is missing %s", sig.Dependency),
		}
	}
	if exitCode == 0 && cfg.Signatures.PassIndicator(stdout) {
		return AttemptOutcome{Kind: OutcomeSuccess}
	}
	if exitCode != 0 || cfg.Signatures.FailIndicator(stdout) {
		reason := "test run completed with failing specs"
		if waitErr != nil && exitCode < 0 {
			reason = fmt.Sprintf("runner exited abnormally: %v", waitErr)
		}
		return AttemptOutcome{Kind: OutcomeRunFailure, TestsFailed: true, Reason: reason}
	}
	return AttemptOutcome{Kind: OutcomeRunFailure, Reason: "run ended without a recognized completion signal"}
}

func buildFragment(rec AttemptRecord, exe string, args []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== engine %s ===\n", rec.Engine)
	fmt.Fprintf(&b, "$ %s %s\n", exe, strings.Join(args, " "))
	if rec.ExitCode != nil {
		fmt.Fprintf(&b, "exit code: %d\n", *rec.ExitCode)
	} else {
		b.WriteString("exit code: n/a (process did not start)\n")
	}
	fmt.Fprintf(&b, "outcome: %s", rec.Outcome.Kind)
	if rec.Outcome.Defect != "" {
		fmt.Fprintf(&b, " (%s)", rec.Outcome.Defect)
	}
	if rec.Outcome.Reason != "" {
		fmt.Fprintf(&b, ": %s", rec.Outcome.Reason)
	}
	b.WriteString("\n")
	if out := strings.TrimSpace(rec.Stdout); out != "" {
		b.WriteString("--- stdout ---\n")
		b.WriteString(out)
		b.WriteString("\n")
	}
	if errText := strings.TrimSpace(rec.Stderr); errText != "" {
		b.WriteString("--- stderr ---\n")
		b.WriteString(errText)
		b.WriteString("\n")
	}
	return b.String()
}
