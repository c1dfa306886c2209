// Package repo holds the repository-facing collaborators of the pipeline:
// cloning a target repository into a scratch directory and summarizing its
// structure for flow inference.
package repo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
)

// CommandError carries the full diagnostic surface of a failed git
// invocation so callers can embed it in user-facing logs.
type CommandError struct {
	Args   []string
	Stdout string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += ": " + strings.TrimSpace(e.Stderr)
	}
	return msg
}

func runGit(ctx context.Context, dir string, args ...string) (string, string, error) {
	// Disable git's background auto-maintenance so clones never leave
	// long-running helper processes behind in scratch directories.
	base := []string{
		"-c", "maintenance.auto=0",
		"-c", "gc.auto=0",
	}
	if dir != "" {
		base = append([]string{"-C", dir}, base...)
	}
	cmd := exec.CommandContext(ctx, "git", append(base, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	outStr := stdout.String()
	errStr := stderr.String()
	if err != nil {
		return outStr, errStr, &CommandError{Args: args, Stdout: outStr, Stderr: errStr, Err: err}
	}
	return outStr, errStr, nil
}

// Clone clones repoURL into a fresh scratch directory and returns its path
// together with the clone log. On failure the scratch directory is removed
// before the error (which embeds the log) propagates. The cloned directory's
// lifecycle afterwards belongs to the caller.
func Clone(ctx context.Context, repoURL string) (string, string, error) {
	if strings.TrimSpace(repoURL) == "" {
		return "", "", fmt.Errorf("repository URL is empty")
	}
	dir := filepath.Join(os.TempDir(), "cypilot-clone-"+strings.ToLower(ulid.Make().String()))
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create clone directory: %w", err)
	}

	stdout, stderr, err := runGit(ctx, "", "clone", "--depth", "1", repoURL, dir)
	log := combineLog(stdout, stderr)
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", log, fmt.Errorf("clone %s: %w", repoURL, err)
	}
	return dir, log, nil
}

// IsRepo reports whether dir is inside a git work tree.
func IsRepo(ctx context.Context, dir string) bool {
	out, _, err := runGit(ctx, dir, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) == "true"
}

// HeadSHA returns the commit the clone is checked out at.
func HeadSHA(ctx context.Context, dir string) (string, error) {
	out, _, err := runGit(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func combineLog(stdout, stderr string) string {
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(stdout); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(stderr); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}
