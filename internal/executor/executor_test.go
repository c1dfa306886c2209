package executor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExecuteHappyPath(t *testing.T) {
	runner := writeRunner(t, `echo "All specs passed! (2 passing)"
exit 0
`)
	exec, err := New(Config{
		Command: []string{runner},
		Engines: []string{"electron"},
	})
	if err != nil {
		t.Fatal(err)
	}
	root := t.TempDir()

	res := exec.Execute(context.Background(), ExecutionRequest{
		Source:      "describe('x', () => {})",
		ProjectRoot: root,
		FileName:    "x.cy.js",
	})
	if res.Status != StatusCompletedSuccessfully {
		t.Fatalf("status=%s message=%q", res.Status, res.Message)
	}
	if res.Attempts != 1 {
		t.Fatalf("attempts=%d", res.Attempts)
	}
	wantSpec := filepath.Join(root, "cypress", "e2e", "x.cy.js")
	if res.SpecPath != wantSpec {
		t.Fatalf("spec path=%s, want %s", res.SpecPath, wantSpec)
	}
	b, err := os.ReadFile(wantSpec)
	if err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	if string(b) != "describe('x', () => {})" {
		t.Fatalf("artifact content=%q", b)
	}
	if res.RunSummary == "" || !strings.Contains(res.Transcript, "All specs passed!") {
		t.Fatalf("diagnostics missing: summary=%q transcript=%q", res.RunSummary, res.Transcript)
	}

	// Executing the same source under the same name overwrites and yields an
	// identical result shape.
	again := exec.Execute(context.Background(), ExecutionRequest{
		Source:      "describe('x', () => {})",
		ProjectRoot: root,
		FileName:    "x.cy.js",
	})
	if again.Status != res.Status || again.SpecPath != res.SpecPath ||
		again.SourceHash != res.SourceHash || again.Attempts != res.Attempts {
		t.Fatalf("repeat execution diverged:\nfirst:  %+v\nsecond: %+v", res, again)
	}
}

func TestExecuteMissingRootIsSavingFailure(t *testing.T) {
	exec, err := New(Config{Engines: []string{"electron"}})
	if err != nil {
		t.Fatal(err)
	}
	res := exec.Execute(context.Background(), ExecutionRequest{
		Source:      "x",
		ProjectRoot: filepath.Join(t.TempDir(), "absent"),
		FileName:    "x.cy.js",
	})
	if res.Status != StatusErrorSavingFile {
		t.Fatalf("status=%s", res.Status)
	}
	if res.Attempts != 0 {
		t.Fatalf("attempts=%d, want 0: no process may spawn on a saving failure", res.Attempts)
	}
}

func TestExecuteTraversalIsSavingFailure(t *testing.T) {
	runner := writeRunner(t, `exit 0
`)
	exec, err := New(Config{Command: []string{runner}, Engines: []string{"electron"}})
	if err != nil {
		t.Fatal(err)
	}
	root := t.TempDir()
	res := exec.Execute(context.Background(), ExecutionRequest{
		Source:      "x",
		ProjectRoot: root,
		FileName:    "../escape.cy.js",
	})
	if res.Status != StatusErrorSavingFile {
		t.Fatalf("status=%s", res.Status)
	}
	if _, err := os.Stat(filepath.Join(root, "cypress", "escape.cy.js")); err == nil {
		t.Fatal("escaped file was written")
	}
}

func TestExecuteArtifactAttachedOnFailure(t *testing.T) {
	runner := writeRunner(t, `echo "(1 failing)"
exit 1
`)
	exec, err := New(Config{Command: []string{runner}, Engines: []string{"electron"}})
	if err != nil {
		t.Fatal(err)
	}
	root := t.TempDir()
	res := exec.Execute(context.Background(), ExecutionRequest{
		Source:      "src",
		ProjectRoot: root,
		FileName:    "f.cy.js",
	})
	if res.Status != StatusCompletedWithFailures {
		t.Fatalf("status=%s", res.Status)
	}
	if res.SpecPath == "" || res.SourceHash == "" {
		t.Fatalf("artifact not attached on failure: %+v", res)
	}
	if _, err := os.Stat(res.SpecPath); err != nil {
		t.Fatalf("artifact not on disk: %v", err)
	}
}

func TestExecuteCanceledContext(t *testing.T) {
	runner := writeRunner(t, `exit 0
`)
	exec, err := New(Config{Command: []string{runner}, Engines: []string{"electron"}})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := exec.Execute(ctx, ExecutionRequest{
		Source:      "x",
		ProjectRoot: t.TempDir(),
		FileName:    "x.cy.js",
	})
	if res.Status != StatusCanceled {
		t.Fatalf("status=%s, want canceled", res.Status)
	}
}

func TestLockPathOutsideProject(t *testing.T) {
	root := t.TempDir()
	path := lockPath(root, filepath.Join("cypress", "e2e", "a.cy.js"))
	if strings.HasPrefix(path, root) {
		t.Fatalf("lock file %s lives inside the project under test", path)
	}
	again := lockPath(root, filepath.Join("cypress", "e2e", "a.cy.js"))
	if path != again {
		t.Fatal("lock path must be stable for the same spec path")
	}
	other := lockPath(root, filepath.Join("cypress", "e2e", "b.cy.js"))
	if path == other {
		t.Fatal("distinct spec paths must get distinct locks")
	}
}
