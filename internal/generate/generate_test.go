package generate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeModelCLI drops a fake model CLI executable and returns its path.
func writeModelCLI(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model-cli")
	if err := os.WriteFile(path, []byte("#!/usr/bin/env bash\n"+body), 0o755); err != nil {
		t.Fatalf("write model cli: %v", err)
	}
	return path
}

func TestCLIGeneratorReadsBackWrittenFile(t *testing.T) {
	cli := writeModelCLI(t, `cat > login.cy.js <<'EOF'
describe("login", () => {
  it("works", () => {});
});
EOF
echo "wrote the test"
`)
	gen := &CLIGenerator{Executable: cli, Model: "test-model", MaxTurns: 3}

	source, err := gen.Generate(context.Background(), Request{
		FlowDescription: "Log in with valid credentials.",
		TestType:        "e2e",
		FileName:        "login.cy.js",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(source, `describe("login"`) {
		t.Fatalf("source=%q", source)
	}
	if !strings.HasSuffix(source, "\n") {
		t.Fatal("source must end with a newline")
	}
}

func TestCLIGeneratorPassesFlags(t *testing.T) {
	// The scratch dir is removed after the call, so the CLI echoes its
	// arguments back through the output file itself.
	echoCLI := writeModelCLI(t, `{
  printf '// args: %s\n' "$*"
} > echo.cy.js
`)
	gen := &CLIGenerator{Executable: echoCLI, MaxTurns: 7}
	source, err := gen.Generate(context.Background(), Request{
		FlowDescription: "A flow about checkout.",
		AppDetails:      "Application: shop",
		FileName:        "echo.cy.js",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, want := range []string{
		"--max-turns 7",
		"--dangerously-skip-permissions",
		"A flow about checkout.",
		"Application: shop",
		"echo.cy.js",
	} {
		if !strings.Contains(source, want) {
			t.Errorf("argv missing %q:\n%s", want, source)
		}
	}
}

func TestCLIGeneratorMissingOutputFile(t *testing.T) {
	cli := writeModelCLI(t, `echo "I did nothing"
exit 0
`)
	gen := &CLIGenerator{Executable: cli}

	_, err := gen.Generate(context.Background(), Request{
		FlowDescription: "flow",
		FileName:        "never.cy.js",
	})
	if err == nil || !strings.Contains(err.Error(), "did not write") {
		t.Fatalf("err=%v", err)
	}
}

func TestCLIGeneratorProcessFailure(t *testing.T) {
	cli := writeModelCLI(t, `echo "model exploded" >&2
exit 3
`)
	gen := &CLIGenerator{Executable: cli}

	_, err := gen.Generate(context.Background(), Request{
		FlowDescription: "flow",
		FileName:        "x.cy.js",
	})
	if err == nil || !strings.Contains(err.Error(), "model exploded") {
		t.Fatalf("err=%v", err)
	}
}

func TestCLIGeneratorValidation(t *testing.T) {
	gen := &CLIGenerator{Executable: "/bin/true"}
	if _, err := gen.Generate(context.Background(), Request{FileName: "x.cy.js"}); err == nil {
		t.Fatal("expected error for missing flow description")
	}
	if _, err := gen.Generate(context.Background(), Request{FlowDescription: "f"}); err == nil {
		t.Fatal("expected error for missing file name")
	}
}

func TestStaticGeneratorCannedSource(t *testing.T) {
	gen := &StaticGenerator{}
	source, err := gen.Generate(context.Background(), Request{
		FlowDescription: "Visit the home page.",
		FileName:        "home.cy.js",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(source, `describe("Visit the home page."`) {
		t.Fatalf("source=%q", source)
	}
}

func TestStaticGeneratorFixedSource(t *testing.T) {
	gen := &StaticGenerator{Source: "// fixed"}
	source, err := gen.Generate(context.Background(), Request{
		FlowDescription: "anything",
		FileName:        "a.cy.js",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if source != "// fixed" {
		t.Fatalf("source=%q", source)
	}
}
