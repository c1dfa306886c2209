package generate

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed generate_prompt.tmpl
var generatePromptTmpl string

var generatePrompt = template.Must(template.New("generate").Parse(generatePromptTmpl))

// CLIGenerator invokes a generative-model CLI that writes the test file into
// a scratch working directory, which is read back after the process exits.
type CLIGenerator struct {
	// Executable defaults to "claude" (or $CYPILOT_MODEL_CLI).
	Executable string
	Model      string
	MaxTurns   int
}

func (g *CLIGenerator) executable() string {
	if s := strings.TrimSpace(g.Executable); s != "" {
		return s
	}
	return envOr("CYPILOT_MODEL_CLI", "claude")
}

func buildPrompt(req Request) string {
	testType := strings.TrimSpace(req.TestType)
	if testType == "" {
		testType = "e2e"
	}
	var buf bytes.Buffer
	_ = generatePrompt.Execute(&buf, struct {
		TestType        string
		FlowDescription string
		AppDetails      string
		FileName        string
	}{testType, req.FlowDescription, req.AppDetails, req.FileName})
	return buf.String()
}

// Generate runs the model CLI once and returns the generated source. The
// scratch directory is removed before returning.
func (g *CLIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	tmpDir, err := os.MkdirTemp("", "cypilot-generate-*")
	if err != nil {
		return "", fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	maxTurns := g.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 10
	}
	args := []string{
		"--max-turns", fmt.Sprintf("%d", maxTurns),
		"--dangerously-skip-permissions",
	}
	if strings.TrimSpace(g.Model) != "" {
		args = append(args, "--model", g.Model)
	}
	// The prompt is appended last as a positional argument.
	args = append(args, buildPrompt(req))

	cmd := exec.CommandContext(ctx, g.executable(), args...)
	cmd.Dir = tmpDir
	cmd.Stdin = strings.NewReader("")
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("model CLI exited with error: %v: %s", err, firstLines(output.String(), 5))
	}

	outPath := filepath.Join(tmpDir, req.FileName)
	b, err := os.ReadFile(outPath)
	if err != nil {
		return "", fmt.Errorf("model CLI did not write %s: %w", req.FileName, err)
	}
	source := strings.TrimSpace(string(b))
	if source == "" {
		return "", fmt.Errorf("%s is empty", req.FileName)
	}
	return source + "\n", nil
}

func firstLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
