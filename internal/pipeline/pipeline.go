// Package pipeline composes the full run: obtain a project checkout,
// summarize its structure, determine the flows to cover, generate a test
// per flow, and hand each generated test to the executor.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/vsavkov/cypilot/internal/executor"
	"github.com/vsavkov/cypilot/internal/flows"
	"github.com/vsavkov/cypilot/internal/generate"
	"github.com/vsavkov/cypilot/internal/repo"
)

// RunRequest selects the target project and the flows to cover. Exactly one
// of RepoURL and ProjectRoot must be set.
type RunRequest struct {
	RepoURL     string
	ProjectRoot string
	// FlowsFile, when set, is a YAML flows file; otherwise flows are
	// inferred from the project summary.
	FlowsFile string
	// Flow, when set, overrides the flows file and inference with a single
	// ad-hoc flow description.
	Flow     string
	TestType string
	// FileName forces the artifact name for a single-flow run.
	FileName string
	// KeepClone leaves the scratch checkout on disk after the run.
	KeepClone bool
}

func (r RunRequest) validate() error {
	hasURL := strings.TrimSpace(r.RepoURL) != ""
	hasRoot := strings.TrimSpace(r.ProjectRoot) != ""
	if hasURL == hasRoot {
		return fmt.Errorf("exactly one of repository URL and project root must be given")
	}
	if r.FileName != "" && r.Flow == "" {
		return fmt.Errorf("a forced file name requires a single ad-hoc flow")
	}
	return nil
}

// FlowResult pairs a flow with the outcome of executing its generated test.
type FlowResult struct {
	Flow     flows.Flow                `json:"flow"`
	FileName string                    `json:"file_name"`
	GenErr   string                    `json:"generate_error,omitempty"`
	Result   *executor.ExecutionResult `json:"result,omitempty"`
}

// RunReport is the full record of one pipeline run.
type RunReport struct {
	RunID       string        `json:"run_id"`
	ProjectRoot string        `json:"project_root"`
	HeadSHA     string        `json:"head_sha,omitempty"`
	Started     time.Time     `json:"started"`
	Duration    time.Duration `json:"duration"`
	LogDir      string        `json:"log_dir,omitempty"`
	Flows       []FlowResult  `json:"flows"`
}

// Pipeline wires the stages together behind one Run call.
type Pipeline struct {
	cfg *Config
	gen generate.Generator
}

// New builds a pipeline from file configuration. The generator is chosen by
// generate.offline: the canned generator when set, the model CLI otherwise.
func New(cfg *Config) *Pipeline {
	if cfg == nil {
		cfg = Default()
	}
	var gen generate.Generator
	if cfg.Generate.Offline {
		gen = &generate.StaticGenerator{}
	} else {
		gen = &generate.CLIGenerator{
			Executable: cfg.Generate.Executable,
			Model:      cfg.Generate.Model,
			MaxTurns:   cfg.Generate.MaxTurns,
		}
	}
	return &Pipeline{cfg: cfg, gen: gen}
}

// WithGenerator replaces the generator; used by tests.
func (p *Pipeline) WithGenerator(gen generate.Generator) *Pipeline {
	p.gen = gen
	return p
}

// Run executes the whole pipeline and returns the per-flow report. Stage
// failures on one flow do not stop the remaining flows; resolution failures
// before any flow runs do.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (*RunReport, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	report := &RunReport{
		RunID:   strings.ToLower(ulid.Make().String()),
		Started: time.Now().UTC(),
	}

	root := req.ProjectRoot
	if req.RepoURL != "" {
		dir, _, err := repo.Clone(ctx, req.RepoURL)
		if err != nil {
			return nil, err
		}
		if !req.KeepClone {
			defer os.RemoveAll(dir)
		}
		root = dir
	}
	report.ProjectRoot = root
	if sha, err := repo.HeadSHA(ctx, root); err == nil {
		report.HeadSHA = sha
	}

	sum, err := repo.Summarize(root, p.cfg.Summary.MaxItems)
	if err != nil {
		return nil, fmt.Errorf("summarize %s: %w", root, err)
	}

	flowList, err := p.resolveFlows(req, sum)
	if err != nil {
		return nil, err
	}

	exec, err := executor.New(p.cfg.ExecutorConfig())
	if err != nil {
		return nil, err
	}

	for _, fl := range flowList {
		fr := FlowResult{Flow: fl, FileName: req.FileName}
		if fr.FileName == "" {
			fr.FileName = specFileName(fl.Name)
		}
		source, err := p.gen.Generate(ctx, generate.Request{
			FlowDescription: fl.Description,
			TestType:        fl.TestType,
			AppDetails:      sum.Text(),
			FileName:        fr.FileName,
		})
		if err != nil {
			fr.GenErr = err.Error()
			report.Flows = append(report.Flows, fr)
			continue
		}
		res := exec.Execute(ctx, executor.ExecutionRequest{
			Source:      source,
			ProjectRoot: root,
			FileName:    fr.FileName,
		})
		fr.Result = &res
		report.Flows = append(report.Flows, fr)
		if ctx.Err() != nil {
			break
		}
	}

	report.Duration = time.Since(report.Started)
	if p.cfg.LogsRoot != "" {
		if err := writeRunReport(p.cfg.LogsRoot, report); err != nil {
			return report, fmt.Errorf("write run report: %w", err)
		}
	}
	return report, nil
}

// writeRunReport persists the report under <logsRoot>/<runID>/report.json.
func writeRunReport(logsRoot string, report *RunReport) error {
	dir := filepath.Join(logsRoot, report.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	report.LogDir = dir
	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "report.json"), append(b, '\n'), 0o644)
}

func (p *Pipeline) resolveFlows(req RunRequest, sum *repo.Summary) ([]flows.Flow, error) {
	if strings.TrimSpace(req.Flow) != "" {
		testType := req.TestType
		if testType == "" {
			testType = "e2e"
		}
		return []flows.Flow{{
			Name:        flowSlug(req.Flow),
			Description: req.Flow,
			TestType:    testType,
		}}, nil
	}
	if req.FlowsFile != "" {
		return flows.LoadFile(req.FlowsFile)
	}
	return flows.Infer(sum), nil
}

// specFileName derives the on-disk artifact name from a flow name.
func specFileName(flowName string) string {
	return flowSlug(flowName) + ".cy.js"
}

func flowSlug(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "flow"
	}
	if len(out) > 48 {
		out = strings.Trim(out[:48], "-")
	}
	return out
}
