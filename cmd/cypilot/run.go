package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/vsavkov/cypilot/internal/pipeline"
)

func runCmd(ctx context.Context, args []string) {
	var configPath string
	var logsRoot string
	var req pipeline.RunRequest
	var offline bool
	var asJSON bool

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--repo":
			req.RepoURL = flagValue(args, &i)
		case "--root":
			req.ProjectRoot = flagValue(args, &i)
		case "--config":
			configPath = flagValue(args, &i)
		case "--flows":
			req.FlowsFile = flagValue(args, &i)
		case "--flow":
			req.Flow = flagValue(args, &i)
		case "--test-type":
			req.TestType = flagValue(args, &i)
		case "--file":
			req.FileName = flagValue(args, &i)
		case "--logs-root":
			logsRoot = flagValue(args, &i)
		case "--offline":
			offline = true
		case "--keep-clone":
			req.KeepClone = true
		case "--json":
			asJSON = true
		default:
			fmt.Fprintf(os.Stderr, "unknown arg: %s\n", args[i])
			os.Exit(2)
		}
	}

	cfg := loadConfig(configPath)
	if offline {
		cfg.Generate.Offline = true
	}
	if logsRoot != "" {
		cfg.LogsRoot = logsRoot
	}

	report, err := pipeline.New(cfg).Run(ctx, req)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	} else {
		printReport(report)
	}
	os.Exit(reportExitCode(report))
}

func printReport(report *pipeline.RunReport) {
	fmt.Printf("run_id=%s\n", report.RunID)
	fmt.Printf("project_root=%s\n", report.ProjectRoot)
	if report.HeadSHA != "" {
		fmt.Printf("head=%s\n", report.HeadSHA)
	}
	if report.LogDir != "" {
		fmt.Printf("log_dir=%s\n", report.LogDir)
	}
	for _, fr := range report.Flows {
		if fr.GenErr != "" {
			fmt.Printf("flow=%s file=%s generate_error=%q\n", fr.Flow.Name, fr.FileName, fr.GenErr)
			continue
		}
		fmt.Printf("flow=%s file=%s status=%s\n", fr.Flow.Name, fr.FileName, fr.Result.Status)
		fmt.Printf("  %s\n", fr.Result.Message)
	}
}

// reportExitCode collapses per-flow statuses into one code: the worst
// status across flows wins, and a generation error counts as error_running.
func reportExitCode(report *pipeline.RunReport) int {
	code := 0
	for _, fr := range report.Flows {
		c := 2
		if fr.GenErr == "" && fr.Result != nil {
			c = exitCodeForStatus(fr.Result.Status)
		}
		if c > code {
			code = c
		}
	}
	return code
}
