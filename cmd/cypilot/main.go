package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vsavkov/cypilot/internal/executor"
	"github.com/vsavkov/cypilot/internal/pipeline"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "run":
		runCmd(ctx, os.Args[2:])
	case "execute":
		executeCmd(ctx, os.Args[2:])
	case "summarize":
		summarizeCmd(ctx, os.Args[2:])
	case "generate":
		generateCmd(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  cypilot run (--repo <url> | --root <dir>) [--config <file.yaml>] [--flows <flows.yaml>] [--flow <description>] [--test-type <e2e|component|smoke>] [--file <name.cy.js>] [--logs-root <dir>] [--offline] [--keep-clone] [--json]")
	fmt.Fprintln(os.Stderr, "  cypilot execute --root <dir> --file <name.cy.js> (--source <file>|-) [--config <file.yaml>] [--json]")
	fmt.Fprintln(os.Stderr, "  cypilot summarize (--repo <url> | --root <dir>) [--config <file.yaml>]")
	fmt.Fprintln(os.Stderr, "  cypilot generate --flow <description> [--root <dir>] [--test-type <type>] [--file <name.cy.js>] [--config <file.yaml>] [--offline]")
}

func loadConfig(path string) *pipeline.Config {
	if path == "" {
		return pipeline.Default()
	}
	cfg, err := pipeline.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return cfg
}

func flagValue(args []string, i *int) string {
	*i++
	if *i >= len(args) {
		fmt.Fprintf(os.Stderr, "%s requires a value\n", args[*i-1])
		os.Exit(2)
	}
	return args[*i]
}

// exitCodeForStatus maps the terminal status onto the process exit code.
func exitCodeForStatus(status executor.Status) int {
	switch status {
	case executor.StatusCompletedSuccessfully:
		return 0
	case executor.StatusCompletedWithFailures:
		return 1
	case executor.StatusErrorRunning:
		return 2
	case executor.StatusErrorSavingFile:
		return 3
	case executor.StatusCanceled:
		return 130
	default:
		return 2
	}
}
