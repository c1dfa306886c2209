package main

import (
	"context"
	"fmt"
	"os"

	"github.com/vsavkov/cypilot/internal/generate"
	"github.com/vsavkov/cypilot/internal/repo"
)

func generateCmd(ctx context.Context, args []string) {
	var configPath string
	var root string
	var flow string
	var testType string
	var fileName string
	var offline bool

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--flow":
			flow = flagValue(args, &i)
		case "--root":
			root = flagValue(args, &i)
		case "--test-type":
			testType = flagValue(args, &i)
		case "--file":
			fileName = flagValue(args, &i)
		case "--config":
			configPath = flagValue(args, &i)
		case "--offline":
			offline = true
		default:
			fmt.Fprintf(os.Stderr, "unknown arg: %s\n", args[i])
			os.Exit(2)
		}
	}
	if flow == "" {
		usage()
		os.Exit(2)
	}
	if testType == "" {
		testType = "e2e"
	}
	if fileName == "" {
		fileName = "generated.cy.js"
	}

	cfg := loadConfig(configPath)
	if offline {
		cfg.Generate.Offline = true
	}

	var appDetails string
	if root != "" {
		sum, err := repo.Summarize(root, cfg.Summary.MaxItems)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		appDetails = sum.Text()
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

	source, err := gen.Generate(ctx, generate.Request{
		FlowDescription: flow,
		TestType:        testType,
		AppDetails:      appDetails,
		FileName:        fileName,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	fmt.Print(source)
}
