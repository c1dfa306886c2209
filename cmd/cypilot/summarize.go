package main

import (
	"context"
	"fmt"
	"os"

	"github.com/vsavkov/cypilot/internal/flows"
	"github.com/vsavkov/cypilot/internal/repo"
)

func summarizeCmd(ctx context.Context, args []string) {
	var configPath string
	var repoURL string
	var root string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--repo":
			repoURL = flagValue(args, &i)
		case "--root":
			root = flagValue(args, &i)
		case "--config":
			configPath = flagValue(args, &i)
		default:
			fmt.Fprintf(os.Stderr, "unknown arg: %s\n", args[i])
			os.Exit(2)
		}
	}
	if (repoURL == "") == (root == "") {
		usage()
		os.Exit(2)
	}

	cfg := loadConfig(configPath)

	if repoURL != "" {
		dir, _, err := repo.Clone(ctx, repoURL)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		defer os.RemoveAll(dir)
		root = dir
	}

	sum, err := repo.Summarize(root, cfg.Summary.MaxItems)
	if err != nil {
		// defers do not run through os.Exit; clean the clone up first
		if repoURL != "" {
			os.RemoveAll(root)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	fmt.Print(sum.Text())

	fmt.Println("inferred flows:")
	for _, fl := range flows.Infer(sum) {
		fmt.Printf("  %s (%s): %s\n", fl.Name, fl.TestType, fl.Description)
	}
}
