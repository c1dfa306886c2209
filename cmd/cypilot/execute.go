package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/vsavkov/cypilot/internal/executor"
)

func executeCmd(ctx context.Context, args []string) {
	var configPath string
	var root string
	var fileName string
	var sourcePath string
	var asJSON bool

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--root":
			root = flagValue(args, &i)
		case "--file":
			fileName = flagValue(args, &i)
		case "--source":
			sourcePath = flagValue(args, &i)
		case "--config":
			configPath = flagValue(args, &i)
		case "--json":
			asJSON = true
		default:
			fmt.Fprintf(os.Stderr, "unknown arg: %s\n", args[i])
			os.Exit(2)
		}
	}
	if root == "" || fileName == "" || sourcePath == "" {
		usage()
		os.Exit(2)
	}

	source, err := readSource(sourcePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg := loadConfig(configPath)
	exec, err := executor.New(cfg.ExecutorConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	res := exec.Execute(ctx, executor.ExecutionRequest{
		Source:      source,
		ProjectRoot: root,
		FileName:    fileName,
	})

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	} else {
		fmt.Printf("status=%s\n", res.Status)
		fmt.Printf("spec=%s\n", res.SpecPath)
		fmt.Println(res.Message)
		if res.RunSummary != "" {
			fmt.Println(res.RunSummary)
		}
	}
	os.Exit(exitCodeForStatus(res.Status))
}

// readSource reads test source from a file, or from stdin when path is "-".
func readSource(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
