package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vsavkov/cypilot/internal/executor"
	"github.com/vsavkov/cypilot/internal/repo"
)

type RunnerConfig struct {
	Command          []string          `yaml:"command,omitempty"`
	BaseArgs         []string          `yaml:"base_args,omitempty"`
	SuiteDir         string            `yaml:"suite_dir,omitempty"`
	Engines          []string          `yaml:"engines,omitempty"`
	EnvOverrides     map[string]string `yaml:"env_overrides,omitempty"`
	AttemptTimeoutMS int               `yaml:"attempt_timeout_ms,omitempty"`
	KillGraceMS      int               `yaml:"kill_grace_ms,omitempty"`
	TranscriptCap    int               `yaml:"transcript_cap,omitempty"`
}

type GenerateConfig struct {
	Executable string `yaml:"executable,omitempty"`
	Model      string `yaml:"model,omitempty"`
	MaxTurns   int    `yaml:"max_turns,omitempty"`
	// Offline switches to the canned generator; no model CLI is invoked.
	Offline bool `yaml:"offline,omitempty"`
}

type SummaryConfig struct {
	MaxItems int `yaml:"max_items,omitempty"`
}

// Config is the versioned file configuration for a pipeline run.
type Config struct {
	Version int `yaml:"version"`
	// LogsRoot, when set, receives a per-run directory holding the run
	// report.
	LogsRoot string         `yaml:"logs_root,omitempty"`
	Runner   RunnerConfig   `yaml:"runner,omitempty"`
	Generate GenerateConfig `yaml:"generate,omitempty"`
	Summary  SummaryConfig  `yaml:"summary,omitempty"`
}

// Load reads, strictly decodes, defaults, and validates a config file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := decodeYAMLStrict(b, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func decodeYAMLStrict(b []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return err
	}
	var trailing any
	if err := dec.Decode(&trailing); err != io.EOF {
		if err == nil {
			return fmt.Errorf("yaml: multiple documents are not allowed")
		}
		return err
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	def := executor.DefaultConfig()
	if len(cfg.Runner.Command) == 0 {
		cfg.Runner.Command = def.Command
	}
	if cfg.Runner.BaseArgs == nil {
		cfg.Runner.BaseArgs = def.BaseArgs
	}
	if strings.TrimSpace(cfg.Runner.SuiteDir) == "" {
		cfg.Runner.SuiteDir = def.SuiteDir
	}
	if len(cfg.Runner.Engines) == 0 {
		cfg.Runner.Engines = def.Engines
	}
	if cfg.Runner.EnvOverrides == nil {
		cfg.Runner.EnvOverrides = def.EnvOverrides
	}
	if cfg.Runner.KillGraceMS == 0 {
		cfg.Runner.KillGraceMS = int(def.KillGrace / time.Millisecond)
	}
	if cfg.Runner.TranscriptCap == 0 {
		cfg.Runner.TranscriptCap = executor.DefaultTranscriptCap
	}
	if cfg.Generate.MaxTurns == 0 {
		cfg.Generate.MaxTurns = 10
	}
	if cfg.Summary.MaxItems == 0 {
		cfg.Summary.MaxItems = repo.DefaultMaxItems
	}
}

func validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version: %d", cfg.Version)
	}
	if len(cfg.Runner.Command) == 0 {
		return fmt.Errorf("runner.command is required")
	}
	for i, engine := range cfg.Runner.Engines {
		if strings.TrimSpace(engine) == "" {
			return fmt.Errorf("runner.engines[%d] is empty", i)
		}
	}
	if cfg.Runner.AttemptTimeoutMS < 0 {
		return fmt.Errorf("runner.attempt_timeout_ms must be >= 0")
	}
	if cfg.Runner.KillGraceMS < 0 {
		return fmt.Errorf("runner.kill_grace_ms must be >= 0")
	}
	if cfg.Runner.TranscriptCap < 0 {
		return fmt.Errorf("runner.transcript_cap must be >= 0")
	}
	if cfg.Generate.MaxTurns < 0 {
		return fmt.Errorf("generate.max_turns must be >= 0")
	}
	if cfg.Summary.MaxItems < 0 {
		return fmt.Errorf("summary.max_items must be >= 0")
	}
	return nil
}

// ExecutorConfig translates the file configuration into the executor's
// runtime config.
func (c *Config) ExecutorConfig() executor.Config {
	return executor.Config{
		Command:        c.Runner.Command,
		BaseArgs:       c.Runner.BaseArgs,
		SuiteDir:       c.Runner.SuiteDir,
		Engines:        c.Runner.Engines,
		EnvOverrides:   c.Runner.EnvOverrides,
		AttemptTimeout: time.Duration(c.Runner.AttemptTimeoutMS) * time.Millisecond,
		KillGrace:      time.Duration(c.Runner.KillGraceMS) * time.Millisecond,
		TranscriptCap:  c.Runner.TranscriptCap,
	}
}
