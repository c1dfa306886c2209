package executor

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTranscriptCap bounds the cumulative diagnostic transcript attached
// to an ExecutionResult.
const DefaultTranscriptCap = 2500

// Config controls how attempts are spawned and classified. Zero values are
// filled in by Normalize; a zero AttemptTimeout means no per-attempt bound.
type Config struct {
	// Command is the runner invocation prefix, e.g. ["npx", "cypress"].
	Command []string
	// BaseArgs sit between Command and the per-attempt flags.
	BaseArgs []string
	// SuiteDir is the project-relative directory the generated spec is
	// materialized into and resolved against.
	SuiteDir string
	// Engines is the fallback priority order; first listed is tried first.
	Engines []string
	// EnvOverrides are applied to the child's environment only. The host
	// process environment is never mutated.
	EnvOverrides map[string]string

	AttemptTimeout time.Duration
	KillGrace      time.Duration

	TranscriptCap int
	Signatures    SignatureSet
}

func DefaultConfig() Config {
	return Config{
		Command:  []string{"npx", "cypress"},
		BaseArgs: []string{"run"},
		SuiteDir: "cypress/e2e",
		Engines:  []string{"electron", "chrome"},
		EnvOverrides: map[string]string{
			// Suppress graphical-display requirements and crash reporting in
			// the child only.
			"DISPLAY":                            "",
			"CYPRESS_CRASH_REPORTS":              "0",
			"CYPRESS_COMMERCIAL_RECOMMENDATIONS": "0",
			"NO_COLOR":                           "1",
		},
		KillGrace:     2 * time.Second,
		TranscriptCap: DefaultTranscriptCap,
		Signatures:    DefaultSignatures(),
	}
}

// Normalize fills unset fields from DefaultConfig and validates the rest.
func (c Config) Normalize() (Config, error) {
	def := DefaultConfig()
	if len(c.Command) == 0 {
		c.Command = def.Command
	}
	if c.BaseArgs == nil {
		c.BaseArgs = def.BaseArgs
	}
	if strings.TrimSpace(c.SuiteDir) == "" {
		c.SuiteDir = def.SuiteDir
	}
	if len(c.Engines) == 0 {
		c.Engines = def.Engines
	}
	if c.EnvOverrides == nil {
		c.EnvOverrides = def.EnvOverrides
	}
	if c.KillGrace <= 0 {
		c.KillGrace = def.KillGrace
	}
	if c.TranscriptCap <= 0 {
		c.TranscriptCap = def.TranscriptCap
	}
	if c.Signatures.PassPattern == nil && c.Signatures.FailPattern == nil &&
		len(c.Signatures.PassPhrases) == 0 && len(c.Signatures.Defects) == 0 {
		c.Signatures = def.Signatures
	}
	for i, engine := range c.Engines {
		if strings.TrimSpace(engine) == "" {
			return Config{}, fmt.Errorf("engines[%d] is empty", i)
		}
	}
	if c.AttemptTimeout < 0 {
		return Config{}, fmt.Errorf("attempt timeout must be >= 0")
	}
	return c, nil
}
