package executor

import (
	"context"
	"fmt"
	"strings"
)

// runSequence drives the fallback order: one attempt per engine, in declared
// priority, advancing only on an environment-defect outcome. Any other
// outcome is terminal for the sequence — a failing test or a broken
// invocation is not assumed to be engine-specific. At most len(engines)
// attempts are ever made.
func runSequence(ctx context.Context, cfg Config, projectRoot, specRel string) []AttemptRecord {
	records := make([]AttemptRecord, 0, len(cfg.Engines))
	for i, engine := range cfg.Engines {
		rec := runAttempt(ctx, cfg, projectRoot, specRel, engine)
		records = append(records, rec)
		if rec.Outcome.Kind != OutcomeEnvironmentDefect {
			break
		}
		if i == len(cfg.Engines)-1 {
			break
		}
	}
	return records
}

// mergeTranscript concatenates every attempt fragment in sequence order,
// inserting a marker before each fallback attempt naming the defect that
// triggered it.
func mergeTranscript(records []AttemptRecord) string {
	var b strings.Builder
	for i, rec := range records {
		if i > 0 {
			prev := records[i-1]
			fmt.Fprintf(&b, ">>> falling back to %s after %s on %s: %s\n",
				rec.Engine, prev.Outcome.Defect, prev.Engine, prev.Outcome.Reason)
		}
		b.WriteString(rec.Fragment)
		if !strings.HasSuffix(rec.Fragment, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}
