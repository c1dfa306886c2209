package executor

import (
	"sort"
	"strings"
)

// mergeEnvWithOverrides builds a child environment from a base env slice and
// an override map. Overridden keys are replaced in place; new keys are
// appended in sorted order for deterministic argv recording.
func mergeEnvWithOverrides(base []string, overrides map[string]string) []string {
	out := make([]string, 0, len(base)+len(overrides))
	used := map[string]bool{}
	for _, entry := range base {
		key := entry
		if idx := strings.IndexByte(entry, '='); idx >= 0 {
			key = entry[:idx]
		}
		if v, ok := overrides[key]; ok {
			out = append(out, key+"="+v)
			used[key] = true
			continue
		}
		out = append(out, entry)
	}
	remaining := make([]string, 0, len(overrides))
	for k := range overrides {
		if used[k] {
			continue
		}
		remaining = append(remaining, k)
	}
	sort.Strings(remaining)
	for _, k := range remaining {
		out = append(out, k+"="+overrides[k])
	}
	return out
}
