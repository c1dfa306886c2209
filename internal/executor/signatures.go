package executor

import (
	"regexp"
	"strings"
)

// DefectSignature describes how one environment defect shows up in the
// runner's error stream. Needles are matched case-insensitively; any single
// needle is sufficient. Dependency names the missing piece for messages.
type DefectSignature struct {
	Kind       DefectKind
	Needles    []string
	Dependency string
}

// SignatureSet holds the heuristic patterns used to classify runner output.
// The runner has no structured machine-readable success signal, so these are
// a fuzzy but necessary contract; keeping them as data lets the matching
// rules grow without touching the attempt control flow.
type SignatureSet struct {
	PassPhrases []string
	PassPattern *regexp.Regexp
	FailPattern *regexp.Regexp
	Defects     []DefectSignature
}

func DefaultSignatures() SignatureSet {
	return SignatureSet{
		PassPhrases: []string{
			"all specs passed",
			"no specs found",
		},
		PassPattern: regexp.MustCompile(`\(\d+ passing\)`),
		FailPattern: regexp.MustCompile(`\(\d+ failing\)`),
		Defects: []DefectSignature{
			{
				Kind:       DefectDisplayMissing,
				Dependency: "Xvfb",
				Needles: []string{
					"missing the dependency: xvfb",
					"xvfb",
				},
			},
			{
				Kind:       DefectSharedLibraryMissing,
				Dependency: "a shared library",
				Needles: []string{
					"error while loading shared libraries",
					"libgbm.so",
					"libasound.so",
					"libnss3.so",
				},
			},
		},
	}
}

// MatchDefect scans error-stream text for a known environment-defect
// signature. First matching signature wins, in declaration order.
func (s SignatureSet) MatchDefect(stderr string) (DefectSignature, bool) {
	lower := strings.ToLower(stderr)
	for _, sig := range s.Defects {
		for _, needle := range sig.Needles {
			if needle == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(needle)) {
				return sig, true
			}
		}
	}
	return DefectSignature{}, false
}

// PassIndicator reports whether output-stream text carries a recognized
// "the run completed and passed" signal.
func (s SignatureSet) PassIndicator(stdout string) bool {
	lower := strings.ToLower(stdout)
	for _, phrase := range s.PassPhrases {
		if phrase != "" && strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return s.PassPattern != nil && s.PassPattern.MatchString(stdout)
}

// FailIndicator reports whether output-stream text carries an explicit
// failing-test count.
func (s SignatureSet) FailIndicator(stdout string) bool {
	return s.FailPattern != nil && s.FailPattern.MatchString(stdout)
}

// summaryExcerpt pulls the count lines out of runner output for the public
// result. Returns at most three lines.
func (s SignatureSet) summaryExcerpt(stdout string) string {
	var lines []string
	for _, line := range strings.Split(stdout, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		matched := false
		for _, phrase := range s.PassPhrases {
			if phrase != "" && strings.Contains(lower, strings.ToLower(phrase)) {
				matched = true
				break
			}
		}
		if !matched && s.PassPattern != nil && s.PassPattern.MatchString(trimmed) {
			matched = true
		}
		if !matched && s.FailPattern != nil && s.FailPattern.MatchString(trimmed) {
			matched = true
		}
		if matched {
			lines = append(lines, trimmed)
			if len(lines) == 3 {
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}
