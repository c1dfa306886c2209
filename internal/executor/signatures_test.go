package executor

import (
	"strings"
	"testing"
)

func TestMatchDefect(t *testing.T) {
	sigs := DefaultSignatures()

	cases := []struct {
		name   string
		stderr string
		want   DefectKind
		hit    bool
	}{
		{"xvfb full phrase", "Your system is missing the dependency: Xvfb", DefectDisplayMissing, true},
		{"xvfb bare", "spawn Xvfb ENOENT", DefectDisplayMissing, true},
		{"shared library", "error while loading shared libraries: libgbm.so.1", DefectSharedLibraryMissing, true},
		{"libasound", "Cypress: cannot open libasound.so.2", DefectSharedLibraryMissing, true},
		{"case insensitive", "ERROR WHILE LOADING SHARED LIBRARIES", DefectSharedLibraryMissing, true},
		{"ordinary failure text", "AssertionError: expected true to equal false", "", false},
		{"empty", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sig, ok := sigs.MatchDefect(tc.stderr)
			if ok != tc.hit {
				t.Fatalf("MatchDefect(%q) hit=%v, want %v", tc.stderr, ok, tc.hit)
			}
			if ok && sig.Kind != tc.want {
				t.Fatalf("MatchDefect(%q) kind=%s, want %s", tc.stderr, sig.Kind, tc.want)
			}
		})
	}
}

func TestMatchDefectDeclarationOrder(t *testing.T) {
	// Text matching both signature families resolves to the first declared.
	sigs := DefaultSignatures()
	sig, ok := sigs.MatchDefect("Xvfb failed: error while loading shared libraries")
	if !ok {
		t.Fatal("expected a defect match")
	}
	if sig.Kind != DefectDisplayMissing {
		t.Fatalf("kind=%s, want %s", sig.Kind, DefectDisplayMissing)
	}
}

func TestPassIndicator(t *testing.T) {
	sigs := DefaultSignatures()

	cases := []struct {
		stdout string
		want   bool
	}{
		{"All specs passed!  00:12  3  3  -  -  -", true},
		{"✔  All specs passed!", true},
		{"  (3 passing)", true},
		{"(14 passing)", true},
		{"no specs found", true},
		{"(2 failing)", false},
		{"Run finished", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := sigs.PassIndicator(tc.stdout); got != tc.want {
			t.Errorf("PassIndicator(%q)=%v, want %v", tc.stdout, got, tc.want)
		}
	}
}

func TestFailIndicator(t *testing.T) {
	sigs := DefaultSignatures()
	if !sigs.FailIndicator("Tests: 3, (2 failing)") {
		t.Error("expected failing count to match")
	}
	if sigs.FailIndicator("(3 passing)") {
		t.Error("passing count must not match the fail pattern")
	}
}

func TestSummaryExcerpt(t *testing.T) {
	sigs := DefaultSignatures()
	stdout := strings.Join([]string{
		"====",
		"  Running: login.cy.js",
		"  (3 passing)",
		"  (1 failing)",
		"noise line",
		"All specs passed!",
		"  (9 passing)",
	}, "\n")

	got := sigs.summaryExcerpt(stdout)
	want := "(3 passing)\n(1 failing)\nAll specs passed!"
	if got != want {
		t.Fatalf("summaryExcerpt=%q, want %q", got, want)
	}
}
