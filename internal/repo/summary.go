package repo

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxItems caps how many entries each summary section lists.
const DefaultMaxItems = 40

// conventionalDirs is the fixed list of directories the summarizer inspects.
var conventionalDirs = []string{
	"src",
	"src/components",
	"src/pages",
	"pages",
	"app",
	"public",
	"cypress/e2e",
}

var globPatterns = map[string][]string{
	"components": {"src/components/**/*.{js,jsx,ts,tsx,vue,svelte}"},
	"pages": {
		"src/pages/**/*.{js,jsx,ts,tsx,vue,svelte}",
		"pages/**/*.{js,jsx,ts,tsx,vue,svelte}",
		"app/**/*.{js,jsx,ts,tsx,vue,svelte}",
	},
	"specs": {"cypress/e2e/**/*.cy.{js,jsx,ts,tsx}"},
}

// Section lists the (capped) contents of one conventional directory.
type Section struct {
	Dir       string
	Entries   []string
	Truncated bool
}

// Summary is a bounded structural description of a cloned repository, used
// as generation context and for flow inference.
type Summary struct {
	Name    string
	Scripts []string

	Sections []Section

	ComponentCount int
	PageCount      int
	SpecCount      int

	HasCypressConfig bool
}

// Summarize inspects the conventional directory layout plus the package
// manifest. It fails only when the root itself cannot be listed; absent
// conventional directories are simply skipped.
func Summarize(root string, maxItems int) (*Summary, error) {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if _, err := os.ReadDir(root); err != nil {
		return nil, fmt.Errorf("list project root: %w", err)
	}

	sum := &Summary{}
	readManifest(root, sum)

	for _, dir := range conventionalDirs {
		section, ok := listSection(root, dir, maxItems)
		if ok {
			sum.Sections = append(sum.Sections, section)
		}
	}

	fsys := os.DirFS(root)
	sum.ComponentCount = countMatches(fsys, globPatterns["components"])
	sum.PageCount = countMatches(fsys, globPatterns["pages"])
	sum.SpecCount = countMatches(fsys, globPatterns["specs"])

	for _, name := range []string{"cypress.config.js", "cypress.config.ts", "cypress.json"} {
		if _, err := os.Stat(filepath.Join(root, name)); err == nil {
			sum.HasCypressConfig = true
			break
		}
	}
	return sum, nil
}

// Text renders the summary for inclusion in a generation prompt.
func (s *Summary) Text() string {
	var b strings.Builder
	if s.Name != "" {
		fmt.Fprintf(&b, "Application: %s\n", s.Name)
	}
	if len(s.Scripts) > 0 {
		fmt.Fprintf(&b, "Package scripts: %s\n", strings.Join(s.Scripts, ", "))
	}
	fmt.Fprintf(&b, "Components: %d, pages: %d, existing specs: %d\n",
		s.ComponentCount, s.PageCount, s.SpecCount)
	if s.HasCypressConfig {
		b.WriteString("Cypress is already configured.\n")
	}
	for _, section := range s.Sections {
		fmt.Fprintf(&b, "%s/:\n", section.Dir)
		for _, entry := range section.Entries {
			fmt.Fprintf(&b, "  %s\n", entry)
		}
		if section.Truncated {
			b.WriteString("  ...\n")
		}
	}
	return b.String()
}

func readManifest(root string, sum *Summary) {
	b, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return
	}
	var manifest struct {
		Name    string            `json:"name"`
		Scripts map[string]string `json:"scripts"`
	}
	if err := json.Unmarshal(b, &manifest); err != nil {
		return
	}
	sum.Name = manifest.Name
	for script := range manifest.Scripts {
		sum.Scripts = append(sum.Scripts, script)
	}
	sort.Strings(sum.Scripts)
}

func listSection(root, dir string, maxItems int) (Section, bool) {
	entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(dir)))
	if err != nil {
		return Section{}, false
	}
	section := Section{Dir: dir}
	for _, entry := range entries {
		if len(section.Entries) == maxItems {
			section.Truncated = true
			break
		}
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		section.Entries = append(section.Entries, name)
	}
	return section, true
}

func countMatches(fsys fs.FS, patterns []string) int {
	total := 0
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			continue
		}
		total += len(matches)
	}
	return total
}
