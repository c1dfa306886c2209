package executor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMaterializeWritesIntoSuiteDir(t *testing.T) {
	root := t.TempDir()

	art, err := materialize(root, "cypress/e2e", "login.cy.js", "describe()")
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	wantPath := filepath.Join(root, "cypress", "e2e", "login.cy.js")
	if art.AbsPath != wantPath {
		t.Fatalf("abs path=%s, want %s", art.AbsPath, wantPath)
	}
	if art.SpecRel != filepath.Join("cypress", "e2e", "login.cy.js") {
		t.Fatalf("spec rel=%s", art.SpecRel)
	}
	b, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(b) != "describe()" {
		t.Fatalf("content=%q", b)
	}
	if len(art.Hash) != 64 {
		t.Fatalf("hash=%q, want 64 hex chars", art.Hash)
	}
}

func TestMaterializeOverwritesExisting(t *testing.T) {
	root := t.TempDir()

	first, err := materialize(root, "cypress/e2e", "a.cy.js", "old")
	if err != nil {
		t.Fatal(err)
	}
	second, err := materialize(root, "cypress/e2e", "a.cy.js", "new")
	if err != nil {
		t.Fatal(err)
	}
	if first.AbsPath != second.AbsPath {
		t.Fatalf("paths differ: %s vs %s", first.AbsPath, second.AbsPath)
	}
	if first.Hash == second.Hash {
		t.Fatal("hash did not change with the content")
	}
	b, _ := os.ReadFile(second.AbsPath)
	if string(b) != "new" {
		t.Fatalf("content=%q, want overwrite", b)
	}
}

func TestMaterializeSameSourceSameHash(t *testing.T) {
	root := t.TempDir()
	a, err := materialize(root, "cypress/e2e", "a.cy.js", "src")
	if err != nil {
		t.Fatal(err)
	}
	b, err := materialize(root, "cypress/e2e", "b.cy.js", "src")
	if err != nil {
		t.Fatal(err)
	}
	if a.Hash != b.Hash {
		t.Fatal("hash must depend on source only")
	}
}

func TestMaterializeMissingRoot(t *testing.T) {
	_, err := materialize(filepath.Join(t.TempDir(), "nope"), "cypress/e2e", "a.cy.js", "x")
	if err == nil {
		t.Fatal("expected error for missing project root")
	}
}

func TestMaterializeRootIsFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(root, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := materialize(root, "cypress/e2e", "a.cy.js", "x")
	if err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Fatalf("err=%v", err)
	}
}

func TestSuiteRelPathRejectsEscapes(t *testing.T) {
	bad := []string{
		"",
		"   ",
		"../evil.cy.js",
		"../../etc/passwd",
		"a/../../evil.cy.js",
		"/abs/evil.cy.js",
	}
	for _, name := range bad {
		if _, err := suiteRelPath("cypress/e2e", name); err == nil {
			t.Errorf("suiteRelPath accepted %q", name)
		}
	}

	good := map[string]string{
		"login.cy.js":      filepath.Join("cypress", "e2e", "login.cy.js"),
		"auth/login.cy.js": filepath.Join("cypress", "e2e", "auth", "login.cy.js"),
		"a/../b.cy.js":     filepath.Join("cypress", "e2e", "b.cy.js"),
		"./checkout.cy.js": filepath.Join("cypress", "e2e", "checkout.cy.js"),
	}
	for name, want := range good {
		got, err := suiteRelPath("cypress/e2e", name)
		if err != nil {
			t.Errorf("suiteRelPath(%q): %v", name, err)
			continue
		}
		if got != want {
			t.Errorf("suiteRelPath(%q)=%q, want %q", name, got, want)
		}
	}
}
