package executor

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
)

// materialized describes a successfully written test artifact.
type materialized struct {
	// AbsPath is the on-disk location of the written file.
	AbsPath string
	// SpecRel is the project-relative path handed to the runner's --spec.
	SpecRel string
	// Hash is the blake3 digest of the written source, hex encoded.
	Hash string
}

// materialize ensures the suite directory exists under the project root and
// writes the opaque test source there, overwriting any previous artifact at
// the same path. The file name must stay inside the suite directory; any
// traversal outside it is rejected before touching the file system.
func materialize(projectRoot, suiteDir, fileName, source string) (materialized, error) {
	info, err := os.Stat(projectRoot)
	if err != nil {
		return materialized{}, fmt.Errorf("project root: %w", err)
	}
	if !info.IsDir() {
		return materialized{}, fmt.Errorf("project root is not a directory: %s", projectRoot)
	}

	specRel, err := suiteRelPath(suiteDir, fileName)
	if err != nil {
		return materialized{}, err
	}

	dir := filepath.Join(projectRoot, filepath.Dir(specRel))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return materialized{}, fmt.Errorf("create suite directory: %w", err)
	}
	absPath := filepath.Join(projectRoot, specRel)
	if err := os.WriteFile(absPath, []byte(source), 0o644); err != nil {
		return materialized{}, fmt.Errorf("write test file: %w", err)
	}

	sum := blake3.Sum256([]byte(source))
	return materialized{
		AbsPath: absPath,
		SpecRel: specRel,
		Hash:    hex.EncodeToString(sum[:]),
	}, nil
}

// suiteRelPath resolves fileName inside suiteDir and rejects anything that
// escapes it (absolute paths, ".." traversal).
func suiteRelPath(suiteDir, fileName string) (string, error) {
	name := strings.TrimSpace(fileName)
	if name == "" {
		return "", fmt.Errorf("file name is empty")
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("file name must be relative: %s", name)
	}
	joined := filepath.Join(suiteDir, name)
	rel, err := filepath.Rel(suiteDir, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("file name escapes the suite directory: %s", name)
	}
	return joined, nil
}
