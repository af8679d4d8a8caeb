package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteItemFiles creates basePath+ext for every extension, making parent
// directories as needed, and returns the created paths in order.
func WriteItemFiles(t testing.TB, basePath string, exts ...string) []string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(basePath), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", basePath, err)
	}
	paths := make([]string, 0, len(exts))
	for _, ext := range exts {
		path := basePath + ext
		if err := os.WriteFile(path, []byte(ext), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		paths = append(paths, path)
	}
	return paths
}
