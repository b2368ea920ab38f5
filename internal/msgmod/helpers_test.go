package msgmod

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/incognito-design/msgmod/internal/loader"
	"github.com/incognito-design/msgmod/messages"
)

// setupTestDir creates a temp directory with the given files, returns the path.
func setupTestDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// countingLoader wraps the properties loader and counts its calls.
type countingLoader struct {
	calls atomic.Int32
}

func (c *countingLoader) load(path string) (messages.KeyValueObject, error) {
	c.calls.Add(1)
	return loader.Properties(path)
}

// countReadDir counts directory scans done while discovering message files.
func countReadDir(t *testing.T) *atomic.Int32 {
	t.Helper()
	var n atomic.Int32
	orig := readDir
	readDir = func(name string) ([]os.DirEntry, error) {
		n.Add(1)
		return orig(name)
	}
	t.Cleanup(func() { readDir = orig })
	return &n
}

func testOptions(root string, l *countingLoader) Options {
	return Options{
		Root:                  root,
		Targets:               []HijackTarget{DefaultTarget},
		MessagesFileExtension: "properties",
		Loader:                l.load,
		Verify:                true,
	}
}

func assertOutput(t *testing.T, want string, got []byte) {
	t.Helper()
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}
