package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gend/internal/common/fsutil"
)

// Entry describes one model file found on disk.
type Entry struct {
	// Name is the filename without the .gguf extension.
	Name string
	// Path is the absolute file path.
	Path string
}

// LoadDir scans a directory for *.gguf files and builds entries from
// filenames. The extension match is case-insensitive.
func LoadDir(dir string) ([]Entry, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var out []Entry
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		out = append(out, Entry{
			Name: name[:len(name)-len(".gguf")],
			Path: filepath.Join(abs, name),
		})
	}
	return out, nil
}

// Resolve maps a model name to its file path. The name matches either
// the bare filename ("t5-small") or the full filename with extension.
func Resolve(dir, name string) (string, error) {
	entries, err := LoadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.Name == name || filepath.Base(e.Path) == name {
			return e.Path, nil
		}
	}
	return "", fmt.Errorf("model not found in %s: %s", dir, name)
}
