package workflow

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Entry is one immediate child of the songs root.
type Entry struct {
	Name  string
	Path  string
	IsDir bool
}

// Discover lists the immediate entries of root sorted by name. Symlinks are
// classified by their target.
func Discover(root string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("list songs directory: %w", err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, d := range dirEntries {
		path := filepath.Join(root, d.Name())
		isDir := d.IsDir()
		if d.Type()&fs.ModeSymlink != 0 {
			if info, statErr := os.Stat(path); statErr == nil {
				isDir = info.IsDir()
			}
		}
		entries = append(entries, Entry{Name: d.Name(), Path: path, IsDir: isDir})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}
