package songs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoSource reports that a folder holds no F.<ext> for any recognized extension.
var ErrNoSource = errors.New("no source audio file")

// ResolveSource returns the first existing F.<ext>, trying exts in order.
func ResolveSource(folder Folder, exts []string) (string, error) {
	tried := make([]string, 0, len(exts))
	for _, ext := range exts {
		candidate := filepath.Join(folder.Path, folder.Name+"."+ext)
		tried = append(tried, filepath.Base(candidate))
		info, err := os.Stat(candidate)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		if info.Mode().IsRegular() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w in %s (tried %s)", ErrNoSource, folder.Name, strings.Join(tried, ", "))
}
