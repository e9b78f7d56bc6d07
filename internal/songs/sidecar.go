package songs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"stemsplit/internal/fileutil"
)

const bom = "\ufeff"

// SplitLines splits content after each "\n", keeping terminators. A final
// line without a newline is kept as is.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// MergeMarkers inserts each missing marker before the first line that does
// not start with "#", or at the end when every line is metadata. Lines keep
// their terminators; markers are given without them and compared against
// lines with terminators stripped. It reports whether lines changed.
func MergeMarkers(lines []string, markers []string) ([]string, bool) {
	present := make(map[string]struct{}, len(lines))
	for i, line := range lines {
		text := strings.TrimRight(line, "\r\n")
		if i == 0 {
			text = strings.TrimPrefix(text, bom)
		}
		present[text] = struct{}{}
	}

	var missing []string
	for _, marker := range markers {
		if _, ok := present[marker]; ok {
			continue
		}
		present[marker] = struct{}{}
		missing = append(missing, marker)
	}
	if len(missing) == 0 {
		return lines, false
	}

	newline := "\n"
	if len(lines) > 0 && strings.HasSuffix(lines[0], "\r\n") {
		newline = "\r\n"
	}

	out := make([]string, 0, len(lines)+len(missing))
	out = append(out, lines...)

	insertAt := len(out)
	for i, line := range out {
		if i == 0 {
			line = strings.TrimPrefix(line, bom)
		}
		if !strings.HasPrefix(line, "#") {
			insertAt = i
			break
		}
	}

	leading := ""
	if insertAt == 0 && len(out) > 0 && strings.HasPrefix(out[0], bom) {
		out[0] = strings.TrimPrefix(out[0], bom)
		leading = bom
	}
	if insertAt > 0 && !strings.HasSuffix(out[insertAt-1], "\n") {
		out[insertAt-1] += newline
	}

	inserted := make([]string, len(missing))
	for i, marker := range missing {
		inserted[i] = marker + newline
	}
	inserted[0] = leading + inserted[0]

	return slices.Insert(out, insertAt, inserted...), true
}

// UpdateSidecar merges the folder's marker lines into <name>.txt, creating
// the file when absent. It reports whether the file was written.
func UpdateSidecar(folder Folder, markerExt string) (bool, error) {
	path := folder.SidecarPath()
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("read sidecar: %w", err)
	}

	merged, changed := MergeMarkers(SplitLines(string(data)), folder.Markers(markerExt))
	if !changed {
		return false, nil
	}
	if err := fileutil.WriteFileAtomic(path, []byte(strings.Join(merged, "")), 0o644); err != nil {
		return false, fmt.Errorf("write sidecar: %w", err)
	}
	return true, nil
}
