package songs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

// Completion reports the three signals that together mean a folder has
// already been separated.
type Completion struct {
	// VocalsFile is the name of a "<x> [VOC].<ext>" file, if any.
	VocalsFile string
	// InstrumentalFile is the name of a "<x> [INSTR].<ext>" file, if any.
	InstrumentalFile string
	// SidecarMarkers is true when F.txt carries both marker lines.
	SidecarMarkers bool
}

// Complete requires all three signals.
func (c Completion) Complete() bool {
	return c.VocalsFile != "" && c.InstrumentalFile != "" && c.SidecarMarkers
}

// Missing names the absent signals, for logging.
func (c Completion) Missing() []string {
	var missing []string
	if c.VocalsFile == "" {
		missing = append(missing, "vocals stem")
	}
	if c.InstrumentalFile == "" {
		missing = append(missing, "instrumental stem")
	}
	if !c.SidecarMarkers {
		missing = append(missing, "sidecar markers")
	}
	return missing
}

// Detect inspects the folder's immediate listing for separation output.
// exts is the recognized extension set.
func Detect(folder Folder, exts []string) (Completion, error) {
	entries, err := os.ReadDir(folder.Path)
	if err != nil {
		return Completion{}, fmt.Errorf("list %s: %w", folder.Path, err)
	}

	recognized := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		recognized[strings.ToLower(ext)] = struct{}{}
	}

	var result Completion
	sidecarName := folder.Name + ".txt"
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == sidecarName {
			ok, err := sidecarHasMarkers(folder.SidecarPath(), exts)
			if err != nil {
				return Completion{}, err
			}
			result.SidecarMarkers = ok
			continue
		}
		switch stemTag(name, recognized) {
		case VocalsTag:
			if result.VocalsFile == "" {
				result.VocalsFile = name
			}
		case InstrumentalTag:
			if result.InstrumentalFile == "" {
				result.InstrumentalFile = name
			}
		}
	}
	return result, nil
}

// stemTag returns the tag a file name ends with, if its extension is recognized.
func stemTag(name string, recognized map[string]struct{}) string {
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 {
		return ""
	}
	if _, ok := recognized[strings.ToLower(name[dot+1:])]; !ok {
		return ""
	}
	base := name[:dot]
	switch {
	case strings.HasSuffix(base, " "+VocalsTag):
		return VocalsTag
	case strings.HasSuffix(base, " "+InstrumentalTag):
		return InstrumentalTag
	default:
		return ""
	}
}

func sidecarHasMarkers(path string, exts []string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read sidecar: %w", err)
	}
	vocals, instrumental := markerPatterns(exts)
	content := string(data)
	return vocals.MatchString(content) && instrumental.MatchString(content), nil
}

func markerPatterns(exts []string) (*regexp.Regexp, *regexp.Regexp) {
	quoted := make([]string, 0, len(exts))
	for _, ext := range exts {
		quoted = append(quoted, regexp.QuoteMeta(ext))
	}
	// extensions compare case-insensitively, as stem file names do
	alt := "(?i:" + strings.Join(quoted, "|") + ")"
	vocals := regexp.MustCompile(`#VOCALS: ?.* \[VOC\]\.` + alt)
	instrumental := regexp.MustCompile(`#INSTRUMENTAL: ?.* \[INSTR\]\.` + alt)
	return vocals, instrumental
}
