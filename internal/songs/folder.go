package songs

import (
	"path/filepath"
)

// Stem names understood by the separation engine.
const (
	StemVocals       = "Vocals"
	StemInstrumental = "Instrumental"
)

// Tags appended to the folder name to form stem file names.
const (
	VocalsTag       = "[VOC]"
	InstrumentalTag = "[INSTR]"
)

// Marker line prefixes written to the sidecar.
const (
	VocalsMarkerPrefix       = "#VOCALS:"
	InstrumentalMarkerPrefix = "#INSTRUMENTAL:"
)

// Folder is one song directory, identified by its base name.
type Folder struct {
	Path string
	Name string
}

// NewFolder returns the folder rooted at path.
func NewFolder(path string) Folder {
	return Folder{Path: path, Name: filepath.Base(path)}
}

// SidecarPath returns <path>/<name>.txt.
func (f Folder) SidecarPath() string {
	return filepath.Join(f.Path, f.Name+".txt")
}

// VocalsBase is the stem base name without extension, e.g. "Track1 [VOC]".
func (f Folder) VocalsBase() string {
	return f.Name + " " + VocalsTag
}

// InstrumentalBase is the stem base name without extension, e.g. "Track1 [INSTR]".
func (f Folder) InstrumentalBase() string {
	return f.Name + " " + InstrumentalTag
}

// OutputNames maps engine stem names to the base file names written into the folder.
func (f Folder) OutputNames() map[string]string {
	return map[string]string{
		StemVocals:       f.VocalsBase(),
		StemInstrumental: f.InstrumentalBase(),
	}
}

// Markers returns the two sidecar marker lines, without terminators,
// referencing stems with the given extension.
func (f Folder) Markers(ext string) []string {
	return []string{
		VocalsMarkerPrefix + " " + f.VocalsBase() + "." + ext,
		InstrumentalMarkerPrefix + " " + f.InstrumentalBase() + "." + ext,
	}
}
