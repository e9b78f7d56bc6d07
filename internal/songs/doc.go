// Package songs models a song folder on disk and the two pieces of
// per-folder logic the batch depends on: deciding whether separation output
// already exists, and merging #VOCALS/#INSTRUMENTAL marker lines into the
// folder's <name>.txt sidecar.
//
// A song folder named F holds a source audio file F.<ext>, an optional
// sidecar F.txt, and after separation the stems "F [VOC].<ext>" and
// "F [INSTR].<ext>". Nothing in this package deletes files or touches the
// source audio.
package songs
