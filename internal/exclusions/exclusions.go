// Package exclusions loads the list of song folder names a run must leave alone.
package exclusions

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultFileName is resolved against the working directory when no path is configured.
const DefaultFileName = "exclusions.txt"

// Set is an ordered, read-only collection of excluded folder names.
// Membership is tested on the NFC form so names decomposed by the
// filesystem still match names typed into the file.
type Set struct {
	names []string
	index map[string]struct{}
}

// New builds a set from names, skipping blanks and duplicates.
func New(names ...string) Set {
	s := Set{index: make(map[string]struct{}, len(names))}
	for _, name := range names {
		s.add(name)
	}
	return s
}

// Load reads newline-separated folder names from path. A missing file yields
// an empty set.
func Load(path string) (Set, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		return Set{}, fmt.Errorf("open exclusions: %w", err)
	}
	defer file.Close()

	set, err := Parse(file)
	if err != nil {
		return Set{}, fmt.Errorf("read exclusions %s: %w", path, err)
	}
	return set, nil
}

// Parse reads newline-separated folder names from r.
func Parse(r io.Reader) (Set, error) {
	set := New()
	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		set.add(line)
	}
	if err := scanner.Err(); err != nil {
		return Set{}, err
	}
	return set, nil
}

func (s *Set) add(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	key := norm.NFC.String(name)
	if _, ok := s.index[key]; ok {
		return
	}
	s.index[key] = struct{}{}
	s.names = append(s.names, name)
}

// Contains reports whether name is excluded.
func (s Set) Contains(name string) bool {
	if len(s.index) == 0 {
		return false
	}
	_, ok := s.index[norm.NFC.String(name)]
	return ok
}

// Names returns the excluded names in file order.
func (s Set) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of distinct names.
func (s Set) Len() int {
	return len(s.names)
}
