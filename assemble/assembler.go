// Package assemble writes a Representation's fetched segments to disk in
// order and hands the result to an external muxer, the way spec.md §4.H's
// final "write fragments, then mux" stage works.
package assemble

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dash-mpd-go/dashmpd/dmerrors"
)

// Track is one assembled, on-disk media track ready for muxing: its
// initialization segment (if any) followed by its media segments,
// concatenated in order.
type Track struct {
	Path     string // temp file holding the concatenated bytes
	MimeType string
}

// Assembler concatenates ordered segment byte slices into a temp file
// under a session-scoped directory, naming the session with a
// uuid.New().String() identifier the way eleven-am-goshl's controller
// names its generated resources.
type Assembler struct {
	Dir string
}

// NewAssembler creates the session's scratch directory under baseDir
// (save_fragments_to when set, os.TempDir() otherwise).
func NewAssembler(baseDir string) (*Assembler, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	dir := filepath.Join(baseDir, "dashmpd-"+uuid.New().String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &dmerrors.IoError{Op: "mkdir", Path: dir, Err: err}
	}
	return &Assembler{Dir: dir}, nil
}

// WriteTrack concatenates init (may be nil/empty) followed by segments, in
// order, into a single file named name under the session directory.
func (a *Assembler) WriteTrack(name string, mimeType string, init []byte, segments [][]byte) (Track, error) {
	path := filepath.Join(a.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return Track{}, &dmerrors.IoError{Op: "create", Path: path, Err: err}
	}
	defer f.Close()

	if len(init) > 0 {
		if _, err := f.Write(init); err != nil {
			return Track{}, &dmerrors.IoError{Op: "write", Path: path, Err: err}
		}
	}
	for _, seg := range segments {
		if _, err := f.Write(seg); err != nil {
			return Track{}, &dmerrors.IoError{Op: "write", Path: path, Err: err}
		}
	}

	return Track{Path: path, MimeType: mimeType}, nil
}

// Cleanup removes the session's scratch directory. Callers keep it around
// (skip calling Cleanup) when save_fragments_to was explicitly requested.
func (a *Assembler) Cleanup() error {
	if err := os.RemoveAll(a.Dir); err != nil {
		return &dmerrors.IoError{Op: "rmdir", Path: a.Dir, Err: err}
	}
	return nil
}
