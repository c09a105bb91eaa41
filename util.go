package dashmpd

import (
	"io"
	"os"

	"github.com/dash-mpd-go/dashmpd/dmerrors"
)

// copyFile duplicates the assembled track at src to dst, used by
// keep_audio_as/keep_video_as to leave a copy behind before the scratch
// assembler directory is cleaned up.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return &dmerrors.IoError{Op: "open", Path: src, Err: err}
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return &dmerrors.IoError{Op: "create", Path: dst, Err: err}
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return &dmerrors.IoError{Op: "copy", Path: dst, Err: err}
	}
	return nil
}
