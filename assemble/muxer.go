package assemble

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/dash-mpd-go/dashmpd/dmerrors"
)

// Muxer runs one external tool attempt to combine tracks into a single
// output container, grounded on the exec.CommandContext +
// captured-stderr pattern ManuGH-xg2g's probeStreams/remux and
// therealutkarshpriyadarshi-transcode's ffmpeg invocation both use.
type Muxer struct {
	// Name identifies the tool for error messages and muxer-preference
	// ordering (e.g. "ffmpeg", "mp4box").
	Name string
	// BuildArgs produces the command-line arguments for combining tracks
	// into outputPath; different tools (ffmpeg, MP4Box, mkvmerge) take
	// this shape but with incompatible flag syntax, so each gets its own
	// implementation rather than one generic templated command line.
	BuildArgs func(tracks []Track, outputPath string) []string
	// Path is the binary to invoke; defaults to Name if empty.
	Path string
}

// Run invokes the muxer once. It does not retry; with_muxer_preference's
// fallback across multiple tools is Mux's job.
func (m Muxer) Run(ctx context.Context, tracks []Track, outputPath string) error {
	bin := m.Path
	if bin == "" {
		bin = m.Name
	}
	args := m.BuildArgs(tracks, outputPath)

	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &dmerrors.MuxingFailed{Tool: m.Name, Stderr: stderr.String(), Err: err}
	}
	return nil
}

// FFmpegMuxer combines tracks into an MP4/MKV/whatever container ffmpeg
// infers from outputPath's extension, remuxing ("-c copy") rather than
// re-encoding, matching the "-c copy" intent implicit in the corpus's
// remux.go naming (ManuGH-xg2g keeps re-encode and remux as separate
// code paths; this only ever remuxes, since the core never transcodes).
func FFmpegMuxer(path string) Muxer {
	return Muxer{
		Name: "ffmpeg",
		Path: path,
		BuildArgs: func(tracks []Track, outputPath string) []string {
			args := []string{"-y"}
			for _, t := range tracks {
				args = append(args, "-i", t.Path)
			}
			args = append(args, "-c", "copy", outputPath)
			return args
		},
	}
}

// MP4BoxMuxer is the GPAC MP4Box fallback, selected by muxer preference
// when ffmpeg is unavailable or rejects the input.
func MP4BoxMuxer(path string) Muxer {
	return Muxer{
		Name: "mp4box",
		Path: path,
		BuildArgs: func(tracks []Track, outputPath string) []string {
			args := []string{"-new"}
			for _, t := range tracks {
				args = append(args, "-add", t.Path)
			}
			args = append(args, outputPath)
			return args
		},
	}
}

// Mux tries each muxer in order, returning the first success. Per
// spec.md §4.H, exhausting the preference list without success is a fatal
// ErrMuxingFailed, not a per-muxer error.
func Mux(ctx context.Context, muxers []Muxer, tracks []Track, outputPath string) error {
	var lastErr error
	for _, m := range muxers {
		if err := m.Run(ctx, tracks, outputPath); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		return dmerrors.ErrMuxingFailed
	}
	return fmt.Errorf("%w: %w", dmerrors.ErrMuxingFailed, lastErr)
}
