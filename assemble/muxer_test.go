package assemble

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dash-mpd-go/dashmpd/dmerrors"
)

func TestMuxTriesEachMuxerInOrder(t *testing.T) {
	var tried []string
	failing := Muxer{Name: "bad", Path: "/bin/false", BuildArgs: func(t []Track, out string) []string {
		tried = append(tried, "bad")
		return nil
	}}
	succeeding := Muxer{
		Name: "good",
		Path: "/bin/true",
		BuildArgs: func(tracks []Track, out string) []string {
			tried = append(tried, "good")
			return nil
		},
	}
	err := Mux(context.Background(), []Muxer{failing, succeeding}, nil, "/tmp/out.mp4")
	require.NoError(t, err)
	assert.Equal(t, []string{"bad", "good"}, tried)
}

func TestMuxReturnsMuxingFailedWhenAllFail(t *testing.T) {
	failing := Muxer{Name: "bad", Path: "/bin/false", BuildArgs: func(t []Track, out string) []string { return nil }}
	err := Mux(context.Background(), []Muxer{failing, failing}, nil, "/tmp/out.mp4")
	require.Error(t, err)
	assert.True(t, errors.Is(err, dmerrors.ErrMuxingFailed))
}

func TestFFmpegMuxerBuildsCopyArgs(t *testing.T) {
	m := FFmpegMuxer("ffmpeg")
	args := m.BuildArgs([]Track{{Path: "/tmp/v.mp4"}, {Path: "/tmp/a.mp4"}}, "/tmp/out.mp4")
	assert.Contains(t, args, "-i")
	assert.Contains(t, args, "/tmp/v.mp4")
	assert.Contains(t, args, "-c")
	assert.Contains(t, args, "copy")
	assert.Equal(t, "/tmp/out.mp4", args[len(args)-1])
}
