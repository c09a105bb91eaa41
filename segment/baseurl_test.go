package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveURLFoldsStackLeftToRight(t *testing.T) {
	got, err := ResolveURL([]string{"https://cdn.example/path/manifest.mpd", "1/", "video/"}, "v1/0.m4s")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/path/1/video/v1/0.m4s", got)
}

func TestResolveURLAbsoluteReplacesStack(t *testing.T) {
	got, err := ResolveURL([]string{"https://cdn.example/path/manifest.mpd", "1/"}, "https://other.example/seg.m4s")
	require.NoError(t, err)
	assert.Equal(t, "https://other.example/seg.m4s", got)
}

func TestResolveURLEmptyStack(t *testing.T) {
	got, err := ResolveURL(nil, "https://cdn.example/seg.m4s")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/seg.m4s", got)
}
