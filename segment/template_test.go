package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(n uint64) *uint64 { return &n }

func TestExpandTemplateBasic(t *testing.T) {
	n := uint64(7)
	got, err := ExpandTemplate("$RepresentationID$/$Number$.m4s", TemplateParams{
		RepresentationID: "v1", Number: &n,
	})
	require.NoError(t, err)
	assert.Equal(t, "v1/7.m4s", got)
}

func TestExpandTemplateWidthSpecifier(t *testing.T) {
	n := uint64(7)
	got, err := ExpandTemplate("seg-$Number%05d$.m4s", TemplateParams{Number: &n})
	require.NoError(t, err)
	assert.Equal(t, "seg-00007.m4s", got)
}

func TestExpandTemplateEscapedDollar(t *testing.T) {
	got, err := ExpandTemplate("literal$$sign.mp4", TemplateParams{})
	require.NoError(t, err)
	assert.Equal(t, "literal$sign.mp4", got)
}

func TestExpandTemplateMissingNumberErrors(t *testing.T) {
	_, err := ExpandTemplate("$Number$.m4s", TemplateParams{})
	assert.Error(t, err)
}

func TestExpandTemplateMissingTimeErrors(t *testing.T) {
	_, err := ExpandTemplate("$Time$.m4s", TemplateParams{})
	assert.Error(t, err)
}

func TestExpandTemplateUnknownPlaceholderErrors(t *testing.T) {
	_, err := ExpandTemplate("$Foo$.m4s", TemplateParams{RepresentationID: "v1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown placeholder")
}

func TestExpandInitializationRejectsNumberPlaceholder(t *testing.T) {
	_, err := ExpandInitialization("$RepresentationID$/$Number$-init.mp4", "v1", 500000)
	assert.Error(t, err)
}

func TestExpandInitializationAllowsBandwidthAndRepID(t *testing.T) {
	got, err := ExpandInitialization("$RepresentationID$/init-$Bandwidth$.mp4", "v1", 500000)
	require.NoError(t, err)
	assert.Equal(t, "v1/init-500000.mp4", got)
}
