package mpd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dash-mpd-go/dashmpd/dmerrors"
)

type fakeFetcher struct {
	byURL map[string][]byte
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.calls = append(f.calls, url)
	data, ok := f.byURL[url]
	if !ok {
		return nil, assertNotFoundErr(url)
	}
	return data, nil
}

type notFoundErr string

func (e notFoundErr) Error() string { return "not found: " + string(e) }

func assertNotFoundErr(url string) error { return notFoundErr(url) }

const xlinkMPD = `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" xmlns:xlink="http://www.w3.org/1999/xlink" profiles="p">
  <Period xlink:href="https://example.com/periods/1.xml" xlink:actuate="onLoad"/>
  <Period id="p2">
    <AdaptationSet contentType="video"/>
  </Period>
</MPD>`

func TestResolveXLinksInlinesFragment(t *testing.T) {
	fragment := `<Period id="fetched"><AdaptationSet contentType="audio"/></Period>`
	f := &fakeFetcher{byURL: map[string][]byte{
		"https://example.com/periods/1.xml": []byte(fragment),
	}}

	out, err := ResolveXLinks(context.Background(), []byte(xlinkMPD), "", f)
	require.NoError(t, err)

	m, err := Parse(out)
	require.NoError(t, err)

	require.Len(t, m.Periods, 2)
	assert.Equal(t, "fetched", *m.Periods[0].ID)
	assert.False(t, m.Periods[0].HasXLink())
}

func TestResolveXLinksResolveToZeroRemovesElement(t *testing.T) {
	f := &fakeFetcher{byURL: map[string][]byte{}}
	mpdXML := `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" xmlns:xlink="http://www.w3.org/1999/xlink" profiles="p">
  <Period id="keep">
    <AdaptationSet xlink:href="urn:mpeg:dash:resolve-to-zero:2011" contentType="video"/>
    <AdaptationSet contentType="audio"/>
  </Period>
</MPD>`

	out, err := ResolveXLinks(context.Background(), []byte(mpdXML), "", f)
	require.NoError(t, err)

	m, err := Parse(out)
	require.NoError(t, err)
	require.Len(t, m.Periods[0].AdaptationSets, 1)
	assert.Equal(t, "audio", *m.Periods[0].AdaptationSets[0].ContentType)
}

func TestResolveXLinksFailsBeyondMaxDepth(t *testing.T) {
	self := `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" xmlns:xlink="http://www.w3.org/1999/xlink" profiles="p">
  <Period xlink:href="https://example.com/loop" xlink:actuate="onLoad"/>
</MPD>`
	loopFragment := `<Period xlink:href="https://example.com/loop" xlink:actuate="onLoad"/>`
	f := &fakeFetcher{byURL: map[string][]byte{
		"https://example.com/loop": []byte(loopFragment),
	}}

	_, err := ResolveXLinks(context.Background(), []byte(self), "", f)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dmerrors.ErrXLinkCycle))
}
