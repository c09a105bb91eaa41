package mpd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scteMPD = `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" xmlns:scte35="urn:scte:scte35:2014:xml+bin" profiles="urn:mpeg:dash:profile:isoff-main:2011">
  <Period>
    <EventStream schemeIdUri="urn:scte:scte35:2013:xml" value="1" timescale="90000">
      <Event id="1" presentationTime="0" duration="270000"><scte35:Signal><scte35:Binary>/DAqAAAAAAAAAP/wBQb+cr0AUAAUAhJDVUVJSAAAjn/PAAAAAAAAAAAA</scte35:Binary></scte35:Signal></Event>
    </EventStream>
    <AdaptationSet contentType="video" mimeType="video/mp4">
      <Representation id="v1" bandwidth="500000"/>
    </AdaptationSet>
  </Period>
</MPD>`

func TestEventStreamSCTE35PassthroughRoundTrip(t *testing.T) {
	m, err := Parse([]byte(scteMPD))
	require.NoError(t, err)

	es := m.Periods[0].EventStreams
	require.Len(t, es, 1)
	require.Len(t, es[0].Events, 1)
	assert.Contains(t, es[0].Events[0].InnerXML, "scte35:Signal")
	assert.Contains(t, es[0].Events[0].InnerXML, "scte35:Binary")

	out, err := Serialize(m)
	require.NoError(t, err)
	assert.Contains(t, string(out), "xmlns:scte35")

	eq, err := RoundTripEqual([]byte(scteMPD), out)
	require.NoError(t, err)
	assert.True(t, eq, "serialized manifest must be structurally equal to the original:\n%s", out)
}
