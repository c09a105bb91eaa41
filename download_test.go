package dashmpd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dash-mpd-go/dashmpd/assemble"
)

const testMPD = `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" profiles="urn:mpeg:dash:profile:isoff-main:2011" type="static" mediaPresentationDuration="PT4S">
  <Period>
    <AdaptationSet contentType="video" mimeType="video/mp4">
      <Representation id="v1" bandwidth="500000">
        <SegmentList timescale="1" duration="2" startNumber="1">
          <Initialization sourceURL="init.m4s"/>
          <SegmentURL media="seg-1.m4s"/>
          <SegmentURL media="seg-2.m4s"/>
        </SegmentList>
      </Representation>
    </AdaptationSet>
  </Period>
</MPD>`

// recordingMuxer stands in for ffmpeg/MP4Box in tests: it just touches the
// output path so Download's post-mux Result can be asserted without
// depending on an external binary being installed in the test environment.
func recordingMuxer() assemble.Muxer {
	return assemble.Muxer{
		Name: "test",
		Path: "/bin/true",
		BuildArgs: func(tracks []assemble.Track, outputPath string) []string {
			_ = os.WriteFile(outputPath, []byte("muxed"), 0o644)
			return nil
		},
	}
}

func TestDownloadEndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/manifest.mpd", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testMPD))
	})
	mux.HandleFunc("/init.m4s", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("INIT")) })
	mux.HandleFunc("/seg-1.m4s", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("SEG1")) })
	mux.HandleFunc("/seg-2.m4s", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("SEG2")) })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	outDir := t.TempDir()
	outPath := filepath.Join(outDir, "out.mp4")

	var lastDone, lastTotal int
	d := NewDownloader().
		VideoOnly().
		AddProgressObserver(func(done, total int) { lastDone, lastTotal = done, total })
	d.muxers = []assemble.Muxer{recordingMuxer()}

	res, err := d.Download(context.Background(), srv.URL+"/manifest.mpd", outPath)
	require.NoError(t, err)
	require.Equal(t, outPath, res.OutputPath)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, "muxed", string(data))
	require.Equal(t, 2, lastDone)
	require.Equal(t, 2, lastTotal)
}

const templateMPD = `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" profiles="urn:mpeg:dash:profile:isoff-main:2011" type="static" mediaPresentationDuration="PT4S">
  <Period>
    <AdaptationSet contentType="video" mimeType="video/mp4">
      <Representation id="v1" bandwidth="500000">
        <SegmentTemplate media="seg-$Number$.m4s" initialization="init.m4s" timescale="48000" duration="96000" startNumber="1"/>
      </Representation>
    </AdaptationSet>
  </Period>
</MPD>`

// TestDownloadScalesPeriodEndByTimescale exercises the flat-duration
// SegmentTemplate path end to end with a timescale other than 1: the
// Period is 4 seconds at a 48000 timescale with a 96000-tick (2s) segment
// duration, so exactly 2 segments must be fetched. Getting the unit
// conversion wrong (seconds instead of ticks) would ask for only one.
func TestDownloadScalesPeriodEndByTimescale(t *testing.T) {
	var fetched []string
	mux := http.NewServeMux()
	mux.HandleFunc("/manifest.mpd", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(templateMPD))
	})
	mux.HandleFunc("/init.m4s", func(w http.ResponseWriter, r *http.Request) {
		fetched = append(fetched, r.URL.Path)
		w.Write([]byte("INIT"))
	})
	mux.HandleFunc("/seg-1.m4s", func(w http.ResponseWriter, r *http.Request) {
		fetched = append(fetched, r.URL.Path)
		w.Write([]byte("SEG1"))
	})
	mux.HandleFunc("/seg-2.m4s", func(w http.ResponseWriter, r *http.Request) {
		fetched = append(fetched, r.URL.Path)
		w.Write([]byte("SEG2"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	outPath := filepath.Join(t.TempDir(), "out.mp4")
	d := NewDownloader().VideoOnly()
	d.muxers = []assemble.Muxer{recordingMuxer()}

	var lastDone, lastTotal int
	d.AddProgressObserver(func(done, total int) { lastDone, lastTotal = done, total })

	_, err := d.Download(context.Background(), srv.URL+"/manifest.mpd", outPath)
	require.NoError(t, err)
	require.Equal(t, 2, lastTotal)
	require.Equal(t, 2, lastDone)
	require.Contains(t, fetched, "/seg-1.m4s")
	require.Contains(t, fetched, "/seg-2.m4s")
}

func TestDownloadRejectsDynamicManifestByDefault(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/manifest.mpd", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><MPD xmlns="urn:mpeg:dash:schema:mpd:2011" profiles="x" type="dynamic"></MPD>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	d := NewDownloader()
	_, err := d.Download(context.Background(), srv.URL+"/manifest.mpd", filepath.Join(t.TempDir(), "out.mp4"))
	require.Error(t, err)
}

// TestDownloadMaxErrorCountZeroFailsOnFirstSegmentError exercises
// spec.md §8's retry budget property: max_error_count(0) must fail fast
// with no retries rather than silently falling back to some default
// retry budget.
func TestDownloadMaxErrorCountZeroFailsOnFirstSegmentError(t *testing.T) {
	var segAttempts int
	mux := http.NewServeMux()
	mux.HandleFunc("/manifest.mpd", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testMPD))
	})
	mux.HandleFunc("/init.m4s", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("INIT")) })
	mux.HandleFunc("/seg-1.m4s", func(w http.ResponseWriter, r *http.Request) {
		segAttempts++
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/seg-2.m4s", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("SEG2")) })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	d := NewDownloader().VideoOnly().MaxErrorCount(0)
	d.muxers = []assemble.Muxer{recordingMuxer()}

	_, err := d.Download(context.Background(), srv.URL+"/manifest.mpd", filepath.Join(t.TempDir(), "out.mp4"))
	require.Error(t, err)
	require.Equal(t, 1, segAttempts)
}
