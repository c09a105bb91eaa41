package dashmpd

import (
	"context"
	"fmt"
	"time"

	"github.com/dash-mpd-go/dashmpd/assemble"
	"github.com/dash-mpd-go/dashmpd/dmerrors"
	"github.com/dash-mpd-go/dashmpd/fetch"
	"github.com/dash-mpd-go/dashmpd/internal/key"
	"github.com/dash-mpd-go/dashmpd/mpd"
	"github.com/dash-mpd-go/dashmpd/segment"
	"github.com/dash-mpd-go/dashmpd/selection"
)

// Result is what Download returns on success: the path to the muxed
// output plus the KeepAudioAs/KeepVideoAs paths as configured (empty when
// unset). It carries no fragment location.
type Result struct {
	OutputPath string
	AudioPath  string
	VideoPath  string
}

// Download runs the full pipeline spec.md §9 lays out end to end:
// fetch the manifest (I->B), resolve XLinks (C), select AdaptationSets
// and Representations (A), synthesize each one's segment list (F),
// fetch every segment concurrently (G), then assemble and mux the
// result (E/H). outputPath is the final muxed file.
func (d *Downloader) Download(ctx context.Context, manifestURL, outputPath string) (*Result, error) {
	client := fetch.NewClient(d.httpClientOrDefault(), "dashmpd/1.0", d.logger)
	client.AuthUser, client.AuthPass = d.authUser, d.authPass

	m, err := d.fetchAndResolve(ctx, client, manifestURL)
	if err != nil {
		return nil, err
	}

	if m.IsDynamic() && !d.allowLive {
		return nil, dmerrors.ErrLiveStreamDisallowed
	}

	keys, err := d.keyService()
	if err != nil {
		return nil, err
	}

	asm, err := assemble.NewAssembler(d.saveFragsTo)
	if err != nil {
		return nil, err
	}
	if d.saveFragsTo == "" {
		defer asm.Cleanup()
	}

	var tracks []assemble.Track
	var totalSegs, doneSegs int

	for pi := range m.Periods {
		p := &m.Periods[pi]
		periodEndDur := d.periodEndDuration(m, p)

		sets := selection.SelectAdaptationSets(p, d.selectOpts)
		for _, as := range sets {
			reps := selection.SelectRepresentations(as)
			reps = selection.ApplyQuality(reps, selection.Options{
				Quality:      d.quality,
				PreferWidth:  d.selectOpts.PreferWidth,
				PreferHeight: d.selectOpts.PreferHeight,
			})

			for _, rep := range reps {
				d.warnMissingDecryptionKeys(keys, rep)

				periodEnd := periodEndOffsetTicks(periodEndDur, p, as, rep)

				segs, err := segment.Synthesize(manifestURL, m, p, as, rep, periodEnd)
				if err != nil {
					return nil, err
				}
				totalSegs += len(segs)

				track, err := d.fetchAndWriteTrack(ctx, client, asm, rep, segs, &doneSegs, totalSegs)
				if err != nil {
					return nil, err
				}
				tracks = append(tracks, track)

				if err := d.keepTrackCopy(as, track); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := assemble.Mux(ctx, d.muxers, tracks, outputPath); err != nil {
		return nil, err
	}

	return &Result{OutputPath: outputPath, AudioPath: d.keepAudioAs, VideoPath: d.keepVideoAs}, nil
}

// fetchAndResolve retrieves the manifest and recursively inlines every
// XLink it contains (Period, AdaptationSet remote elements) before
// parsing it into the final mpd.MPD the rest of the pipeline consumes.
func (d *Downloader) fetchAndResolve(ctx context.Context, client *fetch.Client, manifestURL string) (*mpd.MPD, error) {
	raw, err := client.FetchManifest(ctx, manifestURL)
	if err != nil {
		return nil, err
	}

	resolved, err := mpd.ResolveXLinks(ctx, raw, manifestURL, client)
	if err != nil {
		return nil, err
	}

	m, err := mpd.Parse(resolved)
	if err != nil {
		return nil, err
	}
	if d.baseURL != "" {
		m.BaseURLs = []mpd.BaseURL{{Value: d.baseURL}}
	}
	return m, nil
}

// periodEndDuration resolves a Period's wall-clock duration, when known,
// needed to close out an open-ended ($r=-1$) SegmentTimeline entry or a
// flat-duration SegmentTemplate with no timeline at all. force_duration
// overrides whatever the manifest states, per spec.md §4.I.
func (d *Downloader) periodEndDuration(m *mpd.MPD, p *mpd.Period) time.Duration {
	if d.forceDur > 0 {
		return d.forceDur
	}
	if dur, ok, err := p.DurationDuration(); err == nil && ok {
		return dur
	}
	if dur, ok, err := m.Duration(); err == nil && ok {
		return dur
	}
	return 0
}

// periodEndOffsetTicks converts a wall-clock Period duration into the
// Representation's effective SegmentTemplate timescale, since
// segment.Synthesize's periodEndOffset parameter is expressed in timescale
// ticks (matching the unit $Time$/SegmentTimeline@t already use), not
// seconds.
func periodEndOffsetTicks(periodEnd time.Duration, p *mpd.Period, as *mpd.AdaptationSet, rep *mpd.Representation) uint64 {
	if periodEnd <= 0 {
		return 0
	}
	timescale := mpd.ResolveTemplate(p, as, rep).Timescale
	return uint64(periodEnd.Seconds() * float64(timescale))
}

// fetchAndWriteTrack fetches every segment (and the initialization
// segment, once) for one Representation through the concurrent pipeline,
// then concatenates them in order into a single on-disk Track.
func (d *Downloader) fetchAndWriteTrack(ctx context.Context, client *fetch.Client, asm *assemble.Assembler, rep *mpd.Representation, segs []segment.Segment, doneSegs *int, totalSegs int) (assemble.Track, error) {
	var initBytes []byte
	if len(segs) > 0 && segs[0].Initialization != "" {
		data, err := d.fetchOne(ctx, client, segs[0].Initialization, segs[0].InitByteRange)
		if err != nil {
			return assemble.Track{}, err
		}
		initBytes = data
	}

	jobs := make([]fetch.Job, len(segs))
	for i, s := range segs {
		jobs[i] = fetch.Job{Index: i, URL: s.URL, ByteRange: s.ByteRange}
	}

	opts := fetch.Options{
		Concurrency: defaultConcurrency,
		Retry:       fetch.RetryPolicy{MaxAttempts: d.maxErrorsOrDefault()},
		RateLimit:   d.rateLimiter(),
		MaxErrors:   d.maxErrors,
	}

	results, err := fetch.Run(ctx, client, opts, jobs)
	if err != nil {
		return assemble.Track{}, err
	}

	segData := make([][]byte, len(results))
	for _, r := range results {
		if r.Err != nil {
			return assemble.Track{}, r.Err
		}
		segData[r.Index] = r.Data
	}

	*doneSegs += len(segs)
	for _, obs := range d.observers {
		obs(*doneSegs, totalSegs)
	}
	if d.sleepBetween > 0 {
		time.Sleep(d.sleepBetween)
	}

	mimeType := ""
	if rep.MimeType != nil {
		mimeType = *rep.MimeType
	}
	return asm.WriteTrack(fmt.Sprintf("%s.mp4", rep.ID), mimeType, initBytes, segData)
}

func (d *Downloader) fetchOne(ctx context.Context, client *fetch.Client, url, byteRange string) ([]byte, error) {
	if err := d.rateLimiter().Wait(ctx); err != nil {
		return nil, err
	}
	return fetch.WithRetry(ctx, fetch.RetryPolicy{MaxAttempts: d.maxErrorsOrDefault()}, d.logger, func() ([]byte, error) {
		if byteRange != "" {
			return client.FetchRange(ctx, url, byteRange)
		}
		return client.Fetch(ctx, url)
	})
}

func (d *Downloader) keepTrackCopy(as *mpd.AdaptationSet, track assemble.Track) error {
	class := ""
	if as.ContentType != nil {
		class = *as.ContentType
	}
	switch {
	case class == "audio" && d.keepAudioAs != "":
		return copyFile(track.Path, d.keepAudioAs)
	case class == "video" && d.keepVideoAs != "":
		return copyFile(track.Path, d.keepVideoAs)
	}
	return nil
}

// keyService builds the KID-indexed decryption keyring from every key
// registered via AddDecryptionKey.
func (d *Downloader) keyService() (*key.Service, error) {
	pairs := make([]key.KeyPair, len(d.decryptKeys))
	for i, k := range d.decryptKeys {
		pairs[i] = key.KeyPair{KID: k.KID, Key: k.Key}
	}
	return key.NewService(pairs)
}

// warnMissingDecryptionKeys logs (but does not fail on) a Representation
// whose ContentProtection names a default_KID with no registered key; the
// external decryptor invoked later may still supply it out of band, per
// spec.md §4.H.
func (d *Downloader) warnMissingDecryptionKeys(keys *key.Service, rep *mpd.Representation) {
	for _, cp := range rep.ContentProtections {
		if cp.DefaultKID == nil {
			continue
		}
		if _, found := keys.KeyForKID(*cp.DefaultKID); !found {
			d.logger.Warnf("no decryption key registered for kid %s on representation %s", *cp.DefaultKID, rep.ID)
		}
	}
}

// maxErrorsOrDefault turns the configured retry budget into the attempt
// count WithRetry expects (budget+1, since MaxAttempts counts the first
// try). MaxErrorCount(0) therefore means exactly one attempt and no
// retries, rather than silently falling back to some default budget.
func (d *Downloader) maxErrorsOrDefault() int {
	if d.maxErrors < 0 {
		return 1
	}
	return d.maxErrors + 1
}

const defaultConcurrency = 4
