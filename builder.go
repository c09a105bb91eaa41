// Package dashmpd is a DASH manifest downloader: it fetches an MPD,
// resolves XLinks, selects Representations per caller preference,
// synthesizes and fetches their segments concurrently, and hands the
// assembled tracks to an external muxer.
//
// The Downloader is built with a chain of With*/option methods in the
// teacher's explicit-constructor idiom (dash.NewClient, dash.NewDownloader
// take named parameters rather than a struct literal), generalized here
// into a fluent builder because spec.md §4.I's option set is too large for
// positional parameters.
package dashmpd

import (
	"net/http"
	"time"

	"github.com/dash-mpd-go/dashmpd/assemble"
	"github.com/dash-mpd-go/dashmpd/fetch"
	"github.com/dash-mpd-go/dashmpd/logger"
	"github.com/dash-mpd-go/dashmpd/selection"
)

// DecryptionKey is one (kid, key) pair registered via AddDecryptionKey,
// passed through to a decryptor collaborator the way the teacher's
// config.Channel.Key is decoded from a "kid:key" hex pair and handed to
// its session.
type DecryptionKey struct {
	KID string
	Key []byte
}

// ProgressObserver receives coarse progress notifications during a
// download: segmentsDone out of segmentsTotal fetched so far.
type ProgressObserver func(segmentsDone, segmentsTotal int)

// Downloader accumulates every option in spec.md §4.I before Download is
// called; it is not safe for concurrent configuration (build it once, then
// call Download, matching the teacher's pattern of a fully-constructed,
// immutable-after-setup *Downloader / *Client).
type Downloader struct {
	quality      selection.Quality
	selectOpts   selection.Options
	allowLive    bool
	forceDur     time.Duration
	baseURL      string
	httpClient   *http.Client
	authUser     string
	authPass     string
	rateLimit    float64
	maxErrors    int
	verbosity    string
	saveFragsTo  string
	keepAudioAs  string
	keepVideoAs  string
	muxers       []assemble.Muxer
	decryptors   []string
	xsltStyle    string
	decryptKeys  []DecryptionKey
	observers    []ProgressObserver
	skipCTChecks bool
	sleepBetween time.Duration
	sandbox      bool
	logger       logger.Logger
}

// NewDownloader returns a Downloader with spec.md §4.I's documented
// defaults: fetch everything at QualityAll, max_error_count 10, no rate
// limit, dynamic manifests rejected.
func NewDownloader() *Downloader {
	return &Downloader{
		quality:    selection.QualityAll,
		selectOpts: selection.DefaultOptions(),
		maxErrors:  10,
		verbosity:  "info",
		muxers:     []assemble.Muxer{assemble.FFmpegMuxer(""), assemble.MP4BoxMuxer("")},
		logger:     logger.Nop(),
	}
}

// BestQuality keeps only the highest-bandwidth Representation per
// AdaptationSet.
func (d *Downloader) BestQuality() *Downloader { d.quality = selection.QualityBest; return d }

// WorstQuality keeps only the lowest-bandwidth Representation.
func (d *Downloader) WorstQuality() *Downloader { d.quality = selection.QualityWorst; return d }

// IntermediateQuality keeps the middle-ranked Representation by bandwidth.
func (d *Downloader) IntermediateQuality() *Downloader {
	d.quality = selection.QualityIntermediate
	return d
}

// PreferVideoWidth selects the Representation whose @width is closest to
// w, breaking ties by bandwidth. Stands on its own (no other quality call
// is required); calling BestQuality/WorstQuality/IntermediateQuality
// afterward overrides it, and vice versa.
func (d *Downloader) PreferVideoWidth(w uint64) *Downloader {
	d.selectOpts.PreferWidth = &w
	d.quality = selection.QualityPreferWidth
	return d
}

// PreferVideoHeight is PreferVideoWidth's @height counterpart.
func (d *Downloader) PreferVideoHeight(h uint64) *Downloader {
	d.selectOpts.PreferHeight = &h
	d.quality = selection.QualityPreferHeight
	return d
}

// PreferLanguage sets the preferred BCP-47 language for audio and
// subtitle AdaptationSet selection.
func (d *Downloader) PreferLanguage(lang string) *Downloader {
	d.selectOpts.PreferLanguages = []string{lang}
	return d
}

// PreferRoles sets the ordered Role @value preference list.
func (d *Downloader) PreferRoles(roles []string) *Downloader {
	d.selectOpts.PreferRoles = roles
	return d
}

// FetchAudio toggles whether audio AdaptationSets are selected at all.
func (d *Downloader) FetchAudio(v bool) *Downloader { d.selectOpts.FetchAudio = v; return d }

// FetchVideo toggles whether video AdaptationSets are selected at all.
func (d *Downloader) FetchVideo(v bool) *Downloader { d.selectOpts.FetchVideo = v; return d }

// FetchSubtitles toggles whether text/subtitle AdaptationSets are
// selected at all.
func (d *Downloader) FetchSubtitles(v bool) *Downloader { d.selectOpts.FetchSubtitles = v; return d }

// VideoOnly restricts selection to video AdaptationSets exclusively.
func (d *Downloader) VideoOnly() *Downloader { d.selectOpts.VideoOnly = true; return d }

// AudioOnly restricts selection to audio AdaptationSets exclusively.
func (d *Downloader) AudioOnly() *Downloader { d.selectOpts.AudioOnly = true; return d }

// AllowLiveStreams permits downloading dynamic (live) MPDs, which are
// rejected by default.
func (d *Downloader) AllowLiveStreams(v bool) *Downloader { d.allowLive = v; return d }

// ForceDuration makes dur the duration of every Period when its segments
// are counted, overriding what the manifest states, for static and dynamic
// manifests alike. It bounds each Period separately; the total across
// Periods is not capped.
func (d *Downloader) ForceDuration(dur time.Duration) *Downloader { d.forceDur = dur; return d }

// WithBaseURL replaces the manifest's MPD-level BaseURL with u before
// segment URLs are resolved; Period, AdaptationSet and Representation
// BaseURLs still resolve against it.
func (d *Downloader) WithBaseURL(u string) *Downloader { d.baseURL = u; return d }

// WithHTTPClient supplies a caller-constructed *http.Client (custom
// transport, TLS config, proxy, etc).
func (d *Downloader) WithHTTPClient(c *http.Client) *Downloader { d.httpClient = c; return d }

// WithAuthentication sets HTTP basic-auth credentials applied to every
// request this Downloader issues.
func (d *Downloader) WithAuthentication(user, pass string) *Downloader {
	d.authUser, d.authPass = user, pass
	return d
}

// WithRateLimit limits segment requests to requestsPerSec per second. The
// limit counts requests, not bytes. Each track's fetch run gets its own
// limiter, shared by that run's workers.
func (d *Downloader) WithRateLimit(requestsPerSec float64) *Downloader {
	d.rateLimit = requestsPerSec
	return d
}

// MaxErrorCount sets the retry budget per segment (default 10).
func (d *Downloader) MaxErrorCount(n int) *Downloader { d.maxErrors = n; return d }

// Verbosity sets the log level ("debug", "info", "warn", "error").
func (d *Downloader) Verbosity(level string) *Downloader {
	d.verbosity = level
	d.logger = logger.New(level)
	return d
}

// SaveFragmentsTo places the session scratch directory (dashmpd-<uuid>,
// holding one file per Representation, <rep id>.mp4, with its segments
// concatenated) under dir and keeps it after muxing. Segments are not
// stored as individual files.
func (d *Downloader) SaveFragmentsTo(dir string) *Downloader { d.saveFragsTo = dir; return d }

// KeepAudioAs additionally copies the assembled audio track to path.
func (d *Downloader) KeepAudioAs(path string) *Downloader { d.keepAudioAs = path; return d }

// KeepVideoAs additionally copies the assembled video track to path.
func (d *Downloader) KeepVideoAs(path string) *Downloader { d.keepVideoAs = path; return d }

// WithMuxerPreference overrides the default ffmpeg-then-MP4Box preference
// list with a single named tool at an explicit binary path.
func (d *Downloader) WithMuxerPreference(container, toolPath string) *Downloader {
	switch container {
	case "mp4box":
		d.muxers = []assemble.Muxer{assemble.MP4BoxMuxer(toolPath)}
	default:
		d.muxers = []assemble.Muxer{assemble.FFmpegMuxer(toolPath)}
	}
	return d
}

// WithDecryptorPreference records the name of an external decryption tool.
// Download does not invoke any decryptor, and the core never decrypts
// in-process.
func (d *Downloader) WithDecryptorPreference(tool string) *Downloader {
	d.decryptors = append(d.decryptors, tool)
	return d
}

// WithXSLTStylesheet records the path of an XSLT stylesheet. The core has
// no XSLT engine, and Download applies no transform to the manifest.
func (d *Downloader) WithXSLTStylesheet(path string) *Downloader { d.xsltStyle = path; return d }

// AddDecryptionKey registers one (kid, key) pair, mirroring how the
// teacher's config.LoadConfig decodes a "kid:key" hex pair per channel.
func (d *Downloader) AddDecryptionKey(kid string, key []byte) *Downloader {
	d.decryptKeys = append(d.decryptKeys, DecryptionKey{KID: kid, Key: key})
	return d
}

// AddProgressObserver registers a callback invoked once per track, after
// all of that track's segments have been fetched.
func (d *Downloader) AddProgressObserver(obs ProgressObserver) *Downloader {
	d.observers = append(d.observers, obs)
	return d
}

// WithoutContentTypeChecks records that Content-Type checks are off.
// Download compares no response Content-Type with the declared mimeType
// whether or not this is set.
func (d *Downloader) WithoutContentTypeChecks() *Downloader { d.skipCTChecks = true; return d }

// SleepBetweenRequests sleeps for dur once after each track's segments have
// been fetched, irrespective of with_rate_limit. Individual segment
// requests within a track are not spaced out.
func (d *Downloader) SleepBetweenRequests(dur time.Duration) *Downloader {
	d.sleepBetween = dur
	return d
}

// Sandbox records the sandbox flag. Download does not read it and applies
// no origin restriction to BaseURL or XLink targets.
func (d *Downloader) Sandbox(v bool) *Downloader { d.sandbox = v; return d }

func (d *Downloader) rateLimiter() *fetch.RateLimiter { return fetch.NewRateLimiter(d.rateLimit) }

func (d *Downloader) httpClientOrDefault() *http.Client {
	if d.httpClient != nil {
		return d.httpClient
	}
	return http.DefaultClient
}
