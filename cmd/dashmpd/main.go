// Command dashmpd downloads a DASH presentation to a single muxed file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	dashmpd "github.com/dash-mpd-go/dashmpd"
)

func main() {
	// 1. Parse command-line arguments
	output := flag.String("o", "out.mp4", "Output file path")
	quality := flag.String("quality", "best", "best, worst, intermediate, or all")
	lang := flag.String("lang", "", "Preferred audio/subtitle language")
	videoOnly := flag.Bool("video-only", false, "Fetch video tracks only")
	audioOnly := flag.Bool("audio-only", false, "Fetch audio tracks only")
	allowLive := flag.Bool("allow-live", false, "Permit downloading dynamic (live) manifests")
	rateLimit := flag.Float64("rate-limit", 0, "Segment requests/sec rate limit, 0 for unlimited")
	maxErrors := flag.Int("max-errors", 10, "Maximum per-segment retry budget")
	verbosity := flag.String("v", "info", "Log level (debug, info, warn, error)")
	saveFragments := flag.String("save-fragments-to", "", "Keep the per-track scratch files under this directory")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: dashmpd [flags] <manifest-url>")
		os.Exit(2)
	}
	manifestURL := flag.Arg(0)

	d := dashmpd.NewDownloader().
		Verbosity(*verbosity).
		AllowLiveStreams(*allowLive).
		WithRateLimit(*rateLimit).
		MaxErrorCount(*maxErrors).
		SaveFragmentsTo(*saveFragments)

	switch *quality {
	case "best":
		d = d.BestQuality()
	case "worst":
		d = d.WorstQuality()
	case "intermediate":
		d = d.IntermediateQuality()
	}
	if *lang != "" {
		d = d.PreferLanguage(*lang)
	}
	if *videoOnly {
		d = d.VideoOnly()
	}
	if *audioOnly {
		d = d.AudioOnly()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	res, err := d.Download(ctx, manifestURL, *output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "download failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(res.OutputPath)
}
