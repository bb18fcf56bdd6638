// Command coalesce runs the timeline engine over a YAML fixture and prints
// the coalesced events as JSON. It needs no database, broker or cache.
//
//	coalesce -in events.yaml [-slop 10] [-pretty]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"
	"uptimeline/pkg/httpclient"
	"uptimeline/pkg/timeline"

	"github.com/rs/zerolog"
)

type output struct {
	Window       Window                        `json:"window"`
	IntervalSlop int64                         `json:"interval_slop"`
	InputEvents  int                           `json:"input_events"`
	Timeline     []timeline.MultiLocationEvent `json:"timeline"`
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, &log); err != nil {
		log.Error().Err(err).Msg("coalesce failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, log *zerolog.Logger) error {
	fs := flag.NewFlagSet("coalesce", flag.ContinueOnError)
	in := fs.String("in", "", "fixture file, http(s) URL, or - for stdin")
	slop := fs.Int64("slop", -1, "interval slop multiplier; overrides the fixture, negative keeps it")
	pretty := fs.Bool("pretty", false, "indent the JSON output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fixture, err := loadFixture(ctx, *in, httpclient.New(30*time.Second))
	if err != nil {
		return err
	}

	effective := timeline.DefaultIntervalSlop
	if fixture.IntervalSlop != nil {
		effective = *fixture.IntervalSlop
	}
	if *slop >= 0 {
		effective = *slop
	}

	began := time.Now()
	tl := timeline.New(fixture.Events, fixture.Window.Start, fixture.Window.End, timeline.WithIntervalSlop(effective))
	events := tl.Events()

	log.Debug().
		Int("input_events", tl.Len()).
		Int("output_events", len(events)).
		Int64("interval_slop", tl.IntervalSlop()).
		Dur("took", time.Since(began)).
		Msg("timeline coalesced")

	enc := json.NewEncoder(stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(output{
		Window:       fixture.Window,
		IntervalSlop: tl.IntervalSlop(),
		InputEvents:  tl.Len(),
		Timeline:     events,
	}); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
