package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"uptimeline/pkg/timeline"

	"gopkg.in/yaml.v3"
)

const maxFixtureBytes = 32 << 20

type Window struct {
	Start int64 `yaml:"start" json:"start"`
	End   int64 `yaml:"end" json:"end"`
}

// Fixture is the offline input: a query window and the raw location events
// inside it. IntervalSlop is optional.
type Fixture struct {
	Window       Window                   `yaml:"window"`
	IntervalSlop *int64                   `yaml:"interval_slop"`
	Events       []timeline.LocationEvent `yaml:"events"`
}

func parseFixture(data []byte) (Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	if f.Window.Start > f.Window.End {
		return Fixture{}, fmt.Errorf("window start %d is after end %d", f.Window.Start, f.Window.End)
	}
	for i, e := range f.Events {
		if e.Location == "" {
			return Fixture{}, fmt.Errorf("event %d: location is required", i)
		}
		if e.Start > e.End {
			return Fixture{}, fmt.Errorf("event %d: start %d after end %d", i, e.Start, e.End)
		}
	}
	return f, nil
}

// loadFixture reads src from disk, stdin ("-"), or an http(s) URL.
func loadFixture(ctx context.Context, src string, client *http.Client) (Fixture, error) {
	var data []byte
	var err error

	switch {
	case src == "":
		return Fixture{}, errors.New("no input given")
	case src == "-":
		data, err = io.ReadAll(io.LimitReader(os.Stdin, maxFixtureBytes))
	case strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://"):
		data, err = fetch(ctx, client, src)
	default:
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return Fixture{}, fmt.Errorf("read %s: %w", src, err)
	}
	return parseFixture(data)
}

func fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/yaml, text/yaml, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxFixtureBytes))
}
