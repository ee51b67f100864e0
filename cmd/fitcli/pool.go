package main

import (
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/osa030/fitbox/internal/domain/track"
)

// Largest values that still fit in a time.Duration.
const (
	maxDurationMs      = int64(math.MaxInt64 / int64(time.Millisecond))
	maxDurationSeconds = int64(math.MaxInt64 / int64(time.Second))
	maxDurationMinutes = int64(math.MaxInt64 / int64(time.Minute))
)

// poolFile is a candidate pool stored as YAML or JSON.
type poolFile struct {
	TargetMinutes    int         `yaml:"target_minutes"`
	ToleranceSeconds *int        `yaml:"tolerance_seconds"`
	Tracks           []poolTrack `yaml:"tracks"`
}

type poolTrack struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Artists    []string `yaml:"artists"`
	Album      string   `yaml:"album"`
	DurationMs *int64   `yaml:"duration_ms"`
	Duration   string   `yaml:"duration"` // "m:ss" or "h:mm:ss"
	URI        string   `yaml:"uri"`
}

func loadPool(path string) (*poolFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read pool file")
	}
	return parsePool(data)
}

// parsePool decodes a pool. JSON input works because it is valid YAML.
func parsePool(data []byte) (*poolFile, error) {
	var pool poolFile
	if err := yaml.Unmarshal(data, &pool); err != nil {
		return nil, errors.Wrap(err, "failed to parse pool file")
	}
	if len(pool.Tracks) == 0 {
		return nil, errors.New("pool file has no tracks")
	}
	if pool.TargetMinutes < 0 || int64(pool.TargetMinutes) > maxDurationMinutes {
		return nil, errors.Newf("target_minutes %d out of range", pool.TargetMinutes)
	}
	if ts := pool.ToleranceSeconds; ts != nil && (*ts < 0 || int64(*ts) > maxDurationSeconds) {
		return nil, errors.Newf("tolerance_seconds %d out of range", *ts)
	}
	return &pool, nil
}

func (p *poolFile) tracks() ([]track.Track, error) {
	tracks := make([]track.Track, 0, len(p.Tracks))
	for i, pt := range p.Tracks {
		d, err := pt.duration()
		if err != nil {
			return nil, errors.Wrapf(err, "track %d (%s)", i+1, pt.ID)
		}
		id := pt.ID
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		tracks = append(tracks, track.Track{
			ID:       id,
			Name:     pt.Name,
			Artists:  pt.Artists,
			Album:    pt.Album,
			Duration: d,
			URI:      pt.URI,
		})
	}
	return tracks, nil
}

func (pt poolTrack) duration() (time.Duration, error) {
	if pt.DurationMs != nil {
		ms := *pt.DurationMs
		if ms > maxDurationMs || ms < -maxDurationMs {
			return 0, errors.Newf("duration_ms %d out of range", ms)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	if pt.Duration == "" {
		return 0, errors.New("duration_ms or duration is required")
	}
	return parseClock(pt.Duration)
}

// parseClock parses "m:ss" or "h:mm:ss".
func parseClock(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, errors.Newf("invalid duration %q", s)
	}

	var total time.Duration
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, errors.Newf("invalid duration %q", s)
		}
		if i > 0 && n >= 60 {
			return 0, errors.Newf("invalid duration %q", s)
		}
		if int64(total) > (maxDurationSeconds-int64(n))/60 {
			return 0, errors.Newf("duration %q out of range", s)
		}
		total = total*60 + time.Duration(n)
	}
	return total * time.Second, nil
}
