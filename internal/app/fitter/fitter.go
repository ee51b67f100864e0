// Package fitter selects a subset of tracks whose summed duration lands as
// close as possible to a requested target.
//
// Selection is a bounded subset-sum over a map of reachable durations, each
// holding the fewest-track selection that reaches it. Sums above
// target + 2*tolerance are never kept. The winner minimises the distance to
// the target; ties prefer under-shoot, then fewer tracks. The fitter holds
// no state between calls and performs no I/O.
package fitter

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/fitbox/internal/domain/track"
)

// ErrInvalidArgument marks errors caused by a negative target or tolerance.
var ErrInvalidArgument = errors.New("invalid argument")

// DefaultMaxStates is the default cap on the number of reachable durations.
const DefaultMaxStates = 100000

// Option configures a single Fit call.
type Option func(*options)

type options struct {
	maxCandidates int
	maxStates     int
}

// WithMaxCandidates caps the pool to the first n usable tracks. Zero means no cap.
func WithMaxCandidates(n int) Option {
	return func(o *options) {
		o.maxCandidates = n
	}
}

// WithMaxStates caps the number of reachable durations kept while folding.
// Zero means no cap.
func WithMaxStates(n int) Option {
	return func(o *options) {
		o.maxStates = n
	}
}

// selection is a persistent linked list of chosen candidate indexes, newest first.
type selection struct {
	prev  *selection
	index int
}

// entry is the best known way to reach one duration.
type entry struct {
	sel   *selection
	count int
}

// Fit selects tracks whose total duration best approximates target.
func Fit(tracks []track.Track, target, tolerance time.Duration, opts ...Option) (*Result, error) {
	return FitContext(context.Background(), tracks, target, tolerance, opts...)
}

// FitContext is Fit with cancellation checked between tracks.
func FitContext(ctx context.Context, tracks []track.Track, target, tolerance time.Duration, opts ...Option) (*Result, error) {
	if target < 0 {
		return nil, errors.Mark(errors.Newf("target duration must be non-negative, got %v", target), ErrInvalidArgument)
	}
	if tolerance < 0 {
		return nil, errors.Mark(errors.Newf("tolerance must be non-negative, got %v", tolerance), ErrInvalidArgument)
	}

	o := options{maxStates: DefaultMaxStates}
	for _, opt := range opts {
		opt(&o)
	}

	bound := PruningBound(target, tolerance)
	candidates, skipped := usable(tracks, bound)

	truncated := false
	if o.maxCandidates > 0 && len(candidates) > o.maxCandidates {
		candidates = candidates[:o.maxCandidates]
		truncated = true
	}

	reachable := map[time.Duration]entry{0: {}}
	for i, t := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "fit cancelled")
		}
		if fold(reachable, i, t.Duration, target, bound, o.maxStates) {
			truncated = true
		}
	}

	best, bestEntry := closest(reachable, target)

	selected := make([]track.Track, bestEntry.count)
	var total time.Duration
	pos := bestEntry.count - 1
	for s := bestEntry.sel; s != nil; s = s.prev {
		selected[pos] = candidates[s.index]
		total += candidates[s.index].Duration
		pos--
	}
	if total != best {
		// unreachable: every key is the sum of its own chain
		return nil, errors.AssertionFailedf("selection sums to %v, expected %v", total, best)
	}

	return &Result{
		Tracks:         selected,
		TotalDuration:  total,
		TargetDuration: target,
		Tolerance:      tolerance,
		Skipped:        skipped,
		Truncated:      truncated,
	}, nil
}

// PruningBound returns target + 2*tolerance, saturating instead of overflowing.
func PruningBound(target, tolerance time.Duration) time.Duration {
	const maxDuration = time.Duration(math.MaxInt64)
	if tolerance > (maxDuration-target)/2 {
		return maxDuration
	}
	return target + 2*tolerance
}

// usable drops tracks with a negative duration or one that exceeds bound on its own.
func usable(tracks []track.Track, bound time.Duration) ([]track.Track, int) {
	candidates := make([]track.Track, 0, len(tracks))
	skipped := 0
	for _, t := range tracks {
		if t.Duration < 0 || t.Duration > bound {
			skipped++
			continue
		}
		candidates = append(candidates, t)
	}
	return candidates, skipped
}

// fold adds candidate index (of length d) to every duration reachable before
// this call. It reports whether the state cap discarded any new duration.
func fold(reachable map[time.Duration]entry, index int, d, target, bound time.Duration, maxStates int) bool {
	type change struct {
		duration time.Duration
		from     entry
	}

	var replaced, added []change
	for sum, e := range reachable {
		if d > bound-sum {
			continue
		}
		next := sum + d
		existing, ok := reachable[next]
		switch {
		case !ok:
			added = append(added, change{duration: next, from: e})
		case existing.count > e.count+1:
			replaced = append(replaced, change{duration: next, from: e})
		}
	}

	truncated := false
	if maxStates > 0 && len(reachable)+len(added) > maxStates {
		room := maxStates - len(reachable)
		if room <= 0 {
			added = nil
		} else {
			sort.Slice(added, func(i, j int) bool {
				return ranksBefore(added[i].duration, added[j].duration, target)
			})
			added = added[:room]
		}
		truncated = true
	}

	for _, c := range replaced {
		reachable[c.duration] = extend(c.from, index)
	}
	for _, c := range added {
		reachable[c.duration] = extend(c.from, index)
	}
	return truncated
}

func extend(from entry, index int) entry {
	return entry{
		sel:   &selection{prev: from.sel, index: index},
		count: from.count + 1,
	}
}

// closest picks the reachable duration nearest to target.
func closest(reachable map[time.Duration]entry, target time.Duration) (time.Duration, entry) {
	best, bestEntry := time.Duration(0), reachable[0]
	for d, e := range reachable {
		// each duration holds its fewest-track selection already
		if ranksBefore(d, best, target) {
			best, bestEntry = d, e
		}
	}
	return best, bestEntry
}

// ranksBefore orders durations by distance to target, then under-shoot first,
// then shorter. Distinct durations are never equal under this order.
func ranksBefore(a, b, target time.Duration) bool {
	da, db := distance(a, target), distance(b, target)
	if da != db {
		return da < db
	}
	underA, underB := a <= target, b <= target
	if underA != underB {
		return underA
	}
	return a < b
}

func distance(d, target time.Duration) time.Duration {
	if d > target {
		return d - target
	}
	return target - d
}
