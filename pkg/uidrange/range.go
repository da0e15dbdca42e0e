// Package uidrange provides the closed UID interval used to bound a search,
// together with merging and threshold splitting of interval sets.
package uidrange

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrInvalidRange is returned when a range's start is greater than its end.
	ErrInvalidRange = errors.New("invalid UID range")

	// ErrDisjoint is returned when merging two ranges that do not overlap.
	ErrDisjoint = errors.New("UID ranges do not overlap")
)

// DefaultThreshold is the UID magnitude at which ranges are split before
// compilation.
const DefaultThreshold uint64 = 10_000_000_000

// MaxUID is the largest UID searched when no range is given.
const MaxUID uint64 = 9_999_999_999_999_999

// All returns the default search space [1, MaxUID].
func All() []Range {
	return []Range{{start: 1, end: MaxUID}}
}

// Range is an immutable closed interval [Start, End] of UIDs.
type Range struct {
	start uint64
	end   uint64
}

// New returns the range [start, end].
func New(start, end uint64) (Range, error) {
	if start > end {
		return Range{}, fmt.Errorf("%w: start %d is greater than end %d",
			ErrInvalidRange, start, end)
	}
	return Range{start: start, end: end}, nil
}

// MustNew is like New but panics on an invalid range. It is intended for
// fixtures and constants.
func MustNew(start, end uint64) Range {
	r, err := New(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

// Start returns the first UID of the range.
func (r Range) Start() uint64 { return r.start }

// End returns the last UID of the range.
func (r Range) End() uint64 { return r.end }

// Contains reports whether uid lies inside the range.
func (r Range) Contains(uid uint64) bool {
	return r.start <= uid && uid <= r.end
}

// Size returns the number of UIDs in the range. A range covering every
// uint64 saturates at the maximum value.
func (r Range) Size() uint64 {
	n := r.end - r.start
	if n == ^uint64(0) {
		return n
	}
	return n + 1
}

// Overlaps reports whether r and other share at least one UID.
func (r Range) Overlaps(other Range) bool {
	return r.start <= other.end && other.start <= r.end
}

// Merge returns the smallest range covering both r and other. The ranges
// must overlap.
func (r Range) Merge(other Range) (Range, error) {
	if !r.Overlaps(other) {
		return Range{}, fmt.Errorf("%w: %s and %s", ErrDisjoint, r, other)
	}
	return Range{start: min(r.start, other.start), end: max(r.end, other.end)}, nil
}

// String renders the range as "[start, end]".
func (r Range) String() string {
	return fmt.Sprintf("[%d, %d]", r.start, r.end)
}

// Merge coalesces ranges into a sorted set of pairwise non-overlapping ranges
// with the same union. The input slice is left untouched.
func Merge(ranges []Range) []Range {
	if len(ranges) == 0 {
		return []Range{}
	}

	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].start < sorted[j].start
	})

	merged := []Range{sorted[0]}
	for _, next := range sorted[1:] {
		last := &merged[len(merged)-1]
		if next.start <= last.end {
			last.end = max(last.end, next.end)
			continue
		}
		merged = append(merged, next)
	}

	return merged
}

// SplitAt splits every range straddling threshold into the part below it and
// the part at or above it. Other ranges are passed through unchanged.
func SplitAt(ranges []Range, threshold uint64) []Range {
	out := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if threshold > 0 && r.start < threshold && r.end >= threshold {
			out = append(out,
				Range{start: r.start, end: threshold - 1},
				Range{start: threshold, end: r.end},
			)
			continue
		}
		out = append(out, r)
	}
	return out
}
