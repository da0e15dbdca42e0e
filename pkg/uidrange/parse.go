package uidrange

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse parses a range written as "START-END", "START,END" or "START END".
// Digits may be grouped with underscores, as in "1_000_000". A single number
// yields a one-element range.
func Parse(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{}, fmt.Errorf("%w: empty range", ErrInvalidRange)
	}

	var lo, hi string
	if sep := strings.IndexAny(s, "-,"); sep >= 0 {
		lo, hi = s[:sep], s[sep+1:]
	} else if fields := strings.Fields(s); len(fields) == 2 {
		lo, hi = fields[0], fields[1]
	} else {
		uid, err := parseUID(s)
		if err != nil {
			return Range{}, err
		}
		return Range{start: uid, end: uid}, nil
	}

	start, err := parseUID(lo)
	if err != nil {
		return Range{}, err
	}
	end, err := parseUID(hi)
	if err != nil {
		return Range{}, err
	}

	return New(start, end)
}

func parseUID(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "_") || strings.HasSuffix(s, "_") || strings.Contains(s, "__") {
		return 0, fmt.Errorf("%w: %q is not a non-negative integer", ErrInvalidRange, s)
	}
	uid, err := strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a non-negative integer", ErrInvalidRange, s)
	}
	return uid, nil
}
