// Package mask compiles a UID range into the positional masks a brute-force
// engine enumerates.
//
// Every UID in the range is generated by at least one block. With
// StrategyLookahead the blocks may also generate values outside the range;
// StrategyExact generates the range and nothing else. Both emit a number of
// blocks proportional to the number of digits, not to the size of the range.
package mask

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp-forge/uidcrack/pkg/digits"
	"github.com/hashicorp-forge/uidcrack/pkg/uidrange"
)

// Strategy selects the decomposition algorithm.
type Strategy int

const (
	// StrategyExact recursively decomposes the range digit by digit.
	StrategyExact Strategy = iota
	// StrategyLookahead inspects only the digit right of the pivot and treats
	// every deeper digit as free.
	StrategyLookahead
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyExact:
		return "exact"
	case StrategyLookahead:
		return "lookahead"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy parses a strategy name as produced by String.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return StrategyExact, nil
	case "lookahead":
		return StrategyLookahead, nil
	default:
		return 0, fmt.Errorf("unknown mask strategy %q", s)
	}
}

// shape is the encoding-independent form of a block: literal digits, an
// optional bounded digit, then free digits.
type shape struct {
	prefix   string
	hasBound bool
	lo, hi   byte
	free     int
}

// Compile decomposes r into mask blocks for the given encoding.
func Compile(r uidrange.Range, enc digits.Encoding, strategy Strategy) Blocks {
	s := strconv.FormatUint(r.Start(), 10)
	e := strconv.FormatUint(r.End(), 10)

	var shapes []shape
	switch {
	case len(s) < len(e) && strategy == StrategyLookahead:
		shapes = lookaheadByLength(s, e)
	case len(s) < len(e):
		shapes = exactByLength(s, e)
	case strategy == StrategyLookahead:
		shapes = lookahead(s, e)
	default:
		shapes = exact("", s, e, nil)
	}

	blocks := make(Blocks, 0, len(shapes))
	for _, sh := range shapes {
		blocks = append(blocks, sh.block(enc))
	}
	return blocks
}

func (sh shape) block(enc digits.Encoding) Block {
	tokens := make([]Token, 0, len(sh.prefix)+1+sh.free)
	for i := 0; i < len(sh.prefix); i++ {
		tokens = append(tokens, Token{Kind: Literal, Digit: sh.prefix[i] - '0'})
	}

	b := Block{Encoding: enc}
	if sh.hasBound {
		tokens = append(tokens, Token{Kind: BoundedDigit})
		b.Bound = DigitSet{Lo: sh.lo, Hi: sh.hi}
	}
	for i := 0; i < sh.free; i++ {
		tokens = append(tokens, Token{Kind: AnyDigit})
	}
	b.Tokens = tokens
	return b
}

func bounded(prefix string, lo, hi byte, free int) shape {
	return shape{prefix: prefix, hasBound: true, lo: lo, hi: hi, free: free}
}

// pivot returns the first index at which s and e differ, or the last index
// when they are equal. Both must have the same length.
func pivot(s, e string) int {
	for i := 0; i < len(e); i++ {
		if s[i] != e[i] {
			return i
		}
	}
	return len(e) - 1
}

// lookahead handles start and end of equal length using a single digit of
// look-ahead past the pivot.
func lookahead(s, e string) []shape {
	i := pivot(s, e)
	prefix := e[:i]
	lo, hi := s[i]-'0', e[i]-'0'
	suffixLen := len(e) - i - 1

	if suffixLen == 0 {
		return []shape{bounded(prefix, lo, hi, 0)}
	}

	a, b := s[i+1]-'0', e[i+1]-'0'
	midLo, midHi := lo, hi

	var shapes []shape
	if a != 0 {
		shapes = append(shapes, bounded(prefix+string('0'+lo), a, 9, suffixLen-1))
		midLo++
	}
	if b != 9 {
		midHi--
	}
	if midLo <= midHi {
		shapes = append(shapes, bounded(prefix, midLo, midHi, suffixLen))
	}
	if b != 9 {
		shapes = append(shapes, bounded(prefix+string('0'+hi), 0, b, suffixLen-1))
	}
	return shapes
}

// lookaheadByLength handles an end with more digits than the start: the
// start's length from its leading digit up, every intermediate length, then
// the end's length up to its leading digit.
func lookaheadByLength(s, e string) []shape {
	shapes := []shape{bounded("", s[0]-'0', 9, len(s)-1)}
	for n := len(s) + 1; n < len(e); n++ {
		shapes = append(shapes, bounded("", 1, 9, n-1))
	}
	return append(shapes, bounded("", 1, e[0]-'0', len(e)-1))
}

// exact appends the shapes covering exactly [s, e] behind prefix. s and e
// have equal length.
func exact(prefix, s, e string, shapes []shape) []shape {
	if s == e {
		return append(shapes, shape{prefix: prefix + s})
	}

	i := pivot(s, e)
	p := prefix + s[:i]
	lo, hi := s[i]-'0', e[i]-'0'
	suffixLen := len(s) - i - 1

	if suffixLen == 0 {
		return append(shapes, bounded(p, lo, hi, 0))
	}

	sTail, eTail := s[i+1:], e[i+1:]
	midLo, midHi := lo, hi

	if !allOf(sTail, '0') {
		shapes = exact(p+string('0'+lo), sTail, strings.Repeat("9", suffixLen), shapes)
		midLo++
	}
	endEdge := !allOf(eTail, '9')
	if endEdge {
		midHi--
	}
	if midLo <= midHi {
		shapes = append(shapes, bounded(p, midLo, midHi, suffixLen))
	}
	if endEdge {
		shapes = exact(p+string('0'+hi), strings.Repeat("0", suffixLen), eTail, shapes)
	}
	return shapes
}

func exactByLength(s, e string) []shape {
	shapes := exact("", s, strings.Repeat("9", len(s)), nil)
	for n := len(s) + 1; n < len(e); n++ {
		shapes = append(shapes, bounded("", 1, 9, n-1))
	}
	return exact("", "1"+strings.Repeat("0", len(e)-1), e, shapes)
}

func allOf(s string, c byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != c {
			return false
		}
	}
	return true
}
