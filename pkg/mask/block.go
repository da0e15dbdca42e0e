package mask

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/hashicorp-forge/uidcrack/pkg/digits"
)

// TokenKind identifies what a single mask position generates.
type TokenKind int

const (
	// Literal is a fixed digit.
	Literal TokenKind = iota
	// BoundedDigit is a digit drawn from the block's bounded charset.
	BoundedDigit
	// AnyDigit is an unconstrained digit 0-9.
	AnyDigit
)

// PlaceholderKind is how a non-literal position is expressed in the mask
// file for a given encoding.
type PlaceholderKind int

const (
	// Bounded references the block's declared bounded charset.
	Bounded PlaceholderKind = iota
	// FreeDigitBuiltin uses the engine's built-in digit class.
	FreeDigitBuiltin
	// FreeDigitDeclared references a declared 0-9 charset, needed when no
	// built-in class exists for the encoding.
	FreeDigitDeclared
)

// Token is one position of a mask.
type Token struct {
	Kind TokenKind
	// Digit is the value of a Literal token.
	Digit byte
}

// DigitSet is the inclusive digit range [Lo, Hi] of a bounded placeholder.
type DigitSet struct {
	Lo, Hi byte
}

// Len returns the number of digits in the set.
func (s DigitSet) Len() uint64 {
	if s.Hi < s.Lo {
		return 0
	}
	return uint64(s.Hi-s.Lo) + 1
}

// Block is one mask with its declared charsets. Every block produced by the
// compiler is a literal prefix, at most one bounded position, then zero or
// more free positions.
type Block struct {
	Encoding digits.Encoding
	Tokens   []Token
	Bound    DigitSet
}

func (b Block) hasBound() bool {
	for _, t := range b.Tokens {
		if t.Kind == BoundedDigit {
			return true
		}
	}
	return false
}

// Mask renders the block's mask pattern.
func (b Block) Mask() string {
	d := dialectFor(b.Encoding)

	var sb strings.Builder
	for _, t := range b.Tokens {
		if t.Kind == Literal {
			sb.WriteString(d.literal(t.Digit))
			continue
		}
		sb.WriteString(d.symbol(d.placeholder(t.Kind)))
	}
	return sb.String()
}

// Charsets returns the declared charsets in declaration order: the any-digit
// charset first when the encoding needs one, then the bounded charset.
func (b Block) Charsets() []string {
	d := dialectFor(b.Encoding)

	var charsets []string
	if d.free == FreeDigitDeclared {
		charsets = append(charsets, d.charset(DigitSet{Lo: 0, Hi: 9}))
	}
	if b.hasBound() {
		charsets = append(charsets, d.charset(b.Bound))
	}
	return charsets
}

// Line renders the block as one mask-file line, without the newline.
func (b Block) Line() string {
	charsets := b.Charsets()
	if len(charsets) == 0 {
		return b.Mask()
	}
	return strings.Join(charsets, ",") + "," + b.Mask()
}

// Count returns the number of candidates the block generates.
func (b Block) Count() uint64 {
	n := uint64(1)
	for _, t := range b.Tokens {
		switch t.Kind {
		case BoundedDigit:
			n *= b.Bound.Len()
		case AnyDigit:
			n *= 10
		}
	}
	return n
}

// Expand yields every UID the block generates, in ascending order.
func (b Block) Expand() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		b.expand(0, 0, yield)
	}
}

func (b Block) expand(i int, acc uint64, yield func(uint64) bool) bool {
	if i == len(b.Tokens) {
		return yield(acc)
	}

	lo, hi := byte(0), byte(9)
	switch t := b.Tokens[i]; t.Kind {
	case Literal:
		lo, hi = t.Digit, t.Digit
	case BoundedDigit:
		lo, hi = b.Bound.Lo, b.Bound.Hi
	}
	for d := lo; d <= hi; d++ {
		if !b.expand(i+1, acc*10+uint64(d), yield) {
			return false
		}
	}
	return true
}

// String returns the mask-file line.
func (b Block) String() string {
	return b.Line()
}

// Blocks is the ordered output of a compilation.
type Blocks []Block

// Count returns the total number of candidates across all blocks.
func (bs Blocks) Count() uint64 {
	var n uint64
	for _, b := range bs {
		n += b.Count()
	}
	return n
}

// WriteTo writes the blocks in mask-file format, one line per block.
func (bs Blocks) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	for _, b := range bs {
		buf.WriteString(b.Line())
		buf.WriteByte('\n')
	}
	return buf.WriteTo(w)
}

// dialect resolves placeholder kinds and renders digits for one encoding.
type dialect struct {
	free    PlaceholderKind
	symbols map[PlaceholderKind]string
	format  string
}

var (
	standardDialect = dialect{
		free: FreeDigitBuiltin,
		symbols: map[PlaceholderKind]string{
			Bounded:          "?1",
			FreeDigitBuiltin: "?d",
		},
		format: "%d",
	}

	// Non-standard preimages are raw bytes 0x00-0x09, so every digit is
	// written as a two character hex code and the mask file is consumed
	// with --hex-charset.
	nonStandardDialect = dialect{
		free: FreeDigitDeclared,
		symbols: map[PlaceholderKind]string{
			FreeDigitDeclared: "?1",
			Bounded:           "?2",
		},
		format: "%02d",
	}
)

func dialectFor(enc digits.Encoding) dialect {
	if enc == digits.NonStandard {
		return nonStandardDialect
	}
	return standardDialect
}

func (d dialect) placeholder(k TokenKind) PlaceholderKind {
	if k == AnyDigit {
		return d.free
	}
	return Bounded
}

func (d dialect) symbol(k PlaceholderKind) string {
	return d.symbols[k]
}

func (d dialect) literal(digit byte) string {
	return fmt.Sprintf(d.format, digit)
}

func (d dialect) charset(s DigitSet) string {
	var sb strings.Builder
	for digit := s.Lo; digit <= s.Hi; digit++ {
		sb.WriteString(d.literal(digit))
	}
	return sb.String()
}
