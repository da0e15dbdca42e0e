// Package digits converts UIDs to and from the two byte encodings used as MD5
// preimages, and decodes the preimages reported by cracking engines.
//
// The standard encoding renders each decimal digit as its ASCII character, so
// UID 123 becomes the bytes 0x31 0x32 0x33. The non-standard encoding stores
// the digit value itself, so UID 123 becomes 0x01 0x02 0x03. Both place the
// digit in the low nibble of every byte, which is what Decode relies on.
package digits

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Encoding selects how a decimal digit is represented as a preimage byte.
type Encoding int

const (
	// Standard encodes digit d as the ASCII character '0'+d.
	Standard Encoding = iota
	// NonStandard encodes digit d as the raw byte d.
	NonStandard
)

// String returns the encoding name.
func (e Encoding) String() string {
	switch e {
	case Standard:
		return "standard"
	case NonStandard:
		return "non-standard"
	default:
		return fmt.Sprintf("encoding(%d)", int(e))
	}
}

// ParseEncoding parses an encoding name as produced by String.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard", "std", "s":
		return Standard, nil
	case "non-standard", "nonstandard", "ns":
		return NonStandard, nil
	default:
		return 0, fmt.Errorf("unknown encoding %q", s)
	}
}

// Sentinel is the UID reported at the result-file boundary when nothing was
// found.
const Sentinel int64 = -1

const (
	hexPrefix = "$HEX["
	hexSuffix = "]"
)

var (
	// ErrInvalidHash is returned for anything other than a 32 character
	// hexadecimal MD5 digest.
	ErrInvalidHash = errors.New("invalid MD5 hash")

	// ErrMalformedPreimage is returned when a reported preimage cannot be
	// turned back into a UID.
	ErrMalformedPreimage = errors.New("malformed preimage")

	md5Pattern = regexp.MustCompile(`^[a-f0-9]{32}$`)
)

// Encode renders uid as its decimal digits in the given encoding.
func Encode(uid uint64, enc Encoding) []byte {
	b := strconv.AppendUint(nil, uid, 10)
	if enc == NonStandard {
		for i := range b {
			b[i] -= '0'
		}
	}
	return b
}

// Decode recovers a UID from a preimage reported by an engine, either as a
// literal digit string or as "$HEX[...]". An empty report means nothing was
// found and is not an error.
func Decode(reported string) (uid uint64, found bool, err error) {
	reported = strings.TrimSpace(reported)
	if reported == "" {
		return 0, false, nil
	}

	text := reported
	if strings.HasPrefix(reported, hexPrefix) && strings.HasSuffix(reported, hexSuffix) {
		text, err = lowNibbles(reported[len(hexPrefix) : len(reported)-len(hexSuffix)])
		if err != nil {
			return 0, false, err
		}
	}

	uid, err = strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q", ErrMalformedPreimage, reported)
	}

	return uid, true, nil
}

// DecodeSentinel is Decode for callers that expect the result-file
// convention: the UID, or Sentinel when nothing usable was reported.
func DecodeSentinel(reported string) int64 {
	uid, found, err := Decode(reported)
	if err != nil || !found || uid > uint64(1<<63-1) {
		return Sentinel
	}
	return int64(uid)
}

// lowNibbles keeps the low nibble of every hex-encoded byte, giving back the
// decimal digit string for either encoding.
func lowNibbles(h string) (string, error) {
	raw, err := hex.DecodeString(h)
	if err != nil || len(raw) == 0 {
		return "", fmt.Errorf("%w: bad hex %q", ErrMalformedPreimage, h)
	}

	var sb strings.Builder
	sb.Grow(len(raw))
	for _, b := range raw {
		d := b & 0x0f
		if d > 9 {
			return "", fmt.Errorf("%w: byte 0x%02x is not a digit", ErrMalformedPreimage, b)
		}
		sb.WriteByte('0' + d)
	}
	return sb.String(), nil
}

// MD5 returns the lowercase hex MD5 digest of uid in the given encoding.
func MD5(uid uint64, enc Encoding) string {
	sum := md5.Sum(Encode(uid, enc))
	return hex.EncodeToString(sum[:])
}

// NormalizeHash lowercases and trims a hash string.
func NormalizeHash(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// ValidateHash checks that h is a 32 character hexadecimal MD5 digest. Upper
// case input is accepted; callers should pass it through NormalizeHash
// before handing it to an engine.
func ValidateHash(h string) error {
	if !md5Pattern.MatchString(strings.ToLower(h)) {
		return fmt.Errorf("%w: %q", ErrInvalidHash, h)
	}
	return nil
}
