// Package shareurl extracts the UID hash embedded in video page and share
// links.
//
// A logged-in web client appends vd_source, the MD5 of the viewer's UID, to
// video links. Links produced by the share button also carry
// share_source=copy_web and hash the standard encoding; links copied from
// the address bar hash the non-standard encoding.
package shareurl

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp-forge/uidcrack/pkg/digits"
)

const (
	hashParam        = "vd_source"
	shareSourceParam = "share_source"
	webShareSource   = "copy_web"
)

// ErrNotCrackable is returned for links without a valid vd_source hash.
var ErrNotCrackable = errors.New("url has no crackable vd_source")

// Link is the crackable part of a video link.
type Link struct {
	Hash     string
	Encoding digits.Encoding
}

// Parse extracts the hash and its encoding from raw.
func Parse(raw string) (Link, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Link{}, fmt.Errorf("%w: %w", ErrNotCrackable, err)
	}

	q := u.Query()
	hash := q.Get(hashParam)
	if hash == "" {
		return Link{}, fmt.Errorf("%w: missing %s", ErrNotCrackable, hashParam)
	}
	if err := digits.ValidateHash(hash); err != nil {
		return Link{}, fmt.Errorf("%w: %w", ErrNotCrackable, err)
	}

	link := Link{
		Hash:     digits.NormalizeHash(hash),
		Encoding: digits.NonStandard,
	}
	if IsWebShare(u) {
		link.Encoding = digits.Standard
	}
	return link, nil
}

// IsWebShare reports whether u was produced by the web share button.
func IsWebShare(u *url.URL) bool {
	return u.Query().Get(shareSourceParam) == webShareSource
}
