// Package report writes the YAML summary of a crack run.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/hashicorp-forge/uidcrack/pkg/cracker"
	"github.com/hashicorp-forge/uidcrack/pkg/digits"
)

const (
	notFound = "NotFound"
	unknown  = "Unknown"
)

// ErrIsDirectory is returned when the report path names a directory.
var ErrIsDirectory = errors.New("report path is a directory")

// Report is the document written for a run. UID and IsStandardMD5 hold
// placeholders when nothing was found.
type Report struct {
	MD5            string   `yaml:"MD5"`
	UID            any      `yaml:"UID"`
	IsStandardMD5  any      `yaml:"IsStandardMD5"`
	Engine         string   `yaml:"Engine,omitempty"`
	Cached         bool     `yaml:"Cached,omitempty"`
	Elapsed        string   `yaml:"Elapsed"`
	RunID          string   `yaml:"RunID"`
	TriedUidRanges []string `yaml:"TriedUidRanges,omitempty"`
}

// New builds the report for res.
func New(res cracker.Result) Report {
	r := Report{
		MD5:           res.Hash,
		UID:           notFound,
		IsStandardMD5: unknown,
		Elapsed:       FormatElapsed(res.Elapsed),
		RunID:         res.RunID,
	}

	if res.Found {
		r.UID = res.UID
		r.IsStandardMD5 = res.Encoding == digits.Standard
		r.Engine = string(res.Engine)
		r.Cached = res.Cached
		return r
	}

	for _, rng := range res.Tried {
		r.TriedUidRanges = append(r.TriedUidRanges, rng.String())
	}
	return r
}

// Marshal renders the report as YAML.
func (r Report) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("error encoding report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("error encoding report: %w", err)
	}
	return buf.Bytes(), nil
}

// Write renders r to path on fs, creating parent directories.
func Write(fs afero.Fs, path string, r Report) error {
	if fi, err := fs.Stat(path); err == nil && fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}

	data, err := r.Marshal()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating report directory: %w", err)
		}
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("error writing report: %w", err)
	}
	return nil
}

// FormatElapsed renders d as HH:MM:SS.mmm.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d.%03d",
		ms/3_600_000,
		ms/60_000%60,
		ms/1000%60,
		ms%1000,
	)
}
