// Package engine drives the external brute-force programs that search the
// compiled masks: hashcat and John the Ripper.
//
// Engines are described by a Spec (identity, executable location, version and
// supported encodings) that is located once and then injected; nothing in this
// package consults global state after discovery.
package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/Masterminds/semver/v3"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/uidcrack/pkg/digits"
	"github.com/hashicorp-forge/uidcrack/pkg/mask"
	"github.com/hashicorp-forge/uidcrack/pkg/uidrange"
)

// Kind identifies an engine implementation.
type Kind string

const (
	KindHashcat Kind = "hashcat"
	KindJohn    Kind = "john"
)

// Spec describes a located engine and what it can do.
type Spec struct {
	Kind      Kind
	Path      string
	Version   *semver.Version
	Encodings []digits.Encoding
}

// Supports reports whether the engine can crack preimages in enc.
func (s Spec) Supports(enc digits.Encoding) bool {
	for _, e := range s.Encodings {
		if e == enc {
			return true
		}
	}
	return false
}

// String returns "kind vX.Y.Z (path)".
func (s Spec) String() string {
	if s.Version == nil {
		return fmt.Sprintf("%s (%s)", s.Kind, s.Path)
	}
	return fmt.Sprintf("%s v%s (%s)", s.Kind, s.Version, s.Path)
}

// Job is one search over a single sub-range.
type Job struct {
	Hash     string
	Encoding digits.Encoding
	Range    uidrange.Range
	Blocks   mask.Blocks

	// BelowThreshold marks ranges under the split threshold, which some
	// engines run with a lighter workload.
	BelowThreshold bool
}

// Outcome is the result of a successful engine run.
type Outcome struct {
	UID   uint64
	Found bool
}

// Engine searches a job's masks for the target hash.
type Engine interface {
	Spec() Spec
	Crack(ctx context.Context, job Job) (Outcome, error)
}

// Options holds the runtime dependencies shared by all engines.
type Options struct {
	Runner  Runner       // Process runner (default: ExecRunner)
	Fs      afero.Fs     // Filesystem for temporary files (default: OS filesystem)
	TempDir string       // Directory for temporary files (default: os.TempDir())
	Stdout  io.Writer    // Engine output (default: discarded)
	Stderr  io.Writer    // Engine errors (default: discarded)
	GOOS    string       // Target OS (default: runtime.GOOS)
	Logger  hclog.Logger // Logger (optional)

	// hashcat
	BackendIgnoreCUDA bool
	WorkloadProfile   int // default: 4
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = hclog.NewNullLogger()
	}
	if o.Runner == nil {
		o.Runner = ExecRunner{Logger: o.Logger}
	}
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.TempDir == "" {
		o.TempDir = os.TempDir()
	}
	if o.Stdout == nil {
		o.Stdout = io.Discard
	}
	if o.Stderr == nil {
		o.Stderr = io.Discard
	}
	if o.GOOS == "" {
		o.GOOS = runtime.GOOS
	}
	if o.WorkloadProfile == 0 {
		o.WorkloadProfile = 4
	}
	return o
}

// New returns the engine implementation for spec.
func New(spec Spec, opts Options) (Engine, error) {
	if spec.Path == "" {
		return nil, &Error{Engine: string(spec.Kind), Op: "new", Err: ErrEngineNotFound, Msg: "empty path"}
	}

	opts = opts.withDefaults()
	switch spec.Kind {
	case KindHashcat:
		return &Hashcat{spec: spec, opts: opts, logger: opts.Logger.Named("hashcat")}, nil
	case KindJohn:
		return &John{spec: spec, opts: opts, logger: opts.Logger.Named("john")}, nil
	default:
		return nil, fmt.Errorf("unknown engine kind %q", spec.Kind)
	}
}

// tempFile creates an empty temporary file and returns its name.
func tempFile(fs afero.Fs, dir, pattern string, content []byte) (string, error) {
	f, err := afero.TempFile(fs, dir, pattern)
	if err != nil {
		return "", fmt.Errorf("error creating temporary file: %w", err)
	}
	name := f.Name()

	if len(content) > 0 {
		if _, err := f.Write(content); err != nil {
			f.Close()
			fs.Remove(name)
			return "", fmt.Errorf("error writing temporary file: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		fs.Remove(name)
		return "", fmt.Errorf("error closing temporary file: %w", err)
	}

	return name, nil
}

func workDir(path string) string {
	return filepath.Dir(path)
}
