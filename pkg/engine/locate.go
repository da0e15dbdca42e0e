package engine

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp-forge/uidcrack/pkg/digits"
)

// Locator finds engine executables and identifies their versions.
type Locator struct {
	Runner   Runner                             // Process runner (default: ExecRunner)
	LookPath func(file string) (string, error) // Executable search (default: exec.LookPath)
	GOOS     string                             // Target OS (default: runtime.GOOS)
	Logger   hclog.Logger                       // Logger (optional)
}

func (l Locator) withDefaults() Locator {
	if l.Logger == nil {
		l.Logger = hclog.NewNullLogger()
	}
	if l.Runner == nil {
		l.Runner = ExecRunner{Logger: l.Logger}
	}
	if l.LookPath == nil {
		l.LookPath = exec.LookPath
	}
	if l.GOOS == "" {
		l.GOOS = runtime.GOOS
	}
	return l
}

// Locate finds the executable for kind, either at hint or on PATH, and checks
// that it is the expected program.
func (l Locator) Locate(ctx context.Context, kind Kind, hint string) (Spec, error) {
	l = l.withDefaults()

	name := hint
	if name == "" {
		name = string(kind)
		if l.GOOS == "windows" {
			name += ".exe"
		}
	}

	path, err := l.LookPath(name)
	if err != nil {
		return Spec{}, &Error{Engine: string(kind), Op: "locate", Err: ErrEngineNotFound, Msg: name}
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	var out bytes.Buffer
	var args []string
	if kind == KindHashcat {
		args = []string{"--version"}
	}
	// john prints its banner and exits non-zero without arguments, so only
	// the output is inspected.
	if _, err := l.Runner.Run(ctx, Command{
		Path:   path,
		Args:   args,
		Dir:    workDir(path),
		Stdout: &out,
		Stderr: &out,
	}); err != nil {
		return Spec{}, &Error{Engine: string(kind), Op: "locate", Err: ErrEngineNotFound, Msg: err.Error()}
	}

	spec := Spec{Kind: kind, Path: path}
	switch kind {
	case KindHashcat:
		spec.Version, err = hashcatVersion(out.String())
		spec.Encodings = []digits.Encoding{digits.Standard, digits.NonStandard}
	case KindJohn:
		spec.Version, err = johnVersion(out.String())
		spec.Encodings = []digits.Encoding{digits.Standard}
	default:
		err = fmt.Errorf("unknown engine kind %q", kind)
	}
	if err != nil {
		return Spec{}, &Error{Engine: string(kind), Op: "locate", Err: ErrEngineNotFound, Msg: err.Error()}
	}

	l.Logger.Debug("located engine", "engine", kind, "path", path, "version", spec.Version)
	return spec, nil
}

// Discover locates every engine in hints (kind to optional path) in the
// given order and returns those found. It fails only when none is usable.
func (l Locator) Discover(ctx context.Context, kinds []Kind, hints map[Kind]string) ([]Spec, error) {
	var (
		specs  []Spec
		result *multierror.Error
	)

	for _, kind := range kinds {
		spec, err := l.Locate(ctx, kind, hints[kind])
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		specs = append(specs, spec)
	}

	if len(specs) == 0 {
		if result == nil {
			return nil, ErrNoEngine
		}
		return nil, fmt.Errorf("%w: %w", ErrNoEngine, result)
	}
	return specs, nil
}

// hashcatVersion parses the output of hashcat --version, such as "v6.2.6",
// "6.2.6" or "v6.2.6-851-g6716447df" for development builds.
func hashcatVersion(out string) (*semver.Version, error) {
	line := firstLine(out)
	v, err := semver.NewVersion(line)
	if err != nil {
		return nil, fmt.Errorf("error parsing hashcat version %q: %w", line, err)
	}
	return v, nil
}

// johnVersion parses the banner "John the Ripper 1.9.0-jumbo-1 ...".
func johnVersion(out string) (*semver.Version, error) {
	line := firstLine(out)
	if !strings.HasPrefix(line, "John the Ripper") {
		return nil, fmt.Errorf("unexpected john banner %q", line)
	}
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return nil, fmt.Errorf("john banner %q has no version", line)
	}
	raw, _, _ := strings.Cut(fields[3], "-")
	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("error parsing john version %q: %w", raw, err)
	}
	return v, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
