package crack

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/uidcrack/internal/cmd/base"
	"github.com/hashicorp-forge/uidcrack/pkg/digits"
	"github.com/hashicorp-forge/uidcrack/pkg/engine"
	"github.com/hashicorp-forge/uidcrack/pkg/mask"
	"github.com/hashicorp-forge/uidcrack/pkg/uidrange"
)

// fakeEngines answers the version probes of hashcat and john, and cracks
// hashcat mask files by matching the target's preimage against every line.
// A non-zero exitCode makes every hashcat crack run fail with it.
type fakeEngines struct {
	fs       afero.Fs
	target   uint64
	exitCode int
	calls    []engine.Command
}

func (f *fakeEngines) Run(ctx context.Context, cmd engine.Command) (int, error) {
	f.calls = append(f.calls, cmd)
	if filepath.Base(cmd.Path) == "john" {
		io.WriteString(cmd.Stdout, "John the Ripper 1.9.0-jumbo-1 OMP [linux-gnu 64-bit x86_64 AVX2 AC]\n")
		return 0, nil
	}
	if len(cmd.Args) == 1 && cmd.Args[0] == "--version" {
		io.WriteString(cmd.Stdout, "v6.2.6\n")
		return 0, nil
	}
	if f.exitCode != 0 {
		return f.exitCode, nil
	}

	var outfile string
	hexMode := false
	for i, a := range cmd.Args {
		switch a {
		case "--outfile":
			outfile = cmd.Args[i+1]
		case "--hex-charset":
			hexMode = true
		}
	}

	enc := digits.Standard
	if hexMode {
		enc = digits.NonStandard
	}
	hash, maskFile := cmd.Args[len(cmd.Args)-2], cmd.Args[len(cmd.Args)-1]
	if digits.MD5(f.target, enc) != hash {
		return 1, nil
	}

	masks, err := afero.ReadFile(f.fs, maskFile)
	if err != nil {
		return -1, err
	}
	preimage := digits.Encode(f.target, enc)
	found := false
	for _, line := range strings.Split(strings.TrimSpace(string(masks)), "\n") {
		if matchMaskLine(line, hexMode, preimage) {
			found = true
			break
		}
	}
	if !found {
		return 1, nil
	}

	report := string(preimage)
	if hexMode {
		report = fmt.Sprintf("$HEX[%x]", preimage)
	}
	return 0, afero.WriteFile(f.fs, outfile, []byte(report+"\n"), 0o600)
}

// matchMaskLine reports whether candidate is one of the strings generated by
// a mask-file line "charset,...,mask", read the way hashcat reads it.
func matchMaskLine(line string, hexMode bool, candidate []byte) bool {
	fields := strings.Split(line, ",")
	pattern := fields[len(fields)-1]

	decode := func(s string) []byte {
		if !hexMode {
			return []byte(s)
		}
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil
		}
		return b
	}
	charsets := make([][]byte, 0, len(fields)-1)
	for _, cs := range fields[:len(fields)-1] {
		charsets = append(charsets, decode(cs))
	}

	pos := 0
	for i := 0; i < len(pattern); pos++ {
		if pos >= len(candidate) {
			return false
		}

		var allowed []byte
		switch {
		case pattern[i] == '?' && i+1 < len(pattern) && pattern[i+1] == 'd':
			allowed = []byte("0123456789")
			i += 2
		case pattern[i] == '?' && i+1 < len(pattern):
			n := int(pattern[i+1] - '1')
			if n < 0 || n >= len(charsets) {
				return false
			}
			allowed = charsets[n]
			i += 2
		case hexMode && i+1 < len(pattern):
			allowed = decode(pattern[i : i+2])
			i += 2
		default:
			allowed = []byte{pattern[i]}
			i++
		}

		if !bytes.Contains(allowed, candidate[pos:pos+1]) {
			return false
		}
	}
	return pos == len(candidate)
}

func newCommand(fs afero.Fs, runner engine.Runner, installed ...string) (*Command, *cli.MockUi) {
	ui := cli.NewMockUi()
	if len(installed) == 0 {
		installed = []string{"hashcat"}
	}
	lookPath := func(file string) (string, error) {
		if slices.Contains(installed, file) {
			return "/opt/" + file + "/" + file, nil
		}
		return "", errors.New("not found")
	}

	return &Command{
		Command: base.NewCommand(hclog.NewNullLogger(), ui),
		Locator: engine.Locator{
			Runner:   runner,
			LookPath: lookPath,
			GOOS:     "linux",
		},
		EngineOptions: engine.Options{
			Runner:  runner,
			Fs:      fs,
			TempDir: "/tmp",
			GOOS:    "linux",
			Stdout:  io.Discard,
			Stderr:  io.Discard,
		},
		Fs: fs,
	}, ui
}

func TestCommand_Run(t *testing.T) {
	t.Setenv(base.ConfigEnv, "")

	t.Run("share link", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		runner := &fakeEngines{fs: fs, target: 4242}
		c, ui := newCommand(fs, runner)

		url := "https://www.bilibili.com/video/BV1xx411c7mD/?share_source=copy_web&vd_source=" +
			digits.MD5(4242, digits.Standard)
		code := c.Run([]string{"-url", url, "-range", "1-9999", "-no-cache", "-out", "/report.yaml"})
		require.Equal(t, 0, code, ui.ErrorWriter.String())

		out := ui.OutputWriter.String()
		assert.Contains(t, out, "UID: 4242")
		assert.Contains(t, out, "standard (share button link)")

		report, err := afero.ReadFile(fs, "/report.yaml")
		require.NoError(t, err)
		assert.Contains(t, string(report), "UID: 4242")
		assert.Contains(t, string(report), "IsStandardMD5: true")
	})

	t.Run("address bar link", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		runner := &fakeEngines{fs: fs, target: 77}
		c, ui := newCommand(fs, runner)

		url := "https://www.bilibili.com/video/BV1xx411c7mD/?vd_source=" + digits.MD5(77, digits.NonStandard)
		code := c.Run([]string{"-url", url, "-range", "1-100", "-no-cache"})
		require.Equal(t, 0, code, ui.ErrorWriter.String())
		assert.Contains(t, ui.OutputWriter.String(), "UID: 77")

		// Only the non-standard encoding is tried.
		var crackCalls int
		for _, call := range runner.calls {
			if len(call.Args) > 1 {
				crackCalls++
				assert.Contains(t, call.Args, "--hex-charset")
			}
		}
		assert.Equal(t, 1, crackCalls)
	})

	t.Run("bare hash tries both encodings", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		runner := &fakeEngines{fs: fs, target: 5}
		c, ui := newCommand(fs, runner)

		code := c.Run([]string{"-md5", digits.MD5(5, digits.NonStandard), "-range", "1-9", "-no-cache", "-backend-ignore-cuda"})
		require.Equal(t, 0, code, ui.ErrorWriter.String())
		assert.Contains(t, ui.OutputWriter.String(), "non-standard")

		last := runner.calls[len(runner.calls)-1]
		assert.Contains(t, last.Args, "--backend-ignore-cuda")
	})

	t.Run("not found", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		runner := &fakeEngines{fs: fs, target: 5000}
		c, ui := newCommand(fs, runner)

		code := c.Run([]string{
			"-md5", digits.MD5(5000, digits.Standard), "-standard",
			"-range", "1-100", "-range", "50-200",
			"-no-cache", "-out", "/out/report.yaml",
		})
		assert.Equal(t, 2, code, ui.ErrorWriter.String())
		assert.Contains(t, ui.OutputWriter.String(), "UID not found")
		assert.Contains(t, ui.OutputWriter.String(), "[1, 200]")

		report, err := afero.ReadFile(fs, "/out/report.yaml")
		require.NoError(t, err)
		assert.Contains(t, string(report), "NotFound")
		assert.Contains(t, string(report), "[1, 200]")
	})

	t.Run("hashcat crash is reported as an engine failure", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		runner := &fakeEngines{fs: fs, target: 12345, exitCode: 255}
		c, ui := newCommand(fs, runner, "hashcat", "john")

		code := c.Run([]string{
			"-md5", digits.MD5(12345, digits.NonStandard), "-non-standard",
			"-range", "1-99999", "-no-cache",
		})
		assert.Equal(t, 1, code)

		errOut := ui.ErrorWriter.String()
		assert.Contains(t, errOut, "error running engine")
		assert.Contains(t, errOut, "exit status 255")
		assert.NotContains(t, errOut, "install hashcat")
	})

	t.Run("non-standard with only john", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		runner := &fakeEngines{fs: fs, target: 12345}
		c, ui := newCommand(fs, runner, "john")

		code := c.Run([]string{
			"-md5", digits.MD5(12345, digits.NonStandard), "-non-standard",
			"-range", "1-99999", "-no-cache",
		})
		assert.Equal(t, 1, code)
		assert.Contains(t, ui.ErrorWriter.String(), "install hashcat")
	})

	t.Run("no engine", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		c, ui := newCommand(fs, &fakeEngines{fs: fs})
		c.Locator.LookPath = func(string) (string, error) { return "", errors.New("not found") }

		code := c.Run([]string{"-md5", digits.MD5(1, digits.Standard), "-range", "1-9", "-no-cache"})
		assert.Equal(t, 1, code)
		assert.Contains(t, ui.ErrorWriter.String(), "no usable hashcat or john")
	})

	t.Run("output is a directory", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, fs.MkdirAll("/out", 0o755))
		c, ui := newCommand(fs, &fakeEngines{fs: fs})

		code := c.Run([]string{"-md5", digits.MD5(1, digits.Standard), "-range", "1-9", "-no-cache", "-out", "/out"})
		assert.Equal(t, 1, code)
		assert.Contains(t, ui.ErrorWriter.String(), "is a directory")
	})

	t.Run("bad strategy", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		c, ui := newCommand(fs, &fakeEngines{fs: fs})

		code := c.Run([]string{"-md5", digits.MD5(1, digits.Standard), "-range", "1-9", "-no-cache", "-strategy", "guess"})
		assert.Equal(t, 1, code)
		assert.True(t, strings.Contains(ui.ErrorWriter.String(), "strategy"))
	})
}

func TestCommand_Request(t *testing.T) {
	t.Setenv(base.ConfigEnv, "")

	c, _ := newCommand(afero.NewMemMapFs(), nil)
	c.flagMD5 = strings.ToUpper(digits.MD5(1, digits.Standard))
	c.flagStandard = true
	c.flagNonStandard = true

	cfg, err := c.LoadConfig("", "")
	require.NoError(t, err)

	req, err := c.request(cfg)
	require.NoError(t, err)
	assert.Equal(t, digits.MD5(1, digits.Standard), req.Hash)
	assert.Empty(t, req.Encodings, "both flags means any encoding")
	assert.Equal(t, uidrange.All(), req.Ranges)

	_, err = mask.ParseStrategy(cfg.Strategy)
	assert.NoError(t, err)
}
