package engine

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/uidcrack/pkg/digits"
)

// Hashcat runs hashcat in mask attack mode against a mask file.
type Hashcat struct {
	spec   Spec
	opts   Options
	logger hclog.Logger
}

// Spec implements Engine.
func (h *Hashcat) Spec() Spec {
	return h.spec
}

// Crack writes the job's blocks to a mask file and runs hashcat once over it.
// Exit status 0 (cracked) and 1 (exhausted) are both successful runs.
func (h *Hashcat) Crack(ctx context.Context, job Job) (Outcome, error) {
	if !h.spec.Supports(job.Encoding) {
		return Outcome{}, &Error{Engine: string(KindHashcat), Op: "crack", Err: ErrUnsupportedEncoding, Msg: job.Encoding.String()}
	}

	fs := h.opts.Fs

	var masks bytes.Buffer
	if _, err := job.Blocks.WriteTo(&masks); err != nil {
		return Outcome{}, fmt.Errorf("error rendering mask file: %w", err)
	}

	maskFile, err := tempFile(fs, h.opts.TempDir, "hashcat_masks_*.txt", masks.Bytes())
	if err != nil {
		return Outcome{}, err
	}
	defer fs.Remove(maskFile)

	outFile, err := tempFile(fs, h.opts.TempDir, "hashcat_outfile_*.txt", nil)
	if err != nil {
		return Outcome{}, err
	}
	defer fs.Remove(outFile)

	args := h.args(job, maskFile, outFile)

	h.logger.Info("running hashcat",
		"range", job.Range.String(),
		"encoding", job.Encoding.String(),
		"masks", len(job.Blocks),
		"candidates", job.Blocks.Count(),
	)

	code, err := h.opts.Runner.Run(ctx, Command{
		Path:   h.spec.Path,
		Args:   args,
		Dir:    workDir(h.spec.Path),
		Stdout: h.opts.Stdout,
		Stderr: h.opts.Stderr,
	})
	if err != nil {
		return Outcome{}, &Error{Engine: string(KindHashcat), Op: "run", Err: err}
	}
	if code != 0 && code != 1 {
		return Outcome{}, &Error{
			Engine: string(KindHashcat),
			Op:     "run",
			Err:    ErrEngineFailed,
			Msg:    "exit status " + strconv.Itoa(code),
		}
	}

	return readHashcatOutfile(fs, outFile)
}

func (h *Hashcat) args(job Job, maskFile, outFile string) []string {
	workload := h.opts.WorkloadProfile
	if h.opts.GOOS == "windows" && job.BelowThreshold {
		workload = 1
	}

	args := []string{"-m", "0", "-a", "3"}
	if job.Encoding == digits.NonStandard {
		args = append(args, "--hex-charset")
	}
	args = append(args, "--outfile-format", "2", "--outfile", outFile)
	if h.opts.BackendIgnoreCUDA {
		args = append(args, "--backend-ignore-cuda")
	}
	return append(args,
		"--potfile-disable",
		"--logfile-disable",
		"-O",
		"-w", strconv.Itoa(workload),
		"--hwmon-disable",
		job.Hash,
		maskFile,
	)
}

// readHashcatOutfile decodes the single preimage hashcat writes with
// --outfile-format 2.
func readHashcatOutfile(fs afero.Fs, name string) (Outcome, error) {
	data, err := afero.ReadFile(fs, name)
	if err != nil {
		return Outcome{}, fmt.Errorf("error reading hashcat outfile: %w", err)
	}

	line, _, _ := strings.Cut(strings.TrimSpace(string(data)), "\n")
	uid, found, err := digits.Decode(line)
	if err != nil {
		return Outcome{}, &Error{Engine: string(KindHashcat), Op: "decode", Err: err}
	}

	return Outcome{UID: uid, Found: found}, nil
}
