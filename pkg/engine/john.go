package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/uidcrack/pkg/digits"
)

// John runs John the Ripper in mask mode, one run per block. John cannot
// express raw-byte charsets, so it only supports the standard encoding.
type John struct {
	spec   Spec
	opts   Options
	logger hclog.Logger
}

// Spec implements Engine.
func (j *John) Spec() Spec {
	return j.spec
}

// Crack runs john for every block of the job until one reports a preimage.
func (j *John) Crack(ctx context.Context, job Job) (Outcome, error) {
	if job.Encoding != digits.Standard || !j.spec.Supports(job.Encoding) {
		return Outcome{}, &Error{Engine: string(KindJohn), Op: "crack", Err: ErrUnsupportedEncoding, Msg: job.Encoding.String()}
	}

	fs := j.opts.Fs

	hashFile, err := tempFile(fs, j.opts.TempDir, "john_hash_*.txt", []byte(job.Hash))
	if err != nil {
		return Outcome{}, err
	}
	defer fs.Remove(hashFile)

	potFile, err := tempFile(fs, j.opts.TempDir, "john_pot_*.txt", nil)
	if err != nil {
		return Outcome{}, err
	}
	defer fs.Remove(potFile)

	j.logger.Info("running john",
		"range", job.Range.String(),
		"masks", len(job.Blocks),
		"candidates", job.Blocks.Count(),
	)

	for i, block := range job.Blocks {
		args := []string{"--format=raw-md5"}
		for n, charset := range block.Charsets() {
			args = append(args, fmt.Sprintf("-%d=%s", n+1, charset))
		}
		args = append(args, "--mask="+block.Mask(), "--pot="+potFile, hashFile)

		j.logger.Debug("running john mask", "index", i, "mask", block.Mask())

		code, err := j.opts.Runner.Run(ctx, Command{
			Path:   j.spec.Path,
			Args:   args,
			Dir:    workDir(j.spec.Path),
			Stdout: j.opts.Stdout,
			Stderr: j.opts.Stderr,
		})
		if err != nil {
			return Outcome{}, &Error{Engine: string(KindJohn), Op: "run", Err: err}
		}
		if code != 0 {
			return Outcome{}, &Error{
				Engine: string(KindJohn),
				Op:     "run",
				Err:    ErrEngineFailed,
				Msg:    "exit status " + strconv.Itoa(code),
			}
		}

		out, err := readJohnPot(fs, potFile)
		if err != nil {
			return Outcome{}, err
		}
		if out.Found {
			return out, nil
		}
	}

	return Outcome{}, nil
}

// readJohnPot decodes the preimage after the last ':' of the pot file.
func readJohnPot(fs afero.Fs, name string) (Outcome, error) {
	data, err := afero.ReadFile(fs, name)
	if err != nil {
		return Outcome{}, fmt.Errorf("error reading john pot file: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return Outcome{}, nil
	}

	line, _, _ := strings.Cut(text, "\n")
	preimage := line[strings.LastIndex(line, ":")+1:]

	uid, found, err := digits.Decode(preimage)
	if err != nil {
		return Outcome{}, &Error{Engine: string(KindJohn), Op: "decode", Err: err}
	}

	return Outcome{UID: uid, Found: found}, nil
}
