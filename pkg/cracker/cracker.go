// Package cracker recovers a UID from its MD5 by compiling the candidate
// ranges into masks and running them through the configured engines.
package cracker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp-forge/uidcrack/pkg/digits"
	"github.com/hashicorp-forge/uidcrack/pkg/engine"
	"github.com/hashicorp-forge/uidcrack/pkg/mask"
	"github.com/hashicorp-forge/uidcrack/pkg/potfile"
	"github.com/hashicorp-forge/uidcrack/pkg/uidrange"
)

// Cache remembers cracked hashes across runs. *potfile.Store implements it.
type Cache interface {
	Lookup(ctx context.Context, hash string) (*potfile.Entry, error)
	Save(ctx context.Context, e potfile.Entry) error
}

// Config holds the dependencies of a Cracker.
type Config struct {
	Engines   []engine.Engine // Engines in order of preference (required)
	Threshold uint64          // Split threshold (default: uidrange.DefaultThreshold)
	Strategy  mask.Strategy   // Mask compilation strategy (default: mask.StrategyExact)
	Cache     Cache           // Result cache (optional)
	Logger    hclog.Logger    // Logger (optional)

	// NoThreshold disables splitting at Threshold.
	NoThreshold bool
}

// Request describes a hash to crack.
type Request struct {
	// Hash is the hex MD5 to crack.
	Hash string

	// Ranges are the candidate UID intervals. They may overlap.
	Ranges []uidrange.Range

	// Encodings are tried in order for every range. Empty means every
	// encoding some engine supports, standard first.
	Encodings []digits.Encoding
}

// Validate checks the request.
func (r Request) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Hash, validation.Required, validation.By(func(value interface{}) error {
			return digits.ValidateHash(value.(string))
		})),
		validation.Field(&r.Ranges, validation.Required),
		validation.Field(&r.Encodings, validation.Each(validation.In(digits.Standard, digits.NonStandard))),
	)
}

// Result is the outcome of a crack run. A UID that was not found is not an
// error.
type Result struct {
	RunID    string
	Hash     string
	Found    bool
	UID      uint64
	Encoding digits.Encoding
	Engine   engine.Kind

	// Cached is set when the result came from the cache without running
	// any engine.
	Cached bool

	// Tried lists the merged ranges that were searched.
	Tried []uidrange.Range

	Elapsed time.Duration
}

// Cracker drives the engines over compiled masks.
type Cracker struct {
	engines   []engine.Engine
	threshold uint64
	strategy  mask.Strategy
	cache     Cache
	logger    hclog.Logger
}

// New returns a Cracker. At least one engine is required.
func New(cfg Config) (*Cracker, error) {
	if len(cfg.Engines) == 0 {
		return nil, engine.ErrNoEngine
	}

	c := &Cracker{
		engines:   cfg.Engines,
		threshold: cfg.Threshold,
		strategy:  cfg.Strategy,
		cache:     cfg.Cache,
		logger:    cfg.Logger,
	}
	if c.logger == nil {
		c.logger = hclog.NewNullLogger()
	}
	if c.threshold == 0 {
		c.threshold = uidrange.DefaultThreshold
	}
	if cfg.NoThreshold {
		c.threshold = 0
	}
	return c, nil
}

// attempt is one engine job: a sub-range under a single encoding.
type attempt struct {
	encoding digits.Encoding
	rng      uidrange.Range
	below    bool
}

// Crack searches the request's ranges for the hash's preimage.
func (c *Cracker) Crack(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid request: %w", err)
	}

	hash := digits.NormalizeHash(req.Hash)
	merged := uidrange.Merge(req.Ranges)
	res := Result{
		RunID: uuid.NewString(),
		Hash:  hash,
		Tried: merged,
	}
	logger := c.logger.With("run_id", res.RunID, "hash", hash)

	if entry := c.lookupCache(ctx, logger, hash, merged, req.Encodings); entry != nil {
		res.Found = true
		res.Cached = true
		res.UID = entry.UID
		res.Encoding = entry.Encoding
		res.Engine = engine.Kind(entry.Engine)
		res.Elapsed = time.Since(start)
		return res, nil
	}

	encodings, err := c.encodings(req.Encodings)
	if err != nil {
		return Result{}, err
	}

	attempts := c.plan(merged, encodings)
	logger.Info("starting crack",
		"ranges", len(merged),
		"attempts", len(attempts),
		"encodings", fmt.Sprint(encodings),
	)

	for _, a := range attempts {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		job := engine.Job{
			Hash:           hash,
			Encoding:       a.encoding,
			Range:          a.rng,
			Blocks:         mask.Compile(a.rng, a.encoding, c.strategy),
			BelowThreshold: a.below,
		}

		out, kind, err := c.run(ctx, logger, job)
		if err != nil {
			return Result{}, err
		}
		if !out.Found {
			logger.Info("not in range", "range", a.rng.String(), "encoding", a.encoding.String())
			continue
		}

		res.Found = true
		res.UID = out.UID
		res.Encoding = a.encoding
		res.Engine = kind
		res.Elapsed = time.Since(start)
		logger.Info("cracked", "uid", out.UID, "encoding", a.encoding.String(), "engine", kind)

		c.saveCache(ctx, logger, res)
		return res, nil
	}

	res.Elapsed = time.Since(start)
	return res, nil
}

// encodings resolves the requested encodings. Explicit encodings that no
// engine supports fail before anything runs.
func (c *Cracker) encodings(requested []digits.Encoding) ([]digits.Encoding, error) {
	supported := func(enc digits.Encoding) bool {
		for _, e := range c.engines {
			if e.Spec().Supports(enc) {
				return true
			}
		}
		return false
	}

	if len(requested) == 0 {
		var out []digits.Encoding
		for _, enc := range []digits.Encoding{digits.Standard, digits.NonStandard} {
			if supported(enc) {
				out = append(out, enc)
			}
		}
		if len(out) == 0 {
			return nil, engine.ErrNoEngine
		}
		return out, nil
	}

	for _, enc := range requested {
		if !supported(enc) {
			return nil, fmt.Errorf("%w: %w: %s", engine.ErrNoEngine, engine.ErrUnsupportedEncoding, enc)
		}
	}
	return requested, nil
}

// plan orders the work: for every merged range, every encoding, every
// sub-range of the threshold split.
func (c *Cracker) plan(merged []uidrange.Range, encodings []digits.Encoding) []attempt {
	var attempts []attempt
	for _, r := range merged {
		parts := uidrange.SplitAt([]uidrange.Range{r}, c.threshold)
		for _, enc := range encodings {
			for _, p := range parts {
				attempts = append(attempts, attempt{
					encoding: enc,
					rng:      p,
					below:    c.threshold > 0 && p.End() < c.threshold,
				})
			}
		}
	}
	return attempts
}

// run tries the engines in order until one completes the job. A failing or
// unsuitable engine falls through to the next one.
//
// When every engine that attempted the job failed, the aggregate wraps
// engine.ErrEngineFailed. engine.ErrNoEngine is reserved for jobs no engine
// could attempt at all.
func (c *Cracker) run(ctx context.Context, logger hclog.Logger, job engine.Job) (engine.Outcome, engine.Kind, error) {
	var (
		failed  *multierror.Error
		skipped *multierror.Error
	)

	for _, e := range c.engines {
		spec := e.Spec()
		if !spec.Supports(job.Encoding) {
			skipped = multierror.Append(skipped, &engine.Error{
				Engine: string(spec.Kind),
				Op:     "crack",
				Err:    engine.ErrUnsupportedEncoding,
				Msg:    job.Encoding.String(),
			})
			continue
		}

		out, err := e.Crack(ctx, job)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return engine.Outcome{}, "", ctxErr
			}
			logger.Warn("engine failed, trying next", "engine", spec.Kind, "error", err)
			failed = multierror.Append(failed, err)
			continue
		}

		if out.Found && digits.MD5(out.UID, job.Encoding) != job.Hash {
			err := &engine.Error{
				Engine: string(spec.Kind),
				Op:     "verify",
				Err:    engine.ErrEngineFailed,
				Msg:    fmt.Sprintf("reported uid %d does not match hash", out.UID),
			}
			logger.Warn("engine reported a wrong preimage", "engine", spec.Kind, "uid", out.UID)
			failed = multierror.Append(failed, err)
			continue
		}

		return out, spec.Kind, nil
	}

	switch {
	case failed != nil:
		return engine.Outcome{}, "", fmt.Errorf("%w: %w", engine.ErrEngineFailed, failed)
	case skipped != nil:
		return engine.Outcome{}, "", fmt.Errorf("%w: %w", engine.ErrNoEngine, skipped)
	default:
		return engine.Outcome{}, "", engine.ErrNoEngine
	}
}

// lookupCache returns the cached entry for hash when it answers the request:
// its UID lies in one of the merged ranges and its encoding was asked for.
func (c *Cracker) lookupCache(
	ctx context.Context,
	logger hclog.Logger,
	hash string,
	merged []uidrange.Range,
	encodings []digits.Encoding,
) *potfile.Entry {
	if c.cache == nil {
		return nil
	}

	entry, err := c.cache.Lookup(ctx, hash)
	if err != nil {
		logger.Warn("error reading cache", "error", err)
		return nil
	}
	if entry == nil {
		return nil
	}

	if !slices.ContainsFunc(merged, func(r uidrange.Range) bool { return r.Contains(entry.UID) }) {
		logger.Info("cached uid is outside the requested ranges, searching anyway", "uid", entry.UID)
		return nil
	}
	if len(encodings) > 0 && !slices.Contains(encodings, entry.Encoding) {
		logger.Info("cached uid has another encoding, searching anyway",
			"uid", entry.UID, "encoding", entry.Encoding.String())
		return nil
	}

	logger.Info("found in cache", "uid", entry.UID, "encoding", entry.Encoding.String())
	return entry
}

func (c *Cracker) saveCache(ctx context.Context, logger hclog.Logger, res Result) {
	if c.cache == nil {
		return
	}

	err := c.cache.Save(ctx, potfile.Entry{
		Hash:     res.Hash,
		UID:      res.UID,
		Encoding: res.Encoding,
		Engine:   string(res.Engine),
		RunID:    res.RunID,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("error saving to cache", "error", err)
	}
}
