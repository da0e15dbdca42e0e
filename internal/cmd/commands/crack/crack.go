package crack

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/uidcrack/internal/cmd/base"
	"github.com/hashicorp-forge/uidcrack/internal/config"
	"github.com/hashicorp-forge/uidcrack/pkg/cracker"
	"github.com/hashicorp-forge/uidcrack/pkg/database"
	"github.com/hashicorp-forge/uidcrack/pkg/digits"
	"github.com/hashicorp-forge/uidcrack/pkg/engine"
	"github.com/hashicorp-forge/uidcrack/pkg/mask"
	"github.com/hashicorp-forge/uidcrack/pkg/potfile"
	"github.com/hashicorp-forge/uidcrack/pkg/report"
	"github.com/hashicorp-forge/uidcrack/pkg/shareurl"
	"github.com/hashicorp-forge/uidcrack/pkg/uidrange"
)

type Command struct {
	*base.Command

	// Locator and EngineOptions default to the real system.
	Locator       engine.Locator
	EngineOptions engine.Options
	Fs            afero.Fs

	flagConfig            string
	flagLogLevel          string
	flagURL               string
	flagMD5               string
	flagStandard          bool
	flagNonStandard       bool
	flagRanges            base.RangeList
	flagHashcat           string
	flagJohn              string
	flagBackendIgnoreCUDA bool
	flagStrategy          string
	flagOut               string
	flagNoCache           bool
}

func (c *Command) Synopsis() string {
	return "Recover a UID from its MD5 or from a video link"
}

func (c *Command) Help() string {
	return `Usage: uidcrack crack [options]

  Recover the UID whose MD5 is embedded in a video link's vd_source
  parameter, or given directly with -md5.

  Links produced by the web share button hash the standard encoding (UID
  digits as text). Links copied from the address bar hash the non-standard
  encoding (each digit as a raw byte). When cracking a bare hash with
  neither or both of -standard and -non-standard, every range is tried
  with the standard encoding first and then the non-standard one.

  hashcat is preferred and handles both encodings. John the Ripper is used
  as a fallback and only handles the standard encoding.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("crack", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		"[UIDCRACK_CONFIG] Path to the HCL config file",
	)
	f.StringVar(
		&c.flagLogLevel, "log-level", "",
		"Log level (trace, debug, info, warn, error)",
	)
	f.StringVar(
		&c.flagURL, "url", "",
		"Video link or share link carrying a vd_source parameter",
	)
	f.StringVar(
		&c.flagMD5, "md5", "",
		"MD5 to crack",
	)
	f.BoolVar(
		&c.flagStandard, "standard", false,
		"The -md5 hash uses the standard encoding",
	)
	f.BoolVar(
		&c.flagNonStandard, "non-standard", false,
		"The -md5 hash uses the non-standard encoding",
	)
	f.Var(
		&c.flagRanges, "range",
		"UID range START-END to search. May be repeated. Defaults to the configured ranges",
	)
	f.StringVar(
		&c.flagHashcat, "hashcat", "",
		"Path to the hashcat executable",
	)
	f.StringVar(
		&c.flagJohn, "john", "",
		"Path to the john executable",
	)
	f.BoolVar(
		&c.flagBackendIgnoreCUDA, "backend-ignore-cuda", false,
		"Run hashcat with --backend-ignore-cuda, for hosts where the CUDA kernel build fails",
	)
	f.StringVar(
		&c.flagStrategy, "strategy", "",
		"Mask compilation strategy (exact, lookahead)",
	)
	f.StringVar(
		&c.flagOut, "out", "",
		"Write a YAML report to `path`",
	)
	f.BoolVar(
		&c.flagNoCache, "no-cache", false,
		"Neither read nor write the cracked hash cache",
	)

	return f
}

func (c *Command) Run(args []string) int {
	ui := c.UI

	f := c.Flags()
	if err := f.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if c.flagURL == "" && c.flagMD5 == "" {
		return cli.RunResultHelp
	}

	cfg, err := c.LoadConfig(c.flagConfig, c.flagLogLevel)
	if err != nil {
		ui.Error(fmt.Sprintf("error loading config: %v", err))
		return 1
	}
	c.applyFlags(cfg)

	req, err := c.request(cfg)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	fs := c.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if c.flagOut != "" {
		if fi, err := fs.Stat(c.flagOut); err == nil && fi.IsDir() {
			ui.Error(fmt.Sprintf("invalid output file, %s is a directory", c.flagOut))
			return 1
		}
	}

	strategy, err := mask.ParseStrategy(cfg.Strategy)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	ctx, stop := c.SignalContext()
	defer stop()

	engines, err := c.engines(ctx, cfg)
	if err != nil {
		ui.Error(fmt.Sprintf("no usable hashcat or john found; add them to PATH or use -hashcat / -john: %v", err))
		return 1
	}

	crackerCfg := cracker.Config{
		Engines:     engines,
		Threshold:   *cfg.Threshold,
		NoThreshold: *cfg.Threshold == 0,
		Strategy:    strategy,
		Logger:      c.Log.Named("cracker"),
	}
	if !cfg.Cache.Disabled {
		store, closeFn, err := c.openCache(cfg.Cache.Path)
		if err != nil {
			ui.Warn(fmt.Sprintf("cache unavailable: %v", err))
		} else {
			defer closeFn()
			crackerCfg.Cache = store
		}
	}

	cr, err := cracker.New(crackerCfg)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	ui.Output(fmt.Sprintf("Cracking MD5: %s", req.Hash))
	ui.Output("UID ranges:")
	for _, r := range uidrange.Merge(req.Ranges) {
		ui.Output("  " + r.String())
	}

	res, err := cr.Crack(ctx, req)
	switch {
	case errors.Is(err, context.Canceled):
		ui.Warn("Interrupted.")
		return 130
	case errors.Is(err, engine.ErrEngineFailed):
		ui.Error(fmt.Sprintf("error running engine: %v", err))
		return 1
	case errors.Is(err, engine.ErrNoEngine) && errors.Is(err, engine.ErrUnsupportedEncoding):
		ui.Error("John the Ripper cannot crack non-standard hashes (address bar links); install hashcat to crack them.")
		return 1
	case err != nil:
		ui.Error(fmt.Sprintf("error cracking: %v", err))
		return 1
	}

	if res.Found {
		kind := "non-standard (address bar link)"
		if res.Encoding == digits.Standard {
			kind = "standard (share button link)"
		}
		ui.Output(fmt.Sprintf("Cracked MD5: %s", res.Hash))
		ui.Output(fmt.Sprintf("Encoding: %s", kind))
		ui.Output(fmt.Sprintf("UID: %d", res.UID))
	} else {
		ui.Output(fmt.Sprintf("UID not found for MD5: %s", res.Hash))
	}
	ui.Output(fmt.Sprintf("Elapsed: %s", report.FormatElapsed(res.Elapsed)))

	if c.flagOut != "" {
		if err := report.Write(fs, c.flagOut, report.New(res)); err != nil {
			ui.Error(err.Error())
			return 1
		}
		ui.Output(fmt.Sprintf("Report saved to %s", c.flagOut))
	}

	if !res.Found {
		return 2
	}
	return 0
}

// applyFlags overrides configuration values with the flags that were set.
func (c *Command) applyFlags(cfg *config.Config) {
	if c.flagHashcat != "" {
		cfg.Hashcat.Path = c.flagHashcat
		cfg.Hashcat.Disabled = false
	}
	if c.flagJohn != "" {
		cfg.John.Path = c.flagJohn
		cfg.John.Disabled = false
	}
	if c.flagBackendIgnoreCUDA {
		cfg.Hashcat.BackendIgnoreCUDA = true
	}
	if c.flagStrategy != "" {
		cfg.Strategy = c.flagStrategy
	}
	if c.flagNoCache {
		cfg.Cache.Disabled = true
	}
}

// request builds the crack request from the hash source, encoding flags
// and ranges.
func (c *Command) request(cfg *config.Config) (cracker.Request, error) {
	var req cracker.Request

	if c.flagURL != "" {
		link, err := shareurl.Parse(c.flagURL)
		if err != nil {
			return req, fmt.Errorf("not a crackable link: %s: %w", c.flagURL, err)
		}
		req.Hash = link.Hash
		req.Encodings = []digits.Encoding{link.Encoding}
	} else {
		if err := digits.ValidateHash(c.flagMD5); err != nil {
			return req, fmt.Errorf("not a valid MD5: %s", c.flagMD5)
		}
		req.Hash = digits.NormalizeHash(c.flagMD5)

		switch {
		case c.flagStandard && !c.flagNonStandard:
			req.Encodings = []digits.Encoding{digits.Standard}
		case c.flagNonStandard && !c.flagStandard:
			req.Encodings = []digits.Encoding{digits.NonStandard}
		}
	}

	req.Ranges = c.flagRanges
	if len(req.Ranges) == 0 {
		ranges, err := cfg.UIDRanges()
		if err != nil {
			return req, fmt.Errorf("invalid configured range: %w", err)
		}
		req.Ranges = ranges
	}
	return req, nil
}

// engines locates the enabled engines, hashcat first.
func (c *Command) engines(ctx context.Context, cfg *config.Config) ([]engine.Engine, error) {
	var kinds []engine.Kind
	hints := map[engine.Kind]string{}
	if !cfg.Hashcat.Disabled {
		kinds = append(kinds, engine.KindHashcat)
		hints[engine.KindHashcat] = cfg.Hashcat.Path
	}
	if !cfg.John.Disabled {
		kinds = append(kinds, engine.KindJohn)
		hints[engine.KindJohn] = cfg.John.Path
	}

	locator := c.Locator
	if locator.Logger == nil {
		locator.Logger = c.Log.Named("locate")
	}
	specs, err := locator.Discover(ctx, kinds, hints)
	if err != nil {
		return nil, err
	}

	opts := c.EngineOptions
	if opts.Logger == nil {
		opts.Logger = c.Log
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	opts.BackendIgnoreCUDA = cfg.Hashcat.BackendIgnoreCUDA
	opts.WorkloadProfile = cfg.Hashcat.WorkloadProfile

	var engines []engine.Engine
	for _, spec := range specs {
		e, err := engine.New(spec, opts)
		if err != nil {
			return nil, err
		}
		c.UI.Info(fmt.Sprintf("Found %s", spec))
		engines = append(engines, e)
	}
	return engines, nil
}

func (c *Command) openCache(path string) (*potfile.Store, func(), error) {
	if path != database.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("error creating cache directory: %w", err)
		}
	}

	db, err := database.Connect(database.Config{Path: path}, c.Log.Named("cache"))
	if err != nil {
		return nil, nil, err
	}
	store, err := potfile.New(db, c.Log.Named("cache"))
	if err != nil {
		database.Close(db)
		return nil, nil, err
	}
	return store, func() { database.Close(db) }, nil
}
