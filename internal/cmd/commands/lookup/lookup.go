package lookup

import (
	"flag"
	"fmt"
	"net/http"

	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/uidcrack/internal/cmd/base"
	"github.com/hashicorp-forge/uidcrack/pkg/digits"
	"github.com/hashicorp-forge/uidcrack/pkg/lookup"
	"github.com/hashicorp-forge/uidcrack/pkg/shareurl"
)

type Command struct {
	*base.Command

	// HTTPClient overrides the client used for the lookup service.
	HTTPClient *http.Client

	flagConfig   string
	flagLogLevel string
	flagMD5      string
	flagURL      string
}

func (c *Command) Synopsis() string {
	return "Look up a hash in the public hash-to-UID index"
}

func (c *Command) Help() string {
	return `Usage: uidcrack lookup (-md5 HASH | -url LINK)

  Queries the public hash-to-UID index for a hash that someone has already
  cracked. This needs no cracking engine and answers instantly.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("lookup", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		"[UIDCRACK_CONFIG] Path to the HCL config file",
	)
	f.StringVar(
		&c.flagLogLevel, "log-level", "",
		"Log level (trace, debug, info, warn, error)",
	)
	f.StringVar(
		&c.flagMD5, "md5", "",
		"MD5 to look up",
	)
	f.StringVar(
		&c.flagURL, "url", "",
		"Video link or share link carrying a vd_source parameter",
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

	hash := c.flagMD5
	switch {
	case c.flagURL != "":
		link, err := shareurl.Parse(c.flagURL)
		if err != nil {
			ui.Error(fmt.Sprintf("not a crackable link: %v", err))
			return 1
		}
		hash = link.Hash
	case hash == "":
		return cli.RunResultHelp
	}
	if err := digits.ValidateHash(hash); err != nil {
		ui.Error(fmt.Sprintf("not a valid MD5: %s", hash))
		return 1
	}

	cfg, err := c.LoadConfig(c.flagConfig, c.flagLogLevel)
	if err != nil {
		ui.Error(fmt.Sprintf("error loading config: %v", err))
		return 1
	}
	lc, err := cfg.LookupConfig()
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	lc.Logger = c.Log
	lc.HTTPClient = c.HTTPClient

	client, err := lookup.NewClient(lc)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	ctx, stop := c.SignalContext()
	defer stop()

	uid, found, err := client.Lookup(ctx, hash)
	if err != nil {
		ui.Error(fmt.Sprintf("error querying lookup service: %v", err))
		return 1
	}
	if !found {
		ui.Output(fmt.Sprintf("UID not found for MD5: %s", digits.NormalizeHash(hash)))
		return 2
	}

	ui.Output(fmt.Sprintf("UID: %d", uid))
	return 0
}
