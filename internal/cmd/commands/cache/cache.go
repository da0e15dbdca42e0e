package cache

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/hashicorp-forge/uidcrack/internal/cmd/base"
	"github.com/hashicorp-forge/uidcrack/pkg/database"
	"github.com/hashicorp-forge/uidcrack/pkg/potfile"
)

type Command struct {
	*base.Command

	flagConfig string
}

func (c *Command) Synopsis() string {
	return "List the hashes cracked on this machine"
}

func (c *Command) Help() string {
	return `Usage: uidcrack cache [options]

  Lists every hash in the local cache of cracked hashes, most recent first.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("cache", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		"[UIDCRACK_CONFIG] Path to the HCL config file",
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

	cfg, err := c.LoadConfig(c.flagConfig, "")
	if err != nil {
		ui.Error(fmt.Sprintf("error loading config: %v", err))
		return 1
	}
	if _, err := os.Stat(cfg.Cache.Path); os.IsNotExist(err) {
		ui.Output("Cache is empty.")
		return 0
	}

	db, err := database.Connect(database.Config{Path: cfg.Cache.Path}, c.Log.Named("cache"))
	if err != nil {
		ui.Error(fmt.Sprintf("error opening cache: %v", err))
		return 1
	}
	defer database.Close(db)

	store, err := potfile.New(db, c.Log.Named("cache"))
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	ctx, stop := c.SignalContext()
	defer stop()

	entries, err := store.List(ctx)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	if len(entries) == 0 {
		ui.Output("Cache is empty.")
		return 0
	}

	var out bytes.Buffer
	w := tabwriter.NewWriter(&out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MD5\tUID\tENCODING\tENGINE\tCRACKED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			e.Hash, e.UID, e.Encoding, e.Engine, e.CrackedAt.Local().Format("2006-01-02 15:04:05"))
	}
	w.Flush()

	ui.Output(strings.TrimSuffix(out.String(), "\n"))
	return 0
}
