package md5

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/uidcrack/internal/cmd/base"
	"github.com/hashicorp-forge/uidcrack/pkg/digits"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the standard and non-standard MD5 of a UID"
}

func (c *Command) Help() string {
	return `Usage: uidcrack md5 UID

  Prints the MD5 a share button link (standard) and an address bar link
  (non-standard) would carry for UID.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	return base.NewFlagSet(flag.NewFlagSet("md5", flag.ContinueOnError))
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		return cli.RunResultHelp
	}

	uid, err := strconv.ParseUint(f.Arg(0), 10, 64)
	if err != nil {
		c.UI.Error(fmt.Sprintf("invalid UID %q: must be a non-negative integer", f.Arg(0)))
		return 1
	}

	c.UI.Output(fmt.Sprintf("UID: %d", uid))
	c.UI.Output(fmt.Sprintf("Standard MD5: %s", digits.MD5(uid, digits.Standard)))
	c.UI.Output(fmt.Sprintf("Non-standard MD5: %s", digits.MD5(uid, digits.NonStandard)))
	return 0
}
