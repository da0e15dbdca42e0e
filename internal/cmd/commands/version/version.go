package version

import (
	"github.com/hashicorp-forge/uidcrack/internal/cmd/base"
	"github.com/hashicorp-forge/uidcrack/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the uidcrack version"
}

func (c *Command) Help() string {
	return `Usage: uidcrack version

  Prints the version of this binary.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output("uidcrack v" + version.String())
	return 0
}
