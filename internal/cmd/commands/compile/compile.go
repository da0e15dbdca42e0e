package compile

import (
	"bytes"
	"flag"
	"fmt"
	"strings"

	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/uidcrack/internal/cmd/base"
	"github.com/hashicorp-forge/uidcrack/pkg/digits"
	"github.com/hashicorp-forge/uidcrack/pkg/mask"
	"github.com/hashicorp-forge/uidcrack/pkg/uidrange"
)

type Command struct {
	*base.Command

	flagRanges    base.RangeList
	flagEncoding  string
	flagStrategy  string
	flagThreshold uint64
	flagCount     bool
}

func (c *Command) Synopsis() string {
	return "Print the hashcat mask file for UID ranges"
}

func (c *Command) Help() string {
	return `Usage: uidcrack compile -range START-END [options]

  Compiles the given UID ranges into a hashcat mask file and prints it. The
  output can be passed to "hashcat -a 3" directly; add --hex-charset for the
  non-standard encoding.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("compile", flag.ContinueOnError))

	f.Var(
		&c.flagRanges, "range",
		"(Required) UID range START-END. May be repeated",
	)
	f.StringVar(
		&c.flagEncoding, "encoding", "standard",
		"Preimage encoding (standard, non-standard)",
	)
	f.StringVar(
		&c.flagStrategy, "strategy", "exact",
		"Mask compilation strategy (exact, lookahead)",
	)
	f.Uint64Var(
		&c.flagThreshold, "threshold", uidrange.DefaultThreshold,
		"Split ranges at this UID. 0 disables splitting",
	)
	f.BoolVar(
		&c.flagCount, "count", false,
		"Print the number of candidates of every mask as a comment",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if len(c.flagRanges) == 0 {
		return cli.RunResultHelp
	}

	enc, err := digits.ParseEncoding(c.flagEncoding)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	strategy, err := mask.ParseStrategy(c.flagStrategy)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	ranges := uidrange.SplitAt(uidrange.Merge(c.flagRanges), c.flagThreshold)

	var out bytes.Buffer
	var total uint64
	for _, r := range ranges {
		blocks := mask.Compile(r, enc, strategy)
		total += blocks.Count()

		if !c.flagCount {
			blocks.WriteTo(&out)
			continue
		}
		fmt.Fprintf(&out, "# %s\n", r)
		for _, b := range blocks {
			fmt.Fprintf(&out, "%s\t# %d\n", b.Line(), b.Count())
		}
	}

	c.UI.Output(strings.TrimSuffix(out.String(), "\n"))
	if c.flagCount {
		c.UI.Output(fmt.Sprintf("# total %d", total))
	}
	return 0
}
