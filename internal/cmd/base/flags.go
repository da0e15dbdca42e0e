package base

import (
	"bytes"
	"flag"
	"fmt"
	"strings"

	"github.com/hashicorp-forge/uidcrack/pkg/uidrange"
)

// FlagSet wraps flag.FlagSet to render help text in the CLI's style.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet wraps f. Usage output is suppressed; commands print Help.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	f.Usage = func() {}
	f.SetOutput(new(bytes.Buffer))
	return &FlagSet{FlagSet: f}
}

// Help returns the options section of a command's help text.
func (f *FlagSet) Help() string {
	var sb strings.Builder
	sb.WriteString("\n\nOptions:\n")

	f.VisitAll(func(fl *flag.Flag) {
		fmt.Fprintf(&sb, "\n  -%s", fl.Name)
		if name, _ := flag.UnquoteUsage(fl); name != "" {
			fmt.Fprintf(&sb, "=<%s>", name)
		}
		_, usage := flag.UnquoteUsage(fl)
		fmt.Fprintf(&sb, "\n      %s", usage)
		if fl.DefValue != "" && fl.DefValue != "false" && fl.DefValue != "0" && fl.DefValue != "[]" {
			fmt.Fprintf(&sb, " (default: %s)", fl.DefValue)
		}
		sb.WriteString("\n")
	})

	return sb.String()
}

// RangeList is a repeatable flag of UID ranges.
type RangeList []uidrange.Range

// String implements flag.Value.
func (l *RangeList) String() string {
	parts := make([]string, len(*l))
	for i, r := range *l {
		parts[i] = fmt.Sprintf("%d-%d", r.Start(), r.End())
	}
	return strings.Join(parts, " ")
}

// Set implements flag.Value.
func (l *RangeList) Set(s string) error {
	r, err := uidrange.Parse(s)
	if err != nil {
		return err
	}
	*l = append(*l, r)
	return nil
}
