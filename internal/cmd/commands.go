package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/uidcrack/internal/cmd/base"
	"github.com/hashicorp-forge/uidcrack/internal/cmd/commands/cache"
	"github.com/hashicorp-forge/uidcrack/internal/cmd/commands/compile"
	"github.com/hashicorp-forge/uidcrack/internal/cmd/commands/crack"
	"github.com/hashicorp-forge/uidcrack/internal/cmd/commands/lookup"
	"github.com/hashicorp-forge/uidcrack/internal/cmd/commands/md5"
	"github.com/hashicorp-forge/uidcrack/internal/cmd/commands/version"
)

// commands returns the subcommand factories.
func commands(log hclog.Logger, ui cli.Ui) map[string]cli.CommandFactory {
	b := base.NewCommand(log, ui)

	return map[string]cli.CommandFactory{
		"cache": func() (cli.Command, error) {
			return &cache.Command{Command: b}, nil
		},
		"compile": func() (cli.Command, error) {
			return &compile.Command{Command: b}, nil
		},
		"crack": func() (cli.Command, error) {
			return &crack.Command{Command: b}, nil
		},
		"lookup": func() (cli.Command, error) {
			return &lookup.Command{Command: b}, nil
		},
		"md5": func() (cli.Command, error) {
			return &md5.Command{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
