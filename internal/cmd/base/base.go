// Package base holds what every uidcrack subcommand shares.
package base

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/uidcrack/internal/config"
)

// ConfigEnv names the environment variable consulted when -config is unset.
const ConfigEnv = "UIDCRACK_CONFIG"

// Command is embedded by every subcommand.
type Command struct {
	Log hclog.Logger
	UI  cli.Ui
}

// NewCommand returns a Command that logs to log and writes to ui.
func NewCommand(log hclog.Logger, ui cli.Ui) *Command {
	return &Command{Log: log, UI: ui}
}

// SignalContext returns a context canceled on SIGINT or SIGTERM.
func (c *Command) SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// LoadConfig loads the config file at path, or the one named by
// UIDCRACK_CONFIG, or the defaults when neither is set. The logger level is
// taken from the configuration unless logLevel overrides it.
func (c *Command) LoadConfig(path, logLevel string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}

	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if level := hclog.LevelFromString(cfg.LogLevel); level != hclog.NoLevel {
		c.Log.SetLevel(level)
	}
	return cfg, nil
}
