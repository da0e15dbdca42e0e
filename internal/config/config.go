// Package config loads the uidcrack HCL configuration file.
//
// Example:
//
//	log_level = "info"
//	threshold = 10000000000
//	strategy  = "exact"
//
//	range {
//	  start = 1
//	  end   = 9999999999
//	}
//
//	hashcat {
//	  path                = "/opt/hashcat/hashcat"
//	  backend_ignore_cuda = false
//	  workload_profile    = 4
//	}
//
//	john {
//	  path = "/usr/sbin/john"
//	}
//
//	lookup {
//	  base_url    = "https://api.aicu.cc"
//	  timeout     = "30s"
//	  max_retries = 3
//	}
//
//	cache {
//	  path = "uidcrack.db"
//	}
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/hashicorp-forge/uidcrack/pkg/lookup"
	"github.com/hashicorp-forge/uidcrack/pkg/mask"
	"github.com/hashicorp-forge/uidcrack/pkg/uidrange"
)

// Config is the configuration for uidcrack.
type Config struct {
	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `hcl:"log_level,optional"`

	// Threshold splits ranges before compilation. Zero disables splitting.
	Threshold *uint64 `hcl:"threshold,optional"`

	// Strategy is the mask compilation strategy: exact or lookahead.
	Strategy string `hcl:"strategy,optional"`

	// Ranges are the default UID ranges searched when none are given on the
	// command line.
	Ranges []*Range `hcl:"range,block"`

	Hashcat *Hashcat `hcl:"hashcat,block"`
	John    *John    `hcl:"john,block"`
	Lookup  *Lookup  `hcl:"lookup,block"`
	Cache   *Cache   `hcl:"cache,block"`
}

// Range is a closed UID interval.
type Range struct {
	Start uint64 `hcl:"start"`
	End   uint64 `hcl:"end"`
}

// Validate implements validation.Validatable.
func (r Range) Validate() error {
	if r.Start > r.End {
		return fmt.Errorf("start %d is greater than end %d", r.Start, r.End)
	}
	return nil
}

// Hashcat configures the hashcat engine.
type Hashcat struct {
	// Path to the hashcat executable. Empty searches PATH.
	Path string `hcl:"path,optional"`

	// Disabled skips hashcat even when it is installed.
	Disabled bool `hcl:"disabled,optional"`

	// BackendIgnoreCUDA works around broken CUDA installations.
	BackendIgnoreCUDA bool `hcl:"backend_ignore_cuda,optional"`

	// WorkloadProfile is hashcat's -w value, 1 to 4.
	WorkloadProfile int `hcl:"workload_profile,optional"`
}

// John configures the John the Ripper engine.
type John struct {
	// Path to the john executable. Empty searches PATH.
	Path string `hcl:"path,optional"`

	// Disabled skips john even when it is installed.
	Disabled bool `hcl:"disabled,optional"`
}

// Lookup configures the hash-to-UID lookup service.
type Lookup struct {
	BaseURL    string `hcl:"base_url,optional"`
	Timeout    string `hcl:"timeout,optional"`
	MaxRetries int    `hcl:"max_retries,optional"`
}

// Cache configures the cracked hash cache.
type Cache struct {
	// Path is the sqlite database file.
	Path string `hcl:"path,optional"`

	// Disabled turns the cache off.
	Disabled bool `hcl:"disabled,optional"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadFile decodes the HCL file at path and fills in defaults.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("configuration file path is required")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", path)
	}

	cfg := &Config{}
	if err := hclsimple.DecodeFile(path, nil, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Threshold == nil {
		t := uidrange.DefaultThreshold
		c.Threshold = &t
	}
	if c.Strategy == "" {
		c.Strategy = mask.StrategyExact.String()
	}
	if c.Hashcat == nil {
		c.Hashcat = &Hashcat{}
	}
	if c.Hashcat.WorkloadProfile == 0 {
		c.Hashcat.WorkloadProfile = 4
	}
	if c.John == nil {
		c.John = &John{}
	}

	d := lookup.DefaultConfig()
	if c.Lookup == nil {
		c.Lookup = &Lookup{}
	}
	if c.Lookup.BaseURL == "" {
		c.Lookup.BaseURL = d.BaseURL
	}
	if c.Lookup.Timeout == "" {
		c.Lookup.Timeout = d.Timeout.String()
	}
	if c.Lookup.MaxRetries == 0 {
		c.Lookup.MaxRetries = d.MaxRetries
	}

	if c.Cache == nil {
		c.Cache = &Cache{}
	}
	if c.Cache.Path == "" {
		c.Cache.Path = defaultCachePath()
	}
}

// defaultCachePath places the cache in the user cache directory, falling
// back to the working directory.
func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "uidcrack.db"
	}
	return filepath.Join(dir, "uidcrack", "uidcrack.db")
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogLevel,
			validation.In("trace", "debug", "info", "warn", "error"),
		),
		validation.Field(&c.Strategy,
			validation.By(func(value interface{}) error {
				_, err := mask.ParseStrategy(value.(string))
				return err
			}),
		),
		validation.Field(&c.Ranges),
		validation.Field(&c.Hashcat),
		validation.Field(&c.Lookup),
	)
}

// Validate implements validation.Validatable.
func (h Hashcat) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.WorkloadProfile, validation.Min(1), validation.Max(4)),
	)
}

// Validate implements validation.Validatable.
func (l Lookup) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.BaseURL, validation.Required),
		validation.Field(&l.Timeout, validation.By(func(value interface{}) error {
			_, err := time.ParseDuration(value.(string))
			return err
		})),
		validation.Field(&l.MaxRetries, validation.Min(0)),
	)
}

// UIDRanges converts the configured ranges, defaulting to every UID.
func (c *Config) UIDRanges() ([]uidrange.Range, error) {
	if len(c.Ranges) == 0 {
		return uidrange.All(), nil
	}

	out := make([]uidrange.Range, 0, len(c.Ranges))
	for _, r := range c.Ranges {
		rng, err := uidrange.New(r.Start, r.End)
		if err != nil {
			return nil, err
		}
		out = append(out, rng)
	}
	return out, nil
}

// LookupConfig converts the lookup block for the lookup client.
func (c *Config) LookupConfig() (lookup.Config, error) {
	timeout, err := time.ParseDuration(c.Lookup.Timeout)
	if err != nil {
		return lookup.Config{}, fmt.Errorf("invalid lookup timeout: %w", err)
	}
	return lookup.Config{
		BaseURL:    c.Lookup.BaseURL,
		Timeout:    timeout,
		MaxRetries: c.Lookup.MaxRetries,
	}, nil
}
