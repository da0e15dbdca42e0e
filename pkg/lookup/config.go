package lookup

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-hclog"
)

// DefaultBaseURL is the public hash-to-UID lookup service.
const DefaultBaseURL = "https://api.aicu.cc"

// Config contains configuration for the lookup client.
//
// Example configuration (HCL):
//
//	lookup {
//	  base_url    = "https://api.aicu.cc"
//	  timeout     = "30s"
//	  max_retries = 3
//	}
type Config struct {
	// BaseURL is the scheme and host of the lookup service.
	// Default: DefaultBaseURL
	BaseURL string

	// Timeout for a single request.
	// Default: 30 seconds
	Timeout time.Duration

	// MaxRetries for requests that fail with a transport error or a server
	// error.
	// Default: 3
	MaxRetries int

	// RetryDelay is the initial delay between retries, doubled on every
	// retry.
	// Default: 1 second
	RetryDelay time.Duration

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client

	Logger hclog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: 1 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	return c
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must use http or https scheme, got: %q", u.Scheme)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got: %v", c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got: %d", c.MaxRetries)
	}
	return nil
}
