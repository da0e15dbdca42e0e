package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/uidcrack/pkg/lookup"
	"github.com/hashicorp-forge/uidcrack/pkg/uidrange"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "uidcrack.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, uidrange.DefaultThreshold, *cfg.Threshold)
	assert.Equal(t, "exact", cfg.Strategy)
	assert.Equal(t, 4, cfg.Hashcat.WorkloadProfile)
	assert.Equal(t, lookup.DefaultBaseURL, cfg.Lookup.BaseURL)
	assert.NotEmpty(t, cfg.Cache.Path)

	ranges, err := cfg.UIDRanges()
	require.NoError(t, err)
	assert.Equal(t, uidrange.All(), ranges)
}

func TestLoadFile(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		path := writeConfig(t, `
log_level = "debug"
threshold = 0
strategy  = "lookahead"

range {
  start = 1
  end   = 9999
}

range {
  start = 100000
  end   = 200000
}

hashcat {
  path                = "/opt/hashcat/hashcat"
  backend_ignore_cuda = true
  workload_profile    = 3
}

john {
  disabled = true
}

lookup {
  base_url    = "http://localhost:8080"
  timeout     = "5s"
  max_retries = 1
}

cache {
  path = "/tmp/cache.db"
}
`)

		cfg, err := LoadFile(path)
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, uint64(0), *cfg.Threshold)
		assert.Equal(t, "lookahead", cfg.Strategy)
		assert.Equal(t, "/opt/hashcat/hashcat", cfg.Hashcat.Path)
		assert.True(t, cfg.Hashcat.BackendIgnoreCUDA)
		assert.Equal(t, 3, cfg.Hashcat.WorkloadProfile)
		assert.True(t, cfg.John.Disabled)
		assert.Equal(t, "/tmp/cache.db", cfg.Cache.Path)

		ranges, err := cfg.UIDRanges()
		require.NoError(t, err)
		assert.Equal(t, []uidrange.Range{
			uidrange.MustNew(1, 9999),
			uidrange.MustNew(100000, 200000),
		}, ranges)

		lc, err := cfg.LookupConfig()
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080", lc.BaseURL)
		assert.Equal(t, 5*time.Second, lc.Timeout)
		assert.Equal(t, 1, lc.MaxRetries)
	})

	t.Run("empty file gets defaults", func(t *testing.T) {
		cfg, err := LoadFile(writeConfig(t, ""))
		require.NoError(t, err)
		assert.Equal(t, Default().LogLevel, cfg.LogLevel)
		assert.Equal(t, uidrange.DefaultThreshold, *cfg.Threshold)
		assert.NotNil(t, cfg.Hashcat)
		assert.NotNil(t, cfg.John)
	})

	t.Run("invalid values", func(t *testing.T) {
		cases := map[string]string{
			"log level": `log_level = "loud"`,
			"strategy":  `strategy = "random"`,
			"range":     "range {\n start = 10\n end = 1\n}",
			"workload":  "hashcat {\n workload_profile = 9\n}",
			"timeout":   "lookup {\n timeout = \"soon\"\n}",
		}
		for name, content := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := LoadFile(writeConfig(t, content))
				assert.Error(t, err)
			})
		}
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, `log_level = `))
		assert.Error(t, err)
	})

	t.Run("unknown attribute", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, `colour = "blue"`))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.hcl"))
		assert.ErrorContains(t, err, "not found")
	})
}
