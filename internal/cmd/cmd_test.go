package cmd

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/uidcrack/internal/cmd/base"
	"github.com/hashicorp-forge/uidcrack/pkg/digits"
)

func runCLI(t *testing.T, args ...string) (int, *cli.MockUi) {
	t.Helper()

	ui := cli.NewMockUi()
	code := run("uidcrack", args, hclog.NewNullLogger(), ui)
	return code, ui
}

func TestMD5Command(t *testing.T) {
	code, ui := runCLI(t, "md5", "123")
	require.Equal(t, 0, code, ui.ErrorWriter.String())

	out := ui.OutputWriter.String()
	assert.Contains(t, out, "Standard MD5: 202cb962ac59075b964b07152d234b70")
	assert.Contains(t, out, "Non-standard MD5: 5289df737df57326fcdd22597afb1fac")

	code, _ = runCLI(t, "md5", "-5")
	assert.Equal(t, 1, code)

	code, ui = runCLI(t, "md5")
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.OutputWriter.String(), "Usage: uidcrack md5 UID")
}

func TestCompileCommand(t *testing.T) {
	t.Run("standard", func(t *testing.T) {
		code, ui := runCLI(t, "compile", "-range", "120-150")
		require.Equal(t, 0, code, ui.ErrorWriter.String())
		assert.Equal(t, "234,1?1?d\n150\n", ui.OutputWriter.String())
	})

	t.Run("lookahead", func(t *testing.T) {
		code, ui := runCLI(t, "compile", "-range", "120-150", "-strategy", "lookahead")
		require.Equal(t, 0, code, ui.ErrorWriter.String())
		assert.Equal(t, "234,1?1?d\n0,15?1\n", ui.OutputWriter.String())
	})

	t.Run("count", func(t *testing.T) {
		code, ui := runCLI(t, "compile", "-range", "120-150", "-count")
		require.Equal(t, 0, code, ui.ErrorWriter.String())
		assert.Contains(t, ui.OutputWriter.String(), "# total 31")
	})

	t.Run("bad encoding", func(t *testing.T) {
		code, _ := runCLI(t, "compile", "-range", "1-2", "-encoding", "utf-7")
		assert.Equal(t, 1, code)
	})

	t.Run("bad range", func(t *testing.T) {
		code, _ := runCLI(t, "compile", "-range", "9-1")
		assert.Equal(t, 1, code)
	})
}

func TestVersionCommand(t *testing.T) {
	code, ui := runCLI(t, "version")
	require.Equal(t, 0, code)
	assert.Contains(t, ui.OutputWriter.String(), "uidcrack v")
}

func TestCrackCommand_Usage(t *testing.T) {
	t.Setenv(base.ConfigEnv, "")

	code, ui := runCLI(t, "crack")
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.OutputWriter.String(), "Usage: uidcrack crack")

	code, ui = runCLI(t, "crack", "-md5", "not-a-hash", "-no-cache")
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.ErrorWriter.String(), "not a valid MD5")

	code, ui = runCLI(t, "crack", "-url", "https://b23.tv/BV1xx411c7mD", "-no-cache")
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.ErrorWriter.String(), "not a crackable link")
}

func TestLookupCommand(t *testing.T) {
	hash := digits.MD5(123, digits.Standard)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("hash") == hash {
			fmt.Fprint(w, `{"data":{"uid":123}}`)
		}
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "uidcrack.hcl")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(`
lookup {
  base_url = %q
}
`, srv.URL)), 0o600))
	t.Setenv(base.ConfigEnv, path)

	code, ui := runCLI(t, "lookup", "-md5", hash)
	require.Equal(t, 0, code, ui.ErrorWriter.String())
	assert.Contains(t, ui.OutputWriter.String(), "UID: 123")

	code, ui = runCLI(t, "lookup", "-url", "https://www.bilibili.com/video/BV1/?share_source=copy_web&vd_source="+hash)
	require.Equal(t, 0, code, ui.ErrorWriter.String())

	code, ui = runCLI(t, "lookup", "-md5", digits.MD5(124, digits.Standard))
	assert.Equal(t, 2, code)
	assert.Contains(t, ui.OutputWriter.String(), "UID not found")

	code, ui = runCLI(t, "lookup")
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.OutputWriter.String(), "Usage: uidcrack lookup")
}

func TestCacheCommand_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uidcrack.hcl")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(`
cache {
  path = %q
}
`, filepath.Join(t.TempDir(), "missing.db"))), 0o600))
	t.Setenv(base.ConfigEnv, path)

	code, ui := runCLI(t, "cache")
	require.Equal(t, 0, code, ui.ErrorWriter.String())
	assert.Contains(t, ui.OutputWriter.String(), "Cache is empty.")
}
