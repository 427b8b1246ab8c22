package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadReturnsDefaultsWithNoFiles(t *testing.T) {
	dir := t.TempDir()

	cfg, sources, err := Load(dir, "", Config{}, Overrides{}, nil)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
	require.Empty(t, sources.Global)
	require.Empty(t, sources.Project)
}

func TestLoadProjectConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `{"passes": 7, "verbose": true}`)

	cfg, sources, err := Load(dir, "", Config{}, Overrides{}, nil)
	require.NoError(t, err)
	require.Equal(t, 7, cfg.Passes)
	require.True(t, cfg.Verbose)
	require.Equal(t, filepath.Join(dir, FileName), sources.Project)
}

func TestLoadAcceptsJSONCComments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `{
		// shred with extra confidence
		"passes": 5,
	}`)

	cfg, _, err := Load(dir, "", Config{}, Overrides{}, nil)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Passes)
}

func TestLoadExplicitConfigPathMustExist(t *testing.T) {
	dir := t.TempDir()

	_, _, err := Load(dir, "missing.json", Config{}, Overrides{}, nil)
	require.ErrorIs(t, err, errConfigFileNotFound)
}

func TestLoadCLIOverridesWinOverProjectConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `{"passes": 7}`)

	cfg, _, err := Load(dir, "", Config{Passes: 1}, Overrides{Passes: true}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, cfg.Passes)
}

func TestLoadRejectsZeroPasses(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `{"passes": 0}`)

	// passes:0 in JSON round-trips through the zero value and is
	// indistinguishable from "not set", so the project file is a no-op
	// here and defaults (3 passes) apply; the invalid case is reached via
	// an explicit CLI override instead.
	cfg, _, err := Load(dir, "", Config{}, Overrides{}, nil)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Passes)

	_, _, err = Load(dir, "", Config{Passes: 0}, Overrides{Passes: true}, nil)
	require.ErrorIs(t, err, errPassesInvalid)
}

func TestGetGlobalConfigPathPrefersExplicitEnvSlice(t *testing.T) {
	path := getGlobalConfigPath([]string{"XDG_CONFIG_HOME=/custom"})
	require.Equal(t, filepath.Join("/custom", "goshred", "config.json"), path)
}

func TestLoadGlobalConfigLayersUnderProject(t *testing.T) {
	dir := t.TempDir()
	xdg := filepath.Join(dir, "xdg")
	writeFile(t, filepath.Join(xdg, "goshred", "config.json"), `{"passes": 9, "force_writable": true}`)
	writeFile(t, filepath.Join(dir, FileName), `{"passes": 4}`)

	cfg, sources, err := Load(dir, "", Config{}, Overrides{}, []string{"XDG_CONFIG_HOME=" + xdg})
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Passes, "project config must win over global")
	require.True(t, cfg.ForceWritable, "global-only fields must still apply")
	require.NotEmpty(t, sources.Global)
}

func TestFormatRoundTripsThroughJSON(t *testing.T) {
	cfg := DefaultConfig()

	out, err := Format(cfg)
	require.NoError(t, err)
	require.Contains(t, out, `"passes": 3`)

	parsed, err := parseConfig([]byte(out))
	require.NoError(t, err)
	require.Equal(t, cfg, parsed)
}
