// Package config loads goshred's configuration: built-in defaults, layered
// with a global user config file, a project config file, and finally
// whatever the CLI passed on the command line.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// Config holds every tunable default WipeTarget and the CLI consult.
type Config struct {
	Passes        int    `json:"passes,omitempty"`
	Verbose       bool   `json:"verbose,omitempty"`
	ExactSize     bool   `json:"exact_size,omitempty"`     //nolint:tagliatelle // snake_case for config file
	ForceWritable bool   `json:"force_writable,omitempty"` //nolint:tagliatelle
	URandomPath   string `json:"urandom_path,omitempty"`   //nolint:tagliatelle
	RandomPath    string `json:"random_path,omitempty"`    //nolint:tagliatelle
}

// Sources tracks which config files, if any, were loaded.
type Sources struct {
	Global  string
	Project string
}

// Overrides marks which fields the CLI explicitly set, so a zero-value CLI
// flag (0 passes, false verbose) isn't mistaken for "not given" and doesn't
// clobber a config file's value.
type Overrides struct {
	Passes        bool
	Verbose       bool
	ExactSize     bool
	ForceWritable bool
	URandomPath   bool
	RandomPath    bool
}

// DefaultConfig returns goshred's built-in defaults: three passes (the
// original utility's default), reading entropy from the real devices.
func DefaultConfig() Config {
	return Config{
		Passes:      3,
		URandomPath: "/dev/urandom",
		RandomPath:  "/dev/random",
	}
}

// FileName is the project-local config file name.
const FileName = ".goshred.json"

// getGlobalConfigPath returns $XDG_CONFIG_HOME/goshred/config.json, falling
// back to ~/.config/goshred/config.json. Returns "" if neither can be
// determined. env, if non-nil, is consulted before os.Getenv — used by
// tests to avoid depending on the real process environment.
func getGlobalConfigPath(env []string) string {
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok {
			return filepath.Join(after, "goshred", "config.json")
		}
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "goshred", "config.json")
	}

	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, ".config", "goshred", "config.json")
	}

	return ""
}

// Load builds the effective configuration with the following precedence
// (highest wins): defaults, global user config, project config
// (workDir/.goshred.json, or the file at configPath if non-empty),
// CLI overrides.
func Load(workDir, configPath string, cliOverrides Config, overrides Overrides, env []string) (Config, Sources, error) {
	cfg := DefaultConfig()

	var sources Sources

	globalCfg, globalPath, err := loadGlobalConfig(env)
	if err != nil {
		return Config{}, Sources{}, err
	}

	sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, configPath)
	if err != nil {
		return Config{}, Sources{}, err
	}

	sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	cfg = applyOverrides(cfg, cliOverrides, overrides)

	if err := validateConfig(cfg); err != nil {
		return Config{}, Sources{}, err
	}

	return cfg, sources, nil
}

func loadGlobalConfig(env []string) (Config, string, error) {
	path := getGlobalConfigPath(env)
	if path == "" {
		return Config{}, "", nil
	}

	cfg, loaded, err := loadConfigFile(path, false)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return cfg, path, nil
}

func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	var (
		cfgFile   string
		mustExist bool
	)

	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true

		if _, err := os.Stat(cfgFile); err != nil {
			return Config{}, "", fmt.Errorf("%w: %s", errConfigFileNotFound, configPath)
		}
	} else {
		cfgFile = filepath.Join(workDir, FileName)
	}

	cfg, loaded, err := loadConfigFile(cfgFile, mustExist)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return cfg, cfgFile, nil
}

// loadConfigFile reads and parses path. A missing optional file (mustExist
// false) is not an error; it simply reports loaded=false.
func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}

		if mustExist {
			return Config{}, false, fmt.Errorf("%w: %s", errConfigFileRead, path)
		}

		return Config{}, false, nil
	}

	cfg, err := parseConfig(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}

	return cfg, true, nil
}

func parseConfig(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}

// mergeConfig layers overlay onto base. A zero-value field in overlay
// (0 passes, "", false) means "not set in this file" and leaves base alone
// — config files can only raise a bool flag, never explicitly un-set one a
// lower-precedence layer already turned on.
func mergeConfig(base, overlay Config) Config {
	if overlay.Passes != 0 {
		base.Passes = overlay.Passes
	}

	if overlay.Verbose {
		base.Verbose = true
	}

	if overlay.ExactSize {
		base.ExactSize = true
	}

	if overlay.ForceWritable {
		base.ForceWritable = true
	}

	if overlay.URandomPath != "" {
		base.URandomPath = overlay.URandomPath
	}

	if overlay.RandomPath != "" {
		base.RandomPath = overlay.RandomPath
	}

	return base
}

// applyOverrides layers the CLI's explicitly-set flags on top, using
// overrides to distinguish "flag given as false/zero" from "flag not
// given at all" (mergeConfig's zero-value convention can't do that).
func applyOverrides(base, cli Config, overrides Overrides) Config {
	if overrides.Passes {
		base.Passes = cli.Passes
	}

	if overrides.Verbose {
		base.Verbose = cli.Verbose
	}

	if overrides.ExactSize {
		base.ExactSize = cli.ExactSize
	}

	if overrides.ForceWritable {
		base.ForceWritable = cli.ForceWritable
	}

	if overrides.URandomPath {
		base.URandomPath = cli.URandomPath
	}

	if overrides.RandomPath {
		base.RandomPath = cli.RandomPath
	}

	return base
}

func validateConfig(cfg Config) error {
	if cfg.Passes < 1 {
		return fmt.Errorf("%w: got %d", errPassesInvalid, cfg.Passes)
	}

	return nil
}

// Format renders cfg as indented JSON.
func Format(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format config: %w", err)
	}

	return string(data), nil
}
