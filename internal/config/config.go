// Package config loads xdiff's settings from, in increasing priority: built-in defaults, the user config file (~/.config/xdiff/config.toml), the nearest .xdiff.toml
// found by walking up from the working directory, and XDIFF_* environment variables. Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// File names searched by Load.
const (
	UserFile    = ".config/xdiff/config.toml" // relative to the home directory
	ProjectFile = ".xdiff.toml"
)

// Config is xdiff's configuration.
type Config struct {
	// Context is the number of unchanged lines around each hunk. Defaults to 3.
	Context int `toml:"context"`

	// Color is "auto" (color when writing to a terminal), "always", or "never".
	Color string `toml:"color"`

	// LogLevel is "debug", "info", "warn", or "error". Defaults to "warn".
	LogLevel string `toml:"log_level"`

	// LogFile, if set, receives log records (appended) instead of stderr.
	LogFile string `toml:"log_file"`

	// OmitConflicts leaves conflicting regions out of merged output instead of keeping side1's lines.
	OmitConflicts bool `toml:"omit_conflicts"`

	// Sources lists the files that contributed values, lowest priority first.
	Sources []string `toml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Context:  3,
		Color:    ColorAuto,
		LogLevel: "warn",
	}
}

// Loader finds and applies configuration sources. The zero value uses the process's home directory, working directory, and environment.
type Loader struct {
	HomeDir string              // "" means os.UserHomeDir
	WorkDir string              // "" means os.Getwd
	Getenv  func(string) string // nil means os.Getenv
}

// Load loads configuration with a zero Loader.
func Load() (Config, error) {
	return Loader{}.Load()
}

// Load applies defaults, the user file, the nearest project file, and environment overrides. Missing or empty files are skipped. Values are not validated: command-line
// flags may still replace them, so callers run Validate once the flags are applied.
func (l Loader) Load() (Config, error) {
	cfg := Default()

	home := l.HomeDir
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	if home != "" {
		if err := cfg.loadFile(filepath.Join(home, filepath.FromSlash(UserFile))); err != nil {
			return Config{}, err
		}
	}

	wd := l.WorkDir
	if wd == "" {
		wd, _ = os.Getwd()
	}
	if path := nearestFile(ProjectFile, wd); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := cfg.ApplyEnvOverrides(getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFile decodes the TOML file at path over c. Keys absent from the file keep their current values. A missing file is not an error.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil
	}
	if _, err := toml.Decode(string(data), c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	c.Sources = append(c.Sources, path)
	return nil
}

// nearestFile searches upward from dir for the first non-empty file named name and returns its path, or "" if there is none. The search stops at the filesystem root.
func nearestFile(name, dir string) string {
	if dir == "" {
		return ""
	}
	for {
		candidate := filepath.Join(dir, name)
		if fi, err := os.Stat(candidate); err == nil && fi.Mode().IsRegular() && fi.Size() > 0 {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ApplyEnvOverrides applies XDIFF_CONTEXT, XDIFF_COLOR, XDIFF_LOG_LEVEL, XDIFF_LOG_FILE, and XDIFF_OMIT_CONFLICTS. Empty variables are ignored.
func (c *Config) ApplyEnvOverrides(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv("XDIFF_CONTEXT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("XDIFF_CONTEXT: %q is not an integer", v)
		}
		c.Context = n
	}
	if v := strings.TrimSpace(getenv("XDIFF_COLOR")); v != "" {
		c.Color = strings.ToLower(v)
	}
	if v := strings.TrimSpace(getenv("XDIFF_LOG_LEVEL")); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(getenv("XDIFF_LOG_FILE")); v != "" {
		c.LogFile = v
	}
	if v := strings.TrimSpace(getenv("XDIFF_OMIT_CONFLICTS")); v != "" {
		c.OmitConflicts = v == "1" || strings.EqualFold(v, "true")
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Context < 0 {
		return fmt.Errorf("invalid configuration: context must be >= 0 (got %d)", c.Context)
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid configuration: color must be %q, %q, or %q (got %q)", ColorAuto, ColorAlways, ColorNever, c.Color)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ParseLevel converts a log level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log_level must be debug, info, warn, or error (got %q)", s)
}

// Level returns c.LogLevel as a slog.Level; an invalid name yields slog.LevelWarn.
func (c Config) Level() slog.Level {
	lvl, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return lvl
}

// WriteTOML writes c's settings to w as TOML.
func (c Config) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
