// Package config holds runtime configuration: defaults, the TOML file, flag
// overrides and validation. Settings are layered in that order; a flag the
// user did not pass never overrides the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// --- Enum types for validated string fields ---

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// OutputFormat selects how a resolved job is printed.
type OutputFormat string

const (
	OutputTable OutputFormat = "table" // Stream graph tables (default).
	OutputYAML  OutputFormat = "yaml"  // Machine-readable job report.
	OutputArgs  OutputFormat = "args"  // Canonical ffmpeg argument vector.
)

// Log levels accepted by LogLevel.
var logLevels = []string{"debug", "info", "warn", "error"}

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then by [Load], then by [Flags.Apply].
type Config struct {
	// External tools.
	FFmpegBin    string `toml:"ffmpeg"`        // Default: "ffmpeg".
	FFprobeBin   string `toml:"ffprobe"`       // Default: "ffprobe".
	CountPackets bool   `toml:"count_packets"` // Ask ffprobe for packet counts (slow, exact selection bonus).

	// Fixtures replaces ffprobe with a YAML or JSON file of containers.
	Fixtures string `toml:"fixtures"`
	// DataDir is searched last for -pre preset files.
	DataDir string `toml:"data_dir"`

	// Display and logging.
	LogLevel  string       `toml:"log_level"` // Default: "info".
	ColorMode ColorMode    `toml:"color"`     // Default: "auto".
	LogFile   string       `toml:"log_file"`  // Optional log file path.
	Output    OutputFormat `toml:"output"`    // Default: "table".

	// Execution.
	Overwrite   bool `toml:"overwrite"`    // Pass -y to ffmpeg unless the command says -n.
	ShowStats   bool `toml:"show_stats"`   // Tee ffmpeg progress to stderr.
	MaxAttempts int  `toml:"max_attempts"` // Default: 4. Runs per job including stderr-driven retries.
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	return Config{
		FFmpegBin:   "ffmpeg",
		FFprobeBin:  "ffprobe",
		LogLevel:    "info",
		ColorMode:   ColorAuto,
		Output:      OutputTable,
		ShowStats:   true,
		MaxAttempts: 4,
	}
}

// Validate checks the enum fields and numeric ranges.
func (c *Config) Validate() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	switch c.Output {
	case OutputTable, OutputYAML, OutputArgs:
		// valid
	default:
		return errors.New("invalid output format (use 'table', 'yaml' or 'args')")
	}

	if !validLogLevel(c.LogLevel) {
		return fmt.Errorf("invalid log level %q (use %s)", c.LogLevel, strings.Join(logLevels, ", "))
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if strings.TrimSpace(c.FFmpegBin) == "" || strings.TrimSpace(c.FFprobeBin) == "" {
		return errors.New("ffmpeg and ffprobe binaries must not be empty")
	}
	return nil
}

func validLogLevel(s string) bool {
	for _, l := range logLevels {
		if s == l {
			return true
		}
	}
	return false
}

// --- File ---

// DefaultPath returns $XDG_CONFIG_HOME/muxgraph/config.toml, falling back
// to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() (string, error) {
	if base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); base != "" {
		return filepath.Join(base, "muxgraph", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "muxgraph", "config.toml"), nil
}

// Load reads the configuration file at path over the defaults. An empty
// path means [DefaultPath], which may be absent; an explicit path must
// exist. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}
	path, err := expandPath(path)
	if err != nil {
		return cfg, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return cfg, fmt.Errorf("parse config %s: %s", path, strict.String())
		}
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// expandPath resolves a leading ~ and makes the path absolute.
func expandPath(p string) (string, error) {
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		switch {
		case p == "~":
			p = home
		case p[1] == '/' || p[1] == '\\':
			p = filepath.Join(home, p[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}
