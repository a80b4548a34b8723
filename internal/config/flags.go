package config

// This file binds the persistent command-line flags. Values land in a
// private Config and are copied onto the loaded one only when the user set
// them, so file values survive flags left at their defaults.

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Flag names.
const (
	flagConfig       = "config"
	flagFFmpeg       = "ffmpeg"
	flagFFprobe      = "ffprobe"
	flagCountPackets = "count-packets"
	flagFixtures     = "fixtures"
	flagDataDir      = "datadir"
	flagLogLevel     = "log-level"
	flagVerbose      = "verbose"
	flagColor        = "color"
	flagLogFile      = "log-file"
	flagOutput       = "output"
	flagOverwrite    = "overwrite"
	flagNoStats      = "no-stats"
	flagMaxAttempts  = "max-attempts"
)

// Flags are the bound command-line overrides.
type Flags struct {
	fs      *pflag.FlagSet
	val     Config
	verbose bool
	noStats bool
	// ConfigPath is the --config value, empty for the default location.
	ConfigPath string
}

// BindFlags registers every configuration flag on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs, val: DefaultConfig()}
	v := &f.val

	fs.StringVar(&f.ConfigPath, flagConfig, "", "Configuration file (default $XDG_CONFIG_HOME/muxgraph/config.toml)")

	fs.StringVar(&v.FFmpegBin, flagFFmpeg, v.FFmpegBin, "ffmpeg binary")
	fs.StringVar(&v.FFprobeBin, flagFFprobe, v.FFprobeBin, "ffprobe binary")
	fs.BoolVar(&v.CountPackets, flagCountPackets, v.CountPackets, "Count packets while probing")
	fs.StringVar(&v.Fixtures, flagFixtures, v.Fixtures, "Read containers from a YAML/JSON fixture file instead of ffprobe")
	fs.StringVar(&v.DataDir, flagDataDir, v.DataDir, "Extra preset search directory")

	fs.StringVar(&v.LogLevel, flagLogLevel, v.LogLevel, "Log level: debug | info | warn | error")
	fs.BoolVarP(&f.verbose, flagVerbose, "v", false, "Same as --log-level debug")
	fs.Var(&colorModeValue{&v.ColorMode}, flagColor, "Color output: auto | always | never")
	fs.StringVar(&v.LogFile, flagLogFile, v.LogFile, "Also write logs to this file")
	fs.VarP(&outputValue{&v.Output}, flagOutput, "o", "Resolve output: table | yaml | args")

	fs.BoolVarP(&v.Overwrite, flagOverwrite, "y", v.Overwrite, "Overwrite output files")
	fs.BoolVar(&f.noStats, flagNoStats, false, "Do not tee ffmpeg progress to stderr")
	fs.IntVar(&v.MaxAttempts, flagMaxAttempts, v.MaxAttempts, "ffmpeg attempts per run, including retries")
	return f
}

// Apply copies every flag the user set onto cfg.
func (f *Flags) Apply(cfg *Config) {
	set := func(name string, apply func()) {
		if f.fs.Changed(name) {
			apply()
		}
	}
	v := &f.val
	set(flagFFmpeg, func() { cfg.FFmpegBin = v.FFmpegBin })
	set(flagFFprobe, func() { cfg.FFprobeBin = v.FFprobeBin })
	set(flagCountPackets, func() { cfg.CountPackets = v.CountPackets })
	set(flagFixtures, func() { cfg.Fixtures = v.Fixtures })
	set(flagDataDir, func() { cfg.DataDir = v.DataDir })
	set(flagLogLevel, func() { cfg.LogLevel = v.LogLevel })
	set(flagColor, func() { cfg.ColorMode = v.ColorMode })
	set(flagLogFile, func() { cfg.LogFile = v.LogFile })
	set(flagOutput, func() { cfg.Output = v.Output })
	set(flagOverwrite, func() { cfg.Overwrite = v.Overwrite })
	set(flagMaxAttempts, func() { cfg.MaxAttempts = v.MaxAttempts })

	// Negated and shorthand flags win over their long forms.
	if f.verbose {
		cfg.LogLevel = "debug"
	}
	if f.noStats {
		cfg.ShowStats = false
	}
}

// Resolve loads the configuration file, applies the flags and validates
// the result.
func (f *Flags) Resolve() (Config, error) {
	cfg, err := Load(f.ConfigPath)
	if err != nil {
		return cfg, err
	}
	f.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// --- pflag.Value adapters for the enum types ---

type colorModeValue struct{ p *ColorMode }

func (c *colorModeValue) String() string { return string(*c.p) }
func (c *colorModeValue) Type() string   { return "mode" }
func (c *colorModeValue) Set(s string) error {
	switch m := ColorMode(s); m {
	case ColorAuto, ColorAlways, ColorNever:
		*c.p = m
		return nil
	}
	return fmt.Errorf("invalid color mode %q (use auto, always or never)", s)
}

type outputValue struct{ p *OutputFormat }

func (o *outputValue) String() string { return string(*o.p) }
func (o *outputValue) Type() string   { return "format" }
func (o *outputValue) Set(s string) error {
	switch f := OutputFormat(s); f {
	case OutputTable, OutputYAML, OutputArgs:
		*o.p = f
		return nil
	}
	return fmt.Errorf("invalid output format %q (use table, yaml or args)", s)
}
