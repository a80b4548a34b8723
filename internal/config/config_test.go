package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestValidate_ColorMode(t *testing.T) {
	tests := []struct {
		name    string
		mode    ColorMode
		wantErr bool
	}{
		{"auto is valid", ColorAuto, false},
		{"always is valid", ColorAlways, false},
		{"never is valid", ColorNever, false},
		{"empty is invalid", "", true},
		{"unknown is invalid", "sometimes", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ColorMode = tt.mode
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"yaml output", func(c *Config) { c.Output = OutputYAML }, false},
		{"bad output", func(c *Config) { c.Output = "xml" }, true},
		{"debug level", func(c *Config) { c.LogLevel = "debug" }, false},
		{"bad level", func(c *Config) { c.LogLevel = "trace" }, true},
		{"zero attempts", func(c *Config) { c.MaxAttempts = 0 }, true},
		{"empty ffmpeg", func(c *Config) { c.FFmpegBin = " " }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
ffmpeg = "/opt/ffmpeg/bin/ffmpeg"
count_packets = true
data_dir = "/srv/presets"
color = "never"
output = "args"
max_attempts = 2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FFmpegBin != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("FFmpegBin = %q", cfg.FFmpegBin)
	}
	if cfg.FFprobeBin != "ffprobe" {
		t.Errorf("FFprobeBin = %q, want default", cfg.FFprobeBin)
	}
	if !cfg.CountPackets || cfg.DataDir != "/srv/presets" {
		t.Errorf("CountPackets = %v, DataDir = %q", cfg.CountPackets, cfg.DataDir)
	}
	if cfg.ColorMode != ColorNever || cfg.Output != OutputArgs || cfg.MaxAttempts != 2 {
		t.Errorf("got color %q output %q attempts %d", cfg.ColorMode, cfg.Output, cfg.MaxAttempts)
	}
	if !cfg.ShowStats {
		t.Error("ShowStats default lost")
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeConfig(t, "ffmpg = \"typo\"\n")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "ffmpg") {
		t.Errorf("error %q does not name the key", err)
	}
}

func TestLoad_Missing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	if _, err := Load(missing); err == nil {
		t.Error("explicit missing file should fail")
	}

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("missing default file should be ignored: %v", err)
	}
	if cfg.Output != OutputTable {
		t.Errorf("Output = %q, want default", cfg.Output)
	}
}

func TestDefaultPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	got, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/xdg", "muxgraph", "config.toml"); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}

func TestFlags_OnlyChangedOverride(t *testing.T) {
	path := writeConfig(t, "ffprobe = \"/usr/local/bin/ffprobe\"\noutput = \"yaml\"\n")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := BindFlags(fs)
	if err := fs.Parse([]string{"--config", path, "--color", "always", "-v", "--no-stats"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg, err := f.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.FFprobeBin != "/usr/local/bin/ffprobe" {
		t.Errorf("file value overridden by unset flag: %q", cfg.FFprobeBin)
	}
	if cfg.Output != OutputYAML {
		t.Errorf("Output = %q, want yaml from file", cfg.Output)
	}
	if cfg.ColorMode != ColorAlways {
		t.Errorf("ColorMode = %q, want always", cfg.ColorMode)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.ShowStats {
		t.Error("ShowStats should be off")
	}
}

func TestFlags_BadEnum(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))
	BindFlags(fs)
	if err := fs.Parse([]string{"--output", "xml"}); err == nil {
		t.Error("expected parse error for bad output format")
	}
}
