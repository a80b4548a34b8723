package check

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backmassage/muxgraph/internal/config"
)

// fakeTool writes an executable script that prints a version banner and
// exits with code.
func fakeTool(t *testing.T, dir, name, code string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\necho \"" + name + " version 7.1 Copyright\"\necho second line\nexit " + code + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func byName(results []Result, name string) []Result {
	var out []Result
	for _, r := range results {
		if r.Name == name {
			out = append(out, r)
		}
	}
	return out
}

func TestDeps(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.FFmpegBin = fakeTool(t, dir, "ffmpeg", "0")
	cfg.FFprobeBin = fakeTool(t, dir, "ffprobe", "0")
	if err := Deps(&cfg); err != nil {
		t.Fatalf("Deps: %v", err)
	}

	cfg.FFprobeBin = filepath.Join(dir, "nope")
	if err := Deps(&cfg); !errors.Is(err, ErrFFprobeNotFound) {
		t.Errorf("missing ffprobe: got %v", err)
	}
	cfg.Fixtures = filepath.Join(dir, "fixtures.yaml")
	if err := Deps(&cfg); err != nil {
		t.Errorf("fixtures make ffprobe optional: got %v", err)
	}
	cfg.FFmpegBin = filepath.Join(dir, "nope")
	if err := Deps(&cfg); !errors.Is(err, ErrFFmpegNotFound) {
		t.Errorf("missing ffmpeg: got %v", err)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "presets")
	if err := os.Mkdir(data, 0o755); err != nil {
		t.Fatal(err)
	}
	fixtures := filepath.Join(dir, "fixtures.yaml")
	if err := os.WriteFile(fixtures, []byte("a.mkv:\n  format: {format_name: matroska}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FFMPEG_DATADIR", "")
	t.Setenv("AVCONV_DATADIR", "")
	t.Setenv("HOME", dir)

	cfg := config.DefaultConfig()
	cfg.FFmpegBin = fakeTool(t, dir, "ffmpeg", "0")
	cfg.FFprobeBin = fakeTool(t, dir, "ffprobe", "1")
	cfg.DataDir = data
	cfg.Fixtures = fixtures

	results := Run(context.Background(), &cfg)

	ff := byName(results, "ffmpeg")
	if len(ff) != 1 || ff[0].Status != StatusOK || ff[0].Detail != "ffmpeg version 7.1 Copyright" {
		t.Errorf("ffmpeg result: %+v", ff)
	}
	if probe := byName(results, "ffprobe"); len(probe) != 1 || probe[0].Status != StatusWarn {
		t.Errorf("ffprobe result: %+v", probe)
	}
	if enc := byName(results, "test encode"); len(enc) != 1 || enc[0].Status != StatusOK {
		t.Errorf("test encode result: %+v", enc)
	}

	dirs := byName(results, "ffpreset dir")
	if len(dirs) != 2 {
		t.Fatalf("ffpreset dirs: %+v", dirs)
	}
	if dirs[0].Status != StatusWarn || !strings.HasSuffix(dirs[0].Detail, "(missing)") {
		t.Errorf("~/.ffmpeg should be missing: %+v", dirs[0])
	}
	if dirs[1].Status != StatusOK || dirs[1].Detail != data {
		t.Errorf("data dir: %+v", dirs[1])
	}

	fx := byName(results, "fixtures")
	if len(fx) != 1 || fx[0].Status != StatusOK || !strings.Contains(fx[0].Detail, "(1 containers)") {
		t.Errorf("fixtures result: %+v", fx)
	}
}

func TestRun_MissingTools(t *testing.T) {
	t.Setenv("HOME", "")
	cfg := config.DefaultConfig()
	cfg.FFmpegBin = filepath.Join(t.TempDir(), "ffmpeg")
	cfg.FFprobeBin = cfg.FFmpegBin

	results := Run(context.Background(), &cfg)
	for _, name := range []string{"ffmpeg", "ffprobe", "test encode"} {
		r := byName(results, name)
		if len(r) != 1 || r[0].Status != StatusFail {
			t.Errorf("%s: %+v", name, r)
		}
	}
}

func TestStatusString(t *testing.T) {
	if StatusOK.String() != "ok" || StatusWarn.String() != "warn" || StatusFail.String() != "fail" {
		t.Error("unexpected status names")
	}
}
