// Package check provides system diagnostics (the check command) and the
// pre-run dependency validation ([Deps]) for ffmpeg and ffprobe.
package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/backmassage/muxgraph/internal/config"
	"github.com/backmassage/muxgraph/internal/options"
	"github.com/backmassage/muxgraph/internal/probe"
)

// Sentinel errors returned by Deps when a required tool is missing.
var (
	ErrFFmpegNotFound  = errors.New("ffmpeg not found")
	ErrFFprobeNotFound = errors.New("ffprobe not found")
)

// Status is the outcome of one diagnostic.
type Status int

const (
	StatusOK Status = iota
	StatusWarn
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarn:
		return "warn"
	}
	return "fail"
}

// Result is one diagnostic line.
type Result struct {
	Name   string
	Status Status
	Detail string
}

// Run performs every diagnostic. It is informational only and does not
// stop on failure.
func Run(ctx context.Context, cfg *config.Config) []Result {
	var out []Result
	out = append(out, checkTool(ctx, "ffmpeg", cfg.FFmpegBin))
	out = append(out, checkTool(ctx, "ffprobe", cfg.FFprobeBin))
	out = append(out, checkTestEncode(ctx, cfg.FFmpegBin))
	out = append(out, checkPresetDirs(cfg.DataDir)...)
	if cfg.Fixtures != "" {
		out = append(out, checkFixtures(cfg.Fixtures))
	}
	return out
}

// Deps is the pre-run validation: ffmpeg must resolve on PATH (or as
// given), and so must ffprobe unless inputs come from a fixture file.
func Deps(cfg *config.Config) error {
	if _, err := exec.LookPath(cfg.FFmpegBin); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, cfg.FFmpegBin)
	}
	if cfg.Fixtures != "" {
		return nil
	}
	if _, err := exec.LookPath(cfg.FFprobeBin); err != nil {
		return fmt.Errorf("%w: %s", ErrFFprobeNotFound, cfg.FFprobeBin)
	}
	return nil
}

// checkTool verifies bin resolves and reports the first line of its
// -version output.
func checkTool(ctx context.Context, name, bin string) Result {
	r := Result{Name: name}
	path, err := exec.LookPath(bin)
	if err != nil {
		r.Status = StatusFail
		r.Detail = bin + " not found"
		return r
	}
	out, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		r.Status = StatusWarn
		r.Detail = fmt.Sprintf("%s found but -version failed: %v", path, err)
		return r
	}
	first := strings.TrimSpace(string(out))
	if idx := strings.Index(first, "\n"); idx > 0 {
		first = first[:idx]
	}
	r.Detail = first
	return r
}

// checkTestEncode runs a minimal lavfi encode into the null muxer.
func checkTestEncode(ctx context.Context, bin string) Result {
	r := Result{Name: "test encode"}
	if runSilent(ctx, bin, testEncodeArgs()...) {
		r.Detail = "lavfi -> null muxer"
		return r
	}
	r.Status = StatusFail
	r.Detail = "ffmpeg could not encode a lavfi test source"
	return r
}

// checkPresetDirs reports every preset search directory and whether it
// exists. Missing directories are normal and only warn.
func checkPresetDirs(dataDir string) []Result {
	ff, av := options.PresetDirs(dataDir)
	var out []Result
	add := func(kind string, dirs []string) {
		if len(dirs) == 0 {
			out = append(out, Result{Name: kind, Status: StatusWarn, Detail: "no search directories"})
			return
		}
		for _, d := range dirs {
			r := Result{Name: kind, Detail: d}
			if st, err := os.Stat(d); err != nil || !st.IsDir() {
				r.Status = StatusWarn
				r.Detail += " (missing)"
			}
			out = append(out, r)
		}
	}
	add("ffpreset dir", ff)
	add("avpreset dir", av)
	return out
}

func checkFixtures(path string) Result {
	r := Result{Name: "fixtures", Detail: path}
	m, err := probe.LoadFixtures(path)
	if err != nil {
		r.Status = StatusFail
		r.Detail = err.Error()
		return r
	}
	r.Detail = fmt.Sprintf("%s (%d containers)", path, len(m.URLs()))
	return r
}

// --- internal helpers ---

func testEncodeArgs() []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "sine=frequency=1000:duration=0.1",
		"-f", "null", "-",
	}
}

// runSilent runs a command and returns true if it exits with status 0.
// Both stdout and stderr are discarded.
func runSilent(ctx context.Context, name string, args ...string) bool {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}
