package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/backmassage/muxgraph/internal/check"
	"github.com/backmassage/muxgraph/internal/config"
	"github.com/backmassage/muxgraph/internal/display"
	"github.com/backmassage/muxgraph/internal/ffmpeg"
	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/logging"
	"github.com/backmassage/muxgraph/internal/media"
	"github.com/backmassage/muxgraph/internal/planner"
	"github.com/backmassage/muxgraph/internal/probe"
)

// Errors returned by Run.
var (
	ErrFailed      = errors.New("ffmpeg failed")
	ErrInterrupted = errors.New("interrupted")
)

// stderrTail is how many trailing ffmpeg lines are logged on failure.
const stderrTail = 20

// Opener returns the container opener for cfg: the fixture file when one
// is configured, ffprobe otherwise.
func Opener(cfg *config.Config) (media.Opener, error) {
	if cfg.Fixtures != "" {
		m, err := probe.LoadFixtures(cfg.Fixtures)
		if err != nil {
			return nil, fmt.Errorf("load fixtures: %w", err)
		}
		return m, nil
	}
	p := probe.NewProber(cfg.FFprobeBin)
	p.CountPackets = cfg.CountPackets
	return p, nil
}

// Resolved is a resolved command line.
type Resolved struct {
	Job *job.Job
	// Args is the canonical ffmpeg command for the first attempt.
	Args []string
	// Log holds every record the resolver emitted.
	Log *job.MemoryLogger
}

// Resolve turns args (program name first) into a job. Records go to log,
// tagged with the job's trace id, and are also kept in Resolved.Log.
func Resolve(ctx context.Context, cfg *config.Config, opener media.Opener, log *logging.Logger, args []string) (*Resolved, error) {
	mem := &job.MemoryLogger{}
	j := job.New(mem)
	if log != nil {
		j.Log = job.Tee{log.WithTrace(j.TraceID), mem}
	}
	j.Settings.DataDir = cfg.DataDir

	if err := planner.Resolve(ctx, j, opener, args); err != nil {
		return nil, err
	}
	return &Resolved{Job: j, Args: ffmpeg.Build(j, buildOptions(cfg)), Log: mem}, nil
}

func buildOptions(cfg *config.Config) ffmpeg.BuildOptions {
	return ffmpeg.BuildOptions{
		Bin:       cfg.FFmpegBin,
		LogLevel:  "info",
		Stats:     cfg.ShowStats,
		Overwrite: cfg.Overwrite,
	}
}

// Run executes the resolved job. Failed attempts are classified and
// retried with the next applicable fix until ffmpeg succeeds, nothing
// applies, or cfg.MaxAttempts is spent. ffmpeg's stderr is teed to stderr
// when cfg.ShowStats is set.
func Run(ctx context.Context, cfg *config.Config, res *Resolved, log *logging.Logger, stderr io.Writer) (RunStats, error) {
	var stats RunStats
	if err := check.Deps(cfg); err != nil {
		return stats, err
	}

	j := res.Job
	log = log.WithTrace(j.TraceID)
	for _, f := range j.InputFiles {
		stats.TotalInputBytes += fileSize(localPath(f.URL))
	}

	// --- Prepare outputs ---
	preexisting := map[string]bool{}
	for _, of := range j.OutputFiles {
		p := localPath(of.URL)
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			preexisting[p] = true
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return stats, fmt.Errorf("create output directory: %w", err)
		}
	}

	// --- Execute with retry ---
	var tee io.Writer
	if cfg.ShowStats {
		tee = stderr
	}
	start := time.Now()
	rs := ffmpeg.NewRetryState(buildOptions(cfg), cfg.MaxAttempts)
	for {
		args := ffmpeg.Build(j, rs.Options)
		log.Debug("ffmpeg command: %s", display.QuoteArgs(args))

		result := ffmpeg.Execute(ctx, args, ffmpeg.ExecOptions{Tee: tee})
		stats.Attempts++
		if result.Err == nil {
			break
		}

		// Stop retrying if the context has been cancelled (e.g. SIGINT).
		if ctx.Err() != nil {
			log.Warn("Interrupted, aborting retries")
			removeOutputs(j, preexisting)
			return stats, ErrInterrupted
		}

		action := rs.Advance(result.Stderr)
		if action == ffmpeg.RetryNone {
			log.Error("ffmpeg failed after %d attempt(s): %v", stats.Attempts, result.Err)
			logStderr(log, result.Stderr)
			removeOutputs(j, preexisting)
			return stats, fmt.Errorf("%w: %v", ErrFailed, result.Err)
		}

		stats.Fixes = append(stats.Fixes, action)
		log.Warn("Retry %d: %s", rs.Attempt, action)
		removeOutputs(j, preexisting)
	}

	stats.Succeeded = true
	stats.Elapsed = time.Since(start)
	for _, of := range j.OutputFiles {
		stats.TotalOutputBytes += fileSize(localPath(of.URL))
	}
	logSummary(log, &stats)
	return stats, nil
}

// localPath returns the filesystem path behind url, or "" for stdio,
// pipes and network URLs.
func localPath(url string) string {
	switch {
	case url == "-" || strings.HasPrefix(url, "pipe:"):
		return ""
	case strings.HasPrefix(url, "file:"):
		return strings.TrimPrefix(url, "file:")
	case strings.Contains(url, "://"):
		return ""
	}
	return url
}

func fileSize(path string) int64 {
	if path == "" {
		return 0
	}
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return 0
	}
	return fi.Size()
}

// removeOutputs deletes partial outputs a failed attempt left behind.
// Files that existed before the run are kept.
func removeOutputs(j *job.Job, preexisting map[string]bool) {
	for _, of := range j.OutputFiles {
		if p := localPath(of.URL); p != "" && !preexisting[p] {
			os.Remove(p)
		}
	}
}

// --- Logging helpers ---

func logStderr(log *logging.Logger, stderr string) {
	if stderr == "" {
		return
	}
	log.Error("Last ffmpeg output:")
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	start := 0
	if len(lines) > stderrTail {
		start = len(lines) - stderrTail
	}
	for _, l := range lines[start:] {
		log.Error("  %s", l)
	}
}

func logSummary(log *logging.Logger, stats *RunStats) {
	log.Success("Done in %s (%d attempt(s))", stats.Elapsed.Round(time.Millisecond), stats.Attempts)
	if stats.TotalInputBytes == 0 || stats.TotalOutputBytes == 0 {
		return
	}
	ratio := stats.TotalOutputBytes * 100 / stats.TotalInputBytes
	log.Info("Size: input %s -> output %s (%d%% of original)",
		display.FormatBytes(stats.TotalInputBytes),
		display.FormatBytes(stats.TotalOutputBytes), ratio)
}
