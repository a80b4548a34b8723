package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/backmassage/muxgraph/internal/config"
	"github.com/backmassage/muxgraph/internal/ffmpeg"
	"github.com/backmassage/muxgraph/internal/logging"
	"github.com/backmassage/muxgraph/internal/media"
	"github.com/backmassage/muxgraph/internal/probe"
)

// --- Helpers ---

// fakeFFmpeg writes a script that fails the first fails-1 calls with
// failMsg on stderr, then writes "data" to its last argument. Each call's
// argv is saved to args.<n> in dir.
func fakeFFmpeg(t *testing.T, dir string, fails int, failMsg string) string {
	t.Helper()
	path := filepath.Join(dir, "ffmpeg")
	script := `#!/bin/sh
state="` + dir + `/count"
n=$(cat "$state" 2>/dev/null || echo 0)
n=$((n+1))
echo $n > "$state"
echo "$@" > "` + dir + `/args.$n"
for last; do :; done
if [ "$n" -lt ` + strconv.Itoa(fails) + ` ]; then
  echo "` + failMsg + `" >&2
  exit 1
fi
echo "frame=1 done" >&2
printf 'data' > "$last"
`
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func opener() *probe.MemoryOpener {
	c := media.NewContainer("", "matroska")
	c.Duration = 60 * media.TimeBase
	c.Streams = []*media.Stream{
		{Index: 0, Type: media.Video, CodecName: "h264", Width: 1280, Height: 720, PixFmt: "yuv420p",
			TimeBase: media.Rational{Num: 1, Den: 1000}},
		{Index: 1, Type: media.Audio, CodecName: "aac", Channels: 2, SampleRate: 48000, SampleFmt: "fltp",
			TimeBase: media.Rational{Num: 1, Den: 1000}},
	}
	m := probe.NewMemoryOpener()
	m.Add("in.mkv", c)
	return m
}

type harness struct {
	dir string
	cfg config.Config
	log *logging.Logger
	out *bytes.Buffer
}

func newHarness(t *testing.T, fails int, failMsg string) *harness {
	t.Helper()
	h := &harness{dir: t.TempDir(), cfg: config.DefaultConfig(), out: new(bytes.Buffer)}
	h.cfg.FFmpegBin = fakeFFmpeg(t, h.dir, fails, failMsg)
	h.cfg.FFprobeBin = h.cfg.FFmpegBin
	h.cfg.ColorMode = config.ColorNever
	h.cfg.ShowStats = false
	h.cfg.LogLevel = "debug"
	log, err := logging.NewWriter(h.out, &h.cfg)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	h.log = log
	return h
}

func (h *harness) resolve(t *testing.T, output string) *Resolved {
	t.Helper()
	res, err := Resolve(context.Background(), &h.cfg, opener(), h.log,
		[]string{"ffmpeg", "-i", "in.mkv", "-c", "copy", output})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return res
}

func readArgs(t *testing.T, dir string, n int) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, "args."+strconv.Itoa(n)))
	if err != nil {
		t.Fatalf("args.%d: %v", n, err)
	}
	return string(b)
}

// --- Resolve ---

func TestResolve(t *testing.T) {
	h := newHarness(t, 0, "")
	h.cfg.DataDir = "/srv/presets"
	res := h.resolve(t, "out.mkv")

	if res.Args[0] != h.cfg.FFmpegBin {
		t.Errorf("argv[0] = %q", res.Args[0])
	}
	if res.Args[len(res.Args)-1] != "out.mkv" {
		t.Errorf("last arg = %q", res.Args[len(res.Args)-1])
	}
	if res.Job.Settings.DataDir != "/srv/presets" {
		t.Errorf("DataDir = %q", res.Job.Settings.DataDir)
	}
	if len(res.Job.OutputStreams) != 2 {
		t.Errorf("got %d output streams", len(res.Job.OutputStreams))
	}
}

func TestResolve_LogsCarryTraceID(t *testing.T) {
	h := newHarness(t, 0, "")
	res, err := Resolve(context.Background(), &h.cfg, opener(), h.log,
		[]string{"ffmpeg", "-i", "in.mkv", "-t", "5", "-to", "10", "out.mkv"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Log.Records) == 0 {
		t.Fatal("expected the -t/-to warning to be captured")
	}
	if !strings.Contains(h.out.String(), "tid="+res.Job.TraceID) {
		t.Errorf("terminal log lacks trace id:\n%s", h.out.String())
	}
}

func TestResolve_Error(t *testing.T) {
	h := newHarness(t, 0, "")
	_, err := Resolve(context.Background(), &h.cfg, opener(), h.log,
		[]string{"ffmpeg", "-i", "missing.mkv", "out.mkv"})
	if err == nil {
		t.Fatal("expected error for missing input")
	}
}

// --- Run ---

func TestRun_FirstAttempt(t *testing.T) {
	h := newHarness(t, 0, "")
	h.cfg.ShowStats = true
	output := filepath.Join(h.dir, "sub", "out.mkv")
	res := h.resolve(t, output)

	var stderr bytes.Buffer
	stats, err := Run(context.Background(), &h.cfg, res, h.log, &stderr)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !stats.Succeeded || stats.Attempts != 1 || len(stats.Fixes) != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TotalOutputBytes != 4 {
		t.Errorf("output bytes = %d, want 4", stats.TotalOutputBytes)
	}
	if !strings.Contains(stderr.String(), "frame=1 done") {
		t.Errorf("stderr not teed: %q", stderr.String())
	}
	if !strings.Contains(readArgs(t, h.dir, 1), "-stats") {
		t.Error("ShowStats should request -stats")
	}
}

func TestRun_RetriesWithFix(t *testing.T) {
	h := newHarness(t, 2, "Too many packets buffered for output stream 0:1.")
	output := filepath.Join(h.dir, "out.mkv")
	res := h.resolve(t, output)

	stats, err := Run(context.Background(), &h.cfg, res, h.log, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", stats.Attempts)
	}
	if len(stats.Fixes) != 1 || stats.Fixes[0] != ffmpeg.RetryIncreaseMux {
		t.Errorf("Fixes = %v", stats.Fixes)
	}
	if strings.Contains(readArgs(t, h.dir, 1), "-max_muxing_queue_size") {
		t.Error("first attempt should use the default queue size")
	}
	if !strings.Contains(readArgs(t, h.dir, 2), "-max_muxing_queue_size:0 16384") {
		t.Errorf("second attempt args: %s", readArgs(t, h.dir, 2))
	}
	if !strings.Contains(h.out.String(), "Retry 1: raise mux queue") {
		t.Errorf("retry not logged:\n%s", h.out.String())
	}
}

func TestRun_Unfixable(t *testing.T) {
	h := newHarness(t, 99, "in.mkv: Invalid data found when processing input")
	res := h.resolve(t, filepath.Join(h.dir, "out.mkv"))

	stats, err := Run(context.Background(), &h.cfg, res, h.log, nil)
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("err = %v, want ErrFailed", err)
	}
	if stats.Attempts != 1 || stats.Succeeded {
		t.Errorf("stats = %+v", stats)
	}
	if !strings.Contains(h.out.String(), "Invalid data found") {
		t.Errorf("stderr tail not logged:\n%s", h.out.String())
	}
}

func TestRun_AttemptsExhausted(t *testing.T) {
	h := newHarness(t, 99, "Too many packets buffered for output stream 0:0.")
	h.cfg.MaxAttempts = 2
	res := h.resolve(t, filepath.Join(h.dir, "out.mkv"))

	stats, err := Run(context.Background(), &h.cfg, res, h.log, nil)
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("err = %v, want ErrFailed", err)
	}
	if stats.Attempts != 2 || len(stats.Fixes) != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRun_KeepsPreexistingOutput(t *testing.T) {
	h := newHarness(t, 99, "Conversion failed!")
	output := filepath.Join(h.dir, "out.mkv")
	if err := os.WriteFile(output, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	res := h.resolve(t, output)

	if _, err := Run(context.Background(), &h.cfg, res, h.log, nil); err == nil {
		t.Fatal("expected failure")
	}
	if b, err := os.ReadFile(output); err != nil || string(b) != "old" {
		t.Errorf("preexisting output lost: %q, %v", b, err)
	}
}

func TestRun_MissingFFmpeg(t *testing.T) {
	h := newHarness(t, 0, "")
	res := h.resolve(t, "out.mkv")
	h.cfg.FFmpegBin = filepath.Join(h.dir, "nope")
	if _, err := Run(context.Background(), &h.cfg, res, h.log, nil); err == nil {
		t.Fatal("expected dependency error")
	}
}

// --- Opener and paths ---

func TestOpener(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.CountPackets = true
	o, err := Opener(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	p, ok := o.(*probe.Prober)
	if !ok || !p.CountPackets || p.Bin != "ffprobe" {
		t.Errorf("got %#v", o)
	}

	cfg.Fixtures = filepath.Join(t.TempDir(), "fixtures.yaml")
	if err := os.WriteFile(cfg.Fixtures, []byte("in.mkv:\n  format: {format_name: matroska}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	o, err = Opener(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	if m, ok := o.(*probe.MemoryOpener); !ok || len(m.URLs()) != 1 {
		t.Errorf("got %#v", o)
	}

	cfg.Fixtures = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := Opener(&cfg); err == nil {
		t.Error("expected error for missing fixtures")
	}
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"out.mkv", "out.mkv"},
		{"/tmp/a b.mp4", "/tmp/a b.mp4"},
		{"file:/tmp/x.ts", "/tmp/x.ts"},
		{"-", ""},
		{"pipe:1", ""},
		{"rtmp://host/live", ""},
	}
	for _, tt := range tests {
		if got := localPath(tt.url); got != tt.want {
			t.Errorf("localPath(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
