package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtures = `
in.mkv:
  format: {format_name: matroska, duration: "60.0", start_time: "0"}
  streams:
    - {index: 0, codec_type: video, codec_name: h264, width: 1920, height: 1080, pix_fmt: yuv420p, time_base: "1/1000", avg_frame_rate: "25/1"}
    - {index: 1, codec_type: audio, codec_name: aac, channels: 2, sample_rate: "48000", sample_fmt: fltp, time_base: "1/1000", tags: {language: eng}}
`

// execute runs the root command with a throwaway config home and a
// fixture file, returning stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	path := filepath.Join(dir, "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtures), 0o644))

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(new(bytes.Buffer))
	root.SetArgs(append([]string{"--fixtures", path, "--color", "never", "--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestResolveArgs(t *testing.T) {
	out, err := execute(t, "resolve", "-o", "args", "--", "-i", "in.mkv", "-c:v", "libx264", "-c:a", "copy", "out.mp4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "ffmpeg "), out)
	assert.Contains(t, out, "-c:0 libx264")
	assert.Contains(t, out, "-c:1 copy")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "out.mp4"), out)
}

func TestResolveCommandString(t *testing.T) {
	out, err := execute(t, "resolve", "--command", "ffmpeg -i in.mkv -map 0:a out.mka")
	require.NoError(t, err)
	assert.Contains(t, out, "English")
	assert.Contains(t, out, "-map 0:1")
}

func TestResolveYAML(t *testing.T) {
	out, err := execute(t, "resolve", "-o", "yaml", "--", "-i", "in.mkv", "-c", "copy", "out.mkv")
	require.NoError(t, err)
	assert.Contains(t, out, "trace_id:")
	assert.Contains(t, out, "url: out.mkv")
}

func TestResolveError(t *testing.T) {
	_, err := execute(t, "resolve", "--", "-i", "missing.mkv", "out.mkv")
	assert.Error(t, err)

	_, err = execute(t, "resolve")
	assert.EqualError(t, err, "no ffmpeg arguments given")
}

func TestRunDryRun(t *testing.T) {
	out, err := execute(t, "run", "--dry-run", "--", "-i", "in.mkv", "-c", "copy", "out.mkv")
	require.NoError(t, err)
	assert.Contains(t, out, "-i in.mkv")
}

func TestOptionsCommand(t *testing.T) {
	out, err := execute(t, "options", "map_")
	require.NoError(t, err)
	assert.Contains(t, out, "-map_metadata")
	assert.NotContains(t, out, "-vsync")

	out, err = execute(t, "options", "--expert", "vsync")
	require.NoError(t, err)
	assert.Contains(t, out, "-vsync")

	out, err = execute(t, "options", "vsync")
	require.NoError(t, err)
	assert.NotContains(t, out, "-vsync")
}

func TestLogFileClosedAfterFailure(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	fixturePath := filepath.Join(dir, "fixtures.yaml")
	require.NoError(t, os.WriteFile(fixturePath, []byte(fixtures), 0o644))
	logPath := filepath.Join(dir, "logs", "muxgraph.log")

	a := &app{}
	err := a.execute(context.Background(), []string{
		"--fixtures", fixturePath, "--color", "never", "--log-file", logPath,
		"resolve", "--", "-i", "missing.mkv", "out.mkv",
	})
	require.Error(t, err)
	require.NotNil(t, a.log)
	require.FileExists(t, logPath)

	a.log.Error("written after close")
	b, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "written after close")
}

func TestFFmpegArgv(t *testing.T) {
	tests := []struct {
		name    string
		command string
		args    []string
		want    []string
		wantErr bool
	}{
		{"args get program", "", []string{"-i", "a"}, []string{"ffmpeg", "-i", "a"}, false},
		{"program kept", "", []string{"/usr/bin/ffmpeg", "-i", "a"}, []string{"/usr/bin/ffmpeg", "-i", "a"}, false},
		{"command string", "ffmpeg -i a b", nil, []string{"ffmpeg", "-i", "a", "b"}, false},
		{"command without program", "-i a b", nil, []string{"ffmpeg", "-i", "a", "b"}, false},
		{"both", "-i a", []string{"b"}, nil, true},
		{"nothing", "", nil, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ffmpegArgv(tt.command, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
