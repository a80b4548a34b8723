package ffmpeg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/muxgraph/internal/cmdline"
	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
	"github.com/backmassage/muxgraph/internal/planner"
	"github.com/backmassage/muxgraph/internal/probe"
)

// --- Helpers ---

func fixture() *probe.MemoryOpener {
	c := media.NewContainer("", "matroska")
	c.Duration = 60 * media.TimeBase
	c.StartTime = 0
	c.Streams = []*media.Stream{
		{Type: media.Video, CodecName: "h264", Width: 1920, Height: 1080, PixFmt: "yuv420p",
			TimeBase: media.Rational{Num: 1, Den: 1000}, AvgFrameRate: media.Rational{Num: 25, Den: 1}},
		{Type: media.Audio, CodecName: "aac", Channels: 6, SampleRate: 48000, SampleFmt: "fltp",
			TimeBase: media.Rational{Num: 1, Den: 1000}},
		{Type: media.Subtitle, CodecName: "subrip", TimeBase: media.Rational{Num: 1, Den: 1000}},
	}
	for i, st := range c.Streams {
		st.Index = i
	}
	c.Streams[1].Metadata.Set("language", "eng", 0)
	m := probe.NewMemoryOpener()
	m.Add("in.mkv", c)
	return m
}

func resolveArgs(t *testing.T, m *probe.MemoryOpener, args []string) *job.Job {
	t.Helper()
	j := job.New(&job.MemoryLogger{})
	require.NoError(t, planner.Resolve(context.Background(), j, m, args))
	return j
}

type streamSummary struct {
	Type   media.Type
	Source int
	Codec  string
}

func summarize(j *job.Job) []streamSummary {
	out := make([]streamSummary, len(j.OutputStreams))
	for i, ost := range j.OutputStreams {
		name := "copy"
		if ost.Enc != nil {
			name = ost.Enc.Name
		}
		out[i] = streamSummary{Type: ost.St.Type, Source: ost.SourceIndex, Codec: name}
	}
	return out
}

// valueAfter returns the argument following the first occurrence of flag.
func valueAfter(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// --- Build ---

func TestBuildRoundTrip(t *testing.T) {
	m := fixture()
	first := resolveArgs(t, m, cmdline.ParseCommand(
		"ffmpeg -ss 5 -i in.mkv -map 0:v -map 0:a -c:v libx264 -crf 20 -c:a ac3 -ac 2 "+
			"-metadata title=Demo -disposition:a 0 -t 30 out.mkv"))

	args := Build(first, BuildOptions{})
	assert.Equal(t, "ffmpeg", args[0])
	assert.Equal(t, "5", valueAfter(args, "-ss"))
	assert.Equal(t, "in.mkv", valueAfter(args, "-i"))
	assert.Equal(t, "0:0", valueAfter(args, "-map"))
	assert.Equal(t, "libx264", valueAfter(args, "-c:0"))
	assert.Equal(t, "20", valueAfter(args, "-crf:0"))
	assert.Equal(t, "2", valueAfter(args, "-ac:1"))
	assert.Equal(t, "30", valueAfter(args, "-t"))
	assert.Equal(t, "out.mkv", args[len(args)-1])
	assert.Contains(t, args, "-nostats")

	second := resolveArgs(t, m, args)
	assert.Equal(t, summarize(first), summarize(second))

	v := second.OutputStreams[0]
	crf, _ := v.EncoderOpts.Get("crf")
	assert.Equal(t, "20", crf)
	assert.Equal(t, 2, second.OutputStreams[1].Params.Channels)

	title, _ := second.OutputFiles[0].Ctx.Metadata.Get("title")
	assert.Equal(t, "Demo", title)
	lang, _ := second.OutputStreams[1].St.Metadata.Get("language")
	assert.Equal(t, "eng", lang)
	assert.Equal(t, media.Disposition(0), second.OutputStreams[1].St.Disposition)
	assert.Equal(t, int64(30*media.TimeBase), second.OutputFiles[0].RecordingTime)
	assert.Equal(t, int64(5*media.TimeBase), second.InputFiles[0].StartTime)
}

func TestBuildInputDecoders(t *testing.T) {
	m := fixture()
	inputPart := func(args []string) []string {
		for i, a := range args {
			if a == "-i" {
				return args[:i]
			}
		}
		return args
	}

	plain := Build(resolveArgs(t, m, cmdline.ParseCommand("ffmpeg -i in.mkv -c:v libx264 out.mkv")), BuildOptions{})
	for _, a := range inputPart(plain) {
		assert.NotRegexp(t, `^-c(odec)?:`, a, "default decoders are not spelled out")
	}

	forced := resolveArgs(t, m, cmdline.ParseCommand("ffmpeg -c:v h264_cuvid -i in.mkv -c:v libx264 out.mkv"))
	assert.True(t, forced.InputStreams[0].DecForced)
	assert.False(t, forced.InputStreams[1].DecForced)

	in := inputPart(Build(forced, BuildOptions{}))
	assert.Equal(t, "h264_cuvid", valueAfter(in, "-c:0"))
	assert.Equal(t, "", valueAfter(in, "-c:1"))
}

func TestBuildAutoSelectedStreamsAreMapped(t *testing.T) {
	m := fixture()
	first := resolveArgs(t, m, cmdline.ParseCommand("ffmpeg -i in.mkv -c copy out.mkv"))
	require.Len(t, first.OutputStreams, 3)

	args := Build(first, BuildOptions{})
	var maps []string
	for i := 0; i+1 < len(args); i++ {
		if args[i] == "-map" {
			maps = append(maps, args[i+1])
		}
	}
	assert.Equal(t, []string{"0:0", "0:1", "0:2"}, maps)

	second := resolveArgs(t, m, args)
	assert.Equal(t, summarize(first), summarize(second))
}

func TestBuildComplexGraph(t *testing.T) {
	m := fixture()
	first := resolveArgs(t, m, cmdline.ParseCommand(
		"ffmpeg -i in.mkv -filter_complex [0:v]scale=1280:720[v] -map [v] -map 0:a -c:a copy out.mkv"))

	args := Build(first, BuildOptions{})
	assert.Equal(t, "[0:v]scale=1280:720[v]", valueAfter(args, "-filter_complex"))
	assert.Contains(t, args, "[v]")

	second := resolveArgs(t, m, args)
	assert.Equal(t, summarize(first), summarize(second))
	require.NotNil(t, second.OutputStreams[0].Filter)
	assert.Equal(t, "v", second.OutputStreams[0].Filter.Label)
}

func TestBuildFallbacks(t *testing.T) {
	m := fixture()
	first := resolveArgs(t, m, cmdline.ParseCommand("ffmpeg -i in.mkv -c:v copy -c:a copy out.mkv"))
	require.Len(t, first.OutputStreams, 3)

	args := Build(first, BuildOptions{SkipSubtitles: true, GenPTS: true, MuxQueueSize: muxQueueEscalate})
	assert.NotContains(t, args, "0:2")
	assert.Equal(t, "+genpts+discardcorrupt", valueAfter(args, "-fflags"))
	assert.Equal(t, "make_zero", valueAfter(args, "-avoid_negative_ts"))
	assert.Equal(t, "16384", valueAfter(args, "-max_muxing_queue_size:1"))

	second := resolveArgs(t, m, args)
	require.Len(t, second.OutputStreams, 2)
	for _, ost := range second.OutputStreams {
		assert.NotEqual(t, media.Subtitle, ost.St.Type)
		assert.Equal(t, muxQueueEscalate, ost.MaxMuxingQueueSize)
	}
}

func TestBuildPreamble(t *testing.T) {
	j := job.New(&job.MemoryLogger{})
	j.Settings.CopyTS = true
	j.Settings.VideoSyncMethod = job.VSyncCFR

	args := Build(j, BuildOptions{Bin: "/usr/bin/ffmpeg", LogLevel: "error", Stats: true, Overwrite: true})
	assert.Equal(t, []string{
		"/usr/bin/ffmpeg", "-hide_banner", "-loglevel", "error", "-nostdin", "-y", "-stats",
		"-copyts", "-vsync", "cfr",
	}, args)
}

func TestHWDeviceSpec(t *testing.T) {
	tests := []struct {
		name string
		dev  job.HWDevice
		want string
	}{
		{"bare", job.HWDevice{Type: "cuda", Name: "cuda0"}, "cuda=cuda0"},
		{"device", job.HWDevice{Type: "vaapi", Name: "va", Device: "/dev/dri/renderD128"}, "vaapi=va:/dev/dri/renderD128"},
		{"options", job.HWDevice{Type: "cuda", Name: "gpu", Device: "0", Options: media.NewDict("primary_ctx", "1")}, "cuda=gpu:0,primary_ctx=1"},
		{"derived", job.HWDevice{Type: "opencl", Name: "ocl", Source: "va"}, "opencl=ocl@va"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hwDeviceSpec(&tt.dev))
		})
	}
}

func TestRCOverrideSpec(t *testing.T) {
	rc := []job.RCOverride{
		{StartFrame: 0, EndFrame: 100, QScale: 2, QualityFactor: 1},
		{StartFrame: 101, EndFrame: 200, QualityFactor: 0.5},
	}
	assert.Equal(t, "0,100,2/101,200,-50", rcOverrideSpec(rc))
}
