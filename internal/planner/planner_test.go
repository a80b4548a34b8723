package planner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/muxgraph/internal/cmdline"
	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
	"github.com/backmassage/muxgraph/internal/probe"
)

// --- Helper builders ---

func video(codec string, w, h int) *media.Stream {
	return &media.Stream{
		Type: media.Video, CodecName: codec, Width: w, Height: h, PixFmt: "yuv420p",
		TimeBase: media.Rational{Num: 1, Den: 1000}, AvgFrameRate: media.Rational{Num: 25, Den: 1},
	}
}

func audio(codec string, channels int) *media.Stream {
	return &media.Stream{
		Type: media.Audio, CodecName: codec, Channels: channels, SampleRate: 48000, SampleFmt: "fltp",
		TimeBase: media.Rational{Num: 1, Den: 1000},
	}
}

func subtitle(codec string) *media.Stream {
	return &media.Stream{Type: media.Subtitle, CodecName: codec, TimeBase: media.Rational{Num: 1, Den: 1000}}
}

func mkv(streams ...*media.Stream) *media.Container {
	c := media.NewContainer("", "matroska")
	c.Duration = 60 * media.TimeBase
	c.StartTime = 0
	for i, st := range streams {
		st.Index = i
		c.Streams = append(c.Streams, st)
	}
	return c
}

type run struct {
	j      *job.Job
	log    *job.MemoryLogger
	opener *probe.MemoryOpener
	err    error
}

func resolveCmd(t *testing.T, files map[string]*media.Container, command string) run {
	t.Helper()
	log := &job.MemoryLogger{}
	j := job.New(log)
	m := probe.NewMemoryOpener()
	for url, c := range files {
		m.Add(url, c)
	}
	err := Resolve(context.Background(), j, m, cmdline.ParseCommand(command))
	return run{j: j, log: log, opener: m, err: err}
}

func sources(j *job.Job) []int {
	out := make([]int, len(j.OutputStreams))
	for i, ost := range j.OutputStreams {
		out[i] = ost.SourceIndex
	}
	return out
}

// --- Automatic selection ---

func TestAutoSelect(t *testing.T) {
	def := video("h264", 640, 480)
	def.Disposition = media.DispositionDefault
	cover := video("mjpeg", 4000, 4000)
	cover.Disposition = media.DispositionAttachedPic

	tests := []struct {
		name    string
		streams []*media.Stream
		want    []int
	}{
		{"largest video wins", []*media.Stream{video("h264", 640, 480), video("h264", 1280, 720), audio("aac", 2)}, []int{1, 2}},
		{"equal areas keep the first", []*media.Stream{video("h264", 1280, 720), video("h264", 720, 1280)}, []int{0}},
		{"default disposition outweighs area", []*media.Stream{def, video("h264", 1280, 720)}, []int{0}},
		{"attached picture scores lowest", []*media.Stream{cover, video("h264", 320, 240)}, []int{1}},
		{"most channels wins", []*media.Stream{audio("aac", 2), audio("ac3", 6)}, []int{1}},
		{"text subtitle goes to ass", []*media.Stream{video("h264", 640, 480), subtitle("subrip")}, []int{0, 1}},
		{"bitmap subtitle is not converted to text", []*media.Stream{video("h264", 640, 480), subtitle("hdmv_pgs_subtitle")}, []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := resolveCmd(t, map[string]*media.Container{"in.mkv": mkv(tt.streams...)}, "ffmpeg -i in.mkv out.mkv")
			require.NoError(t, r.err)
			assert.Equal(t, tt.want, sources(r.j))
		})
	}
}

func TestAutoSelectDisabledTypes(t *testing.T) {
	files := map[string]*media.Container{"in.mkv": mkv(video("h264", 640, 480), audio("aac", 2), subtitle("ass"))}
	r := resolveCmd(t, files, "ffmpeg -i in.mkv -vn -sn out.mkv")
	require.NoError(t, r.err)
	require.Len(t, r.j.OutputStreams, 1)
	assert.Equal(t, media.Audio, r.j.OutputStreams[0].St.Type)
	assert.True(t, r.j.InputStreams[0].Discard)
	assert.False(t, r.j.InputStreams[1].Discard)
}

// --- Explicit maps ---

func TestNegativeMap(t *testing.T) {
	tests := []struct {
		name    string
		streams []*media.Stream
		want    []int
	}{
		{"two audio streams", []*media.Stream{video("h264", 640, 480), audio("aac", 2), audio("aac", 2)}, []int{1}},
		{"three audio streams", []*media.Stream{video("h264", 640, 480), audio("aac", 2), audio("aac", 2), audio("aac", 2)}, []int{1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := resolveCmd(t, map[string]*media.Container{"in.mkv": mkv(tt.streams...)},
				"ffmpeg -i in.mkv -map 0:a -map -0:a:1 -c copy out.mkv")
			require.NoError(t, r.err)
			assert.Equal(t, tt.want, sources(r.j))
		})
	}
}

func TestOptionalMapOfDisabledStream(t *testing.T) {
	files := map[string]*media.Container{"in.mkv": mkv(video("h264", 640, 480), audio("aac", 2))}

	r := resolveCmd(t, files, "ffmpeg -vn -i in.mkv -map 0:0? -c copy out.mkv")
	require.NoError(t, r.err)
	assert.Equal(t, []int{1}, sources(r.j), "no map was added, so automatic selection ran")

	r = resolveCmd(t, files, "ffmpeg -vn -i in.mkv -map 0:0 -c copy out.mkv")
	require.Error(t, r.err)
	assert.ErrorIs(t, r.err, job.ErrResolution)
	assert.Contains(t, r.err.Error(), "Stream map '0:0' matches disabled streams.")
}

func TestTranscodeAndCopy(t *testing.T) {
	files := map[string]*media.Container{"in.mkv": mkv(video("h264", 1920, 1080), audio("aac", 2))}
	r := resolveCmd(t, files, "ffmpeg -i in.mkv -c:v libx264 -crf 20 -c:a copy out.mkv")
	require.NoError(t, r.err)
	j := r.j
	require.Len(t, j.OutputStreams, 2)

	v, a := j.OutputStreams[0], j.OutputStreams[1]
	require.NotNil(t, v.Enc)
	assert.Equal(t, "libx264", v.Enc.Name)
	assert.True(t, v.EncodingNeeded)
	assert.False(t, v.StreamCopy)
	assert.Equal(t, "null", v.Avfilter)
	crf, ok := v.EncoderOpts.Get("crf")
	assert.True(t, ok)
	assert.Equal(t, "20", crf)

	assert.True(t, a.StreamCopy)
	assert.Nil(t, a.Enc)
	assert.Equal(t, "aac", a.St.CodecName)
	assert.Equal(t, 2, a.St.Channels)

	assert.Equal(t, job.DecodingForOST, j.InputStreams[0].DecodingNeeded)
	assert.Zero(t, j.InputStreams[1].DecodingNeeded)
	require.Len(t, j.FilterGraphs, 1)
	assert.True(t, j.FilterGraphs[0].Simple)
	assert.Same(t, v, j.FilterGraphs[0].Outputs[0].Ost)
	assert.Equal(t, v.Enc.PixFmts, j.FilterGraphs[0].Outputs[0].Formats)
}

func TestComplexFilterGraph(t *testing.T) {
	files := map[string]*media.Container{"in.mkv": mkv(video("h264", 1920, 1080), audio("aac", 2))}

	r := resolveCmd(t, files, "ffmpeg -i in.mkv -filter_complex [0:v]scale=640:360[v] -map [v] -map 0:a -c:a copy out.mkv")
	require.NoError(t, r.err)
	require.Len(t, r.j.OutputStreams, 2)
	assert.Equal(t, -1, r.j.OutputStreams[0].SourceIndex)
	require.NotNil(t, r.j.OutputStreams[0].Filter)
	assert.Equal(t, "v", r.j.OutputStreams[0].Filter.Label)
	assert.Equal(t, job.DecodingForFilter, r.j.InputStreams[0].DecodingNeeded)

	r = resolveCmd(t, files, "ffmpeg -i in.mkv -filter_complex [0:v]split[a][b] -map [a] out.mkv")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "has an unconnected output")

	r = resolveCmd(t, files, "ffmpeg -i in.mkv -filter_complex [0:v]null[v] -map [nope] out.mkv")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "Output with label 'nope' does not exist")
}

func TestOutputStreamFedOnce(t *testing.T) {
	files := map[string]*media.Container{"in.mkv": mkv(video("h264", 1920, 1080), audio("aac", 2), subtitle("subrip"))}
	commands := []string{
		"ffmpeg -i in.mkv -c copy out.mkv",
		"ffmpeg -i in.mkv -c:v libx264 -vf scale=640:360 -c:a ac3 out.mkv",
		"ffmpeg -i in.mkv -filter_complex [0:v]scale=640:360[v];[0:a]volume=2[a] -map [v] -map [a] -map 0:s out.mkv",
		"ffmpeg -i in.mkv -filter_complex [0:v]null -c:a copy out.mkv",
	}
	for _, command := range commands {
		r := resolveCmd(t, files, command)
		require.NoError(t, r.err, command)
		require.NotEmpty(t, r.j.OutputStreams, command)
		for _, ost := range r.j.OutputStreams {
			fromInput := ost.SourceIndex >= 0
			assert.NotEqual(t, fromInput, ost.FromComplexGraph(), "%s: stream %d", command, ost.Index)
		}
	}
}

// --- Inputs ---

func TestInputSeek(t *testing.T) {
	files := map[string]*media.Container{"in.mkv": mkv(video("h264", 640, 480))}

	r := resolveCmd(t, files, "ffmpeg -sseof -10 -i in.mkv -c copy out.mkv")
	require.NoError(t, r.err)
	assert.Equal(t, []int64{50 * media.TimeBase}, r.opener.Seeks())
	assert.Equal(t, int64(50*media.TimeBase), r.j.InputFiles[0].StartTime)
	assert.Equal(t, int64(-50*media.TimeBase), r.j.InputFiles[0].TSOffset)

	r = resolveCmd(t, files, "ffmpeg -sseof -90 -i in.mkv -c copy out.mkv")
	require.NoError(t, r.err)
	assert.Empty(t, r.opener.Seeks())
	assert.True(t, r.log.Contains(job.LevelWarn, "seeks to before start of file"))

	r = resolveCmd(t, files, "ffmpeg -sseof 5 -i in.mkv -c copy out.mkv")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "-sseof value must be negative")

	delayed := video("h264", 640, 480)
	delayed.VideoDelay = 2
	r = resolveCmd(t, map[string]*media.Container{"in.mkv": mkv(delayed)}, "ffmpeg -ss 10 -i in.mkv -c copy out.mkv")
	require.NoError(t, r.err)
	assert.Equal(t, []int64{10*media.TimeBase - seekBackoff}, r.opener.Seeks())
}

func TestInputErrors(t *testing.T) {
	files := map[string]*media.Container{"in.mkv": mkv(video("h264", 640, 480), audio("aac", 2))}
	tests := []struct {
		name    string
		command string
		want    string
	}{
		{"missing file", "ffmpeg -i nope.mkv out.mkv", "Error opening input file nope.mkv"},
		{"unknown demuxer", "ffmpeg -f nosuch -i in.mkv out.mkv", "Unknown input format: 'nosuch'"},
		{"unknown decoder", "ffmpeg -c:v nosuch -i in.mkv out.mkv", "Unknown decoder 'nosuch'"},
		{"decoder of wrong type", "ffmpeg -c:v aac -i in.mkv out.mkv", "Invalid decoder type 'aac'"},
		{"stop before start", "ffmpeg -ss 10 -to 5 -i in.mkv out.mkv", "-to value smaller than -ss; aborting."},
		{"unconsumed demuxer option", "ffmpeg -movflags +faststart -i in.mkv out.mkv", "Option movflags not found."},
		{"bad discard", "ffmpeg -discard:a sometimes -i in.mkv out.mkv", "Error parsing discard sometimes."},
		{"bad hwaccel", "ffmpeg -hwaccel warp -i in.mkv out.mkv", "Unrecognized hwaccel: warp."},
		{"no output", "ffmpeg -i in.mkv", "At least one output file must be specified"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := resolveCmd(t, files, tt.command)
			require.Error(t, r.err)
			assert.Contains(t, r.err.Error(), tt.want)
		})
	}
}

func TestInputStreamOptions(t *testing.T) {
	mono := audio("pcm_s16le", 1)
	files := map[string]*media.Container{
		"a.mkv": mkv(video("h264", 640, 480), mono),
		"b.mkv": mkv(audio("aac", 2)),
	}
	r := resolveCmd(t, files, "ffmpeg -itsscale:v 2 -hwaccel cuvid -c:v h264_cuvid -i a.mkv -i b.mkv -map 0:v -map 1:a -c:v libx264 out.mkv")
	require.NoError(t, r.err)
	j := r.j

	ist := j.InputStreams[0]
	assert.Equal(t, 2.0, ist.TSScale)
	assert.Equal(t, "cuda", ist.HWAccel)
	assert.Equal(t, "cuda", ist.HWAccelOutputFormat)
	require.NotNil(t, ist.Dec)
	assert.Equal(t, "h264_cuvid", ist.Dec.Name)
	assert.Equal(t, -1, ist.TopFieldFirst)

	assert.NotZero(t, j.InputStreams[1].St.ChannelLayout, "mono layout is guessed")
	assert.True(t, r.log.Contains(job.LevelWarn, "Guessed Channel Layout for Input Stream #0.1 : mono"))

	for _, f := range j.InputFiles {
		assert.Equal(t, defaultThreadQueueSize, f.ThreadQueueSize)
	}
	assert.True(t, j.InputStreams[1].Discard, "the unmapped mono stream stays discarded")
}

func TestDumpAttachment(t *testing.T) {
	font := &media.Stream{Type: media.Attachment, CodecName: "ttf", ExtraData: []byte("font-bytes")}
	font.Metadata.Set("filename", "font.ttf", 0)
	files := map[string]*media.Container{"in.mkv": mkv(video("h264", 640, 480), font)}

	out := filepath.Join(t.TempDir(), "dumped.ttf")
	r := resolveCmd(t, files, "ffmpeg -dump_attachment:t "+out+" -i in.mkv -map 0:v -c copy out.mkv")
	require.NoError(t, r.err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "font-bytes", string(data))
}

// --- Outputs ---

func TestChaptersFollowInputSeek(t *testing.T) {
	in := mkv(video("h264", 640, 480))
	ch := &media.Chapter{ID: 1, TimeBase: media.Rational{Num: 1, Den: 1000}, Start: 0, End: 10000}
	ch.Metadata.Set("title", "Intro", 0)
	late := &media.Chapter{ID: 2, TimeBase: media.Rational{Num: 1, Den: 1000}, Start: 10000, End: 60000}
	in.Chapters = []*media.Chapter{ch, late}

	r := resolveCmd(t, map[string]*media.Container{"in.mkv": in}, "ffmpeg -ss 5 -i in.mkv -c copy out.mkv")
	require.NoError(t, r.err)
	chapters := r.j.OutputFiles[0].Ctx.Chapters
	require.Len(t, chapters, 2)
	assert.Equal(t, int64(0), chapters[0].Start)
	assert.Equal(t, int64(5000), chapters[0].End)
	title, _ := chapters[0].Metadata.Get("title")
	assert.Equal(t, "Intro", title)
	assert.Equal(t, int64(5000), chapters[1].Start)
	assert.Equal(t, int64(55000), chapters[1].End)

	r = resolveCmd(t, map[string]*media.Container{"in.mkv": in}, "ffmpeg -i in.mkv -t 8 -c copy out.mkv")
	require.NoError(t, r.err)
	require.Len(t, r.j.OutputFiles[0].Ctx.Chapters, 1)
	assert.Equal(t, int64(8000), r.j.OutputFiles[0].Ctx.Chapters[0].End)

	r = resolveCmd(t, map[string]*media.Container{"in.mkv": in}, "ffmpeg -i in.mkv -map_chapters -1 -c copy out.mkv")
	require.NoError(t, r.err)
	assert.Empty(t, r.j.OutputFiles[0].Ctx.Chapters)
}

func TestMetadata(t *testing.T) {
	in := mkv(video("h264", 640, 480), audio("aac", 2))
	in.Metadata.Set("title", "Old", 0)
	in.Metadata.Set("creation_time", "2020-01-01T00:00:00Z", 0)
	in.Metadata.Set("comment", "keep", 0)
	in.Streams[1].Metadata.Set("language", "jpn", 0)
	in.Streams[1].Metadata.Set("encoder", "x", 0)

	r := resolveCmd(t, map[string]*media.Container{"in.mkv": in},
		"ffmpeg -i in.mkv -c:v copy -c:a aac -metadata title=New -metadata comment= -metadata:s:a language=eng -metadata:s:v rotate=90 out.mkv")
	require.NoError(t, r.err)
	of := r.j.OutputFiles[0]
	assert.Equal(t, map[string]string{"title": "New"}, of.Ctx.Metadata.Map())

	a := r.j.OutputStreams[1]
	lang, _ := a.St.Metadata.Get("language")
	assert.Equal(t, "eng", lang)
	assert.False(t, a.St.Metadata.Has("encoder"), "re-encoded streams drop the encoder tag")

	v := r.j.OutputStreams[0]
	assert.True(t, v.RotateOverridden)
	assert.Equal(t, 90.0, v.RotateOverrideValue)
	assert.False(t, v.St.Metadata.Has("rotate"))
}

func TestMetadataMaps(t *testing.T) {
	a := mkv(video("h264", 640, 480))
	a.Metadata.Set("title", "A", 0)
	b := mkv(audio("aac", 2))
	b.Metadata.Set("title", "B", 0)
	files := map[string]*media.Container{"a.mkv": a, "b.mkv": b}

	r := resolveCmd(t, files, "ffmpeg -i a.mkv -i b.mkv -map 0 -map 1 -map_metadata 1 -c copy out.mkv")
	require.NoError(t, r.err)
	title, _ := r.j.OutputFiles[0].Ctx.Metadata.Get("title")
	assert.Equal(t, "B", title)

	r = resolveCmd(t, files, "ffmpeg -i a.mkv -i b.mkv -map 0 -map_metadata -1 -c copy out.mkv")
	require.NoError(t, r.err)
	assert.Zero(t, r.j.OutputFiles[0].Ctx.Metadata.Len())

	r = resolveCmd(t, files, "ffmpeg -i a.mkv -map 0 -map_metadata 3 -c copy out.mkv")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "Invalid input file index 3 while processing metadata maps")

	r = resolveCmd(t, files, "ffmpeg -i a.mkv -map 0 -map_metadata:s:a 0:s:v -c copy out.mkv")
	require.NoError(t, r.err)
}

func TestPrograms(t *testing.T) {
	files := map[string]*media.Container{"in.mkv": mkv(video("h264", 640, 480), audio("aac", 2))}
	r := resolveCmd(t, files, "ffmpeg -i in.mkv -c copy -program title=Main:st=0:st=1 -program program_num=7:st=1 out.ts")
	require.NoError(t, r.err)
	progs := r.j.OutputFiles[0].Ctx.Programs
	require.Len(t, progs, 2)
	assert.Equal(t, 1, progs[0].ID)
	assert.Equal(t, []int{0, 1}, progs[0].StreamIndexes)
	title, _ := progs[0].Metadata.Get("title")
	assert.Equal(t, "Main", title)
	assert.Equal(t, 7, progs[1].ID)
	assert.Equal(t, []int{1}, progs[1].StreamIndexes)

	r = resolveCmd(t, files, "ffmpeg -i in.mkv -c copy -program colour=red out.ts")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "Unknown program key colour.")
}

func TestAttachFile(t *testing.T) {
	dir := t.TempDir()
	font := filepath.Join(dir, "DejaVu.ttf")
	require.NoError(t, os.WriteFile(font, []byte("glyphs"), 0o644))
	files := map[string]*media.Container{"in.mkv": mkv(video("h264", 640, 480))}

	r := resolveCmd(t, files, "ffmpeg -i in.mkv -attach "+font+" -c copy out.mkv")
	require.NoError(t, r.err)
	require.Len(t, r.j.OutputStreams, 2)
	att := r.j.OutputStreams[1]
	assert.Equal(t, media.Attachment, att.St.Type)
	assert.False(t, att.StreamCopy)
	assert.True(t, att.Finished)
	assert.Equal(t, []byte("glyphs"), att.St.ExtraData)
	name, _ := att.St.Metadata.Get("filename")
	assert.Equal(t, "DejaVu.ttf", name)

	r = resolveCmd(t, files, "ffmpeg -i in.mkv -attach "+filepath.Join(dir, "missing.ttf")+" -c copy out.mkv")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "Could not open attachment file")
}

func TestOutputErrors(t *testing.T) {
	files := map[string]*media.Container{"in.mkv": mkv(video("h264", 640, 480), audio("aac", 2))}
	tests := []struct {
		name    string
		command string
		want    string
	}{
		{"unknown encoder", "ffmpeg -i in.mkv -c:v nosuch out.mkv", "Unknown encoder 'nosuch'"},
		{"encoder of wrong type", "ffmpeg -i in.mkv -c:a libx264 out.mkv", "Invalid encoder type 'libx264'"},
		{"unknown extension", "ffmpeg -i in.mkv out.nosuch", "Unable to find a suitable output format for 'out.nosuch'"},
		{"unknown muxer", "ffmpeg -i in.mkv -f nosuch out.mkv", "Requested output format 'nosuch' is not a suitable output format"},
		{"filter with copy", "ffmpeg -i in.mkv -c:v copy -vf scale=1:1 out.mkv", "Filtering and streamcopy cannot be used together."},
		{"fpsmax and r", "ffmpeg -i in.mkv -r 25 -fpsmax 30 out.mkv", "Only one of -fpsmax and -r can be set for a stream."},
		{"bad pixel format", "ffmpeg -i in.mkv -pix_fmt nope out.mkv", "Unknown pixel format requested: nope."},
		{"bad sample format", "ffmpeg -i in.mkv -sample_fmt nope out.mkv", "Invalid sample format 'nope'"},
		{"bad matrix", "ffmpeg -i in.mkv -intra_matrix 1,2,3 out.mkv", "Syntax error in matrix \"1,2,3\" at coeff 2"},
		{"bad rc_override", "ffmpeg -i in.mkv -rc_override 1,2 out.mkv", "error parsing rc_override"},
		{"bad disposition", "ffmpeg -i in.mkv -c copy -disposition:v sideways out.mkv", "Invalid disposition 'sideways'."},
		{"missing frame number", "ffmpeg -i in.mkv -map 0:v -f image2 frame.png", "frame.png: Invalid argument"},
		{"missing preset", "ffmpeg -i in.mkv -c:v libx264 -pre nosuch out.mkv", "Preset nosuch specified for stream 0:0, but could not be opened."},
		{"metadata without equals", "ffmpeg -i in.mkv -c copy -metadata title out.mkv", "No '=' character in metadata string title."},
		{"duration and stop time", "ffmpeg -i in.mkv -map 0:v -c copy -t 1 -to 2 out.mkv", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := resolveCmd(t, files, tt.command)
			if tt.want == "" {
				require.NoError(t, r.err)
				assert.True(t, r.log.Contains(job.LevelWarn, "-t and -to cannot be used together; using -t."))
				return
			}
			require.Error(t, r.err)
			assert.ErrorIs(t, r.err, job.ErrResolution)
			assert.Contains(t, r.err.Error(), tt.want)
		})
	}
}

func TestEncoderOptions(t *testing.T) {
	files := map[string]*media.Container{"in.mkv": mkv(video("h264", 1920, 1080), audio("aac", 2))}
	r := resolveCmd(t, files, "ffmpeg -i in.mkv -c:v libx264 -s 1280x720 -pix_fmt yuv420p -q:v 4 -pass 1 "+
		"-rc_override 0,100,-50/101,200,3 -tag:v avc1 -frames 10 -c:a ac3 -ac 6 -ar 44100 out.mkv")
	require.NoError(t, r.err)
	v, a := r.j.OutputStreams[0], r.j.OutputStreams[1]

	assert.Equal(t, 1280, v.Params.Width)
	assert.Equal(t, 720, v.Params.Height)
	assert.Equal(t, "yuv420p", v.Params.PixFmt)
	assert.NotZero(t, v.Params.Flags&job.FlagQScale)
	assert.Equal(t, 4*qp2Lambda, v.Params.GlobalQuality)
	assert.NotZero(t, v.Params.Flags&job.FlagPass1)
	flags, _ := v.EncoderOpts.Get("flags")
	assert.Equal(t, "+pass1", flags)
	assert.Equal(t, "ffmpeg2pass-0.log", v.PassLogFile)
	stats, _ := v.EncoderOpts.Get("stats")
	assert.Equal(t, "ffmpeg2pass-0.log", stats)
	assert.Equal(t, []job.RCOverride{
		{StartFrame: 0, EndFrame: 100, QualityFactor: 0.5},
		{StartFrame: 101, EndFrame: 200, QScale: 3, QualityFactor: 1.0},
	}, v.Params.RCOverride)
	assert.Equal(t, parseCodecTag("avc1"), v.St.CodecTag)
	assert.Equal(t, int64(10), v.MaxFrames)

	assert.Equal(t, 6, a.Params.Channels)
	assert.Equal(t, 44100, a.Params.SampleRate)
	assert.Equal(t, int64(10), a.MaxFrames)
	assert.True(t, r.log.Contains(job.LevelWarn, "Applying unspecific -frames to non video streams"))
	require.NotNil(t, a.Filter)
	assert.Equal(t, 44100, a.Filter.SampleRate)
}

func TestAudioChannelMap(t *testing.T) {
	files := map[string]*media.Container{"in.mkv": mkv(audio("ac3", 6))}
	r := resolveCmd(t, files, "ffmpeg -i in.mkv -map_channel 0.0.1 -map_channel -1 -c:a aac out.mkv")
	require.NoError(t, r.err)
	assert.Equal(t, []int{1, -1}, r.j.OutputStreams[0].AudioChannelsMap)
}

// --- Small parsers ---

func TestHasFrameNumber(t *testing.T) {
	tests := map[string]bool{
		"frame%d.png":   true,
		"frame%03d.png": true,
		"100%%-%d.png":  true,
		"frame.png":     false,
		"a%d-%d.png":    false,
		"bad%s.png":     false,
		"trailing%":     false,
		"percent%%.png": false,
	}
	for path, want := range tests {
		assert.Equal(t, want, hasFrameNumber(path), path)
	}
}

func TestParseMetaSpec(t *testing.T) {
	tests := []struct {
		in   string
		want metaSpec
		err  string
	}{
		{"", metaSpec{typ: 'g'}, ""},
		{"g", metaSpec{typ: 'g'}, ""},
		{"s", metaSpec{typ: 's'}, ""},
		{"s:a:1", metaSpec{typ: 's', stream: "a:1"}, ""},
		{"c:2", metaSpec{typ: 'c', index: 2}, ""},
		{"p:1", metaSpec{typ: 'p', index: 1}, ""},
		{"sx", metaSpec{}, "Invalid metadata specifier x."},
		{"z", metaSpec{}, "Invalid metadata type z."},
	}
	for _, tt := range tests {
		got, err := parseMetaSpec(tt.in)
		if tt.err != "" {
			require.Error(t, err, tt.in)
			assert.Equal(t, tt.err, err.Error())
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
