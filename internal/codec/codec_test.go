package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/muxgraph/internal/media"
)

func TestLookup(t *testing.T) {
	enc := FindEncoder("h264")
	require.NotNil(t, enc)
	assert.Equal(t, "libx264", enc.Name)
	assert.True(t, enc.HasPrivate("crf"))

	assert.Nil(t, FindEncoderByName("h264"), "h264 is a decoder name only")
	assert.NotNil(t, FindDecoderByName("h264"))
	assert.Equal(t, "dca", FindDecoder("dts").Name)

	d := DescriptorByName("subrip")
	require.NotNil(t, d)
	assert.Equal(t, PropTextSub, d.Props&PropTextSub)
	assert.Equal(t, 24, ExactBitsPerSample("pcm_s24le"))
}

func TestGuessMuxer(t *testing.T) {
	tests := []struct {
		short, file, want string
	}{
		{"", "out.mkv", "matroska"},
		{"", "OUT.MP4", "mp4"},
		{"", "music.mka", "matroska"},
		{"", "frame%03d.png", "image2"},
		{"mpegts", "out.mkv", "mpegts"},
		{"", "noext", ""},
		{"bogus", "out.mkv", ""},
	}
	for _, tt := range tests {
		f := GuessMuxer(tt.short, tt.file)
		if tt.want == "" {
			assert.Nil(t, f, tt.file)
			continue
		}
		require.NotNil(t, f, tt.file)
		assert.Equal(t, tt.want, f.Name)
	}

	mka := GuessMuxer("", "music.mka")
	require.NotNil(t, mka)
	assert.Empty(t, mka.VideoCodec, "audio-only matroska has no default video codec")
	assert.Equal(t, "vorbis", mka.AudioCodec)
	assert.Equal(t, "h264", FindMuxer("matroska").VideoCodec)
}

func TestGuessCodec(t *testing.T) {
	img := FindMuxer("image2")
	assert.Equal(t, "png", img.GuessCodec("x%d.png", media.Video))
	assert.Equal(t, "mjpeg", img.GuessCodec("x%d.jpg", media.Video))
	mp3 := FindMuxer("mp3")
	assert.True(t, mp3.WantsAttachedPic)
	assert.Equal(t, "mp3", mp3.GuessCodec("", media.Audio))
	assert.Equal(t, "", mp3.GuessCodec("", media.Subtitle))
}

func TestFilterCodecOptions(t *testing.T) {
	c := media.NewContainer("in.mkv", "matroska")
	v := c.AddStream(media.Video)
	v.CodecName = "h264"
	a := c.AddStream(media.Audio)
	a.CodecName = "aac"

	opts := media.NewDict("b:v", "2M", "crf", "20", "ab", "128k", "vthreads", "4", "b:a", "96k", "err_detect", "crccheck")

	got, err := FilterCodecOptions(opts, "h264", c, v, FindEncoderByName("libx264"), true)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"b": "2M", "crf": "20", "threads": "4"}, got.Map())

	got, err = FilterCodecOptions(opts, "aac", c, a, nil, true)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ab": "128k", "b": "96k"}, got.Map())

	got, err = FilterCodecOptions(opts, "aac", c, a, nil, false)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"err_detect": "crccheck"}, got.Map())

	_, err = FilterCodecOptions(media.NewDict("b:x", "1"), "h264", c, v, nil, true)
	assert.Error(t, err)
}

func TestConsumeFormatOptions(t *testing.T) {
	opts := media.NewDict("movflags", "+faststart", "probesize", "5M", "bogus", "1")
	ConsumeFormatOptions(opts, FindMuxer("mp4"), true)
	assert.Equal(t, map[string]string{"probesize": "5M", "bogus": "1"}, opts.Map())

	ConsumeFormatOptions(opts, FindDemuxer("matroska"), false)
	assert.Equal(t, map[string]string{"bogus": "1"}, opts.Map())
}

func TestFindOptionChildren(t *testing.T) {
	assert.Nil(t, FindCodecOption("crf", false))
	o := FindCodecOption("crf", true)
	require.NotNil(t, o)
	assert.True(t, o.Has(OptEncoding|OptVideo))
	assert.NotNil(t, FindFormatOption("movflags", true))
	assert.True(t, FindFormatOption("fflags", false).IsFlags)
}

func TestParseChannelLayout(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"stereo", 0x3},
		{"5.1", 0x60F},
		{"6c", 0x60F},
		{"3c", 0xB},
		{"FL+FR+LFE", 0xB},
		{"0x4", 0x4},
	}
	for _, tt := range tests {
		got, err := ParseChannelLayout(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := ParseChannelLayout("surround-ish")
	assert.Error(t, err)
	assert.Equal(t, 6, LayoutChannels(0x60F))
	assert.Equal(t, "5.1", LayoutName(0x60F))
}

func TestParseVideoSizeAndRate(t *testing.T) {
	w, h, err := ParseVideoSize("hd720")
	require.NoError(t, err)
	assert.Equal(t, [2]int{1280, 720}, [2]int{w, h})
	w, h, err = ParseVideoSize("640x360")
	require.NoError(t, err)
	assert.Equal(t, [2]int{640, 360}, [2]int{w, h})
	_, _, err = ParseVideoSize("0x360")
	assert.ErrorIs(t, err, ErrInvalidValue)

	r, err := ParseVideoRate("ntsc")
	require.NoError(t, err)
	assert.Equal(t, media.Rational{Num: 30000, Den: 1001}, r)
	r, err = ParseVideoRate("29.97")
	require.NoError(t, err)
	assert.Equal(t, media.Rational{Num: 2997, Den: 100}, r)
	_, err = ParseVideoRate("-1")
	assert.Error(t, err)
}
