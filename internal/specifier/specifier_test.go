package specifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/muxgraph/internal/media"
)

// fixture: 0 video, 1 audio eng, 2 audio ger, 3 subtitle, 4 video attached pic
func fixture() *media.Container {
	c := media.NewContainer("in.ts", "mpegts")
	v := c.AddStream(media.Video)
	v.CodecName, v.Width, v.Height, v.PixFmt, v.ID = "h264", 1920, 1080, "yuv420p", 0x100
	a1 := c.AddStream(media.Audio)
	a1.CodecName, a1.ID = "aac", 0x101
	a1.Metadata.Set("language", "eng", 0)
	a2 := c.AddStream(media.Audio)
	a2.CodecName, a2.SampleRate, a2.Channels, a2.SampleFmt, a2.ID = "ac3", 48000, 6, "fltp", 0x102
	a2.Metadata.Set("language", "ger", 0)
	s := c.AddStream(media.Subtitle)
	s.CodecName = "dvb_subtitle"
	pic := c.AddStream(media.Video)
	pic.CodecName = "mjpeg"
	pic.Disposition = media.DispositionAttachedPic
	c.Programs = []*media.Program{
		{ID: 1, StreamIndexes: []int{0, 1}},
		{ID: 2, StreamIndexes: []int{2, 3}},
	}
	return c
}

func TestMatch(t *testing.T) {
	c := fixture()
	tests := []struct {
		spec string
		want []int
	}{
		{"", []int{0, 1, 2, 3, 4}},
		{"2", []int{2}},
		{"v", []int{0, 4}},
		{"V", []int{0}},
		{"a", []int{1, 2}},
		{"a:1", []int{2}},
		{"a:0", []int{1}},
		{"a:5", nil},
		{"s", []int{3}},
		{"d", nil},
		{"p:1", []int{0, 1}},
		{"p:2:a", []int{2}},
		{"p:2:0", []int{2}},
		{"p:2:1", []int{3}},
		{"p:9", nil},
		{"#0x101", []int{1}},
		{"i:258", []int{2}},
		{"a:#257", []int{1}},
		{"m:language", []int{1, 2}},
		{"m:language:ger", []int{2}},
		{"a:m:language:eng", []int{1}},
		{"u", []int{0, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := MatchAny(c, tt.spec)
			require.NoError(t, err)
			var idx []int
			for _, st := range got {
				idx = append(idx, st.Index)
			}
			assert.Equal(t, tt.want, idx)
		})
	}
}

func TestMatch_Malformed(t *testing.T) {
	c := fixture()
	for _, spec := range []string{"x", "va", "0:2", "a:1x", "p:", "p:x", "#", "i:abc"} {
		t.Run(spec, func(t *testing.T) {
			_, err := Match(c, c.Streams[0], spec)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
		})
	}
}
