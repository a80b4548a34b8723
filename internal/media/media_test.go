package media

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDict_SetFlags(t *testing.T) {
	d := NewDict("title", "first")
	d.Set("TITLE", "second", DontOverwrite)
	v, ok := d.Get("title")
	require.True(t, ok)
	assert.Equal(t, "first", v)

	d.Set("Title", "third", 0)
	v, _ = d.Get("title")
	assert.Equal(t, "third", v)

	d.Set("flags", "+global_header", 0)
	d.Set("flags", "+bitexact", Append)
	v, _ = d.Get("flags")
	assert.Equal(t, "+global_header+bitexact", v)
}

func TestDict_OrderAndDelete(t *testing.T) {
	d := NewDict("a", "1", "b", "2", "c", "3")
	d.Delete("b")
	assert.Equal(t, []Entry{{"a", "1"}, {"c", "3"}}, d.Entries())
	assert.Equal(t, 2, d.Len())

	var nilDict *Dict
	assert.Equal(t, 0, nilDict.Len())
	_, ok := nilDict.Get("a")
	assert.False(t, ok)
}

func TestDict_CopyDontOverwrite(t *testing.T) {
	dst := NewDict("language", "eng")
	dst.Copy(NewDict("language", "fre", "title", "Commentary"), DontOverwrite)
	assert.Equal(t, map[string]string{"language": "eng", "title": "Commentary"}, dst.Map())
}

func TestRescaleQ(t *testing.T) {
	tests := []struct {
		a    int64
		bq   Rational
		cq   Rational
		want int64
	}{
		{5000000, TimeBaseQ, Rational{1, 1000}, 5000},
		{1, Rational{1, 3}, Rational{1, 2}, 1},
		{-1, Rational{1, 3}, Rational{1, 2}, -1},
		{90000, Rational{1, 90000}, TimeBaseQ, 1000000},
		{math.MaxInt64, TimeBaseQ, Rational{1, 1000}, math.MaxInt64},
		{NoPTS, TimeBaseQ, Rational{1, 1000}, NoPTS},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RescaleQ(tt.a, tt.bq, tt.cq), "%d %v->%v", tt.a, tt.bq, tt.cq)
	}
}

func TestParseDisposition(t *testing.T) {
	d, err := ParseDisposition(DispositionForced, "default+comment")
	require.NoError(t, err)
	assert.Equal(t, DispositionDefault|DispositionComment, d)

	d, err = ParseDisposition(DispositionForced|DispositionDefault, "-default+dub")
	require.NoError(t, err)
	assert.Equal(t, DispositionForced|DispositionDub, d)

	d, err = ParseDisposition(DispositionDefault, "0")
	require.NoError(t, err)
	assert.Equal(t, Disposition(0), d)
	assert.Equal(t, "0", d.String())

	_, err = ParseDisposition(0, "bogus")
	assert.Error(t, err)
}

func TestParseDiscard(t *testing.T) {
	d, err := ParseDiscard("all")
	require.NoError(t, err)
	assert.Equal(t, DiscardAll, d)
	assert.Equal(t, "all", d.String())

	d, err = ParseDiscard("8")
	require.NoError(t, err)
	assert.Equal(t, DiscardNonRef, d)

	_, err = ParseDiscard("sometimes")
	assert.Error(t, err)
}

func TestStream_Usable(t *testing.T) {
	v := &Stream{Type: Video, CodecName: "h264", Width: 1920, Height: 1080, PixFmt: "yuv420p"}
	assert.True(t, v.Usable())
	v.PixFmt = ""
	assert.False(t, v.Usable())

	a := &Stream{Type: Audio, CodecName: "aac", SampleRate: 48000, Channels: 2, SampleFmt: "fltp"}
	assert.True(t, a.Usable())

	s := &Stream{Type: Subtitle, CodecName: "subrip"}
	assert.True(t, s.Usable())
	assert.False(t, (&Stream{Type: Unknown, CodecName: "x"}).Usable())
}

func TestContainer_CloneIsIndependent(t *testing.T) {
	c := NewContainer("in.mkv", "matroska")
	st := c.AddStream(Audio)
	st.Metadata.Set("language", "eng", 0)
	c.Programs = append(c.Programs, &Program{ID: 1, StreamIndexes: []int{0}})

	cp := c.Clone()
	cp.Streams[0].Metadata.Set("language", "ger", 0)
	cp.Programs[0].StreamIndexes[0] = 9

	v, _ := c.Streams[0].Metadata.Get("language")
	assert.Equal(t, "eng", v)
	assert.Equal(t, 0, c.Programs[0].StreamIndexes[0])
	assert.True(t, c.Programs[0].HasStream(0))
}

func TestLeadingInt(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		rest string
		ok   bool
	}{
		{"12:s:a", 12, ":s:a", true},
		{"-1", -1, "", true},
		{"  +7x", 7, "x", true},
		{"x", 0, "x", false},
		{"-", 0, "-", false},
		{"99999999999999999999", 0, "99999999999999999999", false},
	}
	for _, tt := range tests {
		n, rest, ok := LeadingInt(tt.in)
		assert.Equal(t, tt.n, n, tt.in)
		assert.Equal(t, tt.rest, rest, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}
