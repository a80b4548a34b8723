package filtergraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		desc    string
		inputs  []Pad
		outputs []Pad
	}{
		{
			name:    "single video filter",
			desc:    "scale=1280:720",
			inputs:  []Pad{{Type: media.Video, Filter: "scale", NbPads: 1}},
			outputs: []Pad{{Type: media.Video, Filter: "scale", NbPads: 1}},
		},
		{
			name: "overlay with labels",
			desc: "[0:v][1:v]overlay=10:10[out]",
			inputs: []Pad{
				{Label: "0:v", Type: media.Video, Filter: "overlay", PadIndex: 0, NbPads: 2},
				{Label: "1:v", Type: media.Video, Filter: "overlay", PadIndex: 1, NbPads: 2},
			},
			outputs: []Pad{{Label: "out", Type: media.Video, Filter: "overlay", NbPads: 1}},
		},
		{
			name: "internal links are not open",
			desc: "[0:a]asplit[a1][a2];[a1]volume=2[loud];[a2]anull[quiet]",
			inputs: []Pad{
				{Label: "0:a", Type: media.Audio, Filter: "asplit", NbPads: 1},
			},
			outputs: []Pad{
				{Label: "loud", Type: media.Audio, Filter: "volume", NbPads: 1},
				{Label: "quiet", Type: media.Audio, Filter: "anull", NbPads: 1},
			},
		},
		{
			name:    "source chain",
			desc:    "sine=frequency=1000,aformat=s16",
			outputs: []Pad{{Type: media.Audio, Filter: "aformat", NbPads: 1}},
		},
		{
			name: "concat video and audio",
			desc: "concat=n=2:v=1:a=1[v][a]",
			inputs: []Pad{
				{Type: media.Video, Filter: "concat", PadIndex: 0, NbPads: 4},
				{Type: media.Audio, Filter: "concat", PadIndex: 1, NbPads: 4},
				{Type: media.Video, Filter: "concat", PadIndex: 2, NbPads: 4},
				{Type: media.Audio, Filter: "concat", PadIndex: 3, NbPads: 4},
			},
			outputs: []Pad{
				{Label: "v", Type: media.Video, Filter: "concat", PadIndex: 0, NbPads: 2},
				{Label: "a", Type: media.Audio, Filter: "concat", PadIndex: 1, NbPads: 2},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Parse(tt.desc)
			require.NoError(t, err)
			assert.Equal(t, tt.inputs, g.Inputs)
			assert.Equal(t, tt.outputs, g.Outputs)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, desc := range []string{"[0:v", "scale[a][b]", "[0:v][1:v][2:v]overlay"} {
		_, err := Parse(desc)
		assert.True(t, errors.Is(err, ErrSyntax), desc)
	}
}

func TestIsAudioFilter(t *testing.T) {
	assert.True(t, IsAudioFilter("aresample"))
	assert.True(t, IsAudioFilter("volume"))
	assert.False(t, IsAudioFilter("alphamerge"))
	assert.False(t, IsAudioFilter("scale"))
}

func jobWithInput() *job.Job {
	j := job.New(&job.MemoryLogger{})
	c := media.NewContainer("in.mkv", "matroska")
	c.AddStream(media.Video)
	c.AddStream(media.Audio)
	c.AddStream(media.Audio)
	j.InputFiles = append(j.InputFiles, &job.InputFile{Ctx: c})
	for _, st := range c.Streams {
		j.InputStreams = append(j.InputStreams, &job.InputStream{St: st, Discard: true})
	}
	return j
}

func TestInitComplex(t *testing.T) {
	j := jobWithInput()
	fg := AddComplex(j, "[0:a:1]volume=0.5[quiet];[0:v]scale=640:-2")
	assert.True(t, j.Settings.InputStreamPotentiallyAvailable)
	require.NoError(t, InitComplex(j, fg))

	require.Len(t, fg.Inputs, 2)
	assert.Same(t, j.InputStreams[2], fg.Inputs[0].Ist)
	assert.Same(t, j.InputStreams[0], fg.Inputs[1].Ist)
	assert.False(t, j.InputStreams[2].Discard)
	assert.Equal(t, job.DecodingForFilter, j.InputStreams[2].DecodingNeeded)
	assert.True(t, j.InputStreams[1].Discard)

	require.Len(t, fg.Outputs, 2)
	assert.Equal(t, "quiet", fg.Outputs[0].Label)
	assert.Equal(t, media.Video, fg.Outputs[1].Type)
	assert.False(t, fg.Outputs[1].Bound())
}

func TestInitComplex_Errors(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"[3:v]scale=1:1", "Invalid file index 3"},
		{"[0:s]scale=1:1", "matches no streams"},
		{"[0:a:5]anull", "matches no streams"},
	}
	for _, tt := range tests {
		j := jobWithInput()
		fg := AddComplex(j, tt.desc)
		err := InitComplex(j, fg)
		require.Error(t, err, tt.desc)
		assert.Contains(t, err.Error(), tt.want)
		assert.ErrorIs(t, err, job.ErrResolution)
	}

	j := jobWithInput()
	j.InputStreams[0].UserSetDiscard = media.DiscardAll
	err := InitComplex(j, AddComplex(j, "[0:v]null"))
	assert.ErrorContains(t, err, "refers to disabled stream")

	j = jobWithInput()
	err = InitComplex(j, AddComplex(j, "anull,anull;anull;anull"))
	assert.ErrorContains(t, err, "Cannot find a matching stream for unlabeled input pad 0 on filter anull")
}

func TestRegisterSimple(t *testing.T) {
	j := jobWithInput()
	ist := j.InputStreams[1]
	ost := &job.OutputStream{St: &media.Stream{Type: media.Audio}, Avfilter: "anull"}
	require.NoError(t, RegisterSimple(j, ist, ost))

	require.Len(t, j.FilterGraphs, 1)
	fg := j.FilterGraphs[0]
	assert.True(t, fg.Simple)
	assert.Equal(t, "anull", fg.Desc)
	assert.Same(t, fg.Outputs[0], ost.Filter)
	assert.Same(t, ist, fg.Inputs[0].Ist)
	assert.Equal(t, "graph 0 input from stream 0:1", fg.Inputs[0].Name)
	assert.Len(t, ist.Filters, 1)
}
