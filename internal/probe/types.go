package probe

import "encoding/json"

// --- ffprobe JSON wire types ---
//
// ffprobe prints most numbers as strings; they are parsed in convert.go.
// Fixture files may write them as plain numbers, so those fields accept
// both.

type ffprobeOutput struct {
	Format   ffprobeFormat    `json:"format"`
	Streams  []ffprobeStream  `json:"streams"`
	Chapters []ffprobeChapter `json:"chapters"`
	Programs []ffprobeProgram `json:"programs"`
}

type ffprobeFormat struct {
	Filename       string                `json:"filename"`
	NbStreams      int                   `json:"nb_streams"`
	FormatName     string                `json:"format_name"`
	FormatLongName string                `json:"format_long_name"`
	StartTime      flexString            `json:"start_time"`
	Duration       flexString            `json:"duration"`
	Size           flexString            `json:"size"`
	BitRate        flexString            `json:"bit_rate"`
	Tags           map[string]flexString `json:"tags"`
}

type ffprobeStream struct {
	Index         int                   `json:"index"`
	ID            flexString            `json:"id"`
	CodecName     string                `json:"codec_name"`
	CodecType     string                `json:"codec_type"`
	CodecTag      flexString            `json:"codec_tag"`
	Profile       string                `json:"profile"`
	Width         int                   `json:"width"`
	Height        int                   `json:"height"`
	HasBFrames    int                   `json:"has_b_frames"`
	PixFmt        string                `json:"pix_fmt"`
	SampleFmt     string                `json:"sample_fmt"`
	SampleRate    flexString            `json:"sample_rate"`
	Channels      int                   `json:"channels"`
	ChannelLayout string                `json:"channel_layout"`
	BitRate       flexString            `json:"bit_rate"`
	TimeBase      flexString            `json:"time_base"`
	AvgFrameRate  flexString            `json:"avg_frame_rate"`
	RFrameRate    flexString            `json:"r_frame_rate"`
	NbFrames      flexString            `json:"nb_frames"`
	NbReadPackets flexString            `json:"nb_read_packets"`
	ExtraData     string                `json:"extradata"`
	Disposition   map[string]int        `json:"disposition"`
	Tags          map[string]flexString `json:"tags"`
}

type ffprobeChapter struct {
	ID       int64                 `json:"id"`
	TimeBase flexString            `json:"time_base"`
	Start    int64                 `json:"start"`
	End      int64                 `json:"end"`
	Tags     map[string]flexString `json:"tags"`
}

type ffprobeProgram struct {
	ProgramID int                   `json:"program_id"`
	Tags      map[string]flexString `json:"tags"`
	Streams   []ffprobeProgramSt    `json:"streams"`
}

type ffprobeProgramSt struct {
	Index int `json:"index"`
}

// flexString is a JSON string that also accepts a bare number or boolean.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		return nil
	}
	*f = flexString(b)
	return nil
}
