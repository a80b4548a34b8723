package probe

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/backmassage/muxgraph/internal/codec"
	"github.com/backmassage/muxgraph/internal/media"
)

// ParseJSON converts raw ffprobe JSON output into a container.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (*media.Container, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	return buildContainer(&raw), nil
}

// --- Conversion from wire types to domain types ---

func buildContainer(raw *ffprobeOutput) *media.Container {
	c := media.NewContainer(raw.Format.Filename, raw.Format.FormatName)
	c.Duration = parseSeconds(raw.Format.Duration)
	c.StartTime = parseSeconds(raw.Format.StartTime)
	c.Size = parseInt64(raw.Format.Size)
	c.BitRate = parseInt64(raw.Format.BitRate)
	setTags(&c.Metadata, raw.Format.Tags)

	for i := range raw.Streams {
		c.Streams = append(c.Streams, convertStream(&raw.Streams[i]))
	}
	for i := range raw.Chapters {
		ch := &raw.Chapters[i]
		out := &media.Chapter{ID: ch.ID, TimeBase: parseRational(ch.TimeBase), Start: ch.Start, End: ch.End}
		setTags(&out.Metadata, ch.Tags)
		c.Chapters = append(c.Chapters, out)
	}
	for i := range raw.Programs {
		pr := &raw.Programs[i]
		out := &media.Program{ID: pr.ProgramID}
		for _, s := range pr.Streams {
			out.StreamIndexes = append(out.StreamIndexes, s.Index)
		}
		setTags(&out.Metadata, pr.Tags)
		c.Programs = append(c.Programs, out)
	}
	return c
}

func convertStream(s *ffprobeStream) *media.Stream {
	st := &media.Stream{
		Index:        s.Index,
		ID:           int(parseInt64(s.ID)),
		Type:         media.ParseType(s.CodecType),
		CodecName:    s.CodecName,
		CodecTag:     uint32(parseInt64(s.CodecTag)),
		Profile:      s.Profile,
		Width:        s.Width,
		Height:       s.Height,
		PixFmt:       s.PixFmt,
		SampleFmt:    s.SampleFmt,
		SampleRate:   parseInt(s.SampleRate),
		Channels:     s.Channels,
		BitRate:      parseInt64(s.BitRate),
		TimeBase:     parseRational(s.TimeBase),
		AvgFrameRate: parseRational(s.AvgFrameRate),
		RFrameRate:   parseRational(s.RFrameRate),
		VideoDelay:   s.HasBFrames,
		Disposition:  media.DispositionFromMap(s.Disposition),
		ExtraData:    parseHexDump(s.ExtraData),

		CodecInfoFrames: parseInt64(s.NbFrames),
		NewPackets:      parseInt64(s.NbReadPackets) > 0,
	}
	if s.ChannelLayout != "" {
		st.ChannelLayout, _ = codec.ParseChannelLayout(s.ChannelLayout)
	}
	setTags(&st.Metadata, s.Tags)
	return st
}

func setTags(d *media.Dict, tags map[string]flexString) {
	for k, v := range tags {
		d.Set(k, string(v), 0)
	}
}

// parseHexDump decodes ffprobe's -show_data layout:
// "00000000: 0102 0304 ...  ascii" one line per 16 bytes.
func parseHexDump(s string) []byte {
	if s == "" {
		return nil
	}
	var out []byte
	for _, line := range strings.Split(s, "\n") {
		_, rest, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		if i := strings.Index(rest, "  "); i >= 0 {
			rest = rest[:i]
		}
		b, err := hex.DecodeString(strings.ReplaceAll(rest, " ", ""))
		if err != nil {
			return out
		}
		out = append(out, b...)
	}
	return out
}

// --- Numeric parsing helpers (ffprobe returns numbers as strings) ---

// parseSeconds converts "12.345000" to microseconds; NoPTS when missing.
func parseSeconds(v flexString) int64 {
	s := strings.TrimSpace(string(v))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return media.NoPTS
	}
	return int64(math.Round(f * media.TimeBase))
}

func parseRational(v flexString) media.Rational {
	q, err := codec.ParseRational(strings.TrimSpace(string(v)))
	if err != nil || q.Den == 0 {
		return media.Rational{}
	}
	return q
}

// parseInt64 accepts decimal and 0x-prefixed hex ("0x1e1").
func parseInt64(v flexString) int64 {
	s := strings.TrimSpace(string(v))
	n, _ := strconv.ParseInt(s, 0, 64)
	return n
}

func parseInt(v flexString) int {
	s := strings.TrimSpace(string(v))
	n, _ := strconv.Atoi(s)
	return n
}
