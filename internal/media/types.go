package media

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// NoPTS marks an unknown timestamp or duration.
const NoPTS int64 = math.MinInt64

// TimeBase is the number of internal time units per second (microseconds).
const TimeBase = 1000000

// TimeBaseQ is [TimeBase] as a rational.
var TimeBaseQ = Rational{1, TimeBase}

// --- Media types ---

// Type is the media type of a stream.
type Type int

const (
	Unknown Type = iota
	Video
	Audio
	Data
	Subtitle
	Attachment
)

func (t Type) String() string {
	switch t {
	case Video:
		return "video"
	case Audio:
		return "audio"
	case Data:
		return "data"
	case Subtitle:
		return "subtitle"
	case Attachment:
		return "attachment"
	}
	return "unknown"
}

// Letter returns the stream-specifier letter for t, or 0 for unknown.
func (t Type) Letter() byte {
	switch t {
	case Video:
		return 'v'
	case Audio:
		return 'a'
	case Data:
		return 'd'
	case Subtitle:
		return 's'
	case Attachment:
		return 't'
	}
	return 0
}

// ParseType maps an ffprobe codec_type string to a Type.
func ParseType(s string) Type {
	switch strings.ToLower(s) {
	case "video":
		return Video
	case "audio":
		return Audio
	case "data":
		return Data
	case "subtitle":
		return Subtitle
	case "attachment":
		return Attachment
	}
	return Unknown
}

// --- Rationals ---

// Rational is a fraction Num/Den. The zero value means "unset".
type Rational struct {
	Num int
	Den int
}

// Valid reports whether the rational has a non-zero denominator and numerator.
func (r Rational) Valid() bool { return r.Num != 0 && r.Den != 0 }

// Float returns Num/Den, or 0 when Den is zero.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string { return fmt.Sprintf("%d/%d", r.Num, r.Den) }

// RescaleQ converts a from time base bq to time base cq, rounding to the
// nearest value with ties away from zero.
func RescaleQ(a int64, bq, cq Rational) int64 {
	if a == NoPTS || a == math.MaxInt64 {
		return a
	}
	num := new(big.Int).Mul(big.NewInt(a), big.NewInt(int64(bq.Num)*int64(cq.Den)))
	den := big.NewInt(int64(bq.Den) * int64(cq.Num))
	if den.Sign() == 0 {
		return a
	}
	if den.Sign() < 0 {
		num.Neg(num)
		den.Neg(den)
	}
	half := new(big.Int).Rsh(den, 1)
	if num.Sign() < 0 {
		num.Sub(num, half)
	} else {
		num.Add(num, half)
	}
	q := new(big.Int).Quo(num, den)
	if !q.IsInt64() {
		if q.Sign() < 0 {
			return math.MinInt64 + 1
		}
		return math.MaxInt64
	}
	return q.Int64()
}

// --- Discard levels ---

// Discard selects which packets of a stream the demuxer drops.
type Discard int

const (
	DiscardNone     Discard = -16
	DiscardDefault  Discard = 0
	DiscardNonRef   Discard = 8
	DiscardBidir    Discard = 16
	DiscardNonIntra Discard = 24
	DiscardNonKey   Discard = 32
	DiscardAll      Discard = 48
)

var discardNames = map[string]Discard{
	"none":    DiscardNone,
	"default": DiscardDefault,
	"noref":   DiscardNonRef,
	"bidir":   DiscardBidir,
	"nointra": DiscardNonIntra,
	"nokey":   DiscardNonKey,
	"all":     DiscardAll,
}

// ParseDiscard parses a discard level by name or integer value.
func ParseDiscard(s string) (Discard, error) {
	if d, ok := discardNames[s]; ok {
		return d, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return Discard(n), nil
	}
	return 0, fmt.Errorf("unknown discard level %q", s)
}

func (d Discard) String() string {
	for name, v := range discardNames {
		if v == d {
			return name
		}
	}
	return fmt.Sprint(int(d))
}

// --- Dispositions ---

// Disposition is a bit set of stream disposition flags.
type Disposition uint32

const (
	DispositionDefault Disposition = 1 << iota
	DispositionDub
	DispositionOriginal
	DispositionComment
	DispositionLyrics
	DispositionKaraoke
	DispositionForced
	DispositionHearingImpaired
	DispositionVisualImpaired
	DispositionCleanEffects
	DispositionAttachedPic
	DispositionTimedThumbnails
	DispositionCaptions
	DispositionDescriptions
	DispositionMetadata
	DispositionDependent
	DispositionStillImage
)

var dispositionNames = []struct {
	name string
	flag Disposition
}{
	{"default", DispositionDefault},
	{"dub", DispositionDub},
	{"original", DispositionOriginal},
	{"comment", DispositionComment},
	{"lyrics", DispositionLyrics},
	{"karaoke", DispositionKaraoke},
	{"forced", DispositionForced},
	{"hearing_impaired", DispositionHearingImpaired},
	{"visual_impaired", DispositionVisualImpaired},
	{"clean_effects", DispositionCleanEffects},
	{"attached_pic", DispositionAttachedPic},
	{"timed_thumbnails", DispositionTimedThumbnails},
	{"captions", DispositionCaptions},
	{"descriptions", DispositionDescriptions},
	{"metadata", DispositionMetadata},
	{"dependent", DispositionDependent},
	{"still_image", DispositionStillImage},
}

// DispositionFromMap converts ffprobe's disposition object into flags.
func DispositionFromMap(m map[string]int) Disposition {
	var d Disposition
	for _, n := range dispositionNames {
		if m[n.name] != 0 {
			d |= n.flag
		}
	}
	return d
}

// ParseDisposition evaluates a flag expression such as "default+forced",
// "+comment-default" or "0" on top of base.
func ParseDisposition(base Disposition, s string) (Disposition, error) {
	if s == "" {
		return base, fmt.Errorf("empty disposition")
	}
	d := base
	if s[0] != '+' && s[0] != '-' {
		d = 0
	}
	for len(s) > 0 {
		op := byte('+')
		if s[0] == '+' || s[0] == '-' {
			op = s[0]
			s = s[1:]
		}
		end := strings.IndexAny(s, "+-")
		if end < 0 {
			end = len(s)
		}
		tok := s[:end]
		s = s[end:]
		if tok == "" {
			return base, fmt.Errorf("empty flag in disposition expression")
		}
		var flag Disposition
		if tok == "0" {
			flag = 0
		} else if f, ok := dispositionByName(tok); ok {
			flag = f
		} else {
			return base, fmt.Errorf("unknown disposition flag %q", tok)
		}
		if op == '+' {
			d |= flag
		} else {
			d &^= flag
		}
	}
	return d, nil
}

func dispositionByName(name string) (Disposition, bool) {
	for _, n := range dispositionNames {
		if n.name == name {
			return n.flag, true
		}
	}
	return 0, false
}

// String lists the set flags joined by '+', or "0".
func (d Disposition) String() string {
	var parts []string
	for _, n := range dispositionNames {
		if d&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, "+")
}

// --- Containers ---

// Stream is one elementary stream of a container.
type Stream struct {
	Index         int
	ID            int
	Type          Type
	CodecName     string
	CodecTag      uint32
	Profile       string
	Width         int
	Height        int
	PixFmt        string
	SampleFmt     string
	SampleRate    int
	Channels      int
	ChannelLayout uint64
	BitRate       int64
	TimeBase      Rational
	AvgFrameRate  Rational
	RFrameRate    Rational
	VideoDelay    int
	Disposition   Disposition
	Metadata      Dict
	ExtraData     []byte

	// CodecInfoFrames is the number of frames known for the stream; zero
	// means the prober could not establish a frame count.
	CodecInfoFrames int64
	// NewPackets reports that the prober read packets for this stream.
	NewPackets bool
	// Discard is the demuxer-level discard level requested for the stream.
	Discard Discard
}

// Usable reports whether the codec parameters are complete enough for the
// stream to be processed ("u" specifier).
func (s *Stream) Usable() bool {
	if s.CodecName == "" || s.CodecName == "none" {
		return false
	}
	switch s.Type {
	case Audio:
		return s.SampleRate > 0 && s.Channels > 0 && s.SampleFmt != ""
	case Video:
		return s.Width > 0 && s.Height > 0 && s.PixFmt != ""
	case Unknown:
		return false
	}
	return true
}

// Chapter is a chapter marker with its own time base.
type Chapter struct {
	ID       int64
	TimeBase Rational
	Start    int64
	End      int64
	Metadata Dict
}

// Program groups stream indexes (MPEG-TS programs).
type Program struct {
	ID            int
	StreamIndexes []int
	Metadata      Dict
}

// HasStream reports whether index belongs to the program.
func (p *Program) HasStream(index int) bool {
	for _, i := range p.StreamIndexes {
		if i == index {
			return true
		}
	}
	return false
}

// Container is an opened input (or an output being assembled).
type Container struct {
	URL        string
	FormatName string
	// Duration and StartTime are in microseconds; NoPTS when unknown.
	Duration  int64
	StartTime int64
	// Size and BitRate are zero when unknown.
	Size    int64
	BitRate int64
	// SeekToPTS mirrors demuxers that seek by presentation timestamps.
	SeekToPTS bool
	Metadata  Dict
	Streams   []*Stream
	Chapters  []*Chapter
	Programs  []*Program
}

// NewContainer returns an empty container with unknown timing.
func NewContainer(url, format string) *Container {
	return &Container{URL: url, FormatName: format, Duration: NoPTS, StartTime: NoPTS}
}

// AddStream appends a stream of type t and returns it.
func (c *Container) AddStream(t Type) *Stream {
	st := &Stream{Index: len(c.Streams), Type: t}
	c.Streams = append(c.Streams, st)
	return st
}

// Program returns the program with the given id, or nil.
func (c *Container) Program(id int) *Program {
	for _, p := range c.Programs {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Clone deep-copies the container so callers can mutate the result.
func (c *Container) Clone() *Container {
	out := *c
	out.Metadata = *c.Metadata.Clone()
	out.Streams = make([]*Stream, len(c.Streams))
	for i, s := range c.Streams {
		cp := *s
		cp.Metadata = *s.Metadata.Clone()
		if s.ExtraData != nil {
			cp.ExtraData = append([]byte(nil), s.ExtraData...)
		}
		out.Streams[i] = &cp
	}
	out.Chapters = make([]*Chapter, len(c.Chapters))
	for i, ch := range c.Chapters {
		cp := *ch
		cp.Metadata = *ch.Metadata.Clone()
		out.Chapters[i] = &cp
	}
	out.Programs = make([]*Program, len(c.Programs))
	for i, p := range c.Programs {
		cp := *p
		cp.StreamIndexes = append([]int(nil), p.StreamIndexes...)
		cp.Metadata = *p.Metadata.Clone()
		out.Programs[i] = &cp
	}
	return &out
}
