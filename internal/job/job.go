// Package job holds the resolved transcoding job: the run-level settings,
// the input files and streams, the output files and streams, the filter
// graphs and the stream maps that connect them. A Job is built by a single
// resolution pass and is dropped as a whole when that pass fails.
package job

import (
	"github.com/google/uuid"

	"github.com/backmassage/muxgraph/internal/codec"
	"github.com/backmassage/muxgraph/internal/media"
)

// Settings are the run-level (global group) options.
type Settings struct {
	SDPFilename string

	DTSDeltaThreshold   float64
	AudioDriftThreshold float64
	DTSErrorThreshold   float64

	AudioVolume        int
	AudioSyncMethod    int
	VideoSyncMethod    int
	FrameDropThreshold float64

	Benchmark    bool
	BenchmarkAll bool
	HexDump      bool
	PktDump      bool
	CopyTS       bool
	StartAtZero  bool
	CopyTB       int
	ExitOnError  bool
	AbortOnFlags string
	DebugTS      bool
	Stats        bool

	FrameBitsPerRawSample int
	MaxErrorRate          float64
	FilterNbThreads       int
	FilterComplexThreads  int
	AutoConversionFilters bool

	IntraOnly       bool
	Overwrite       bool
	NoOverwrite     bool
	PSNR            bool
	InputSync       bool
	IgnoreUnknown   bool
	CopyUnknown     bool
	FindStreamInfo  bool
	WantSDP         bool
	DupWarning      int
	Timelimit       int64
	StdinInteract   bool
	VStatsFile      string
	HWDevices       []*HWDevice
	FilterHWDevice  string
	VideoToolboxFmt string
	// DataDir is the last preset search directory.
	DataDir string

	// InputStreamPotentiallyAvailable is set once a complex filtergraph
	// without inputs exists, so outputs may be fed by it alone.
	InputStreamPotentiallyAvailable bool
}

// DefaultSettings returns the run defaults.
func DefaultSettings() Settings {
	return Settings{
		DTSDeltaThreshold:     10,
		AudioDriftThreshold:   0.1,
		DTSErrorThreshold:     3600 * 30,
		AudioVolume:           256,
		VideoSyncMethod:       VSyncAuto,
		CopyTB:                -1,
		MaxErrorRate:          2.0 / 3,
		AutoConversionFilters: true,
		FindStreamInfo:        true,
		WantSDP:               true,
		DupWarning:            1000,
		StdinInteract:         true,
		Stats:                 true,
	}
}

// HWDevice is one -init_hw_device declaration.
type HWDevice struct {
	Name string
	Type string
	// Device is the device path or index, empty for the default.
	Device  string
	Options *media.Dict
	// Source names the device this one is derived from.
	Source string
}

// HWDevice returns the declared device called name, or nil.
func (s *Settings) HWDevice(name string) *HWDevice {
	for _, d := range s.HWDevices {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// Video sync methods.
const (
	VSyncAuto        = -1
	VSyncPassthrough = 0
	VSyncCFR         = 1
	VSyncVFR         = 2
	VSyncVSCFR       = 0xfe
	VSyncDrop        = 0xff
)

// Job is one resolved invocation.
type Job struct {
	// TraceID tags every log record of the run.
	TraceID  string
	Settings Settings

	InputFiles    []*InputFile
	InputStreams  []*InputStream
	OutputFiles   []*OutputFile
	OutputStreams []*OutputStream
	FilterGraphs  []*FilterGraph

	// Generic option dictionaries being filled while the command line is
	// split. Each closed file group takes them over and they start again
	// empty; whatever is left at the end is trailing.
	CodecOpts  *media.Dict
	FormatOpts *media.Dict
	SwsOpts    *media.Dict
	SwrOpts    *media.Dict

	Log Logger
}

// New returns an empty job with default settings.
func New(log Logger) *Job {
	return &Job{
		TraceID:    uuid.NewString(),
		Settings:   DefaultSettings(),
		CodecOpts:  media.NewDict(),
		FormatOpts: media.NewDict(),
		SwsOpts:    media.NewDict("flags", "bicubic"),
		SwrOpts:    media.NewDict(),
		Log:        log,
	}
}

// TakePending hands over the generic option dictionaries and starts new
// ones.
func (j *Job) TakePending() (codec, format, sws, swr *media.Dict) {
	codec, format, sws, swr = j.CodecOpts, j.FormatOpts, j.SwsOpts, j.SwrOpts
	j.CodecOpts = media.NewDict()
	j.FormatOpts = media.NewDict()
	j.SwsOpts = media.NewDict("flags", "bicubic")
	j.SwrOpts = media.NewDict()
	return codec, format, sws, swr
}

// --- Inputs ---

// Decoding reasons.
const (
	DecodingForOST    = 1
	DecodingForFilter = 2
)

// InputFile is an opened input.
type InputFile struct {
	Index int
	URL   string
	Ctx   *media.Container
	// Opts are the demuxer options as given, before the opener consumed
	// them.
	Opts *media.Dict
	// IstIndex is the index of the first stream in Job.InputStreams.
	IstIndex int
	NbStreams int

	Loop          int
	Duration      int64
	TimeBase      media.Rational
	InputTSOffset int64
	TSOffset      int64
	StartTime     int64
	SeekTimestamp bool
	RecordingTime int64
	RateEmu       bool
	AccurateSeek  bool

	ThreadQueueSize int
	NonBlocking     bool
}

// InputStream is one stream of an input file.
type InputStream struct {
	FileIndex int
	St        *media.Stream
	// Discard stays true until an output or filter claims the stream.
	Discard        bool
	UserSetDiscard media.Discard
	DecodingNeeded int

	Dec         *codec.Codec
	DecoderOpts *media.Dict
	// DecForced is set when -c/-codec named the decoder.
	DecForced bool

	TSScale        float64
	Framerate      media.Rational
	TopFieldFirst  int
	GuessLayoutMax int
	Autorotate     bool
	FixSubDuration bool
	ReinitFilters  int
	CanvasWidth    int
	CanvasHeight   int

	HWAccel             string
	HWAccelDevice       string
	HWAccelOutputFormat string

	Filters []*InputFilter
}

// IndexOf returns the position of ist in j.InputStreams, or -1.
func (j *Job) IndexOf(ist *InputStream) int {
	for i, s := range j.InputStreams {
		if s == ist {
			return i
		}
	}
	return -1
}

// --- Outputs ---

// OutputFile is an output being assembled. Ctx mirrors the output streams
// so that stream specifiers can be evaluated against them.
type OutputFile struct {
	Index  int
	URL    string
	Format *codec.Format
	Ctx    *media.Container
	Opts   *media.Dict
	// OstIndex is the index of the first stream in Job.OutputStreams.
	OstIndex int

	RecordingTime int64
	StartTime     int64
	LimitFilesize uint64
	Shortest      bool
	MaxDelay      int64
	Bitexact      bool
	// ChaptersFrom is the input whose chapters were copied, or -1.
	ChaptersFrom int
}

// Encoder flags.
const (
	FlagQScale = 1 << iota
	FlagPass1
	FlagPass2
	FlagGlobalHeader
	FlagBitexact
	FlagInterlacedDCT
	FlagInterlacedME
	FlagPSNR
)

// QP2Lambda converts a quantizer to the encoder's lambda scale.
const QP2Lambda = 118

// EncoderParams are the encoder context fields the resolver fills in.
type EncoderParams struct {
	Width, Height     int
	PixFmt            string
	SampleAspectRatio media.Rational
	SampleFmt         string
	SampleRate        int
	Channels          int
	ChannelLayout     uint64
	BitsPerRawSample  int
	TimeBase          media.Rational
	Flags             int
	GlobalQuality     int
	CodecTag          uint32

	IntraMatrix       []uint16
	InterMatrix       []uint16
	ChromaIntraMatrix []uint16
	RCOverride        []RCOverride
	StatsIn           string
	SubtitleHeader    string
}

// RCOverride is one "start,end,q" rate-control override. Negative quality
// values are quality factors (percent).
type RCOverride struct {
	StartFrame    int
	EndFrame      int
	QScale        int
	QualityFactor float64
}

// OutputStream is one stream of an output file.
type OutputStream struct {
	FileIndex int
	Index     int
	// SourceIndex is the feeding input stream, or -1 when the stream is fed
	// by a filter graph or is an attachment.
	SourceIndex int
	St          *media.Stream
	SyncIst     *InputStream

	Enc            *codec.Codec
	Params         EncoderParams
	StreamCopy     bool
	EncodingNeeded bool
	Finished       bool

	MaxFrames       int64
	BSFs            []string
	Disposition     string
	FrameRate       media.Rational
	MaxFrameRate    media.Rational
	ForceFPS        bool
	TopFieldFirst   int
	Autoscale       bool
	EncTimeBase     media.Rational
	MuxTimeBase     media.Rational
	ForcedKeyframes string
	KeepPixFmt      bool

	RotateOverridden    bool
	RotateOverrideValue float64
	FrameAspectRatio    media.Rational

	AudioChannelsMap []int
	Apad             string

	LogfilePrefix string
	// PassLogFile is the first-pass stats file the stream reads or writes.
	PassLogFile string

	Filter       *OutputFilter
	Avfilter     string
	FilterOption string
	FilterScript string

	EncoderOpts *media.Dict
	SwsOpts     *media.Dict
	SwrOpts     *media.Dict

	AttachmentFilename string
	AttachmentSize     int64

	CopyInitialNonkeyframes  bool
	CopyPriorStart           int
	MaxMuxingQueueSize       int
	MuxingQueueDataThreshold int64
}

// FromComplexGraph reports whether ost is fed by a complex filter graph
// rather than an input stream.
func (ost *OutputStream) FromComplexGraph() bool {
	return ost.Filter != nil && !ost.Filter.Graph.Simple
}

// --- Filter graphs ---

// FilterGraph is a simple (one in, one out) or complex filter graph.
type FilterGraph struct {
	Index   int
	Desc    string
	Inputs  []*InputFilter
	Outputs []*OutputFilter
	// Simple graphs are created for a single encoded output stream.
	Simple bool
}

// InputFilter is a filter graph input pad.
type InputFilter struct {
	Graph *FilterGraph
	Ist   *InputStream
	Name  string
	Type  media.Type
}

// OutputFilter is a filter graph output pad and the constraints the encoder
// places on it.
type OutputFilter struct {
	Graph *FilterGraph
	Ost   *OutputStream
	Name  string
	Type  media.Type
	// Label is the pad label from the graph description, if any.
	Label string

	Width, Height  int
	FrameRate      media.Rational
	Format         string
	SampleRate     int
	ChannelLayout  uint64
	Formats        []string
	SampleRates    []int
	ChannelLayouts []uint64
}

// Bound reports whether the output pad already feeds a stream.
func (o *OutputFilter) Bound() bool { return o.Ost != nil }

// --- Maps ---

// StreamMap is one -map directive after expansion.
type StreamMap struct {
	Disabled        bool
	FileIndex       int
	StreamIndex     int
	SyncFileIndex   int
	SyncStreamIndex int
	// LinkLabel names a complex filter graph output instead of a stream.
	LinkLabel string
}

// ChannelMap is one -map_channel directive. FileIndex -1 mutes the channel.
type ChannelMap struct {
	FileIndex    int
	StreamIndex  int
	ChannelIndex int
	OFileIndex   int
	OStreamIndex int
}
