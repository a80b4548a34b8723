package options

import (
	"math"

	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
)

// Context receives the options of one file group. Fields left at their
// defaults mean the option was not given.
type Context struct {
	Job *job.Job
	// Arg is the file URL the group belongs to.
	Arg string

	// Generic option dictionaries captured when the group was closed.
	CodecOpts  *media.Dict
	FormatOpts *media.Dict
	SwsOpts    *media.Dict
	SwrOpts    *media.Dict

	// --- Input and output ---

	StartTime     int64
	StartTimeEOF  int64
	SeekTimestamp int
	Format        string

	CodecNames      SpecList[string]
	AudioChannels   SpecList[int]
	AudioSampleRate SpecList[int]
	FrameRates      SpecList[string]
	MaxFrameRates   SpecList[string]
	FrameSizes      SpecList[string]
	FramePixFmts    SpecList[string]

	// --- Input ---

	InputTSOffset   int64
	Loop            int
	RateEmu         bool
	AccurateSeek    bool
	ThreadQueueSize int

	TSScale              SpecList[float64]
	DumpAttachment       SpecList[string]
	HWAccels             SpecList[string]
	HWAccelDevices       SpecList[string]
	HWAccelOutputFormats SpecList[string]
	Autorotate           SpecList[bool]

	// --- Output ---

	StreamMaps       []job.StreamMap
	AudioChannelMaps []job.ChannelMap

	MetadataGlobalManual   bool
	MetadataStreamsManual  bool
	MetadataChaptersManual bool
	Attachments            []string

	// ChaptersInputFile is math.MaxInt32 until -map_chapters is given.
	ChaptersInputFile int

	RecordingTime int64
	StopTime      int64
	LimitFilesize uint64
	MuxPreload    float64
	MuxMaxDelay   float64
	Shortest      bool
	Bitexact      bool

	VideoDisable    bool
	AudioDisable    bool
	SubtitleDisable bool
	DataDisable     bool

	// StreamIDMap maps an output stream index to its container stream id.
	StreamIDMap map[int]int

	Metadata                 SpecList[string]
	MaxFrames                SpecList[int64]
	BitstreamFilters         SpecList[string]
	CodecTags                SpecList[string]
	SampleFmts               SpecList[string]
	QScale                   SpecList[float64]
	ForcedKeyFrames          SpecList[string]
	ForceFPS                 SpecList[bool]
	FrameAspectRatios        SpecList[string]
	RCOverrides              SpecList[string]
	IntraMatrices            SpecList[string]
	InterMatrices            SpecList[string]
	ChromaIntraMatrices      SpecList[string]
	TopFieldFirst            SpecList[int]
	MetadataMap              SpecList[string]
	Presets                  SpecList[string]
	CopyInitialNonkeyframes  SpecList[bool]
	CopyPriorStart           SpecList[int]
	Filters                  SpecList[string]
	FilterScripts            SpecList[string]
	ReinitFilters            SpecList[int]
	FixSubDuration           SpecList[bool]
	CanvasSizes              SpecList[string]
	Pass                     SpecList[int]
	PassLogFiles             SpecList[string]
	MaxMuxingQueueSize       SpecList[int]
	MuxingQueueDataThreshold SpecList[int]
	GuessLayoutMax           SpecList[int]
	Apad                     SpecList[string]
	Discard                  SpecList[string]
	Disposition              SpecList[string]
	Program                  SpecList[string]
	TimeBases                SpecList[string]
	EncTimeBases             SpecList[string]
	Autoscale                SpecList[bool]
}

// NewContext returns a context with the per-group defaults. A nil dict is
// replaced by an empty one.
func NewContext(j *job.Job, arg string, codecOpts, formatOpts, swsOpts, swrOpts *media.Dict) *Context {
	return &Context{
		Job:        j,
		Arg:        arg,
		CodecOpts:  orEmpty(codecOpts),
		FormatOpts: orEmpty(formatOpts),
		SwsOpts:    orEmpty(swsOpts),
		SwrOpts:    orEmpty(swrOpts),

		StartTime:         media.NoPTS,
		StartTimeEOF:      media.NoPTS,
		AccurateSeek:      true,
		ThreadQueueSize:   -1,
		ChaptersInputFile: math.MaxInt32,
		RecordingTime:     math.MaxInt64,
		StopTime:          math.MaxInt64,
		LimitFilesize:     math.MaxUint64,
		MuxMaxDelay:       0.7,
		StreamIDMap:       map[int]int{},

		CodecNames:      newList[string]("c", "codec", "acodec", "vcodec", "scodec", "dcodec"),
		AudioChannels:   newList[int]("ac"),
		AudioSampleRate: newList[int]("ar"),
		FrameRates:      newList[string]("r"),
		MaxFrameRates:   newList[string]("fpsmax"),
		FrameSizes:      newList[string]("s"),
		FramePixFmts:    newList[string]("pix_fmt"),

		TSScale:              newList[float64]("itsscale"),
		DumpAttachment:       newList[string]("dump_attachment"),
		HWAccels:             newList[string]("hwaccel"),
		HWAccelDevices:       newList[string]("hwaccel_device"),
		HWAccelOutputFormats: newList[string]("hwaccel_output_format"),
		Autorotate:           newList[bool]("autorotate"),

		Metadata:                 newList[string]("metadata"),
		MaxFrames:                newList[int64]("frames", "aframes", "vframes", "dframes"),
		BitstreamFilters:         newList[string]("bsf", "absf", "vbsf"),
		CodecTags:                newList[string]("tag", "atag", "vtag", "stag"),
		SampleFmts:               newList[string]("sample_fmt"),
		QScale:                   newList[float64]("q", "qscale"),
		ForcedKeyFrames:          newList[string]("forced_key_frames"),
		ForceFPS:                 newList[bool]("force_fps"),
		FrameAspectRatios:        newList[string]("aspect"),
		RCOverrides:              newList[string]("rc_override"),
		IntraMatrices:            newList[string]("intra_matrix"),
		InterMatrices:            newList[string]("inter_matrix"),
		ChromaIntraMatrices:      newList[string]("chroma_intra_matrix"),
		TopFieldFirst:            newList[int]("top"),
		MetadataMap:              newList[string]("map_metadata"),
		Presets:                  newList[string]("pre", "apre", "vpre", "spre"),
		CopyInitialNonkeyframes:  newList[bool]("copyinkfr"),
		CopyPriorStart:           newList[int]("copypriorss"),
		Filters:                  newList[string]("filter", "af", "vf"),
		FilterScripts:            newList[string]("filter_script"),
		ReinitFilters:            newList[int]("reinit_filter"),
		FixSubDuration:           newList[bool]("fix_sub_duration"),
		CanvasSizes:              newList[string]("canvas_size"),
		Pass:                     newList[int]("pass"),
		PassLogFiles:             newList[string]("passlogfile"),
		MaxMuxingQueueSize:       newList[int]("max_muxing_queue_size"),
		MuxingQueueDataThreshold: newList[int]("muxing_queue_data_threshold"),
		GuessLayoutMax:           newList[int]("guess_layout_max"),
		Apad:                     newList[string]("apad"),
		Discard:                  newList[string]("discard"),
		Disposition:              newList[string]("disposition"),
		Program:                  newList[string]("program"),
		TimeBases:                newList[string]("time_base"),
		EncTimeBases:             newList[string]("enc_time_base"),
		Autoscale:                newList[bool]("autoscale"),
	}
}

// NewGlobalContext returns the context global options are written through.
func NewGlobalContext(j *job.Job) *Context {
	return NewContext(j, "", nil, nil, nil, nil)
}

func orEmpty(d *media.Dict) *media.Dict {
	if d == nil {
		return media.NewDict()
	}
	return d
}

// Log returns the job logger.
func (c *Context) Log() job.Logger { return c.Job.Log }

// Settings returns the run-level settings the context writes global
// options to.
func (c *Context) Settings() *job.Settings { return &c.Job.Settings }
