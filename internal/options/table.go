package options

// registry is filled once by init. Setters reach ParseOption, which reads
// the registry, so it cannot be a package-level initializer.
var registry struct {
	list   []*Descriptor
	byName map[string]*Descriptor
}

func init() {
	registry.list = buildTable()
	registry.byName = make(map[string]*Descriptor, len(registry.list))
	for _, d := range registry.list {
		registry.byName[d.Name] = d
	}
}

const (
	in    = Input
	out   = Output
	inout = Input | Output
)

func parseFilesize(key, value string) (uint64, error) {
	n, err := parseInt64(key, value)
	return uint64(n), err
}

func buildTable() []*Descriptor {
	return []*Descriptor{
		// --- Main ---
		field("f", KindString, Offset|inout, parseString, func(c *Context) *string { return &c.Format },
			"force format", "fmt"),
		field("y", KindBool, Run, parseBool, func(c *Context) *bool { return &c.Settings().Overwrite },
			"overwrite output files", ""),
		field("n", KindBool, Run, parseBool, func(c *Context) *bool { return &c.Settings().NoOverwrite },
			"never overwrite output files", ""),
		field("ignore_unknown", KindBool, Run, parseBool, func(c *Context) *bool { return &c.Settings().IgnoreUnknown },
			"Ignore unknown stream types", ""),
		field("copy_unknown", KindBool, Expert|Run, parseBool, func(c *Context) *bool { return &c.Settings().CopyUnknown },
			"Copy unknown stream types", ""),
		list("c", KindString, inout, parseString, func(c *Context) *SpecList[string] { return &c.CodecNames },
			"codec name", "codec"),
		list("codec", KindString, inout, parseString, func(c *Context) *SpecList[string] { return &c.CodecNames },
			"codec name", "codec"),
		list("pre", KindString, Expert|out, parseString, func(c *Context) *SpecList[string] { return &c.Presets },
			"preset name", "preset"),
		fn("map", Expert|PerFile|out, setMap,
			"set input stream mapping", "[-]input_file_id[:stream_specifier][,sync_file_id[:stream_specifier]]"),
		fn("map_channel", Expert|PerFile|out, setMapChannel,
			"map an audio channel from one stream to another", "file.stream.channel[:syncfile.syncstream]"),
		list("map_metadata", KindString, out, parseString, func(c *Context) *SpecList[string] { return &c.MetadataMap },
			"set metadata information of outfile from infile", "outfile[,metadata]:infile[,metadata]"),
		field("map_chapters", KindInt, Expert|Offset|out, parseInt, func(c *Context) *int { return &c.ChaptersInputFile },
			"set chapters mapping", "input_file_index"),
		field("t", KindTime, Offset|inout, parseDuration, func(c *Context) *int64 { return &c.RecordingTime },
			"record or transcode \"duration\" seconds of audio/video", "duration"),
		field("to", KindTime, Offset|inout, parseDuration, func(c *Context) *int64 { return &c.StopTime },
			"record or transcode stop time", "time_stop"),
		field("fs", KindInt64, Offset|out, parseFilesize, func(c *Context) *uint64 { return &c.LimitFilesize },
			"set the limit file size in bytes", "limit_size"),
		field("ss", KindTime, Offset|inout, parseDuration, func(c *Context) *int64 { return &c.StartTime },
			"set the start time offset", "time_off"),
		field("sseof", KindTime, Offset|in, parseDuration, func(c *Context) *int64 { return &c.StartTimeEOF },
			"set the start time offset relative to EOF", "time_off"),
		field("seek_timestamp", KindInt, Offset|in, parseInt, func(c *Context) *int { return &c.SeekTimestamp },
			"enable/disable seeking by timestamp with -ss", ""),
		field("accurate_seek", KindBool, Offset|Expert|in, parseBool, func(c *Context) *bool { return &c.AccurateSeek },
			"enable/disable accurate seeking with -ss", ""),
		field("itsoffset", KindTime, Offset|Expert|in, parseDuration, func(c *Context) *int64 { return &c.InputTSOffset },
			"set the input ts offset", "time_off"),
		list("itsscale", KindDouble, Expert|in, parseDouble, func(c *Context) *SpecList[float64] { return &c.TSScale },
			"set the input ts scale", "scale"),
		fn("timestamp", PerFile|out, setRecordingTimestamp,
			"set the recording timestamp ('now' to set the current time)", "time"),
		list("metadata", KindString, out, parseString, func(c *Context) *SpecList[string] { return &c.Metadata },
			"add metadata", "string=string"),
		list("program", KindString, out, parseString, func(c *Context) *SpecList[string] { return &c.Program },
			"add program with specified streams", "title=string:st=number..."),
		fn("dframes", PerFile|Expert|out, alias("frames:d"),
			"set the number of data frames to output", "number"),
		fn("timelimit", Expert, setTimelimit,
			"set max runtime in seconds in CPU user time", "limit"),
		field("re", KindBool, Expert|Offset|in, parseBool, func(c *Context) *bool { return &c.RateEmu },
			"read input at native frame rate", ""),
		fn("target", PerFile|out, setTarget,
			"specify target file type (\"vcd\", \"svcd\", \"dvd\", \"dv\" or \"dv50\" "+
				"with optional prefixes \"pal-\", \"ntsc-\" or \"film-\")", "type"),
		fn("vsync", Expert, setVSync, "video sync method", ""),
		field("frame_drop_threshold", KindFloat, Expert|Run, parseFloat,
			func(c *Context) *float64 { return &c.Settings().FrameDropThreshold }, "frame drop threshold", ""),
		field("async", KindInt, Expert|Run, parseInt, func(c *Context) *int { return &c.Settings().AudioSyncMethod },
			"audio sync method", ""),
		field("adrift_threshold", KindFloat, Expert|Run, parseFloat,
			func(c *Context) *float64 { return &c.Settings().AudioDriftThreshold }, "audio drift threshold", "threshold"),
		field("copyts", KindBool, Expert|Run, parseBool, func(c *Context) *bool { return &c.Settings().CopyTS },
			"copy timestamps", ""),
		field("start_at_zero", KindBool, Expert|Run, parseBool, func(c *Context) *bool { return &c.Settings().StartAtZero },
			"shift input timestamps to start at 0 when using copyts", ""),
		field("copytb", KindInt, Expert|Run, parseInt, func(c *Context) *int { return &c.Settings().CopyTB },
			"copy input stream time base when stream copying", "mode"),
		field("shortest", KindBool, Expert|Offset|out, parseBool, func(c *Context) *bool { return &c.Shortest },
			"finish encoding within shortest input", ""),
		field("bitexact", KindBool, Expert|Offset|inout, parseBool, func(c *Context) *bool { return &c.Bitexact },
			"bitexact mode", ""),
		list("apad", KindString, out, parseString, func(c *Context) *SpecList[string] { return &c.Apad },
			"audio pad", ""),
		list("copyinkf", KindBool, Expert|out, parseBool, func(c *Context) *SpecList[bool] { return &c.CopyInitialNonkeyframes },
			"copy initial non-keyframes", ""),
		list("copypriorss", KindInt, Expert|out, parseInt, func(c *Context) *SpecList[int] { return &c.CopyPriorStart },
			"copy or discard frames before start time", ""),
		list("frames", KindInt64, out, parseInt64, func(c *Context) *SpecList[int64] { return &c.MaxFrames },
			"set the number of frames to output", "number"),
		list("tag", KindString, Expert|inout, parseString, func(c *Context) *SpecList[string] { return &c.CodecTags },
			"force codec tag/fourcc", "fourcc/tag"),
		list("q", KindDouble, Expert|out, parseDouble, func(c *Context) *SpecList[float64] { return &c.QScale },
			"use fixed quality scale (VBR)", "q"),
		fn("qscale", Expert|PerFile|out, setQScale, "use fixed quality scale (VBR)", "q"),
		list("filter", KindString, out, parseString, func(c *Context) *SpecList[string] { return &c.Filters },
			"set stream filtergraph", "filter_graph"),
		field("filter_threads", KindInt, Run, parseInt, func(c *Context) *int { return &c.Settings().FilterNbThreads },
			"number of non-complex filter threads", ""),
		list("filter_script", KindString, out, parseString, func(c *Context) *SpecList[string] { return &c.FilterScripts },
			"read stream filtergraph description from a file", "filename"),
		list("reinit_filter", KindInt, in, parseInt, func(c *Context) *SpecList[int] { return &c.ReinitFilters },
			"reinit filtergraph on input parameter changes", ""),
		fn("filter_complex", Expert, setFilterComplex, "create a complex filtergraph", "graph_description"),
		field("filter_complex_threads", KindInt, Run, parseInt,
			func(c *Context) *int { return &c.Settings().FilterComplexThreads }, "number of threads for -filter_complex", ""),
		fn("lavfi", Expert, setFilterComplex, "create a complex filtergraph", "graph_description"),
		fn("filter_complex_script", Expert, setFilterComplexScript,
			"read complex filtergraph description from a file", "filename"),
		field("auto_conversion_filters", KindBool, Expert|Run, parseBool,
			func(c *Context) *bool { return &c.Settings().AutoConversionFilters }, "enable automatic conversion filters globally", ""),
		fn("attach", PerFile|Expert|out, setAttach, "add an attachment to the output file", "filename"),
		list("dump_attachment", KindString, Expert|in, parseString, func(c *Context) *SpecList[string] { return &c.DumpAttachment },
			"extract an attachment into a file", "filename"),
		field("stream_loop", KindInt, Expert|in|Offset, parseInt, func(c *Context) *int { return &c.Loop },
			"set number of times input stream shall be looped", "loop count"),
		list("discard", KindString, in, parseString, func(c *Context) *SpecList[string] { return &c.Discard },
			"discard", ""),
		list("disposition", KindString, out, parseString, func(c *Context) *SpecList[string] { return &c.Disposition },
			"disposition", ""),
		field("thread_queue_size", KindInt, Offset|Expert|in, parseInt, func(c *Context) *int { return &c.ThreadQueueSize },
			"set the maximum number of queued packets from the demuxer", ""),
		field("find_stream_info", KindBool, PerFile|in|Expert|Run, parseBool,
			func(c *Context) *bool { return &c.Settings().FindStreamInfo },
			"read and decode the streams to fill missing information with heuristics", ""),

		// --- Run diagnostics ---
		field("benchmark", KindBool, Expert|Run, parseBool, func(c *Context) *bool { return &c.Settings().Benchmark },
			"add timings for benchmarking", ""),
		field("benchmark_all", KindBool, Expert|Run, parseBool, func(c *Context) *bool { return &c.Settings().BenchmarkAll },
			"add timings for each task", ""),
		field("stats", KindBool, Run, parseBool, func(c *Context) *bool { return &c.Settings().Stats },
			"print progress report during encoding", ""),
		field("debug_ts", KindBool, Expert|Run, parseBool, func(c *Context) *bool { return &c.Settings().DebugTS },
			"print timestamp debugging info", ""),
		field("hex", KindBool, Expert|Run, parseBool, func(c *Context) *bool { return &c.Settings().HexDump },
			"when dumping packets, also dump the payload", ""),
		field("dump", KindBool, Expert|Run, parseBool, func(c *Context) *bool { return &c.Settings().PktDump },
			"dump each input packet", ""),
		field("xerror", KindBool, Expert|Run, parseBool, func(c *Context) *bool { return &c.Settings().ExitOnError },
			"exit on error", "error"),
		field("abort_on", KindString, Expert|Run, parseString, func(c *Context) *string { return &c.Settings().AbortOnFlags },
			"abort on the specified condition flags", "flags"),
		field("stdin", KindBool, Expert|Run, parseBool, func(c *Context) *bool { return &c.Settings().StdinInteract },
			"enable or disable interaction on standard input", ""),
		field("max_error_rate", KindFloat, Run, parseFloat, func(c *Context) *float64 { return &c.Settings().MaxErrorRate },
			"ratio of decoding errors above which the run fails", "maximum error rate"),
		field("dts_delta_threshold", KindFloat, Expert|Run, parseFloat,
			func(c *Context) *float64 { return &c.Settings().DTSDeltaThreshold }, "timestamp discontinuity delta threshold", "threshold"),
		field("dts_error_threshold", KindFloat, Expert|Run, parseFloat,
			func(c *Context) *float64 { return &c.Settings().DTSErrorThreshold }, "timestamp error delta threshold", "threshold"),
		field("vstats_file", KindString, Expert|Run, parseString, func(c *Context) *string { return &c.Settings().VStatsFile },
			"dump video coding statistics to file", "file"),

		// --- Video ---
		fn("vframes", Video|PerFile|out, alias("frames:v"), "set the number of video frames to output", "number"),
		list("r", KindString, Video|inout, parseString, func(c *Context) *SpecList[string] { return &c.FrameRates },
			"set frame rate (Hz value, fraction or abbreviation)", "rate"),
		list("fpsmax", KindString, Video|out, parseString, func(c *Context) *SpecList[string] { return &c.MaxFrameRates },
			"set max frame rate (Hz value, fraction or abbreviation)", "rate"),
		list("s", KindString, Video|Subtitle|inout, parseString, func(c *Context) *SpecList[string] { return &c.FrameSizes },
			"set frame size (WxH or abbreviation)", "size"),
		list("aspect", KindString, Video|out, parseString, func(c *Context) *SpecList[string] { return &c.FrameAspectRatios },
			"set aspect ratio (4:3, 16:9 or 1.3333, 1.7777)", "aspect"),
		list("pix_fmt", KindString, Video|Expert|inout, parseString, func(c *Context) *SpecList[string] { return &c.FramePixFmts },
			"set pixel format", "format"),
		field("bits_per_raw_sample", KindInt, Video|Run, parseInt,
			func(c *Context) *int { return &c.Settings().FrameBitsPerRawSample }, "set the number of bits per raw sample", "number"),
		field("intra", KindBool, Video|Expert|Run, parseBool, func(c *Context) *bool { return &c.Settings().IntraOnly },
			"deprecated use -g 1", ""),
		field("vn", KindBool, Video|Offset|inout, parseBool, func(c *Context) *bool { return &c.VideoDisable },
			"disable video", ""),
		list("rc_override", KindString, Video|Expert|out, parseString, func(c *Context) *SpecList[string] { return &c.RCOverrides },
			"rate control override for specific intervals", "override"),
		fn("vcodec", Video|PerFile|inout, alias("codec:v"), "force video codec ('copy' to copy stream)", "codec"),
		fn("timecode", Video|PerFile|out, setTimecode, "set initial TimeCode value.", "hh:mm:ss[:;.]ff"),
		list("pass", KindInt, Video|out, parseInt, func(c *Context) *SpecList[int] { return &c.Pass },
			"select the pass number (1 to 3)", "n"),
		list("passlogfile", KindString, Video|Expert|out, parseString, func(c *Context) *SpecList[string] { return &c.PassLogFiles },
			"select two pass log file name prefix", "prefix"),
		field("psnr", KindBool, Video|Expert|Run, parseBool, func(c *Context) *bool { return &c.Settings().PSNR },
			"calculate PSNR of compressed frames", ""),
		fn("vf", Video|PerFile|out, alias("filter:v"), "set video filters", "filter_graph"),
		list("intra_matrix", KindString, Video|Expert|out, parseString, func(c *Context) *SpecList[string] { return &c.IntraMatrices },
			"specify intra matrix coeffs", "matrix"),
		list("inter_matrix", KindString, Video|Expert|out, parseString, func(c *Context) *SpecList[string] { return &c.InterMatrices },
			"specify inter matrix coeffs", "matrix"),
		list("chroma_intra_matrix", KindString, Video|Expert|out, parseString,
			func(c *Context) *SpecList[string] { return &c.ChromaIntraMatrices }, "specify intra matrix coeffs", "matrix"),
		list("top", KindInt, Video|Expert|inout, parseInt, func(c *Context) *SpecList[int] { return &c.TopFieldFirst },
			"top=1/bottom=0/auto=-1 field first", ""),
		fn("vtag", Video|Expert|PerFile|inout, setOld2New, "force video tag/fourcc", "fourcc/tag"),
		list("force_fps", KindBool, Video|Expert|out, parseBool, func(c *Context) *SpecList[bool] { return &c.ForceFPS },
			"force the selected framerate, disable the best supported framerate selection", ""),
		fn("streamid", Video|Expert|PerFile|out, setStreamID,
			"set the value of an outfile streamid", "streamIndex:value"),
		list("force_key_frames", KindString, Video|Expert|out, parseString,
			func(c *Context) *SpecList[string] { return &c.ForcedKeyFrames }, "force key frames at specified timestamps", "timestamps"),
		fn("ab", Video|PerFile|out, setBitrate, "audio bitrate (please use -b:a)", "bitrate"),
		fn("b", Video|PerFile|out, setBitrate, "video bitrate (please use -b:v)", "bitrate"),
		list("hwaccel", KindString, Video|Expert|in, parseString, func(c *Context) *SpecList[string] { return &c.HWAccels },
			"use HW accelerated decoding", "hwaccel name"),
		list("hwaccel_device", KindString, Video|Expert|in, parseString,
			func(c *Context) *SpecList[string] { return &c.HWAccelDevices }, "select a device for HW acceleration", "devicename"),
		list("hwaccel_output_format", KindString, Video|Expert|in, parseString,
			func(c *Context) *SpecList[string] { return &c.HWAccelOutputFormats },
			"select output format used with HW accelerated decoding", "format"),
		field("videotoolbox_pixfmt", KindString, Expert|Run, parseString,
			func(c *Context) *string { return &c.Settings().VideoToolboxFmt }, "", ""),
		list("autorotate", KindBool, HasArg|Expert|in, parseBool, func(c *Context) *SpecList[bool] { return &c.Autorotate },
			"automatically insert correct rotate filters", ""),
		list("autoscale", KindBool, HasArg|Expert|out, parseBool, func(c *Context) *SpecList[bool] { return &c.Autoscale },
			"automatically insert a scale filter at the end of the filter graph", ""),

		// --- Audio ---
		fn("aframes", Audio|PerFile|out, alias("frames:a"), "set the number of audio frames to output", "number"),
		fn("aq", Audio|PerFile|out, alias("q:a"), "set audio quality (codec-specific)", "quality"),
		list("ar", KindInt, Audio|inout, parseInt, func(c *Context) *SpecList[int] { return &c.AudioSampleRate },
			"set audio sampling rate (in Hz)", "rate"),
		list("ac", KindInt, Audio|inout, parseInt, func(c *Context) *SpecList[int] { return &c.AudioChannels },
			"set number of audio channels", "channels"),
		field("an", KindBool, Audio|Offset|inout, parseBool, func(c *Context) *bool { return &c.AudioDisable },
			"disable audio", ""),
		fn("acodec", Audio|PerFile|inout, alias("codec:a"), "force audio codec ('copy' to copy stream)", "codec"),
		fn("atag", Audio|Expert|PerFile|out, setOld2New, "force audio tag/fourcc", "fourcc/tag"),
		field("vol", KindInt, Audio|Run, parseInt, func(c *Context) *int { return &c.Settings().AudioVolume },
			"change audio volume (256=normal)", "volume"),
		list("sample_fmt", KindString, Audio|Expert|inout, parseString, func(c *Context) *SpecList[string] { return &c.SampleFmts },
			"set sample format", "format"),
		fn("channel_layout", Audio|Expert|PerFile|inout, setChannelLayout, "set channel layout", "layout"),
		fn("af", Audio|PerFile|out, alias("filter:a"), "set audio filters", "filter_graph"),
		list("guess_layout_max", KindInt, Audio|Expert|in, parseInt, func(c *Context) *SpecList[int] { return &c.GuessLayoutMax },
			"set the maximum number of channels to try to guess the channel layout", ""),

		// --- Subtitle ---
		field("sn", KindBool, Subtitle|Offset|inout, parseBool, func(c *Context) *bool { return &c.SubtitleDisable },
			"disable subtitle", ""),
		fn("scodec", Subtitle|PerFile|inout, alias("codec:s"), "force subtitle codec ('copy' to copy stream)", "codec"),
		fn("stag", Subtitle|Expert|PerFile|out, setOld2New, "force subtitle tag/fourcc", "fourcc/tag"),
		list("fix_sub_duration", KindBool, Subtitle|Expert|in, parseBool,
			func(c *Context) *SpecList[bool] { return &c.FixSubDuration }, "fix subtitles duration", ""),
		list("canvas_size", KindString, Subtitle|in, parseString, func(c *Context) *SpecList[string] { return &c.CanvasSizes },
			"set canvas size (WxH or abbreviation)", "size"),

		// --- Grab ---
		fn("vc", Expert|Video, setDeprecatedDevice("channel"), "deprecated, use -channel", "channel"),
		fn("tvstd", Expert|Video, setDeprecatedDevice("standard"), "deprecated, use -standard", "standard"),
		field("isync", KindBool, Expert|Run, parseBool, func(c *Context) *bool { return &c.Settings().InputSync },
			"this option is deprecated and does nothing", ""),

		// --- Muxer ---
		field("muxdelay", KindFloat, Expert|Offset|out, parseFloat, func(c *Context) *float64 { return &c.MuxMaxDelay },
			"set the maximum demux-decode delay", "seconds"),
		field("muxpreload", KindFloat, Expert|Offset|out, parseFloat, func(c *Context) *float64 { return &c.MuxPreload },
			"set the initial demux-decode delay", "seconds"),
		fn("sdp_file", Expert|out, setSDPFile, "specify a file in which to print sdp information", "file"),
		list("time_base", KindString, Expert|out, parseString, func(c *Context) *SpecList[string] { return &c.TimeBases },
			"set the desired time base hint for output stream (1:24, 1:48000 or 0.04166, 2.0833e-5)", "ratio"),
		list("enc_time_base", KindString, Expert|out, parseString, func(c *Context) *SpecList[string] { return &c.EncTimeBases },
			"set the desired time base for the encoder (1:24, 1:48000 or 0.04166, 2.0833e-5). "+
				"two special values are defined - 0 = use frame rate (video) or sample rate (audio),"+
				"-1 = match source time base", "ratio"),
		list("bsf", KindString, Expert|out, parseString, func(c *Context) *SpecList[string] { return &c.BitstreamFilters },
			"A comma-separated list of bitstream filters", "bitstream_filters"),
		fn("absf", Audio|Expert|PerFile|out, setOld2New, "deprecated", "audio bitstream_filters"),
		fn("vbsf", Video|Expert|PerFile|out, setOld2New, "deprecated", "video bitstream_filters"),
		fn("apre", Audio|Expert|PerFile|out, setPreset, "set the audio options to the indicated preset", "preset"),
		fn("vpre", Video|Expert|PerFile|out, setPreset, "set the video options to the indicated preset", "preset"),
		fn("spre", Subtitle|Expert|PerFile|out, setPreset, "set the subtitle options to the indicated preset", "preset"),
		fn("fpre", Expert|PerFile|out, setPreset, "set options from indicated preset file", "filename"),
		list("max_muxing_queue_size", KindInt, Expert|out, parseInt,
			func(c *Context) *SpecList[int] { return &c.MaxMuxingQueueSize },
			"maximum number of packets that can be buffered while waiting for all streams to initialize", "packets"),
		list("muxing_queue_data_threshold", KindInt, Expert|out, parseInt,
			func(c *Context) *SpecList[int] { return &c.MuxingQueueDataThreshold },
			"set the threshold after which max_muxing_queue_size is taken into account", "bytes"),

		// --- Data ---
		fn("dcodec", Data|PerFile|Expert|inout, alias("codec:d"), "force data codec ('copy' to copy stream)", "codec"),
		field("dn", KindBool, Video|Offset|inout, parseBool, func(c *Context) *bool { return &c.DataDisable },
			"disable data", ""),

		// --- Hardware ---
		fn("init_hw_device", Expert, setInitHWDevice, "initialise hardware device", "args"),
		fn("filter_hw_device", Expert, setFilterHWDevice, "set hardware device used when filtering", "device"),
	}
}
