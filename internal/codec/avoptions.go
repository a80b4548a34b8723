package codec

import (
	"strings"

	"github.com/backmassage/muxgraph/internal/media"
	"github.com/backmassage/muxgraph/internal/specifier"
)

// OptionFlags describe where a generic AVOption applies.
type OptionFlags uint

const (
	OptEncoding OptionFlags = 1 << iota
	OptDecoding
	OptVideo
	OptAudio
	OptSubtitle
)

const (
	optEncDec = OptEncoding | OptDecoding
	optAllAV  = OptVideo | OptAudio | OptSubtitle
)

// AVOption is one entry of a generic option catalog.
type AVOption struct {
	Name  string
	Help  string
	Flags OptionFlags
	// IsFlags options accept "+x-y" values that append to the current one.
	IsFlags bool
}

// Has reports whether every bit of want is set.
func (o *AVOption) Has(want OptionFlags) bool { return o.Flags&want == want }

var codecOptions = []AVOption{
	{Name: "b", Help: "set bitrate (in bits/s)", Flags: OptEncoding | OptVideo | OptAudio},
	{Name: "ab", Help: "set bitrate (in bits/s)", Flags: OptEncoding | OptAudio},
	{Name: "bt", Help: "set video bitrate tolerance (in bits/s)", Flags: OptEncoding | OptVideo},
	{Name: "flags", Help: "codec flags", Flags: optEncDec | optAllAV, IsFlags: true},
	{Name: "flags2", Help: "codec flags 2", Flags: optEncDec | optAllAV, IsFlags: true},
	{Name: "export_side_data", Help: "export metadata as side data", Flags: OptDecoding | optAllAV, IsFlags: true},
	{Name: "g", Help: "set the group of picture (GOP) size", Flags: OptEncoding | OptVideo},
	{Name: "ar", Help: "set audio sampling rate (in Hz)", Flags: optEncDec | OptAudio},
	{Name: "ac", Help: "set number of audio channels", Flags: optEncDec | OptAudio},
	{Name: "cutoff", Help: "set cutoff bandwidth", Flags: OptEncoding | OptAudio},
	{Name: "frame_size", Help: "frame size", Flags: OptEncoding | OptAudio},
	{Name: "qcomp", Help: "video quantizer scale compression (VBR)", Flags: OptEncoding | OptVideo},
	{Name: "qblur", Help: "video quantizer scale blur (VBR)", Flags: OptEncoding | OptVideo},
	{Name: "qmin", Help: "minimum video quantizer scale (VBR)", Flags: OptEncoding | OptVideo},
	{Name: "qmax", Help: "maximum video quantizer scale (VBR)", Flags: OptEncoding | OptVideo},
	{Name: "qdiff", Help: "maximum difference between the quantizer scales (VBR)", Flags: OptEncoding | OptVideo},
	{Name: "bf", Help: "set maximum number of B-frames between non-B-frames", Flags: OptEncoding | OptVideo},
	{Name: "b_qfactor", Help: "QP factor between P- and B-frames", Flags: OptEncoding | OptVideo},
	{Name: "maxrate", Help: "maximum bitrate (in bits/s)", Flags: OptEncoding | OptVideo | OptAudio},
	{Name: "minrate", Help: "minimum bitrate (in bits/s)", Flags: OptEncoding | OptVideo | OptAudio},
	{Name: "bufsize", Help: "set ratecontrol buffer size (in bits)", Flags: OptEncoding | OptVideo | OptAudio},
	{Name: "threads", Help: "set the number of threads", Flags: optEncDec | OptVideo | OptAudio},
	{Name: "thread_type", Help: "select multithreading type", Flags: optEncDec | OptVideo, IsFlags: true},
	{Name: "level", Help: "encoding level", Flags: OptEncoding | OptVideo | OptAudio},
	{Name: "profile", Help: "set profile", Flags: OptEncoding | OptVideo | OptAudio},
	{Name: "strict", Help: "how strictly to follow the standards", Flags: optEncDec | OptVideo | OptAudio},
	{Name: "err_detect", Help: "set error detection flags", Flags: OptDecoding | OptVideo | OptAudio, IsFlags: true},
	{Name: "debug", Help: "print specific debug info", Flags: optEncDec | optAllAV, IsFlags: true},
	{Name: "idct", Help: "select IDCT implementation", Flags: optEncDec | OptVideo},
	{Name: "dct", Help: "DCT algorithm", Flags: OptEncoding | OptVideo},
	{Name: "ec", Help: "set error concealment strategy", Flags: OptDecoding | OptVideo, IsFlags: true},
	{Name: "lowres", Help: "decode at 1= 1/2, 2=1/4, 3=1/8 resolutions", Flags: OptDecoding | OptVideo | OptAudio},
	{Name: "skip_frame", Help: "skip decoding for the selected frames", Flags: OptDecoding | OptVideo},
	{Name: "skip_loop_filter", Help: "skip loop filtering process for the selected frames", Flags: OptDecoding | OptVideo},
	{Name: "skip_idct", Help: "skip IDCT/dequantization for the selected frames", Flags: OptDecoding | OptVideo},
	{Name: "refs", Help: "reference frames to consider for motion compensation", Flags: OptEncoding | OptVideo},
	{Name: "sc_threshold", Help: "scene change threshold", Flags: OptEncoding | OptVideo},
	{Name: "trellis", Help: "rate-distortion optimal quantization", Flags: OptEncoding | OptVideo | OptAudio},
	{Name: "keyint_min", Help: "minimum interval between IDR-frames", Flags: OptEncoding | OptVideo},
	{Name: "channel_layout", Help: "channel layout", Flags: optEncDec | OptAudio},
	{Name: "request_channel_layout", Help: "request channel layout", Flags: OptDecoding | OptAudio},
	{Name: "request_sample_fmt", Help: "sample format audio decoders should prefer", Flags: OptDecoding | OptAudio},
	{Name: "time_base", Help: "codec time base", Flags: optEncDec | optAllAV},
	{Name: "aspect", Help: "sample aspect ratio", Flags: OptEncoding | OptVideo},
	{Name: "sar", Help: "sample aspect ratio", Flags: OptEncoding | OptVideo},
	{Name: "global_quality", Help: "global quality", Flags: OptEncoding | OptVideo | OptAudio},
	{Name: "color_primaries", Help: "color primaries", Flags: optEncDec | OptVideo},
	{Name: "color_trc", Help: "color transfer characteristics", Flags: optEncDec | OptVideo},
	{Name: "colorspace", Help: "color space", Flags: optEncDec | OptVideo},
	{Name: "color_range", Help: "color range", Flags: optEncDec | OptVideo},
	{Name: "chroma_sample_location", Help: "chroma sample location", Flags: optEncDec | OptVideo},
	{Name: "field_order", Help: "field order", Flags: optEncDec | OptVideo},
	{Name: "sub_charenc", Help: "set input text subtitles character encoding", Flags: OptDecoding | OptSubtitle},
	{Name: "sub_charenc_mode", Help: "set input text subtitles character encoding mode", Flags: OptDecoding | OptSubtitle, IsFlags: true},
	{Name: "sub_text_format", Help: "set decoded text subtitle format", Flags: OptDecoding | OptSubtitle},
	{Name: "canvas_size", Help: "set canvas size", Flags: OptDecoding | OptSubtitle},
	{Name: "apply_cropping", Help: "apply cropping from frame header", Flags: OptDecoding | OptVideo},
	{Name: "max_pixels", Help: "maximum number of pixels", Flags: optEncDec | OptVideo},
	{Name: "rc_init_occupancy", Help: "number of bits to load into the rc buffer before decoding starts", Flags: OptEncoding | OptVideo},
	{Name: "mbd", Help: "macroblock decision algorithm (high quality mode)", Flags: OptEncoding | OptVideo},
	{Name: "cmp", Help: "full-pel ME compare function", Flags: OptEncoding | OptVideo},
	{Name: "me_range", Help: "limit motion vectors range", Flags: OptEncoding | OptVideo},
	{Name: "compression_level", Help: "compression level", Flags: OptEncoding | OptVideo | OptAudio},
	{Name: "audio_service_type", Help: "audio service type", Flags: OptEncoding | OptAudio},
	{Name: "slices", Help: "set the number of slices", Flags: OptEncoding | OptVideo},
	{Name: "ticks_per_frame", Flags: optEncDec | optAllAV},
	{Name: "bits_per_raw_sample", Flags: optEncDec | OptVideo},
	{Name: "pixel_format", Help: "set pixel format", Flags: optEncDec | OptVideo},
	{Name: "video_size", Help: "set video size", Flags: optEncDec | OptVideo},
	{Name: "max_samples", Help: "maximum number of samples", Flags: optEncDec | OptAudio},
	{Name: "hwaccel_flags", Flags: OptDecoding | OptVideo, IsFlags: true},
	{Name: "extra_hw_frames", Help: "number of extra hardware frames to allocate for the user", Flags: OptDecoding | OptVideo},
	{Name: "discard_damaged_percentage", Flags: OptDecoding | OptVideo},
}

var formatOptions = []AVOption{
	{Name: "avioflags", Flags: optEncDec, IsFlags: true},
	{Name: "probesize", Help: "set probing size", Flags: OptDecoding},
	{Name: "formatprobesize", Help: "number of bytes to probe file format", Flags: OptDecoding},
	{Name: "packetsize", Help: "set packet size", Flags: OptEncoding},
	{Name: "fflags", Flags: optEncDec, IsFlags: true},
	{Name: "seek2any", Help: "allow seeking to non-keyframes on demuxer level when supported", Flags: OptDecoding},
	{Name: "analyzeduration", Help: "specify how many microseconds are analyzed to probe the input", Flags: OptDecoding},
	{Name: "cryptokey", Help: "decryption key", Flags: OptDecoding},
	{Name: "indexmem", Help: "max memory used for timestamp index (per stream)", Flags: OptDecoding},
	{Name: "rtbufsize", Help: "max memory used for buffering real-time frames", Flags: OptDecoding},
	{Name: "fdebug", Help: "print specific debug info", Flags: optEncDec, IsFlags: true},
	{Name: "max_delay", Help: "maximum muxing or demuxing delay in microseconds", Flags: optEncDec},
	{Name: "start_time_realtime", Help: "wall-clock time when stream begins (PTS==0)", Flags: OptEncoding},
	{Name: "fpsprobesize", Help: "number of frames used to probe fps", Flags: OptDecoding},
	{Name: "audio_preload", Help: "microseconds by which audio packets should be interleaved earlier", Flags: OptEncoding},
	{Name: "chunk_duration", Help: "microseconds for each chunk", Flags: OptEncoding},
	{Name: "chunk_size", Help: "size in bytes for each chunk", Flags: OptEncoding},
	{Name: "f_err_detect", Help: "set error detection flags (deprecated; use err_detect, save via avconv)", Flags: OptDecoding, IsFlags: true},
	{Name: "use_wallclock_as_timestamps", Help: "use wallclock as timestamps", Flags: OptDecoding},
	{Name: "skip_initial_bytes", Help: "set number of bytes to skip before reading header and frames", Flags: OptDecoding},
	{Name: "correct_ts_overflow", Help: "correct single timestamp overflows", Flags: OptDecoding},
	{Name: "flush_packets", Help: "enable flushing of the I/O context after each packet", Flags: OptEncoding},
	{Name: "metadata_header_padding", Help: "set number of bytes to be written as padding in a metadata header", Flags: OptEncoding},
	{Name: "output_ts_offset", Help: "set output timestamp offset", Flags: OptEncoding},
	{Name: "max_interleave_delta", Help: "maximum buffering duration for interleaving", Flags: OptEncoding},
	{Name: "f_strict", Help: "how strictly to follow the standards (deprecated; use strict, save via avconv)", Flags: optEncDec},
	{Name: "strict", Help: "how strictly to follow the standards", Flags: optEncDec},
	{Name: "max_ts_probe", Help: "maximum number of packets to read while waiting for the first timestamp", Flags: OptDecoding},
	{Name: "avoid_negative_ts", Help: "shift timestamps so they start at 0", Flags: OptEncoding},
	{Name: "dump_separator", Help: "set information dump field separator", Flags: optEncDec},
	{Name: "codec_whitelist", Help: "List of decoders that are allowed to be used", Flags: OptDecoding},
	{Name: "format_whitelist", Help: "List of demuxers that are allowed to be used", Flags: OptDecoding},
	{Name: "protocol_whitelist", Help: "List of protocols that are allowed to be used", Flags: OptDecoding},
	{Name: "protocol_blacklist", Help: "List of protocols that are not allowed to be used", Flags: OptDecoding},
	{Name: "max_streams", Help: "maximum number of streams", Flags: OptDecoding},
	{Name: "skip_estimate_duration_from_pts", Help: "skip duration calculation in estimate_timings_from_pts", Flags: OptDecoding},
	{Name: "max_probe_packets", Help: "Maximum number of packets to probe a codec", Flags: OptDecoding},
	{Name: "timeout", Help: "set timeout of socket I/O operations", Flags: optEncDec},
	{Name: "rw_timeout", Help: "Timeout for IO operations (in microseconds)", Flags: optEncDec},
	{Name: "user_agent", Help: "override User-Agent header", Flags: OptDecoding},
	{Name: "headers", Help: "set custom HTTP headers", Flags: optEncDec},
	{Name: "reconnect", Help: "auto reconnect after disconnect before EOF", Flags: OptDecoding},
	{Name: "reconnect_streamed", Help: "auto reconnect streamed / non seekable streams", Flags: OptDecoding},
	{Name: "reconnect_delay_max", Help: "max reconnect delay in seconds after which to give up", Flags: OptDecoding},
	{Name: "framerate", Help: "set the video framerate", Flags: OptDecoding},
	{Name: "video_size", Help: "set video size", Flags: OptDecoding},
	{Name: "pixel_format", Help: "set pixel format", Flags: OptDecoding},
	{Name: "sample_rate", Help: "set sample rate", Flags: OptDecoding},
	{Name: "channels", Help: "set number of channels", Flags: OptDecoding},
}

// Scaler and resampler options are routed to their own dictionaries.
var (
	swsOptions = []AVOption{
		{Name: "sws_flags", Help: "scaler flags", Flags: OptVideo, IsFlags: true},
		{Name: "sws_dither", Help: "set dithering algorithm", Flags: OptVideo},
		{Name: "src_range", Help: "source is full range", Flags: OptVideo},
		{Name: "dst_range", Help: "destination is full range", Flags: OptVideo},
		{Name: "param0", Help: "scaler param 0", Flags: OptVideo},
		{Name: "param1", Help: "scaler param 1", Flags: OptVideo},
	}
	swrOptions = []AVOption{
		{Name: "dither_method", Help: "set dither method", Flags: OptAudio},
		{Name: "resampler", Help: "set resampling engine", Flags: OptAudio},
		{Name: "filter_size", Help: "set swr resampling filter size", Flags: OptAudio},
		{Name: "phase_shift", Help: "set swr resampling phase shift", Flags: OptAudio},
		{Name: "cutoff_freq", Help: "set cutoff frequency ratio", Flags: OptAudio},
		{Name: "precision", Help: "set soxr resampling precision (in bits)", Flags: OptAudio},
		{Name: "async", Help: "simplified 1 parameter audio timestamp matching", Flags: OptAudio},
		{Name: "output_sample_bits", Help: "set swr number of output sample bits", Flags: OptAudio},
		{Name: "matrix_encoding", Help: "set matrixed stereo encoding", Flags: OptAudio},
		{Name: "center_mix_level", Help: "set center mix level", Flags: OptAudio},
		{Name: "surround_mix_level", Help: "set surround mix Level", Flags: OptAudio},
		{Name: "lfe_mix_level", Help: "set LFE mix level", Flags: OptAudio},
	}
)

// child option indexes, built once from the codec and format tables
var (
	codecChildren  = map[string]*AVOption{}
	formatChildren = map[string]*AVOption{}
)

func init() {
	for i := range codecs {
		c := &codecs[i]
		dir := OptDecoding
		if c.Encoder {
			dir = OptEncoding
		}
		for _, name := range c.Private {
			addChild(codecChildren, name, dir|mediaFlag(c.Type))
		}
	}
	for i := range formats {
		f := &formats[i]
		var dir OptionFlags
		if f.Muxer {
			dir |= OptEncoding
		}
		if f.Demuxer {
			dir |= OptDecoding
		}
		for _, name := range f.Private {
			addChild(formatChildren, name, dir)
		}
	}
}

func addChild(m map[string]*AVOption, name string, flags OptionFlags) {
	if o, ok := m[name]; ok {
		o.Flags |= flags
		return
	}
	m[name] = &AVOption{Name: name, Flags: flags, IsFlags: strings.HasSuffix(name, "flags")}
}

func mediaFlag(t media.Type) OptionFlags {
	switch t {
	case media.Video:
		return OptVideo
	case media.Audio:
		return OptAudio
	case media.Subtitle:
		return OptSubtitle
	}
	return 0
}

func lookup(list []AVOption, name string) *AVOption {
	for i := range list {
		if list[i].Name == name {
			return &list[i]
		}
	}
	return nil
}

// FindCodecOption looks name up in the generic codec catalog and, when
// children is set, in the private options of every codec.
func FindCodecOption(name string, children bool) *AVOption {
	if o := lookup(codecOptions, name); o != nil {
		return o
	}
	if children {
		return codecChildren[name]
	}
	return nil
}

// FindFormatOption looks name up in the generic format catalog and, when
// children is set, in the private options of every format.
func FindFormatOption(name string, children bool) *AVOption {
	if o := lookup(formatOptions, name); o != nil {
		return o
	}
	if children {
		return formatChildren[name]
	}
	return nil
}

// FindScalerOption looks name up in the scaler catalog.
func FindScalerOption(name string) *AVOption { return lookup(swsOptions, name) }

// FindResamplerOption looks name up in the resampler catalog.
func FindResamplerOption(name string) *AVOption { return lookup(swrOptions, name) }

// CodecOptions returns the generic codec catalog.
func CodecOptions() []AVOption {
	out := make([]AVOption, len(codecOptions))
	copy(out, codecOptions)
	return out
}

// FilterCodecOptions selects the entries of opts that apply to st when it is
// decoded (or encoded) with cd. A key of the form "name:spec" applies only
// when spec matches st; the returned keys have the specifier stripped.
// A nil cd resolves the default implementation for id; when that also
// fails every key is kept.
func FilterCodecOptions(opts *media.Dict, id string, c *media.Container, st *media.Stream, cd *Codec, encoder bool) (*media.Dict, error) {
	out := media.NewDict()
	want := OptDecoding
	if encoder {
		want = OptEncoding
	}
	if cd == nil {
		if encoder {
			cd = FindEncoder(id)
		} else {
			cd = FindDecoder(id)
		}
	}
	var prefix byte
	switch st.Type {
	case media.Video:
		prefix = 'v'
		want |= OptVideo
	case media.Audio:
		prefix = 'a'
		want |= OptAudio
	case media.Subtitle:
		prefix = 's'
		want |= OptSubtitle
	}

	for _, e := range opts.Entries() {
		key := e.Key
		if name, spec, ok := strings.Cut(key, ":"); ok {
			m, err := specifier.Match(c, st, spec)
			if err != nil {
				return nil, err
			}
			if !m {
				continue
			}
			key = name
		}
		o := lookup(codecOptions, key)
		switch {
		case (o != nil && o.Has(want)) || cd == nil || cd.HasPrivate(key):
			out.Set(key, e.Value, 0)
		case prefix != 0 && key[0] == prefix:
			if o := lookup(codecOptions, key[1:]); o != nil && o.Has(want) {
				out.Set(key[1:], e.Value, 0)
			}
		}
	}
	return out, nil
}

// ConsumeFormatOptions removes from opts every entry that f (muxing or
// demuxing) recognizes. Whatever is left was not used.
func ConsumeFormatOptions(opts *media.Dict, f *Format, muxing bool) {
	dir := OptDecoding
	if muxing {
		dir = OptEncoding
	}
	for _, e := range opts.Entries() {
		if o := lookup(formatOptions, e.Key); o != nil && o.Has(dir) {
			opts.Delete(e.Key)
			continue
		}
		if f != nil && f.HasPrivate(e.Key) {
			opts.Delete(e.Key)
		}
	}
}
