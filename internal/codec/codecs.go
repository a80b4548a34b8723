package codec

import "github.com/backmassage/muxgraph/internal/media"

// Props are codec descriptor properties.
type Props uint

const (
	PropTextSub Props = 1 << iota
	PropBitmapSub
	PropLossless
)

// Descriptor identifies a codec independent of its implementations.
type Descriptor struct {
	Name     string
	Type     media.Type
	Props    Props
	LongName string
	// BitsPerSample is the exact sample size for PCM-like codecs, else 0.
	BitsPerSample int
}

// Codec is one encoder or decoder implementation of a descriptor.
type Codec struct {
	Name    string
	ID      string
	Type    media.Type
	Encoder bool
	// PixFmts, SampleFmts, SampleRates and ChannelLayouts list what the
	// encoder accepts; nil means unconstrained.
	PixFmts        []string
	SampleFmts     []string
	SampleRates    []int
	ChannelLayouts []uint64
	// Private lists codec-private option names.
	Private []string
}

// HasPrivate reports whether name is a private option of c.
func (c *Codec) HasPrivate(name string) bool {
	for _, p := range c.Private {
		if p == name {
			return true
		}
	}
	return false
}

var descriptors = []Descriptor{
	// video
	{Name: "h264", Type: media.Video, LongName: "H.264 / AVC / MPEG-4 AVC / MPEG-4 part 10"},
	{Name: "hevc", Type: media.Video, LongName: "H.265 / HEVC (High Efficiency Video Coding)"},
	{Name: "av1", Type: media.Video, LongName: "Alliance for Open Media AV1"},
	{Name: "vp8", Type: media.Video, LongName: "On2 VP8"},
	{Name: "vp9", Type: media.Video, LongName: "Google VP9"},
	{Name: "mpeg1video", Type: media.Video, LongName: "MPEG-1 video"},
	{Name: "mpeg2video", Type: media.Video, LongName: "MPEG-2 video"},
	{Name: "mpeg4", Type: media.Video, LongName: "MPEG-4 part 2"},
	{Name: "theora", Type: media.Video, LongName: "Theora"},
	{Name: "mjpeg", Type: media.Video, LongName: "Motion JPEG"},
	{Name: "png", Type: media.Video, Props: PropLossless, LongName: "PNG (Portable Network Graphics) image"},
	{Name: "bmp", Type: media.Video, Props: PropLossless, LongName: "BMP (Windows and OS/2 bitmap)"},
	{Name: "tiff", Type: media.Video, Props: PropLossless, LongName: "TIFF image"},
	{Name: "gif", Type: media.Video, Props: PropLossless, LongName: "GIF (Graphics Interchange Format)"},
	{Name: "prores", Type: media.Video, LongName: "Apple ProRes"},
	{Name: "dvvideo", Type: media.Video, LongName: "DV (Digital Video)"},
	{Name: "ffv1", Type: media.Video, Props: PropLossless, LongName: "FFmpeg video codec #1"},
	{Name: "rawvideo", Type: media.Video, Props: PropLossless, LongName: "raw video"},
	{Name: "wrapped_avframe", Type: media.Video, LongName: "AVFrame to AVPacket passthrough"},
	// audio
	{Name: "aac", Type: media.Audio, LongName: "AAC (Advanced Audio Coding)"},
	{Name: "ac3", Type: media.Audio, LongName: "ATSC A/52A (AC-3)"},
	{Name: "eac3", Type: media.Audio, LongName: "ATSC A/52B (AC-3, E-AC-3)"},
	{Name: "dts", Type: media.Audio, LongName: "DCA (DTS Coherent Acoustics)"},
	{Name: "truehd", Type: media.Audio, Props: PropLossless, LongName: "TrueHD"},
	{Name: "mp2", Type: media.Audio, LongName: "MP2 (MPEG audio layer 2)"},
	{Name: "mp3", Type: media.Audio, LongName: "MP3 (MPEG audio layer 3)"},
	{Name: "flac", Type: media.Audio, Props: PropLossless, LongName: "FLAC (Free Lossless Audio Codec)"},
	{Name: "alac", Type: media.Audio, Props: PropLossless, LongName: "ALAC (Apple Lossless Audio Codec)"},
	{Name: "opus", Type: media.Audio, LongName: "Opus (Opus Interactive Audio Codec)"},
	{Name: "vorbis", Type: media.Audio, LongName: "Vorbis"},
	{Name: "pcm_s16le", Type: media.Audio, Props: PropLossless, LongName: "PCM signed 16-bit little-endian", BitsPerSample: 16},
	{Name: "pcm_s16be", Type: media.Audio, Props: PropLossless, LongName: "PCM signed 16-bit big-endian", BitsPerSample: 16},
	{Name: "pcm_s24le", Type: media.Audio, Props: PropLossless, LongName: "PCM signed 24-bit little-endian", BitsPerSample: 24},
	{Name: "pcm_s32le", Type: media.Audio, Props: PropLossless, LongName: "PCM signed 32-bit little-endian", BitsPerSample: 32},
	{Name: "pcm_f32le", Type: media.Audio, Props: PropLossless, LongName: "PCM 32-bit floating point little-endian", BitsPerSample: 32},
	{Name: "pcm_u8", Type: media.Audio, Props: PropLossless, LongName: "PCM unsigned 8-bit", BitsPerSample: 8},
	// subtitles
	{Name: "subrip", Type: media.Subtitle, Props: PropTextSub, LongName: "SubRip subtitle"},
	{Name: "ass", Type: media.Subtitle, Props: PropTextSub, LongName: "ASS (Advanced SSA) subtitle"},
	{Name: "ssa", Type: media.Subtitle, Props: PropTextSub, LongName: "SSA (SubStation Alpha) subtitle"},
	{Name: "webvtt", Type: media.Subtitle, Props: PropTextSub, LongName: "WebVTT subtitle"},
	{Name: "mov_text", Type: media.Subtitle, Props: PropTextSub, LongName: "MOV text"},
	{Name: "text", Type: media.Subtitle, Props: PropTextSub, LongName: "raw UTF-8 text"},
	{Name: "dvd_subtitle", Type: media.Subtitle, Props: PropBitmapSub, LongName: "DVD subtitles"},
	{Name: "dvb_subtitle", Type: media.Subtitle, Props: PropBitmapSub, LongName: "DVB subtitles"},
	{Name: "hdmv_pgs_subtitle", Type: media.Subtitle, Props: PropBitmapSub, LongName: "HDMV Presentation Graphic Stream subtitles"},
	{Name: "xsub", Type: media.Subtitle, Props: PropBitmapSub, LongName: "XSUB"},
	{Name: "dvb_teletext", Type: media.Subtitle, LongName: "DVB teletext"},
	{Name: "eia_608", Type: media.Subtitle, Props: PropTextSub, LongName: "EIA-608 closed captions"},
	// data
	{Name: "bin_data", Type: media.Data, LongName: "binary data"},
	{Name: "timed_id3", Type: media.Data, LongName: "timed ID3 metadata"},
	{Name: "scte_35", Type: media.Data, LongName: "SCTE 35 Message Queue"},
	{Name: "klv", Type: media.Data, LongName: "SMPTE 336M Key-Length-Value (KLV) metadata"},
	// attachments
	{Name: "ttf", Type: media.Attachment, LongName: "TrueType font"},
	{Name: "otf", Type: media.Attachment, LongName: "OpenType font"},
	{Name: "text_attachment", Type: media.Attachment, LongName: "text attachment"},
}

var (
	yuv420   = []string{"yuv420p"}
	x264Pix  = []string{"yuv420p", "yuvj420p", "yuv422p", "yuvj422p", "yuv444p", "yuvj444p", "nv12", "nv16", "nv21", "yuv420p10le", "yuv422p10le", "yuv444p10le", "nv20le", "gray", "gray10le"}
	x265Pix  = []string{"yuv420p", "yuvj420p", "yuv422p", "yuvj422p", "yuv444p", "yuvj444p", "gbrp", "yuv420p10le", "yuv422p10le", "yuv444p10le", "gbrp10le", "yuv420p12le", "yuv422p12le", "yuv444p12le", "gbrp12le", "gray", "gray10le", "gray12le"}
	fltp     = []string{"fltp"}
	s16p     = []string{"s16p"}
	s16      = []string{"s16"}
	rates44  = []int{96000, 88200, 64000, 48000, 44100, 32000, 24000, 22050, 16000, 12000, 11025, 8000, 7350}
	rates48  = []int{48000, 44100, 32000}
	opusRate = []int{48000, 24000, 16000, 12000, 8000}
)

// codecs lists implementations in registration order: the first encoder
// (or decoder) registered for an ID is the default for that ID.
var codecs = []Codec{
	// video encoders
	{Name: "libx264", ID: "h264", Type: media.Video, Encoder: true, PixFmts: x264Pix,
		Private: []string{"preset", "tune", "profile", "crf", "crf_max", "qp", "x264-params", "x264opts", "stats", "level", "aq-mode", "b-pyramid", "forced-idr", "nal-hrd", "a53cc"}},
	{Name: "libx265", ID: "hevc", Type: media.Video, Encoder: true, PixFmts: x265Pix,
		Private: []string{"preset", "tune", "profile", "crf", "qp", "x265-params", "forced-idr"}},
	{Name: "libsvtav1", ID: "av1", Type: media.Video, Encoder: true, PixFmts: []string{"yuv420p", "yuv420p10le"},
		Private: []string{"preset", "crf", "qp", "svtav1-params"}},
	{Name: "libaom-av1", ID: "av1", Type: media.Video, Encoder: true, PixFmts: []string{"yuv420p", "yuv422p", "yuv444p", "yuv420p10le"},
		Private: []string{"cpu-used", "crf", "row-mt", "tiles", "aom-params"}},
	{Name: "libvpx", ID: "vp8", Type: media.Video, Encoder: true, PixFmts: []string{"yuv420p", "yuva420p"},
		Private: []string{"deadline", "cpu-used", "crf", "auto-alt-ref", "lag-in-frames"}},
	{Name: "libvpx-vp9", ID: "vp9", Type: media.Video, Encoder: true, PixFmts: []string{"yuv420p", "yuva420p", "yuv422p", "yuv440p", "yuv444p", "yuv420p10le"},
		Private: []string{"deadline", "cpu-used", "crf", "row-mt", "tile-columns", "lossless"}},
	{Name: "mpeg1video", ID: "mpeg1video", Type: media.Video, Encoder: true, PixFmts: yuv420,
		Private: []string{"gop_timecode", "drop_frame_timecode", "scan_offset"}},
	{Name: "mpeg2video", ID: "mpeg2video", Type: media.Video, Encoder: true, PixFmts: []string{"yuv420p", "yuv422p"},
		Private: []string{"gop_timecode", "drop_frame_timecode", "scan_offset", "intra_vlc", "non_linear_quant", "alternate_scan", "seq_disp_ext"}},
	{Name: "mpeg4", ID: "mpeg4", Type: media.Video, Encoder: true, PixFmts: yuv420,
		Private: []string{"data_partitioning", "alternate_scan", "mpeg_quant"}},
	{Name: "libtheora", ID: "theora", Type: media.Video, Encoder: true, PixFmts: []string{"yuv420p", "yuv422p", "yuv444p"}},
	{Name: "mjpeg", ID: "mjpeg", Type: media.Video, Encoder: true, PixFmts: []string{"yuvj420p", "yuvj422p", "yuvj444p"},
		Private: []string{"huffman", "force_duplicated_matrix"}},
	{Name: "png", ID: "png", Type: media.Video, Encoder: true, PixFmts: []string{"rgb24", "rgba", "rgb48be", "rgba64be", "pal8", "gray", "gray8a", "gray16be", "ya16be", "monob"},
		Private: []string{"dpi", "dpm", "pred"}},
	{Name: "bmp", ID: "bmp", Type: media.Video, Encoder: true, PixFmts: []string{"bgra", "bgr24", "rgb565le", "rgb555le", "rgb444le", "rgb8", "bgr8", "rgb4_byte", "bgr4_byte", "gray", "pal8", "monob"}},
	{Name: "tiff", ID: "tiff", Type: media.Video, Encoder: true, Private: []string{"dpi", "compression_algo"}},
	{Name: "gif", ID: "gif", Type: media.Video, Encoder: true, PixFmts: []string{"rgb8", "bgr8", "rgb4_byte", "bgr4_byte", "gray", "pal8"}},
	{Name: "prores_ks", ID: "prores", Type: media.Video, Encoder: true, PixFmts: []string{"yuv422p10le", "yuv444p10le", "yuva444p10le"},
		Private: []string{"profile", "vendor", "bits_per_mb", "quant_mat", "alpha_bits"}},
	{Name: "dvvideo", ID: "dvvideo", Type: media.Video, Encoder: true, PixFmts: []string{"yuv411p", "yuv422p", "yuv420p"}},
	{Name: "ffv1", ID: "ffv1", Type: media.Video, Encoder: true, Private: []string{"slicecrc", "coder", "context"}},
	{Name: "rawvideo", ID: "rawvideo", Type: media.Video, Encoder: true},
	{Name: "wrapped_avframe", ID: "wrapped_avframe", Type: media.Video, Encoder: true},

	// audio encoders
	{Name: "aac", ID: "aac", Type: media.Audio, Encoder: true, SampleFmts: fltp, SampleRates: rates44,
		Private: []string{"aac_coder", "aac_ms", "aac_is", "aac_pns", "aac_tns", "aac_ltp", "aac_pred"}},
	{Name: "libfdk_aac", ID: "aac", Type: media.Audio, Encoder: true, SampleFmts: s16, SampleRates: rates44,
		Private: []string{"afterburner", "eld_sbr", "signaling", "latm", "vbr"}},
	{Name: "ac3", ID: "ac3", Type: media.Audio, Encoder: true, SampleFmts: fltp, SampleRates: rates48,
		ChannelLayouts: []uint64{0x4, 0x3, 0x7, 0x103, 0x107, 0x33, 0x37, 0x3F, 0x60F, 0x607},
		Private: []string{"mixing_level", "room_type", "dialnorm", "center_mixlev", "surround_mixlev"}},
	{Name: "eac3", ID: "eac3", Type: media.Audio, Encoder: true, SampleFmts: fltp, SampleRates: rates48,
		Private: []string{"mixing_level", "room_type", "dialnorm"}},
	{Name: "mp2", ID: "mp2", Type: media.Audio, Encoder: true, SampleFmts: s16,
		SampleRates: []int{44100, 48000, 32000, 22050, 24000, 16000}, ChannelLayouts: []uint64{0x4, 0x3}},
	{Name: "libmp3lame", ID: "mp3", Type: media.Audio, Encoder: true, SampleFmts: []string{"s32p", "fltp", "s16p"},
		SampleRates: []int{44100, 48000, 32000, 22050, 24000, 16000, 11025, 12000, 8000}, ChannelLayouts: []uint64{0x4, 0x3},
		Private: []string{"reservoir", "joint_stereo", "abr"}},
	{Name: "flac", ID: "flac", Type: media.Audio, Encoder: true, SampleFmts: []string{"s16", "s32"},
		Private: []string{"lpc_coeff_precision", "lpc_type", "exact_rice_parameters", "multi_dim_quant"}},
	{Name: "alac", ID: "alac", Type: media.Audio, Encoder: true, SampleFmts: []string{"s32p", "s16p"}},
	{Name: "libopus", ID: "opus", Type: media.Audio, Encoder: true, SampleFmts: []string{"s16", "flt"}, SampleRates: opusRate,
		Private: []string{"application", "frame_duration", "packet_loss", "vbr", "mapping_family"}},
	{Name: "libvorbis", ID: "vorbis", Type: media.Audio, Encoder: true, SampleFmts: fltp, Private: []string{"iblock"}},
	{Name: "pcm_s16le", ID: "pcm_s16le", Type: media.Audio, Encoder: true, SampleFmts: s16},
	{Name: "pcm_s16be", ID: "pcm_s16be", Type: media.Audio, Encoder: true, SampleFmts: s16},
	{Name: "pcm_s24le", ID: "pcm_s24le", Type: media.Audio, Encoder: true, SampleFmts: []string{"s32"}},
	{Name: "pcm_s32le", ID: "pcm_s32le", Type: media.Audio, Encoder: true, SampleFmts: []string{"s32"}},
	{Name: "pcm_f32le", ID: "pcm_f32le", Type: media.Audio, Encoder: true, SampleFmts: []string{"flt"}},
	{Name: "pcm_u8", ID: "pcm_u8", Type: media.Audio, Encoder: true, SampleFmts: []string{"u8"}},

	// subtitle encoders
	{Name: "srt", ID: "subrip", Type: media.Subtitle, Encoder: true},
	{Name: "subrip", ID: "subrip", Type: media.Subtitle, Encoder: true},
	{Name: "ass", ID: "ass", Type: media.Subtitle, Encoder: true},
	{Name: "ssa", ID: "ass", Type: media.Subtitle, Encoder: true},
	{Name: "webvtt", ID: "webvtt", Type: media.Subtitle, Encoder: true},
	{Name: "mov_text", ID: "mov_text", Type: media.Subtitle, Encoder: true, Private: []string{"height"}},
	{Name: "text", ID: "text", Type: media.Subtitle, Encoder: true},
	{Name: "dvdsub", ID: "dvd_subtitle", Type: media.Subtitle, Encoder: true, Private: []string{"palette", "even_rows_fix"}},
	{Name: "dvbsub", ID: "dvb_subtitle", Type: media.Subtitle, Encoder: true},
	{Name: "xsub", ID: "xsub", Type: media.Subtitle, Encoder: true},

	// video decoders
	{Name: "h264", ID: "h264", Type: media.Video, Private: []string{"is_avc", "nal_length_size", "enable_er", "x264_build"}},
	{Name: "hevc", ID: "hevc", Type: media.Video, Private: []string{"apply_defdispwin", "strict-displaywin"}},
	{Name: "libdav1d", ID: "av1", Type: media.Video, Private: []string{"tilethreads", "framethreads", "filmgrain", "oppoint", "alllayers"}},
	{Name: "libaom-av1", ID: "av1", Type: media.Video},
	{Name: "av1", ID: "av1", Type: media.Video},
	{Name: "vp8", ID: "vp8", Type: media.Video},
	{Name: "vp9", ID: "vp9", Type: media.Video},
	{Name: "libvpx-vp9", ID: "vp9", Type: media.Video},
	{Name: "mpeg1video", ID: "mpeg1video", Type: media.Video},
	{Name: "mpeg2video", ID: "mpeg2video", Type: media.Video},
	{Name: "mpeg4", ID: "mpeg4", Type: media.Video},
	{Name: "theora", ID: "theora", Type: media.Video},
	{Name: "mjpeg", ID: "mjpeg", Type: media.Video, Private: []string{"extern_huff"}},
	{Name: "png", ID: "png", Type: media.Video},
	{Name: "bmp", ID: "bmp", Type: media.Video},
	{Name: "tiff", ID: "tiff", Type: media.Video, Private: []string{"subimage", "thumbnail", "page"}},
	{Name: "gif", ID: "gif", Type: media.Video, Private: []string{"trans_color"}},
	{Name: "prores", ID: "prores", Type: media.Video},
	{Name: "dvvideo", ID: "dvvideo", Type: media.Video},
	{Name: "ffv1", ID: "ffv1", Type: media.Video},
	{Name: "rawvideo", ID: "rawvideo", Type: media.Video, Private: []string{"top"}},
	{Name: "h264_cuvid", ID: "h264", Type: media.Video, Private: []string{"deint", "gpu", "surfaces", "drop_second_field", "crop", "resize"}},
	{Name: "hevc_cuvid", ID: "hevc", Type: media.Video, Private: []string{"deint", "gpu", "surfaces", "drop_second_field", "crop", "resize"}},

	// audio decoders
	{Name: "aac", ID: "aac", Type: media.Audio, Private: []string{"dual_mono_mode", "channel_order"}},
	{Name: "ac3", ID: "ac3", Type: media.Audio, Private: []string{"cons_noisegen", "drc_scale", "heavy_compr", "downmix"}},
	{Name: "eac3", ID: "eac3", Type: media.Audio, Private: []string{"cons_noisegen", "drc_scale", "heavy_compr", "downmix"}},
	{Name: "dca", ID: "dts", Type: media.Audio, Private: []string{"core_only", "channel_order", "downmix"}},
	{Name: "truehd", ID: "truehd", Type: media.Audio, Private: []string{"downmix"}},
	{Name: "mp2", ID: "mp2", Type: media.Audio},
	{Name: "mp3float", ID: "mp3", Type: media.Audio},
	{Name: "mp3", ID: "mp3", Type: media.Audio},
	{Name: "flac", ID: "flac", Type: media.Audio, Private: []string{"use_buggy_lpc"}},
	{Name: "alac", ID: "alac", Type: media.Audio, Private: []string{"extra_bits_bug"}},
	{Name: "opus", ID: "opus", Type: media.Audio, Private: []string{"apply_phase_inv"}},
	{Name: "libopus", ID: "opus", Type: media.Audio},
	{Name: "vorbis", ID: "vorbis", Type: media.Audio},
	{Name: "pcm_s16le", ID: "pcm_s16le", Type: media.Audio},
	{Name: "pcm_s16be", ID: "pcm_s16be", Type: media.Audio},
	{Name: "pcm_s24le", ID: "pcm_s24le", Type: media.Audio},
	{Name: "pcm_s32le", ID: "pcm_s32le", Type: media.Audio},
	{Name: "pcm_f32le", ID: "pcm_f32le", Type: media.Audio},
	{Name: "pcm_u8", ID: "pcm_u8", Type: media.Audio},

	// subtitle decoders
	{Name: "subrip", ID: "subrip", Type: media.Subtitle},
	{Name: "srt", ID: "subrip", Type: media.Subtitle},
	{Name: "ass", ID: "ass", Type: media.Subtitle},
	{Name: "ssa", ID: "ass", Type: media.Subtitle},
	{Name: "webvtt", ID: "webvtt", Type: media.Subtitle},
	{Name: "mov_text", ID: "mov_text", Type: media.Subtitle},
	{Name: "text", ID: "text", Type: media.Subtitle, Private: []string{"keep_ass_markup"}},
	{Name: "dvdsub", ID: "dvd_subtitle", Type: media.Subtitle, Private: []string{"palette", "ifo_palette", "forced_subs_only"}},
	{Name: "dvbsub", ID: "dvb_subtitle", Type: media.Subtitle, Private: []string{"compute_edt", "compute_clut", "dvb_substream"}},
	{Name: "pgssub", ID: "hdmv_pgs_subtitle", Type: media.Subtitle, Private: []string{"forced_subs_only"}},
	{Name: "xsub", ID: "xsub", Type: media.Subtitle},
	{Name: "libzvbi_teletextdec", ID: "dvb_teletext", Type: media.Subtitle, Private: []string{"txt_page", "txt_format", "txt_default_region"}},
	{Name: "cc_dec", ID: "eia_608", Type: media.Subtitle, Private: []string{"real_time", "data_field"}},

	// data and attachments have no decoders or encoders
}

// DescriptorByName returns the descriptor named name (codec ID name).
func DescriptorByName(name string) *Descriptor {
	for i := range descriptors {
		if descriptors[i].Name == name {
			return &descriptors[i]
		}
	}
	return nil
}

// Descriptors returns every known codec descriptor.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

func find(name string, encoder bool) *Codec {
	for i := range codecs {
		if codecs[i].Encoder == encoder && codecs[i].Name == name {
			return &codecs[i]
		}
	}
	return nil
}

func findByID(id string, encoder bool) *Codec {
	for i := range codecs {
		if codecs[i].Encoder == encoder && codecs[i].ID == id {
			return &codecs[i]
		}
	}
	return nil
}

// FindEncoderByName returns the encoder named name, or nil.
func FindEncoderByName(name string) *Codec { return find(name, true) }

// FindDecoderByName returns the decoder named name, or nil.
func FindDecoderByName(name string) *Codec { return find(name, false) }

// FindEncoder returns the default encoder for a codec ID, or nil.
func FindEncoder(id string) *Codec { return findByID(id, true) }

// FindDecoder returns the default decoder for a codec ID, or nil.
func FindDecoder(id string) *Codec { return findByID(id, false) }

// Encoders returns every registered encoder.
func Encoders() []Codec {
	var out []Codec
	for _, c := range codecs {
		if c.Encoder {
			out = append(out, c)
		}
	}
	return out
}

// ExactBitsPerSample returns the exact sample width of codec id, or 0.
func ExactBitsPerSample(id string) int {
	if d := DescriptorByName(id); d != nil {
		return d.BitsPerSample
	}
	return 0
}
