package codec

import (
	"path/filepath"
	"strings"

	"github.com/backmassage/muxgraph/internal/media"
)

// FormatFlags are muxer/demuxer capability bits.
type FormatFlags uint

const (
	// FormatNoFile formats do not write to a regular file.
	FormatNoFile FormatFlags = 1 << iota
	// FormatNeedNumber formats need a %d pattern in the filename.
	FormatNeedNumber
	// FormatNoStreams formats may be written without any stream.
	FormatNoStreams
	// FormatGlobalHeader formats want extradata in a global header.
	FormatGlobalHeader
	// FormatSeekToPTS demuxers seek by presentation timestamp.
	FormatSeekToPTS
	// FormatTSDiscont demuxers may have timestamp discontinuities.
	FormatTSDiscont
)

// Format describes one container.
type Format struct {
	Name       string
	LongName   string
	Extensions []string
	MimeType   string
	Muxer      bool
	Demuxer    bool
	Flags      FormatFlags

	VideoCodec    string
	AudioCodec    string
	SubtitleCodec string
	DataCodec     string

	// WantsAttachedPic is set for muxers that store cover art (mp3).
	WantsAttachedPic bool
	// Private lists format-private option names.
	Private []string
}

var formats = []Format{
	{Name: "matroska", LongName: "Matroska", Extensions: []string{"mkv"}, MimeType: "video/x-matroska", Muxer: true, Demuxer: true,
		VideoCodec: "h264", AudioCodec: "vorbis", SubtitleCodec: "ass",
		Private: []string{"reserve_index_space", "cues_to_front", "cluster_size_limit", "cluster_time_limit", "dash", "live", "write_crc32", "default_mode"}},
	{Name: "matroska", LongName: "Matroska Audio", Extensions: []string{"mka"}, MimeType: "audio/x-matroska", Muxer: true,
		AudioCodec: "vorbis", SubtitleCodec: "ass",
		Private: []string{"reserve_index_space", "cues_to_front", "cluster_size_limit", "cluster_time_limit", "dash", "live", "write_crc32", "default_mode"}},
	{Name: "webm", LongName: "WebM", Extensions: []string{"webm"}, MimeType: "video/webm", Muxer: true,
		VideoCodec: "vp9", AudioCodec: "opus", SubtitleCodec: "webvtt",
		Private: []string{"reserve_index_space", "cues_to_front", "cluster_size_limit", "dash", "live"}},
	{Name: "mp4", LongName: "MP4 (MPEG-4 Part 14)", Extensions: []string{"mp4", "m4v"}, MimeType: "video/mp4", Muxer: true, Flags: FormatGlobalHeader,
		VideoCodec: "h264", AudioCodec: "aac", SubtitleCodec: "mov_text",
		Private: []string{"movflags", "moov_size", "frag_duration", "min_frag_duration", "frag_size", "brand", "use_editlist", "write_tmcd"}},
	{Name: "mov", LongName: "QuickTime / MOV", Extensions: []string{"mov"}, MimeType: "video/quicktime", Muxer: true, Demuxer: true, Flags: FormatGlobalHeader,
		VideoCodec: "h264", AudioCodec: "aac", SubtitleCodec: "mov_text",
		Private: []string{"movflags", "moov_size", "frag_duration", "use_editlist", "write_tmcd", "use_absolute_path", "ignore_editlist", "ignore_chapters"}},
	{Name: "ipod", LongName: "iPod H.264 MP4 (MPEG-4 Part 14)", Extensions: []string{"m4a", "m4b"}, MimeType: "audio/mp4", Muxer: true, Flags: FormatGlobalHeader,
		VideoCodec: "h264", AudioCodec: "aac", SubtitleCodec: "mov_text", Private: []string{"movflags"}},
	{Name: "mpegts", LongName: "MPEG-TS (MPEG-2 Transport Stream)", Extensions: []string{"ts", "m2t", "m2ts", "mts"}, MimeType: "video/MP2T", Muxer: true, Demuxer: true, Flags: FormatTSDiscont,
		VideoCodec: "mpeg2video", AudioCodec: "mp2", SubtitleCodec: "dvb_subtitle",
		Private: []string{"mpegts_transport_stream_id", "mpegts_original_network_id", "mpegts_service_id", "mpegts_pmt_start_pid", "mpegts_start_pid", "mpegts_flags", "mpegts_copyts", "pcr_period", "scan_all_pmts", "merge_pmt_versions", "skip_unsupported_pids", "fix_teletext_pts", "resync_size"}},
	{Name: "mpeg", LongName: "MPEG-1 Systems / MPEG program stream", Extensions: []string{"mpg", "mpeg"}, MimeType: "video/mpeg", Muxer: true, Demuxer: true,
		VideoCodec: "mpeg1video", AudioCodec: "mp2", Private: []string{"muxrate", "preload"}},
	{Name: "vob", LongName: "MPEG-2 PS (VOB)", Extensions: []string{"vob"}, MimeType: "video/mpeg", Muxer: true,
		VideoCodec: "mpeg2video", AudioCodec: "mp2", Private: []string{"muxrate", "preload"}},
	{Name: "dvd", LongName: "MPEG-2 PS (DVD VOB)", Extensions: []string{"dvd"}, Muxer: true,
		VideoCodec: "mpeg2video", AudioCodec: "mp2", Private: []string{"muxrate", "preload"}},
	{Name: "svcd", LongName: "MPEG-2 PS (SVCD)", Extensions: []string{"vob"}, Muxer: true,
		VideoCodec: "mpeg2video", AudioCodec: "mp2", Private: []string{"muxrate", "preload"}},
	{Name: "vcd", LongName: "MPEG-1 Systems / MPEG program stream (VCD)", Muxer: true,
		VideoCodec: "mpeg1video", AudioCodec: "mp2", Private: []string{"muxrate", "preload"}},
	{Name: "dv", LongName: "DV (Digital Video)", Extensions: []string{"dv", "dif"}, Muxer: true, Demuxer: true,
		VideoCodec: "dvvideo", AudioCodec: "pcm_s16le"},
	{Name: "avi", LongName: "AVI (Audio Video Interleaved)", Extensions: []string{"avi"}, MimeType: "video/x-msvideo", Muxer: true, Demuxer: true,
		VideoCodec: "mpeg4", AudioCodec: "mp3", Private: []string{"reserve_index_space", "write_channel_mask", "flipped_raw_rgb"}},
	{Name: "flv", LongName: "FLV (Flash Video)", Extensions: []string{"flv"}, MimeType: "video/x-flv", Muxer: true, Demuxer: true, Flags: FormatGlobalHeader | FormatTSDiscont,
		VideoCodec: "h264", AudioCodec: "aac", DataCodec: "bin_data", Private: []string{"flvflags"}},
	{Name: "ogg", LongName: "Ogg", Extensions: []string{"ogg", "ogv"}, MimeType: "application/ogg", Muxer: true, Demuxer: true,
		VideoCodec: "theora", AudioCodec: "vorbis", Private: []string{"serial_offset", "oggpagesize", "page_duration"}},
	{Name: "opus", LongName: "Ogg Opus", Extensions: []string{"opus"}, MimeType: "audio/ogg", Muxer: true, AudioCodec: "opus"},
	{Name: "mp3", LongName: "MP3 (MPEG audio layer 3)", Extensions: []string{"mp3"}, MimeType: "audio/mpeg", Muxer: true, Demuxer: true,
		AudioCodec: "mp3", VideoCodec: "png", WantsAttachedPic: true, Private: []string{"id3v2_version", "write_id3v1", "write_xing"}},
	{Name: "adts", LongName: "ADTS AAC (Advanced Audio Coding)", Extensions: []string{"aac", "adts"}, MimeType: "audio/aac", Muxer: true, AudioCodec: "aac",
		Private: []string{"write_id3v2", "write_apetag", "write_mpeg2"}},
	{Name: "aac", LongName: "raw ADTS AAC (Advanced Audio Coding)", Extensions: []string{"aac"}, Demuxer: true},
	{Name: "ac3", LongName: "raw AC-3", Extensions: []string{"ac3"}, MimeType: "audio/x-ac3", Muxer: true, Demuxer: true, AudioCodec: "ac3"},
	{Name: "eac3", LongName: "raw E-AC-3", Extensions: []string{"eac3"}, MimeType: "audio/x-eac3", Muxer: true, Demuxer: true, AudioCodec: "eac3"},
	{Name: "flac", LongName: "raw FLAC", Extensions: []string{"flac"}, MimeType: "audio/x-flac", Muxer: true, Demuxer: true, AudioCodec: "flac", VideoCodec: "png",
		Private: []string{"write_header"}},
	{Name: "wav", LongName: "WAV / WAVE (Waveform Audio)", Extensions: []string{"wav"}, MimeType: "audio/x-wav", Muxer: true, Demuxer: true, AudioCodec: "pcm_s16le",
		Private: []string{"write_bext", "write_peak", "rf64"}},
	{Name: "mp2", LongName: "MP2 (MPEG audio layer 2)", Extensions: []string{"mp2", "m2a", "mpa"}, MimeType: "audio/mpeg", Muxer: true, AudioCodec: "mp2"},
	{Name: "srt", LongName: "SubRip subtitle", Extensions: []string{"srt"}, MimeType: "application/x-subrip", Muxer: true, Demuxer: true, SubtitleCodec: "subrip"},
	{Name: "ass", LongName: "SSA (SubStation Alpha) subtitle", Extensions: []string{"ass", "ssa"}, MimeType: "text/x-ass", Muxer: true, Demuxer: true, SubtitleCodec: "ass"},
	{Name: "webvtt", LongName: "WebVTT subtitle", Extensions: []string{"vtt"}, MimeType: "text/vtt", Muxer: true, Demuxer: true, SubtitleCodec: "webvtt"},
	{Name: "image2", LongName: "image2 sequence", Extensions: []string{"bmp", "dpx", "jls", "jpeg", "jpg", "ljpg", "pam", "pbm", "pcx", "pgm", "pgmyuv", "png", "ppm", "sgi", "tga", "tif", "tiff", "jp2", "j2c", "j2k", "xwd", "sun", "ras", "rs", "im1", "im8", "im24", "sunras", "xbm", "xface", "pix", "y"},
		Muxer: true, Demuxer: true, Flags: FormatNeedNumber, VideoCodec: "mjpeg",
		Private: []string{"update", "start_number", "strftime", "frame_pts", "atomic_writing", "pattern_type", "framerate", "loop"}},
	{Name: "gif", LongName: "CompuServe Graphics Interchange Format (GIF)", Extensions: []string{"gif"}, MimeType: "image/gif", Muxer: true, Demuxer: true, VideoCodec: "gif",
		Private: []string{"loop", "final_delay"}},
	{Name: "hls", LongName: "Apple HTTP Live Streaming", Extensions: []string{"m3u8"}, Muxer: true, Flags: FormatNoFile,
		VideoCodec: "h264", AudioCodec: "aac", SubtitleCodec: "webvtt",
		Private: []string{"hls_time", "hls_list_size", "hls_segment_filename", "hls_flags", "hls_playlist_type", "hls_segment_type", "master_pl_name", "var_stream_map"}},
	{Name: "dash", LongName: "DASH Muxer", Extensions: []string{"mpd"}, Muxer: true, Flags: FormatNoFile | FormatGlobalHeader,
		VideoCodec: "h264", AudioCodec: "aac", Private: []string{"seg_duration", "window_size", "adaptation_sets", "use_template", "use_timeline"}},
	{Name: "segment", LongName: "segment", Muxer: true, Flags: FormatNoFile,
		VideoCodec: "h264", AudioCodec: "aac", Private: []string{"segment_time", "segment_format", "segment_list", "segment_list_type", "reset_timestamps"}},
	{Name: "tee", LongName: "Multiple muxer tee", Muxer: true, Flags: FormatNoFile, VideoCodec: "h264", AudioCodec: "aac", Private: []string{"use_fifo"}},
	{Name: "rtp", LongName: "RTP output", Muxer: true, Flags: FormatNoFile | FormatGlobalHeader, VideoCodec: "mpeg4", AudioCodec: "pcm_s16be",
		Private: []string{"rtpflags", "payload_type", "ssrc", "cname", "seq"}},
	{Name: "null", LongName: "raw null video", Muxer: true, Flags: FormatNoFile | FormatNoStreams, VideoCodec: "wrapped_avframe", AudioCodec: "pcm_s16le"},
	{Name: "ffmetadata", LongName: "FFmpeg metadata in text", Extensions: []string{"ffmeta"}, Muxer: true, Demuxer: true, Flags: FormatNoStreams},
	{Name: "rawvideo", LongName: "raw video", Extensions: []string{"yuv", "rgb"}, Muxer: true, Demuxer: true, VideoCodec: "rawvideo"},
	{Name: "h264", LongName: "raw H.264 video", Extensions: []string{"h264", "264"}, Muxer: true, Demuxer: true, VideoCodec: "h264"},
	{Name: "hevc", LongName: "raw HEVC video", Extensions: []string{"hevc", "h265", "265"}, Muxer: true, Demuxer: true, VideoCodec: "hevc"},
	{Name: "lavfi", LongName: "Libavfilter virtual input device", Demuxer: true, Flags: FormatNoFile, Private: []string{"graph", "graph_file", "dumpgraph"}},
	{Name: "video4linux2", LongName: "Video4Linux2 device grab", Demuxer: true, Flags: FormatNoFile,
		Private: []string{"standard", "channel", "input_format", "framerate", "list_formats", "list_standards", "timestamps"}},
	{Name: "concat", LongName: "Virtual concatenation script", Demuxer: true, Private: []string{"safe", "auto_convert", "segment_time_metadata"}},
}

// FindMuxer returns the muxer named name, or nil.
func FindMuxer(name string) *Format {
	for i := range formats {
		if formats[i].Muxer && formats[i].Name == name {
			return &formats[i]
		}
	}
	return nil
}

// FindDemuxer returns the demuxer named name, or nil.
func FindDemuxer(name string) *Format {
	for i := range formats {
		if formats[i].Demuxer && formats[i].Name == name {
			return &formats[i]
		}
	}
	return nil
}

// GuessMuxer picks a muxer from a short name or, failing that, the
// filename extension. The short name must name a muxer when given.
func GuessMuxer(shortName, filename string) *Format {
	if shortName != "" {
		return FindMuxer(shortName)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return nil
	}
	for i := range formats {
		if !formats[i].Muxer {
			continue
		}
		for _, e := range formats[i].Extensions {
			if e == ext {
				return &formats[i]
			}
		}
	}
	return nil
}

// GuessCodec returns the codec the muxer would use by default for type t.
// image2 picks its codec from the filename extension.
func (f *Format) GuessCodec(filename string, t media.Type) string {
	switch t {
	case media.Video:
		if f.Name == "image2" {
			if id := imageCodecByExt(filename); id != "" {
				return id
			}
		}
		return f.VideoCodec
	case media.Audio:
		return f.AudioCodec
	case media.Subtitle:
		return f.SubtitleCodec
	case media.Data:
		return f.DataCodec
	}
	return ""
}

func imageCodecByExt(filename string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "png":
		return "png"
	case "jpg", "jpeg", "ljpg":
		return "mjpeg"
	case "bmp":
		return "bmp"
	case "tif", "tiff":
		return "tiff"
	case "gif":
		return "gif"
	}
	return ""
}

// HasPrivate reports whether name is a private option of f.
func (f *Format) HasPrivate(name string) bool {
	for _, p := range f.Private {
		if p == name {
			return true
		}
	}
	return false
}

// Formats returns every known format.
func Formats() []Format {
	out := make([]Format, len(formats))
	copy(out, formats)
	return out
}

var attachmentMime = map[string]string{
	".ttf":  "application/x-truetype-font",
	".otf":  "application/vnd.ms-opentype",
	".woff": "font/woff",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".txt":  "text/plain",
}

// AttachmentMimeType guesses a MIME type for a matroska attachment.
func AttachmentMimeType(filename string) string {
	return attachmentMime[strings.ToLower(filepath.Ext(filename))]
}
