package ffmpeg

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
)

// Resolver defaults an output stream is compared against.
const (
	defaultMuxingQueueSize      = 128
	defaultMuxingQueueThreshold = 50 * 1024 * 1024
	defaultMuxDelay             = 0.7
)

// BuildOptions adjust the generated command without touching the job.
type BuildOptions struct {
	// Bin is the ffmpeg executable; "ffmpeg" when empty.
	Bin string
	// LogLevel adds -hide_banner -loglevel when set.
	LogLevel  string
	Stats     bool
	Overwrite bool

	// Fallbacks toggled by RetryState.
	SkipAttachments bool
	SkipSubtitles   bool
	GenPTS          bool
	MuxQueueSize    int
}

// argv accumulates the command.
type argv []string

func (a *argv) add(s ...string) { *a = append(*a, s...) }

// opt adds "-name:spec value".
func (a *argv) opt(name string, spec int, value string) {
	*a = append(*a, "-"+name+":"+strconv.Itoa(spec), value)
}

// flag adds the argument-less "-name:spec".
func (a *argv) flag(name string, spec int) {
	*a = append(*a, "-"+name+":"+strconv.Itoa(spec))
}

// Build renders j as one ffmpeg argument vector, program name first. Every
// decision the resolver made is spelled out: each output stream gets an
// explicit -map and codec, and metadata is written instead of inherited,
// so resolving the result again yields the same graph.
//
// Layout:
//
//	bin [preamble] [globals] [-filter_complex ...] {input options -i url}
//	    {-f fmt {stream options} {file options} url}
func Build(j *job.Job, o BuildOptions) []string {
	bin := o.Bin
	if bin == "" {
		bin = "ffmpeg"
	}
	a := make(argv, 0, 64)
	a.add(bin)

	// --- Preamble ---
	if o.LogLevel != "" {
		a.add("-hide_banner", "-loglevel", o.LogLevel)
	}
	a.add("-nostdin")
	switch {
	case j.Settings.Overwrite || o.Overwrite:
		a.add("-y")
	case j.Settings.NoOverwrite:
		a.add("-n")
	}
	if o.Stats {
		a.add("-stats")
	} else {
		a.add("-nostats")
	}

	appendGlobals(&a, &j.Settings)
	for _, fg := range j.FilterGraphs {
		if !fg.Simple {
			a.add("-filter_complex", fg.Desc)
		}
	}

	// --- Inputs ---
	for _, f := range j.InputFiles {
		appendInput(&a, j, f, o)
	}

	// --- Outputs ---
	for _, of := range j.OutputFiles {
		appendOutput(&a, j, of, o)
	}
	return a
}

// --- Globals ---

func appendGlobals(a *argv, s *job.Settings) {
	d := job.DefaultSettings()

	for _, f := range []struct {
		on   bool
		name string
	}{
		{s.CopyTS, "-copyts"},
		{s.StartAtZero, "-start_at_zero"},
		{s.IgnoreUnknown, "-ignore_unknown"},
		{s.CopyUnknown, "-copy_unknown"},
		{s.IntraOnly, "-intra"},
		{s.PSNR, "-psnr"},
		{s.ExitOnError, "-xerror"},
		{s.DebugTS, "-debug_ts"},
		{!s.AutoConversionFilters, "-noauto_conversion_filters"},
	} {
		if f.on {
			a.add(f.name)
		}
	}

	if s.CopyTB != d.CopyTB {
		a.add("-copytb", strconv.Itoa(s.CopyTB))
	}
	if s.VideoSyncMethod != d.VideoSyncMethod {
		a.add("-vsync", vsyncName(s.VideoSyncMethod))
	}
	if s.AudioSyncMethod != d.AudioSyncMethod {
		a.add("-async", strconv.Itoa(s.AudioSyncMethod))
	}
	if s.AbortOnFlags != "" {
		a.add("-abort_on", s.AbortOnFlags)
	}
	if s.FrameBitsPerRawSample != 0 {
		a.add("-bits_per_raw_sample", strconv.Itoa(s.FrameBitsPerRawSample))
	}
	if s.FilterNbThreads != 0 {
		a.add("-filter_threads", strconv.Itoa(s.FilterNbThreads))
	}
	if s.FilterComplexThreads != 0 {
		a.add("-filter_complex_threads", strconv.Itoa(s.FilterComplexThreads))
	}
	for _, dev := range s.HWDevices {
		a.add("-init_hw_device", hwDeviceSpec(dev))
	}
	if s.FilterHWDevice != "" {
		a.add("-filter_hw_device", s.FilterHWDevice)
	}
}

func vsyncName(m int) string {
	switch m {
	case job.VSyncPassthrough:
		return "passthrough"
	case job.VSyncCFR:
		return "cfr"
	case job.VSyncVFR:
		return "vfr"
	case job.VSyncDrop:
		return "drop"
	}
	return strconv.Itoa(m)
}

// hwDeviceSpec renders "type=name[:device[,k=v...]]" or "type=name@source".
func hwDeviceSpec(d *job.HWDevice) string {
	spec := d.Type + "=" + d.Name
	if d.Source != "" {
		return spec + "@" + d.Source
	}
	if d.Device == "" && d.Options.Len() == 0 {
		return spec
	}
	spec += ":" + d.Device
	for _, e := range d.Options.Entries() {
		spec += "," + e.Key + "=" + e.Value
	}
	return spec
}

// --- Inputs ---

func appendInput(a *argv, j *job.Job, f *job.InputFile, o BuildOptions) {
	for _, e := range f.Opts.Entries() {
		a.add("-"+e.Key, e.Value)
	}
	if f.Loop != 0 {
		a.add("-stream_loop", strconv.Itoa(f.Loop))
	}
	if f.InputTSOffset != 0 {
		a.add("-itsoffset", formatTime(f.InputTSOffset))
	}
	if f.StartTime != media.NoPTS {
		a.add("-ss", formatTime(f.StartTime))
	}
	if f.RecordingTime != math.MaxInt64 {
		a.add("-t", formatTime(f.RecordingTime))
	}
	if f.SeekTimestamp {
		a.add("-seek_timestamp", "1")
	}
	if !f.AccurateSeek {
		a.add("-noaccurate_seek")
	}
	if f.RateEmu {
		a.add("-re")
	}
	if f.ThreadQueueSize > 0 {
		a.add("-thread_queue_size", strconv.Itoa(f.ThreadQueueSize))
	}

	for i, ist := range j.InputStreams[f.IstIndex : f.IstIndex+f.NbStreams] {
		appendInputStream(a, ist, i)
	}

	if o.GenPTS {
		a.add("-fflags", "+genpts+discardcorrupt")
	}
	a.add("-i", f.URL)
}

// appendInputStream spells out a forced decoder and the per-stream input
// options.
func appendInputStream(a *argv, ist *job.InputStream, i int) {
	st := ist.St
	if ist.DecForced && ist.Dec != nil {
		a.opt("c", i, ist.Dec.Name)
	}
	if ist.UserSetDiscard != media.DiscardNone {
		a.opt("discard", i, ist.UserSetDiscard.String())
	}
	if ist.TSScale != 1 {
		a.opt("itsscale", i, formatFloat(ist.TSScale))
	}
	if !ist.Autorotate {
		a.opt("autorotate", i, "0")
	}
	if ist.ReinitFilters != -1 {
		a.opt("reinit_filter", i, strconv.Itoa(ist.ReinitFilters))
	}

	switch st.Type {
	case media.Video:
		if ist.Framerate.Valid() {
			a.opt("r", i, ist.Framerate.String())
		}
		if ist.TopFieldFirst >= 0 {
			a.opt("top", i, strconv.Itoa(ist.TopFieldFirst))
		}
		if ist.HWAccel != "" {
			a.opt("hwaccel", i, ist.HWAccel)
		}
		if ist.HWAccelDevice != "" {
			a.opt("hwaccel_device", i, ist.HWAccelDevice)
		}
		if ist.HWAccelOutputFormat != "" {
			a.opt("hwaccel_output_format", i, ist.HWAccelOutputFormat)
		}
	case media.Audio:
		if ist.GuessLayoutMax != math.MaxInt32 {
			a.opt("guess_layout_max", i, strconv.Itoa(ist.GuessLayoutMax))
		}
	case media.Data, media.Subtitle:
		if ist.FixSubDuration {
			a.flag("fix_sub_duration", i)
		}
		if ist.CanvasWidth > 0 && ist.CanvasHeight > 0 {
			a.opt("canvas_size", i, fmt.Sprintf("%dx%d", ist.CanvasWidth, ist.CanvasHeight))
		}
	}

	for _, e := range ist.DecoderOpts.Entries() {
		a.opt(e.Key, i, e.Value)
	}
}

// --- Outputs ---

func appendOutput(a *argv, j *job.Job, of *job.OutputFile, o BuildOptions) {
	a.add("-f", of.Format.Name)

	// Kept streams are renumbered when fallbacks drop some of them.
	renum := map[int]int{}
	var kept []*job.OutputStream
	maps := 0
	present := map[media.Type]bool{}

	for _, ost := range j.OutputStreams {
		if ost.FileIndex != of.Index || skipStream(ost, o) {
			continue
		}
		n := len(kept)
		renum[ost.Index] = n
		kept = append(kept, ost)
		present[ost.St.Type] = true

		switch {
		case ost.AttachmentFilename != "":
			a.add("-attach", ost.AttachmentFilename)
		case ost.SourceIndex >= 0:
			a.add("-map", mapSpec(j, ost))
			maps++
		case ost.Filter != nil && ost.Filter.Label != "":
			a.add("-map", "["+ost.Filter.Label+"]")
			maps++
		}
		appendStream(a, j, ost, n, o)
	}

	// Without any -map the resolver would select streams on its own; only
	// unlabeled filter graph outputs and attachments are left, so turn the
	// missing types off.
	if maps == 0 {
		for _, t := range []struct {
			typ  media.Type
			flag string
		}{{media.Video, "-vn"}, {media.Audio, "-an"}, {media.Subtitle, "-sn"}, {media.Data, "-dn"}} {
			if !present[t.typ] {
				a.add(t.flag)
			}
		}
	}

	if len(kept) > 0 {
		appendScalerOpts(a, kept[0])
	}

	appendMetadata(a, of, kept)
	appendPrograms(a, of, renum)

	// --- File options ---
	if of.RecordingTime != math.MaxInt64 {
		a.add("-t", formatTime(of.RecordingTime))
	}
	if of.StartTime != media.NoPTS {
		a.add("-ss", formatTime(of.StartTime))
	}
	if of.LimitFilesize != math.MaxUint64 {
		a.add("-fs", strconv.FormatUint(of.LimitFilesize, 10))
	}
	if of.Shortest {
		a.add("-shortest")
	}
	if of.Bitexact {
		a.add("-bitexact")
	}
	if math.Abs(float64(of.MaxDelay)-defaultMuxDelay*media.TimeBase) > 1 {
		a.add("-muxdelay", formatTime(of.MaxDelay))
	}
	for _, e := range of.Opts.Entries() {
		if e.Key == "preload" {
			us, _ := strconv.ParseInt(e.Value, 10, 64)
			a.add("-muxpreload", formatTime(us))
			continue
		}
		a.add("-"+e.Key, e.Value)
	}
	if o.GenPTS {
		a.add("-avoid_negative_ts", "make_zero")
	}
	if of.Index == 0 && j.Settings.SDPFilename != "" {
		a.add("-sdp_file", j.Settings.SDPFilename)
	}
	a.add(of.URL)
}

func skipStream(ost *job.OutputStream, o BuildOptions) bool {
	switch ost.St.Type {
	case media.Subtitle:
		return o.SkipSubtitles
	case media.Attachment:
		return o.SkipAttachments
	}
	return false
}

// mapSpec renders "file:stream[,syncfile:syncstream]".
func mapSpec(j *job.Job, ost *job.OutputStream) string {
	ist := j.InputStreams[ost.SourceIndex]
	spec := fmt.Sprintf("%d:%d", ist.FileIndex, ist.St.Index)
	if s := ost.SyncIst; s != nil && s != ist {
		spec += fmt.Sprintf(",%d:%d", s.FileIndex, s.St.Index)
	}
	return spec
}

// --- Streams ---

func appendStream(a *argv, j *job.Job, ost *job.OutputStream, n int, o BuildOptions) {
	p := &ost.Params

	switch {
	case ost.AttachmentFilename != "":
	case ost.StreamCopy:
		a.opt("c", n, "copy")
	case ost.Enc != nil:
		a.opt("c", n, ost.Enc.Name)
	}

	if ost.St.Type == media.Video {
		if ost.FrameRate.Valid() {
			a.opt("r", n, ost.FrameRate.String())
		}
		if ost.MaxFrameRate.Valid() {
			a.opt("fpsmax", n, ost.MaxFrameRate.String())
		}
		if ost.FrameAspectRatio.Valid() {
			a.opt("aspect", n, fmt.Sprintf("%d:%d", ost.FrameAspectRatio.Num, ost.FrameAspectRatio.Den))
		}
	}
	if ost.CopyInitialNonkeyframes {
		a.flag("copyinkf", n)
	}

	if ost.EncodingNeeded {
		appendEncoding(a, ost, n)
	}

	// --- Shared stream options ---
	if ost.MaxFrames != math.MaxInt64 {
		a.opt("frames", n, strconv.FormatInt(ost.MaxFrames, 10))
	}
	if p.CodecTag != 0 {
		a.opt("tag", n, fmt.Sprintf("0x%08x", p.CodecTag))
	}
	if len(ost.BSFs) > 0 {
		a.opt("bsf", n, strings.Join(ost.BSFs, ","))
	}
	if ost.St.TimeBase.Valid() {
		a.opt("time_base", n, ost.St.TimeBase.String())
	}
	if ost.EncTimeBase.Den != 0 {
		a.opt("enc_time_base", n, ost.EncTimeBase.String())
	}
	if ost.CopyPriorStart != -1 {
		a.opt("copypriorss", n, strconv.Itoa(ost.CopyPriorStart))
	}
	if !ost.Autoscale {
		a.opt("autoscale", n, "0")
	}
	queue := max(ost.MaxMuxingQueueSize, o.MuxQueueSize)
	if queue != defaultMuxingQueueSize {
		a.opt("max_muxing_queue_size", n, strconv.Itoa(queue))
	}
	if ost.MuxingQueueDataThreshold != defaultMuxingQueueThreshold {
		a.opt("muxing_queue_data_threshold", n, strconv.FormatInt(ost.MuxingQueueDataThreshold, 10))
	}
	if ost.St.ID != 0 {
		a.add("-streamid", fmt.Sprintf("%d:%d", n, ost.St.ID))
	}
	if d := ost.St.Disposition; d != sourceDisposition(j, ost) {
		a.opt("disposition", n, d.String())
	}
	appendChannelMap(a, j, ost, n)
	appendEncoderOpts(a, ost, n)
}

// appendEncoding covers the options that only apply to encoded streams.
func appendEncoding(a *argv, ost *job.OutputStream, n int) {
	p := &ost.Params
	switch ost.St.Type {
	case media.Video:
		if p.Width > 0 && p.Height > 0 {
			a.opt("s", n, fmt.Sprintf("%dx%d", p.Width, p.Height))
		}
		if pf := p.PixFmt; pf != "" || ost.KeepPixFmt {
			if ost.KeepPixFmt {
				pf = "+" + pf
			}
			a.opt("pix_fmt", n, pf)
		}
		appendMatrix(a, "intra_matrix", n, p.IntraMatrix)
		appendMatrix(a, "inter_matrix", n, p.InterMatrix)
		appendMatrix(a, "chroma_intra_matrix", n, p.ChromaIntraMatrix)
		if len(p.RCOverride) > 0 {
			a.opt("rc_override", n, rcOverrideSpec(p.RCOverride))
		}
		if pass := passNumber(p.Flags); pass != 0 {
			a.opt("pass", n, strconv.Itoa(pass))
		}
		if ost.LogfilePrefix != "" {
			a.opt("passlogfile", n, ost.LogfilePrefix)
		}
		if ost.ForcedKeyframes != "" {
			a.opt("force_key_frames", n, ost.ForcedKeyframes)
		}
		if ost.ForceFPS {
			a.flag("force_fps", n)
		}
		if ost.TopFieldFirst >= 0 {
			a.opt("top", n, strconv.Itoa(ost.TopFieldFirst))
		}
	case media.Audio:
		if p.Channels > 0 {
			a.opt("ac", n, strconv.Itoa(p.Channels))
		}
		if p.SampleRate > 0 {
			a.opt("ar", n, strconv.Itoa(p.SampleRate))
		}
		if p.SampleFmt != "" {
			a.opt("sample_fmt", n, p.SampleFmt)
		}
		if ost.Apad != "" {
			a.opt("apad", n, ost.Apad)
		}
	case media.Subtitle:
		if p.Width > 0 && p.Height > 0 {
			a.opt("s", n, fmt.Sprintf("%dx%d", p.Width, p.Height))
		}
	}

	if p.Flags&job.FlagQScale != 0 {
		a.opt("q", n, formatFloat(float64(p.GlobalQuality)/job.QP2Lambda))
	}

	switch {
	case ost.FilterScript != "":
		a.opt("filter_script", n, ost.FilterScript)
	case ost.FilterOption != "":
		a.opt("filter", n, ost.FilterOption)
	}
}

// appendEncoderOpts writes the codec options. Entries the resolver derived
// from -pass are left to -pass itself.
func appendEncoderOpts(a *argv, ost *job.OutputStream, n int) {
	pass := ost.Params.Flags&(job.FlagPass1|job.FlagPass2) != 0
	for _, e := range ost.EncoderOpts.Entries() {
		v := e.Value
		if pass {
			if e.Key == "stats" && v == ost.PassLogFile {
				continue
			}
			if e.Key == "flags" {
				v = strings.NewReplacer("+pass1", "", "+pass2", "").Replace(v)
				if v == "" {
					continue
				}
			}
		}
		a.opt(e.Key, n, v)
	}
}

// appendScalerOpts writes the file's scaler and resampler options, which
// every stream of the file shares. Resolver-set entries are skipped.
func appendScalerOpts(a *argv, ost *job.OutputStream) {
	for _, e := range ost.SwsOpts.Entries() {
		if e.Key != "flags" {
			a.add("-"+e.Key, e.Value)
		}
	}
	for _, e := range ost.SwrOpts.Entries() {
		if e.Key != "output_sample_bits" {
			a.add("-"+e.Key, e.Value)
		}
	}
}

func appendChannelMap(a *argv, j *job.Job, ost *job.OutputStream, n int) {
	for _, ch := range ost.AudioChannelsMap {
		if ch < 0 || ost.SourceIndex < 0 {
			a.add("-map_channel", fmt.Sprintf("-1:%d.%d", ost.FileIndex, n))
			continue
		}
		ist := j.InputStreams[ost.SourceIndex]
		a.add("-map_channel", fmt.Sprintf("%d.%d.%d:%d.%d", ist.FileIndex, ist.St.Index, ch, ost.FileIndex, n))
	}
}

func sourceDisposition(j *job.Job, ost *job.OutputStream) media.Disposition {
	if ost.SourceIndex < 0 {
		return 0
	}
	return j.InputStreams[ost.SourceIndex].St.Disposition
}

func appendMatrix(a *argv, name string, n int, m []uint16) {
	if len(m) == 0 {
		return
	}
	parts := make([]string, len(m))
	for i, v := range m {
		parts[i] = strconv.Itoa(int(v))
	}
	a.opt(name, n, strings.Join(parts, ","))
}

func rcOverrideSpec(rc []job.RCOverride) string {
	parts := make([]string, len(rc))
	for i, o := range rc {
		q := o.QScale
		if q <= 0 {
			q = -int(math.Round(o.QualityFactor * 100))
		}
		parts[i] = fmt.Sprintf("%d,%d,%d", o.StartFrame, o.EndFrame, q)
	}
	return strings.Join(parts, "/")
}

func passNumber(flags int) int {
	n := 0
	if flags&job.FlagPass1 != 0 {
		n |= 1
	}
	if flags&job.FlagPass2 != 0 {
		n |= 2
	}
	return n
}

// --- Metadata, chapters and programs ---

// appendMetadata turns off every default metadata copy and writes the
// resolved dictionaries out instead.
func appendMetadata(a *argv, of *job.OutputFile, kept []*job.OutputStream) {
	a.add("-map_metadata:g", "-1", "-map_metadata:s", "-1", "-map_metadata:c", "-1")

	for _, e := range of.Ctx.Metadata.Entries() {
		a.add("-metadata", e.Key+"="+e.Value)
	}
	for n, ost := range kept {
		for _, e := range ost.St.Metadata.Entries() {
			a.add(fmt.Sprintf("-metadata:s:%d", n), e.Key+"="+e.Value)
		}
		if ost.RotateOverridden {
			a.add(fmt.Sprintf("-metadata:s:%d", n), "rotate="+formatFloat(ost.RotateOverrideValue))
		}
	}

	a.add("-map_chapters", strconv.Itoa(of.ChaptersFrom))
	for i, ch := range of.Ctx.Chapters {
		for _, e := range ch.Metadata.Entries() {
			a.add(fmt.Sprintf("-metadata:c:%d", i), e.Key+"="+e.Value)
		}
	}
}

// appendPrograms writes one -program per output program; stream indexes
// follow the renumbering of the kept streams.
func appendPrograms(a *argv, of *job.OutputFile, renum map[int]int) {
	for i, prog := range of.Ctx.Programs {
		var parts []string
		if title, ok := prog.Metadata.Get("title"); ok {
			parts = append(parts, "title="+title)
		}
		parts = append(parts, "program_num="+strconv.Itoa(prog.ID))
		for _, idx := range prog.StreamIndexes {
			if n, ok := renum[idx]; ok {
				parts = append(parts, "st="+strconv.Itoa(n))
			}
		}
		a.add("-program", strings.Join(parts, ":"))

		for _, e := range prog.Metadata.Entries() {
			if e.Key != "title" {
				a.add(fmt.Sprintf("-metadata:p:%d", i), e.Key+"="+e.Value)
			}
		}
	}
}

// --- Formatting ---

// formatTime renders microseconds as seconds.
func formatTime(us int64) string {
	return formatFloat(float64(us) / media.TimeBase)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
