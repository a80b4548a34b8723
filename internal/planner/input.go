package planner

import (
	"context"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/backmassage/muxgraph/internal/codec"
	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
	"github.com/backmassage/muxgraph/internal/options"
	"github.com/backmassage/muxgraph/internal/specifier"
)

// seekBackoff is subtracted from the seek target when the demuxer seeks by
// DTS and streams carry B-frame delay.
const seekBackoff = 3 * media.TimeBase / 23

// resolveRecordingTime folds -to into -t. -t wins when both are given.
func resolveRecordingTime(c *options.Context) error {
	if c.StopTime != math.MaxInt64 && c.RecordingTime != math.MaxInt64 {
		c.StopTime = math.MaxInt64
		c.Log().Warn("-t and -to cannot be used together; using -t.")
	}
	if c.StopTime != math.MaxInt64 && c.RecordingTime == math.MaxInt64 {
		start := int64(0)
		if c.StartTime != media.NoPTS {
			start = c.StartTime
		}
		if c.StopTime <= start {
			return job.Resolutionf("-to value smaller than -ss; aborting.")
		}
		c.RecordingTime = c.StopTime - start
	}
	return nil
}

// OpenInput resolves one input group: it opens the container through
// opener, seeks it, creates its input streams and appends the file to the
// job.
func OpenInput(ctx context.Context, opener media.Opener, c *options.Context) error {
	j := c.Job
	log := c.Log()
	url := c.Arg
	fileIndex := len(j.InputFiles)

	if err := resolveRecordingTime(c); err != nil {
		return err
	}

	var demuxer *codec.Format
	if c.Format != "" {
		if demuxer = codec.FindDemuxer(c.Format); demuxer == nil {
			return job.Resolutionf("Unknown input format: '%s'", c.Format)
		}
	}

	// --- Demuxer options from the generic stream options ---

	if v, ok := c.AudioSampleRate.Last(); ok {
		c.FormatOpts.Set("sample_rate", strconv.Itoa(v), 0)
	}
	if v, ok := c.AudioChannels.Last(); ok && demuxer != nil && demuxer.HasPrivate("channels") {
		c.FormatOpts.Set("channels", strconv.Itoa(v), 0)
	}
	if v, ok := c.FrameRates.Last(); ok && demuxer != nil && demuxer.HasPrivate("framerate") {
		c.FormatOpts.Set("framerate", v, 0)
	}
	if v, ok := c.FrameSizes.Last(); ok {
		c.FormatOpts.Set("video_size", v, 0)
	}
	if v, ok := c.FramePixFmts.Last(); ok {
		c.FormatOpts.Set("pixel_format", v, 0)
	}

	for _, t := range []media.Type{media.Video, media.Audio, media.Subtitle, media.Data} {
		if name, ok := c.CodecNames.ByType(string(t.Letter())); ok {
			if _, err := findCodec(log, name, t, false); err != nil {
				return err
			}
		}
	}

	scanAllPMTs := false
	if !c.FormatOpts.Has("scan_all_pmts") {
		c.FormatOpts.Set("scan_all_pmts", "1", media.DontOverwrite)
		scanAllPMTs = true
	}
	given := c.FormatOpts.Clone()

	ic, err := opener.Open(ctx, url, media.OpenOptions{
		Format:   c.Format,
		Options:  c.FormatOpts,
		WantData: c.DumpAttachment.Len() > 0,
	})
	if err != nil {
		return job.Wrap(err, "%s", url)
	}
	if scanAllPMTs {
		c.FormatOpts.Delete("scan_all_pmts")
		given.Delete("scan_all_pmts")
	}
	for _, e := range c.CodecOpts.Entries() {
		c.FormatOpts.Delete(e.Key)
	}
	if left := c.FormatOpts.Entries(); len(left) > 0 {
		return job.Resolutionf("Option %s not found.", left[0].Key)
	}

	// --- Start position ---

	if c.StartTime != media.NoPTS && c.StartTimeEOF != media.NoPTS {
		log.Warn("Cannot use -ss and -sseof both, using -ss for %s", url)
		c.StartTimeEOF = media.NoPTS
	}
	if c.StartTimeEOF != media.NoPTS {
		if c.StartTimeEOF >= 0 {
			return job.Resolutionf("-sseof value must be negative; aborting")
		}
		if ic.Duration > 0 {
			c.StartTime = c.StartTimeEOF + ic.Duration
			if c.StartTime < 0 {
				log.Warn("-sseof value seeks to before start of file %s; ignored", url)
				c.StartTime = media.NoPTS
			}
		} else {
			log.Warn("Cannot use -sseof, duration of %s not known", url)
		}
	}

	timestamp := int64(0)
	if c.StartTime != media.NoPTS {
		timestamp = c.StartTime
	}
	if c.SeekTimestamp == 0 && ic.StartTime != media.NoPTS {
		timestamp += ic.StartTime
	}

	if c.StartTime != media.NoPTS {
		target := timestamp
		if !ic.SeekToPTS {
			for _, st := range ic.Streams {
				if st.VideoDelay > 0 {
					target -= seekBackoff
					break
				}
			}
		}
		if err := opener.Seek(ctx, ic, target); err != nil {
			log.Warn("%s: could not seek to position %0.3f", url, float64(timestamp)/media.TimeBase)
		}
	}

	f := &job.InputFile{
		Index:           fileIndex,
		URL:             url,
		Ctx:             ic,
		Opts:            given,
		IstIndex:        len(j.InputStreams),
		NbStreams:       len(ic.Streams),
		Loop:            c.Loop,
		TimeBase:        media.Rational{Num: 1, Den: 1},
		InputTSOffset:   c.InputTSOffset,
		StartTime:       c.StartTime,
		SeekTimestamp:   c.SeekTimestamp != 0,
		RecordingTime:   c.RecordingTime,
		RateEmu:         c.RateEmu,
		AccurateSeek:    c.AccurateSeek,
		ThreadQueueSize: c.ThreadQueueSize,
		NonBlocking:     true,
	}
	f.TSOffset = c.InputTSOffset - timestamp
	if j.Settings.CopyTS {
		f.TSOffset = c.InputTSOffset
		if j.Settings.StartAtZero && ic.StartTime != media.NoPTS {
			f.TSOffset -= ic.StartTime
		}
	}

	if err := addInputStreams(c, f); err != nil {
		return err
	}
	j.InputFiles = append(j.InputFiles, f)

	if err := reportUnused(c, decoderOpts(j.InputStreams[f.IstIndex:]), fileIndex, false); err != nil {
		return err
	}

	for _, da := range c.DumpAttachment.Values {
		for _, st := range ic.Streams {
			ok, err := specifier.Match(ic, st, da.Spec)
			if err != nil {
				return job.Wrap(err, "Invalid stream specifier: %s.", da.Spec)
			}
			if !ok {
				continue
			}
			if err := dumpAttachment(log, fileIndex, st, da.Value); err != nil {
				return err
			}
		}
	}

	j.Settings.InputStreamPotentiallyAvailable = true
	return nil
}

// addInputStreams creates an input stream per container stream. Every
// stream starts discarded until an output or filter graph claims it.
func addInputStreams(c *options.Context, f *job.InputFile) error {
	j := c.Job
	ic := f.Ctx
	for _, st := range ic.Streams {
		ist := &job.InputStream{FileIndex: f.Index, St: st, Discard: true}
		st.Discard = media.DiscardAll
		j.InputStreams = append(j.InputStreams, ist)

		so := newStreamOpts(c, ic, st)
		ist.TSScale = resolve(so, &c.TSScale, 1.0)
		ist.Autorotate = resolve(so, &c.Autorotate, true)
		if tag := resolve(so, &c.CodecTags, ""); tag != "" {
			st.CodecTag = parseCodecTag(tag)
		}
		if so.err != nil {
			return so.err
		}

		dec, forced, err := chooseDecoder(c, ic, st)
		if err != nil {
			return err
		}
		ist.Dec, ist.DecForced = dec, forced
		if ist.DecoderOpts, err = codec.FilterCodecOptions(c.CodecOpts, st.CodecName, ic, st, dec, false); err != nil {
			return err
		}

		ist.ReinitFilters = resolve(so, &c.ReinitFilters, -1)
		ist.UserSetDiscard = media.DiscardNone
		if typeDisabled(c, st.Type) {
			ist.UserSetDiscard = media.DiscardAll
		}
		if discard := resolve(so, &c.Discard, ""); discard != "" {
			d, err := media.ParseDiscard(discard)
			if err != nil {
				return job.Resolutionf("Error parsing discard %s.", discard)
			}
			ist.UserSetDiscard = d
		}

		switch st.Type {
		case media.Video:
			if rate := resolve(so, &c.FrameRates, ""); rate != "" {
				if ist.Framerate, err = codec.ParseVideoRate(rate); err != nil {
					return job.Resolutionf("Error parsing framerate %s.", rate)
				}
			}
			ist.TopFieldFirst = resolve(so, &c.TopFieldFirst, -1)
			if err := resolveHWAccel(c, so, ist); err != nil {
				return err
			}
		case media.Audio:
			ist.GuessLayoutMax = resolve(so, &c.GuessLayoutMax, math.MaxInt32)
			guessChannelLayout(c.Log(), ist)
		case media.Data, media.Subtitle:
			ist.FixSubDuration = resolve(so, &c.FixSubDuration, false)
			if canvas := resolve(so, &c.CanvasSizes, ""); canvas != "" {
				w, h, err := codec.ParseVideoSize(canvas)
				if err != nil {
					return job.Resolutionf("Invalid canvas size: %s.", canvas)
				}
				ist.CanvasWidth, ist.CanvasHeight = w, h
			}
		}
		if so.err != nil {
			return so.err
		}
	}
	return nil
}

// chooseDecoder returns the forced decoder for st, or the default decoder
// of its codec. A forced decoder also rewrites the stream's codec and is
// reported as forced.
func chooseDecoder(c *options.Context, ic *media.Container, st *media.Stream) (*codec.Codec, bool, error) {
	name, err := c.CodecNames.Resolve(c.Log(), ic, st, "")
	if err != nil {
		return nil, false, err
	}
	if name == "" {
		return codec.FindDecoder(st.CodecName), false, nil
	}
	cd, err := findCodec(c.Log(), name, st.Type, false)
	if err != nil {
		return nil, false, err
	}
	st.CodecName = cd.ID
	return cd, true, nil
}

func resolveHWAccel(c *options.Context, so *streamOpts, ist *job.InputStream) error {
	hwaccel := resolve(so, &c.HWAccels, "")
	outFmt := resolve(so, &c.HWAccelOutputFormats, "")
	ist.HWAccelDevice = resolve(so, &c.HWAccelDevices, "")

	switch {
	case outFmt == "" && hwaccel == "cuvid":
		c.Log().Warn("WARNING: defaulting hwaccel_output_format to cuda for compatibility " +
			"with old commandlines. This behaviour is DEPRECATED and will be removed in the " +
			"future. Please explicitly set \"-hwaccel_output_format cuda\".")
		ist.HWAccelOutputFormat = "cuda"
	case outFmt != "":
		if !codec.ValidPixFmt(outFmt) {
			return job.Resolutionf("Unrecognised hwaccel output format: %s", outFmt)
		}
		ist.HWAccelOutputFormat = outFmt
	}

	if hwaccel == "nvdec" || hwaccel == "cuvid" {
		hwaccel = "cuda"
	}
	switch hwaccel {
	case "", "none", "auto":
	default:
		if !options.KnownHWDeviceType(hwaccel) {
			return job.Resolutionf("Unrecognized hwaccel: %s.", hwaccel)
		}
	}
	ist.HWAccel = hwaccel
	return nil
}

// guessChannelLayout fills in the default layout for streams that only
// report a channel count, up to -guess_layout_max channels.
func guessChannelLayout(log job.Logger, ist *job.InputStream) {
	st := ist.St
	if st.ChannelLayout != 0 || st.Channels > ist.GuessLayoutMax {
		return
	}
	layout := codec.DefaultLayout(st.Channels)
	if layout == 0 {
		return
	}
	st.ChannelLayout = layout
	log.Warn("Guessed Channel Layout for Input Stream #%d.%d : %s",
		ist.FileIndex, st.Index, codec.LayoutName(layout))
}

// dumpAttachment writes the stream's extradata to filename, or to its
// "filename" tag.
func dumpAttachment(log job.Logger, fileIndex int, st *media.Stream, filename string) error {
	if len(st.ExtraData) == 0 {
		log.Warn("No extradata to dump in stream #%d:%d.", fileIndex, st.Index)
		return nil
	}
	if filename == "" {
		filename, _ = st.Metadata.Get("filename")
	}
	if filename == "" {
		return job.Resolutionf("No filename specified and no 'filename' tag in stream #%d:%d.", fileIndex, st.Index)
	}
	if err := os.WriteFile(filename, st.ExtraData, 0o644); err != nil {
		return job.Wrap(err, "Could not open file %s for writing.", filename)
	}
	return nil
}

// --- Unused codec options ---

func decoderOpts(ists []*job.InputStream) []*media.Dict {
	out := make([]*media.Dict, 0, len(ists))
	for _, ist := range ists {
		out = append(out, ist.DecoderOpts)
	}
	return out
}

func encoderOpts(osts []*job.OutputStream) []*media.Dict {
	out := make([]*media.Dict, 0, len(osts))
	for _, ost := range osts {
		out = append(out, ost.EncoderOpts)
	}
	return out
}

// reportUnused checks the group's generic codec options against what the
// file's streams picked up. An option of the wrong direction is fatal; one
// no stream used is a warning.
func reportUnused(c *options.Context, used []*media.Dict, fileIndex int, encoding bool) error {
	unused := media.NewDict()
	for _, e := range c.CodecOpts.Entries() {
		name, _, _ := strings.Cut(e.Key, ":")
		unused.Set(name, e.Value, 0)
	}
	for _, d := range used {
		if d == nil {
			continue
		}
		for _, e := range d.Entries() {
			unused.Delete(e.Key)
		}
	}

	want, dir, kind, owner := codec.OptDecoding, "input", "is not a decoding option.", "decoder"
	if encoding {
		want, dir, kind, owner = codec.OptEncoding, "output", "is not an encoding option.", "encoder"
	}
	for _, e := range unused.Entries() {
		o := codec.FindCodecOption(e.Key, true)
		if o == nil || codec.FindFormatOption(e.Key, true) != nil {
			continue
		}
		if !o.Has(want) {
			return job.Resolutionf("Codec AVOption %s (%s) specified for %s file #%d (%s) %s",
				e.Key, o.Help, dir, fileIndex, c.Arg, kind)
		}
		if encoding && e.Key == "gop_timecode" {
			continue
		}
		c.Log().Warn("Codec AVOption %s (%s) specified for %s file #%d (%s) has not been used for any stream. "+
			"The most likely reason is either wrong type (e.g. a video option with no video streams) "+
			"or that it is a private option of some %s which was not actually used for any stream.",
			e.Key, o.Help, dir, fileIndex, c.Arg, owner)
	}
	return nil
}
