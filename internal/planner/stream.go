package planner

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/backmassage/muxgraph/internal/codec"
	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
	"github.com/backmassage/muxgraph/internal/options"
)

const qp2Lambda = job.QP2Lambda

const (
	defaultMuxingQueueSize      = 128
	defaultMuxingQueueThreshold = 50 * 1024 * 1024
)

// --- Per-stream option resolution ---

// streamOpts resolves specifier lists against one stream. The first
// specifier error sticks and later lookups return their defaults.
type streamOpts struct {
	log job.Logger
	c   *media.Container
	st  *media.Stream
	err error
}

func newStreamOpts(c *options.Context, ctx *media.Container, st *media.Stream) *streamOpts {
	return &streamOpts{log: c.Log(), c: ctx, st: st}
}

func resolve[T any](so *streamOpts, l *options.SpecList[T], def T) T {
	if so.err != nil {
		return def
	}
	v, err := l.Resolve(so.log, so.c, so.st, def)
	if err != nil {
		so.err = err
		return def
	}
	return v
}

// --- Codec lookup ---

// findCodec looks name up as an encoder or decoder, falling back to the
// codec descriptor of the same name, and checks its media type.
func findCodec(log job.Logger, name string, t media.Type, encoder bool) (*codec.Codec, error) {
	kind, byName, byID := "decoder", codec.FindDecoderByName, codec.FindDecoder
	if encoder {
		kind, byName, byID = "encoder", codec.FindEncoderByName, codec.FindEncoder
	}
	cd := byName(name)
	if cd == nil {
		if desc := codec.DescriptorByName(name); desc != nil {
			if cd = byID(desc.Name); cd != nil {
				log.Verbose("Matched %s '%s' for codec '%s'.", kind, cd.Name, desc.Name)
			}
		}
	}
	if cd == nil {
		return nil, job.Resolutionf("Unknown %s '%s'", kind, name)
	}
	if cd.Type != t {
		return nil, job.Resolutionf("Invalid %s type '%s'", kind, name)
	}
	return cd, nil
}

// chooseEncoder picks the encoder for ost from -c, or from the muxer's
// default codec for the stream type. Data and attachment streams are always
// copied.
func chooseEncoder(c *options.Context, of *job.OutputFile, ost *job.OutputStream) error {
	st := ost.St
	switch st.Type {
	case media.Video, media.Audio, media.Subtitle:
	default:
		ost.StreamCopy = true
		return nil
	}

	name, err := c.CodecNames.Resolve(c.Log(), of.Ctx, st, "")
	if err != nil {
		return err
	}
	switch name {
	case "":
		st.CodecName = of.Format.GuessCodec(of.URL, st.Type)
		if ost.Enc = codec.FindEncoder(st.CodecName); ost.Enc == nil {
			id := st.CodecName
			if id == "" {
				id = "none"
			}
			return job.Resolutionf("Automatic encoder selection failed for output stream #%d:%d. "+
				"Default encoder for format %s (codec %s) is probably disabled. Please choose an encoder manually.",
				ost.FileIndex, ost.Index, of.Format.Name, id)
		}
	case "copy":
		ost.StreamCopy = true
	default:
		if ost.Enc, err = findCodec(c.Log(), name, st.Type, true); err != nil {
			return err
		}
		st.CodecName = ost.Enc.ID
	}
	ost.EncodingNeeded = !ost.StreamCopy
	return nil
}

// --- Output stream ---

// newOutputStream appends a stream of type t to the output file and
// resolves the options every stream type shares. source is the feeding
// input stream, or -1.
func newOutputStream(c *options.Context, of *job.OutputFile, t media.Type, source int) (*job.OutputStream, error) {
	j := c.Job
	log := c.Log()

	st := of.Ctx.AddStream(t)
	if id, ok := c.StreamIDMap[st.Index]; ok {
		st.ID = id
	}
	ost := &job.OutputStream{
		FileIndex:   of.Index,
		Index:       st.Index,
		SourceIndex: source,
		St:          st,
	}
	j.OutputStreams = append(j.OutputStreams, ost)

	if err := chooseEncoder(c, of, ost); err != nil {
		return nil, job.Wrap(err, "Error selecting an encoder for stream %d:%d", ost.FileIndex, ost.Index)
	}

	so := newStreamOpts(c, of.Ctx, st)
	id := ""
	if ost.Enc != nil {
		id = ost.Enc.ID
	}
	opts, err := codec.FilterCodecOptions(c.CodecOpts, id, of.Ctx, st, ost.Enc, true)
	if err != nil {
		return nil, err
	}
	ost.EncoderOpts = opts

	if ost.Enc != nil {
		if preset := resolve(so, &c.Presets, ""); preset != "" {
			if err := applyAVPreset(j, ost, preset); err != nil {
				return nil, err
			}
		}
	}
	ost.Autoscale = resolve(so, &c.Autoscale, true)

	if c.Bitexact {
		ost.Params.Flags |= job.FlagBitexact
	}

	if tb := resolve(so, &c.TimeBases, ""); tb != "" {
		q, err := codec.ParseRational(tb)
		if err != nil || q.Num <= 0 || q.Den <= 0 {
			return nil, job.Resolutionf("Invalid time base: %s", tb)
		}
		st.TimeBase = q
	}
	if tb := resolve(so, &c.EncTimeBases, ""); tb != "" {
		q, err := codec.ParseRational(tb)
		if err != nil || q.Den <= 0 {
			return nil, job.Resolutionf("Invalid time base: %s", tb)
		}
		ost.EncTimeBase = q
	}

	ost.MaxFrames = resolve(so, &c.MaxFrames, int64(math.MaxInt64))
	for _, v := range c.MaxFrames.Values {
		if v.Spec == "" && t != media.Video {
			log.Warn("Applying unspecific -frames to non video streams, maybe you meant -vframes ?")
			break
		}
	}

	ost.CopyPriorStart = resolve(so, &c.CopyPriorStart, -1)

	if bsfs := resolve(so, &c.BitstreamFilters, ""); bsfs != "" {
		list, err := parseBSFList(bsfs)
		if err != nil {
			return nil, job.Wrap(err, "Error parsing bitstream filter sequence '%s'", bsfs)
		}
		ost.BSFs = list
	}

	if tag := resolve(so, &c.CodecTags, ""); tag != "" {
		st.CodecTag = parseCodecTag(tag)
		ost.Params.CodecTag = st.CodecTag
	}

	if q := resolve(so, &c.QScale, -1.0); q >= 0 {
		ost.Params.Flags |= job.FlagQScale
		ost.Params.GlobalQuality = int(qp2Lambda * q)
	}

	ost.Disposition = resolve(so, &c.Disposition, "")
	ost.MaxMuxingQueueSize = resolve(so, &c.MaxMuxingQueueSize, defaultMuxingQueueSize)
	ost.MuxingQueueDataThreshold = int64(resolve(so, &c.MuxingQueueDataThreshold, defaultMuxingQueueThreshold))
	if so.err != nil {
		return nil, so.err
	}

	if of.Format.Flags&codec.FormatGlobalHeader != 0 {
		ost.Params.Flags |= job.FlagGlobalHeader
	}

	ost.SwsOpts = c.SwsOpts.Clone()
	ost.SwrOpts = c.SwrOpts.Clone()
	if ost.Enc != nil && codec.ExactBitsPerSample(ost.Enc.ID) == 24 {
		ost.SwrOpts.Set("output_sample_bits", "24", 0)
	}

	if source >= 0 {
		ist := j.InputStreams[source]
		ost.SyncIst = ist
		ist.Discard = false
		ist.St.Discard = ist.UserSetDiscard
		if ost.StreamCopy {
			copyStreamParams(st, ist.St)
		}
	}
	return ost, nil
}

// applyAVPreset merges the encoder's -pre file under the options already
// given for the stream.
func applyAVPreset(j *job.Job, ost *job.OutputStream, preset string) error {
	entries, err := options.LoadAVPreset(preset, ost.Enc.Name, j.Settings.DataDir)
	if errors.Is(err, os.ErrNotExist) {
		return job.Resolutionf("Preset %s specified for stream %d:%d, but could not be opened.",
			preset, ost.FileIndex, ost.Index)
	}
	if err != nil {
		return job.Wrap(err, "Error parsing preset %s for stream %d:%d", preset, ost.FileIndex, ost.Index)
	}
	for _, e := range entries {
		ost.EncoderOpts.Set(e.Key, e.Value, media.DontOverwrite)
	}
	return nil
}

// copyStreamParams carries the codec parameters of a copied stream over to
// the output container.
func copyStreamParams(dst, src *media.Stream) {
	dst.CodecName = src.CodecName
	if dst.CodecTag == 0 {
		dst.CodecTag = src.CodecTag
	}
	dst.Profile = src.Profile
	dst.Width, dst.Height = src.Width, src.Height
	dst.PixFmt = src.PixFmt
	dst.SampleFmt = src.SampleFmt
	dst.SampleRate = src.SampleRate
	dst.Channels = src.Channels
	dst.ChannelLayout = src.ChannelLayout
	dst.AvgFrameRate = src.AvgFrameRate
	dst.ExtraData = src.ExtraData
}

// --- Small parsers ---

// parseBSFList splits "name[=opts][,name...]" into its filters.
func parseBSFList(s string) ([]string, error) {
	parts := strings.Split(s, ",")
	for _, p := range parts {
		name, _, _ := strings.Cut(p, "=")
		if strings.TrimSpace(name) == "" {
			return nil, job.Resolutionf("Invalid argument")
		}
	}
	return parts, nil
}

// parseCodecTag reads a numeric tag, or else the first four bytes of s as a
// little-endian fourcc.
func parseCodecTag(s string) uint32 {
	if n, err := strconv.ParseUint(s, 0, 32); err == nil {
		return uint32(n)
	}
	var b [4]byte
	copy(b[:], s)
	return binary.LittleEndian.Uint32(b[:])
}

func typeDisabled(c *options.Context, t media.Type) bool {
	switch t {
	case media.Video:
		return c.VideoDisable
	case media.Audio:
		return c.AudioDisable
	case media.Subtitle:
		return c.SubtitleDisable
	case media.Data:
		return c.DataDisable
	}
	return false
}
