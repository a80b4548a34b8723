package planner

import (
	"fmt"
	"os"
	"strings"

	"github.com/backmassage/muxgraph/internal/codec"
	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
	"github.com/backmassage/muxgraph/internal/options"
)

// defaultPassLogPrefix names first-pass stats files when -passlogfile is
// not given.
const defaultPassLogPrefix = "ffmpeg2pass"

// newVideoStream builds a video output stream fed by the input stream at
// source, or by a filter graph when source is -1.
func newVideoStream(c *options.Context, of *job.OutputFile, source int) (*job.OutputStream, error) {
	ost, err := newOutputStream(c, of, media.Video, source)
	if err != nil {
		return nil, err
	}
	j := c.Job
	so := newStreamOpts(c, of.Ctx, ost.St)

	rate := resolve(so, &c.FrameRates, "")
	if rate != "" {
		if ost.FrameRate, err = codec.ParseVideoRate(rate); err != nil {
			return nil, job.Resolutionf("Invalid framerate value: %s", rate)
		}
	}
	maxRate := resolve(so, &c.MaxFrameRates, "")
	if maxRate != "" {
		if ost.MaxFrameRate, err = codec.ParseVideoRate(maxRate); err != nil {
			return nil, job.Resolutionf("Invalid maximum framerate value: %s", maxRate)
		}
	}
	if rate != "" && maxRate != "" {
		return nil, job.Resolutionf("Only one of -fpsmax and -r can be set for a stream.")
	}
	if (rate != "" || maxRate != "") && j.Settings.VideoSyncMethod == job.VSyncPassthrough {
		c.Log().Error("Using -vsync 0 and -r/-fpsmax can produce invalid output files")
	}

	if aspect := resolve(so, &c.FrameAspectRatios, ""); aspect != "" {
		q, err := codec.ParseRational(aspect)
		if err != nil || q.Num <= 0 || q.Den <= 0 {
			return nil, job.Resolutionf("Invalid aspect ratio: %s", aspect)
		}
		ost.FrameAspectRatio = q
	}

	ost.FilterScript = resolve(so, &c.FilterScripts, "")
	ost.FilterOption = resolve(so, &c.Filters, "")
	if so.err != nil {
		return nil, so.err
	}

	if ost.StreamCopy {
		ost.CopyInitialNonkeyframes = resolve(so, &c.CopyInitialNonkeyframes, false)
		if so.err != nil {
			return nil, so.err
		}
		if err := checkStreamcopyFilters(ost); err != nil {
			return nil, err
		}
		return ost, nil
	}
	if err := setVideoEncoding(c, so, ost); err != nil {
		return nil, err
	}
	return ost, nil
}

// setVideoEncoding resolves the options that only apply when the stream is
// encoded.
func setVideoEncoding(c *options.Context, so *streamOpts, ost *job.OutputStream) error {
	j := c.Job
	p := &ost.Params
	var err error

	if size := resolve(so, &c.FrameSizes, ""); size != "" {
		if p.Width, p.Height, err = codec.ParseVideoSize(size); err != nil {
			return job.Resolutionf("Invalid frame size: %s.", size)
		}
	}

	p.BitsPerRawSample = j.Settings.FrameBitsPerRawSample

	pixFmt := resolve(so, &c.FramePixFmts, "")
	if strings.HasPrefix(pixFmt, "+") {
		ost.KeepPixFmt = true
		pixFmt = pixFmt[1:]
	}
	if pixFmt != "" {
		if !codec.ValidPixFmt(pixFmt) {
			return job.Resolutionf("Unknown pixel format requested: %s.", pixFmt)
		}
		p.PixFmt = pixFmt
	}

	if j.Settings.IntraOnly {
		ost.EncoderOpts.Set("g", "0", media.DontOverwrite)
	}

	if p.IntraMatrix, err = matrixOpt(so, &c.IntraMatrices); err != nil {
		return err
	}
	if p.ChromaIntraMatrix, err = matrixOpt(so, &c.ChromaIntraMatrices); err != nil {
		return err
	}
	if p.InterMatrix, err = matrixOpt(so, &c.InterMatrices); err != nil {
		return err
	}

	if rc := resolve(so, &c.RCOverrides, ""); rc != "" {
		if p.RCOverride, err = parseRCOverride(rc); err != nil {
			return err
		}
	}

	if j.Settings.PSNR {
		p.Flags |= job.FlagPSNR
	}

	pass := resolve(so, &c.Pass, 0)
	if pass&1 != 0 {
		p.Flags |= job.FlagPass1
		ost.EncoderOpts.Set("flags", "+pass1", media.Append)
	}
	if pass&2 != 0 {
		p.Flags |= job.FlagPass2
		ost.EncoderOpts.Set("flags", "+pass2", media.Append)
	}
	ost.LogfilePrefix = resolve(so, &c.PassLogFiles, "")
	if so.err != nil {
		return so.err
	}
	if pass != 0 {
		if err := setPassLog(j, ost); err != nil {
			return err
		}
	}

	ost.ForcedKeyframes = resolve(so, &c.ForcedKeyFrames, "")
	ost.ForceFPS = resolve(so, &c.ForceFPS, false)
	ost.TopFieldFirst = resolve(so, &c.TopFieldFirst, -1)
	if so.err != nil {
		return so.err
	}

	ost.Avfilter, err = ostFilters(ost)
	return err
}

// setPassLog names the stats file of a two-pass encode. libx264 manages the
// file itself; other encoders read it back for the second pass.
func setPassLog(j *job.Job, ost *job.OutputStream) error {
	prefix := ost.LogfilePrefix
	if prefix == "" {
		prefix = defaultPassLogPrefix
	}
	ost.PassLogFile = fmt.Sprintf("%s-%d.log", prefix, len(j.OutputStreams)-1)

	if ost.Enc.Name == "libx264" {
		ost.EncoderOpts.Set("stats", ost.PassLogFile, media.DontOverwrite)
		return nil
	}
	if ost.Params.Flags&job.FlagPass2 != 0 {
		data, err := os.ReadFile(ost.PassLogFile)
		if err != nil {
			return job.Wrap(err, "Error reading log file '%s' for pass-2 encoding", ost.PassLogFile)
		}
		ost.Params.StatsIn = string(data)
	}
	return nil
}

func matrixOpt(so *streamOpts, l *options.SpecList[string]) ([]uint16, error) {
	s := resolve(so, l, "")
	if s == "" {
		return nil, so.err
	}
	return parseMatrix(s)
}

// parseMatrix reads the 64 comma separated coefficients of a quantizer
// matrix.
func parseMatrix(s string) ([]uint16, error) {
	out := make([]uint16, 64)
	p := s
	for i := 0; ; i++ {
		n, _, _ := media.LeadingInt(p)
		out[i] = uint16(n)
		if i == 63 {
			return out, nil
		}
		k := strings.IndexByte(p, ',')
		if k < 0 {
			return nil, job.Resolutionf("Syntax error in matrix \"%s\" at coeff %d", s, i)
		}
		p = p[k+1:]
	}
}

// parseRCOverride reads "start,end,q" triples separated by '/'. A positive
// q is a fixed quantizer, a negative one a quality factor in percent.
func parseRCOverride(s string) ([]job.RCOverride, error) {
	var out []job.RCOverride
	for _, part := range strings.Split(s, "/") {
		var start, end, q int
		if n, _ := fmt.Sscanf(part, "%d,%d,%d", &start, &end, &q); n != 3 {
			return nil, job.Resolutionf("error parsing rc_override")
		}
		o := job.RCOverride{StartFrame: start, EndFrame: end}
		if q > 0 {
			o.QScale = q
			o.QualityFactor = 1.0
		} else {
			o.QualityFactor = float64(-q) / 100
		}
		out = append(out, o)
	}
	return out, nil
}
