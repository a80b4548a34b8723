package planner

import (
	"github.com/backmassage/muxgraph/internal/codec"
	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
	"github.com/backmassage/muxgraph/internal/options"
)

// newAudioStream builds an audio output stream fed by the input stream at
// source, or by a filter graph when source is -1.
func newAudioStream(c *options.Context, of *job.OutputFile, source int) (*job.OutputStream, error) {
	ost, err := newOutputStream(c, of, media.Audio, source)
	if err != nil {
		return nil, err
	}
	so := newStreamOpts(c, of.Ctx, ost.St)

	ost.FilterScript = resolve(so, &c.FilterScripts, "")
	ost.FilterOption = resolve(so, &c.Filters, "")
	if so.err != nil {
		return nil, so.err
	}

	if ost.StreamCopy {
		if err := checkStreamcopyFilters(ost); err != nil {
			return nil, err
		}
		return ost, nil
	}

	p := &ost.Params
	p.Channels = resolve(so, &c.AudioChannels, p.Channels)
	if sampleFmt := resolve(so, &c.SampleFmts, ""); sampleFmt != "" {
		if codec.FindSampleFmt(sampleFmt) == nil {
			return nil, job.Resolutionf("Invalid sample format '%s'", sampleFmt)
		}
		p.SampleFmt = sampleFmt
	}
	p.SampleRate = resolve(so, &c.AudioSampleRate, p.SampleRate)
	ost.Apad = resolve(so, &c.Apad, "")
	if so.err != nil {
		return nil, so.err
	}

	if ost.Avfilter, err = ostFilters(ost); err != nil {
		return nil, err
	}
	mapChannels(c, ost)
	return ost, nil
}

// mapChannels collects the -map_channel entries addressed to ost. A muted
// entry (-1) always applies; the others must name the stream feeding ost.
func mapChannels(c *options.Context, ost *job.OutputStream) {
	j := c.Job
	for _, m := range c.AudioChannelMaps {
		if (m.OFileIndex != -1 && m.OFileIndex != ost.FileIndex) ||
			(m.OStreamIndex != -1 && m.OStreamIndex != ost.Index) {
			continue
		}

		var ist *job.InputStream
		switch {
		case m.ChannelIndex == -1:
		case ost.SourceIndex < 0:
			c.Log().Error("Cannot determine input stream for channel mapping %d.%d", ost.FileIndex, ost.Index)
			continue
		default:
			ist = j.InputStreams[ost.SourceIndex]
		}

		if ist == nil || (ist.FileIndex == m.FileIndex && ist.St.Index == m.StreamIndex) {
			ost.AudioChannelsMap = append(ost.AudioChannelsMap, m.ChannelIndex)
		}
	}
}
