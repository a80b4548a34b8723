package planner

import (
	"math"
	"strconv"

	"github.com/backmassage/muxgraph/internal/codec"
	"github.com/backmassage/muxgraph/internal/filtergraph"
	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
	"github.com/backmassage/muxgraph/internal/options"
)

// OpenOutput resolves one output group: it picks the muxer, builds the
// output streams from the maps (or by automatic selection), adds the
// attachments and fills in metadata, chapters and programs.
func OpenOutput(c *options.Context) error {
	j := c.Job
	url := c.Arg

	if err := resolveRecordingTime(c); err != nil {
		return err
	}
	if url == "-" && c.Format == "" {
		return job.Resolutionf("Output to stdout (-) needs an explicit format; use -f.")
	}

	mux := codec.GuessMuxer(c.Format, url)
	if mux == nil {
		if c.Format != "" {
			return job.Resolutionf("Requested output format '%s' is not a suitable output format", c.Format)
		}
		return job.Resolutionf("Unable to find a suitable output format for '%s'", url)
	}

	of := &job.OutputFile{
		Index:         len(j.OutputFiles),
		URL:           url,
		Format:        mux,
		Ctx:           media.NewContainer(url, mux.Name),
		Opts:          c.FormatOpts.Clone(),
		OstIndex:      len(j.OutputStreams),
		RecordingTime: c.RecordingTime,
		StartTime:     c.StartTime,
		LimitFilesize: c.LimitFilesize,
		Shortest:      c.Shortest,
		Bitexact:      c.Bitexact,
		ChaptersFrom:  -1,
	}
	j.OutputFiles = append(j.OutputFiles, of)
	if c.RecordingTime != math.MaxInt64 {
		of.Ctx.Duration = c.RecordingTime
	}

	// Unlabeled complex graph outputs always go to the first output that
	// sees them and suppress automatic selection of their type.
	for _, fg := range j.FilterGraphs {
		for _, ofilter := range fg.Outputs {
			if ofilter.Bound() || ofilter.Label != "" {
				continue
			}
			switch ofilter.Type {
			case media.Video:
				c.VideoDisable = true
			case media.Audio:
				c.AudioDisable = true
			case media.Subtitle:
				c.SubtitleDisable = true
			}
			if err := initOutputFilter(c, of, ofilter); err != nil {
				return err
			}
		}
	}

	var err error
	if len(c.StreamMaps) == 0 {
		err = autoSelect(c, of)
	} else {
		err = mapStreams(c, of)
	}
	if err != nil {
		return err
	}

	for _, path := range c.Attachments {
		if err := attachFile(c, of, path); err != nil {
			return err
		}
	}

	if len(of.Ctx.Streams) == 0 && mux.Flags&codec.FormatNoStreams == 0 {
		return job.Resolutionf("Output file #%d does not contain any stream", of.Index)
	}

	osts := j.OutputStreams[of.OstIndex:]
	if err := reportUnused(c, encoderOpts(osts), of.Index, true); err != nil {
		return err
	}

	for _, ost := range osts {
		if ost.EncodingNeeded && ost.SourceIndex >= 0 {
			ist := j.InputStreams[ost.SourceIndex]
			ist.DecodingNeeded |= job.DecodingForOST
			if ost.St.Type == media.Video || ost.St.Type == media.Audio {
				if err := filtergraph.RegisterSimple(j, ist, ost); err != nil {
					return job.Wrap(err, "Error initializing a simple filtergraph between streams %d:%d->%d:%d",
						ist.FileIndex, ist.St.Index, of.Index, ost.Index)
				}
			}
		}
		setFilterConstraints(ost)
		if err := applyDisposition(j, ost); err != nil {
			return err
		}
	}

	if mux.Flags&codec.FormatNeedNumber != 0 && !hasFrameNumber(url) {
		return job.Resolutionf("%s: Invalid argument", url)
	}
	if mux.Flags&codec.FormatNoStreams == 0 && !j.Settings.InputStreamPotentiallyAvailable {
		return job.Resolutionf("No input streams but output needs an input stream")
	}

	if c.MuxPreload != 0 {
		of.Opts.Set("preload", strconv.FormatInt(int64(c.MuxPreload*media.TimeBase), 10), 0)
	}
	of.MaxDelay = int64(c.MuxMaxDelay * media.TimeBase)

	if err := mapMetadata(c, of); err != nil {
		return err
	}
	if err := copyChapters(c, of); err != nil {
		return err
	}
	copyDefaultMetadata(c, of)
	if err := setPrograms(c, of); err != nil {
		return err
	}
	return setMetadata(c, of)
}

// mapStreams builds the output streams named by -map, in order.
func mapStreams(c *options.Context, of *job.OutputFile) error {
	j := c.Job
	for _, m := range c.StreamMaps {
		if m.Disabled {
			continue
		}

		if m.LinkLabel != "" {
			ofilter := findLabeledOutput(j, m.LinkLabel)
			if ofilter == nil {
				return job.Resolutionf("Output with label '%s' does not exist in any defined filter graph, "+
					"or was already used elsewhere.", m.LinkLabel)
			}
			if err := initOutputFilter(c, of, ofilter); err != nil {
				return err
			}
			continue
		}

		src := j.InputFiles[m.FileIndex].IstIndex + m.StreamIndex
		ist := j.InputStreams[src]
		if ist.UserSetDiscard == media.DiscardAll {
			return job.Resolutionf("Stream #%d:%d is disabled and cannot be mapped.", m.FileIndex, m.StreamIndex)
		}
		if typeDisabled(c, ist.St.Type) {
			continue
		}

		var (
			ost *job.OutputStream
			err error
		)
		switch ist.St.Type {
		case media.Video:
			ost, err = newVideoStream(c, of, src)
		case media.Audio:
			ost, err = newAudioStream(c, of, src)
		case media.Subtitle:
			ost, err = newSubtitleStream(c, of, src)
		case media.Data:
			ost, err = newDataStream(c, of, src)
		case media.Attachment:
			ost, err = newAttachmentStream(c, of, src)
		case media.Unknown:
			if j.Settings.CopyUnknown {
				ost, err = newUnknownStream(c, of, src)
				break
			}
			fallthrough
		default:
			if !j.Settings.IgnoreUnknown {
				return job.Resolutionf("Cannot map stream #%d:%d - unsupported type.\n"+
					"If you want unsupported types ignored instead of failing, please use the -ignore_unknown option\n"+
					"If you want them copied, please use -copy_unknown", m.FileIndex, m.StreamIndex)
			}
			c.Log().Warn("Cannot map stream #%d:%d - unsupported type.", m.FileIndex, m.StreamIndex)
		}
		if err != nil {
			return err
		}
		if ost != nil {
			ost.SyncIst = j.InputStreams[j.InputFiles[m.SyncFileIndex].IstIndex+m.SyncStreamIndex]
		}
	}
	return nil
}

// hasFrameNumber reports whether path contains exactly one %d style frame
// number pattern, as image sequence muxers require.
func hasFrameNumber(path string) bool {
	found := false
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		i++
		for i < len(path) && path[i] >= '0' && path[i] <= '9' {
			i++
		}
		if i >= len(path) {
			return false
		}
		switch path[i] {
		case '%':
		case 'd':
			if found {
				return false
			}
			found = true
		default:
			return false
		}
	}
	return found
}
