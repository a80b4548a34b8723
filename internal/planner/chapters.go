package planner

import (
	"math"

	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
	"github.com/backmassage/muxgraph/internal/options"
)

// copyChapters copies the chapters of the -map_chapters input, or of the
// first input that has any, into the output.
func copyChapters(c *options.Context, of *job.OutputFile) error {
	j := c.Job
	src := c.ChaptersInputFile
	if src >= len(j.InputFiles) {
		if src != math.MaxInt32 {
			return job.Resolutionf("Invalid input file index %d in chapter mapping.", src)
		}
		src = -1
		for i, f := range j.InputFiles {
			if len(f.Ctx.Chapters) > 0 {
				src = i
				break
			}
		}
	}
	if src < 0 {
		return nil
	}
	of.ChaptersFrom = src
	appendChapters(j.InputFiles[src], of, !c.MetadataChaptersManual)
	return nil
}

// appendChapters shifts the input chapters by the input's timestamp offset
// and the output start, and clips them to the output's recording window.
func appendChapters(ifile *job.InputFile, of *job.OutputFile, copyMeta bool) {
	start := of.StartTime
	if start == media.NoPTS {
		start = 0
	}
	for _, in := range ifile.Ctx.Chapters {
		tsOff := media.RescaleQ(start-ifile.TSOffset, media.TimeBaseQ, in.TimeBase)
		rt := int64(math.MaxInt64)
		if of.RecordingTime != math.MaxInt64 {
			rt = media.RescaleQ(of.RecordingTime, media.TimeBaseQ, in.TimeBase)
		}

		if in.End < tsOff {
			continue
		}
		if rt != math.MaxInt64 && in.Start > rt+tsOff {
			break
		}

		out := &media.Chapter{
			ID:       in.ID,
			TimeBase: in.TimeBase,
			Start:    max(0, in.Start-tsOff),
			End:      min(rt, in.End-tsOff),
		}
		if copyMeta {
			out.Metadata = *in.Metadata.Clone()
		}
		of.Ctx.Chapters = append(of.Ctx.Chapters, out)
	}
}
