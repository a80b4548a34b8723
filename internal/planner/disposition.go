package planner

import (
	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
)

// applyDisposition sets the output stream disposition. Streams inherit the
// source stream's flags; -disposition replaces them, or adjusts them when
// it starts with '+' or '-'.
func applyDisposition(j *job.Job, ost *job.OutputStream) error {
	var base media.Disposition
	if ost.SourceIndex >= 0 {
		base = j.InputStreams[ost.SourceIndex].St.Disposition
	}
	if ost.Disposition == "" {
		ost.St.Disposition = base
		return nil
	}
	d, err := media.ParseDisposition(base, ost.Disposition)
	if err != nil {
		return job.Wrap(err, "Invalid disposition '%s'.", ost.Disposition)
	}
	ost.St.Disposition = d
	return nil
}
