package filtergraph

import (
	"fmt"
	"strings"

	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
	"github.com/backmassage/muxgraph/internal/specifier"
)

// AddComplex records a complex graph description on j. The graph is
// parsed later by InitComplex, once every input is open.
func AddComplex(j *job.Job, desc string) *job.FilterGraph {
	fg := &job.FilterGraph{Index: len(j.FilterGraphs), Desc: desc}
	j.FilterGraphs = append(j.FilterGraphs, fg)
	j.Settings.InputStreamPotentiallyAvailable = true
	return fg
}

// InitComplex parses fg, binds its open inputs to input streams and creates
// one unbound output pad per open output.
func InitComplex(j *job.Job, fg *job.FilterGraph) error {
	g, err := Parse(fg.Desc)
	if err != nil {
		return job.Wrap(err, "Error initializing complex filtergraph %d", fg.Index)
	}
	for _, in := range g.Inputs {
		if err := initInput(j, fg, in); err != nil {
			return err
		}
	}
	for _, out := range g.Outputs {
		fg.Outputs = append(fg.Outputs, &job.OutputFilter{
			Graph: fg,
			Name:  out.Describe(),
			Label: out.Label,
			Type:  out.Type,
		})
	}
	return nil
}

func initInput(j *job.Job, fg *job.FilterGraph, in Pad) error {
	if in.Type != media.Video && in.Type != media.Audio {
		return job.Resolutionf("Only video and audio filters supported currently.")
	}

	var ist *job.InputStream
	if in.Label != "" {
		fileIdx, rest, _ := media.LeadingInt(in.Label)
		if fileIdx < 0 || fileIdx >= len(j.InputFiles) {
			return job.Resolutionf("Invalid file index %d in filtergraph description %s.", fileIdx, fg.Desc)
		}
		f := j.InputFiles[fileIdx]
		spec := strings.TrimPrefix(rest, ":")
		var st *media.Stream
		for _, cand := range f.Ctx.Streams {
			if cand.Type != in.Type && !(cand.Type == media.Subtitle && in.Type == media.Video) {
				continue
			}
			ok, err := specifier.Match(f.Ctx, cand, spec)
			if err != nil {
				return job.Wrap(err, "Invalid stream specifier: %s", in.Label)
			}
			if ok {
				st = cand
				break
			}
		}
		if st == nil {
			return job.Resolutionf("Stream specifier '%s' in filtergraph description %s matches no streams.", in.Label, fg.Desc)
		}
		ist = j.InputStreams[f.IstIndex+st.Index]
		if ist.UserSetDiscard == media.DiscardAll {
			return job.Resolutionf("Stream specifier '%s' in filtergraph description %s refers to disabled stream.", in.Label, fg.Desc)
		}
	} else {
		for _, cand := range j.InputStreams {
			if cand.UserSetDiscard == media.DiscardAll {
				continue
			}
			if cand.St.Type == in.Type && cand.Discard {
				ist = cand
				break
			}
		}
		if ist == nil {
			return job.Resolutionf("Cannot find a matching stream for unlabeled input pad %d on filter %s", in.PadIndex, in.Filter)
		}
	}

	ist.Discard = false
	ist.DecodingNeeded |= job.DecodingForFilter
	ist.St.Discard = media.DiscardNone

	ifilter := &job.InputFilter{Graph: fg, Ist: ist, Name: in.Describe(), Type: ist.St.Type}
	ist.Filters = append(ist.Filters, ifilter)
	fg.Inputs = append(fg.Inputs, ifilter)
	return nil
}

// RegisterSimple connects ist to ost through a one-input, one-output graph
// built from the stream's filter string.
func RegisterSimple(j *job.Job, ist *job.InputStream, ost *job.OutputStream) error {
	if ist == nil || ost == nil {
		return fmt.Errorf("simple filtergraph needs both an input and an output stream")
	}
	fg := &job.FilterGraph{Index: len(j.FilterGraphs), Desc: ost.Avfilter, Simple: true}

	ofilter := &job.OutputFilter{Graph: fg, Ost: ost, Type: ost.St.Type, Name: "output"}
	ost.Filter = ofilter
	fg.Outputs = append(fg.Outputs, ofilter)

	ifilter := &job.InputFilter{
		Graph: fg,
		Ist:   ist,
		Type:  ist.St.Type,
		Name:  fmt.Sprintf("graph %d input from stream %d:%d", fg.Index, ist.FileIndex, ist.St.Index),
	}
	fg.Inputs = append(fg.Inputs, ifilter)
	ist.Filters = append(ist.Filters, ifilter)

	j.FilterGraphs = append(j.FilterGraphs, fg)
	return nil
}
