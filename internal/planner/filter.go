package planner

import (
	"os"

	"github.com/backmassage/muxgraph/internal/codec"
	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
	"github.com/backmassage/muxgraph/internal/options"
)

// ostFilters returns the simple filter graph description for an encoded
// stream: -filter_script contents, -filter, or a passthrough filter.
func ostFilters(ost *job.OutputStream) (string, error) {
	if ost.FilterScript != "" && ost.FilterOption != "" {
		return "", job.Resolutionf("Both -filter and -filter_script set for output stream #%d:%d.",
			ost.FileIndex, ost.Index)
	}
	if ost.FilterScript != "" {
		data, err := os.ReadFile(ost.FilterScript)
		if err != nil {
			return "", job.Wrap(err, "Error opening file %s.", ost.FilterScript)
		}
		return string(data), nil
	}
	if ost.FilterOption != "" {
		return ost.FilterOption, nil
	}
	if ost.St.Type == media.Video {
		return "null", nil
	}
	return "anull", nil
}

// checkStreamcopyFilters refuses filters on a copied stream.
func checkStreamcopyFilters(ost *job.OutputStream) error {
	if ost.FilterScript == "" && ost.FilterOption == "" {
		return nil
	}
	kind, val := "Filtergraph", ost.FilterOption
	if val == "" {
		kind, val = "Filtergraph script", ost.FilterScript
	}
	return job.Resolutionf("%s '%s' was defined for %s output stream %d:%d but codec copy was selected.\n"+
		"Filtering and streamcopy cannot be used together.", kind, val, ost.St.Type, ost.FileIndex, ost.Index)
}

// initOutputFilter creates the output stream fed by a complex filter graph
// output pad and binds the two.
func initOutputFilter(c *options.Context, of *job.OutputFile, ofilter *job.OutputFilter) error {
	var (
		ost *job.OutputStream
		err error
	)
	switch ofilter.Type {
	case media.Video:
		ost, err = newVideoStream(c, of, -1)
	case media.Audio:
		ost, err = newAudioStream(c, of, -1)
	default:
		return job.Resolutionf("Only video and audio filters are supported currently.")
	}
	if err != nil {
		return err
	}

	ost.Filter = ofilter
	ofilter.Ost = ost

	if ost.StreamCopy {
		return job.Resolutionf("Streamcopy requested for output stream %d:%d, which is fed from a complex "+
			"filtergraph. Filtering and streamcopy cannot be used together.", ost.FileIndex, ost.Index)
	}
	if ost.FilterOption != "" || ost.FilterScript != "" {
		opt, kind, val := "-vf/-af/-filter", "Filtergraph", ost.FilterOption
		if val == "" {
			opt, kind, val = "-filter_script", "Filtergraph script", ost.FilterScript
		}
		return job.Resolutionf("%s '%s' was specified through the %s option for output stream %d:%d, "+
			"which is fed from a complex filtergraph.\n%s and -filter_complex cannot be used together "+
			"for the same stream.", kind, val, opt, ost.FileIndex, ost.Index, opt)
	}
	return nil
}

// findLabeledOutput returns the unbound filter graph output called label.
func findLabeledOutput(j *job.Job, label string) *job.OutputFilter {
	for _, fg := range j.FilterGraphs {
		for _, out := range fg.Outputs {
			if out.Label == label && !out.Bound() {
				return out
			}
		}
	}
	return nil
}

// setFilterConstraints passes the encoder's fixed parameters, or the sets
// it supports, to the filter graph output feeding ost.
func setFilterConstraints(ost *job.OutputStream) {
	f := ost.Filter
	if f == nil {
		return
	}
	p := &ost.Params
	switch ost.St.Type {
	case media.Video:
		f.FrameRate = ost.FrameRate
		f.Width, f.Height = p.Width, p.Height
		switch {
		case p.PixFmt != "":
			f.Format = p.PixFmt
		case ost.Enc != nil && !ost.KeepPixFmt:
			f.Formats = ost.Enc.PixFmts
		}
	case media.Audio:
		switch {
		case p.SampleFmt != "":
			f.Format = p.SampleFmt
		case ost.Enc != nil:
			f.Formats = ost.Enc.SampleFmts
		}
		switch {
		case p.SampleRate != 0:
			f.SampleRate = p.SampleRate
		case ost.Enc != nil:
			f.SampleRates = ost.Enc.SampleRates
		}
		switch {
		case p.Channels != 0:
			f.ChannelLayout = codec.DefaultLayout(p.Channels)
		case ost.Enc != nil:
			f.ChannelLayouts = ost.Enc.ChannelLayouts
		}
	}
}
