package display

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/backmassage/muxgraph/internal/check"
	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
	"github.com/backmassage/muxgraph/internal/options"
	"github.com/backmassage/muxgraph/internal/term"
)

// Align is a column alignment.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Table renders rows under headers with rounded borders. Short rows are
// padded with empty cells.
func Table(headers []string, rows [][]string, aligns []Align) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// --- Stream graph ---

// Graph renders the resolved job: input files and streams, filter graphs,
// then output files and streams.
func Graph(j *job.Job) string {
	var b strings.Builder
	b.WriteString(InputTable(j))
	b.WriteString("\n")
	if len(j.FilterGraphs) > 0 {
		b.WriteString(FilterTable(j))
		b.WriteString("\n")
	}
	b.WriteString(OutputTable(j))
	b.WriteString("\n")
	return b.String()
}

// InputTable lists every input stream and whether the job uses it.
func InputTable(j *job.Job) string {
	var rows [][]string
	for _, f := range j.InputFiles {
		for i := 0; i < f.NbStreams; i++ {
			ist := j.InputStreams[f.IstIndex+i]
			st := ist.St
			lang, _ := st.Metadata.Get("language")
			use := "-"
			switch {
			case ist.DecodingNeeded != 0:
				use = "decode"
			case !ist.Discard:
				use = "copy"
			}
			dec := ""
			if ist.Dec != nil {
				dec = ist.Dec.Name
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d:%d", f.Index, st.Index),
				f.URL,
				TypeName(st.Type),
				st.CodecName,
				dec,
				streamDetails(st),
				LanguageName(lang),
				FormatBitrate(st.BitRate),
				use,
			})
		}
	}
	return Table(
		[]string{"Stream", "Input", "Type", "Codec", "Decoder", "Details", "Language", "Bitrate", "Use"},
		rows,
		[]Align{AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignRight},
	)
}

// FilterTable lists filter graphs with their bound pads.
func FilterTable(j *job.Job) string {
	rows := make([][]string, 0, len(j.FilterGraphs))
	for _, fg := range j.FilterGraphs {
		kind := "complex"
		if fg.Simple {
			kind = "simple"
		}
		ins := make([]string, len(fg.Inputs))
		for i, in := range fg.Inputs {
			ins[i] = "?"
			if in.Ist != nil {
				ins[i] = fmt.Sprintf("%d:%d", in.Ist.FileIndex, in.Ist.St.Index)
			}
		}
		outs := make([]string, len(fg.Outputs))
		for i, out := range fg.Outputs {
			outs[i] = "?"
			if out.Ost != nil {
				outs[i] = fmt.Sprintf("%d:%d", out.Ost.FileIndex, out.Ost.Index)
			}
		}
		rows = append(rows, []string{
			strconv.Itoa(fg.Index), kind, fg.Desc,
			strings.Join(ins, " "), strings.Join(outs, " "),
		})
	}
	return Table([]string{"#", "Kind", "Graph", "Inputs", "Outputs"}, rows, []Align{AlignRight})
}

// OutputTable lists every output stream with its source and codec.
func OutputTable(j *job.Job) string {
	var rows [][]string
	for _, of := range j.OutputFiles {
		for _, ost := range j.OutputStreams {
			if ost.FileIndex != of.Index {
				continue
			}
			st := ost.St
			lang, _ := st.Metadata.Get("language")
			bitrate, _ := ost.EncoderOpts.Get("b")
			rows = append(rows, []string{
				fmt.Sprintf("%d:%d", of.Index, ost.Index),
				fileLabel(of),
				TypeName(st.Type),
				sourceLabel(j, ost),
				codecLabel(ost),
				outputDetails(ost),
				LanguageName(lang),
				bitrate,
				st.Disposition.String(),
			})
		}
	}
	return Table(
		[]string{"Stream", "Output", "Type", "Source", "Codec", "Details", "Language", "Bitrate", "Disposition"},
		rows,
		[]Align{AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignRight},
	)
}

func fileLabel(of *job.OutputFile) string {
	label := of.URL
	if of.Format != nil {
		label += " (" + of.Format.Name + ")"
	}
	var limits []string
	if d := FormatTime(of.RecordingTime); d != "-" {
		limits = append(limits, "t="+d)
	}
	if s := FormatLimit(of.LimitFilesize); s != "-" {
		limits = append(limits, "fs="+s)
	}
	if len(limits) > 0 {
		label += " " + strings.Join(limits, " ")
	}
	return label
}

func sourceLabel(j *job.Job, ost *job.OutputStream) string {
	switch {
	case ost.AttachmentFilename != "":
		return "attach " + ost.AttachmentFilename + " (" + FormatBytes(ost.AttachmentSize) + ")"
	case ost.FromComplexGraph():
		if ost.Filter.Label != "" {
			return "[" + ost.Filter.Label + "]"
		}
		return fmt.Sprintf("graph #%d", ost.Filter.Graph.Index)
	case ost.SourceIndex >= 0:
		ist := j.InputStreams[ost.SourceIndex]
		return fmt.Sprintf("%d:%d", ist.FileIndex, ist.St.Index)
	}
	return "-"
}

func codecLabel(ost *job.OutputStream) string {
	switch {
	case ost.StreamCopy:
		return "copy"
	case ost.Enc != nil:
		return ost.Enc.Name
	}
	return "-"
}

func streamDetails(st *media.Stream) string {
	switch st.Type {
	case media.Video:
		s := fmt.Sprintf("%dx%d", st.Width, st.Height)
		if st.PixFmt != "" {
			s += " " + st.PixFmt
		}
		if st.AvgFrameRate.Valid() {
			s += " " + strconv.FormatFloat(st.AvgFrameRate.Float(), 'f', -1, 64) + "fps"
		}
		return s
	case media.Audio:
		return fmt.Sprintf("%dch %dHz", st.Channels, st.SampleRate)
	}
	return ""
}

func outputDetails(ost *job.OutputStream) string {
	if !ost.EncodingNeeded {
		return ""
	}
	p := ost.Params
	var parts []string
	switch ost.St.Type {
	case media.Video:
		if p.Width > 0 && p.Height > 0 {
			parts = append(parts, fmt.Sprintf("%dx%d", p.Width, p.Height))
		}
		if p.PixFmt != "" {
			parts = append(parts, p.PixFmt)
		}
		if ost.FrameRate.Valid() {
			parts = append(parts, ost.FrameRate.String()+"fps")
		}
	case media.Audio:
		if p.Channels > 0 {
			parts = append(parts, strconv.Itoa(p.Channels)+"ch")
		}
		if p.SampleRate > 0 {
			parts = append(parts, strconv.Itoa(p.SampleRate)+"Hz")
		}
	}
	if ost.Filter != nil && ost.Filter.Graph.Simple && ost.Filter.Graph.Desc != "" {
		parts = append(parts, "filter="+ost.Filter.Graph.Desc)
	}
	return strings.Join(parts, " ")
}

// --- Option registry ---

// OptionTable lists the registry entries whose name contains filter.
// Expert options are left out unless expert is set.
func OptionTable(descs []*options.Descriptor, filter string, expert bool) string {
	var rows [][]string
	for _, d := range descs {
		if d.Has(options.Expert) && !expert {
			continue
		}
		if filter != "" && !strings.Contains(d.Name, filter) {
			continue
		}
		name := "-" + d.Name
		if d.Has(options.Spec) {
			name += "[:spec]"
		}
		rows = append(rows, []string{name, d.ArgName, d.Kind.String(), optionScope(d), d.Help})
	}
	return Table([]string{"Option", "Arg", "Kind", "Scope", "Help"}, rows, nil)
}

func optionScope(d *options.Descriptor) string {
	var parts []string
	if d.Flags.Global() {
		parts = append(parts, "global")
	}
	if d.Has(options.Input) {
		parts = append(parts, "input")
	}
	if d.Has(options.Output) {
		parts = append(parts, "output")
	}
	for _, t := range []struct {
		f options.Flags
		s string
	}{{options.Video, "video"}, {options.Audio, "audio"}, {options.Subtitle, "subtitle"}, {options.Data, "data"}} {
		if d.Has(t.f) {
			parts = append(parts, t.s)
		}
	}
	return strings.Join(parts, ",")
}

// --- Diagnostics ---

// CheckTable renders diagnostic results, coloring the status column.
func CheckTable(results []check.Result) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := r.Status.String()
		switch r.Status {
		case check.StatusOK:
			status = term.Paint(term.Green, status)
		case check.StatusWarn:
			status = term.Paint(term.Yellow, status)
		default:
			status = term.Paint(term.Red, status)
		}
		rows = append(rows, []string{r.Name, status, r.Detail})
	}
	return Table([]string{"Check", "Status", "Detail"}, rows, nil)
}
