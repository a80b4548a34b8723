package display

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/backmassage/muxgraph/internal/job"
)

// Report is the machine-readable form of a resolved job.
type Report struct {
	TraceID  string         `yaml:"trace_id"`
	Inputs   []InputReport  `yaml:"inputs"`
	Graphs   []GraphReport  `yaml:"filtergraphs,omitempty"`
	Outputs  []OutputReport `yaml:"outputs"`
	Args     []string       `yaml:"args,omitempty"`
	Warnings []string       `yaml:"warnings,omitempty"`
}

type InputReport struct {
	Index    int            `yaml:"index"`
	URL      string         `yaml:"url"`
	Format   string         `yaml:"format"`
	Start    string         `yaml:"start,omitempty"`
	Duration string         `yaml:"duration,omitempty"`
	Streams  []StreamReport `yaml:"streams"`
}

type GraphReport struct {
	Index   int      `yaml:"index"`
	Desc    string   `yaml:"graph"`
	Simple  bool     `yaml:"simple"`
	Inputs  []string `yaml:"inputs,omitempty"`
	Outputs []string `yaml:"outputs,omitempty"`
}

type OutputReport struct {
	Index    int               `yaml:"index"`
	URL      string            `yaml:"url"`
	Format   string            `yaml:"format,omitempty"`
	Duration string            `yaml:"duration,omitempty"`
	Start    string            `yaml:"start,omitempty"`
	MaxSize  string            `yaml:"max_size,omitempty"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
	Streams  []StreamReport    `yaml:"streams"`
}

type StreamReport struct {
	ID          string            `yaml:"id"`
	Type        string            `yaml:"type"`
	Codec       string            `yaml:"codec"`
	Source      string            `yaml:"source,omitempty"`
	Used        *bool             `yaml:"used,omitempty"`
	Details     string            `yaml:"details,omitempty"`
	Language    string            `yaml:"language,omitempty"`
	Disposition string            `yaml:"disposition,omitempty"`
	Options     map[string]string `yaml:"options,omitempty"`
	Metadata    map[string]string `yaml:"metadata,omitempty"`
}

// NewReport collects j into a report. args is the canonical ffmpeg argv;
// warnings come from log when it is non-nil.
func NewReport(j *job.Job, args []string, log *job.MemoryLogger) *Report {
	r := &Report{TraceID: j.TraceID, Args: args}

	for _, f := range j.InputFiles {
		in := InputReport{Index: f.Index, URL: f.URL, Format: f.Ctx.FormatName}
		if s := FormatTime(f.StartTime); s != "-" {
			in.Start = s
		}
		if d := FormatTime(f.Ctx.Duration); d != "-" {
			in.Duration = d
		}
		for i := 0; i < f.NbStreams; i++ {
			ist := j.InputStreams[f.IstIndex+i]
			lang, _ := ist.St.Metadata.Get("language")
			used := !ist.Discard
			in.Streams = append(in.Streams, StreamReport{
				ID:       fmt.Sprintf("%d:%d", f.Index, ist.St.Index),
				Type:     ist.St.Type.String(),
				Codec:    ist.St.CodecName,
				Used:     &used,
				Details:  streamDetails(ist.St),
				Language: lang,
			})
		}
		r.Inputs = append(r.Inputs, in)
	}

	for _, fg := range j.FilterGraphs {
		g := GraphReport{Index: fg.Index, Desc: fg.Desc, Simple: fg.Simple}
		for _, in := range fg.Inputs {
			if in.Ist != nil {
				g.Inputs = append(g.Inputs, fmt.Sprintf("%d:%d", in.Ist.FileIndex, in.Ist.St.Index))
			}
		}
		for _, out := range fg.Outputs {
			if out.Ost != nil {
				g.Outputs = append(g.Outputs, fmt.Sprintf("%d:%d", out.Ost.FileIndex, out.Ost.Index))
			}
		}
		r.Graphs = append(r.Graphs, g)
	}

	for _, of := range j.OutputFiles {
		out := OutputReport{Index: of.Index, URL: of.URL, Metadata: of.Ctx.Metadata.Map()}
		if of.Format != nil {
			out.Format = of.Format.Name
		}
		if d := FormatTime(of.RecordingTime); d != "-" {
			out.Duration = d
		}
		if s := FormatTime(of.StartTime); s != "-" {
			out.Start = s
		}
		if s := FormatLimit(of.LimitFilesize); s != "-" {
			out.MaxSize = s
		}
		for _, ost := range j.OutputStreams {
			if ost.FileIndex != of.Index {
				continue
			}
			lang, _ := ost.St.Metadata.Get("language")
			src := sourceLabel(j, ost)
			if src == "-" {
				src = ""
			}
			out.Streams = append(out.Streams, StreamReport{
				ID:          fmt.Sprintf("%d:%d", of.Index, ost.Index),
				Type:        ost.St.Type.String(),
				Codec:       codecLabel(ost),
				Source:      src,
				Details:     outputDetails(ost),
				Language:    lang,
				Disposition: ost.St.Disposition.String(),
				Options:     ost.EncoderOpts.Map(),
				Metadata:    ost.St.Metadata.Map(),
			})
		}
		r.Outputs = append(r.Outputs, out)
	}

	if log != nil {
		r.Warnings = append(log.Messages(job.LevelWarn), log.Messages(job.LevelError)...)
	}
	return r
}

// YAML marshals the report with two-space indentation.
func (r *Report) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
