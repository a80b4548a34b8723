package planner

import (
	"math"
	"strconv"
	"strings"

	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
	"github.com/backmassage/muxgraph/internal/options"
	"github.com/backmassage/muxgraph/internal/specifier"
)

// metaSpec is a parsed metadata target: g (global), s[:spec] (streams),
// c:index (chapter) or p:index (program).
type metaSpec struct {
	typ    byte
	index  int
	stream string
}

func parseMetaSpec(arg string) (metaSpec, error) {
	if arg == "" {
		return metaSpec{typ: 'g'}, nil
	}
	m := metaSpec{typ: arg[0]}
	switch arg[0] {
	case 'g':
	case 's':
		rest := arg[1:]
		if rest != "" && rest[0] != ':' {
			return m, job.Resolutionf("Invalid metadata specifier %s.", rest)
		}
		m.stream = strings.TrimPrefix(rest, ":")
	case 'c', 'p':
		if strings.HasPrefix(arg[1:], ":") {
			m.index, _, _ = media.LeadingInt(arg[2:])
		}
	default:
		return m, job.Resolutionf("Invalid metadata type %c.", arg[0])
	}
	return m, nil
}

// containerMeta returns the dictionary a non-stream metaSpec addresses.
func containerMeta(ctx *media.Container, m metaSpec) (*media.Dict, error) {
	switch m.typ {
	case 'c':
		if m.index < 0 || m.index >= len(ctx.Chapters) {
			return nil, job.Resolutionf("Invalid %s index %d while processing metadata maps.", "chapter", m.index)
		}
		return &ctx.Chapters[m.index].Metadata, nil
	case 'p':
		if m.index < 0 || m.index >= len(ctx.Programs) {
			return nil, job.Resolutionf("Invalid %s index %d while processing metadata maps.", "program", m.index)
		}
		return &ctx.Programs[m.index].Metadata, nil
	}
	return &ctx.Metadata, nil
}

// --- -map_metadata ---

func mapMetadata(c *options.Context, of *job.OutputFile) error {
	j := c.Job
	for _, mm := range c.MetadataMap.Values {
		fileIdx, rest, _ := media.LeadingInt(mm.Value)
		if fileIdx >= len(j.InputFiles) {
			return job.Resolutionf("Invalid input file index %d while processing metadata maps", fileIdx)
		}
		if rest != "" {
			rest = rest[1:]
		}
		var ic *media.Container
		if fileIdx >= 0 {
			ic = j.InputFiles[fileIdx].Ctx
		}
		if err := copyMetadata(c, of, mm.Spec, rest, ic); err != nil {
			return err
		}
	}
	return nil
}

// copyMetadata copies the metadata inspec addresses in ic to what outspec
// addresses in the output. A nil ic (negative file index) only marks the
// targets as set by hand, which stops the default copies.
func copyMetadata(c *options.Context, of *job.OutputFile, outspec, inspec string, ic *media.Container) error {
	in, err := parseMetaSpec(inspec)
	if err != nil {
		return err
	}
	out, err := parseMetaSpec(outspec)
	if err != nil {
		return err
	}

	if ic == nil {
		if out.typ == 'g' || outspec == "" {
			c.MetadataGlobalManual = true
		}
		if out.typ == 's' || outspec == "" {
			c.MetadataStreamsManual = true
		}
		if out.typ == 'c' || outspec == "" {
			c.MetadataChaptersManual = true
		}
		return nil
	}

	if in.typ == 'g' || out.typ == 'g' {
		c.MetadataGlobalManual = true
	}
	if in.typ == 's' || out.typ == 's' {
		c.MetadataStreamsManual = true
	}
	if in.typ == 'c' || out.typ == 'c' {
		c.MetadataChaptersManual = true
	}

	var src *media.Dict
	if in.typ == 's' {
		for _, st := range ic.Streams {
			ok, err := specifier.Match(ic, st, in.stream)
			if err != nil {
				return err
			}
			if ok {
				src = &st.Metadata
				break
			}
		}
		if src == nil {
			return job.Resolutionf("Stream specifier %s does not match any streams.", in.stream)
		}
	} else if src, err = containerMeta(ic, in); err != nil {
		return err
	}

	if out.typ == 's' {
		for _, st := range of.Ctx.Streams {
			ok, err := specifier.Match(of.Ctx, st, out.stream)
			if err != nil {
				return err
			}
			if ok {
				st.Metadata.Copy(src, media.DontOverwrite)
			}
		}
		return nil
	}
	dst, err := containerMeta(of.Ctx, out)
	if err != nil {
		return err
	}
	dst.Copy(src, media.DontOverwrite)
	return nil
}

// --- Default copies ---

// droppedGlobalKeys describe the source file rather than its content.
var droppedGlobalKeys = []string{"creation_time", "company_name", "product_name", "product_version"}

// copyDefaultMetadata copies the first input's global metadata and each
// source stream's metadata, unless the user mapped them by hand.
func copyDefaultMetadata(c *options.Context, of *job.OutputFile) {
	j := c.Job
	if !c.MetadataGlobalManual && len(j.InputFiles) > 0 {
		m := &of.Ctx.Metadata
		m.Copy(&j.InputFiles[0].Ctx.Metadata, media.DontOverwrite)
		if c.RecordingTime != math.MaxInt64 {
			m.Delete("duration")
		}
		for _, k := range droppedGlobalKeys {
			m.Delete(k)
		}
	}
	if c.MetadataStreamsManual {
		return
	}
	for _, ost := range j.OutputStreams[of.OstIndex:] {
		if ost.SourceIndex < 0 {
			continue
		}
		ost.St.Metadata.Copy(&j.InputStreams[ost.SourceIndex].St.Metadata, media.DontOverwrite)
		if !ost.StreamCopy {
			ost.St.Metadata.Delete("encoder")
		}
	}
}

// --- -program ---

// setPrograms creates the -program entries: "title=..:program_num=..:st=..".
func setPrograms(c *options.Context, of *job.OutputFile) error {
	for i, pv := range c.Program.Values {
		desc := pv.Value
		if desc == "" {
			continue
		}

		id := i + 1
		for _, kv := range strings.Split(desc, ":") {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				break
			}
			if k == "program_num" {
				id, _, _ = media.LeadingInt(v)
			}
		}

		prog := of.Ctx.Program(id)
		if prog == nil {
			prog = &media.Program{ID: id}
			of.Ctx.Programs = append(of.Ctx.Programs, prog)
		}

		for _, kv := range strings.Split(desc, ":") {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return job.Resolutionf("No '=' character in program string %s.", kv)
			}
			switch k {
			case "title":
				prog.Metadata.Set("title", v, 0)
			case "program_num":
			case "st":
				n, _, _ := media.LeadingInt(v)
				if n < 0 || n >= len(of.Ctx.Streams) {
					c.Log().Error("stream index %d is not valid", n)
					continue
				}
				if !prog.HasStream(n) {
					prog.StreamIndexes = append(prog.StreamIndexes, n)
				}
			default:
				return job.Resolutionf("Unknown program key %s.", k)
			}
		}
	}
	return nil
}

// --- -metadata ---

// setMetadata applies the -metadata key=value options. An empty value
// removes the key; "rotate" on a stream becomes a rotation override.
func setMetadata(c *options.Context, of *job.OutputFile) error {
	j := c.Job
	for _, mv := range c.Metadata.Values {
		key, val, ok := strings.Cut(mv.Value, "=")
		if !ok {
			return job.Resolutionf("No '=' character in metadata string %s.", mv.Value)
		}
		m, err := parseMetaSpec(mv.Spec)
		if err != nil {
			return err
		}

		if m.typ == 's' {
			for _, ost := range j.OutputStreams[of.OstIndex:] {
				ok, err := specifier.Match(of.Ctx, ost.St, m.stream)
				if err != nil {
					return job.Wrap(err, "Invalid stream specifier: %s.", m.stream)
				}
				if !ok {
					continue
				}
				if key == "rotate" {
					if theta, err := strconv.ParseFloat(val, 64); err == nil {
						ost.RotateOverridden = true
						ost.RotateOverrideValue = theta
					}
					continue
				}
				setOrDelete(&ost.St.Metadata, key, val)
			}
			continue
		}

		var dst *media.Dict
		switch m.typ {
		case 'g':
			dst = &of.Ctx.Metadata
		case 'c':
			if m.index < 0 || m.index >= len(of.Ctx.Chapters) {
				return job.Resolutionf("Invalid chapter index %d in metadata specifier.", m.index)
			}
			dst = &of.Ctx.Chapters[m.index].Metadata
		case 'p':
			if m.index < 0 || m.index >= len(of.Ctx.Programs) {
				return job.Resolutionf("Invalid program index %d in metadata specifier.", m.index)
			}
			dst = &of.Ctx.Programs[m.index].Metadata
		default:
			return job.Resolutionf("Invalid metadata specifier %s.", mv.Spec)
		}
		setOrDelete(dst, key, val)
	}
	return nil
}

func setOrDelete(d *media.Dict, key, val string) {
	if val == "" {
		d.Delete(key)
		return
	}
	d.Set(key, val, 0)
}
