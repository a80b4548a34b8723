// Package cmdline splits a flat argument list into a global option group
// and ordered input and output file groups, and applies a group's options
// to an option context.
package cmdline

import (
	"errors"
	"strings"

	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
	"github.com/backmassage/muxgraph/internal/options"
)

// --- Groups ---

// GroupDef describes a kind of file group. Sep is the option that closes
// the group with the following token as its argument; an empty Sep closes
// on any non-option token. Flags restrict the options the group accepts.
type GroupDef struct {
	Name  string
	Sep   string
	Flags options.Flags
}

var (
	OutputDef = GroupDef{Name: "output url", Flags: options.Output}
	InputDef  = GroupDef{Name: "input url", Sep: "i", Flags: options.Input}
	GlobalDef = GroupDef{Name: "global"}
)

// groupDefs are matched by separator in this order.
var groupDefs = []*GroupDef{&OutputDef, &InputDef}

// ParsedOption is one option occurrence with its raw value.
type ParsedOption struct {
	Desc  *options.Descriptor
	Key   string
	Value string
}

// Group is one file group (or the global group) as written on the command
// line. The generic dictionaries are the sink entries collected while the
// group was open.
type Group struct {
	Def  *GroupDef
	Arg  string
	Opts []ParsedOption

	CodecOpts  *media.Dict
	FormatOpts *media.Dict
	SwsOpts    *media.Dict
	SwrOpts    *media.Dict
}

// Parsed is the result of [Split].
type Parsed struct {
	Global  Group
	Inputs  []Group
	Outputs []Group
}

// --- Splitting ---

type splitter struct {
	j   *job.Job
	out *Parsed
	cur []ParsedOption
}

func (s *splitter) finish(def *GroupDef, arg string) {
	g := Group{Def: def, Arg: arg, Opts: s.cur}
	g.CodecOpts, g.FormatOpts, g.SwsOpts, g.SwrOpts = s.j.TakePending()
	s.cur = nil
	if def == &InputDef {
		s.out.Inputs = append(s.out.Inputs, g)
	} else {
		s.out.Outputs = append(s.out.Outputs, g)
	}
}

func (s *splitter) add(d *options.Descriptor, key, value string) {
	po := ParsedOption{Desc: d, Key: key, Value: value}
	if d.Flags.Global() {
		s.out.Global.Opts = append(s.out.Global.Opts, po)
		return
	}
	s.cur = append(s.cur, po)
}

func matchSeparator(opt string) *GroupDef {
	for _, d := range groupDefs {
		if d.Sep != "" && d.Sep == opt {
			return d
		}
	}
	return nil
}

// Split groups args. args[0] is the program name. Options unknown to the
// registry are routed to the job's generic dictionaries, which each file
// group takes over when it closes.
func Split(j *job.Job, args []string) (*Parsed, error) {
	s := &splitter{j: j, out: &Parsed{Global: Group{Def: &GlobalDef}}}
	dashdash := -2
	i := 1
	for i < len(args) {
		opt := args[i]
		i++
		j.Log.Verbose("Reading option '%s' ...", opt)

		if opt == "--" {
			dashdash = i
			continue
		}
		if !strings.HasPrefix(opt, "-") || opt == "-" || dashdash+1 == i {
			s.finish(&OutputDef, opt)
			j.Log.Verbose(" matched as %s.", OutputDef.Name)
			continue
		}
		opt = opt[1:]

		next := func() (string, error) {
			if i >= len(args) {
				return "", job.Resolutionf("Missing argument for option '%s'.", opt)
			}
			i++
			return args[i-1], nil
		}

		if def := matchSeparator(opt); def != nil {
			arg, err := next()
			if err != nil {
				return nil, err
			}
			s.finish(def, arg)
			j.Log.Verbose(" matched as %s with argument '%s'.", def.Name, arg)
			continue
		}

		if d := options.Find(opt); d != nil {
			arg := "1"
			if d.NeedsArg() {
				var err error
				if arg, err = next(); err != nil {
					return nil, err
				}
			}
			s.add(d, opt, arg)
			j.Log.Verbose(" matched as option '%s' (%s) with argument '%s'.", d.Name, d.Help, arg)
			continue
		}

		if i < len(args) {
			err := options.Default(j, opt, args[i])
			if err == nil {
				j.Log.Verbose(" matched as AVOption '%s' with argument '%s'.", opt, args[i])
				i++
				continue
			}
			if !errors.Is(err, job.ErrOptionNotFound) {
				return nil, job.Wrap(err, "Error parsing option '%s' with argument '%s'.", opt, args[i])
			}
		}

		if strings.HasPrefix(opt, "no") {
			if d := options.Find(opt[2:]); d != nil && d.Kind == options.KindBool {
				s.add(d, opt, "0")
				j.Log.Verbose(" matched as option '%s' (%s) with argument 0.", d.Name, d.Help)
				continue
			}
		}

		return nil, job.Resolutionf("Unrecognized option '%s'.", opt)
	}

	if len(s.cur) > 0 || j.CodecOpts.Len() > 0 || j.FormatOpts.Len() > 0 || j.SwrOpts.Len() > 0 {
		j.Log.Warn("Trailing option(s) found in the command: may be ignored.")
	}
	return s.out, nil
}

// --- Applying ---

// Context returns a fresh option context seeded with the group's generic
// dictionaries.
func (g *Group) Context(j *job.Job) *options.Context {
	return options.NewContext(j, g.Arg, g.CodecOpts, g.FormatOpts, g.SwsOpts, g.SwrOpts)
}

// Apply writes every option of the group to c, in command-line order. A
// file group refuses options that do not apply to its kind of file.
func (g *Group) Apply(c *options.Context) error {
	j := c.Job
	j.Log.Verbose("Parsing a group of options: %s %s.", g.Def.Name, g.Arg)
	for _, o := range g.Opts {
		if g.Def.Flags != 0 && o.Desc.Flags&g.Def.Flags == 0 {
			return job.Resolutionf("Option %s (%s) cannot be applied to %s %s -- you are trying to apply an input "+
				"option to an output file or vice versa. Move this option before the file it belongs to.",
				o.Key, o.Desc.Help, g.Def.Name, g.Arg)
		}
		j.Log.Verbose("Applying option %s (%s) with argument %s.", o.Key, o.Desc.Help, o.Value)
		if err := options.Write(c, o.Desc, o.Key, o.Value); err != nil {
			return err
		}
	}
	j.Log.Verbose("Successfully parsed a group of options.")
	return nil
}

// ParseCommand turns a single command string into an argument list,
// splitting on spaces and dropping empty tokens. No quoting is honored.
func ParseCommand(command string) []string {
	var args []string
	for _, tok := range strings.Split(strings.TrimSpace(command), " ") {
		if tok != "" {
			args = append(args, tok)
		}
	}
	return args
}
