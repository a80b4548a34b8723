package planner

import (
	"context"

	"github.com/backmassage/muxgraph/internal/cmdline"
	"github.com/backmassage/muxgraph/internal/filtergraph"
	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
	"github.com/backmassage/muxgraph/internal/options"
)

// defaultThreadQueueSize applies to every input of a multi-input job that
// did not set -thread_queue_size.
const defaultThreadQueueSize = 8

// Resolve builds j from args (args[0] is the program name).
//
// Flow:
//  1. Split the arguments into the global group and the file groups
//  2. Apply the global options
//  3. Apply and open every input, in command-line order
//  4. Bind the complex filter graphs to their input streams
//  5. Apply and build every output, in command-line order
//  6. Check that every complex graph output feeds a stream
//
// The first error aborts the pass; j is then only fit to be dropped.
func Resolve(ctx context.Context, j *job.Job, opener media.Opener, args []string) error {
	p, err := cmdline.Split(j, args)
	if err != nil {
		return job.Wrap(err, "Error splitting the argument list")
	}

	if err := p.Global.Apply(options.NewGlobalContext(j)); err != nil {
		return job.Wrap(err, "Error parsing global options")
	}

	// --- Inputs ---

	for i := range p.Inputs {
		g := &p.Inputs[i]
		c := g.Context(j)
		if err := g.Apply(c); err != nil {
			return job.Wrap(err, "Error parsing options for input file %s", g.Arg)
		}
		j.Log.Verbose("Opening an input file: %s.", g.Arg)
		if err := OpenInput(ctx, opener, c); err != nil {
			return job.Wrap(err, "Error opening input file %s", g.Arg)
		}
		j.Log.Verbose("Successfully opened the file.")
	}
	if len(j.InputFiles) > 1 {
		for _, f := range j.InputFiles {
			if f.ThreadQueueSize <= 0 {
				f.ThreadQueueSize = defaultThreadQueueSize
			}
		}
	}

	// --- Complex filter graphs ---

	graphs := append([]*job.FilterGraph(nil), j.FilterGraphs...)
	for _, fg := range graphs {
		if err := filtergraph.InitComplex(j, fg); err != nil {
			return job.Wrap(err, "Error initializing complex filters")
		}
	}

	// --- Outputs ---

	if len(p.Outputs) == 0 {
		return job.Resolutionf("At least one output file must be specified")
	}
	for i := range p.Outputs {
		g := &p.Outputs[i]
		c := g.Context(j)
		if err := g.Apply(c); err != nil {
			return job.Wrap(err, "Error parsing options for output file %s", g.Arg)
		}
		j.Log.Verbose("Opening an output file: %s.", g.Arg)
		if err := OpenOutput(c); err != nil {
			return job.Wrap(err, "Error opening output file %s", g.Arg)
		}
		j.Log.Verbose("Successfully opened the file.")
	}

	for _, fg := range graphs {
		for _, out := range fg.Outputs {
			if !out.Bound() {
				return job.Resolutionf("Filter %s has an unconnected output", out.Name)
			}
		}
	}
	return nil
}
