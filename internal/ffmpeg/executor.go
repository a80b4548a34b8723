package ffmpeg

import (
	"bytes"
	"context"
	"io"
	"os/exec"
)

// ExecResult holds the outcome of a single ffmpeg invocation.
type ExecResult struct {
	Args   []string
	Stderr string
	Err    error
}

// ExecOptions control how the process output is surfaced.
type ExecOptions struct {
	// Tee receives stderr in real time in addition to the capture.
	Tee io.Writer
}

// Execute runs args (program first). Stderr is always captured for retry
// classification.
func Execute(ctx context.Context, args []string, opts ExecOptions) ExecResult {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	var stderrBuf bytes.Buffer
	if opts.Tee != nil {
		cmd.Stderr = io.MultiWriter(&stderrBuf, opts.Tee)
	} else {
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()
	return ExecResult{
		Args:   args,
		Stderr: stderrBuf.String(),
		Err:    err,
	}
}
