// Package pipeline ties the resolver to the outside world: it picks the
// container opener, resolves a command line into a job, and runs the
// canonical ffmpeg command with retry.
//
// Flow for one run:
//
//	Opener(cfg) → Resolve (tokenize, group, resolve) → ffmpeg.Build →
//	ffmpeg.Execute → on failure RetryState.Advance → rebuild → execute …
//
// Files: runner.go (Resolve, Run, retry loop), stats.go (RunStats).
package pipeline
