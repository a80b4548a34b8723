// Package planner resolves a split command line into a job: it opens every
// input through a [media.Opener], creates the input streams, binds the
// complex filter graphs and builds the output streams with their encoders,
// filters, metadata, chapters and programs.
//
// Files:
//   - planner.go: Resolve, the end-to-end pass
//   - input.go: OpenInput and input stream creation
//   - output.go: OpenOutput, explicit maps and per-file checks
//   - select.go: automatic stream selection when no -map is given
//   - stream.go: the common output stream builder and encoder choice
//   - video.go, audio.go, subtitle.go: per-type output stream builders
//   - filter.go: filter strings and filter graph output binding
//   - metadata.go, chapters.go, disposition.go: container-level copies
package planner
