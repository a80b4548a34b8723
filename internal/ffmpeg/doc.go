// Package ffmpeg turns a resolved job back into an ffmpeg command and runs
// it with stderr-driven retries.
//
// Build renders the canonical argument vector: every stream is mapped and
// coded explicitly and metadata is written out rather than inherited, so
// the command resolves to the same graph again. Execute runs it and
// captures stderr. RetryState classifies a failure and flips one
// BuildOptions fallback per attempt: drop attachments, drop subtitles,
// raise the mux queue, regenerate timestamps.
package ffmpeg
