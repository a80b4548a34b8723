// Package media models what a container collaborator reports about a media
// file: the container itself, its streams, chapters and programs, plus the
// ordered key/value dictionaries used for metadata and option bags.
//
// Nothing in this package decodes media. Containers are produced by an
// [Opener]; internal/probe provides the ffprobe-backed implementation and
// an in-memory one that serves tests and fixture files.
package media
