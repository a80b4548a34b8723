// Package codec is the codec and container capability catalog that the
// resolver queries: codec descriptors, encoder and decoder lookup, muxer and
// demuxer properties, the generic AVOption catalog used to route unknown
// command-line options, and the named value tables (pixel formats, sample
// formats, channel layouts, frame sizes and rates).
//
// The tables mirror what a stock ffmpeg build reports; they are data, not
// behavior, and are safe for concurrent reads.
package codec
