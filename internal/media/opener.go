package media

import "context"

// OpenOptions carries the per-input request to an [Opener].
type OpenOptions struct {
	// Format forces a demuxer by name; empty means probe.
	Format string
	// Options is the demuxer option bag. Openers delete every entry they
	// consume so the caller can report what was left over.
	Options *Dict
	// WantData asks the opener to populate Stream.ExtraData.
	WantData bool
}

// Opener is the container collaborator: it opens a URL and reports its
// streams, and can position the read cursor.
type Opener interface {
	Open(ctx context.Context, url string, opts OpenOptions) (*Container, error)
	Seek(ctx context.Context, c *Container, timestamp int64) error
}
