package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/backmassage/muxgraph/internal/codec"
	"github.com/backmassage/muxgraph/internal/media"
)

// Prober opens inputs by running ffprobe. It implements media.Opener.
type Prober struct {
	// Bin is the ffprobe executable; empty means "ffprobe" on PATH.
	Bin string
	// CountPackets asks ffprobe to read every packet, which fills in
	// Stream.NewPackets at the cost of a full pass over the file.
	CountPackets bool
}

// NewProber returns a Prober running bin.
func NewProber(bin string) *Prober {
	return &Prober{Bin: bin}
}

// Open runs a single ffprobe JSON call against url. Demuxer options the
// forced (or probed) demuxer recognizes are passed on to ffprobe and
// removed from opts.Options.
func (p *Prober) Open(ctx context.Context, url string, opts media.OpenOptions) (*media.Container, error) {
	var demuxer *codec.Format
	if opts.Format != "" {
		demuxer = codec.FindDemuxer(opts.Format)
	}

	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams", "-show_chapters", "-show_programs",
	}
	if p.CountPackets {
		args = append(args, "-count_packets")
	}
	if opts.WantData {
		args = append(args, "-show_data")
	}
	if opts.Format != "" {
		args = append(args, "-f", opts.Format)
	}
	if opts.Options != nil {
		given := opts.Options.Clone()
		codec.ConsumeFormatOptions(opts.Options, demuxer, false)
		for _, e := range given.Entries() {
			if !opts.Options.Has(e.Key) {
				args = append(args, "-"+e.Key, e.Value)
			}
		}
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, p.bin(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.New(msg)
		}
		return nil, fmt.Errorf("ffprobe %q: %w", url, err)
	}

	c, err := ParseJSON(out)
	if err != nil {
		return nil, err
	}
	c.URL = url
	if demuxer == nil {
		demuxer = findDemuxer(c.FormatName)
	}
	c.SeekToPTS = demuxer != nil && demuxer.Flags&codec.FormatSeekToPTS != 0
	return c, nil
}

// Seek checks that timestamp falls inside the probed file. ffprobe keeps no
// read cursor, so there is nothing else to move.
func (p *Prober) Seek(_ context.Context, c *media.Container, timestamp int64) error {
	if c.Duration == media.NoPTS {
		return nil
	}
	start := int64(0)
	if c.StartTime != media.NoPTS {
		start = c.StartTime
	}
	if timestamp > start+c.Duration {
		return fmt.Errorf("seek to %d beyond end of %s", timestamp, c.URL)
	}
	return nil
}

func (p *Prober) bin() string {
	if p.Bin == "" {
		return "ffprobe"
	}
	return p.Bin
}

// findDemuxer resolves a probed format name such as "matroska,webm".
func findDemuxer(name string) *codec.Format {
	for _, n := range strings.Split(name, ",") {
		if f := codec.FindDemuxer(n); f != nil {
			return f
		}
	}
	return nil
}
