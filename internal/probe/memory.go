package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/backmassage/muxgraph/internal/codec"
	"github.com/backmassage/muxgraph/internal/media"
)

// MemoryOpener serves containers from memory. Open hands out a copy, so a
// registered container can be opened any number of times.
type MemoryOpener struct {
	mu    sync.Mutex
	files map[string]*media.Container
	seeks []int64

	// SeekErr, when set, is returned by every Seek.
	SeekErr error
}

// NewMemoryOpener returns an empty opener.
func NewMemoryOpener() *MemoryOpener {
	return &MemoryOpener{files: map[string]*media.Container{}}
}

// Add registers c under url.
func (m *MemoryOpener) Add(url string, c *media.Container) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[url] = c
}

// URLs returns the registered URLs, sorted.
func (m *MemoryOpener) URLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.files))
	for u := range m.files {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// Open returns a copy of the container registered under url. Demuxer
// options the format recognizes are consumed.
func (m *MemoryOpener) Open(_ context.Context, url string, opts media.OpenOptions) (*media.Container, error) {
	m.mu.Lock()
	c, ok := m.files[url]
	m.mu.Unlock()
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: url, Err: fs.ErrNotExist}
	}

	out := c.Clone()
	out.URL = url
	if opts.Format != "" {
		out.FormatName = opts.Format
	}
	demuxer := findDemuxer(out.FormatName)
	if opts.Options != nil {
		codec.ConsumeFormatOptions(opts.Options, demuxer, false)
	}
	if demuxer != nil && demuxer.Flags&codec.FormatSeekToPTS != 0 {
		out.SeekToPTS = true
	}
	if !opts.WantData {
		for _, st := range out.Streams {
			if st.Type != media.Attachment {
				st.ExtraData = nil
			}
		}
	}
	return out, nil
}

// Seek records timestamp.
func (m *MemoryOpener) Seek(_ context.Context, _ *media.Container, timestamp int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seeks = append(m.seeks, timestamp)
	return m.SeekErr
}

// Seeks returns the recorded seek targets in call order.
func (m *MemoryOpener) Seeks() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.seeks...)
}

// --- Fixtures ---

// LoadFixtures reads a YAML (or JSON) file mapping each URL to the ffprobe
// JSON document describing it:
//
//	in.mkv:
//	  format: {format_name: matroska, duration: "60.0"}
//	  streams:
//	    - {index: 0, codec_type: video, codec_name: h264, width: 1920, height: 1080}
func LoadFixtures(path string) (*MemoryOpener, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var docs map[string]any
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse fixtures %s: %w", path, err)
	}

	m := NewMemoryOpener()
	for url, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", url, err)
		}
		c, err := ParseJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", url, err)
		}
		m.Add(url, c)
	}
	return m, nil
}
