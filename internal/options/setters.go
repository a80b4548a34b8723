package options

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/backmassage/muxgraph/internal/codec"
	"github.com/backmassage/muxgraph/internal/filtergraph"
	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
	"github.com/backmassage/muxgraph/internal/specifier"
)

// maxStreams bounds the index accepted by -streamid.
const maxStreams = 1024

// --- Maps ---

// setMap parses "[-]file[:spec][?][,syncfile[:syncspec]]" or "[label]".
func setMap(c *Context, _, arg string) error {
	j := c.Job
	negative := strings.HasPrefix(arg, "-")
	if negative {
		arg = arg[1:]
	}
	spec := arg

	syncFile, syncStream := -1, 0
	if i := strings.IndexByte(spec, ','); i >= 0 {
		var rest string
		syncFile, rest, _ = media.LeadingInt(spec[i+1:])
		spec = spec[:i]
		if syncFile >= len(j.InputFiles) || syncFile < 0 {
			return job.Resolutionf("Invalid sync file index: %d.", syncFile)
		}
		if rest != "" {
			rest = rest[1:]
		}
		f := j.InputFiles[syncFile]
		found := false
		for i, st := range f.Ctx.Streams {
			ok, err := specifier.Match(f.Ctx, st, rest)
			if err != nil {
				return job.Wrap(err, "Invalid stream specifier: %s.", rest)
			}
			if ok {
				syncStream, found = i, true
				break
			}
		}
		if !found {
			return job.Resolutionf("Sync stream specification in map %s does not match any streams.", arg)
		}
		if j.InputStreams[f.IstIndex+syncStream].UserSetDiscard == media.DiscardAll {
			return job.Resolutionf("Sync stream specification in map %s matches a disabled input stream.", arg)
		}
	}

	var matched, disabled, allowUnused bool
	if strings.HasPrefix(spec, "[") {
		label, _, _ := strings.Cut(spec[1:], "]")
		c.StreamMaps = append(c.StreamMaps, job.StreamMap{LinkLabel: label})
		matched = true
	} else {
		if i := strings.IndexByte(spec, '?'); i >= 0 {
			allowUnused = true
			spec = spec[:i]
		}
		fileIdx, p, _ := media.LeadingInt(spec)
		if fileIdx >= len(j.InputFiles) || fileIdx < 0 {
			return job.Resolutionf("Invalid input file index: %d.", fileIdx)
		}
		p = strings.TrimPrefix(p, ":")
		if negative {
			// disable earlier maps of this file that match
			for i := range c.StreamMaps {
				m := &c.StreamMaps[i]
				matched = true
				if m.LinkLabel != "" || m.FileIndex != fileIdx {
					continue
				}
				f := j.InputFiles[m.FileIndex]
				ok, err := specifier.Match(f.Ctx, f.Ctx.Streams[m.StreamIndex], p)
				if err != nil {
					return job.Wrap(err, "Invalid stream specifier: %s.", p)
				}
				if ok {
					m.Disabled = true
				}
			}
		} else {
			f := j.InputFiles[fileIdx]
			for i, st := range f.Ctx.Streams {
				ok, err := specifier.Match(f.Ctx, st, p)
				if err != nil {
					return job.Wrap(err, "Invalid stream specifier: %s.", p)
				}
				if !ok {
					continue
				}
				if j.InputStreams[f.IstIndex+i].UserSetDiscard == media.DiscardAll {
					disabled = true
					continue
				}
				m := job.StreamMap{FileIndex: fileIdx, StreamIndex: i, SyncFileIndex: fileIdx, SyncStreamIndex: i}
				if syncFile >= 0 {
					m.SyncFileIndex, m.SyncStreamIndex = syncFile, syncStream
				}
				c.StreamMaps = append(c.StreamMaps, m)
				matched = true
			}
		}
	}

	if !matched {
		switch {
		case allowUnused:
			c.Log().Verbose("Stream map '%s' matches no streams; ignoring.", arg)
		case disabled:
			return job.Resolutionf("Stream map '%s' matches disabled streams.\nTo ignore this, add a trailing '?' to the map.", arg)
		default:
			return job.Resolutionf("Stream map '%s' matches no streams.\nTo ignore this, add a trailing '?' to the map.", arg)
		}
	}
	return nil
}

// setMapChannel parses "file.stream.channel[:ofile.ostream][?]" or the
// muted form "-1[:ofile.ostream]".
func setMapChannel(c *Context, _, arg string) error {
	j := c.Job
	m := job.ChannelMap{OFileIndex: -1, OStreamIndex: -1}

	if v := scanInts(arg, ":."); (len(v) == 1 || len(v) == 3) && v[0] == -1 {
		m.ChannelIndex, m.FileIndex, m.StreamIndex = -1, -1, -1
		if len(v) == 3 {
			m.OFileIndex, m.OStreamIndex = v[1], v[2]
		}
		c.AudioChannelMaps = append(c.AudioChannelMaps, m)
		return nil
	}

	v := scanInts(arg, "..:.")
	if len(v) != 3 && len(v) != 5 {
		return job.Resolutionf("Syntax error, mapchan usage: [file.stream.channel|-1][:syncfile:syncstream]")
	}
	m.FileIndex, m.StreamIndex, m.ChannelIndex = v[0], v[1], v[2]
	if len(v) == 5 {
		m.OFileIndex, m.OStreamIndex = v[3], v[4]
	}
	c.AudioChannelMaps = append(c.AudioChannelMaps, m)

	if m.FileIndex < 0 || m.FileIndex >= len(j.InputFiles) {
		return job.Resolutionf("mapchan: invalid input file index: %d", m.FileIndex)
	}
	f := j.InputFiles[m.FileIndex]
	if m.StreamIndex < 0 || m.StreamIndex >= len(f.Ctx.Streams) {
		return job.Resolutionf("mapchan: invalid input file stream index #%d.%d", m.FileIndex, m.StreamIndex)
	}
	st := f.Ctx.Streams[m.StreamIndex]
	if st.Type != media.Audio {
		return job.Resolutionf("mapchan: stream #%d.%d is not an audio stream.", m.FileIndex, m.StreamIndex)
	}
	allowUnused := strings.Contains(arg, "?")
	if m.ChannelIndex < 0 || m.ChannelIndex >= st.Channels ||
		j.InputStreams[f.IstIndex+m.StreamIndex].UserSetDiscard == media.DiscardAll {
		if !allowUnused {
			return job.Resolutionf("mapchan: invalid audio channel #%d.%d.%d\nTo ignore this, add a trailing '?' to the map_channel.",
				m.FileIndex, m.StreamIndex, m.ChannelIndex)
		}
		c.Log().Verbose("mapchan: invalid audio channel #%d.%d.%d", m.FileIndex, m.StreamIndex, m.ChannelIndex)
	}
	return nil
}

// scanInts reads integers separated by the bytes of seps in order, the
// way sscanf with "%d<sep>%d..." would, and returns those it matched.
func scanInts(s string, seps string) []int {
	var out []int
	for i := 0; ; i++ {
		n, rest, ok := media.LeadingInt(s)
		if !ok {
			return out
		}
		out = append(out, n)
		if i >= len(seps) || rest == "" || rest[0] != seps[i] {
			return out
		}
		s = rest[1:]
	}
}

// --- Aliases ---

// alias forwards the value to another option key.
func alias(target string) func(c *Context, key, value string) error {
	return func(c *Context, _, value string) error {
		return ParseOption(c, target, value)
	}
}

// setOld2New maps "vtag" to "tag:v" and friends.
func setOld2New(c *Context, key, value string) error {
	return ParseOption(c, key[1:]+":"+key[:1], value)
}

func setQScale(c *Context, key, value string) error {
	if key == "qscale" {
		c.Log().Warn("Please use -q:a or -q:v, -qscale is ambiguous")
		return ParseOption(c, "q:v", value)
	}
	return ParseOption(c, "q"+strings.TrimPrefix(key, "qscale"), value)
}

func setBitrate(c *Context, key, value string) error {
	switch key {
	case "ab":
		c.CodecOpts.Set("b:a", value, 0)
	case "b":
		c.Log().Warn("Please use -b:a or -b:v, -b is ambiguous")
		c.CodecOpts.Set("b:v", value, 0)
	default:
		c.CodecOpts.Set(key, value, 0)
	}
	return nil
}

func setTimecode(c *Context, _, value string) error {
	if err := ParseOption(c, "metadata:g", "timecode="+value); err != nil {
		return err
	}
	c.CodecOpts.Set("gop_timecode", value, 0)
	return nil
}

func setRecordingTimestamp(c *Context, key, value string) error {
	us, err := ParseTime(key, value, false)
	if err != nil {
		return err
	}
	ts := time.Unix(us/1000000, 0).UTC()
	if err := ParseOption(c, "metadata", ts.Format("creation_time=2006-01-02T15:04:05-0700")); err != nil {
		return err
	}
	c.Log().Warn("%s is deprecated, set the 'creation_time' metadata tag instead.", key)
	return nil
}

func setChannelLayout(c *Context, key, value string) error {
	layout, err := codec.ParseChannelLayout(value)
	if err != nil || layout == 0 {
		return job.Resolutionf("Unknown channel layout: %s", value)
	}
	if err := c.defaultInGroup(key, strconv.FormatUint(layout, 10), 0); err != nil {
		return err
	}
	ac := "ac"
	if _, spec, ok := strings.Cut(key, ":"); ok {
		ac += ":" + spec
	}
	return ParseOption(c, ac, strconv.Itoa(codec.LayoutChannels(layout)))
}

func setStreamID(c *Context, key, value string) error {
	idxStr, val, ok := strings.Cut(value, ":")
	if !ok {
		return job.Resolutionf("Invalid value '%s' for option '%s', required syntax is 'index:value'", value, key)
	}
	idx, err := ParseNumber(key, idxStr, NumInt, 0, maxStreams-1)
	if err != nil {
		return err
	}
	id, err := ParseNumber(key, val, NumInt, 0, maxInt32)
	if err != nil {
		return err
	}
	c.StreamIDMap[int(idx)] = int(id)
	return nil
}

// setDeprecatedDevice forwards -vc and -tvstd to the capture demuxer.
func setDeprecatedDevice(target string) func(c *Context, key, value string) error {
	return func(c *Context, _, value string) error {
		c.Log().Warn("This option is deprecated, use -%s.", target)
		return c.defaultInGroup(target, value, 0)
	}
}

// --- Run-level ---

func setVSync(c *Context, key, value string) error {
	s := c.Settings()
	switch strings.ToLower(value) {
	case "cfr":
		s.VideoSyncMethod = job.VSyncCFR
	case "vfr":
		s.VideoSyncMethod = job.VSyncVFR
	case "passthrough":
		s.VideoSyncMethod = job.VSyncPassthrough
	case "drop":
		s.VideoSyncMethod = job.VSyncDrop
	}
	if s.VideoSyncMethod == job.VSyncAuto {
		n, err := ParseNumber("vsync", value, NumInt, job.VSyncAuto, job.VSyncVFR)
		if err != nil {
			return err
		}
		s.VideoSyncMethod = int(n)
	}
	return nil
}

func setTimelimit(c *Context, key, value string) error {
	n, err := ParseNumber(key, value, NumInt64, 0, maxInt32)
	if err != nil {
		return err
	}
	c.Settings().Timelimit = int64(n)
	return nil
}

func setSDPFile(c *Context, _, value string) error {
	c.Settings().SDPFilename = value
	return nil
}

func setFilterComplex(c *Context, _, value string) error {
	filtergraph.AddComplex(c.Job, value)
	return nil
}

func setFilterComplexScript(c *Context, _, value string) error {
	desc, err := os.ReadFile(value)
	if err != nil {
		return job.Wrap(err, "Error reading filtergraph script %s", value)
	}
	filtergraph.AddComplex(c.Job, string(desc))
	return nil
}

func setAttach(c *Context, _, value string) error {
	c.Attachments = append(c.Attachments, value)
	return nil
}

// --- Hardware devices ---

var hwDeviceTypes = []string{
	"vdpau", "cuda", "vaapi", "dxva2", "qsv", "videotoolbox", "d3d11va", "drm", "opencl", "mediacodec", "vulkan",
}

// KnownHWDeviceType reports whether name is a supported hardware device type.
func KnownHWDeviceType(name string) bool {
	for _, t := range hwDeviceTypes {
		if t == name {
			return true
		}
	}
	return false
}

// setInitHWDevice parses "type[=name][:device[,key=value...]]" or
// "type[=name]@source".
func setInitHWDevice(c *Context, _, value string) error {
	s := c.Settings()
	if value == "list" {
		c.Log().Info("Supported hardware device types:")
		for _, t := range hwDeviceTypes {
			c.Log().Info("%s", t)
		}
		return nil
	}
	invalid := func(msg string) error {
		return job.Resolutionf("Invalid device specification \"%s\": %s", value, msg)
	}

	k := strings.IndexAny(value, ":=@")
	if k < 0 {
		k = len(value)
	}
	dev := &job.HWDevice{Type: value[:k]}
	p := value[k:]
	if !KnownHWDeviceType(dev.Type) {
		return invalid("unknown device type")
	}

	if strings.HasPrefix(p, "=") {
		end := strings.IndexAny(p[1:], ":@")
		if end < 0 {
			end = len(p) - 1
		}
		dev.Name = p[1 : 1+end]
		if s.HWDevice(dev.Name) != nil {
			return invalid("named device already exists")
		}
		p = p[1+end:]
	} else {
		dev.Name = defaultHWDeviceName(s, dev.Type)
	}

	switch {
	case p == "":
	case p[0] == ':':
		device, opts, hasOpts := strings.Cut(p[1:], ",")
		dev.Device = device
		if hasOpts {
			dev.Options = media.NewDict()
			for _, kv := range strings.Split(opts, ",") {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return invalid("failed to parse options")
				}
				dev.Options.Set(k, v, 0)
			}
		}
	case p[0] == '@':
		if s.HWDevice(p[1:]) == nil {
			return invalid("invalid source device name")
		}
		dev.Source = p[1:]
	default:
		return invalid("parse error")
	}
	s.HWDevices = append(s.HWDevices, dev)
	return nil
}

func defaultHWDeviceName(s *job.Settings, typ string) string {
	for i := 0; ; i++ {
		name := typ + strconv.Itoa(i)
		if s.HWDevice(name) == nil {
			return name
		}
	}
}

func setFilterHWDevice(c *Context, _, value string) error {
	s := c.Settings()
	if s.FilterHWDevice != "" {
		return job.Resolutionf("Only one filter device can be used.")
	}
	if s.HWDevice(value) == nil {
		return job.Resolutionf("Invalid filter device %s.", value)
	}
	s.FilterHWDevice = value
	return nil
}
