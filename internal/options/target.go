package options

import (
	"strings"

	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
)

type norm int

const (
	normPAL norm = iota
	normNTSC
	normFilm
	normUnknown
)

var normFrameRates = [...]string{"25", "30000/1001", "24000/1001"}

func (n norm) pick(pal, other string) string {
	if n == normPAL {
		return pal
	}
	return other
}

// setTarget expands -target [pal-|ntsc-|film-]vcd|svcd|dvd|dv|dv50.
func setTarget(c *Context, _, value string) error {
	n := normUnknown
	name := value
	switch {
	case strings.HasPrefix(name, "pal-"):
		n, name = normPAL, name[4:]
	case strings.HasPrefix(name, "ntsc-"):
		n, name = normNTSC, name[5:]
	case strings.HasPrefix(name, "film-"):
		n, name = normFilm, name[5:]
	default:
		n = guessNorm(c.Job)
		if n != normUnknown {
			c.Log().Info("Assuming %s for target.", n.pick("PAL", "NTSC"))
		}
	}
	if n == normUnknown {
		return job.Resolutionf("Could not determine norm (PAL/NTSC/NTSC-Film) for target.\n" +
			"Please prefix target with \"pal-\", \"ntsc-\" or \"film-\",\n" +
			"or set a framerate with \"-r xxx\".")
	}

	var opts [][2]string
	var generic [][2]string
	switch {
	case name == "vcd":
		opts = [][2]string{
			{"codec:v", "mpeg1video"}, {"codec:a", "mp2"}, {"f", "vcd"},
			{"s", n.pick("352x288", "352x240")}, {"r", normFrameRates[n]},
			{"ar", "44100"}, {"ac", "2"},
		}
		generic = [][2]string{
			{"g", n.pick("15", "18")},
			{"b:v", "1150000"}, {"maxrate:v", "1150000"}, {"minrate:v", "1150000"}, {"bufsize:v", "327680"},
			{"b:a", "224000"}, {"packetsize", "2324"}, {"muxrate", "1411200"},
		}
		// SCR starts at 36000 and the first three packs carry no payload.
		c.MuxPreload = (36000 + 3*1200) / 90000.0
	case name == "svcd":
		opts = [][2]string{
			{"codec:v", "mpeg2video"}, {"codec:a", "mp2"}, {"f", "svcd"},
			{"s", n.pick("480x576", "480x480")}, {"r", normFrameRates[n]},
			{"pix_fmt", "yuv420p"}, {"ar", "44100"},
		}
		generic = [][2]string{
			{"g", n.pick("15", "18")},
			{"b:v", "2040000"}, {"maxrate:v", "2516000"}, {"minrate:v", "0"}, {"bufsize:v", "1835008"},
			{"scan_offset", "1"}, {"b:a", "224000"}, {"packetsize", "2324"},
		}
	case name == "dvd":
		opts = [][2]string{
			{"codec:v", "mpeg2video"}, {"codec:a", "ac3"}, {"f", "dvd"},
			{"s", n.pick("720x576", "720x480")}, {"r", normFrameRates[n]},
			{"pix_fmt", "yuv420p"}, {"ar", "48000"},
		}
		generic = [][2]string{
			{"g", n.pick("15", "18")},
			{"b:v", "6000000"}, {"maxrate:v", "9000000"}, {"minrate:v", "0"}, {"bufsize:v", "1835008"},
			{"packetsize", "2048"}, {"muxrate", "10080000"}, {"b:a", "448000"},
		}
	case strings.HasPrefix(name, "dv"):
		pixFmt := n.pick("yuv420p", "yuv411p")
		if strings.HasPrefix(name, "dv50") {
			pixFmt = "yuv422p"
		}
		opts = [][2]string{
			{"f", "dv"}, {"s", n.pick("720x576", "720x480")}, {"pix_fmt", pixFmt},
			{"r", normFrameRates[n]}, {"ar", "48000"}, {"ac", "2"},
		}
	default:
		return job.Resolutionf("Unknown target: %s", name)
	}

	for _, o := range opts {
		if err := ParseOption(c, o[0], o[1]); err != nil {
			return err
		}
	}
	for _, o := range generic {
		if err := c.defaultInGroup(o[0], o[1], media.DontOverwrite); err != nil {
			return err
		}
	}
	return nil
}

// guessNorm inspects the time base of input video streams.
func guessNorm(j *job.Job) norm {
	for _, f := range j.InputFiles {
		for _, st := range f.Ctx.Streams {
			if st.Type != media.Video || st.TimeBase.Num == 0 {
				continue
			}
			switch int64(st.TimeBase.Den) * 1000 / int64(st.TimeBase.Num) {
			case 25000:
				return normPAL
			case 29970, 23976:
				return normNTSC
			}
		}
	}
	return normUnknown
}
