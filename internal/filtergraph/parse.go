// Package filtergraph parses filter graph descriptions far enough to find
// their open input and output pads (labels and media types), and registers
// simple and complex graphs on a job. It never builds or runs filters.
package filtergraph

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/backmassage/muxgraph/internal/media"
)

// ErrSyntax is wrapped by Parse for malformed descriptions.
var ErrSyntax = errors.New("invalid filtergraph")

// Pad is an open (unconnected) pad of a parsed graph.
type Pad struct {
	// Label is the link label, without brackets; empty when unlabeled.
	Label  string
	Type   media.Type
	Filter string
	// PadIndex is the pad position on its filter.
	PadIndex int
	// NbPads is the number of pads on that side of the filter.
	NbPads int
}

// Describe names the pad the way diagnostics refer to it.
func (p Pad) Describe() string {
	if p.NbPads > 1 {
		return fmt.Sprintf("%s:%d", p.Filter, p.PadIndex)
	}
	return p.Filter
}

// Graph is the result of parsing a description.
type Graph struct {
	Desc    string
	Inputs  []Pad
	Outputs []Pad
}

type filterInst struct {
	name string
	args string
	in   []media.Type
	out  []media.Type
}

type openPad struct {
	label string
	f     *filterInst
	idx   int
}

// Parse splits desc into chains and filters, connects labeled links and
// returns the pads left open.
func Parse(desc string) (*Graph, error) {
	g := &Graph{Desc: desc}
	var openIns, openOuts []openPad

	for _, chain := range splitTop(desc, ';') {
		chain = strings.TrimSpace(chain)
		if chain == "" {
			continue
		}
		var prevOuts []openPad
		for _, text := range splitTop(chain, ',') {
			inLabels, rest, err := takeLabels(strings.TrimSpace(text))
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrSyntax, desc)
			}
			body, outLabels, err := takeTrailingLabels(rest)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrSyntax, desc)
			}
			name, args, _ := strings.Cut(body, "=")
			name = strings.TrimSpace(name)
			if at := strings.IndexByte(name, '@'); at > 0 {
				name = name[:at]
			}
			if name == "" {
				return nil, fmt.Errorf("%w: %s", ErrSyntax, desc)
			}
			f := &filterInst{name: name, args: args}
			f.in, f.out = pads(name, args)

			// inputs: labels first, then links from the previous filter
			next := 0
			for _, l := range inLabels {
				if next >= len(f.in) {
					return nil, fmt.Errorf("%w: too many inputs for filter %s", ErrSyntax, name)
				}
				if i := findPad(openOuts, l); i >= 0 {
					openOuts = append(openOuts[:i], openOuts[i+1:]...)
				} else {
					openIns = append(openIns, openPad{label: l, f: f, idx: next})
				}
				next++
			}
			linked := min(len(prevOuts), len(f.in)-next)
			next += linked
			openOuts = append(openOuts, prevOuts[linked:]...)
			for ; next < len(f.in); next++ {
				openIns = append(openIns, openPad{f: f, idx: next})
			}

			// outputs: labels first, the rest chain into the next filter
			prevOuts = nil
			for i := range f.out {
				if i < len(outLabels) {
					l := outLabels[i]
					if j := findPad(openIns, l); j >= 0 {
						openIns = append(openIns[:j], openIns[j+1:]...)
					} else {
						openOuts = append(openOuts, openPad{label: l, f: f, idx: i})
					}
					continue
				}
				prevOuts = append(prevOuts, openPad{f: f, idx: i})
			}
			if len(outLabels) > len(f.out) {
				return nil, fmt.Errorf("%w: too many outputs for filter %s", ErrSyntax, name)
			}
		}
		openOuts = append(openOuts, prevOuts...)
	}

	for _, p := range openIns {
		g.Inputs = append(g.Inputs, Pad{Label: p.label, Type: p.f.in[p.idx], Filter: p.f.name, PadIndex: p.idx, NbPads: len(p.f.in)})
	}
	for _, p := range openOuts {
		g.Outputs = append(g.Outputs, Pad{Label: p.label, Type: p.f.out[p.idx], Filter: p.f.name, PadIndex: p.idx, NbPads: len(p.f.out)})
	}
	return g, nil
}

func findPad(list []openPad, label string) int {
	for i, p := range list {
		if p.label == label {
			return i
		}
	}
	return -1
}

// splitTop splits s on sep outside brackets and quotes.
func splitTop(s string, sep byte) []string {
	var out []string
	depth, start := 0, 0
	quoted := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\':
			i++
		case c == '\'':
			quoted = !quoted
		case quoted:
		case c == '[':
			depth++
		case c == ']':
			depth--
		case c == sep && depth == 0:
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

func takeLabels(s string) ([]string, string, error) {
	var labels []string
	for strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return nil, "", ErrSyntax
		}
		labels = append(labels, s[1:end])
		s = strings.TrimSpace(s[end+1:])
	}
	return labels, s, nil
}

func takeTrailingLabels(s string) (string, []string, error) {
	var labels []string
	s = strings.TrimSpace(s)
	for strings.HasSuffix(s, "]") {
		start := strings.LastIndexByte(s, '[')
		if start < 0 {
			return "", nil, ErrSyntax
		}
		labels = append([]string{s[start+1 : len(s)-1]}, labels...)
		s = strings.TrimSpace(s[:start])
	}
	return s, labels, nil
}

// --- Filter pad tables ---

var audioSources = map[string]bool{"anullsrc": true, "sine": true, "aevalsrc": true, "anoisesrc": true, "amovie": true, "flite": true}

var videoSources = map[string]bool{
	"color": true, "testsrc": true, "testsrc2": true, "nullsrc": true, "smptebars": true, "smptehdbars": true,
	"rgbtestsrc": true, "yuvtestsrc": true, "mandelbrot": true, "life": true, "cellauto": true,
	"allrgb": true, "allyuv": true, "haldclutsrc": true, "movie": true, "buffer": true,
}

var sinks = map[string]bool{"nullsink": true, "anullsink": true, "buffersink": true, "abuffersink": true}

// audio filters that do not start with 'a'
var audioNamed = map[string]bool{
	"volume": true, "pan": true, "join": true, "loudnorm": true, "dynaudnorm": true, "compand": true,
	"channelmap": true, "channelsplit": true, "earwax": true, "equalizer": true, "highpass": true,
	"lowpass": true, "bandpass": true, "bass": true, "treble": true, "silenceremove": true,
	"silencedetect": true, "rubberband": true, "sidechaincompress": true, "stereotools": true,
	"extrastereo": true, "firequalizer": true, "superequalizer": true, "surround": true, "hdcd": true,
	"replaygain": true, "volumedetect": true, "ebur128": true, "crystalizer": true, "dcshift": true,
	"headphone": true, "haas": true, "crossfeed": true, "biquad": true, "lv2": true, "ladspa": true,
}

// video filters whose name starts with 'a'
var videoNamedA = map[string]bool{
	"alphaextract": true, "alphamerge": true, "amplify": true, "ass": true, "atadenoise": true,
	"avgblur": true, "addroi": true,
}

// IsAudioFilter guesses whether a filter processes audio.
func IsAudioFilter(name string) bool {
	if audioNamed[name] || audioSources[name] {
		return true
	}
	return strings.HasPrefix(name, "a") && !videoNamedA[name] && !videoSources[name]
}

func repeat(t media.Type, n int) []media.Type {
	out := make([]media.Type, n)
	for i := range out {
		out[i] = t
	}
	return out
}

func intArg(args, key string, pos, def int) int {
	for i, kv := range strings.Split(args, ":") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			if i == pos {
				v = k
			} else {
				continue
			}
		} else if k != key {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// pads returns the input and output pad types of a filter instance.
func pads(name, args string) (in, out []media.Type) {
	t := media.Video
	if IsAudioFilter(name) {
		t = media.Audio
	}
	switch {
	case audioSources[name]:
		return nil, []media.Type{media.Audio}
	case videoSources[name]:
		return nil, []media.Type{media.Video}
	case sinks[name]:
		return []media.Type{t}, nil
	}
	switch name {
	case "overlay", "blend", "alphamerge", "scale2ref", "displace", "maskedmerge", "psnr", "ssim", "libvmaf", "paletteuse", "haldclut", "lut2", "xfade", "premultiply":
		in = repeat(media.Video, 2)
		if name == "displace" || name == "maskedmerge" {
			in = repeat(media.Video, 3)
		}
		out = []media.Type{media.Video}
		if name == "scale2ref" {
			out = repeat(media.Video, 2)
		}
		return in, out
	case "hstack", "vstack", "xstack", "mix", "interleave":
		return repeat(media.Video, intArg(args, "inputs", 0, 2)), []media.Type{media.Video}
	case "amix", "amerge", "ainterleave", "join":
		return repeat(media.Audio, intArg(args, "inputs", 0, 2)), []media.Type{media.Audio}
	case "acrossfade", "sidechaincompress", "sidechaingate", "afir", "axcorrelate":
		return repeat(media.Audio, 2), []media.Type{media.Audio}
	case "split", "select":
		return []media.Type{media.Video}, repeat(media.Video, intArg(args, "outputs", 0, nonZero(name == "split", 2, 1)))
	case "asplit", "aselect":
		return []media.Type{media.Audio}, repeat(media.Audio, intArg(args, "outputs", 0, nonZero(name == "asplit", 2, 1)))
	case "channelsplit":
		return []media.Type{media.Audio}, repeat(media.Audio, 2)
	case "showwaves", "showspectrum", "showfreqs", "showvolume", "avectorscope", "showcqt", "ahistogram":
		return []media.Type{media.Audio}, []media.Type{media.Video}
	case "concat":
		n := intArg(args, "n", -1, 2)
		v := intArg(args, "v", -1, 1)
		a := intArg(args, "a", -1, 0)
		var seg []media.Type
		seg = append(seg, repeat(media.Video, v)...)
		seg = append(seg, repeat(media.Audio, a)...)
		for i := 0; i < n; i++ {
			in = append(in, seg...)
		}
		return in, seg
	}
	return []media.Type{t}, []media.Type{t}
}

func nonZero(cond bool, a, b int) int {
	if cond {
		return a
	}
	return b
}
