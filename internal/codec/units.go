package codec

import (
	"errors"
	"fmt"
	"math/big"
	"math/bits"
	"strconv"
	"strings"

	"github.com/backmassage/muxgraph/internal/media"
)

// --- Pixel and sample formats ---

var pixFmts = map[string]bool{}

func init() {
	for _, n := range strings.Fields(`
		yuv420p yuyv422 rgb24 bgr24 yuv422p yuv444p yuv410p yuv411p gray monow monob pal8
		yuvj420p yuvj422p yuvj444p uyvy422 bgr8 bgr4 bgr4_byte rgb8 rgb4 rgb4_byte nv12 nv21
		argb rgba abgr bgra gray16be gray16le yuv440p yuvj440p yuva420p rgb48be rgb48le
		rgb565be rgb565le rgb555be rgb555le bgr565le bgr555le rgb444le rgb444be
		vaapi yuv420p16le yuv420p16be yuv422p16le yuv444p16le dxva2_vld
		yuv420p9le yuv420p10le yuv420p10be yuv422p10le yuv422p10be yuv444p9le yuv444p10le yuv444p10be
		yuv422p9le gbrp gbrp9le gbrp10le gbrp10be gbrp12le gbrp16le yuva422p yuva444p
		yuva420p10le yuva444p10le nv16 nv20le yuv420p12le yuv422p12le yuv444p12le
		rgba64be rgba64le ya8 gray8a ya16be ya16le gbrap gbrap10le gbrap12le
		videotoolbox_vld cuda qsv mmal d3d11 drm_prime opencl vulkan
		yuv420p14le yuv422p14le yuv444p14le gray9le gray10le gray12le gray14le
		p010le p010be p016le grayf32le nv24 nv42 x2rgb10le y210le`) {
		pixFmts[n] = true
	}
}

// ValidPixFmt reports whether name is a known pixel format.
func ValidPixFmt(name string) bool { return pixFmts[name] }

// SampleFmt describes one audio sample format.
type SampleFmt struct {
	Name   string
	Bytes  int
	Planar bool
}

var sampleFmts = []SampleFmt{
	{"u8", 1, false}, {"s16", 2, false}, {"s32", 4, false}, {"flt", 4, false}, {"dbl", 8, false},
	{"u8p", 1, true}, {"s16p", 2, true}, {"s32p", 4, true}, {"fltp", 4, true}, {"dblp", 8, true},
	{"s64", 8, false}, {"s64p", 8, true},
}

// FindSampleFmt returns the sample format named name, or nil.
func FindSampleFmt(name string) *SampleFmt {
	for i := range sampleFmts {
		if sampleFmts[i].Name == name {
			return &sampleFmts[i]
		}
	}
	return nil
}

// --- Channel layouts ---

const (
	chFL  = 0x1
	chFR  = 0x2
	chFC  = 0x4
	chLFE = 0x8
	chBL  = 0x10
	chBR  = 0x20
	chFLC = 0x40
	chFRC = 0x80
	chBC  = 0x100
	chSL  = 0x200
	chSR  = 0x400
)

var channelNames = []struct {
	name string
	mask uint64
}{
	{"FL", chFL}, {"FR", chFR}, {"FC", chFC}, {"LFE", chLFE}, {"BL", chBL}, {"BR", chBR},
	{"FLC", chFLC}, {"FRC", chFRC}, {"BC", chBC}, {"SL", chSL}, {"SR", chSR},
}

// ordered so the first layout with a channel count is its default
var channelLayouts = []struct {
	name string
	mask uint64
}{
	{"mono", chFC},
	{"stereo", chFL | chFR},
	{"2.1", chFL | chFR | chLFE},
	{"3.0", chFL | chFR | chFC},
	{"3.0(back)", chFL | chFR | chBC},
	{"4.0", chFL | chFR | chFC | chBC},
	{"quad", chFL | chFR | chBL | chBR},
	{"quad(side)", chFL | chFR | chSL | chSR},
	{"3.1", chFL | chFR | chFC | chLFE},
	{"5.0", chFL | chFR | chFC | chSL | chSR},
	{"5.0(back)", chFL | chFR | chFC | chBL | chBR},
	{"4.1", chFL | chFR | chFC | chLFE | chBC},
	{"5.1", chFL | chFR | chFC | chLFE | chSL | chSR},
	{"5.1(back)", chFL | chFR | chFC | chLFE | chBL | chBR},
	{"6.0", chFL | chFR | chFC | chBC | chSL | chSR},
	{"6.1", chFL | chFR | chFC | chLFE | chBC | chSL | chSR},
	{"7.0", chFL | chFR | chFC | chSL | chSR | chBL | chBR},
	{"7.1", chFL | chFR | chFC | chLFE | chSL | chSR | chBL | chBR},
	{"7.1(wide)", chFL | chFR | chFC | chLFE | chSL | chSR | chFLC | chFRC},
}

// LayoutChannels returns the number of channels in a layout mask.
func LayoutChannels(mask uint64) int { return bits.OnesCount64(mask) }

// DefaultLayout returns the default layout for a channel count, or 0.
func DefaultLayout(channels int) uint64 {
	for _, l := range channelLayouts {
		if LayoutChannels(l.mask) == channels {
			return l.mask
		}
	}
	return 0
}

// LayoutName returns the canonical name of mask, or its channel list.
func LayoutName(mask uint64) string {
	for _, l := range channelLayouts {
		if l.mask == mask {
			return l.name
		}
	}
	var parts []string
	for _, c := range channelNames {
		if mask&c.mask != 0 {
			parts = append(parts, c.name)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("0x%x", mask)
	}
	return strings.Join(parts, "+")
}

// ParseChannelLayout accepts a layout name, "Nc", a channel list joined by
// "+" or "|", or a numeric mask.
func ParseChannelLayout(s string) (uint64, error) {
	for _, l := range channelLayouts {
		if l.name == s {
			return l.mask, nil
		}
	}
	if n, ok := strings.CutSuffix(s, "c"); ok {
		if count, err := strconv.Atoi(n); err == nil && count > 0 {
			if m := DefaultLayout(count); m != 0 {
				return m, nil
			}
		}
	}
	if v, err := strconv.ParseUint(s, 0, 64); err == nil && v != 0 {
		return v, nil
	}
	var mask uint64
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '+' || r == '|' }) {
		found := false
		for _, c := range channelNames {
			if c.name == part {
				mask |= c.mask
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown channel layout %q", s)
		}
	}
	if mask == 0 {
		return 0, fmt.Errorf("unknown channel layout %q", s)
	}
	return mask, nil
}

// --- Frame sizes and rates ---

var videoSizes = map[string][2]int{
	"ntsc": {720, 480}, "pal": {720, 576}, "qntsc": {352, 240}, "qpal": {352, 288},
	"sntsc": {640, 480}, "spal": {768, 576}, "film": {352, 240}, "ntsc-film": {352, 240},
	"sqcif": {128, 96}, "qcif": {176, 144}, "cif": {352, 288}, "4cif": {704, 576}, "16cif": {1408, 1152},
	"qqvga": {160, 120}, "qvga": {320, 240}, "vga": {640, 480}, "svga": {800, 600}, "xga": {1024, 768},
	"uxga": {1600, 1200}, "qxga": {2048, 1536}, "sxga": {1280, 1024}, "qsxga": {2560, 2048},
	"hsxga": {5120, 4096}, "wvga": {852, 480}, "wxga": {1366, 768}, "wsxga": {1600, 1024},
	"wuxga": {1920, 1200}, "woxga": {2560, 1600}, "wqsxga": {3200, 2048}, "wquxga": {3840, 2400},
	"whsxga": {6400, 4096}, "whuxga": {7680, 4800}, "cga": {320, 200}, "ega": {640, 350},
	"hd480": {852, 480}, "hd720": {1280, 720}, "hd1080": {1920, 1080},
	"2k": {2048, 1080}, "2kdci": {2048, 1080}, "2kflat": {1998, 1080}, "2kscope": {2048, 858},
	"4k": {4096, 2160}, "4kdci": {4096, 2160}, "4kflat": {3996, 2160}, "4kscope": {4096, 1716},
	"nhd": {640, 360}, "hqvga": {240, 160}, "wqvga": {400, 240}, "fwqvga": {432, 240},
	"hvga": {480, 320}, "qhd": {960, 540}, "uhd2160": {3840, 2160}, "uhd4320": {7680, 4320},
}

var videoRates = map[string]media.Rational{
	"ntsc": {Num: 30000, Den: 1001}, "pal": {Num: 25, Den: 1}, "qntsc": {Num: 30000, Den: 1001}, "qpal": {Num: 25, Den: 1},
	"sntsc": {Num: 30000, Den: 1001}, "spal": {Num: 25, Den: 1}, "film": {Num: 24, Den: 1}, "ntsc-film": {Num: 24000, Den: 1001},
}

// ErrInvalidValue is wrapped by the unit parsers.
var ErrInvalidValue = errors.New("invalid value")

// ParseVideoSize accepts an abbreviation such as "hd720" or "WxH".
func ParseVideoSize(s string) (w, h int, err error) {
	if wh, ok := videoSizes[s]; ok {
		return wh[0], wh[1], nil
	}
	ws, hs, ok := strings.Cut(s, "x")
	if ok {
		w, err1 := strconv.Atoi(ws)
		h, err2 := strconv.Atoi(hs)
		if err1 == nil && err2 == nil && w > 0 && h > 0 {
			return w, h, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: frame size %q", ErrInvalidValue, s)
}

// ParseRational accepts "a/b", "a:b" or a decimal number.
func ParseRational(s string) (media.Rational, error) {
	for _, sep := range []string{"/", ":"} {
		if a, b, ok := strings.Cut(s, sep); ok {
			num, err1 := strconv.Atoi(strings.TrimSpace(a))
			den, err2 := strconv.Atoi(strings.TrimSpace(b))
			if err1 != nil || err2 != nil {
				return media.Rational{}, fmt.Errorf("%w: %q", ErrInvalidValue, s)
			}
			return media.Rational{Num: num, Den: den}, nil
		}
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return media.Rational{}, fmt.Errorf("%w: %q", ErrInvalidValue, s)
	}
	if !r.Num().IsInt64() || !r.Denom().IsInt64() {
		return media.Rational{}, fmt.Errorf("%w: %q", ErrInvalidValue, s)
	}
	return media.Rational{Num: int(r.Num().Int64()), Den: int(r.Denom().Int64())}, nil
}

// ParseVideoRate accepts an abbreviation such as "ntsc" or a rational. The
// rate must be positive.
func ParseVideoRate(s string) (media.Rational, error) {
	if r, ok := videoRates[s]; ok {
		return r, nil
	}
	r, err := ParseRational(s)
	if err != nil || r.Num <= 0 || r.Den <= 0 {
		return media.Rational{}, fmt.Errorf("%w: frame rate %q", ErrInvalidValue, s)
	}
	return r, nil
}
