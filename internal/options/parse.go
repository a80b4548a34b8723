package options

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/backmassage/muxgraph/internal/job"
)

// NumType selects the integrality check of [ParseNumber].
type NumType int

const (
	NumInt NumType = iota
	NumInt64
	NumFloat
	NumDouble
)

const (
	minInt32 = math.MinInt32
	maxInt32 = math.MaxInt32
	minInt64 = math.MinInt64
	maxInt64 = math.MaxInt64
)

var (
	negInf = math.Inf(-1)
	posInf = math.Inf(1)
)

// ParseNumber converts s for the option named context. Trailing garbage,
// values outside [min, max] and non-integral values for integer types are
// conversion errors.
func ParseNumber(context, s string, typ NumType, min, max float64) (float64, error) {
	d, tail := strtod(s)
	switch {
	case tail != "":
		return 0, job.Conversionf("Expected number for %s but found: %s", context, s)
	case d < min || d > max:
		return 0, job.Conversionf("The value for %s was %s which is not within %f - %f", context, s, min, max)
	case typ == NumInt64 && float64(toInt64(d)) != d:
		return 0, job.Conversionf("Expected int64 for %s but found %s", context, s)
	case typ == NumInt && float64(int32(d)) != d:
		return 0, job.Conversionf("Expected int for %s but found %s", context, s)
	}
	return d, nil
}

// toInt64 converts d, saturating at the int64 range.
func toInt64(d float64) int64 {
	switch {
	case d >= math.MaxInt64:
		return math.MaxInt64
	case d <= math.MinInt64:
		return math.MinInt64
	case math.IsNaN(d):
		return 0
	}
	return int64(d)
}

// si prefixes accepted after a number, as powers of ten
var siPrefixes = map[byte]int{
	'y': -24, 'z': -21, 'a': -18, 'f': -15, 'p': -12, 'n': -9, 'u': -6, 'm': -3,
	'c': -2, 'd': -1, 'h': 2, 'k': 3, 'K': 3, 'M': 6, 'G': 9, 'T': 12, 'P': 15,
	'E': 18, 'Z': 21, 'Y': 24,
}

// strtod parses the longest numeric prefix of s, with an optional SI
// prefix, an 'i' for binary multiples and a 'B' for bytes-to-bits. It
// returns the value and the unparsed rest; a string with no number returns
// s unchanged as the rest.
func strtod(s string) (float64, string) {
	num, rest := numericPrefix(s)
	if num == "" {
		return 0, s
	}
	var d float64
	if hex := strings.TrimLeft(num, "+-"); len(hex) > 2 && (hex[:2] == "0x" || hex[:2] == "0X") {
		n, err := strconv.ParseInt(num, 0, 64)
		if err != nil {
			return 0, s
		}
		d = float64(n)
	} else {
		var err error
		d, err = strconv.ParseFloat(num, 64)
		if err != nil && !isRangeErr(err) {
			return 0, s
		}
	}
	if rest != "" {
		if e, ok := siPrefixes[rest[0]]; ok {
			if len(rest) > 1 && rest[1] == 'i' {
				d *= math.Pow(2, float64(e*10/3))
				rest = rest[2:]
			} else {
				d *= math.Pow(10, float64(e))
				rest = rest[1:]
			}
		}
		if strings.HasPrefix(rest, "B") {
			d *= 8
			rest = rest[1:]
		}
	}
	return d, rest
}

func isRangeErr(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

func numericPrefix(s string) (string, string) {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	lower := strings.ToLower(s[i:])
	for _, word := range []string{"infinity", "inf", "nan"} {
		if strings.HasPrefix(lower, word) {
			return s[:i+len(word)], s[i+len(word):]
		}
	}
	if strings.HasPrefix(lower, "0x") {
		j := i + 2
		for j < len(s) && isHex(s[j]) {
			j++
		}
		if j > i+2 {
			return s[:j], s[j:]
		}
	}
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	if i == start || (i == start+1 && s[start] == '.') {
		return "", s
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}
	return s[:i], s[i:]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// --- Time ---

var (
	clockHMS = regexp.MustCompile(`^(\d+):(\d{1,2}):(\d{1,2})`)
	clockMS  = regexp.MustCompile(`^(\d{1,2}):(\d{1,2})`)
)

// ParseTime converts a duration ("[-][HH:]MM:SS[.m...]" or
// "[-]S+[.m...][s|ms|us]") or, when isDuration is false, a date
// ("now" or "YYYY-MM-DD[T ]HH:MM:SS[.m...][Z]") to microseconds.
func ParseTime(context, s string, isDuration bool) (int64, error) {
	var us int64
	var ok bool
	if isDuration {
		us, ok = parseDurationMicros(s)
	} else {
		us, ok = parseDateMicros(s)
	}
	if !ok {
		what := "date"
		if isDuration {
			what = "duration"
		}
		return 0, job.Conversionf("Invalid %s specification for %s: %s", what, context, s)
	}
	return us, nil
}

func parseDurationMicros(s string) (int64, bool) {
	q := s
	negative := strings.HasPrefix(q, "-")
	if negative {
		q = q[1:]
	}

	var t int64
	if m := clockHMS.FindStringSubmatch(q); m != nil && atoi(m[2]) <= 59 && atoi(m[3]) <= 59 {
		h, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, false
		}
		t = h*3600 + int64(atoi(m[2]))*60 + int64(atoi(m[3]))
		q = q[len(m[0]):]
	} else if m := clockMS.FindStringSubmatch(q); m != nil && atoi(m[1]) <= 59 && atoi(m[2]) <= 59 {
		t = int64(atoi(m[1]))*60 + int64(atoi(m[2]))
		q = q[len(m[0]):]
	} else {
		i := 0
		for i < len(q) && isDigit(q[i]) {
			i++
		}
		if i == 0 {
			return 0, false
		}
		n, err := strconv.ParseInt(q[:i], 10, 64)
		if err != nil {
			return 0, false
		}
		t = n
		q = q[i:]
	}

	var micros int64
	if strings.HasPrefix(q, ".") {
		q = q[1:]
		for n := int64(100000); n >= 1 && q != "" && isDigit(q[0]); n /= 10 {
			micros += n * int64(q[0]-'0')
			q = q[1:]
		}
		q = strings.TrimLeft(q, "0123456789")
	}

	suffix := int64(1000000)
	switch {
	case strings.HasPrefix(q, "ms"):
		suffix = 1000
		micros /= 1000
		q = q[2:]
	case strings.HasPrefix(q, "us"):
		suffix = 1
		micros = 0
		q = q[2:]
	case strings.HasPrefix(q, "s"):
		q = q[1:]
	}
	if q != "" {
		return 0, false
	}
	t = t*suffix + micros
	if negative {
		t = -t
	}
	return t, true
}

var dateLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02t15:04:05.999999",
	"20060102T150405.999999",
	"20060102 150405.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"20060102T150405",
	"20060102150405",
	"15:04:05.999999",
	"15:04:05",
	"150405",
}

// now is replaced in tests.
var now = time.Now

func parseDateMicros(s string) (int64, bool) {
	if strings.EqualFold(s, "now") {
		return now().UnixMicro(), true
	}
	loc := time.Local
	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") {
		s = s[:len(s)-1]
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		if t.Year() == 0 {
			// time only: today
			y, m, d := now().In(loc).Date()
			t = time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
		}
		return t.UnixMicro(), true
	}
	return 0, false
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
