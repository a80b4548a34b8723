package display

import (
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	langdisplay "golang.org/x/text/language/display"

	"github.com/backmassage/muxgraph/internal/media"
)

// FormatBytes returns a human-readable IEC size (B, KiB, MiB, ...).
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatLimit renders a size limit; the unset maximum renders as "-".
func FormatLimit(limit uint64) string {
	if limit == math.MaxUint64 {
		return "-"
	}
	return humanize.IBytes(limit)
}

// FormatBitrate renders bits per second with an SI prefix (e.g. "5 Mb/s").
func FormatBitrate(bps int64) string {
	if bps <= 0 {
		return ""
	}
	return humanize.SI(float64(bps), "b/s")
}

// FormatTime renders a microsecond timestamp or duration. Unknown and
// unlimited values render as "-".
func FormatTime(us int64) string {
	if us == media.NoPTS || us == math.MaxInt64 {
		return "-"
	}
	return (time.Duration(us) * time.Microsecond).String()
}

var titleCaser = cases.Title(language.English)

// TypeName returns the stream type for display ("Video", "Audio", ...).
func TypeName(t media.Type) string {
	return titleCaser.String(t.String())
}

// LanguageName returns the English name of a language tag such as "eng"
// or "pt-BR". Unparseable tags come back unchanged; "und" is empty.
func LanguageName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || code == "und" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := langdisplay.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}

// QuoteArgs joins argv for copy-and-paste into a POSIX shell.
func QuoteArgs(args []string) string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = quoteArg(a)
	}
	return strings.Join(out, " ")
}

func quoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`!*?[]{}()<>|&;#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
