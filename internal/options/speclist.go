package options

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/backmassage/muxgraph/internal/job"
	"github.com/backmassage/muxgraph/internal/media"
	"github.com/backmassage/muxgraph/internal/specifier"
)

// maxListLen bounds a specifier list; larger requests are storage errors.
const maxListLen = 1 << 20

// SpecValue is one occurrence of a specifier option.
type SpecValue[T any] struct {
	// Spec is the stream specifier after ':'; empty matches every stream.
	Spec  string
	Value T
}

// SpecList is the ordered list of values given to a specifier option and
// its aliases. Later entries take precedence.
type SpecList[T any] struct {
	// names are the option names writing to the list, first is canonical.
	names  []string
	Values []SpecValue[T]
}

func newList[T any](names ...string) SpecList[T] {
	return SpecList[T]{names: names}
}

func (l *SpecList[T]) add(spec string, v T) error {
	if len(l.Values)+1 >= maxListLen {
		return job.Storagef("Array too big.")
	}
	l.Values = append(l.Values, SpecValue[T]{Spec: spec, Value: v})
	return nil
}

// Len returns the number of entries.
func (l *SpecList[T]) Len() int { return len(l.Values) }

// Last returns the most recent value regardless of its specifier.
func (l *SpecList[T]) Last() (T, bool) {
	if len(l.Values) == 0 {
		var zero T
		return zero, false
	}
	return l.Values[len(l.Values)-1].Value, true
}

// ByType returns the last value whose specifier is exactly spec, such as
// "v" for per-type options applied before any stream exists.
func (l *SpecList[T]) ByType(spec string) (T, bool) {
	var out T
	found := false
	for _, v := range l.Values {
		if v.Spec == spec {
			out, found = v.Value, true
		}
	}
	return out, found
}

// Resolve returns the value of the last entry whose specifier matches st,
// or def when none does. More than one match is logged as a warning.
func (l *SpecList[T]) Resolve(log job.Logger, c *media.Container, st *media.Stream, def T) (T, error) {
	out := def
	matches := 0
	var last *SpecValue[T]
	for i := range l.Values {
		so := &l.Values[i]
		ok, err := specifier.Match(c, st, so.Spec)
		if err != nil {
			return def, job.Wrap(err, "Invalid stream specifier: %s.", so.Spec)
		}
		if ok {
			out = so.Value
			last = so
			matches++
		}
	}
	if matches > 1 && log != nil {
		sep := ""
		if last.Spec != "" {
			sep = ":"
		}
		log.Warn("Multiple %s options specified for stream %d, only the last option '-%s%s%s %s' will be used.",
			l.joinedNames(), st.Index, l.canonical(), sep, last.Spec, formatValue(last.Value))
	}
	return out, nil
}

// Matches reports whether any entry matches st.
func (l *SpecList[T]) Matches(c *media.Container, st *media.Stream) (bool, error) {
	for _, so := range l.Values {
		ok, err := specifier.Match(c, st, so.Spec)
		if err != nil {
			return false, job.Wrap(err, "Invalid stream specifier: %s.", so.Spec)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (l *SpecList[T]) canonical() string {
	if len(l.names) == 0 {
		return "?"
	}
	return l.names[0]
}

// joinedNames renders "-a, -b or -c".
func (l *SpecList[T]) joinedNames() string {
	var b strings.Builder
	for i, n := range l.names {
		b.WriteString("-" + n)
		switch {
		case i+2 < len(l.names):
			b.WriteString(", ")
		case i+1 < len(l.names):
			b.WriteString(" or ")
		}
	}
	return b.String()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', 6, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	}
	return fmt.Sprint(v)
}
