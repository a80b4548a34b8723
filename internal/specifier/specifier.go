// Package specifier implements stream specifiers: the ":v", ":a:1",
// ":p:1:0", ":m:language:eng" suffixes that narrow an option or a map to a
// subset of a container's streams.
//
// Grammar, evaluated left to right; each clause narrows the match:
//
//	N           stream index N (or the Nth stream matched by preceding clauses)
//	v|a|s|d|t   stream type; V is video that is not an attached picture
//	p:ID        streams in program ID
//	#ID, i:ID   stream id (terminal)
//	m:KEY[:VAL] metadata tag present (and equal to VAL) (terminal)
//	u           stream has usable codec parameters (terminal)
//
// An empty specifier matches every stream.
package specifier

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/backmassage/muxgraph/internal/media"
)

// ErrInvalid is returned (wrapped) for malformed specifiers.
var ErrInvalid = errors.New("invalid stream specifier")

// Match reports whether spec selects st within c.
func Match(c *media.Container, st *media.Stream, spec string) (bool, error) {
	m, rest, prog, err := matchClauses(c, st, spec, true)
	if err != nil {
		return false, err
	}
	if rest == "" {
		return m, nil
	}

	index, err := strconv.ParseInt(rest, 0, 64)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrInvalid, spec)
	}
	if rest == spec {
		return int(index) == st.Index, nil
	}

	candidates := c.Streams
	if prog != nil {
		candidates = candidates[:0:0]
		for _, idx := range prog.StreamIndexes {
			if idx >= 0 && idx < len(c.Streams) {
				candidates = append(candidates, c.Streams[idx])
			}
		}
	}
	for _, cand := range candidates {
		if index < 0 {
			break
		}
		ok, _, _, err := matchClauses(c, cand, spec, false)
		if err != nil {
			return false, err
		}
		if ok {
			if index == 0 && cand == st {
				return true, nil
			}
			index--
		}
	}
	return false, nil
}

// matchClauses evaluates the non-index clauses. When a trailing index is
// reached and wantIndex is set, the index text is returned as rest.
func matchClauses(c *media.Container, st *media.Stream, spec string, wantIndex bool) (bool, string, *media.Program, error) {
	match := true
	var prog *media.Program
	s := spec
	for s != "" {
		switch {
		case s[0] >= '0' && s[0] <= '9':
			if wantIndex {
				return match, s, prog, nil
			}
			return match, "", prog, nil

		case strings.IndexByte("vasdtV", s[0]) >= 0:
			want := s[0]
			s = s[1:]
			if s != "" {
				if s[0] != ':' {
					return false, "", nil, fmt.Errorf("%w: %s", ErrInvalid, spec)
				}
				s = s[1:]
			}
			match = match && typeMatches(st, want)

		case s[0] == 'p' && len(s) > 1 && s[1] == ':':
			s = s[2:]
			end := strings.IndexByte(s, ':')
			idText := s
			if end >= 0 {
				idText = s[:end]
			}
			id, err := strconv.ParseInt(idText, 0, 32)
			if idText == "" || err != nil {
				return false, "", nil, fmt.Errorf("%w: %s", ErrInvalid, spec)
			}
			if end >= 0 {
				s = s[end+1:]
			} else {
				s = ""
			}
			if match {
				p := c.Program(int(id))
				match = p != nil && p.HasStream(st.Index)
				if p != nil {
					prog = p
				}
			}

		case s[0] == '#' || (s[0] == 'i' && len(s) > 1 && s[1] == ':'):
			if s[0] == '#' {
				s = s[1:]
			} else {
				s = s[2:]
			}
			id, err := strconv.ParseInt(s, 0, 64)
			if s == "" || err != nil {
				return false, "", nil, fmt.Errorf("%w: %s", ErrInvalid, spec)
			}
			return match && int64(st.ID) == id, "", prog, nil

		case s[0] == 'm' && len(s) > 1 && s[1] == ':':
			s = s[2:]
			key, val, hasVal := strings.Cut(s, ":")
			tag, ok := st.Metadata.Get(key)
			found := ok && (!hasVal || tag == val)
			return match && found, "", prog, nil

		case s == "u":
			return match && st.Usable(), "", prog, nil

		default:
			return false, "", nil, fmt.Errorf("%w: %s", ErrInvalid, spec)
		}
	}
	return match, "", prog, nil
}

func typeMatches(st *media.Stream, letter byte) bool {
	switch letter {
	case 'v':
		return st.Type == media.Video
	case 'V':
		return st.Type == media.Video && st.Disposition&media.DispositionAttachedPic == 0
	case 'a':
		return st.Type == media.Audio
	case 's':
		return st.Type == media.Subtitle
	case 'd':
		return st.Type == media.Data
	case 't':
		return st.Type == media.Attachment
	}
	return false
}

// MatchAny returns the streams of c selected by spec, in order.
func MatchAny(c *media.Container, spec string) ([]*media.Stream, error) {
	var out []*media.Stream
	for _, st := range c.Streams {
		ok, err := Match(c, st, spec)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, st)
		}
	}
	return out, nil
}
