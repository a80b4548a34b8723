// Package options is the option registry and value writer. Every
// command-line option is a [Descriptor] whose Set closure converts the raw
// string and stores it in a per-group [Context], or in the run-level
// settings of the job the context belongs to.
package options

import "strings"

// Kind is the value type an option converts its argument to.
type Kind int

const (
	KindFunc Kind = iota
	KindBool
	KindInt
	KindInt64
	KindFloat
	KindDouble
	KindTime
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindInt64:
		return "int64"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindTime:
		return "time"
	case KindString:
		return "string"
	}
	return "func"
}

// Flags describe where an option applies and how the grouper treats it.
type Flags uint32

const (
	HasArg Flags = 1 << iota
	Expert
	Video
	Audio
	Subtitle
	Data
	// PerFile options are stored in the current file group even though
	// they have no specifier or context field.
	PerFile
	// Offset options store into a field of the group context.
	Offset
	// Spec options accept a ":spec" suffix and append to a specifier list.
	Spec
	Input
	Output
	// Run options store into the job settings.
	Run
)

// Global reports whether the grouper places the option in the global group.
func (f Flags) Global() bool { return f&(PerFile|Spec|Offset) == 0 }

// Descriptor is one registry entry. The table is built once and never
// mutated.
type Descriptor struct {
	Name    string
	Kind    Kind
	Flags   Flags
	Help    string
	ArgName string
	// Set converts value and stores it. key is the option as written, with
	// any ":spec" suffix.
	Set func(c *Context, key, value string) error
}

// Has reports whether every bit of f is set on the descriptor.
func (d *Descriptor) Has(f Flags) bool { return d.Flags&f == f }

// NeedsArg reports whether the grouper must consume a value token.
func (d *Descriptor) NeedsArg() bool { return d.Flags&HasArg != 0 }

// specOf returns the stream specifier part of key.
func specOf(key string) string {
	if _, spec, ok := strings.Cut(key, ":"); ok {
		return spec
	}
	return ""
}

// --- Constructors ---

type parser[T any] func(key, value string) (T, error)

// argFlags adds HasArg to every kind but boolean.
func argFlags(kind Kind, flags Flags) Flags {
	if kind != KindBool {
		flags |= HasArg
	}
	return flags
}

// field builds a descriptor storing into a scalar slot.
func field[T any](name string, kind Kind, flags Flags, parse parser[T], slot func(*Context) *T, help, argName string) *Descriptor {
	flags = argFlags(kind, flags)
	return &Descriptor{
		Name: name, Kind: kind, Flags: flags, Help: help, ArgName: argName,
		Set: func(c *Context, key, value string) error {
			v, err := parse(key, value)
			if err != nil {
				return err
			}
			*slot(c) = v
			return nil
		},
	}
}

// list builds a descriptor appending to a specifier list.
func list[T any](name string, kind Kind, flags Flags, parse parser[T], slot func(*Context) *SpecList[T], help, argName string) *Descriptor {
	flags = argFlags(kind, flags)
	return &Descriptor{
		Name: name, Kind: kind, Flags: flags | Spec, Help: help, ArgName: argName,
		Set: func(c *Context, key, value string) error {
			v, err := parse(key, value)
			if err != nil {
				return err
			}
			return slot(c).add(specOf(key), v)
		},
	}
}

// fn builds a descriptor backed by a custom setter. Custom setters always
// take a value.
func fn(name string, flags Flags, set func(c *Context, key, value string) error, help, argName string) *Descriptor {
	return &Descriptor{Name: name, Kind: KindFunc, Flags: flags | HasArg, Help: help, ArgName: argName, Set: set}
}

// --- Value parsers ---

func parseBool(key, value string) (bool, error) {
	n, err := ParseNumber(key, value, NumInt64, minInt32, maxInt32)
	return n != 0, err
}

func parseInt(key, value string) (int, error) {
	n, err := ParseNumber(key, value, NumInt64, minInt32, maxInt32)
	return int(n), err
}

func parseInt64(key, value string) (int64, error) {
	n, err := ParseNumber(key, value, NumInt64, minInt64, maxInt64)
	return int64(n), err
}

func parseFloat(key, value string) (float64, error) {
	return ParseNumber(key, value, NumFloat, negInf, posInf)
}

func parseDouble(key, value string) (float64, error) {
	return ParseNumber(key, value, NumDouble, negInf, posInf)
}

func parseDuration(key, value string) (int64, error) {
	return ParseTime(key, value, true)
}

func parseString(_, value string) (string, error) { return value, nil }
