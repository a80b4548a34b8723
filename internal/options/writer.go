package options

import (
	"strings"

	"github.com/backmassage/muxgraph/internal/job"
)

// Write converts value and stores it for the option d, written as key.
// Setter failures of custom options are wrapped with the option and value.
func Write(c *Context, d *Descriptor, key, value string) error {
	if err := d.Set(c, key, value); err != nil {
		if d.Kind == KindFunc {
			return job.Wrap(err, "Failed to set value '%s' for option '%s'", value, key)
		}
		return err
	}
	return nil
}

// Find returns the descriptor whose name equals key up to an optional
// ":spec" suffix, or nil.
func Find(key string) *Descriptor {
	name, _, _ := strings.Cut(key, ":")
	return registry.byName[name]
}

// Table returns the registry in declaration order.
func Table() []*Descriptor {
	out := make([]*Descriptor, len(registry.list))
	copy(out, registry.list)
	return out
}

// ParseOption applies a single option to c the way a command-line token
// would: "no" prefixes negate booleans, boolean options ignore value, and
// unknown names fail.
func ParseOption(c *Context, key, value string) error {
	d := Find(key)
	switch {
	case d == nil && strings.HasPrefix(key, "no"):
		if nd := Find(key[2:]); nd != nil && nd.Kind == KindBool {
			d, value = nd, "0"
		}
	case d != nil && d.Kind == KindBool && !d.NeedsArg():
		value = "1"
	}
	if d == nil {
		return job.Resolutionf("Unrecognized option '%s'", key)
	}
	return Write(c, d, key, value)
}
