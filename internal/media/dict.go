package media

import "strings"

// DictFlags alter how [Dict.Set] and [Dict.Copy] treat existing keys.
type DictFlags int

const (
	// DontOverwrite keeps an existing value instead of replacing it.
	DontOverwrite DictFlags = 1 << iota
	// Append concatenates the new value onto an existing one.
	Append
)

// Entry is one key/value pair of a [Dict].
type Entry struct {
	Key   string
	Value string
}

// Dict is an ordered string dictionary with case-insensitive keys. The zero
// value is an empty dictionary ready for use.
type Dict struct {
	entries []Entry
}

// NewDict builds a dictionary from alternating key, value arguments.
func NewDict(kv ...string) *Dict {
	d := &Dict{}
	for i := 0; i+1 < len(kv); i += 2 {
		d.Set(kv[i], kv[i+1], 0)
	}
	return d
}

func (d *Dict) index(key string) int {
	if d == nil {
		return -1
	}
	for i, e := range d.entries {
		if strings.EqualFold(e.Key, key) {
			return i
		}
	}
	return -1
}

// Set stores value under key, honoring flags.
func (d *Dict) Set(key, value string, flags DictFlags) {
	i := d.index(key)
	if i < 0 {
		d.entries = append(d.entries, Entry{Key: key, Value: value})
		return
	}
	switch {
	case flags&DontOverwrite != 0:
		// keep existing
	case flags&Append != 0:
		d.entries[i].Value += value
	default:
		d.entries[i].Value = value
	}
}

// Get returns the value stored under key.
func (d *Dict) Get(key string) (string, bool) {
	if d == nil {
		return "", false
	}
	if i := d.index(key); i >= 0 {
		return d.entries[i].Value, true
	}
	return "", false
}

// Has reports whether key is present.
func (d *Dict) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Delete removes key if present.
func (d *Dict) Delete(key string) {
	if i := d.index(key); i >= 0 {
		d.entries = append(d.entries[:i], d.entries[i+1:]...)
	}
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Entries returns a copy of the entries in insertion order.
func (d *Dict) Entries() []Entry {
	if d == nil {
		return nil
	}
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Copy merges every entry of src into d using flags.
func (d *Dict) Copy(src *Dict, flags DictFlags) {
	if src == nil {
		return
	}
	for _, e := range src.entries {
		d.Set(e.Key, e.Value, flags)
	}
}

// Clone returns an independent copy of d.
func (d *Dict) Clone() *Dict {
	c := &Dict{}
	c.Copy(d, 0)
	return c
}

// Map returns the entries as a plain map, for rendering.
func (d *Dict) Map() map[string]string {
	if d.Len() == 0 {
		return nil
	}
	m := make(map[string]string, len(d.entries))
	for _, e := range d.entries {
		m[e.Key] = e.Value
	}
	return m
}
