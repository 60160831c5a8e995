// Package intern assigns dense indices to repeated strings of a single frame.
package intern

// Interner maps strings to their position in an append-only table.
// Indices follow first-seen order, so the same input sequence always yields
// the same table. An Interner belongs to one frame and is not safe for
// concurrent use.
type Interner struct {
	index   map[string]uint32
	strings []string
}

// New creates an interner sized for roughly hint distinct strings.
func New(hint int) *Interner {
	if hint < 0 {
		hint = 0
	}

	return &Interner{
		index:   make(map[string]uint32, hint),
		strings: make([]string, 0, hint),
	}
}

// Intern returns the index of value, appending it on first sight.
func (in *Interner) Intern(value string) uint32 {
	if idx, ok := in.index[value]; ok {
		return idx
	}

	idx := uint32(len(in.strings)) //nolint: gosec
	in.strings = append(in.strings, value)
	in.index[value] = idx

	return idx
}

// Lookup returns the index of value without interning it.
func (in *Interner) Lookup(value string) (uint32, bool) {
	idx, ok := in.index[value]
	return idx, ok
}

// Strings returns the table in index order. The slice is owned by the
// interner until the frame is finished; callers must not modify it.
func (in *Interner) Strings() []string {
	return in.strings
}

// Len returns the number of distinct strings.
func (in *Interner) Len() int {
	return len(in.strings)
}
