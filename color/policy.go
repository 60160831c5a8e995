// Package color selects the color key of each aggregated row.
//
// A Policy is the only behavioral difference between track kinds: expected
// frame tracks paint every row the same color, actual frame tracks derive the
// color from the frame's jank classification.
package color

import "github.com/arloliu/spanq/source"

// Material palette keys used by the frame timeline tracks.
const (
	Blue       = "#03A9F4" // Blue 500
	Green      = "#4CAF50" // Green 500
	Yellow     = "#FFEB3B" // Yellow 500
	Red        = "#FF5722" // Red 500
	LightGreen = "#C0D588" // Light Green 500
	Pink       = "#F515E0" // Pink 500
)

// Jank tags reported by the frame timeline.
const (
	TagSelfJank               = "Self Jank"
	TagOtherJank              = "Other Jank"
	TagDroppedFrame           = "Dropped Frame"
	TagBufferStuffing         = "Buffer Stuffing"
	TagSurfaceFlingerStuffing = "SurfaceFlinger Stuffing"
	TagNoJank                 = "No Jank"
)

// Policy picks the color key for a row.
type Policy interface {
	Color(row *source.Row) string
	// NeedsCategory reports whether rows must carry their category tag.
	NeedsCategory() bool
}

// PolicyFunc adapts a function to Policy. It always requests categories.
type PolicyFunc func(row *source.Row) string

func (f PolicyFunc) Color(row *source.Row) string { return f(row) }

func (f PolicyFunc) NeedsCategory() bool { return true }

// FixedPolicy paints every row with one color key.
type FixedPolicy struct {
	key string
}

var _ Policy = FixedPolicy{}

// Fixed returns a policy that always yields key.
func Fixed(key string) FixedPolicy {
	return FixedPolicy{key: key}
}

func (p FixedPolicy) Color(*source.Row) string { return p.key }

func (p FixedPolicy) NeedsCategory() bool { return false }

// Key returns the constant color key.
func (p FixedPolicy) Key() string { return p.key }

// CategoryPolicy maps category tags to color keys through a lookup table,
// with a fallback for unknown or missing tags.
type CategoryPolicy struct {
	table    map[string]string
	fallback string
}

var _ Policy = (*CategoryPolicy)(nil)

// Category returns a policy over a copy of table.
func Category(table map[string]string, fallback string) *CategoryPolicy {
	t := make(map[string]string, len(table))
	for tag, key := range table {
		t[tag] = key
	}

	return &CategoryPolicy{table: t, fallback: fallback}
}

// JankTable returns the default jank tag to color table.
func JankTable() map[string]string {
	return map[string]string{
		TagSelfJank:               Red,
		TagOtherJank:              Yellow,
		TagDroppedFrame:           Blue,
		TagBufferStuffing:         LightGreen,
		TagSurfaceFlingerStuffing: LightGreen,
		TagNoJank:                 Green,
	}
}

// Jank returns the category policy used by actual frame tracks.
func Jank() *CategoryPolicy {
	return Category(JankTable(), Pink)
}

func (p *CategoryPolicy) Color(row *source.Row) string {
	if key, ok := p.table[row.Category]; ok {
		return key
	}

	return p.fallback
}

func (p *CategoryPolicy) NeedsCategory() bool { return true }

// Fallback returns the color used for unknown tags.
func (p *CategoryPolicy) Fallback() string { return p.fallback }
