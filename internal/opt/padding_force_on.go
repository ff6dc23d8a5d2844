//go:build arc_enable_padding

package opt

// CounterPad_ separates the strong and total counters of a control block.
// Padding is force-enabled via the arc_enable_padding build tag.
// Use: go build -tags=arc_enable_padding
type CounterPad_ [CacheLineSize_ - 8]byte
