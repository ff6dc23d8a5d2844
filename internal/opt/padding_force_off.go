//go:build arc_disable_padding

package opt

// CounterPad_ separates the strong and total counters of a control block.
// Padding is force-disabled via the arc_disable_padding build tag.
// Use: go build -tags=arc_disable_padding
type CounterPad_ struct{}
