//go:build (amd64 || 386 || arm || mips || mipsle || wasm) && !arc_disable_padding && !arc_enable_padding

package opt

// CounterPad_ separates the strong and total counters of a control block.
// Padding is disabled by default for:
// - amd64
// - 32-bit architectures (386, arm, mips, mipsle, wasm)
type CounterPad_ struct{}
