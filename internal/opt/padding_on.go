//go:build !(amd64 || 386 || arm || mips || mipsle || wasm) && !arc_disable_padding && !arc_enable_padding

package opt

// CounterPad_ separates the strong and total counters of a control block,
// so clone/drop traffic on one does not evict the other's cache line.
// Padding is automatically enabled for architectures that are NOT:
// - amd64 (x86_64): Hardware optimizations often make padding less critical
// - 32-bit architectures (386, arm, mips, mipsle, wasm): Smaller cache lines/memory constraints
//
// Enabled for: arm64, s390x, ppc64, ppc64le, riscv64, loong64, mips64, mips64le, etc.
type CounterPad_ [CacheLineSize_ - 8]byte
