//go:build race

package opt

// Race_ reports whether the race detector is enabled. Stress loops scale
// down under it, since every atomic operation is instrumented.
const Race_ = true
