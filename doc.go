// Package arc provides atomically reference-counted shared ownership with
// weak observers.
//
// An [Arc] owns a share of a heap value; a [Weak] observes it without
// keeping it alive. Both are built on one control block holding two
// counters: the number of Arc handles and the number of handles of either
// kind. The value is destroyed exactly once, by whichever goroutine drops
// the last Arc, and the block is retired exactly once, by whichever drops
// the last handle overall. No operation takes a lock or parks the caller.
//
// Go has no destructors, so "destroying" a value means running its
// [Dropper] (or the function given to [NewFunc]) and clearing the slot.
// Handles must be released explicitly with Drop, mirroring the way files
// and connections are closed.
//
// Overflowing a counter, releasing a counter below zero or retiring a block
// twice are memory-safety violations of the counting scheme. They terminate
// the process with exit status 2 and cannot be recovered.
//
// Reference cycles between Arc values are never collected by the counts;
// break them with Weak.
//
// [Registry] builds on Weak to hand out at most one live value per key.
package arc
