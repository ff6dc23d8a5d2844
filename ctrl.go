package arc

import (
	"sync/atomic"

	"github.com/llxisdsh/arc/internal/opt"
)

// ctrl is the control block shared by every handle to one value.
//
// Counter protocol:
//   - increments only need to keep a counter from reaching zero early
//   - the decrement that lands on zero owns the transition it guards:
//     strong -> 0 destroys the value, total -> 0 releases the block
//   - every Arc holds one unit of both counters, every Weak one unit of total,
//     so total >= strong and total reaches zero only after strong has
//
// sync/atomic operations are sequentially consistent. A decrement
// therefore publishes every write its holder made, and the goroutine whose
// decrement observes zero sees all of them before it touches the value or
// the block; the upgrade CAS likewise observes a fully built value.
type ctrl[T any] struct {
	_ noCopy
	// strong is the number of live Arc handles. Once it reaches zero it
	// never moves again.
	strong atomic.Int64
	_      opt.CounterPad_
	// total is the number of live Arc and Weak handles combined.
	total atomic.Int64
	_     opt.CounterPad_

	// released flips once, when total reaches zero.
	released atomic.Bool

	// present is true until the value is destroyed or taken by TryUnwrap.
	// Written only by the goroutine that owns that transition.
	present bool
	drop    func(*T)
	value   T
}

func newCtrl[T any](value T, drop func(*T)) *ctrl[T] {
	c := &ctrl[T]{present: true, drop: drop, value: value}
	c.strong.Store(1)
	c.total.Store(1)
	return c
}

func (c *ctrl[T]) retainStrong() {
	checkRetain(c.strong.Add(1) - 1)
}

func (c *ctrl[T]) retainTotal() {
	checkRetain(c.total.Add(1) - 1)
}

// tryRetainStrong adds a strong reference unless the value is already gone.
// A zero count is final, so a false result never needs a retry.
func (c *ctrl[T]) tryRetainStrong() bool {
	var spins int
	for {
		n := c.strong.Load()
		if n == 0 {
			return false
		}
		checkRetain(n)
		if c.strong.CompareAndSwap(n, n+1) {
			return true
		}
		trySpin(&spins)
	}
}

func (c *ctrl[T]) releaseStrong() {
	n := c.strong.Add(-1)
	checkRelease(n)
	if n == 0 {
		c.destroy()
	}
}

func (c *ctrl[T]) releaseTotal() {
	n := c.total.Add(-1)
	checkRelease(n)
	if n == 0 {
		c.release()
	}
}

// destroy runs the value's destructor and clears the slot.
func (c *ctrl[T]) destroy() {
	if c.drop != nil {
		c.drop(&c.value)
	}
	c.clear()
}

func (c *ctrl[T]) clear() {
	var zero T
	c.value = zero
	c.present = false
}

// release retires the block. Nothing may reach it afterwards.
func (c *ctrl[T]) release() {
	if c.released.Swap(true) {
		fatal("control block released twice")
		return
	}
	c.drop = nil
}

// Dropper is implemented by values that hold resources needing cleanup when
// the last Arc to them is dropped. Drop is called exactly once, by the
// goroutine whose Drop retired the last strong handle.
type Dropper interface {
	Drop()
}

// dropperOf returns a destructor calling Drop on the value, accepting either
// a value or a pointer receiver.
func dropperOf[T any](v *T) func(*T) {
	if _, ok := any(v).(Dropper); ok {
		return func(p *T) { any(p).(Dropper).Drop() }
	}
	if _, ok := any(*v).(Dropper); ok {
		return func(p *T) {
			if d, ok := any(*p).(Dropper); ok {
				d.Drop()
			}
		}
	}
	return nil
}
